package redis

import (
	"context"
	"fmt"

	rd "github.com/go-redis/redis/v9"
	"github.com/mohitkumar/quorum/logger"
	"github.com/mohitkumar/quorum/model"
	"github.com/mohitkumar/quorum/persistence"
	"github.com/mohitkumar/quorum/util"
	"go.uber.org/zap"
)

const INSTANCE_KEY string = "INSTANCE"
const HISTORY_KEY string = "HISTORY"
const ACTIVE_KEY string = "ACTIVE"

var _ persistence.InstanceStorage = new(redisInstanceDao)

type redisInstanceDao struct {
	*baseDao
	instanceEncDec util.EncoderDecoder[model.ProcessInstance]
	recordEncDec   util.EncoderDecoder[model.TransitionRecord]
}

func NewRedisInstanceDao(conf Config, instanceEncDec util.EncoderDecoder[model.ProcessInstance]) *redisInstanceDao {
	return &redisInstanceDao{
		baseDao:        newBaseDao(conf),
		instanceEncDec: instanceEncDec,
		recordEncDec:   util.NewJsonEncoderDecoder[model.TransitionRecord](),
	}
}

func (ri *redisInstanceDao) CreateProcessInstance(instance *model.ProcessInstance) error {
	key := ri.baseDao.getNamespaceKey(INSTANCE_KEY, instance.Id)
	activeKey := ri.baseDao.getNamespaceKey(ACTIVE_KEY)
	ctx := context.Background()
	data, err := ri.instanceEncDec.Encode(*instance)
	if err != nil {
		return err
	}
	_, err = ri.redisClient.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.Set(ctx, key, data, 0)
		pipe.SAdd(ctx, activeKey, instance.Id)
		return nil
	})
	if err != nil {
		logger.Error("error in creating process instance", zap.String("instanceId", instance.Id), zap.Error(err))
		return persistence.StorageLayerError{}
	}
	return nil
}

func (ri *redisInstanceDao) GetProcessInstance(instanceId string) (*model.ProcessInstance, error) {
	key := ri.baseDao.getNamespaceKey(INSTANCE_KEY, instanceId)
	ctx := context.Background()
	val, err := ri.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == rd.Nil {
			return nil, model.NotFoundError{Entity: "process instance", Id: instanceId}
		}
		logger.Error("error in getting process instance", zap.String("instanceId", instanceId), zap.Error(err))
		return nil, persistence.StorageLayerError{}
	}
	return ri.instanceEncDec.Decode([]byte(val))
}

// UpdateInstanceAndRecordTransition performs a revision checked write of the
// instance together with the history append. Both land or neither does; a
// concurrent writer surfaces as a ConflictError.
func (ri *redisInstanceDao) UpdateInstanceAndRecordTransition(instance *model.ProcessInstance, expectedRevision int64, record *model.TransitionRecord) error {
	key := ri.baseDao.getNamespaceKey(INSTANCE_KEY, instance.Id)
	historyKey := ri.baseDao.getNamespaceKey(HISTORY_KEY, instance.Id)
	ctx := context.Background()

	err := ri.redisClient.Watch(ctx, func(tx *rd.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if err != nil {
			if err == rd.Nil {
				return model.NotFoundError{Entity: "process instance", Id: instance.Id}
			}
			return err
		}
		stored, err := ri.instanceEncDec.Decode([]byte(val))
		if err != nil {
			return err
		}
		if stored.Revision != expectedRevision {
			return model.ConflictError{Message: fmt.Sprintf("instance %s changed concurrently, revision %d expected %d", instance.Id, stored.Revision, expectedRevision)}
		}
		instance.Revision = expectedRevision + 1
		instanceData, err := ri.instanceEncDec.Encode(*instance)
		if err != nil {
			return err
		}
		recordData, err := ri.recordEncDec.Encode(*record)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
			pipe.Set(ctx, key, instanceData, 0)
			pipe.RPush(ctx, historyKey, recordData)
			return nil
		})
		return err
	}, key)

	switch err.(type) {
	case nil:
		return nil
	case model.NotFoundError, model.ConflictError:
		return err
	default:
		if err == rd.TxFailedErr {
			return model.ConflictError{Message: fmt.Sprintf("instance %s changed concurrently", instance.Id)}
		}
		logger.Error("error in updating process instance", zap.String("instanceId", instance.Id), zap.Error(err))
		return persistence.StorageLayerError{}
	}
}

func (ri *redisInstanceDao) GetTransitionHistory(instanceId string) ([]*model.TransitionRecord, error) {
	historyKey := ri.baseDao.getNamespaceKey(HISTORY_KEY, instanceId)
	ctx := context.Background()
	rows, err := ri.redisClient.LRange(ctx, historyKey, 0, -1).Result()
	if err != nil {
		logger.Error("error in reading transition history", zap.String("instanceId", instanceId), zap.Error(err))
		return nil, persistence.StorageLayerError{}
	}
	records := make([]*model.TransitionRecord, 0, len(rows))
	for _, row := range rows {
		record, err := ri.recordEncDec.Decode([]byte(row))
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (ri *redisInstanceDao) ListActiveInstanceIds() ([]string, error) {
	activeKey := ri.baseDao.getNamespaceKey(ACTIVE_KEY)
	ctx := context.Background()
	ids, err := ri.redisClient.SMembers(ctx, activeKey).Result()
	if err != nil {
		logger.Error("error in listing active instances", zap.Error(err))
		return nil, persistence.StorageLayerError{}
	}
	return ids, nil
}

func (ri *redisInstanceDao) MarkInstanceComplete(instanceId string) error {
	activeKey := ri.baseDao.getNamespaceKey(ACTIVE_KEY)
	ctx := context.Background()
	if err := ri.redisClient.SRem(ctx, activeKey, instanceId).Err(); err != nil {
		logger.Error("error in marking instance complete", zap.String("instanceId", instanceId), zap.Error(err))
		return persistence.StorageLayerError{}
	}
	return nil
}
