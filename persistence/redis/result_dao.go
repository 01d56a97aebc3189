package redis

import (
	"context"
	"time"

	rd "github.com/go-redis/redis/v9"
	"github.com/mohitkumar/quorum/logger"
	"github.com/mohitkumar/quorum/model"
	"github.com/mohitkumar/quorum/persistence"
	"github.com/mohitkumar/quorum/util"
	"go.uber.org/zap"
)

const RESULT_KEY string = "RESULT"
const RESULT_LINK_KEY string = "RESULT_LINK"
const RECORD_KEY string = "RECORD"

var _ persistence.ResultStorage = new(redisResultDao)
var _ persistence.RecordStorage = new(redisResultDao)

type redisResultDao struct {
	*baseDao
	resultEncDec   util.EncoderDecoder[model.ProcessResult]
	linkEncDec     util.EncoderDecoder[model.ResultProposalLink]
	proposalEncDec util.EncoderDecoder[model.Proposal]
}

func NewRedisResultDao(conf Config) *redisResultDao {
	return &redisResultDao{
		baseDao:        newBaseDao(conf),
		resultEncDec:   util.NewJsonEncoderDecoder[model.ProcessResult](),
		linkEncDec:     util.NewJsonEncoderDecoder[model.ResultProposalLink](),
		proposalEncDec: util.NewJsonEncoderDecoder[model.Proposal](),
	}
}

// SaveProcessResult writes the result row, the per-proposal junction rows and
// the selected-status flips in one transactional unit.
func (rr *redisResultDao) SaveProcessResult(result *model.ProcessResult, links []model.ResultProposalLink) error {
	resultKey := rr.baseDao.getNamespaceKey(RESULT_KEY, result.InstanceId)
	linkKey := rr.baseDao.getNamespaceKey(RESULT_LINK_KEY, result.Id)
	proposalKey := rr.baseDao.getNamespaceKey(PROPOSAL_KEY, result.InstanceId)
	ctx := context.Background()

	resultData, err := rr.resultEncDec.Encode(*result)
	if err != nil {
		return err
	}
	selected := make(map[string]string, len(links))
	for _, link := range links {
		val, err := rr.redisClient.HGet(ctx, proposalKey, link.ProposalId).Result()
		if err != nil {
			if err == rd.Nil {
				return model.NotFoundError{Entity: "proposal", Id: link.ProposalId}
			}
			logger.Error("error in loading selected proposal", zap.String("proposalId", link.ProposalId), zap.Error(err))
			return persistence.StorageLayerError{}
		}
		proposal, err := rr.proposalEncDec.Decode([]byte(val))
		if err != nil {
			return err
		}
		proposal.Status = model.PROPOSAL_STATUS_SELECTED
		proposal.UpdatedAt = time.Now()
		data, err := rr.proposalEncDec.Encode(*proposal)
		if err != nil {
			return err
		}
		selected[link.ProposalId] = string(data)
	}

	_, err = rr.redisClient.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.RPush(ctx, resultKey, resultData)
		for _, link := range links {
			data, err := rr.linkEncDec.Encode(link)
			if err != nil {
				return err
			}
			pipe.RPush(ctx, linkKey, data)
			pipe.HSet(ctx, proposalKey, link.ProposalId, selected[link.ProposalId])
		}
		return nil
	})
	if err != nil {
		logger.Error("error in saving process result", zap.String("instanceId", result.InstanceId), zap.Error(err))
		return persistence.StorageLayerError{}
	}
	return nil
}

func (rr *redisResultDao) ListProcessResults(instanceId string) ([]*model.ProcessResult, error) {
	resultKey := rr.baseDao.getNamespaceKey(RESULT_KEY, instanceId)
	ctx := context.Background()
	rows, err := rr.redisClient.LRange(ctx, resultKey, 0, -1).Result()
	if err != nil {
		logger.Error("error in listing process results", zap.String("instanceId", instanceId), zap.Error(err))
		return nil, persistence.StorageLayerError{}
	}
	results := make([]*model.ProcessResult, 0, len(rows))
	for _, row := range rows {
		result, err := rr.resultEncDec.Decode([]byte(row))
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (rr *redisResultDao) SaveRecord(instanceId string, recordType string, payload map[string]any) error {
	recordKey := rr.baseDao.getNamespaceKey(RECORD_KEY, instanceId)
	ctx := context.Background()
	data, err := util.NewJsonEncoderDecoder[map[string]any]().Encode(map[string]any{
		"type":      recordType,
		"payload":   payload,
		"createdAt": time.Now(),
	})
	if err != nil {
		return err
	}
	if err := rr.redisClient.RPush(ctx, recordKey, data).Err(); err != nil {
		logger.Error("error in saving record", zap.String("instanceId", instanceId), zap.Error(err))
		return persistence.StorageLayerError{}
	}
	return nil
}
