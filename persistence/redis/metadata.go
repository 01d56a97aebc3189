package redis

import (
	"context"

	rd "github.com/go-redis/redis/v9"
	"github.com/mohitkumar/quorum/logger"
	"github.com/mohitkumar/quorum/model"
	"github.com/mohitkumar/quorum/persistence"
	"github.com/mohitkumar/quorum/util"
	"go.uber.org/zap"
)

const SCHEMA_KEY string = "SCHEMA"

var _ persistence.MetadataStorage = new(redisMetadataStorage)

type redisMetadataStorage struct {
	*baseDao
	schemaEncDec util.EncoderDecoder[model.ProcessSchema]
}

func NewRedisMetadataStorage(conf Config) *redisMetadataStorage {
	return &redisMetadataStorage{
		baseDao:      newBaseDao(conf),
		schemaEncDec: util.NewJsonEncoderDecoder[model.ProcessSchema](),
	}
}

func (rm *redisMetadataStorage) SaveProcessSchema(schema model.ProcessSchema) error {
	key := rm.baseDao.getNamespaceKey(SCHEMA_KEY, schema.Name)
	ctx := context.Background()
	data, err := rm.schemaEncDec.Encode(schema)
	if err != nil {
		return err
	}
	if err := rm.redisClient.Set(ctx, key, data, 0).Err(); err != nil {
		logger.Error("error in saving process schema", zap.String("schema", schema.Name), zap.Error(err))
		return persistence.StorageLayerError{}
	}
	return nil
}

func (rm *redisMetadataStorage) DeleteProcessSchema(name string) error {
	key := rm.baseDao.getNamespaceKey(SCHEMA_KEY, name)
	ctx := context.Background()
	if err := rm.redisClient.Del(ctx, key).Err(); err != nil {
		logger.Error("error in deleting process schema", zap.String("schema", name), zap.Error(err))
		return persistence.StorageLayerError{}
	}
	return nil
}

func (rm *redisMetadataStorage) GetProcessSchema(name string) (*model.ProcessSchema, error) {
	key := rm.baseDao.getNamespaceKey(SCHEMA_KEY, name)
	ctx := context.Background()
	val, err := rm.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == rd.Nil {
			return nil, model.NotFoundError{Entity: "process schema", Id: name}
		}
		logger.Error("error in getting process schema", zap.String("schema", name), zap.Error(err))
		return nil, persistence.StorageLayerError{}
	}
	return rm.schemaEncDec.Decode([]byte(val))
}
