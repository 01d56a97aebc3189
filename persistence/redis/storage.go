package redis

import (
	"github.com/mohitkumar/quorum/model"
	"github.com/mohitkumar/quorum/persistence"
	"github.com/mohitkumar/quorum/util"
)

var _ persistence.Storage = new(redisStorage)

type redisStorage struct {
	*redisMetadataStorage
	*redisInstanceDao
	*redisParticipationDao
	*redisResultDao
}

func NewRedisStorage(conf Config, instanceEncDec util.EncoderDecoder[model.ProcessInstance]) *redisStorage {
	return &redisStorage{
		redisMetadataStorage:  NewRedisMetadataStorage(conf),
		redisInstanceDao:      NewRedisInstanceDao(conf, instanceEncDec),
		redisParticipationDao: NewRedisParticipationDao(conf),
		redisResultDao:        NewRedisResultDao(conf),
	}
}
