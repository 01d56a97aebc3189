package redis

import (
	"context"
	"strconv"

	rd "github.com/go-redis/redis/v9"
	"github.com/mohitkumar/quorum/logger"
	"github.com/mohitkumar/quorum/model"
	"github.com/mohitkumar/quorum/persistence"
	"github.com/mohitkumar/quorum/util"
	"go.uber.org/zap"
)

const PROPOSAL_KEY string = "PROPOSAL"
const VOTE_KEY string = "VOTE"
const DECISION_KEY string = "DECISION"
const COUNTS_KEY string = "COUNTS"

const countFieldDecisions string = "decisions"
const countFieldApprovals string = "approvals"

var _ persistence.ParticipationStorage = new(redisParticipationDao)

type redisParticipationDao struct {
	*baseDao
	proposalEncDec util.EncoderDecoder[model.Proposal]
	voteEncDec     util.EncoderDecoder[model.VoteSubmission]
	decisionEncDec util.EncoderDecoder[model.Decision]
}

func NewRedisParticipationDao(conf Config) *redisParticipationDao {
	return &redisParticipationDao{
		baseDao:        newBaseDao(conf),
		proposalEncDec: util.NewJsonEncoderDecoder[model.Proposal](),
		voteEncDec:     util.NewJsonEncoderDecoder[model.VoteSubmission](),
		decisionEncDec: util.NewJsonEncoderDecoder[model.Decision](),
	}
}

func (rp *redisParticipationDao) SaveProposal(proposal *model.Proposal) error {
	key := rp.baseDao.getNamespaceKey(PROPOSAL_KEY, proposal.InstanceId)
	ctx := context.Background()
	data, err := rp.proposalEncDec.Encode(*proposal)
	if err != nil {
		return err
	}
	if err := rp.redisClient.HSet(ctx, key, proposal.Id, string(data)).Err(); err != nil {
		logger.Error("error in saving proposal", zap.String("instanceId", proposal.InstanceId), zap.String("proposalId", proposal.Id), zap.Error(err))
		return persistence.StorageLayerError{}
	}
	return nil
}

func (rp *redisParticipationDao) GetProposal(instanceId string, proposalId string) (*model.Proposal, error) {
	key := rp.baseDao.getNamespaceKey(PROPOSAL_KEY, instanceId)
	ctx := context.Background()
	val, err := rp.redisClient.HGet(ctx, key, proposalId).Result()
	if err != nil {
		if err == rd.Nil {
			return nil, model.NotFoundError{Entity: "proposal", Id: proposalId}
		}
		logger.Error("error in getting proposal", zap.String("proposalId", proposalId), zap.Error(err))
		return nil, persistence.StorageLayerError{}
	}
	return rp.proposalEncDec.Decode([]byte(val))
}

func (rp *redisParticipationDao) ListProposals(instanceId string) ([]*model.Proposal, error) {
	key := rp.baseDao.getNamespaceKey(PROPOSAL_KEY, instanceId)
	ctx := context.Background()
	rows, err := rp.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		logger.Error("error in listing proposals", zap.String("instanceId", instanceId), zap.Error(err))
		return nil, persistence.StorageLayerError{}
	}
	proposals := make([]*model.Proposal, 0, len(rows))
	for _, row := range rows {
		proposal, err := rp.proposalEncDec.Decode([]byte(row))
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, proposal)
	}
	return proposals, nil
}

// SaveVote keys the vote hash by voter profile so re-voting replaces the
// previous submission and distinct voter count is a single HLEN.
func (rp *redisParticipationDao) SaveVote(vote *model.VoteSubmission) error {
	key := rp.baseDao.getNamespaceKey(VOTE_KEY, vote.InstanceId)
	ctx := context.Background()
	data, err := rp.voteEncDec.Encode(*vote)
	if err != nil {
		return err
	}
	if err := rp.redisClient.HSet(ctx, key, vote.VoterProfileId, string(data)).Err(); err != nil {
		logger.Error("error in saving vote", zap.String("instanceId", vote.InstanceId), zap.Error(err))
		return persistence.StorageLayerError{}
	}
	return nil
}

func (rp *redisParticipationDao) ListVotes(instanceId string) ([]*model.VoteSubmission, error) {
	key := rp.baseDao.getNamespaceKey(VOTE_KEY, instanceId)
	ctx := context.Background()
	rows, err := rp.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		logger.Error("error in listing votes", zap.String("instanceId", instanceId), zap.Error(err))
		return nil, persistence.StorageLayerError{}
	}
	votes := make([]*model.VoteSubmission, 0, len(rows))
	for _, row := range rows {
		vote, err := rp.voteEncDec.Decode([]byte(row))
		if err != nil {
			return nil, err
		}
		votes = append(votes, vote)
	}
	return votes, nil
}

func (rp *redisParticipationDao) SaveDecision(decision *model.Decision) error {
	key := rp.baseDao.getNamespaceKey(DECISION_KEY, decision.InstanceId)
	countsKey := rp.baseDao.getNamespaceKey(COUNTS_KEY, decision.InstanceId)
	ctx := context.Background()
	data, err := rp.decisionEncDec.Encode(*decision)
	if err != nil {
		return err
	}
	_, err = rp.redisClient.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.HIncrBy(ctx, countsKey, countFieldDecisions, 1)
		if decision.Approved {
			pipe.HIncrBy(ctx, countsKey, countFieldApprovals, 1)
		}
		return nil
	})
	if err != nil {
		logger.Error("error in saving decision", zap.String("instanceId", decision.InstanceId), zap.Error(err))
		return persistence.StorageLayerError{}
	}
	return nil
}

func (rp *redisParticipationDao) ListDecisions(instanceId string) ([]*model.Decision, error) {
	key := rp.baseDao.getNamespaceKey(DECISION_KEY, instanceId)
	ctx := context.Background()
	rows, err := rp.redisClient.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		logger.Error("error in listing decisions", zap.String("instanceId", instanceId), zap.Error(err))
		return nil, persistence.StorageLayerError{}
	}
	decisions := make([]*model.Decision, 0, len(rows))
	for _, row := range rows {
		decision, err := rp.decisionEncDec.Decode([]byte(row))
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, decision)
	}
	return decisions, nil
}

// GetInstanceCounts serves every count-style guard of one transition
// evaluation from a single pipelined round trip.
func (rp *redisParticipationDao) GetInstanceCounts(instanceId string) (*persistence.InstanceCounts, error) {
	proposalKey := rp.baseDao.getNamespaceKey(PROPOSAL_KEY, instanceId)
	voteKey := rp.baseDao.getNamespaceKey(VOTE_KEY, instanceId)
	countsKey := rp.baseDao.getNamespaceKey(COUNTS_KEY, instanceId)
	ctx := context.Background()

	var proposalCount, voterCount *rd.IntCmd
	var decisionCount, approvalCount *rd.StringCmd
	_, err := rp.redisClient.Pipelined(ctx, func(pipe rd.Pipeliner) error {
		proposalCount = pipe.HLen(ctx, proposalKey)
		voterCount = pipe.HLen(ctx, voteKey)
		decisionCount = pipe.HGet(ctx, countsKey, countFieldDecisions)
		approvalCount = pipe.HGet(ctx, countsKey, countFieldApprovals)
		return nil
	})
	if err != nil && err != rd.Nil {
		logger.Error("error in reading instance counts", zap.String("instanceId", instanceId), zap.Error(err))
		return nil, persistence.StorageLayerError{}
	}
	return &persistence.InstanceCounts{
		Proposals:      proposalCount.Val(),
		DistinctVoters: voterCount.Val(),
		Decisions:      parseCount(decisionCount.Val()),
		Approvals:      parseCount(approvalCount.Val()),
	}, nil
}

func parseCount(val string) int64 {
	if val == "" {
		return 0
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
