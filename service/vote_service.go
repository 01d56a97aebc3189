package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mohitkumar/quorum/auth"
	"github.com/mohitkumar/quorum/container"
	"github.com/mohitkumar/quorum/logger"
	"github.com/mohitkumar/quorum/model"
	"go.uber.org/zap"
)

// VoteService records vote submissions and reviewer decisions. Both are gated
// by the state config of the instance's current state.
type VoteService struct {
	container *container.DIContainer
}

func NewVoteService(container *container.DIContainer) *VoteService {
	return &VoteService{container: container}
}

// SubmitVote records the caller's selection of proposals. A repeat submission
// from the same profile replaces the earlier one; submissions themselves are
// never mutated.
func (s *VoteService) SubmitVote(ctx context.Context, instanceId string, req model.SubmitVoteRequest) (*model.VoteSubmission, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	storage := s.container.GetStorage()
	instance, err := storage.GetProcessInstance(instanceId)
	if err != nil {
		return nil, err
	}
	schema, err := s.container.GetSchemaCache().Get(instance.SchemaName)
	if err != nil {
		return nil, err
	}
	state := schema.GetState(instance.ResolveCurrentState())
	if state == nil || !state.Config.DecisionsAllowed() {
		return nil, model.ValidationError{Message: fmt.Sprintf("votes are not accepted in state %s", instance.ResolveCurrentState())}
	}
	if len(req.ProposalIds) == 0 {
		return nil, model.ValidationError{Message: "a vote must select at least one proposal"}
	}
	seen := make(map[string]bool, len(req.ProposalIds))
	for _, proposalId := range req.ProposalIds {
		if seen[proposalId] {
			return nil, model.ValidationError{Message: fmt.Sprintf("proposal %s selected more than once", proposalId)}
		}
		seen[proposalId] = true
		if _, err := storage.GetProposal(instanceId, proposalId); err != nil {
			return nil, err
		}
	}
	vote := &model.VoteSubmission{
		Id:             uuid.New().String(),
		InstanceId:     instanceId,
		VoterProfileId: actor.ProfileId,
		ProposalIds:    req.ProposalIds,
		CreatedAt:      time.Now(),
	}
	if err := storage.SaveVote(vote); err != nil {
		return nil, err
	}
	logger.Info("vote submitted", zap.String("instanceId", instanceId), zap.String("profileId", actor.ProfileId), zap.Int("proposals", len(req.ProposalIds)))
	return vote, nil
}

func (s *VoteService) RecordDecision(ctx context.Context, instanceId string, req model.RecordDecisionRequest) (*model.Decision, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	storage := s.container.GetStorage()
	instance, err := storage.GetProcessInstance(instanceId)
	if err != nil {
		return nil, err
	}
	schema, err := s.container.GetSchemaCache().Get(instance.SchemaName)
	if err != nil {
		return nil, err
	}
	state := schema.GetState(instance.ResolveCurrentState())
	if state == nil || !state.Config.DecisionsAllowed() {
		return nil, model.ValidationError{Message: fmt.Sprintf("decisions are not accepted in state %s", instance.ResolveCurrentState())}
	}
	if _, err := storage.GetProposal(instanceId, req.ProposalId); err != nil {
		return nil, err
	}
	decision := &model.Decision{
		Id:         uuid.New().String(),
		InstanceId: instanceId,
		ProposalId: req.ProposalId,
		ProfileId:  actor.ProfileId,
		Approved:   req.Approved,
		Payload:    req.Payload,
		CreatedAt:  time.Now(),
	}
	if err := storage.SaveDecision(decision); err != nil {
		return nil, err
	}
	logger.Info("decision recorded", zap.String("instanceId", instanceId), zap.String("proposalId", req.ProposalId), zap.Bool("approved", req.Approved))
	return decision, nil
}

func (s *VoteService) ListResults(ctx context.Context, instanceId string) ([]*model.ProcessResult, error) {
	if _, err := auth.FromContext(ctx); err != nil {
		return nil, err
	}
	if _, err := s.container.GetStorage().GetProcessInstance(instanceId); err != nil {
		return nil, err
	}
	return s.container.GetStorage().ListProcessResults(instanceId)
}
