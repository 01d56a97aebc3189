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

// ProposalService handles proposal submission and the proposal status
// lifecycle. Submission is gated by the state config of the instance's
// current state.
type ProposalService struct {
	container *container.DIContainer
}

func NewProposalService(container *container.DIContainer) *ProposalService {
	return &ProposalService{container: container}
}

func (s *ProposalService) SubmitProposal(ctx context.Context, instanceId string, req model.SubmitProposalRequest) (*model.Proposal, error) {
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
	if state == nil || !state.Config.ProposalsAllowed() {
		return nil, model.ValidationError{Message: fmt.Sprintf("proposals are not accepted in state %s", instance.ResolveCurrentState())}
	}
	status := model.PROPOSAL_STATUS_SUBMITTED
	if req.Draft {
		status = model.PROPOSAL_STATUS_DRAFT
	}
	now := time.Now()
	proposal := &model.Proposal{
		Id:                 uuid.New().String(),
		InstanceId:         instanceId,
		SubmitterProfileId: actor.ProfileId,
		Status:             status,
		Data:               req.Data,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := storage.SaveProposal(proposal); err != nil {
		return nil, err
	}
	logger.Info("proposal submitted", zap.String("instanceId", instanceId), zap.String("proposalId", proposal.Id), zap.String("profileId", actor.ProfileId))
	return proposal, nil
}

func (s *ProposalService) ListProposals(ctx context.Context, instanceId string) ([]*model.Proposal, error) {
	if _, err := auth.FromContext(ctx); err != nil {
		return nil, err
	}
	if _, err := s.container.GetStorage().GetProcessInstance(instanceId); err != nil {
		return nil, err
	}
	return s.container.GetStorage().ListProposals(instanceId)
}

// UpdateProposalStatus moves a proposal along its lifecycle. The submitter may
// advance their own proposal; approve and reject are reserved for the
// instance owner.
func (s *ProposalService) UpdateProposalStatus(ctx context.Context, instanceId string, proposalId string, next model.ProposalStatus) (*model.Proposal, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	storage := s.container.GetStorage()
	instance, err := storage.GetProcessInstance(instanceId)
	if err != nil {
		return nil, err
	}
	proposal, err := storage.GetProposal(instanceId, proposalId)
	if err != nil {
		return nil, err
	}
	if !next.Valid() {
		return nil, model.ValidationError{Message: fmt.Sprintf("unknown proposal status %s", next)}
	}
	if !proposal.Status.CanMoveTo(next) {
		return nil, model.ValidationError{Message: fmt.Sprintf("proposal can not move from %s to %s", proposal.Status, next)}
	}
	isOwner := actor.ProfileId == instance.OwnerProfileId || actor.HasRole(auth.ROLE_OWNER)
	switch next {
	case model.PROPOSAL_STATUS_APPROVED, model.PROPOSAL_STATUS_REJECTED:
		if !isOwner {
			return nil, model.UnauthorizedError{Message: "only the instance owner can approve or reject proposals"}
		}
	default:
		if actor.ProfileId != proposal.SubmitterProfileId && !isOwner {
			return nil, model.UnauthorizedError{Message: "only the submitter can update this proposal"}
		}
	}
	proposal.Status = next
	proposal.UpdatedAt = time.Now()
	if err := storage.SaveProposal(proposal); err != nil {
		return nil, err
	}
	logger.Info("proposal status updated", zap.String("proposalId", proposalId), zap.String("status", string(next)))
	return proposal, nil
}
