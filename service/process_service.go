package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mohitkumar/quorum/auth"
	"github.com/mohitkumar/quorum/container"
	"github.com/mohitkumar/quorum/logger"
	"github.com/mohitkumar/quorum/model"
	"go.uber.org/zap"
)

// ProcessService starts instances from a schema and serves instance reads.
type ProcessService struct {
	container *container.DIContainer
}

func NewProcessService(container *container.DIContainer) *ProcessService {
	return &ProcessService{container: container}
}

// StartInstance creates a new instance of the named schema positioned in its
// initial state, owned by the calling profile.
func (s *ProcessService) StartInstance(ctx context.Context, req model.StartInstanceRequest) (*model.ProcessInstance, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	schema, err := s.container.GetSchemaCache().Get(req.SchemaName)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	instance := &model.ProcessInstance{
		Id:             uuid.New().String(),
		SchemaName:     schema.Name,
		OwnerProfileId: actor.ProfileId,
		Revision:       1,
		Data: model.InstanceData{
			Budget:      req.Budget,
			FieldValues: req.FieldValues,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	instance.Data.EnterState(schema.InitialState, nil, now)
	instance.CurrentStateId = instance.Data.CurrentStateId
	if err := s.container.GetStorage().CreateProcessInstance(instance); err != nil {
		return nil, err
	}
	logger.Info("instance started", zap.String("instanceId", instance.Id), zap.String("schema", schema.Name), zap.String("state", schema.InitialState))
	return instance, nil
}

func (s *ProcessService) GetInstance(ctx context.Context, instanceId string) (*model.ProcessInstance, error) {
	if _, err := auth.FromContext(ctx); err != nil {
		return nil, err
	}
	return s.container.GetStorage().GetProcessInstance(instanceId)
}

func (s *ProcessService) GetHistory(ctx context.Context, instanceId string) ([]*model.TransitionRecord, error) {
	if _, err := auth.FromContext(ctx); err != nil {
		return nil, err
	}
	if _, err := s.container.GetStorage().GetProcessInstance(instanceId); err != nil {
		return nil, err
	}
	return s.container.GetStorage().GetTransitionHistory(instanceId)
}
