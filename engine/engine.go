package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mohitkumar/quorum/auth"
	"github.com/mohitkumar/quorum/condition"
	"github.com/mohitkumar/quorum/container"
	"github.com/mohitkumar/quorum/logger"
	"github.com/mohitkumar/quorum/model"
	"go.uber.org/zap"
)

// TransitionEngine computes legal transitions for an instance, evaluates
// their guards and applies the atomic state change with history recording.
type TransitionEngine struct {
	container *container.DIContainer
}

func NewTransitionEngine(container *container.DIContainer) *TransitionEngine {
	return &TransitionEngine{container: container}
}

// CheckAvailableTransitions reports which transitions out of the instance's
// current state are executable right now and why the blocked ones are
// blocked. Read only; repeated calls never mutate instance state.
func (e *TransitionEngine) CheckAvailableTransitions(ctx context.Context, instanceId string, targetStateId string) (*model.TransitionCheckResult, error) {
	if _, err := auth.FromContext(ctx); err != nil {
		return nil, err
	}
	instance, err := e.container.GetStorage().GetProcessInstance(instanceId)
	if err != nil {
		return nil, err
	}
	schema, err := e.container.GetSchemaCache().Get(instance.SchemaName)
	if err != nil {
		return nil, err
	}
	result, _, err := e.check(instance, schema, targetStateId)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// check runs guard evaluation for every candidate transition out of the
// current state. It also returns the candidates whose guards passed so the
// execute path applies a transition that actually evaluated true, not merely
// one sharing the same target.
func (e *TransitionEngine) check(instance *model.ProcessInstance, schema *model.ProcessSchema, targetStateId string) (*model.TransitionCheckResult, []model.TransitionDefinition, error) {
	currentState := instance.ResolveCurrentState()
	if !schema.HasState(currentState) {
		return nil, nil, model.ValidationError{Message: fmt.Sprintf("instance %s is in undeclared state %s", instance.Id, currentState)}
	}
	candidates := schema.TransitionsFrom(currentState)
	if targetStateId != "" {
		var filtered []model.TransitionDefinition
		for _, tr := range candidates {
			if tr.To == targetStateId {
				filtered = append(filtered, tr)
			}
		}
		candidates = filtered
	}

	env := &condition.Env{
		Instance: instance,
		Schema:   schema,
		Now:      time.Now(),
	}
	if hasCountCondition(candidates) {
		counts, err := e.container.GetStorage().GetInstanceCounts(instance.Id)
		if err != nil {
			return nil, nil, err
		}
		env.Counts = counts
	}

	result := &model.TransitionCheckResult{
		AvailableTransitions: make([]model.AvailableTransition, 0, len(candidates)),
	}
	var executable []model.TransitionDefinition
	registry := e.container.GetConditionRegistry()
	for _, tr := range candidates {
		passed, failedRules := registry.EvaluateRules(env, tr.Rules)
		if passed {
			result.CanTransition = true
			executable = append(executable, tr)
		}
		result.AvailableTransitions = append(result.AvailableTransitions, model.AvailableTransition{
			ToStateId:      tr.To,
			TransitionName: tr.Name,
			CanExecute:     passed,
			FailedRules:    failedRules,
		})
	}
	return result, executable, nil
}

// ExecuteTransition re-validates the target transition and applies it: the
// current state pointer moves, a fresh StateData entry is recorded for the
// target state, declared actions run against the updated data, and the
// instance update plus the history record are persisted as one atomic unit
// guarded by the instance revision.
func (e *TransitionEngine) ExecuteTransition(ctx context.Context, instanceId string, toStateId string, transitionData map[string]any) (*model.ProcessInstance, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	storage := e.container.GetStorage()
	instance, err := storage.GetProcessInstance(instanceId)
	if err != nil {
		return nil, err
	}
	schema, err := e.container.GetSchemaCache().Get(instance.SchemaName)
	if err != nil {
		return nil, err
	}
	loadedRevision := instance.Revision

	checkResult, executable, err := e.check(instance, schema, toStateId)
	if err != nil {
		return nil, err
	}
	if !checkResult.CanTransition {
		var failed []model.FailedRule
		for _, tr := range checkResult.AvailableTransitions {
			failed = append(failed, tr.FailedRules...)
		}
		return nil, model.ValidationError{
			Message:     fmt.Sprintf("transition to state %s is not executable", toStateId),
			FailedRules: failed,
		}
	}

	// apply the first candidate whose guard actually passed; a sibling
	// transition to the same target with a failed guard must never run
	currentState := instance.ResolveCurrentState()
	transition := &executable[0]

	now := time.Now()
	instance.Data.EnterState(toStateId, transitionData, now)

	// actions run against the updated data before it is persisted, so
	// updateField effects land in the same write as the transition.
	e.container.GetActionExecutor().Run(instance.Id, &instance.Data, transition.Actions)

	instance.CurrentStateId = instance.Data.CurrentStateId
	instance.UpdatedAt = now
	record := &model.TransitionRecord{
		Id:                   uuid.New().String(),
		InstanceId:           instance.Id,
		FromState:            currentState,
		ToState:              toStateId,
		Payload:              transitionData,
		TriggeredByProfileId: actor.ProfileId,
		CreatedAt:            now,
	}
	if err := storage.UpdateInstanceAndRecordTransition(instance, loadedRevision, record); err != nil {
		return nil, err
	}
	logger.Info("transition executed", zap.String("instanceId", instance.Id), zap.String("from", currentState), zap.String("to", toStateId), zap.String("profileId", actor.ProfileId))

	if state := schema.GetState(toStateId); state != nil && state.Type == model.STATE_TYPE_FINAL {
		if err := storage.MarkInstanceComplete(instance.Id); err != nil {
			logger.Error("error marking instance complete", zap.String("instanceId", instance.Id), zap.Error(err))
		}
	}
	return storage.GetProcessInstance(instance.Id)
}

func hasCountCondition(transitions []model.TransitionDefinition) bool {
	for _, tr := range transitions {
		if tr.Rules == nil {
			continue
		}
		for _, cond := range tr.Rules.Conditions {
			switch cond.Type {
			case model.CONDITION_TYPE_PROPOSAL_COUNT, model.CONDITION_TYPE_PARTICIPATION_COUNT, model.CONDITION_TYPE_APPROVAL_RATE:
				return true
			}
		}
	}
	return false
}
