package engine

import (
	"context"
	"testing"
	"time"

	"github.com/mohitkumar/quorum/auth"
	"github.com/mohitkumar/quorum/container"
	"github.com/mohitkumar/quorum/model"
	"github.com/mohitkumar/quorum/persistence/inmem"
	"github.com/stretchr/testify/require"
)

func reviewSchema() model.ProcessSchema {
	return model.ProcessSchema{
		Name: "review-process",
		States: []model.StateDefinition{
			{Id: "submission", Type: model.STATE_TYPE_INITIAL},
			{Id: "voting", Type: model.STATE_TYPE_INTERMEDIATE},
			{Id: "closed", Type: model.STATE_TYPE_FINAL},
		},
		Transitions: []model.TransitionDefinition{
			{
				Id: "open-voting", From: model.StateRef{"submission"}, To: "voting",
				Rules: &model.TransitionRules{
					Conditions: []model.TransitionCondition{
						{Id: "min-proposals", Type: model.CONDITION_TYPE_PROPOSAL_COUNT, Operator: model.OPERATOR_GREATER_THAN, Value: 0},
					},
				},
				Actions: []model.TransitionAction{
					{Id: "flag-open", Type: model.ACTION_TYPE_UPDATE_FIELD, Config: map[string]any{"field": "votingOpened", "value": true}},
				},
			},
			{
				Id: "close", From: model.StateRef{"voting"}, To: "closed",
				Rules: &model.TransitionRules{
					Conditions: []model.TransitionCondition{
						{Id: "voting-opened", Type: model.CONDITION_TYPE_CUSTOM_FIELD, Operator: model.OPERATOR_EQUALS, Field: "votingOpened", Value: true},
						{Id: "admin-done", Type: model.CONDITION_TYPE_CUSTOM_FIELD, Operator: model.OPERATOR_EQUALS, Field: "adminDecisionComplete", Value: true},
					},
				},
			},
		},
		InitialState: "submission",
	}
}

type engineFixture struct {
	storage *inmem.InMemStorage
	engine  *TransitionEngine
	ctx     context.Context
}

func newFixture(t *testing.T) *engineFixture {
	storage := inmem.NewInMemStorage()
	d := container.NewDiContainer()
	d.InitForTest(storage)

	schema := reviewSchema()
	require.NoError(t, schema.Validate())
	require.NoError(t, storage.SaveProcessSchema(schema))

	instance := &model.ProcessInstance{
		Id:             "inst-1",
		SchemaName:     schema.Name,
		OwnerProfileId: "owner-1",
		Revision:       1,
		CreatedAt:      time.Now(),
	}
	instance.Data.EnterState("submission", nil, time.Now())
	instance.CurrentStateId = instance.Data.CurrentStateId
	require.NoError(t, storage.CreateProcessInstance(instance))

	return &engineFixture{
		storage: storage,
		engine:  NewTransitionEngine(d),
		ctx:     auth.WithActor(context.Background(), &auth.Actor{ProfileId: "caller-1"}),
	}
}

func (f *engineFixture) addProposal(t *testing.T, id string) {
	require.NoError(t, f.storage.SaveProposal(&model.Proposal{
		Id: id, InstanceId: "inst-1", SubmitterProfileId: "p-1",
		Status: model.PROPOSAL_STATUS_SUBMITTED, CreatedAt: time.Now(),
	}))
}

func TestTransitionEngine(t *testing.T) {
	for scenario, fn := range map[string]func(
		t *testing.T, f *engineFixture,
	){
		"test guard blocks then passes":          testGuardBlocksThenPasses,
		"test check is read only":                testCheckIsReadOnly,
		"test execute blocked leaves state":      testExecuteBlockedLeavesState,
		"test field gate opened by action":       testFieldGateOpenedByAction,
		"test failed write leaves no trace":      testFailedWriteLeavesNoTrace,
		"test no actor is rejected":              testNoActorRejected,
		"test failed sibling transition skipped": testFailedSiblingTransitionSkipped,
		"test final state completes instance":    testFinalStateCompletesInstance,
		"test unconditional transition executes": testUnconditionalTransition,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, newFixture(t))
		})
	}
}

func testGuardBlocksThenPasses(t *testing.T, f *engineFixture) {
	result, err := f.engine.CheckAvailableTransitions(f.ctx, "inst-1", "")
	require.NoError(t, err)
	require.False(t, result.CanTransition)
	require.Len(t, result.AvailableTransitions, 1)
	require.False(t, result.AvailableTransitions[0].CanExecute)
	require.Equal(t, "min-proposals", result.AvailableTransitions[0].FailedRules[0].RuleId)

	f.addProposal(t, "prop-1")

	result, err = f.engine.CheckAvailableTransitions(f.ctx, "inst-1", "")
	require.NoError(t, err)
	require.True(t, result.CanTransition)
	require.True(t, result.AvailableTransitions[0].CanExecute)
	require.Empty(t, result.AvailableTransitions[0].FailedRules)
}

func testCheckIsReadOnly(t *testing.T, f *engineFixture) {
	before, err := f.storage.GetProcessInstance("inst-1")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.engine.CheckAvailableTransitions(f.ctx, "inst-1", "")
		require.NoError(t, err)
	}

	after, err := f.storage.GetProcessInstance("inst-1")
	require.NoError(t, err)
	require.Equal(t, before.Revision, after.Revision)
	require.Equal(t, before.ResolveCurrentState(), after.ResolveCurrentState())

	history, err := f.storage.GetTransitionHistory("inst-1")
	require.NoError(t, err)
	require.Empty(t, history)
}

func testExecuteBlockedLeavesState(t *testing.T, f *engineFixture) {
	_, err := f.engine.ExecuteTransition(f.ctx, "inst-1", "voting", nil)
	require.Error(t, err)
	verr, ok := err.(model.ValidationError)
	require.True(t, ok)
	require.NotEmpty(t, verr.FailedRules)

	instance, err := f.storage.GetProcessInstance("inst-1")
	require.NoError(t, err)
	require.Equal(t, "submission", instance.ResolveCurrentState())
	require.Equal(t, int64(1), instance.Revision)
}

func testFieldGateOpenedByAction(t *testing.T, f *engineFixture) {
	f.addProposal(t, "prop-1")

	instance, err := f.engine.ExecuteTransition(f.ctx, "inst-1", "voting", map[string]any{"note": "opened"})
	require.NoError(t, err)
	require.Equal(t, "voting", instance.ResolveCurrentState())
	require.Equal(t, int64(2), instance.Revision)
	require.Equal(t, true, instance.Data.FieldValues["votingOpened"])

	// the close transition is gated on two fields; the one set by the open
	// action passes, the one no action has set yet still blocks
	result, err := f.engine.CheckAvailableTransitions(f.ctx, "inst-1", "closed")
	require.NoError(t, err)
	require.False(t, result.CanTransition)
	require.Len(t, result.AvailableTransitions[0].FailedRules, 1)
	require.Equal(t, "admin-done", result.AvailableTransitions[0].FailedRules[0].RuleId)

	_, err = f.engine.ExecuteTransition(f.ctx, "inst-1", "closed", nil)
	require.Error(t, err)

	instance.Data.FieldValues["adminDecisionComplete"] = true
	record := &model.TransitionRecord{Id: "manual", InstanceId: "inst-1", FromState: "voting", ToState: "voting", CreatedAt: time.Now()}
	require.NoError(t, f.storage.UpdateInstanceAndRecordTransition(instance, instance.Revision, record))

	instance, err = f.engine.ExecuteTransition(f.ctx, "inst-1", "closed", nil)
	require.NoError(t, err)
	require.Equal(t, "closed", instance.ResolveCurrentState())
}

func testFailedWriteLeavesNoTrace(t *testing.T, f *engineFixture) {
	f.addProposal(t, "prop-1")
	f.storage.FailNextTransitionWrite = true

	_, err := f.engine.ExecuteTransition(f.ctx, "inst-1", "voting", nil)
	require.Error(t, err)

	instance, err := f.storage.GetProcessInstance("inst-1")
	require.NoError(t, err)
	require.Equal(t, "submission", instance.ResolveCurrentState())
	require.Equal(t, int64(1), instance.Revision)

	history, err := f.storage.GetTransitionHistory("inst-1")
	require.NoError(t, err)
	require.Empty(t, history)
}

// Two transitions may share the same source and target. Executing towards
// that target must apply one whose guard passed; the guarded sibling's
// definition and actions must never run off the back of the open one.
func testFailedSiblingTransitionSkipped(t *testing.T, f *engineFixture) {
	schema := reviewSchema()
	schema.Transitions = []model.TransitionDefinition{
		{
			Id: "guarded-open", From: model.StateRef{"submission"}, To: "voting",
			Rules: &model.TransitionRules{
				Conditions: []model.TransitionCondition{
					{Id: "impossible", Type: model.CONDITION_TYPE_PROPOSAL_COUNT, Operator: model.OPERATOR_GREATER_THAN, Value: 1000},
				},
			},
			Actions: []model.TransitionAction{
				{Id: "escalate", Type: model.ACTION_TYPE_UPDATE_FIELD, Config: map[string]any{"field": "privilegedEffect", "value": true}},
			},
		},
		{Id: "plain-open", From: model.StateRef{"submission"}, To: "voting"},
	}
	require.NoError(t, f.storage.SaveProcessSchema(schema))

	d := container.NewDiContainer()
	d.InitForTest(f.storage)
	engine := NewTransitionEngine(d)

	instance, err := engine.ExecuteTransition(f.ctx, "inst-1", "voting", nil)
	require.NoError(t, err)
	require.Equal(t, "voting", instance.ResolveCurrentState())
	require.NotContains(t, instance.Data.FieldValues, "privilegedEffect")
}

func testNoActorRejected(t *testing.T, f *engineFixture) {
	_, err := f.engine.CheckAvailableTransitions(context.Background(), "inst-1", "")
	require.Error(t, err)
	_, ok := err.(model.UnauthorizedError)
	require.True(t, ok)

	_, err = f.engine.ExecuteTransition(context.Background(), "inst-1", "voting", nil)
	require.Error(t, err)
}

func testFinalStateCompletesInstance(t *testing.T, f *engineFixture) {
	f.addProposal(t, "prop-1")
	instance, err := f.engine.ExecuteTransition(f.ctx, "inst-1", "voting", nil)
	require.NoError(t, err)

	instance.Data.FieldValues["adminDecisionComplete"] = true
	record := &model.TransitionRecord{Id: "manual", InstanceId: "inst-1", FromState: "voting", ToState: "voting", CreatedAt: time.Now()}
	require.NoError(t, f.storage.UpdateInstanceAndRecordTransition(instance, instance.Revision, record))

	_, err = f.engine.ExecuteTransition(f.ctx, "inst-1", "closed", nil)
	require.NoError(t, err)

	ids, err := f.storage.ListActiveInstanceIds()
	require.NoError(t, err)
	require.NotContains(t, ids, "inst-1")
}

func testUnconditionalTransition(t *testing.T, f *engineFixture) {
	schema := reviewSchema()
	schema.Transitions[0].Rules = nil
	require.NoError(t, f.storage.SaveProcessSchema(schema))

	// fresh container so the schema cache does not serve the guarded version
	d := container.NewDiContainer()
	d.InitForTest(f.storage)
	engine := NewTransitionEngine(d)

	result, err := engine.CheckAvailableTransitions(f.ctx, "inst-1", "")
	require.NoError(t, err)
	require.True(t, result.CanTransition)

	instance, err := engine.ExecuteTransition(f.ctx, "inst-1", "voting", nil)
	require.NoError(t, err)
	require.Equal(t, "voting", instance.ResolveCurrentState())

	history, err := f.storage.GetTransitionHistory("inst-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "submission", history[0].FromState)
	require.Equal(t, "voting", history[0].ToState)
	require.Equal(t, "caller-1", history[0].TriggeredByProfileId)
}
