package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/mohitkumar/quorum/container"
	"github.com/mohitkumar/quorum/model"
	"github.com/mohitkumar/quorum/persistence/inmem"
	"github.com/stretchr/testify/require"
)

func automaticSchema() model.ProcessSchema {
	return model.ProcessSchema{
		Name: "timed-round",
		States: []model.StateDefinition{
			{Id: "voting", Type: model.STATE_TYPE_INITIAL},
			{Id: "closed", Type: model.STATE_TYPE_FINAL},
		},
		Transitions: []model.TransitionDefinition{
			{
				Id: "auto-close", From: model.StateRef{"voting"}, To: "closed",
				Rules: &model.TransitionRules{
					Kind: model.TRANSITION_KIND_AUTOMATIC,
					Conditions: []model.TransitionCondition{
						{Id: "deadline", Type: model.CONDITION_TYPE_TIME, Operator: model.OPERATOR_GREATER_THAN, Value: 1000},
					},
				},
			},
		},
		InitialState: "voting",
	}
}

func TestAutoTransitionWorker(t *testing.T) {
	storage := inmem.NewInMemStorage()
	d := container.NewDiContainer()
	d.InitForTest(storage)
	require.NoError(t, storage.SaveProcessSchema(automaticSchema()))

	early := &model.ProcessInstance{Id: "inst-early", SchemaName: "timed-round", Revision: 1}
	early.Data.EnterState("voting", nil, time.Now())
	require.NoError(t, storage.CreateProcessInstance(early))

	due := &model.ProcessInstance{Id: "inst-due", SchemaName: "timed-round", Revision: 1}
	due.Data.EnterState("voting", nil, time.Now().Add(-time.Minute))
	require.NoError(t, storage.CreateProcessInstance(due))

	var wg sync.WaitGroup
	worker := NewAutoTransitionWorker(d, NewTransitionEngine(d), 1, &wg)
	worker.runOnce()

	moved, err := storage.GetProcessInstance("inst-due")
	require.NoError(t, err)
	require.Equal(t, "closed", moved.ResolveCurrentState())
	require.Equal(t, "system", mustHistory(t, storage, "inst-due")[0].TriggeredByProfileId)

	held, err := storage.GetProcessInstance("inst-early")
	require.NoError(t, err)
	require.Equal(t, "voting", held.ResolveCurrentState())

	// the completed instance drops out of the scan set
	ids, err := storage.ListActiveInstanceIds()
	require.NoError(t, err)
	require.NotContains(t, ids, "inst-due")
	require.Contains(t, ids, "inst-early")
}

func mustHistory(t *testing.T, storage *inmem.InMemStorage, instanceId string) []*model.TransitionRecord {
	history, err := storage.GetTransitionHistory(instanceId)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	return history
}
