package inmem

import (
	"testing"
	"time"

	"github.com/mohitkumar/quorum/model"
	"github.com/stretchr/testify/require"
)

func seedInstance(t *testing.T, storage *InMemStorage) *model.ProcessInstance {
	instance := &model.ProcessInstance{Id: "inst-1", SchemaName: "s", Revision: 1}
	instance.Data.EnterState("voting", nil, time.Now())
	require.NoError(t, storage.CreateProcessInstance(instance))
	return instance
}

func TestInMemStorage(t *testing.T) {
	for scenario, fn := range map[string]func(
		t *testing.T, storage *InMemStorage,
	){
		"test revision conflict":   testRevisionConflict,
		"test instance counts":     testInstanceCounts,
		"test revote replaces":     testRevoteReplaces,
		"test stored copies":       testStoredCopies,
		"test result status flips": testResultStatusFlips,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, NewInMemStorage())
		})
	}
}

func testRevisionConflict(t *testing.T, storage *InMemStorage) {
	instance := seedInstance(t, storage)
	record := &model.TransitionRecord{Id: "r1", InstanceId: "inst-1", FromState: "voting", ToState: "closed", CreatedAt: time.Now()}

	require.NoError(t, storage.UpdateInstanceAndRecordTransition(instance, 1, record))
	require.Equal(t, int64(2), instance.Revision)

	// a second writer holding the old revision loses
	stale := *instance
	err := storage.UpdateInstanceAndRecordTransition(&stale, 1, record)
	require.Error(t, err)
	_, ok := err.(model.ConflictError)
	require.True(t, ok)

	history, err := storage.GetTransitionHistory("inst-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func testInstanceCounts(t *testing.T, storage *InMemStorage) {
	seedInstance(t, storage)
	for _, id := range []string{"p1", "p2"} {
		require.NoError(t, storage.SaveProposal(&model.Proposal{Id: id, InstanceId: "inst-1", Status: model.PROPOSAL_STATUS_SUBMITTED}))
	}
	require.NoError(t, storage.SaveVote(&model.VoteSubmission{Id: "v1", InstanceId: "inst-1", VoterProfileId: "a", ProposalIds: []string{"p1"}}))
	require.NoError(t, storage.SaveVote(&model.VoteSubmission{Id: "v2", InstanceId: "inst-1", VoterProfileId: "b", ProposalIds: []string{"p2"}}))
	require.NoError(t, storage.SaveDecision(&model.Decision{Id: "d1", InstanceId: "inst-1", ProposalId: "p1", Approved: true}))
	require.NoError(t, storage.SaveDecision(&model.Decision{Id: "d2", InstanceId: "inst-1", ProposalId: "p2", Approved: false}))

	counts, err := storage.GetInstanceCounts("inst-1")
	require.NoError(t, err)
	require.Equal(t, int64(2), counts.Proposals)
	require.Equal(t, int64(2), counts.DistinctVoters)
	require.Equal(t, int64(2), counts.Decisions)
	require.Equal(t, int64(1), counts.Approvals)
}

func testRevoteReplaces(t *testing.T, storage *InMemStorage) {
	seedInstance(t, storage)
	require.NoError(t, storage.SaveVote(&model.VoteSubmission{Id: "v1", InstanceId: "inst-1", VoterProfileId: "a", ProposalIds: []string{"p1"}}))
	require.NoError(t, storage.SaveVote(&model.VoteSubmission{Id: "v2", InstanceId: "inst-1", VoterProfileId: "a", ProposalIds: []string{"p2"}}))

	votes, err := storage.ListVotes("inst-1")
	require.NoError(t, err)
	require.Len(t, votes, 1)
	require.Equal(t, []string{"p2"}, votes[0].ProposalIds)
}

func testStoredCopies(t *testing.T, storage *InMemStorage) {
	instance := seedInstance(t, storage)
	instance.Data.FieldValues = map[string]any{"mutated": true}

	loaded, err := storage.GetProcessInstance("inst-1")
	require.NoError(t, err)
	require.Empty(t, loaded.Data.FieldValues)

	loaded.Data.CurrentStateId = "elsewhere"
	again, err := storage.GetProcessInstance("inst-1")
	require.NoError(t, err)
	require.Equal(t, "voting", again.ResolveCurrentState())
}

func testResultStatusFlips(t *testing.T, storage *InMemStorage) {
	seedInstance(t, storage)
	require.NoError(t, storage.SaveProposal(&model.Proposal{Id: "p1", InstanceId: "inst-1", Status: model.PROPOSAL_STATUS_SUBMITTED}))

	result := &model.ProcessResult{Id: "res-1", InstanceId: "inst-1", Success: true, SelectedProposalIds: []string{"p1"}, CreatedAt: time.Now()}
	links := []model.ResultProposalLink{{ResultId: "res-1", ProposalId: "p1", Rank: 1}}
	require.NoError(t, storage.SaveProcessResult(result, links))

	proposal, err := storage.GetProposal("inst-1", "p1")
	require.NoError(t, err)
	require.Equal(t, model.PROPOSAL_STATUS_SELECTED, proposal.Status)

	err = storage.SaveProcessResult(&model.ProcessResult{Id: "res-2", InstanceId: "inst-1"}, []model.ResultProposalLink{{ResultId: "res-2", ProposalId: "ghost"}})
	require.Error(t, err)
}
