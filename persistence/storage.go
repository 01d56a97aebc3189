package persistence

import (
	"fmt"

	"github.com/mohitkumar/quorum/model"
)

// StorageLayerError hides driver level faults from callers. Domain errors
// (NotFound, Conflict) are raised as their own types.
type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

// InstanceCounts is the batched aggregate backing count-style guards. One
// query serves every count condition of a transition evaluation.
type InstanceCounts struct {
	Proposals      int64
	DistinctVoters int64
	Decisions      int64
	Approvals      int64
}

type MetadataStorage interface {
	SaveProcessSchema(schema model.ProcessSchema) error
	DeleteProcessSchema(name string) error
	GetProcessSchema(name string) (*model.ProcessSchema, error)
}

type InstanceStorage interface {
	CreateProcessInstance(instance *model.ProcessInstance) error
	GetProcessInstance(instanceId string) (*model.ProcessInstance, error)
	// UpdateInstanceAndRecordTransition persists the updated instance and
	// appends the history record as one atomic unit. The write fails with a
	// ConflictError when the stored revision no longer matches
	// expectedRevision.
	UpdateInstanceAndRecordTransition(instance *model.ProcessInstance, expectedRevision int64, record *model.TransitionRecord) error
	GetTransitionHistory(instanceId string) ([]*model.TransitionRecord, error)
	ListActiveInstanceIds() ([]string, error)
	MarkInstanceComplete(instanceId string) error
}

type ParticipationStorage interface {
	SaveProposal(proposal *model.Proposal) error
	GetProposal(instanceId string, proposalId string) (*model.Proposal, error)
	ListProposals(instanceId string) ([]*model.Proposal, error)
	SaveVote(vote *model.VoteSubmission) error
	ListVotes(instanceId string) ([]*model.VoteSubmission, error)
	SaveDecision(decision *model.Decision) error
	ListDecisions(instanceId string) ([]*model.Decision, error)
	GetInstanceCounts(instanceId string) (*InstanceCounts, error)
}

type ResultStorage interface {
	// SaveProcessResult persists the result row, its proposal links and the
	// selected-status flips in one unit.
	SaveProcessResult(result *model.ProcessResult, links []model.ResultProposalLink) error
	ListProcessResults(instanceId string) ([]*model.ProcessResult, error)
}

// RecordStorage backs the createRecord transition action.
type RecordStorage interface {
	SaveRecord(instanceId string, recordType string, payload map[string]any) error
}

type Storage interface {
	MetadataStorage
	InstanceStorage
	ParticipationStorage
	ResultStorage
	RecordStorage
}
