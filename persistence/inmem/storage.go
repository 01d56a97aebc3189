package inmem

import (
	"fmt"
	"sync"
	"time"

	"github.com/mohitkumar/quorum/model"
	"github.com/mohitkumar/quorum/persistence"
	"github.com/mohitkumar/quorum/util"
)

var _ persistence.Storage = new(InMemStorage)

// InMemStorage is a mutex guarded implementation of the storage contracts.
// Values are copied through the JSON codec on the way in and out so callers
// never alias stored state. Used by the memory storage type and by tests.
type InMemStorage struct {
	mu        sync.Mutex
	schemas   map[string]model.ProcessSchema
	instances map[string]model.ProcessInstance
	history   map[string][]model.TransitionRecord
	active    map[string]bool
	proposals map[string]map[string]model.Proposal
	votes     map[string]map[string]model.VoteSubmission
	decisions map[string][]model.Decision
	results   map[string][]model.ProcessResult
	links     map[string][]model.ResultProposalLink
	records   map[string][]map[string]any

	instanceEncDec util.EncoderDecoder[model.ProcessInstance]

	// FailNextTransitionWrite makes the next atomic instance update fail
	// without applying, for exercising no-partial-commit behavior.
	FailNextTransitionWrite bool
}

func NewInMemStorage() *InMemStorage {
	return &InMemStorage{
		schemas:        make(map[string]model.ProcessSchema),
		instances:      make(map[string]model.ProcessInstance),
		history:        make(map[string][]model.TransitionRecord),
		active:         make(map[string]bool),
		proposals:      make(map[string]map[string]model.Proposal),
		votes:          make(map[string]map[string]model.VoteSubmission),
		decisions:      make(map[string][]model.Decision),
		results:        make(map[string][]model.ProcessResult),
		links:          make(map[string][]model.ResultProposalLink),
		records:        make(map[string][]map[string]any),
		instanceEncDec: util.NewJsonEncoderDecoder[model.ProcessInstance](),
	}
}

func (s *InMemStorage) SaveProcessSchema(schema model.ProcessSchema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[schema.Name] = schema
	return nil
}

func (s *InMemStorage) DeleteProcessSchema(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.schemas, name)
	return nil
}

func (s *InMemStorage) GetProcessSchema(name string) (*model.ProcessSchema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schema, ok := s.schemas[name]
	if !ok {
		return nil, model.NotFoundError{Entity: "process schema", Id: name}
	}
	return &schema, nil
}

func (s *InMemStorage) copyInstance(instance model.ProcessInstance) (*model.ProcessInstance, error) {
	data, err := s.instanceEncDec.Encode(instance)
	if err != nil {
		return nil, err
	}
	return s.instanceEncDec.Decode(data)
}

func (s *InMemStorage) CreateProcessInstance(instance *model.ProcessInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied, err := s.copyInstance(*instance)
	if err != nil {
		return err
	}
	s.instances[instance.Id] = *copied
	s.active[instance.Id] = true
	return nil
}

func (s *InMemStorage) GetProcessInstance(instanceId string) (*model.ProcessInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	instance, ok := s.instances[instanceId]
	if !ok {
		return nil, model.NotFoundError{Entity: "process instance", Id: instanceId}
	}
	return s.copyInstance(instance)
}

func (s *InMemStorage) UpdateInstanceAndRecordTransition(instance *model.ProcessInstance, expectedRevision int64, record *model.TransitionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.instances[instance.Id]
	if !ok {
		return model.NotFoundError{Entity: "process instance", Id: instance.Id}
	}
	if stored.Revision != expectedRevision {
		return model.ConflictError{Message: fmt.Sprintf("instance %s changed concurrently, revision %d expected %d", instance.Id, stored.Revision, expectedRevision)}
	}
	if s.FailNextTransitionWrite {
		s.FailNextTransitionWrite = false
		return persistence.StorageLayerError{Message: "transition write failed"}
	}
	instance.Revision = expectedRevision + 1
	copied, err := s.copyInstance(*instance)
	if err != nil {
		return err
	}
	s.instances[instance.Id] = *copied
	s.history[instance.Id] = append(s.history[instance.Id], *record)
	return nil
}

func (s *InMemStorage) GetTransitionHistory(instanceId string) ([]*model.TransitionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.history[instanceId]
	records := make([]*model.TransitionRecord, 0, len(rows))
	for i := range rows {
		record := rows[i]
		records = append(records, &record)
	}
	return records, nil
}

func (s *InMemStorage) ListActiveInstanceIds() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *InMemStorage) MarkInstanceComplete(instanceId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, instanceId)
	return nil
}

func (s *InMemStorage) SaveProposal(proposal *model.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proposals[proposal.InstanceId] == nil {
		s.proposals[proposal.InstanceId] = make(map[string]model.Proposal)
	}
	s.proposals[proposal.InstanceId][proposal.Id] = *proposal
	return nil
}

func (s *InMemStorage) GetProposal(instanceId string, proposalId string) (*model.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proposal, ok := s.proposals[instanceId][proposalId]
	if !ok {
		return nil, model.NotFoundError{Entity: "proposal", Id: proposalId}
	}
	return &proposal, nil
}

func (s *InMemStorage) ListProposals(instanceId string) ([]*model.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proposals := make([]*model.Proposal, 0, len(s.proposals[instanceId]))
	for _, proposal := range s.proposals[instanceId] {
		p := proposal
		proposals = append(proposals, &p)
	}
	return proposals, nil
}

func (s *InMemStorage) SaveVote(vote *model.VoteSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.votes[vote.InstanceId] == nil {
		s.votes[vote.InstanceId] = make(map[string]model.VoteSubmission)
	}
	s.votes[vote.InstanceId][vote.VoterProfileId] = *vote
	return nil
}

func (s *InMemStorage) ListVotes(instanceId string) ([]*model.VoteSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	votes := make([]*model.VoteSubmission, 0, len(s.votes[instanceId]))
	for _, vote := range s.votes[instanceId] {
		v := vote
		votes = append(votes, &v)
	}
	return votes, nil
}

func (s *InMemStorage) SaveDecision(decision *model.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions[decision.InstanceId] = append(s.decisions[decision.InstanceId], *decision)
	return nil
}

func (s *InMemStorage) ListDecisions(instanceId string) ([]*model.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.decisions[instanceId]
	decisions := make([]*model.Decision, 0, len(rows))
	for i := range rows {
		decision := rows[i]
		decisions = append(decisions, &decision)
	}
	return decisions, nil
}

func (s *InMemStorage) GetInstanceCounts(instanceId string) (*persistence.InstanceCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := &persistence.InstanceCounts{
		Proposals:      int64(len(s.proposals[instanceId])),
		DistinctVoters: int64(len(s.votes[instanceId])),
	}
	for _, decision := range s.decisions[instanceId] {
		counts.Decisions++
		if decision.Approved {
			counts.Approvals++
		}
	}
	return counts, nil
}

func (s *InMemStorage) SaveProcessResult(result *model.ProcessResult, links []model.ResultProposalLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, link := range links {
		proposal, ok := s.proposals[result.InstanceId][link.ProposalId]
		if !ok {
			return model.NotFoundError{Entity: "proposal", Id: link.ProposalId}
		}
		proposal.Status = model.PROPOSAL_STATUS_SELECTED
		proposal.UpdatedAt = time.Now()
		s.proposals[result.InstanceId][link.ProposalId] = proposal
	}
	s.results[result.InstanceId] = append(s.results[result.InstanceId], *result)
	s.links[result.Id] = append(s.links[result.Id], links...)
	return nil
}

func (s *InMemStorage) ListProcessResults(instanceId string) ([]*model.ProcessResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.results[instanceId]
	results := make([]*model.ProcessResult, 0, len(rows))
	for i := range rows {
		result := rows[i]
		results = append(results, &result)
	}
	return results, nil
}

func (s *InMemStorage) SaveRecord(instanceId string, recordType string, payload map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[instanceId] = append(s.records[instanceId], map[string]any{
		"type":    recordType,
		"payload": payload,
	})
	return nil
}

// Records returns the generic records created for an instance.
func (s *InMemStorage) Records(instanceId string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[instanceId]
}
