package selection

import (
	"github.com/mohitkumar/quorum/container"
	"github.com/mohitkumar/quorum/model"
)

// VoteData is the normalized aggregate of every vote submission for one
// instance: per proposal tallies and per voter selections.
type VoteData struct {
	TallyByProposal   map[string]int
	SelectionsByVoter map[string][]string
	VoterCount        int
}

// Aggregator collects raw proposals and vote submissions into the structure
// the selection pipeline consumes. Read only, no guard logic.
type Aggregator struct {
	container *container.DIContainer
}

func NewAggregator(container *container.DIContainer) *Aggregator {
	return &Aggregator{container: container}
}

func (a *Aggregator) Aggregate(instanceId string) (*VoteData, []*model.Proposal, error) {
	storage := a.container.GetStorage()
	proposals, err := storage.ListProposals(instanceId)
	if err != nil {
		return nil, nil, err
	}
	votes, err := storage.ListVotes(instanceId)
	if err != nil {
		return nil, nil, err
	}
	voteData := &VoteData{
		TallyByProposal:   make(map[string]int),
		SelectionsByVoter: make(map[string][]string),
	}
	known := make(map[string]bool, len(proposals))
	for _, proposal := range proposals {
		known[proposal.Id] = true
		voteData.TallyByProposal[proposal.Id] = 0
	}
	for _, vote := range votes {
		voteData.VoterCount++
		voteData.SelectionsByVoter[vote.VoterProfileId] = vote.ProposalIds
		for _, proposalId := range vote.ProposalIds {
			if known[proposalId] {
				voteData.TallyByProposal[proposalId]++
			}
		}
	}
	return voteData, proposals, nil
}
