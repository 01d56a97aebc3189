package model

import "time"

type ProposalStatus string

const PROPOSAL_STATUS_DRAFT ProposalStatus = "draft"
const PROPOSAL_STATUS_SUBMITTED ProposalStatus = "submitted"
const PROPOSAL_STATUS_UNDER_REVIEW ProposalStatus = "under_review"
const PROPOSAL_STATUS_APPROVED ProposalStatus = "approved"
const PROPOSAL_STATUS_REJECTED ProposalStatus = "rejected"
const PROPOSAL_STATUS_SELECTED ProposalStatus = "selected"

// proposalStatusAdjacency is the fixed lifecycle table. approved and rejected
// are terminal for callers; selected is assigned by the selection pipeline
// only.
var proposalStatusAdjacency = map[ProposalStatus][]ProposalStatus{
	PROPOSAL_STATUS_DRAFT:        {PROPOSAL_STATUS_SUBMITTED},
	PROPOSAL_STATUS_SUBMITTED:    {PROPOSAL_STATUS_UNDER_REVIEW},
	PROPOSAL_STATUS_UNDER_REVIEW: {PROPOSAL_STATUS_APPROVED, PROPOSAL_STATUS_REJECTED},
	PROPOSAL_STATUS_APPROVED:     {},
	PROPOSAL_STATUS_REJECTED:     {},
	PROPOSAL_STATUS_SELECTED:     {},
}

func (s ProposalStatus) CanMoveTo(next ProposalStatus) bool {
	for _, allowed := range proposalStatusAdjacency[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s ProposalStatus) Valid() bool {
	_, ok := proposalStatusAdjacency[s]
	return ok
}

type Proposal struct {
	Id                 string         `json:"id"`
	InstanceId         string         `json:"instanceId"`
	SubmitterProfileId string         `json:"submitterProfileId"`
	Status             ProposalStatus `json:"status"`
	Data               map[string]any `json:"proposalData,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// VoteSubmission is one participant's selection of proposals for an instance.
// It is never mutated after creation; re-voting replaces the submission.
type VoteSubmission struct {
	Id             string    `json:"id"`
	InstanceId     string    `json:"instanceId"`
	VoterProfileId string    `json:"voterProfileId"`
	ProposalIds    []string  `json:"proposalIds"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Decision is a reviewer's approve/reject record on a proposal. The Approved
// flag is the sole input to the approvalRate guard.
type Decision struct {
	Id         string         `json:"id"`
	InstanceId string         `json:"instanceId"`
	ProposalId string         `json:"proposalId"`
	ProfileId  string         `json:"profileId"`
	Approved   bool           `json:"approved"`
	Payload    map[string]any `json:"payload,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}
