package model

import "time"

// ProcessResult is the immutable audit record of one selection pipeline run.
// A new row is written per run; rows are never updated, only superseded.
type ProcessResult struct {
	Id                  string       `json:"id"`
	InstanceId          string       `json:"instanceId"`
	Success             bool         `json:"success"`
	Error               string       `json:"error,omitempty"`
	SelectedCount       int          `json:"selectedCount"`
	VoterCount          int          `json:"voterCount"`
	Pipeline            *PipelineDef `json:"pipeline,omitempty"`
	SelectedProposalIds []string     `json:"selectedProposalIds"`
	CreatedAt           time.Time    `json:"createdAt"`
}

type ResultProposalLink struct {
	ResultId   string `json:"resultId"`
	ProposalId string `json:"proposalId"`
	Rank       int    `json:"rank"`
}
