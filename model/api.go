package model

type AvailableTransition struct {
	ToStateId      string       `json:"toStateId"`
	TransitionName string       `json:"transitionName"`
	CanExecute     bool         `json:"canExecute"`
	FailedRules    []FailedRule `json:"failedRules,omitempty"`
}

type TransitionCheckResult struct {
	CanTransition        bool                  `json:"canTransition"`
	AvailableTransitions []AvailableTransition `json:"availableTransitions"`
}

type TransitionExecuteRequest struct {
	ToStateId string         `json:"toStateId"`
	Data      map[string]any `json:"transitionData,omitempty"`
}

type StartInstanceRequest struct {
	SchemaName  string         `json:"schemaName"`
	Budget      float64        `json:"budget,omitempty"`
	FieldValues map[string]any `json:"fieldValues,omitempty"`
}

type SubmitProposalRequest struct {
	Data map[string]any `json:"proposalData,omitempty"`
	// Draft creates the proposal in the draft status instead of submitting
	// it right away; the submitter moves it to submitted later.
	Draft bool `json:"draft,omitempty"`
}

type ProposalStatusRequest struct {
	Status ProposalStatus `json:"status"`
}

type SubmitVoteRequest struct {
	ProposalIds []string `json:"proposalIds"`
}

type RecordDecisionRequest struct {
	ProposalId string         `json:"proposalId"`
	Approved   bool           `json:"approved"`
	Payload    map[string]any `json:"payload,omitempty"`
}

type ProcessResultsResponse struct {
	Success             bool     `json:"success"`
	ResultId            string   `json:"resultId"`
	SelectedProposalIds []string `json:"selectedProposalIds"`
	Error               string   `json:"error,omitempty"`
}
