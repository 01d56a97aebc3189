package model

import "encoding/json"

type StateType string

const STATE_TYPE_INITIAL StateType = "initial"
const STATE_TYPE_INTERMEDIATE StateType = "intermediate"
const STATE_TYPE_FINAL StateType = "final"

type TransitionKind string

const TRANSITION_KIND_MANUAL TransitionKind = "manual"
const TRANSITION_KIND_AUTOMATIC TransitionKind = "automatic"

type ConditionType string

const CONDITION_TYPE_TIME ConditionType = "time"
const CONDITION_TYPE_PROPOSAL_COUNT ConditionType = "proposalCount"
const CONDITION_TYPE_PARTICIPATION_COUNT ConditionType = "participationCount"
const CONDITION_TYPE_APPROVAL_RATE ConditionType = "approvalRate"
const CONDITION_TYPE_CUSTOM_FIELD ConditionType = "customField"

type Operator string

const OPERATOR_EQUALS Operator = "equals"
const OPERATOR_GREATER_THAN Operator = "greaterThan"
const OPERATOR_LESS_THAN Operator = "lessThan"
const OPERATOR_BETWEEN Operator = "between"

type ActionType string

const ACTION_TYPE_NOTIFY ActionType = "notify"
const ACTION_TYPE_UPDATE_FIELD ActionType = "updateField"
const ACTION_TYPE_CREATE_RECORD ActionType = "createRecord"

type ProcessSchema struct {
	Name           string                  `json:"name"`
	Description    string                  `json:"description,omitempty"`
	Budget         float64                 `json:"budget,omitempty"`
	FieldSchema    map[string]any          `json:"fieldSchema,omitempty"`
	States         []StateDefinition       `json:"states"`
	Transitions    []TransitionDefinition  `json:"transitions"`
	InitialState   string                  `json:"initialState"`
	DecisionSchema map[string]any          `json:"decisionSchema,omitempty"`
	ProposalSchema map[string]any          `json:"proposalSchema,omitempty"`
	Pipeline       *PipelineDef            `json:"pipeline,omitempty"`
	StatePipelines map[string]*PipelineDef `json:"statePipelines,omitempty"`
	OwnerProfileId string                  `json:"ownerProfileId,omitempty"`
}

type StateDefinition struct {
	Id          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Type        StateType      `json:"type"`
	FieldSchema map[string]any `json:"fieldSchema,omitempty"`
	Config      *StateConfig   `json:"config,omitempty"`
}

type StateConfig struct {
	AllowProposals *bool    `json:"allowProposals,omitempty"`
	AllowDecisions *bool    `json:"allowDecisions,omitempty"`
	Components     []string `json:"components,omitempty"`
}

// ProposalsAllowed reports whether proposal creation is permitted in this
// state. Only an explicit false blocks proposals.
func (c *StateConfig) ProposalsAllowed() bool {
	if c == nil || c.AllowProposals == nil {
		return true
	}
	return *c.AllowProposals
}

func (c *StateConfig) DecisionsAllowed() bool {
	if c == nil || c.AllowDecisions == nil {
		return true
	}
	return *c.AllowDecisions
}

type TransitionDefinition struct {
	Id      string             `json:"id"`
	Name    string             `json:"name"`
	From    StateRef           `json:"from"`
	To      string             `json:"to"`
	Rules   *TransitionRules   `json:"rules,omitempty"`
	Actions []TransitionAction `json:"actions,omitempty"`
}

// StateRef holds one or more source state ids. It accepts both a scalar
// string and an array in JSON.
type StateRef []string

func (s *StateRef) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = StateRef{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = StateRef(many)
	return nil
}

func (s StateRef) MarshalJSON() ([]byte, error) {
	if len(s) == 1 {
		return json.Marshal(s[0])
	}
	return json.Marshal([]string(s))
}

func (s StateRef) Contains(stateId string) bool {
	for _, id := range s {
		if id == stateId {
			return true
		}
	}
	return false
}

type TransitionRules struct {
	Kind       TransitionKind        `json:"kind,omitempty"`
	Conditions []TransitionCondition `json:"conditions,omitempty"`
	RequireAll *bool                 `json:"requireAll,omitempty"`
}

// RequireAllConditions defaults to AND semantics when unset.
func (r *TransitionRules) RequireAllConditions() bool {
	if r == nil || r.RequireAll == nil {
		return true
	}
	return *r.RequireAll
}

func (r *TransitionRules) IsAutomatic() bool {
	return r != nil && r.Kind == TRANSITION_KIND_AUTOMATIC
}

type TransitionCondition struct {
	Id       string        `json:"id"`
	Type     ConditionType `json:"type"`
	Operator Operator      `json:"operator"`
	Value    any           `json:"value"`
	Field    string        `json:"field,omitempty"`
}

type TransitionAction struct {
	Id     string         `json:"id"`
	Type   ActionType     `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}

type PipelineDef struct {
	Stages []StageDef `json:"stages"`
}

type StageDef struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// PipelineFor returns the pipeline declared for the given state, falling back
// to the schema level pipeline. A nil return means the caller should use the
// default pipeline.
func (s *ProcessSchema) PipelineFor(stateId string) *PipelineDef {
	if p, ok := s.StatePipelines[stateId]; ok && p != nil {
		return p
	}
	return s.Pipeline
}

func (s *ProcessSchema) GetState(stateId string) *StateDefinition {
	for i := range s.States {
		if s.States[i].Id == stateId {
			return &s.States[i]
		}
	}
	return nil
}

func (s *ProcessSchema) HasState(stateId string) bool {
	return s.GetState(stateId) != nil
}

// TransitionsFrom returns the transitions whose source set contains the given
// state, in declaration order.
func (s *ProcessSchema) TransitionsFrom(stateId string) []TransitionDefinition {
	var out []TransitionDefinition
	for _, tr := range s.Transitions {
		if tr.From.Contains(stateId) {
			out = append(out, tr)
		}
	}
	return out
}
