package model

import "fmt"

var conditionTypes = map[ConditionType]bool{
	CONDITION_TYPE_TIME:                true,
	CONDITION_TYPE_PROPOSAL_COUNT:      true,
	CONDITION_TYPE_PARTICIPATION_COUNT: true,
	CONDITION_TYPE_APPROVAL_RATE:       true,
	CONDITION_TYPE_CUSTOM_FIELD:        true,
}

var operators = map[Operator]bool{
	OPERATOR_EQUALS:       true,
	OPERATOR_GREATER_THAN: true,
	OPERATOR_LESS_THAN:    true,
	OPERATOR_BETWEEN:      true,
}

var actionTypes = map[ActionType]bool{
	ACTION_TYPE_NOTIFY:        true,
	ACTION_TYPE_UPDATE_FIELD:  true,
	ACTION_TYPE_CREATE_RECORD: true,
}

// Validate checks the schema for structural consistency and normalizes the
// initial state. An empty initialState falls back to the first declared state;
// an initialState that names an undeclared state is rejected.
func (s *ProcessSchema) Validate() error {
	if s.Name == "" {
		return ValidationError{Message: "schema name can not be empty"}
	}
	if len(s.States) == 0 {
		return ValidationError{Message: fmt.Sprintf("schema %s declares no states", s.Name)}
	}
	stateIds := make(map[string]bool, len(s.States))
	for _, st := range s.States {
		if st.Id == "" {
			return ValidationError{Message: fmt.Sprintf("schema %s contains a state without id", s.Name)}
		}
		if stateIds[st.Id] {
			return ValidationError{Message: fmt.Sprintf("duplicate state id %s", st.Id)}
		}
		stateIds[st.Id] = true
	}
	if s.InitialState == "" {
		s.InitialState = s.States[0].Id
	} else if !stateIds[s.InitialState] {
		return ValidationError{Message: fmt.Sprintf("initial state %s is not a declared state", s.InitialState)}
	}
	for _, tr := range s.Transitions {
		if len(tr.From) == 0 {
			return ValidationError{Message: fmt.Sprintf("transition %s has no source state", tr.Id)}
		}
		for _, from := range tr.From {
			if !stateIds[from] {
				return ValidationError{Message: fmt.Sprintf("transition %s references undeclared state %s", tr.Id, from)}
			}
		}
		if !stateIds[tr.To] {
			return ValidationError{Message: fmt.Sprintf("transition %s references undeclared state %s", tr.Id, tr.To)}
		}
		if tr.Rules != nil {
			for _, cond := range tr.Rules.Conditions {
				if !conditionTypes[cond.Type] {
					return ValidationError{Message: fmt.Sprintf("transition %s uses unknown condition type %s", tr.Id, cond.Type)}
				}
				if !operators[cond.Operator] {
					return ValidationError{Message: fmt.Sprintf("transition %s uses unknown operator %s", tr.Id, cond.Operator)}
				}
				if cond.Type == CONDITION_TYPE_CUSTOM_FIELD && cond.Field == "" {
					return ValidationError{Message: fmt.Sprintf("customField condition in transition %s has no field", tr.Id)}
				}
			}
		}
		for _, act := range tr.Actions {
			if !actionTypes[act.Type] {
				return ValidationError{Message: fmt.Sprintf("transition %s uses unknown action type %s", tr.Id, act.Type)}
			}
		}
	}
	for stateId := range s.StatePipelines {
		if !stateIds[stateId] {
			return ValidationError{Message: fmt.Sprintf("pipeline override references undeclared state %s", stateId)}
		}
	}
	return nil
}
