package model

import "time"

type ProcessInstance struct {
	Id             string       `json:"id"`
	SchemaName     string       `json:"schemaName"`
	OwnerProfileId string       `json:"ownerProfileId"`
	CurrentStateId string       `json:"currentStateId"`
	Revision       int64        `json:"revision"`
	Data           InstanceData `json:"instanceData"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

type InstanceData struct {
	CurrentStateId string                `json:"currentStateId"`
	Budget         float64               `json:"budget,omitempty"`
	Visible        *bool                 `json:"visible,omitempty"`
	FieldValues    map[string]any        `json:"fieldValues,omitempty"`
	StateData      map[string]*StateData `json:"stateData,omitempty"`
	PhaseSchedule  []PhaseWindow         `json:"phaseSchedule,omitempty"`
}

type StateData struct {
	EnteredAt time.Time      `json:"enteredAt"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type PhaseWindow struct {
	StateId  string    `json:"stateId"`
	StartsAt time.Time `json:"startsAt"`
	EndsAt   time.Time `json:"endsAt"`
}

// ResolveCurrentState prefers the nested instance data value and falls back
// to the instance column. The nested value is authoritative; the column is a
// projection recomputed on every write.
func (i *ProcessInstance) ResolveCurrentState() string {
	if i.Data.CurrentStateId != "" {
		return i.Data.CurrentStateId
	}
	return i.CurrentStateId
}

// EnterState records entry into a state: the current state pointer moves and a
// fresh StateData entry is written for the target state with the entry time.
// Entries for previously visited states are preserved.
func (d *InstanceData) EnterState(stateId string, metadata map[string]any, now time.Time) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	if d.StateData == nil {
		d.StateData = make(map[string]*StateData)
	}
	d.CurrentStateId = stateId
	d.StateData[stateId] = &StateData{
		EnteredAt: now,
		Metadata:  metadata,
	}
}

func (d *InstanceData) EnteredAt(stateId string) (time.Time, bool) {
	sd, ok := d.StateData[stateId]
	if !ok || sd.EnteredAt.IsZero() {
		return time.Time{}, false
	}
	return sd.EnteredAt, true
}

type TransitionRecord struct {
	Id                   string         `json:"id"`
	InstanceId           string         `json:"instanceId"`
	FromState            string         `json:"fromState"`
	ToState              string         `json:"toState"`
	Payload              map[string]any `json:"payload,omitempty"`
	TriggeredByProfileId string         `json:"triggeredByProfileId"`
	CreatedAt            time.Time      `json:"createdAt"`
}
