package action

import (
	"fmt"
	"testing"

	"github.com/mohitkumar/quorum/model"
	"github.com/stretchr/testify/require"
)

type captureNotifier struct {
	notifications []map[string]any
	fail          bool
}

func (n *captureNotifier) Notify(instanceId string, config map[string]any) error {
	if n.fail {
		return fmt.Errorf("notifier down")
	}
	n.notifications = append(n.notifications, config)
	return nil
}

type captureRecords struct {
	records []map[string]any
}

func (r *captureRecords) CreateRecord(instanceId string, recordType string, payload map[string]any) error {
	r.records = append(r.records, map[string]any{"type": recordType, "payload": payload})
	return nil
}

func testData() *model.InstanceData {
	return &model.InstanceData{
		CurrentStateId: "voting",
		FieldValues: map[string]any{
			"round": "spring",
		},
	}
}

func TestExecutor(t *testing.T) {
	for scenario, fn := range map[string]func(
		t *testing.T, ex *Executor, notifier *captureNotifier, records *captureRecords,
	){
		"test update field":            testUpdateField,
		"test notify with resolution":  testNotifyWithResolution,
		"test create record":           testCreateRecord,
		"test failure does not abort":  testFailureDoesNotAbort,
		"test unknown type is skipped": testUnknownTypeSkipped,
	} {
		t.Run(scenario, func(t *testing.T) {
			notifier := &captureNotifier{}
			records := &captureRecords{}
			fn(t, NewExecutor(notifier, records), notifier, records)
		})
	}
}

func testUpdateField(t *testing.T, ex *Executor, notifier *captureNotifier, records *captureRecords) {
	data := testData()
	ex.Run("inst-1", data, []model.TransitionAction{
		{Id: "a1", Type: model.ACTION_TYPE_UPDATE_FIELD, Config: map[string]any{"field": "adminDecisionComplete", "value": true}},
	})
	require.Equal(t, true, data.FieldValues["adminDecisionComplete"])
	require.Equal(t, "spring", data.FieldValues["round"])
}

func testNotifyWithResolution(t *testing.T, ex *Executor, notifier *captureNotifier, records *captureRecords) {
	data := testData()
	ex.Run("inst-1", data, []model.TransitionAction{
		{Id: "a1", Type: model.ACTION_TYPE_NOTIFY, Config: map[string]any{
			"message": "round {$.fieldValues.round} moved",
			"round":   "$.fieldValues.round",
		}},
	})
	require.Len(t, notifier.notifications, 1)
	require.Equal(t, "round spring moved", notifier.notifications[0]["message"])
	require.Equal(t, "spring", notifier.notifications[0]["round"])
}

func testCreateRecord(t *testing.T, ex *Executor, notifier *captureNotifier, records *captureRecords) {
	data := testData()
	ex.Run("inst-1", data, []model.TransitionAction{
		{Id: "a1", Type: model.ACTION_TYPE_CREATE_RECORD, Config: map[string]any{
			"recordType": "audit",
			"payload":    map[string]any{"state": "$.currentStateId"},
		}},
		{Id: "a2", Type: model.ACTION_TYPE_CREATE_RECORD, Config: map[string]any{}},
	})
	require.Len(t, records.records, 2)
	require.Equal(t, "audit", records.records[0]["type"])
	require.Equal(t, map[string]any{"state": "voting"}, records.records[0]["payload"])
	require.Equal(t, "generic", records.records[1]["type"])
}

func testFailureDoesNotAbort(t *testing.T, ex *Executor, notifier *captureNotifier, records *captureRecords) {
	notifier.fail = true
	data := testData()
	ex.Run("inst-1", data, []model.TransitionAction{
		{Id: "a1", Type: model.ACTION_TYPE_NOTIFY, Config: map[string]any{"message": "hi"}},
		{Id: "a2", Type: model.ACTION_TYPE_UPDATE_FIELD, Config: map[string]any{"field": "after", "value": 1}},
	})
	// the failed notify does not block the later updateField
	require.Empty(t, notifier.notifications)
	require.Equal(t, 1, data.FieldValues["after"])
}

func testUnknownTypeSkipped(t *testing.T, ex *Executor, notifier *captureNotifier, records *captureRecords) {
	data := testData()
	ex.Run("inst-1", data, []model.TransitionAction{
		{Id: "a1", Type: "launchRocket"},
		{Id: "a2", Type: model.ACTION_TYPE_UPDATE_FIELD, Config: map[string]any{"field": "ok", "value": true}},
	})
	require.Equal(t, true, data.FieldValues["ok"])
}
