package action

import (
	"fmt"

	"github.com/mohitkumar/quorum/logger"
	"github.com/mohitkumar/quorum/model"
	"github.com/mohitkumar/quorum/util"
	"go.uber.org/zap"
)

// Notifier delivers a notification described by an action config. Delivery is
// fire and forget from the executor's perspective.
type Notifier interface {
	Notify(instanceId string, config map[string]any) error
}

// RecordCreator creates an auxiliary record from an action config.
type RecordCreator interface {
	CreateRecord(instanceId string, recordType string, payload map[string]any) error
}

type handler func(ex *Executor, instanceId string, data *model.InstanceData, act model.TransitionAction) error

// Executor applies the declared side effects of a committed transition. Each
// action runs independently; a failure is logged and never aborts the
// transition or the remaining actions.
type Executor struct {
	notifier Notifier
	records  RecordCreator
	handlers map[model.ActionType]handler
	encDec   util.EncoderDecoder[model.InstanceData]
}

func NewExecutor(notifier Notifier, records RecordCreator) *Executor {
	ex := &Executor{
		notifier: notifier,
		records:  records,
		encDec:   util.NewJsonEncoderDecoder[model.InstanceData](),
	}
	ex.handlers = map[model.ActionType]handler{
		model.ACTION_TYPE_UPDATE_FIELD:  executeUpdateField,
		model.ACTION_TYPE_NOTIFY:        executeNotify,
		model.ACTION_TYPE_CREATE_RECORD: executeCreateRecord,
	}
	return ex
}

// Run executes the actions against the in-flight updated instance data,
// before that data is persisted, so updateField effects land in the same
// write as the transition itself.
func (ex *Executor) Run(instanceId string, data *model.InstanceData, actions []model.TransitionAction) {
	for _, act := range actions {
		h, ok := ex.handlers[act.Type]
		if !ok {
			logger.Error("no handler for action type", zap.String("instanceId", instanceId), zap.String("type", string(act.Type)))
			continue
		}
		if err := ex.runSafe(h, instanceId, data, act); err != nil {
			logger.Error("transition action failed", zap.String("instanceId", instanceId), zap.String("actionId", act.Id), zap.String("type", string(act.Type)), zap.Error(err))
		}
	}
}

func (ex *Executor) runSafe(h handler, instanceId string, data *model.InstanceData, act model.TransitionAction) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("action handler panicked: %v", p)
		}
	}()
	return h(ex, instanceId, data, act)
}

// dataDoc exposes the instance data as a generic document for jsonpath
// resolution in action configs.
func (ex *Executor) dataDoc(data *model.InstanceData) map[string]any {
	raw, err := ex.encDec.Encode(*data)
	if err != nil {
		return map[string]any{}
	}
	doc, err := util.NewJsonEncoderDecoder[map[string]any]().Decode(raw)
	if err != nil {
		return map[string]any{}
	}
	return *doc
}

func executeUpdateField(ex *Executor, instanceId string, data *model.InstanceData, act model.TransitionAction) error {
	config := resolveConfig(ex.dataDoc(data), act.Config)
	field, ok := config["field"].(string)
	if !ok || field == "" {
		return fmt.Errorf("updateField action %s has no field", act.Id)
	}
	if data.FieldValues == nil {
		data.FieldValues = make(map[string]any)
	}
	data.FieldValues[field] = config["value"]
	return nil
}

func executeNotify(ex *Executor, instanceId string, data *model.InstanceData, act model.TransitionAction) error {
	if ex.notifier == nil {
		return fmt.Errorf("no notifier configured")
	}
	return ex.notifier.Notify(instanceId, resolveConfig(ex.dataDoc(data), act.Config))
}

func executeCreateRecord(ex *Executor, instanceId string, data *model.InstanceData, act model.TransitionAction) error {
	if ex.records == nil {
		return fmt.Errorf("no record creator configured")
	}
	config := resolveConfig(ex.dataDoc(data), act.Config)
	recordType, _ := config["recordType"].(string)
	if recordType == "" {
		recordType = "generic"
	}
	payload, _ := config["payload"].(map[string]any)
	return ex.records.CreateRecord(instanceId, recordType, payload)
}
