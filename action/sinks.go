package action

import (
	"fmt"
	"sync"

	"github.com/mohitkumar/quorum/logger"
	"github.com/mohitkumar/quorum/persistence"
	"github.com/mohitkumar/quorum/util"
	"go.uber.org/zap"
)

type notification struct {
	instanceId string
	config     map[string]any
}

// LogNotifier is the default notification sink. Deliveries are queued on a
// buffered worker and written to the log, keeping the transition path free of
// delivery latency.
type LogNotifier struct {
	worker *util.Worker
}

var _ Notifier = new(LogNotifier)

func NewLogNotifier(capacity int, wg *sync.WaitGroup) *LogNotifier {
	n := &LogNotifier{}
	n.worker = util.NewWorker("notifier", wg, n.deliver, capacity)
	return n
}

func (n *LogNotifier) Start() {
	n.worker.Start()
}

func (n *LogNotifier) Stop() {
	n.worker.Stop()
}

func (n *LogNotifier) Notify(instanceId string, config map[string]any) error {
	select {
	case n.worker.Sender() <- notification{instanceId: instanceId, config: config}:
		return nil
	default:
		return fmt.Errorf("notifier queue full")
	}
}

func (n *LogNotifier) deliver(task util.Task) error {
	msg, ok := task.(notification)
	if !ok {
		return fmt.Errorf("can not handle task of type other than notification")
	}
	logger.Info("notification", zap.String("instanceId", msg.instanceId), zap.Any("config", msg.config))
	return nil
}

// StorageRecordCreator persists createRecord payloads through the record
// storage.
type StorageRecordCreator struct {
	storage persistence.RecordStorage
}

var _ RecordCreator = new(StorageRecordCreator)

func NewStorageRecordCreator(storage persistence.RecordStorage) *StorageRecordCreator {
	return &StorageRecordCreator{storage: storage}
}

func (rc *StorageRecordCreator) CreateRecord(instanceId string, recordType string, payload map[string]any) error {
	return rc.storage.SaveRecord(instanceId, recordType, payload)
}
