package container

import (
	"sync"

	"github.com/mohitkumar/quorum/action"
	"github.com/mohitkumar/quorum/cache"
	"github.com/mohitkumar/quorum/condition"
	"github.com/mohitkumar/quorum/config"
	"github.com/mohitkumar/quorum/model"
	"github.com/mohitkumar/quorum/persistence"
	"github.com/mohitkumar/quorum/persistence/inmem"
	rd "github.com/mohitkumar/quorum/persistence/redis"
	"github.com/mohitkumar/quorum/util"
)

type DIContainer struct {
	initialized       bool
	storage           persistence.Storage
	schemaCache       *cache.SchemaCache
	conditionRegistry *condition.Registry
	actionExecutor    *action.Executor
	notifier          *action.LogNotifier
	InstanceEncDec    util.EncoderDecoder[model.ProcessInstance]
}

func NewDiContainer() *DIContainer {
	return &DIContainer{}
}

func (d *DIContainer) setInitialized() {
	d.initialized = true
}

func (d *DIContainer) Init(conf config.Config, wg *sync.WaitGroup) {
	defer d.setInitialized()

	switch conf.EncoderDecoderType {
	default:
		d.InstanceEncDec = util.NewJsonEncoderDecoder[model.ProcessInstance]()
	}

	switch conf.StorageType {
	case config.STORAGE_TYPE_REDIS:
		rdConf := rd.Config{
			Addrs:     conf.RedisConfig.Addrs,
			Namespace: conf.RedisConfig.Namespace,
		}
		d.storage = rd.NewRedisStorage(rdConf, d.InstanceEncDec)
	case config.STORAGE_TYPE_INMEM:
		d.storage = inmem.NewInMemStorage()
	}

	d.notifier = action.NewLogNotifier(conf.NotifierCapacity, wg)
	d.notifier.Start()
	d.actionExecutor = action.NewExecutor(d.notifier, action.NewStorageRecordCreator(d.storage))
	d.schemaCache = cache.NewSchemaCache(d.storage)
	d.conditionRegistry = condition.NewRegistry()
}

// InitForTest wires the container around an injected storage, bypassing the
// notifier worker and config driven setup.
func (d *DIContainer) InitForTest(storage persistence.Storage) {
	defer d.setInitialized()
	d.InstanceEncDec = util.NewJsonEncoderDecoder[model.ProcessInstance]()
	d.storage = storage
	d.actionExecutor = action.NewExecutor(nil, action.NewStorageRecordCreator(storage))
	d.schemaCache = cache.NewSchemaCache(storage)
	d.conditionRegistry = condition.NewRegistry()
}

func (d *DIContainer) GetStorage() persistence.Storage {
	if !d.initialized {
		panic("container not initialized")
	}
	return d.storage
}

func (d *DIContainer) GetSchemaCache() *cache.SchemaCache {
	if !d.initialized {
		panic("container not initialized")
	}
	return d.schemaCache
}

func (d *DIContainer) GetConditionRegistry() *condition.Registry {
	if !d.initialized {
		panic("container not initialized")
	}
	return d.conditionRegistry
}

func (d *DIContainer) GetActionExecutor() *action.Executor {
	if !d.initialized {
		panic("container not initialized")
	}
	return d.actionExecutor
}

func (d *DIContainer) StopNotifier() {
	if d.notifier != nil {
		d.notifier.Stop()
	}
}
