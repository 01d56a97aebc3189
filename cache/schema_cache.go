package cache

import (
	"time"

	"github.com/mohitkumar/quorum/model"
	"github.com/mohitkumar/quorum/persistence"
	c "github.com/patrickmn/go-cache"
)

// SchemaCache fronts the metadata storage. Schemas are immutable shared state
// during engine evaluation, so a short lived cache is safe.
type SchemaCache struct {
	cache   *c.Cache
	storage persistence.MetadataStorage
}

func NewSchemaCache(storage persistence.MetadataStorage) *SchemaCache {
	return &SchemaCache{
		cache:   c.New(5*time.Minute, 10*time.Minute),
		storage: storage,
	}
}

func (ch *SchemaCache) Get(name string) (*model.ProcessSchema, error) {
	if cached, found := ch.cache.Get(name); found {
		if schema, ok := cached.(*model.ProcessSchema); ok {
			return schema, nil
		}
	}
	schema, err := ch.storage.GetProcessSchema(name)
	if err != nil {
		return nil, err
	}
	ch.cache.Set(name, schema, c.DefaultExpiration)
	return schema, nil
}

func (ch *SchemaCache) Invalidate(name string) {
	ch.cache.Delete(name)
}
