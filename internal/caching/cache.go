package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type CacheEntry struct {
	Value      interface{}
	Expiration time.Time
}

// Cache deduplicates concurrent loads of the same key and keeps the result
// until it expires or is invalidated. Callers that know the underlying data
// changed (an npm install rewrote node_modules) must Invalidate.
type Cache struct {
	data  sync.Map
	group singleflight.Group
	ttl   time.Duration
	now   func() time.Time
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl: ttl,
		now: time.Now,
	}
}

func (c *Cache) GetOrCreate(key string, createFn func() (interface{}, error)) (interface{}, error) {
	if value, ok := c.load(key); ok {
		return value, nil
	}

	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		if value, ok := c.load(key); ok {
			return value, nil
		}

		v, err := createFn()
		if err != nil {
			return nil, err
		}

		c.data.Store(key, CacheEntry{
			Value:      v,
			Expiration: c.now().Add(c.ttl),
		})
		return v, nil
	})

	return value, err
}

func (c *Cache) Invalidate(key string) {
	c.data.Delete(key)
}

func (c *Cache) CleanUp() {
	c.data.Range(func(key, value interface{}) bool {
		entry := value.(CacheEntry)
		if !entry.Expiration.After(c.now()) {
			c.data.Delete(key)
		}
		return true
	})
}

func (c *Cache) load(key string) (interface{}, bool) {
	value, ok := c.data.Load(key)
	if !ok {
		return nil, false
	}

	entry := value.(CacheEntry)
	if entry.Expiration.After(c.now()) {
		return entry.Value, true
	}

	c.data.Delete(key)
	return nil, false
}
