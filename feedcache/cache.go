package feedcache

import (
	"time"

	"github.com/tidwall/buntdb"
)

// Cache memoizes rendered feed and recommendation payloads. The
// personalized queries touch many relations per request; repeat
// requests from the same viewer within the ttl are served verbatim.
// Entries expire on their own, there is no invalidation.
type Cache struct {
	db  *buntdb.DB
	ttl time.Duration
}

// New opens an in-memory cache. A non-positive ttl disables caching:
// Get always misses and Put drops the payload.
func New(ttl time.Duration) (*Cache, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, err
	}
	return &Cache{db: db, ttl: ttl}, nil
}

func (c *Cache) Get(key string) ([]byte, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	var payload string
	err := c.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(key)
		if err != nil {
			return err
		}
		payload = value
		return nil
	})
	if err != nil {
		return nil, false
	}
	return []byte(payload), true
}

func (c *Cache) Put(key string, payload []byte) {
	if c == nil || c.ttl <= 0 {
		return
	}
	_ = c.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(payload), &buntdb.SetOptions{Expires: true, TTL: c.ttl})
		return err
	})
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}
