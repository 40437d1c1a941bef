package similarity

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/okian/gigrec/pkg/metrics"
)

// Cache memoizes pairwise similarities. Keys embed the version of both
// sides, so a hit can never describe state that has since changed; losing
// entries only costs latency.
type Cache struct {
	c   *ristretto.Cache[string, float64]
	cfg CacheConfig
}

// NewCache builds a ristretto-backed cache.
func NewCache(cfg CacheConfig) (*Cache, error) {
	def := DefaultCacheConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = def.NumCounters
	}
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = def.MaxCost
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, float64]{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("similarity cache: %w", err)
	}
	return &Cache{c: c, cfg: cfg}, nil
}

func (c *Cache) get(key string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	v, ok := c.c.Get(key)
	if ok {
		metrics.RecordCacheHit()
	} else {
		metrics.RecordCacheMiss()
	}
	return v, ok
}

func (c *Cache) set(key string, v float64) {
	if c == nil {
		return
	}
	c.c.SetWithTTL(key, v, 1, c.cfg.TTL)
}

// Wait blocks until buffered writes are applied.
func (c *Cache) Wait() {
	if c != nil {
		c.c.Wait()
	}
}

// Close releases the cache.
func (c *Cache) Close() {
	if c != nil {
		c.c.Close()
	}
}

// pairKey orders the two sides so that (a,b) and (b,a) share an entry.
func pairKey(kind, a string, va uint64, b string, vb uint64) string {
	if b < a {
		a, b = b, a
		va, vb = vb, va
	}
	return fmt.Sprintf("%s|%s@%d|%s@%d", kind, a, va, b, vb)
}
