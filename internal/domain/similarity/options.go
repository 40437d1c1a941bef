package similarity

import (
	"time"

	"github.com/okian/gigrec/pkg/logger"
)

// Option configures an Engine.
type Option func(*Engine)

// WithWeights sets the content similarity weights.
func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithMinContentSimilarity sets the exclusive lower bound for SimilarProjects.
func WithMinContentSimilarity(v float64) Option {
	return func(e *Engine) { e.minContent = v }
}

// WithCache enables the similarity cache.
func WithCache(c *Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// CacheConfig sizes the similarity cache.
type CacheConfig struct {
	TTL         time.Duration
	NumCounters int64
	MaxCost     int64
}

// DefaultCacheConfig keeps up to 100k pairs for ten minutes.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: 10 * time.Minute, NumCounters: 1_000_000, MaxCost: 100_000}
}
