package recommend

import (
	"time"

	"github.com/okian/gigrec/internal/adapters/repository"
	"github.com/okian/gigrec/internal/domain/scoring"
	"github.com/okian/gigrec/internal/domain/similarity"
	"github.com/okian/gigrec/internal/domain/tracker"
	"github.com/okian/gigrec/internal/domain/trending"
	"github.com/okian/gigrec/pkg/logger"
)

type options struct {
	store        repository.Store
	logger       logger.Logger
	now          func() time.Time
	shardCount   int
	eventWeights tracker.Weights
	trending     trending.Config
	simWeights   similarity.Weights
	minContent   float64
	ranking      scoring.Config
	cacheEnabled bool
	cacheConfig  similarity.CacheConfig
}

func defaultOptions() options {
	return options{
		store:        repository.NewMemoryStore(),
		logger:       logger.Named("recommend"),
		now:          time.Now,
		eventWeights: tracker.DefaultWeights(),
		trending:     trending.DefaultConfig(),
		simWeights:   similarity.DefaultWeights(),
		ranking:      scoring.DefaultConfig(),
		cacheEnabled: true,
		cacheConfig:  similarity.DefaultCacheConfig(),
	}
}

// Option configures an Engine.
type Option func(*options)

// WithStore sets the durable backing store. Defaults to a memory store.
func WithStore(s repository.Store) Option {
	return func(o *options) {
		if s != nil {
			o.store = s
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the time source for the whole engine.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithShardCount sets the number of preference shards.
func WithShardCount(n int) Option {
	return func(o *options) { o.shardCount = n }
}

// WithEventWeights sets the preference increment per event kind.
func WithEventWeights(w tracker.Weights) Option {
	return func(o *options) { o.eventWeights = w }
}

// WithTrending sets the trending windows and multipliers.
func WithTrending(c trending.Config) Option {
	return func(o *options) { o.trending = c }
}

// WithSimilarityWeights sets the content similarity weights.
func WithSimilarityWeights(w similarity.Weights) Option {
	return func(o *options) { o.simWeights = w }
}

// WithMinContentSimilarity sets the SimilarProjects threshold.
func WithMinContentSimilarity(v float64) Option {
	return func(o *options) { o.minContent = v }
}

// WithRanking sets the hybrid ranking configuration.
func WithRanking(c scoring.Config) Option {
	return func(o *options) { o.ranking = c }
}

// WithSimilarityCache enables or disables the similarity cache.
func WithSimilarityCache(enabled bool, c similarity.CacheConfig) Option {
	return func(o *options) {
		o.cacheEnabled = enabled
		o.cacheConfig = c
	}
}
