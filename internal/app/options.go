package service

import (
	"github.com/okian/gigrec/internal/config"
	"github.com/okian/gigrec/internal/recommend"
	"github.com/okian/gigrec/internal/warmup"
	"github.com/okian/gigrec/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many event ids are remembered. Zero or less
// remembers all of them.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		s.dedupeSize = size
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBadger persists state in BadgerDB at path. An empty path keeps badger
// in memory.
func WithBadger(path string, syncWrites bool) Option {
	return func(s *Service) {
		s.driver = driverBadger
		s.badgerPath = path
		s.syncWrites = syncWrites
	}
}

// WithWarmup replays src after restore. When skipIfRestored is set and the
// store already held data, the warm start is skipped.
func WithWarmup(src warmup.Source, skipIfRestored bool) Option {
	return func(s *Service) {
		s.warmup = src
		s.skipIfRestored = skipIfRestored
	}
}

// WithEngineOptions appends engine tuning. The store and logger are set by
// the service.
func WithEngineOptions(opts ...recommend.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// FromConfig translates a loaded Config into service options.
func FromConfig(cfg *config.Config) []Option {
	r := cfg.Recommend
	opts := []Option{
		WithWorkerCount(cfg.Worker.Count),
		WithQueueSize(cfg.Queue.Size),
		WithDedupeSize(cfg.Dedupe.Size),
		WithEngineOptions(
			recommend.WithShardCount(r.ShardCount),
			recommend.WithEventWeights(r.Events.EventWeights()),
			recommend.WithTrending(r.Trending.TrendingConfig()),
			recommend.WithSimilarityWeights(r.Similarity.Weights()),
			recommend.WithMinContentSimilarity(r.Similarity.MinContent),
			recommend.WithRanking(r.Ranking.ScoringConfig()),
			recommend.WithSimilarityCache(cfg.Cache.Enabled, cfg.Cache.CacheConfig()),
		),
	}
	if cfg.Storage.Driver == driverBadger {
		opts = append(opts, WithBadger(cfg.Storage.Path, cfg.Storage.SyncWrites))
	}
	if cfg.Warmup.File != "" {
		opts = append(opts, WithWarmup(warmup.NewFileSource(cfg.Warmup.File), cfg.Warmup.SkipIfRestored))
	}
	return opts
}
