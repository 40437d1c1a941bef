// Package service owns the recommendation engine and the asynchronous
// ingestion path behind the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	eventqueue "github.com/okian/gigrec/internal/adapters/mq/queue"
	workerpool "github.com/okian/gigrec/internal/adapters/mq/worker"
	"github.com/okian/gigrec/internal/adapters/repository"
	"github.com/okian/gigrec/internal/domain/dedupe"
	"github.com/okian/gigrec/internal/domain/model"
	"github.com/okian/gigrec/internal/recommend"
	"github.com/okian/gigrec/internal/warmup"
	"github.com/okian/gigrec/pkg/logger"
	"github.com/okian/gigrec/pkg/metrics"
)

const (
	driverMemory = "memory"
	driverBadger = "badger"
)

// Service wires the store, engine, deduper, queue and worker pool.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	engine     *recommend.Engine
	deduper    dedupe.Deduper
	eventQueue *eventqueue.InMemoryQueue
	workerPool *workerpool.Pool

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	driver         string
	badgerPath     string
	syncWrites     bool
	warmup         warmup.Source
	skipIfRestored bool
	engineOpts     []recommend.Option

	// State
	started       bool
	restoreReport recommend.RestoreReport
	warmupReport  *recommend.WarmupReport

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   100000,
		dedupeSize:  50000,
		driver:      driverMemory,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store, restores the engine from it, warm starts when
// configured and starts the workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	s.logger.Info(ctx, "starting recommendation service...", logger.String("storage", s.driver))

	store, err := s.openStore()
	if err != nil {
		return err
	}

	opts := append([]recommend.Option{}, s.engineOpts...)
	opts = append(opts,
		recommend.WithStore(store),
		recommend.WithLogger(s.logger.Named("recommend")))
	engine, err := recommend.New(opts...)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("build engine: %w", err)
	}

	rep, err := engine.Restore(ctx)
	if err != nil {
		engine.Close()
		_ = store.Close()
		return err
	}
	s.restoreReport = rep

	s.warmupReport = nil
	switch {
	case s.warmup == nil:
	case s.skipIfRestored && !rep.Empty():
		s.logger.Info(ctx, "warm start skipped; state restored from store",
			logger.Int("items", rep.Items),
			logger.Int("events", rep.Events))
	default:
		wr := engine.WarmStart(ctx, s.warmup)
		s.warmupReport = &wr
	}

	s.store = store
	s.engine = engine
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, engine)
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "recommendation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize))
	return nil
}

func (s *Service) openStore() (repository.Store, error) {
	switch s.driver {
	case driverBadger:
		store, err := repository.OpenBadgerStore(s.badgerPath, repository.WithSyncWrites(s.syncWrites))
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		return store, nil
	default:
		return repository.NewMemoryStore(), nil
	}
}

// Stop drains the queue into the engine, then closes the engine and the
// store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping recommendation service...")

	var firstErr error
	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
		firstErr = err
	}
	s.engine.Close()
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "store close failed", logger.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	}

	s.started = false
	s.logger.Info(ctx, "recommendation service stopped")
	return firstErr
}

// Engine returns the running engine, or nil before Start.
func (s *Service) Engine() *recommend.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// SeenAndRecord atomically checks if an event id was seen and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	if s.deduper == nil {
		return false
	}
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordEventDuplicate()
	}
	return seen
}

// Unrecord removes an event ID from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	if s.deduper != nil {
		s.deduper.Unrecord(ctx, id)
	}
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits an event for asynchronous tracking. It fails with
// queue.ErrFull under backpressure and queue.ErrClosed once stopped.
func (s *Service) Enqueue(ctx context.Context, ev model.Event) error {
	s.mu.RLock()
	q := s.eventQueue
	s.mu.RUnlock()
	if q == nil {
		return eventqueue.ErrClosed
	}

	s.logger.Debug(ctx, "enqueueing event",
		logger.String("eventID", ev.ID),
		logger.String("kind", string(ev.Kind)),
		logger.String("user", ev.UserID),
		logger.String("item", ev.ItemID))
	return q.Enqueue(ctx, ev)
}

// WarmupReport returns the last warm start report, if one ran.
func (s *Service) WarmupReport() (recommend.WarmupReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.warmupReport == nil {
		return recommend.WarmupReport{}, false
	}
	return *s.warmupReport, true
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"storage":     s.driver,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if !s.started {
		return stats
	}

	queueLen := s.eventQueue.Len()
	stats["queueLength"] = queueLen
	stats["dedupeEntries"] = s.deduper.Size()
	stats["engine"] = s.engine.Stats()
	stats["restore"] = s.restoreReport
	if s.warmupReport != nil {
		stats["warmup"] = *s.warmupReport
	}
	if st, err := s.store.Stats(ctx); err == nil {
		stats["store"] = st
	} else {
		s.logger.Warn(ctx, "store stats failed", logger.Error(err))
	}

	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateWorkerCount(s.workerPool.Size())
	return stats
}
