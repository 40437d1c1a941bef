package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/gigrec/internal/adapters/mq/queue"
	"github.com/okian/gigrec/internal/adapters/mq/worker"
	"github.com/okian/gigrec/internal/domain/model"
	"github.com/okian/gigrec/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	events chan model.Event
}

func newMockQueue() *mockQueue {
	return &mockQueue{events: make(chan model.Event, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan model.Event { return mq.events }

// ctxQueue remembers the context each Dequeue call was given.
type ctxQueue struct {
	mockQueue
	mu   sync.Mutex
	ctxs []context.Context
}

func (cq *ctxQueue) Dequeue(ctx context.Context) <-chan model.Event {
	cq.mu.Lock()
	cq.ctxs = append(cq.ctxs, ctx)
	cq.mu.Unlock()
	return cq.events
}

func (cq *ctxQueue) contexts() []context.Context {
	cq.mu.Lock()
	defer cq.mu.Unlock()
	return append([]context.Context(nil), cq.ctxs...)
}

type mockTracker struct {
	mu      sync.Mutex
	tracked []string
	fail    map[string]error
	delay   time.Duration
}

func newMockTracker() *mockTracker {
	return &mockTracker{fail: make(map[string]error)}
}

func (m *mockTracker) Track(_ context.Context, ev model.Event) error {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.fail[ev.ID]; ok {
		return err
	}
	m.tracked = append(m.tracked, ev.ID)
	return nil
}

func (m *mockTracker) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tracked)
}

func (m *mockTracker) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tracked {
		if t == id {
			return true
		}
	}
	return false
}

func event(id string) model.Event {
	return model.Event{ID: id, UserID: "u1", ItemID: "p1", Kind: model.EventView, Timestamp: time.Now()}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		q := newMockQueue()
		tr := newMockTracker()
		w := worker.NewInMemoryWorker(q, tr, worker.WithName("test-worker"), worker.WithLogger(logger.Discard()))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When an event is queued", func() {
			q.events <- event("event-1")

			convey.Convey("Then it is tracked", func() {
				convey.So(eventually(func() bool { return tr.has("event-1") }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When tracking fails", func() {
			tr.mu.Lock()
			tr.fail["event-2"] = errors.New("invalid event")
			tr.mu.Unlock()
			q.events <- event("event-2")
			q.events <- event("event-3")

			convey.Convey("Then the worker keeps going", func() {
				convey.So(eventually(func() bool { return tr.has("event-3") }), convey.ShouldBeTrue)
				convey.So(tr.has("event-2"), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When shut down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			convey.Convey("Then it stops and a second shutdown is harmless", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker whose context is cancelled", t, func() {
		w := worker.NewInMemoryWorker(newMockQueue(), newMockTracker(), worker.WithLogger(logger.Discard()))
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)
		cancel()

		convey.Convey("Then Run returns", func() {
			select {
			case <-w.Done():
			case <-time.After(time.Second):
			}
			convey.So(isClosed(w.Done()), convey.ShouldBeTrue)
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(1000))
		tr := newMockTracker()
		pool := worker.NewPool(4, q, tr)
		pool.Start(ctx)

		convey.Convey("When events are queued and the pool shuts down", func() {
			for i := 0; i < 500; i++ {
				convey.So(q.Enqueue(ctx, event(fmt.Sprintf("event-%d", i))), convey.ShouldBeNil)
			}
			err := pool.Shutdown(ctx)

			convey.Convey("Then every buffered event was drained first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(pool.Size(), convey.ShouldEqual, 4)
				convey.So(tr.count(), convey.ShouldEqual, 500)
				convey.So(errors.Is(q.Enqueue(ctx, event("late")), queue.ErrClosed), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool whose tracker is too slow to drain in time", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		tr := newMockTracker()
		tr.delay = 20 * time.Millisecond
		pool := worker.NewPool(1, q, tr)
		pool.Start(context.Background())
		for i := 0; i < 100; i++ {
			_ = q.Enqueue(context.Background(), event(fmt.Sprintf("event-%d", i)))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		err := pool.Shutdown(ctx)

		convey.Convey("Then shutdown reports the timeout", func() {
			convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			convey.So(tr.count(), convey.ShouldBeLessThan, 100)
		})
	})

	convey.Convey("Given a pool with no worker count", t, func() {
		pool := worker.NewPool(0, newMockQueue(), newMockTracker())

		convey.Convey("Then it defaults to a CPU multiple", func() {
			convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
		})
	})
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestWorkerReleasesDequeue(t *testing.T) {
	convey.Convey("Given a worker running on a context that is never cancelled", t, func() {
		cq := &ctxQueue{mockQueue: *newMockQueue()}
		w := worker.NewInMemoryWorker(cq, newMockTracker(), worker.WithLogger(logger.Discard()))
		go w.Run(context.WithoutCancel(context.Background()))

		convey.Convey("When it is shut down", func() {
			convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)

			convey.Convey("Then the context it dequeued with is cancelled", func() {
				ctxs := cq.contexts()
				convey.So(ctxs, convey.ShouldHaveLength, 1)
				convey.So(ctxs[0].Err(), convey.ShouldEqual, context.Canceled)
			})
		})
	})
}
