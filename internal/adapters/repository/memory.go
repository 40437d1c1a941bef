package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/gigrec/internal/domain/model"
)

// MemoryStore keeps records in process memory. State is lost on exit; it
// exists for tests and for running without a data directory.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[string]model.Item
	events []model.Event
	closed bool
}

// NewMemoryStore returns an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]model.Item)}
}

func (s *MemoryStore) SaveItem(ctx context.Context, item model.Item) error {
	if err := checkItem(item); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.items[itemKey(item.Kind, item.ID)] = item.Clone()
	return nil
}

func (s *MemoryStore) AppendEvent(ctx context.Context, ev model.Event) error {
	if err := checkEvent(ev); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, v Visitor) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	items := make([]model.Item, len(keys))
	for i, k := range keys {
		items[i] = s.items[k].Clone()
	}
	events := append([]model.Event(nil), s.events...)
	s.mu.RUnlock()

	if v.Item != nil {
		for _, it := range items {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := v.Item(it); err != nil {
				return err
			}
		}
	}
	if v.Event != nil {
		for _, ev := range events {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := v.Event(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Stats{}, ErrClosed
	}
	return Stats{Items: len(s.items), Events: len(s.events)}, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func itemKey(kind model.ItemKind, id string) string {
	return itemKeyPrefix + string(kind) + ":" + id
}

func checkItem(item model.Item) error {
	if item.ID == "" || (item.Kind != model.KindProject && item.Kind != model.KindFreelancer) {
		return fmt.Errorf("%w: item %q of kind %q", ErrInvalid, item.ID, item.Kind)
	}
	return nil
}

func checkEvent(ev model.Event) error {
	if ev.UserID == "" || ev.ItemID == "" || ev.Kind == "" {
		return fmt.Errorf("%w: event %q", ErrInvalid, ev.ID)
	}
	return nil
}
