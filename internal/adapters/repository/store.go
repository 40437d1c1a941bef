// Package repository persists the engine's derived state: its copy of item
// features and the append-only event log. The engine keeps everything in
// memory and rebuilds it by replaying a Store at startup.
package repository

import (
	"context"

	"github.com/okian/gigrec/internal/domain/model"
)

// Visitor receives records during Load. Nil callbacks skip that record type.
type Visitor struct {
	Item  func(model.Item) error
	Event func(model.Event) error
}

// Stats summarizes the stored state.
type Stats struct {
	Items  int `json:"items"`
	Events int `json:"events"`
}

// Store is the durable backing store of the engine.
type Store interface {
	// SaveItem upserts the latest version of an item.
	SaveItem(ctx context.Context, item model.Item) error
	// AppendEvent appends ev to the event log.
	AppendEvent(ctx context.Context, ev model.Event) error
	// Load visits every item, then every event in append order. A visitor
	// error stops the walk and is returned.
	Load(ctx context.Context, v Visitor) error
	// Stats reports how many records are stored.
	Stats(ctx context.Context) (Stats, error)
	// Close releases the store.
	Close() error
}
