// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// EventKind names a marketplace behavior event.
type EventKind string

// Supported event kinds.
const (
	EventView        EventKind = "view"
	EventApplication EventKind = "application"
	EventHire        EventKind = "hire"
)

// ParseEventKind maps a wire value onto an EventKind.
func ParseEventKind(s string) (EventKind, error) {
	switch k := EventKind(strings.ToLower(strings.TrimSpace(s))); k {
	case EventView, EventApplication, EventHire:
		return k, nil
	default:
		return "", fmt.Errorf("unknown event kind %q", s)
	}
}

// Event is a single behavior event.
// For hires UserID is the client, ItemID the hired freelancer and ProjectID
// the project the hire was made for. For views and applications ItemID is the
// project and ProjectID is empty.
type Event struct {
	ID        string        `json:"event_id,omitempty"`
	UserID    string        `json:"user_id"`
	ItemID    string        `json:"item_id"`
	Kind      EventKind     `json:"kind"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration,omitempty"`
	ProjectID string        `json:"project_id,omitempty"`
}
