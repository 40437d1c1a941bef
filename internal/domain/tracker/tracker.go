// Package tracker records behavior events: it grows the applied and hired
// relations, feeds the trending windows and increments preference profiles.
package tracker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/gigrec/internal/domain/features"
	"github.com/okian/gigrec/internal/domain/model"
	"github.com/okian/gigrec/internal/domain/preferences"
	"github.com/okian/gigrec/internal/domain/trending"
	"github.com/okian/gigrec/pkg/logger"
	"github.com/okian/gigrec/pkg/metrics"
)

type idSet map[string]struct{}

// relation is a user -> items set with its inverted item -> users index.
// Both sides only grow.
type relation struct {
	forward map[string]idSet
	inverse map[string]idSet
}

func newRelation() relation {
	return relation{forward: make(map[string]idSet), inverse: make(map[string]idSet)}
}

func (r relation) add(user, item string) {
	add(r.forward, user, item)
	add(r.inverse, item, user)
}

// peers returns the users other than user sharing at least one item with it.
func (r relation) peers(user string) []string {
	seen := make(idSet)
	for item := range r.forward[user] {
		for other := range r.inverse[item] {
			if other != user {
				seen[other] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func add(m map[string]idSet, k, v string) {
	set, ok := m[k]
	if !ok {
		set = make(idSet)
		m[k] = set
	}
	set[v] = struct{}{}
}

func copySet(s idSet) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Tracker applies events to the interaction sets, the trending detector and
// the preference store. Each of those has its own lock; the tracker never
// holds two at once.
type Tracker struct {
	mu      sync.RWMutex
	applied relation
	hired   relation
	users   idSet

	registry *features.Registry
	prefs    *preferences.Store
	trending *trending.Detector

	weights Weights
	now     func() time.Time
	logger  logger.Logger
}

// New creates a tracker over the given components.
func New(registry *features.Registry, prefs *preferences.Store, detector *trending.Detector, opts ...Option) *Tracker {
	t := &Tracker{
		applied:  newRelation(),
		hired:    newRelation(),
		users:    make(idSet),
		registry: registry,
		prefs:    prefs,
		trending: detector,
		weights:  DefaultWeights(),
		now:      time.Now,
		logger:   logger.Get(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TrackView records that user viewed project.
func (t *Tracker) TrackView(ctx context.Context, user, project string, duration time.Duration) error {
	return t.Track(ctx, model.Event{UserID: user, ItemID: project, Kind: model.EventView, Duration: duration})
}

// TrackApplication records that user applied to project.
func (t *Tracker) TrackApplication(ctx context.Context, user, project string) error {
	return t.Track(ctx, model.Event{UserID: user, ItemID: project, Kind: model.EventApplication})
}

// TrackHire records that client hired freelancer for project.
func (t *Tracker) TrackHire(ctx context.Context, client, freelancer, project string) error {
	return t.Track(ctx, model.Event{UserID: client, ItemID: freelancer, Kind: model.EventHire, ProjectID: project})
}

// Track applies one event. A zero timestamp means now. Unknown items are
// still recorded but add no preference weight.
func (t *Tracker) Track(ctx context.Context, ev model.Event) error {
	if ev.UserID == "" || ev.ItemID == "" {
		return fmt.Errorf("%w: user and item are required", ErrInvalidEvent)
	}
	now := t.now()
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = now
	}

	var known bool
	switch ev.Kind {
	case model.EventView:
		t.touch(ev.UserID)
		t.trending.RecordView(ev.ItemID, ts, now)
		known = t.learnFromProject(ev.UserID, ev.ItemID, t.weights.View)

	case model.EventApplication:
		t.mu.Lock()
		t.applied.add(ev.UserID, ev.ItemID)
		t.users[ev.UserID] = struct{}{}
		t.mu.Unlock()
		t.trending.RecordApplication(ev.ItemID, ts, now)
		known = t.learnFromProject(ev.UserID, ev.ItemID, t.weights.Application)

	case model.EventHire:
		t.mu.Lock()
		t.hired.add(ev.UserID, ev.ItemID)
		t.users[ev.UserID] = struct{}{}
		t.mu.Unlock()
		known = t.learnFromHire(ev.UserID, ev.ItemID, ev.ProjectID)

	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, ev.Kind)
	}

	metrics.RecordEventTracked(string(ev.Kind))
	if !known {
		metrics.RecordEventUnknownItem(string(ev.Kind))
		t.logger.Debug(ctx, "event for unregistered item",
			logger.String("kind", string(ev.Kind)),
			logger.String("item", ev.ItemID))
	}
	return nil
}

func (t *Tracker) touch(user string) {
	t.mu.RLock()
	_, ok := t.users[user]
	t.mu.RUnlock()
	if ok {
		return
	}
	t.mu.Lock()
	t.users[user] = struct{}{}
	t.mu.Unlock()
}

func (t *Tracker) learnFromProject(user, project string, weight float64) bool {
	p, ok := t.registry.Project(project)
	if !ok {
		return false
	}
	t.prefs.Increment(user, p.Category, p.Skills, weight)
	return true
}

// learnFromHire credits the freelancer's skills plus the project's category,
// falling back to the freelancer's own category when the project is unknown.
func (t *Tracker) learnFromHire(client, freelancer, project string) bool {
	f, ok := t.registry.Freelancer(freelancer)
	if !ok {
		return false
	}
	category := f.Category
	if project != "" {
		if p, ok := t.registry.Project(project); ok {
			category = p.Category
		}
	}
	t.prefs.Increment(client, category, f.Skills, t.weights.Hire)
	return true
}

// Applied returns a copy of the projects user applied to.
func (t *Tracker) Applied(user string) map[string]struct{} {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return copySet(t.applied.forward[user])
}

// AppliedCount returns the size of user's applied set. Sets only grow, so
// the size doubles as a version.
func (t *Tracker) AppliedCount(user string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.applied.forward[user])
}

// CoApplicants returns the sorted users sharing at least one applied project
// with user.
func (t *Tracker) CoApplicants(user string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.applied.peers(user)
}

// Hired returns a copy of the freelancers client hired.
func (t *Tracker) Hired(client string) map[string]struct{} {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return copySet(t.hired.forward[client])
}

// HiredCount returns the size of client's hired set.
func (t *Tracker) HiredCount(client string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.hired.forward[client])
}

// CoHirers returns the sorted clients sharing at least one hired freelancer
// with client.
func (t *Tracker) CoHirers(client string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.hired.peers(client)
}

// Users returns the number of users with at least one event.
func (t *Tracker) Users() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.users)
}
