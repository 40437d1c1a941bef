// Package trending scores items by recent views and applications using
// step-function windows.
package trending

import (
	"sort"
	"sync"
	"time"

	"github.com/okian/gigrec/internal/domain/ranking"
)

// window holds ascending timestamps for one item.
type window struct {
	views []time.Time
	apps  []time.Time
}

func (w *window) empty() bool { return len(w.views) == 0 && len(w.apps) == 0 }

// Detector owns the per-item trending windows. Pruning is lazy: a window is
// trimmed to the lookback whenever an event or a read touches it, so items
// never touched again keep their stale timestamps until the next read.
type Detector struct {
	mu      sync.Mutex
	windows map[string]*window
	cfg     Config
}

// Option configures a Detector.
type Option func(*Detector)

// WithConfig sets windows and multipliers. Zero windows keep their defaults.
func WithConfig(c Config) Option {
	return func(d *Detector) {
		def := d.cfg
		if c.ShortWindow <= 0 {
			c.ShortWindow = def.ShortWindow
		}
		if c.LongWindow <= 0 {
			c.LongWindow = def.LongWindow
		}
		if c.ApplicationWindow <= 0 {
			c.ApplicationWindow = def.ApplicationWindow
		}
		d.cfg = c
	}
}

// New creates a detector.
func New(opts ...Option) *Detector {
	d := &Detector{
		windows: make(map[string]*window),
		cfg:     DefaultConfig(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config returns the active configuration.
func (d *Detector) Config() Config { return d.cfg }

// RecordView appends a view of item at ts.
func (d *Detector) RecordView(item string, ts, now time.Time) {
	d.record(item, ts, now, false)
}

// RecordApplication appends an application to item at ts.
func (d *Detector) RecordApplication(item string, ts, now time.Time) {
	d.record(item, ts, now, true)
}

func (d *Detector) record(item string, ts, now time.Time, app bool) {
	if item == "" {
		return
	}
	cutoff := now.Add(-d.cfg.Lookback())

	d.mu.Lock()
	defer d.mu.Unlock()

	w, ok := d.windows[item]
	if !ok {
		if !ts.After(cutoff) {
			return
		}
		w = &window{}
		d.windows[item] = w
	}
	if app {
		w.apps = insertSorted(w.apps, ts)
	} else {
		w.views = insertSorted(w.views, ts)
	}
	d.pruneLocked(item, w, cutoff)
}

// Score returns the trending score of item at now. Items with no recent
// activity score exactly 0.
func (d *Detector) Score(item string, now time.Time) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.windows[item]
	if !ok {
		return 0
	}
	if d.pruneLocked(item, w, now.Add(-d.cfg.Lookback())) {
		return 0
	}
	return score(w, d.cfg, now)
}

// TopProjects ranks every item with activity inside windowHours. Each tier
// window is clamped to windowHours; windowHours <= 0 means the long window.
// Windows past the lookback are capped to it. Zero scores are omitted.
func (d *Detector) TopProjects(windowHours, limit int, now time.Time) []ranking.Entry {
	limitWindow := d.cfg.LongWindow
	if windowHours > 0 {
		// Anything past the lookback sees the same events; capping first
		// keeps the hour conversion from overflowing.
		limitWindow = d.cfg.Lookback()
		if int64(windowHours) <= int64(limitWindow/time.Hour) {
			limitWindow = time.Duration(windowHours) * time.Hour
		}
	}
	cfg := d.cfg.clamp(limitWindow)
	cutoff := now.Add(-d.cfg.Lookback())

	board := ranking.NewBoard()
	d.mu.Lock()
	for item, w := range d.windows {
		if d.pruneLocked(item, w, cutoff) {
			continue
		}
		if s := score(w, cfg, now); s > 0 {
			board.Set(item, s)
		}
	}
	d.mu.Unlock()

	return board.Top(limit)
}

// Len returns the number of items with a non-empty window.
func (d *Detector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.windows)
}

// pruneLocked trims w to timestamps newer than cutoff and drops it when
// nothing is left. It reports whether the window was dropped.
func (d *Detector) pruneLocked(item string, w *window, cutoff time.Time) bool {
	w.views = trim(w.views, cutoff)
	w.apps = trim(w.apps, cutoff)
	if w.empty() {
		delete(d.windows, item)
		return true
	}
	return false
}

func score(w *window, cfg Config, now time.Time) float64 {
	return float64(countSince(w.views, now.Add(-cfg.ShortWindow)))*cfg.ShortViewWeight +
		float64(countSince(w.views, now.Add(-cfg.LongWindow)))*cfg.LongViewWeight +
		float64(countSince(w.apps, now.Add(-cfg.ApplicationWindow)))*cfg.ApplicationWeight
}

// countSince counts timestamps strictly newer than cutoff.
func countSince(ts []time.Time, cutoff time.Time) int {
	i := sort.Search(len(ts), func(i int) bool { return ts[i].After(cutoff) })
	return len(ts) - i
}

func trim(ts []time.Time, cutoff time.Time) []time.Time {
	i := sort.Search(len(ts), func(i int) bool { return ts[i].After(cutoff) })
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}

func insertSorted(ts []time.Time, t time.Time) []time.Time {
	i := sort.Search(len(ts), func(i int) bool { return ts[i].After(t) })
	ts = append(ts, time.Time{})
	copy(ts[i+1:], ts[i:])
	ts[i] = t
	return ts
}
