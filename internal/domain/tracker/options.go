package tracker

import (
	"time"

	"github.com/okian/gigrec/pkg/logger"
)

// Weights are the preference increments per event kind.
type Weights struct {
	View        float64
	Application float64
	Hire        float64
}

// DefaultWeights returns view 0.1, application 0.5, hire 1.0.
func DefaultWeights() Weights {
	return Weights{View: 0.1, Application: 0.5, Hire: 1.0}
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithWeights sets the per-kind preference increments.
func WithWeights(w Weights) Option {
	return func(t *Tracker) { t.weights = w }
}

// WithClock sets the time source used for events without a timestamp and
// for window pruning.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets the tracker logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}
