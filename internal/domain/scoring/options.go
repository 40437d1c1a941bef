package scoring

import (
	"time"

	"github.com/okian/gigrec/pkg/logger"
)

// Option configures a Ranker.
type Option func(*Ranker)

// WithConfig replaces the ranking configuration.
func WithConfig(c Config) Option {
	return func(r *Ranker) { r.cfg = c }
}

// WithClock sets the time source used for trending scores.
func WithClock(now func() time.Time) Option {
	return func(r *Ranker) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the ranker logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Ranker) {
		if l != nil {
			r.logger = l
		}
	}
}
