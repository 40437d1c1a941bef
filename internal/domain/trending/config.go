package trending

import "time"

// Config holds the two-tier window sizes and multipliers.
type Config struct {
	ShortWindow       time.Duration
	ShortViewWeight   float64
	LongWindow        time.Duration
	LongViewWeight    float64
	ApplicationWindow time.Duration
	ApplicationWeight float64
}

// DefaultConfig returns 1h x2 and 24h x0.5 for views, 24h x3 for applications.
func DefaultConfig() Config {
	return Config{
		ShortWindow:       time.Hour,
		ShortViewWeight:   2,
		LongWindow:        24 * time.Hour,
		LongViewWeight:    0.5,
		ApplicationWindow: 24 * time.Hour,
		ApplicationWeight: 3,
	}
}

// Lookback is the longest configured window; older timestamps are pruned.
func (c Config) Lookback() time.Duration {
	return max(c.ShortWindow, c.LongWindow, c.ApplicationWindow)
}

func (c Config) clamp(limit time.Duration) Config {
	out := c
	out.ShortWindow = min(c.ShortWindow, limit)
	out.LongWindow = min(c.LongWindow, limit)
	out.ApplicationWindow = min(c.ApplicationWindow, limit)
	return out
}
