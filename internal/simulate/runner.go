package simulate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/okian/gigrec/pkg/logger"
)

const (
	settlePollInterval  = 100 * time.Millisecond
	directoryPermission = 0o750
	filePermission      = 0o600
)

// ErrUnhealthy is returned when the server does not answer /healthz.
var ErrUnhealthy = errors.New("simulate: service unhealthy")

// recommendation is the subset of a recommendation list item we print.
type recommendation struct {
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

type recommendationList struct {
	Count int              `json:"count"`
	Items []recommendation `json:"items"`
}

// Run executes a complete simulation against cfg.BaseURL.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	log := logger.Named("simulate")
	stats := &Stats{StartTime: time.Now()}
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("projects", cfg.Projects),
		logger.Int("freelancers", cfg.Freelancers),
		logger.Int("events", cfg.Events),
		logger.Int("hires", cfg.Hires),
		logger.Int("workers", cfg.Workers))

	if err := checkHealth(ctx, c); err != nil {
		return stats, err
	}

	w := Generate(cfg, stats.StartTime)
	stats.EventsGenerated = len(w.Events)

	if err := registerItems(ctx, c, cfg, w, stats); err != nil {
		return stats, fmt.Errorf("register items: %w", err)
	}

	events := w.Events
	for i := 0; i < cfg.Duplicates && len(w.Events) > 0; i++ {
		events = append(events, w.Events[i%len(w.Events)])
	}
	// Originals first so every resend is a real duplicate.
	if err := submitEvents(ctx, c, cfg, events[:len(w.Events)], stats); err != nil {
		return stats, fmt.Errorf("submit events: %w", err)
	}
	if err := submitEvents(ctx, c, cfg, events[len(w.Events):], stats); err != nil {
		return stats, fmt.Errorf("resubmit events: %w", err)
	}

	if err := settle(ctx, c, cfg.Settle); err != nil {
		log.Warn(ctx, "queue did not drain", logger.Error(err))
	}

	if err := sample(ctx, c, cfg, stats); err != nil {
		return stats, fmt.Errorf("sample recommendations: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := WriteSeed(cfg.OutputFile, w); err != nil {
			log.Warn(ctx, "failed to write warm-up seed", logger.Error(err))
		} else {
			log.Info(ctx, "warm-up seed written", logger.String("file", cfg.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, log, stats)
	return stats, nil
}

// checkHealth verifies the service is running.
func checkHealth(ctx context.Context, c *client) error {
	code, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if code != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, code)
	}
	return nil
}

// registerItems PUTs every project and freelancer. 202 means the server
// kept the item but failed to persist it; it still counts.
func registerItems(ctx context.Context, c *client, cfg Config, w Workload, stats *Stats) error {
	var ok, failed int64
	put := func(path string, body any) func() error {
		return func() error {
			code, err := c.do(ctx, http.MethodPut, path, body, nil)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil || (code != http.StatusOK && code != http.StatusAccepted) {
				atomic.AddInt64(&failed, 1)
				return nil
			}
			atomic.AddInt64(&ok, 1)
			return nil
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for _, p := range w.Projects {
		g.Go(put("/projects/"+url.PathEscape(p.ID), p.ProjectFeatures))
	}
	for _, f := range w.Freelancers {
		g.Go(put("/freelancers/"+url.PathEscape(f.ID), f.FreelancerFeatures))
	}
	err := g.Wait()

	stats.ItemsRegistered += int(ok)
	stats.ItemsFailed += int(failed)
	return err
}

// submitEvents POSTs events concurrently and classifies the responses.
func submitEvents(ctx context.Context, c *client, cfg Config, events []Event, stats *Stats) error {
	var accepted, duplicate, backpressure, failed int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for _, ev := range events {
		g.Go(func() error {
			code, err := c.do(ctx, http.MethodPost, "/events", ev, nil)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			switch {
			case err != nil:
				atomic.AddInt64(&failed, 1)
			case code == http.StatusAccepted:
				atomic.AddInt64(&accepted, 1)
			case code == http.StatusOK:
				atomic.AddInt64(&duplicate, 1)
			case code == http.StatusTooManyRequests:
				atomic.AddInt64(&backpressure, 1)
			default:
				atomic.AddInt64(&failed, 1)
			}
			return nil
		})
	}
	err := g.Wait()

	stats.EventsAccepted += int(accepted)
	stats.EventsDuplicate += int(duplicate)
	stats.EventsBackpressure += int(backpressure)
	stats.EventsFailed += int(failed)
	return err
}

// settle polls /stats until the ingestion queue is empty or limit passes.
func settle(ctx context.Context, c *client, limit time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	ticker := time.NewTicker(settlePollInterval)
	defer ticker.Stop()
	for {
		var st struct {
			QueueLength *int `json:"queueLength"`
		}
		if _, err := c.do(ctx, http.MethodGet, "/stats", nil, &st); err == nil && st.QueueLength != nil && *st.QueueLength == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// sample fetches recommendations for the first cfg.Sample users and
// clients, and the trending list.
func sample(ctx context.Context, c *client, cfg Config, stats *Stats) error {
	log := logger.Named("simulate")
	paths := []string{"/trending/projects?window_hours=24&limit=10"}
	for i := range min(cfg.Sample, cfg.Users) {
		paths = append(paths, fmt.Sprintf("/users/user-%04d/recommendations/projects?limit=10", i))
	}
	for i := range min(cfg.Sample, cfg.Clients) {
		paths = append(paths, fmt.Sprintf("/clients/client-%04d/recommendations/freelancers?limit=10", i))
	}

	for _, p := range paths {
		var list recommendationList
		code, err := c.do(ctx, http.MethodGet, p, nil, &list)
		if err != nil {
			return err
		}
		if code != http.StatusOK {
			log.Warn(ctx, "recommendation request failed", logger.String("path", p), logger.Int("status", code))
			continue
		}
		stats.Recommendations++

		fields := []logger.Field{logger.String("path", p), logger.Int("count", list.Count)}
		if len(list.Items) > 0 {
			fields = append(fields, logger.String("top", list.Items[0].ID), logger.Float64("score", list.Items[0].Score))
		}
		if cfg.Verbose {
			fields = append(fields, logger.Any("items", list.Items))
		}
		log.Info(ctx, "recommendations", fields...)
	}
	return nil
}

// WriteSeed writes the workload as a YAML warm-up seed.
func WriteSeed(path string, w Workload) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := yaml.Marshal(w.Seed())
	if err != nil {
		return fmt.Errorf("marshal seed: %w", err)
	}
	return os.WriteFile(path, data, filePermission)
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var eventsPerSecond float64
	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsAccepted+stats.EventsDuplicate) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("itemsRegistered", stats.ItemsRegistered),
		logger.Int("itemsFailed", stats.ItemsFailed),
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("eventsAccepted", stats.EventsAccepted),
		logger.Int("eventsDuplicate", stats.EventsDuplicate),
		logger.Int("eventsBackpressure", stats.EventsBackpressure),
		logger.Int("eventsFailed", stats.EventsFailed),
		logger.Int("recommendations", stats.Recommendations),
		logger.Duration("duration", stats.Duration),
		logger.Float64("eventsPerSecond", eventsPerSecond))
}
