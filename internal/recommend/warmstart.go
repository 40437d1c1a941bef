package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/gigrec/internal/adapters/repository"
	"github.com/okian/gigrec/internal/domain/model"
	"github.com/okian/gigrec/internal/warmup"
	"github.com/okian/gigrec/pkg/logger"
	"github.com/okian/gigrec/pkg/metrics"
)

// WarmupReport tells how much of a warm start was applied.
type WarmupReport struct {
	Projects     int           `json:"projects"`
	Freelancers  int           `json:"freelancers"`
	Applications int           `json:"applications"`
	Hires        int           `json:"hires"`
	Duration     time.Duration `json:"duration"`
	Err          error         `json:"-"`
	Error        string        `json:"error,omitempty"`
}

// WarmStart replays src into the engine: projects, freelancers, then
// applications and hires. The first failure aborts the rest; everything
// loaded before it stays. Failures are logged and reported, never returned,
// so a bad source cannot stop startup.
func (e *Engine) WarmStart(ctx context.Context, src warmup.Source) WarmupReport {
	start := time.Now()
	var rep WarmupReport

	err := e.warmStart(ctx, src, &rep)
	rep.Duration = time.Since(start)

	metrics.RecordWarmupLoaded(string(model.KindProject), rep.Projects)
	metrics.RecordWarmupLoaded(string(model.KindFreelancer), rep.Freelancers)
	metrics.RecordWarmupLoaded(string(model.EventApplication), rep.Applications)
	metrics.RecordWarmupLoaded(string(model.EventHire), rep.Hires)

	fields := []logger.Field{
		logger.Int("projects", rep.Projects),
		logger.Int("freelancers", rep.Freelancers),
		logger.Int("applications", rep.Applications),
		logger.Int("hires", rep.Hires),
		logger.Duration("took", rep.Duration),
	}
	if err != nil {
		rep.Err = fmt.Errorf("%w: %w", ErrWarmup, err)
		rep.Error = rep.Err.Error()
		metrics.RecordWarmupFailure()
		e.logger.Error(ctx, "warm start aborted", append(fields, logger.Error(err))...)
		return rep
	}
	e.logger.Info(ctx, "warm start complete", fields...)
	return rep
}

func (e *Engine) warmStart(ctx context.Context, src warmup.Source, rep *WarmupReport) error {
	if src == nil {
		return errors.New("no warm-up source")
	}

	projects, err := src.OpenProjects(ctx)
	if err != nil {
		return fmt.Errorf("open projects: %w", err)
	}
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.RegisterProject(ctx, p.ID, p.ProjectFeatures); err != nil {
			return fmt.Errorf("project %q: %w", p.ID, err)
		}
		rep.Projects++
	}

	freelancers, err := src.ActiveFreelancers(ctx)
	if err != nil {
		return fmt.Errorf("active freelancers: %w", err)
	}
	for _, f := range freelancers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.RegisterFreelancer(ctx, f.ID, f.FreelancerFeatures); err != nil {
			return fmt.Errorf("freelancer %q: %w", f.ID, err)
		}
		rep.Freelancers++
	}

	apps, err := src.HistoricalApplications(ctx)
	if err != nil {
		return fmt.Errorf("applications: %w", err)
	}
	for _, a := range apps {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev := model.Event{UserID: a.UserID, ItemID: a.ProjectID, Kind: model.EventApplication, Timestamp: a.At}
		if err := e.Track(ctx, ev); err != nil {
			return fmt.Errorf("application %s->%s: %w", a.UserID, a.ProjectID, err)
		}
		rep.Applications++
	}

	hires, err := src.HistoricalHires(ctx)
	if err != nil {
		return fmt.Errorf("hires: %w", err)
	}
	for _, h := range hires {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev := model.Event{UserID: h.ClientID, ItemID: h.FreelancerID, Kind: model.EventHire, ProjectID: h.ProjectID, Timestamp: h.At}
		if err := e.Track(ctx, ev); err != nil {
			return fmt.Errorf("hire %s->%s: %w", h.ClientID, h.FreelancerID, err)
		}
		rep.Hires++
	}
	return nil
}

// RestoreReport tells what Restore replayed.
type RestoreReport struct {
	Items    int           `json:"items"`
	Events   int           `json:"events"`
	Duration time.Duration `json:"duration"`
}

// Empty reports whether nothing was restored.
func (r RestoreReport) Empty() bool { return r.Items == 0 && r.Events == 0 }

// Restore rebuilds in-memory state from the store: items first, then the
// event log in append order. Replayed records are not written back.
func (e *Engine) Restore(ctx context.Context) (RestoreReport, error) {
	start := time.Now()
	var rep RestoreReport

	err := e.store.Load(ctx, repository.Visitor{
		Item: func(it model.Item) error {
			var err error
			switch it.Kind {
			case model.KindProject:
				_, err = e.registry.RegisterProject(ctx, it.ID, it.ProjectFeatures())
			case model.KindFreelancer:
				_, err = e.registry.RegisterFreelancer(ctx, it.ID, it.FreelancerFeatures())
			default:
				err = fmt.Errorf("unknown item kind %q", it.Kind)
			}
			if err != nil {
				return fmt.Errorf("item %q: %w", it.ID, err)
			}
			rep.Items++
			return nil
		},
		Event: func(ev model.Event) error {
			if err := e.tracker.Track(ctx, ev); err != nil {
				return fmt.Errorf("event %q: %w", ev.ID, err)
			}
			rep.Events++
			return nil
		},
	})
	rep.Duration = time.Since(start)
	if err != nil {
		e.logger.Error(ctx, "restore failed",
			logger.Int("items", rep.Items),
			logger.Int("events", rep.Events),
			logger.Error(err))
		return rep, fmt.Errorf("%w: %w", ErrRestore, err)
	}

	projects, freelancers := e.registry.Counts()
	metrics.UpdateRegisteredItems(string(model.KindProject), projects)
	metrics.UpdateRegisteredItems(string(model.KindFreelancer), freelancers)
	metrics.UpdateTrackedUsers(e.tracker.Users())
	metrics.UpdateTrendingItems(e.trending.Len())

	e.logger.Info(ctx, "engine restored",
		logger.Int("items", rep.Items),
		logger.Int("events", rep.Events),
		logger.Duration("took", rep.Duration))
	return rep, nil
}
