// Package recommend wires the recommendation components into one explicitly
// constructed engine.
package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/gigrec/internal/adapters/repository"
	"github.com/okian/gigrec/internal/domain/features"
	"github.com/okian/gigrec/internal/domain/model"
	"github.com/okian/gigrec/internal/domain/preferences"
	"github.com/okian/gigrec/internal/domain/scoring"
	"github.com/okian/gigrec/internal/domain/similarity"
	"github.com/okian/gigrec/internal/domain/tracker"
	"github.com/okian/gigrec/internal/domain/trending"
	"github.com/okian/gigrec/internal/domain/types"
	"github.com/okian/gigrec/pkg/logger"
	"github.com/okian/gigrec/pkg/metrics"
)

// Engine is the recommendation engine. All methods are safe for concurrent
// use.
type Engine struct {
	registry   *features.Registry
	prefs      *preferences.Store
	trending   *trending.Detector
	tracker    *tracker.Tracker
	similarity *similarity.Engine
	ranker     *scoring.Ranker
	cache      *similarity.Cache

	store  repository.Store
	now    func() time.Time
	logger logger.Logger
}

// Stats summarizes the engine's in-memory state.
type Stats struct {
	Projects      int `json:"projects"`
	Freelancers   int `json:"freelancers"`
	Users         int `json:"users"`
	Profiles      int `json:"profiles"`
	TrendingItems int `json:"trending_items"`
}

// New builds an engine.
func New(opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{store: o.store, now: o.now, logger: o.logger}

	e.registry = features.New(
		features.WithLogger(o.logger.Named("features")),
		features.WithClock(o.now))
	e.prefs = preferences.New(preferences.WithShardCount(o.shardCount))
	e.trending = trending.New(trending.WithConfig(o.trending))
	e.tracker = tracker.New(e.registry, e.prefs, e.trending,
		tracker.WithWeights(o.eventWeights),
		tracker.WithClock(o.now),
		tracker.WithLogger(o.logger.Named("tracker")))

	simOpts := []similarity.Option{
		similarity.WithWeights(o.simWeights),
		similarity.WithMinContentSimilarity(o.minContent),
		similarity.WithLogger(o.logger.Named("similarity")),
	}
	if o.cacheEnabled {
		c, err := similarity.NewCache(o.cacheConfig)
		if err != nil {
			return nil, err
		}
		e.cache = c
		simOpts = append(simOpts, similarity.WithCache(c))
	}
	e.similarity = similarity.New(e.tracker, e.registry, simOpts...)

	e.ranker = scoring.New(e.registry, e.prefs, e.tracker, e.similarity, e.trending,
		scoring.WithConfig(o.ranking),
		scoring.WithClock(o.now),
		scoring.WithLogger(o.logger.Named("scoring")))

	return e, nil
}

// Close releases the similarity cache. The store belongs to the caller.
func (e *Engine) Close() {
	e.cache.Close()
}

// RegisterProject validates and upserts a project and writes it through to
// the store. A store failure is returned but the in-memory record stays.
func (e *Engine) RegisterProject(ctx context.Context, id string, f model.ProjectFeatures) error {
	item, err := e.registry.RegisterProject(ctx, id, f)
	if err != nil {
		metrics.RecordValidationError(string(model.KindProject))
		return err
	}
	return e.afterRegister(ctx, item)
}

// RegisterFreelancer validates and upserts a freelancer and writes it
// through to the store.
func (e *Engine) RegisterFreelancer(ctx context.Context, id string, f model.FreelancerFeatures) error {
	item, err := e.registry.RegisterFreelancer(ctx, id, f)
	if err != nil {
		metrics.RecordValidationError(string(model.KindFreelancer))
		return err
	}
	return e.afterRegister(ctx, item)
}

func (e *Engine) afterRegister(ctx context.Context, item model.Item) error {
	metrics.RecordRegistration(string(item.Kind))
	projects, freelancers := e.registry.Counts()
	metrics.UpdateRegisteredItems(string(model.KindProject), projects)
	metrics.UpdateRegisteredItems(string(model.KindFreelancer), freelancers)

	if err := e.store.SaveItem(ctx, item); err != nil {
		e.logger.Error(ctx, "persist item failed",
			logger.String("kind", string(item.Kind)),
			logger.String("id", item.ID),
			logger.Error(err))
		return fmt.Errorf("%w: %s %q: %w", ErrPersist, item.Kind, item.ID, err)
	}
	return nil
}

// GetFeatures returns the registered project or freelancer with id.
func (e *Engine) GetFeatures(id string) (model.Item, bool) {
	return e.registry.GetFeatures(id)
}

// Project returns the registered project with id.
func (e *Engine) Project(id string) (model.Item, bool) {
	return e.registry.Project(id)
}

// Freelancer returns the registered freelancer with id.
func (e *Engine) Freelancer(id string) (model.Item, bool) {
	return e.registry.Freelancer(id)
}

// TrackView records that user viewed project.
func (e *Engine) TrackView(ctx context.Context, user, project string, duration time.Duration) error {
	return e.Track(ctx, model.Event{UserID: user, ItemID: project, Kind: model.EventView, Duration: duration})
}

// TrackApplication records that user applied to project.
func (e *Engine) TrackApplication(ctx context.Context, user, project string) error {
	return e.Track(ctx, model.Event{UserID: user, ItemID: project, Kind: model.EventApplication})
}

// TrackHire records that client hired freelancer for project.
func (e *Engine) TrackHire(ctx context.Context, client, freelancer, project string) error {
	return e.Track(ctx, model.Event{UserID: client, ItemID: freelancer, Kind: model.EventHire, ProjectID: project})
}

// Track applies ev and appends it to the store's event log. A zero
// timestamp is stamped with the engine clock first so replay sees the same
// time. A store failure is returned and counted; the in-memory update has
// already happened.
func (e *Engine) Track(ctx context.Context, ev model.Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = e.now()
	}
	if err := e.tracker.Track(ctx, ev); err != nil {
		return err
	}
	metrics.UpdateTrackedUsers(e.tracker.Users())
	metrics.UpdateTrendingItems(e.trending.Len())

	if err := e.store.AppendEvent(ctx, ev); err != nil {
		e.logger.Error(ctx, "persist event failed",
			logger.String("kind", string(ev.Kind)),
			logger.String("user", ev.UserID),
			logger.Error(err))
		return fmt.Errorf("%w: event %q: %w", ErrPersist, ev.ID, err)
	}
	return nil
}

// ProjectRecommendations ranks projects for user.
func (e *Engine) ProjectRecommendations(ctx context.Context, user string, limit int, excludeApplied bool) []types.Recommendation {
	defer observe("project_recommendations", time.Now())
	out := e.ranker.ProjectRecommendations(ctx, user, limit, excludeApplied)
	countEmpty("project_recommendations", len(out))
	return out
}

// FreelancerRecommendations ranks freelancers for client.
func (e *Engine) FreelancerRecommendations(ctx context.Context, client string, projectSkills []string, limit int) []types.Recommendation {
	defer observe("freelancer_recommendations", time.Now())
	out := e.ranker.FreelancerRecommendations(ctx, client, projectSkills, limit)
	countEmpty("freelancer_recommendations", len(out))
	return out
}

// SimilarProjects ranks registered projects by content similarity to project.
func (e *Engine) SimilarProjects(ctx context.Context, project string, limit int) []types.SimilarProject {
	defer observe("similar_projects", time.Now())
	out := e.similarity.SimilarProjects(project, e.ranker.Config().Limit(limit))
	countEmpty("similar_projects", len(out))
	return out
}

// TrendingProjects ranks projects by trending score within windowHours.
func (e *Engine) TrendingProjects(ctx context.Context, windowHours, limit int) []types.TrendingProject {
	defer observe("trending_projects", time.Now())
	top := e.trending.TopProjects(windowHours, e.ranker.Config().Limit(limit), e.now())

	ids := make([]string, len(top))
	for i, t := range top {
		ids[i] = t.ID
	}
	items := e.registry.Projects(ids)

	out := make([]types.TrendingProject, len(top))
	for i, t := range top {
		out[i] = types.TrendingProject{ID: t.ID, Score: t.Score}
		if it, ok := items[t.ID]; ok {
			out[i].Features = &it
		}
	}
	countEmpty("trending_projects", len(out))
	return out
}

// TrendingScore returns the current trending score of project.
func (e *Engine) TrendingScore(project string) float64 {
	return e.trending.Score(project, e.now())
}

// FindSimilarUsers returns users with overlapping applications.
func (e *Engine) FindSimilarUsers(user string, limit int) []types.SimilarUser {
	return e.similarity.FindSimilarUsers(user, e.ranker.Config().Limit(limit))
}

// UserPreferences returns a copy of user's profile with its top terms.
func (e *Engine) UserPreferences(user string) types.Preferences {
	p := e.prefs.Get(user)
	cfg := e.ranker.Config()
	return types.Preferences{
		UserID:        user,
		Categories:    p.Categories,
		Skills:        p.Skills,
		TopCategories: preferences.Top(p.Categories, cfg.TopCategories),
		TopSkills:     preferences.Top(p.Skills, cfg.TopSkills),
	}
}

// Stats returns counts of the engine's in-memory state.
func (e *Engine) Stats() Stats {
	projects, freelancers := e.registry.Counts()
	return Stats{
		Projects:      projects,
		Freelancers:   freelancers,
		Users:         e.tracker.Users(),
		Profiles:      e.prefs.Len(),
		TrendingItems: e.trending.Len(),
	}
}

func observe(op string, start time.Time) {
	metrics.RecordQueryLatency(op, float64(time.Since(start).Microseconds())/1000)
}

func countEmpty(op string, n int) {
	if n == 0 {
		metrics.RecordEmptyResult(op)
	}
}
