// Package api exposes the recommendation engine over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/okian/gigrec/internal/adapters/http/swagger"
	"github.com/okian/gigrec/internal/domain/dedupe"
	"github.com/okian/gigrec/internal/domain/model"
	"github.com/okian/gigrec/internal/domain/types"
)

// Recommender is the engine surface the handlers use. *recommend.Engine
// satisfies it.
type Recommender interface {
	RegisterProject(ctx context.Context, id string, f model.ProjectFeatures) error
	RegisterFreelancer(ctx context.Context, id string, f model.FreelancerFeatures) error
	GetFeatures(id string) (model.Item, bool)
	Project(id string) (model.Item, bool)
	Freelancer(id string) (model.Item, bool)

	ProjectRecommendations(ctx context.Context, user string, limit int, excludeApplied bool) []types.Recommendation
	FreelancerRecommendations(ctx context.Context, client string, projectSkills []string, limit int) []types.Recommendation
	SimilarProjects(ctx context.Context, project string, limit int) []types.SimilarProject
	TrendingProjects(ctx context.Context, windowHours, limit int) []types.TrendingProject
	UserPreferences(user string) types.Preferences
}

// Ingestor accepts events for asynchronous tracking.
type Ingestor interface {
	dedupe.Deduper

	// Enqueue pushes an event for async processing. It fails with
	// queue.ErrFull on backpressure.
	Enqueue(ctx context.Context, ev model.Event) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	eventsHandler    *EventsHandler
	featuresHandler  *FeaturesHandler
	recommendHandler *RecommendHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(engine Recommender, ingest Ingestor, stats StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(stats),
		eventsHandler:    NewEventsHandler(ingest, time.Now),
		featuresHandler:  NewFeaturesHandler(engine),
		recommendHandler: NewRecommendHandler(engine),
	}
}

// Routes returns the chi router with every endpoint attached.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Post("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))

	r.Put("/projects/{id}", MetricsMiddleware(s.featuresHandler.HandlePutProject, "put_project"))
	r.Put("/freelancers/{id}", MetricsMiddleware(s.featuresHandler.HandlePutFreelancer, "put_freelancer"))
	r.Get("/features/{id}", MetricsMiddleware(s.featuresHandler.HandleGetFeatures, "get_features"))

	r.Get("/projects/{id}/similar", MetricsMiddleware(s.recommendHandler.HandleSimilarProjects, "similar_projects"))
	r.Get("/trending/projects", MetricsMiddleware(s.recommendHandler.HandleTrendingProjects, "trending_projects"))
	r.Get("/users/{id}/recommendations/projects", MetricsMiddleware(s.recommendHandler.HandleProjectRecommendations, "project_recommendations"))
	r.Get("/users/{id}/preferences", MetricsMiddleware(s.recommendHandler.HandlePreferences, "preferences"))
	r.Get("/clients/{id}/recommendations/freelancers", MetricsMiddleware(s.recommendHandler.HandleFreelancerRecommendations, "freelancer_recommendations"))

	swagger.Register(r)

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Fields  any    `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// intParam reads an optional integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, wrapKind("query "+name, ErrBadRequest, err)
	}
	return n, nil
}

// boolParam reads an optional boolean query parameter.
func boolParam(r *http.Request, name string, def bool) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, wrapKind("query "+name, ErrBadRequest, err)
	}
	return b, nil
}

// listParam splits a comma separated query parameter, dropping blanks.
func listParam(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.URL.Query()[name] {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
