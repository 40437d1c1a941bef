package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RecommendHandler serves the read side of the engine.
type RecommendHandler struct {
	engine Recommender
}

// NewRecommendHandler creates a new recommendation handler.
func NewRecommendHandler(engine Recommender) *RecommendHandler {
	return &RecommendHandler{engine: engine}
}

type listResponse[T any] struct {
	ID    string `json:"id,omitempty"`
	Count int    `json:"count"`
	Items []T    `json:"items"`
}

func list[T any](id string, items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{ID: id, Count: len(items), Items: items}
}

// HandleProjectRecommendations handles
// GET /users/{id}/recommendations/projects?limit&exclude_applied.
func (h *RecommendHandler) HandleProjectRecommendations(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "id")
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	exclude, err := boolParam(r, "exclude_applied", true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, list(user, h.engine.ProjectRecommendations(r.Context(), user, limit, exclude)))
}

// HandleFreelancerRecommendations handles
// GET /clients/{id}/recommendations/freelancers?skills=a,b&limit.
func (h *RecommendHandler) HandleFreelancerRecommendations(w http.ResponseWriter, r *http.Request) {
	client := chi.URLParam(r, "id")
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	recs := h.engine.FreelancerRecommendations(r.Context(), client, listParam(r, "skills"), limit)
	writeJSON(w, http.StatusOK, list(client, recs))
}

// HandleSimilarProjects handles GET /projects/{id}/similar?limit.
func (h *RecommendHandler) HandleSimilarProjects(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "id")
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, list(project, h.engine.SimilarProjects(r.Context(), project, limit)))
}

// HandleTrendingProjects handles GET /trending/projects?window_hours&limit.
func (h *RecommendHandler) HandleTrendingProjects(w http.ResponseWriter, r *http.Request) {
	window, err := intParam(r, "window_hours", 24)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, list("", h.engine.TrendingProjects(r.Context(), window, limit)))
}

// HandlePreferences handles GET /users/{id}/preferences.
func (h *RecommendHandler) HandlePreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.UserPreferences(chi.URLParam(r, "id")))
}
