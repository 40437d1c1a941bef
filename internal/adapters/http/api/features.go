package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/okian/gigrec/internal/domain/features"
	"github.com/okian/gigrec/internal/domain/model"
	"github.com/okian/gigrec/internal/recommend"
)

// FeaturesHandler handles item registration and lookup.
type FeaturesHandler struct {
	engine Recommender
}

// NewFeaturesHandler creates a new features handler.
func NewFeaturesHandler(engine Recommender) *FeaturesHandler {
	return &FeaturesHandler{engine: engine}
}

// HandlePutProject handles PUT /projects/{id}.
func (h *FeaturesHandler) HandlePutProject(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_project"
	id := chi.URLParam(r, "id")

	var f model.ProjectFeatures
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	h.respond(w, op, id, h.engine.RegisterProject(r.Context(), id, f), h.engine.Project)
}

// HandlePutFreelancer handles PUT /freelancers/{id}.
func (h *FeaturesHandler) HandlePutFreelancer(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_freelancer"
	id := chi.URLParam(r, "id")

	var f model.FreelancerFeatures
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	h.respond(w, op, id, h.engine.RegisterFreelancer(r.Context(), id, f), h.engine.Freelancer)
}

// respond reports a registration. stored reads back the item of the kind
// just written, since a project and a freelancer may share an id.
func (h *FeaturesHandler) respond(w http.ResponseWriter, op, id string, err error, stored func(string) (model.Item, bool)) {
	var verr *features.ValidationError
	switch {
	case err == nil, errors.Is(err, recommend.ErrPersist):
		// A persist failure leaves the registration live in memory; report
		// it without failing the write.
		item, _ := stored(id)
		status := http.StatusOK
		if err != nil {
			status = http.StatusAccepted
		}
		writeJSON(w, status, item)
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "validation_failed",
			Message: wrapKind(op, ErrBadRequest, err).Error(),
			Fields:  verr.Fields,
		})
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

// HandleGetFeatures handles GET /features/{id}.
func (h *FeaturesHandler) HandleGetFeatures(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_features"
	id := chi.URLParam(r, "id")

	item, ok := h.engine.GetFeatures(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", newKind(op, ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, item)
}
