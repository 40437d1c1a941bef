package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/okian/gigrec/internal/adapters/mq/queue"
	"github.com/okian/gigrec/internal/domain/model"
)

// eventRequest is the body of POST /events.
type eventRequest struct {
	EventID         string  `json:"event_id"`
	UserID          string  `json:"user_id"`
	ItemID          string  `json:"item_id"`
	Kind            string  `json:"kind"`
	Timestamp       string  `json:"timestamp"`
	DurationSeconds float64 `json:"duration_seconds"`
	ProjectID       string  `json:"project_id"`
}

// toEvent validates the request. A missing timestamp becomes now.
func (e eventRequest) toEvent(now time.Time) (model.Event, error) {
	switch {
	case strings.TrimSpace(e.UserID) == "":
		return model.Event{}, errors.New("missing user_id")
	case strings.TrimSpace(e.ItemID) == "":
		return model.Event{}, errors.New("missing item_id")
	case e.DurationSeconds < 0:
		return model.Event{}, errors.New("negative duration_seconds")
	}
	kind, err := model.ParseEventKind(e.Kind)
	if err != nil {
		return model.Event{}, err
	}

	ts := now
	if strings.TrimSpace(e.Timestamp) != "" {
		if ts, err = time.Parse(time.RFC3339, e.Timestamp); err != nil {
			return model.Event{}, errors.New("invalid timestamp; must be RFC3339")
		}
	}

	return model.Event{
		ID:        strings.TrimSpace(e.EventID),
		UserID:    e.UserID,
		ItemID:    e.ItemID,
		Kind:      kind,
		Timestamp: ts,
		Duration:  time.Duration(e.DurationSeconds * float64(time.Second)),
		ProjectID: e.ProjectID,
	}, nil
}

type ackResponse struct {
	Status    string `json:"status"`
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}

// EventsHandler handles event ingestion.
type EventsHandler struct {
	ingest Ingestor
	now    func() time.Time
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(ingest Ingestor, now func() time.Time) *EventsHandler {
	return &EventsHandler{ingest: ingest, now: now}
}

// HandlePostEvent handles POST /events. Events without an event_id get a
// generated one, so only clients that send ids get idempotency.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	ev, err := req.toEvent(h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	ctx := r.Context()
	if h.ingest.SeenAndRecord(ctx, ev.ID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", EventID: ev.ID, Duplicate: true})
		return
	}

	if err := h.ingest.Enqueue(ctx, ev); err != nil {
		// Let the client retry the same id.
		h.ingest.Unrecord(ctx, ev.ID)
		if errors.Is(err, queue.ErrFull) {
			writeError(w, http.StatusTooManyRequests, "backpressure", newKind(op, ErrBackpressure))
			return
		}
		writeError(w, http.StatusServiceUnavailable, "unavailable", wrapKind(op, ErrUnavailable, err))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", EventID: ev.ID})
}
