package api_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/gigrec/internal/adapters/http/api"
	"github.com/okian/gigrec/internal/adapters/mq/queue"
	"github.com/okian/gigrec/internal/domain/model"
	"github.com/okian/gigrec/internal/recommend"
	"github.com/okian/gigrec/pkg/logger"
)

type mockIngest struct {
	mu       sync.Mutex
	seen     map[string]bool
	enqueued []model.Event
	err      error
}

func newMockIngest() *mockIngest { return &mockIngest{seen: make(map[string]bool)} }

func (m *mockIngest) SeenAndRecord(_ context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[id] {
		return true
	}
	m.seen[id] = true
	return false
}

func (m *mockIngest) Unrecord(_ context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, id)
}

func (m *mockIngest) Size() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.seen))
}

func (m *mockIngest) Enqueue(_ context.Context, ev model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, ev)
	return nil
}

type staticStats map[string]any

func (s staticStats) GetStats(context.Context) map[string]any { return s }

func do(h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func newServer(t *testing.T) (http.Handler, *recommend.Engine, *mockIngest) {
	t.Helper()
	engine, err := recommend.New(recommend.WithLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	t.Cleanup(engine.Close)
	ingest := newMockIngest()
	srv := api.NewServer(engine, ingest, staticStats{"started": true})
	return srv.Routes(), engine, ingest
}

func TestFeatureEndpoints(t *testing.T) {
	Convey("Given the API over a fresh engine", t, func() {
		h, _, _ := newServer(t)

		Convey("When a valid project is registered", func() {
			rec, body := do(h, http.MethodPut, "/projects/p1", `{"category":"Web Development","skills":["React","react"],"budget_min":100,"budget_max":300}`)

			Convey("Then it is stored normalized and readable", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(body["id"], ShouldEqual, "p1")

				rec, body = do(h, http.MethodGet, "/features/p1", "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(body["skills"], ShouldResemble, []any{"react"})
			})
		})

		Convey("When an invalid freelancer is registered", func() {
			rec, body := do(h, http.MethodPut, "/freelancers/f1", `{"skills":["go"],"rating":7}`)

			Convey("Then the API answers 400 with field details", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "validation_failed")
				So(body["fields"], ShouldNotBeEmpty)
			})
		})

		Convey("When a project and a freelancer share an id", func() {
			rec, _ := do(h, http.MethodPut, "/projects/x", `{"category":"web","skills":["go"]}`)
			So(rec.Code, ShouldEqual, http.StatusOK)
			rec, body := do(h, http.MethodPut, "/freelancers/x", `{"skills":["go"],"rating":4}`)

			Convey("Then each registration answers with its own kind", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(body["kind"], ShouldEqual, "freelancer")
				So(body["rating"], ShouldEqual, 4.0)

				rec, body = do(h, http.MethodPut, "/projects/x", `{"category":"design"}`)
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(body["kind"], ShouldEqual, "project")
				So(body["category"], ShouldEqual, "design")
			})
		})

		Convey("When the id has surrounding whitespace", func() {
			rec, body := do(h, http.MethodPut, "/projects/%20p1", `{"category":"web"}`)

			Convey("Then it is rejected instead of stored under another id", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "validation_failed")
			})
		})

		Convey("When the body is not JSON", func() {
			rec, _ := do(h, http.MethodPut, "/projects/p1", `{`)

			Convey("Then it is a bad request", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When an unknown id is read", func() {
			rec, body := do(h, http.MethodGet, "/features/ghost", "")

			Convey("Then it is not found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
				So(body["code"], ShouldEqual, "not_found")
			})
		})
	})
}

func TestEventEndpoint(t *testing.T) {
	Convey("Given the events endpoint", t, func() {
		h, _, ingest := newServer(t)

		Convey("When an event with an id is posted twice", func() {
			payload := `{"event_id":"e1","user_id":"u1","item_id":"p1","kind":"view","timestamp":"2026-07-01T12:00:00Z","duration_seconds":30}`
			first, ack := do(h, http.MethodPost, "/events", payload)
			second, dup := do(h, http.MethodPost, "/events", payload)

			Convey("Then the first is accepted and the second flagged duplicate", func() {
				So(first.Code, ShouldEqual, http.StatusAccepted)
				So(ack["event_id"], ShouldEqual, "e1")
				So(second.Code, ShouldEqual, http.StatusOK)
				So(dup["duplicate"], ShouldEqual, true)
				So(len(ingest.enqueued), ShouldEqual, 1)
				So(ingest.enqueued[0].Duration, ShouldEqual, 30*time.Second)
				So(ingest.enqueued[0].Kind, ShouldEqual, model.EventView)
			})
		})

		Convey("When an event has no id or timestamp", func() {
			rec, ack := do(h, http.MethodPost, "/events", `{"user_id":"c1","item_id":"f1","kind":"HIRE","project_id":"p1"}`)

			Convey("Then an id and a timestamp are assigned", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(ack["event_id"], ShouldNotBeBlank)
				So(ingest.enqueued[0].ID, ShouldEqual, ack["event_id"])
				So(ingest.enqueued[0].Timestamp.IsZero(), ShouldBeFalse)
				So(ingest.enqueued[0].ProjectID, ShouldEqual, "p1")
			})
		})

		Convey("When the event is malformed", func() {
			cases := []string{
				`{"item_id":"p1","kind":"view"}`,
				`{"user_id":"u1","kind":"view"}`,
				`{"user_id":"u1","item_id":"p1","kind":"like"}`,
				`{"user_id":"u1","item_id":"p1","kind":"view","timestamp":"yesterday"}`,
				`not json`,
			}

			Convey("Then each is rejected with 400", func() {
				for _, c := range cases {
					rec, _ := do(h, http.MethodPost, "/events", c)
					So(rec.Code, ShouldEqual, http.StatusBadRequest)
				}
				So(ingest.enqueued, ShouldBeEmpty)
			})
		})

		Convey("When the queue is full", func() {
			ingest.err = queue.ErrFull
			rec, body := do(h, http.MethodPost, "/events", `{"event_id":"e9","user_id":"u1","item_id":"p1","kind":"view"}`)

			Convey("Then the API answers 429 and the id can be retried", func() {
				So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
				So(body["code"], ShouldEqual, "backpressure")
				So(ingest.Size(), ShouldEqual, 0)
			})
		})

		Convey("When the queue is closed", func() {
			ingest.err = queue.ErrClosed
			rec, _ := do(h, http.MethodPost, "/events", `{"event_id":"e9","user_id":"u1","item_id":"p1","kind":"view"}`)

			Convey("Then the API answers 503", func() {
				So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})
	})
}

func TestRecommendationEndpoints(t *testing.T) {
	Convey("Given an engine with some activity", t, func() {
		h, engine, _ := newServer(t)
		ctx := context.Background()
		for i, cat := range []string{"web", "web", "design"} {
			So(engine.RegisterProject(ctx, fmt.Sprintf("p%d", i), model.ProjectFeatures{Category: cat, Skills: []string{"go"}}), ShouldBeNil)
		}
		So(engine.RegisterFreelancer(ctx, "f1", model.FreelancerFeatures{Skills: []string{"go"}, Rating: 4.5}), ShouldBeNil)
		So(engine.TrackApplication(ctx, "u1", "p0"), ShouldBeNil)
		So(engine.TrackView(ctx, "u2", "p1", 0), ShouldBeNil)

		Convey("Then project recommendations exclude applied work by default", func() {
			rec, body := do(h, http.MethodGet, "/users/u1/recommendations/projects?limit=5", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(body["id"], ShouldEqual, "u1")
			for _, it := range body["items"].([]any) {
				So(it.(map[string]any)["id"], ShouldNotEqual, "p0")
			}

			_, body = do(h, http.MethodGet, "/users/u1/recommendations/projects?exclude_applied=false", "")
			So(body["count"], ShouldBeGreaterThan, 0)
		})

		Convey("Then bad query values are rejected", func() {
			rec, _ := do(h, http.MethodGet, "/users/u1/recommendations/projects?limit=ten", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			rec, _ = do(h, http.MethodGet, "/users/u1/recommendations/projects?exclude_applied=maybe", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			rec, _ = do(h, http.MethodGet, "/trending/projects?window_hours=x", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Then freelancer recommendations honor requested skills", func() {
			rec, body := do(h, http.MethodGet, "/clients/c1/recommendations/freelancers?skills=go,%20rust&limit=3", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(body["count"], ShouldEqual, float64(1))
		})

		Convey("Then similar, trending and preferences answer", func() {
			_, body := do(h, http.MethodGet, "/projects/p0/similar", "")
			items := body["items"].([]any)
			So(items[0].(map[string]any)["id"], ShouldEqual, "p1")

			_, body = do(h, http.MethodGet, "/trending/projects?window_hours=1", "")
			So(body["count"], ShouldEqual, float64(2))

			_, body = do(h, http.MethodGet, "/users/u1/preferences", "")
			So(body["user_id"], ShouldEqual, "u1")

			_, body = do(h, http.MethodGet, "/projects/ghost/similar", "")
			So(body["items"], ShouldResemble, []any{})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given the API", t, func() {
		h, _, _ := newServer(t)

		Convey("Then /stats returns the provider's stats", func() {
			rec, body := do(h, http.MethodGet, "/stats", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(body["started"], ShouldEqual, true)
		})

		Convey("Then /healthz exposes Prometheus metrics", func() {
			do(h, http.MethodGet, "/stats", "")
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "gigrec_")
		})

		Convey("Then the OpenAPI document is served", func() {
			rec, _ := do(h, http.MethodGet, "/openapi.yaml", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "/users/{id}/recommendations/projects")
		})

		Convey("Then unknown routes and methods are rejected", func() {
			rec, _ := do(h, http.MethodGet, "/leaderboard", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			rec, _ = do(h, http.MethodDelete, "/events", "")
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}
