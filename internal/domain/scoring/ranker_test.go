package scoring_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/gigrec/internal/domain/features"
	"github.com/okian/gigrec/internal/domain/model"
	"github.com/okian/gigrec/internal/domain/preferences"
	"github.com/okian/gigrec/internal/domain/scoring"
	"github.com/okian/gigrec/internal/domain/similarity"
	"github.com/okian/gigrec/internal/domain/tracker"
	"github.com/okian/gigrec/internal/domain/trending"
	"github.com/okian/gigrec/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type world struct {
	ctx      context.Context
	now      time.Time
	registry *features.Registry
	tracker  *tracker.Tracker
	ranker   *scoring.Ranker
}

func newWorld(opts ...scoring.Option) *world {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	quiet := logger.Discard()

	registry := features.New(features.WithLogger(quiet), features.WithClock(clock))
	prefs := preferences.New()
	detector := trending.New()
	tr := tracker.New(registry, prefs, detector, tracker.WithClock(clock), tracker.WithLogger(quiet))
	sim := similarity.New(tr, registry, similarity.WithLogger(quiet))
	opts = append([]scoring.Option{scoring.WithClock(clock), scoring.WithLogger(quiet)}, opts...)

	return &world{
		ctx:      context.Background(),
		now:      now,
		registry: registry,
		tracker:  tr,
		ranker:   scoring.New(registry, prefs, tr, sim, detector, opts...),
	}
}

func (w *world) project(id, category string, skills ...string) {
	_, err := w.registry.RegisterProject(w.ctx, id, model.ProjectFeatures{Category: category, Skills: skills})
	So(err, ShouldBeNil)
}

func (w *world) freelancer(id string, rating float64, completed int, skills ...string) {
	_, err := w.registry.RegisterFreelancer(w.ctx, id, model.FreelancerFeatures{Skills: skills, Rating: rating, CompletedProjects: completed})
	So(err, ShouldBeNil)
}

func TestProjectRecommendations(t *testing.T) {
	Convey("Given a user who applied to React web projects", t, func() {
		w := newWorld()
		w.project("react-1", "Web Development", "react", "typescript")
		w.project("react-2", "Web Development", "react", "css")
		w.project("react-3", "Web Development", "react")
		w.project("logo", "Design", "illustrator")
		w.project("ios", "Mobile", "swift")

		So(w.tracker.TrackApplication(w.ctx, "u1", "react-1"), ShouldBeNil)
		So(w.tracker.TrackView(w.ctx, "u1", "react-2", time.Minute), ShouldBeNil)

		Convey("When asking for recommendations excluding applied", func() {
			recs := w.ranker.ProjectRecommendations(w.ctx, "u1", 10, true)

			Convey("Then React web projects rank first and applied ones are gone", func() {
				So(len(recs), ShouldBeGreaterThanOrEqualTo, 2)
				So(recs[0].ID, ShouldBeIn, []string{"react-2", "react-3"})
				So(recs[1].ID, ShouldBeIn, []string{"react-2", "react-3"})
				for _, r := range recs {
					So(r.ID, ShouldNotEqual, "react-1")
					So(r.ID, ShouldNotBeIn, []string{"logo", "ios"})
				}
				So(recs[0].Signals.Content, ShouldBeGreaterThan, 0)
				So(recs[0].Features, ShouldNotBeNil)
				So(recs[0].Reason, ShouldNotBeBlank)
			})

			Convey("Then results are ordered by score desc then id asc", func() {
				for i := 1; i < len(recs); i++ {
					prev, cur := recs[i-1], recs[i]
					So(prev.Score >= cur.Score, ShouldBeTrue)
					if prev.Score == cur.Score {
						So(prev.ID < cur.ID, ShouldBeTrue)
					}
				}
			})
		})

		Convey("When not excluding applied", func() {
			recs := w.ranker.ProjectRecommendations(w.ctx, "u1", 10, false)

			Convey("Then the applied project may appear", func() {
				var seen bool
				for _, r := range recs {
					if r.ID == "react-1" {
						seen = true
					}
				}
				So(seen, ShouldBeTrue)
			})
		})

		Convey("When limiting to one", func() {
			So(len(w.ranker.ProjectRecommendations(w.ctx, "u1", 1, true)), ShouldEqual, 1)
		})
	})

	Convey("Given users with overlapping applications", t, func() {
		w := newWorld()
		for _, id := range []string{"a", "b", "c", "d"} {
			w.project(id, "Writing", "copy")
		}
		So(w.tracker.TrackApplication(w.ctx, "u1", "a"), ShouldBeNil)
		So(w.tracker.TrackApplication(w.ctx, "u1", "b"), ShouldBeNil)
		So(w.tracker.TrackApplication(w.ctx, "u2", "a"), ShouldBeNil)
		So(w.tracker.TrackApplication(w.ctx, "u2", "b"), ShouldBeNil)
		So(w.tracker.TrackApplication(w.ctx, "u2", "c"), ShouldBeNil)

		Convey("Then the neighbour's extra project carries a collaborative signal", func() {
			recs := w.ranker.ProjectRecommendations(w.ctx, "u1", 10, true)
			So(len(recs), ShouldBeGreaterThan, 0)
			So(recs[0].ID, ShouldEqual, "c")
			So(recs[0].Signals.Collaborative, ShouldEqual, 1)
			So(recs[0].Reason, ShouldContainSubstring, "similar activity")
		})
	})

	Convey("Given a user with no history", t, func() {
		w := newWorld()
		w.project("hot", "Data", "python")
		w.project("warm", "Data", "sql")
		w.project("cold", "Data", "r")
		for i := 0; i < 100; i++ {
			So(w.tracker.TrackView(w.ctx, fmt.Sprintf("v%d", i), "hot", 0), ShouldBeNil)
		}
		So(w.tracker.TrackView(w.ctx, "v0", "warm", 0), ShouldBeNil)

		Convey("When recommending", func() {
			recs := w.ranker.ProjectRecommendations(w.ctx, "newcomer", 10, true)

			Convey("Then the ranking is trending order", func() {
				So(len(recs), ShouldEqual, 2)
				So(recs[0].ID, ShouldEqual, "hot")
				So(recs[1].ID, ShouldEqual, "warm")
				So(recs[0].Reason, ShouldEqual, "trending now")
				So(recs[0].Signals.Collaborative, ShouldEqual, 0)
				So(recs[0].Signals.Content, ShouldEqual, 0)
			})
		})
	})

	Convey("Given an empty engine", t, func() {
		w := newWorld()

		Convey("Then recommendations are empty, not an error", func() {
			So(w.ranker.ProjectRecommendations(w.ctx, "anyone", 0, true), ShouldBeEmpty)
			So(w.ranker.FreelancerRecommendations(w.ctx, "anyone", nil, 0), ShouldBeEmpty)
		})
	})
}

func TestFreelancerRecommendations(t *testing.T) {
	Convey("Given clients sharing a hire", t, func() {
		w := newWorld()
		w.freelancer("F1", 4.5, 10, "go")
		w.freelancer("F2", 4.0, 3, "go", "k8s")
		w.freelancer("F3", 3.0, 1, "php")

		So(w.tracker.TrackHire(w.ctx, "C1", "F1", ""), ShouldBeNil)
		So(w.tracker.TrackHire(w.ctx, "C2", "F1", ""), ShouldBeNil)
		So(w.tracker.TrackHire(w.ctx, "C2", "F2", ""), ShouldBeNil)

		Convey("When C1 asks for freelancers", func() {
			recs := w.ranker.FreelancerRecommendations(w.ctx, "C1", nil, 10)

			Convey("Then the previous hire ranks first", func() {
				So(recs[0].ID, ShouldEqual, "F1")
				So(recs[0].Signals.PreviousHire, ShouldEqual, 1)
				So(recs[0].Reason, ShouldContainSubstring, "hired them before")
			})

			Convey("Then C2's other hire surfaces with a collaborative component", func() {
				var found bool
				for _, r := range recs {
					if r.ID == "F2" {
						found = true
						So(r.Signals.Collaborative, ShouldBeGreaterThan, 0)
					}
					So(r.ID, ShouldNotEqual, "F3")
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When asking with project skills", func() {
			recs := w.ranker.FreelancerRecommendations(w.ctx, "C9", []string{"PHP"}, 10)

			Convey("Then skill matches become candidates", func() {
				So(len(recs), ShouldEqual, 1)
				So(recs[0].ID, ShouldEqual, "F3")
				So(recs[0].Signals.SkillMatch, ShouldEqual, 1)
				So(recs[0].Reason, ShouldContainSubstring, "php")
			})
		})

		Convey("When a client has no history and gives no skills", func() {
			recs := w.ranker.FreelancerRecommendations(w.ctx, "C9", nil, 2)

			Convey("Then the best rated freelancers are returned", func() {
				So(len(recs), ShouldEqual, 2)
				So(recs[0].ID, ShouldEqual, "F1")
				So(recs[1].ID, ShouldEqual, "F2")
			})
		})
	})
}

func TestLimits(t *testing.T) {
	Convey("Given the default config", t, func() {
		c := scoring.DefaultConfig()

		Convey("Then limits are defaulted and capped", func() {
			So(c.Limit(0), ShouldEqual, 10)
			So(c.Limit(-4), ShouldEqual, 10)
			So(c.Limit(7), ShouldEqual, 7)
			So(c.Limit(1000), ShouldEqual, 100)
		})
	})

	Convey("Given a small candidate cap", t, func() {
		cfg := scoring.DefaultConfig()
		cfg.MaxCandidates = 3
		cfg.TrendingCandidates = 0
		w := newWorld(scoring.WithConfig(cfg))
		for i := 0; i < 10; i++ {
			w.project(fmt.Sprintf("p%d", i), "ops", "bash")
		}
		So(w.tracker.TrackView(w.ctx, "u1", "p0", 0), ShouldBeNil)

		Convey("Then each source contributes at most the cap", func() {
			recs := w.ranker.ProjectRecommendations(w.ctx, "u1", 50, false)
			So(len(recs), ShouldBeLessThanOrEqualTo, 3)
		})
	})
}
