package simulate

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gigrec/internal/domain/model"
	"github.com/okian/gigrec/internal/warmup"
)

var categories = []string{
	"web development", "mobile development", "data science",
	"design", "writing", "devops", "marketing", "blockchain",
}

var skillsByCategory = map[string][]string{
	"web development":    {"react", "typescript", "node", "css", "go", "postgres"},
	"mobile development": {"swift", "kotlin", "flutter", "react native", "firebase"},
	"data science":       {"python", "pandas", "pytorch", "sql", "statistics"},
	"design":             {"figma", "illustrator", "ux research", "branding"},
	"writing":            {"copywriting", "seo", "technical writing", "editing"},
	"devops":             {"kubernetes", "terraform", "aws", "go", "prometheus"},
	"marketing":          {"seo", "google ads", "analytics", "copywriting"},
	"blockchain":         {"solidity", "rust", "go", "cryptography"},
}

var levels = []string{"entry", "intermediate", "expert"}

// Event mirrors the body of POST /events.
type Event struct {
	EventID         string  `json:"event_id"`
	UserID          string  `json:"user_id"`
	ItemID          string  `json:"item_id"`
	Kind            string  `json:"kind"`
	Timestamp       string  `json:"timestamp"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	ProjectID       string  `json:"project_id,omitempty"`
}

// Workload is a generated marketplace.
type Workload struct {
	Projects    []warmup.Project
	Freelancers []warmup.Freelancer
	Events      []Event
}

// Generate builds a workload from cfg.Seed. Each user favours one or two
// categories so recommendations have a signal to find. Timestamps fall in
// the cfg.Span before now.
func Generate(cfg Config, now time.Time) Workload {
	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:], cfg.Seed)
	src := rand.NewChaCha8(seed)
	g := &generator{rng: rand.New(src), ids: src, now: now.UTC(), span: cfg.Span}

	w := Workload{
		Projects:    make([]warmup.Project, 0, cfg.Projects),
		Freelancers: make([]warmup.Freelancer, 0, cfg.Freelancers),
	}
	byCategory := make(map[string][]string)
	for i := range cfg.Projects {
		p := g.project(fmt.Sprintf("project-%04d", i))
		byCategory[p.Category] = append(byCategory[p.Category], p.ID)
		w.Projects = append(w.Projects, p)
	}
	for i := range cfg.Freelancers {
		w.Freelancers = append(w.Freelancers, g.freelancer(fmt.Sprintf("freelancer-%04d", i)))
	}

	if len(w.Projects) > 0 && cfg.Users > 0 {
		favourites := make([][]string, cfg.Users)
		for u := range favourites {
			favourites[u] = g.favourites(byCategory)
		}
		for range cfg.Events {
			u := g.rng.IntN(cfg.Users)
			w.Events = append(w.Events, g.activity(fmt.Sprintf("user-%04d", u), favourites[u], w.Projects))
		}
	}
	if len(w.Freelancers) > 0 && len(w.Projects) > 0 && cfg.Clients > 0 {
		for range cfg.Hires {
			client := fmt.Sprintf("client-%04d", g.rng.IntN(cfg.Clients))
			f := w.Freelancers[g.rng.IntN(len(w.Freelancers))]
			p := w.Projects[g.rng.IntN(len(w.Projects))]
			w.Events = append(w.Events, Event{
				EventID:   g.id(),
				UserID:    client,
				ItemID:    f.ID,
				Kind:      string(model.EventHire),
				Timestamp: g.timestamp(),
				ProjectID: p.ID,
			})
		}
	}
	return w
}

// Seed converts the workload into a warm-up seed. Views have no warm-up
// representation and are left out.
func (w Workload) Seed() *warmup.Seed {
	s := &warmup.Seed{Projects: w.Projects, Freelancers: w.Freelancers}
	for _, ev := range w.Events {
		at, _ := time.Parse(time.RFC3339, ev.Timestamp)
		switch model.EventKind(ev.Kind) {
		case model.EventApplication:
			s.Applications = append(s.Applications, warmup.Application{UserID: ev.UserID, ProjectID: ev.ItemID, At: at})
		case model.EventHire:
			s.Hires = append(s.Hires, warmup.Hire{ClientID: ev.UserID, FreelancerID: ev.ItemID, ProjectID: ev.ProjectID, At: at})
		}
	}
	return s
}

type generator struct {
	rng  *rand.Rand
	ids  *rand.ChaCha8
	now  time.Time
	span time.Duration
}

func (g *generator) id() string {
	id, err := uuid.NewRandomFromReader(g.ids)
	if err != nil {
		// ChaCha8 reads never fail.
		panic(err)
	}
	return id.String()
}

func (g *generator) timestamp() string {
	var back time.Duration
	if g.span > 0 {
		back = time.Duration(g.rng.Int64N(int64(g.span)))
	}
	return g.now.Add(-back).Format(time.RFC3339)
}

func (g *generator) pick(from []string, n int) []string {
	idx := g.rng.Perm(len(from))
	out := make([]string, 0, n)
	for _, i := range idx[:min(n, len(from))] {
		out = append(out, from[i])
	}
	sort.Strings(out)
	return out
}

func (g *generator) project(id string) warmup.Project {
	cat := categories[g.rng.IntN(len(categories))]
	lo := float64(100 * (1 + g.rng.IntN(50)))
	return warmup.Project{ID: id, ProjectFeatures: model.ProjectFeatures{
		Category:        cat,
		Skills:          g.pick(skillsByCategory[cat], 1+g.rng.IntN(3)),
		BudgetMin:       lo,
		BudgetMax:       lo * (1 + g.rng.Float64()*2),
		ExperienceLevel: levels[g.rng.IntN(len(levels))],
		CreatedAt:       g.now.Add(-g.span),
	}}
}

func (g *generator) freelancer(id string) warmup.Freelancer {
	cat := categories[g.rng.IntN(len(categories))]
	return warmup.Freelancer{ID: id, FreelancerFeatures: model.FreelancerFeatures{
		Category:          cat,
		Skills:            g.pick(skillsByCategory[cat], 2+g.rng.IntN(3)),
		HourlyRate:        float64(15 + g.rng.IntN(150)),
		Rating:            float64(30+g.rng.IntN(21)) / 10,
		ExperienceYears:   float64(g.rng.IntN(20)),
		CompletedProjects: g.rng.IntN(200),
	}}
}

// favourites returns the projects of one or two random categories.
func (g *generator) favourites(byCategory map[string][]string) []string {
	var out []string
	for _, c := range g.pick(categories, 1+g.rng.IntN(2)) {
		out = append(out, byCategory[c]...)
	}
	return out
}

// activity is a view or application, 80% of the time on a favourite.
func (g *generator) activity(user string, favourites []string, projects []warmup.Project) Event {
	item := projects[g.rng.IntN(len(projects))].ID
	if len(favourites) > 0 && g.rng.Float64() < 0.8 {
		item = favourites[g.rng.IntN(len(favourites))]
	}
	ev := Event{EventID: g.id(), UserID: user, ItemID: item, Timestamp: g.timestamp()}
	if g.rng.Float64() < 0.25 {
		ev.Kind = string(model.EventApplication)
	} else {
		ev.Kind = string(model.EventView)
		ev.DurationSeconds = float64(5 + g.rng.IntN(300))
	}
	return ev
}
