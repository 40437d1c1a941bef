// Package scoring blends collaborative, content and trending signals into
// ranked, explained recommendations.
package scoring

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/gigrec/internal/domain/features"
	"github.com/okian/gigrec/internal/domain/model"
	"github.com/okian/gigrec/internal/domain/preferences"
	"github.com/okian/gigrec/internal/domain/ranking"
	"github.com/okian/gigrec/internal/domain/similarity"
	"github.com/okian/gigrec/internal/domain/trending"
	"github.com/okian/gigrec/internal/domain/types"
	"github.com/okian/gigrec/pkg/logger"
	"github.com/okian/gigrec/pkg/metrics"
)

// Interactions is the part of the event tracker the ranker reads.
type Interactions interface {
	Applied(user string) map[string]struct{}
	Hired(client string) map[string]struct{}
}

// Ranker produces project and freelancer recommendations.
type Ranker struct {
	registry     *features.Registry
	prefs        *preferences.Store
	interactions Interactions
	similarity   *similarity.Engine
	trending     *trending.Detector

	cfg    Config
	now    func() time.Time
	logger logger.Logger
}

// New creates a ranker over the engine components.
func New(
	registry *features.Registry,
	prefs *preferences.Store,
	interactions Interactions,
	sim *similarity.Engine,
	detector *trending.Detector,
	opts ...Option,
) *Ranker {
	r := &Ranker{
		registry:     registry,
		prefs:        prefs,
		interactions: interactions,
		similarity:   sim,
		trending:     detector,
		cfg:          DefaultConfig(),
		now:          time.Now,
		logger:       logger.Get(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the active configuration.
func (r *Ranker) Config() Config { return r.cfg }

// ProjectRecommendations ranks projects for user. Candidates come from
// similar users' applications, the user's top categories and skills, and
// the currently trending projects, so users without history still get
// trending order.
func (r *Ranker) ProjectRecommendations(ctx context.Context, user string, limit int, excludeApplied bool) []types.Recommendation {
	limit = r.cfg.Limit(limit)
	now := r.now()

	collab := r.collaborative(r.similarity.FindSimilarUsers(user, r.cfg.MaxSimilarUsers), r.interactions.Applied)
	profile := r.prefs.Get(user)

	candidates := make(map[string]struct{})
	for id := range collab {
		candidates[id] = struct{}{}
	}
	for _, id := range r.contentCandidates(profile) {
		candidates[id] = struct{}{}
	}
	if r.cfg.TrendingCandidates > 0 {
		for _, e := range r.trending.TopProjects(0, r.cfg.TrendingCandidates, now) {
			candidates[e.ID] = struct{}{}
		}
	}
	if excludeApplied {
		for id := range r.interactions.Applied(user) {
			delete(candidates, id)
		}
	}
	metrics.RecordCandidatePool(len(candidates))

	ids := sortedKeys(candidates)
	items := r.registry.Projects(ids)
	aff := newAffinity(profile, r.cfg.CategoryShare)

	board := ranking.NewBoard()
	signals := make(map[string]types.Signals, len(ids))
	for _, id := range ids {
		sig := types.Signals{
			Collaborative: collab[id],
			Trending:      r.trending.Score(id, now),
		}
		if it, ok := items[id]; ok {
			sig.Content = aff.content(it)
		}
		signals[id] = sig
		board.Set(id, r.cfg.CollaborativeWeight*sig.Collaborative+
			r.cfg.ContentWeight*sig.Content+
			r.cfg.TrendingWeight*sig.Trending)
	}

	top := board.Top(limit)
	out := make([]types.Recommendation, len(top))
	for i, e := range top {
		rec := types.Recommendation{ID: e.ID, Score: e.Score, Signals: signals[e.ID]}
		if it, ok := items[e.ID]; ok {
			rec.Features = &it
		}
		rec.Reason = r.projectReason(rec, aff)
		out[i] = rec
	}

	r.logger.Debug(ctx, "project recommendations",
		logger.String("user", user),
		logger.Int("candidates", len(ids)),
		logger.Int("returned", len(out)))
	return out
}

// FreelancerRecommendations ranks freelancers for client. Candidates are
// freelancers the client hired before, freelancers with any of
// projectSkills and freelancers hired by similar clients; when none exist,
// the best rated registered freelancers.
func (r *Ranker) FreelancerRecommendations(ctx context.Context, client string, projectSkills []string, limit int) []types.Recommendation {
	limit = r.cfg.Limit(limit)
	wanted := model.NormalizeSkills(projectSkills)
	hired := r.interactions.Hired(client)
	collab := r.collaborative(r.similarity.FindSimilarClients(client, r.cfg.MaxSimilarUsers), r.interactions.Hired)

	candidates := make(map[string]struct{})
	src := newCappedSet(r.cfg.MaxCandidates)
	src.addAll(sortedKeys(hired))
	for _, s := range wanted {
		src.addAll(r.registry.FreelancersBySkill(s))
	}
	for _, id := range src.ids {
		candidates[id] = struct{}{}
	}
	for id := range collab {
		candidates[id] = struct{}{}
	}
	if len(candidates) == 0 {
		for _, id := range r.bestRated() {
			candidates[id] = struct{}{}
		}
	}
	metrics.RecordCandidatePool(len(candidates))

	ids := sortedKeys(candidates)
	items := r.registry.Freelancers(ids)
	wantedSet := toSet(wanted)

	board := ranking.NewBoard()
	signals := make(map[string]types.Signals, len(ids))
	for _, id := range ids {
		sig := types.Signals{Collaborative: collab[id]}
		if _, ok := hired[id]; ok {
			sig.PreviousHire = 1
		}
		if it, ok := items[id]; ok {
			sig.SkillMatch = float64(len(matching(it.Skills, wantedSet)))
			sig.Quality = r.quality(it)
		}
		signals[id] = sig
		board.Set(id, r.cfg.PreviousHireBonus*sig.PreviousHire+
			r.cfg.SkillMatchWeight*sig.SkillMatch+
			sig.Quality+
			r.cfg.HireCollaborativeWeight*sig.Collaborative)
	}

	top := board.Top(limit)
	out := make([]types.Recommendation, len(top))
	for i, e := range top {
		rec := types.Recommendation{ID: e.ID, Score: e.Score, Signals: signals[e.ID]}
		if it, ok := items[e.ID]; ok {
			rec.Features = &it
		}
		rec.Reason = r.freelancerReason(rec, wantedSet)
		out[i] = rec
	}

	r.logger.Debug(ctx, "freelancer recommendations",
		logger.String("client", client),
		logger.Int("candidates", len(ids)),
		logger.Int("returned", len(out)))
	return out
}

// collaborative sums neighbour similarity over the items each neighbour
// touched, keeps the strongest MaxCandidates and normalizes by the maximum.
func (r *Ranker) collaborative(similar []types.SimilarUser, itemsOf func(string) map[string]struct{}) map[string]float64 {
	out := make(map[string]float64)
	if len(similar) == 0 {
		return out
	}
	board := ranking.NewBoard()
	for _, su := range similar {
		for _, id := range sortedKeys(itemsOf(su.UserID)) {
			board.Add(id, su.Similarity)
		}
	}
	top := board.Top(r.cfg.MaxCandidates)
	if len(top) == 0 || top[0].Score <= 0 {
		return out
	}
	maxScore := top[0].Score
	for _, e := range top {
		out[e.ID] = e.Score / maxScore
	}
	return out
}

func (r *Ranker) contentCandidates(profile model.PreferenceProfile) []string {
	src := newCappedSet(r.cfg.MaxCandidates)
	for _, c := range preferences.Top(profile.Categories, r.cfg.TopCategories) {
		src.addAll(r.registry.ProjectsByCategory(c.Term))
	}
	for _, s := range preferences.Top(profile.Skills, r.cfg.TopSkills) {
		src.addAll(r.registry.ProjectsBySkill(s.Term))
	}
	return src.ids
}

func (r *Ranker) quality(it model.Item) float64 {
	return r.cfg.RatingWeight*it.Rating +
		r.cfg.CompletedWeight*math.Log1p(float64(max(it.CompletedProjects, 0)))
}

func (r *Ranker) bestRated() []string {
	board := ranking.NewBoard()
	for _, it := range r.registry.AllFreelancers() {
		board.Set(it.ID, r.quality(it))
	}
	return board.IDs()[:min(board.Len(), r.cfg.MaxCandidates)]
}

// affinity scores items against one preference profile.
type affinity struct {
	profile  model.PreferenceProfile
	maxCat   float64
	maxSkill float64
	share    float64
}

func newAffinity(p model.PreferenceProfile, share float64) affinity {
	return affinity{
		profile:  p,
		maxCat:   preferences.Max(p.Categories),
		maxSkill: preferences.Max(p.Skills),
		share:    share,
	}
}

func (a affinity) category(it model.Item) float64 {
	if a.maxCat <= 0 {
		return 0
	}
	return a.profile.Categories[it.Category] / a.maxCat
}

func (a affinity) skills(it model.Item) float64 {
	if a.maxSkill <= 0 || len(it.Skills) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range it.Skills {
		sum += a.profile.Skills[s] / a.maxSkill
	}
	return sum / float64(len(it.Skills))
}

func (a affinity) content(it model.Item) float64 {
	return a.share*a.category(it) + (1-a.share)*a.skills(it)
}

type reasonPart struct {
	weight float64
	text   string
}

// explain keeps the strongest part plus any other part worth at least half
// of it, at most two.
func explain(parts []reasonPart, fallback string) string {
	sort.SliceStable(parts, func(i, j int) bool { return parts[i].weight > parts[j].weight })
	var out []string
	for _, p := range parts {
		if p.weight <= 0 || len(out) == 2 || p.weight < parts[0].weight/2 {
			break
		}
		out = append(out, p.text)
	}
	if len(out) == 0 {
		return fallback
	}
	return strings.Join(out, "; ")
}

func (r *Ranker) projectReason(rec types.Recommendation, aff affinity) string {
	var parts []reasonPart
	if rec.Signals.Collaborative > 0 {
		parts = append(parts, reasonPart{r.cfg.CollaborativeWeight * rec.Signals.Collaborative, "freelancers with similar activity applied"})
	}
	if it := rec.Features; it != nil {
		if c := aff.category(*it); c > 0 {
			parts = append(parts, reasonPart{r.cfg.ContentWeight * aff.share * c, "matches your interest in " + it.Category})
		}
		if s := aff.skills(*it); s > 0 {
			var used []string
			for _, sk := range it.Skills {
				if aff.profile.Skills[sk] > 0 {
					used = append(used, sk)
				}
			}
			parts = append(parts, reasonPart{r.cfg.ContentWeight * (1 - aff.share) * s, "uses your skills: " + strings.Join(used, ", ")})
		}
	}
	if rec.Signals.Trending > 0 {
		parts = append(parts, reasonPart{r.cfg.TrendingWeight * rec.Signals.Trending, "trending now"})
	}
	return explain(parts, "new on the marketplace")
}

func (r *Ranker) freelancerReason(rec types.Recommendation, wanted map[string]struct{}) string {
	var parts []reasonPart
	if rec.Signals.PreviousHire > 0 {
		parts = append(parts, reasonPart{r.cfg.PreviousHireBonus, "you hired them before"})
	}
	if rec.Signals.SkillMatch > 0 && rec.Features != nil {
		parts = append(parts, reasonPart{r.cfg.SkillMatchWeight * rec.Signals.SkillMatch,
			"has the skills you need: " + strings.Join(matching(rec.Features.Skills, wanted), ", ")})
	}
	if rec.Signals.Collaborative > 0 {
		parts = append(parts, reasonPart{r.cfg.HireCollaborativeWeight * rec.Signals.Collaborative, "hired by clients like you"})
	}
	if rec.Signals.Quality > 0 {
		parts = append(parts, reasonPart{rec.Signals.Quality, "strong track record"})
	}
	return explain(parts, "available now")
}

// cappedSet keeps the first n distinct ids in insertion order.
type cappedSet struct {
	n    int
	seen map[string]struct{}
	ids  []string
}

func newCappedSet(n int) *cappedSet {
	return &cappedSet{n: n, seen: make(map[string]struct{})}
}

func (c *cappedSet) addAll(ids []string) {
	for _, id := range ids {
		if len(c.ids) >= c.n {
			return
		}
		if _, ok := c.seen[id]; ok {
			continue
		}
		c.seen[id] = struct{}{}
		c.ids = append(c.ids, id)
	}
}

func matching(skills []string, wanted map[string]struct{}) []string {
	var out []string
	for _, s := range skills {
		if _, ok := wanted[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
