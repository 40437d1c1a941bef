// Package similarity computes collaborative (Jaccard over interaction sets)
// and content-based similarity.
package similarity

import (
	"github.com/okian/gigrec/internal/domain/features"
	"github.com/okian/gigrec/internal/domain/model"
	"github.com/okian/gigrec/internal/domain/ranking"
	"github.com/okian/gigrec/internal/domain/types"
	"github.com/okian/gigrec/pkg/logger"
)

// Interactions is the read side of the event tracker.
type Interactions interface {
	Applied(user string) map[string]struct{}
	AppliedCount(user string) int
	CoApplicants(user string) []string
	Hired(client string) map[string]struct{}
	HiredCount(client string) int
	CoHirers(client string) []string
}

// Engine answers similarity queries. It holds no state of its own besides
// the optional cache.
type Engine struct {
	interactions Interactions
	registry     *features.Registry
	cache        *Cache
	weights      Weights
	minContent   float64
	logger       logger.Logger
}

// New creates a similarity engine.
func New(interactions Interactions, registry *features.Registry, opts ...Option) *Engine {
	e := &Engine{
		interactions: interactions,
		registry:     registry,
		weights:      DefaultWeights(),
		logger:       logger.Get(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Weights returns the content similarity weights in use.
func (e *Engine) Weights() Weights { return e.weights }

// UserSimilarity is the Jaccard similarity of two users' applied sets.
func (e *Engine) UserSimilarity(a, b string) float64 {
	return e.pairSimilarity("applied", a, b, e.interactions.AppliedCount, e.interactions.Applied)
}

// ClientSimilarity is the Jaccard similarity of two clients' hired sets.
func (e *Engine) ClientSimilarity(a, b string) float64 {
	return e.pairSimilarity("hired", a, b, e.interactions.HiredCount, e.interactions.Hired)
}

func (e *Engine) pairSimilarity(kind, a, b string, count func(string) int, set func(string) map[string]struct{}) float64 {
	key := pairKey(kind, a, uint64(count(a)), b, uint64(count(b)))
	if v, ok := e.cache.get(key); ok {
		return v
	}
	v := Jaccard(set(a), set(b))
	e.cache.set(key, v)
	return v
}

// FindSimilarUsers returns up to limit users sharing applied projects with
// user, by similarity desc then id asc. limit <= 0 returns all of them.
func (e *Engine) FindSimilarUsers(user string, limit int) []types.SimilarUser {
	return e.rankPeers(user, limit, e.interactions.CoApplicants, e.UserSimilarity)
}

// FindSimilarClients is FindSimilarUsers over the hired relation.
func (e *Engine) FindSimilarClients(client string, limit int) []types.SimilarUser {
	return e.rankPeers(client, limit, e.interactions.CoHirers, e.ClientSimilarity)
}

func (e *Engine) rankPeers(user string, limit int, peers func(string) []string, sim func(a, b string) float64) []types.SimilarUser {
	board := ranking.NewBoard()
	for _, other := range peers(user) {
		if s := sim(user, other); s > 0 {
			board.Set(other, s)
		}
	}
	top := board.Top(limit)
	out := make([]types.SimilarUser, len(top))
	for i, en := range top {
		out[i] = types.SimilarUser{UserID: en.ID, Similarity: en.Score}
	}
	return out
}

// ContentSimilarity compares two items with the configured weights.
func (e *Engine) ContentSimilarity(a, b model.Item) float64 {
	key := pairKey("content", a.ID, a.Revision, b.ID, b.Revision)
	if v, ok := e.cache.get(key); ok {
		return v
	}
	v := ContentSimilarity(a, b, e.weights)
	e.cache.set(key, v)
	return v
}

// SimilarProjects ranks every other registered project by content
// similarity to project. Unknown projects yield nothing.
func (e *Engine) SimilarProjects(project string, limit int) []types.SimilarProject {
	target, ok := e.registry.Project(project)
	if !ok {
		return []types.SimilarProject{}
	}

	all := e.registry.AllProjects()
	byID := make(map[string]model.Item, len(all))
	board := ranking.NewBoard()
	for _, p := range all {
		if p.ID == target.ID {
			continue
		}
		if s := e.ContentSimilarity(target, p); s > e.minContent {
			board.Set(p.ID, s)
			byID[p.ID] = p
		}
	}

	top := board.Top(limit)
	out := make([]types.SimilarProject, len(top))
	for i, en := range top {
		it := byID[en.ID]
		out[i] = types.SimilarProject{ID: en.ID, Similarity: en.Score, Features: &it}
	}
	return out
}
