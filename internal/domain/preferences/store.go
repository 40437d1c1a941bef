// Package preferences keeps per-user category and skill weights learned from
// behavior events.
package preferences

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/okian/gigrec/internal/domain/model"
	"github.com/okian/gigrec/internal/domain/types"
)

// DefaultShardCount is used when no shard count is configured.
const DefaultShardCount = 16

type profile struct {
	categories map[string]float64
	skills     map[string]float64
}

type shard struct {
	mu    sync.RWMutex
	users map[string]*profile
}

// Store is a sharded map of user id to preference profile. Weights only
// ever grow.
type Store struct {
	shards []*shard
}

// Option configures a Store.
type Option func(*Store)

// WithShardCount sets the number of shards.
func WithShardCount(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.shards = make([]*shard, n)
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{shards: make([]*shard, DefaultShardCount)}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.shards {
		s.shards[i] = &shard{users: make(map[string]*profile)}
	}
	return s
}

func (s *Store) shardFor(user string) *shard {
	return s.shards[xxhash.Sum64String(user)%uint64(len(s.shards))]
}

// Increment adds weight to category and to each skill of user's profile.
// Non-positive weights are ignored so the profile is non-decreasing.
func (s *Store) Increment(user, category string, skills []string, weight float64) {
	if user == "" || !(weight > 0) {
		return
	}
	category = model.NormalizeTerm(category)
	if category == "" && len(skills) == 0 {
		return
	}

	sh := s.shardFor(user)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	p, ok := sh.users[user]
	if !ok {
		p = &profile{categories: make(map[string]float64), skills: make(map[string]float64)}
		sh.users[user] = p
	}
	if category != "" {
		p.categories[category] += weight
	}
	for _, sk := range skills {
		if sk = model.NormalizeTerm(sk); sk != "" {
			p.skills[sk] += weight
		}
	}
}

// Get returns a copy of user's profile. Unknown users get an empty profile.
func (s *Store) Get(user string) model.PreferenceProfile {
	out := model.PreferenceProfile{
		UserID:     user,
		Categories: map[string]float64{},
		Skills:     map[string]float64{},
	}
	sh := s.shardFor(user)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	p, ok := sh.users[user]
	if !ok {
		return out
	}
	for k, v := range p.categories {
		out.Categories[k] = v
	}
	for k, v := range p.skills {
		out.Skills[k] = v
	}
	return out
}

// Len returns the number of users with a profile.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.users)
		sh.mu.RUnlock()
	}
	return n
}

// Top returns the n heaviest terms of weights, weight desc then term asc.
// n <= 0 returns all of them.
func Top(weights map[string]float64, n int) []types.Weighted {
	out := make([]types.Weighted, 0, len(weights))
	for term, w := range weights {
		out = append(out, types.Weighted{Term: term, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Term < out[j].Term
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Max returns the largest weight, or 0 for an empty map.
func Max(weights map[string]float64) float64 {
	m := 0.0
	for _, w := range weights {
		if w > m {
			m = w
		}
	}
	return m
}
