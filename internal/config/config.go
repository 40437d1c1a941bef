// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers a YAML file and env vars over the defaults and validates.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"runtime"
	"time"

	"github.com/okian/gigrec/internal/domain/scoring"
	"github.com/okian/gigrec/internal/domain/similarity"
	"github.com/okian/gigrec/internal/domain/tracker"
	"github.com/okian/gigrec/internal/domain/trending"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	Queue     Queue     `koanf:"queue"`
	Worker    Worker    `koanf:"worker"`
	Dedupe    Dedupe    `koanf:"dedupe"`
	Storage   Storage   `koanf:"storage"`
	Warmup    Warmup    `koanf:"warmup"`
	Cache     Cache     `koanf:"cache"`
	Recommend Recommend `koanf:"recommend"`
}

// Queue bounds the in-memory event queue.
type Queue struct {
	Size int `koanf:"size" validate:"gt=0"`
}

// Worker sizes the event worker pool.
type Worker struct {
	Count int `koanf:"count" validate:"gt=0"`
}

// Dedupe sizes the event id window. Zero disables deduplication.
type Dedupe struct {
	Size int `koanf:"size" validate:"gte=0"`
}

// Storage selects the durable store. An empty badger path runs in memory.
type Storage struct {
	Driver     string `koanf:"driver" validate:"oneof=memory badger"`
	Path       string `koanf:"path"`
	SyncWrites bool   `koanf:"sync_writes"`
}

// Warmup points at an optional YAML seed file.
type Warmup struct {
	File           string `koanf:"file"`
	SkipIfRestored bool   `koanf:"skip_if_restored"`
}

// Cache tunes the similarity cache.
type Cache struct {
	Enabled     bool          `koanf:"enabled"`
	TTL         time.Duration `koanf:"ttl" validate:"gt=0"`
	NumCounters int64         `koanf:"num_counters" validate:"gt=0"`
	MaxCost     int64         `koanf:"max_cost" validate:"gt=0"`
}

// Recommend holds the engine tuning.
type Recommend struct {
	// ShardCount sets the number of preference shards.
	ShardCount int `koanf:"shard_count" validate:"gte=0"`

	Events     Events     `koanf:"events"`
	Similarity Similarity `koanf:"similarity"`
	Trending   Trending   `koanf:"trending"`
	Ranking    Ranking    `koanf:"ranking"`
}

// Events are the preference increments per event kind.
type Events struct {
	View        float64 `koanf:"view" validate:"gte=0"`
	Application float64 `koanf:"application" validate:"gte=0"`
	Hire        float64 `koanf:"hire" validate:"gte=0"`
}

// Similarity holds the content similarity weights.
type Similarity struct {
	CategoryMatch   float64 `koanf:"category_match" validate:"gte=0"`
	SkillOverlap    float64 `koanf:"skill_overlap" validate:"gte=0"`
	BudgetProximity float64 `koanf:"budget_proximity" validate:"gte=0"`
	MinContent      float64 `koanf:"min_content" validate:"gte=0,lte=1"`
}

// Trending holds the window sizes and multipliers.
type Trending struct {
	ShortWindow       time.Duration `koanf:"short_window" validate:"gt=0"`
	ShortViewWeight   float64       `koanf:"short_view_weight" validate:"gte=0"`
	LongWindow        time.Duration `koanf:"long_window" validate:"gt=0"`
	LongViewWeight    float64       `koanf:"long_view_weight" validate:"gte=0"`
	ApplicationWindow time.Duration `koanf:"application_window" validate:"gt=0"`
	ApplicationWeight float64       `koanf:"application_weight" validate:"gte=0"`
}

// Ranking holds the hybrid weights and per-query bounds.
type Ranking struct {
	CollaborativeWeight float64 `koanf:"collaborative_weight" validate:"gte=0"`
	ContentWeight       float64 `koanf:"content_weight" validate:"gte=0"`
	TrendingWeight      float64 `koanf:"trending_weight" validate:"gte=0"`
	CategoryShare       float64 `koanf:"category_share" validate:"gte=0,lte=1"`

	MaxSimilarUsers    int `koanf:"max_similar_users" validate:"gt=0"`
	TopCategories      int `koanf:"top_categories" validate:"gt=0"`
	TopSkills          int `koanf:"top_skills" validate:"gt=0"`
	TrendingCandidates int `koanf:"trending_candidates" validate:"gte=0"`
	MaxCandidates      int `koanf:"max_candidates" validate:"gt=0"`

	PreviousHireBonus       float64 `koanf:"previous_hire_bonus" validate:"gte=0"`
	SkillMatchWeight        float64 `koanf:"skill_match_weight" validate:"gte=0"`
	RatingWeight            float64 `koanf:"rating_weight" validate:"gte=0"`
	CompletedWeight         float64 `koanf:"completed_weight" validate:"gte=0"`
	HireCollaborativeWeight float64 `koanf:"hire_collaborative_weight" validate:"gte=0"`

	DefaultLimit int `koanf:"default_limit" validate:"gt=0,ltefield=MaxLimit"`
	MaxLimit     int `koanf:"max_limit" validate:"gt=0"`
}

// New creates a Config with defaults. Engine tuning defaults come from the
// domain packages.
func New() *Config {
	ev := tracker.DefaultWeights()
	sw := similarity.DefaultWeights()
	tr := trending.DefaultConfig()
	rk := scoring.DefaultConfig()
	cc := similarity.DefaultCacheConfig()

	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Addr:      ":9080",
		Queue:     Queue{Size: 100_000},
		Worker:    Worker{Count: runtime.NumCPU() * 2},
		Dedupe:    Dedupe{Size: 500_000},
		Storage:   Storage{Driver: "memory"},
		Warmup:    Warmup{SkipIfRestored: true},
		Cache: Cache{
			Enabled:     true,
			TTL:         cc.TTL,
			NumCounters: cc.NumCounters,
			MaxCost:     cc.MaxCost,
		},
		Recommend: Recommend{
			ShardCount: 16,
			Events:     Events{View: ev.View, Application: ev.Application, Hire: ev.Hire},
			Similarity: Similarity{
				CategoryMatch:   sw.CategoryMatch,
				SkillOverlap:    sw.SkillOverlap,
				BudgetProximity: sw.BudgetProximity,
			},
			Trending: Trending{
				ShortWindow:       tr.ShortWindow,
				ShortViewWeight:   tr.ShortViewWeight,
				LongWindow:        tr.LongWindow,
				LongViewWeight:    tr.LongViewWeight,
				ApplicationWindow: tr.ApplicationWindow,
				ApplicationWeight: tr.ApplicationWeight,
			},
			Ranking: Ranking{
				CollaborativeWeight:     rk.CollaborativeWeight,
				ContentWeight:           rk.ContentWeight,
				TrendingWeight:          rk.TrendingWeight,
				CategoryShare:           rk.CategoryShare,
				MaxSimilarUsers:         rk.MaxSimilarUsers,
				TopCategories:           rk.TopCategories,
				TopSkills:               rk.TopSkills,
				TrendingCandidates:      rk.TrendingCandidates,
				MaxCandidates:           rk.MaxCandidates,
				PreviousHireBonus:       rk.PreviousHireBonus,
				SkillMatchWeight:        rk.SkillMatchWeight,
				RatingWeight:            rk.RatingWeight,
				CompletedWeight:         rk.CompletedWeight,
				HireCollaborativeWeight: rk.HireCollaborativeWeight,
				DefaultLimit:            rk.DefaultLimit,
				MaxLimit:                rk.MaxLimit,
			},
		},
	}
}

// EventWeights converts to the tracker type.
func (e Events) EventWeights() tracker.Weights {
	return tracker.Weights{View: e.View, Application: e.Application, Hire: e.Hire}
}

// Weights converts to the similarity type.
func (s Similarity) Weights() similarity.Weights {
	return similarity.Weights{
		CategoryMatch:   s.CategoryMatch,
		SkillOverlap:    s.SkillOverlap,
		BudgetProximity: s.BudgetProximity,
	}
}

// TrendingConfig converts to the trending type.
func (t Trending) TrendingConfig() trending.Config {
	return trending.Config{
		ShortWindow:       t.ShortWindow,
		ShortViewWeight:   t.ShortViewWeight,
		LongWindow:        t.LongWindow,
		LongViewWeight:    t.LongViewWeight,
		ApplicationWindow: t.ApplicationWindow,
		ApplicationWeight: t.ApplicationWeight,
	}
}

// ScoringConfig converts to the scoring type.
func (r Ranking) ScoringConfig() scoring.Config {
	return scoring.Config{
		CollaborativeWeight:     r.CollaborativeWeight,
		ContentWeight:           r.ContentWeight,
		TrendingWeight:          r.TrendingWeight,
		CategoryShare:           r.CategoryShare,
		MaxSimilarUsers:         r.MaxSimilarUsers,
		TopCategories:           r.TopCategories,
		TopSkills:               r.TopSkills,
		TrendingCandidates:      r.TrendingCandidates,
		MaxCandidates:           r.MaxCandidates,
		PreviousHireBonus:       r.PreviousHireBonus,
		SkillMatchWeight:        r.SkillMatchWeight,
		RatingWeight:            r.RatingWeight,
		CompletedWeight:         r.CompletedWeight,
		HireCollaborativeWeight: r.HireCollaborativeWeight,
		DefaultLimit:            r.DefaultLimit,
		MaxLimit:                r.MaxLimit,
	}
}

// CacheConfig converts to the similarity cache type.
func (c Cache) CacheConfig() similarity.CacheConfig {
	return similarity.CacheConfig{TTL: c.TTL, NumCounters: c.NumCounters, MaxCost: c.MaxCost}
}
