package scoring

// Config holds the hybrid ranking weights and per-query bounds.
type Config struct {
	CollaborativeWeight float64
	ContentWeight       float64
	TrendingWeight      float64
	// CategoryShare splits the content signal between category affinity and
	// skill affinity.
	CategoryShare float64

	MaxSimilarUsers    int
	TopCategories      int
	TopSkills          int
	TrendingCandidates int
	MaxCandidates      int

	PreviousHireBonus       float64
	SkillMatchWeight        float64
	RatingWeight            float64
	CompletedWeight         float64
	HireCollaborativeWeight float64

	DefaultLimit int
	MaxLimit     int
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		CollaborativeWeight: 0.6,
		ContentWeight:       0.4,
		TrendingWeight:      0.1,
		CategoryShare:       0.5,

		MaxSimilarUsers:    20,
		TopCategories:      3,
		TopSkills:          5,
		TrendingCandidates: 20,
		MaxCandidates:      100,

		PreviousHireBonus:       1.0,
		SkillMatchWeight:        0.2,
		RatingWeight:            0.1,
		CompletedWeight:         0.05,
		HireCollaborativeWeight: 0.6,

		DefaultLimit: 10,
		MaxLimit:     100,
	}
}

// Limit maps a requested limit onto [1, MaxLimit]; n <= 0 means DefaultLimit.
func (c Config) Limit(n int) int {
	if n <= 0 {
		n = c.DefaultLimit
	}
	if c.MaxLimit > 0 && n > c.MaxLimit {
		n = c.MaxLimit
	}
	return n
}
