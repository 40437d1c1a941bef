package model

// PreferenceProfile holds a user's accumulated category and skill weights.
type PreferenceProfile struct {
	UserID     string             `json:"user_id"`
	Categories map[string]float64 `json:"categories"`
	Skills     map[string]float64 `json:"skills"`
}

// Empty reports whether the profile carries no weight at all.
func (p PreferenceProfile) Empty() bool {
	return len(p.Categories) == 0 && len(p.Skills) == 0
}
