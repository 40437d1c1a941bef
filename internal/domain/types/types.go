// Package types contains result shapes returned by the recommendation engine.
package types

import "github.com/okian/gigrec/internal/domain/model"

// Signals is the per-signal breakdown of a hybrid score.
type Signals struct {
	Collaborative float64 `json:"collaborative"`
	Content       float64 `json:"content"`
	Trending      float64 `json:"trending"`
	PreviousHire  float64 `json:"previous_hire,omitempty"`
	SkillMatch    float64 `json:"skill_match,omitempty"`
	Quality       float64 `json:"quality,omitempty"`
}

// Recommendation is one ranked suggestion.
type Recommendation struct {
	ID       string      `json:"id"`
	Score    float64     `json:"score"`
	Signals  Signals     `json:"signals"`
	Reason   string      `json:"reason"`
	Features *model.Item `json:"features,omitempty"`
}

// SimilarProject is a project ranked by content similarity.
type SimilarProject struct {
	ID         string      `json:"id"`
	Similarity float64     `json:"similarity"`
	Features   *model.Item `json:"features,omitempty"`
}

// TrendingProject is a project ranked by trending score.
type TrendingProject struct {
	ID       string      `json:"id"`
	Score    float64     `json:"score"`
	Features *model.Item `json:"features,omitempty"`
}

// SimilarUser is a user ranked by collaborative similarity.
type SimilarUser struct {
	UserID     string  `json:"user_id"`
	Similarity float64 `json:"similarity"`
}

// Weighted is a term with its accumulated weight.
type Weighted struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Preferences is a read-only view of a user's preference profile.
type Preferences struct {
	UserID        string             `json:"user_id"`
	Categories    map[string]float64 `json:"categories"`
	Skills        map[string]float64 `json:"skills"`
	TopCategories []Weighted         `json:"top_categories"`
	TopSkills     []Weighted         `json:"top_skills"`
}
