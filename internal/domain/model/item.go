package model

import (
	"sort"
	"strings"
	"time"
)

// ItemKind distinguishes projects from freelancers.
type ItemKind string

// Supported item kinds.
const (
	KindProject    ItemKind = "project"
	KindFreelancer ItemKind = "freelancer"
)

// Item is the registry's copy of a project or freelancer profile.
type Item struct {
	ID                string    `json:"id"`
	Kind              ItemKind  `json:"kind"`
	Category          string    `json:"category,omitempty"`
	Skills            []string  `json:"skills,omitempty"`
	BudgetMin         float64   `json:"budget_min,omitempty"`
	BudgetMax         float64   `json:"budget_max,omitempty"`
	HourlyRate        float64   `json:"hourly_rate,omitempty"`
	Rating            float64   `json:"rating,omitempty"`
	ExperienceYears   float64   `json:"experience_years,omitempty"`
	ExperienceLevel   string    `json:"experience_level,omitempty"`
	CompletedProjects int       `json:"completed_projects,omitempty"`
	CreatedAt         time.Time `json:"created_at,omitempty"`
	Revision          uint64    `json:"revision"`
}

// Price returns the value compared for budget proximity: the budget midpoint
// for projects and the hourly rate for freelancers.
func (it Item) Price() float64 {
	if it.Kind == KindFreelancer {
		return it.HourlyRate
	}
	return (it.BudgetMin + it.BudgetMax) / 2
}

// Clone returns a deep copy.
func (it Item) Clone() Item {
	out := it
	if it.Skills != nil {
		out.Skills = append([]string(nil), it.Skills...)
	}
	return out
}

// ProjectFeatures is the registration payload for a project.
type ProjectFeatures struct {
	Category        string    `json:"category" yaml:"category" validate:"max=128"`
	Skills          []string  `json:"skills" yaml:"skills" validate:"dive,notblank,max=64"`
	BudgetMin       float64   `json:"budget_min" yaml:"budget_min" validate:"gte=0"`
	BudgetMax       float64   `json:"budget_max" yaml:"budget_max" validate:"gte=0,gtefield=BudgetMin"`
	ExperienceLevel string    `json:"experience_level" yaml:"experience_level" validate:"max=64"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
}

// FreelancerFeatures is the registration payload for a freelancer.
type FreelancerFeatures struct {
	Category          string    `json:"category" yaml:"category" validate:"max=128"`
	Skills            []string  `json:"skills" yaml:"skills" validate:"dive,notblank,max=64"`
	HourlyRate        float64   `json:"hourly_rate" yaml:"hourly_rate" validate:"gte=0"`
	Rating            float64   `json:"rating" yaml:"rating" validate:"gte=0,lte=5"`
	ExperienceYears   float64   `json:"experience_years" yaml:"experience_years" validate:"gte=0"`
	CompletedProjects int       `json:"completed_projects" yaml:"completed_projects" validate:"gte=0"`
	CreatedAt         time.Time `json:"created_at" yaml:"created_at"`
}

// NormalizeTerm trims and lower-cases a category or skill.
func NormalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeSkills normalizes each skill, drops blanks and duplicates and
// returns the result sorted.
func NormalizeSkills(skills []string) []string {
	if len(skills) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		n := NormalizeTerm(s)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ProjectFeatures returns the registration payload that reproduces the item.
func (it Item) ProjectFeatures() ProjectFeatures {
	return ProjectFeatures{
		Category:        it.Category,
		Skills:          append([]string(nil), it.Skills...),
		BudgetMin:       it.BudgetMin,
		BudgetMax:       it.BudgetMax,
		ExperienceLevel: it.ExperienceLevel,
		CreatedAt:       it.CreatedAt,
	}
}

// FreelancerFeatures returns the registration payload that reproduces the item.
func (it Item) FreelancerFeatures() FreelancerFeatures {
	return FreelancerFeatures{
		Category:          it.Category,
		Skills:            append([]string(nil), it.Skills...),
		HourlyRate:        it.HourlyRate,
		Rating:            it.Rating,
		ExperienceYears:   it.ExperienceYears,
		CompletedProjects: it.CompletedProjects,
		CreatedAt:         it.CreatedAt,
	}
}
