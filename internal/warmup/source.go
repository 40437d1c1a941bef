// Package warmup provides the historical data replayed into a fresh engine.
package warmup

import (
	"context"
	"time"

	"github.com/okian/gigrec/internal/domain/model"
)

// Project is an open project to register.
type Project struct {
	ID                    string `yaml:"id"`
	model.ProjectFeatures `yaml:",inline"`
}

// Freelancer is an active freelancer to register.
type Freelancer struct {
	ID                       string `yaml:"id"`
	model.FreelancerFeatures `yaml:",inline"`
}

// Application is a historical application.
type Application struct {
	UserID    string    `yaml:"user_id"`
	ProjectID string    `yaml:"project_id"`
	At        time.Time `yaml:"at"`
}

// Hire is a historical hire.
type Hire struct {
	ClientID     string    `yaml:"client_id"`
	FreelancerID string    `yaml:"freelancer_id"`
	ProjectID    string    `yaml:"project_id"`
	At           time.Time `yaml:"at"`
}

// Source yields warm-up data. Implementations may hit a database or an
// API; each call is made once per warm start.
type Source interface {
	OpenProjects(ctx context.Context) ([]Project, error)
	ActiveFreelancers(ctx context.Context) ([]Freelancer, error)
	HistoricalApplications(ctx context.Context) ([]Application, error)
	HistoricalHires(ctx context.Context) ([]Hire, error)
}

// Seed is an in-memory Source.
type Seed struct {
	Projects     []Project     `yaml:"projects"`
	Freelancers  []Freelancer  `yaml:"freelancers"`
	Applications []Application `yaml:"applications"`
	Hires        []Hire        `yaml:"hires"`
}

func (s *Seed) OpenProjects(context.Context) ([]Project, error)              { return s.Projects, nil }
func (s *Seed) ActiveFreelancers(context.Context) ([]Freelancer, error)      { return s.Freelancers, nil }
func (s *Seed) HistoricalApplications(context.Context) ([]Application, error) { return s.Applications, nil }
func (s *Seed) HistoricalHires(context.Context) ([]Hire, error)               { return s.Hires, nil }
