// Package features stores the engine's copy of project and freelancer
// attributes and indexes them by category and skill.
package features

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/gigrec/internal/domain/model"
	"github.com/okian/gigrec/pkg/logger"
)

type idSet map[string]struct{}

// Registry holds registered projects and freelancers. Upserts replace the
// whole record; records are never deleted.
type Registry struct {
	mu sync.RWMutex

	projects    map[string]model.Item
	freelancers map[string]model.Item

	projectsByCategory map[string]idSet
	projectsBySkill    map[string]idSet
	freelancersBySkill map[string]idSet

	logger logger.Logger
	now    func() time.Time
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		projects:           make(map[string]model.Item),
		freelancers:        make(map[string]model.Item),
		projectsByCategory: make(map[string]idSet),
		projectsBySkill:    make(map[string]idSet),
		freelancersBySkill: make(map[string]idSet),
		logger:             logger.Get(),
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterProject validates and upserts a project, returning the stored copy.
func (r *Registry) RegisterProject(ctx context.Context, id string, f model.ProjectFeatures) (model.Item, error) {
	if err := validateProject(id, f); err != nil {
		r.logger.Debug(ctx, "project rejected", logger.String("project", id), logger.Error(err))
		return model.Item{}, err
	}

	item := model.Item{
		ID:              id,
		Kind:            model.KindProject,
		Category:        model.NormalizeTerm(f.Category),
		Skills:          model.NormalizeSkills(f.Skills),
		BudgetMin:       f.BudgetMin,
		BudgetMax:       f.BudgetMax,
		ExperienceLevel: strings.TrimSpace(f.ExperienceLevel),
		CreatedAt:       f.CreatedAt,
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = r.now()
	}

	r.mu.Lock()
	if old, ok := r.projects[item.ID]; ok {
		item.Revision = old.Revision + 1
		unindex(r.projectsByCategory, item.ID, old.Category)
		unindex(r.projectsBySkill, item.ID, old.Skills...)
	} else {
		item.Revision = 1
	}
	r.projects[item.ID] = item
	index(r.projectsByCategory, item.ID, item.Category)
	index(r.projectsBySkill, item.ID, item.Skills...)
	r.mu.Unlock()

	return item.Clone(), nil
}

// RegisterFreelancer validates and upserts a freelancer, returning the stored copy.
func (r *Registry) RegisterFreelancer(ctx context.Context, id string, f model.FreelancerFeatures) (model.Item, error) {
	if err := validateFreelancer(id, f); err != nil {
		r.logger.Debug(ctx, "freelancer rejected", logger.String("freelancer", id), logger.Error(err))
		return model.Item{}, err
	}

	item := model.Item{
		ID:                id,
		Kind:              model.KindFreelancer,
		Category:          model.NormalizeTerm(f.Category),
		Skills:            model.NormalizeSkills(f.Skills),
		HourlyRate:        f.HourlyRate,
		Rating:            f.Rating,
		ExperienceYears:   f.ExperienceYears,
		CompletedProjects: f.CompletedProjects,
		CreatedAt:         f.CreatedAt,
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = r.now()
	}

	r.mu.Lock()
	if old, ok := r.freelancers[item.ID]; ok {
		item.Revision = old.Revision + 1
		unindex(r.freelancersBySkill, item.ID, old.Skills...)
	} else {
		item.Revision = 1
	}
	r.freelancers[item.ID] = item
	index(r.freelancersBySkill, item.ID, item.Skills...)
	r.mu.Unlock()

	return item.Clone(), nil
}

// GetFeatures looks the id up among projects first, then freelancers.
func (r *Registry) GetFeatures(id string) (model.Item, bool) {
	if it, ok := r.Project(id); ok {
		return it, true
	}
	return r.Freelancer(id)
}

// Project returns a copy of the registered project.
func (r *Registry) Project(id string) (model.Item, bool) {
	r.mu.RLock()
	it, ok := r.projects[id]
	r.mu.RUnlock()
	if !ok {
		return model.Item{}, false
	}
	return it.Clone(), true
}

// Freelancer returns a copy of the registered freelancer.
func (r *Registry) Freelancer(id string) (model.Item, bool) {
	r.mu.RLock()
	it, ok := r.freelancers[id]
	r.mu.RUnlock()
	if !ok {
		return model.Item{}, false
	}
	return it.Clone(), true
}

// Projects returns copies of the registered projects with the given ids,
// skipping unknown ones.
func (r *Registry) Projects(ids []string) map[string]model.Item {
	out := make(map[string]model.Item, len(ids))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range ids {
		if it, ok := r.projects[id]; ok {
			out[id] = it.Clone()
		}
	}
	return out
}

// Freelancers returns copies of the registered freelancers with the given
// ids, skipping unknown ones.
func (r *Registry) Freelancers(ids []string) map[string]model.Item {
	out := make(map[string]model.Item, len(ids))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range ids {
		if it, ok := r.freelancers[id]; ok {
			out[id] = it.Clone()
		}
	}
	return out
}

// AllProjects returns a copy of every registered project.
func (r *Registry) AllProjects() []model.Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Item, 0, len(r.projects))
	for _, it := range r.projects {
		out = append(out, it.Clone())
	}
	return out
}

// AllFreelancers returns a copy of every registered freelancer.
func (r *Registry) AllFreelancers() []model.Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Item, 0, len(r.freelancers))
	for _, it := range r.freelancers {
		out = append(out, it.Clone())
	}
	return out
}

// ProjectsByCategory returns the sorted ids of projects in category.
func (r *Registry) ProjectsByCategory(category string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedIDs(r.projectsByCategory[model.NormalizeTerm(category)])
}

// ProjectsBySkill returns the sorted ids of projects requiring skill.
func (r *Registry) ProjectsBySkill(skill string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedIDs(r.projectsBySkill[model.NormalizeTerm(skill)])
}

// FreelancersBySkill returns the sorted ids of freelancers offering skill.
func (r *Registry) FreelancersBySkill(skill string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedIDs(r.freelancersBySkill[model.NormalizeTerm(skill)])
}

// ProjectIDs returns every registered project id, sorted.
func (r *Registry) ProjectIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.projects))
	for id := range r.projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FreelancerIDs returns every registered freelancer id, sorted.
func (r *Registry) FreelancerIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.freelancers))
	for id := range r.freelancers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Counts returns the number of registered projects and freelancers.
func (r *Registry) Counts() (projects, freelancers int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.projects), len(r.freelancers)
}

func index(idx map[string]idSet, id string, keys ...string) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		set, ok := idx[k]
		if !ok {
			set = make(idSet)
			idx[k] = set
		}
		set[id] = struct{}{}
	}
}

func unindex(idx map[string]idSet, id string, keys ...string) {
	for _, k := range keys {
		set, ok := idx[k]
		if !ok {
			continue
		}
		delete(set, id)
		if len(set) == 0 {
			delete(idx, k)
		}
	}
}

func sortedIDs(set idSet) []string {
	if len(set) == 0 {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
