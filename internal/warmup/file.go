package warmup

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileSource reads a YAML seed file with projects, freelancers,
// applications and hires lists. The file is parsed on first use.
type FileSource struct {
	path string

	once sync.Once
	seed *Seed
	err  error
}

// NewFileSource returns a source backed by the YAML file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) load() (*Seed, error) {
	f.once.Do(func() {
		data, err := os.ReadFile(f.path)
		if err != nil {
			f.err = fmt.Errorf("read seed file: %w", err)
			return
		}
		var s Seed
		if err := yaml.Unmarshal(data, &s); err != nil {
			f.err = fmt.Errorf("parse seed file %s: %w", f.path, err)
			return
		}
		f.seed = &s
	})
	return f.seed, f.err
}

func (f *FileSource) OpenProjects(ctx context.Context) ([]Project, error) {
	s, err := f.load()
	if err != nil {
		return nil, err
	}
	return s.Projects, nil
}

func (f *FileSource) ActiveFreelancers(ctx context.Context) ([]Freelancer, error) {
	s, err := f.load()
	if err != nil {
		return nil, err
	}
	return s.Freelancers, nil
}

func (f *FileSource) HistoricalApplications(ctx context.Context) ([]Application, error) {
	s, err := f.load()
	if err != nil {
		return nil, err
	}
	return s.Applications, nil
}

func (f *FileSource) HistoricalHires(ctx context.Context) ([]Hire, error) {
	s, err := f.load()
	if err != nil {
		return nil, err
	}
	return s.Hires, nil
}
