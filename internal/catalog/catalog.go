package catalog

import (
	"fmt"
	"strings"

	"github.com/pbaille/portfolio/internal/domain"
)

// Snapshot is the serialized form of a catalog, used by file sources,
// the sqlite importer and the redis cache.
type Snapshot struct {
	Projects []domain.Project `json:"projects" yaml:"projects"`
	Services []domain.Service `json:"services" yaml:"services"`
}

// Catalog is an immutable view over a set of projects and services.
// Accessors return copies; nothing handed out aliases internal state.
type Catalog struct {
	projects []domain.Project
	services []domain.Service
	bySlug   map[string]int
	tags     []string
}

// New validates and indexes the given records. Project order is kept as
// given. Nil tag and image lists are normalized to empty ones and repeated
// tags on a single project are collapsed.
func New(projects []domain.Project, services []domain.Service) (*Catalog, error) {
	c := &Catalog{
		projects: make([]domain.Project, 0, len(projects)),
		services: make([]domain.Service, 0, len(services)),
		bySlug:   make(map[string]int, len(projects)),
	}

	seen := make(map[string]bool)
	for i, p := range projects {
		if strings.TrimSpace(p.Slug) == "" {
			return nil, fmt.Errorf("project %d: empty slug", i)
		}
		if _, dup := c.bySlug[p.Slug]; dup {
			return nil, fmt.Errorf("project %q: %w", p.Slug, ErrDuplicateSlug)
		}

		p = p.Clone()
		p.Tags = uniqueTags(p.Tags)
		for _, t := range p.Tags {
			if !seen[t] {
				seen[t] = true
				c.tags = append(c.tags, t)
			}
		}

		c.bySlug[p.Slug] = len(c.projects)
		c.projects = append(c.projects, p)
	}

	for _, s := range services {
		c.services = append(c.services, s.Clone())
	}

	SortTags(c.tags)
	return c, nil
}

// FromSnapshot builds a catalog from its serialized form
func FromSnapshot(s Snapshot) (*Catalog, error) {
	return New(s.Projects, s.Services)
}

// Snapshot returns the serialized form of the catalog
func (c *Catalog) Snapshot() Snapshot {
	return Snapshot{Projects: c.Projects(), Services: c.Services()}
}

// Len returns the number of projects
func (c *Catalog) Len() int {
	return len(c.projects)
}

// Projects returns every project in catalog order
func (c *Catalog) Projects() []domain.Project {
	out := make([]domain.Project, len(c.projects))
	for i, p := range c.projects {
		out[i] = p.Clone()
	}
	return out
}

// Tags returns the deduplicated tag union in display order
func (c *Catalog) Tags() []string {
	return append([]string{}, c.tags...)
}

// GetAll returns every project plus the catalog-wide tag set
func (c *Catalog) GetAll() ([]domain.Project, []string) {
	return c.Projects(), c.Tags()
}

// GetBySlug returns the project with the given slug
func (c *Catalog) GetBySlug(slug string) (domain.Project, error) {
	i, ok := c.bySlug[slug]
	if !ok {
		return domain.Project{}, fmt.Errorf("project %q: %w", slug, ErrNotFound)
	}
	return c.projects[i].Clone(), nil
}

// FindByTags returns the first project, in catalog order, carrying every
// requested tag. Matching ignores case and surrounding whitespace; blank
// entries are dropped.
func (c *Catalog) FindByTags(tags []string) (domain.Project, error) {
	want := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			want = append(want, t)
		}
	}
	if len(want) == 0 {
		return domain.Project{}, fmt.Errorf("empty tag list: %w", ErrInvalidQuery)
	}

	for _, p := range c.projects {
		have := make(map[string]bool, len(p.Tags))
		for _, t := range p.Tags {
			have[strings.ToLower(t)] = true
		}

		match := true
		for _, t := range want {
			if !have[t] {
				match = false
				break
			}
		}
		if match {
			return p.Clone(), nil
		}
	}

	return domain.Project{}, fmt.Errorf("tags %v: %w", want, ErrNotFound)
}

// Featured returns the featured projects in catalog order
func (c *Catalog) Featured() []domain.Project {
	var out []domain.Project
	for _, p := range c.projects {
		if p.Featured {
			out = append(out, p.Clone())
		}
	}
	return out
}

// Next returns the project following slug, wrapping around at the end
func (c *Catalog) Next(slug string) (domain.Project, error) {
	i, ok := c.bySlug[slug]
	if !ok {
		return domain.Project{}, fmt.Errorf("project %q: %w", slug, ErrNotFound)
	}
	return c.projects[(i+1)%len(c.projects)].Clone(), nil
}

// Services returns every service in catalog order
func (c *Catalog) Services() []domain.Service {
	out := make([]domain.Service, len(c.services))
	for i, s := range c.services {
		out[i] = s.Clone()
	}
	return out
}

// ParseTagList splits a comma separated query value into trimmed,
// non-empty tags
func ParseTagList(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func uniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
