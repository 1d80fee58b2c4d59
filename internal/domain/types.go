package domain

import "time"

// Project is a single portfolio entry
type Project struct {
	Slug           string   `json:"slug" yaml:"slug"`
	Name           string   `json:"name" yaml:"name"`
	Description    string   `json:"description" yaml:"description"`
	Type           string   `json:"type,omitempty" yaml:"type,omitempty"`
	Responsiveness *string  `json:"responsiveness" yaml:"responsiveness"`
	Tags           []string `json:"tags" yaml:"tags"`
	Images         []string `json:"images" yaml:"images"`
	Featured       bool     `json:"featured" yaml:"featured"`
	ExternalURL    string   `json:"externalUrl,omitempty" yaml:"externalUrl,omitempty"`
	CreatedAt      string   `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	LastMod        string   `json:"lastMod,omitempty" yaml:"lastMod,omitempty"`
}

// Service is an offered service shown on the services page
type Service struct {
	Slug         string   `json:"slug" yaml:"slug"`
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	Technologies []string `json:"technologies" yaml:"technologies"`
	Images       []string `json:"images" yaml:"images"`
	CreatedAt    string   `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	LastMod      string   `json:"lastMod,omitempty" yaml:"lastMod,omitempty"`
}

// MetaItem is a label/value pair shown next to a project
type MetaItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Cover returns the first image, or "" when the project has none
func (p Project) Cover() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// HasTag reports whether the project carries tag exactly
func (p Project) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Year returns the UTC year of CreatedAt, or "" if it is missing or malformed
func (p Project) Year() string {
	if p.CreatedAt == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, p.CreatedAt)
	if err != nil {
		return ""
	}
	return t.UTC().Format("2006")
}

// Meta returns the non-empty detail fields in display order
func (p Project) Meta() []MetaItem {
	var items []MetaItem
	if p.Type != "" {
		items = append(items, MetaItem{Label: "Type", Value: p.Type})
	}
	if p.Responsiveness != nil && *p.Responsiveness != "" {
		items = append(items, MetaItem{Label: "Responsiveness", Value: *p.Responsiveness})
	}
	if y := p.Year(); y != "" {
		items = append(items, MetaItem{Label: "Year", Value: y})
	}
	return items
}

// Clone returns a deep copy so callers can't alias catalog slices
func (p Project) Clone() Project {
	c := p
	c.Tags = append([]string{}, p.Tags...)
	c.Images = append([]string{}, p.Images...)
	if p.Responsiveness != nil {
		r := *p.Responsiveness
		c.Responsiveness = &r
	}
	return c
}

// Clone returns a deep copy of the service
func (s Service) Clone() Service {
	c := s
	c.Technologies = append([]string{}, s.Technologies...)
	c.Images = append([]string{}, s.Images...)
	return c
}
