// Package facet computes the tag-filter view of a project list.
//
// Every function here is pure and total: it reads the catalog items and
// the current selection and returns fresh values. Tag comparison is exact
// and case-sensitive; the loose, case-folding lookup lives in
// catalog.FindByTags.
package facet

import (
	"strings"

	"github.com/pbaille/portfolio/internal/domain"
)

// Facets holds the per-tag counts for one selection
type Facets struct {
	// TagCounts counts every project carrying the tag, ignoring the selection
	TagCounts map[string]int `json:"tagCounts"`
	// ProspectiveCounts is the result size if the tag were added to the
	// selection; for selected tags it is the current result size
	ProspectiveCounts map[string]int `json:"prospectiveCounts"`
	// Disabled lists unselected tags whose prospective count is zero
	Disabled []string `json:"disabledTags"`
}

// View is the full derived state for a project list
type View struct {
	Items    []domain.Project `json:"items"`
	Total    int              `json:"total"`
	Tags     []string         `json:"tags"`
	Selected []string         `json:"selected"`
	Facets
}

// Matches reports whether p carries every selected tag
func Matches(p domain.Project, sel Selection) bool {
	for t := range sel.tags {
		if !p.HasTag(t) {
			return false
		}
	}
	return true
}

// Filter returns the items carrying every selected tag, in input order.
// The empty selection returns items unchanged.
func Filter(items []domain.Project, sel Selection) []domain.Project {
	if sel.Len() == 0 {
		return items
	}
	out := make([]domain.Project, 0, len(items))
	for _, p := range items {
		if Matches(p, sel) {
			out = append(out, p)
		}
	}
	return out
}

// CountWith returns how many items match sel with tag added
func CountWith(items []domain.Project, sel Selection, tag string) int {
	if !sel.Has(tag) {
		sel = sel.With(tag)
	}
	n := 0
	for _, p := range items {
		if Matches(p, sel) {
			n++
		}
	}
	return n
}

// ComputeFacets returns the counts for every tag in tags under sel
func ComputeFacets(items []domain.Project, tags []string, sel Selection) Facets {
	f := Facets{
		TagCounts:         make(map[string]int, len(tags)),
		ProspectiveCounts: make(map[string]int, len(tags)),
		Disabled:          []string{},
	}

	for _, t := range tags {
		for _, p := range items {
			if p.HasTag(t) {
				f.TagCounts[t]++
			}
		}
	}

	// Adding a tag can only narrow the current result, so counting within
	// it is the same as re-filtering the whole catalog.
	filtered := Filter(items, sel)
	for _, t := range tags {
		if sel.Has(t) {
			f.ProspectiveCounts[t] = len(filtered)
			continue
		}
		n := 0
		for _, p := range filtered {
			if p.HasTag(t) {
				n++
			}
		}
		f.ProspectiveCounts[t] = n
		if n == 0 {
			f.Disabled = append(f.Disabled, t)
		}
	}

	return f
}

// IsDisabled reports whether selecting tag would leave no results
func IsDisabled(items []domain.Project, sel Selection, tag string) bool {
	return !sel.Has(tag) && CountWith(items, sel, tag) == 0
}

// Toggle adds tag when absent and removes it when present. Adding a
// disabled tag is refused and sel is returned unchanged.
func Toggle(items []domain.Project, sel Selection, tag string) Selection {
	if sel.Has(tag) {
		return sel.Without(tag)
	}
	if IsDisabled(items, sel, tag) {
		return sel
	}
	return sel.With(tag)
}

// Clear returns the empty selection
func Clear() Selection {
	return Selection{}
}

// Suggest returns the tags, in the order given, whose lower-cased form
// starts with term. Disabled tags are left out so a suggestion never leads
// to an empty result.
func Suggest(items []domain.Project, tags []string, sel Selection, term string) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return []string{}
	}

	f := ComputeFacets(items, tags, sel)
	disabled := make(map[string]bool, len(f.Disabled))
	for _, t := range f.Disabled {
		disabled[t] = true
	}

	out := []string{}
	for _, t := range tags {
		if strings.HasPrefix(strings.ToLower(t), term) && !disabled[t] {
			out = append(out, t)
		}
	}
	return out
}

// Build assembles the derived view. A positive limit caps Items; Total
// always reports the full filtered count.
func Build(items []domain.Project, tags []string, sel Selection, limit int) View {
	filtered := Filter(items, sel)

	v := View{
		Items:    filtered,
		Total:    len(filtered),
		Tags:     append([]string{}, tags...),
		Selected: sel.Tags(),
		Facets:   ComputeFacets(items, tags, sel),
	}
	if limit > 0 && len(v.Items) > limit {
		v.Items = v.Items[:limit]
	}
	if v.Items == nil {
		v.Items = []domain.Project{}
	}
	return v
}
