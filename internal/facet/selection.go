package facet

import (
	"strings"

	"github.com/pbaille/portfolio/internal/catalog"
)

// Selection is an immutable set of selected tags. The zero value is the
// empty selection. With and Without return new selections and leave the
// receiver untouched.
type Selection struct {
	tags map[string]struct{}
}

// NewSelection returns a selection holding the given tags
func NewSelection(tags ...string) Selection {
	if len(tags) == 0 {
		return Selection{}
	}
	s := Selection{tags: make(map[string]struct{}, len(tags))}
	for _, t := range tags {
		s.tags[t] = struct{}{}
	}
	return s
}

// Has reports whether tag is selected
func (s Selection) Has(tag string) bool {
	_, ok := s.tags[tag]
	return ok
}

// Len returns the number of selected tags
func (s Selection) Len() int {
	return len(s.tags)
}

// Tags returns the selected tags in display order
func (s Selection) Tags() []string {
	out := make([]string, 0, len(s.tags))
	for t := range s.tags {
		out = append(out, t)
	}
	catalog.SortTags(out)
	return out
}

// With returns a copy of s with tag added
func (s Selection) With(tag string) Selection {
	next := Selection{tags: make(map[string]struct{}, len(s.tags)+1)}
	for t := range s.tags {
		next.tags[t] = struct{}{}
	}
	next.tags[tag] = struct{}{}
	return next
}

// Without returns a copy of s with tag removed
func (s Selection) Without(tag string) Selection {
	if !s.Has(tag) {
		return s
	}
	if len(s.tags) == 1 {
		return Selection{}
	}
	next := Selection{tags: make(map[string]struct{}, len(s.tags)-1)}
	for t := range s.tags {
		if t != tag {
			next.tags[t] = struct{}{}
		}
	}
	return next
}

// Equal reports whether both selections hold the same tags
func (s Selection) Equal(o Selection) bool {
	if len(s.tags) != len(o.tags) {
		return false
	}
	for t := range s.tags {
		if !o.Has(t) {
			return false
		}
	}
	return true
}

// String renders the selection as a comma separated list
func (s Selection) String() string {
	return strings.Join(s.Tags(), ",")
}
