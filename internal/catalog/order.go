package catalog

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortTags orders tags for display: case-insensitive, with embedded
// numbers compared by value ("Vue2" before "Vue10"). Tags equal under
// that ordering fall back to byte order so the result is deterministic.
func SortTags(tags []string) {
	// A Collator keeps internal buffers and must not be shared.
	col := collate.New(language.Und, collate.IgnoreCase, collate.Numeric)
	sort.SliceStable(tags, func(i, j int) bool {
		if c := col.CompareString(tags[i], tags[j]); c != 0 {
			return c < 0
		}
		return tags[i] < tags[j]
	})
}
