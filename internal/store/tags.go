package store

import "strings"

// SplitTags breaks a comma-joined tag string into trimmed, non-empty tags.
func SplitTags(tags string) []string {
	var out []string
	for _, raw := range strings.Split(tags, ",") {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		out = append(out, tag)
	}
	return out
}

// MergeTags unions two comma-joined tag strings, preserving first-encounter
// order and dropping duplicates and empties.
func MergeTags(existing, incoming string) string {
	seen := make(map[string]bool)
	var merged []string
	for _, tag := range append(SplitTags(existing), SplitTags(incoming)...) {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		merged = append(merged, tag)
	}
	return strings.Join(merged, ",")
}

// tagsOverlap reports whether the two comma-joined tag sets share a tag.
func tagsOverlap(stored, wanted string) bool {
	want := make(map[string]bool)
	for _, tag := range SplitTags(wanted) {
		want[tag] = true
	}
	for _, tag := range SplitTags(stored) {
		if want[tag] {
			return true
		}
	}
	return false
}
