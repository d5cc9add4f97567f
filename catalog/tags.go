package catalog

import "strings"

// Tag is a descriptive car tag, also used as a rival wishlist entry.
type Tag string

const (
	TagJDM      Tag = "JDM"
	TagEuropean Tag = "European"
	TagExotic   Tag = "Exotic"
	TagClassic  Tag = "Classic"
	TagMuscle   Tag = "Muscle"
	TagSports   Tag = "Sports"
	TagTurbo    Tag = "Turbo"
	TagLuxury   Tag = "Luxury"
	TagRare     Tag = "Rare"
	TagOffroad  Tag = "Offroad"
	TagBarnFind Tag = "Barn Find"
)

// NormalizeTags trims and deduplicates tags, keeping first-seen order.
// Matching is case-insensitive; the first spelling wins.
func NormalizeTags(tags []Tag) []Tag {
	if len(tags) == 0 {
		return []Tag{}
	}
	out := make([]Tag, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		trimmed := Tag(strings.TrimSpace(string(t)))
		if trimmed == "" {
			continue
		}
		key := tagKey(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

// UnionTags returns base followed by any extra tags it lacks.
func UnionTags(base []Tag, extra []Tag) []Tag {
	merged := make([]Tag, 0, len(base)+len(extra))
	merged = append(merged, base...)
	merged = append(merged, extra...)
	return NormalizeTags(merged)
}

// CountShared counts distinct tags present in both lists.
func CountShared(a []Tag, b []Tag) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	want := make(map[string]struct{}, len(b))
	for _, t := range b {
		want[tagKey(t)] = struct{}{}
	}
	n := 0
	seen := make(map[string]struct{}, len(a))
	for _, t := range a {
		key := tagKey(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := want[key]; ok {
			n++
		}
	}
	return n
}

func containsTag(tags []Tag, target Tag) bool {
	key := tagKey(target)
	for _, t := range tags {
		if tagKey(t) == key {
			return true
		}
	}
	return false
}

func tagKey(t Tag) string {
	return strings.ToLower(strings.TrimSpace(string(t)))
}
