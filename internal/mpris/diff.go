package mpris

import "github.com/nucleusis/soundbridge/internal/domain"

// fieldGroups is the fixed mapping from cmus status fields to the MPRIS
// property group they feed.
var fieldGroups = map[string]domain.PropertyGroup{
	"status":         domain.GroupPlaybackStatus,
	"continue":       domain.GroupLoopStatus,
	"repeat":         domain.GroupLoopStatus,
	"repeat_current": domain.GroupLoopStatus,
	"shuffle":        domain.GroupShuffle,
	"vol_left":       domain.GroupVolume,
	"vol_right":      domain.GroupVolume,
	"artist":         domain.GroupMetadata,
	"title":          domain.GroupMetadata,
	"album":          domain.GroupMetadata,
}

// Diff compares two states and returns the property groups to announce, in
// announcement order. A nil next yields nothing; a nil previous is the first
// observation, which announces the full snapshot. Comparison is string-level
// only.
func Diff(prev, next domain.PlayerState) []domain.PropertyGroup {
	if next == nil {
		return nil
	}
	if prev == nil {
		return append([]domain.PropertyGroup(nil), domain.AllPropertyGroups...)
	}

	changed := make(map[domain.PropertyGroup]bool)
	for field, group := range fieldGroups {
		value, present := next[field]
		if !present {
			continue
		}
		old, had := prev[field]
		if !had || old != value {
			changed[group] = true
		}
	}

	var groups []domain.PropertyGroup
	for _, g := range domain.AllPropertyGroups {
		if changed[g] {
			groups = append(groups, g)
		}
	}
	return groups
}
