package domain

// PlayerState is one structured snapshot of the cmus status, a mapping from
// cmus status-field name to its textual value. Instances are immutable once
// built: a refresh produces a new state that supersedes the previous one.
type PlayerState map[string]string

// ObligatoryFields are always present in a published state. When a status
// block omits one, its value is carried forward from the previous state so a
// transition never silently loses a known field.
var ObligatoryFields = []string{
	"status",
	"duration",
	"continue",
	"repeat",
	"repeat_current",
	"shuffle",
	"vol_left",
	"vol_right",
	"title",
	"file",
}

// Has reports whether the field is present with a non-empty value.
func (s PlayerState) Has(key string) bool {
	return s != nil && s[key] != ""
}

// PropertyGroup is one of the five coarse-grained MPRIS property categories
// that are recomputed together whenever any of their underlying status
// fields change. The string value is the MPRIS property name.
type PropertyGroup string

const (
	GroupPlaybackStatus PropertyGroup = "PlaybackStatus"
	GroupLoopStatus     PropertyGroup = "LoopStatus"
	GroupShuffle        PropertyGroup = "Shuffle"
	GroupMetadata       PropertyGroup = "Metadata"
	GroupVolume         PropertyGroup = "Volume"
)

// AllPropertyGroups lists every group in announcement order.
var AllPropertyGroups = []PropertyGroup{
	GroupPlaybackStatus,
	GroupLoopStatus,
	GroupShuffle,
	GroupMetadata,
	GroupVolume,
}
