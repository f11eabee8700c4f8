package mpris

import (
	"encoding/base32"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/nucleusis/soundbridge/internal/domain"
)

const (
	// trackIDPrefix is the object-path namespace for track identifiers.
	trackIDPrefix = "/com/cmus/track/"

	// noTrackPath is the MPRIS sentinel for "no current track".
	noTrackPath = "/org/mpris/MediaPlayer2/TrackList/NoTrack"
)

// The adapter publishes and consumes one consistent milliseconds-denominated
// time scale: mpris:length and Position are seconds*timeScale, and inbound
// Seek/SetPosition offsets are divided by timeScale before being issued as
// seconds to the player.
const timeScale = 1000

// PlaybackStatus maps the cmus status field onto the MPRIS enum. Unknown or
// missing values read as Stopped.
func PlaybackStatus(st domain.PlayerState) string {
	switch st["status"] {
	case "playing":
		return "Playing"
	case "paused":
		return "Paused"
	default:
		return "Stopped"
	}
}

// LoopStatus maps the continue/repeat/repeat_current triple onto the MPRIS
// enum. An unknown state reads as the empty string, distinct from "None".
func LoopStatus(st domain.PlayerState) string {
	if st == nil {
		return ""
	}
	switch st["continue"] {
	case "false":
		return "None"
	case "true":
		if st["repeat_current"] == "true" {
			return "Track"
		}
		if st["repeat"] == "true" {
			return "Playlist"
		}
		return "None"
	}
	return ""
}

// Shuffle reads the textual truth value of the shuffle field. cmus reports
// an explicit true/false, so presence alone is not a signal.
func Shuffle(st domain.PlayerState) bool {
	return st["shuffle"] == "true"
}

// Volume averages the two channels onto the MPRIS [0.0, 1.0] scale. Either
// channel missing reads as 0.0.
func Volume(st domain.PlayerState) float64 {
	if !st.Has("vol_left") || !st.Has("vol_right") {
		return 0.0
	}
	left, err := strconv.Atoi(st["vol_left"])
	if err != nil {
		return 0.0
	}
	right, err := strconv.Atoi(st["vol_right"])
	if err != nil {
		return 0.0
	}
	return float64(left+right) / 200.0
}

// Position returns the elapsed time on the published time scale, and whether
// the field was present at all so the caller can re-query the player.
func Position(st domain.PlayerState) (int64, bool) {
	if !st.Has("position") {
		return 0, false
	}
	sec, err := strconv.ParseInt(st["position"], 10, 64)
	if err != nil {
		return 0, false
	}
	return sec * timeScale, true
}

// TrackID derives a stable object path from the file path. The base-32
// alphabet is object-path safe once the padding character is replaced; equal
// paths always produce equal ids.
func TrackID(path string) dbus.ObjectPath {
	if path == "" {
		return dbus.ObjectPath(noTrackPath)
	}
	enc := base32.StdEncoding.EncodeToString([]byte(path))
	enc = strings.ReplaceAll(enc, "=", "_")
	return dbus.ObjectPath(trackIDPrefix + enc)
}

// Metadata assembles the xesam/mpris metadata map from a state. Nil state
// yields nil.
func Metadata(st domain.PlayerState) map[string]dbus.Variant {
	if st == nil {
		return nil
	}
	md := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(TrackID(st["file"])),
	}
	if st.Has("duration") {
		if sec, err := strconv.ParseInt(st["duration"], 10, 64); err == nil {
			md["mpris:length"] = dbus.MakeVariant(sec * timeScale)
		}
	}
	if st.Has("cover") {
		md["mpris:artUrl"] = dbus.MakeVariant(fileURL(st["cover"]))
	}
	if st.Has("album") {
		md["xesam:album"] = dbus.MakeVariant(st["album"])
	}
	if st.Has("albumartist") {
		md["xesam:albumArtist"] = dbus.MakeVariant(strings.Split(st["albumartist"], "/"))
	}
	if st.Has("artist") {
		md["xesam:artist"] = dbus.MakeVariant(strings.Split(st["artist"], "/"))
	}
	if st.Has("comment") {
		md["xesam:comment"] = dbus.MakeVariant(strings.Split(st["comment"], "\n"))
	}
	if st.Has("composer") {
		md["xesam:composer"] = dbus.MakeVariant(strings.Split(st["composer"], "/"))
	}
	if st.Has("date") {
		md["xesam:contentCreated"] = dbus.MakeVariant(st["date"])
	}
	if st.Has("discnumber") {
		if n, err := strconv.Atoi(st["discnumber"]); err == nil {
			md["xesam:discNumber"] = dbus.MakeVariant(int32(n))
		}
	}
	if st.Has("genre") {
		md["xesam:genre"] = dbus.MakeVariant(strings.Split(st["genre"], "/"))
	}
	if st.Has("title") {
		md["xesam:title"] = dbus.MakeVariant(st["title"])
	}
	if st.Has("tracknumber") {
		if n, err := strconv.Atoi(st["tracknumber"]); err == nil {
			md["xesam:trackNumber"] = dbus.MakeVariant(int32(n))
		}
	}
	if st.Has("file") {
		md["xesam:url"] = dbus.MakeVariant(fileURL(st["file"]))
	}
	return md
}

// GroupValue recomputes the MPRIS value of one property group from a state.
func GroupValue(group domain.PropertyGroup, st domain.PlayerState) dbus.Variant {
	switch group {
	case domain.GroupPlaybackStatus:
		return dbus.MakeVariant(PlaybackStatus(st))
	case domain.GroupLoopStatus:
		return dbus.MakeVariant(LoopStatus(st))
	case domain.GroupShuffle:
		return dbus.MakeVariant(Shuffle(st))
	case domain.GroupMetadata:
		return dbus.MakeVariant(Metadata(st))
	case domain.GroupVolume:
		return dbus.MakeVariant(Volume(st))
	}
	return dbus.Variant{}
}

// fileURL turns a local path into a file URI; values that already carry a
// scheme pass through unchanged.
func fileURL(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return "file://" + path
}
