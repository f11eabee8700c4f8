package status

import (
	"testing"

	"github.com/nucleusis/soundbridge/internal/domain"
	"github.com/nucleusis/soundbridge/internal/domain/mocks"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		prev     domain.PlayerState
		raw      string
		wantNil  bool
		validate func(t *testing.T, st domain.PlayerState)
	}{
		{
			name:    "Empty Input",
			raw:     "",
			wantNil: true,
		},
		{
			name:    "Error Echo From Control Command",
			raw:     "cmus-remote: cmus is not running",
			wantNil: true,
		},
		{
			name: "Minimal Block Seeds Obligatory Fields Empty",
			raw:  "status playing",
			validate: func(t *testing.T, st domain.PlayerState) {
				if st["status"] != "playing" {
					t.Errorf("status: want 'playing', got %q", st["status"])
				}
				for _, key := range domain.ObligatoryFields {
					if key == "status" {
						continue
					}
					if got, present := st[key]; !present || got != "" {
						t.Errorf("field %q: want present and empty, got %q (present=%v)", key, got, present)
					}
				}
			},
		},
		{
			name: "Obligatory Fields Carried Forward From Previous",
			prev: domain.PlayerState{
				"status": "playing", "duration": "200", "continue": "true",
				"repeat": "false", "repeat_current": "false", "shuffle": "true",
				"vol_left": "50", "vol_right": "50", "title": "Old", "file": "/x/old.mp3",
			},
			raw: "status paused",
			validate: func(t *testing.T, st domain.PlayerState) {
				if st["status"] != "paused" {
					t.Errorf("status: want 'paused', got %q", st["status"])
				}
				if st["duration"] != "200" {
					t.Errorf("duration not carried forward: got %q", st["duration"])
				}
				if st["vol_left"] != "50" || st["vol_right"] != "50" {
					t.Errorf("volume not carried forward: got %q/%q", st["vol_left"], st["vol_right"])
				}
				if st["title"] != "" || st["file"] != "" {
					t.Errorf("track identity must not be carried forward: title=%q file=%q",
						st["title"], st["file"])
				}
			},
		},
		{
			name: "Untagged Track After Tagged One Falls Back To Basename",
			prev: domain.PlayerState{
				"status": "playing", "duration": "200", "continue": "true",
				"repeat": "false", "repeat_current": "false", "shuffle": "false",
				"vol_left": "50", "vol_right": "50", "title": "Song", "file": "/music/a.mp3",
			},
			raw: "status playing\nfile /music/b.mp3",
			validate: func(t *testing.T, st domain.PlayerState) {
				if st["title"] != "b" {
					t.Errorf("title: want basename 'b', got %q", st["title"])
				}
				if st["file"] != "/music/b.mp3" {
					t.Errorf("file: got %q", st["file"])
				}
			},
		},
		{
			name: "Tag And Set Lines Stored Under Sub-Key",
			raw:  "status playing\ntag artist Foo/Bar\ntag title Song\nset shuffle true",
			validate: func(t *testing.T, st domain.PlayerState) {
				if st["artist"] != "Foo/Bar" {
					t.Errorf("artist: want 'Foo/Bar', got %q", st["artist"])
				}
				if st["title"] != "Song" {
					t.Errorf("title: want 'Song', got %q", st["title"])
				}
				if st["shuffle"] != "true" {
					t.Errorf("shuffle: want 'true', got %q", st["shuffle"])
				}
			},
		},
		{
			name: "Later Lines Overwrite Earlier Ones",
			raw:  "status playing\nstatus paused",
			validate: func(t *testing.T, st domain.PlayerState) {
				if st["status"] != "paused" {
					t.Errorf("status: want 'paused', got %q", st["status"])
				}
			},
		},
		{
			name: "Malformed Line Is Skipped Not Fatal",
			raw:  "status playing\ngarbage\ntag title Song",
			validate: func(t *testing.T, st domain.PlayerState) {
				if st["status"] != "playing" || st["title"] != "Song" {
					t.Errorf("block not parsed around malformed line: %v", st)
				}
				if _, ok := st["garbage"]; ok {
					t.Error("malformed line must not be stored")
				}
			},
		},
		{
			name: "Tag With Value Containing Spaces",
			raw:  "tag album The Dark Side of the Moon",
			validate: func(t *testing.T, st domain.PlayerState) {
				if st["album"] != "The Dark Side of the Moon" {
					t.Errorf("album: got %q", st["album"])
				}
			},
		},
		{
			name: "Title Falls Back To File Base Name",
			raw:  "status playing\nfile /music/artist/01 - song.mp3",
			validate: func(t *testing.T, st domain.PlayerState) {
				if st["title"] != "01 - song" {
					t.Errorf("title fallback: want '01 - song', got %q", st["title"])
				}
			},
		},
		{
			name: "Title Falls Back To Raw URL For Remote Files",
			raw:  "status playing\nfile http://stream.example/radio",
			validate: func(t *testing.T, st domain.PlayerState) {
				if st["title"] != "http://stream.example/radio" {
					t.Errorf("title fallback: got %q", st["title"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(zap.NewNop(), nil)
			st := p.Parse(tt.prev, tt.raw)
			if tt.wantNil {
				if st != nil {
					t.Fatalf("expected nil state, got %v", st)
				}
				return
			}
			if st == nil {
				t.Fatal("expected state, got nil")
			}
			tt.validate(t, st)
		})
	}
}

func TestParse_CoverResolution(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		setupMock func(m *mocks.MockCoverResolver)
		wantCover string
	}{
		{
			name: "Cover Stored When Resolution Succeeds",
			raw:  "status playing\nfile /x/song.mp3",
			setupMock: func(m *mocks.MockCoverResolver) {
				m.EXPECT().Resolve("/x/song.mp3").Return("/tmp/thumb.png", true)
			},
			wantCover: "/tmp/thumb.png",
		},
		{
			name: "Cover Absent When Resolution Fails",
			raw:  "status playing\nfile /x/song.mp3",
			setupMock: func(m *mocks.MockCoverResolver) {
				m.EXPECT().Resolve("/x/song.mp3").Return("", false)
			},
			wantCover: "",
		},
		{
			name:      "No Resolution Attempt Without File",
			raw:       "status stopped",
			setupMock: func(m *mocks.MockCoverResolver) {},
			wantCover: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			resolver := mocks.NewMockCoverResolver(ctrl)
			tt.setupMock(resolver)

			p := NewParser(zap.NewNop(), resolver)
			st := p.Parse(nil, tt.raw)
			if st == nil {
				t.Fatal("expected state, got nil")
			}
			if st["cover"] != tt.wantCover {
				t.Errorf("cover: want %q, got %q", tt.wantCover, st["cover"])
			}
		})
	}
}

func TestDisplayTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		file  string
		want  string
	}{
		{"Explicit Title Wins", "Song", "/x/file.mp3", "Song"},
		{"Base Name Without Extension", "", "/x/dir/track.flac", "track"},
		{"URL Passed Through", "", "cdda://1", "cdda://1"},
		{"Both Empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayTitle(tt.title, tt.file); got != tt.want {
				t.Errorf("DisplayTitle(%q, %q) = %q, want %q", tt.title, tt.file, got, tt.want)
			}
		})
	}
}
