package status

import (
	"path/filepath"
	"strings"

	"github.com/nucleusis/soundbridge/internal/domain"
	"go.uber.org/zap"
)

// errEchoPrefix marks status text that is actually an error message from the
// control command echoing its own usage, not a status block.
const errEchoPrefix = "cmus-remote"

// Parser turns one raw status block from cmus into a structured PlayerState.
//
// A block is newline-separated lines of the form `key value`, `tag key value`
// or `set key value`, as emitted by `cmus-remote -Q` and as passed to the
// status_display_program.
type Parser struct {
	logger *zap.Logger
	covers domain.CoverResolver // nil when cover art is disabled
}

// NewParser creates a parser. covers may be nil to skip cover resolution.
func NewParser(logger *zap.Logger, covers domain.CoverResolver) *Parser {
	return &Parser{logger: logger, covers: covers}
}

// Parse builds the next PlayerState from raw, seeding obligatory fields from
// prev so a partial block never drops a previously known field. It returns
// nil when raw is empty or is an error echo, meaning "no usable status".
func (p *Parser) Parse(prev domain.PlayerState, raw string) domain.PlayerState {
	if raw == "" || strings.HasPrefix(raw, errEchoPrefix) {
		p.logger.Debug("discarding unusable status text")
		return nil
	}

	next := make(domain.PlayerState, len(domain.ObligatoryFields)+8)
	for _, key := range domain.ObligatoryFields {
		switch key {
		case "title", "file":
			// The track identity is never carried forward: an untagged
			// track after a tagged one must fall back to its basename,
			// not inherit the old title.
			next[key] = ""
		default:
			if prev != nil {
				next[key] = prev[key]
			} else {
				next[key] = ""
			}
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		if line == "" {
			continue
		}
		key, rest, ok := strings.Cut(line, " ")
		if !ok {
			// Player output is trusted but not infallible; a line
			// without a separator is skipped, not fatal.
			p.logger.Debug("skipping malformed status line", zap.String("line", line))
			continue
		}
		if key == "tag" || key == "set" {
			sub, value, ok := strings.Cut(rest, " ")
			if !ok {
				p.logger.Debug("skipping malformed status line", zap.String("line", line))
				continue
			}
			next[sub] = value
		} else {
			next[key] = rest
		}
	}

	next["title"] = DisplayTitle(next["title"], next["file"])

	if p.covers != nil && next["file"] != "" {
		if thumb, ok := p.covers.Resolve(next["file"]); ok {
			next["cover"] = thumb
		}
	}

	return next
}

// DisplayTitle resolves the title shown to the user: the explicit title when
// present, the raw value for remote URLs, otherwise the file's base name
// with the extension stripped.
func DisplayTitle(title, file string) string {
	if title != "" {
		return title
	}
	if file == "" {
		return ""
	}
	if strings.Contains(file, "://") {
		return file
	}
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
