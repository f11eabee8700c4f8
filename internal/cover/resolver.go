package cover

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhowden/tag"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const (
	// thumbSize is the edge of the square thumbnail handed to sound menus
	// and notifications.
	thumbSize = 128

	// queuePrefix is the cue-sheet path convention: cmus reports cue tracks
	// as cue://<path>/..., which resolves to files under <path>.
	queuePrefix = "cue://"
)

// coverKeywords are tried in priority order when a directory holds more than
// one image file.
var coverKeywords = []string{"cover", "front", "bground", "folder", "albumart"}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Resolver finds artwork for a track and produces a small thumbnail. One
// temporary file is reused for the whole process lifetime; each new cover
// overwrites it. Every failure along the way degrades to "no cover".
type Resolver struct {
	logger *zap.Logger
	thumb  string
}

// NewResolver creates a resolver and its reusable thumbnail file.
func NewResolver(logger *zap.Logger) (*Resolver, error) {
	f, err := os.CreateTemp("", "soundbridge-cover-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create thumbnail file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close thumbnail file: %w", err)
	}
	logger.Debug("Thumbnail file created", zap.String("path", f.Name()))
	return &Resolver{logger: logger, thumb: f.Name()}, nil
}

// Resolve returns the thumbnail path for the track at path, or ok=false when
// no artwork was found. The embedded picture tag wins over directory files.
func (r *Resolver) Resolve(path string) (string, bool) {
	data := r.embedded(path)
	if data == nil {
		coverPath, found := r.directoryCover(path)
		if !found {
			return "", false
		}
		var err error
		data, err = os.ReadFile(coverPath)
		if err != nil {
			r.logger.Debug("Cannot read cover file",
				zap.String("path", coverPath), zap.Error(err))
			return "", false
		}
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		r.logger.Debug("Cannot decode cover image", zap.Error(err))
		return "", false
	}
	thumb := imaging.Resize(img, thumbSize, thumbSize, imaging.Lanczos)
	if err := imaging.Save(thumb, r.thumb); err != nil {
		r.logger.Debug("Cannot write thumbnail", zap.Error(err))
		return "", false
	}
	return r.thumb, true
}

// Close removes the reusable thumbnail file.
func (r *Resolver) Close() error {
	if err := os.Remove(r.thumb); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove thumbnail file: %w", err)
	}
	return nil
}

// embedded extracts the picture tag from the audio file, if any. The tag
// library normalizes the container-specific picture keys (APIC and friends),
// so a single lookup covers the naming variance.
func (r *Resolver) embedded(path string) []byte {
	f, err := os.Open(path)
	if err != nil {
		r.logger.Debug("Audio file not readable for tag extraction",
			zap.String("path", path), zap.Error(err))
		return nil
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		r.logger.Debug("Audio file has no readable tags",
			zap.String("path", path), zap.Error(err))
		return nil
	}
	pic := meta.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return nil
	}
	r.logger.Debug("Found embedded cover image", zap.String("path", path))
	return pic.Data
}

// directoryCover searches the track's directory for an image file. A lone
// image is accepted unconditionally; with several candidates the keyword
// priority list decides.
func (r *Resolver) directoryCover(path string) (string, bool) {
	if strings.Contains(path, "://") {
		if !strings.HasPrefix(path, queuePrefix) {
			// Remote files have no local directory to search.
			return "", false
		}
		// Cue tracks are reported as cue://<sheet>/<number>; drop the
		// track number so the sheet's directory gets searched.
		path = filepath.Dir(strings.TrimPrefix(path, queuePrefix))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	dir := filepath.Dir(abs)

	entries, err := os.ReadDir(dir)
	if err != nil {
		r.logger.Debug("Cannot list track directory",
			zap.String("dir", dir), zap.Error(err))
		return "", false
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			images = append(images, e.Name())
		}
	}
	sort.Strings(images)

	if len(images) == 1 {
		return filepath.Join(dir, images[0]), true
	}

	for _, keyword := range coverKeywords {
		for _, name := range images {
			if strings.HasPrefix(strings.ToLower(name), keyword) {
				return filepath.Join(dir, name), true
			}
		}
	}
	return "", false
}
