package journal

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/emogo/emogo/app/database"
)

// ResolveVideoPath maps a video URI to a cleaned absolute path that must sit
// inside mediaDir. Relative URIs are taken relative to mediaDir. Paths that
// leave the directory, lexically or through a symlink, fail with
// database.ErrInvalidEntry.
func ResolveVideoPath(mediaDir, videoURI string) (string, error) {
	if videoURI == "" {
		return "", fmt.Errorf("%w: video URI is required", database.ErrInvalidEntry)
	}

	root, err := filepath.Abs(mediaDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve media directory: %w", err)
	}

	path := strings.TrimPrefix(videoURI, "file://")
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	path = filepath.Clean(path)

	if !within(root, path) {
		return "", fmt.Errorf("%w: video %q is outside the media directory", database.ErrInvalidEntry, videoURI)
	}

	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		realRoot, rootErr := filepath.EvalSymlinks(root)
		if rootErr != nil || !within(realRoot, resolved) {
			return "", fmt.Errorf("%w: video %q is outside the media directory", database.ErrInvalidEntry, videoURI)
		}
	}

	return path, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
