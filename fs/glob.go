package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ImagePattern matches PNG and JPEG files at any depth.
const ImagePattern = "**/*.{png,jpg,jpeg,PNG,JPG,JPEG}"

var errLimit = errors.New("match limit reached")

// FindImages returns the paths of image files under root, relative to root,
// skipping hidden directories. At most limit paths are returned; a
// non-positive limit means no limit.
func FindImages(root string, limit int) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: path must be a directory", root)
	}

	var matches []string
	err = doublestar.GlobWalk(os.DirFS(root), ImagePattern, func(path string, d iofs.DirEntry) error {
		if d.IsDir() || hidden(path) {
			return nil
		}
		matches = append(matches, filepath.FromSlash(path))
		if limit > 0 && len(matches) >= limit {
			return errLimit
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimit) {
		return nil, fmt.Errorf("error matching pattern: %w", err)
	}
	return matches, nil
}

func hidden(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
