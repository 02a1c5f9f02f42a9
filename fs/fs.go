// Package fs reads images from disk, finds image files for completion, and
// saves uploads as versioned artifacts.
package fs

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/glimpse"
)

// DefaultMaxImageBytes is the upload limit used when none is configured.
const DefaultMaxImageBytes = 20 << 20

// LoadImage reads the file at path and declares its MIME type from the file
// extension. Files larger than maxBytes fail with [glimpse.ErrValidation];
// a non-positive maxBytes means [DefaultMaxImageBytes].
func LoadImage(path string, maxBytes int64) (glimpse.Image, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	mimeType := MimeTypeByExt(path)
	if _, err := glimpse.NormalizeMimeType(mimeType); err != nil {
		return glimpse.Image{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return glimpse.Image{}, fmt.Errorf("stat image: %w", err)
	}
	if info.IsDir() {
		return glimpse.Image{}, fmt.Errorf("%s is a directory: %w", path, glimpse.ErrValidation)
	}
	if info.Size() > maxBytes {
		return glimpse.Image{}, fmt.Errorf("%s is %d bytes, limit is %d: %w", filepath.Base(path), info.Size(), maxBytes, glimpse.ErrValidation)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return glimpse.Image{}, fmt.Errorf("read image: %w", err)
	}
	return glimpse.NewImage(filepath.Base(path), data, mimeType)
}

// MimeTypeByExt returns the MIME type registered for path's extension, or
// the empty string.
func MimeTypeByExt(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension(ext)
}
