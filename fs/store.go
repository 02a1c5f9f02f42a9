package fs

import (
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/glimpse"
)

const artifactPrefix = "uploaded_image_"

// Artifact is one saved upload.
type Artifact struct {
	Version int
	Path    string
}

// Store saves uploaded images into a directory as uploaded_image_<N>.<ext>.
// Each save takes the next version number; files are never overwritten.
type Store struct {
	dir   string
	mu    sync.Mutex
	write func(w io.Writer, data []byte) error
}

// NewStore creates the directory if needed and returns a Store for it.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact directory is empty: %w", glimpse.ErrValidation)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &Store{dir: dir, write: writeAll}, nil
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string { return s.dir }

// Save writes img as the next version and returns the artifact.
func (s *Store) Save(img glimpse.Image) (Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.list()
	if err != nil {
		return Artifact{}, err
	}
	version := 1
	if n := len(existing); n > 0 {
		version = existing[n-1].Version + 1
	}

	name := fmt.Sprintf("%s%d.%s", artifactPrefix, version, img.Ext())
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Artifact{}, fmt.Errorf("create artifact: %w", err)
	}
	if err := s.write(f, img.Data); err != nil {
		f.Close()
		os.Remove(path)
		return Artifact{}, fmt.Errorf("write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return Artifact{}, fmt.Errorf("close artifact: %w", err)
	}
	return Artifact{Version: version, Path: path}, nil
}

func writeAll(w io.Writer, data []byte) error {
	_, err := w.Write(data)
	return err
}

// List returns the saved artifacts ordered by version.
func (s *Store) List() ([]Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list()
}

func (s *Store) list() ([]Artifact, error) {
	var out []Artifact
	err := doublestar.GlobWalk(os.DirFS(s.dir), artifactPrefix+"*.{png,jpg}", func(path string, d iofs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		v, ok := parseVersion(path)
		if !ok {
			return nil
		}
		out = append(out, Artifact{Version: v, Path: filepath.Join(s.dir, filepath.FromSlash(path))})
		return nil
	})
	if err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func parseVersion(name string) (int, bool) {
	stem := strings.TrimSuffix(strings.TrimPrefix(name, artifactPrefix), filepath.Ext(name))
	v, err := strconv.Atoi(stem)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
