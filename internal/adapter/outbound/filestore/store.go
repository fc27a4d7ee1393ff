package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/podcaststudio/server/internal/port/outbound"
)

var (
	errOutsideStore = errors.New("path is outside the output directory")
	errNotRegular   = errors.New("path is not a regular file")
)

// Store implements outbound.ArtifactStorePort on a local output directory.
// Writes go through a filesystem bound to that directory.
type Store struct {
	dir  string // directory as configured, used to build returned paths
	root string // absolute directory
	fs   billy.Filesystem
}

// New creates the output directory if needed and returns a store over it.
func New(dir string) (*Store, error) {
	if dir == "" {
		dir = "output"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	return NewWithFilesystem(dir, root, osfs.New(root, osfs.WithBoundOS())), nil
}

// NewWithFilesystem returns a store writing to fs, whose root is the
// absolute directory root.
func NewWithFilesystem(dir, root string, fs billy.Filesystem) *Store {
	return &Store{dir: dir, root: root, fs: fs}
}

// Dir returns the output directory as configured.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes r to name inside the output directory.
func (s *Store) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}

	f, err := s.fs.Create(name)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	return filepath.Join(s.dir, name), nil
}

// Resolve returns the absolute path of rawPath when it names an existing
// regular file strictly inside the output directory. Relative paths are
// taken from the working directory, matching the paths Save returns.
func (s *Store) Resolve(_ context.Context, rawPath string) (string, error) {
	abs, err := filepath.Abs(rawPath)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return "", err
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errOutsideStore
	}

	info, err := s.fs.Stat(filepath.ToSlash(rel))
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", errNotRegular
	}

	return filepath.Join(s.root, rel), nil
}

var _ outbound.ArtifactStorePort = (*Store)(nil)
