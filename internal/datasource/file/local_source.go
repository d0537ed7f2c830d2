// Package file implements a local filesystem-backed data source.
//
// It stands in for an object store during development: a Location resolves
// to Root/Bucket/Key on disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"movieetl/internal/datasource"
	"movieetl/internal/etlerr"
)

func init() {
	datasource.Register("file", func(_ context.Context, cfg datasource.Config) (datasource.ObjectStore, error) {
		return NewStore(cfg.Root), nil
	})
}

// Local is a filesystem data source that opens one file from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open opens the configured path for reading.
//
// A context that is already done short-circuits without touching the
// filesystem. Filesystem errors are wrapped with the path and still match
// errors.Is(err, os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	return f, nil
}

// Store serves Locations from a directory tree.
type Store struct{ root string }

// NewStore returns a Store rooted at root. An empty root means the working
// directory.
func NewStore(root string) *Store { return &Store{root: root} }

// Path returns the file a Location resolves to.
func (s *Store) Path(loc datasource.Location) (string, error) {
	key := filepath.FromSlash(loc.Key)
	if loc.Key == "" || filepath.IsAbs(key) || strings.HasPrefix(filepath.Clean(key), "..") {
		return "", fmt.Errorf("file: invalid key %q", loc.Key)
	}
	return filepath.Join(s.root, loc.Bucket, key), nil
}

// Stat implements datasource.ObjectStore.
func (s *Store) Stat(ctx context.Context, loc datasource.Location) (datasource.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return datasource.ObjectInfo{}, err
	}
	p, err := s.Path(loc)
	if err != nil {
		return datasource.ObjectInfo{}, err
	}
	fi, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return datasource.ObjectInfo{}, fmt.Errorf("stat %s: %w", p, etlerr.ErrNotFound)
	}
	if err != nil {
		return datasource.ObjectInfo{}, fmt.Errorf("stat %s: %w", p, err)
	}
	if fi.IsDir() {
		return datasource.ObjectInfo{}, fmt.Errorf("stat %s: is a directory: %w", p, etlerr.ErrNotFound)
	}
	return datasource.ObjectInfo{Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

// Fetch implements datasource.ObjectStore.
func (s *Store) Fetch(ctx context.Context, loc datasource.Location) (io.ReadCloser, error) {
	p, err := s.Path(loc)
	if err != nil {
		return nil, err
	}
	rc, err := NewLocal(p).Open(ctx)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", etlerr.ErrNotFound, err)
	}
	return rc, err
}
