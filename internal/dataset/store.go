package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrKeyNotFound is matched by errors returned from Store.Get for absent keys.
var ErrKeyNotFound = fs.ErrNotExist

// Store is a flat key/value view of a Zarr hierarchy. Keys use "/" as the
// separator and are relative to the store root.
type Store interface {
	// Get returns the object stored under key. Absent keys yield an error
	// matching ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns the names directly under prefix, without the prefix and
	// without trailing separators.
	List(ctx context.Context, prefix string) ([]string, error)
	// String identifies the store root, e.g. "s3://bucket/path.zarr".
	String() string
}

type dirStore struct {
	root string
}

func newDirStore(root string) (Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	return &dirStore{root: root}, nil
}

func (s *dirStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, ErrKeyNotFound)
	}
	return data, err
}

func (s *dirStore) List(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, filepath.FromSlash(prefix)))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (s *dirStore) String() string { return s.root }

// childName reduces a listed object key to the first path element below
// prefix. It returns "" for the prefix itself.
func childName(prefix, key string) string {
	rest := strings.TrimPrefix(key, prefix)
	rest = strings.TrimPrefix(rest, "/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// joinKey joins a store prefix and key.
func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}
