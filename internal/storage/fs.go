package storage

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// FSStore is a filesystem-backed ObjectStore, used for local development and
// tests. It accepts any afero.Fs, so tests can run on an in-memory
// filesystem.
type FSStore struct {
	fs   afero.Fs
	root string
}

// NewFSStore creates a store rooted at the given directory.
func NewFSStore(fs afero.Fs, root string) *FSStore {
	return &FSStore{fs: fs, root: root}
}

func (s *FSStore) abs(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Put writes data, creating parent directories as needed. Existing content
// is overwritten.
func (s *FSStore) Put(_ context.Context, key string, data []byte) error {
	full := s.abs(key)
	if err := s.fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return storageErr("put", key, err)
	}
	if err := afero.WriteFile(s.fs, full, data, 0o644); err != nil {
		return storageErr("put", key, err)
	}
	return nil
}

func (s *FSStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.abs(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get", key, err)
	}
	return data, nil
}

func (s *FSStore) Exists(_ context.Context, key string) (bool, error) {
	ok, err := afero.Exists(s.fs, s.abs(key))
	if err != nil {
		return false, storageErr("exists", key, err)
	}
	return ok, nil
}

// List returns the keys of all regular files under prefix, slash-separated
// and relative to the store root.
func (s *FSStore) List(_ context.Context, prefix string) ([]string, error) {
	base := s.abs(prefix)
	keys := []string{}

	err := afero.Walk(s.fs, base, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		keys = append(keys, path.Clean(filepath.ToSlash(rel)))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, storageErr("list", prefix, err)
	}

	// Walk only matches whole path segments under base; a prefix like
	// "site/pages/" must also hold when the caller passes it with no
	// trailing separator semantics.
	filtered := keys[:0]
	for _, k := range keys {
		if strings.HasPrefix(k, strings.TrimSuffix(prefix, "/")+"/") || k == prefix {
			filtered = append(filtered, k)
		}
	}
	return filtered, nil
}

func (s *FSStore) Delete(_ context.Context, key string) error {
	if err := s.fs.Remove(s.abs(key)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return storageErr("delete", key, err)
	}
	return nil
}

func (s *FSStore) LastModified(_ context.Context, key string) (time.Time, error) {
	info, err := s.fs.Stat(s.abs(key))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, storageErr("stat", key, err)
	}
	return info.ModTime(), nil
}
