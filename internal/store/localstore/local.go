// Package localstore implements the blob store on a local directory (the
// on-disk gallery folder). The revision token is the sha256 of the current
// file content; writes go through a temp file and rename so a reader never
// sees a partially written document.
package localstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pgagates/gatesite/internal/store"
)

// Store implements store.Store on a directory root. The mutex serializes
// the compare-and-swap in Put within this process; cross-process writers
// are not supported by this backend.
type Store struct {
	root string
	mu   sync.Mutex
}

// New creates a local store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &Store{root: dir}, nil
}

// Get reads the file at path and returns it with its content revision.
func (s *Store) Get(_ context.Context, path string) (store.Object, error) {
	raw, err := os.ReadFile(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return store.Object{}, store.ErrNotFound
		}
		return store.Object{}, fmt.Errorf("read %s: %w", path, err)
	}
	return store.Object{Content: raw, Revision: revisionOf(raw)}, nil
}

// Put writes content at path after checking the expected revision against
// the current file content. An empty expectedRevision requires the file to
// be absent.
func (s *Store) Put(_ context.Context, path string, content []byte, expectedRevision string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.resolve(path)
	current, err := os.ReadFile(target)
	switch {
	case err == nil:
		if revisionOf(current) != expectedRevision {
			return "", fmt.Errorf("%w: %s", store.ErrRevisionMismatch, path)
		}
	case os.IsNotExist(err):
		if expectedRevision != "" {
			return "", fmt.Errorf("%w: %s was deleted", store.ErrRevisionMismatch, path)
		}
	default:
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create parent dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".put-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("replace %s: %w", path, err)
	}
	return revisionOf(content), nil
}

// List walks the directory under prefix and returns slash-separated paths.
func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	rootDir := s.resolve(prefix)
	var paths []string
	err := filepath.WalkDir(rootDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	return paths, nil
}

func (s *Store) resolve(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

func revisionOf(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
