package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// FileStore implements Port with one JSON file per document under a
// directory. Writes go through a temp file and rename so a crashed save
// never leaves a truncated document behind.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a file-backed store rooted at dir, creating the
// directory when missing.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create persistence dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Load returns the stored bytes for key.
func (s *FileStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", key, err)
	}
	return data, nil
}

// Save stores data under key atomically.
func (s *FileStore) Save(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		return fmt.Errorf("write document %s: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("commit document %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
