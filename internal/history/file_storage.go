package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStorage stores each key as <dir>/<key>.json.
type FileStorage struct {
	dir string
	mu  sync.Mutex
}

// NewFileStorage creates a storage rooted at dir. The directory is created
// lazily on first write.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir}
}

// DefaultDir returns ~/.local/share/palette, falling back to the working directory.
func DefaultDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "palette")
	}
	return "."
}

func (f *FileStorage) Dir() string { return f.dir }

func (f *FileStorage) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set replaces the file via a temp file and rename.
func (f *FileStorage) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir history dir: %w", err)
	}
	tmp, err := os.CreateTemp(f.dir, ".history-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return fmt.Errorf("rename history file: %w", err)
	}
	return nil
}

func (f *FileStorage) path(key string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(f.dir, name+".json")
}

var _ Storage = (*FileStorage)(nil)
