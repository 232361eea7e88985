package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrWrite = errors.New("failed to write catalog")

// Store loads and saves the raw catalog bytes
type Store interface {
	Read() ([]byte, error)
	Write(data []byte) error
}

// FileStore keeps the catalog in a file on disk
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Read() ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", s.Path, err)
	}
	return data, nil
}

// Write replaces the file atomically: the data goes to a temporary file in
// the same directory which is then renamed over the target.
func (s *FileStore) Write(data []byte) error {
	perm := os.FileMode(0644)
	if info, err := os.Stat(s.Path); err == nil {
		perm = info.Mode().Perm()
	}

	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// MemStore is an in-memory Store
type MemStore struct {
	Data     []byte
	Writes   int
	WriteErr error
}

func (s *MemStore) Read() ([]byte, error) {
	if s.Data == nil {
		return nil, fmt.Errorf("failed to read catalog: %w", os.ErrNotExist)
	}
	return s.Data, nil
}

func (s *MemStore) Write(data []byte) error {
	if s.WriteErr != nil {
		return fmt.Errorf("%w: %w", ErrWrite, s.WriteErr)
	}
	s.Writes++
	s.Data = append([]byte(nil), data...)
	return nil
}
