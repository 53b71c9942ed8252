package blob

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// FileStore is a Store backed by a directory on the local filesystem. One
// FileStore is mounted per table, rooted at that table's blob directory.
type FileStore struct {
	root string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore rooted at dir, creating it if absent.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("epicenter/blob: create root %q: %w", dir, err)
	}
	return &FileStore{root: dir}, nil
}

func (s *FileStore) path(filename string) string {
	return filepath.Join(s.root, filename)
}

func (s *FileStore) Put(filename string, data []byte) error {
	if err := ValidateFilename(filename); err != nil {
		return err
	}
	if err := os.WriteFile(s.path(filename), data, 0o644); err != nil {
		return &Error{Filename: filename, Code: CodeWriteFailed, Cause: err}
	}
	return nil
}

func (s *FileStore) Get(filename string) ([]byte, bool, error) {
	if err := ValidateFilename(filename); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.path(filename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, &Error{Filename: filename, Code: CodeReadFailed, Cause: err}
	}
	return data, true, nil
}

func (s *FileStore) Delete(filename string) error {
	if err := ValidateFilename(filename); err != nil {
		return err
	}
	if err := os.Remove(s.path(filename)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &Error{Filename: filename, Code: CodeDeleteFailed, Cause: err}
	}
	return nil
}

func (s *FileStore) Exists(filename string) (bool, error) {
	if err := ValidateFilename(filename); err != nil {
		return false, err
	}
	_, err := os.Stat(s.path(filename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, &Error{Filename: filename, Code: CodeReadFailed, Cause: err}
	}
	return true, nil
}

// List returns every filename in the store matching a doublestar glob
// pattern (e.g. "*.png"), relative to the store root.
func (s *FileStore) List(pattern string) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("epicenter/blob: list %q: %w", s.root, err)
	}
	var matches []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := doublestar.Match(pattern, e.Name())
		if err != nil {
			return nil, fmt.Errorf("epicenter/blob: bad pattern %q: %w", pattern, err)
		}
		if ok {
			matches = append(matches, e.Name())
		}
	}
	return matches, nil
}
