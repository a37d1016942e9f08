package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/halolight/halolight/pkg/sdk"
)

// ErrCorruptState is returned by Get when the state file cannot be parsed.
var ErrCorruptState = errors.New("corrupt state file")

// FileStore implements sdk.KeyValueStore using a single JSON object file.
// Every write rewrites the whole file through a temp file + rename so a
// crash never leaves a half-written state file behind.
//
// A file that cannot be parsed only fails reads. The next write moves it
// aside to <path>.corrupt and starts over from an empty state.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// Ensure FileStore implements sdk.KeyValueStore at compile time.
var _ sdk.KeyValueStore = (*FileStore)(nil)

// NewFileStore creates a FileStore at path, creating the parent directory
// with 0700 permissions. The file itself is created on first write.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the value stored under key.
func (s *FileStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := data[key]
	if !ok {
		return "", sdk.ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.loadForWrite()
	if err != nil {
		return err
	}
	data[key] = value
	return s.save(data)
}

// Delete removes key. Deleting an absent key does not touch the file.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.loadForWrite()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return s.save(data)
}

func (s *FileStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	data := map[string]string{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrCorruptState, s.path, err)
	}
	return data, nil
}

// loadForWrite is load, except that a corrupt file is renamed to
// <path>.corrupt and replaced by an empty state.
func (s *FileStore) loadForWrite() (map[string]string, error) {
	data, err := s.load()
	if !errors.Is(err, ErrCorruptState) {
		return data, err
	}
	if err := os.Rename(s.path, s.path+".corrupt"); err != nil {
		return nil, fmt.Errorf("failed to move aside corrupt state file: %w", err)
	}
	return map[string]string{}, nil
}

func (s *FileStore) save(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s: %w", tmpPath, err)
	}
	return nil
}
