// Package storage provides the client-side key/value storage that survives
// application restarts, this client's equivalent of localStorage.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Fixed storage keys. The bearer token is always stored under TokenKey;
// the persisted session subset under SessionKey.
const (
	TokenKey   = "inkwell.auth.token"
	SessionKey = "inkwell.auth.session"
)

// Storage is a string key/value store with persistence semantics decided by
// the implementation.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// FileStorage persists values as a single JSON object on disk. Writes go
// through a temp file + rename so a crash never leaves a half-written file.
type FileStorage struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewFileStorage opens (or creates) the storage file at path.
func NewFileStorage(path string) (*FileStorage, error) {
	s := &FileStorage{
		path:   path,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run; the file appears on the first Set.
	case err != nil:
		return nil, fmt.Errorf("read storage file: %w", err)
	default:
		if err := json.Unmarshal(data, &s.values); err != nil {
			// A corrupt storage file means the session is unrecoverable
			// anyway; start over rather than refuse to boot.
			s.values = make(map[string]string)
		}
	}

	return s, nil
}

// Get returns the value stored under key.
func (s *FileStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and flushes to disk.
func (s *FileStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flushLocked()
}

// Delete removes key and flushes to disk. Deleting an absent key is a no-op.
func (s *FileStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flushLocked()
}

func (s *FileStorage) flushLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode storage file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write storage file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace storage file: %w", err)
	}
	return nil
}

// MemoryStorage is an in-memory Storage for tests.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string

	// FailWrites, when set, makes Set and Delete return an error. Lets tests
	// exercise persistence-failure paths.
	FailWrites bool
}

// NewMemoryStorage returns an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (s *MemoryStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return errors.New("storage write failed")
	}
	s.values[key] = value
	return nil
}

func (s *MemoryStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return errors.New("storage write failed")
	}
	delete(s.values, key)
	return nil
}
