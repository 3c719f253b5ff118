package store

import (
	"context"
	"fmt"
	"sync"

	"minewatch/internal/models"
)

// MemoryStore is a mutex-guarded in-process Store. It backs tests and
// runs without a configured data path.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte

	// failNext, when positive, makes that many upcoming operations
	// fail with a storage error. Used by tests to exercise the
	// StorageError propagation paths.
	failNext int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]byte),
	}
}

// Get returns a copy of the payload stored under key, or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.maybeFail("get", key); err != nil {
		return nil, err
	}

	value, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(value))
	copy(out, value)

	return out, nil
}

// Set stores a copy of the payload under key.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.maybeFail("set", key); err != nil {
		return err
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	s.entries[key] = stored

	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

// FailNext makes the next n operations fail with a storage error.
func (s *MemoryStore) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

func (s *MemoryStore) maybeFail(op, key string) error {
	if s.failNext <= 0 {
		return nil
	}

	s.failNext--

	return fmt.Errorf("%w: %s %q: injected fault", models.ErrStorage, op, key)
}
