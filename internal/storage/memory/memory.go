package memory

import (
	"context"
	"fmt"
	"sync"

	"fincontrol/internal/storage"
)

// Store keeps values in process memory. Nothing survives a restart.
type Store struct {
	mu       sync.Mutex
	maxBytes int
	values   map[string][]byte
}

// New returns an empty store. maxBytes caps the size of a single value; zero
// means unlimited.
func New(maxBytes int) *Store {
	return &Store{maxBytes: maxBytes, values: map[string][]byte{}}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if s.maxBytes > 0 && len(value) > s.maxBytes {
		return fmt.Errorf("set %q (%d bytes): %w", key, len(value), storage.ErrQuotaExceeded)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Close() error { return nil }

var _ storage.KV = (*Store)(nil)
