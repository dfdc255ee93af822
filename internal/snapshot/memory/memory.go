package memory

import (
	"context"
	"encoding/json"
	"sync"

	"gudangku/backend/internal/domain"
	"gudangku/backend/internal/snapshot"
)

// Store keeps snapshots in process memory, serialized the same way the
// durable backends serialize them. Used for tests and zero-config runs.
type Store struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func New() *Store {
	return &Store{slots: make(map[string][]byte)}
}

func (s *Store) Load(_ context.Context, key string) (*domain.AppState, error) {
	s.mu.RLock()
	payload, ok := s.slots[key]
	s.mu.RUnlock()
	if !ok {
		return nil, snapshot.ErrNotFound
	}

	state := domain.NewAppState()
	if err := json.Unmarshal(payload, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *Store) Save(_ context.Context, key string, state *domain.AppState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.slots[key] = payload
	s.mu.Unlock()
	return nil
}

// Has reports whether the slot holds a snapshot for key. Handy in tests
// asserting write-through behavior.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.slots[key]
	return ok
}
