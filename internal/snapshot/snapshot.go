package snapshot

import (
	"context"
	"errors"

	"gudangku/backend/internal/domain"
)

// ErrNotFound is returned by Load when the slot holds no snapshot yet.
var ErrNotFound = errors.New("snapshot not found")

// Store is the persistence collaborator: a durable key-value slot holding
// the entire aggregate as one serialized snapshot. Load is called once at
// startup; Save after every successful commit.
type Store interface {
	Load(ctx context.Context, key string) (*domain.AppState, error)
	Save(ctx context.Context, key string, state *domain.AppState) error
}
