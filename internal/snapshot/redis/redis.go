package redis

import (
	"context"
	"encoding/json"

	redis "github.com/redis/go-redis/v9"

	"gudangku/backend/internal/domain"
	"gudangku/backend/internal/snapshot"
)

// Store keeps the snapshot under a single redis key with no expiry; the
// slot is durable state, not a cache.
type Store struct {
	client *redis.Client
}

func New(addr string, password string, db int) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &Store{client: client}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Load(ctx context.Context, key string) (*domain.AppState, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, snapshot.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	state := domain.NewAppState()
	if err := json.Unmarshal([]byte(val), state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *Store) Save(ctx context.Context, key string, state *domain.AppState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, payload, 0).Err()
}
