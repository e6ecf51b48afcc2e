package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/tabletop-labs/cardengine/internal/config"
	"github.com/tabletop-labs/cardengine/internal/game/model"
)

// ErrNotFound is returned when a game id is not stored.
var ErrNotFound = errors.New("game not found")

// GameStore persists live games by id. Implementations store and return
// independent copies.
type GameStore interface {
	Get(ctx context.Context, id string) (*model.GameState, error)
	Set(ctx context.Context, state *model.GameState) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}

// MemoryStore keeps games in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	games map[string]*model.GameState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[string]*model.GameState)}
}

// Get returns a copy of the game, or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, id string) (*model.GameState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return state.Clone(), nil
}

// Set stores a copy of state under its id, replacing any previous entry.
func (s *MemoryStore) Set(ctx context.Context, state *model.GameState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if state == nil || state.ID == "" {
		return fmt.Errorf("cannot store a game without an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[state.ID] = state.Clone()
	return nil
}

// Delete removes the game. Unknown ids are not an error.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
	return nil
}

// List returns the stored game ids in sorted order.
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Open builds the store selected by cfg.Driver. The returned close function
// releases any connections and is never nil.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (GameStore, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Driver {
	case "", "memory":
		logger.Info("using in-memory game store")
		return NewMemoryStore(), func() {}, nil

	case "postgres":
		pool, err := NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		store := NewPostgresStore(pool, logger)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	case "redis":
		client, err := NewRedisClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		store := NewRedisStore(client, cfg.Redis.Prefix, cfg.Redis.TTL, logger)
		return store, func() { _ = client.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
