package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tabletop-labs/cardengine/internal/config"
	"github.com/tabletop-labs/cardengine/internal/game/model"
)

// RedisClient is the subset of *redis.Client the store needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

// NewRedisClient connects to Redis and verifies it with PING.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	if logger != nil {
		logger.Info("redis client initialized", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}
	return client, nil
}

// RedisStore keeps each game as a JSON string under prefix+id and tracks ids
// in a set under prefix+"index".
type RedisStore struct {
	client RedisClient
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore creates a store. A zero ttl keeps games until deleted.
func NewRedisStore(client RedisClient, prefix string, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

func (s *RedisStore) indexKey() string { return s.prefix + "index" }

func (s *RedisStore) Get(ctx context.Context, id string) (*model.GameState, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load game %s: %w", id, err)
	}
	state := &model.GameState{}
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, fmt.Errorf("failed to decode game %s: %w", id, err)
	}
	return state, nil
}

func (s *RedisStore) Set(ctx context.Context, state *model.GameState) error {
	if state == nil || state.ID == "" {
		return fmt.Errorf("cannot store a game without an id")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode game %s: %w", state.ID, err)
	}
	if err := s.client.Set(ctx, s.key(state.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save game %s: %w", state.ID, err)
	}
	if err := s.client.SAdd(ctx, s.indexKey(), state.ID).Err(); err != nil {
		return fmt.Errorf("failed to index game %s: %w", state.ID, err)
	}
	s.logger.Debug("saved game", zap.String("game_id", state.ID), zap.Int("bytes", len(raw)))
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete game %s: %w", id, err)
	}
	if err := s.client.SRem(ctx, s.indexKey(), id).Err(); err != nil {
		return fmt.Errorf("failed to unindex game %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}
