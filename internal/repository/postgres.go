package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tabletop-labs/cardengine/internal/config"
	"github.com/tabletop-labs/cardengine/internal/game/model"
)

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	schemaSQL = `CREATE TABLE IF NOT EXISTS game_states (
	id         TEXT PRIMARY KEY,
	game_type  TEXT NOT NULL,
	status     TEXT NOT NULL,
	state      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

	upsertSQL = `INSERT INTO game_states (id, game_type, status, state, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (id) DO UPDATE
SET game_type = EXCLUDED.game_type, status = EXCLUDED.status, state = EXCLUDED.state, updated_at = now()`

	selectSQL = `SELECT state FROM game_states WHERE id = $1`
	deleteSQL = `DELETE FROM game_states WHERE id = $1`
	listSQL   = `SELECT COALESCE(array_agg(id ORDER BY id), '{}') FROM game_states`
)

// NewDB creates a PostgreSQL connection pool and verifies connectivity.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	connectCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if logger != nil {
		logger.Info("database connection pool initialized",
			zap.Int32("max_conns", poolCfg.MaxConns),
			zap.Int32("min_conns", poolCfg.MinConns),
		)
	}
	return pool, nil
}

// PostgresStore persists games as JSONB rows.
type PostgresStore struct {
	db     DB
	logger *zap.Logger
}

// NewPostgresStore wraps a pool or any DB implementation.
func NewPostgresStore(db DB, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{db: db, logger: logger}
}

// EnsureSchema creates the game_states table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create game_states table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*model.GameState, error) {
	var raw []byte
	if err := s.db.QueryRow(ctx, selectSQL, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

func (s *PostgresStore) Set(ctx context.Context, state *model.GameState) error {
	if state == nil || state.ID == "" {
		return fmt.Errorf("cannot store a game without an id")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode game %s: %w", state.ID, err)
	}
	if _, err := s.db.Exec(ctx, upsertSQL, state.ID, string(state.GameType), string(state.GameStatus), raw); err != nil {
		return fmt.Errorf("failed to save game %s: %w", state.ID, err)
	}
	s.logger.Debug("saved game", zap.String("game_id", state.ID), zap.Int("bytes", len(raw)))
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, deleteSQL, id)
	if err != nil {
		return fmt.Errorf("failed to delete game %s: %w", id, err)
	}
	s.logger.Debug("deleted game", zap.String("game_id", id), zap.Int64("rows", tag.RowsAffected()))
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.QueryRow(ctx, listSQL).Scan(&ids); err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return ids, nil
}
