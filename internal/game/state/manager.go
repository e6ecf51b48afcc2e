package state

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/tabletop-labs/cardengine/internal/game/model"
)

const (
	// DefaultMaxHistory is the number of snapshots kept per game.
	DefaultMaxHistory = 100
	// DefaultOptimizeKeep is the number of history events OptimizeState keeps.
	DefaultOptimizeKeep = 50
)

// Options tunes the manager's history policies.
type Options struct {
	MaxHistory   int
	OptimizeKeep int
}

func (o Options) withDefaults() Options {
	if o.MaxHistory <= 0 {
		o.MaxHistory = DefaultMaxHistory
	}
	if o.OptimizeKeep <= 0 {
		o.OptimizeKeep = DefaultOptimizeKeep
	}
	return o
}

// Manager keeps a bounded, versioned list of snapshots per game. It knows
// nothing about rules.
type Manager struct {
	logger  *zap.Logger
	opts    Options
	mu      sync.RWMutex
	history map[string][]*model.GameState
}

// NewManager creates a state manager.
func NewManager(logger *zap.Logger, opts Options) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		logger:  logger,
		opts:    opts.withDefaults(),
		history: make(map[string][]*model.GameState),
	}
}

// SaveState appends a snapshot of s. When the cap is exceeded the oldest
// snapshot is dropped.
func (m *Manager) SaveState(ctx context.Context, s *model.GameState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.ID == "" {
		return fmt.Errorf("cannot save state without an id")
	}

	snapshot := s.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()

	versions := append(m.history[s.ID], snapshot)
	if len(versions) > m.opts.MaxHistory {
		versions = versions[len(versions)-m.opts.MaxHistory:]
	}
	m.history[s.ID] = versions

	m.logger.Debug("saved state snapshot",
		zap.String("game_id", s.ID),
		zap.Int("versions", len(versions)),
	)
	return nil
}

// LoadState returns a copy of the latest snapshot, or of the given version
// when version is not nil. It returns nil when nothing matches.
func (m *Manager) LoadState(ctx context.Context, gameID string, version *int) (*model.GameState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := m.history[gameID]
	if len(versions) == 0 {
		return nil, nil
	}
	if version == nil {
		return versions[len(versions)-1].Clone(), nil
	}
	if *version < 0 || *version >= len(versions) {
		return nil, nil
	}
	return versions[*version].Clone(), nil
}

// GetStateHistory returns copies of every stored snapshot, oldest first.
func (m *Manager) GetStateHistory(ctx context.Context, gameID string) ([]*model.GameState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := m.history[gameID]
	out := make([]*model.GameState, len(versions))
	for i, v := range versions {
		out[i] = v.Clone()
	}
	return out, nil
}

// Versions returns the number of stored snapshots for a game.
func (m *Manager) Versions(gameID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.history[gameID])
}

// CloneState returns a deep copy of s.
func (m *Manager) CloneState(s *model.GameState) *model.GameState {
	return s.Clone()
}

// RevertToState drops every snapshot after version and returns a copy of
// that snapshot. It returns nil for an out-of-range version.
func (m *Manager) RevertToState(ctx context.Context, gameID string, version int) (*model.GameState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	versions := m.history[gameID]
	if version < 0 || version >= len(versions) {
		return nil, nil
	}
	for i := version + 1; i < len(versions); i++ {
		versions[i] = nil
	}
	m.history[gameID] = versions[:version+1]

	m.logger.Info("reverted game state",
		zap.String("game_id", gameID),
		zap.Int("version", version),
	)
	return versions[version].Clone(), nil
}

// Forget removes every snapshot of a game.
func (m *Manager) Forget(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.history, gameID)
}
