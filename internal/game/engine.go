// Package game implements the universal card game engine: game creation,
// action execution, phase progression, win detection and persistence.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tabletop-labs/cardengine/internal/config"
	"github.com/tabletop-labs/cardengine/internal/game/model"
	"github.com/tabletop-labs/cardengine/internal/game/rules"
	"github.com/tabletop-labs/cardengine/internal/game/script"
	"github.com/tabletop-labs/cardengine/internal/game/state"
	"github.com/tabletop-labs/cardengine/internal/notify"
	"github.com/tabletop-labs/cardengine/internal/repository"
)

var (
	// ErrGameNotFound is returned when a game id is not registered.
	ErrGameNotFound = errors.New("game not found")
	// ErrNoActionsToUndo is returned by UndoAction on an empty history.
	ErrNoActionsToUndo = errors.New("No actions to undo")
	// ErrInvalidGameData is returned by ImportGame when required fields are
	// missing.
	ErrInvalidGameData = errors.New("Invalid game data format")
)

// Settings are the setup constants of the engine.
type Settings struct {
	MinDeckSize     int
	DefaultHandSize int
}

// DefaultSettings returns the standard setup constants.
func DefaultSettings() Settings {
	return Settings{MinDeckSize: 20, DefaultHandSize: 7}
}

// SettingsFromConfig converts engine configuration into Settings.
func SettingsFromConfig(cfg config.EngineConfig) Settings {
	s := DefaultSettings()
	if cfg.MinDeckSize > 0 {
		s.MinDeckSize = cfg.MinDeckSize
	}
	if cfg.DefaultHandSize > 0 {
		s.DefaultHandSize = cfg.DefaultHandSize
	}
	return s
}

// Engine is the orchestrator every client talks to. Game state lives in the
// injected store; every mutation happens on a clone.
type Engine struct {
	logger   *zap.Logger
	store    repository.GameStore
	states   *state.Manager
	rules    *rules.Engine
	scripts  *script.Registry
	replays  *ReplayRecorder
	settings Settings

	mu       sync.RWMutex
	notifier notify.Handler
	locks    map[string]*sync.Mutex

	randMu sync.Mutex
	rand   *rand.Rand

	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore replaces the default in-memory store.
func WithStore(s repository.GameStore) Option {
	return func(e *Engine) {
		if s != nil {
			e.store = s
		}
	}
}

// WithStateManager replaces the default state manager.
func WithStateManager(m *state.Manager) Option {
	return func(e *Engine) {
		if m != nil {
			e.states = m
		}
	}
}

// WithRuleEngine replaces the default rule engine.
func WithRuleEngine(r *rules.Engine) Option {
	return func(e *Engine) {
		if r != nil {
			e.rules = r
		}
	}
}

// WithNotifier installs a notification handler.
func WithNotifier(h notify.Handler) Option {
	return func(e *Engine) {
		e.notifier = h
	}
}

// WithRand sets the source that seeds each game's opening shuffle.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rand = r
		}
	}
}

// WithSettings overrides the setup constants.
func WithSettings(s Settings) Option {
	return func(e *Engine) {
		e.settings = s
	}
}

// WithScripts installs Lua scripts for custom action types. When no rule
// engine is supplied, the registry also resolves custom effects.
func WithScripts(r *script.Registry) Option {
	return func(e *Engine) {
		e.scripts = r
	}
}

// WithReplayRecorder records every game the engine creates or imports and
// saves the replay when the game ends.
func WithReplayRecorder(rr *ReplayRecorder) Option {
	return func(e *Engine) {
		e.replays = rr
	}
}

// NewEngine creates a game engine.
func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger:   logger,
		settings: DefaultSettings(),
		locks:    make(map[string]*sync.Mutex),
		rand:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = repository.NewMemoryStore()
	}
	if e.states == nil {
		e.states = state.NewManager(logger, state.Options{})
	}
	if e.rules == nil {
		var ruleOpts []rules.Option
		if e.scripts != nil {
			ruleOpts = append(ruleOpts, rules.WithCustomResolver(e.scripts))
		}
		e.rules = rules.NewEngine(logger, ruleOpts...)
	}
	return e
}

// SetNotificationHandler replaces the notification handler.
func (e *Engine) SetNotificationHandler(h notify.Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifier = h
}

// States exposes the state manager for history and diagnostics.
func (e *Engine) States() *state.Manager {
	return e.states
}

// Rules exposes the rule engine.
func (e *Engine) Rules() *rules.Engine {
	return e.rules
}

// lockGame serializes mutating operations on one game id. The returned
// function releases the lock.
func (e *Engine) lockGame(gameID string) func() {
	e.mu.Lock()
	l, ok := e.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[gameID] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (e *Engine) dropLock(gameID string) {
	e.mu.Lock()
	delete(e.locks, gameID)
	e.mu.Unlock()
}

// CreateGame builds, deals and registers a new game.
func (e *Engine) CreateGame(ctx context.Context, cfg model.GameConfiguration) (*model.GameState, error) {
	if cfg.Rules == nil {
		return nil, fmt.Errorf("game configuration is missing rules")
	}
	if len(cfg.Rules.TurnStructure) == 0 {
		return nil, fmt.Errorf("game rules have an empty turn structure")
	}
	if len(cfg.PlayerConfigs) == 0 {
		return nil, fmt.Errorf("game configuration has no players")
	}

	gameType := cfg.GameType
	if gameType == "" {
		gameType = cfg.Rules.GameType
	}
	family := e.rules.Family(gameType)

	phase, err := rules.InitialPhase(cfg.Rules.TurnStructure)
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(cfg.PlayerConfigs))
	for i, pc := range cfg.PlayerConfigs {
		players = append(players, newPlayer(i, pc, cfg.StartingConditions, family))
	}

	now := e.now()
	gs := &model.GameState{
		ID:                 "game_" + uuid.NewString(),
		GameType:           gameType,
		Rules:              cfg.Rules.Clone(),
		Players:            players,
		CurrentPlayerIndex: 0,
		Phase:              phase,
		Turn:               1,
		GameStatus:         model.StatusSetup,
		Zones: model.GameZones{
			Shared: []model.Card{},
			Market: []model.Card{},
			Supply: []model.Card{},
		},
		History: []model.GameEvent{},
		Metadata: model.GameMetadata{
			StartTime:      now,
			LastActionTime: now,
			Format:         string(gameType),
			Seed:           e.gameSeed(cfg.Seed),
		},
	}
	if cfg.TimeControls != nil {
		gs.Metadata.ExpectedDuration = cfg.TimeControls.GameTimeLimit
		gs.Phase.TimeLimit = cfg.TimeControls.TurnTimeLimit
	}

	e.performInitialSetup(gs, e.startingHandSize(cfg))

	if e.replays != nil {
		e.replays.StartRecording(gs.ID)
	}
	if err := e.register(ctx, gs); err != nil {
		return nil, err
	}

	e.logger.Info("game created",
		zap.String("game_id", gs.ID),
		zap.String("game_type", string(gs.GameType)),
		zap.Int("players", len(gs.Players)),
	)
	e.notify(notify.TypeGameCreated, gs.ID, "", map[string]any{
		"gameType": string(gs.GameType),
		"players":  len(gs.Players),
	})

	return gs.Clone(), nil
}

// register stores gs and records a snapshot of it.
func (e *Engine) register(ctx context.Context, gs *model.GameState) error {
	if err := e.store.Set(ctx, gs); err != nil {
		return fmt.Errorf("failed to store game %s: %w", gs.ID, err)
	}
	if err := e.states.SaveState(ctx, gs); err != nil {
		return fmt.Errorf("failed to snapshot game %s: %w", gs.ID, err)
	}
	if e.replays != nil {
		if err := e.replays.Record(gs); err != nil {
			e.logger.Warn("failed to record replay state", zap.String("game_id", gs.ID), zap.Error(err))
		}
	}
	return nil
}

// LoadGame returns a copy of the stored game.
func (e *Engine) LoadGame(ctx context.Context, gameID string) (*model.GameState, error) {
	gs, err := e.store.Get(ctx, gameID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
		}
		return nil, err
	}
	return gs, nil
}

// SaveGame upserts the game and appends it to the snapshot history.
func (e *Engine) SaveGame(ctx context.Context, gs *model.GameState) error {
	if gs == nil || gs.ID == "" {
		return fmt.Errorf("cannot save a game without an id")
	}
	unlock := e.lockGame(gs.ID)
	defer unlock()
	return e.register(ctx, gs)
}

// ListGames returns the ids of stored games.
func (e *Engine) ListGames(ctx context.Context) ([]string, error) {
	return e.store.List(ctx)
}

// PauseGame moves an active game to paused.
func (e *Engine) PauseGame(ctx context.Context, gameID string) (*model.GameState, error) {
	return e.transition(ctx, gameID, model.StatusPaused)
}

// ResumeGame moves a paused game back to active.
func (e *Engine) ResumeGame(ctx context.Context, gameID string) (*model.GameState, error) {
	return e.transition(ctx, gameID, model.StatusActive)
}

func (e *Engine) transition(ctx context.Context, gameID string, next model.GameStatus) (*model.GameState, error) {
	unlock := e.lockGame(gameID)
	defer unlock()

	gs, err := e.LoadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !gs.GameStatus.CanTransition(next) {
		return nil, fmt.Errorf("game %s cannot move from %s to %s", gameID, gs.GameStatus, next)
	}
	gs.GameStatus = next
	if err := e.register(ctx, gs); err != nil {
		return nil, err
	}

	e.logger.Info("game status changed", zap.String("game_id", gameID), zap.String("status", string(next)))
	e.notify(notify.TypeGameState, gameID, "", map[string]any{"status": string(next)})
	return gs.Clone(), nil
}

// EndGame finishes a game and evicts it from the store and snapshot history.
// The compacted final state is returned.
func (e *Engine) EndGame(ctx context.Context, gameID string) (*model.GameState, error) {
	unlock := e.lockGame(gameID)
	gs, err := e.LoadGame(ctx, gameID)
	if err != nil {
		unlock()
		return nil, err
	}
	if gs.GameStatus != model.StatusFinished {
		gs.GameStatus = model.StatusFinished
	}
	final := e.states.OptimizeState(gs)

	if err := e.store.Delete(ctx, gameID); err != nil {
		unlock()
		return nil, fmt.Errorf("failed to evict game %s: %w", gameID, err)
	}
	e.states.Forget(gameID)
	unlock()
	e.dropLock(gameID)

	if e.replays != nil && e.replays.IsRecording(gameID) {
		if err := e.replays.Record(final); err != nil {
			e.logger.Warn("failed to record final state", zap.String("game_id", gameID), zap.Error(err))
		}
		if err := e.replays.Save(gameID); err != nil {
			e.logger.Error("failed to save replay", zap.String("game_id", gameID), zap.Error(err))
		}
	}

	e.logger.Info("game ended", zap.String("game_id", gameID), zap.Int("turns", final.Turn))
	e.notify(notify.TypeGameEnded, gameID, "", map[string]any{"turn": final.Turn})
	return final, nil
}

// GetGameHistory returns a copy of the event history.
func (e *Engine) GetGameHistory(gs *model.GameState) []model.GameEvent {
	out := make([]model.GameEvent, len(gs.History))
	for i := range gs.History {
		out[i] = gs.History[i].Clone()
	}
	return out
}

// notify emits a notification asynchronously so handlers never block game
// logic and may call back into the engine.
func (e *Engine) notify(kind, gameID, playerID string, data map[string]any) {
	e.mu.RLock()
	handler := e.notifier
	e.mu.RUnlock()

	if handler == nil {
		return
	}
	go handler(notify.Notification{
		Type:      kind,
		GameID:    gameID,
		PlayerID:  playerID,
		Timestamp: e.now(),
		Data:      data,
	})
}
