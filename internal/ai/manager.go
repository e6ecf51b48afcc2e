package ai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tabletop-labs/cardengine/internal/config"
	"github.com/tabletop-labs/cardengine/internal/game/model"
)

var (
	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("AI session not found")
	// ErrNotAIPlayer is returned when the current player has no AI attached.
	ErrNotAIPlayer = errors.New("no AI configured for player")
)

const (
	defaultAutoPlayTurns = 1000
	defaultSimulateTurns = 100
)

// GameEngine is the part of the game engine the AI drives.
type GameEngine interface {
	LoadGame(ctx context.Context, gameID string) (*model.GameState, error)
	ExecuteAction(ctx context.Context, gs *model.GameState, action *model.GameAction) model.GameActionResult
	GetAvailableActions(gs *model.GameState, playerID string) []model.GameAction
}

// Seat attaches a personality preset to a player id.
type Seat struct {
	PlayerID    string
	Personality string
}

// SessionOptions configure a session. A zero TurnDelay uses the manager
// default.
type SessionOptions struct {
	AutoPlay  bool
	TurnDelay time.Duration
}

// TurnResult reports one AI move.
type TurnResult struct {
	PlayerID   string
	Action     model.GameAction
	Reasoning  string
	Confidence int
	Success    bool
	Error      string
}

// SessionStats describes a session.
type SessionStats struct {
	GameID        string
	AIPlayerCount int
	IsRunning     bool
	AutoPlay      bool
	AIPlayerIDs   []string
}

type session struct {
	id        string
	gameID    string
	players   map[string]*Player
	autoPlay  bool
	turnDelay time.Duration
	running   bool
	cancel    context.CancelFunc
}

// Manager runs AI sessions against a game engine.
type Manager struct {
	logger  *zap.Logger
	engine  GameEngine
	decider Decider
	cfg     config.AIConfig

	mu       sync.Mutex
	sessions map[string]*session
}

// NewManager creates a manager. decider may be nil.
func NewManager(logger *zap.Logger, engine GameEngine, decider Decider, cfg config.AIConfig) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TurnDelay < 0 {
		cfg.TurnDelay = 0
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = defaultAutoPlayTurns
	}
	if cfg.Personality == "" {
		cfg.Personality = DefaultPersonality
	}
	return &Manager{
		logger:   logger,
		engine:   engine,
		decider:  decider,
		cfg:      cfg,
		sessions: make(map[string]*session),
	}
}

// CreatePlayer builds an AI player from a preset name. An empty name uses
// the configured default.
func (m *Manager) CreatePlayer(personality string) *Player {
	if personality == "" {
		personality = m.cfg.Personality
	}
	return NewPlayer(m.logger, m.decider, LookupPersonality(personality))
}

// StartAIGame opens a session for gs with the given AI seats. With AutoPlay
// the session starts playing in the background until ctx is done.
func (m *Manager) StartAIGame(ctx context.Context, gs *model.GameState, seats []Seat, opts SessionOptions) (string, error) {
	if gs == nil {
		return "", fmt.Errorf("game state is required")
	}

	s := &session{
		id:        "ai_session_" + uuid.NewString(),
		gameID:    gs.ID,
		players:   make(map[string]*Player, len(seats)),
		autoPlay:  opts.AutoPlay,
		turnDelay: opts.TurnDelay,
	}
	if s.turnDelay == 0 {
		s.turnDelay = m.cfg.TurnDelay
	}
	for _, seat := range seats {
		s.players[seat.PlayerID] = m.CreatePlayer(seat.Personality)
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.Info("ai session started",
		zap.String("session_id", s.id),
		zap.String("game_id", gs.ID),
		zap.Int("ai_players", len(seats)),
	)

	if s.autoPlay {
		go func() {
			if err := m.StartAutoPlay(ctx, s.id); err != nil {
				m.logger.Warn("auto play stopped", zap.String("session_id", s.id), zap.Error(err))
			}
		}()
	}
	return s.id, nil
}

func (m *Manager) session(id string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// ExecuteAITurn lets the current player's AI choose and execute one action.
// Failures after the AI is resolved are reported in the result.
func (m *Manager) ExecuteAITurn(ctx context.Context, sessionID string, gs *model.GameState) (TurnResult, error) {
	s, err := m.session(sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	current := gs.CurrentPlayer()
	if current == nil {
		return TurnResult{}, fmt.Errorf("game %s has no current player", gs.ID)
	}
	m.mu.Lock()
	player, ok := s.players[current.ID]
	m.mu.Unlock()
	if !ok {
		return TurnResult{}, fmt.Errorf("%w %s", ErrNotAIPlayer, current.ID)
	}

	available := pruneDraws(gs, current, m.engine.GetAvailableActions(gs, current.ID))
	if len(available) == 0 {
		return errorTurn(current.ID, "No actions available for AI player"), nil
	}

	var last *model.GameAction
	if n := len(gs.History); n > 0 {
		last = gs.History[n-1].Action
	}
	player.UpdateGameKnowledge(gs, last)

	decision := player.MakeDecision(ctx, DecisionContext{
		State:            gs,
		Player:           current,
		AvailableActions: available,
		History:          historyLines(gs.History),
	})
	if decision.Action == nil {
		return errorTurn(current.ID, "AI produced no action"), nil
	}

	result := m.engine.ExecuteAction(ctx, gs, decision.Action)
	return TurnResult{
		PlayerID:   current.ID,
		Action:     *decision.Action,
		Reasoning:  decision.Reasoning,
		Confidence: decision.Confidence,
		Success:    result.Success,
		Error:      strings.Join(result.Errors, ", "),
	}, nil
}

// pruneDraws drops DRAW_CARD when the deck is empty or when the player's
// last action was already a draw, so a draw phase yields one card and the
// seat moves on instead of emptying its deck.
func pruneDraws(gs *model.GameState, p *model.Player, available []model.GameAction) []model.GameAction {
	if len(p.Zones.Deck) > 0 && !lastActionIsDraw(gs, p.ID) {
		return available
	}
	out := make([]model.GameAction, 0, len(available))
	for _, a := range available {
		if a.Type != model.ActionDrawCard {
			out = append(out, a)
		}
	}
	return out
}

func lastActionIsDraw(gs *model.GameState, playerID string) bool {
	for i := len(gs.History) - 1; i >= 0; i-- {
		if a := gs.History[i].Action; a != nil {
			return a.Type == model.ActionDrawCard && a.PlayerID == playerID
		}
	}
	return false
}

func errorTurn(playerID, msg string) TurnResult {
	return TurnResult{
		PlayerID: playerID,
		Action: model.GameAction{
			ID:          "error_action",
			Type:        model.ActionPassTurn,
			PlayerID:    playerID,
			Description: "Error fallback",
			Timestamp:   time.Now(),
		},
		Reasoning: "Error occurred during AI turn",
		Error:     msg,
	}
}

func historyLines(events []model.GameEvent) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		description := "Unknown"
		if ev.Action != nil && ev.Action.Description != "" {
			description = ev.Action.Description
		}
		out = append(out, ev.Type+": "+description)
	}
	return out
}

// StartAutoPlay plays AI turns until the game finishes, a human is to act,
// the turn cap is exceeded, ctx is done or StopAutoPlay is called. It
// blocks for the duration.
func (m *Manager) StartAutoPlay(ctx context.Context, sessionID string) error {
	s, err := m.session(sessionID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	if s.running {
		m.mu.Unlock()
		return fmt.Errorf("auto play already running for session %s", sessionID)
	}
	s.running = true
	s.autoPlay = true
	s.cancel = cancel
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		s.running = false
		s.cancel = nil
		m.mu.Unlock()
	}()

	for {
		if !m.isRunning(s) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		gs, err := m.engine.LoadGame(ctx, s.gameID)
		if err != nil {
			return m.stopped(s, err)
		}
		if gs.GameStatus == model.StatusFinished {
			return nil
		}
		if gs.Turn > m.cfg.MaxTurns {
			m.logger.Warn("game exceeded maximum turns, stopping auto play",
				zap.String("session_id", sessionID),
				zap.Int("turn", gs.Turn),
			)
			return nil
		}

		current := gs.CurrentPlayer()
		if current == nil || !m.IsPlayerAI(sessionID, current.ID) {
			return nil
		}

		turn, err := m.ExecuteAITurn(ctx, sessionID, gs)
		if err != nil {
			return m.stopped(s, err)
		}
		if !turn.Success {
			m.logger.Warn("ai turn failed",
				zap.String("session_id", sessionID),
				zap.String("player_id", turn.PlayerID),
				zap.String("error", turn.Error),
			)
		}

		if s.turnDelay > 0 {
			timer := time.NewTimer(s.turnDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
	}
}

// stopped swallows err when the loop was stopped on purpose.
func (m *Manager) stopped(s *session, err error) error {
	if !m.isRunning(s) {
		return nil
	}
	return err
}

func (m *Manager) isRunning(s *session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return s.running && s.autoPlay
}

// StopAutoPlay ends a running auto-play loop.
func (m *Manager) StopAutoPlay(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		s.running = false
		if s.cancel != nil {
			s.cancel()
		}
	}
}

// IsPlayerAI reports whether playerID is AI-controlled in the session.
func (m *Manager) IsPlayerAI(sessionID, playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return false
	}
	_, ok = s.players[playerID]
	return ok
}

// Analysis returns the AI's summary of gs for playerID.
func (m *Manager) Analysis(sessionID string, gs *model.GameState, playerID string) (string, error) {
	s, err := m.session(sessionID)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	player, ok := s.players[playerID]
	m.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w %s", ErrNotAIPlayer, playerID)
	}
	return player.AnalyzeGameState(gs, playerID), nil
}

// CloseSession stops and removes a session.
func (m *Manager) CloseSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		s.running = false
		if s.cancel != nil {
			s.cancel()
		}
		delete(m.sessions, sessionID)
	}
}

// SimulateGame plays gs with AI seats until it stops being active, a turn
// fails, a human seat is reached or maxTurns moves were made. A zero
// maxTurns uses 100. The last loaded state is returned and the session is
// closed.
func (m *Manager) SimulateGame(ctx context.Context, gs *model.GameState, seats []Seat, maxTurns int) (*model.GameState, error) {
	if maxTurns <= 0 {
		maxTurns = defaultSimulateTurns
	}
	sessionID, err := m.StartAIGame(ctx, gs, seats, SessionOptions{})
	if err != nil {
		return nil, err
	}
	defer m.CloseSession(sessionID)

	current := gs
	for moves := 0; current.GameStatus == model.StatusActive && moves < maxTurns; moves++ {
		if err := ctx.Err(); err != nil {
			return current, err
		}
		player := current.CurrentPlayer()
		if player == nil || !m.IsPlayerAI(sessionID, player.ID) {
			m.logger.Warn("non-AI player encountered in simulation", zap.String("game_id", current.ID))
			break
		}

		turn, err := m.ExecuteAITurn(ctx, sessionID, current)
		if err != nil {
			return current, err
		}
		m.logger.Debug("simulated move",
			zap.String("game_id", current.ID),
			zap.Int("move", moves+1),
			zap.String("player_id", turn.PlayerID),
			zap.String("action", string(turn.Action.Type)),
			zap.Int("confidence", turn.Confidence),
		)
		if !turn.Success {
			m.logger.Warn("simulated turn failed", zap.String("game_id", current.ID), zap.String("error", turn.Error))
			break
		}

		next, err := m.engine.LoadGame(ctx, current.ID)
		if err != nil {
			return current, err
		}
		current = next
	}
	return current, nil
}

// SessionStats describes a session. ok is false for unknown ids.
func (m *Manager) SessionStats(sessionID string) (SessionStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return SessionStats{}, false
	}
	ids := make([]string, 0, len(s.players))
	for id := range s.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return SessionStats{
		GameID:        s.gameID,
		AIPlayerCount: len(s.players),
		IsRunning:     s.running,
		AutoPlay:      s.autoPlay,
		AIPlayerIDs:   ids,
	}, true
}

// ActiveSessions lists the open session ids.
func (m *Manager) ActiveSessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
