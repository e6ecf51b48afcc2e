package game

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/tabletop-labs/cardengine/internal/game/model"
)

// ExportGame serializes gs as indented JSON.
func (e *Engine) ExportGame(gs *model.GameState) (string, error) {
	data, err := json.MarshalIndent(gs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to export game: %w", err)
	}
	return string(data), nil
}

// ImportGame parses an exported game and registers it under its id. The id,
// players and rules must be present.
func (e *Engine) ImportGame(ctx context.Context, data string) (*model.GameState, error) {
	gs := &model.GameState{}
	if err := json.Unmarshal([]byte(data), gs); err != nil {
		return nil, fmt.Errorf("failed to import game: %w", err)
	}
	if gs.ID == "" || gs.Players == nil || gs.Rules == nil {
		return nil, fmt.Errorf("failed to import game: %w", ErrInvalidGameData)
	}

	if check := e.states.ValidateState(gs); !check.IsValid || len(check.Warnings) > 0 {
		e.logger.Warn("imported game has structural issues",
			zap.String("game_id", gs.ID),
			zap.Strings("errors", check.Errors),
			zap.Strings("warnings", check.Warnings),
		)
	}

	unlock := e.lockGame(gs.ID)
	defer unlock()
	if e.replays != nil {
		e.replays.StartRecording(gs.ID)
	}
	if err := e.register(ctx, gs); err != nil {
		return nil, err
	}

	e.logger.Info("game imported", zap.String("game_id", gs.ID), zap.Int("history", len(gs.History)))
	return gs.Clone(), nil
}
