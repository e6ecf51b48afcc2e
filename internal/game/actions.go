package game

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tabletop-labs/cardengine/internal/game/model"
	"github.com/tabletop-labs/cardengine/internal/game/resources"
	"github.com/tabletop-labs/cardengine/internal/game/rules"
	"github.com/tabletop-labs/cardengine/internal/notify"
)

// ExecuteAction validates and applies action to a clone of gs. Rejections
// and handler failures are reported in the result with gs returned
// unchanged; gs itself is never modified. A successful result is persisted
// and snapshotted.
func (e *Engine) ExecuteAction(ctx context.Context, gs *model.GameState, action *model.GameAction) model.GameActionResult {
	if gs == nil || action == nil {
		return failure(gs, "game state and action are required")
	}

	unlock := e.lockGame(gs.ID)
	defer unlock()

	validation := e.ValidateAction(gs, action)
	if !validation.IsValid {
		e.logger.Debug("action rejected",
			zap.String("game_id", gs.ID),
			zap.String("player_id", action.PlayerID),
			zap.String("action_type", string(action.Type)),
			zap.Strings("errors", validation.Errors),
		)
		return model.GameActionResult{
			Success:  false,
			NewState: gs,
			Events:   []model.GameEvent{},
			Errors:   validation.Errors,
		}
	}

	newState, events, err := e.apply(ctx, gs, action)
	if err != nil {
		e.logger.Debug("action failed",
			zap.String("game_id", gs.ID),
			zap.String("action_type", string(action.Type)),
			zap.Error(err),
		)
		return failure(gs, err.Error())
	}

	if err := e.register(ctx, newState); err != nil {
		e.logger.Error("failed to persist action result", zap.String("game_id", gs.ID), zap.Error(err))
		return failure(gs, err.Error())
	}

	if diff := e.states.CompareStates(gs, newState); diff.SignificantChanges > 0 {
		e.logger.Debug("significant state change",
			zap.String("game_id", gs.ID),
			zap.Strings("differences", diff.Differences),
		)
	}
	e.notifyAction(gs, newState, action, events)

	return model.GameActionResult{
		Success:  true,
		NewState: newState,
		Events:   events,
	}
}

// apply runs steps that mutate the clone. Panics in handlers are converted
// to errors so the caller's state is never left half-updated.
func (e *Engine) apply(ctx context.Context, gs *model.GameState, action *model.GameAction) (newState *model.GameState, events []model.GameEvent, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("action handler panicked",
				zap.String("game_id", gs.ID),
				zap.String("action_type", string(action.Type)),
				zap.Any("panic", r),
			)
			newState, events, err = nil, nil, fmt.Errorf("action %s failed: %v", action.Type, r)
		}
	}()

	newState = e.states.CloneState(gs)
	if err := e.dispatch(ctx, newState, action); err != nil {
		return nil, nil, err
	}

	now := e.now()
	event := model.GameEvent{
		ID:        "event_" + uuid.NewString(),
		Type:      string(action.Type),
		PlayerID:  action.PlayerID,
		Action:    action.Clone(),
		Result:    "success",
		Timestamp: now,
	}
	newState.History = append(newState.History, event)
	newState.Metadata.LastActionTime = now
	events = []model.GameEvent{event}

	triggered := e.rules.ProcessTriggers(newState, event)
	newState.History = append(newState.History, triggered...)
	events = append(events, triggered...)

	if win := e.CheckWinConditions(newState); win != nil && win.GameEnded {
		newState.GameStatus = model.StatusFinished
	}

	enforcement := e.rules.EnforceRules(newState, action)
	if enforcement.Allowed && len(enforcement.AdditionalEffects) > 0 {
		newState, err = e.rules.ResolveEffects(ctx, newState, enforcement.AdditionalEffects)
		if err != nil {
			return nil, nil, err
		}
	}

	return newState, events, nil
}

func failure(gs *model.GameState, msg string) model.GameActionResult {
	return model.GameActionResult{
		Success:  false,
		NewState: gs,
		Events:   []model.GameEvent{},
		Errors:   []string{msg},
	}
}

func (e *Engine) notifyAction(before, after *model.GameState, action *model.GameAction, events []model.GameEvent) {
	e.notify(notify.TypePlayerAction, after.ID, action.PlayerID, map[string]any{
		"action": string(action.Type),
		"turn":   after.Turn,
	})
	for _, ev := range events[1:] {
		e.notify(notify.TypeTrigger, after.ID, ev.PlayerID, map[string]any{"event": ev.ID})
	}
	if before.Phase.Name != after.Phase.Name || before.CurrentPlayerIndex != after.CurrentPlayerIndex {
		e.notify(notify.TypePhaseChange, after.ID, "", map[string]any{
			"phase":         after.Phase.Name,
			"turn":          after.Turn,
			"currentPlayer": after.CurrentPlayerIndex,
		})
	}
	if after.GameStatus == model.StatusFinished && before.GameStatus != model.StatusFinished {
		data := map[string]any{"turn": after.Turn}
		if win := e.CheckWinConditions(after); win != nil && win.Winner != nil {
			data["winner"] = win.Winner.ID
			data["condition"] = win.Condition
		}
		e.notify(notify.TypeGameEnded, after.ID, "", data)
	}
}

// ValidateAction collects every reason action is not legal in gs. It has no
// side effects.
func (e *Engine) ValidateAction(gs *model.GameState, action *model.GameAction) model.ActionValidationResult {
	errs := []string{}

	if player, _ := gs.Player(action.PlayerID); player == nil {
		errs = append(errs, fmt.Sprintf("Player %s not found", action.PlayerID))
	}

	if current := gs.CurrentPlayer(); current == nil || current.ID != action.PlayerID {
		errs = append(errs, "Not your turn")
	}

	if action.Type != model.ActionPassTurn && !gs.Phase.Allows(action.Type) {
		errs = append(errs, fmt.Sprintf("Action %s not allowed in phase %s", action.Type, gs.Phase.Name))
	}

	switch gs.GameStatus {
	case model.StatusFinished:
		errs = append(errs, "Game is finished")
	case model.StatusPaused:
		errs = append(errs, "Game is paused")
	}

	if enforcement := e.rules.EnforceRules(gs, action); !enforcement.Allowed {
		errs = append(errs, enforcement.Reasons...)
	}

	return model.ActionValidationResult{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: []string{},
	}
}

// GetAvailableActions lists the actions playerID may take in the current
// phase. The list is advisory; ExecuteAction validates independently. It is
// empty off turn and while the game is paused or finished.
func (e *Engine) GetAvailableActions(gs *model.GameState, playerID string) []model.GameAction {
	player, _ := gs.Player(playerID)
	if player == nil || gs.CurrentPlayer() != player {
		return []model.GameAction{}
	}
	if gs.GameStatus == model.StatusFinished || gs.GameStatus == model.StatusPaused {
		return []model.GameAction{}
	}

	now := e.now()
	newAction := func(t model.ActionType, description string) model.GameAction {
		return model.GameAction{
			ID:          "action_" + uuid.NewString(),
			Type:        t,
			PlayerID:    playerID,
			Description: description,
			Timestamp:   now,
		}
	}

	actions := []model.GameAction{newAction(model.ActionPassTurn, "Pass turn to next player")}

	if gs.Phase.Allows(model.ActionPlayCard) {
		for i := range player.Zones.Hand {
			card := &player.Zones.Hand[i]
			if !resources.CanAfford(card.Costs, player.Resources) {
				continue
			}
			a := newAction(model.ActionPlayCard, "Play "+card.Name)
			a.Targets = []model.ActionTarget{{Type: model.TargetCard, Value: card.ID}}
			a.Costs = cloneCosts(card.Costs)
			actions = append(actions, a)
		}
	}

	if gs.Phase.Allows(model.ActionDrawCard) {
		actions = append(actions, newAction(model.ActionDrawCard, "Draw a card"))
	}

	if rules.IsCombatPhase(gs.Phase) {
		for i := range player.Zones.InPlay {
			card := &player.Zones.InPlay[i]
			if power, _ := card.Power(); power <= 0 {
				continue
			}
			a := newAction(model.ActionAttack, "Attack with "+card.Name)
			a.Targets = []model.ActionTarget{{Type: model.TargetCard, Value: card.ID}}
			actions = append(actions, a)
		}
	}

	return actions
}

func cloneCosts(costs map[string]int) map[string]int {
	if costs == nil {
		return nil
	}
	out := make(map[string]int, len(costs))
	for k, v := range costs {
		out[k] = v
	}
	return out
}

// AdvancePhase returns a clone of gs moved to the next phase, rotating the
// current player at the end of the turn structure.
func (e *Engine) AdvancePhase(gs *model.GameState) (*model.GameState, error) {
	next := e.states.CloneState(gs)
	if err := rules.AdvanceTurn(next); err != nil {
		return nil, err
	}
	return next, nil
}

// UndoAction steps back one action. The newest held snapshot with a shorter
// history than gs is restored in full and re-registered. Without one, the
// last history event is dropped from a clone. Either way the result is
// written to the store.
func (e *Engine) UndoAction(ctx context.Context, gs *model.GameState) (*model.GameState, error) {
	if len(gs.History) == 0 {
		return nil, ErrNoActionsToUndo
	}

	unlock := e.lockGame(gs.ID)
	defer unlock()

	for v := e.states.Versions(gs.ID) - 1; v >= 0; v-- {
		snapshot, err := e.states.LoadState(ctx, gs.ID, &v)
		if err != nil {
			return nil, err
		}
		if snapshot == nil || len(snapshot.History) >= len(gs.History) {
			continue
		}

		prior, err := e.states.RevertToState(ctx, gs.ID, v)
		if err != nil {
			return nil, err
		}
		if err := e.store.Set(ctx, prior); err != nil {
			return nil, fmt.Errorf("failed to store reverted game %s: %w", gs.ID, err)
		}
		e.logger.Info("action undone from snapshot", zap.String("game_id", gs.ID), zap.Int("version", v))
		e.notify(notify.TypeGameState, gs.ID, "", map[string]any{"undo": true, "version": v})
		return prior, nil
	}

	trimmed := e.states.CloneState(gs)
	trimmed.History = trimmed.History[:len(trimmed.History)-1]
	if err := e.store.Set(ctx, trimmed); err != nil {
		return nil, fmt.Errorf("failed to store trimmed game %s: %w", gs.ID, err)
	}
	e.logger.Debug("action undone from history", zap.String("game_id", gs.ID))
	e.notify(notify.TypeGameState, gs.ID, "", map[string]any{"undo": true})
	return trimmed, nil
}
