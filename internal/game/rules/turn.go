package rules

import (
	"fmt"
	"strings"

	"github.com/tabletop-labs/cardengine/internal/game/model"
)

// phaseTokens maps the action tokens used in a rules turn structure to
// engine action types.
var phaseTokens = map[string]model.ActionType{
	"draw":   model.ActionDrawCard,
	"play":   model.ActionPlayCard,
	"attack": model.ActionAttack,
	"pass":   model.ActionPassTurn,
}

// ActionForToken maps a turn-structure token to an action type. Unknown
// tokens pass through unchanged as custom action types.
func ActionForToken(token string) model.ActionType {
	if t, ok := phaseTokens[token]; ok {
		return t
	}
	return model.ActionType(token)
}

// NewPhase builds the runtime phase for a turn-structure entry.
func NewPhase(tp model.TurnPhase) model.GamePhase {
	description := tp.Description
	if description == "" {
		description = fmt.Sprintf("%s phase", tp.Name)
	}
	allowed := make([]model.ActionType, 0, len(tp.Actions))
	for _, token := range tp.Actions {
		allowed = append(allowed, ActionForToken(token))
	}
	return model.GamePhase{
		Name:           tp.Name,
		Description:    description,
		AllowedActions: allowed,
		IsOptional:     tp.Optional,
	}
}

// InitialPhase returns the first phase of the structure.
func InitialPhase(structure []model.TurnPhase) (model.GamePhase, error) {
	if len(structure) == 0 {
		return model.GamePhase{}, fmt.Errorf("turn structure is empty")
	}
	return NewPhase(structure[0]), nil
}

// PhaseIndex returns the index of the named phase, or -1.
func PhaseIndex(structure []model.TurnPhase, name string) int {
	for i, tp := range structure {
		if tp.Name == name {
			return i
		}
	}
	return -1
}

// NextPhase returns the phase following current. wrapped is true when the
// structure starts over. A phase that is not in the structure moves to the
// first entry without wrapping.
func NextPhase(structure []model.TurnPhase, current string) (next model.GamePhase, wrapped bool) {
	idx := PhaseIndex(structure, current)
	if idx < len(structure)-1 {
		return NewPhase(structure[idx+1]), false
	}
	return NewPhase(structure[0]), true
}

// AdvanceTurn moves state to the next phase in place. At the end of the
// structure the turn passes to the next player, the turn counter increases
// when play returns to the first player, and the new current player's
// turnsPlayed is incremented. Callers pass a cloned state.
func AdvanceTurn(state *model.GameState) error {
	if state.Rules == nil || len(state.Rules.TurnStructure) == 0 {
		return fmt.Errorf("game %s has no turn structure", state.ID)
	}
	if len(state.Players) == 0 {
		return fmt.Errorf("game %s has no players", state.ID)
	}

	next, wrapped := NextPhase(state.Rules.TurnStructure, state.Phase.Name)
	state.Phase = next
	if !wrapped {
		return nil
	}

	state.CurrentPlayerIndex = (state.CurrentPlayerIndex + 1) % len(state.Players)
	if state.CurrentPlayerIndex == 0 {
		state.Turn++
	}
	if p := state.Players[state.CurrentPlayerIndex]; p != nil {
		p.Statistics.TurnsPlayed++
	}
	return nil
}

// IsCombatPhase reports whether the phase name mentions combat.
func IsCombatPhase(phase model.GamePhase) bool {
	return strings.Contains(strings.ToLower(phase.Name), "combat")
}
