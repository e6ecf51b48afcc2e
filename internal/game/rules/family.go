package rules

import (
	"strings"

	"github.com/tabletop-labs/cardengine/internal/game/model"
)

// Family encapsulates the legality and default rules of one game family.
type Family interface {
	Type() model.GameType
	// CheckAction returns the reasons the action violates family rules.
	CheckAction(state *model.GameState, action *model.GameAction) []string
	// CheckTiming reports whether the action may be taken now.
	CheckTiming(state *model.GameState, action *model.GameAction) bool
	DefaultTurnStructure() []model.TurnPhase
	DefaultLife() int
	DefaultResources() map[string]int
}

// FamilyRegistry resolves a Family for a game type.
type FamilyRegistry struct {
	families map[model.GameType]Family
	fallback Family
}

// NewFamilyRegistry returns a registry with the built-in families.
func NewFamilyRegistry() *FamilyRegistry {
	r := &FamilyRegistry{
		families: make(map[model.GameType]Family),
		fallback: genericFamily{gameType: model.GameTypeCustom},
	}
	r.Register(tcgFamily{})
	r.Register(pokerFamily{})
	r.Register(deckbuilderFamily{})
	r.Register(genericFamily{gameType: model.GameTypeTrickTaking})
	r.Register(genericFamily{gameType: model.GameTypeSocialDeduction})
	r.Register(genericFamily{gameType: model.GameTypeCustom})
	return r
}

// Register adds or replaces a family.
func (r *FamilyRegistry) Register(f Family) {
	r.families[f.Type()] = f
}

// For returns the family for gt, falling back to the generic family.
func (r *FamilyRegistry) For(gt model.GameType) Family {
	if f, ok := r.families[model.GameType(strings.ToLower(string(gt)))]; ok {
		return f
	}
	return r.fallback
}

// targetedHandCard returns the hand card named by the action's first target.
func targetedHandCard(state *model.GameState, action *model.GameAction) (*model.Card, bool) {
	player, _ := state.Player(action.PlayerID)
	if player == nil || len(action.Targets) == 0 {
		return nil, false
	}
	cardID := action.Targets[0].Value
	for i := range player.Zones.Hand {
		if player.Zones.Hand[i].ID == cardID {
			return &player.Zones.Hand[i], true
		}
	}
	return nil, false
}

type tcgFamily struct{}

func (tcgFamily) Type() model.GameType { return model.GameTypeTCG }

func (tcgFamily) CheckAction(state *model.GameState, action *model.GameAction) []string {
	if player, _ := state.Player(action.PlayerID); player == nil {
		return []string{"Player not found"}
	}
	switch action.Type {
	case model.ActionPlayCard:
		if state.Phase.Name == "Combat" {
			if card, ok := targetedHandCard(state, action); ok && !card.IsType("instant") {
				return []string{"Only instant spells can be played during combat"}
			}
		}
	case model.ActionAttack:
		if state.Phase.Name != "Combat" {
			return []string{"Can only attack during combat phase"}
		}
	}
	return nil
}

// CheckTiming allows instants at any time; other cards only in main phases.
func (tcgFamily) CheckTiming(state *model.GameState, action *model.GameAction) bool {
	if action.Type != model.ActionPlayCard || len(action.Targets) == 0 {
		return true
	}
	if card, ok := targetedHandCard(state, action); ok && card.IsType("instant") {
		return true
	}
	return strings.Contains(strings.ToLower(state.Phase.Name), "main")
}

func (tcgFamily) DefaultTurnStructure() []model.TurnPhase {
	return []model.TurnPhase{
		{Name: "Draw", Description: "Draw a card", Actions: []string{"draw"}},
		{Name: "Main", Description: "Play cards", Actions: []string{"play"}},
		{Name: "Combat", Description: "Attack with cards in play", Actions: []string{"attack", "play"}},
		{Name: "End", Description: "End of turn", Actions: []string{"pass"}},
	}
}

func (tcgFamily) DefaultLife() int { return 20 }

func (tcgFamily) DefaultResources() map[string]int {
	return map[string]int{"mana": 0, "energy": 3}
}

type pokerFamily struct{}

func (pokerFamily) Type() model.GameType { return model.GameTypePoker }

func (pokerFamily) CheckAction(*model.GameState, *model.GameAction) []string { return nil }

// CheckTiming only allows betting-round actions. Passing is always allowed so
// a hand can progress out of non-betting phases.
func (pokerFamily) CheckTiming(state *model.GameState, action *model.GameAction) bool {
	if action.Type == model.ActionPassTurn {
		return true
	}
	return state.Phase.Name == "Betting"
}

func (pokerFamily) DefaultTurnStructure() []model.TurnPhase {
	return []model.TurnPhase{
		{Name: "Deal", Description: "Deal cards", Actions: []string{"draw"}},
		{Name: "Betting", Description: "Betting round", Actions: []string{"play", "pass"}},
		{Name: "Showdown", Description: "Reveal hands", Actions: []string{"pass"}},
	}
}

func (pokerFamily) DefaultLife() int { return 0 }

func (pokerFamily) DefaultResources() map[string]int { return map[string]int{} }

type deckbuilderFamily struct{}

func (deckbuilderFamily) Type() model.GameType { return model.GameTypeDeckbuilder }

func (deckbuilderFamily) CheckAction(state *model.GameState, action *model.GameAction) []string {
	player, _ := state.Player(action.PlayerID)
	if player == nil {
		return []string{"Player not found"}
	}
	if action.Type == model.ActionPlayCard && player.Resources.Get("buys") <= 0 {
		return []string{"No buys remaining"}
	}
	return nil
}

func (deckbuilderFamily) CheckTiming(*model.GameState, *model.GameAction) bool { return true }

func (deckbuilderFamily) DefaultTurnStructure() []model.TurnPhase {
	return []model.TurnPhase{
		{Name: "Action", Description: "Play action cards", Actions: []string{"play"}},
		{Name: "Buy", Description: "Buy cards from the supply", Actions: []string{"play"}},
		{Name: "Cleanup", Description: "Draw a new hand", Actions: []string{"draw", "pass"}},
	}
}

func (deckbuilderFamily) DefaultLife() int { return 0 }

func (deckbuilderFamily) DefaultResources() map[string]int {
	return map[string]int{"coins": 0, "buys": 1}
}

// genericFamily covers families without dedicated rules.
type genericFamily struct {
	gameType model.GameType
}

func (f genericFamily) Type() model.GameType { return f.gameType }

func (genericFamily) CheckAction(*model.GameState, *model.GameAction) []string { return nil }

func (genericFamily) CheckTiming(*model.GameState, *model.GameAction) bool { return true }

func (genericFamily) DefaultTurnStructure() []model.TurnPhase {
	return []model.TurnPhase{
		{Name: "Draw", Actions: []string{"draw"}},
		{Name: "Play", Actions: []string{"play"}},
		{Name: "End", Actions: []string{"pass"}},
	}
}

func (genericFamily) DefaultLife() int { return 10 }

func (genericFamily) DefaultResources() map[string]int { return map[string]int{} }
