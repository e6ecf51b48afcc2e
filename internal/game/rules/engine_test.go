package rules

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/tabletop-labs/cardengine/internal/game/model"
)

func newTestState(gameType model.GameType, phase model.GamePhase) *model.GameState {
	p0 := model.NewPlayer("player_0", "Alice")
	p0.SetLife(20)
	p0.Resources["mana"] = 1
	p0.Zones.Hand = []model.Card{
		{ID: "creature", CardType: "creature", Costs: map[string]int{"mana": 2}},
		{ID: "bolt", CardType: "Instant", Costs: map[string]int{"mana": 1}},
	}
	p1 := model.NewPlayer("player_1", "Bob")
	p1.SetLife(20)
	return &model.GameState{
		ID:         "game",
		GameType:   gameType,
		Rules:      &model.UniversalGameRules{TurnStructure: testStructure()},
		Players:    []*model.Player{p0, p1},
		Phase:      phase,
		Turn:       1,
		GameStatus: model.StatusActive,
	}
}

func playAction(cardID string, costs map[string]int) *model.GameAction {
	return &model.GameAction{
		ID:       "a",
		Type:     model.ActionPlayCard,
		PlayerID: "player_0",
		Targets:  []model.ActionTarget{{Type: model.TargetCard, Value: cardID}},
		Costs:    costs,
	}
}

func containsReason(reasons []string, want string) bool {
	for _, r := range reasons {
		if strings.Contains(r, want) {
			return true
		}
	}
	return false
}

func TestEnforceRulesCollectsAllReasons(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	state := newTestState(model.GameTypeTCG, NewPhase(model.TurnPhase{Name: "Combat", Actions: []string{"play", "attack"}}))

	action := playAction("creature", map[string]int{"mana": 2})
	action.Requirements = []model.ActionRequirement{{Type: model.RequirementResource, Condition: "gold", Value: 1}}

	result := engine.EnforceRules(state, action)
	if result.Allowed {
		t.Fatalf("expected action to be denied")
	}
	for _, want := range []string{
		"Action not allowed at this time",
		"Insufficient mana: need 2, have 1",
		"Requirement not met: gold",
		"Only instant spells can be played during combat",
	} {
		if !containsReason(result.Reasons, want) {
			t.Errorf("missing reason %q in %v", want, result.Reasons)
		}
	}
}

func TestEnforceRulesAllowsInstantInCombat(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	state := newTestState(model.GameTypeTCG, NewPhase(model.TurnPhase{Name: "Combat", Actions: []string{"play"}}))

	result := engine.EnforceRules(state, playAction("bolt", map[string]int{"mana": 1}))
	if !result.Allowed {
		t.Fatalf("expected instant to be allowed, got %v", result.Reasons)
	}
}

func TestEnforceRulesIgnoresDeclaredEffects(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	state := newTestState(model.GameTypeCustom, NewPhase(model.TurnPhase{Name: "Main", Actions: []string{"play"}}))

	action := playAction("bolt", nil)
	action.Effects = []model.ActionEffect{{Type: model.EffectModifyResource, Value: model.EffectValue{Resource: "mana", Amount: 1000}}}

	result := engine.EnforceRules(state, action)
	if !result.Allowed {
		t.Fatalf("expected action to be allowed, got %v", result.Reasons)
	}
	if len(result.AdditionalEffects) != 0 {
		t.Fatalf("declared effects must not be returned, got %d", len(result.AdditionalEffects))
	}
}

func TestTCGAttackOutsideCombat(t *testing.T) {
	engine := NewEngine(nil)
	state := newTestState(model.GameTypeTCG, NewPhase(model.TurnPhase{Name: "Main", Actions: []string{"attack"}}))

	action := &model.GameAction{Type: model.ActionAttack, PlayerID: "player_0"}
	result := engine.EnforceRules(state, action)
	if !containsReason(result.Reasons, "Can only attack during combat phase") {
		t.Fatalf("expected combat-only reason, got %v", result.Reasons)
	}
}

func TestTCGTimingRequiresMainForNonInstants(t *testing.T) {
	engine := NewEngine(nil)
	state := newTestState(model.GameTypeTCG, NewPhase(model.TurnPhase{Name: "Upkeep", Actions: []string{"play"}}))
	state.Players[0].Resources["mana"] = 5

	if engine.CheckTimingRules(state, playAction("creature", nil)) {
		t.Fatalf("non-instant should not be playable outside a main phase")
	}
	if !engine.CheckTimingRules(state, playAction("bolt", nil)) {
		t.Fatalf("instant should be playable in any phase")
	}

	state.Phase = NewPhase(model.TurnPhase{Name: "Precombat Main", Actions: []string{"play"}})
	if !engine.CheckTimingRules(state, playAction("creature", nil)) {
		t.Fatalf("non-instant should be playable in a main phase")
	}
}

func TestCheckTimingRulesTurnOwnership(t *testing.T) {
	engine := NewEngine(nil)
	state := newTestState(model.GameTypeCustom, NewPhase(model.TurnPhase{Name: "Main", Actions: []string{"play"}}))

	action := playAction("bolt", nil)
	action.PlayerID = "player_1"
	if engine.CheckTimingRules(state, action) {
		t.Fatalf("expected off-turn action to fail timing")
	}

	pass := &model.GameAction{Type: model.ActionPassTurn, PlayerID: "player_0"}
	if !engine.CheckTimingRules(state, pass) {
		t.Fatalf("pass_turn should always be allowed for the current player")
	}

	draw := &model.GameAction{Type: model.ActionDrawCard, PlayerID: "player_0"}
	if engine.CheckTimingRules(state, draw) {
		t.Fatalf("draw_card is not allowed in Main")
	}
}

func TestPokerTiming(t *testing.T) {
	engine := NewEngine(nil)
	state := newTestState(model.GameTypePoker, NewPhase(model.TurnPhase{Name: "Deal", Actions: []string{"play"}}))

	if engine.CheckTimingRules(state, playAction("bolt", nil)) {
		t.Fatalf("poker actions are restricted to Betting")
	}
	if !engine.CheckTimingRules(state, &model.GameAction{Type: model.ActionPassTurn, PlayerID: "player_0"}) {
		t.Fatalf("passing must stay possible outside Betting")
	}
}

func TestDeckbuilderRequiresBuys(t *testing.T) {
	engine := NewEngine(nil)
	state := newTestState(model.GameTypeDeckbuilder, NewPhase(model.TurnPhase{Name: "Buy", Actions: []string{"play"}}))

	result := engine.EnforceRules(state, playAction("bolt", nil))
	if !containsReason(result.Reasons, "No buys remaining") {
		t.Fatalf("expected buys reason, got %v", result.Reasons)
	}

	state.Players[0].Resources["buys"] = 1
	result = engine.EnforceRules(state, playAction("bolt", nil))
	if !result.Allowed {
		t.Fatalf("expected play with a buy to be allowed, got %v", result.Reasons)
	}
}

func TestEnforceRulesDoesNotMutate(t *testing.T) {
	engine := NewEngine(nil)
	state := newTestState(model.GameTypeTCG, NewPhase(model.TurnPhase{Name: "Main", Actions: []string{"play"}}))
	before := state.Clone()

	engine.EnforceRules(state, playAction("creature", map[string]int{"mana": 2}))
	engine.EnforceRules(state, playAction("creature", map[string]int{"mana": 2}))

	if state.Players[0].Resources["mana"] != before.Players[0].Resources["mana"] ||
		len(state.Players[0].Zones.Hand) != len(before.Players[0].Zones.Hand) {
		t.Fatalf("enforcement must not change the state")
	}
}

func TestProcessTriggers(t *testing.T) {
	engine := NewEngine(nil)
	state := newTestState(model.GameTypeTCG, model.GamePhase{Name: "Main"})
	state.Players[1].Zones.InPlay = []model.Card{{
		ID:   "watcher",
		Name: "Watcher",
		Abilities: []model.Ability{
			{Name: "On draw", Timing: "triggered", Conditions: []string{"DRAW"}},
			{Name: "Static", Timing: "static", Conditions: []string{"draw"}},
		},
	}}

	triggered := engine.ProcessTriggers(state, model.GameEvent{ID: "e1", Type: "draw_card"})
	if len(triggered) != 1 {
		t.Fatalf("expected 1 trigger, got %d", len(triggered))
	}
	if triggered[0].Type != string(EventTriggeredAbility) || triggered[0].PlayerID != "player_1" {
		t.Fatalf("unexpected trigger event %+v", triggered[0])
	}

	if got := engine.ProcessTriggers(state, model.GameEvent{Type: "attack"}); len(got) != 0 {
		t.Fatalf("expected no triggers for attack, got %d", len(got))
	}
}

func TestResolveEffects(t *testing.T) {
	engine := NewEngine(nil)
	state := newTestState(model.GameTypeTCG, model.GamePhase{Name: "Main"})

	effects := []model.ActionEffect{
		{
			Type:    model.EffectModifyResource,
			Targets: []model.ActionTarget{{Type: model.TargetPlayer, Value: "player_0"}},
			Value:   model.EffectValue{Resource: "mana", Amount: 3},
		},
		{
			Type:    model.EffectMoveCard,
			Targets: []model.ActionTarget{{Type: model.TargetCard, Value: "bolt"}, {Type: model.TargetCard, Value: "missing"}},
			Value:   model.EffectValue{FromZone: model.ZoneHand, ToZone: model.ZoneGraveyard, PlayerID: "player_0"},
		},
		{Type: model.EffectModifyStats},
		{Type: model.EffectCustom, Description: "unhandled"},
	}

	newState, err := engine.ResolveEffects(context.Background(), state, effects)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := newState.Players[0]
	if p.Resources["mana"] != 4 {
		t.Fatalf("expected mana 4, got %d", p.Resources["mana"])
	}
	if len(p.Zones.Hand) != 1 || len(p.Zones.Graveyard) != 1 || p.Zones.Graveyard[0].ID != "bolt" {
		t.Fatalf("expected bolt moved to graveyard, hand=%v graveyard=%v", p.Zones.Hand, p.Zones.Graveyard)
	}
	if state.Players[0].Resources["mana"] != 1 || len(state.Players[0].Zones.Hand) != 2 {
		t.Fatalf("input state must be untouched")
	}
}

type failingResolver struct{}

func (failingResolver) ResolveCustom(context.Context, *model.GameState, model.ActionEffect) error {
	return errors.New("boom")
}

func TestResolveEffectsCustomResolverError(t *testing.T) {
	engine := NewEngine(nil, WithCustomResolver(failingResolver{}))
	state := newTestState(model.GameTypeTCG, model.GamePhase{Name: "Main"})

	_, err := engine.ResolveEffects(context.Background(), state, []model.ActionEffect{{Type: model.EffectCustom, Description: "x"}})
	if err == nil {
		t.Fatalf("expected resolver error to propagate")
	}
}

func TestFamilyDefaults(t *testing.T) {
	registry := NewFamilyRegistry()

	if got := registry.For(model.GameTypeTCG).DefaultLife(); got != 20 {
		t.Fatalf("tcg life: expected 20, got %d", got)
	}
	if got := registry.For(model.GameTypeDeckbuilder).DefaultResources()["buys"]; got != 1 {
		t.Fatalf("deckbuilder buys: expected 1, got %d", got)
	}
	if got := registry.For(model.GameTypeTrickTaking).DefaultLife(); got != 10 {
		t.Fatalf("trick_taking life: expected 10, got %d", got)
	}
	if got := registry.For("unknown").Type(); got != model.GameTypeCustom {
		t.Fatalf("unknown type should fall back to custom, got %s", got)
	}
	if len(registry.For(model.GameTypePoker).DefaultTurnStructure()) == 0 {
		t.Fatalf("poker should provide a default turn structure")
	}
}
