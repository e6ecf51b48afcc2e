package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tabletop-labs/cardengine/internal/game/model"
)

func sampleState() *model.GameState {
	alice := model.NewPlayer("player_0", "Alice")
	alice.SetLife(18)
	alice.Resources = model.Resources{"mana": 3}
	alice.Zones.Hand = []model.Card{{ID: "c1", Name: "Goblin", CardType: "creature", Costs: map[string]int{"mana": 1}}}
	alice.Zones.InPlay = []model.Card{{ID: "c2", Name: "Ogre", CardType: "creature", Stats: map[string]any{"power": 3, "toughness": 2}}}
	bob := model.NewPlayer("player_1", "Bob")
	bob.SetLife(20)

	return &model.GameState{
		ID:       "game_1",
		GameType: model.GameTypeTCG,
		Players:  []*model.Player{alice, bob},
		Phase:    model.GamePhase{Name: "Main"},
		Turn:     3,
	}
}

func sampleActions() []model.GameAction {
	return []model.GameAction{
		{ID: "a1", Type: model.ActionPassTurn, Description: "Pass turn"},
		{ID: "a2", Type: model.ActionDrawCard, Description: "Draw a card"},
		{ID: "a3", Type: model.ActionAttack, Description: "Attack with Ogre"},
		{ID: "a4", Type: model.ActionPlayCard, Description: "Play Goblin"},
	}
}

func decisionContext() DecisionContext {
	gs := sampleState()
	return DecisionContext{State: gs, Player: gs.Players[0], AvailableActions: sampleActions()}
}

func answer(text string, err error) Decider {
	return DeciderFunc(func(context.Context, DecisionRequest) (string, error) {
		return text, err
	})
}

func TestMakeDecisionParsesAnswer(t *testing.T) {
	var got DecisionRequest
	decider := DeciderFunc(func(_ context.Context, req DecisionRequest) (string, error) {
		got = req
		return "ACTION: 3\nREASONING: Ogre hits hard\nCONFIDENCE: 85", nil
	})
	p := NewPlayer(zap.NewNop(), decider, LookupPersonality("aggressive"))

	d := p.MakeDecision(context.Background(), decisionContext())
	require.NotNil(t, d.Action)
	assert.Equal(t, "a3", d.Action.ID)
	assert.Equal(t, "Ogre hits hard", d.Reasoning)
	assert.Equal(t, 85, d.Confidence)

	assert.Equal(t, 0.4, got.Temperature)
	assert.Equal(t, 500, got.MaxTokens)
	assert.Contains(t, got.System, "TCG games")
	assert.Contains(t, got.Prompt, "Name: Aggressive Annie")
	assert.Contains(t, got.Prompt, "3. Attack with Ogre (Type: attack)")
	assert.Contains(t, got.Prompt, "- Goblin (creature) Cost: 1 mana")
	assert.Contains(t, got.Prompt, "- Ogre (creature) 3/2")
	assert.Contains(t, got.Prompt, "ACTION: [number from 1-4]")
}

func TestParseDecision(t *testing.T) {
	actions := sampleActions()
	tests := []struct {
		name       string
		answer     string
		wantID     string
		reasoning  string
		confidence int
	}{
		{"multi-line reasoning", "ACTION: 2\nREASONING:\nneed cards\nto win\nCONFIDENCE: 40", "a2", "need cards to win", 40},
		{"out of range action", "ACTION: 9\nCONFIDENCE: 70", "a1", "AI decision", 70},
		{"clamped confidence", "ACTION: 4\nREASONING: go\nCONFIDENCE: 250", "a4", "go", 100},
		{"no fields", "I would rather not say", "a1", "AI decision", 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := parseDecision(tt.answer, actions)
			require.NotNil(t, d.Action)
			assert.Equal(t, tt.wantID, d.Action.ID)
			assert.Equal(t, tt.reasoning, d.Reasoning)
			assert.Equal(t, tt.confidence, d.Confidence)
		})
	}
}

func TestMakeDecisionFallback(t *testing.T) {
	tests := []struct {
		name    string
		decider Decider
	}{
		{"nil decider", nil},
		{"backend error", answer("", errors.New("timeout"))},
		{"empty answer", answer("   ", nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlayer(nil, tt.decider, LookupPersonality("balanced"))
			d := p.MakeDecision(context.Background(), decisionContext())
			require.NotNil(t, d.Action)
			assert.Equal(t, model.ActionPlayCard, d.Action.Type)
			assert.Equal(t, 30, d.Confidence)
		})
	}
}

func TestFallbackDecisionPriority(t *testing.T) {
	actions := sampleActions()

	d := fallbackDecision(actions[:3])
	assert.Equal(t, model.ActionAttack, d.Action.Type)
	d = fallbackDecision(actions[:2])
	assert.Equal(t, model.ActionDrawCard, d.Action.Type)
	d = fallbackDecision(actions[:1])
	assert.Equal(t, model.ActionPassTurn, d.Action.Type)

	d = fallbackDecision([]model.GameAction{{ID: "x", Type: "ritual"}})
	assert.Equal(t, "x", d.Action.ID)
	assert.Equal(t, 10, d.Confidence)

	d = fallbackDecision(nil)
	assert.Nil(t, d.Action)
	assert.Equal(t, 0, d.Confidence)
}

func TestAnalyzeGameState(t *testing.T) {
	p := NewPlayer(nil, nil, LookupPersonality(""))
	gs := sampleState()
	gs.Players[1].Life = nil

	analysis := p.AnalyzeGameState(gs, "player_0")
	lines := strings.Split(analysis, "\n")
	assert.Equal(t, []string{
		"Turn 3, Main phase",
		"Life: 18",
		"Hand: 1 cards",
		"Deck: 0 cards",
		"In play: 1 cards",
		"Resources: mana: 3",
		"Bob: N/A life, 0 hand, 0 in play",
	}, lines)

	assert.Equal(t, "Player not found", p.AnalyzeGameState(gs, "ghost"))
}

func TestUpdateGameKnowledge(t *testing.T) {
	p := NewPlayer(nil, nil, LookupPersonality("control"))
	gs := sampleState()

	p.UpdateGameKnowledge(gs, &model.GameAction{Type: model.ActionAttack, PlayerID: "player_1"})
	p.UpdateGameKnowledge(gs, &model.GameAction{Type: model.ActionAttack, PlayerID: "player_1"})
	p.UpdateGameKnowledge(gs, &model.GameAction{Type: model.ActionPassTurn, PlayerID: "player_1"})
	p.UpdateGameKnowledge(gs, nil)

	k, ok := p.Knowledge("game_1")
	require.True(t, ok)
	assert.True(t, k.CardsSeen["Ogre:creature"])
	assert.Equal(t, 2, k.Patterns["player_1"].AggressiveActions)
	assert.Equal(t, 1, k.Patterns["player_1"].DefensiveActions)

	_, ok = p.Knowledge("other")
	assert.False(t, ok)
}

func TestPersonalities(t *testing.T) {
	assert.Equal(t, []string{"aggressive", "balanced", "chaotic", "control", "efficient"}, PersonalityKeys())
	assert.Equal(t, "Balanced Beth", LookupPersonality("unknown").Name)
	assert.Equal(t, "Chaotic Charlie", LookupPersonality(" Chaotic ").Name)

	all := Personalities()
	delete(all, "chaotic")
	assert.Len(t, Personalities(), 5)
}
