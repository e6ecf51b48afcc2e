package state

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tabletop-labs/cardengine/internal/game/model"
)

func newState(id string, turn int) *model.GameState {
	p0 := model.NewPlayer("player_0", "Alice")
	p0.SetLife(20)
	p0.Resources["mana"] = 2
	p0.Zones.Hand = []model.Card{{ID: "a"}, {ID: "b"}}
	p0.Zones.Deck = []model.Card{{ID: "c"}}
	p1 := model.NewPlayer("player_1", "Bob")
	p1.SetLife(20)
	now := time.Now()
	return &model.GameState{
		ID:         id,
		GameType:   model.GameTypeTCG,
		Rules:      &model.UniversalGameRules{TurnStructure: []model.TurnPhase{{Name: "Main"}}},
		Players:    []*model.Player{p0, p1},
		Phase:      model.GamePhase{Name: "Main"},
		Turn:       turn,
		GameStatus: model.StatusActive,
		Metadata:   model.GameMetadata{StartTime: now, LastActionTime: now},
	}
}

func TestSaveAndLoadState(t *testing.T) {
	ctx := context.Background()
	m := NewManager(zap.NewNop(), Options{})

	s := newState("g1", 1)
	require.NoError(t, m.SaveState(ctx, s))

	s.Turn = 99
	loaded, err := m.LoadState(ctx, "g1", nil)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 1, loaded.Turn, "saved snapshot must be isolated from later mutation")

	loaded.Players[0].Resources["mana"] = 0
	again, err := m.LoadState(ctx, "g1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Players[0].Resources["mana"], "loaded copy must be isolated from the store")
}

func TestLoadStateVersions(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil, Options{})
	for turn := 1; turn <= 3; turn++ {
		require.NoError(t, m.SaveState(ctx, newState("g1", turn)))
	}

	v := 1
	loaded, err := m.LoadState(ctx, "g1", &v)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Turn)

	v = 5
	loaded, err = m.LoadState(ctx, "g1", &v)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	loaded, err = m.LoadState(ctx, "missing", nil)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestHistoryCapDropsOldest(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil, Options{MaxHistory: 100})
	for turn := 1; turn <= 105; turn++ {
		require.NoError(t, m.SaveState(ctx, newState("g1", turn)))
	}

	history, err := m.GetStateHistory(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, history, 100)
	assert.Equal(t, 6, history[0].Turn)
	assert.Equal(t, 105, history[99].Turn)
}

func TestRevertToState(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil, Options{})
	for turn := 1; turn <= 4; turn++ {
		require.NoError(t, m.SaveState(ctx, newState("g1", turn)))
	}

	reverted, err := m.RevertToState(ctx, "g1", 1)
	require.NoError(t, err)
	require.NotNil(t, reverted)
	assert.Equal(t, 2, reverted.Turn)
	assert.Equal(t, 2, m.Versions("g1"))

	reverted, err = m.RevertToState(ctx, "g1", 7)
	require.NoError(t, err)
	assert.Nil(t, reverted)
	reverted, err = m.RevertToState(ctx, "g1", -1)
	require.NoError(t, err)
	assert.Nil(t, reverted)
}

func TestSaveStateRejectsInvalid(t *testing.T) {
	m := NewManager(nil, Options{})
	assert.Error(t, m.SaveState(context.Background(), nil))
	assert.Error(t, m.SaveState(context.Background(), &model.GameState{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.SaveState(ctx, newState("g", 1)), context.Canceled)
}

func TestForget(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil, Options{})
	require.NoError(t, m.SaveState(ctx, newState("g1", 1)))
	m.Forget("g1")
	assert.Equal(t, 0, m.Versions("g1"))
}

func TestValidateState(t *testing.T) {
	m := NewManager(nil, Options{})

	result := m.ValidateState(newState("g1", 1))
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)

	broken := &model.GameState{
		Players:            []*model.Player{{Name: "", Zones: model.PlayerZones{Hand: []model.Card{{ID: "x"}}, Deck: []model.Card{{ID: "x"}}}}},
		CurrentPlayerIndex: 3,
	}
	result = m.ValidateState(broken)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Game state missing ID")
	assert.Contains(t, result.Errors, "Game state missing rules")
	assert.Contains(t, result.Errors, "Player 0 missing ID")
	assert.Contains(t, result.Errors, "Player 0 missing name")
	assert.Contains(t, result.Errors, "Player 0 missing resources")
	assert.Contains(t, result.Errors, "Current player index out of bounds")
	assert.Contains(t, result.Warnings, "Player  missing graveyard zone")
	assert.Contains(t, result.Warnings, "Player  missing in-play zone")
	assert.Contains(t, result.Warnings, "Player  has duplicate cards: x")
}

func TestCreateSnapshot(t *testing.T) {
	m := NewManager(nil, Options{})
	snap := m.CreateSnapshot(newState("g1", 3))

	assert.Equal(t, "g1", snap.GameID)
	assert.Equal(t, 3, snap.Turn)
	assert.Equal(t, "player_0", snap.CurrentPlayer)
	require.Len(t, snap.PlayerStates, 2)
	assert.Equal(t, 2, snap.PlayerStates[0].HandSize)
	assert.Equal(t, 1, snap.PlayerStates[0].DeckSize)
	assert.Equal(t, 20, *snap.PlayerStates[0].Life)
}

func TestCompareStates(t *testing.T) {
	m := NewManager(nil, Options{})
	a := newState("g1", 1)
	b := a.Clone()

	diff := m.CompareStates(a, b)
	assert.False(t, diff.HasDifferences)
	assert.Empty(t, diff.Differences)

	b.Turn = 2
	b.Phase.Name = "Combat"
	b.CurrentPlayerIndex = 1
	b.Players[1].SetLife(17)
	b.Players[0].Resources["mana"] = 0
	b.Players[0].Zones.Hand = b.Players[0].Zones.Hand[:1]

	diff = m.CompareStates(a, b)
	assert.True(t, diff.HasDifferences)
	assert.Contains(t, diff.Differences, "Turn changed: 1 → 2")
	assert.Contains(t, diff.Differences, "Phase changed: Main → Combat")
	assert.Contains(t, diff.Differences, "Current player changed: 0 → 1")
	assert.Contains(t, diff.Differences, "Bob life: 20 → 17")
	assert.Contains(t, diff.Differences, "Alice mana: 2 → 0")
	assert.Contains(t, diff.Differences, "Alice hand: 2 → 1 cards")
	assert.Equal(t, 3, diff.SignificantChanges)
}

func TestOptimizeState(t *testing.T) {
	m := NewManager(nil, Options{OptimizeKeep: 50})
	s := newState("g1", 1)
	for i := 0; i < 60; i++ {
		s.History = append(s.History, model.GameEvent{ID: fmt.Sprintf("e%d", i)})
	}
	s.Players[0].Resources["energy"] = 0
	s.Players[0].Zones.Exile = []model.Card{}
	s.Players[0].Zones.SetZone("reserve", []model.Card{})

	out := m.OptimizeState(s)
	require.Len(t, out.History, 50)
	assert.Equal(t, "e10", out.History[0].ID)
	assert.NotContains(t, out.Players[0].Resources, "energy")
	assert.Contains(t, out.Players[0].Resources, "mana")
	assert.Nil(t, out.Players[0].Zones.Exile)
	assert.Nil(t, out.Players[0].Zones.Custom)
	assert.NotNil(t, out.Players[0].Zones.Graveyard, "required zones stay even when empty")

	assert.Len(t, s.History, 60, "input must not be modified")
}

func TestChecksum(t *testing.T) {
	a := newState("g1", 1)
	b := a.Clone()
	b.Metadata.LastActionTime = b.Metadata.LastActionTime.Add(time.Hour)

	sumA, err := Checksum(a)
	require.NoError(t, err)
	sumB, err := Checksum(b)
	require.NoError(t, err)
	assert.Equal(t, sumA, sumB, "timestamps are excluded")
	assert.Len(t, sumA, 64)

	b.Players[0].Resources["mana"] = 1
	sumC, err := Checksum(b)
	require.NoError(t, err)
	assert.NotEqual(t, sumA, sumC)

	_, err = Checksum(nil)
	assert.Error(t, err)
}

func TestChecksumTreatsNilAndEmptyExileAlike(t *testing.T) {
	a := newState("g1", 1)
	a.Players[0].Zones.Exile = nil
	b := a.Clone()
	b.Players[0].Zones.Exile = []model.Card{}

	sumA, err := Checksum(a)
	require.NoError(t, err)
	sumB, err := Checksum(b)
	require.NoError(t, err)
	assert.Equal(t, sumA, sumB)

	b.Players[0].Zones.Exile = []model.Card{{ID: "gone"}}
	sumC, err := Checksum(b)
	require.NoError(t, err)
	assert.NotEqual(t, sumA, sumC)
}
