package script

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tabletop-labs/cardengine/internal/game/model"
)

const gainScript = `
function run(ctx)
  local mana = ctx.resources.mana or 0
  return {
    resources = { mana = 2, gold = ctx.amount },
    life = -1,
    log = ctx.player_id .. " had " .. mana,
  }
end
`

func TestRegisterRejectsBadSource(t *testing.T) {
	r := NewRegistry(zap.NewNop(), 0)
	assert.Error(t, r.Register("broken", "function run(ctx"))
	assert.Error(t, r.Register("", "x = 1"))
	assert.False(t, r.Has("broken"))
}

func TestRunReturnsOutcome(t *testing.T) {
	r := NewRegistry(nil, 0)
	require.NoError(t, r.Register("gain", gainScript))

	out, err := r.Run(context.Background(), "gain", Input{
		PlayerID:  "player_0",
		Resources: map[string]int{"mana": 3},
		Amount:    5,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Resources["mana"])
	assert.Equal(t, 5, out.Resources["gold"])
	assert.Equal(t, -1, out.Life)
	assert.Equal(t, "player_0 had 3", out.Log)
	assert.False(t, out.Empty())
}

func TestRunWithoutRunFunction(t *testing.T) {
	r := NewRegistry(nil, 0)
	require.NoError(t, r.Register("noop", "x = 1"))
	_, err := r.Run(context.Background(), "noop", Input{})
	assert.ErrorContains(t, err, "does not define run")

	_, err = r.Run(context.Background(), "missing", Input{})
	assert.Error(t, err)
}

func TestRunNilReturnIsEmpty(t *testing.T) {
	r := NewRegistry(nil, 0)
	require.NoError(t, r.Register("quiet", "function run(ctx) end"))
	out, err := r.Run(context.Background(), "quiet", Input{})
	require.NoError(t, err)
	assert.True(t, out.Empty())
}

func TestSandboxBlocksFileAccess(t *testing.T) {
	r := NewRegistry(nil, 0)
	require.NoError(t, r.Register("escape", `function run(ctx) return dofile("/etc/passwd") end`))
	_, err := r.Run(context.Background(), "escape", Input{})
	assert.Error(t, err)

	require.NoError(t, r.Register("os", `function run(ctx) return os.exit(1) end`))
	_, err = r.Run(context.Background(), "os", Input{})
	assert.Error(t, err)
}

func TestRunTimesOut(t *testing.T) {
	r := NewRegistry(nil, 20*time.Millisecond)
	require.NoError(t, r.Register("spin", "function run(ctx) while true do end end"))
	_, err := r.Run(context.Background(), "spin", Input{})
	assert.Error(t, err)
}

func TestApplyModifiesPlayer(t *testing.T) {
	r := NewRegistry(nil, 0)
	require.NoError(t, r.Register("gain", gainScript))

	p := model.NewPlayer("player_0", "Alice")
	p.SetLife(10)
	p.Resources["mana"] = 1

	_, err := r.Apply(context.Background(), "gain", p, "ritual")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Resources["mana"])
	assert.Equal(t, 0, p.Resources["gold"])
	assert.Equal(t, 9, p.LifeTotal())
}

func TestResolveCustomTargetsNamedPlayer(t *testing.T) {
	r := NewRegistry(nil, 0)
	require.NoError(t, r.Register("drain", `function run(ctx) return { life = -ctx.amount } end`))

	p0 := model.NewPlayer("player_0", "Alice")
	p0.SetLife(20)
	p1 := model.NewPlayer("player_1", "Bob")
	p1.SetLife(20)
	state := &model.GameState{ID: "g1", Players: []*model.Player{p0, p1}}

	err := r.ResolveCustom(context.Background(), state, model.ActionEffect{
		Type:  model.EffectCustom,
		Value: model.EffectValue{Script: "drain", PlayerID: "player_1", Amount: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, 16, p1.LifeTotal())
	assert.Equal(t, 20, p0.LifeTotal())

	// Unknown scripts are skipped.
	require.NoError(t, r.ResolveCustom(context.Background(), state, model.ActionEffect{
		Type:  model.EffectCustom,
		Value: model.EffectValue{Script: "unknown"},
	}))
}

func TestRegisterAllAndNames(t *testing.T) {
	r := NewRegistry(nil, 0)
	require.NoError(t, r.RegisterAll(map[string]string{
		"b": "function run(ctx) end",
		"a": "function run(ctx) end",
	}))
	assert.Equal(t, []string{"a", "b"}, r.Names())
}
