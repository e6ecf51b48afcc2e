// Package script runs Lua extensions for custom actions and effects.
//
// A script must define a global function run(ctx). ctx is a table with
// action_type, player_id, life, amount, resource and resources fields. The
// function may return a table {resources = {name = delta}, life = delta,
// log = "..."} which is applied to the acting player.
package script

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"

	"github.com/tabletop-labs/cardengine/internal/game/model"
	"github.com/tabletop-labs/cardengine/internal/game/resources"
)

// DefaultTimeout bounds a single script run.
const DefaultTimeout = 250 * time.Millisecond

// Input is what a script sees.
type Input struct {
	ActionType string
	PlayerID   string
	Life       *int
	Resources  map[string]int
	Amount     int
	Resource   string
}

// Outcome is what a script asked for.
type Outcome struct {
	Resources map[string]int
	Life      int
	Log       string
}

// Empty reports whether the outcome changes nothing.
func (o Outcome) Empty() bool {
	return len(o.Resources) == 0 && o.Life == 0
}

// Registry holds compiled scripts by name. Names are action types for custom
// actions and EffectValue.Script for custom effects.
type Registry struct {
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.RWMutex
	scripts map[string]*lua.FunctionProto
}

// NewRegistry creates an empty registry. A zero timeout uses DefaultTimeout.
func NewRegistry(logger *zap.Logger, timeout time.Duration) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Registry{
		logger:  logger,
		timeout: timeout,
		scripts: make(map[string]*lua.FunctionProto),
	}
}

// Register compiles source and stores it under name, replacing any previous
// script with that name.
func (r *Registry) Register(name, source string) error {
	if name == "" {
		return fmt.Errorf("script name is required")
	}
	chunk, err := parse.Parse(strings.NewReader(source), name)
	if err != nil {
		return fmt.Errorf("failed to parse script %s: %w", name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return fmt.Errorf("failed to compile script %s: %w", name, err)
	}

	r.mu.Lock()
	r.scripts[name] = proto
	r.mu.Unlock()

	r.logger.Debug("registered script", zap.String("name", name))
	return nil
}

// RegisterAll registers every entry of sources.
func (r *Registry) RegisterAll(sources map[string]string) error {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := r.Register(name, sources[name]); err != nil {
			return err
		}
	}
	return nil
}

// Has reports whether a script is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.scripts[name]
	return ok
}

// Names returns registered script names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.scripts))
	for name := range r.scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the named script in a fresh sandbox.
func (r *Registry) Run(ctx context.Context, name string, in Input) (Outcome, error) {
	r.mu.RLock()
	proto, ok := r.scripts[name]
	r.mu.RUnlock()
	if !ok {
		return Outcome{}, fmt.Errorf("no script registered for %s", name)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	L, err := newSandbox()
	if err != nil {
		return Outcome{}, err
	}
	defer L.Close()
	L.SetContext(ctx)

	L.Push(L.NewFunctionFromProto(proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return Outcome{}, fmt.Errorf("script %s failed to load: %w", name, err)
	}

	run, ok := L.GetGlobal("run").(*lua.LFunction)
	if !ok {
		return Outcome{}, fmt.Errorf("script %s does not define run", name)
	}
	if err := L.CallByParam(lua.P{Fn: run, NRet: 1, Protect: true}, inputTable(L, in)); err != nil {
		return Outcome{}, fmt.Errorf("script %s failed: %w", name, err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	return decodeOutcome(ret)
}

// Apply runs the named script for player and applies its outcome.
func (r *Registry) Apply(ctx context.Context, name string, player *model.Player, actionType string) (Outcome, error) {
	in := Input{
		ActionType: actionType,
		PlayerID:   player.ID,
		Life:       player.Life,
		Resources:  player.Resources,
	}
	out, err := r.Run(ctx, name, in)
	if err != nil {
		return Outcome{}, err
	}
	applyOutcome(player, out)
	if out.Log != "" {
		r.logger.Info("script", zap.String("name", name), zap.String("player_id", player.ID), zap.String("log", out.Log))
	}
	return out, nil
}

// ResolveCustom resolves a custom effect by running the script named in
// effect.Value.Script against effect.Value.PlayerID, or the current player
// when none is named.
func (r *Registry) ResolveCustom(ctx context.Context, state *model.GameState, effect model.ActionEffect) error {
	name := effect.Value.Script
	if name == "" {
		name = effect.Description
	}
	if !r.Has(name) {
		r.logger.Warn("custom effect has no script", zap.String("game_id", state.ID), zap.String("script", name))
		return nil
	}

	player := state.CurrentPlayer()
	if effect.Value.PlayerID != "" {
		player, _ = state.Player(effect.Value.PlayerID)
	}
	if player == nil {
		return fmt.Errorf("custom effect %s has no target player", name)
	}

	out, err := r.Run(ctx, name, Input{
		ActionType: string(model.EffectCustom),
		PlayerID:   player.ID,
		Life:       player.Life,
		Resources:  player.Resources,
		Amount:     effect.Value.Amount,
		Resource:   effect.Value.Resource,
	})
	if err != nil {
		return err
	}
	applyOutcome(player, out)
	return nil
}

func applyOutcome(player *model.Player, out Outcome) {
	if len(out.Resources) > 0 && player.Resources == nil {
		player.Resources = model.Resources{}
	}
	for _, name := range resources.SortedKeys(out.Resources) {
		resources.Add(player.Resources, name, out.Resources[name])
	}
	if out.Life != 0 {
		player.SetLife(player.LifeTotal() + out.Life)
	}
}

func newSandbox() (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{Fn: L.NewFunction(lib.fn), NRet: 0, Protect: true}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("failed to open lua library %s: %w", lib.name, err)
		}
	}
	for _, unsafe := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(unsafe, lua.LNil)
	}
	return L, nil
}

func inputTable(L *lua.LState, in Input) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("action_type", lua.LString(in.ActionType))
	t.RawSetString("player_id", lua.LString(in.PlayerID))
	if in.Life != nil {
		t.RawSetString("life", lua.LNumber(*in.Life))
	}
	t.RawSetString("amount", lua.LNumber(in.Amount))
	t.RawSetString("resource", lua.LString(in.Resource))

	res := L.NewTable()
	for name, v := range in.Resources {
		res.RawSetString(name, lua.LNumber(v))
	}
	t.RawSetString("resources", res)
	return t
}

func decodeOutcome(v lua.LValue) (Outcome, error) {
	out := Outcome{Resources: map[string]int{}}
	if v == lua.LNil {
		return out, nil
	}
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return out, fmt.Errorf("script returned %s, want table", v.Type())
	}

	if res, ok := tbl.RawGetString("resources").(*lua.LTable); ok {
		var bad error
		res.ForEach(func(k, val lua.LValue) {
			n, ok := val.(lua.LNumber)
			if !ok {
				bad = fmt.Errorf("resource %s delta is %s, want number", k.String(), val.Type())
				return
			}
			out.Resources[k.String()] = int(n)
		})
		if bad != nil {
			return out, bad
		}
	}
	if life, ok := tbl.RawGetString("life").(lua.LNumber); ok {
		out.Life = int(life)
	}
	if msg, ok := tbl.RawGetString("log").(lua.LString); ok {
		out.Log = string(msg)
	}
	return out, nil
}
