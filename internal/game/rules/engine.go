package rules

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tabletop-labs/cardengine/internal/game/model"
)

// CustomResolver resolves effects of type custom. The state passed in is a
// clone the resolver may mutate.
type CustomResolver interface {
	ResolveCustom(ctx context.Context, state *model.GameState, effect model.ActionEffect) error
}

// Engine evaluates rules against a state. It holds no game state of its own.
type Engine struct {
	logger   *zap.Logger
	families *FamilyRegistry
	custom   CustomResolver
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithFamilies replaces the family registry.
func WithFamilies(r *FamilyRegistry) Option {
	return func(e *Engine) {
		if r != nil {
			e.families = r
		}
	}
}

// WithCustomResolver installs a resolver for custom effects.
func WithCustomResolver(c CustomResolver) Option {
	return func(e *Engine) {
		e.custom = c
	}
}

// NewEngine creates a rule engine.
func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger:   logger,
		families: NewFamilyRegistry(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Family returns the family strategy for a game type.
func (e *Engine) Family(gt model.GameType) Family {
	return e.families.For(gt)
}

// EnforceRules checks timing, costs, requirements and family rules in that
// order, collecting every violation. Effects declared on the action are never
// echoed back: a request cannot grant itself effects, so AdditionalEffects is
// always empty.
func (e *Engine) EnforceRules(state *model.GameState, action *model.GameAction) model.RuleEnforcementResult {
	result := model.RuleEnforcementResult{
		Allowed:           true,
		Reasons:           []string{},
		AdditionalEffects: []model.ActionEffect{},
	}
	deny := func(reason string) {
		result.Allowed = false
		result.Reasons = append(result.Reasons, reason)
	}

	if !e.CheckTimingRules(state, action) {
		deny("Action not allowed at this time")
	}

	player, _ := state.Player(action.PlayerID)
	for _, failure := range CheckCosts(player, action.Costs) {
		deny(failure.Reason)
	}

	for _, req := range action.Requirements {
		if check := CheckRequirement(player, req); !check.Legal {
			deny(fmt.Sprintf("Requirement not met: %s", req.Condition))
		}
	}

	for _, reason := range e.Family(state.GameType).CheckAction(state, action) {
		deny(reason)
	}

	return result
}

// CheckTimingRules reports whether it is the acting player's turn, the phase
// allows the action type, and the family timing rules permit it. PASS_TURN is
// allowed in every phase.
func (e *Engine) CheckTimingRules(state *model.GameState, action *model.GameAction) bool {
	current := state.CurrentPlayer()
	if current == nil || current.ID != action.PlayerID {
		return false
	}
	if action.Type != model.ActionPassTurn && !state.Phase.Allows(action.Type) {
		return false
	}
	return e.Family(state.GameType).CheckTiming(state, action)
}

// ProcessTriggers returns one triggered_ability event per in-play ability
// whose conditions match the event type.
func (e *Engine) ProcessTriggers(state *model.GameState, event model.GameEvent) []model.GameEvent {
	triggered := collectTriggers(state, event, e.now())
	if len(triggered) > 0 {
		e.logger.Debug("abilities triggered",
			zap.String("game_id", state.ID),
			zap.String("event_type", event.Type),
			zap.Int("count", len(triggered)),
		)
	}
	return triggered
}

// ResolveEffects applies effects in order to a clone of state and returns it.
// modify_stats and trigger_ability are accepted without changing the state;
// custom effects go to the configured resolver when one is installed.
func (e *Engine) ResolveEffects(ctx context.Context, state *model.GameState, effects []model.ActionEffect) (*model.GameState, error) {
	newState := state.Clone()

	for _, effect := range effects {
		switch effect.Type {
		case model.EffectModifyResource:
			resolveResourceModification(newState, effect)
		case model.EffectMoveCard:
			resolveCardMovement(newState, effect)
		case model.EffectModifyStats, model.EffectTriggerAbility:
			e.logger.Debug("effect passed through",
				zap.String("game_id", newState.ID),
				zap.String("effect_type", string(effect.Type)),
			)
		case model.EffectCustom:
			if e.custom == nil {
				e.logger.Warn("custom effect resolution not implemented",
					zap.String("game_id", newState.ID),
					zap.String("description", effect.Description),
				)
				continue
			}
			if err := e.custom.ResolveCustom(ctx, newState, effect); err != nil {
				return nil, fmt.Errorf("failed to resolve custom effect %q: %w", effect.Description, err)
			}
		default:
			e.logger.Warn("unknown effect type",
				zap.String("game_id", newState.ID),
				zap.String("effect_type", string(effect.Type)),
			)
		}
	}

	return newState, nil
}

func resolveResourceModification(state *model.GameState, effect model.ActionEffect) {
	if effect.Value.Resource == "" {
		return
	}
	for _, target := range effect.Targets {
		if target.Type != model.TargetPlayer {
			continue
		}
		player, _ := state.Player(target.Value)
		if player == nil {
			continue
		}
		if player.Resources == nil {
			player.Resources = model.Resources{}
		}
		player.Resources[effect.Value.Resource] += effect.Value.Amount
	}
}

// resolveCardMovement moves each targeted card between two zones of one
// player. Cards not found in the source zone are skipped.
func resolveCardMovement(state *model.GameState, effect model.ActionEffect) {
	player, _ := state.Player(effect.Value.PlayerID)
	if player == nil {
		return
	}
	for _, target := range effect.Targets {
		if target.Type != model.TargetCard {
			continue
		}
		from, ok := player.Zones.Zone(effect.Value.FromZone)
		if !ok {
			continue
		}
		idx := -1
		for i := range from {
			if from[i].ID == target.Value {
				idx = i
				break
			}
		}
		if idx == -1 {
			continue
		}
		card := from[idx]
		remaining := append(append([]model.Card{}, from[:idx]...), from[idx+1:]...)
		player.Zones.SetZone(effect.Value.FromZone, remaining)

		to, _ := player.Zones.Zone(effect.Value.ToZone)
		player.Zones.SetZone(effect.Value.ToZone, append(to, card))
	}
}
