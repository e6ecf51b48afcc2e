package model

import "time"

// GameAction is a proposed or recorded move. Execution never mutates it.
type GameAction struct {
	ID           string              `json:"id"`
	Type         ActionType          `json:"type"`
	PlayerID     string              `json:"playerId"`
	Description  string              `json:"description,omitempty"`
	Targets      []ActionTarget      `json:"targets,omitempty"`
	Costs        map[string]int      `json:"costs,omitempty"`
	Requirements []ActionRequirement `json:"requirements,omitempty"`
	Effects      []ActionEffect      `json:"effects,omitempty"`
	Timestamp    time.Time           `json:"timestamp"`
}

// ActionTarget references a card, player, zone, number or choice.
type ActionTarget struct {
	Type     TargetType `json:"type"`
	Value    string     `json:"value"`
	Optional bool       `json:"optional,omitempty"`
}

// FirstTarget returns the value of the first target of type t.
func (a *GameAction) FirstTarget(t TargetType) (string, bool) {
	for _, target := range a.Targets {
		if target.Type == t {
			return target.Value, true
		}
	}
	return "", false
}

// ActionRequirement is a precondition evaluated against the acting player.
type ActionRequirement struct {
	Type      RequirementType `json:"type"`
	Condition string          `json:"condition"`
	Value     int             `json:"value,omitempty"`
}

// ActionEffect is a declarative post-action state change.
type ActionEffect struct {
	Type        EffectType     `json:"type"`
	Description string         `json:"description,omitempty"`
	Targets     []ActionTarget `json:"targets,omitempty"`
	Value       EffectValue    `json:"value"`
	Duration    string         `json:"duration,omitempty"`
}

// EffectValue is the payload of an ActionEffect. Which fields are read
// depends on the effect type.
type EffectValue struct {
	Resource string         `json:"resource,omitempty"`
	Amount   int            `json:"amount,omitempty"`
	FromZone string         `json:"fromZone,omitempty"`
	ToZone   string         `json:"toZone,omitempty"`
	PlayerID string         `json:"playerId,omitempty"`
	Script   string         `json:"script,omitempty"`
	Stats    map[string]any `json:"stats,omitempty"`
}

// GameEvent is an immutable history record.
type GameEvent struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	PlayerID  string      `json:"playerId,omitempty"`
	Action    *GameAction `json:"action,omitempty"`
	Result    any         `json:"result,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
