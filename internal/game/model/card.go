package model

import (
	"strconv"
	"strings"
)

// Card is a parsed card as consumed by the engine. Only ID, CardType, Costs
// and Stats carry engine semantics; everything else is passed through.
type Card struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	GameType    GameType       `json:"gameType,omitempty"`
	CardType    string         `json:"cardType"`
	Properties  []CardProperty `json:"properties,omitempty"`
	Stats       map[string]any `json:"stats,omitempty"`
	Abilities   []Ability      `json:"abilities,omitempty"`
	Costs       map[string]int `json:"costs,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Keywords    []string       `json:"keywords,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// CardProperty is a named, typed attribute of a card.
type CardProperty struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value any    `json:"value,omitempty"`
}

// Ability describes a card ability. Timing "triggered" marks abilities that
// react to events whose type contains one of Conditions.
type Ability struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Cost        string   `json:"cost,omitempty"`
	Timing      string   `json:"timing,omitempty"`
	Conditions  []string `json:"conditions,omitempty"`
}

// CardCollection is a deck or card pool.
type CardCollection struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	GameType GameType       `json:"gameType,omitempty"`
	Cards    []Card         `json:"cards"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Stat returns the named stat as an integer. Numeric strings are accepted.
func (c *Card) Stat(name string) (int, bool) {
	raw, ok := c.Stats[name]
	if !ok || raw == nil {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case float32:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// Power returns the card's power stat.
func (c *Card) Power() (int, bool) {
	return c.Stat("power")
}

// IsType reports whether the card type matches t, ignoring case.
func (c *Card) IsType(t string) bool {
	return strings.EqualFold(c.CardType, t)
}
