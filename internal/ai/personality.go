// Package ai drives computer-controlled players. Decisions come from an
// optional text-completion backend with a rule-based fallback.
package ai

import (
	"sort"
	"strings"
)

// Traits are behavioral weights in the range 0..1.
type Traits struct {
	Aggressiveness   float64 `json:"aggressiveness"`
	Patience         float64 `json:"patience"`
	Efficiency       float64 `json:"efficiency"`
	Unpredictability float64 `json:"unpredictability"`
}

// Personality names a playing style.
type Personality struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Traits      Traits `json:"traits"`
}

// DefaultPersonality is used for unknown preset names.
const DefaultPersonality = "balanced"

var presets = map[string]Personality{
	"aggressive": {
		Name:        "Aggressive Annie",
		Description: "Plays aggressively, favors attacking and high-risk moves",
		Traits:      Traits{Aggressiveness: 0.9, Patience: 0.2, Efficiency: 0.6, Unpredictability: 0.4},
	},
	"control": {
		Name:        "Control Carl",
		Description: "Patient player who waits for optimal opportunities",
		Traits:      Traits{Aggressiveness: 0.3, Patience: 0.9, Efficiency: 0.8, Unpredictability: 0.2},
	},
	"balanced": {
		Name:        "Balanced Beth",
		Description: "Well-rounded player with moderate traits",
		Traits:      Traits{Aggressiveness: 0.5, Patience: 0.5, Efficiency: 0.7, Unpredictability: 0.3},
	},
	"chaotic": {
		Name:        "Chaotic Charlie",
		Description: "Unpredictable player who makes surprising moves",
		Traits:      Traits{Aggressiveness: 0.6, Patience: 0.4, Efficiency: 0.4, Unpredictability: 0.9},
	},
	"efficient": {
		Name:        "Efficient Emma",
		Description: "Highly strategic player who optimizes every move",
		Traits:      Traits{Aggressiveness: 0.4, Patience: 0.6, Efficiency: 0.95, Unpredictability: 0.1},
	},
}

// LookupPersonality returns the preset with the given key, falling back to
// the balanced preset.
func LookupPersonality(key string) Personality {
	if p, ok := presets[strings.ToLower(strings.TrimSpace(key))]; ok {
		return p
	}
	return presets[DefaultPersonality]
}

// Personalities returns a copy of the presets keyed by name.
func Personalities() map[string]Personality {
	out := make(map[string]Personality, len(presets))
	for k, v := range presets {
		out[k] = v
	}
	return out
}

// PersonalityKeys returns the preset keys in lexical order.
func PersonalityKeys() []string {
	keys := make([]string, 0, len(presets))
	for k := range presets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
