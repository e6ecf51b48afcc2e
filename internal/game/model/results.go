package model

// GameActionResult is returned by action execution. Rejected actions are
// reported here rather than as Go errors.
type GameActionResult struct {
	Success  bool        `json:"success"`
	NewState *GameState  `json:"newState"`
	Events   []GameEvent `json:"events"`
	Errors   []string    `json:"errors,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
}

// ActionValidationResult collects every validation failure.
type ActionValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// WinConditionResult describes a finished game.
type WinConditionResult struct {
	Winner      *Player `json:"winner,omitempty"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	GameEnded   bool    `json:"gameEnded"`
}

// RuleEnforcementResult lists every violated rule, not just the first.
type RuleEnforcementResult struct {
	Allowed           bool           `json:"allowed"`
	Reasons           []string       `json:"reasons"`
	AdditionalEffects []ActionEffect `json:"additionalEffects,omitempty"`
}
