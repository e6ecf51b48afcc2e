package model

// UniversalGameRules is the structured rule set produced by the parser. It is
// immutable for the life of a game.
type UniversalGameRules struct {
	GameType          GameType         `json:"gameType"`
	GameSetup         GameSetup        `json:"gameSetup"`
	PlayerCount       PlayerCount      `json:"playerCount"`
	CardProperties    []string         `json:"cardProperties,omitempty"`
	TurnStructure     []TurnPhase      `json:"turnStructure"`
	ActionRules       []ActionRule     `json:"actionRules,omitempty"`
	WinConditions     []WinCondition   `json:"winConditions"`
	Keywords          []string         `json:"keywords,omitempty"`
	StateBasedActions []string         `json:"stateBasedActions,omitempty"`
	TimingRules       []string         `json:"timingRules,omitempty"`
	Extensions        map[string]any   `json:"extensions,omitempty"`
	ResourceSystems   []ResourceSystem `json:"resourceSystems,omitempty"`
}

// GameSetup describes initial conditions declared by the rules.
type GameSetup struct {
	StartingResources map[string]int `json:"startingResources,omitempty"`
	StartingHandSize  *int           `json:"startingHandSize,omitempty"`
	DeckSize          int            `json:"deckSize,omitempty"`
}

// PlayerCount bounds the number of participants.
type PlayerCount struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// TurnPhase is one entry of the rules' turn structure. Actions holds tokens
// such as "draw" or "play"; unknown tokens become custom action types.
type TurnPhase struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Actions     []string `json:"actions"`
	Optional    bool     `json:"optional,omitempty"`
	Repeatable  bool     `json:"repeatable,omitempty"`
}

// ActionRule documents an action the rules allow.
type ActionRule struct {
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	Timing       string         `json:"timing,omitempty"`
	Costs        map[string]int `json:"costs,omitempty"`
	Requirements []string       `json:"requirements,omitempty"`
}

// WinCondition is a declarative end-of-game rule.
type WinCondition struct {
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Type         WinConditionType `json:"type"`
	Requirements []string         `json:"requirements,omitempty"`
}

// ResourceSystem documents a named resource.
type ResourceSystem struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	StartingValue int    `json:"startingValue,omitempty"`
}

// GameConfiguration is the input to game creation.
type GameConfiguration struct {
	GameType           GameType              `json:"gameType"`
	Rules              *UniversalGameRules   `json:"rules"`
	PlayerConfigs      []PlayerConfiguration `json:"playerConfigs"`
	StartingConditions *StartingConditions   `json:"startingConditions,omitempty"`
	Variants           []string              `json:"variants,omitempty"`
	TimeControls       *TimeControls         `json:"timeControls,omitempty"`
	// Seed fixes the opening shuffle. Zero draws one from the engine.
	Seed uint64 `json:"seed,omitempty"`
}

// PlayerConfiguration describes one seat.
type PlayerConfiguration struct {
	Name              string          `json:"name"`
	IsAI              bool            `json:"isAI"`
	AILevel           string          `json:"aiLevel,omitempty"`
	Deck              *CardCollection `json:"deck,omitempty"`
	StartingResources map[string]int  `json:"startingResources,omitempty"`
}

// StartingConditions override family defaults when set.
type StartingConditions struct {
	StartingLife      *int           `json:"startingLife,omitempty"`
	StartingHandSize  *int           `json:"startingHandSize,omitempty"`
	StartingResources map[string]int `json:"startingResources,omitempty"`
}

// TimeControls are carried through to phases; the engine does not enforce
// them.
type TimeControls struct {
	TurnTimeLimit int `json:"turnTimeLimit,omitempty"`
	GameTimeLimit int `json:"gameTimeLimit,omitempty"`
}
