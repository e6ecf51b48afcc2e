package model

import (
	"fmt"
	"strings"
)

// GameType selects family-specific behavior.
type GameType string

const (
	GameTypeTCG             GameType = "tcg"
	GameTypePoker           GameType = "poker"
	GameTypeDeckbuilder     GameType = "deckbuilder"
	GameTypeTrickTaking     GameType = "trick_taking"
	GameTypeSocialDeduction GameType = "social_deduction"
	GameTypeCustom          GameType = "custom"
)

var knownGameTypes = map[GameType]struct{}{
	GameTypeTCG:             {},
	GameTypePoker:           {},
	GameTypeDeckbuilder:     {},
	GameTypeTrickTaking:     {},
	GameTypeSocialDeduction: {},
	GameTypeCustom:          {},
}

// ParseGameType parses a game type tag case-insensitively. Unknown tags
// return an error.
func ParseGameType(s string) (GameType, error) {
	gt := GameType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownGameTypes[gt]; !ok {
		return "", fmt.Errorf("unknown game type %q", s)
	}
	return gt, nil
}

// Valid reports whether gt is one of the known family tags.
func (gt GameType) Valid() bool {
	_, ok := knownGameTypes[gt]
	return ok
}

// GameStatus is the lifecycle state of a game.
type GameStatus string

const (
	StatusSetup    GameStatus = "setup"
	StatusActive   GameStatus = "active"
	StatusPaused   GameStatus = "paused"
	StatusFinished GameStatus = "finished"
	StatusError    GameStatus = "error"
)

// CanTransition reports whether the lifecycle allows moving from s to next.
// Any state may move to error.
func (s GameStatus) CanTransition(next GameStatus) bool {
	if next == StatusError {
		return true
	}
	switch s {
	case StatusSetup:
		return next == StatusActive
	case StatusActive:
		return next == StatusPaused || next == StatusFinished
	case StatusPaused:
		return next == StatusActive || next == StatusFinished
	default:
		return false
	}
}

// ActionType identifies the kind of a GameAction.
type ActionType string

const (
	ActionPlayCard        ActionType = "play_card"
	ActionActivateAbility ActionType = "activate_ability"
	ActionAttack          ActionType = "attack"
	ActionBlock           ActionType = "block"
	ActionDrawCard        ActionType = "draw_card"
	ActionDiscardCard     ActionType = "discard_card"
	ActionPassTurn        ActionType = "pass_turn"
	ActionPassPriority    ActionType = "pass_priority"
	ActionMulligan        ActionType = "mulligan"
	ActionConcede         ActionType = "concede"
	ActionCustom          ActionType = "custom"
)

// TargetType identifies what an ActionTarget refers to.
type TargetType string

const (
	TargetCard   TargetType = "card"
	TargetPlayer TargetType = "player"
	TargetZone   TargetType = "zone"
	TargetNumber TargetType = "number"
	TargetChoice TargetType = "choice"
)

// RequirementType is the kind of an ActionRequirement.
type RequirementType string

const (
	RequirementResource    RequirementType = "resource"
	RequirementZone        RequirementType = "zone"
	RequirementCardType    RequirementType = "card_type"
	RequirementPlayerState RequirementType = "player_state"
	RequirementCustom      RequirementType = "custom"
)

// EffectType is the kind of an ActionEffect.
type EffectType string

const (
	EffectModifyResource EffectType = "modify_resource"
	EffectMoveCard       EffectType = "move_card"
	EffectModifyStats    EffectType = "modify_stats"
	EffectTriggerAbility EffectType = "trigger_ability"
	EffectCustom         EffectType = "custom"
)

// WinConditionType controls when a win condition is evaluated.
type WinConditionType string

const (
	WinImmediate WinConditionType = "immediate"
	WinEndgame   WinConditionType = "endgame"
	WinScoring   WinConditionType = "scoring"
)

// Zone names addressable on a player.
const (
	ZoneHand      = "hand"
	ZoneDeck      = "deck"
	ZoneGraveyard = "graveyard"
	ZoneInPlay    = "inPlay"
	ZoneExile     = "exile"
)

// RequiredZones lists the zones every player must carry.
var RequiredZones = []string{ZoneHand, ZoneDeck, ZoneGraveyard, ZoneInPlay}

// IsRequiredZone reports whether name is one of RequiredZones.
func IsRequiredZone(name string) bool {
	for _, z := range RequiredZones {
		if z == name {
			return true
		}
	}
	return false
}
