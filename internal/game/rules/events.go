package rules

// EventType indicates the category of a history event that is not a plain
// player action. Action events use the action type as their event type.
type EventType string

const (
	EventTriggeredAbility EventType = "triggered_ability"
	EventPhaseChanged     EventType = "phase_changed"
	EventTurnStarted      EventType = "turn_started"
	EventGameStarted      EventType = "game_started"
	EventGameEnded        EventType = "game_ended"
	EventCustomScript     EventType = "custom_script"
)

func (t EventType) String() string {
	return string(t)
}
