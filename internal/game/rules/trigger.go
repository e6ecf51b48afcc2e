package rules

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tabletop-labs/cardengine/internal/game/model"
)

// matchesTrigger reports whether any ability condition, lower-cased, occurs
// in the event type.
func matchesTrigger(ability model.Ability, event model.GameEvent) bool {
	for _, condition := range ability.Conditions {
		if condition == "" {
			continue
		}
		if strings.Contains(event.Type, strings.ToLower(condition)) {
			return true
		}
	}
	return false
}

// collectTriggers scans in-play cards in player order, then card order, and
// returns one derived event per matching triggered ability.
func collectTriggers(state *model.GameState, event model.GameEvent, now time.Time) []model.GameEvent {
	var triggered []model.GameEvent
	for _, player := range state.Players {
		if player == nil {
			continue
		}
		for _, card := range player.Zones.InPlay {
			for _, ability := range card.Abilities {
				if ability.Timing != "triggered" || !matchesTrigger(ability, event) {
					continue
				}
				triggered = append(triggered, model.GameEvent{
					ID:       "event_" + uuid.NewString(),
					Type:     string(EventTriggeredAbility),
					PlayerID: player.ID,
					Result: map[string]any{
						"cardId":      card.ID,
						"cardName":    card.Name,
						"ability":     ability.Name,
						"triggerId":   event.ID,
						"triggerType": event.Type,
					},
					Timestamp: now,
				})
			}
		}
	}
	return triggered
}
