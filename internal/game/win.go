package game

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tabletop-labs/cardengine/internal/game/model"
)

var lifeRequirement = regexp.MustCompile(`^(opponent\s+)?life\s*(<=|>=|<|>|==)\s*(-?\d+)$`)

// CheckWinConditions evaluates the declared conditions in order, player by
// player, and returns the first that holds. Without one, a single player
// left with positive life wins by elimination. It returns nil while the game
// continues.
func (e *Engine) CheckWinConditions(gs *model.GameState) *model.WinConditionResult {
	if gs.Rules != nil {
		for _, wc := range gs.Rules.WinConditions {
			for _, p := range gs.Players {
				if p == nil || !evaluateWinCondition(gs, p, wc) {
					continue
				}
				return &model.WinConditionResult{
					Winner:      p,
					Condition:   wc.Name,
					Description: wc.Description,
					GameEnded:   true,
				}
			}
		}
	}

	var alive []*model.Player
	for _, p := range gs.Players {
		if p != nil && p.LifeTotal() > 0 {
			alive = append(alive, p)
		}
	}
	if len(alive) == 1 {
		return &model.WinConditionResult{
			Winner:      alive[0],
			Condition:   "Elimination",
			Description: "Last player standing",
			GameEnded:   true,
		}
	}
	return nil
}

// evaluateWinCondition reports whether player satisfies wc. Only immediate
// conditions are evaluated. Every recognized requirement must hold and at
// least one must be recognized.
func evaluateWinCondition(gs *model.GameState, player *model.Player, wc model.WinCondition) bool {
	if wc.Type != model.WinImmediate {
		return false
	}

	recognized := false
	for _, raw := range wc.Requirements {
		req := strings.ToLower(strings.TrimSpace(raw))
		met, ok := evaluateRequirement(gs, player, req)
		if !ok {
			continue
		}
		if !met {
			return false
		}
		recognized = true
	}
	return recognized
}

// evaluateRequirement understands "life >= N", "opponent life <= N" and
// "opponent deck empty". ok is false for anything else.
func evaluateRequirement(gs *model.GameState, player *model.Player, req string) (met, ok bool) {
	if req == "opponent deck empty" {
		for _, opp := range opponents(gs, player) {
			if len(opp.Zones.Deck) == 0 {
				return true, true
			}
		}
		return false, true
	}

	m := lifeRequirement.FindStringSubmatch(req)
	if m == nil {
		return false, false
	}
	threshold, err := strconv.Atoi(m[3])
	if err != nil {
		return false, false
	}

	if m[1] == "" {
		return compare(player.LifeTotal(), m[2], threshold), true
	}
	for _, opp := range opponents(gs, player) {
		if compare(opp.LifeTotal(), m[2], threshold) {
			return true, true
		}
	}
	return false, true
}

func opponents(gs *model.GameState, player *model.Player) []*model.Player {
	out := make([]*model.Player, 0, len(gs.Players))
	for _, p := range gs.Players {
		if p != nil && p.ID != player.ID {
			out = append(out, p)
		}
	}
	return out
}

func compare(v int, op string, threshold int) bool {
	switch op {
	case "<=":
		return v <= threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case ">":
		return v > threshold
	default:
		return v == threshold
	}
}
