package rules

import (
	"fmt"
	"strings"

	"github.com/tabletop-labs/cardengine/internal/game/model"
	"github.com/tabletop-labs/cardengine/internal/game/resources"
)

// LegalityResult represents the outcome of a single legality check.
type LegalityResult struct {
	Legal   bool
	Reason  string
	Details map[string]string
}

// CheckCosts returns one failing result per cost the player cannot cover.
func CheckCosts(player *model.Player, costs map[string]int) []LegalityResult {
	if player == nil || len(costs) == 0 {
		return nil
	}
	payment := resources.CalculatePayment(costs, player.Resources)
	if payment.Success {
		return nil
	}
	results := make([]LegalityResult, 0, len(payment.Shortfalls))
	for _, s := range payment.Shortfalls {
		results = append(results, LegalityResult{
			Legal:  false,
			Reason: s.Detail(),
			Details: map[string]string{
				"resource": s.Resource,
				"need":     fmt.Sprintf("%d", s.Need),
				"have":     fmt.Sprintf("%d", s.Have),
			},
		})
	}
	return results
}

// CheckRequirement evaluates one requirement against the acting player.
// Unknown and custom requirement types are satisfied.
func CheckRequirement(player *model.Player, req model.ActionRequirement) LegalityResult {
	if player == nil {
		return LegalityResult{Legal: false, Reason: "Player not found"}
	}

	met := true
	switch req.Type {
	case model.RequirementResource:
		met = player.Resources.Get(req.Condition) >= req.Value
	case model.RequirementZone:
		zone, ok := player.Zones.Zone(req.Condition)
		met = ok && zone != nil && len(zone) >= req.Value
	case model.RequirementCardType:
		count := 0
		for i := range player.Zones.Hand {
			if strings.EqualFold(player.Zones.Hand[i].CardType, req.Condition) {
				count++
			}
		}
		met = count >= req.Value
	case model.RequirementPlayerState:
		if req.Condition == "life" {
			met = player.LifeTotal() >= req.Value
		}
	}

	if met {
		return LegalityResult{Legal: true}
	}
	return LegalityResult{
		Legal:  false,
		Reason: fmt.Sprintf("Requirement not met: %s", req.Condition),
		Details: map[string]string{
			"type":  string(req.Type),
			"value": fmt.Sprintf("%d", req.Value),
		},
	}
}
