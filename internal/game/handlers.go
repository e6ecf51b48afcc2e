package game

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tabletop-labs/cardengine/internal/game/model"
	"github.com/tabletop-labs/cardengine/internal/game/resources"
	"github.com/tabletop-labs/cardengine/internal/game/rules"
)

var (
	errCardNotInHand     = errors.New("Card not found in hand")
	errDeckEmpty         = errors.New("No cards left to draw")
	errAttackerNotInPlay = errors.New("Attacking card not found")
)

// dispatch applies action to gs in place. gs is always a clone.
func (e *Engine) dispatch(ctx context.Context, gs *model.GameState, action *model.GameAction) error {
	player, _ := gs.Player(action.PlayerID)
	if player == nil {
		return fmt.Errorf("Player %s not found", action.PlayerID)
	}

	switch action.Type {
	case model.ActionPlayCard:
		return playCard(player, action)
	case model.ActionDrawCard:
		return drawCard(player)
	case model.ActionPassTurn:
		return rules.AdvanceTurn(gs)
	case model.ActionAttack:
		return attack(gs, player, action)
	default:
		return e.customAction(ctx, gs, player, action)
	}
}

// playCard pays the declared costs and moves the targeted card from hand to
// play.
func playCard(player *model.Player, action *model.GameAction) error {
	cardID, _ := action.FirstTarget(model.TargetCard)
	idx := indexOf(player.Zones.Hand, cardID)
	if idx < 0 {
		return errCardNotInHand
	}

	if player.Resources == nil {
		player.Resources = model.Resources{}
	}
	spent, err := resources.Pay(player.Resources, action.Costs)
	if err != nil {
		return err
	}
	player.Statistics.ResourcesSpent += spent

	card := player.Zones.Hand[idx]
	player.Zones.Hand = append(player.Zones.Hand[:idx], player.Zones.Hand[idx+1:]...)
	player.Zones.InPlay = append(player.Zones.InPlay, card)
	player.Statistics.CardsPlayed++
	return nil
}

// drawCard moves the top card of the deck, its last element, into hand.
func drawCard(player *model.Player) error {
	if len(player.Zones.Deck) == 0 {
		return errDeckEmpty
	}
	last := len(player.Zones.Deck) - 1
	card := player.Zones.Deck[last]
	player.Zones.Deck = player.Zones.Deck[:last]
	player.Zones.Hand = append(player.Zones.Hand, card)
	player.Statistics.CardsDrawn++
	return nil
}

// attack deals the attacking card's power, or 1 without one, to the next
// player in turn order.
func attack(gs *model.GameState, attacker *model.Player, action *model.GameAction) error {
	cardID, _ := action.FirstTarget(model.TargetCard)
	idx := indexOf(attacker.Zones.InPlay, cardID)
	if idx < 0 {
		return errAttackerNotInPlay
	}

	damage, ok := attacker.Zones.InPlay[idx].Power()
	if !ok || damage == 0 {
		damage = 1
	}

	defender := gs.Players[(gs.CurrentPlayerIndex+1)%len(gs.Players)]
	defender.SetLife(defender.LifeTotal() - damage)

	attacker.Statistics.DamageDealt += damage
	defender.Statistics.DamageReceived += damage
	return nil
}

// customAction runs the Lua script registered for the action type. Without
// one the state passes through unchanged.
func (e *Engine) customAction(ctx context.Context, gs *model.GameState, player *model.Player, action *model.GameAction) error {
	name := string(action.Type)
	if e.scripts == nil || !e.scripts.Has(name) {
		e.logger.Warn("custom action not implemented",
			zap.String("game_id", gs.ID),
			zap.String("action_type", name),
		)
		return nil
	}
	if _, err := e.scripts.Apply(ctx, name, player, name); err != nil {
		return fmt.Errorf("custom action %s failed: %w", name, err)
	}
	return nil
}

func indexOf(cards []model.Card, id string) int {
	for i := range cards {
		if cards[i].ID == id {
			return i
		}
	}
	return -1
}
