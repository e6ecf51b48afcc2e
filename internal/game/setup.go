package game

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/tabletop-labs/cardengine/internal/game/model"
	"github.com/tabletop-labs/cardengine/internal/game/resources"
	"github.com/tabletop-labs/cardengine/internal/game/rules"
)

// newPlayer builds seat i. Life comes from the starting conditions or the
// family default. Resources come from the seat, then the starting
// conditions, then the family default.
func newPlayer(i int, pc model.PlayerConfiguration, sc *model.StartingConditions, family rules.Family) *model.Player {
	p := model.NewPlayer(fmt.Sprintf("player_%d", i), pc.Name)
	p.IsAI = pc.IsAI

	life := family.DefaultLife()
	startingResources := family.DefaultResources()
	if sc != nil {
		if sc.StartingLife != nil {
			life = *sc.StartingLife
		}
		if sc.StartingResources != nil {
			startingResources = sc.StartingResources
		}
	}
	if pc.StartingResources != nil {
		startingResources = pc.StartingResources
	}
	p.SetLife(life)
	p.Resources = resources.Merge(startingResources, nil)

	if pc.Deck != nil {
		p.Zones.Deck = model.CloneCards(pc.Deck.Cards)
		if p.Zones.Deck == nil {
			p.Zones.Deck = []model.Card{}
		}
	}
	return p
}

// startingHandSize resolves the opening hand size: starting conditions, then
// the rules' setup, then the engine default.
func (e *Engine) startingHandSize(cfg model.GameConfiguration) int {
	if cfg.StartingConditions != nil && cfg.StartingConditions.StartingHandSize != nil {
		return *cfg.StartingConditions.StartingHandSize
	}
	if cfg.Rules != nil && cfg.Rules.GameSetup.StartingHandSize != nil {
		return *cfg.Rules.GameSetup.StartingHandSize
	}
	return e.settings.DefaultHandSize
}

// performInitialSetup pads, shuffles and deals every player's deck, then
// activates the game.
func (e *Engine) performInitialSetup(gs *model.GameState, handSize int) {
	rng := rand.New(rand.NewPCG(gs.Metadata.Seed, gs.Metadata.Seed))
	for _, p := range gs.Players {
		deck := e.padDeck(p.Zones.Deck)
		shuffle(rng, deck)
		p.Zones.Deck = deck

		n := min(handSize, len(p.Zones.Deck))
		for i := 0; i < n; i++ {
			last := len(p.Zones.Deck) - 1
			card := p.Zones.Deck[last]
			p.Zones.Deck = p.Zones.Deck[:last]
			p.Zones.Hand = append(p.Zones.Hand, card)
			p.Statistics.CardsDrawn++
		}
	}
	gs.GameStatus = model.StatusActive
}

// padDeck duplicates the original cards, each copy under a fresh id, until
// the deck reaches the minimum size. An empty deck stays empty.
func (e *Engine) padDeck(original []model.Card) []model.Card {
	deck := model.CloneCards(original)
	if deck == nil {
		deck = []model.Card{}
	}
	for len(deck) < e.settings.MinDeckSize && len(original) > 0 {
		for i := range original {
			c := original[i].Clone()
			c.ID = fmt.Sprintf("%s_copy_%s", original[i].ID, uuid.NewString()[:8])
			deck = append(deck, c)
		}
	}
	return deck
}

// gameSeed returns seed, or a fresh one from the engine's source when seed
// is zero.
func (e *Engine) gameSeed(seed uint64) uint64 {
	if seed != 0 {
		return seed
	}
	e.randMu.Lock()
	defer e.randMu.Unlock()
	for seed == 0 {
		seed = e.rand.Uint64()
	}
	return seed
}

// shuffle applies a uniform Fisher-Yates permutation.
func shuffle(rng *rand.Rand, cards []model.Card) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}
