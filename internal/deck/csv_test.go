package deck

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabletop-labs/cardengine/internal/game/model"
)

const sampleCSV = `name,type,costs,stats,keywords,copies,rarity
Goblin Raider,Creature,mana:1,power:2;toughness:1,haste,3,common
Fireball,Spell,mana:2,,,1,
Tarmogoyf,Creature,mana:2,power:*;toughness:3,,1,rare
,Creature,mana:1,,,1,
Broken,Creature,mana:x,,,1,
Too Many,Creature,,,,zero,
`

func TestParseCSV(t *testing.T) {
	deck, report, err := ParseCSV(strings.NewReader(sampleCSV), Options{ID: "red", Name: "Red Deck", GameType: model.GameTypeTCG})
	require.NoError(t, err)

	assert.Equal(t, "red", deck.ID)
	assert.Equal(t, "Red Deck", deck.Name)
	assert.Equal(t, 6, report.Rows)
	assert.Equal(t, 5, report.Cards)
	require.Len(t, deck.Cards, 5)
	assert.Len(t, report.Skipped, 3)
	assert.Contains(t, report.Skipped[0], "row 5: missing name")
	assert.Contains(t, report.Skipped[1], "row 6: costs")
	assert.Contains(t, report.Skipped[2], `row 7: invalid copies "zero"`)

	goblin := deck.Cards[0]
	assert.Equal(t, "red_1", goblin.ID)
	assert.Equal(t, "creature", goblin.CardType)
	assert.Equal(t, map[string]int{"mana": 1}, goblin.Costs)
	power, ok := goblin.Power()
	assert.True(t, ok)
	assert.Equal(t, 2, power)
	assert.Equal(t, []string{"haste"}, goblin.Keywords)
	assert.Equal(t, "common", goblin.Metadata["rarity"])
	assert.Equal(t, "red_3", deck.Cards[2].ID)
	assert.Equal(t, "Goblin Raider", deck.Cards[2].Name)

	fireball := deck.Cards[3]
	assert.Equal(t, "spell", fireball.CardType)
	assert.Nil(t, fireball.Stats)
	assert.Nil(t, fireball.Metadata)

	goyf := deck.Cards[4]
	assert.Equal(t, "*", goyf.Stats["power"])
	assert.Equal(t, 3, goyf.Stats["toughness"])
}

func TestParseCSVCopiesAreIndependent(t *testing.T) {
	deck, _, err := ParseCSV(strings.NewReader("name,costs,copies\nBolt,mana:1,2\n"), Options{})
	require.NoError(t, err)
	require.Len(t, deck.Cards, 2)
	assert.Equal(t, "deck_1", deck.Cards[0].ID)

	deck.Cards[1].Costs["mana"] = 5
	assert.Equal(t, 1, deck.Cards[0].Costs["mana"])
}

func TestParseCSVMaxCopies(t *testing.T) {
	deck, _, err := ParseCSV(strings.NewReader("name,copies\nBolt,9\n"), Options{MaxCopies: 4})
	require.NoError(t, err)
	assert.Len(t, deck.Cards, 4)
}

func TestParseCSVErrors(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader("name,type\n"), Options{})
	assert.ErrorIs(t, err, ErrEmpty)

	_, _, err = ParseCSV(strings.NewReader("title,type\nBolt,spell\n"), Options{})
	assert.ErrorContains(t, err, `missing "name" column`)

	_, _, err = ParseCSV(strings.NewReader("name\n\"unterminated\n"), Options{})
	assert.ErrorContains(t, err, "failed to read CSV")
}
