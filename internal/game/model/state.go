package model

import (
	"sort"
	"time"
)

// GameState is the authoritative snapshot of one game.
type GameState struct {
	ID                 string              `json:"id"`
	GameType           GameType            `json:"gameType"`
	Rules              *UniversalGameRules `json:"rules"`
	Players            []*Player           `json:"players"`
	CurrentPlayerIndex int                 `json:"currentPlayerIndex"`
	Phase              GamePhase           `json:"phase"`
	Turn               int                 `json:"turn"`
	GameStatus         GameStatus          `json:"gameStatus"`
	Zones              GameZones           `json:"zones"`
	History            []GameEvent         `json:"history"`
	Metadata           GameMetadata        `json:"metadata"`
}

// Player is one participant. A nil Life means life does not apply.
type Player struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	IsAI       bool             `json:"isAI"`
	Life       *int             `json:"life,omitempty"`
	Resources  Resources        `json:"resources"`
	Zones      PlayerZones      `json:"zones"`
	Statistics PlayerStatistics `json:"statistics"`
}

// Resources maps a resource name to an amount. Missing keys are zero.
type Resources map[string]int

// Get returns the amount of name, zero when absent.
func (r Resources) Get(name string) int {
	return r[name]
}

// PlayerZones holds the required zones plus optional ones.
type PlayerZones struct {
	Hand      []Card            `json:"hand"`
	Deck      []Card            `json:"deck"`
	Graveyard []Card            `json:"graveyard"`
	InPlay    []Card            `json:"inPlay"`
	Exile     []Card            `json:"exile,omitempty"`
	Custom    map[string][]Card `json:"custom,omitempty"`
}

// Zone returns the named zone. The second result is false when a custom zone
// does not exist.
func (z *PlayerZones) Zone(name string) ([]Card, bool) {
	switch name {
	case ZoneHand:
		return z.Hand, true
	case ZoneDeck:
		return z.Deck, true
	case ZoneGraveyard:
		return z.Graveyard, true
	case ZoneInPlay:
		return z.InPlay, true
	case ZoneExile:
		return z.Exile, true
	}
	cards, ok := z.Custom[name]
	return cards, ok
}

// SetZone replaces the named zone, creating custom zones as needed.
func (z *PlayerZones) SetZone(name string, cards []Card) {
	switch name {
	case ZoneHand:
		z.Hand = cards
	case ZoneDeck:
		z.Deck = cards
	case ZoneGraveyard:
		z.Graveyard = cards
	case ZoneInPlay:
		z.InPlay = cards
	case ZoneExile:
		z.Exile = cards
	default:
		if z.Custom == nil {
			z.Custom = make(map[string][]Card)
		}
		z.Custom[name] = cards
	}
}

// Names returns every zone name present, required zones first.
func (z *PlayerZones) Names() []string {
	names := append([]string{}, RequiredZones...)
	if z.Exile != nil {
		names = append(names, ZoneExile)
	}
	custom := make([]string, 0, len(z.Custom))
	for name := range z.Custom {
		custom = append(custom, name)
	}
	sort.Strings(custom)
	return append(names, custom...)
}

// GameZones are the shared, non-player-owned card areas.
type GameZones struct {
	Shared []Card            `json:"shared,omitempty"`
	Market []Card            `json:"market,omitempty"`
	Supply []Card            `json:"supply,omitempty"`
	Custom map[string][]Card `json:"custom,omitempty"`
}

// PlayerStatistics are monotonic per-player counters.
type PlayerStatistics struct {
	CardsPlayed    int            `json:"cardsPlayed"`
	CardsDrawn     int            `json:"cardsDrawn"`
	DamageDealt    int            `json:"damageDealt"`
	DamageReceived int            `json:"damageReceived"`
	ResourcesSpent int            `json:"resourcesSpent"`
	TurnsPlayed    int            `json:"turnsPlayed"`
	GameSpecific   map[string]int `json:"gameSpecific,omitempty"`
}

// GamePhase is the active turn phase. TimeLimit is in seconds, zero for none.
type GamePhase struct {
	Name           string       `json:"name"`
	Description    string       `json:"description,omitempty"`
	AllowedActions []ActionType `json:"allowedActions"`
	IsOptional     bool         `json:"isOptional"`
	TimeLimit      int          `json:"timeLimit,omitempty"`
}

// Allows reports whether t is allowed in the phase.
func (p GamePhase) Allows(t ActionType) bool {
	for _, a := range p.AllowedActions {
		if a == t {
			return true
		}
	}
	return false
}

// GameMetadata carries timestamps and descriptive tags.
type GameMetadata struct {
	StartTime        time.Time `json:"startTime"`
	LastActionTime   time.Time `json:"lastActionTime"`
	ExpectedDuration int       `json:"expectedDuration,omitempty"`
	Format           string    `json:"format,omitempty"`
	Tournament       string    `json:"tournament,omitempty"`
	// Seed reproduces the opening shuffle when passed back in a configuration.
	Seed uint64 `json:"seed,omitempty"`
}

// NewPlayer returns a player with every required zone initialized.
func NewPlayer(id, name string) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		Resources: Resources{},
		Zones: PlayerZones{
			Hand:      []Card{},
			Deck:      []Card{},
			Graveyard: []Card{},
			InPlay:    []Card{},
		},
		Statistics: PlayerStatistics{GameSpecific: map[string]int{}},
	}
}

// LifeTotal returns the player's life, treating nil as zero.
func (p *Player) LifeTotal() int {
	if p.Life == nil {
		return 0
	}
	return *p.Life
}

// SetLife sets the player's life total.
func (p *Player) SetLife(v int) {
	p.Life = &v
}

// CurrentPlayer returns the player at CurrentPlayerIndex, or nil when the
// index is out of range.
func (s *GameState) CurrentPlayer() *Player {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return s.Players[s.CurrentPlayerIndex]
}

// Player returns the player with id and its index.
func (s *GameState) Player(id string) (*Player, int) {
	for i, p := range s.Players {
		if p != nil && p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

// IntPtr is a convenience for optional integer fields.
func IntPtr(v int) *int {
	return &v
}
