package state

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tabletop-labs/cardengine/internal/game/model"
)

// ValidationResult separates hard errors from soft warnings.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// StateSnapshot is a lightweight report of a game state.
type StateSnapshot struct {
	GameID        string           `json:"gameId"`
	Timestamp     time.Time        `json:"timestamp"`
	Turn          int              `json:"turn"`
	Phase         string           `json:"phase"`
	CurrentPlayer string           `json:"currentPlayer"`
	PlayerStates  []PlayerSnapshot `json:"playerStates"`
	GameStatus    model.GameStatus `json:"gameStatus"`
	EventCount    int              `json:"eventCount"`
}

// PlayerSnapshot summarizes one player.
type PlayerSnapshot struct {
	ID          string         `json:"id"`
	Life        *int           `json:"life,omitempty"`
	Resources   map[string]int `json:"resources"`
	HandSize    int            `json:"handSize"`
	DeckSize    int            `json:"deckSize"`
	InPlayCount int            `json:"inPlayCount"`
}

// StateDifference is a human-readable diff between two states.
type StateDifference struct {
	HasDifferences     bool     `json:"hasDifferences"`
	Differences        []string `json:"differences"`
	SignificantChanges int      `json:"significantChanges"`
}

// ValidateState checks structure only. Missing required zones and duplicate
// card ids are warnings, not errors.
func (m *Manager) ValidateState(s *model.GameState) ValidationResult {
	result := ValidationResult{Errors: []string{}, Warnings: []string{}}
	if s == nil {
		result.Errors = append(result.Errors, "Game state is nil")
		return result
	}

	if s.ID == "" {
		result.Errors = append(result.Errors, "Game state missing ID")
	}
	if len(s.Players) == 0 {
		result.Errors = append(result.Errors, "Game state missing players")
	}
	if s.Rules == nil {
		result.Errors = append(result.Errors, "Game state missing rules")
	}

	for i, p := range s.Players {
		result.Errors = append(result.Errors, validatePlayer(p, i)...)
	}

	if s.CurrentPlayerIndex < 0 || (len(s.Players) > 0 && s.CurrentPlayerIndex >= len(s.Players)) {
		result.Errors = append(result.Errors, "Current player index out of bounds")
	}

	for _, p := range s.Players {
		if p != nil {
			result.Warnings = append(result.Warnings, validatePlayerZones(p)...)
		}
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

func validatePlayer(p *model.Player, index int) []string {
	if p == nil {
		return []string{fmt.Sprintf("Player %d missing", index)}
	}
	var errs []string
	if p.ID == "" {
		errs = append(errs, fmt.Sprintf("Player %d missing ID", index))
	}
	if p.Name == "" {
		errs = append(errs, fmt.Sprintf("Player %d missing name", index))
	}
	if p.Resources == nil {
		errs = append(errs, fmt.Sprintf("Player %d missing resources", index))
	}
	return errs
}

func validatePlayerZones(p *model.Player) []string {
	var warnings []string
	labels := map[string]string{
		model.ZoneHand:      "hand",
		model.ZoneDeck:      "deck",
		model.ZoneGraveyard: "graveyard",
		model.ZoneInPlay:    "in-play",
	}
	for _, name := range model.RequiredZones {
		if cards, _ := p.Zones.Zone(name); cards == nil {
			warnings = append(warnings, fmt.Sprintf("Player %s missing %s zone", p.Name, labels[name]))
		}
	}

	seen := make(map[string]bool)
	reported := make(map[string]bool)
	var duplicates []string
	for _, name := range p.Zones.Names() {
		cards, _ := p.Zones.Zone(name)
		for _, c := range cards {
			if seen[c.ID] && !reported[c.ID] {
				duplicates = append(duplicates, c.ID)
				reported[c.ID] = true
			}
			seen[c.ID] = true
		}
	}
	if len(duplicates) > 0 {
		warnings = append(warnings, fmt.Sprintf("Player %s has duplicate cards: %s", p.Name, strings.Join(duplicates, ", ")))
	}
	return warnings
}

// CreateSnapshot summarizes s for external reporting.
func (m *Manager) CreateSnapshot(s *model.GameState) StateSnapshot {
	snap := StateSnapshot{
		GameID:     s.ID,
		Timestamp:  time.Now(),
		Turn:       s.Turn,
		Phase:      s.Phase.Name,
		GameStatus: s.GameStatus,
		EventCount: len(s.History),
	}
	if current := s.CurrentPlayer(); current != nil {
		snap.CurrentPlayer = current.ID
	}
	for _, p := range s.Players {
		if p == nil {
			continue
		}
		ps := PlayerSnapshot{
			ID:          p.ID,
			Resources:   make(map[string]int, len(p.Resources)),
			HandSize:    len(p.Zones.Hand),
			DeckSize:    len(p.Zones.Deck),
			InPlayCount: len(p.Zones.InPlay),
		}
		if p.Life != nil {
			ps.Life = model.IntPtr(*p.Life)
		}
		for k, v := range p.Resources {
			ps.Resources[k] = v
		}
		snap.PlayerStates = append(snap.PlayerStates, ps)
	}
	return snap
}

var comparedZones = []string{model.ZoneHand, model.ZoneDeck, model.ZoneGraveyard, model.ZoneInPlay, model.ZoneExile}

// CompareStates describes what changed from a to b. Entries mentioning life,
// Turn or Phase count as significant.
func (m *Manager) CompareStates(a, b *model.GameState) StateDifference {
	var diffs []string

	if a.Turn != b.Turn {
		diffs = append(diffs, fmt.Sprintf("Turn changed: %d → %d", a.Turn, b.Turn))
	}
	if a.Phase.Name != b.Phase.Name {
		diffs = append(diffs, fmt.Sprintf("Phase changed: %s → %s", a.Phase.Name, b.Phase.Name))
	}
	if a.CurrentPlayerIndex != b.CurrentPlayerIndex {
		diffs = append(diffs, fmt.Sprintf("Current player changed: %d → %d", a.CurrentPlayerIndex, b.CurrentPlayerIndex))
	}

	count := len(a.Players)
	if len(b.Players) > count {
		count = len(b.Players)
	}
	for i := 0; i < count; i++ {
		if i >= len(a.Players) || i >= len(b.Players) || a.Players[i] == nil || b.Players[i] == nil {
			diffs = append(diffs, "Player count changed")
			continue
		}
		p1, p2 := a.Players[i], b.Players[i]

		if lifeString(p1.Life) != lifeString(p2.Life) {
			diffs = append(diffs, fmt.Sprintf("%s life: %s → %s", p1.Name, lifeString(p1.Life), lifeString(p2.Life)))
		}

		for _, res := range unionKeys(p1.Resources, p2.Resources) {
			v1, v2 := p1.Resources.Get(res), p2.Resources.Get(res)
			if v1 != v2 {
				diffs = append(diffs, fmt.Sprintf("%s %s: %d → %d", p1.Name, res, v1, v2))
			}
		}

		for _, zone := range comparedZones {
			z1, _ := p1.Zones.Zone(zone)
			z2, _ := p2.Zones.Zone(zone)
			if len(z1) != len(z2) {
				diffs = append(diffs, fmt.Sprintf("%s %s: %d → %d cards", p1.Name, zone, len(z1), len(z2)))
			}
		}
	}

	significant := 0
	for _, d := range diffs {
		if strings.Contains(d, "life") || strings.Contains(d, "Turn") || strings.Contains(d, "Phase") {
			significant++
		}
	}

	if diffs == nil {
		diffs = []string{}
	}
	return StateDifference{
		HasDifferences:     len(diffs) > 0,
		Differences:        diffs,
		SignificantChanges: significant,
	}
}

// OptimizeState returns a compacted copy of s: only the most recent history
// events are kept, zero resources are dropped, and empty optional zones are
// removed.
func (m *Manager) OptimizeState(s *model.GameState) *model.GameState {
	out := s.Clone()

	if keep := m.opts.OptimizeKeep; len(out.History) > keep {
		out.History = append([]model.GameEvent{}, out.History[len(out.History)-keep:]...)
	}

	for _, p := range out.Players {
		if p == nil {
			continue
		}
		if len(p.Zones.Exile) == 0 {
			p.Zones.Exile = nil
		}
		for name, cards := range p.Zones.Custom {
			if len(cards) == 0 {
				delete(p.Zones.Custom, name)
			}
		}
		if len(p.Zones.Custom) == 0 {
			p.Zones.Custom = nil
		}
		for res, amount := range p.Resources {
			if amount == 0 {
				delete(p.Resources, res)
			}
		}
	}
	return out
}

func lifeString(life *int) string {
	if life == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *life)
}

func unionKeys(a, b model.Resources) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		set[k] = struct{}{}
	}
	for k := range b {
		set[k] = struct{}{}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
