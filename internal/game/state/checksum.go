package state

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/tabletop-labs/cardengine/internal/game/model"
)

// ChecksumVersion identifies the canonical representation below.
const ChecksumVersion = 2

// Checksum returns a deterministic BLAKE2b-256 fingerprint of s. Timestamps
// are excluded; player, zone and history order are included because they
// carry meaning.
func Checksum(s *model.GameState) (string, error) {
	if s == nil {
		return "", fmt.Errorf("cannot checksum a nil state")
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create hash: %w", err)
	}
	if _, err := h.Write(canonical(s)); err != nil {
		return "", fmt.Errorf("failed to compute hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func canonical(s *model.GameState) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "V:%d\n", ChecksumVersion)
	fmt.Fprintf(&buf, "GAME:%s|%s|%s|%d|%d|%s\n",
		s.ID, s.GameType, s.GameStatus, s.Turn, s.CurrentPlayerIndex, s.Phase.Name)

	for _, p := range s.Players {
		if p == nil {
			buf.WriteString("PLAYER:nil\n")
			continue
		}
		fmt.Fprintf(&buf, "PLAYER:%s|%s|%t|%s\n", p.ID, p.Name, p.IsAI, lifeString(p.Life))

		keys := make([]string, 0, len(p.Resources))
		for k := range p.Resources {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&buf, "  RES:%s=%d\n", k, p.Resources[k])
		}

		st := p.Statistics
		fmt.Fprintf(&buf, "  STATS:%d|%d|%d|%d|%d|%d\n",
			st.CardsPlayed, st.CardsDrawn, st.DamageDealt, st.DamageReceived, st.ResourcesSpent, st.TurnsPlayed)

		for _, zone := range canonicalZones(&p.Zones) {
			cards, _ := p.Zones.Zone(zone)
			writeZone(&buf, "  ZONE:"+zone, cards)
		}
	}

	writeZone(&buf, "SHARED", s.Zones.Shared)
	writeZone(&buf, "MARKET", s.Zones.Market)
	writeZone(&buf, "SUPPLY", s.Zones.Supply)

	for _, e := range s.History {
		fmt.Fprintf(&buf, "EVENT:%s|%s|%s\n", e.ID, e.Type, e.PlayerID)
	}

	return buf.Bytes()
}

// canonicalZones lists the required zones and exile unconditionally, then
// custom zones by name. Nil and empty zones hash the same.
func canonicalZones(z *model.PlayerZones) []string {
	names := append(append([]string{}, model.RequiredZones...), model.ZoneExile)
	custom := make([]string, 0, len(z.Custom))
	for name := range z.Custom {
		custom = append(custom, name)
	}
	sort.Strings(custom)
	return append(names, custom...)
}

func writeZone(buf *bytes.Buffer, label string, cards []model.Card) {
	fmt.Fprintf(buf, "%s:%d", label, len(cards))
	for _, c := range cards {
		buf.WriteString("|")
		buf.WriteString(c.ID)
	}
	buf.WriteString("\n")
}
