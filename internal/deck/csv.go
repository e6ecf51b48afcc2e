// Package deck builds card collections from CSV card lists.
package deck

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tabletop-labs/cardengine/internal/game/model"
)

// Recognized columns. Any other column is kept as card metadata.
const (
	ColumnName     = "name"
	ColumnType     = "type"
	ColumnCosts    = "costs"
	ColumnStats    = "stats"
	ColumnKeywords = "keywords"
	ColumnTags     = "tags"
	ColumnCopies   = "copies"
	ColumnText     = "text"
)

// ErrEmpty is returned when the CSV has no data rows.
var ErrEmpty = errors.New("card list is empty or has no data rows")

// Options control how rows become cards.
type Options struct {
	ID       string
	Name     string
	GameType model.GameType
	// MaxCopies caps the copies column. Zero means no cap.
	MaxCopies int
}

// Report lists rows that were skipped while parsing.
type Report struct {
	Rows    int
	Cards   int
	Skipped []string
}

// ParseCSV reads a header row followed by one card per row. Costs and stats
// are written as "key:value" pairs separated by semicolons, keywords and tags
// as semicolon separated lists.
func ParseCSV(r io.Reader, opts Options) (*model.CardCollection, Report, error) {
	var report Report

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, report, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, report, ErrEmpty
	}

	header := make([]string, len(records[0]))
	index := map[string]int{}
	for i, h := range records[0] {
		h = strings.ToLower(strings.TrimSpace(h))
		header[i] = h
		index[h] = i
	}
	if _, ok := index[ColumnName]; !ok {
		return nil, report, fmt.Errorf("missing %q column", ColumnName)
	}

	if opts.ID == "" {
		opts.ID = "deck"
	}
	collection := &model.CardCollection{
		ID:       opts.ID,
		Name:     opts.Name,
		GameType: opts.GameType,
		Cards:    []model.Card{},
	}

	for i, record := range records[1:] {
		line := i + 2
		report.Rows++

		field := func(col string) string {
			if j, ok := index[col]; ok && j < len(record) {
				return strings.TrimSpace(record[j])
			}
			return ""
		}

		name := field(ColumnName)
		if name == "" {
			report.Skipped = append(report.Skipped, fmt.Sprintf("row %d: missing name", line))
			continue
		}

		costs, err := parseInts(field(ColumnCosts))
		if err != nil {
			report.Skipped = append(report.Skipped, fmt.Sprintf("row %d: costs: %v", line, err))
			continue
		}
		stats, err := parseStats(field(ColumnStats))
		if err != nil {
			report.Skipped = append(report.Skipped, fmt.Sprintf("row %d: stats: %v", line, err))
			continue
		}

		copies := 1
		if raw := field(ColumnCopies); raw != "" {
			copies, err = strconv.Atoi(raw)
			if err != nil || copies < 1 {
				report.Skipped = append(report.Skipped, fmt.Sprintf("row %d: invalid copies %q", line, raw))
				continue
			}
		}
		if opts.MaxCopies > 0 && copies > opts.MaxCopies {
			copies = opts.MaxCopies
		}

		card := model.Card{
			Name:        name,
			Description: field(ColumnText),
			GameType:    opts.GameType,
			CardType:    strings.ToLower(field(ColumnType)),
			Costs:       costs,
			Stats:       stats,
			Keywords:    splitList(field(ColumnKeywords)),
			Tags:        splitList(field(ColumnTags)),
		}
		for j, h := range header {
			if known(h) || j >= len(record) || strings.TrimSpace(record[j]) == "" {
				continue
			}
			if card.Metadata == nil {
				card.Metadata = map[string]any{}
			}
			card.Metadata[h] = strings.TrimSpace(record[j])
		}

		for c := 0; c < copies; c++ {
			cp := card.Clone()
			cp.ID = fmt.Sprintf("%s_%d", opts.ID, len(collection.Cards)+1)
			collection.Cards = append(collection.Cards, cp)
		}
	}

	report.Cards = len(collection.Cards)
	return collection, report, nil
}

func known(col string) bool {
	switch col {
	case ColumnName, ColumnType, ColumnCosts, ColumnStats, ColumnKeywords, ColumnTags, ColumnCopies, ColumnText:
		return true
	}
	return false
}

func pairs(s string) ([][2]string, error) {
	var out [][2]string
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, ":")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("expected key:value, got %q", part)
		}
		out = append(out, [2]string{strings.ToLower(strings.TrimSpace(k)), strings.TrimSpace(v)})
	}
	return out, nil
}

func parseInts(s string) (map[string]int, error) {
	kv, err := pairs(s)
	if err != nil || len(kv) == 0 {
		return nil, err
	}
	out := make(map[string]int, len(kv))
	for _, p := range kv {
		n, err := strconv.Atoi(p[1])
		if err != nil {
			return nil, fmt.Errorf("%s is not a number: %q", p[0], p[1])
		}
		out[p[0]] = n
	}
	return out, nil
}

// parseStats keeps non-numeric values such as "*" as strings.
func parseStats(s string) (map[string]any, error) {
	kv, err := pairs(s)
	if err != nil || len(kv) == 0 {
		return nil, err
	}
	out := make(map[string]any, len(kv))
	for _, p := range kv {
		if n, err := strconv.Atoi(p[1]); err == nil {
			out[p[0]] = n
		} else {
			out[p[0]] = p[1]
		}
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
