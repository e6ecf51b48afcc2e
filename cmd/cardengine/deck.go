package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tabletop-labs/cardengine/internal/deck"
	"github.com/tabletop-labs/cardengine/internal/game/model"
)

func newDeckCmd() *cobra.Command {
	var (
		id        string
		name      string
		gameType  string
		maxCopies int
	)

	cmd := &cobra.Command{
		Use:   "deck <cards.csv>",
		Short: "Convert a CSV card list into a deck usable in a game configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open card list: %w", err)
			}
			defer file.Close()

			if id == "" {
				id = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			collection, report, err := deck.ParseCSV(file, deck.Options{
				ID:        id,
				Name:      name,
				GameType:  model.GameType(gameType),
				MaxCopies: maxCopies,
			})
			if err != nil {
				return err
			}

			for _, skipped := range report.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", skipped)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d rows, %d cards\n", report.Rows, report.Cards)
			return writeJSON(cmd, collection)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "deck id (defaults to the file name)")
	cmd.Flags().StringVar(&name, "name", "", "deck name")
	cmd.Flags().StringVar(&gameType, "game-type", string(model.GameTypeTCG), "game family of the cards")
	cmd.Flags().IntVar(&maxCopies, "max-copies", 0, "cap on copies per row, 0 for no cap")
	return cmd
}
