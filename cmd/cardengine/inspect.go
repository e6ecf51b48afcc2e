package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tabletop-labs/cardengine/internal/game"
	"github.com/tabletop-labs/cardengine/internal/game/state"
)

type inspectReport struct {
	Checksum   string                 `json:"checksum"`
	Validation state.ValidationResult `json:"validation"`
	Snapshot   state.StateSnapshot    `json:"snapshot"`
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <export.json>",
		Short: "Import an exported game and report its structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read export: %w", err)
			}
			gs, err := rt.engine.ImportGame(ctx, string(data))
			if err != nil {
				return err
			}

			sum, err := state.Checksum(gs)
			if err != nil {
				return err
			}
			states := rt.engine.States()
			return writeJSON(cmd, inspectReport{
				Checksum:   sum,
				Validation: states.ValidateState(gs),
				Snapshot:   states.CreateSnapshot(gs),
			})
		},
	}
}

func newReplayCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "replay <game-id>",
		Short: "Load a saved replay, verify it and print every recorded state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			if dir == "" {
				dir = rt.cfg.Engine.ReplayDir
			}
			if dir == "" {
				return fmt.Errorf("no replay directory: set --dir or engine.replay_dir")
			}

			r, err := game.LoadReplayFromFile(dir, args[0])
			if err != nil {
				return err
			}

			states := rt.engine.States()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "replay %s: %d states\n", args[0], r.Size())
			for i := 0; i < r.Size(); i++ {
				s := r.At(i)
				snap := states.CreateSnapshot(s)
				fmt.Fprintf(out, "%3d  turn %d  %-10s current=%s status=%s events=%d\n",
					i, snap.Turn, snap.Phase, snap.CurrentPlayer, snap.GameStatus, snap.EventCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "replay directory (defaults to engine.replay_dir)")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
