package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tabletop-labs/cardengine/internal/ai"
	"github.com/tabletop-labs/cardengine/internal/game/model"
)

func newSimulateCmd() *cobra.Command {
	var (
		gamePath    string
		personality string
		maxTurns    int
		exportPath  string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play a configured game with AI players in every seat",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			gameCfg, err := readGameConfig(gamePath)
			if err != nil {
				return err
			}

			gs, err := rt.engine.CreateGame(ctx, gameCfg)
			if err != nil {
				return err
			}

			if personality == "" {
				personality = rt.cfg.AI.Personality
			}
			seats := make([]ai.Seat, len(gs.Players))
			for i, p := range gs.Players {
				seats[i] = ai.Seat{PlayerID: p.ID, Personality: personality}
			}

			manager := ai.NewManager(rt.logger, rt.engine, nil, rt.cfg.AI)
			final, err := manager.SimulateGame(ctx, gs, seats, maxTurns)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "game %s: turn %d, status %s\n", final.ID, final.Turn, final.GameStatus)
			if win := rt.engine.CheckWinConditions(final); win != nil && win.Winner != nil {
				fmt.Fprintf(out, "winner: %s (%s)\n", win.Winner.Name, win.Condition)
			} else {
				fmt.Fprintln(out, "no winner")
			}

			if exportPath != "" {
				data, err := rt.engine.ExportGame(final)
				if err != nil {
					return err
				}
				if err := os.WriteFile(exportPath, []byte(data), 0o644); err != nil {
					return fmt.Errorf("failed to write export: %w", err)
				}
			}

			// Ending flushes the replay when recording is configured.
			if _, err := rt.engine.EndGame(ctx, final.ID); err != nil {
				rt.logger.Warn("failed to end game", zap.String("game_id", final.ID), zap.Error(err))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&gamePath, "game", "", "path to a JSON game configuration")
	cmd.Flags().StringVar(&personality, "personality", "", "AI personality for every seat")
	cmd.Flags().IntVar(&maxTurns, "max-turns", 0, "maximum number of moves to simulate")
	cmd.Flags().StringVar(&exportPath, "export", "", "write the final state to this file")
	_ = cmd.MarkFlagRequired("game")
	return cmd
}

func readGameConfig(path string) (model.GameConfiguration, error) {
	var cfg model.GameConfiguration
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read game config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode game config: %w", err)
	}
	return cfg, nil
}
