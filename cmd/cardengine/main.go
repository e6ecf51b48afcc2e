package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tabletop-labs/cardengine/internal/config"
	"github.com/tabletop-labs/cardengine/internal/game"
	"github.com/tabletop-labs/cardengine/internal/game/script"
	"github.com/tabletop-labs/cardengine/internal/game/state"
	"github.com/tabletop-labs/cardengine/internal/notify"
	"github.com/tabletop-labs/cardengine/internal/repository"
)

var (
	configPath string
	version    = "dev" // set via ldflags during build
)

var rootCmd = &cobra.Command{
	Use:           "cardengine",
	Short:         "Universal card game engine",
	Long:          "cardengine runs, inspects and replays card games driven by structured rule sets.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file")
	rootCmd.AddCommand(newSimulateCmd(), newInspectCmd(), newReplayCmd(), newDeckCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runtime bundles what every command needs.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	engine *game.Engine
	close  func()
}

// setup loads configuration and wires the engine with the configured store,
// notifications and scripts.
func setup(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Debug("starting cardengine",
		zap.String("version", version),
		zap.String("config", configPath),
		zap.String("store", cfg.Store.Driver),
	)

	store, closeStore, err := repository.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	closers := []func(){closeStore}

	scripts := script.NewRegistry(logger, 0)
	if err := scripts.RegisterAll(cfg.Scripts); err != nil {
		closeStore()
		return nil, err
	}

	handlers := []notify.Handler{logNotification(logger)}
	if cfg.Notify.NATSURL != "" {
		publisher, err := notify.DialNATS(cfg.Notify.NATSURL, cfg.Notify.SubjectPrefix, logger)
		if err != nil {
			closeStore()
			return nil, err
		}
		handlers = append(handlers, publisher.Handle)
		closers = append(closers, publisher.Close)
	}

	opts := []game.Option{
		game.WithStore(store),
		game.WithStateManager(state.NewManager(logger, state.Options{
			MaxHistory:   cfg.Engine.MaxStateHistory,
			OptimizeKeep: cfg.Engine.OptimizeKeep,
		})),
		game.WithSettings(game.SettingsFromConfig(cfg.Engine)),
		game.WithScripts(scripts),
		game.WithNotifier(notify.Fanout(handlers...)),
	}
	if cfg.Engine.ReplayDir != "" {
		opts = append(opts, game.WithReplayRecorder(game.NewReplayRecorder(logger, cfg.Engine.ReplayDir)))
	}

	return &runtime{
		cfg:    cfg,
		logger: logger,
		engine: game.NewEngine(logger, opts...),
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
			_ = logger.Sync()
		},
	}, nil
}

func logNotification(logger *zap.Logger) notify.Handler {
	return func(n notify.Notification) {
		logger.Debug("game notification",
			zap.String("type", n.Type),
			zap.String("game_id", n.GameID),
			zap.String("player_id", n.PlayerID),
			zap.Any("data", n.Data),
		)
	}
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = []string{"stderr"}

	return zapCfg.Build()
}
