package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full runtime configuration for the card engine.
type Config struct {
	Logging LoggingConfig     `mapstructure:"logging"`
	Engine  EngineConfig      `mapstructure:"engine"`
	Store   StoreConfig       `mapstructure:"store"`
	Notify  NotifyConfig      `mapstructure:"notify"`
	AI      AIConfig          `mapstructure:"ai"`
	Scripts map[string]string `mapstructure:"scripts"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EngineConfig tunes setup and history policies.
type EngineConfig struct {
	MinDeckSize     int    `mapstructure:"min_deck_size"`
	DefaultHandSize int    `mapstructure:"default_hand_size"`
	MaxStateHistory int    `mapstructure:"max_state_history"`
	OptimizeKeep    int    `mapstructure:"optimize_keep"`
	ReplayDir       string `mapstructure:"replay_dir"` // empty disables replay recording
}

// StoreConfig selects the game store backend.
type StoreConfig struct {
	Driver   string         `mapstructure:"driver"` // memory, postgres, redis
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// RedisConfig configures the Redis client.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// NotifyConfig configures outbound game notifications. An empty NATSURL
// disables publishing.
type NotifyConfig struct {
	NATSURL       string `mapstructure:"nats_url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// AIConfig configures automated play.
type AIConfig struct {
	TurnDelay   time.Duration `mapstructure:"turn_delay"`
	MaxTurns    int           `mapstructure:"max_turns"`
	Personality string        `mapstructure:"personality"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	v := newViper()
	cfg := &Config{}
	// Defaults alone always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads configuration from path, applying defaults and CARDENGINE_*
// environment overrides. An empty path yields defaults plus environment.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot operate with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "postgres", "redis":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Store.Database.URL == "" {
		return fmt.Errorf("store.database.url is required for the postgres driver")
	}
	if c.Store.Driver == "redis" && c.Store.Redis.Addr == "" {
		return fmt.Errorf("store.redis.addr is required for the redis driver")
	}
	if c.Engine.MinDeckSize < 0 || c.Engine.DefaultHandSize < 0 {
		return fmt.Errorf("engine sizes must not be negative")
	}
	if c.Engine.MaxStateHistory <= 0 {
		return fmt.Errorf("engine.max_state_history must be positive")
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("engine.min_deck_size", 20)
	v.SetDefault("engine.default_hand_size", 7)
	v.SetDefault("engine.max_state_history", 100)
	v.SetDefault("engine.optimize_keep", 50)
	v.SetDefault("engine.replay_dir", "")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.database.max_conns", 10)
	v.SetDefault("store.database.min_conns", 1)
	v.SetDefault("store.database.max_conn_lifetime", time.Hour)
	v.SetDefault("store.database.connect_timeout", 10*time.Second)
	v.SetDefault("store.redis.prefix", "cardengine:game:")
	v.SetDefault("store.redis.ttl", 24*time.Hour)

	v.SetDefault("notify.subject_prefix", "cardengine.games")

	v.SetDefault("ai.turn_delay", time.Second)
	v.SetDefault("ai.max_turns", 1000)
	v.SetDefault("ai.personality", "balanced")

	v.SetEnvPrefix("CARDENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}
