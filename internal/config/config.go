// Package config loads server configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	CardDB  CardDBConfig  `mapstructure:"carddb"`
	Duel    DuelConfig    `mapstructure:"duel"`
	Replay  ReplayConfig  `mapstructure:"replay"`
}

// ServerConfig configures the WebSocket duel host.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	MaxDuels        int           `mapstructure:"max_duels"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CardDBConfig locates the card database and script directory.
type CardDBConfig struct {
	Path       string `mapstructure:"path"`
	ScriptsDir string `mapstructure:"scripts_dir"`
}

// DuelConfig carries default duel rules.
type DuelConfig struct {
	StartLP int32 `mapstructure:"start_lp"`
}

// ReplayConfig configures replay recording.
type ReplayConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// Load reads configuration from path. Environment variables prefixed
// with OSIRIS_ override file values, e.g. OSIRIS_SERVER_ADDRESS.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.max_duels", 256)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("carddb.path", "data/cards.cdb")
	v.SetDefault("carddb.scripts_dir", "data/scripts")
	v.SetDefault("duel.start_lp", 8000)
	v.SetDefault("replay.enabled", true)
	v.SetDefault("replay.dir", "data/replays")

	v.SetEnvPrefix("OSIRIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file falls back to defaults and environment.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.MaxDuels <= 0 {
		return fmt.Errorf("server.max_duels must be positive")
	}
	if c.Duel.StartLP <= 0 {
		return fmt.Errorf("duel.start_lp must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}
