package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides: QOPT_SERVER_PORT sets
// server.port.
const EnvPrefix = "QOPT"

type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Server    ServerConfig    `mapstructure:"server"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`  // text or json
	SeqURL string `mapstructure:"seq_url"` // empty disables Seq
}

// CatalogConfig points at a database directory. Empty means the embedded
// sample database.
type CatalogConfig struct {
	Dir string `mapstructure:"dir"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type OptimizerConfig struct {
	RearrangeLeaves bool `mapstructure:"rearrange_leaves"`
}

type BatchConfig struct {
	Workers int `mapstructure:"workers"`
}

// MetricsConfig is the listen address of the /metrics endpoint. Empty
// disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.seq_url", "")
	v.SetDefault("catalog.dir", "")
	v.SetDefault("server.port", 4444)
	v.SetDefault("optimizer.rearrange_leaves", true)
	v.SetDefault("batch.workers", 4)
	v.SetDefault("metrics.addr", "")
}

// Load reads defaults, then the optional config file at path, then
// QOPT_* environment variables. A missing file at an explicit path is an
// error.
func Load(path string) (*Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith is Load on a caller-supplied viper instance, so command-line
// flags bound to v take part.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

	// 1. Config file (optional)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	// 2. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 3. Unmarshal into struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Batch.Workers < 1 {
		cfg.Batch.Workers = 1
	}
	return &cfg, nil
}

// SlogLevel parses Level, falling back to Info.
func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
