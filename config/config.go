package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const envPrefix = "fxreplay"

// Config represents the complete replay configuration
type Config struct {
	Data       DataConfig       `mapstructure:"data" json:"data" yaml:"data"`
	Simulation SimulationConfig `mapstructure:"simulation" json:"simulation" yaml:"simulation"`
	Storage    StorageConfig    `mapstructure:"storage" json:"storage" yaml:"storage"`
	Journal    JournalConfig    `mapstructure:"journal" json:"journal" yaml:"journal"`
	Logging    LoggingConfig    `mapstructure:"logging" json:"logging" yaml:"logging"`
	Server     ServerConfig     `mapstructure:"server" json:"server" yaml:"server"`
}

// DataConfig names the candle feed: a file path or an http(s) URL.
type DataConfig struct {
	Source  string        `mapstructure:"source" json:"source" yaml:"source"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
}

// SimulationConfig contains session parameters
type SimulationConfig struct {
	InitialBalance float64 `mapstructure:"initial_balance" json:"initial_balance" yaml:"initial_balance"`
	// Seed fixes the start offsets. Zero seeds from the clock.
	Seed int64 `mapstructure:"seed" json:"seed" yaml:"seed"`
}

// StorageConfig selects where account history and recent trades live.
type StorageConfig struct {
	Driver string `mapstructure:"driver" json:"driver" yaml:"driver"` // "memory" or "sqlite"
	Path   string `mapstructure:"path" json:"path,omitempty" yaml:"path,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `mapstructure:"type" json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `mapstructure:"trades_file" json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `mapstructure:"equity_file" json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `mapstructure:"db_path" json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoggingConfig drives the zap logger.
type LoggingConfig struct {
	Level            string   `mapstructure:"level" json:"level" yaml:"level"`
	Encoding         string   `mapstructure:"encoding" json:"encoding" yaml:"encoding"`
	Development      bool     `mapstructure:"development" json:"development" yaml:"development"`
	OutputPaths      []string `mapstructure:"output_paths" json:"output_paths" yaml:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths" json:"error_output_paths" yaml:"error_output_paths"`
}

// ServerConfig is the HTTP API listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" json:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Source:  "data/candles.json",
			Timeout: 30 * time.Second,
		},
		Simulation: SimulationConfig{
			InitialBalance: 10000,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "data/fxreplay.db",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "data/journal.db",
		},
		Logging: LoggingConfig{
			Level:            "info",
			Encoding:         "console",
			OutputPaths:      []string{"stderr"},
			ErrorOutputPaths: []string{"stderr"},
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// Load reads the configuration file at path, overlaid by FXREPLAY_*
// environment variables. An empty path uses defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("data.source", d.Data.Source)
	v.SetDefault("data.timeout", d.Data.Timeout)

	v.SetDefault("simulation.initial_balance", d.Simulation.InitialBalance)
	v.SetDefault("simulation.seed", d.Simulation.Seed)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.path", d.Storage.Path)

	v.SetDefault("journal.type", d.Journal.Type)
	v.SetDefault("journal.trades_file", d.Journal.TradesFile)
	v.SetDefault("journal.equity_file", d.Journal.EquityFile)
	v.SetDefault("journal.db_path", d.Journal.DBPath)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.encoding", d.Logging.Encoding)
	v.SetDefault("logging.development", d.Logging.Development)
	v.SetDefault("logging.output_paths", d.Logging.OutputPaths)
	v.SetDefault("logging.error_output_paths", d.Logging.ErrorOutputPaths)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var err error

	if c.Data.Source == "" {
		err = multierr.Append(err, errors.New("data.source is required"))
	}
	if c.Data.Timeout < 0 {
		err = multierr.Append(err, errors.New("data.timeout must not be negative"))
	}
	if c.Simulation.InitialBalance <= 0 {
		err = multierr.Append(err, errors.New("simulation.initial_balance must be positive"))
	}

	switch c.Storage.Driver {
	case "memory":
	case "sqlite":
		if c.Storage.Path == "" {
			err = multierr.Append(err, errors.New("storage.path is required for sqlite"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("storage.driver must be 'memory' or 'sqlite', got %q", c.Storage.Driver))
	}

	switch c.Journal.Type {
	case "none", "":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			err = multierr.Append(err, errors.New("journal trades_file and equity_file required for CSV type"))
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			err = multierr.Append(err, errors.New("journal.db_path required for SQLite type"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite', got %q", c.Journal.Type))
	}

	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level is required"))
	}
	if c.Logging.Encoding != "console" && c.Logging.Encoding != "json" {
		err = multierr.Append(err, errors.New("logging.encoding must be 'console' or 'json'"))
	}

	if c.Server.Addr == "" {
		err = multierr.Append(err, errors.New("server.addr is required"))
	}
	if c.Server.ShutdownTimeout < 0 {
		err = multierr.Append(err, errors.New("server.shutdown_timeout must not be negative"))
	}
	return err
}
