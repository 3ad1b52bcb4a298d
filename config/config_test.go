package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)
	assert.Equal(t, 10000.0, cfg.Simulation.InitialBalance)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing source",
			mutate:  func(c *Config) { c.Data.Source = "" },
			wantErr: "data.source is required",
		},
		{
			name:    "zero balance",
			mutate:  func(c *Config) { c.Simulation.InitialBalance = 0 },
			wantErr: "simulation.initial_balance must be positive",
		},
		{
			name:    "unknown storage driver",
			mutate:  func(c *Config) { c.Storage.Driver = "redis" },
			wantErr: "storage.driver must be",
		},
		{
			name:    "sqlite storage without path",
			mutate:  func(c *Config) { c.Storage.Path = "" },
			wantErr: "storage.path is required for sqlite",
		},
		{
			name:   "memory storage without path",
			mutate: func(c *Config) { c.Storage = StorageConfig{Driver: "memory"} },
		},
		{
			name:    "csv journal without files",
			mutate:  func(c *Config) { c.Journal = JournalConfig{Type: "csv"} },
			wantErr: "journal trades_file and equity_file required for CSV type",
		},
		{
			name:   "no journal",
			mutate: func(c *Config) { c.Journal = JournalConfig{Type: "none"} },
		},
		{
			name:    "bad journal type",
			mutate:  func(c *Config) { c.Journal.Type = "postgres" },
			wantErr: "journal.type must be",
		},
		{
			name:    "bad encoding",
			mutate:  func(c *Config) { c.Logging.Encoding = "xml" },
			wantErr: "logging.encoding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.GreaterOrEqual(t, len(multierr.Errors(err)), 6)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fxreplay.yaml")
	data := `
data:
  source: https://example.com/candles.json
  timeout: 5s
simulation:
  initial_balance: 2500
  seed: 42
storage:
  driver: memory
journal:
  type: none
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/candles.json", cfg.Data.Source)
	assert.Equal(t, 5*time.Second, cfg.Data.Timeout)
	assert.Equal(t, 2500.0, cfg.Simulation.InitialBalance)
	assert.Equal(t, int64(42), cfg.Simulation.Seed)
	assert.Equal(t, "memory", cfg.Storage.Driver)

	// untouched sections keep their defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"stderr"}, cfg.Logging.OutputPaths)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FXREPLAY_SIMULATION_INITIAL_BALANCE", "777")
	t.Setenv("FXREPLAY_SERVER_ADDR", "127.0.0.1:9999")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 777.0, cfg.Simulation.InitialBalance)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  initial_balance: -1\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "simulation.initial_balance must be positive")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"config.yaml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Simulation.Seed = 7
			cfg.Storage = StorageConfig{Driver: "memory"}

			path := filepath.Join(dir, name)
			require.NoError(t, cfg.SaveToFile(path))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, int64(7), loaded.Simulation.Seed)
			assert.Equal(t, "memory", loaded.Storage.Driver)
			assert.Equal(t, cfg.Data.Timeout, loaded.Data.Timeout)
		})
	}
}
