package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxreplay/config"
	"github.com/rustyeddy/fxreplay/journal"
	"github.com/rustyeddy/fxreplay/store"
)

// execute runs the root command with args. Flag variables are package
// level, so these tests do not run in parallel.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func resetFlags() {
	cfgFile = ""
	playDataPath, serveDataPath, scriptDataPath = "", "", ""
	serveAddr = ""
	scriptSeed, scriptStrict = 0, false
	accountsSummary, accountsJSON = false, false
	journalDBPath, journalStatsRun, journalStatsAccount = "", "", 0
}

func writeFeed(t *testing.T, dir string, n int) string {
	t.Helper()
	type rec struct {
		Time  int64   `json:"time"`
		Open  float64 `json:"open"`
		High  float64 `json:"high"`
		Low   float64 `json:"low"`
		Close float64 `json:"close"`
	}
	recs := make([]rec, n)
	for i := range recs {
		p := 1.1 + float64(i%13)*0.0003
		recs[i] = rec{Time: 1_704_067_200 + int64(i)*3600, Open: p, High: p + 0.0005, Low: p - 0.0005, Close: p}
	}
	data, err := json.Marshal(recs)
	require.NoError(t, err)
	path := filepath.Join(dir, "candles.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeConfig(t *testing.T, dir, feed string) string {
	t.Helper()
	c := config.Default()
	c.Data.Source = feed
	c.Storage.Path = filepath.Join(dir, "fxreplay.db")
	c.Journal.DBPath = filepath.Join(dir, "journal.db")
	c.Logging.Level = "error"
	path := filepath.Join(dir, "fxreplay.yaml")
	require.NoError(t, c.SaveToFile(path))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "fxreplay version "+version)
}

func TestConfigInitAndValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf", "fxreplay.yaml")

	out, err := execute(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")
	assert.FileExists(t, path)

	out, err = execute(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "Journal: sqlite")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("storage:\n  driver: tape\n"), 0o644))
	_, err = execute(t, "config", "validate", "-f", bad)
	assert.ErrorContains(t, err, "validation failed")
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, writeFeed(t, dir, 120))

	out, err := execute(t, "--config", cfgPath, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Kept:         120")
	assert.Contains(t, out, "Ready to replay (20 playable")
	assert.Contains(t, out, "From: 2024-01-01T00:00:00Z")
	assert.Contains(t, out, "To:   2024-01-05T23:00:00Z")

	short := filepath.Join(t.TempDir(), "short.json")
	require.NoError(t, os.WriteFile(short, []byte(`[{"time":1,"open":1,"high":1,"low":1,"close":1}]`), 0o644))
	_, err = execute(t, "--config", cfgPath, "check", short)
	assert.Error(t, err)
}

func TestScriptThenReports(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, writeFeed(t, dir, 160))

	script := filepath.Join(dir, "session.csv")
	require.NoError(t, os.WriteFile(script, []byte("# one trade then restart\nstart\nbuy\nnext,5\nclose\nrestart\n"), 0o644))

	out, err := execute(t, "--config", cfgPath, "script", script, "--seed", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "Script complete")
	assert.Contains(t, out, "Phase:    ready")
	assert.Contains(t, out, "Account:  2")

	out, err = execute(t, "--config", cfgPath, "accounts", "--summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Account 1 ")
	assert.Contains(t, out, "Next account: 2")

	out, err = execute(t, "--config", cfgPath, "accounts")
	require.NoError(t, err)
	assert.Contains(t, out, "#+TITLE: Accounts")

	out, err = execute(t, "--config", cfgPath, "journal", "account", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "** Trade: BUY")
	assert.Contains(t, out, ":ACCOUNT: 1")

	out, err = execute(t, "--config", cfgPath, "journal", "stats", "--account", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "* Account 1")
	assert.Contains(t, out, "| Trades | 1 |")

	_, err = execute(t, "--config", cfgPath, "journal", "account", "one")
	assert.Error(t, err)
}

func TestOpenStoreAndJournal(t *testing.T) {
	dir := t.TempDir()

	kv, err := openStore(config.StorageConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &store.Memory{}, kv)

	kv, err = openStore(config.StorageConfig{Driver: "sqlite", Path: filepath.Join(dir, "kv.db")})
	require.NoError(t, err)
	assert.IsType(t, &store.SQLite{}, kv)
	require.NoError(t, kv.Close())

	_, err = openStore(config.StorageConfig{Driver: "tape"})
	assert.Error(t, err)

	for _, tc := range []struct {
		cfg  config.JournalConfig
		want any
	}{
		{config.JournalConfig{Type: "none"}, journal.Nop{}},
		{config.JournalConfig{Type: "csv", TradesFile: filepath.Join(dir, "t.csv"), EquityFile: filepath.Join(dir, "e.csv")}, &journal.CSVJournal{}},
		{config.JournalConfig{Type: "sqlite", DBPath: filepath.Join(dir, "j.db")}, &journal.SQLite{}},
	} {
		j, err := openJournal(tc.cfg)
		require.NoError(t, err, tc.cfg.Type)
		assert.IsType(t, tc.want, j, tc.cfg.Type)
		require.NoError(t, j.Close())
	}

	_, err = openJournal(config.JournalConfig{Type: "paper"})
	assert.ErrorContains(t, err, fmt.Sprintf("%q", "paper"))
}
