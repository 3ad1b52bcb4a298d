package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"

	"github.com/rustyeddy/fxreplay/chart"
	"github.com/rustyeddy/fxreplay/config"
	"github.com/rustyeddy/fxreplay/journal"
	"github.com/rustyeddy/fxreplay/simulation"
	"github.com/rustyeddy/fxreplay/store"
)

// openStore returns the key value store holding account history.
func openStore(c config.StorageConfig) (store.KV, error) {
	switch c.Driver {
	case "", "memory":
		return store.NewMemory(), nil
	case "sqlite":
		s, err := store.NewSQLite(c.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.Driver)
	}
}

func openJournal(c config.JournalConfig) (journal.Journal, error) {
	var (
		j   journal.Journal
		err error
	)
	switch c.Type {
	case "", "none":
		return journal.Nop{}, nil
	case "csv":
		j, err = journal.NewCSV(c.TradesFile, c.EquityFile)
	case "sqlite":
		j, err = journal.NewSQLite(c.DBPath)
	default:
		return nil, fmt.Errorf("unknown journal type %q", c.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}
	return j, nil
}

func settings(c config.SimulationConfig) simulation.Settings {
	s := simulation.Settings{InitialBalance: c.InitialBalance}
	if c.Seed != 0 {
		s.Rand = rand.New(rand.NewSource(c.Seed))
	}
	return s
}

// session loads the configured feed into a controller drawing on canvas.
// The controller owns the store and journal; Close releases them.
func session(ctx context.Context, c *config.Config, canvas *chart.Canvas, opts ...simulation.Option) (*simulation.Controller, error) {
	kv, err := openStore(c.Storage)
	if err != nil {
		return nil, err
	}
	j, err := openJournal(c.Journal)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	ctl, err := simulation.Load(ctx, simulation.LoadOptions{
		Source:     c.Data.Source,
		HTTPClient: &http.Client{Timeout: c.Data.Timeout},
		KV:         kv,
		Settings:   settings(c.Simulation),
		Logger:     logger,
		Options:    append([]simulation.Option{simulation.WithChart(canvas), simulation.WithJournal(j)}, opts...),
	})
	if err != nil {
		_ = j.Close()
		_ = kv.Close()
		return nil, err
	}
	return ctl, nil
}
