package simulation

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxreplay/chart"
	"github.com/rustyeddy/fxreplay/ledger"
	"github.com/rustyeddy/fxreplay/market"
	"github.com/rustyeddy/fxreplay/store"
)

const t0 = 1_704_067_200

// zeroSource makes every random start offset 0.
type zeroSource struct{}

func (zeroSource) Int63() int64 { return 0 }
func (zeroSource) Seed(int64)   {}

// flatSeries is n hourly candles closing at 1.1000, with overrides by index.
func flatSeries(n int, closes map[int]float64) market.Series {
	s := make(market.Series, n)
	for i := range s {
		c := 1.1000
		if v, ok := closes[i]; ok {
			c = v
		}
		s[i] = market.Candle{Time: t0 + int64(i)*3600, Open: c, High: c + 0.0005, Low: c - 0.0005, Close: c}
	}
	return s
}

func testSettings(balance float64) Settings {
	runs := 0
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return Settings{
		InitialBalance: balance,
		Rand:           rand.New(zeroSource{}),
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
		NewRunID: func() string {
			runs++
			return fmt.Sprintf("run-%d", runs)
		},
	}
}

type fixture struct {
	st     *State
	ctl    *Controller
	canvas *chart.Canvas
	kv     *store.Memory
	notes  []Notify
}

func newFixture(t *testing.T, series market.Series, balance float64) *fixture {
	t.Helper()
	f := &fixture{
		canvas: chart.NewCanvas(),
		kv:     store.NewMemory(),
	}
	f.st = NewState(series, ledger.New(), testSettings(balance))
	f.ctl = NewController(f.st,
		WithChart(f.canvas),
		WithStore(f.kv),
		WithNotifier(func(n Notify) { f.notes = append(f.notes, n) }),
	)
	return f
}

func (f *fixture) exec(t *testing.T, cmds ...Command) {
	t.Helper()
	for _, c := range cmds {
		require.NoError(t, f.ctl.Execute(c), c.Name())
	}
}

// failingStore rejects every write.
type failingStore struct{}

func (failingStore) Set(string, string) error { return errors.New("disk full") }

// flakyChart fails SetSeries a number of times before delegating.
type flakyChart struct {
	*chart.Canvas
	failures int
}

func (c *flakyChart) SetSeries(candles []market.Candle) error {
	if c.failures > 0 {
		c.failures--
		return errors.New("bad data")
	}
	return c.Canvas.SetSeries(candles)
}
