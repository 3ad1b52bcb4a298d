// Package simulation drives a replay session: it owns the series, cursor,
// trade engine and ledger and turns user commands into state changes plus
// effects for the chart, storage and journal.
package simulation

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/rustyeddy/fxreplay/ledger"
	"github.com/rustyeddy/fxreplay/market"
	"github.com/rustyeddy/fxreplay/replay"
	"github.com/rustyeddy/fxreplay/sim"
)

var _ sim.PriceSource = (*replay.Cursor)(nil)

// DefaultInitialBalance is the balance every session starts with.
const DefaultInitialBalance = 10000.0

// Phase of a run.
type Phase int

const (
	// Ready means loaded and waiting for Start.
	Ready Phase = iota
	Running
	// Ended means terminated or out of data. Only Restart leaves it.
	Ended
)

func (p Phase) String() string {
	switch p {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// Settings are the fixed inputs of every fresh session.
type Settings struct {
	InitialBalance float64
	// Rand picks start offsets. Nil seeds from the clock.
	Rand *rand.Rand
	// Now stamps sessions. Nil uses time.Now.
	Now func() time.Time
	// NewRunID names each started run. Nil uses random UUIDs.
	NewRunID func() string
}

func (s Settings) withDefaults() Settings {
	if s.InitialBalance <= 0 {
		s.InitialBalance = DefaultInitialBalance
	}
	if s.Rand == nil {
		s.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.NewRunID == nil {
		s.NewRunID = func() string { return uuid.NewString() }
	}
	return s
}

// State is the whole mutable session aggregate.
type State struct {
	series   market.Series
	cursor   *replay.Cursor
	engine   *sim.Engine
	ledger   *ledger.Ledger
	settings Settings

	phase     Phase
	runID     string
	endReason string
}

// NewState builds a fresh session over series, normalizing it first. A
// ledger without an open session gets one.
func NewState(series market.Series, l *ledger.Ledger, settings Settings) *State {
	if l == nil {
		l = ledger.New()
	}
	st := &State{
		series:   market.Normalize(series),
		ledger:   l,
		settings: settings.withDefaults(),
	}
	st.reset()
	if _, ok := l.Current(); !ok {
		_, _ = l.StartSession(st.settings.Now())
	}
	return st
}

// reset discards the run: new cursor, new engine, back to Ready.
func (st *State) reset() {
	st.cursor = replay.NewCursor(st.series, st.settings.Rand)
	st.engine = sim.NewEngine(st.cursor, st.settings.InitialBalance)
	st.phase = Ready
	st.runID = ""
	st.endReason = ""
}

// abortStart undoes a Start whose first draw failed.
func (st *State) abortStart() {
	st.cursor = replay.NewCursor(st.series, st.settings.Rand)
	st.engine = sim.NewEngine(st.cursor, st.settings.InitialBalance)
	st.phase = Ready
	st.runID = ""
}

func (st *State) Phase() Phase { return st.phase }

// RunID names the current run; empty before Start.
func (st *State) RunID() string { return st.runID }

// EndReason says why the run ended.
func (st *State) EndReason() string { return st.endReason }

func (st *State) Series() market.Series { return st.series }

func (st *State) Cursor() *replay.Cursor { return st.cursor }

func (st *State) Engine() *sim.Engine { return st.engine }

func (st *State) Ledger() *ledger.Ledger { return st.ledger }

func (st *State) now() time.Time { return st.settings.Now() }

func (st *State) accountID() int {
	if a, ok := st.ledger.Current(); ok {
		return a.ID
	}
	return 0
}
