package simulation

import (
	"github.com/rustyeddy/fxreplay/journal"
	"github.com/rustyeddy/fxreplay/market"
	"github.com/rustyeddy/fxreplay/sim"
)

// Effect is an instruction for a collaborator produced by Dispatch.
type Effect interface {
	effect()
}

// SetSeries replaces the drawn candles. Failing the first one of a run
// aborts the start.
type SetSeries struct{ Candles []market.Candle }

type AppendCandle struct{ Candle market.Candle }

// AddMarker draws the open position's price line. The returned handle is
// attached to the position.
type AddMarker struct {
	Price float64
	Side  sim.Side
}

type RemoveMarker struct{ Handle sim.MarkerHandle }

type ClearChart struct{}

// SaveRecent and SaveHistory carry the JSON to store under the ledger keys.
type SaveRecent struct{ Value string }

type SaveHistory struct{ Value string }

type JournalTrade struct{ Record journal.TradeRecord }

type JournalEquity struct{ Snapshot journal.EquitySnapshot }

// Level of a Notify message.
type Level int

const (
	Info Level = iota
	Warn
)

// Notify is a user facing message.
type Notify struct {
	Level   Level
	Message string
}

func (SetSeries) effect()     {}
func (AppendCandle) effect()  {}
func (AddMarker) effect()     {}
func (RemoveMarker) effect()  {}
func (ClearChart) effect()    {}
func (SaveRecent) effect()    {}
func (SaveHistory) effect()   {}
func (JournalTrade) effect()  {}
func (JournalEquity) effect() {}
func (Notify) effect()        {}
