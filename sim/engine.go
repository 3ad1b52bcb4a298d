package sim

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/fxreplay/internal/id"
	"github.com/rustyeddy/fxreplay/market"
)

// Termination reasons. Balance and equity are separate trigger points.
const (
	ReasonBalanceZero = "balance reached zero after closing the position"
	ReasonEquityZero  = "equity reached zero while a position was open"
)

var (
	ErrPositionOpen = errors.New("a position is already open")
	ErrTerminated   = errors.New("simulation is terminated")
	ErrNoPrice      = errors.New("no valid current candle")
)

// State of the trade lifecycle.
type State int

const (
	Flat State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "flat"
}

// PriceSource yields the candle trades execute against.
type PriceSource interface {
	Current() (market.Candle, error)
}

// Engine is the single position state machine for one session. Balance
// changes only when a trade closes.
type Engine struct {
	prices PriceSource

	pos *Position

	initial  float64
	balance  float64
	realized float64
	trades   int

	terminated bool
	reason     string
}

func NewEngine(prices PriceSource, initialBalance float64) *Engine {
	return &Engine{
		prices:  prices,
		initial: initialBalance,
		balance: initialBalance,
	}
}

// Open enters a market position at the current close.
func (e *Engine) Open(side Side) (Position, error) {
	if e.terminated {
		return Position{}, ErrTerminated
	}
	if e.pos != nil {
		return Position{}, ErrPositionOpen
	}
	if side != Buy && side != Sell {
		return Position{}, fmt.Errorf("open: unknown side %q", side)
	}

	c, err := e.price()
	if err != nil {
		return Position{}, fmt.Errorf("open: %w", err)
	}

	e.pos = &Position{
		Side:       side,
		EntryPrice: c.Close,
		EntryTime:  c.Time,
	}
	return *e.pos, nil
}

// AttachMarker stores the chart handle for the open position.
func (e *Engine) AttachMarker(h MarkerHandle) bool {
	if e.pos == nil {
		return false
	}
	e.pos.Marker = h
	return true
}

// Close exits the open position at the current close. Closing while flat
// is a no-op and reports ok=false. If the current candle is unusable the
// position stays open and ErrNoPrice is returned.
func (e *Engine) Close() (ClosedTrade, bool, error) {
	if e.pos == nil {
		return ClosedTrade{}, false, nil
	}
	c, err := e.price()
	if err != nil {
		return ClosedTrade{}, false, fmt.Errorf("close: %w", err)
	}
	return e.closeAt(c), true, nil
}

// Settle closes the open position at an explicit candle. The controller
// uses it when the data runs out.
func (e *Engine) Settle(c market.Candle) (ClosedTrade, bool) {
	if e.pos == nil || !c.Valid() {
		return ClosedTrade{}, false
	}
	return e.closeAt(c), true
}

func (e *Engine) closeAt(c market.Candle) ClosedTrade {
	p := *e.pos
	profit := Profit(p.Side, p.EntryPrice, c.Close)

	e.balance += profit
	e.realized += profit
	e.trades++
	e.pos = nil

	if e.balance <= 0 {
		e.terminate(ReasonBalanceZero)
	}

	return ClosedTrade{
		ID:         id.New(),
		Time:       p.EntryTime,
		Side:       p.Side,
		EntryPrice: p.EntryPrice,
		ExitPrice:  c.Close,
		Pips:       profit,
		Profit:     profit,
		ClosedAt:   c.Time,
	}
}

// Mark is the result of a mark-to-market pass.
type Mark struct {
	Floating   float64
	Equity     float64
	Terminated bool
	// Dropped is the position discarded by an equity termination.
	Dropped *Position
}

// MarkToMarket revalues the open position against the current close.
// When equity falls to zero or below the session terminates and the
// position is discarded without realizing its loss.
func (e *Engine) MarkToMarket() Mark {
	floating := e.Floating()
	m := Mark{Floating: floating, Equity: e.balance + floating}
	if e.pos == nil || e.terminated {
		return m
	}
	if m.Equity <= 0 {
		dropped := *e.pos
		e.pos = nil
		e.terminate(ReasonEquityZero)
		m.Terminated = true
		m.Dropped = &dropped
	}
	return m
}

// Floating is the unrealized P/L, zero when flat or without a price.
func (e *Engine) Floating() float64 {
	if e.pos == nil {
		return 0
	}
	c, err := e.price()
	if err != nil {
		return 0
	}
	return UnrealizedPL(*e.pos, c.Close)
}

func (e *Engine) Equity() float64 { return e.balance + e.Floating() }

func (e *Engine) Balance() float64 { return e.balance }

// Realized is the session's accumulated closed P/L.
func (e *Engine) Realized() float64 { return e.realized }

func (e *Engine) InitialBalance() float64 { return e.initial }

func (e *Engine) TradeCount() int { return e.trades }

func (e *Engine) Position() (Position, bool) {
	if e.pos == nil {
		return Position{}, false
	}
	return *e.pos, true
}

func (e *Engine) State() State {
	if e.pos != nil {
		return Open
	}
	return Flat
}

// Terminated reports the terminal flag and the reason it was set.
func (e *Engine) Terminated() (bool, string) {
	return e.terminated, e.reason
}

func (e *Engine) terminate(reason string) {
	if e.terminated {
		return
	}
	e.terminated = true
	e.reason = reason
}

func (e *Engine) price() (market.Candle, error) {
	if e.prices == nil {
		return market.Candle{}, ErrNoPrice
	}
	c, err := e.prices.Current()
	if err != nil {
		return market.Candle{}, fmt.Errorf("%w: %v", ErrNoPrice, err)
	}
	if !c.Valid() {
		return market.Candle{}, ErrNoPrice
	}
	return c, nil
}
