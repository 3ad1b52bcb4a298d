// journal/journal.go
package journal

import (
	"time"

	"github.com/rustyeddy/fxreplay/sim"
)

// TradeRecord is a closed trade as the journal stores it.
type TradeRecord struct {
	TradeID    string
	RunID      string
	AccountID  int
	Side       string
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	Pips       float64
	Profit     float64
	Reason     string
}

// EquitySnapshot is the account state after a candle was played.
type EquitySnapshot struct {
	RunID    string
	Time     time.Time
	Balance  float64
	Equity   float64
	Floating float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// NewTradeRecord converts a closed trade of the given run and account.
func NewTradeRecord(runID string, accountID int, t sim.ClosedTrade, reason string) TradeRecord {
	return TradeRecord{
		TradeID:    t.ID,
		RunID:      runID,
		AccountID:  accountID,
		Side:       string(t.Side),
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
		OpenTime:   time.Unix(t.Time, 0).UTC(),
		CloseTime:  time.Unix(t.ClosedAt, 0).UTC(),
		Pips:       t.Pips,
		Profit:     t.Profit,
		Reason:     reason,
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error     { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) Close() error                      { return nil }
