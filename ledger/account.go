package ledger

import (
	"github.com/rustyeddy/fxreplay/sim"
)

const (
	// MaxHistory bounds the number of finalized accounts kept.
	MaxHistory = 10
	// MaxRecent bounds the cross-session recent trades buffer.
	MaxRecent = 10
)

// Storage keys.
const (
	KeyRecent  = "recentTrades"
	KeyHistory = "accounts"
)

// Finalization reasons.
const (
	ReasonManualRestart = "manual restart"
	ReasonEndOfData     = "end of data"
	ReasonBalanceZero   = sim.ReasonBalanceZero
	ReasonEquityZero    = sim.ReasonEquityZero
)

// Account is one session: a play-through from start or restart to its end.
type Account struct {
	ID          int               `json:"id"`
	StartedAt   int64             `json:"startedAt"`
	EndedAt     *int64            `json:"endedAt"`
	TotalProfit float64           `json:"totalProfit"`
	Reason      string            `json:"reason,omitempty"`
	Trades      []sim.ClosedTrade `json:"trades"`
}

func (a Account) Ended() bool { return a.EndedAt != nil }

// Wins counts trades closed with a positive profit.
func (a Account) Wins() int {
	n := 0
	for _, t := range a.Trades {
		if t.Profit > 0 {
			n++
		}
	}
	return n
}

func (a Account) clone() Account {
	out := a
	if a.EndedAt != nil {
		v := *a.EndedAt
		out.EndedAt = &v
	}
	out.Trades = append([]sim.ClosedTrade(nil), a.Trades...)
	if out.Trades == nil {
		out.Trades = []sim.ClosedTrade{}
	}
	return out
}
