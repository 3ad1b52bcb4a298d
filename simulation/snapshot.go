package simulation

import (
	"github.com/rustyeddy/fxreplay/ledger"
	"github.com/rustyeddy/fxreplay/market"
	"github.com/rustyeddy/fxreplay/sim"
)

// Snapshot is everything a front end renders.
type Snapshot struct {
	Phase      string  `json:"phase"`
	RunID      string  `json:"runId,omitempty"`
	AccountID  int     `json:"accountId"`
	Initial    float64 `json:"initialBalance"`
	Balance    float64 `json:"balance"`
	Equity     float64 `json:"equity"`
	Floating   float64 `json:"floating"`
	Realized   float64 `json:"realized"`
	Terminated bool    `json:"terminated"`
	EndReason  string  `json:"endReason,omitempty"`

	Position      *sim.Position `json:"position"`
	PositionLabel string        `json:"positionLabel"`

	Current   *market.Candle `json:"current"`
	Offset    int            `json:"offset"`
	Index     int            `json:"index"`
	Remaining int            `json:"remaining"`
	Progress  float64        `json:"progress"`

	Trades  int                     `json:"trades"`
	Recent  []sim.ClosedTrade       `json:"recentTrades"`
	History []ledger.Account        `json:"accounts"`
	Summary []ledger.AccountSummary `json:"summary"`
}

// Snapshot reads the UI signals off st.
func (st *State) Snapshot() Snapshot {
	term, _ := st.engine.Terminated()
	s := Snapshot{
		Phase:         st.phase.String(),
		RunID:         st.runID,
		AccountID:     st.accountID(),
		Initial:       st.engine.InitialBalance(),
		Balance:       st.engine.Balance(),
		Equity:        st.engine.Equity(),
		Floating:      st.engine.Floating(),
		Realized:      st.engine.Realized(),
		Terminated:    term,
		EndReason:     st.endReason,
		PositionLabel: "none",
		Offset:        st.cursor.Offset(),
		Index:         st.cursor.Index(),
		Remaining:     st.cursor.Remaining(),
		Progress:      st.cursor.Progress(),
		Trades:        st.engine.TradeCount(),
		Recent:        st.ledger.RecentNewestFirst(),
		History:       st.ledger.History(),
		Summary:       st.ledger.Summary(),
	}
	if pos, ok := st.engine.Position(); ok {
		s.Position = &pos
		s.PositionLabel = pos.String()
	}
	if c, ok := current(st); ok {
		s.Current = &c
	}
	return s
}
