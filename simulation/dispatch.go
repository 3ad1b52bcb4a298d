package simulation

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/fxreplay/journal"
	"github.com/rustyeddy/fxreplay/ledger"
	"github.com/rustyeddy/fxreplay/market"
	"github.com/rustyeddy/fxreplay/replay"
	"github.com/rustyeddy/fxreplay/sim"
)

// Rejected transitions. State is untouched when Dispatch returns one.
var (
	ErrNotRunning     = errors.New("simulation: not started")
	ErrAlreadyStarted = errors.New("simulation: already started")
	ErrEnded          = errors.New("simulation: run has ended, restart to play again")
	ErrUnknownCommand = errors.New("simulation: unknown command")
)

// Dispatch applies cmd to st and returns the effects for the
// collaborators, in order. It performs no I/O.
func Dispatch(st *State, cmd Command) ([]Effect, error) {
	switch c := cmd.(type) {
	case Start:
		return start(st)
	case Advance:
		return advance(st)
	case OpenPosition:
		return openPosition(st, c.Side)
	case ClosePosition:
		return closePosition(st)
	case Restart:
		return restart(st)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

func start(st *State) ([]Effect, error) {
	switch st.phase {
	case Running:
		return nil, ErrAlreadyStarted
	case Ended:
		return nil, ErrEnded
	}

	window, err := st.cursor.Start()
	if err != nil {
		return nil, err
	}
	st.phase = Running
	st.runID = st.settings.NewRunID()

	return []Effect{
		SetSeries{Candles: window},
		Notify{Level: Info, Message: fmt.Sprintf("simulation started on account %d", st.accountID())},
	}, nil
}

func advance(st *State) ([]Effect, error) {
	if err := requireRunning(st); err != nil {
		return nil, err
	}

	c, err := st.cursor.Advance()
	if errors.Is(err, replay.ErrExhausted) {
		return endOfData(st), nil
	}
	if err != nil {
		return nil, err
	}

	effects := []Effect{AppendCandle{Candle: c}}

	mark := st.engine.MarkToMarket()
	effects = append(effects, equityEffect(st, c.Time, mark.Floating))

	if mark.Terminated {
		if mark.Dropped != nil && mark.Dropped.Marker != "" {
			effects = append(effects, RemoveMarker{Handle: mark.Dropped.Marker})
		}
		_, reason := st.engine.Terminated()
		effects = append(effects, gameOver(st, reason)...)
	}
	return effects, nil
}

func openPosition(st *State, side sim.Side) ([]Effect, error) {
	if term, _ := st.engine.Terminated(); term {
		return nil, sim.ErrTerminated
	}
	if err := requireRunning(st); err != nil {
		return nil, err
	}

	pos, err := st.engine.Open(side)
	if err != nil {
		return nil, err
	}
	return []Effect{
		AddMarker{Price: pos.EntryPrice, Side: pos.Side},
		Notify{Level: Info, Message: "opened " + pos.String()},
	}, nil
}

// closePosition is a no-op while flat, whatever the phase.
func closePosition(st *State) ([]Effect, error) {
	pos, open := st.engine.Position()
	if !open {
		return nil, nil
	}

	tr, ok, err := st.engine.Close()
	if err != nil || !ok {
		return nil, err
	}

	var effects []Effect
	if pos.Marker != "" {
		effects = append(effects, RemoveMarker{Handle: pos.Marker})
	}
	effects = append(effects, recordTrade(st, tr, "manual")...)

	if term, reason := st.engine.Terminated(); term {
		effects = append(effects, gameOver(st, reason)...)
	}
	return effects, nil
}

func restart(st *State) ([]Effect, error) {
	var effects []Effect

	if pos, ok := st.engine.Position(); ok && pos.Marker != "" {
		effects = append(effects, RemoveMarker{Handle: pos.Marker})
	}

	// a terminated or exhausted run was finalized already
	if _, ok := st.ledger.FinalizeSession(ledger.ReasonManualRestart, st.now()); ok {
		effects = append(effects, saveHistory(st)...)
	}
	acct, err := st.ledger.StartSession(st.now())
	if err != nil {
		return nil, err
	}

	st.reset()

	return append(effects,
		ClearChart{},
		Notify{Level: Info, Message: fmt.Sprintf("restarted on account %d", acct.ID)},
	), nil
}

// endOfData settles any open position at the last candle and ends the run.
func endOfData(st *State) []Effect {
	var effects []Effect

	if pos, ok := st.engine.Position(); ok {
		if last, ok := st.cursor.Last(); ok {
			if tr, ok := st.engine.Settle(last); ok {
				if pos.Marker != "" {
					effects = append(effects, RemoveMarker{Handle: pos.Marker})
				}
				effects = append(effects, recordTrade(st, tr, ledger.ReasonEndOfData)...)
			}
		}
	}

	reason := ledger.ReasonEndOfData
	if term, r := st.engine.Terminated(); term {
		reason = r
	}
	effects = append(effects, finish(st, reason)...)
	return append(effects, Notify{Level: Info, Message: "end of historical data"})
}

func gameOver(st *State, reason string) []Effect {
	effects := finish(st, reason)
	return append(effects, Notify{Level: Warn, Message: "game over: " + reason})
}

func finish(st *State, reason string) []Effect {
	st.phase = Ended
	st.endReason = reason
	if _, ok := st.ledger.FinalizeSession(reason, st.now()); ok {
		return saveHistory(st)
	}
	return nil
}

func recordTrade(st *State, tr sim.ClosedTrade, reason string) []Effect {
	accountID := st.accountID()

	var effects []Effect
	if err := st.ledger.RecordTrade(tr); err != nil {
		effects = append(effects, Notify{Level: Warn, Message: fmt.Sprintf("trade not added to an account: %v", err)})
	}
	if raw, err := st.ledger.EncodeRecent(); err == nil {
		effects = append(effects, SaveRecent{Value: raw})
	}
	effects = append(effects,
		JournalTrade{Record: journal.NewTradeRecord(st.runID, accountID, tr, reason)},
		equityEffect(st, tr.ClosedAt, 0),
		Notify{Level: Info, Message: fmt.Sprintf("closed %s %s", tr.Side, ledger.FormatSigned(tr.Profit))},
	)
	return effects
}

func saveHistory(st *State) []Effect {
	raw, err := st.ledger.EncodeHistory()
	if err != nil {
		return nil
	}
	return []Effect{SaveHistory{Value: raw}}
}

func equityEffect(st *State, at int64, floating float64) Effect {
	balance := st.engine.Balance()
	return JournalEquity{Snapshot: journal.EquitySnapshot{
		RunID:    st.runID,
		Time:     time.Unix(at, 0).UTC(),
		Balance:  balance,
		Equity:   balance + floating,
		Floating: floating,
	}}
}

func requireRunning(st *State) error {
	switch st.phase {
	case Ready:
		return ErrNotRunning
	case Ended:
		return ErrEnded
	}
	return nil
}

// current returns the candle at the cursor, if any.
func current(st *State) (market.Candle, bool) {
	c, err := st.cursor.Current()
	if err != nil {
		return market.Candle{}, false
	}
	return c, true
}
