package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/rustyeddy/fxreplay/sim"
)

var (
	ErrSessionOpen = errors.New("ledger: a session is already open")
	ErrNoSession   = errors.New("ledger: no open session")
)

// Getter reads string values by key. A missing key may be reported with
// any error or an empty value; both load as an empty collection.
type Getter interface {
	Get(key string) (string, error)
}

// Ledger groups closed trades into sessions and keeps the bounded history
// of finalized sessions plus a bounded buffer of recent trades.
type Ledger struct {
	history []Account
	recent  []sim.ClosedTrade
	current *Account
	nextID  int
}

func New() *Ledger {
	return &Ledger{nextID: 1}
}

// Load restores a ledger from kv. It always returns a usable ledger;
// the error lists stored values that failed to decode and were replaced by
// empty collections.
func Load(kv Getter) (*Ledger, error) {
	l := New()
	if kv == nil {
		return l, nil
	}

	var errs error
	if raw, err := kv.Get(KeyHistory); err == nil && raw != "" {
		var accts []Account
		if err := json.Unmarshal([]byte(raw), &accts); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("decode %s: %w", KeyHistory, err))
		} else {
			l.history = accts
		}
	}
	if raw, err := kv.Get(KeyRecent); err == nil && raw != "" {
		var trades []sim.ClosedTrade
		if err := json.Unmarshal([]byte(raw), &trades); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("decode %s: %w", KeyRecent, err))
		} else {
			l.recent = trades
		}
	}

	l.history = keepLast(l.history, MaxHistory)
	l.recent = keepLast(l.recent, MaxRecent)

	maxID := 0
	for _, a := range l.history {
		if a.ID > maxID {
			maxID = a.ID
		}
	}
	l.nextID = maxID + 1
	return l, errs
}

// StartSession opens a fresh account with the next sequential id.
func (l *Ledger) StartSession(now time.Time) (Account, error) {
	if l.current != nil {
		return Account{}, ErrSessionOpen
	}
	l.current = &Account{
		ID:        l.nextID,
		StartedAt: now.Unix(),
		Trades:    []sim.ClosedTrade{},
	}
	l.nextID++
	return l.current.clone(), nil
}

// RecordTrade appends t to the recent buffer and, when a session is open,
// to the session with its profit accumulated. Without a session the recent
// buffer is still updated and ErrNoSession is returned.
func (l *Ledger) RecordTrade(t sim.ClosedTrade) error {
	l.recent = keepLast(append(l.recent, t), MaxRecent)

	if l.current == nil {
		return ErrNoSession
	}
	l.current.Trades = append(l.current.Trades, t)
	l.current.TotalProfit += t.Profit
	return nil
}

// FinalizeSession ends the current session and moves it into history.
// ok is false when there was no session to finalize.
func (l *Ledger) FinalizeSession(reason string, now time.Time) (Account, bool) {
	if l.current == nil || l.current.Ended() {
		return Account{}, false
	}
	ended := now.Unix()
	l.current.EndedAt = &ended
	l.current.Reason = reason

	done := l.current.clone()
	l.history = keepLast(append(l.history, done), MaxHistory)
	l.current = nil
	return done.clone(), true
}

// Current returns the open session.
func (l *Ledger) Current() (Account, bool) {
	if l.current == nil {
		return Account{}, false
	}
	return l.current.clone(), true
}

// History returns the finalized accounts oldest first.
func (l *Ledger) History() []Account {
	out := make([]Account, len(l.history))
	for i, a := range l.history {
		out[i] = a.clone()
	}
	return out
}

// Recent returns the recent trades oldest first.
func (l *Ledger) Recent() []sim.ClosedTrade {
	return append([]sim.ClosedTrade{}, l.recent...)
}

// RecentNewestFirst is the order the trades panel shows them in.
func (l *Ledger) RecentNewestFirst() []sim.ClosedTrade {
	out := make([]sim.ClosedTrade, len(l.recent))
	for i, t := range l.recent {
		out[len(l.recent)-1-i] = t
	}
	return out
}

// NextID is the id the next session will get.
func (l *Ledger) NextID() int { return l.nextID }

// EncodeHistory returns the JSON stored under KeyHistory.
func (l *Ledger) EncodeHistory() (string, error) {
	return encode(l.History())
}

// EncodeRecent returns the JSON stored under KeyRecent.
func (l *Ledger) EncodeRecent() (string, error) {
	return encode(l.Recent())
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func keepLast[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return append([]T(nil), s[len(s)-n:]...)
}
