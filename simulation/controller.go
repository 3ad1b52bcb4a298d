package simulation

import (
	"errors"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/rustyeddy/fxreplay/internal/log"
	"github.com/rustyeddy/fxreplay/journal"
	"github.com/rustyeddy/fxreplay/ledger"
	"github.com/rustyeddy/fxreplay/market"
	"github.com/rustyeddy/fxreplay/sim"
)

// Chart is the drawing collaborator.
type Chart interface {
	SetSeries([]market.Candle) error
	AppendCandle(market.Candle) error
	AddMarker(price float64, side sim.Side) (sim.MarkerHandle, error)
	RemoveMarker(sim.MarkerHandle) error
	Clear() error
}

// Store is the key value persistence collaborator.
type Store interface {
	Set(key, value string) error
}

// Notifier receives user facing messages.
type Notifier func(Notify)

// Controller executes commands against a State and applies the resulting
// effects. It is not safe for concurrent use.
type Controller struct {
	st      *State
	chart   Chart
	store   Store
	journal journal.Journal
	notify  Notifier
	log     *zap.Logger

	report market.Report
}

type Option func(*Controller)

func WithChart(c Chart) Option { return func(ctl *Controller) { ctl.chart = c } }

func WithStore(s Store) Option { return func(ctl *Controller) { ctl.store = s } }

func WithJournal(j journal.Journal) Option { return func(ctl *Controller) { ctl.journal = j } }

func WithNotifier(n Notifier) Option { return func(ctl *Controller) { ctl.notify = n } }

func WithLogger(l *zap.Logger) Option { return func(ctl *Controller) { ctl.log = l } }

func NewController(st *State, opts ...Option) *Controller {
	c := &Controller{st: st}
	for _, opt := range opts {
		opt(c)
	}
	c.log = log.OrNop(c.log)
	if c.journal == nil {
		c.journal = journal.Nop{}
	}
	return c
}

// Execute dispatches cmd and applies its effects. Rejected transitions
// are returned unchanged; collaborator failures are logged and dropped,
// except the first draw of a run which aborts the start.
func (c *Controller) Execute(cmd Command) error {
	effects, err := Dispatch(c.st, cmd)
	if err != nil {
		c.log.Debug("command rejected", zap.String("command", cmd.Name()), zap.Error(err))
		return err
	}
	c.log.Debug("command applied",
		zap.String("command", cmd.Name()),
		zap.String("phase", c.st.phase.String()),
		zap.Int("effects", len(effects)),
	)

	for _, e := range effects {
		if err := c.apply(e); err != nil {
			var abort *abortError
			if errors.As(err, &abort) {
				c.st.abortStart()
				c.log.Error("initial draw failed", zap.Error(abort.err))
				return abort
			}
			c.log.Warn("effect failed", zap.String("command", cmd.Name()), zap.Error(err))
		}
	}
	return nil
}

// ErrDrawFailed wraps the chart error that aborted a start.
var ErrDrawFailed = errors.New("simulation: initial draw failed")

type abortError struct{ err error }

func (e *abortError) Error() string { return ErrDrawFailed.Error() + ": " + e.err.Error() }

func (e *abortError) Unwrap() []error { return []error{ErrDrawFailed, e.err} }

func (c *Controller) apply(e Effect) error {
	switch e := e.(type) {
	case SetSeries:
		if c.chart == nil {
			return nil
		}
		if err := c.chart.SetSeries(e.Candles); err != nil {
			return &abortError{err: err}
		}
	case AppendCandle:
		if c.chart != nil {
			return c.chart.AppendCandle(e.Candle)
		}
	case AddMarker:
		if c.chart == nil {
			return nil
		}
		h, err := c.chart.AddMarker(e.Price, e.Side)
		if err != nil {
			return err
		}
		c.st.engine.AttachMarker(h)
	case RemoveMarker:
		if c.chart != nil {
			return c.chart.RemoveMarker(e.Handle)
		}
	case ClearChart:
		if c.chart != nil {
			return c.chart.Clear()
		}
	case SaveRecent:
		c.save(ledger.KeyRecent, e.Value)
	case SaveHistory:
		c.save(ledger.KeyHistory, e.Value)
	case JournalTrade:
		return c.journal.RecordTrade(e.Record)
	case JournalEquity:
		return c.journal.RecordEquity(e.Snapshot)
	case Notify:
		if e.Level == Warn {
			c.log.Warn(e.Message, zap.String("run_id", c.st.runID))
		} else {
			c.log.Info(e.Message, zap.String("run_id", c.st.runID))
		}
		if c.notify != nil {
			c.notify(e)
		}
	}
	return nil
}

// save writes best effort; a failure only shows as history missing after
// a reload.
func (c *Controller) save(key, value string) {
	if c.store == nil {
		return
	}
	if err := c.store.Set(key, value); err != nil {
		c.log.Warn("persist failed", zap.String("key", key), zap.Error(err))
	}
}

// Snapshot returns the current UI signals.
func (c *Controller) Snapshot() Snapshot { return c.st.Snapshot() }

func (c *Controller) State() *State { return c.st }

// Report is the sanitization report of the loaded feed.
func (c *Controller) Report() market.Report { return c.report }

// Close flushes the journal and closes the store when it can be closed.
func (c *Controller) Close() error {
	var err error
	if c.journal != nil {
		err = multierr.Append(err, c.journal.Close())
	}
	if closer, ok := c.store.(interface{ Close() error }); ok {
		err = multierr.Append(err, closer.Close())
	}
	return err
}
