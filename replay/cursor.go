package replay

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/rustyeddy/fxreplay/market"
)

// Lookback is the number of candles shown before the first playable one.
const Lookback = market.MinCandles

var (
	// ErrExhausted is returned by Advance once the end of the series is reached.
	// It marks the end of a run, not a failure.
	ErrExhausted = errors.New("replay: end of series")

	// ErrOutOfRange is returned by Current before Start or after exhaustion.
	ErrOutOfRange = errors.New("replay: cursor out of range")
)

// Cursor walks a canonical series one candle at a time.
type Cursor struct {
	series  market.Series
	rng     *rand.Rand
	index   int
	offset  int
	started bool
	last    market.Candle
	hasLast bool
}

// NewCursor returns a cursor over series. rng picks the random start
// offset; nil uses a time seeded source.
func NewCursor(series market.Series, rng *rand.Rand) *Cursor {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Cursor{series: series, rng: rng, index: -1}
}

// Start picks a uniformly random offset in [0, len-Lookback) and returns
// the Lookback candles before the first playable index.
func (c *Cursor) Start() (market.Series, error) {
	if err := c.series.Require(Lookback); err != nil {
		return nil, err
	}
	span := len(c.series) - Lookback
	offset := 0
	if span > 0 {
		offset = c.rng.Intn(span)
	}
	return c.StartAt(offset)
}

// StartAt is Start with an explicit offset.
func (c *Cursor) StartAt(offset int) (market.Series, error) {
	if err := c.series.Require(Lookback); err != nil {
		return nil, err
	}
	if offset < 0 || offset+Lookback > len(c.series) {
		return nil, fmt.Errorf("%w: offset %d for %d candles", ErrOutOfRange, offset, len(c.series))
	}

	c.offset = offset
	c.index = offset + Lookback
	c.started = true

	window := c.series[offset : offset+Lookback]
	c.last, c.hasLast = window[len(window)-1], true
	if c.index < len(c.series) {
		c.last = c.series[c.index]
	}
	return window, nil
}

// Advance moves to the next valid candle and returns it.
func (c *Cursor) Advance() (market.Candle, error) {
	if !c.started {
		return market.Candle{}, ErrOutOfRange
	}

	n := len(c.series)
	for {
		if c.index < n {
			c.index++
		}
		if c.index >= n {
			return market.Candle{}, ErrExhausted
		}
		if c.series[c.index].Valid() {
			c.last, c.hasLast = c.series[c.index], true
			return c.last, nil
		}
	}
}

// Current returns the candle at the cursor.
func (c *Cursor) Current() (market.Candle, error) {
	if !c.started || c.index < 0 || c.index >= len(c.series) {
		return market.Candle{}, ErrOutOfRange
	}
	return c.series[c.index], nil
}

// Last returns the most recent candle the cursor was on, which survives
// exhaustion so an open position can still be settled.
func (c *Cursor) Last() (market.Candle, bool) {
	return c.last, c.hasLast
}

func (c *Cursor) Started() bool { return c.started }

func (c *Cursor) Exhausted() bool {
	return c.started && c.index >= len(c.series)
}

// Index is the cursor position in the series, -1 before Start.
func (c *Cursor) Index() int { return c.index }

// Offset is the start of the visible window chosen by Start.
func (c *Cursor) Offset() int { return c.offset }

func (c *Cursor) Len() int { return len(c.series) }

// Remaining is the number of candles left to advance through.
func (c *Cursor) Remaining() int {
	if !c.started {
		return 0
	}
	r := len(c.series) - 1 - c.index
	if r < 0 {
		return 0
	}
	return r
}

// Progress is the played fraction of the forward tail in [0, 1].
func (c *Cursor) Progress() float64 {
	if !c.started {
		return 0
	}
	tail := len(c.series) - (c.offset + Lookback)
	if tail <= 0 {
		return 1
	}
	played := c.index - (c.offset + Lookback)
	if played >= tail {
		return 1
	}
	return float64(played) / float64(tail)
}
