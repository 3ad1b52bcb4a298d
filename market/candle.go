package market

import (
	"fmt"
	"math"
	"time"
)

// Candle represents OHLC (Open, High, Low, Close) candlestick data.
// Time is the candle open in unix seconds.
type Candle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Valid reports whether every price is finite and the candle is OHLC
// consistent: high >= low, high >= max(open, close), low <= min(open, close).
func (c Candle) Valid() bool {
	for _, v := range [...]float64{c.Open, c.High, c.Low, c.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if !(c.High >= c.Low) {
		return false
	}
	return c.High >= math.Max(c.Open, c.Close) && c.Low <= math.Min(c.Open, c.Close)
}

// Timestamp returns the candle open as a UTC time.
func (c Candle) Timestamp() time.Time {
	return time.Unix(c.Time, 0).UTC()
}

// Series is a canonical candle sequence: strictly increasing unique times,
// every element Valid. Build one with Sanitize or Normalize.
type Series []Candle

// MinCandles is the minimum series length needed to start a simulation.
const MinCandles = 100

// Require returns ErrInsufficientData when the series has fewer than n candles.
func (s Series) Require(n int) error {
	if len(s) < n {
		return fmt.Errorf("%w: have %d candles, need %d", ErrInsufficientData, len(s), n)
	}
	return nil
}

// First and Last return the series bounds, or the zero time for an empty series.
func (s Series) First() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[0].Timestamp()
}

func (s Series) Last() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Timestamp()
}
