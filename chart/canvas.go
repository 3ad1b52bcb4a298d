// Package chart keeps the drawn state of the candle chart: the series on
// screen and the price lines of open positions.
package chart

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rustyeddy/fxreplay/internal/id"
	"github.com/rustyeddy/fxreplay/market"
	"github.com/rustyeddy/fxreplay/sim"
)

var (
	ErrUnknownMarker = errors.New("chart: unknown marker")
	ErrBadCandle     = errors.New("chart: candle out of order")
)

// Marker is a horizontal price line.
type Marker struct {
	Handle sim.MarkerHandle `json:"handle"`
	Price  float64          `json:"price"`
	Side   sim.Side         `json:"side"`
	Label  string           `json:"label"`
}

// View is a copy of what the chart shows.
type View struct {
	Candles []market.Candle `json:"candles"`
	Markers []Marker        `json:"markers"`
}

// Canvas is an in-memory chart. It is safe for concurrent use so a
// renderer can read while the controller draws.
type Canvas struct {
	mu      sync.RWMutex
	candles market.Series
	markers map[sim.MarkerHandle]Marker
	order   []sim.MarkerHandle
}

func NewCanvas() *Canvas {
	return &Canvas{markers: make(map[sim.MarkerHandle]Marker)}
}

// SetSeries replaces everything drawn with candles.
func (c *Canvas) SetSeries(candles []market.Candle) error {
	if len(candles) == 0 {
		return errors.New("chart: empty series")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.candles = append(market.Series(nil), candles...)
	return nil
}

// AppendCandle adds c to the right edge. Times must keep increasing.
func (c *Canvas) AppendCandle(candle market.Candle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.candles); n > 0 && candle.Time <= c.candles[n-1].Time {
		return fmt.Errorf("%w: %d after %d", ErrBadCandle, candle.Time, c.candles[n-1].Time)
	}
	c.candles = append(c.candles, candle)
	return nil
}

// AddMarker draws a price line and returns its handle.
func (c *Canvas) AddMarker(price float64, side sim.Side) (sim.MarkerHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := sim.MarkerHandle(id.New())
	c.markers[h] = Marker{
		Handle: h,
		Price:  price,
		Side:   side,
		Label:  fmt.Sprintf("%s @ %.5f", side, price),
	}
	c.order = append(c.order, h)
	return h, nil
}

func (c *Canvas) RemoveMarker(h sim.MarkerHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.markers[h]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMarker, h)
	}
	delete(c.markers, h)
	for i, o := range c.order {
		if o == h {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes candles and markers.
func (c *Canvas) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.candles = nil
	c.markers = make(map[sim.MarkerHandle]Marker)
	c.order = nil
	return nil
}

// View returns a snapshot. limit > 0 keeps only the newest candles.
func (c *Canvas) View(limit int) View {
	c.mu.RLock()
	defer c.mu.RUnlock()

	candles := c.candles
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	v := View{
		Candles: append([]market.Candle{}, candles...),
		Markers: make([]Marker, 0, len(c.order)),
	}
	for _, h := range c.order {
		v.Markers = append(v.Markers, c.markers[h])
	}
	sort.SliceStable(v.Markers, func(i, j int) bool { return v.Markers[i].Price > v.Markers[j].Price })
	return v
}

func (c *Canvas) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.candles)
}
