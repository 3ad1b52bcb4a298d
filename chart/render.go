package chart

import (
	"math"
	"strings"
)

var blocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders the closes of the newest width candles as one line of
// block characters, scaled between the lowest low and highest high shown.
func (v View) Sparkline(width int) string {
	candles := v.Candles
	if width <= 0 || len(candles) == 0 {
		return ""
	}
	if len(candles) > width {
		candles = candles[len(candles)-width:]
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range candles {
		lo = math.Min(lo, c.Low)
		hi = math.Max(hi, c.High)
	}

	var b strings.Builder
	for _, c := range candles {
		b.WriteRune(blocks[level(c.Close, lo, hi)])
	}
	return b.String()
}

// MarkerLevel returns the block level a marker price falls on, or -1 when
// it is off the visible range.
func (v View) MarkerLevel(price float64, width int) int {
	candles := v.Candles
	if len(candles) == 0 {
		return -1
	}
	if width > 0 && len(candles) > width {
		candles = candles[len(candles)-width:]
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range candles {
		lo = math.Min(lo, c.Low)
		hi = math.Max(hi, c.High)
	}
	if price < lo || price > hi {
		return -1
	}
	return level(price, lo, hi)
}

func level(price, lo, hi float64) int {
	top := len(blocks) - 1
	if hi <= lo {
		return top / 2
	}
	i := int(math.Round((price - lo) / (hi - lo) * float64(top)))
	if i < 0 {
		return 0
	}
	if i > top {
		return top
	}
	return i
}
