package sim

import (
	"fmt"
	"strings"
)

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// ParseSide accepts buy/long and sell/short in any case.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "long":
		return Buy, nil
	case "sell", "short":
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

func (s Side) String() string { return string(s) }

// MarkerHandle is the chart's reference to a drawn price line. The engine
// stores it for the chart and never looks inside.
type MarkerHandle string

// Position is the open trade. At most one exists at a time.
type Position struct {
	Side       Side         `json:"side"`
	EntryPrice float64      `json:"entry"`
	EntryTime  int64        `json:"time"`
	Marker     MarkerHandle `json:"-"`
}

func (p Position) String() string {
	return fmt.Sprintf("%s @ %.5f", strings.ToUpper(string(p.Side)), p.EntryPrice)
}

// ClosedTrade is the immutable record of a round trip. The JSON layout is
// what the trade history store holds.
type ClosedTrade struct {
	ID         string  `json:"id,omitempty"`
	Time       int64   `json:"time"` // entry candle time
	Side       Side    `json:"type"`
	EntryPrice float64 `json:"entry"`
	ExitPrice  float64 `json:"exit"`
	Pips       float64 `json:"pips"`
	Profit     float64 `json:"profit"`
	ClosedAt   int64   `json:"closedAt,omitempty"` // exit candle time
}
