package simulation

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/fxreplay/sim"
)

// Command is a user request.
type Command interface {
	Name() string
}

type (
	Start         struct{}
	Advance       struct{}
	OpenPosition  struct{ Side sim.Side }
	ClosePosition struct{}
	Restart       struct{}
)

func (Start) Name() string          { return "start" }
func (Advance) Name() string        { return "advance" }
func (o OpenPosition) Name() string { return "open_" + string(o.Side) }
func (ClosePosition) Name() string  { return "close" }
func (Restart) Name() string        { return "restart" }

// ParseCommand maps a command word to a Command. It accepts the names
// above plus the aliases next, buy, sell and close_all.
func ParseCommand(word string) (Command, error) {
	switch strings.ToLower(strings.TrimSpace(word)) {
	case "start":
		return Start{}, nil
	case "advance", "next":
		return Advance{}, nil
	case "buy", "open_buy", "long":
		return OpenPosition{Side: sim.Buy}, nil
	case "sell", "open_sell", "short":
		return OpenPosition{Side: sim.Sell}, nil
	case "close", "close_all":
		return ClosePosition{}, nil
	case "restart":
		return Restart{}, nil
	default:
		return nil, fmt.Errorf("unknown command %q", word)
	}
}
