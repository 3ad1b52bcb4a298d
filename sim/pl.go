package sim

// PipsMultiplier converts a quoted price difference into pips: one pip is
// 1/10000 of the quoted unit. Profit is expressed in the same units.
const PipsMultiplier = 10000.0

// Profit is the side dependent P/L of moving from entry to exit.
//
//	Buy:  (exit - entry) * PipsMultiplier
//	Sell: (entry - exit) * PipsMultiplier
func Profit(side Side, entry, exit float64) float64 {
	if side == Sell {
		return (entry - exit) * PipsMultiplier
	}
	return (exit - entry) * PipsMultiplier
}

// UnrealizedPL is the floating P/L of p marked at currentPrice.
func UnrealizedPL(p Position, currentPrice float64) float64 {
	return Profit(p.Side, p.EntryPrice, currentPrice)
}
