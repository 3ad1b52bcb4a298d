package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders one trade as an org-mode heading with a
// properties drawer and empty review sections.
func FormatTradeOrg(t TradeRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "** Trade: %s (%s)\n", strings.ToUpper(t.Side), shortID(t.TradeID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TRADE_ID: %s\n", t.TradeID)
	fmt.Fprintf(&b, ":ID: %s\n", t.TradeID)
	fmt.Fprintf(&b, ":RUN_ID: %s\n", t.RunID)
	fmt.Fprintf(&b, ":ACCOUNT: %d\n", t.AccountID)
	fmt.Fprintf(&b, ":SIDE: %s\n", t.Side)
	fmt.Fprintf(&b, ":ENTRY_PRICE: %.5f\n", t.EntryPrice)
	fmt.Fprintf(&b, ":EXIT_PRICE: %.5f\n", t.ExitPrice)
	fmt.Fprintf(&b, ":OPEN_TIME: %s\n", t.OpenTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":CLOSE_TIME: %s\n", t.CloseTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":PIPS: %.2f\n", t.Pips)
	fmt.Fprintf(&b, ":PROFIT: %.2f\n", t.Profit)
	if t.Reason != "" {
		fmt.Fprintf(&b, ":REASON: %s\n", t.Reason)
	}
	b.WriteString(":END:\n\n")

	b.WriteString("*** Thesis\n\n")
	b.WriteString("*** Execution\n\n")
	b.WriteString("*** Review\n")
	return b.String()
}

// FormatTradesOrg joins trades with a blank line between entries.
func FormatTradesOrg(trades []TradeRecord) string {
	parts := make([]string, 0, len(trades))
	for _, t := range trades {
		parts = append(parts, FormatTradeOrg(t))
	}
	return strings.Join(parts, "\n\n")
}

// FormatStatsOrg renders aggregate results as an org table.
func FormatStatsOrg(title string, s Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "* %s\n", title)
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------+-------|\n")
	fmt.Fprintf(&b, "| Trades | %d |\n", s.Trades)
	fmt.Fprintf(&b, "| Wins | %d |\n", s.Wins)
	fmt.Fprintf(&b, "| Losses | %d |\n", s.Losses)
	fmt.Fprintf(&b, "| Net P/L | %.2f |\n", s.NetProfit)
	fmt.Fprintf(&b, "| Win rate | %.2f%% |\n", s.WinRate*100)
	if s.ProfitFactor != 0 {
		fmt.Fprintf(&b, "| Profit factor | %.2f |\n", s.ProfitFactor)
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
