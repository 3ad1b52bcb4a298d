package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountSummary is the one-line view of a finalized account.
type AccountSummary struct {
	ID  int     `json:"id"`
	Net float64 `json:"net"`
}

// Summary lists id and net P/L for every finalized account, oldest first.
func (l *Ledger) Summary() []AccountSummary {
	out := make([]AccountSummary, 0, len(l.history))
	for _, a := range l.history {
		out = append(out, AccountSummary{ID: a.ID, Net: a.TotalProfit})
	}
	return out
}

// SummaryLine renders the summary as "Account 1 -1987.00, Account 2 +2090.00".
func (l *Ledger) SummaryLine() string {
	if len(l.history) == 0 {
		return "no accounts yet"
	}
	parts := make([]string, 0, len(l.history))
	for _, s := range l.Summary() {
		parts = append(parts, fmt.Sprintf("Account %d %s", s.ID, FormatSigned(s.Net)))
	}
	return strings.Join(parts, ", ")
}

// FormatSigned rounds v to two places and always carries a sign.
func FormatSigned(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsNegative() {
		return d.StringFixed(2)
	}
	return "+" + d.StringFixed(2)
}

// FormatHistoryOrg renders the finalized accounts newest first as an
// org-mode document with one table of trades per account.
func FormatHistoryOrg(accts []Account) string {
	var b strings.Builder
	b.WriteString("#+TITLE: Accounts\n\n")
	if len(accts) == 0 {
		b.WriteString("No accounts yet.\n")
		return b.String()
	}

	for i := len(accts) - 1; i >= 0; i-- {
		a := accts[i]
		fmt.Fprintf(&b, "* Account %d  P/L %s\n", a.ID, FormatSigned(a.TotalProfit))
		fmt.Fprintf(&b, "- Started: %s\n", formatUnix(a.StartedAt))
		if a.EndedAt != nil {
			fmt.Fprintf(&b, "- Ended: %s\n", formatUnix(*a.EndedAt))
		}
		if a.Reason != "" {
			fmt.Fprintf(&b, "- Reason: %s\n", a.Reason)
		}
		fmt.Fprintf(&b, "- Trades: %d (%d won)\n\n", len(a.Trades), a.Wins())

		if len(a.Trades) == 0 {
			continue
		}
		b.WriteString("| Time | Side | Entry | Exit | Pips | Profit |\n")
		b.WriteString("|------+------+-------+------+------+--------|\n")
		for _, t := range a.Trades {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				formatUnix(t.Time),
				strings.ToUpper(string(t.Side)),
				decimal.NewFromFloat(t.EntryPrice).StringFixed(5),
				decimal.NewFromFloat(t.ExitPrice).StringFixed(5),
				decimal.NewFromFloat(t.Pips).StringFixed(2),
				FormatSigned(t.Profit),
			)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatUnix(sec int64) string {
	if sec == 0 {
		return "-"
	}
	return time.Unix(sec, 0).UTC().Format("2006-01-02 15:04:05")
}
