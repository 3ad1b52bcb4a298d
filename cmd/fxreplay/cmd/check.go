package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxreplay/market"
)

var checkCmd = &cobra.Command{
	Use:   "check [source]",
	Short: "Sanitize a candle feed and report what would be dropped",
	Long: `Load a candle feed, run it through the sanitizer and print a report.
Exits with an error when fewer candles than a replay needs survive.

Examples:
  fxreplay check data/eurusd.json
  fxreplay check https://example.com/candles.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	src := cfg.Data.Source
	if len(args) == 1 {
		src = args[0]
	}

	raw, err := market.LoadFeed(cmd.Context(), src, &http.Client{Timeout: cfg.Data.Timeout})
	if err != nil {
		return fmt.Errorf("load candles: %w", err)
	}
	series, rep := market.Sanitize(raw)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Source: %s\n", src)
	fmt.Fprintf(out, "  Records:      %d\n", rep.Input)
	fmt.Fprintf(out, "  Kept:         %d\n", rep.Kept)
	fmt.Fprintf(out, "  Unparseable:  %d\n", rep.Unparseable)
	fmt.Fprintf(out, "  Inconsistent: %d\n", rep.Inconsistent)
	fmt.Fprintf(out, "  Duplicates:   %d\n", rep.Duplicates)
	if len(series) > 0 {
		fmt.Fprintf(out, "  From: %s\n", series.First().Format(time.RFC3339))
		fmt.Fprintf(out, "  To:   %s\n", series.Last().Format(time.RFC3339))
	}

	if err := series.Require(market.MinCandles); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Ready to replay (%d playable candles after the first %d)\n",
		len(series)-market.MinCandles, market.MinCandles)
	return nil
}
