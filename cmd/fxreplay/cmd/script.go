package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/fxreplay/chart"
	"github.com/rustyeddy/fxreplay/ledger"
	"github.com/rustyeddy/fxreplay/simulation"
)

var scriptCmd = &cobra.Command{
	Use:   "script <file>",
	Short: "Run a session from a command file",
	Long: `Execute commands from a CSV file against a replay session.

Each line holds a command and an optional repeat count:

  # comments start with a hash
  start
  buy
  next,20
  close
  restart

Commands: start, next (advance), buy, sell, close, restart.

Example:
  fxreplay script sessions/scalp.csv --data data/eurusd.json --seed 42`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

var (
	scriptDataPath string
	scriptSeed     int64
	scriptStrict   bool
)

func init() {
	rootCmd.AddCommand(scriptCmd)

	scriptCmd.Flags().StringVarP(&scriptDataPath, "data", "d", "", "candle feed file or URL (overrides data.source)")
	scriptCmd.Flags().Int64Var(&scriptSeed, "seed", 0, "start offset seed (overrides simulation.seed)")
	scriptCmd.Flags().BoolVar(&scriptStrict, "strict", false, "stop at the first rejected command")
}

func runScript(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	steps, err := simulation.ParseScript(f)
	if err != nil {
		return fmt.Errorf("parse script: %w", err)
	}

	if scriptDataPath != "" {
		cfg.Data.Source = scriptDataPath
	}
	if scriptSeed != 0 {
		cfg.Simulation.Seed = scriptSeed
	}

	ctl, err := session(cmd.Context(), cfg, chart.NewCanvas())
	if err != nil {
		return err
	}
	defer func() {
		if err := ctl.Close(); err != nil {
			logger.Warn("close session", zap.Error(err))
		}
	}()

	res, err := simulation.RunScript(cmd.Context(), ctl, steps, scriptStrict)
	if err != nil {
		return err
	}

	snap := ctl.Snapshot()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Script complete: %d executed, %d rejected\n", res.Executed, res.Rejected)
	fmt.Fprintf(out, "  Phase:    %s\n", snap.Phase)
	fmt.Fprintf(out, "  Account:  %d\n", snap.AccountID)
	fmt.Fprintf(out, "  Balance:  %.2f\n", snap.Balance)
	fmt.Fprintf(out, "  Realized: %s\n", ledger.FormatSigned(snap.Realized))
	if snap.EndReason != "" {
		fmt.Fprintf(out, "  Ended:    %s\n", snap.EndReason)
	}
	fmt.Fprintf(out, "  Accounts: %s\n", ctl.State().Ledger().SummaryLine())
	return nil
}
