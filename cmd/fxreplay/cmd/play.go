package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/fxreplay/chart"
	"github.com/rustyeddy/fxreplay/internal/tui"
	"github.com/rustyeddy/fxreplay/ledger"
	"github.com/rustyeddy/fxreplay/simulation"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a replay session in the terminal",
	Long: `Load the configured candle feed and trade it interactively.

Keys:
  enter  start          n  next candle
  b      buy            s  sell
  c      close          r  restart on a new account
  q      quit

Example:
  fxreplay play --config fxreplay.yaml --data data/eurusd.csv`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

var playDataPath string

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVarP(&playDataPath, "data", "d", "", "candle feed file or URL (overrides data.source)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	if playDataPath != "" {
		cfg.Data.Source = playDataPath
	}

	canvas := chart.NewCanvas()
	ui := tui.New(canvas)
	ctl, err := session(cmd.Context(), cfg, canvas, simulation.WithNotifier(ui.Notify))
	if err != nil {
		return err
	}
	defer func() {
		if err := ctl.Close(); err != nil {
			logger.Warn("close session", zap.Error(err))
		}
	}()

	if err := ui.Run(cmd.Context(), ctl); err != nil {
		return fmt.Errorf("terminal ui: %w", err)
	}

	snap := ctl.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "Account %d  balance %.2f  realized %s\n",
		snap.AccountID, snap.Balance, ledger.FormatSigned(snap.Realized))
	return nil
}
