package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/fxreplay/config"
	"github.com/rustyeddy/fxreplay/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "fxreplay",
	Short: "Replay historical FX candles and practice discretionary trading",
	Long: `fxreplay replays a historical candle series from a random point and lets
you trade it one candle at a time.

It provides tools for:
  - Playing a session in the terminal or over an HTTP API
  - Scripting sessions from a command file
  - Checking a candle feed before playing it
  - Reviewing account history and the trade journal

Settings come from a YAML or JSON file given with --config and from
FXREPLAY_* environment variables.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var (
	cfgFile string

	cfg    *config.Config
	logger *zap.Logger
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	l, err := log.NewLogger(c.Logging)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	cfg, logger = c, l
	return nil
}
