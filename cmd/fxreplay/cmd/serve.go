package cmd

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/fxreplay/chart"
	"github.com/rustyeddy/fxreplay/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a replay session over HTTP",
	Long: `Load the configured candle feed and expose the session as a JSON API.

Routes:
  GET  /api/state          current snapshot
  POST /api/start          start the run
  POST /api/advance        reveal the next candle
  POST /api/open/:side     open a buy or sell position
  POST /api/close          close the open position
  POST /api/restart        finalize and start a new account
  GET  /api/chart?limit=N  drawn candles and price lines
  GET  /api/accounts       account history (format=org for org-mode)
  GET  /api/report         feed sanitization report
  GET  /healthz

Example:
  fxreplay serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr     string
	serveDataPath string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (overrides server.addr)")
	serveCmd.Flags().StringVarP(&serveDataPath, "data", "d", "", "candle feed file or URL (overrides data.source)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveDataPath != "" {
		cfg.Data.Source = serveDataPath
	}

	canvas := chart.NewCanvas()
	ctl, err := session(cmd.Context(), cfg, canvas)
	if err != nil {
		return err
	}
	defer func() {
		if err := ctl.Close(); err != nil {
			logger.Warn("close session", zap.Error(err))
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(ctl, canvas, logger)
	return srv.Run(cmd.Context(), cfg.Server.Addr, cfg.Server.ShutdownTimeout)
}
