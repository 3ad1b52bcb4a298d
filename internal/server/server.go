// Package server exposes a replay session over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/fxreplay/chart"
	"github.com/rustyeddy/fxreplay/internal/log"
	"github.com/rustyeddy/fxreplay/ledger"
	"github.com/rustyeddy/fxreplay/market"
	"github.com/rustyeddy/fxreplay/sim"
	"github.com/rustyeddy/fxreplay/simulation"
)

const (
	defaultChartLimit = 200
	maxChartLimit     = 5000
)

// Server serializes HTTP requests onto one controller.
type Server struct {
	mu     sync.Mutex
	ctl    *simulation.Controller
	canvas *chart.Canvas
	logger *zap.Logger
	router *gin.Engine
}

// New builds the router. canvas may be nil when the controller has no chart.
func New(ctl *simulation.Controller, canvas *chart.Canvas, logger *zap.Logger) *Server {
	s := &Server{
		ctl:    ctl,
		canvas: canvas,
		logger: log.OrNop(logger),
		router: gin.New(),
	}
	s.router.Use(gin.Recovery())
	s.setupHTTPRoutes(s.router)
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupHTTPRoutes(r *gin.Engine) {
	r.GET("/healthz", s.handleHealthCheck)

	api := r.Group("/api")
	{
		api.GET("/state", s.handleState)
		api.GET("/chart", s.handleChart)
		api.GET("/accounts", s.handleAccounts)
		api.GET("/report", s.handleReport)

		api.POST("/start", s.command(func(*gin.Context) (simulation.Command, error) {
			return simulation.Start{}, nil
		}))
		api.POST("/advance", s.command(func(*gin.Context) (simulation.Command, error) {
			return simulation.Advance{}, nil
		}))
		api.POST("/open/:side", s.command(func(c *gin.Context) (simulation.Command, error) {
			side, err := sim.ParseSide(c.Param("side"))
			if err != nil {
				return nil, err
			}
			return simulation.OpenPosition{Side: side}, nil
		}))
		api.POST("/close", s.command(func(*gin.Context) (simulation.Command, error) {
			return simulation.ClosePosition{}, nil
		}))
		api.POST("/restart", s.command(func(*gin.Context) (simulation.Command, error) {
			return simulation.Restart{}, nil
		}))
	}
}

// command runs the parsed command and answers with the new snapshot.
func (s *Server) command(parse func(*gin.Context) (simulation.Command, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		cmd, err := parse(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		s.mu.Lock()
		err = s.ctl.Execute(cmd)
		snap := s.ctl.Snapshot()
		s.mu.Unlock()

		if err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				s.logger.Error("command failed", zap.String("command", cmd.Name()), zap.Error(err))
			}
			c.JSON(status, gin.H{"error": err.Error(), "state": snap})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, simulation.ErrDrawFailed):
		return http.StatusInternalServerError
	case errors.Is(err, simulation.ErrNotRunning),
		errors.Is(err, simulation.ErrAlreadyStarted),
		errors.Is(err, simulation.ErrEnded),
		errors.Is(err, sim.ErrPositionOpen),
		errors.Is(err, sim.ErrTerminated),
		errors.Is(err, sim.ErrNoPrice):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) handleState(c *gin.Context) {
	s.mu.Lock()
	snap := s.ctl.Snapshot()
	s.mu.Unlock()
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleChart(c *gin.Context) {
	limit := defaultChartLimit
	if qs := c.Query("limit"); qs != "" {
		v, err := strconv.Atoi(qs)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = min(v, maxChartLimit)
	}
	if s.canvas == nil {
		c.JSON(http.StatusOK, chart.View{Candles: []market.Candle{}, Markers: []chart.Marker{}})
		return
	}
	c.JSON(http.StatusOK, s.canvas.View(limit))
}

func (s *Server) handleAccounts(c *gin.Context) {
	s.mu.Lock()
	l := s.ctl.State().Ledger()
	body := gin.H{
		"accounts": l.History(),
		"summary":  l.Summary(),
		"line":     l.SummaryLine(),
	}
	format := c.Query("format")
	var org string
	if format == "org" {
		org = ledger.FormatHistoryOrg(l.History())
	}
	s.mu.Unlock()

	if format == "org" {
		c.String(http.StatusOK, org)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleReport(c *gin.Context) {
	c.JSON(http.StatusOK, s.ctl.Report())
}

func (s *Server) handleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// Run serves on addr until ctx is done, then shuts down within timeout.
func (s *Server) Run(ctx context.Context, addr string, timeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		s.logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("http shutdown failed", zap.Error(err))
			return err
		}
		s.logger.Info("http server stopped")
		return nil
	})

	return group.Wait()
}
