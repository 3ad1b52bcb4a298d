package simulation

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/rustyeddy/fxreplay/internal/log"
	"github.com/rustyeddy/fxreplay/ledger"
	"github.com/rustyeddy/fxreplay/market"
)

// KV is the store Load reads history from and the controller writes to.
type KV interface {
	ledger.Getter
	Store
}

// LoadOptions configure the startup path.
type LoadOptions struct {
	// Source is a file path or http(s) URL of the candle feed.
	Source     string
	HTTPClient *http.Client
	KV         KV
	Settings   Settings
	Logger     *zap.Logger
	// Options are applied to the controller Load builds.
	Options []Option
}

// Load fetches and sanitizes the feed, restores the ledger and returns a
// controller ready for Start. On failure nothing is returned and nothing
// has been written.
func Load(ctx context.Context, opts LoadOptions) (*Controller, error) {
	logger := log.OrNop(opts.Logger)

	raw, err := market.LoadFeed(ctx, opts.Source, opts.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("load candles: %w", err)
	}

	series, report := market.Sanitize(raw)
	logger.Info("candles sanitized",
		zap.String("source", opts.Source),
		zap.Int("input", report.Input),
		zap.Int("kept", report.Kept),
		zap.Int("dropped", report.Dropped()),
	)
	if err := series.Require(market.MinCandles); err != nil {
		return nil, err
	}

	var l *ledger.Ledger
	if opts.KV != nil {
		var lerr error
		l, lerr = ledger.Load(opts.KV)
		if lerr != nil {
			logger.Warn("stored history ignored", zap.Error(lerr))
		}
	} else {
		l = ledger.New()
	}

	st := NewState(series, l, opts.Settings)

	ctlOpts := []Option{WithLogger(logger)}
	if opts.KV != nil {
		ctlOpts = append(ctlOpts, WithStore(opts.KV))
	}
	ctlOpts = append(ctlOpts, opts.Options...)

	c := NewController(st, ctlOpts...)
	c.report = report
	return c, nil
}
