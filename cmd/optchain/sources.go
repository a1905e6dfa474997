package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/optchain-analytics/internal/chain"
	"github.com/dgnsrekt/optchain-analytics/internal/config"
	"github.com/dgnsrekt/optchain-analytics/internal/data"
	"github.com/dgnsrekt/optchain-analytics/internal/report"
)

// stack is everything a command needs to build chain reports.
type stack struct {
	builder  *report.Builder
	enricher *chain.Enricher

	// live is set when the primary source is a snapshot directory and
	// can be reloaded in place.
	live         *data.ReloadableSource
	cache        *data.CachedSource
	snapshotKeys int
}

func openSource(cfg *config.Config, mode string, logger *zap.Logger) (data.Source, error) {
	switch mode {
	case config.ModeSnapshot:
		return data.NewSnapshotLoader(cfg.Data.SnapshotDir, logger)
	case config.ModeFlatFile:
		return data.NewFlatFileLoader(cfg.Data.FlatFileDir, logger)
	default:
		return nil, fmt.Errorf("unknown data mode: %s", mode)
	}
}

func newEnricher(cfg *config.Config) (*chain.Enricher, error) {
	policy, err := chain.ParseVolatilityPolicy(cfg.Pricing.VolatilityPolicy, cfg.Pricing.ConstantVolatility)
	if err != nil {
		return nil, err
	}
	return chain.NewEnricher(chain.Options{
		RiskFreeRate:    cfg.Pricing.RiskFreeRate,
		Policy:          policy,
		ATMTolerancePct: cfg.Chain.ATMTolerancePct,
		Workers:         cfg.Chain.Workers,
	}), nil
}

func buildStack(cfg *config.Config, logger *zap.Logger) (*stack, error) {
	enricher, err := newEnricher(cfg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	primary, err := openSource(cfg, cfg.Data.Mode, logger)
	if err != nil {
		return nil, fmt.Errorf("opening %s source: %w", cfg.Data.Mode, err)
	}

	s := &stack{enricher: enricher}
	if loader, ok := primary.(*data.SnapshotLoader); ok {
		s.snapshotKeys = len(loader.GetLoadedKeys())
		s.live = data.NewReloadableSource(loader)
		primary = s.live
	}
	if cfg.Cache.Enabled {
		s.cache = data.NewCachedSource(primary,
			time.Duration(cfg.Cache.TTLSec)*time.Second,
			time.Duration(cfg.Cache.CleanupSec)*time.Second,
		)
		primary = s.cache
	}

	var secondary data.Source
	if cfg.Data.Secondary != "" {
		secondary, err = openSource(cfg, cfg.Data.Secondary, logger)
		if err != nil {
			return nil, fmt.Errorf("opening %s source: %w", cfg.Data.Secondary, err)
		}
	}

	logger.Debug("data sources ready",
		zap.String("primary", cfg.Data.Mode),
		zap.String("secondary", cfg.Data.Secondary),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.Duration("duration", time.Since(start)),
	)

	s.builder = report.NewBuilder(primary, secondary, enricher, report.NewMarketCalendar(), logger)
	return s, nil
}

// resolveAsOf parses --as-of, defaulting to the latest NYSE trading day.
func resolveAsOf(cal *report.MarketCalendar, raw string) (time.Time, error) {
	if raw == "" {
		return cal.LatestMarketDay(cal.Today()), nil
	}
	asOf, err := data.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of date (use YYYY-MM-DD): %w", err)
	}
	return asOf, nil
}
