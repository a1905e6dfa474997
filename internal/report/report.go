// Package report assembles an enriched, summarized option chain for one
// ticker and expiration from one or two data sources.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/optchain-analytics/internal/chain"
	"github.com/dgnsrekt/optchain-analytics/internal/data"
	"github.com/dgnsrekt/optchain-analytics/internal/pricing"
)

// DefaultStrikesAroundATM is the display half-width used when a request
// does not set one.
const DefaultStrikesAroundATM = 10

type Request struct {
	Ticker           string
	Expiration       time.Time
	AsOf             time.Time
	StrikesAroundATM int
}

// Row pairs the call and put at one strike. Either side may be nil.
type Row struct {
	Strike float64                 `json:"strike"`
	IsATM  bool                    `json:"is_atm"`
	Call   *chain.EnrichedContract `json:"call"`
	Put    *chain.EnrichedContract `json:"put"`
}

type Report struct {
	Ticker          string                   `json:"ticker"`
	Expiration      string                   `json:"expiration"`
	AsOf            string                   `json:"as_of"`
	DTE             int                      `json:"dte"`
	UnderlyingPrice float64                  `json:"underlying_price"`
	MarketDay       bool                     `json:"market_day"`
	Sources         []string                 `json:"sources"`
	Summary         chain.Summary            `json:"summary"`
	Rows            []Row                    `json:"rows"`
	Contracts       []chain.EnrichedContract `json:"-"`
	Warnings        []string                 `json:"warnings"`
}

type Builder struct {
	primary   data.Source
	secondary data.Source
	enricher  *chain.Enricher
	calendar  *MarketCalendar
	logger    *zap.Logger
}

// NewBuilder creates a Builder. secondary may be nil; when set, its records
// fill fields missing from primary.
func NewBuilder(primary, secondary data.Source, enricher *chain.Enricher, cal *MarketCalendar, logger *zap.Logger) *Builder {
	if cal == nil {
		cal = NewMarketCalendar()
	}
	return &Builder{
		primary:   primary,
		secondary: secondary,
		enricher:  enricher,
		calendar:  cal,
		logger:    logger,
	}
}

func (b *Builder) Calendar() *MarketCalendar { return b.calendar }

// Expirations lists expirations known to either source, ascending.
func (b *Builder) Expirations(ctx context.Context, ticker string, asOf time.Time) ([]time.Time, error) {
	if strings.TrimSpace(ticker) == "" {
		return nil, fmt.Errorf("%w: ticker is required", ErrInvalidRequest)
	}
	exps, err := b.primary.Expirations(ctx, ticker, asOf)
	if err != nil {
		return nil, fmt.Errorf("%s expirations: %w", b.primary.Name(), err)
	}
	if b.secondary == nil {
		return exps, nil
	}

	more, err := b.secondary.Expirations(ctx, ticker, asOf)
	if err != nil {
		b.logger.Warn("secondary expirations failed", zap.String("source", b.secondary.Name()), zap.Error(err))
		return exps, nil
	}
	seen := make(map[string]bool, len(exps))
	out := make([]time.Time, 0, len(exps)+len(more))
	for _, e := range append(exps, more...) {
		k := e.Format(data.DateLayout)
		if !seen[k] {
			seen[k] = true
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// Build fetches, enriches, and summarizes one chain. A missing underlying
// price fails with ErrUnderlyingUnavailable; an empty chain does not fail.
func (b *Builder) Build(ctx context.Context, req Request) (*Report, error) {
	ticker := data.NormalizeTicker(req.Ticker)
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker is required", ErrInvalidRequest)
	}
	if req.Expiration.IsZero() || req.AsOf.IsZero() {
		return nil, fmt.Errorf("%w: expiration and as-of date are required", ErrInvalidRequest)
	}
	halfWidth := req.StrikesAroundATM
	if halfWidth <= 0 {
		halfWidth = DefaultStrikesAroundATM
	}

	log := b.logger.With(
		zap.String("ticker", ticker),
		zap.String("expiration", req.Expiration.Format(data.DateLayout)),
		zap.String("asOf", req.AsOf.Format(data.DateLayout)),
	)

	rep := &Report{
		Ticker:     ticker,
		Expiration: req.Expiration.Format(data.DateLayout),
		AsOf:       req.AsOf.Format(data.DateLayout),
		DTE:        pricing.DaysBetween(req.AsOf, req.Expiration),
		MarketDay:  b.calendar.IsMarketDay(req.AsOf),
		Warnings:   []string{},
	}
	if !rep.MarketDay {
		rep.warn("%s is not an NYSE trading day", rep.AsOf)
	}
	if rep.DTE < 0 {
		rep.warn("expiration %s is before %s", rep.Expiration, rep.AsOf)
	}

	price, err := b.underlying(ctx, ticker, req.AsOf, log)
	if err != nil {
		return nil, err
	}
	rep.UnderlyingPrice = *price

	contracts, err := b.primary.FetchContracts(ctx, ticker, req.Expiration, req.AsOf)
	if err != nil {
		return nil, fmt.Errorf("%s contracts: %w", b.primary.Name(), err)
	}
	enriched := b.enricher.Enrich(contracts, rep.UnderlyingPrice, req.AsOf)
	rep.Sources = append(rep.Sources, b.primary.Name())

	if b.secondary != nil {
		more, err := b.secondary.FetchContracts(ctx, ticker, req.Expiration, req.AsOf)
		if err != nil {
			log.Warn("secondary contracts failed", zap.String("source", b.secondary.Name()), zap.Error(err))
			rep.warn("%s unavailable: %v", b.secondary.Name(), err)
		} else if len(more) > 0 {
			extra := b.enricher.Enrich(more, rep.UnderlyingPrice, req.AsOf)
			enriched = chain.MergeChains(enriched, extra)
			rep.Sources = append(rep.Sources, b.secondary.Name())
		}
	}

	rep.Contracts = enriched
	rep.Summary = chain.Summarize(enriched, rep.UnderlyingPrice, halfWidth)
	rep.Rows = buildRows(enriched, rep.Summary.Window)

	if len(enriched) == 0 {
		rep.warn("no contracts for %s %s as of %s", ticker, rep.Expiration, rep.AsOf)
	}
	if rep.Summary.Window.Sparse && len(enriched) > 0 {
		rep.warn("nearest strike is more than %.0f%% from the underlying price; showing all strikes",
			chain.SparseThreshold*100)
	}

	log.Info("chain report built",
		zap.Int("contracts", len(enriched)),
		zap.Float64("underlying", rep.UnderlyingPrice),
		zap.String("sentiment", string(rep.Summary.Sentiment)),
	)
	return rep, nil
}

func (b *Builder) underlying(ctx context.Context, ticker string, asOf time.Time, log *zap.Logger) (*float64, error) {
	price, err := b.primary.FetchUnderlyingPrice(ctx, ticker, asOf)
	if err != nil {
		return nil, fmt.Errorf("%s underlying: %w", b.primary.Name(), err)
	}
	if price == nil && b.secondary != nil {
		price, err = b.secondary.FetchUnderlyingPrice(ctx, ticker, asOf)
		if err != nil {
			log.Warn("secondary underlying failed", zap.String("source", b.secondary.Name()), zap.Error(err))
			price = nil
		}
	}
	if price == nil || *price <= 0 {
		return nil, fmt.Errorf("%w for %s on %s", ErrUnderlyingUnavailable, ticker, asOf.Format(data.DateLayout))
	}
	return price, nil
}

// buildRows pairs calls and puts for the window strikes, highest strike first.
func buildRows(contracts []chain.EnrichedContract, w chain.Window) []Row {
	byKey := make(map[chain.Key]*chain.EnrichedContract, len(contracts))
	for i := range contracts {
		byKey[contracts[i].Key()] = &contracts[i]
	}

	rows := make([]Row, 0, len(w.Strikes))
	for i := len(w.Strikes) - 1; i >= 0; i-- {
		strike := w.Strikes[i]
		rows = append(rows, Row{
			Strike: strike,
			IsATM:  w.ATMStrike != nil && *w.ATMStrike == strike,
			Call:   byKey[chain.Key{Strike: strike, Type: pricing.Call}],
			Put:    byKey[chain.Key{Strike: strike, Type: pricing.Put}],
		})
	}
	return rows
}

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}
