package data

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"github.com/dgnsrekt/optchain-analytics/internal/chain"
)

// Flat-file dataset prefixes, relative to the flat-file root.
const (
	OptionsDataset = "us_options_opra/day_aggs_v1"
	StocksDataset  = "us_stocks_sip/day_aggs_v1"
)

var flatFileExts = []string{".csv", ".csv" + extGzip, ".csv" + extZstd}

// DayAggregate is one row of a day-aggregates flat file. For options Ticker
// is the OCC symbol.
type DayAggregate struct {
	Ticker       string  `csv:"ticker"`
	Volume       int64   `csv:"volume"`
	Open         float64 `csv:"open"`
	Close        float64 `csv:"close"`
	High         float64 `csv:"high"`
	Low          float64 `csv:"low"`
	WindowStart  int64   `csv:"window_start"`
	Transactions int64   `csv:"transactions"`
}

// FlatFileLoader reads day-aggregate CSV files laid out as
// {dir}/{dataset}/YYYY/MM/YYYY-MM-DD.csv[.gz|.zst]. The most recent days
// are kept parsed and grouped by ticker, so lookups for several tickers on
// one date read the file once.
//
// Day aggregates carry no open interest, so every contract reports zero.
type FlatFileLoader struct {
	dir     string
	options *dayCache[map[string][]chain.Contract]
	stocks  *dayCache[map[string]float64]
	logger  *zap.Logger
}

var _ Source = (*FlatFileLoader)(nil)

func NewFlatFileLoader(dir string, logger *zap.Logger) (*FlatFileLoader, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("flat file directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("flat file path is not a directory: %s", dir)
	}
	return &FlatFileLoader{
		dir:     dir,
		options: newDayCache[map[string][]chain.Contract](maxCachedDays),
		stocks:  newDayCache[map[string]float64](maxCachedDays),
		logger:  logger,
	}, nil
}

func (l *FlatFileLoader) Name() string { return chain.SourceFlatFile }

// FlatFilePath returns the uncompressed path of a dataset file for date.
func FlatFilePath(dir, dataset string, date time.Time) string {
	return filepath.Join(dir, filepath.FromSlash(dataset),
		date.Format("2006"), date.Format("01"), date.Format(DateLayout)+".csv")
}

// resolve finds the dataset file for date in any supported compression.
func (l *FlatFileLoader) resolve(dataset string, date time.Time) (string, bool) {
	base := FlatFilePath(l.dir, dataset, date)
	base = base[:len(base)-len(".csv")]
	for _, ext := range flatFileExts {
		p := base + ext
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// ReadDay parses the dataset file for date. A missing file yields
// ErrDataUnavailable.
func (l *FlatFileLoader) ReadDay(ctx context.Context, dataset string, date time.Time) ([]DayAggregate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, ok := l.resolve(dataset, date)
	if !ok {
		return nil, fmt.Errorf("%w: no %s file for %s", ErrDataUnavailable, dataset, date.Format(DateLayout))
	}

	rc, err := openCompressed(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var rows []DayAggregate
	if err := gocsv.Unmarshal(rc, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	l.logger.Debug("read flat file", zap.String("path", path), zap.Int("rows", len(rows)))
	return rows, nil
}

// DayContracts returns every contract on ticker traded on date.
func (l *FlatFileLoader) DayContracts(ctx context.Context, ticker string, date time.Time) ([]chain.Contract, error) {
	byTicker, err := l.options.get(date.Format(DateLayout), func() (map[string][]chain.Contract, error) {
		return l.readOptionsDay(ctx, date)
	})
	if errors.Is(err, ErrDataUnavailable) {
		return []chain.Contract{}, nil
	}
	if err != nil {
		return nil, err
	}

	contracts := byTicker[NormalizeTicker(ticker)]
	out := make([]chain.Contract, len(contracts))
	copy(out, contracts)
	return out, nil
}

// readOptionsDay parses the options file for date and groups its contracts
// by underlying.
func (l *FlatFileLoader) readOptionsDay(ctx context.Context, date time.Time) (map[string][]chain.Contract, error) {
	rows, err := l.ReadDay(ctx, OptionsDataset, date)
	if err != nil {
		return nil, err
	}

	byTicker := make(map[string][]chain.Contract)
	skipped := 0
	for _, row := range rows {
		sym, err := ParseOptionSymbol(row.Ticker)
		if err != nil {
			skipped++
			continue
		}
		byTicker[sym.Underlying] = append(byTicker[sym.Underlying], contractFromAggregate(sym, row))
	}
	if skipped > 0 {
		l.logger.Debug("skipped unparseable symbols", zap.Int("count", skipped))
	}
	return byTicker, nil
}

func contractFromAggregate(sym Symbol, row DayAggregate) chain.Contract {
	c := chain.Contract{
		Underlying: sym.Underlying,
		Symbol:     row.Ticker,
		Strike:     sym.Strike,
		Type:       sym.Type,
		Expiration: sym.Expiration,
		Volume:     row.Volume,
		Source:     chain.SourceFlatFile,
	}
	if validPrice(row.Close) {
		last := row.Close
		c.LastPrice = &last
	}
	return c
}

func (l *FlatFileLoader) FetchContracts(ctx context.Context, ticker string, expiration, asOf time.Time) ([]chain.Contract, error) {
	all, err := l.DayContracts(ctx, ticker, asOf)
	if err != nil {
		return nil, err
	}
	day := dayChain{contracts: all}
	return day.forExpiration(expiration), nil
}

func (l *FlatFileLoader) FetchUnderlyingPrice(ctx context.Context, ticker string, asOf time.Time) (*float64, error) {
	closes, err := l.stocks.get(asOf.Format(DateLayout), func() (map[string]float64, error) {
		rows, err := l.ReadDay(ctx, StocksDataset, asOf)
		if err != nil {
			return nil, err
		}
		closes := make(map[string]float64, len(rows))
		for _, row := range rows {
			if _, seen := closes[row.Ticker]; !seen && validPrice(row.Close) {
				closes[row.Ticker] = row.Close
			}
		}
		return closes, nil
	})
	if errors.Is(err, ErrDataUnavailable) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	price, ok := closes[NormalizeTicker(ticker)]
	if !ok {
		return nil, nil
	}
	return &price, nil
}

func (l *FlatFileLoader) Expirations(ctx context.Context, ticker string, asOf time.Time) ([]time.Time, error) {
	all, err := l.DayContracts(ctx, ticker, asOf)
	if err != nil {
		return nil, err
	}
	day := dayChain{contracts: all}
	return day.expirations(), nil
}

// validPrice reports whether a close is a usable trade price. NaN and
// infinite values from malformed rows are rejected.
func validPrice(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
