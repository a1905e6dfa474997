package data

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/optchain-analytics/internal/chain"
)

// Snapshot file names under {dir}/{date}/{TICKER}/.
const (
	ChainFile      = "chain.jsonl"
	UnderlyingFile = "underlying.json"
)

// SnapshotLoader holds JSONL chain snapshots in memory.
//
// Layout: {dir}/{YYYY-MM-DD}/{TICKER}/chain.jsonl[.zst] and underlying.json.
type SnapshotLoader struct {
	days   map[string]*dayChain // key: ticker/date
	logger *zap.Logger
}

var _ Source = (*SnapshotLoader)(nil)

func NewSnapshotLoader(dir string, logger *zap.Logger) (*SnapshotLoader, error) {
	loader := &SnapshotLoader{
		days:   make(map[string]*dayChain),
		logger: logger,
	}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := info.Name()
		if info.IsDir() {
			// Skip staging and other hidden trees
			if path != dir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		isChain := name == ChainFile || name == ChainFile+extZstd
		if !isChain && name != UnderlyingFile {
			return nil
		}

		// Format: {date}/{ticker}/{file}
		rel, _ := filepath.Rel(dir, path)
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 3 {
			return nil
		}
		date, err := ParseDate(parts[0])
		if err != nil {
			logger.Debug("skipping file outside a date directory", zap.String("path", path))
			return nil
		}
		key := DataKey(parts[1], date)
		day := loader.day(key)

		if isChain {
			contracts, err := loadChain(path)
			if err != nil {
				logger.Warn("failed to load file", zap.String("path", path), zap.Error(err))
				return nil
			}
			day.contracts = append(day.contracts, contracts...)
			logger.Info("loaded chain", zap.String("key", key), zap.Int("count", len(contracts)))
			return nil
		}

		price, err := loadUnderlying(path)
		if err != nil {
			logger.Warn("failed to load file", zap.String("path", path), zap.Error(err))
			return nil
		}
		day.underlying = price
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walking snapshot directory: %w", err)
	}

	if len(loader.days) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSnapshots, dir)
	}

	return loader, nil
}

func (l *SnapshotLoader) day(key string) *dayChain {
	d, ok := l.days[key]
	if !ok {
		d = &dayChain{}
		l.days[key] = d
	}
	return d
}

func loadChain(path string) ([]chain.Contract, error) {
	rc, err := openCompressed(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ReadChain(rc, chain.SourceSnapshot)
}

// ReadChain decodes JSONL snapshot records from r.
func ReadChain(r io.Reader, source string) ([]chain.Contract, error) {
	scanner := bufio.NewScanner(r)

	// Increase buffer size for large lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var contracts []chain.Contract
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec SnapshotRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		c, err := rec.Contract(source)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		contracts = append(contracts, c)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return contracts, nil
}

// WriteChain encodes contracts as JSONL snapshot records.
func WriteChain(w io.Writer, contracts []chain.Contract) error {
	enc := json.NewEncoder(w)
	for _, c := range contracts {
		if err := enc.Encode(RecordFromContract(c)); err != nil {
			return err
		}
	}
	return nil
}

func loadUnderlying(path string) (*float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var u UnderlyingSnapshot
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, err
	}
	return u.Price, nil
}

func (l *SnapshotLoader) Name() string { return chain.SourceSnapshot }

func (l *SnapshotLoader) FetchContracts(ctx context.Context, ticker string, expiration, asOf time.Time) ([]chain.Contract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, ok := l.days[DataKey(ticker, asOf)]
	if !ok {
		return []chain.Contract{}, nil
	}
	return d.forExpiration(expiration), nil
}

func (l *SnapshotLoader) FetchUnderlyingPrice(ctx context.Context, ticker string, asOf time.Time) (*float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, ok := l.days[DataKey(ticker, asOf)]
	if !ok || d.underlying == nil {
		return nil, nil
	}
	price := *d.underlying
	return &price, nil
}

func (l *SnapshotLoader) Expirations(ctx context.Context, ticker string, asOf time.Time) ([]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, ok := l.days[DataKey(ticker, asOf)]
	if !ok {
		return []time.Time{}, nil
	}
	return d.expirations(), nil
}

// GetLoadedKeys returns all loaded ticker/date keys, sorted.
func (l *SnapshotLoader) GetLoadedKeys() []string {
	keys := make([]string, 0, len(l.days))
	for k := range l.days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortTimes(ts []time.Time) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
}
