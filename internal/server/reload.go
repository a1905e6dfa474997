package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/optchain-analytics/internal/data"
)

var ErrReloadInProgress = errors.New("reload already in progress")

// Flusher drops cached results after the underlying data changes.
type Flusher interface {
	Flush()
}

// LoaderFunc builds a fresh snapshot source from disk.
type LoaderFunc func() (*data.SnapshotLoader, error)

// ReloadManager re-reads the snapshot directory and swaps the result into
// the live source, then flushes the cache so no stale chains are served.
type ReloadManager struct {
	source *data.ReloadableSource
	cache  Flusher
	load   LoaderFunc
	logger *zap.Logger

	reloadMu sync.Mutex // prevents concurrent reloads

	loadedAt time.Time
	keys     int
	stateMu  sync.RWMutex
}

// ReloadResult contains the result of a successful reload operation.
type ReloadResult struct {
	PreviousKeys int       `json:"previous_keys"`
	LoadedKeys   int       `json:"loaded_keys"`
	LoadedAt     time.Time `json:"loaded_at"`
}

// NewReloadManager creates a ReloadManager. cache may be nil; initialKeys is
// the number of ticker/date snapshots in the source being served now.
func NewReloadManager(source *data.ReloadableSource, cache Flusher, load LoaderFunc, initialKeys int, logger *zap.Logger) *ReloadManager {
	return &ReloadManager{
		source:   source,
		cache:    cache,
		load:     load,
		logger:   logger,
		loadedAt: time.Now(),
		keys:     initialKeys,
	}
}

// LoadedAt returns the timestamp when the current data was loaded.
func (rm *ReloadManager) LoadedAt() time.Time {
	rm.stateMu.RLock()
	defer rm.stateMu.RUnlock()
	return rm.loadedAt
}

// Reload loads the snapshot directory again and swaps it in. On error the
// data being served is left untouched.
func (rm *ReloadManager) Reload(ctx context.Context) (*ReloadResult, error) {
	if !rm.reloadMu.TryLock() {
		return nil, ErrReloadInProgress
	}
	defer rm.reloadMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rm.stateMu.RLock()
	previous := rm.keys
	rm.stateMu.RUnlock()

	rm.logger.Info("starting hot reload", zap.Int("previousKeys", previous))

	loader, err := rm.load()
	if err != nil {
		return nil, fmt.Errorf("reloading snapshots: %w", err)
	}
	keys := loader.GetLoadedKeys()
	if len(keys) == 0 {
		return nil, fmt.Errorf("reloading snapshots: %w", data.ErrNoSnapshots)
	}

	rm.source.Swap(loader)
	if rm.cache != nil {
		rm.cache.Flush()
	}

	rm.stateMu.Lock()
	rm.keys = len(keys)
	rm.loadedAt = time.Now()
	loadedAt := rm.loadedAt
	rm.stateMu.Unlock()

	rm.logger.Info("hot reload complete",
		zap.Int("previousKeys", previous),
		zap.Int("loadedKeys", len(keys)),
		zap.Time("loadedAt", loadedAt),
	)

	return &ReloadResult{
		PreviousKeys: previous,
		LoadedKeys:   len(keys),
		LoadedAt:     loadedAt,
	}, nil
}
