package data

import (
	"context"
	"sync"
	"time"

	"github.com/dgnsrekt/optchain-analytics/internal/chain"
)

// ReloadableSource wraps a Source and allows atomic replacement.
// All Source methods delegate to the current underlying source.
type ReloadableSource struct {
	mu      sync.RWMutex
	current Source
}

var _ Source = (*ReloadableSource)(nil)

func NewReloadableSource(initial Source) *ReloadableSource {
	return &ReloadableSource{current: initial}
}

// Swap atomically replaces the underlying source and returns the old one.
func (r *ReloadableSource) Swap(next Source) Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.current
	r.current = next
	return old
}

func (r *ReloadableSource) get() Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *ReloadableSource) Name() string { return r.get().Name() }

func (r *ReloadableSource) FetchContracts(ctx context.Context, ticker string, expiration, asOf time.Time) ([]chain.Contract, error) {
	return r.get().FetchContracts(ctx, ticker, expiration, asOf)
}

func (r *ReloadableSource) FetchUnderlyingPrice(ctx context.Context, ticker string, asOf time.Time) (*float64, error) {
	return r.get().FetchUnderlyingPrice(ctx, ticker, asOf)
}

func (r *ReloadableSource) Expirations(ctx context.Context, ticker string, asOf time.Time) ([]time.Time, error) {
	return r.get().Expirations(ctx, ticker, asOf)
}
