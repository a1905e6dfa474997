package data

import (
	"context"
	"strings"
	"time"

	"github.com/dgnsrekt/optchain-analytics/internal/chain"
)

// DateLayout is the calendar date format used in paths and requests.
const DateLayout = "2006-01-02"

// Source supplies raw market data for one trading day.
type Source interface {
	// FetchContracts returns the chain for one expiration as of a date.
	// An empty slice with a nil error means there is no data.
	FetchContracts(ctx context.Context, ticker string, expiration, asOf time.Time) ([]chain.Contract, error)

	// FetchUnderlyingPrice returns nil when no price is known for the date.
	FetchUnderlyingPrice(ctx context.Context, ticker string, asOf time.Time) (*float64, error)

	// Expirations lists the expirations with contracts on a date, ascending.
	Expirations(ctx context.Context, ticker string, asOf time.Time) ([]time.Time, error)

	// Name identifies the source in data_source tags and logs.
	Name() string
}

// DataKey creates a unique key for ticker/date
func DataKey(ticker string, date time.Time) string {
	return NormalizeTicker(ticker) + "/" + date.Format(DateLayout)
}

// NormalizeTicker upper-cases and trims a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
