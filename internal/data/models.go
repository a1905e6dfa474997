package data

import (
	"fmt"
	"time"

	"github.com/dgnsrekt/optchain-analytics/internal/chain"
	"github.com/dgnsrekt/optchain-analytics/internal/pricing"
)

// SnapshotRecord is one line of a chain.jsonl snapshot file.
type SnapshotRecord struct {
	Symbol       string   `json:"symbol,omitempty"`
	Underlying   string   `json:"underlying"`
	Strike       float64  `json:"strike"`
	Type         string   `json:"type"`
	Expiration   string   `json:"expiration"`
	Last         *float64 `json:"last"`
	Volume       int64    `json:"volume"`
	OpenInterest int64    `json:"open_interest"`
}

// UnderlyingSnapshot is the content of an underlying.json snapshot file.
type UnderlyingSnapshot struct {
	Ticker string   `json:"ticker"`
	Date   string   `json:"date"`
	Price  *float64 `json:"price"`
}

// Contract converts the record to a chain.Contract tagged with source.
func (r SnapshotRecord) Contract(source string) (chain.Contract, error) {
	typ, err := pricing.ParseOptionType(r.Type)
	if err != nil {
		return chain.Contract{}, err
	}
	exp, err := ParseDate(r.Expiration)
	if err != nil {
		return chain.Contract{}, fmt.Errorf("expiration %q: %w", r.Expiration, err)
	}
	if r.Strike <= 0 {
		return chain.Contract{}, fmt.Errorf("strike must be positive, got %v", r.Strike)
	}
	return chain.Contract{
		Underlying:   NormalizeTicker(r.Underlying),
		Symbol:       r.Symbol,
		Strike:       r.Strike,
		Type:         typ,
		Expiration:   exp,
		LastPrice:    r.Last,
		Volume:       r.Volume,
		OpenInterest: r.OpenInterest,
		Source:       source,
	}, nil
}

// RecordFromContract is the inverse of SnapshotRecord.Contract.
func RecordFromContract(c chain.Contract) SnapshotRecord {
	return SnapshotRecord{
		Symbol:       c.Symbol,
		Underlying:   c.Underlying,
		Strike:       c.Strike,
		Type:         c.Type.String(),
		Expiration:   c.Expiration.Format(DateLayout),
		Last:         c.LastPrice,
		Volume:       c.Volume,
		OpenInterest: c.OpenInterest,
	}
}

type dayChain struct {
	contracts  []chain.Contract
	underlying *float64
}

func (d *dayChain) forExpiration(expiration time.Time) []chain.Contract {
	out := make([]chain.Contract, 0)
	for _, c := range d.contracts {
		if sameDay(c.Expiration, expiration) {
			out = append(out, c)
		}
	}
	return out
}

func (d *dayChain) expirations() []time.Time {
	seen := make(map[string]bool)
	out := make([]time.Time, 0)
	for _, c := range d.contracts {
		k := c.Expiration.Format(DateLayout)
		if !seen[k] {
			seen[k] = true
			out = append(out, c.Expiration)
		}
	}
	sortTimes(out)
	return out
}
