package chain

import (
	"time"

	"github.com/dgnsrekt/optchain-analytics/internal/moneyness"
	"github.com/dgnsrekt/optchain-analytics/internal/pricing"
)

// Data source tags carried on enriched contracts.
const (
	SourceSnapshot = "snapshot"
	SourceFlatFile = "flatfile"
	SourceMerged   = "merged"
)

// Contract is a raw per-contract market record for one expiration.
// LastPrice is nil when the contract did not trade.
type Contract struct {
	Underlying   string             `json:"underlying"`
	Symbol       string             `json:"symbol,omitempty"`
	Strike       float64            `json:"strike"`
	Type         pricing.OptionType `json:"type"`
	Expiration   time.Time          `json:"expiration"`
	LastPrice    *float64           `json:"last"`
	Volume       int64              `json:"volume"`
	OpenInterest int64              `json:"open_interest"`
	Source       string             `json:"source,omitempty"`
}

// Key identifies a contract within one expiration.
type Key struct {
	Strike float64
	Type   pricing.OptionType
}

func (c Contract) Key() Key {
	return Key{Strike: c.Strike, Type: c.Type}
}

// EnrichedContract is a Contract plus derived pricing and classification.
// Nil pointers mean the value is unavailable, not zero.
type EnrichedContract struct {
	Contract
	moneyness.Result

	Bid               *float64        `json:"bid"`
	Ask               *float64        `json:"ask"`
	ImpliedVolatility *float64        `json:"implied_volatility"`
	TheoreticalPrice  *float64        `json:"theoretical_price"`
	Greeks            *pricing.Greeks `json:"greeks"`
	DataSource        string          `json:"data_source"`
	Provenance        Provenance      `json:"provenance,omitempty"`
}

// Provenance records which source supplied each reconciled field.
// Empty values mean the field came from DataSource.
type Provenance struct {
	LastPrice         string `json:"last,omitempty"`
	Bid               string `json:"bid,omitempty"`
	Ask               string `json:"ask,omitempty"`
	ImpliedVolatility string `json:"implied_volatility,omitempty"`
	Greeks            string `json:"greeks,omitempty"`
	Volume            string `json:"volume,omitempty"`
	OpenInterest      string `json:"open_interest,omitempty"`
}

// Strikes returns the unique strikes in ascending order.
func Strikes(contracts []EnrichedContract) []float64 {
	strikes := make([]float64, 0, len(contracts))
	for _, c := range contracts {
		strikes = append(strikes, c.Strike)
	}
	return uniqueSorted(strikes)
}

func ptr[T any](v T) *T { return &v }
