package chain

import (
	"errors"
	"testing"

	"github.com/dgnsrekt/optchain-analytics/internal/pricing"
)

func TestMergePrefersPrimaryAndFillsFromSecondary(t *testing.T) {
	primary := EnrichedContract{
		Contract:   Contract{Strike: 100, Type: pricing.Call, LastPrice: ptr(2.5), Volume: 120},
		Bid:        ptr(2.4),
		Ask:        ptr(2.6),
		DataSource: SourceFlatFile,
	}
	secondary := EnrichedContract{
		Contract:          Contract{Strike: 100, Type: pricing.Call, LastPrice: ptr(2.7), Volume: 90, OpenInterest: 4000, Symbol: "O:SPY250209C00100000"},
		ImpliedVolatility: ptr(0.21),
		DataSource:        SourceSnapshot,
	}

	got, err := Merge(&primary, &secondary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if *got.LastPrice != 2.5 || got.Volume != 120 {
		t.Errorf("primary fields should win, got last=%v volume=%d", *got.LastPrice, got.Volume)
	}
	if got.OpenInterest != 4000 || got.Provenance.OpenInterest != SourceSnapshot {
		t.Errorf("expected OI filled from secondary, got %d (%q)", got.OpenInterest, got.Provenance.OpenInterest)
	}
	if got.ImpliedVolatility == nil || got.Provenance.ImpliedVolatility != SourceSnapshot {
		t.Error("expected IV filled from secondary")
	}
	if got.Provenance.LastPrice != "" || got.Provenance.Volume != "" {
		t.Errorf("primary fields should carry no provenance override: %+v", got.Provenance)
	}
	if got.DataSource != SourceMerged {
		t.Errorf("expected merged data source, got %q", got.DataSource)
	}
	if got.Symbol != secondary.Symbol {
		t.Errorf("expected symbol from secondary, got %q", got.Symbol)
	}
	if primary.OpenInterest != 0 || primary.DataSource != SourceFlatFile {
		t.Error("primary was modified")
	}
}

func TestMergeSingleSided(t *testing.T) {
	only := EnrichedContract{Contract: Contract{Strike: 95, Type: pricing.Put}, DataSource: SourceSnapshot}

	got, err := Merge(nil, &only)
	if err != nil || got.DataSource != SourceSnapshot {
		t.Errorf("expected secondary as-is, got %+v (%v)", got, err)
	}
	got, err = Merge(&only, nil)
	if err != nil || got.Strike != 95 {
		t.Errorf("expected primary as-is, got %+v (%v)", got, err)
	}
	if _, err := Merge(nil, nil); !errors.Is(err, ErrNothingToMerge) {
		t.Errorf("expected ErrNothingToMerge, got %v", err)
	}
}

func TestMergeRejectsDifferentContracts(t *testing.T) {
	a := EnrichedContract{Contract: Contract{Strike: 100, Type: pricing.Call}}
	b := EnrichedContract{Contract: Contract{Strike: 100, Type: pricing.Put}}
	if _, err := Merge(&a, &b); !errors.Is(err, ErrMergeMismatch) {
		t.Errorf("expected ErrMergeMismatch, got %v", err)
	}
}

func TestMergeChainsOuterJoin(t *testing.T) {
	primary := []EnrichedContract{
		{Contract: Contract{Strike: 105, Type: pricing.Call, Volume: 5}, DataSource: SourceFlatFile},
		{Contract: Contract{Strike: 100, Type: pricing.Put, Volume: 7}, DataSource: SourceFlatFile},
	}
	secondary := []EnrichedContract{
		{Contract: Contract{Strike: 100, Type: pricing.Put, OpenInterest: 30}, DataSource: SourceSnapshot},
		{Contract: Contract{Strike: 100, Type: pricing.Call, OpenInterest: 10}, DataSource: SourceSnapshot},
	}

	got := MergeChains(primary, secondary)

	if len(got) != 3 {
		t.Fatalf("expected 3 contracts, got %d", len(got))
	}
	want := []Key{{100, pricing.Call}, {100, pricing.Put}, {105, pricing.Call}}
	for i, k := range want {
		if got[i].Key() != k {
			t.Errorf("position %d: expected %+v, got %+v", i, k, got[i].Key())
		}
	}
	if got[1].Volume != 7 || got[1].OpenInterest != 30 || got[1].DataSource != SourceMerged {
		t.Errorf("expected merged put, got %+v", got[1])
	}
	if got[0].DataSource != SourceSnapshot {
		t.Errorf("secondary-only contract should keep its source, got %q", got[0].DataSource)
	}
}

func TestMergeKeepsVolatilityWithGreeks(t *testing.T) {
	e := NewEnricher(Options{RiskFreeRate: DefaultRiskFreeRate})

	untraded := contract(100, pricing.Call, nil, 0)
	untraded.Source = SourceFlatFile
	primary := e.EnrichOne(untraded, 100, testAsOf)
	secondary := e.EnrichOne(contract(100, pricing.Call, ptr(2.0), 500), 100, testAsOf)

	if primary.Greeks != nil || secondary.Greeks == nil {
		t.Fatalf("expected greeks only on the traded record, got %v / %v", primary.Greeks, secondary.Greeks)
	}

	got, err := Merge(&primary, &secondary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.ImpliedVolatility == nil || *got.ImpliedVolatility != *secondary.ImpliedVolatility {
		t.Errorf("expected IV %v, got %v", *secondary.ImpliedVolatility, got.ImpliedVolatility)
	}
	if got.Provenance.ImpliedVolatility != SourceSnapshot || got.Provenance.Greeks != SourceSnapshot {
		t.Errorf("expected IV and greeks tagged %q, got %+v", SourceSnapshot, got.Provenance)
	}

	want, err := pricing.Evaluate(pricing.Inputs{
		Spot: 100, Strike: 100, Years: 30.0 / 365, Rate: DefaultRiskFreeRate, Volatility: *got.ImpliedVolatility,
	}, pricing.Call)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *got.Greeks != want.Greeks || *got.TheoreticalPrice != want.Price {
		t.Errorf("greeks do not match reported IV: got %+v, want %+v", *got.Greeks, want.Greeks)
	}
}

func TestMergeKeepsPrimaryVolatilityWhenPrimaryPriced(t *testing.T) {
	e := NewEnricher(Options{RiskFreeRate: DefaultRiskFreeRate})

	traded := contract(100, pricing.Call, ptr(2.0), 500)
	traded.Source = SourceFlatFile
	primary := e.EnrichOne(traded, 100, testAsOf)
	secondary := e.EnrichOne(contract(100, pricing.Call, ptr(2.0), 500), 104, testAsOf)

	got, err := Merge(&primary, &secondary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *got.ImpliedVolatility != *primary.ImpliedVolatility || got.Provenance.ImpliedVolatility != "" {
		t.Errorf("expected primary IV, got %v (%q)", *got.ImpliedVolatility, got.Provenance.ImpliedVolatility)
	}
	if *got.Greeks != *primary.Greeks {
		t.Error("expected primary greeks")
	}
}
