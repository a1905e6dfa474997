package chain

import (
	"math"
	"testing"
	"time"

	"github.com/dgnsrekt/optchain-analytics/internal/pricing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9
}

var (
	testAsOf       = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	testExpiration = testAsOf.AddDate(0, 0, 30)
)

func contract(strike float64, typ pricing.OptionType, last *float64, volume int64) Contract {
	return Contract{
		Underlying: "SPY",
		Strike:     strike,
		Type:       typ,
		Expiration: testExpiration,
		LastPrice:  last,
		Volume:     volume,
		Source:     SourceSnapshot,
	}
}

func TestEnrichOnePricesNearTheMoney(t *testing.T) {
	e := NewEnricher(Options{RiskFreeRate: DefaultRiskFreeRate})

	ec := e.EnrichOne(contract(100, pricing.Call, ptr(5.0), 50000), 100, testAsOf)

	if ec.Bid == nil || ec.Ask == nil || *ec.Bid != 4.95 || *ec.Ask != 5.05 {
		t.Errorf("expected bid/ask 4.95/5.05, got %v/%v", ec.Bid, ec.Ask)
	}
	if ec.ImpliedVolatility == nil || *ec.ImpliedVolatility != TieredNearVolatility {
		t.Errorf("expected IV %v, got %v", TieredNearVolatility, ec.ImpliedVolatility)
	}
	if !ec.IsATM {
		t.Error("expected ATM classification")
	}
	if ec.Greeks == nil || ec.TheoreticalPrice == nil {
		t.Fatal("expected model values")
	}

	want, err := pricing.Evaluate(pricing.Inputs{
		Spot: 100, Strike: 100, Years: 30.0 / 365, Rate: DefaultRiskFreeRate, Volatility: TieredNearVolatility,
	}, pricing.Call)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *ec.TheoreticalPrice != want.Price || *ec.Greeks != want.Greeks {
		t.Errorf("expected %+v, got price=%v greeks=%+v", want, *ec.TheoreticalPrice, *ec.Greeks)
	}
	if ec.DataSource != SourceSnapshot {
		t.Errorf("expected data source %q, got %q", SourceSnapshot, ec.DataSource)
	}
}

func TestEnrichOneWithoutTrade(t *testing.T) {
	e := NewEnricher(Options{RiskFreeRate: DefaultRiskFreeRate})

	ec := e.EnrichOne(contract(100, pricing.Put, nil, 0), 100, testAsOf)

	if ec.Bid != nil || ec.Ask != nil {
		t.Errorf("expected no bid/ask, got %v/%v", ec.Bid, ec.Ask)
	}
	if ec.ImpliedVolatility == nil || *ec.ImpliedVolatility != TieredDefaultVolatility {
		t.Errorf("expected default IV, got %v", ec.ImpliedVolatility)
	}
	if ec.Greeks != nil || ec.TheoreticalPrice != nil {
		t.Error("expected no model values for an untraded contract")
	}
}

func TestEnrichOneConstantPolicyPricesEverything(t *testing.T) {
	e := NewEnricher(Options{RiskFreeRate: DefaultRiskFreeRate, Policy: ConstantVolatility{Sigma: 0.4}})

	ec := e.EnrichOne(contract(150, pricing.Call, nil, 0), 100, testAsOf)

	if ec.Greeks == nil || *ec.ImpliedVolatility != 0.4 {
		t.Errorf("expected priced contract at 0.4, got iv=%v greeks=%v", ec.ImpliedVolatility, ec.Greeks)
	}
	if !ec.IsOTM {
		t.Error("expected OTM classification")
	}
}

func TestEnrichPreservesOrderAndInputs(t *testing.T) {
	e := NewEnricher(Options{RiskFreeRate: DefaultRiskFreeRate, Workers: 4})

	var contracts []Contract
	for i := 0; i < 50; i++ {
		typ := pricing.Call
		if i%2 == 1 {
			typ = pricing.Put
		}
		contracts = append(contracts, contract(float64(80+i), typ, ptr(float64(i)/10), int64(i*100)))
	}
	before := make([]Contract, len(contracts))
	copy(before, contracts)

	out := e.Enrich(contracts, 100, testAsOf)

	if len(out) != len(contracts) {
		t.Fatalf("expected %d results, got %d", len(contracts), len(out))
	}
	for i := range out {
		if out[i].Key() != contracts[i].Key() {
			t.Fatalf("result %d out of order: %+v", i, out[i].Key())
		}
		want := e.EnrichOne(contracts[i], 100, testAsOf)
		if (out[i].Greeks == nil) != (want.Greeks == nil) {
			t.Errorf("result %d differs from synchronous enrichment", i)
		}
	}
	for i := range contracts {
		if contracts[i] != before[i] {
			t.Errorf("contract %d was modified", i)
		}
	}
}

func TestEnrichEmpty(t *testing.T) {
	out := NewEnricher(Options{}).Enrich(nil, 100, testAsOf)
	if out == nil || len(out) != 0 {
		t.Errorf("expected empty non-nil result, got %v", out)
	}
}

func TestParseVolatilityPolicy(t *testing.T) {
	p, err := ParseVolatilityPolicy("", 0)
	if err != nil || p.Name() != "tiered" {
		t.Errorf("expected tiered default, got %v (%v)", p, err)
	}
	p, err = ParseVolatilityPolicy("Constant", 0.35)
	if err != nil || p.Name() != "constant" {
		t.Errorf("expected constant policy, got %v (%v)", p, err)
	}
	if _, err := ParseVolatilityPolicy("constant", 0); err == nil {
		t.Error("expected error for zero constant volatility")
	}
	if _, err := ParseVolatilityPolicy("garch", 0.2); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestTieredVolatility(t *testing.T) {
	p := TieredVolatility{}
	tests := []struct {
		strike float64
		last   *float64
		years  float64
		want   Estimate
	}{
		{102, ptr(1.0), 0.1, Estimate{Volatility: 0.20, Price: true}},
		{110, ptr(1.0), 0.1, Estimate{Volatility: 0.25, Price: true}},
		{130, ptr(1.0), 0.1, Estimate{Volatility: 0.30}},
		{100, ptr(0.0), 0.1, Estimate{Volatility: 0.30}},
		{100, ptr(1.0), 0, Estimate{Volatility: 0.30}},
	}
	for _, tt := range tests {
		got := p.Estimate(contract(tt.strike, pricing.Call, tt.last, 0), 100, tt.years)
		if got != tt.want {
			t.Errorf("strike %v: expected %+v, got %+v", tt.strike, tt.want, got)
		}
	}
}
