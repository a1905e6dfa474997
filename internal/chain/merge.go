package chain

import (
	"sort"

	"github.com/dgnsrekt/optchain-analytics/internal/pricing"
)

// Merge reconciles two records of the same contract. Each field comes from
// primary when present and falls back to secondary. Provenance names the
// source of every field that was filled from secondary. Greeks, theoretical
// price and implied volatility are taken as a unit from whichever record
// carries the Greeks.
func Merge(primary, secondary *EnrichedContract) (EnrichedContract, error) {
	switch {
	case primary == nil && secondary == nil:
		return EnrichedContract{}, ErrNothingToMerge
	case secondary == nil:
		return *primary, nil
	case primary == nil:
		return *secondary, nil
	}
	if primary.Key() != secondary.Key() {
		return EnrichedContract{}, ErrMergeMismatch
	}

	out := *primary
	src := secondary.DataSource
	filled := false

	fill := func(dst **float64, from *float64, tag *string) {
		if *dst == nil && from != nil {
			*dst = from
			*tag = src
			filled = true
		}
	}
	fill(&out.LastPrice, secondary.LastPrice, &out.Provenance.LastPrice)
	fill(&out.Bid, secondary.Bid, &out.Provenance.Bid)
	fill(&out.Ask, secondary.Ask, &out.Provenance.Ask)
	fill(&out.ImpliedVolatility, secondary.ImpliedVolatility, &out.Provenance.ImpliedVolatility)

	// Model values travel with the volatility they were computed at.
	if out.Greeks == nil && secondary.Greeks != nil {
		out.Greeks = secondary.Greeks
		out.TheoreticalPrice = secondary.TheoreticalPrice
		out.Provenance.Greeks = src
		if secondary.ImpliedVolatility != nil {
			out.ImpliedVolatility = secondary.ImpliedVolatility
			out.Provenance.ImpliedVolatility = src
		}
		filled = true
	}
	if out.Volume == 0 && secondary.Volume != 0 {
		out.Volume = secondary.Volume
		out.Provenance.Volume = src
		filled = true
	}
	if out.OpenInterest == 0 && secondary.OpenInterest != 0 {
		out.OpenInterest = secondary.OpenInterest
		out.Provenance.OpenInterest = src
		filled = true
	}
	if out.Symbol == "" {
		out.Symbol = secondary.Symbol
	}

	if filled {
		out.DataSource = SourceMerged
	}
	return out, nil
}

// MergeChains outer-joins two chains on strike and type. The result is
// ordered by strike, calls before puts.
func MergeChains(primary, secondary []EnrichedContract) []EnrichedContract {
	index := make(map[Key]*EnrichedContract, len(secondary))
	for i := range secondary {
		index[secondary[i].Key()] = &secondary[i]
	}

	out := make([]EnrichedContract, 0, len(primary)+len(secondary))
	seen := make(map[Key]bool, len(primary))
	for i := range primary {
		key := primary[i].Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		merged, err := Merge(&primary[i], index[key])
		if err != nil {
			continue
		}
		out = append(out, merged)
	}
	for i := range secondary {
		key := secondary[i].Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, secondary[i])
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Strike != out[j].Strike {
			return out[i].Strike < out[j].Strike
		}
		return out[i].Type == pricing.Call && out[j].Type != pricing.Call
	})
	return out
}
