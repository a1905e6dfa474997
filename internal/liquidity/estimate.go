// Package liquidity estimates bid/ask quotes for contracts that only carry a
// last trade price.
//
// The estimate is a heuristic: the spread is a fixed percentage of the last
// price chosen by daily volume. It is not derived from an order book and
// should be displayed as an approximation.
package liquidity

import (
	"math"

	"github.com/shopspring/decimal"
)

// MinBid is the smallest bid the estimator will quote.
const MinBid = 0.01

var (
	minBid = decimal.NewFromFloat(MinBid)
	two    = decimal.NewFromInt(2)
)

// tier maps a volume floor (exclusive) to a spread percentage.
type tier struct {
	above int64
	pct   float64
}

var tiers = []tier{
	{above: 10000, pct: 0.02},
	{above: 1000, pct: 0.04},
	{above: 100, pct: 0.08},
	{above: 10, pct: 0.15},
}

const illiquidSpreadPct = 0.25

// SpreadPct returns the full bid/ask spread as a fraction of price for the given volume.
func SpreadPct(volume int64) float64 {
	for _, t := range tiers {
		if volume > t.above {
			return t.pct
		}
	}
	return illiquidSpreadPct
}

// EstimateBidAsk centers a volume-tiered spread on the last trade price.
// Quotes are rounded to cents and the bid never drops below MinBid.
// A non-positive or non-finite last price returns (0, 0): no estimate is
// available.
func EstimateBidAsk(last float64, volume int64) (bid, ask float64) {
	if last <= 0 || math.IsNaN(last) || math.IsInf(last, 0) {
		return 0, 0
	}

	price := decimal.NewFromFloat(last)
	half := price.Mul(decimal.NewFromFloat(SpreadPct(volume))).Div(two)

	b := decimal.Max(minBid, price.Sub(half).Round(2))
	a := price.Add(half).Round(2)

	return b.InexactFloat64(), a.InexactFloat64()
}
