package moneyness

import "github.com/dgnsrekt/optchain-analytics/internal/pricing"

// DefaultATMTolerancePct is the half-width, in percent of strike, of the ATM band.
const DefaultATMTolerancePct = 0.5

// Result describes where a strike sits relative to the underlying price.
type Result struct {
	MoneynessPct   float64 `json:"moneyness_pct"`
	IsITM          bool    `json:"is_itm"`
	IsATM          bool    `json:"is_atm"`
	IsOTM          bool    `json:"is_otm"`
	IntrinsicValue float64 `json:"intrinsic_value"`
}

// Classify reports moneyness for one contract.
//
// MoneynessPct is (stock-strike)/stock*100 for both calls and puts. A call is
// ITM when stock > strike*(1+tol) and OTM when stock < strike*(1-tol); puts
// invert the two tests. Anything in between is ATM. Non-positive prices
// cannot be classified and return the zero Result.
func Classify(stock, strike float64, t pricing.OptionType, tolPct float64) Result {
	if stock <= 0 || strike <= 0 {
		return Result{}
	}

	tol := tolPct / 100
	above := stock > strike*(1+tol)
	below := stock < strike*(1-tol)

	r := Result{
		MoneynessPct:   (stock - strike) / stock * 100,
		IntrinsicValue: pricing.Intrinsic(stock, strike, t),
	}
	if t == pricing.Put {
		r.IsITM, r.IsOTM = below, above
	} else {
		r.IsITM, r.IsOTM = above, below
	}
	r.IsATM = !r.IsITM && !r.IsOTM

	return r
}
