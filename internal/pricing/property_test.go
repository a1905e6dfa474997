package pricing

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func pricingProperties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(42)
	return gopter.NewProperties(parameters)
}

func TestProperty_PutCallParity(t *testing.T) {
	properties := pricingProperties()

	properties.Property("call - put = S - K*exp(-rT)", prop.ForAll(
		func(s, k, years, r, sigma float64) bool {
			in := Inputs{Spot: s, Strike: k, Years: years, Rate: r, Volatility: sigma}
			lhs := price(in, Call) - price(in, Put)
			rhs := s - k*math.Exp(-r*years)
			return math.Abs(lhs-rhs) < 1e-6
		},
		gen.Float64Range(10, 500),
		gen.Float64Range(10, 500),
		gen.Float64Range(0.01, 3),
		gen.Float64Range(0, 0.1),
		gen.Float64Range(0.05, 1),
	))

	properties.Property("rounded parity holds to rounding error", prop.ForAll(
		func(s, k, years, r, sigma float64) bool {
			in := Inputs{Spot: s, Strike: k, Years: years, Rate: r, Volatility: sigma}
			call, err1 := Price(in, Call)
			put, err2 := Price(in, Put)
			if err1 != nil || err2 != nil {
				return false
			}
			return math.Abs((call-put)-(s-k*math.Exp(-r*years))) <= 1.01e-4
		},
		gen.Float64Range(10, 500),
		gen.Float64Range(10, 500),
		gen.Float64Range(0.01, 3),
		gen.Float64Range(0, 0.1),
		gen.Float64Range(0.05, 1),
	))

	properties.TestingRun(t)
}

func TestProperty_DeltaDifferenceIsOne(t *testing.T) {
	properties := pricingProperties()

	properties.Property("delta(call) - delta(put) = 1", prop.ForAll(
		func(s, k, years, r, sigma float64) bool {
			in := Inputs{Spot: s, Strike: k, Years: years, Rate: r, Volatility: sigma}
			return math.Abs(greeks(in, Call).Delta-greeks(in, Put).Delta-1) < 1e-12
		},
		gen.Float64Range(10, 500),
		gen.Float64Range(10, 500),
		gen.Float64Range(0.01, 3),
		gen.Float64Range(0, 0.1),
		gen.Float64Range(0.05, 1),
	))

	properties.TestingRun(t)
}

func TestProperty_GammaVegaNonNegative(t *testing.T) {
	properties := pricingProperties()

	properties.Property("gamma >= 0 and vega >= 0", prop.ForAll(
		func(s, k, years, r, sigma float64) bool {
			in := Inputs{Spot: s, Strike: k, Years: years, Rate: r, Volatility: sigma}
			for _, typ := range []OptionType{Call, Put} {
				g, err := ComputeGreeks(in, typ)
				if err != nil || g.Gamma < 0 || g.Vega < 0 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(1, 1000),
		gen.Float64Range(1, 1000),
		gen.Float64Range(0, 5),
		gen.Float64Range(-0.02, 0.15),
		gen.Float64Range(0, 2),
	))

	properties.Property("call delta in [0,1], put delta in [-1,0]", prop.ForAll(
		func(s, k, years, sigma float64) bool {
			in := Inputs{Spot: s, Strike: k, Years: years, Rate: 0.05, Volatility: sigma}
			c := greeks(in, Call).Delta
			p := greeks(in, Put).Delta
			return c >= 0 && c <= 1 && p >= -1 && p <= 0
		},
		gen.Float64Range(1, 1000),
		gen.Float64Range(1, 1000),
		gen.Float64Range(0.01, 5),
		gen.Float64Range(0.01, 2),
	))

	properties.TestingRun(t)
}

func TestProperty_ShortDatedPriceConvergesToIntrinsic(t *testing.T) {
	properties := pricingProperties()

	properties.Property("T -> 0+ converges to intrinsic", prop.ForAll(
		func(s, k, sigma float64) bool {
			in := Inputs{Spot: s, Strike: k, Years: 1e-12, Rate: 0.05, Volatility: sigma}
			return math.Abs(price(in, Call)-math.Max(0, s-k)) < 1e-3 &&
				math.Abs(price(in, Put)-math.Max(0, k-s)) < 1e-3
		},
		gen.Float64Range(10, 500),
		gen.Float64Range(10, 500),
		gen.Float64Range(0.05, 1),
	))

	properties.TestingRun(t)
}
