package pricing

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DaysPerYear converts theta to a per-day figure and DTE to years.
	DaysPerYear = 365.0

	// MinYears keeps same-day contracts out of the T=0 degenerate case.
	MinYears = 0.001

	precision = 1e4
)

var normal = distuv.UnitNormal

// Price returns the Black-Scholes value of a European option, rounded to 4 dp.
// An expired option (Years <= 0) is worth its intrinsic value.
func Price(in Inputs, t OptionType) (float64, error) {
	if err := validate(in, t); err != nil {
		return 0, err
	}
	if in.Years > 0 && in.Volatility < 0 {
		return 0, fmt.Errorf("%w: volatility must not be negative, got %v", ErrInvalidInput, in.Volatility)
	}
	return round4(price(in, t)), nil
}

// ComputeGreeks returns delta, gamma, theta, vega and rho rounded to 4 dp.
// Years <= 0 or Volatility <= 0 yields all-zero Greeks.
func ComputeGreeks(in Inputs, t OptionType) (Greeks, error) {
	if err := validate(in, t); err != nil {
		return Greeks{}, err
	}
	g := greeks(in, t)
	return Greeks{
		Delta: round4(g.Delta),
		Gamma: round4(g.Gamma),
		Theta: round4(g.Theta),
		Vega:  round4(g.Vega),
		Rho:   round4(g.Rho),
	}, nil
}

// Evaluate prices the option and computes its Greeks in one call.
func Evaluate(in Inputs, t OptionType) (Result, error) {
	p, err := Price(in, t)
	if err != nil {
		return Result{}, err
	}
	g, err := ComputeGreeks(in, t)
	if err != nil {
		return Result{}, err
	}
	return Result{Price: p, Greeks: g}, nil
}

// YearsToExpiration converts calendar days between asOf and expiration to years.
// Same-day contracts get MinYears; expired contracts get 0.
func YearsToExpiration(asOf, expiration time.Time) float64 {
	days := DaysBetween(asOf, expiration)
	if days < 0 {
		return 0
	}
	return math.Max(float64(days)/DaysPerYear, MinYears)
}

// DaysBetween counts whole calendar days from asOf to expiration, ignoring time of day.
func DaysBetween(asOf, expiration time.Time) int {
	a := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(expiration.Year(), expiration.Month(), expiration.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(e.Sub(a).Hours() / 24))
}

func validate(in Inputs, t OptionType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOptionType, string(t))
	}
	for name, v := range map[string]float64{
		"spot": in.Spot, "strike": in.Strike, "years": in.Years,
		"rate": in.Rate, "volatility": in.Volatility,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidInput, name)
		}
	}
	if in.Spot <= 0 {
		return fmt.Errorf("%w: spot must be positive, got %v", ErrInvalidInput, in.Spot)
	}
	if in.Strike <= 0 {
		return fmt.Errorf("%w: strike must be positive, got %v", ErrInvalidInput, in.Strike)
	}
	return nil
}

func d1d2(in Inputs) (float64, float64) {
	sqrtT := math.Sqrt(in.Years)
	d1 := (math.Log(in.Spot/in.Strike) + (in.Rate+0.5*in.Volatility*in.Volatility)*in.Years) / (in.Volatility * sqrtT)
	return d1, d1 - in.Volatility*sqrtT
}

// price is the unrounded closed form. Inputs are already validated.
func price(in Inputs, t OptionType) float64 {
	if in.Years <= 0 {
		return intrinsic(in.Spot, in.Strike, t)
	}
	discounted := in.Strike * math.Exp(-in.Rate*in.Years)
	if in.Volatility == 0 {
		return intrinsic(in.Spot, discounted, t)
	}

	d1, d2 := d1d2(in)
	if t == Call {
		return in.Spot*normal.CDF(d1) - discounted*normal.CDF(d2)
	}
	return discounted*normal.CDF(-d2) - in.Spot*normal.CDF(-d1)
}

// greeks is the unrounded closed form. Inputs are already validated.
func greeks(in Inputs, t OptionType) Greeks {
	if in.Years <= 0 || in.Volatility <= 0 {
		return Greeks{}
	}

	S, K, T, r, sigma := in.Spot, in.Strike, in.Years, in.Rate, in.Volatility
	sqrtT := math.Sqrt(T)
	d1, d2 := d1d2(in)
	pdf := normal.Prob(d1)
	discount := math.Exp(-r * T)
	decay := -S * pdf * sigma / (2 * sqrtT)

	g := Greeks{
		Gamma: pdf / (S * sigma * sqrtT),
		Vega:  S * pdf * sqrtT / 100,
	}
	if t == Call {
		g.Delta = normal.CDF(d1)
		g.Theta = (decay - r*K*discount*normal.CDF(d2)) / DaysPerYear
		g.Rho = K * T * discount * normal.CDF(d2) / 100
	} else {
		g.Delta = normal.CDF(d1) - 1
		g.Theta = (decay + r*K*discount*normal.CDF(-d2)) / DaysPerYear
		g.Rho = -K * T * discount * normal.CDF(-d2) / 100
	}
	return g
}

// Intrinsic is max(0, S-K) for calls and max(0, K-S) for puts.
func Intrinsic(spot, strike float64, t OptionType) float64 {
	return intrinsic(spot, strike, t)
}

func intrinsic(spot, strike float64, t OptionType) float64 {
	if t == Call {
		return math.Max(0, spot-strike)
	}
	return math.Max(0, strike-spot)
}

func round4(v float64) float64 {
	return math.Round(v*precision) / precision
}
