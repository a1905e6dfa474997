// Package spread analyzes two-leg vertical credit spreads at expiration.
package spread

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/dgnsrekt/optchain-analytics/internal/pricing"
)

const (
	// ContractMultiplier is the number of shares per equity option contract.
	ContractMultiplier = 100

	// DefaultSamples is the P&L curve resolution used when none is given.
	DefaultSamples = 100

	// MaxSamples bounds the P&L curve resolution.
	MaxSamples = 1000

	curveLow  = 0.9
	curveHigh = 1.1
)

var multiplier = decimal.NewFromInt(ContractMultiplier)

type Leg struct {
	Type    pricing.OptionType `json:"type"`
	Strike  float64            `json:"strike"`
	Premium float64            `json:"premium"`
}

type Position struct {
	Sell      Leg `json:"sell"`
	Buy       Leg `json:"buy"`
	Contracts int `json:"contracts"`
}

type Point struct {
	Price float64 `json:"price"`
	PnL   float64 `json:"pnl"`
}

type Analysis struct {
	Name       string   `json:"name"`
	NetCredit  float64  `json:"net_credit"`
	MaxProfit  float64  `json:"max_profit"`
	MaxLoss    float64  `json:"max_loss"`
	Breakeven  float64  `json:"breakeven"`
	RiskReward *float64 `json:"risk_reward"`
	Curve      []Point  `json:"pnl_curve"`
}

// Name returns the conventional name of a spread of the given type.
func Name(t pricing.OptionType) string {
	if t == pricing.Call {
		return "Bear Call Spread"
	}
	return "Bull Put Spread"
}

// Validate checks that sell and buy form a bear call or bull put spread.
// It returns a *ValidationError describing the first problem found.
func Validate(sell, buy Leg) error {
	if !sell.Type.Valid() || !buy.Type.Valid() {
		return invalid("unknown option type")
	}
	if sell.Type != buy.Type {
		return invalid("both legs must be the same type, got sell %s and buy %s", sell.Type, buy.Type)
	}
	if !positive(sell.Strike) || !positive(buy.Strike) {
		return invalid("strikes must be positive")
	}
	if !nonNegative(sell.Premium) || !nonNegative(buy.Premium) {
		return invalid("premiums must not be negative")
	}
	if sell.Type == pricing.Call && sell.Strike >= buy.Strike {
		return invalid("call spread sell strike %v must be below buy strike %v", sell.Strike, buy.Strike)
	}
	if sell.Type == pricing.Put && sell.Strike <= buy.Strike {
		return invalid("put spread sell strike %v must be above buy strike %v", sell.Strike, buy.Strike)
	}
	return nil
}

// Analyze computes expiration payoffs for a validated position. A net debit
// is computed like any other credit and shows up as negative max profit.
// samples below 2 use DefaultSamples; samples above MaxSamples are rejected.
func Analyze(p Position, samples int) (*Analysis, error) {
	if err := Validate(p.Sell, p.Buy); err != nil {
		return nil, err
	}
	if p.Contracts <= 0 {
		return nil, invalid("contracts must be positive, got %d", p.Contracts)
	}
	if samples > MaxSamples {
		return nil, invalid("samples must be at most %d, got %d", MaxSamples, samples)
	}
	if samples < 2 {
		samples = DefaultSamples
	}

	sellStrike := decimal.NewFromFloat(p.Sell.Strike)
	buyStrike := decimal.NewFromFloat(p.Buy.Strike)
	size := multiplier.Mul(decimal.NewFromInt(int64(p.Contracts)))

	credit := decimal.NewFromFloat(p.Sell.Premium).Sub(decimal.NewFromFloat(p.Buy.Premium))
	width := buyStrike.Sub(sellStrike)
	breakeven := sellStrike.Add(credit)
	if p.Sell.Type == pricing.Put {
		width = sellStrike.Sub(buyStrike)
		breakeven = sellStrike.Sub(credit)
	}

	maxProfit := credit.Mul(size)
	maxLoss := width.Sub(credit).Mul(size)

	a := &Analysis{
		Name:      Name(p.Sell.Type),
		NetCredit: credit.InexactFloat64(),
		MaxProfit: maxProfit.InexactFloat64(),
		MaxLoss:   maxLoss.InexactFloat64(),
		Breakeven: breakeven.InexactFloat64(),
		Curve:     Curve(p, samples),
	}
	if !maxLoss.IsZero() {
		rr := maxProfit.Div(maxLoss).Abs().InexactFloat64()
		a.RiskReward = &rr
	}
	return a, nil
}

// PnL is the expiration profit or loss of the position at price.
func PnL(p Position, price float64) float64 {
	credit := p.Sell.Premium - p.Buy.Premium
	sellValue := pricing.Intrinsic(price, p.Sell.Strike, p.Sell.Type)
	buyValue := pricing.Intrinsic(price, p.Buy.Strike, p.Buy.Type)
	return (credit - sellValue + buyValue) * ContractMultiplier * float64(p.Contracts)
}

// Curve samples PnL at evenly spaced prices from 90% of the lower strike to
// 110% of the higher strike, both ends included. samples is clamped to
// MaxSamples.
func Curve(p Position, samples int) []Point {
	if samples < 2 {
		samples = DefaultSamples
	}
	samples = min(samples, MaxSamples)
	lo := math.Min(p.Sell.Strike, p.Buy.Strike) * curveLow
	hi := math.Max(p.Sell.Strike, p.Buy.Strike) * curveHigh
	step := (hi - lo) / float64(samples-1)

	points := make([]Point, samples)
	for i := range points {
		price := lo + step*float64(i)
		if i == samples-1 {
			price = hi
		}
		points[i] = Point{Price: price, PnL: PnL(p, price)}
	}
	return points
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}
