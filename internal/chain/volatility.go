package chain

import (
	"fmt"
	"math"
	"strings"
)

// Estimate is a volatility guess for one contract. Price is false when the
// contract should not be priced at all.
type Estimate struct {
	Volatility float64
	Price      bool
}

// VolatilityPolicy supplies the volatility used to price a contract when no
// market implied volatility is available.
type VolatilityPolicy interface {
	Name() string
	Estimate(c Contract, spot, years float64) Estimate
}

// Tiered volatility levels keyed by |strike-spot|/spot.
const (
	TieredNearVolatility    = 0.20
	TieredMidVolatility     = 0.25
	TieredDefaultVolatility = 0.30

	tieredNear = 0.05
	tieredMid  = 0.20
)

// TieredVolatility assigns 20% within 5% of spot and 25% within 20%. Contracts
// that did not trade, are expired, or sit further out get 30% and are not
// priced.
type TieredVolatility struct{}

func (TieredVolatility) Name() string { return "tiered" }

func (TieredVolatility) Estimate(c Contract, spot, years float64) Estimate {
	if spot <= 0 || c.LastPrice == nil || *c.LastPrice <= 0 || years <= 0 {
		return Estimate{Volatility: TieredDefaultVolatility}
	}
	distance := math.Abs(c.Strike-spot) / spot
	switch {
	case distance < tieredNear:
		return Estimate{Volatility: TieredNearVolatility, Price: true}
	case distance < tieredMid:
		return Estimate{Volatility: TieredMidVolatility, Price: true}
	default:
		return Estimate{Volatility: TieredDefaultVolatility}
	}
}

// ConstantVolatility prices every contract at the same volatility.
type ConstantVolatility struct {
	Sigma float64
}

func (ConstantVolatility) Name() string { return "constant" }

func (p ConstantVolatility) Estimate(c Contract, spot, years float64) Estimate {
	return Estimate{Volatility: p.Sigma, Price: spot > 0}
}

// ParseVolatilityPolicy maps a configured policy name to a policy.
func ParseVolatilityPolicy(name string, sigma float64) (VolatilityPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "tiered":
		return TieredVolatility{}, nil
	case "constant":
		if sigma <= 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
			return nil, fmt.Errorf("constant volatility must be positive, got %v", sigma)
		}
		return ConstantVolatility{Sigma: sigma}, nil
	default:
		return nil, fmt.Errorf("unknown volatility policy %q", name)
	}
}
