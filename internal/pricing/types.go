package pricing

import (
	"fmt"
	"strings"
)

// OptionType is the contract side, call or put.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType accepts "call"/"put" and the single-letter C/P forms.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOptionType, s)
}

func (t OptionType) Valid() bool {
	return t == Call || t == Put
}

func (t OptionType) String() string {
	return string(t)
}

// Inputs are the Black-Scholes parameters for one European option.
// Years is time to expiration in years, Rate and Volatility are annualized decimals.
type Inputs struct {
	Spot       float64 `json:"spot"`
	Strike     float64 `json:"strike"`
	Years      float64 `json:"years"`
	Rate       float64 `json:"rate"`
	Volatility float64 `json:"volatility"`
}

// Greeks are option price sensitivities. Theta is per calendar day,
// vega per volatility point and rho per rate point.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// Result is a theoretical price together with its Greeks.
type Result struct {
	Price  float64 `json:"price"`
	Greeks Greeks  `json:"greeks"`
}
