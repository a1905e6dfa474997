package data

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dgnsrekt/optchain-analytics/internal/pricing"
)

// Symbol is a decoded OCC option symbol such as O:AAPL240119C00175000.
type Symbol struct {
	Underlying string
	Expiration time.Time
	Type       pricing.OptionType
	Strike     float64
}

const (
	symbolPrefix = "O:"
	symbolDate   = "060102"
	strikeDigits = 8
	strikeScale  = 1000
)

// ParseOptionSymbol decodes an OCC symbol. The "O:" prefix is optional.
func ParseOptionSymbol(s string) (Symbol, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), symbolPrefix)
	// root + YYMMDD + C/P + 8 strike digits
	tail := len(symbolDate) + 1 + strikeDigits
	if len(raw) <= tail {
		return Symbol{}, fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}

	root := raw[:len(raw)-tail]
	rest := raw[len(raw)-tail:]

	exp, err := time.Parse(symbolDate, rest[:len(symbolDate)])
	if err != nil {
		return Symbol{}, fmt.Errorf("%w: bad expiration in %q", ErrInvalidSymbol, s)
	}

	var typ pricing.OptionType
	switch rest[len(symbolDate)] {
	case 'C':
		typ = pricing.Call
	case 'P':
		typ = pricing.Put
	default:
		return Symbol{}, fmt.Errorf("%w: bad type in %q", ErrInvalidSymbol, s)
	}

	digits := rest[len(symbolDate)+1:]
	milli, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || milli <= 0 {
		return Symbol{}, fmt.Errorf("%w: bad strike in %q", ErrInvalidSymbol, s)
	}

	return Symbol{
		Underlying: root,
		Expiration: exp,
		Type:       typ,
		Strike:     float64(milli) / strikeScale,
	}, nil
}

// FormatOptionSymbol encodes a contract as an OCC symbol with the "O:" prefix.
func FormatOptionSymbol(underlying string, expiration time.Time, t pricing.OptionType, strike float64) string {
	flag := "C"
	if t == pricing.Put {
		flag = "P"
	}
	milli := int64(math.Round(strike * strikeScale))
	return fmt.Sprintf("%s%s%s%s%0*d", symbolPrefix, NormalizeTicker(underlying),
		expiration.Format(symbolDate), flag, strikeDigits, milli)
}
