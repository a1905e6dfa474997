package chain

import (
	"encoding/json"
	"fmt"
)

// RatioStatus separates "no data at all" from "denominator was zero".
type RatioStatus int

const (
	RatioNoData RatioStatus = iota
	RatioUnavailable
	RatioValid
)

func (s RatioStatus) String() string {
	switch s {
	case RatioValid:
		return "valid"
	case RatioUnavailable:
		return "unavailable"
	default:
		return "no_data"
	}
}

// Ratio is a put/call ratio that is only meaningful when Status is RatioValid.
type Ratio struct {
	Value  float64
	Status RatioStatus
}

// NewRatio divides puts by calls. With no contracts the ratio has no data;
// with zero calls it is unavailable.
func NewRatio(puts, calls int64, hasData bool) Ratio {
	if !hasData {
		return Ratio{Status: RatioNoData}
	}
	if calls == 0 {
		return Ratio{Status: RatioUnavailable}
	}
	return Ratio{Value: float64(puts) / float64(calls), Status: RatioValid}
}

func (r Ratio) Valid() bool {
	return r.Status == RatioValid
}

// Float returns the value and whether it is valid.
func (r Ratio) Float() (float64, bool) {
	return r.Value, r.Valid()
}

func (r Ratio) String() string {
	if !r.Valid() {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", r.Value)
}

type ratioJSON struct {
	Value  *float64 `json:"value"`
	Status string   `json:"status"`
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	out := ratioJSON{Status: r.Status.String()}
	if r.Valid() {
		out.Value = &r.Value
	}
	return json.Marshal(out)
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	var in ratioJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	switch in.Status {
	case "valid":
		if in.Value == nil {
			return fmt.Errorf("valid ratio without value")
		}
		*r = Ratio{Value: *in.Value, Status: RatioValid}
	case "unavailable":
		*r = Ratio{Status: RatioUnavailable}
	default:
		*r = Ratio{Status: RatioNoData}
	}
	return nil
}

// Sentiment is a coarse market read from put/call ratios.
type Sentiment string

const (
	SentimentBearish Sentiment = "bearish"
	SentimentBullish Sentiment = "bullish"
	SentimentNeutral Sentiment = "neutral"
	SentimentNoData  Sentiment = "no_data"
)

const (
	bearishAbove = 1.2
	bullishBelow = 0.8
)

// AverageRatio is the mean of the valid ratios among the given ones.
// It has no data when none are valid.
func AverageRatio(ratios ...Ratio) Ratio {
	var sum float64
	var n int
	for _, r := range ratios {
		if r.Valid() {
			sum += r.Value
			n++
		}
	}
	if n == 0 {
		return Ratio{Status: RatioNoData}
	}
	return Ratio{Value: sum / float64(n), Status: RatioValid}
}

// ClassifySentiment labels the average of the valid volume and OI ratios.
func ClassifySentiment(volume, oi Ratio) Sentiment {
	avg := AverageRatio(volume, oi)
	switch {
	case !avg.Valid():
		return SentimentNoData
	case avg.Value > bearishAbove:
		return SentimentBearish
	case avg.Value < bullishBelow:
		return SentimentBullish
	default:
		return SentimentNeutral
	}
}
