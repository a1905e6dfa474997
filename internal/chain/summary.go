package chain

import (
	"github.com/montanaflynn/stats"

	"github.com/dgnsrekt/optchain-analytics/internal/pricing"
)

// Summary holds chain-level totals and sentiment. Totals cover every contract
// passed to Summarize, not only those inside Window.
type Summary struct {
	ATMStrike       *float64  `json:"atm_strike"`
	Window          Window    `json:"window"`
	TotalCallVolume int64     `json:"total_call_volume"`
	TotalPutVolume  int64     `json:"total_put_volume"`
	TotalCallOI     int64     `json:"total_call_oi"`
	TotalPutOI      int64     `json:"total_put_oi"`
	PCRatioVolume   Ratio     `json:"pc_ratio_volume"`
	PCRatioOI       Ratio     `json:"pc_ratio_oi"`
	AverageRatio    Ratio     `json:"average_ratio"`
	Sentiment       Sentiment `json:"sentiment"`
	AvgIVCalls      *float64  `json:"avg_iv_calls"`
	AvgIVPuts       *float64  `json:"avg_iv_puts"`
	NumContracts    int       `json:"num_contracts"`
	NumCalls        int       `json:"num_calls"`
	NumPuts         int       `json:"num_puts"`
}

// Summarize aggregates an enriched chain around stock.
func Summarize(contracts []EnrichedContract, stock float64, halfWidth int) Summary {
	s := Summary{NumContracts: len(contracts)}

	var callIV, putIV []float64
	for _, c := range contracts {
		switch c.Type {
		case pricing.Call:
			s.NumCalls++
			s.TotalCallVolume += c.Volume
			s.TotalCallOI += c.OpenInterest
			if c.ImpliedVolatility != nil {
				callIV = append(callIV, *c.ImpliedVolatility)
			}
		case pricing.Put:
			s.NumPuts++
			s.TotalPutVolume += c.Volume
			s.TotalPutOI += c.OpenInterest
			if c.ImpliedVolatility != nil {
				putIV = append(putIV, *c.ImpliedVolatility)
			}
		}
	}

	hasData := len(contracts) > 0
	s.PCRatioVolume = NewRatio(s.TotalPutVolume, s.TotalCallVolume, hasData)
	s.PCRatioOI = NewRatio(s.TotalPutOI, s.TotalCallOI, hasData)
	s.AverageRatio = AverageRatio(s.PCRatioVolume, s.PCRatioOI)
	s.Sentiment = ClassifySentiment(s.PCRatioVolume, s.PCRatioOI)

	s.AvgIVCalls = mean(callIV)
	s.AvgIVPuts = mean(putIV)

	s.Window = SelectDisplayWindow(Strikes(contracts), stock, halfWidth)
	s.ATMStrike = s.Window.ATMStrike
	return s
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m, err := stats.Mean(values)
	if err != nil {
		return nil
	}
	return &m
}
