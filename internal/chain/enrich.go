package chain

import (
	"runtime"
	"sync"
	"time"

	"github.com/dgnsrekt/optchain-analytics/internal/liquidity"
	"github.com/dgnsrekt/optchain-analytics/internal/moneyness"
	"github.com/dgnsrekt/optchain-analytics/internal/pricing"
)

// DefaultRiskFreeRate is the annualized rate used when none is configured.
const DefaultRiskFreeRate = 0.05

type Options struct {
	RiskFreeRate    float64
	Policy          VolatilityPolicy
	ATMTolerancePct float64
	Workers         int
}

// Enricher derives quotes, moneyness, and model values for raw contracts.
// It holds no per-call state and is safe for concurrent use.
type Enricher struct {
	rate    float64
	policy  VolatilityPolicy
	tolPct  float64
	workers int
}

func NewEnricher(opts Options) *Enricher {
	e := &Enricher{
		rate:    opts.RiskFreeRate,
		policy:  opts.Policy,
		tolPct:  opts.ATMTolerancePct,
		workers: opts.Workers,
	}
	if e.policy == nil {
		e.policy = TieredVolatility{}
	}
	if e.tolPct <= 0 {
		e.tolPct = moneyness.DefaultATMTolerancePct
	}
	if e.workers <= 0 {
		e.workers = runtime.NumCPU()
	}
	return e
}

func (e *Enricher) Policy() VolatilityPolicy { return e.policy }

type enrichJob struct {
	index    int
	contract Contract
}

type enrichResult struct {
	index    int
	enriched EnrichedContract
}

// Enrich returns one EnrichedContract per input, in input order. The inputs
// are not modified.
func (e *Enricher) Enrich(contracts []Contract, underlying float64, asOf time.Time) []EnrichedContract {
	out := make([]EnrichedContract, len(contracts))
	if len(contracts) == 0 {
		return out
	}

	workers := min(e.workers, len(contracts))
	jobs := make(chan enrichJob, len(contracts))
	results := make(chan enrichResult, len(contracts))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- enrichResult{index: job.index, enriched: e.EnrichOne(job.contract, underlying, asOf)}
			}
		}()
	}

	for i, c := range contracts {
		jobs <- enrichJob{index: i, contract: c}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		out[r.index] = r.enriched
	}
	return out
}

// EnrichOne enriches a single contract. A contract that cannot be priced
// keeps nil model values.
func (e *Enricher) EnrichOne(c Contract, underlying float64, asOf time.Time) EnrichedContract {
	ec := EnrichedContract{
		Contract:   c,
		Result:     moneyness.Classify(underlying, c.Strike, c.Type, e.tolPct),
		DataSource: c.Source,
	}

	if c.LastPrice != nil {
		if bid, ask := liquidity.EstimateBidAsk(*c.LastPrice, c.Volume); bid > 0 || ask > 0 {
			ec.Bid = ptr(bid)
			ec.Ask = ptr(ask)
		}
	}

	years := pricing.YearsToExpiration(asOf, c.Expiration)
	est := e.policy.Estimate(c, underlying, years)
	ec.ImpliedVolatility = ptr(est.Volatility)
	if !est.Price {
		return ec
	}

	res, err := pricing.Evaluate(pricing.Inputs{
		Spot:       underlying,
		Strike:     c.Strike,
		Years:      years,
		Rate:       e.rate,
		Volatility: est.Volatility,
	}, c.Type)
	if err != nil {
		return ec
	}
	ec.TheoreticalPrice = ptr(res.Price)
	ec.Greeks = ptr(res.Greeks)
	return ec
}
