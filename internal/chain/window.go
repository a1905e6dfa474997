package chain

import (
	"math"
	"sort"
)

// SparseThreshold is the distance, as a fraction of the stock price, beyond
// which the nearest strike is too far away to center a window on.
const SparseThreshold = 0.20

// Window is the subset of strikes shown around the ATM strike.
type Window struct {
	Strikes        []float64 `json:"strikes"`
	ATMStrike      *float64  `json:"atm_strike"`
	ATMDistancePct *float64  `json:"atm_distance_pct"`
	Sparse         bool      `json:"sparse"`
}

// ATMStrike returns the strike nearest to stock. On an exact tie the smaller
// strike wins. The second value is false when strikes is empty.
func ATMStrike(strikes []float64, stock float64) (float64, bool) {
	sorted := uniqueSorted(strikes)
	if len(sorted) == 0 {
		return 0, false
	}
	return sorted[atmIndex(sorted, stock)], true
}

// SelectDisplayWindow returns halfWidth strikes on either side of the ATM
// strike, clipped to the available range. When the nearest strike is more
// than SparseThreshold away from stock, or stock is not positive, every
// strike is returned and the window is marked Sparse.
func SelectDisplayWindow(strikes []float64, stock float64, halfWidth int) Window {
	sorted := uniqueSorted(strikes)
	if len(sorted) == 0 {
		return Window{Strikes: []float64{}}
	}
	if stock <= 0 {
		return Window{Strikes: sorted, Sparse: true}
	}

	idx := atmIndex(sorted, stock)
	atm := sorted[idx]
	distance := math.Abs(atm-stock) / stock
	w := Window{
		ATMStrike:      ptr(atm),
		ATMDistancePct: ptr(distance * 100),
	}
	if distance > SparseThreshold {
		w.Strikes = sorted
		w.Sparse = true
		return w
	}

	if halfWidth < 0 {
		halfWidth = 0
	}
	lo := max(idx-halfWidth, 0)
	hi := min(idx+halfWidth, len(sorted)-1)
	w.Strikes = append([]float64(nil), sorted[lo:hi+1]...)
	return w
}

// atmIndex scans ascending strikes and keeps the first minimum, so ties go
// to the smaller strike.
func atmIndex(sorted []float64, stock float64) int {
	best := 0
	bestDist := math.Abs(sorted[0] - stock)
	for i := 1; i < len(sorted); i++ {
		if d := math.Abs(sorted[i] - stock); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func uniqueSorted(values []float64) []float64 {
	out := append([]float64(nil), values...)
	sort.Float64s(out)
	n := 0
	for i, v := range out {
		if i > 0 && v == out[n-1] {
			continue
		}
		out[n] = v
		n++
	}
	return out[:n]
}
