package settlement

import (
	"math"
	"time"
)

const (
	millisPerHour = 3_600_000
	stockEpsilon  = 1e-9
)

// ElapsedHours converts the time since the baseline into fractional hours.
// A baseline in the future counts as no time elapsed.
func ElapsedHours(since, now time.Time) float64 {
	ms := now.Sub(since).Milliseconds()
	if ms <= 0 {
		return 0
	}
	return float64(ms) / millisPerHour
}

// Accrue derives live stock from the stored baseline. It never touches the
// baseline timestamp, so calling it any number of times is safe.
func Accrue(s Snapshot, now time.Time) ResourceState {
	hours := ElapsedHours(s.Resources.Timestamp, now)
	out := s.Resources
	out.Lumber.Stock = grow(s.Resources.Lumber, s.Resources.Lumber.Rate, hours)
	out.Iron.Stock = grow(s.Resources.Iron, s.Resources.Iron.Rate, hours)
	out.Clay.Stock = grow(s.Resources.Clay, s.Resources.Clay.Rate, hours)
	out.Wheat.Stock = grow(s.Resources.Wheat, EffectiveWheatRate(s), hours)
	return out
}

// EffectiveWheatRate is the wheat rate after population upkeep; it may be negative.
func EffectiveWheatRate(s Snapshot) float64 {
	return s.Resources.Wheat.Rate - float64(s.Population)
}

// Rebase returns the accrued state with its timestamp moved to now. Only
// write paths that change stock call it.
func Rebase(s Snapshot, now time.Time) ResourceState {
	out := Accrue(s, now)
	out.Timestamp = now
	return out
}

func grow(r Resource, rate, hours float64) float64 {
	return clamp(r.Stock+hours*rate, r.Max)
}

func clamp(v, max float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > max {
		return math.Max(max, 0)
	}
	return v
}

// AddStock applies a signed delta to every stock and clamps to [0, max].
// ok is false when a delta would take a stock below zero.
func AddStock(r ResourceState, delta Amounts) (ResourceState, bool) {
	out := r
	for _, kind := range ResourceKinds {
		p := out.ptr(kind)
		next := p.Stock + delta.Get(kind)
		if next < -stockEpsilon {
			return r, false
		}
		p.Stock = clamp(next, p.Max)
	}
	return out, true
}
