package features

import (
	"math"
	"sort"
	"time"

	"MacroPulse/internal/domain/models"
)

// DaysPerYear annualizes daily statistics; upstream crypto prices trade every calendar day.
const DaysPerYear = 365.0

func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func daysBefore(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, -days)
}

// LastValue returns the value of the latest observation.
func LastValue(s models.Series) (float64, bool) {
	o, ok := s.Latest()
	if !ok {
		return 0, false
	}
	return finite(o.Value)
}

// ValueOnOrBefore returns the value of the latest observation dated at or before t.
// It never looks ahead of t.
func ValueOnOrBefore(s models.Series, t time.Time) (float64, bool) {
	i := sort.Search(len(s), func(i int) bool { return s[i].Date.After(t) })
	if i == 0 {
		return 0, false
	}
	return finite(s[i-1].Value)
}

// ValueAt resolves "daysAgo calendar days before the latest observation".
func ValueAt(s models.Series, daysAgo int) (float64, bool) {
	o, ok := s.Latest()
	if !ok {
		return 0, false
	}
	return ValueOnOrBefore(s, daysBefore(o.Date, daysAgo))
}

// Delta is LastValue minus ValueAt(days).
func Delta(s models.Series, days int) (float64, bool) {
	last, ok := LastValue(s)
	if !ok {
		return 0, false
	}
	base, ok := ValueAt(s, days)
	if !ok {
		return 0, false
	}
	return finite(last - base)
}

// PctChange is Delta expressed as a percentage of |ValueAt(days)|.
func PctChange(s models.Series, days int) (float64, bool) {
	last, ok := LastValue(s)
	if !ok {
		return 0, false
	}
	base, ok := ValueAt(s, days)
	if !ok || base == 0 {
		return 0, false
	}
	return finite((last - base) / math.Abs(base) * 100)
}

// YoYChange is PctChange over one year.
func YoYChange(s models.Series) (float64, bool) {
	return PctChange(s, models.Lookback1Y)
}

// YoYSeries maps each observation to its percent change against the value a year earlier.
// Observations without a year of history, or with a zero base, are dropped.
func YoYSeries(s models.Series) models.Series {
	out := make(models.Series, 0, len(s))
	for _, o := range s {
		base, ok := ValueOnOrBefore(s, daysBefore(o.Date, models.Lookback1Y))
		if !ok || base == 0 {
			continue
		}
		v, ok := finite((o.Value - base) / math.Abs(base) * 100)
		if !ok {
			continue
		}
		out = append(out, models.Observation{Date: o.Date, Value: v, DateString: o.DateString})
	}
	return out
}

// ComputeLogReturns computes log returns r_t = ln(P_t / P_{t-1}).
// It returns nil if there are fewer than two points or any price is non-positive.
func ComputeLogReturns(s models.Series) []float64 {
	if len(s) < 2 {
		return nil
	}
	out := make([]float64, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		prev := s[i-1].Value
		cur := s[i].Value
		if prev <= 0 || cur <= 0 {
			return nil
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility computes annualized volatility of the last window log returns
// using sample variance and the provided number of periods per year.
func RealizedVolatility(logReturns []float64, window int, periodsPerYear float64) (float64, bool) {
	if window <= 1 || len(logReturns) < window {
		return 0, false
	}
	sum := 0.0
	sum2 := 0.0
	for i := len(logReturns) - window; i < len(logReturns); i++ {
		r := logReturns[i]
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return finite(math.Sqrt(variance * periodsPerYear))
}

// RealizedVol is the annualized volatility, in percent, of daily log returns
// over the trailing window+1 observations.
func RealizedVol(s models.Series, window int) (float64, bool) {
	if window <= 1 || len(s) < window+1 {
		return 0, false
	}
	rets := ComputeLogReturns(s[len(s)-window-1:])
	if rets == nil {
		return 0, false
	}
	v, ok := RealizedVolatility(rets, window, DaysPerYear)
	if !ok {
		return 0, false
	}
	return v * 100, true
}
