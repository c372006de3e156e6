package features

import (
	"math"

	"MacroPulse/internal/domain/models"
)

// trailing returns observations dated within days of the latest observation.
func trailing(s models.Series, days int) models.Series {
	o, ok := s.Latest()
	if !ok {
		return nil
	}
	return s.Since(daysBefore(o.Date, days))
}

func meanOf(vals []float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return finite(sum / float64(len(vals)))
}

// popStdDev divides by N. Needs at least two values.
func popStdDev(vals []float64) (float64, bool) {
	if len(vals) < 2 {
		return 0, false
	}
	m, ok := meanOf(vals)
	if !ok {
		return 0, false
	}
	ss := 0.0
	for _, v := range vals {
		d := v - m
		ss += d * d
	}
	return finite(math.Sqrt(ss / float64(len(vals))))
}

// Mean is the arithmetic mean over the trailing calendar window.
func Mean(s models.Series, window int) (float64, bool) {
	return meanOf(trailing(s, window).Values())
}

// StdDev is the population standard deviation over the trailing calendar window.
func StdDev(s models.Series, window int) (float64, bool) {
	return popStdDev(trailing(s, window).Values())
}

// ZScore is (last - mean) / stddev over the trailing window. A flat window has no z-score.
func ZScore(s models.Series, window int) (float64, bool) {
	last, ok := LastValue(s)
	if !ok {
		return 0, false
	}
	m, ok := Mean(s, window)
	if !ok {
		return 0, false
	}
	sd, ok := StdDev(s, window)
	if !ok || sd == 0 {
		return 0, false
	}
	return finite((last - m) / sd)
}

// ZScoreOfChange z-scores the current changeWindow change against the
// distribution of the same change evaluated at every observation within
// distWindow of the latest date.
func ZScoreOfChange(s models.Series, changeWindow, distWindow int) (float64, bool) {
	current, ok := Delta(s, changeWindow)
	if !ok {
		return 0, false
	}
	latest, _ := s.Latest()
	cutoff := daysBefore(latest.Date, distWindow)

	changes := make([]float64, 0, len(s))
	for _, o := range s {
		if o.Date.Before(cutoff) {
			continue
		}
		base, ok := ValueOnOrBefore(s, daysBefore(o.Date, changeWindow))
		if !ok {
			continue
		}
		if c, ok := finite(o.Value - base); ok {
			changes = append(changes, c)
		}
	}
	m, ok := meanOf(changes)
	if !ok {
		return 0, false
	}
	sd, ok := popStdDev(changes)
	if !ok || sd == 0 {
		return 0, false
	}
	return finite((current - m) / sd)
}

// MovingAverage is the mean of the last n values.
func MovingAverage(s models.Series, n int) (float64, bool) {
	if n <= 0 || len(s) < n {
		return 0, false
	}
	return meanOf(s[len(s)-n:].Values())
}

// Slope is the least-squares slope of value against index over the trailing window.
func Slope(s models.Series, window int) (float64, bool) {
	vals := trailing(s, window).Values()
	n := float64(len(vals))
	if len(vals) < 2 {
		return 0, false
	}
	var sx, sy, sxy, sxx float64
	for i, v := range vals {
		x := float64(i)
		sx += x
		sy += v
		sxy += x * v
		sxx += x * x
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0, false
	}
	return finite((n*sxy - sx*sy) / den)
}

// Momentum is the percent change from the observation window positions back.
// Unlike PctChange it counts observations, not calendar days.
func Momentum(s models.Series, window int) (float64, bool) {
	if window <= 0 {
		return 0, false
	}
	idx := len(s) - 1 - window
	if idx < 0 {
		return 0, false
	}
	base := s[idx].Value
	if base == 0 {
		return 0, false
	}
	return finite((s[len(s)-1].Value - base) / math.Abs(base) * 100)
}

// DrawdownFromHigh is (latest - max) / max * 100 over the trailing window.
func DrawdownFromHigh(s models.Series, window int) (float64, bool) {
	w := trailing(s, window)
	if len(w) == 0 {
		return 0, false
	}
	high := w[0].Value
	for _, o := range w[1:] {
		if o.Value > high {
			high = o.Value
		}
	}
	if high == 0 {
		return 0, false
	}
	last := w[len(w)-1].Value
	return finite((last - high) / high * 100)
}
