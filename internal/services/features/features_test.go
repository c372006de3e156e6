package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/domain/models"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func daily(vals ...float64) models.Series {
	s := make(models.Series, len(vals))
	for i, v := range vals {
		s[i] = models.ObservationAt(day0.AddDate(0, 0, i), v)
	}
	return s
}

func at(offset int, v float64) models.Observation {
	return models.ObservationAt(day0.AddDate(0, 0, offset), v)
}

func oneToTen() models.Series {
	return daily(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
}

func TestEmptySeriesIsMissingEverywhere(t *testing.T) {
	var s models.Series
	checks := map[string]func() (float64, bool){
		"last":     func() (float64, bool) { return LastValue(s) },
		"valueAt":  func() (float64, bool) { return ValueAt(s, 1) },
		"delta":    func() (float64, bool) { return Delta(s, 1) },
		"pct":      func() (float64, bool) { return PctChange(s, 1) },
		"mean":     func() (float64, bool) { return Mean(s, 30) },
		"std":      func() (float64, bool) { return StdDev(s, 30) },
		"z":        func() (float64, bool) { return ZScore(s, 30) },
		"zchg":     func() (float64, bool) { return ZScoreOfChange(s, 1, 30) },
		"ma":       func() (float64, bool) { return MovingAverage(s, 1) },
		"slope":    func() (float64, bool) { return Slope(s, 30) },
		"momentum": func() (float64, bool) { return Momentum(s, 1) },
		"drawdown": func() (float64, bool) { return DrawdownFromHigh(s, 30) },
		"vol":      func() (float64, bool) { return RealizedVol(s, 5) },
	}
	for name, fn := range checks {
		t.Run(name, func(t *testing.T) {
			_, ok := fn()
			assert.False(t, ok)
		})
	}
}

func TestValueAtResolvesOnOrBefore(t *testing.T) {
	s := models.Series{at(0, 1), at(4, 5), at(9, 10)}

	v, ok := ValueAt(s, 3)
	require.True(t, ok)
	assert.Equal(t, 5.0, v, "gap resolves to the nearest earlier observation")

	v, ok = ValueAt(s, 0)
	require.True(t, ok)
	assert.Equal(t, 10.0, v)

	_, ok = ValueAt(s, 20)
	assert.False(t, ok, "no observation before the target date")
}

func TestDeltaEqualsLastMinusValueAt(t *testing.T) {
	s := models.Series{at(0, 3), at(2, 8), at(5, -1), at(6, 4), at(13, 2.5)}
	last, _ := LastValue(s)
	for _, d := range []int{0, 1, 5, 7, 8, 12, 13} {
		base, okBase := ValueAt(s, d)
		delta, okDelta := Delta(s, d)
		require.Equal(t, okBase, okDelta, "days=%d", d)
		if okDelta {
			assert.InDelta(t, last-base, delta, 1e-12, "days=%d", d)
		}
	}
}

func TestPctChange(t *testing.T) {
	v, ok := PctChange(oneToTen(), 4)
	require.True(t, ok)
	assert.InDelta(t, (10.0-6.0)/6.0*100, v, 1e-9)

	_, ok = PctChange(daily(0, 1, 2), 2)
	assert.False(t, ok, "zero base")

	v, ok = PctChange(daily(-4, -2), 1)
	require.True(t, ok)
	assert.InDelta(t, 50.0, v, 1e-9, "divides by the absolute base")
}

func TestMeanStdDevZScore(t *testing.T) {
	s := oneToTen()

	m, ok := Mean(s, 3)
	require.True(t, ok)
	assert.InDelta(t, 8.5, m, 1e-12)

	sd, ok := StdDev(s, 3)
	require.True(t, ok)
	assert.InDelta(t, math.Sqrt(1.25), sd, 1e-12, "population stddev")

	z, ok := ZScore(s, 3)
	require.True(t, ok)
	assert.InDelta(t, 1.5/math.Sqrt(1.25), z, 1e-12)

	_, ok = StdDev(s, 0)
	assert.False(t, ok, "single point window")
	m, ok = Mean(s, 0)
	require.True(t, ok)
	assert.Equal(t, 10.0, m)
}

func TestZScoreOfConstantSeriesIsMissing(t *testing.T) {
	_, ok := ZScore(daily(4, 4, 4, 4, 4, 4), 30)
	assert.False(t, ok)
}

func TestZScoreOfChange(t *testing.T) {
	s := daily(0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 19)
	z, ok := ZScoreOfChange(s, 1, 30)
	require.True(t, ok)
	assert.InDelta(t, 3.0, z, 1e-9)

	_, ok = ZScoreOfChange(oneToTen(), 1, 30)
	assert.False(t, ok, "identical changes have no dispersion")

	_, ok = ZScoreOfChange(daily(1, 2), 1, 30)
	assert.False(t, ok, "needs two historical changes")
}

func TestMovingAverage(t *testing.T) {
	s := oneToTen()
	for n := len(s) + 1; n < len(s)+4; n++ {
		_, ok := MovingAverage(s, n)
		assert.False(t, ok, "n=%d", n)
	}
	v, ok := MovingAverage(s, 4)
	require.True(t, ok)
	assert.InDelta(t, 8.5, v, 1e-12)
}

func TestSlope(t *testing.T) {
	v, ok := Slope(oneToTen(), 30)
	require.True(t, ok)
	assert.InDelta(t, 1.0, v, 1e-12)

	v, ok = Slope(daily(10, 8, 6), 30)
	require.True(t, ok)
	assert.InDelta(t, -2.0, v, 1e-12)
}

func TestMomentumIsPositional(t *testing.T) {
	s := models.Series{at(0, 1), at(4, 5), at(9, 10)}

	mom, ok := Momentum(s, 2)
	require.True(t, ok)
	assert.InDelta(t, 900.0, mom, 1e-9)

	pct, ok := PctChange(s, 2)
	require.True(t, ok)
	assert.InDelta(t, 100.0, pct, 1e-9)

	_, ok = Momentum(s, 3)
	assert.False(t, ok)
}

func TestDrawdownFromHigh(t *testing.T) {
	v, ok := DrawdownFromHigh(daily(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 5), 365)
	require.True(t, ok)
	assert.InDelta(t, -50.0, v, 1e-12)

	_, ok = DrawdownFromHigh(daily(0, 0), 365)
	assert.False(t, ok)
}

func TestRealizedVol(t *testing.T) {
	prices := make([]float64, 40)
	prices[0] = 100
	for i := 1; i < len(prices); i++ {
		prices[i] = prices[i-1] * 1.01
	}
	v, ok := RealizedVol(daily(prices...), 30)
	require.True(t, ok)
	assert.InDelta(t, 0.0, v, 1e-6, "constant returns have no volatility")

	_, ok = RealizedVol(daily(prices[:30]...), 30)
	assert.False(t, ok)

	_, ok = RealizedVol(daily(1, 2, 0, 3), 3)
	assert.False(t, ok, "non-positive price")

	v, ok = RealizedVol(daily(100, 110, 100), 2)
	require.True(t, ok)
	r1, r2 := math.Log(1.1), math.Log(100.0/110.0)
	mean := (r1 + r2) / 2
	sample := ((r1-mean)*(r1-mean) + (r2-mean)*(r2-mean)) / 1
	assert.InDelta(t, math.Sqrt(sample*365)*100, v, 1e-9)
}

func TestYoYSeries(t *testing.T) {
	s := models.Series{
		models.ObservationAt(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 100),
		models.ObservationAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 110),
	}
	yoy := YoYSeries(s)
	require.Len(t, yoy, 1)
	assert.InDelta(t, 10.0, yoy[0].Value, 1e-9)
	assert.Equal(t, "2024-01-01", yoy[0].DateString)

	v, ok := YoYChange(s)
	require.True(t, ok)
	assert.InDelta(t, 10.0, v, 1e-9)
}

func TestNonFiniteValuesAreMissing(t *testing.T) {
	_, ok := LastValue(daily(1, math.NaN()))
	assert.False(t, ok)
	_, ok = LastValue(daily(1, math.Inf(1)))
	assert.False(t, ok)
}
