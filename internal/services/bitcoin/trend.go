// Package bitcoin grades the Bitcoin price trend and derives MSTR position guidance.
package bitcoin

import (
	"fmt"
	"math"

	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/services/features"
)

// SeriesPrice is the Coinbase BTC-USD close published on FRED.
const SeriesPrice = "CBBTCUSD"

// Thresholds for the trend downgrades.
type Thresholds struct {
	// HighVolPct is annualized 30-day realized volatility, in percent.
	HighVolPct float64
	// WeakMomentumPct is the 90-day momentum below which the trend is downgraded.
	WeakMomentumPct float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{HighVolPct: 75, WeakMomentumPct: -10}
}

const (
	volWindow      = 30
	drawdownWindow = models.Lookback1Y
	momentumWindow = 90

	strongDistance = 5.0
	neutralBand    = 3.0
	brokenDistance = -5.0
)

// CalculateMetrics derives moving averages and risk metrics from daily closes.
func CalculateMetrics(s models.Series) models.BitcoinMetrics {
	m := models.BitcoinMetrics{
		Price:         models.FloatOK(features.LastValue(s)),
		MA20:          models.FloatOK(features.MovingAverage(s, 20)),
		MA50:          models.FloatOK(features.MovingAverage(s, 50)),
		MA200:         models.FloatOK(features.MovingAverage(s, 200)),
		RealizedVol30: models.FloatOK(features.RealizedVol(s, volWindow)),
		Drawdown365:   models.FloatOK(features.DrawdownFromHigh(s, drawdownWindow)),
		Momentum90:    models.FloatOK(features.Momentum(s, momentumWindow)),
	}
	if m.Price != nil && m.MA200 != nil && *m.MA200 != 0 {
		m.DistanceFrom200 = models.Float((*m.Price - *m.MA200) / *m.MA200 * 100)
	}
	if m.MA50 != nil && m.MA200 != nil {
		m.GoldenCross = *m.MA50 > *m.MA200
		m.DeathCross = *m.MA50 < *m.MA200
	}
	return m
}

// ClassifyTrend picks a level from the distance to the 200-day average, then
// applies the volatility and momentum downgrades in that order. Each downgrade
// compounds on the previous result.
func ClassifyTrend(m models.BitcoinMetrics, th Thresholds) (models.AlertLevel, []string) {
	var (
		level   models.AlertLevel
		reasons []string
	)

	if d := m.DistanceFrom200; d == nil {
		level = models.LevelYellow
		reasons = append(reasons, "Insufficient history for a 200-day average")
	} else {
		switch {
		case *d > 0 && (m.GoldenCross || *d > strongDistance):
			level = models.LevelGreen
			reasons = append(reasons, fmt.Sprintf("Price %.1f%% above 200-day average", *d))
			if m.GoldenCross {
				reasons = append(reasons, "50-day average above 200-day average (golden cross)")
			}
		case math.Abs(*d) <= neutralBand:
			level = models.LevelYellow
			reasons = append(reasons, fmt.Sprintf("Price within %.0f%% of 200-day average (%+.1f%%)", neutralBand, *d))
		case *d < brokenDistance:
			level = models.LevelRed
			reasons = append(reasons, fmt.Sprintf("Price %.1f%% below 200-day average", -*d))
			if m.DeathCross {
				reasons = append(reasons, "50-day average below 200-day average (death cross)")
			}
		default:
			level = models.LevelYellow
			reasons = append(reasons, fmt.Sprintf("Trend unresolved at %+.1f%% from 200-day average", *d))
		}
	}

	if v := m.RealizedVol30; v != nil && *v > th.HighVolPct {
		level = models.Downgrade(level)
		reasons = append(reasons, fmt.Sprintf("Realized volatility high: %.0f%% annualized", *v))
	}
	if v := m.Momentum90; v != nil && *v < th.WeakMomentumPct {
		level = models.Downgrade(level)
		reasons = append(reasons, fmt.Sprintf("Momentum weak: %+.1f%% over 90 days", *v))
	}
	return level, reasons
}

// AnalyzeTrend returns nil when there are no prices at all.
func AnalyzeTrend(s models.Series, th Thresholds) *models.BitcoinAnalysis {
	if s.Empty() {
		return nil
	}
	m := CalculateMetrics(s)
	level, reasons := ClassifyTrend(m, th)
	return &models.BitcoinAnalysis{TrendLevel: level, Reasons: reasons, Metrics: m}
}
