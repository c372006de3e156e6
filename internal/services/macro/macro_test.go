package macro

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/domain/models"
)

func f(v float64) *float64 { return models.Float(v) }

func TestClassifyRegime(t *testing.T) {
	tests := []struct {
		name       string
		c          models.Composites
		curve, vix *float64
		want       models.Regime
		confidence int
		reasons    int
	}{
		{
			name:       "risk-off wins over risk-on conditions",
			c:          models.Composites{CreditStress: 1.5, LiquidityImpulse: -1.5, Growth: 0.5},
			curve:      f(-0.2),
			want:       models.RegimeRiskOff,
			confidence: 67,
			reasons:    2,
		},
		{
			name:       "risk-off all three",
			c:          models.Composites{CreditStress: 1.2, LiquidityImpulse: -2},
			curve:      f(-0.1),
			vix:        f(32),
			want:       models.RegimeRiskOff,
			confidence: 100,
			reasons:    3,
		},
		{
			name:       "liquidity drain without inverted curve does not count",
			c:          models.Composites{CreditStress: 1.2, LiquidityImpulse: -2},
			curve:      f(0.4),
			want:       models.RegimeMixed,
			confidence: 33,
			reasons:    1,
		},
		{
			name:       "inflationary with growth",
			c:          models.Composites{Inflation: 0.9, Growth: 0.1},
			want:       models.RegimeInflationary,
			confidence: 100,
			reasons:    2,
		},
		{
			name:       "inflationary without growth",
			c:          models.Composites{Inflation: 1.1, Growth: -0.3, CreditStress: 0.5},
			want:       models.RegimeInflationary,
			confidence: 67,
			reasons:    1,
		},
		{
			name:       "deflationary",
			c:          models.Composites{Inflation: -1, Growth: -0.8},
			want:       models.RegimeDeflationary,
			confidence: 67,
			reasons:    2,
		},
		{
			name:       "risk-on",
			c:          models.Composites{CreditStress: -0.2, LiquidityImpulse: 0.3, Growth: -0.1},
			want:       models.RegimeRiskOn,
			confidence: 67,
			reasons:    2,
		},
		{
			name:       "mixed",
			c:          models.Composites{CreditStress: 0.4, LiquidityImpulse: -0.2, Growth: 0.2},
			want:       models.RegimeMixed,
			confidence: 33,
			reasons:    1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := ClassifyRegime(tt.c, tt.curve, tt.vix)
			assert.Equal(t, tt.want, rc.Regime)
			assert.Equal(t, tt.confidence, rc.Confidence)
			assert.Len(t, rc.Reasons, tt.reasons)
		})
	}
}

func TestClassifyRegimeReasonOrder(t *testing.T) {
	rc := ClassifyRegime(models.Composites{CreditStress: 1.5, LiquidityImpulse: -1.5}, f(-0.2), f(30))
	require.Len(t, rc.Reasons, 3)
	assert.Contains(t, rc.Reasons[0], "Credit stress")
	assert.Contains(t, rc.Reasons[1], "Liquidity")
	assert.Contains(t, rc.Reasons[2], "VIX")

	mixed := ClassifyRegime(models.Composites{CreditStress: 0.5, LiquidityImpulse: -0.5, Growth: -0.5}, nil, nil)
	assert.Equal(t, []string{"Insufficient signals to classify regime"}, mixed.Reasons)
}

func TestAdjustConfidenceForBreadth(t *testing.T) {
	base := models.RegimeClassification{Regime: models.RegimeRiskOn, Confidence: 95, Reasons: []string{"x"}}

	up := AdjustConfidenceForBreadth(base, models.BreadthConfirms)
	assert.Equal(t, 100, up.Confidence)
	assert.Len(t, up.Reasons, 2)
	assert.Len(t, base.Reasons, 1, "input untouched")

	down := AdjustConfidenceForBreadth(base, models.BreadthDiverges)
	assert.Equal(t, 85, down.Confidence)

	same := AdjustConfidenceForBreadth(base, models.BreadthNeutral)
	assert.Equal(t, 95, same.Confidence)
	assert.Equal(t, base.Reasons, same.Reasons)
}

func greenCredit() models.CreditSnapshot {
	return models.CreditSnapshot{
		HYOAS:       f(4.0),
		StressIndex: f(0.5),
		Curve10y2y:  f(0.3),
		FedFunds:    f(4.0),
	}
}

func TestEvaluateAlertsGreenScenario(t *testing.T) {
	c := models.Composites{Inflation: 0.2, LiquidityImpulse: 0.3}
	info := EvaluateAlerts(c, greenCredit(), DefaultAlertThresholds())

	assert.Equal(t, models.LevelGreen, info.Level)
	require.NotEmpty(t, info.Reasons)
	assert.Equal(t, "No major macro warnings detected", info.Reasons[0])
	assert.Contains(t, info.Reasons, "Credit spreads healthy: HY OAS 4.00%")
	assert.Contains(t, info.Reasons, "Liquidity supportive (0.30)")
}

func TestEvaluateAlertsCreditDeterioration(t *testing.T) {
	c := models.Composites{Inflation: 0.2, LiquidityImpulse: 0.3}
	credit := greenCredit()
	credit.HYOASChange8w = f(1.2)

	info := EvaluateAlerts(c, credit, DefaultAlertThresholds())
	assert.Equal(t, models.LevelRed, info.Level)
	require.Len(t, info.Reasons, 1)
	assert.Contains(t, info.Reasons[0], "Credit deterioration")
	assert.Contains(t, info.Reasons[0], "1.20")
}

func TestEvaluateAlertsRedSkipsYellowTier(t *testing.T) {
	credit := models.CreditSnapshot{HYOAS: f(7.0), FedFunds: f(5.5)}
	info := EvaluateAlerts(models.Composites{}, credit, DefaultAlertThresholds())

	assert.Equal(t, models.LevelRed, info.Level)
	require.Len(t, info.Reasons, 1)
	assert.Contains(t, info.Reasons[0], "HY OAS 7.00%")
	for _, r := range info.Reasons {
		assert.NotContains(t, r, "Fed funds")
	}
}

func TestEvaluateAlertsYellowCollectsEveryTrigger(t *testing.T) {
	credit := models.CreditSnapshot{
		HYOAS:       f(5.2),
		StressIndex: f(1.2),
		Curve10y2y:  f(-0.6),
		FedFunds:    f(5.25),
	}
	c := models.Composites{Inflation: 1.1, LiquidityImpulse: -0.8}
	info := EvaluateAlerts(c, credit, DefaultAlertThresholds())

	assert.Equal(t, models.LevelYellow, info.Level)
	require.Len(t, info.Reasons, 6)
	assert.Contains(t, info.Reasons[0], "High yield")
	assert.Contains(t, info.Reasons[1], "stress")
	assert.Contains(t, info.Reasons[2], "curve")
	assert.Contains(t, info.Reasons[3], "Inflation")
	assert.Contains(t, info.Reasons[4], "Liquidity")
	assert.Contains(t, info.Reasons[5], "Fed funds")
}

func TestEvaluateAlertsMissingMetricsSkipChecks(t *testing.T) {
	info := EvaluateAlerts(models.Composites{}, models.CreditSnapshot{}, DefaultAlertThresholds())
	assert.Equal(t, models.LevelGreen, info.Level)
	assert.Equal(t, []string{"No major macro warnings detected"}, info.Reasons)
}

func TestGeneratePortfolioTilts(t *testing.T) {
	th := DefaultAlertThresholds()

	t.Run("red uses healthy current values as targets", func(t *testing.T) {
		tilt := GeneratePortfolioTilts(models.LevelRed, models.Composites{LiquidityImpulse: -0.2}, models.CreditSnapshot{HYOAS: f(4.2)}, th)
		assert.Equal(t, "Hold defensive posture until HY OAS < 4.20% and liquidity composite > -0.20", tilt.RebalanceHint)
	})
	t.Run("red falls back to thresholds", func(t *testing.T) {
		tilt := GeneratePortfolioTilts(models.LevelRed, models.Composites{LiquidityImpulse: -1.6}, models.CreditSnapshot{HYOAS: f(7)}, th)
		assert.Equal(t, "Hold defensive posture until HY OAS < 5.00% and liquidity composite > -0.75", tilt.RebalanceHint)
		assert.Contains(t, tilt.Reduce, "Crypto")
	})
	t.Run("green and yellow are fixed", func(t *testing.T) {
		g := GeneratePortfolioTilts(models.LevelGreen, models.Composites{}, models.CreditSnapshot{}, th)
		y := GeneratePortfolioTilts(models.LevelYellow, models.Composites{}, models.CreditSnapshot{}, th)
		assert.NotEqual(t, g.Add, y.Add)
		assert.Equal(t, models.LevelYellow, y.Level)
		assert.NotEmpty(t, g.RebalanceHint)
	})
}

func weekly(start time.Time, n int, fn func(i int) float64) models.Series {
	s := make(models.Series, n)
	for i := 0; i < n; i++ {
		s[i] = models.ObservationAt(start.AddDate(0, 0, 7*i), fn(i))
	}
	return s
}

func TestCompositesAreDeterministic(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	wave := func(i int) float64 { return 100 + 10*math.Sin(float64(i)/5) + float64(i)/10 }
	in := Inputs{
		Growth:    GrowthInputs{IndustrialProduction: weekly(start, 180, wave), InitialClaims: weekly(start, 180, wave)},
		Inflation: InflationInputs{CPI: weekly(start, 180, wave), Breakeven5Y: weekly(start, 180, wave)},
		Credit:    CreditInputs{HYOAS: weekly(start, 180, wave), StressIndex: weekly(start, 180, wave)},
		Liquidity: LiquidityInputs{FedBalanceSheet: weekly(start, 180, wave), TGA: weekly(start, 180, wave)},
		USD:       USDInputs{BroadDollar: weekly(start, 180, wave)},
	}
	a := CalculateComposites(in, DefaultWindows())
	b := CalculateComposites(in, DefaultWindows())
	assert.Equal(t, a, b)
	assert.NotZero(t, a.CreditStress)
}

func TestCompositeSignsAndMissingData(t *testing.T) {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	rising := weekly(start, 120, func(i int) float64 { return float64(i) })

	assert.Equal(t, 0.0, CalculateGrowthComposite(GrowthInputs{}, DefaultWindows()), "no contributors is neutral")

	claimsOnly := CalculateGrowthComposite(GrowthInputs{InitialClaims: rising}, DefaultWindows())
	assert.Less(t, claimsOnly, 0.0, "rising claims drag growth")

	tgaOnly := CalculateLiquidityComposite(LiquidityInputs{TGA: weekly(start, 120, func(i int) float64 {
		return float64(i * i)
	})}, DefaultWindows())
	assert.Less(t, tgaOnly, 0.0, "accelerating TGA drains liquidity")

	assert.True(t, InputsFromSet(nil).Empty())
	assert.False(t, InputsFromSet(map[string]models.Series{SeriesHYOAS: rising}).Empty())
}
