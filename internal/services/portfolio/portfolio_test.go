package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/domain/models"
)

func engine(e models.EngineID) *models.EngineID { return &e }

func TestGetEngineForHolding(t *testing.T) {
	tests := []struct {
		name       string
		h          models.Holding
		engine     models.EngineID
		confidence models.ClassificationConfidence
		reason     string
	}{
		{
			name:       "override beats ticker table",
			h:          models.Holding{Ticker: "TLT", EngineOverride: engine(models.EngineCashTBills)},
			engine:     models.EngineCashTBills,
			confidence: models.ConfidenceHigh,
			reason:     "Manual classification",
		},
		{
			name:       "invalid override is ignored",
			h:          models.Holding{Ticker: "tlt", EngineOverride: engine("BOGUS")},
			engine:     models.EngineTreasuryDuration,
			confidence: models.ConfidenceHigh,
		},
		{
			name:       "ticker table",
			h:          models.Holding{Ticker: " ibit "},
			engine:     models.EngineCrypto,
			confidence: models.ConfidenceHigh,
		},
		{
			name:       "asset type default",
			h:          models.Holding{Ticker: "XYZ", AssetType: "money_market"},
			engine:     models.EngineCashTBills,
			confidence: models.ConfidenceMedium,
		},
		{
			name:       "sector keyword",
			h:          models.Holding{Ticker: "NEM", Profile: &models.CompanyProfile{Sector: "Basic Materials", Industry: "Gold"}},
			engine:     models.EngineGoldHardMoney,
			confidence: models.ConfidenceLow,
		},
		{
			name:       "fallback",
			h:          models.Holding{Ticker: "ZZZZ"},
			engine:     models.EngineUnclassified,
			confidence: models.ConfidenceLow,
			reason:     "No classification rule matched",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := GetEngineForHolding(tt.h)
			assert.Equal(t, tt.engine, c.Engine)
			assert.Equal(t, tt.confidence, c.Confidence)
			assert.NotEmpty(t, c.Reason)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, c.Reason)
			}
		})
	}
}

func TestComputeDeltaFromTargets(t *testing.T) {
	targets := map[models.EngineID]models.TargetBand{
		models.EngineGrowthDuration: {MinPct: 10, TargetPct: 20, MaxPct: 30},
		models.EngineCashTBills:     {MinPct: 5, TargetPct: 10, MaxPct: 20},
	}
	current := map[models.EngineID]float64{
		models.EngineGrowthDuration: 35,
		models.EngineCashTBills:     10,
		models.EngineCrypto:         4,
	}
	deltas := ComputeDeltaFromTargets(current, targets)
	require.Len(t, deltas, len(models.AllEngines))

	byEngine := map[models.EngineID]models.EngineDelta{}
	for _, d := range deltas {
		byEngine[d.Engine] = d
	}
	assert.Equal(t, models.StatusOver, byEngine[models.EngineGrowthDuration].Status)
	assert.InDelta(t, 15.0, byEngine[models.EngineGrowthDuration].Delta, 1e-9)
	assert.Equal(t, models.StatusInRange, byEngine[models.EngineCashTBills].Status)
	assert.Equal(t, models.StatusOver, byEngine[models.EngineCrypto].Status, "no band means zero band")
	assert.Equal(t, models.StatusInRange, byEngine[models.EngineGoldHardMoney].Status)
	assert.Equal(t, "Growth & Duration", byEngine[models.EngineGrowthDuration].Name)
}

func TestValidateWeights(t *testing.T) {
	ok := ValidateWeights([]models.Holding{{Ticker: "A", WeightPct: 60}, {Ticker: "B", WeightPct: 40.2}})
	assert.True(t, ok.Valid)
	assert.Empty(t, ok.Warnings)

	off := ValidateWeights([]models.Holding{{Ticker: "A", WeightPct: 60}, {Ticker: "A", WeightPct: 39}})
	assert.False(t, off.Valid)
	assert.InDelta(t, 99.0, off.TotalWeightPct, 1e-9)
	assert.Len(t, off.Warnings, 2)
}

func TestRecommendAction(t *testing.T) {
	targets := DefaultTargets()

	inBand := ComputeDeltaFromTargets(map[models.EngineID]float64{
		models.EngineGrowthDuration:   20,
		models.EngineValueCyclical:    10,
		models.EngineQualityDefensive: 10,
		models.EngineDividendIncome:   10,
		models.EngineTreasuryDuration: 15,
		models.EngineCashTBills:       10,
	}, targets)
	assert.Equal(t, models.ActionHold, RecommendAction(inBand, models.LevelGreen).Action)

	skewed := ComputeDeltaFromTargets(map[models.EngineID]float64{
		models.EngineGrowthDuration:   50,
		models.EngineValueCyclical:    10,
		models.EngineQualityDefensive: 10,
		models.EngineDividendIncome:   10,
		models.EngineTreasuryDuration: 2,
		models.EngineCashTBills:       10,
		models.EngineCrypto:           8,
	}, targets)
	p := RecommendAction(skewed, models.LevelYellow)
	assert.Equal(t, models.ActionRebalance, p.Action)
	require.Len(t, p.Moves, 2)
	assert.Equal(t, models.EngineGrowthDuration, p.Moves[0].Engine)
	assert.InDelta(t, -30.0, p.Moves[0].DeltaPct, 1e-9)
	assert.Equal(t, models.EngineTreasuryDuration, p.Moves[1].Engine)
	assert.InDelta(t, 13.0, p.Moves[1].DeltaPct, 1e-9)
	assert.Len(t, p.Reasons, 2)

	red := RecommendAction(skewed, models.LevelRed)
	assert.Equal(t, models.ActionDerisk, red.Action)
	require.Len(t, red.Moves, 3)
	assert.Equal(t, models.EngineGrowthDuration, red.Moves[0].Engine)
	assert.InDelta(t, -40.0, red.Moves[0].DeltaPct, 1e-9)
}

func TestBuildReport(t *testing.T) {
	r := BuildReport(models.Portfolio{
		ID: "main",
		Holdings: []models.Holding{
			{Ticker: "QQQ", Account: "ira", WeightPct: 50},
			{Ticker: "SGOV", WeightPct: 50},
		},
	}, models.LevelGreen)

	assert.Equal(t, "main", r.PortfolioID)
	assert.True(t, r.Validation.Valid)
	assert.Equal(t, models.EngineGrowthDuration, r.Classifications["QQQ@ira"].Engine)
	assert.Equal(t, models.ActionRebalance, r.Policy.Action)
}
