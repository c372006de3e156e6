package portfolio

import (
	"fmt"
	"math"
	"sort"

	"MacroPulse/internal/domain/models"
)

// WeightTolerancePct is how far total weights may drift from 100% before validation flags it.
const WeightTolerancePct = 0.25

// DefaultTargets are used when a portfolio carries no bands of its own.
func DefaultTargets() map[models.EngineID]models.TargetBand {
	return map[models.EngineID]models.TargetBand{
		models.EngineGrowthDuration:   {MinPct: 10, TargetPct: 20, MaxPct: 30},
		models.EngineValueCyclical:    {MinPct: 5, TargetPct: 10, MaxPct: 15},
		models.EngineQualityDefensive: {MinPct: 5, TargetPct: 10, MaxPct: 15},
		models.EngineDividendIncome:   {MinPct: 5, TargetPct: 10, MaxPct: 15},
		models.EngineCreditCarry:      {MinPct: 0, TargetPct: 5, MaxPct: 10},
		models.EngineTreasuryDuration: {MinPct: 5, TargetPct: 15, MaxPct: 25},
		models.EngineCashTBills:       {MinPct: 5, TargetPct: 10, MaxPct: 20},
		models.EngineInflationReal:    {MinPct: 0, TargetPct: 5, MaxPct: 10},
		models.EngineGoldHardMoney:    {MinPct: 0, TargetPct: 5, MaxPct: 10},
		models.EngineCrypto:           {MinPct: 0, TargetPct: 5, MaxPct: 8},
		models.EngineInternational:    {MinPct: 0, TargetPct: 5, MaxPct: 10},
		models.EngineUnclassified:     {},
	}
}

// riskEngines are trimmed toward their lower band when the macro alert is RED.
var riskEngines = map[models.EngineID]bool{
	models.EngineGrowthDuration: true,
	models.EngineValueCyclical:  true,
	models.EngineCreditCarry:    true,
	models.EngineCrypto:         true,
	models.EngineInternational:  true,
}

// ClassifyHoldings classifies every holding, keyed by HoldingKey.
func ClassifyHoldings(holdings []models.Holding) map[string]models.EngineClassification {
	out := make(map[string]models.EngineClassification, len(holdings))
	for _, h := range holdings {
		out[HoldingKey(h)] = GetEngineForHolding(h)
	}
	return out
}

// ComputeAllocations sums holding weights per engine.
func ComputeAllocations(holdings []models.Holding) map[models.EngineID]float64 {
	out := make(map[models.EngineID]float64, len(models.AllEngines))
	for _, h := range holdings {
		out[GetEngineForHolding(h).Engine] += h.WeightPct
	}
	return out
}

func bandStatus(current float64, b models.TargetBand) models.BandStatus {
	switch {
	case current < b.MinPct:
		return models.StatusUnder
	case current > b.MaxPct:
		return models.StatusOver
	default:
		return models.StatusInRange
	}
}

// ComputeDeltaFromTargets compares each engine's weight with its band, in
// AllEngines order. An engine without a band is held to zero.
// Delta is current minus target.
func ComputeDeltaFromTargets(current map[models.EngineID]float64, targets map[models.EngineID]models.TargetBand) []models.EngineDelta {
	out := make([]models.EngineDelta, 0, len(models.AllEngines))
	for _, e := range models.AllEngines {
		b := targets[e]
		cur := current[e]
		out = append(out, models.EngineDelta{
			Engine:     e,
			Name:       models.EngineName(e),
			CurrentPct: cur,
			TargetPct:  b.TargetPct,
			MinPct:     b.MinPct,
			MaxPct:     b.MaxPct,
			Delta:      cur - b.TargetPct,
			Status:     bandStatus(cur, b),
		})
	}
	return out
}

// ValidateWeights flags totals outside 100% ± WeightTolerancePct. It never blocks computation.
func ValidateWeights(holdings []models.Holding) models.PortfolioValidation {
	v := models.PortfolioValidation{Valid: true}
	seen := make(map[string]bool, len(holdings))
	for _, h := range holdings {
		v.TotalWeightPct += h.WeightPct
		k := HoldingKey(h)
		if seen[k] {
			v.Warnings = append(v.Warnings, fmt.Sprintf("Duplicate holding %s", k))
		}
		seen[k] = true
	}
	if math.Abs(v.TotalWeightPct-100) > WeightTolerancePct {
		v.Valid = false
		v.Warnings = append(v.Warnings, fmt.Sprintf("Weights sum to %.2f%%, expected 100%% (±%.2f%%)", v.TotalWeightPct, WeightTolerancePct))
	}
	return v
}

func sortMoves(moves []models.PolicyMove) {
	sort.SliceStable(moves, func(i, j int) bool {
		return math.Abs(moves[i].DeltaPct) > math.Abs(moves[j].DeltaPct)
	})
}

// RecommendAction turns deltas and the final alert level into HOLD, REBALANCE
// or DERISK. Moves are ordered by size, largest first.
func RecommendAction(deltas []models.EngineDelta, level models.AlertLevel) models.ActionPolicy {
	if level == models.LevelRed {
		p := models.ActionPolicy{
			Action:  models.ActionDerisk,
			Reasons: []string{"Macro alert is RED: reduce risk engines toward their lower bands"},
		}
		for _, d := range deltas {
			if !riskEngines[d.Engine] || d.CurrentPct <= d.MinPct {
				continue
			}
			p.Moves = append(p.Moves, models.PolicyMove{
				Engine:   d.Engine,
				DeltaPct: d.MinPct - d.CurrentPct,
				Note:     fmt.Sprintf("Trim %s to %.1f%%", d.Name, d.MinPct),
			})
		}
		sortMoves(p.Moves)
		return p
	}

	var moves []models.PolicyMove
	for _, d := range deltas {
		if d.Status == models.StatusInRange {
			continue
		}
		move := models.PolicyMove{Engine: d.Engine, DeltaPct: -d.Delta}
		if d.Status == models.StatusUnder {
			move.Note = fmt.Sprintf("Add %.1f%% to %s", -d.Delta, d.Name)
		} else {
			move.Note = fmt.Sprintf("Trim %.1f%% from %s", d.Delta, d.Name)
		}
		moves = append(moves, move)
	}
	if len(moves) == 0 {
		return models.ActionPolicy{
			Action:  models.ActionHold,
			Reasons: []string{"All engines within target bands"},
		}
	}
	sortMoves(moves)
	p := models.ActionPolicy{
		Action:  models.ActionRebalance,
		Reasons: []string{fmt.Sprintf("%d engine(s) outside target bands", len(moves))},
		Moves:   moves,
	}
	if level == models.LevelYellow {
		p.Reasons = append(p.Reasons, "Macro alert is YELLOW: fund additions by trimming before adding new risk")
	}
	return p
}

// BuildReport classifies, measures and recommends for one portfolio.
func BuildReport(p models.Portfolio, level models.AlertLevel) models.PortfolioReport {
	targets := p.Targets
	if len(targets) == 0 {
		targets = DefaultTargets()
	}
	deltas := ComputeDeltaFromTargets(ComputeAllocations(p.Holdings), targets)
	return models.PortfolioReport{
		PortfolioID:     p.ID,
		Classifications: ClassifyHoldings(p.Holdings),
		Deltas:          deltas,
		Validation:      ValidateWeights(p.Holdings),
		Policy:          RecommendAction(deltas, level),
	}
}
