package macro

import (
	"fmt"

	"MacroPulse/internal/domain/models"
)

// AlertThresholds drive the RED and YELLOW tiers of EvaluateAlerts.
type AlertThresholds struct {
	HYOASRed        float64
	HYOASChangeRed  float64
	StressRed       float64
	LiquidityRed    float64
	HYOASYellow     float64
	StressYellow    float64
	CurveYellow     float64
	InflationYellow float64
	LiquidityYellow float64
	FedFundsYellow  float64
	// HYOASHealthy is the spread at or below which credit counts as healthy.
	HYOASHealthy float64
}

func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		HYOASRed:        6.5,
		HYOASChangeRed:  1.0,
		StressRed:       1.5,
		LiquidityRed:    -1.25,
		HYOASYellow:     5.0,
		StressYellow:    1.0,
		CurveYellow:     -0.5,
		InflationYellow: 1.0,
		LiquidityYellow: -0.75,
		FedFundsYellow:  5.0,
		HYOASHealthy:    4.5,
	}
}

const noWarnings = "No major macro warnings detected"

// EvaluateAlerts runs the RED tier, then the YELLOW tier only if nothing was RED.
// Every triggered check in the deciding tier contributes a reason, in check order.
// Missing metrics skip their check.
func EvaluateAlerts(c models.Composites, credit models.CreditSnapshot, th AlertThresholds) models.AlertInfo {
	info := models.AlertInfo{Credit: credit}

	var red []string
	if v := credit.HYOAS; v != nil && *v >= th.HYOASRed {
		red = append(red, fmt.Sprintf("High yield spreads at crisis levels: HY OAS %.2f%% >= %.2f%%", *v, th.HYOASRed))
	}
	if v := credit.HYOASChange8w; v != nil && *v >= th.HYOASChangeRed {
		red = append(red, fmt.Sprintf("Credit deterioration: HY OAS widened %.2fpp over 8 weeks", *v))
	}
	if v := credit.StressIndex; v != nil && *v > th.StressRed {
		red = append(red, fmt.Sprintf("Financial stress index elevated: %.2f > %.2f", *v, th.StressRed))
	}
	if c.LiquidityImpulse <= th.LiquidityRed {
		red = append(red, fmt.Sprintf("Liquidity draining sharply: composite %.2f <= %.2f", c.LiquidityImpulse, th.LiquidityRed))
	}
	if len(red) > 0 {
		info.Level = models.LevelRed
		info.Reasons = red
		return info
	}

	var yellow []string
	if v := credit.HYOAS; v != nil && *v >= th.HYOASYellow {
		yellow = append(yellow, fmt.Sprintf("High yield spreads widening: HY OAS %.2f%% >= %.2f%%", *v, th.HYOASYellow))
	}
	if v := credit.StressIndex; v != nil && *v > th.StressYellow {
		yellow = append(yellow, fmt.Sprintf("Financial stress building: index %.2f > %.2f", *v, th.StressYellow))
	}
	if v := credit.Curve10y2y; v != nil && *v <= th.CurveYellow {
		yellow = append(yellow, fmt.Sprintf("Yield curve deeply inverted: 10y-2y %.2f <= %.2f", *v, th.CurveYellow))
	}
	if c.Inflation >= th.InflationYellow {
		yellow = append(yellow, fmt.Sprintf("Inflation pressure: composite %.2f >= %.2f", c.Inflation, th.InflationYellow))
	}
	if c.LiquidityImpulse <= th.LiquidityYellow {
		yellow = append(yellow, fmt.Sprintf("Liquidity tightening: composite %.2f <= %.2f", c.LiquidityImpulse, th.LiquidityYellow))
	}
	if v := credit.FedFunds; v != nil && *v >= th.FedFundsYellow {
		yellow = append(yellow, fmt.Sprintf("Restrictive policy: Fed funds %.2f%% >= %.2f%%", *v, th.FedFundsYellow))
	}
	if len(yellow) > 0 {
		info.Level = models.LevelYellow
		info.Reasons = yellow
		return info
	}

	info.Level = models.LevelGreen
	info.Reasons = []string{noWarnings}
	if c.Growth > 0 {
		info.Reasons = append(info.Reasons, fmt.Sprintf("Growth positive (%.2f)", c.Growth))
	}
	if v := credit.HYOAS; v != nil && *v <= th.HYOASHealthy {
		info.Reasons = append(info.Reasons, fmt.Sprintf("Credit spreads healthy: HY OAS %.2f%%", *v))
	}
	if c.LiquidityImpulse > 0 {
		info.Reasons = append(info.Reasons, fmt.Sprintf("Liquidity supportive (%.2f)", c.LiquidityImpulse))
	}
	return info
}

type tiltTemplate struct {
	add    []string
	reduce []string
	notes  []string
	hint   string
}

var tiltTable = map[models.AlertLevel]tiltTemplate{
	models.LevelGreen: {
		add:    []string{"Broad equities", "Credit carry", "Cyclicals and small caps"},
		reduce: []string{"Excess cash"},
		notes:  []string{"Stay invested and rebalance on schedule"},
		hint:   "Rebalance toward target weights on the normal schedule",
	},
	models.LevelYellow: {
		add:    []string{"Quality and defensive equities", "Short-duration Treasuries", "Cash and T-bills"},
		reduce: []string{"High yield credit", "Speculative growth", "Leverage"},
		notes:  []string{"Tighten risk limits", "Favor engines near the lower end of their bands"},
		hint:   "Trim risk into strength and hold engines near the lower band",
	},
	models.LevelRed: {
		add:    []string{"Cash and T-bills", "Treasury duration", "Gold"},
		reduce: []string{"Equities", "High yield credit", "Crypto"},
		notes:  []string{"Capital preservation first", "Avoid adding leverage"},
	},
}

// GeneratePortfolioTilts looks up the fixed tilt for level. At RED the
// rebalance hint names the HY OAS and liquidity levels that would end the
// defensive posture.
func GeneratePortfolioTilts(level models.AlertLevel, c models.Composites, credit models.CreditSnapshot, th AlertThresholds) models.PortfolioTilt {
	tpl, ok := tiltTable[level]
	if !ok {
		panic(fmt.Sprintf("no portfolio tilt for alert level %q", string(level)))
	}
	tilt := models.PortfolioTilt{
		Level:         level,
		Add:           append([]string(nil), tpl.add...),
		Reduce:        append([]string(nil), tpl.reduce...),
		Notes:         append([]string(nil), tpl.notes...),
		RebalanceHint: tpl.hint,
	}
	if level == models.LevelRed {
		hyTarget := th.HYOASYellow
		if credit.HYOAS != nil && *credit.HYOAS < th.HYOASYellow {
			hyTarget = *credit.HYOAS
		}
		liqTarget := th.LiquidityYellow
		if c.LiquidityImpulse > th.LiquidityYellow {
			liqTarget = c.LiquidityImpulse
		}
		tilt.RebalanceHint = fmt.Sprintf("Hold defensive posture until HY OAS < %.2f%% and liquidity composite > %.2f", hyTarget, liqTarget)
	}
	return tilt
}
