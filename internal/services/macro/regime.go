package macro

import (
	"fmt"
	"math"

	"MacroPulse/internal/domain/models"
)

// Regime thresholds on composite scores and externals.
const (
	riskOffCreditStress = 1.0
	riskOffLiquidity    = -1.25
	riskOffVIX          = 25.0
	inflationaryFloor   = 0.8
	deflationInflation  = -0.8
	deflationGrowth     = -0.5

	minConditions = 2
	conditionSet  = 3

	breadthAdjustment = 10
)

func confidence(matched int) int {
	return int(math.Round(100 * float64(matched) / conditionSet))
}

// ClassifyRegime maps the composites plus the optional 10y-2y curve and VIX
// level to a regime. Rules are tried in priority order and the first match wins:
// Risk-Off, Inflationary, Deflationary, Risk-On, then Mixed.
func ClassifyRegime(c models.Composites, curve, vix *float64) models.RegimeClassification {
	rc := models.RegimeClassification{Composites: c, Curve10y2y: curve, VIX: vix}

	var offReasons []string
	if c.CreditStress >= riskOffCreditStress {
		offReasons = append(offReasons, fmt.Sprintf("Credit stress elevated (%.2f)", c.CreditStress))
	}
	if c.LiquidityImpulse <= riskOffLiquidity && curve != nil && *curve < 0 {
		offReasons = append(offReasons, fmt.Sprintf("Liquidity draining (%.2f) with inverted curve (%.2f)", c.LiquidityImpulse, *curve))
	}
	if vix != nil && *vix > riskOffVIX {
		offReasons = append(offReasons, fmt.Sprintf("VIX elevated (%.1f)", *vix))
	}
	if len(offReasons) >= minConditions {
		rc.Regime = models.RegimeRiskOff
		rc.Confidence = confidence(len(offReasons))
		rc.Reasons = offReasons
		return rc
	}

	if c.Inflation >= inflationaryFloor {
		rc.Regime = models.RegimeInflationary
		rc.Confidence = 67
		rc.Reasons = []string{fmt.Sprintf("Inflation composite elevated (%.2f)", c.Inflation)}
		if c.Growth >= 0 {
			rc.Confidence = 100
			rc.Reasons = append(rc.Reasons, fmt.Sprintf("Growth holding up (%.2f)", c.Growth))
		}
		return rc
	}

	if c.Inflation <= deflationInflation && c.Growth <= deflationGrowth {
		rc.Regime = models.RegimeDeflationary
		rc.Confidence = 67
		rc.Reasons = []string{
			fmt.Sprintf("Inflation falling (%.2f)", c.Inflation),
			fmt.Sprintf("Growth contracting (%.2f)", c.Growth),
		}
		return rc
	}

	var onReasons []string
	if c.CreditStress <= 0 {
		onReasons = append(onReasons, fmt.Sprintf("Credit stress contained (%.2f)", c.CreditStress))
	}
	if c.LiquidityImpulse >= 0 {
		onReasons = append(onReasons, fmt.Sprintf("Liquidity supportive (%.2f)", c.LiquidityImpulse))
	}
	if c.Growth >= 0 {
		onReasons = append(onReasons, fmt.Sprintf("Growth positive (%.2f)", c.Growth))
	}
	if len(onReasons) >= minConditions {
		rc.Regime = models.RegimeRiskOn
		rc.Confidence = confidence(len(onReasons))
		rc.Reasons = onReasons
		return rc
	}

	rc.Regime = models.RegimeMixed
	rc.Confidence = confidence(len(onReasons))
	rc.Reasons = []string{"Insufficient signals to classify regime"}
	return rc
}

// AdjustConfidenceForBreadth nudges regime confidence by breadth confirmation.
// The input is not modified.
func AdjustConfidenceForBreadth(rc models.RegimeClassification, signal models.BreadthSignal) models.RegimeClassification {
	out := rc
	out.Reasons = append([]string(nil), rc.Reasons...)
	switch signal {
	case models.BreadthConfirms:
		out.Confidence = clamp(rc.Confidence+breadthAdjustment, 0, 100)
		out.Reasons = append(out.Reasons, "Market breadth confirms regime")
	case models.BreadthDiverges:
		out.Confidence = clamp(rc.Confidence-breadthAdjustment, 0, 100)
		out.Reasons = append(out.Reasons, "Market breadth diverges from regime")
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
