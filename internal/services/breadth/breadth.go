// Package breadth grades equity market participation and whether it confirms the macro regime.
package breadth

import (
	"fmt"

	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/services/features"
)

// Breadth proxies are ingested into the observation store under these IDs.
const (
	SeriesADLine      = "breadth:ADLINE"
	SeriesPctAbove200 = "breadth:PCT_ABOVE_200D"
	SeriesNetHighLow  = "breadth:NH_NL"
	SeriesVIX         = "VIXCLS"
)

var SeriesIDs = []string{SeriesADLine, SeriesPctAbove200, SeriesNetHighLow, SeriesVIX}

type Inputs struct {
	ADLine      models.Series
	PctAbove200 models.Series
	NetHighLow  models.Series
	VIX         models.Series
}

func InputsFromSet(set map[string]models.Series) Inputs {
	return Inputs{
		ADLine:      set[SeriesADLine],
		PctAbove200: set[SeriesPctAbove200],
		NetHighLow:  set[SeriesNetHighLow],
		VIX:         set[SeriesVIX],
	}
}

// Empty reports whether none of the participation series has data. VIX alone
// does not make a breadth reading.
func (in Inputs) Empty() bool {
	return in.ADLine.Empty() && in.PctAbove200.Empty() && in.NetHighLow.Empty()
}

const (
	adMomentumWindow = 60
	adWeakPct        = -5.0

	vixCalm     = 20.0
	vixElevated = 25.0
	vixPanic    = 35.0

	pctStrong = 60.0
	pctWeak   = 40.0
	pctBroken = 20.0

	netLowsAlarm = -100.0

	confirmScore = 1.5
	divergeScore = -1.5
)

// Analyze scores four independent breadth checks. Level tracks how bad
// conditions are and only rises; SignalScore tracks confirmation and moves
// both ways.
func Analyze(in Inputs) models.BreadthAnalysis {
	out := models.BreadthAnalysis{Level: models.LevelGreen}

	if mom, ok := features.PctChange(in.ADLine, adMomentumWindow); ok {
		out.ADMomentum = models.Float(mom)
		switch {
		case mom > 0:
			out.SignalScore++
			out.Reasons = append(out.Reasons, fmt.Sprintf("Advance-decline line rising (%+.1f%% over 60 days)", mom))
		case mom < 0:
			out.SignalScore--
			out.Reasons = append(out.Reasons, fmt.Sprintf("Advance-decline line falling (%+.1f%% over 60 days)", mom))
		}
		if mom <= adWeakPct {
			out.Level = models.Raise(out.Level, models.LevelYellow)
		}
	}

	if vix, ok := features.LastValue(in.VIX); ok {
		out.VIX = models.Float(vix)
		switch {
		case vix < vixCalm:
			out.SignalScore += 0.5
			out.Reasons = append(out.Reasons, fmt.Sprintf("VIX calm at %.1f", vix))
		case vix > vixElevated:
			out.SignalScore -= 0.5
			out.Level = models.Raise(out.Level, models.LevelYellow)
			out.Reasons = append(out.Reasons, fmt.Sprintf("VIX elevated at %.1f", vix))
		}
		if vix > vixPanic {
			out.Level = models.Raise(out.Level, models.LevelRed)
		}
	}

	if pct, ok := features.LastValue(in.PctAbove200); ok {
		out.PctAbove200 = models.Float(pct)
		switch {
		case pct >= pctStrong:
			out.SignalScore++
			out.Reasons = append(out.Reasons, fmt.Sprintf("%.0f%% of stocks above 200-day average", pct))
		case pct <= pctWeak:
			out.SignalScore--
			out.Level = models.Raise(out.Level, models.LevelYellow)
			out.Reasons = append(out.Reasons, fmt.Sprintf("Only %.0f%% of stocks above 200-day average", pct))
		}
		if pct <= pctBroken {
			out.Level = models.Raise(out.Level, models.LevelRed)
		}
	}

	if net, ok := features.LastValue(in.NetHighLow); ok {
		out.NetHighsLow = models.Float(net)
		switch {
		case net > 0:
			out.SignalScore += 0.5
			out.Reasons = append(out.Reasons, fmt.Sprintf("New highs outnumber new lows by %.0f", net))
		case net < 0:
			out.SignalScore -= 0.5
			out.Reasons = append(out.Reasons, fmt.Sprintf("New lows outnumber new highs by %.0f", -net))
		}
		if net <= netLowsAlarm {
			out.Level = models.Raise(out.Level, models.LevelYellow)
		}
	}

	switch {
	case out.SignalScore >= confirmScore:
		out.Signal = models.BreadthConfirms
	case out.SignalScore <= divergeScore:
		out.Signal = models.BreadthDiverges
	default:
		out.Signal = models.BreadthNeutral
	}
	return out
}
