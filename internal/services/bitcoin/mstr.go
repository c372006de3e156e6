package bitcoin

import (
	"fmt"

	"MacroPulse/internal/domain/models"
)

type guidance struct {
	level models.GuidanceLevel
	text  string
	extra string
}

// Rows: macro Risk-Off or not. Any regime other than Risk-Off reads as Risk-On.
var mstrTable = map[bool]map[models.AlertLevel]guidance{
	true: {
		models.LevelGreen:  {models.GuidanceCaution, "Bitcoin trend is intact but macro is Risk-Off; keep MSTR exposure small", ""},
		models.LevelYellow: {models.GuidanceAvoid, "Macro is Risk-Off and the Bitcoin trend is wavering; avoid MSTR", ""},
		models.LevelRed:    {models.GuidanceAvoid, "Macro and Bitcoin both point down; avoid MSTR", "Double red: macro Risk-Off and Bitcoin trend RED"},
	},
	false: {
		models.LevelGreen:  {models.GuidanceOK, "Macro and Bitcoin trend aligned; MSTR exposure is acceptable", "Double green: macro Risk-On and Bitcoin trend GREEN"},
		models.LevelYellow: {models.GuidanceCaution, "Bitcoin trend is wavering; hold MSTR at reduced size", ""},
		models.LevelRed:    {models.GuidanceAvoid, "Bitcoin trend is broken; avoid MSTR despite supportive macro", ""},
	},
}

// GenerateMSTRGuidance maps the macro regime and Bitcoin trend level to a stance.
func GenerateMSTRGuidance(regime models.Regime, trend models.AlertLevel) models.MSTRGuidance {
	riskOff := regime == models.RegimeRiskOff
	g, ok := mstrTable[riskOff][trend]
	if !ok {
		panic(fmt.Sprintf("no MSTR guidance for trend level %q", string(trend)))
	}
	reasoning := []string{
		fmt.Sprintf("Macro regime: %s", regime),
		fmt.Sprintf("Bitcoin trend: %s", trend),
	}
	if !riskOff && regime != models.RegimeRiskOn {
		reasoning = append(reasoning, fmt.Sprintf("%s regime treated as Risk-On for MSTR guidance", regime))
	}
	if g.extra != "" {
		reasoning = append(reasoning, g.extra)
	}
	return models.MSTRGuidance{Recommendation: g.text, AlertLevel: g.level, Reasoning: reasoning}
}
