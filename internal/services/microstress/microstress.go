// Package microstress grades short-horizon funding-market stress and gates
// the macro alert level with it.
package microstress

import (
	"fmt"
	"math"

	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/services/features"
)

const (
	SeriesSOFR  = "SOFR"
	SeriesEFFR  = "EFFR"
	SeriesTBill = "DTB3"
	SeriesCP    = "DCPF3M"
	SeriesTED   = "TEDRATE"
	SeriesNFCI  = "NFCI"
)

var SeriesIDs = []string{SeriesSOFR, SeriesEFFR, SeriesTBill, SeriesCP, SeriesTED, SeriesNFCI}

type Inputs struct {
	SOFR  models.Series
	EFFR  models.Series
	TBill models.Series
	CP    models.Series
	TED   models.Series
	NFCI  models.Series
}

func InputsFromSet(set map[string]models.Series) Inputs {
	return Inputs{
		SOFR:  set[SeriesSOFR],
		EFFR:  set[SeriesEFFR],
		TBill: set[SeriesTBill],
		CP:    set[SeriesCP],
		TED:   set[SeriesTED],
		NFCI:  set[SeriesNFCI],
	}
}

func (in Inputs) Empty() bool {
	return in.SOFR.Empty() && in.EFFR.Empty() && in.TBill.Empty() &&
		in.CP.Empty() && in.TED.Empty() && in.NFCI.Empty()
}

// Thresholds holds the caution and stress cut-offs of each check.
type Thresholds struct {
	SpreadCautionBps float64
	SpreadStressBps  float64
	SOFRJumpCaution  float64
	SOFRJumpStress   float64
	CPJumpCaution    float64
	CPJumpStress     float64
	TEDCaution       float64
	TEDStress        float64
	NFCICaution      float64
	NFCIStress       float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		SpreadCautionBps: 5,
		SpreadStressBps:  10,
		SOFRJumpCaution:  0.35,
		SOFRJumpStress:   0.75,
		CPJumpCaution:    0.35,
		CPJumpStress:     0.75,
		TEDCaution:       0.35,
		TEDStress:        0.75,
		NFCICaution:      0,
		NFCIStress:       0.5,
	}
}

// Check weights; a stress-tier hit counts double.
const (
	weightSpread   = 0.30
	weightSOFRJump = 0.20
	weightCPJump   = 0.20
	weightTED      = 0.15
	weightNFCI     = 0.15
	stressMultiple = 2
)

func latest(s models.Series) (*float64, *float64) {
	return models.FloatOK(features.LastValue(s)), models.FloatOK(features.Delta(s, models.Lookback8W))
}

// CalculateMetrics reads latest values and 8-week changes of each funding series.
func CalculateMetrics(in Inputs) models.MicrostressMetrics {
	var m models.MicrostressMetrics
	m.SOFR, m.SOFRChange8w = latest(in.SOFR)
	m.EFFR, m.EFFRChange8w = latest(in.EFFR)
	m.TBill3M, m.TBillChange8w = latest(in.TBill)
	m.CPRate, m.CPChange8w = latest(in.CP)
	m.TEDSpread, m.TEDChange8w = latest(in.TED)
	m.NFCI, m.NFCIChange8w = latest(in.NFCI)
	if m.SOFR != nil && m.EFFR != nil {
		m.SOFREFFRSpreadBps = models.Float((*m.SOFR - *m.EFFR) * 100)
	}
	if m.CPRate != nil && m.TBill3M != nil {
		m.CPBillSpread = models.Float(*m.CPRate - *m.TBill3M)
	}
	return m
}

type evaluation struct {
	level   models.AlertLevel
	score   float64
	reasons []string
}

// tier scores one check. above reports whether v breaches a cut-off.
func (e *evaluation) tier(v *float64, caution, stress, weight float64, above func(v, cut float64) bool, format string) {
	if v == nil {
		return
	}
	switch {
	case above(*v, stress):
		e.score += weight * stressMultiple
		e.level = models.Raise(e.level, models.LevelRed)
		e.reasons = append(e.reasons, fmt.Sprintf(format, *v)+" (stress)")
	case above(*v, caution):
		e.score += weight
		e.level = models.Raise(e.level, models.LevelYellow)
		e.reasons = append(e.reasons, fmt.Sprintf(format, *v)+" (caution)")
	}
}

func atLeast(v, cut float64) bool { return v >= cut }
func over(v, cut float64) bool    { return v > cut }

// Analyze runs the five funding checks in fixed order. The level only ever rises
// during the pass; a single stress-tier hit makes the whole result RED.
func Analyze(m models.MicrostressMetrics, th Thresholds) models.MicrostressAnalysis {
	e := evaluation{level: models.LevelGreen}
	e.tier(m.SOFREFFRSpreadBps, th.SpreadCautionBps, th.SpreadStressBps, weightSpread, atLeast, "SOFR-EFFR spread at %.1f bps")
	e.tier(m.SOFRChange8w, th.SOFRJumpCaution, th.SOFRJumpStress, weightSOFRJump, atLeast, "SOFR up %.2fpp over 8 weeks")
	e.tier(m.CPChange8w, th.CPJumpCaution, th.CPJumpStress, weightCPJump, atLeast, "Commercial paper rate up %.2fpp over 8 weeks")
	e.tier(m.TEDSpread, th.TEDCaution, th.TEDStress, weightTED, atLeast, "TED spread at %.2f")
	e.tier(m.NFCI, th.NFCICaution, th.NFCIStress, weightNFCI, over, "NFCI at %.2f")

	return models.MicrostressAnalysis{
		Level:   e.level,
		Score:   math.Round(e.score*100) / 100,
		Reasons: append([]string{summary(e.level)}, e.reasons...),
		Metrics: m,
	}
}

func summary(level models.AlertLevel) string {
	switch level {
	case models.LevelRed:
		return "Funding markets under stress"
	case models.LevelYellow:
		return "Funding markets showing early strain"
	default:
		return "Funding markets calm"
	}
}

// ApplyGating merges the microstress level into the macro alert level. Elevated
// funding stress lifts a GREEN macro alert to YELLOW; RED on both sides stays RED
// with an annotation. Every other combination passes through unchanged.
func ApplyGating(macro, micro models.AlertLevel) models.GatingResult {
	res := models.GatingResult{
		MacroAlertLevel: macro,
		MicroAlertLevel: micro,
		FinalAlertLevel: macro,
	}
	switch {
	case macro == models.LevelGreen && (micro == models.LevelRed || micro == models.LevelYellow):
		res.FinalAlertLevel = models.LevelYellow
		res.GatingApplied = true
		res.Reason = fmt.Sprintf("Funding microstress %s lifts macro alert from GREEN to YELLOW", micro)
	case macro == models.LevelRed && micro == models.LevelRed:
		res.Reason = "Funding microstress RED confirms macro RED"
	}
	return res
}

// GateAlert applies ApplyGating to a macro alert. A nil analysis leaves the alert as is.
func GateAlert(info models.AlertInfo, a *models.MicrostressAnalysis) models.AlertInfo {
	if a == nil {
		return info
	}
	g := ApplyGating(info.Level, a.Level)
	out := info
	out.Level = g.FinalAlertLevel
	out.Reasons = append([]string(nil), info.Reasons...)
	if g.Reason != "" {
		out.Reasons = append(out.Reasons, g.Reason)
	}
	out.Gating = &g
	return out
}
