package models

import "time"

// FetchRecord notes when a series was last fetched during one pipeline run.
type FetchRecord struct {
	SeriesID  string    `json:"series_id"`
	FetchedAt time.Time `json:"fetched_at"`
	Points    int       `json:"points"`
}

// Dashboard is the consolidated result of one pipeline run.
// Sections whose inputs were all empty are left nil.
// Note: no transport (http/ws) concerns here.
type Dashboard struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Regime      *RegimeClassification `json:"regime,omitempty"`
	Alert       *AlertInfo            `json:"alert,omitempty"`
	Tilt        *PortfolioTilt        `json:"tilt,omitempty"`
	Microstress *MicrostressAnalysis  `json:"microstress,omitempty"`
	Breadth     *BreadthAnalysis      `json:"breadth,omitempty"`
	Bitcoin     *BitcoinAnalysis      `json:"bitcoin,omitempty"`
	MSTR        *MSTRGuidance         `json:"mstr,omitempty"`
	Portfolio   *PortfolioReport      `json:"portfolio,omitempty"`
	Fetches     []FetchRecord         `json:"fetches"`
	Errors      map[string]string     `json:"errors,omitempty"`
}

// FinalLevel is the alert level after gating, or GREEN when no alert was produced.
func (d *Dashboard) FinalLevel() AlertLevel {
	if d == nil || d.Alert == nil {
		return LevelGreen
	}
	return d.Alert.Level
}

// AddError notes a non-fatal failure for one section.
func (d *Dashboard) AddError(section, msg string) {
	if d.Errors == nil {
		d.Errors = make(map[string]string)
	}
	d.Errors[section] = msg
}
