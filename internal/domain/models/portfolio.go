package models

// EngineID names one of the fixed macro return engines a holding belongs to.
type EngineID string

const (
	EngineGrowthDuration   EngineID = "GROWTH_DURATION"
	EngineValueCyclical    EngineID = "VALUE_CYCLICAL"
	EngineQualityDefensive EngineID = "QUALITY_DEFENSIVE"
	EngineDividendIncome   EngineID = "DIVIDEND_INCOME"
	EngineCreditCarry      EngineID = "CREDIT_CARRY"
	EngineTreasuryDuration EngineID = "TREASURY_DURATION"
	EngineCashTBills       EngineID = "CASH_TBILLS"
	EngineInflationReal    EngineID = "INFLATION_REAL_ASSETS"
	EngineGoldHardMoney    EngineID = "GOLD_HARD_MONEY"
	EngineCrypto           EngineID = "CRYPTO"
	EngineInternational    EngineID = "INTERNATIONAL"
	EngineUnclassified     EngineID = "UNCLASSIFIED"
)

// AllEngines lists every engine in display order.
var AllEngines = []EngineID{
	EngineGrowthDuration,
	EngineValueCyclical,
	EngineQualityDefensive,
	EngineDividendIncome,
	EngineCreditCarry,
	EngineTreasuryDuration,
	EngineCashTBills,
	EngineInflationReal,
	EngineGoldHardMoney,
	EngineCrypto,
	EngineInternational,
	EngineUnclassified,
}

// EngineName returns the human-readable label of an engine.
func EngineName(id EngineID) string {
	switch id {
	case EngineGrowthDuration:
		return "Growth & Duration"
	case EngineValueCyclical:
		return "Value & Cyclicals"
	case EngineQualityDefensive:
		return "Quality & Defensive"
	case EngineDividendIncome:
		return "Dividend Income"
	case EngineCreditCarry:
		return "Credit & Carry"
	case EngineTreasuryDuration:
		return "Treasury Duration"
	case EngineCashTBills:
		return "Cash & T-Bills"
	case EngineInflationReal:
		return "Inflation & Real Assets"
	case EngineGoldHardMoney:
		return "Gold & Hard Money"
	case EngineCrypto:
		return "Crypto"
	case EngineInternational:
		return "International & EM"
	case EngineUnclassified:
		return "Unclassified"
	default:
		return string(id)
	}
}

// IsValidEngine reports whether id is one of AllEngines.
func IsValidEngine(id EngineID) bool {
	for _, e := range AllEngines {
		if e == id {
			return true
		}
	}
	return false
}

type CompanyProfile struct {
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

type Holding struct {
	Ticker         string          `json:"ticker" validate:"required,max=16"`
	Account        string          `json:"account"`
	WeightPct      float64         `json:"weight_pct" validate:"gte=0,lte=100"`
	AssetType      string          `json:"asset_type,omitempty"`
	EngineOverride *EngineID       `json:"engine_override,omitempty"`
	Profile        *CompanyProfile `json:"profile,omitempty"`
}

// ClassificationConfidence grades how a holding's engine was chosen.
type ClassificationConfidence string

const (
	ConfidenceHigh   ClassificationConfidence = "HIGH"
	ConfidenceMedium ClassificationConfidence = "MEDIUM"
	ConfidenceLow    ClassificationConfidence = "LOW"
)

type EngineClassification struct {
	Engine     EngineID                 `json:"engine"`
	Confidence ClassificationConfidence `json:"confidence"`
	Reason     string                   `json:"reason"`
}

type TargetBand struct {
	MinPct    float64 `json:"min_pct" yaml:"min_pct"`
	TargetPct float64 `json:"target_pct" yaml:"target_pct"`
	MaxPct    float64 `json:"max_pct" yaml:"max_pct"`
}

// BandStatus places a current weight relative to its band.
type BandStatus string

const (
	StatusUnder   BandStatus = "UNDER"
	StatusInRange BandStatus = "IN_RANGE"
	StatusOver    BandStatus = "OVER"
)

type EngineDelta struct {
	Engine     EngineID   `json:"engine"`
	Name       string     `json:"name"`
	CurrentPct float64    `json:"current_pct"`
	TargetPct  float64    `json:"target_pct"`
	MinPct     float64    `json:"min_pct"`
	MaxPct     float64    `json:"max_pct"`
	Delta      float64    `json:"delta"`
	Status     BandStatus `json:"status"`
}

type PortfolioValidation struct {
	TotalWeightPct float64  `json:"total_weight_pct"`
	Valid          bool     `json:"valid"`
	Warnings       []string `json:"warnings"`
}

// PolicyAction is the portfolio-level recommendation.
type PolicyAction string

const (
	ActionHold      PolicyAction = "HOLD"
	ActionRebalance PolicyAction = "REBALANCE"
	ActionDerisk    PolicyAction = "DERISK"
)

type PolicyMove struct {
	Engine EngineID `json:"engine"`
	// DeltaPct is the signed change needed to reach target (target - current).
	DeltaPct float64 `json:"delta_pct"`
	Note     string  `json:"note"`
}

type ActionPolicy struct {
	Action  PolicyAction `json:"action"`
	Reasons []string     `json:"reasons"`
	Moves   []PolicyMove `json:"moves"`
}

// Portfolio is the externally persisted holdings + target bands.
type Portfolio struct {
	ID       string                  `json:"id"`
	Holdings []Holding               `json:"holdings" validate:"dive"`
	Targets  map[EngineID]TargetBand `json:"targets"`
}

type PortfolioReport struct {
	PortfolioID     string                          `json:"portfolio_id"`
	Classifications map[string]EngineClassification `json:"classifications"`
	Deltas          []EngineDelta                   `json:"deltas"`
	Validation      PortfolioValidation             `json:"validation"`
	Policy          ActionPolicy                    `json:"policy"`
}
