package models

// Composites holds the five macro composite scores (z-score averages).
type Composites struct {
	Growth           float64 `json:"growth"`
	Inflation        float64 `json:"inflation"`
	CreditStress     float64 `json:"credit_stress"`
	LiquidityImpulse float64 `json:"liquidity_impulse"`
	USDImpulse       float64 `json:"usd_impulse"`
}

type RegimeClassification struct {
	Regime     Regime     `json:"regime"`
	Confidence int        `json:"confidence"` // 0-100
	Reasons    []string   `json:"reasons"`
	Composites Composites `json:"composites"`
	Curve10y2y *float64   `json:"curve_10y2y"`
	VIX        *float64   `json:"vix"`
}

// CreditSnapshot carries the credit and policy metrics the alert cascade reads.
type CreditSnapshot struct {
	HYOAS         *float64 `json:"hy_oas"`
	HYOASChange8w *float64 `json:"hy_oas_change_8w"`
	StressIndex   *float64 `json:"stress_index"`
	Curve10y2y    *float64 `json:"curve_10y2y"`
	FedFunds      *float64 `json:"fed_funds"`
}

type AlertInfo struct {
	Level   AlertLevel     `json:"level"`
	Reasons []string       `json:"reasons"`
	Credit  CreditSnapshot `json:"credit"`
	// Gating is set once microstress gating has been applied.
	Gating *GatingResult `json:"gating,omitempty"`
}

type PortfolioTilt struct {
	Level         AlertLevel `json:"level"`
	Add           []string   `json:"add"`
	Reduce        []string   `json:"reduce"`
	Notes         []string   `json:"notes"`
	RebalanceHint string     `json:"rebalance_hint"`
}

type MicrostressMetrics struct {
	SOFR          *float64 `json:"sofr"`
	SOFRChange8w  *float64 `json:"sofr_change_8w"`
	EFFR          *float64 `json:"effr"`
	EFFRChange8w  *float64 `json:"effr_change_8w"`
	TBill3M       *float64 `json:"tbill_3m"`
	TBillChange8w *float64 `json:"tbill_change_8w"`
	CPRate        *float64 `json:"cp_rate"`
	CPChange8w    *float64 `json:"cp_change_8w"`
	TEDSpread     *float64 `json:"ted_spread"`
	TEDChange8w   *float64 `json:"ted_change_8w"`
	NFCI          *float64 `json:"nfci"`
	NFCIChange8w  *float64 `json:"nfci_change_8w"`
	// SOFREFFRSpreadBps is (SOFR - EFFR) in basis points.
	SOFREFFRSpreadBps *float64 `json:"sofr_effr_spread_bps"`
	// CPBillSpread is (CP - 3M bill) in percentage points.
	CPBillSpread *float64 `json:"cp_bill_spread"`
}

type MicrostressAnalysis struct {
	Level   AlertLevel         `json:"level"`
	Score   float64            `json:"score"`
	Reasons []string           `json:"reasons"`
	Metrics MicrostressMetrics `json:"metrics"`
}

type GatingResult struct {
	MacroAlertLevel AlertLevel `json:"macro_alert_level"`
	MicroAlertLevel AlertLevel `json:"micro_alert_level"`
	FinalAlertLevel AlertLevel `json:"final_alert_level"`
	GatingApplied   bool       `json:"gating_applied"`
	Reason          string     `json:"reason,omitempty"`
}

// BreadthSignal says whether breadth confirms the macro regime.
type BreadthSignal string

const (
	BreadthConfirms BreadthSignal = "CONFIRMS"
	BreadthNeutral  BreadthSignal = "NEUTRAL"
	BreadthDiverges BreadthSignal = "DIVERGES"
)

type BreadthAnalysis struct {
	Level       AlertLevel    `json:"level"`
	Signal      BreadthSignal `json:"signal"`
	SignalScore float64       `json:"signal_score"`
	Reasons     []string      `json:"reasons"`
	ADMomentum  *float64      `json:"ad_momentum_60d"`
	PctAbove200 *float64      `json:"pct_above_200d"`
	NetHighsLow *float64      `json:"net_highs_lows"`
	VIX         *float64      `json:"vix"`
}

type BitcoinMetrics struct {
	Price           *float64 `json:"price"`
	MA20            *float64 `json:"ma_20"`
	MA50            *float64 `json:"ma_50"`
	MA200           *float64 `json:"ma_200"`
	DistanceFrom200 *float64 `json:"distance_from_200d_pct"`
	RealizedVol30   *float64 `json:"realized_vol_30d"`
	Drawdown365     *float64 `json:"drawdown_365d"`
	Momentum90      *float64 `json:"momentum_90d"`
	GoldenCross     bool     `json:"golden_cross"`
	DeathCross      bool     `json:"death_cross"`
}

type BitcoinAnalysis struct {
	TrendLevel AlertLevel     `json:"trend_level"`
	Reasons    []string       `json:"reasons"`
	Metrics    BitcoinMetrics `json:"metrics"`
}

// GuidanceLevel is the MSTR position stance.
type GuidanceLevel string

const (
	GuidanceOK      GuidanceLevel = "OK"
	GuidanceCaution GuidanceLevel = "CAUTION"
	GuidanceAvoid   GuidanceLevel = "AVOID"
)

type MSTRGuidance struct {
	Recommendation string        `json:"recommendation"`
	AlertLevel     GuidanceLevel `json:"alert_level"`
	Reasoning      []string      `json:"reasoning"`
}
