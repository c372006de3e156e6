package models

import "fmt"

// AlertLevel is the urgency of a signal. GREEN < YELLOW < RED.
type AlertLevel string

const (
	LevelGreen  AlertLevel = "GREEN"
	LevelYellow AlertLevel = "YELLOW"
	LevelRed    AlertLevel = "RED"
)

func (l AlertLevel) rank() int {
	switch l {
	case LevelGreen:
		return 0
	case LevelYellow:
		return 1
	case LevelRed:
		return 2
	default:
		panic(fmt.Sprintf("unknown alert level %q", string(l)))
	}
}

// Severity is 0 for GREEN, 1 for YELLOW, 2 for RED.
func (l AlertLevel) Severity() int { return l.rank() }

// Raise returns the more severe of current and candidate.
// Evaluation passes only ever move a level upward through this helper.
func Raise(current, candidate AlertLevel) AlertLevel {
	if candidate.rank() > current.rank() {
		return candidate
	}
	return current
}

// Downgrade moves a trend level one notch worse; RED stays RED.
func Downgrade(l AlertLevel) AlertLevel {
	switch l {
	case LevelGreen:
		return LevelYellow
	default:
		return LevelRed
	}
}

// Regime is the coarse macro state.
type Regime string

const (
	RegimeRiskOn       Regime = "Risk-On"
	RegimeRiskOff      Regime = "Risk-Off"
	RegimeInflationary Regime = "Inflationary"
	RegimeDeflationary Regime = "Deflationary"
	RegimeMixed        Regime = "Mixed"
)

// Named lookback windows in calendar days.
const (
	Lookback1W = 7
	Lookback8W = 56
	Lookback1M = 30
	Lookback3M = 90
	Lookback6M = 180
	Lookback1Y = 365
	Lookback2Y = 730
	Lookback5Y = 1825
)

var lookbacks = map[string]int{
	"1w": Lookback1W,
	"8w": Lookback8W,
	"1m": Lookback1M,
	"3m": Lookback3M,
	"6m": Lookback6M,
	"1y": Lookback1Y,
	"2y": Lookback2Y,
	"5y": Lookback5Y,
}

// LookbackDays resolves a named window. Unknown names are programming errors.
func LookbackDays(name string) int {
	d, ok := lookbacks[name]
	if !ok {
		panic(fmt.Sprintf("unknown lookback window %q", name))
	}
	return d
}

// Float returns a pointer to v, for optional metric fields.
func Float(v float64) *float64 { return &v }

// FloatOK returns a pointer to v when ok, nil otherwise.
func FloatOK(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
