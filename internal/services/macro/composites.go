package macro

import (
	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/services/features"
)

// FRED series identifiers consumed by the macro composites.
const (
	SeriesIndustrialProduction = "INDPRO"
	SeriesPayrolls             = "PAYEMS"
	SeriesRetailSales          = "RSAFS"
	SeriesInitialClaims        = "ICSA"
	SeriesCPI                  = "CPIAUCSL"
	SeriesCoreCPI              = "CPILFESL"
	SeriesBreakeven5Y          = "T5YIE"
	SeriesWTI                  = "DCOILWTICO"
	SeriesHYOAS                = "BAMLH0A0HYM2"
	SeriesIGOAS                = "BAMLC0A0CM"
	SeriesStressIndex          = "STLFSI4"
	SeriesFedBalanceSheet      = "WALCL"
	SeriesTGA                  = "WTREGEN"
	SeriesReverseRepo          = "RRPONTSYD"
	SeriesM2                   = "M2SL"
	SeriesBroadDollar          = "DTWEXBGS"
	SeriesCurve10Y2Y           = "T10Y2Y"
	SeriesVIX                  = "VIXCLS"
	SeriesFedFunds             = "DFF"
)

// SeriesIDs lists every series the macro layer reads.
var SeriesIDs = []string{
	SeriesIndustrialProduction, SeriesPayrolls, SeriesRetailSales, SeriesInitialClaims,
	SeriesCPI, SeriesCoreCPI, SeriesBreakeven5Y, SeriesWTI,
	SeriesHYOAS, SeriesIGOAS, SeriesStressIndex,
	SeriesFedBalanceSheet, SeriesTGA, SeriesReverseRepo, SeriesM2,
	SeriesBroadDollar, SeriesCurve10Y2Y, SeriesVIX, SeriesFedFunds,
}

// Windows are the lookbacks shared by every composite, in calendar days.
type Windows struct {
	ZScore       int
	Change       int
	CreditChange int
}

func DefaultWindows() Windows {
	return Windows{
		ZScore:       models.Lookback2Y,
		Change:       models.Lookback3M,
		CreditChange: models.Lookback8W,
	}
}

type GrowthInputs struct {
	IndustrialProduction models.Series
	Payrolls             models.Series
	RetailSales          models.Series
	InitialClaims        models.Series
}

type InflationInputs struct {
	CPI         models.Series
	CoreCPI     models.Series
	Breakeven5Y models.Series
	Oil         models.Series
}

type CreditInputs struct {
	HYOAS       models.Series
	IGOAS       models.Series
	StressIndex models.Series
}

type LiquidityInputs struct {
	FedBalanceSheet models.Series
	TGA             models.Series
	ReverseRepo     models.Series
	M2              models.Series
}

type USDInputs struct {
	BroadDollar models.Series
}

// Inputs bundles every raw series the macro layer needs.
type Inputs struct {
	Growth    GrowthInputs
	Inflation InflationInputs
	Credit    CreditInputs
	Liquidity LiquidityInputs
	USD       USDInputs
	Curve     models.Series
	VIX       models.Series
	FedFunds  models.Series
}

// InputsFromSet picks the macro series out of a map keyed by series ID.
// Absent keys become empty series.
func InputsFromSet(set map[string]models.Series) Inputs {
	return Inputs{
		Growth: GrowthInputs{
			IndustrialProduction: set[SeriesIndustrialProduction],
			Payrolls:             set[SeriesPayrolls],
			RetailSales:          set[SeriesRetailSales],
			InitialClaims:        set[SeriesInitialClaims],
		},
		Inflation: InflationInputs{
			CPI:         set[SeriesCPI],
			CoreCPI:     set[SeriesCoreCPI],
			Breakeven5Y: set[SeriesBreakeven5Y],
			Oil:         set[SeriesWTI],
		},
		Credit: CreditInputs{
			HYOAS:       set[SeriesHYOAS],
			IGOAS:       set[SeriesIGOAS],
			StressIndex: set[SeriesStressIndex],
		},
		Liquidity: LiquidityInputs{
			FedBalanceSheet: set[SeriesFedBalanceSheet],
			TGA:             set[SeriesTGA],
			ReverseRepo:     set[SeriesReverseRepo],
			M2:              set[SeriesM2],
		},
		USD:      USDInputs{BroadDollar: set[SeriesBroadDollar]},
		Curve:    set[SeriesCurve10Y2Y],
		VIX:      set[SeriesVIX],
		FedFunds: set[SeriesFedFunds],
	}
}

// Empty reports whether every composite input series is empty.
func (in Inputs) Empty() bool {
	all := []models.Series{
		in.Growth.IndustrialProduction, in.Growth.Payrolls, in.Growth.RetailSales, in.Growth.InitialClaims,
		in.Inflation.CPI, in.Inflation.CoreCPI, in.Inflation.Breakeven5Y, in.Inflation.Oil,
		in.Credit.HYOAS, in.Credit.IGOAS, in.Credit.StressIndex,
		in.Liquidity.FedBalanceSheet, in.Liquidity.TGA, in.Liquidity.ReverseRepo, in.Liquidity.M2,
		in.USD.BroadDollar,
	}
	for _, s := range all {
		if !s.Empty() {
			return false
		}
	}
	return true
}

type contribution struct {
	value float64
	ok    bool
}

func neg(v float64, ok bool) contribution { return contribution{-v, ok} }
func pos(v float64, ok bool) contribution { return contribution{v, ok} }

// average is the unweighted mean of the available contributions.
// With none available it returns 0, which downstream rules read as neutral.
func average(cs ...contribution) float64 {
	sum, n := 0.0, 0
	for _, c := range cs {
		if !c.ok {
			continue
		}
		sum += c.value
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func yoyZ(s models.Series, window int) (float64, bool) {
	return features.ZScore(features.YoYSeries(s), window)
}

func CalculateGrowthComposite(in GrowthInputs, w Windows) float64 {
	return average(
		pos(yoyZ(in.IndustrialProduction, w.ZScore)),
		pos(yoyZ(in.Payrolls, w.ZScore)),
		pos(yoyZ(in.RetailSales, w.ZScore)),
		neg(features.ZScore(in.InitialClaims, w.ZScore)),
	)
}

func CalculateInflationComposite(in InflationInputs, w Windows) float64 {
	return average(
		pos(yoyZ(in.CPI, w.ZScore)),
		pos(yoyZ(in.CoreCPI, w.ZScore)),
		pos(features.ZScore(in.Breakeven5Y, w.ZScore)),
		pos(yoyZ(in.Oil, w.ZScore)),
	)
}

func CalculateCreditStressComposite(in CreditInputs, w Windows) float64 {
	return average(
		pos(features.ZScore(in.HYOAS, w.ZScore)),
		pos(features.ZScore(in.IGOAS, w.ZScore)),
		pos(features.ZScore(in.StressIndex, w.ZScore)),
		pos(features.ZScoreOfChange(in.HYOAS, w.CreditChange, w.ZScore)),
	)
}

// CalculateLiquidityComposite treats TGA and reverse-repo growth as drains.
func CalculateLiquidityComposite(in LiquidityInputs, w Windows) float64 {
	return average(
		pos(features.ZScoreOfChange(in.FedBalanceSheet, w.Change, w.ZScore)),
		neg(features.ZScoreOfChange(in.TGA, w.Change, w.ZScore)),
		neg(features.ZScoreOfChange(in.ReverseRepo, w.Change, w.ZScore)),
		pos(yoyZ(in.M2, w.ZScore)),
	)
}

func CalculateUSDImpulse(in USDInputs, w Windows) float64 {
	return average(
		pos(features.ZScoreOfChange(in.BroadDollar, w.Change, w.ZScore)),
		pos(features.ZScore(in.BroadDollar, w.ZScore)),
	)
}

// CalculateComposites computes all five composites.
func CalculateComposites(in Inputs, w Windows) models.Composites {
	return models.Composites{
		Growth:           CalculateGrowthComposite(in.Growth, w),
		Inflation:        CalculateInflationComposite(in.Inflation, w),
		CreditStress:     CalculateCreditStressComposite(in.Credit, w),
		LiquidityImpulse: CalculateLiquidityComposite(in.Liquidity, w),
		USDImpulse:       CalculateUSDImpulse(in.USD, w),
	}
}

// CreditSnapshotFrom reads the latest credit and policy metrics used by the alert cascade.
func CreditSnapshotFrom(in Inputs, w Windows) models.CreditSnapshot {
	return models.CreditSnapshot{
		HYOAS:         models.FloatOK(features.LastValue(in.Credit.HYOAS)),
		HYOASChange8w: models.FloatOK(features.Delta(in.Credit.HYOAS, w.CreditChange)),
		StressIndex:   models.FloatOK(features.LastValue(in.Credit.StressIndex)),
		Curve10y2y:    models.FloatOK(features.LastValue(in.Curve)),
		FedFunds:      models.FloatOK(features.LastValue(in.FedFunds)),
	}
}
