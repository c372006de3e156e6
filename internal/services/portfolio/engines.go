// Package portfolio classifies holdings into macro engines and compares the
// resulting allocation against target bands.
package portfolio

import (
	"fmt"
	"strings"

	"MacroPulse/internal/domain/models"
)

// Classifier is one step of the classification chain. It reports false when
// it has no opinion about the holding.
type Classifier func(h models.Holding) (models.EngineClassification, bool)

// Chain is evaluated in order; the first classifier with an opinion wins.
var Chain = []Classifier{
	ByOverride,
	ByTicker,
	ByAssetType,
	BySector,
}

var tickerEngines = map[string]models.EngineID{
	"QQQ": models.EngineGrowthDuration, "VUG": models.EngineGrowthDuration, "ARKK": models.EngineGrowthDuration,
	"AAPL": models.EngineGrowthDuration, "MSFT": models.EngineGrowthDuration, "NVDA": models.EngineGrowthDuration,
	"AMZN": models.EngineGrowthDuration, "GOOGL": models.EngineGrowthDuration, "META": models.EngineGrowthDuration,
	"TSLA": models.EngineGrowthDuration,

	"VTV": models.EngineValueCyclical, "IWD": models.EngineValueCyclical, "IWM": models.EngineValueCyclical,
	"XLF": models.EngineValueCyclical, "XLI": models.EngineValueCyclical, "JPM": models.EngineValueCyclical,
	"CAT": models.EngineValueCyclical,

	"QUAL": models.EngineQualityDefensive, "USMV": models.EngineQualityDefensive, "XLV": models.EngineQualityDefensive,
	"XLP": models.EngineQualityDefensive, "XLU": models.EngineQualityDefensive, "JNJ": models.EngineQualityDefensive,
	"PG": models.EngineQualityDefensive, "KO": models.EngineQualityDefensive,

	"SCHD": models.EngineDividendIncome, "VYM": models.EngineDividendIncome, "DVY": models.EngineDividendIncome,
	"HDV": models.EngineDividendIncome, "VIG": models.EngineDividendIncome, "O": models.EngineDividendIncome,

	"HYG": models.EngineCreditCarry, "JNK": models.EngineCreditCarry, "LQD": models.EngineCreditCarry,
	"BKLN": models.EngineCreditCarry, "ANGL": models.EngineCreditCarry, "EMB": models.EngineCreditCarry,

	"TLT": models.EngineTreasuryDuration, "IEF": models.EngineTreasuryDuration, "GOVT": models.EngineTreasuryDuration,
	"EDV": models.EngineTreasuryDuration, "ZROZ": models.EngineTreasuryDuration, "VGLT": models.EngineTreasuryDuration,

	"BIL": models.EngineCashTBills, "SGOV": models.EngineCashTBills, "SHV": models.EngineCashTBills,
	"USFR": models.EngineCashTBills, "VMFXX": models.EngineCashTBills, "SPAXX": models.EngineCashTBills,

	"TIP": models.EngineInflationReal, "SCHP": models.EngineInflationReal, "DBC": models.EngineInflationReal,
	"PDBC": models.EngineInflationReal, "XLE": models.EngineInflationReal, "VNQ": models.EngineInflationReal,
	"USO": models.EngineInflationReal,

	"GLD": models.EngineGoldHardMoney, "IAU": models.EngineGoldHardMoney, "SLV": models.EngineGoldHardMoney,
	"GDX": models.EngineGoldHardMoney,

	"IBIT": models.EngineCrypto, "FBTC": models.EngineCrypto, "GBTC": models.EngineCrypto,
	"BITO": models.EngineCrypto, "MSTR": models.EngineCrypto, "COIN": models.EngineCrypto,
	"ETHA": models.EngineCrypto,

	"VXUS": models.EngineInternational, "VEA": models.EngineInternational, "VWO": models.EngineInternational,
	"EFA": models.EngineInternational, "EEM": models.EngineInternational, "IEFA": models.EngineInternational,
}

var assetTypeEngines = map[string]models.EngineID{
	"CASH":           models.EngineCashTBills,
	"MONEY_MARKET":   models.EngineCashTBills,
	"TREASURY":       models.EngineTreasuryDuration,
	"BOND":           models.EngineTreasuryDuration,
	"CORPORATE_BOND": models.EngineCreditCarry,
	"COMMODITY":      models.EngineInflationReal,
	"REIT":           models.EngineDividendIncome,
	"CRYPTO":         models.EngineCrypto,
	"INTERNATIONAL":  models.EngineInternational,
}

type sectorRule struct {
	keywords []string
	engine   models.EngineID
}

// Order matters: "gold" must win over "mining".
var sectorRules = []sectorRule{
	{[]string{"bitcoin", "crypto", "blockchain"}, models.EngineCrypto},
	{[]string{"gold", "precious metal"}, models.EngineGoldHardMoney},
	{[]string{"energy", "oil", "mining", "materials"}, models.EngineInflationReal},
	{[]string{"technology", "software", "semiconductor", "communication", "internet"}, models.EngineGrowthDuration},
	{[]string{"utilities", "consumer defensive", "consumer staples", "healthcare", "health care"}, models.EngineQualityDefensive},
	{[]string{"real estate", "reit"}, models.EngineDividendIncome},
	{[]string{"financial", "industrial", "consumer cyclical", "bank"}, models.EngineValueCyclical},
}

func normalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

func ByOverride(h models.Holding) (models.EngineClassification, bool) {
	if h.EngineOverride == nil || !models.IsValidEngine(*h.EngineOverride) {
		return models.EngineClassification{}, false
	}
	return models.EngineClassification{
		Engine:     *h.EngineOverride,
		Confidence: models.ConfidenceHigh,
		Reason:     "Manual classification",
	}, true
}

func ByTicker(h models.Holding) (models.EngineClassification, bool) {
	t := normalizeTicker(h.Ticker)
	e, ok := tickerEngines[t]
	if !ok {
		return models.EngineClassification{}, false
	}
	return models.EngineClassification{
		Engine:     e,
		Confidence: models.ConfidenceHigh,
		Reason:     fmt.Sprintf("Ticker %s maps to %s", t, models.EngineName(e)),
	}, true
}

func ByAssetType(h models.Holding) (models.EngineClassification, bool) {
	at := strings.ToUpper(strings.TrimSpace(h.AssetType))
	e, ok := assetTypeEngines[at]
	if !ok {
		return models.EngineClassification{}, false
	}
	return models.EngineClassification{
		Engine:     e,
		Confidence: models.ConfidenceMedium,
		Reason:     fmt.Sprintf("Asset type %s defaults to %s", at, models.EngineName(e)),
	}, true
}

func BySector(h models.Holding) (models.EngineClassification, bool) {
	if h.Profile == nil {
		return models.EngineClassification{}, false
	}
	text := strings.ToLower(h.Profile.Sector + " " + h.Profile.Industry)
	for _, r := range sectorRules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return models.EngineClassification{
					Engine:     r.engine,
					Confidence: models.ConfidenceLow,
					Reason:     fmt.Sprintf("Sector keyword %q suggests %s", kw, models.EngineName(r.engine)),
				}, true
			}
		}
	}
	return models.EngineClassification{}, false
}

// GetEngineForHolding runs Chain and falls back to the unclassified engine.
func GetEngineForHolding(h models.Holding) models.EngineClassification {
	for _, classify := range Chain {
		if c, ok := classify(h); ok {
			return c
		}
	}
	return models.EngineClassification{
		Engine:     models.EngineUnclassified,
		Confidence: models.ConfidenceLow,
		Reason:     "No classification rule matched",
	}
}

// HoldingKey identifies a holding within a portfolio.
func HoldingKey(h models.Holding) string {
	t := normalizeTicker(h.Ticker)
	if h.Account == "" {
		return t
	}
	return t + "@" + h.Account
}
