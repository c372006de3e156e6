package di

import (
	"context"
	"errors"
	"testing"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
	internalrepo "MacroPulse/internal/repository"
	"MacroPulse/internal/usecase"
	"MacroPulse/pkg/cache"
	"MacroPulse/pkg/config"
	applogger "MacroPulse/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const seedYAML = `
holdings:
  - ticker: QQQ
    account: taxable
    weight_pct: 40
  - ticker: GLD
    weight_pct: 10
    engine: GOLD_HARD_MONEY
  - ticker: XOM
    weight_pct: 20
    sector: Energy
    industry: Oil & Gas Integrated
targets:
  GROWTH_DURATION: {min_pct: 20, target_pct: 30, max_pct: 40}
`

func loadSeed(t *testing.T, doc string) config.PortfolioSeed {
	t.Helper()
	var seed config.PortfolioSeed
	require.NoError(t, yaml.Unmarshal([]byte(doc), &seed))
	return seed
}

func TestPortfolioFromSeed(t *testing.T) {
	p := PortfolioFromSeed("main", loadSeed(t, seedYAML))

	assert.Equal(t, "main", p.ID)
	require.Len(t, p.Holdings, 3)
	assert.Nil(t, p.Holdings[0].EngineOverride)
	assert.Nil(t, p.Holdings[0].Profile)
	require.NotNil(t, p.Holdings[1].EngineOverride)
	assert.Equal(t, models.EngineGoldHardMoney, *p.Holdings[1].EngineOverride)
	require.NotNil(t, p.Holdings[2].Profile)
	assert.Equal(t, "Energy", p.Holdings[2].Profile.Sector)
	assert.Equal(t, models.TargetBand{MinPct: 20, TargetPct: 30, MaxPct: 40}, p.Targets[models.EngineGrowthDuration])
}

func TestSeedPortfoliosKeepsStoredPortfolios(t *testing.T) {
	ctx := context.Background()
	store := internalrepo.NewMemoryPortfolioStore()
	uc := usecase.NewPortfolioUseCase(store, applogger.Nop())

	edited := &models.Portfolio{ID: "main", Holdings: []models.Holding{{Ticker: "TLT", WeightPct: 100}}}
	require.NoError(t, store.Save(ctx, edited))

	seeds := map[string]config.PortfolioSeed{
		"main": loadSeed(t, seedYAML),
		"ira":  loadSeed(t, seedYAML),
	}
	require.NoError(t, SeedPortfolios(ctx, uc, seeds))

	main, err := store.Get(ctx, "main")
	require.NoError(t, err)
	require.Len(t, main.Holdings, 1)
	assert.Equal(t, "TLT", main.Holdings[0].Ticker)

	ira, err := store.Get(ctx, "ira")
	require.NoError(t, err)
	assert.Len(t, ira.Holdings, 3)
}

func TestSeedPortfoliosRejectsUnknownEngine(t *testing.T) {
	seeds := map[string]config.PortfolioSeed{
		"bad": loadSeed(t, "holdings:\n  - ticker: ABC\n    weight_pct: 5\n    engine: MOONSHOT\n"),
	}
	uc := usecase.NewPortfolioUseCase(internalrepo.NewMemoryPortfolioStore(), applogger.Nop())

	err := SeedPortfolios(context.Background(), uc, seeds)
	require.Error(t, err)
	assert.True(t, errors.Is(err, usecase.ErrInvalidPortfolio))
}

func TestProvideDashboardConfigAppliesOverrides(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	hy := 7.25
	nfci := 0.8
	vol := 90.0
	cfg.Thresholds.Alerts.HYOASRed = &hy
	cfg.Thresholds.Microstress.NFCIStress = &nfci
	cfg.Thresholds.Bitcoin.HighVolPct = &vol
	cfg.Refresh.Concurrency = 3

	dc := ProvideDashboardConfig(cfg)
	def := usecase.DefaultDashboardConfig()

	assert.Equal(t, 7.25, dc.Alerts.HYOASRed)
	assert.Equal(t, def.Alerts.HYOASYellow, dc.Alerts.HYOASYellow)
	assert.Equal(t, 0.8, dc.Microstress.NFCIStress)
	assert.Equal(t, def.Microstress.NFCICaution, dc.Microstress.NFCICaution)
	assert.Equal(t, 90.0, dc.Bitcoin.HighVolPct)
	assert.Equal(t, def.Bitcoin.WeakMomentumPct, dc.Bitcoin.WeakMomentumPct)
	assert.Equal(t, 3, dc.Concurrency)
	assert.Equal(t, cfg.FRED.HistoryYears, dc.HistoryYears)
}

func TestProvidersWithoutOptionalBackends(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	l := applogger.Nop()

	c := ProvideCache(cfg, nil)
	_, isMemory := c.(*cache.MemoryCache)
	assert.True(t, isMemory)

	ch, err := ProvideClickHouseClient(cfg)
	require.NoError(t, err)
	assert.Nil(t, ch)

	store, err := ProvideObservationStore(cfg, nil, l)
	require.NoError(t, err)
	assert.Nil(t, store)

	p, err := ProvideKafkaProducer(cfg)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.IsType(t, internalrepo.NoopEventPublisher{}, ProvideEventPublisher(cfg, nil, l))

	consumer, err := ProvideKafkaConsumer(cfg, l)
	require.NoError(t, err)
	assert.Nil(t, consumer)

	assert.Nil(t, ProvideIngestUseCase(cfg, nil, nil, l))
	assert.Nil(t, ProvideRefreshQueue(cfg, nil, l))
	assert.Empty(t, ProvideHealthChecks(nil, nil))
	assert.IsType(t, &internalrepo.MemoryPortfolioStore{}, ProvidePortfolioStore(cfg, nil))
}

func TestProvideBlockchainClientDisabled(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Blockchain.Enabled = false
	assert.Nil(t, ProvideBlockchainClient(cfg, applogger.Nop()))
}

var _ domrepo.PortfolioStore = (*internalrepo.MemoryPortfolioStore)(nil)
