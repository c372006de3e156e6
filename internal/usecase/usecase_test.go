package usecase

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
	"MacroPulse/internal/repository"
	"MacroPulse/internal/service/blockchain"
	"MacroPulse/internal/services/bitcoin"
	"MacroPulse/internal/services/breadth"
	"MacroPulse/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

type mapProvider struct {
	mu     sync.Mutex
	series map[string]models.Series
	calls  map[string]int
}

func newMapProvider(series map[string]models.Series) *mapProvider {
	return &mapProvider{series: series, calls: map[string]int{}}
}

func (p *mapProvider) Series(_ context.Context, id string, _ time.Time) models.Series {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[id]++
	return p.series[id]
}

// daily builds a wavy daily series ending at testNow.
func daily(days int, base, drift float64) models.Series {
	start := testNow.AddDate(0, 0, -days)
	out := make(models.Series, 0, days+1)
	for i := 0; i <= days; i++ {
		v := base + drift*float64(i) + math.Sin(float64(i)/9)*base*0.01
		out = append(out, models.ObservationAt(start.AddDate(0, 0, i), v))
	}
	return out
}

func fullSet() map[string]models.Series {
	set := map[string]models.Series{}
	for _, id := range SeriesIDs() {
		set[id] = daily(1100, 100, 0.01)
	}
	set["BAMLH0A0HYM2"] = daily(1100, 3.5, 0)
	set["T10Y2Y"] = daily(1100, 0.4, 0)
	set["VIXCLS"] = daily(1100, 15, 0)
	set["DFF"] = daily(1100, 5.3, 0)
	set["SOFR"] = daily(1100, 5.3, 0)
	set["EFFR"] = daily(1100, 5.3, 0)
	set["TEDRATE"] = daily(1100, 0.2, 0)
	set["DTB3"] = daily(1100, 5.2, 0)
	set["DCPF3M"] = daily(1100, 5.4, 0)
	set["NFCI"] = daily(1100, -0.5, 0)
	set[breadth.SeriesPctAbove200] = daily(400, 65, 0)
	set[breadth.SeriesNetHighLow] = daily(400, 50, 0)
	set[bitcoin.SeriesPrice] = daily(400, 30000, 50)
	return set
}

func newTestDashboard(p domrepo.SeriesProvider, ports *PortfolioUseCase) *DashboardUseCase {
	cfg := DefaultDashboardConfig()
	cfg.Concurrency = 4
	uc := NewDashboardUseCase(p, ports, nil, cfg, nil)
	uc.now = func() time.Time { return testNow }
	return uc
}

func TestSeriesIDsAreUnique(t *testing.T) {
	ids := SeriesIDs()
	seen := map[string]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
	assert.True(t, seen["VIXCLS"])
	assert.True(t, seen[bitcoin.SeriesPrice])
}

func TestBuildWithNoDataOmitsSections(t *testing.T) {
	uc := newTestDashboard(newMapProvider(nil), nil)

	d, err := uc.Build(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, d.Regime)
	assert.Nil(t, d.Alert)
	assert.Nil(t, d.Tilt)
	assert.Nil(t, d.Microstress)
	assert.Nil(t, d.Breadth)
	assert.Nil(t, d.Bitcoin)
	assert.Nil(t, d.MSTR)
	assert.Nil(t, d.Portfolio)
	assert.Equal(t, models.LevelGreen, d.FinalLevel())
	assert.Len(t, d.Fetches, len(SeriesIDs())+1)
	assert.Equal(t, testNow, d.GeneratedAt)
}

type latencyRecorder struct {
	mu        sync.Mutex
	latencies map[string]float64
}

func (r *latencyRecorder) RecordFetch(string, string, int, time.Duration, error) {}
func (r *latencyRecorder) RecordError(string)                                    {}
func (r *latencyRecorder) RecordLevel(string, int)                               {}
func (r *latencyRecorder) RecordCache(string, bool)                              {}
func (r *latencyRecorder) RecordLatency(op string, seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latencies[op] = seconds
}

func TestBuildMeasuresDurationOnInjectedClock(t *testing.T) {
	rec := &latencyRecorder{latencies: map[string]float64{}}
	uc := NewDashboardUseCase(newMapProvider(nil), nil, rec, DefaultDashboardConfig(), nil)

	var started atomic.Bool
	uc.now = func() time.Time {
		if started.CompareAndSwap(false, true) {
			return testNow
		}
		return testNow.Add(3 * time.Second)
	}

	d, err := uc.Build(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, testNow, d.GeneratedAt)
	assert.Equal(t, 3.0, rec.latencies["dashboard_build"])
}

func TestBuildFallsBackToBlockchainPrice(t *testing.T) {
	p := newMapProvider(map[string]models.Series{
		blockchain.SeriesMarketPrice: daily(400, 30000, 50),
	})
	uc := newTestDashboard(p, nil)

	d, err := uc.Build(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, d.Bitcoin)
	require.NotNil(t, d.MSTR)
	assert.Nil(t, d.Regime)
	assert.Equal(t, 1, p.calls[blockchain.SeriesMarketPrice])
}

func TestBuildSkipsFallbackWhenFREDHasPrice(t *testing.T) {
	p := newMapProvider(map[string]models.Series{
		bitcoin.SeriesPrice: daily(400, 30000, 50),
	})
	uc := newTestDashboard(p, nil)

	_, err := uc.Build(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, p.calls[blockchain.SeriesMarketPrice])
}

func TestBuildFullPipeline(t *testing.T) {
	store := repository.NewMemoryPortfolioStore()
	require.NoError(t, store.Save(context.Background(), &models.Portfolio{
		ID: "default",
		Holdings: []models.Holding{
			{Ticker: "SCHD", WeightPct: 50},
			{Ticker: "GLD", WeightPct: 50},
		},
	}))
	uc := newTestDashboard(newMapProvider(fullSet()), NewPortfolioUseCase(store, nil))

	d, err := uc.Build(context.Background(), "default")
	require.NoError(t, err)

	require.NotNil(t, d.Regime)
	require.NotNil(t, d.Alert)
	require.NotNil(t, d.Alert.Gating, "microstress gating applied")
	require.NotNil(t, d.Tilt)
	assert.Equal(t, d.Alert.Level, d.Tilt.Level)
	require.NotNil(t, d.Microstress)
	require.NotNil(t, d.Breadth)
	require.NotNil(t, d.Bitcoin)
	require.NotNil(t, d.MSTR)
	require.NotNil(t, d.Portfolio)
	assert.Equal(t, "default", d.Portfolio.PortfolioID)
	assert.Empty(t, d.Errors)
	assert.Equal(t, models.BreadthConfirms, d.Breadth.Signal)
	assert.Equal(t, "Market breadth confirms regime", d.Regime.Reasons[len(d.Regime.Reasons)-1])
}

func TestBuildIsDeterministic(t *testing.T) {
	uc := newTestDashboard(newMapProvider(fullSet()), nil)
	a, err := uc.Build(context.Background(), "")
	require.NoError(t, err)
	b, err := uc.Build(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildUnknownPortfolio(t *testing.T) {
	uc := newTestDashboard(newMapProvider(nil), NewPortfolioUseCase(repository.NewMemoryPortfolioStore(), nil))

	d, err := uc.Build(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, d.Portfolio)
	assert.Contains(t, d.Errors["portfolio"], "not found")
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	uc := newTestDashboard(newMapProvider(nil), nil)

	_, err := uc.Build(ctx, "")
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetchLogRecordsSorted(t *testing.T) {
	log := NewFetchLog()
	log.Record("WALCL", testNow, 10)
	log.Record("DFF", testNow, 3)
	log.Record("WALCL", testNow.Add(time.Minute), 11)

	recs := log.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "DFF", recs[0].SeriesID)
	assert.Equal(t, 11, recs[1].Points)
}

type countingBuilder struct {
	calls int
}

func (b *countingBuilder) Build(_ context.Context, id string) (*models.Dashboard, error) {
	b.calls++
	return &models.Dashboard{GeneratedAt: testNow, Alert: &models.AlertInfo{Level: models.LevelYellow}}, nil
}

func TestDashboardCacheServesCachedCopy(t *testing.T) {
	b := &countingBuilder{}
	mem := cache.NewMemoryCache()
	defer mem.Close()
	dc := NewDashboardCache(b, mem, time.Minute, nil)

	first, err := dc.Get(context.Background(), "default", false)
	require.NoError(t, err)
	second, err := dc.Get(context.Background(), "default", false)
	require.NoError(t, err)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, first.FinalLevel(), second.FinalLevel())

	_, err = dc.Get(context.Background(), "default", true)
	require.NoError(t, err)
	assert.Equal(t, 2, b.calls)
}
