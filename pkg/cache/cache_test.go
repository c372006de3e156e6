package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	in := []point{{"2024-01-02", 4.1}, {"2024-01-03", 4.2}}
	require.NoError(t, mc.Set(ctx, "series:DGS10", in, time.Minute))

	out, err := GetTyped[[]point](ctx, mc, "series:DGS10")
	require.NoError(t, err)
	assert.Equal(t, in, out)

	var s string
	require.NoError(t, mc.Set(ctx, "raw", "hello", 0))
	require.NoError(t, mc.Get(ctx, "raw", &s))
	assert.Equal(t, "hello", s)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mc := NewMemoryCache(WithMemoryClock(func() time.Time { return now }))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "k", 1, time.Minute))
	var v int
	require.NoError(t, mc.Get(ctx, "k", &v))

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, mc.Get(ctx, "k", &v), ErrCacheMiss)
	assert.Equal(t, 0, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	mc := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	}))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "a", 1, time.Hour))
	require.NoError(t, mc.Set(ctx, "b", 2, time.Hour))
	var v int
	require.NoError(t, mc.Get(ctx, "a", &v)) // b is now oldest
	require.NoError(t, mc.Set(ctx, "c", 3, time.Hour))

	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "a", &v))
	assert.NoError(t, mc.Get(ctx, "c", &v))
}

func TestMemoryCacheLock(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	ok, err := mc.TryLock(ctx, "refresh", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = mc.TryLock(ctx, "refresh", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mc.Unlock(ctx, "refresh"))
	ok, _ = mc.TryLock(ctx, "refresh", time.Minute)
	assert.True(t, ok)
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	rc := NewRedisCacheFromClient(db, "mp")
	rc.newToken = func() string { return "tok-1" }

	mock.ExpectSet("mp:series:VIXCLS", []byte(`{"date":"2024-01-02","value":13.2}`), 5*time.Minute).SetVal("OK")
	require.NoError(t, rc.Set(ctx, "series:VIXCLS", point{"2024-01-02", 13.2}, 5*time.Minute))

	mock.ExpectGet("mp:series:VIXCLS").SetVal(`{"date":"2024-01-02","value":13.2}`)
	var p point
	require.NoError(t, rc.Get(ctx, "series:VIXCLS", &p))
	assert.Equal(t, 13.2, p.Value)

	mock.ExpectGet("mp:missing").RedisNil()
	assert.ErrorIs(t, rc.Get(ctx, "missing", &p), ErrCacheMiss)

	mock.ExpectSetNX("mp:lock:refresh", "tok-1", time.Minute).SetVal(true)
	ok, err := rc.TryLock(ctx, "lock:refresh", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectEval(unlockScript, []string{"mp:lock:refresh"}, "tok-1").SetVal(int64(1))
	require.NoError(t, rc.Unlock(ctx, "lock:refresh"))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheUnlockOnlyOwnLock(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	rc := NewRedisCacheFromClient(db, "mp")
	rc.newToken = func() string { return "tok-2" }

	mock.ExpectSetNX("mp:refresh:dashboards", "tok-2", time.Minute).SetVal(false)
	ok, err := rc.TryLock(ctx, "refresh:dashboards", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// never acquired, so nothing reaches Redis
	require.NoError(t, rc.Unlock(ctx, "refresh:dashboards"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLayeredCacheBackfillsMemory(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	lc := NewLayeredCache(NewRedisCacheFromClient(db, "mp"), WithLayeredBackfillTTL(time.Minute))
	defer lc.Close()

	mock.ExpectGet("mp:dashboard:default").SetVal(`{"date":"2024-01-02","value":1}`)

	var p point
	require.NoError(t, lc.Get(ctx, "dashboard:default", &p))
	assert.Equal(t, 1.0, p.Value)

	// second read is served from L1; no further Redis expectation
	var again point
	require.NoError(t, lc.Get(ctx, "dashboard:default", &again))
	assert.Equal(t, p, again)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "dashboard:default", Key("dashboard", "default"))
	assert.Equal(t, "series:DGS10:2020-01-01", Key("series", "DGS10", "2020-01-01"))
	assert.Equal(t, "queue:3", Key("queue", 3))
}
