package fred

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"MacroPulse/internal/service/breaker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchParsesObservations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/series/observations", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "BAMLH0A0HYM2", q.Get("series_id"))
		assert.Equal(t, "key", q.Get("api_key"))
		assert.Equal(t, "json", q.Get("file_type"))
		assert.Equal(t, "2020-01-01", q.Get("observation_start"))
		_, _ = w.Write([]byte(`{"observations":[
			{"date":"2020-01-03","value":"3.60"},
			{"date":"2020-01-01","value":"."},
			{"date":"2020-01-02","value":"3.55"}
		]}`))
	}))
	defer srv.Close()

	c := New("key", srv.URL, WithRateLimit(1000, 10))
	s, err := c.Fetch(context.Background(), "BAMLH0A0HYM2", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, "2020-01-02", s[0].DateString)
	assert.Equal(t, 3.60, s[1].Value)
}

func TestFetchWithoutKey(t *testing.T) {
	_, err := New("", "http://unused").Fetch(context.Background(), "DGS10", time.Now())
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestFetchBreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New("key", srv.URL,
		WithRateLimit(1000, 10),
		WithBreaker(breaker.New("fred-test", 2, time.Minute, nil)),
	)
	for i := 0; i < 4; i++ {
		_, err := c.Fetch(context.Background(), "DGS10", time.Now())
		require.Error(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}
