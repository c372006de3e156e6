package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordFetch("fred", "DGS10", 120, 50*time.Millisecond, nil)
	r.RecordFetch("fred", "VIXCLS", 0, 10*time.Millisecond, nil)
	r.RecordFetch("fred", "T10Y2Y", 0, time.Second, errors.New("timeout"))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchTotal.WithLabelValues("fred", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchTotal.WithLabelValues("fred", "empty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchTotal.WithLabelValues("fred", "error")))
	assert.Equal(t, 120.0, testutil.ToFloat64(r.seriesPoints.WithLabelValues("DGS10")))

	r.RecordLevel("alert", 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.signalLevel.WithLabelValues("alert")))

	r.RecordCache("series", true)
	r.RecordCache("series", false)
	r.RecordCache("series", true)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.cacheTotal.WithLabelValues("series", "hit")))

	r.RecordError("fetch")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("fetch")))
}

func TestRecordersOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
