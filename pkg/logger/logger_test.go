package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	batches []*DigestBatch
}

func (p *capturePublisher) Publish(_ context.Context, _ string, _ []byte, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, value.(*DigestBatch))
	return nil
}

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf).With(String("component", "fred"))

	l.Info("fetched", Int("points", 12), Float64("latest", 4.25), Bool("cached", false))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "fred", line["component"])
	assert.Equal(t, "fetched", line["message"])
	assert.EqualValues(t, 12, line["points"])
	assert.EqualValues(t, 4.25, line["latest"])
	assert.Equal(t, false, line["cached"])
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Info("x")
		l.Warn("x")
		l.Error("x", Error(errors.New("boom")))
		l.Debug("x")
		assert.Nil(t, l.With(String("k", "v")))
	})
}

func TestErrorDigestDeduplicates(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AttachDigest(&DigestConfig{
		Service:        "macropulse",
		FlushInterval:  time.Hour,
		CountThreshold: 100,
		Topic:          "macropulse.errors",
		Publisher:      pub,
	})

	for i := 0; i < 3; i++ {
		l.Error("series fetch failed", String("series_id", "DGS10"))
	}
	l.Error("series fetch failed", String("series_id", "VIXCLS"))
	assert.Equal(t, 2, l.collector.Pending())

	l.DetachDigest()

	require.Len(t, pub.batches, 1)
	batch := pub.batches[0]
	assert.Equal(t, "macropulse", batch.Service)
	require.Len(t, batch.Entries, 2)
	assert.Equal(t, 3, batch.Entries[0].Count)
	assert.Equal(t, "DGS10", batch.Entries[0].Fields["series_id"])
	assert.Equal(t, 1, batch.Entries[1].Count)
}

func TestWarnDoesNotFeedDigest(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AttachDigest(&DigestConfig{FlushInterval: time.Hour, Publisher: pub})
	l.Warn("slow")
	assert.Equal(t, 0, l.collector.Pending())
	l.DetachDigest()
	assert.Empty(t, pub.batches)
}
