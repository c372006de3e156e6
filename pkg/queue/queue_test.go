package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"MacroPulse/pkg/logger"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type refreshPayload struct {
	PortfolioID string `json:"portfolio_id"`
}

type stubJob struct {
	err   error
	calls []string
}

func (j *stubJob) Name() string { return "stub" }
func (j *stubJob) Type() string { return "dashboard.refresh" }
func (j *stubJob) Handle(_ context.Context, payload []byte) error {
	p, err := ParsePayload[refreshPayload](payload)
	if err != nil {
		return err
	}
	j.calls = append(j.calls, p.PortfolioID)
	return j.err
}

var fixedNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func newTestQueue(t *testing.T, job Job) (*RedisQueue, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	q := NewRedisQueue(logger.Nop(), client, WithRetry(2, time.Minute), WithKeyPrefix("test:queue"))
	q.newID = func() string { return "msg-1" }
	q.now = func() time.Time { return fixedNow }
	if job != nil {
		q.RegisterJob(job)
	}
	return q, mock
}

func encodeMessage(t *testing.T, msg Message) []byte {
	t.Helper()
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	return b
}

func TestEnqueuePushesEnvelope(t *testing.T) {
	q, mock := newTestQueue(t, &stubJob{})
	q.isRunning = true

	want := encodeMessage(t, Message{
		ID:        "msg-1",
		Type:      "dashboard.refresh",
		Payload:   json.RawMessage(`{"portfolio_id":"ira"}`),
		Timestamp: fixedNow,
	})
	mock.ExpectLPush("test:queue:messages", want).SetVal(1)

	require.NoError(t, q.Enqueue(context.Background(), "dashboard.refresh", refreshPayload{PortfolioID: "ira"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnqueueRejects(t *testing.T) {
	q, _ := newTestQueue(t, &stubJob{})

	err := q.Enqueue(context.Background(), "dashboard.refresh", nil)
	assert.ErrorIs(t, err, ErrNotRunning)

	q.isRunning = true
	err = q.Enqueue(context.Background(), "unknown", nil)
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestProcessSuccess(t *testing.T) {
	job := &stubJob{}
	q, mock := newTestQueue(t, job)

	ok := q.process(context.Background(), Message{ID: "m", Type: "dashboard.refresh", Payload: json.RawMessage(`{"portfolio_id":"default"}`)})
	assert.True(t, ok)
	assert.Equal(t, []string{"default"}, job.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessFailureSchedulesRetry(t *testing.T) {
	job := &stubJob{err: errors.New("fred down")}
	q, mock := newTestQueue(t, job)

	msg := Message{ID: "m", Type: "dashboard.refresh", Payload: json.RawMessage(`{"portfolio_id":"ira"}`)}
	retried := msg
	retried.Attempts = 1
	mock.ExpectZAdd("test:queue:retry", redis.Z{
		Score:  float64(fixedNow.Add(time.Minute).Unix()),
		Member: encodeMessage(t, retried),
	}).SetVal(1)

	assert.False(t, q.process(context.Background(), msg))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessFailureAfterLimitDeadLetters(t *testing.T) {
	job := &stubJob{err: errors.New("fred down")}
	q, mock := newTestQueue(t, job)

	msg := Message{ID: "m", Type: "dashboard.refresh", Payload: json.RawMessage(`{"portfolio_id":"ira"}`), Attempts: 2}
	mock.ExpectLPush("test:queue:dlq", encodeMessage(t, msg)).SetVal(1)

	assert.False(t, q.process(context.Background(), msg))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessUnknownTypeDeadLetters(t *testing.T) {
	q, mock := newTestQueue(t, nil)

	msg := Message{ID: "m", Type: "nope"}
	mock.ExpectLPush("test:queue:dlq", encodeMessage(t, msg)).SetVal(1)

	assert.False(t, q.process(context.Background(), msg))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveDueRetries(t *testing.T) {
	q, mock := newTestQueue(t, nil)

	mock.ExpectZRangeByScore("test:queue:retry", &redis.ZRangeBy{
		Min: "0",
		Max: "1792056600",
	}).SetVal([]string{"payload-a"})
	mock.ExpectTxPipeline()
	mock.ExpectZRem("test:queue:retry", "payload-a").SetVal(1)
	mock.ExpectLPush("test:queue:messages", "payload-a").SetVal(1)
	mock.ExpectTxPipelineExec()

	assert.Equal(t, 1, q.moveDueRetries(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterJobIgnoresDuplicates(t *testing.T) {
	first := &stubJob{}
	q, _ := newTestQueue(t, first)
	q.RegisterJob(&stubJob{})

	assert.Same(t, first, q.jobs["dashboard.refresh"])
}

func TestStartStop(t *testing.T) {
	client, _ := redismock.NewClientMock()
	q := NewRedisQueue(logger.Nop(), client, WithWorkers(2))
	q.config.PollInterval = time.Hour

	require.NoError(t, q.Start())
	assert.Error(t, q.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Stop(ctx))
	require.NoError(t, q.Stop(ctx))
}
