package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"MacroPulse/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrNotRunning = errors.New("queue not running")
	ErrUnknownJob = errors.New("no job registered for type")
)

// RedisQueue is a list-backed work queue. Failed messages wait in a sorted
// set until their retry time, then move to a dead-letter list once the
// retry limit is spent.
type RedisQueue struct {
	logger *logger.Logger
	config Config
	client redis.UniversalClient
	jobs   map[string]Job

	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc

	newID func() string
	now   func() time.Time
}

// Option configures RedisQueue.
type Option func(*Config)

func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}

// WithRetry sets how often and how long after a failure a message is retried.
func WithRetry(limit int, delay time.Duration) Option {
	return func(c *Config) {
		c.RetryLimit = limit
		c.RetryDelay = delay
	}
}

// WithKeyPrefix sets custom key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *Config) { c.Prefix = prefix }
}

// NewRedisQueue creates a queue on client. Jobs must be registered before Start.
func NewRedisQueue(lgr *logger.Logger, client redis.UniversalClient, opts ...Option) *RedisQueue {
	cfg := Config{
		Workers:      1,
		RetryLimit:   3,
		RetryDelay:   10 * time.Second,
		PollInterval: 5 * time.Second,
		Prefix:       "macropulse:queue",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	return &RedisQueue{
		logger: lgr,
		config: cfg,
		client: client,
		jobs:   make(map[string]Job),
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// RegisterJob routes messages of job.Type() to job.
func (r *RedisQueue) RegisterJob(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.Type()]; exists {
		r.logger.Warn("job already registered", logger.String("job", job.Name()))
		return
	}
	r.jobs[job.Type()] = job
	r.logger.Info("job registered", logger.String("job", job.Name()), logger.String("type", job.Type()))
}

// Start launches the workers and the retry mover.
func (r *RedisQueue) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		return fmt.Errorf("queue already running")
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.isRunning = true

	for i := 0; i < r.config.Workers; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
	r.wg.Add(1)
	go r.retryProcessor()

	r.logger.Info("redis queue started",
		logger.Int("workers", r.config.Workers),
		logger.Int("jobs", len(r.jobs)),
	)
	return nil
}

// Stop cancels the workers and waits for in-flight jobs.
func (r *RedisQueue) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	r.cancel()
	r.mu.Unlock()

	doneCh := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(doneCh)
	}()

	select {
	case <-ctx.Done():
		r.logger.Warn("timeout waiting for queue workers", logger.Error(ctx.Err()))
		return fmt.Errorf("timeout: %w", ctx.Err())
	case <-doneCh:
		r.logger.Info("redis queue stopped")
		return nil
	}
}

// Enqueue adds a message to the queue.
func (r *RedisQueue) Enqueue(ctx context.Context, msgType string, payload interface{}) error {
	r.mu.RLock()
	running := r.isRunning
	_, known := r.jobs[msgType]
	r.mu.RUnlock()

	if !running {
		return ErrNotRunning
	}
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownJob, msgType)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	msgData, err := json.Marshal(Message{
		ID:        r.newID(),
		Type:      msgType,
		Payload:   raw,
		Timestamp: r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := r.client.LPush(ctx, r.queueKey(), msgData).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}
	return nil
}

func (r *RedisQueue) worker(id int) {
	defer r.wg.Done()
	r.logger.Debug("queue worker started", logger.Int("worker_id", id))

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("queue worker stopping", logger.Int("worker_id", id))
			return
		default:
			r.processNext()
		}
	}
}

func (r *RedisQueue) processNext() {
	result, err := r.client.BRPop(r.ctx, time.Second, r.queueKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		r.logger.Error("brpop error", logger.Error(err))
		select {
		case <-time.After(time.Second):
		case <-r.ctx.Done():
		}
		return
	}
	if len(result) < 2 {
		return
	}

	var msg Message
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		r.logger.Error("unmarshal message", logger.Error(err))
		return
	}
	r.process(r.ctx, msg)
}

// process runs the job for msg and schedules a retry or dead-letters it on
// failure. It reports whether the job succeeded.
func (r *RedisQueue) process(ctx context.Context, msg Message) bool {
	r.mu.RLock()
	job, exists := r.jobs[msg.Type]
	r.mu.RUnlock()

	if !exists {
		r.logger.Error("no job found", logger.String("type", msg.Type), logger.String("id", msg.ID))
		r.deadLetter(ctx, msg)
		return false
	}

	start := time.Now()
	err := job.Handle(ctx, msg.Payload)
	if err == nil {
		r.logger.Debug("job done",
			logger.String("id", msg.ID),
			logger.String("job", job.Name()),
			logger.Duration("elapsed_ms", time.Since(start)),
		)
		return true
	}
	if errors.Is(err, context.Canceled) {
		r.logger.Warn("job cancelled", logger.String("id", msg.ID), logger.String("job", job.Name()))
		return false
	}

	r.logger.Error("job failed",
		logger.String("id", msg.ID),
		logger.String("job", job.Name()),
		logger.Int("attempt", msg.Attempts+1),
		logger.Error(err),
	)
	if msg.Attempts < r.config.RetryLimit {
		msg.Attempts++
		r.scheduleRetry(ctx, msg, r.now().Add(r.config.RetryDelay))
	} else {
		r.logger.Error("max retries reached", logger.String("id", msg.ID), logger.String("job", job.Name()))
		r.deadLetter(ctx, msg)
	}
	return false
}

func (r *RedisQueue) scheduleRetry(ctx context.Context, msg Message, at time.Time) {
	msgData, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("marshal retry", logger.Error(err))
		return
	}
	err = r.client.ZAdd(context.WithoutCancel(ctx), r.retryKey(), redis.Z{
		Score:  float64(at.Unix()),
		Member: msgData,
	}).Err()
	if err != nil {
		r.logger.Error("zadd retry", logger.Error(err))
	}
}

func (r *RedisQueue) deadLetter(ctx context.Context, msg Message) {
	msgData, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("marshal dlq", logger.Error(err))
		return
	}
	if err := r.client.LPush(context.WithoutCancel(ctx), r.deadLetterKey(), msgData).Err(); err != nil {
		r.logger.Error("lpush dlq", logger.Error(err))
	}
}

func (r *RedisQueue) retryProcessor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.moveDueRetries(r.ctx)
		}
	}
}

// moveDueRetries pushes every retry whose time has come back onto the queue.
func (r *RedisQueue) moveDueRetries(ctx context.Context) int {
	due, err := r.client.ZRangeByScore(ctx, r.retryKey(), &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatInt(r.now().Unix(), 10),
	}).Result()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.Error("fetch retry messages", logger.Error(err))
		}
		return 0
	}

	moved := 0
	for _, member := range due {
		if ctx.Err() != nil {
			return moved
		}
		pipe := r.client.TxPipeline()
		pipe.ZRem(ctx, r.retryKey(), member)
		pipe.LPush(ctx, r.queueKey(), member)
		if _, err := pipe.Exec(ctx); err != nil {
			r.logger.Error("move retry to queue", logger.Error(err))
			continue
		}
		moved++
	}
	return moved
}

func (r *RedisQueue) queueKey() string {
	return fmt.Sprintf("%s:messages", r.config.Prefix)
}

func (r *RedisQueue) retryKey() string {
	return fmt.Sprintf("%s:retry", r.config.Prefix)
}

func (r *RedisQueue) deadLetterKey() string {
	return fmt.Sprintf("%s:dlq", r.config.Prefix)
}
