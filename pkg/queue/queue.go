package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Enqueuer accepts messages for asynchronous processing.
type Enqueuer interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) error
}

// Config tunes the workers and retry schedule.
type Config struct {
	Workers      int           // number of workers
	RetryLimit   int           // retries before a message moves to the dead-letter list
	RetryDelay   time.Duration // delay before a failed message is retried
	PollInterval time.Duration // how often due retries are moved back to the queue
	Prefix       string
}

// Message is the envelope stored in Redis.
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	Timestamp time.Time       `json:"timestamp"`
}

// ParsePayload decodes a job payload into T.
func ParsePayload[T any](payload []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &result, nil
}
