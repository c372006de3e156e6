package logger

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

// Publisher ships a digest batch. *kafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

type DigestConfig struct {
	Service        string
	FlushInterval  time.Duration // e.g. 30s
	CountThreshold int           // unique entries before an early flush
	Topic          string
	Publisher      Publisher
}

// DigestEntry is one deduplicated error line with its repeat count.
type DigestEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// DigestBatch is the payload published on every flush.
type DigestBatch struct {
	Service   string        `json:"service"`
	FlushedAt time.Time     `json:"flushed_at"`
	Entries   []DigestEntry `json:"entries"`
}

// ErrorDigest folds repeated error logs into counted entries and publishes
// them periodically, so a failing upstream produces one event per interval
// instead of one per refresh.
type ErrorDigest struct {
	config  *DigestConfig
	entries map[string]*DigestEntry
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewErrorDigest(config *DigestConfig) *ErrorDigest {
	if config.FlushInterval <= 0 {
		config.FlushInterval = 30 * time.Second
	}
	if config.CountThreshold <= 0 {
		config.CountThreshold = 100
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &ErrorDigest{
		config:  config,
		entries: make(map[string]*DigestEntry),
		ctx:     ctx,
		cancel:  cancel,
	}

	d.wg.Add(1)
	go d.loop()

	return d
}

func (d *ErrorDigest) Add(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := digestKey(level, message, fields, caller)

	d.mu.Lock()
	defer d.mu.Unlock()

	if entry, ok := d.entries[key]; ok {
		entry.Count++
		entry.LastSeen = now
	} else {
		d.entries[key] = &DigestEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}

	if len(d.entries) >= d.config.CountThreshold {
		d.flushLocked()
	}
}

// Pending returns the number of unique entries awaiting flush.
func (d *ErrorDigest) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

func digestKey(level, message string, fields map[string]interface{}, caller string) string {
	data := struct {
		Level   string                 `json:"level"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields"`
		Caller  string                 `json:"caller"`
	}{level, message, fields, caller}

	raw, _ := json.Marshal(data)
	return fmt.Sprintf("%x", sha256.Sum256(raw))
}

func (d *ErrorDigest) loop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.mu.Lock()
			d.flushLocked()
			d.mu.Unlock()
		case <-d.ctx.Done():
			d.mu.Lock()
			batch := d.takeLocked()
			d.mu.Unlock()
			if batch != nil {
				d.publish(batch)
			}
			return
		}
	}
}

func (d *ErrorDigest) takeLocked() *DigestBatch {
	if len(d.entries) == 0 {
		return nil
	}
	entries := make([]DigestEntry, 0, len(d.entries))
	for _, e := range d.entries {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].FirstSeen.Before(entries[j].FirstSeen)
	})
	d.entries = make(map[string]*DigestEntry)
	return &DigestBatch{Service: d.config.Service, FlushedAt: time.Now().UTC(), Entries: entries}
}

func (d *ErrorDigest) flushLocked() {
	batch := d.takeLocked()
	if batch == nil {
		return
	}
	go d.publish(batch)
}

func (d *ErrorDigest) publish(batch *DigestBatch) {
	if d.config.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.config.Publisher.Publish(ctx, d.config.Topic, []byte(d.config.Service), batch); err != nil {
		// The logger itself feeds this digest; write straight to stderr.
		fmt.Fprintf(os.Stderr, "error digest publish failed: %v\n", err)
	}
}

// Close stops the flush loop after a final synchronous flush.
func (d *ErrorDigest) Close() {
	d.cancel()
	d.wg.Wait()
}
