package queue

import "context"

// Job handles one message type.
type Job interface {
	// Name identifies the job in logs.
	Name() string

	// Type is the message type routed to this job.
	Type() string

	// Handle processes one payload. Returning an error schedules a retry.
	Handle(ctx context.Context, payload []byte) error
}
