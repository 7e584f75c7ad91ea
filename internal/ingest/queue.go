package ingest

import "context"

// Delivery policy shared by all queue backends.
const (
	MaxAttempts = 3
	// BaseBackoff is the delay before the second attempt; it doubles per
	// subsequent attempt.
	BaseBackoff = 5 // seconds
)

// Queue accepts ingestion jobs for at-least-once asynchronous processing.
type Queue interface {
	Enqueue(ctx context.Context, job Job) (jobID string, err error)
	Shutdown(ctx context.Context)
}

// Handler processes a single delivery attempt of a job.
type Handler interface {
	Process(ctx context.Context, job Job) error
}

// ExhaustedFunc is invoked once per job after the final failed attempt.
type ExhaustedFunc func(ctx context.Context, job Job, lastErr error)
