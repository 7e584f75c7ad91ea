package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"contadoc-backend/internal/shared/telemetry"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("ingestion queue is shut down")

// MemoryQueue runs ingestion jobs on in-process worker goroutines. Each job
// gets up to MaxAttempts attempts with exponential backoff between them;
// jobs for different documents run in parallel with no ordering guarantee.
type MemoryQueue struct {
	handler   Handler
	exhausted ExhaustedFunc

	workers        int
	maxAttempts    int
	baseBackoff    time.Duration
	attemptTimeout time.Duration

	ch   chan Job
	stop chan struct{}
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
	intake sync.WaitGroup
}

// Option customizes a MemoryQueue.
type Option func(*MemoryQueue)

// WithWorkers sets the worker goroutine count.
func WithWorkers(n int) Option {
	return func(q *MemoryQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithQueueSize sets the intake buffer size.
func WithQueueSize(n int) Option {
	return func(q *MemoryQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

// WithBaseBackoff overrides the first retry delay. Tests use millisecond
// delays here.
func WithBaseBackoff(d time.Duration) Option {
	return func(q *MemoryQueue) {
		if d > 0 {
			q.baseBackoff = d
		}
	}
}

// WithAttemptTimeout bounds each processing attempt.
func WithAttemptTimeout(d time.Duration) Option {
	return func(q *MemoryQueue) {
		if d > 0 {
			q.attemptTimeout = d
		}
	}
}

// NewMemoryQueue constructs and starts a MemoryQueue.
func NewMemoryQueue(handler Handler, exhausted ExhaustedFunc, opts ...Option) *MemoryQueue {
	q := &MemoryQueue{
		handler:        handler,
		exhausted:      exhausted,
		workers:        4,
		maxAttempts:    MaxAttempts,
		baseBackoff:    BaseBackoff * time.Second,
		attemptTimeout: 3 * time.Minute,
		ch:             make(chan Job, 256),
		stop:           make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *MemoryQueue) start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func(workerID int) {
			defer q.wg.Done()
			for job := range q.ch {
				q.run(workerID, job)
			}
		}(i + 1)
	}
}

// Enqueue submits a job and returns its id. Blocks when the buffer is full.
func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) (string, error) {
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return "", ErrQueueClosed
	}
	q.intake.Add(1)
	q.mu.Unlock()
	defer q.intake.Done()

	select {
	case q.ch <- job:
		telemetry.Info("ingest.enqueued", map[string]any{
			"job_id":      job.JobID,
			"document_id": job.DocumentID,
		})
		return job.JobID, nil
	case <-q.stop:
		return "", ErrQueueClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Shutdown stops intake and waits for in-flight jobs, bounded by ctx.
func (q *MemoryQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.stop)
	q.mu.Unlock()

	// Wait for in-flight Enqueue calls before closing the channel; a send
	// racing the close would panic. New calls see closed and bail out.
	q.intake.Wait()
	close(q.ch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		q.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		telemetry.Error("ingest.shutdown.interrupted", map[string]any{"error": ctx.Err().Error()})
	case <-done:
		telemetry.Info("ingest.shutdown.drained", nil)
	}
}

func (q *MemoryQueue) run(workerID int, job Job) {
	var lastErr error
	for attempt := 1; attempt <= q.maxAttempts; attempt++ {
		job.Attempt = attempt

		ctx, cancel := context.WithTimeout(context.Background(), q.attemptTimeout)
		lastErr = q.handler.Process(ctx, job)
		cancel()

		if lastErr == nil {
			telemetry.Info("ingest.processed", map[string]any{
				"worker_id":   workerID,
				"job_id":      job.JobID,
				"document_id": job.DocumentID,
				"attempt":     attempt,
			})
			return
		}

		telemetry.Error("ingest.attempt.failed", map[string]any{
			"worker_id":   workerID,
			"job_id":      job.JobID,
			"document_id": job.DocumentID,
			"attempt":     attempt,
			"error":       lastErr.Error(),
		})

		if attempt == q.maxAttempts {
			break
		}
		backoff := q.baseBackoff << (attempt - 1)
		select {
		case <-time.After(backoff):
		case <-q.stop:
			// Shutting down mid-backoff: give the job its terminal state
			// instead of leaving the document stuck in PROCESSING.
			q.fail(job, lastErr)
			return
		}
	}
	q.fail(job, lastErr)
}

func (q *MemoryQueue) fail(job Job, lastErr error) {
	telemetry.Error("ingest.exhausted", map[string]any{
		"job_id":      job.JobID,
		"document_id": job.DocumentID,
		"error":       lastErr.Error(),
	})
	if q.exhausted != nil {
		q.exhausted(context.Background(), job, lastErr)
	}
}

var _ Queue = (*MemoryQueue)(nil)
