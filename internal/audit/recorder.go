package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"contadoc-backend/internal/shared/telemetry"
)

// Recorder writes audit entries asynchronously so recording never delays the
// client-visible response. Write failures are swallowed and logged; they are
// never surfaced to the request that produced the entry.
type Recorder struct {
	repo Repo

	ch chan Entry
	wg sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewRecorder constructs and starts a Recorder with the given buffer size.
func NewRecorder(repo Repo, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	r := &Recorder{
		repo: repo,
		ch:   make(chan Entry, buffer),
	}
	r.wg.Add(1)
	go r.writer()
	return r
}

func (r *Recorder) writer() {
	defer r.wg.Done()
	for entry := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := r.repo.Create(ctx, entry); err != nil {
			telemetry.Error("audit.write.failed", map[string]any{
				"entry_id": entry.ID,
				"action":   string(entry.Action),
				"error":    err.Error(),
			})
		}
		cancel()
	}
}

// Record enqueues one entry, filling in the ID and timestamp when absent.
// A full buffer drops the entry rather than blocking the caller.
func (r *Recorder) Record(entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if !entry.Action.Valid() {
		entry.Action = ActionOther
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		telemetry.Error("audit.record.after_close", map[string]any{"entry_id": entry.ID})
		return
	}
	select {
	case r.ch <- entry:
	default:
		telemetry.Error("audit.buffer.full", map[string]any{
			"entry_id": entry.ID,
			"action":   string(entry.Action),
		})
	}
}

// Close stops intake and drains pending entries, bounded by ctx.
func (r *Recorder) Close(ctx context.Context) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.ch)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		telemetry.Error("audit.close.interrupted", map[string]any{"error": ctx.Err().Error()})
	case <-done:
	}
}
