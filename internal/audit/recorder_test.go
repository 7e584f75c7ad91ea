package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type failingRepo struct {
	MemoryRepo
	fail bool
}

func (r *failingRepo) Create(ctx context.Context, entry Entry) error {
	if r.fail {
		return errors.New("database offline")
	}
	return r.MemoryRepo.Create(ctx, entry)
}

func TestRecorderDrainsOnClose(t *testing.T) {
	repo := NewMemoryRepo()
	rec := NewRecorder(repo, 16)

	for i := 0; i < 10; i++ {
		rec.Record(Entry{Action: ActionViewDocument, Description: "GET /api/v1/documents"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rec.Close(ctx)

	_, total, err := repo.List(context.Background(), ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 10 {
		t.Fatalf("total = %d, want 10", total)
	}
}

func TestRecorderFillsDefaults(t *testing.T) {
	repo := NewMemoryRepo()
	rec := NewRecorder(repo, 4)

	rec.Record(Entry{Description: "something untagged"})
	rec.Close(context.Background())

	entries, _, _ := repo.List(context.Background(), ListFilter{})
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].ID == "" {
		t.Error("missing generated id")
	}
	if entries[0].CreatedAt.IsZero() {
		t.Error("missing timestamp")
	}
	if entries[0].Action != ActionOther {
		t.Errorf("action = %s, want %s", entries[0].Action, ActionOther)
	}
}

func TestRecorderSwallowsWriteFailures(t *testing.T) {
	repo := &failingRepo{fail: true}
	rec := NewRecorder(repo, 4)

	// Must not panic or surface anything to the caller.
	rec.Record(Entry{Action: ActionLogin})
	rec.Close(context.Background())
}

func TestRecordAfterCloseIsNoop(t *testing.T) {
	repo := NewMemoryRepo()
	rec := NewRecorder(repo, 4)
	rec.Close(context.Background())

	rec.Record(Entry{Action: ActionLogin})

	_, total, _ := repo.List(context.Background(), ListFilter{})
	if total != 0 {
		t.Fatalf("total = %d, want 0", total)
	}
}
