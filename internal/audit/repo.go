package audit

import (
	"context"
	"time"
)

// ListFilter narrows audit queries. Zero values mean "no constraint".
type ListFilter struct {
	UserID  string
	Action  Action
	Success *bool
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// Stats summarizes the audit trail for the reporting endpoint.
type Stats struct {
	Total    int            `json:"total"`
	Failures int            `json:"failures"`
	ByAction map[Action]int `json:"byAction"`
}

// Repo persists audit entries. Entries are append-only; there is no update
// or delete on purpose.
type Repo interface {
	Create(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter ListFilter) ([]Entry, int, error)
	Stats(ctx context.Context, filter ListFilter) (Stats, error)
}
