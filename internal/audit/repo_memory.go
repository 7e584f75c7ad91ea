package audit

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Create appends one audit entry.
func (r *MemoryRepo) Create(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

// List returns entries matching the filter, newest first.
func (r *MemoryRepo) List(ctx context.Context, filter ListFilter) ([]Entry, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Entry
	for _, entry := range r.entries {
		if matches(entry, filter) {
			matched = append(matched, entry)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

// Stats aggregates totals per action within the filter.
func (r *MemoryRepo) Stats(ctx context.Context, filter ListFilter) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{ByAction: make(map[Action]int)}
	for _, entry := range r.entries {
		if !matches(entry, filter) {
			continue
		}
		stats.Total++
		stats.ByAction[entry.Action]++
		if !entry.Success {
			stats.Failures++
		}
	}
	return stats, nil
}

func matches(entry Entry, filter ListFilter) bool {
	if filter.UserID != "" && entry.UserID != filter.UserID {
		return false
	}
	if filter.Action != "" && entry.Action != filter.Action {
		return false
	}
	if filter.Success != nil && entry.Success != *filter.Success {
		return false
	}
	if filter.From != nil && entry.CreatedAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && entry.CreatedAt.After(*filter.To) {
		return false
	}
	return true
}

var _ Repo = (*MemoryRepo)(nil)
