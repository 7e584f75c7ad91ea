package companies

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Company
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Company)}
}

// Add stores a company. Used by dev seeding and tests.
func (r *MemoryRepo) Add(c Company) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.ID] = c
}

// GetByID returns a company by primary key.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Company, error) {
	if err := ctx.Err(); err != nil {
		return Company{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return Company{}, ErrNotFound
	}
	return c, nil
}

// GetByCNPJ returns a company by legal identifier.
func (r *MemoryRepo) GetByCNPJ(ctx context.Context, cnpj string) (Company, error) {
	if err := ctx.Err(); err != nil {
		return Company{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.byID {
		if c.CNPJ == cnpj {
			return c, nil
		}
	}
	return Company{}, ErrNotFound
}

var _ Repo = (*MemoryRepo)(nil)
