package users

import "context"

// Repo defines the user lookups consumed by authentication and auditing.
type Repo interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
}
