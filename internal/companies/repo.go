package companies

import "context"

// Repo defines the company lookups the core consumes. The CNPJ lookup backs
// document reassignment when a detected identifier resolves to a different
// company than the one declared at upload.
type Repo interface {
	GetByID(ctx context.Context, id string) (Company, error)
	GetByCNPJ(ctx context.Context, cnpj string) (Company, error)
}
