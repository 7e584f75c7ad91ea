package companies

import "time"

// Company is a client company of the accounting firm. CNPJ is the unique
// 14-digit legal identifier.
type Company struct {
	ID        string
	CNPJ      string
	LegalName string
	TradeName string
	Email     string
	Phone     string
	Active    bool
	CreatedAt time.Time
}
