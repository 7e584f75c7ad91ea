package access

import (
	"errors"

	"contadoc-backend/internal/classify"
	"contadoc-backend/internal/users"
)

// ErrForbidden signals a company-scope violation. Handlers translate it to an
// explicit 403; document lookups outside scope return not-found instead so a
// caller cannot probe for the existence of other tenants' documents.
var ErrForbidden = errors.New("outside allowed scope")

// Identity is the resolved caller, as established by the auth middleware.
type Identity struct {
	UserID    string
	Email     string
	Name      string
	Role      users.Role
	CompanyID string
}

// IsAdmin reports whether the caller has firm-wide access.
func (id Identity) IsAdmin() bool {
	return id.Role == users.RoleAdmin
}

// Scope bounds what a caller may see. An unrestricted scope covers every
// company and category; otherwise CompanyID is mandatory and a non-empty
// Category further narrows the view.
type Scope struct {
	Unrestricted bool
	CompanyID    string
	Category     classify.Category
}

// ScopeFor derives the caller's scope from the authorization matrix. ADMIN
// is unrestricted. OWNER and EMPLOYEE see their own company. HR sees only
// its own company's payroll (DP) documents.
func ScopeFor(id Identity) (Scope, error) {
	switch id.Role {
	case users.RoleAdmin:
		return Scope{Unrestricted: true}, nil
	case users.RoleOwner, users.RoleEmployee:
		if id.CompanyID == "" {
			return Scope{}, ErrForbidden
		}
		return Scope{CompanyID: id.CompanyID}, nil
	case users.RoleHR:
		if id.CompanyID == "" {
			return Scope{}, ErrForbidden
		}
		return Scope{CompanyID: id.CompanyID, Category: classify.CategoryDP}, nil
	}
	return Scope{}, ErrForbidden
}

// AllowsDocument reports whether a document with the given owner and
// category falls inside the scope.
func (s Scope) AllowsDocument(companyID string, category classify.Category) bool {
	if s.Unrestricted {
		return true
	}
	if companyID != s.CompanyID {
		return false
	}
	return s.Category == "" || s.Category == category
}

// DocumentVisible reports whether the caller may see the given document.
func DocumentVisible(id Identity, companyID string, category classify.Category) bool {
	scope, err := ScopeFor(id)
	if err != nil {
		return false
	}
	return scope.AllowsDocument(companyID, category)
}

// CompanyScope checks whether the caller may act within the given company.
// Unlike the document path, this reports the violation explicitly.
func CompanyScope(id Identity, companyID string) error {
	scope, err := ScopeFor(id)
	if err != nil {
		return err
	}
	if scope.Unrestricted {
		return nil
	}
	if companyID == "" || companyID != scope.CompanyID {
		return ErrForbidden
	}
	return nil
}
