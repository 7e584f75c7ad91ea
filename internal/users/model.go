package users

import "time"

// Role determines a user's access scope.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleOwner    Role = "OWNER"
	RoleHR       Role = "HR"
	RoleEmployee Role = "EMPLOYEE"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOwner, RoleHR, RoleEmployee:
		return true
	}
	return false
}

// User is an account on the portal. CompanyID is empty for firm-side admins;
// everyone else belongs to exactly one client company.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CompanyID    string
	Active       bool
	CreatedAt    time.Time
}
