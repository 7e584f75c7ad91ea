package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"contadoc-backend/internal/shared/auth"
	"contadoc-backend/internal/shared/server/respond"
	"contadoc-backend/internal/users"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	userNameKey  = "userName"
	userRoleKey  = "userRole"
	companyIDKey = "companyId"
)

// Auth validates the bearer JWT and resolves the account behind it. The role
// and company always come from the user record, never from token claims, so
// a deactivated or demoted account is locked out as soon as the row changes.
func Auth(repo users.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		claims, err := auth.VerifyJWT(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		user, err := repo.GetByID(c.Request.Context(), claims.Sub)
		if err != nil || !user.Active {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "account unavailable", nil)
			return
		}

		c.Set(userIDKey, user.ID)
		c.Set(userEmailKey, user.Email)
		c.Set(userNameKey, user.Name)
		c.Set(userRoleKey, string(user.Role))
		c.Set(companyIDKey, user.CompanyID)
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userEmailKey)
	if email, ok := val.(string); ok {
		return email
	}
	return ""
}

// UserNameFromContext fetches the user name set by the auth middleware.
func UserNameFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userNameKey)
	if name, ok := val.(string); ok {
		return name
	}
	return ""
}

// RoleFromContext fetches the role set by the auth middleware.
func RoleFromContext(c *gin.Context) users.Role {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userRoleKey)
	if role, ok := val.(string); ok {
		return users.Role(role)
	}
	return ""
}

// CompanyIDFromContext fetches the company scope set by the auth middleware.
// Empty for firm-side admins.
func CompanyIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(companyIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
