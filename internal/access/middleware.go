package access

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"contadoc-backend/internal/shared/server/middleware"
	"contadoc-backend/internal/shared/server/respond"
	"contadoc-backend/internal/users"
)

// IdentityFromContext assembles the caller identity from the values the auth
// middleware stored on the request.
func IdentityFromContext(c *gin.Context) Identity {
	return Identity{
		UserID:    middleware.UserIDFromContext(c),
		Email:     middleware.UserEmailFromContext(c),
		Name:      middleware.UserNameFromContext(c),
		Role:      middleware.RoleFromContext(c),
		CompanyID: middleware.CompanyIDFromContext(c),
	}
}

// RequireRole gates a route group to the listed roles.
func RequireRole(roles ...users.Role) gin.HandlerFunc {
	allowed := make(map[users.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role := middleware.RoleFromContext(c)
		if _, ok := allowed[role]; !ok {
			respond.Error(c, http.StatusForbidden, "forbidden", "insufficient role", nil)
			return
		}
		c.Next()
	}
}
