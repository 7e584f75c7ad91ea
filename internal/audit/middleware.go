package audit

import (
	"github.com/gin-gonic/gin"

	"contadoc-backend/internal/shared/server/middleware"
)

const actionKey = "auditAction"

// Tag binds an action to a route at registration time. Routes without a tag
// are recorded as OTHER.
func Tag(action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(actionKey, string(action))
		c.Next()
	}
}

// Middleware records one audit entry per request after the response is
// written, whatever the outcome. It must sit outside the auth middleware so
// rejected requests are recorded too.
func Middleware(rec *Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		entry := Entry{
			UserID:      middleware.UserIDFromContext(c),
			UserName:    middleware.UserNameFromContext(c),
			UserEmail:   middleware.UserEmailFromContext(c),
			UserRole:    string(middleware.RoleFromContext(c)),
			Action:      actionFromContext(c),
			Description: c.Request.Method + " " + c.Request.URL.Path,
			ResourceID:  c.Param("id"),
			IPAddress:   c.ClientIP(),
			UserAgent:   c.Request.UserAgent(),
			Success:     status < 400,
		}
		if !entry.Success {
			entry.ErrorMessage = errorMessage(c)
		}
		rec.Record(entry)
	}
}

func actionFromContext(c *gin.Context) Action {
	val, _ := c.Get(actionKey)
	if s, ok := val.(string); ok && Action(s).Valid() {
		return Action(s)
	}
	return ActionOther
}

func errorMessage(c *gin.Context) string {
	if msg := c.GetString("errorMessage"); msg != "" {
		return msg
	}
	if len(c.Errors) > 0 {
		return c.Errors.Last().Error()
	}
	return ""
}
