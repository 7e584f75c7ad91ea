package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"contadoc-backend/internal/access"
	"contadoc-backend/internal/audit"
	"contadoc-backend/internal/documents"
	"contadoc-backend/internal/services/health"
	"contadoc-backend/internal/shared/config"
	"contadoc-backend/internal/shared/metrics"
	"contadoc-backend/internal/shared/server/middleware"
	"contadoc-backend/internal/shared/server/respond"
	"contadoc-backend/internal/users"
)

// RouterDeps carries the wired handlers and middleware dependencies.
type RouterDeps struct {
	Config           config.Config
	UsersRepo        users.Repo
	Recorder         *audit.Recorder
	DocumentsHandler *documents.Handler
	AuditHandler     *audit.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
// The audit middleware sits outside auth so rejected requests are recorded
// too; health stays outside both.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	api := r.Group("/api/v1")
	healthSvc := health.NewService()
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, healthSvc.Status())
	})
	api.GET("/metrics", metrics.Handler())

	api.Use(
		audit.Middleware(deps.Recorder),
		middleware.Auth(deps.UsersRepo),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"UPLOAD":   {Rate: 0.5, Burst: 10},
				"DOWNLOAD": {Rate: 2, Burst: 30},
			},
			GroupFor: rateLimitGroup,
		}),
	)

	deps.DocumentsHandler.RegisterRoutes(api)

	logs := api.Group("", access.RequireRole(users.RoleAdmin))
	deps.AuditHandler.RegisterRoutes(logs)

	return r
}

// rateLimitGroup maps the heavy endpoints to their rate limit rules. Routes
// without a group are not limited.
func rateLimitGroup(c *gin.Context) string {
	switch c.FullPath() {
	case "/api/v1/documents/upload":
		return "UPLOAD"
	case "/api/v1/documents/:id/download":
		return "DOWNLOAD"
	default:
		return ""
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
