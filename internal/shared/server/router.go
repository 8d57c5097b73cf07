package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"teamslide-backend/internal/shared/config"
	"teamslide-backend/internal/shared/metrics"
	"teamslide-backend/internal/shared/server/middleware"
	"teamslide-backend/internal/shared/server/respond"
)

const (
	rateLimitGroupDefault  = "DEFAULT"
	rateLimitGroupGenerate = "GENERATE"
)

// RouteRegistrar is implemented by feature handlers.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries the handlers mounted by NewRouter.
type RouterDeps struct {
	Config     config.Config
	TeamSlides RouteRegistrar
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	cfg := deps.Config
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: rateLimitGroupDefault,
			GroupFor:     rateLimitGroup,
			Rules: map[string]middleware.RateLimitRule{
				rateLimitGroupGenerate: {Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.OK(c, gin.H{"status": "healthy"})
	})
	if deps.TeamSlides != nil {
		deps.TeamSlides.RegisterRoutes(api.Group("/teamslides"))
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

	return r
}

// rateLimitGroup limits generation only; listing and inspection stay unthrottled.
func rateLimitGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodPost {
		return rateLimitGroupGenerate
	}
	return rateLimitGroupDefault
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
