package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"teamslide-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request. Handlers may set "consultants" and
// "strategy" on the context to have them included.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"bytes":       c.Writer.Size(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if n, ok := c.Get("consultants"); ok {
			fields["consultants"] = n
		}
		if s := c.GetString("strategy"); s != "" {
			fields["strategy"] = s
		}
		telemetry.Info("request.complete", fields)
	}
}
