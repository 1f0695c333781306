package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"incidentlog/internal/auth"
)

// RequestLogger writes one structured line per request. The Authorization
// header and bodies are never logged.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if id := c.GetString(auth.ContextUserIDKey); id != "" {
			attrs = append(attrs, "user_id", id)
		}

		level := slog.LevelInfo
		if c.Writer.Status() >= 500 {
			level = slog.LevelError
		}
		log.Log(c.Request.Context(), level, "http request", attrs...)
	}
}
