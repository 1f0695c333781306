package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"incidentlog/internal/apperr"
)

// Errors renders the last error a handler pushed with c.Error. Internal
// errors are logged with their cause; the cause is only echoed to the
// client when exposeInternal is set (never in production).
func Errors(log *slog.Logger, exposeInternal bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		e := apperr.As(c.Errors.Last().Err)
		body := gin.H{"error": e.Message}
		if len(e.Details) > 0 {
			body["details"] = e.Details
		}

		if e.Kind == apperr.KindInternal {
			log.ErrorContext(c.Request.Context(), "request failed",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"error", e.Err,
			)
			if exposeInternal && e.Err != nil {
				body["detail"] = e.Err.Error()
			}
		}

		c.JSON(e.Kind.Status(), body)
	}
}
