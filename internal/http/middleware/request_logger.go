package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studygraph-backend/internal/platform/logger"
)

// RequestLogger logs one structured line per request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	reqLog := log.With("component", "HTTP")
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration_ms", time.Since(started).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}
		switch {
		case status >= 500:
			reqLog.Error("Request failed", fields...)
		case status >= 400:
			reqLog.Warn("Request rejected", fields...)
		default:
			reqLog.Info("Request served", fields...)
		}
	}
}
