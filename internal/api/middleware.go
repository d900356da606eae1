package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/estate-operations-system/backend/core/logger"
	"log/slog"
)

const requestIDKey = "request_id"

// RequestID assigns a correlation id to every request, honouring an
// incoming X-Request-ID header when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Header("X-Request-ID", rid)
		c.Next()
	}
}

// AccessLog writes one structured line per handled request.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		rid, _ := c.Get(requestIDKey)
		attrs := []slog.Attr{
			slog.String("event", "http.request"),
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("http_code", c.Writer.Status()),
			slog.Duration("duration", logger.Took(start)),
		}
		if s, ok := rid.(string); ok && s != "" {
			attrs = append(attrs, slog.String("rid", s))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("err", c.Errors.String()))
		}
		level := slog.LevelInfo
		if c.Writer.Status() >= 500 {
			level = slog.LevelError
		}
		logger.API.LogAttrs(c.Request.Context(), level, "request", attrs...)
	}
}
