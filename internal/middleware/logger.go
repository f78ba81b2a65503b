package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/vimquiz/pkg/logger"
)

// Logger writes one structured access-log line per request. Question
// requests additionally record which source served them (the X-Cache
// header set by the handler), which is the number worth watching: every
// MISS is a paid model call.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if source := c.Writer.Header().Get("X-Cache"); source != "" {
			fields = append(fields, zap.String("served_from", source))
		}

		logger.WithModule("http").Info("request", fields...)
	}
}
