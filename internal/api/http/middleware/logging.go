package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/eventpoll-server/internal/logger"
)

// Logging logs every request once it completes.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// Handle logs method, route, status and duration. Server errors are logged
// as errors, client errors as warnings.
func (l *Logging) Handle(c *gin.Context) {
	start := time.Now()
	c.Next()

	status := c.Writer.Status()
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}

	fields := []any{
		"method", c.Request.Method,
		"path", path,
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if len(c.Errors) > 0 {
		fields = append(fields, "error", c.Errors.String())
	}

	switch {
	case status >= 500:
		l.logger.Error("HTTP request failed", fields...)
	case status >= 400:
		l.logger.Warn("HTTP request rejected", fields...)
	default:
		l.logger.Info("HTTP request completed", fields...)
	}
}
