package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/eventpoll-server/internal/logger"
)

// Pinger checks a backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports whether the server can reach its database.
type Health struct {
	pinger Pinger
	logger *logger.Logger
}

// NewHealth creates a Health handler. A nil pinger always reports healthy.
func NewHealth(pinger Pinger, logger *logger.Logger) *Health {
	return &Health{pinger: pinger, logger: logger}
}

func (h *Health) Check(c *gin.Context) {
	if h.pinger != nil {
		if err := h.pinger.Ping(c.Request.Context()); err != nil {
			h.logger.Warn("Health handler: dependency unavailable",
				"error", err.Error())
			respond(c, http.StatusServiceUnavailable, "unavailable", nil)
			return
		}
	}
	respond(c, http.StatusOK, "ok", nil)
}
