package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/eventpoll-server/internal/apierrors"
	"github.com/dtroode/eventpoll-server/internal/logger"
)

// envelope is the body of every JSON response.
type envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Message: message, Data: data})
}

// handleError writes the response for a failed request. Client errors carry
// their message; everything else becomes a generic 500.
func handleError(c *gin.Context, l *logger.Logger, err error) {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		respond(c, apiErr.HTTPStatus, apiErr.Message, nil)
		return
	}

	status := apierrors.StatusFor(err)
	if status == http.StatusInternalServerError {
		l.Error("HTTP handler: internal error",
			"path", c.FullPath(),
			"error", err.Error())
		_ = c.Error(err)
		respond(c, status, "internal server error", nil)
		return
	}
	respond(c, status, http.StatusText(status), nil)
}
