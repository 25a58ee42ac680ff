package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/dtroode/eventpoll-server/internal/testutil"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth_Check(t *testing.T) {
	tests := []struct {
		name       string
		pinger     Pinger
		wantStatus int
	}{
		{name: "no pinger", wantStatus: http.StatusOK},
		{name: "healthy", pinger: pingerFunc(func(context.Context) error { return nil }), wantStatus: http.StatusOK},
		{name: "unavailable", pinger: pingerFunc(func(context.Context) error { return errors.New("down") }), wantStatus: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/healthz", NewHealth(tt.pinger, testutil.MakeNoopLogger()).Check)

			rec := do(t, r, http.MethodGet, "/healthz", nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
