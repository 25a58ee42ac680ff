package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimit_Handle(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	rl := NewRateLimit(1, 2)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/login", rl.Handle, func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, do("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, do("10.0.0.2"))

	now = base.Add(time.Second)
	assert.Equal(t, http.StatusNoContent, do("10.0.0.1"))
}

func TestRateLimit_ForgetsStaleClients(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	rl := NewRateLimit(1, 1)
	rl.now = func() time.Time { return now }

	rl.get("10.0.0.1")
	rl.get("10.0.0.2")
	assert.Len(t, rl.clients, 2)

	now = base.Add(staleAfter + time.Second)
	rl.get("10.0.0.3")
	assert.Len(t, rl.clients, 1)
}
