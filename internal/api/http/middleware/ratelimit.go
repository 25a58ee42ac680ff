package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const staleAfter = 3 * time.Minute

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimit throttles requests per client IP.
type RateLimit struct {
	mu        sync.Mutex
	clients   map[string]*client
	r         rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimit allows rps requests per second with the given burst to each client IP.
func NewRateLimit(rps float64, burst int) *RateLimit {
	return &RateLimit{
		clients: make(map[string]*client),
		r:       rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

func (rl *RateLimit) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > time.Minute {
		for k, c := range rl.clients {
			if now.Sub(c.seen) > staleAfter {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	if c, ok := rl.clients[ip]; ok {
		c.seen = now
		return c.lim
	}
	l := rate.NewLimiter(rl.r, rl.burst)
	rl.clients[ip] = &client{lim: l, seen: now}
	return l
}

// Handle answers 429 once the client exhausts its budget.
func (rl *RateLimit) Handle(c *gin.Context) {
	if !rl.get(c.ClientIP()).AllowN(rl.now(), 1) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "too many requests", "data": nil})
		return
	}
	c.Next()
}
