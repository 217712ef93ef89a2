package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a per-client-IP token bucket. A janitor goroutine
// evicts limiters that have been idle longer than cleanupInterval.
func RateLimiter(r rate.Limit, burst int, cleanupInterval time.Duration) gin.HandlerFunc {
	var (
		visitors = make(map[string]*visitor)
		mu       sync.Mutex
	)

	go func() {
		for range time.Tick(cleanupInterval) {
			mu.Lock()
			for ip, v := range visitors {
				if time.Since(v.lastSeen) > cleanupInterval {
					delete(visitors, ip)
				}
			}
			mu.Unlock()
		}
	}()

	getVisitor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		v, exists := visitors[ip]
		if !exists {
			v = &visitor{limiter: rate.NewLimiter(r, burst)}
			visitors[ip] = v
		}
		v.lastSeen = time.Now()
		return v.limiter
	}

	return func(c *gin.Context) {
		if !getVisitor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   true,
				"message": "Rate limit exceeded.",
			})
			return
		}
		c.Next()
	}
}
