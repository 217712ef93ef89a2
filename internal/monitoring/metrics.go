package monitoring

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"taskflow/backend/internal/cache"

	"github.com/gin-gonic/gin"
)

type Metrics struct {
	mu            sync.RWMutex
	RequestCount  int64            `json:"request_count"`
	ErrorCount    int64            `json:"error_count"`
	StatusCodes   map[string]int64 `json:"status_codes"`
	Endpoints     map[string]int64 `json:"endpoint_calls"`
	StartTime     time.Time        `json:"start_time"`
	LastRequest   time.Time        `json:"last_request"`
	totalDuration time.Duration
}

var globalMetrics = &Metrics{
	StatusCodes: make(map[string]int64),
	Endpoints:   make(map[string]int64),
	StartTime:   time.Now(),
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		globalMetrics.mu.Lock()
		defer globalMetrics.mu.Unlock()

		globalMetrics.RequestCount++
		globalMetrics.LastRequest = time.Now()
		globalMetrics.totalDuration += time.Since(start)
		globalMetrics.StatusCodes[strconv.Itoa(c.Writer.Status())]++
		globalMetrics.Endpoints[c.Request.Method+" "+c.FullPath()]++
		if c.Writer.Status() >= http.StatusInternalServerError {
			globalMetrics.ErrorCount++
		}
	}
}

func MetricsHandler(c *gin.Context) {
	globalMetrics.mu.RLock()
	defer globalMetrics.mu.RUnlock()

	var avgDuration float64
	if globalMetrics.RequestCount > 0 {
		avgDuration = float64(globalMetrics.totalDuration.Milliseconds()) / float64(globalMetrics.RequestCount)
	}

	c.JSON(http.StatusOK, gin.H{
		"request_count":           globalMetrics.RequestCount,
		"error_count":             globalMetrics.ErrorCount,
		"status_codes":            globalMetrics.StatusCodes,
		"endpoint_calls":          globalMetrics.Endpoints,
		"avg_request_duration_ms": avgDuration,
		"uptime_seconds":          time.Since(globalMetrics.StartTime).Seconds(),
	})
}

// HealthHandler reports liveness plus the cache's reachability. A down
// or absent cache does not fail the check: the API serves without it.
func HealthHandler(redisCache *cache.RedisCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		cacheStatus := "disabled"
		if redisCache != nil {
			cacheStatus = "ok"
			if err := redisCache.Ping(); errors.Is(err, cache.ErrCacheDown) {
				cacheStatus = "down"
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"cache":  cacheStatus,
			"uptime": time.Since(globalMetrics.StartTime).String(),
		})
	}
}
