package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"sublet/rentals/internal/config"
	"sublet/rentals/internal/logger"
)

const (
	clientIdleTTL   = 30 * time.Minute
	cleanupInterval = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware applies a token bucket per client.
type RateLimiterMiddleware struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	log     *zap.SugaredLogger
	now     func() time.Time
}

// NewRateLimiterMiddleware creates a limiter from the configured refill rate and bucket size.
func NewRateLimiterMiddleware(cfg *config.Config, l *zap.SugaredLogger) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(cfg.RateLimitRefillRate),
		burst:   cfg.RateLimitBucketSize,
		log:     logger.OrNop(l),
		now:     time.Now,
	}
}

// clientKey prefers the authenticated user; anonymous callers are keyed by IP.
func clientKey(c *gin.Context) string {
	if id := UserID(c); id != "" {
		return "user:" + id
	}
	return "ip:" + c.ClientIP()
}

func (rm *RateLimiterMiddleware) getClientLimiter(key string) *rate.Limiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	cl, exists := rm.clients[key]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(rm.limit, rm.burst)}
		rm.clients[key] = cl
	}
	cl.lastSeen = rm.now()
	return cl.limiter
}

// Cleanup drops clients idle for longer than clientIdleTTL and returns how many were removed.
func (rm *RateLimiterMiddleware) Cleanup() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	removed := 0
	for key, cl := range rm.clients {
		if rm.now().Sub(cl.lastSeen) > clientIdleTTL {
			delete(rm.clients, key)
			removed++
		}
	}
	return removed
}

// RunCleanup calls Cleanup periodically until stop is closed.
func (rm *RateLimiterMiddleware) RunCleanup(stop <-chan struct{}) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := rm.Cleanup(); n > 0 {
				rm.log.Debugw("Rate limiter cleanup", "removed", n)
			}
		}
	}
}

// Limit creates the Gin middleware handler.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientKey(c)
		if !rm.getClientLimiter(key).Allow() {
			rm.log.Infow("Rate limit exceeded", "client", key, "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
