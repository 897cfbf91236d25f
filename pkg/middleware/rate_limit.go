package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/autokatalog/autokatalog/backend/go-services/pkg/metrics"
)

// rateKey picks the bucket for a request: the signed-in account when there is
// one, otherwise the client IP. Buckets are separate per scope.
func rateKey(c *gin.Context, scope string) string {
	if p, ok := PrincipalFrom(c); ok && p.ID != "" {
		return scope + ":sub:" + p.ID
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return scope + ":ip:" + ip
}

// RateLimitMiddleware returns a Gin middleware enforcing a token-bucket per-key limit.
// rps = allowed events per second, burst = maximum tokens in bucket.
func RateLimitMiddleware(scope string, rps float64, burst int) gin.HandlerFunc {
	// per-key limiter store (simple in-memory token-bucket)
	var limiters sync.Map // map[string]*rate.Limiter
	return func(c *gin.Context) {
		key := rateKey(c, scope)
		v, _ := limiters.LoadOrStore(key, rate.NewLimiter(rate.Limit(rps), burst))
		if !v.(*rate.Limiter).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
