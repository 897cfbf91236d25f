package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/models"
	"github.com/autokatalog/autokatalog/backend/go-services/pkg/metrics"
)

func serve(r http.Handler, method, path string) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w.Code
}

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	before := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))
	r := gin.New()
	r.Use(RateLimitMiddleware("test", 10, 2)) // generous rate
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// two quick requests should pass
	require.Equal(t, http.StatusOK, serve(r, "GET", "/ok"))
	require.Equal(t, http.StatusOK, serve(r, "GET", "/ok"))

	// verify metrics incremented for memory limiter
	require.Equal(t, before+2, testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory")))
}

func TestRateLimitMiddleware_BlocksWhenExceeded(t *testing.T) {
	r := gin.New()
	// very low rate to force rejections
	r.Use(RateLimitMiddleware("test", 2, 1))
	r.GET("/limited", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, serve(r, "GET", "/limited"))
	// immediate second request -> should be rate-limited
	require.Equal(t, http.StatusTooManyRequests, serve(r, "GET", "/limited"))

	// one token is back after half a second
	time.Sleep(600 * time.Millisecond)
	require.Equal(t, http.StatusOK, serve(r, "GET", "/limited"))
}

func TestRateLimitMiddleware_ScopesAreIndependent(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimitMiddleware("login", 0.1, 1), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/submit", RateLimitMiddleware("submit", 0.1, 1), func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusOK, serve(r, "POST", "/login"))
	require.Equal(t, http.StatusTooManyRequests, serve(r, "POST", "/login"))
	require.Equal(t, http.StatusOK, serve(r, "POST", "/submit"))
}

func TestRateLimitMiddleware_UsesPrincipalWhenPresent(t *testing.T) {
	r := gin.New()
	users := []string{"user-1", "user-1", "user-2"}
	n := 0
	r.Use(func(c *gin.Context) {
		c.Set(PrincipalKey, models.Principal{ID: users[n], Role: models.RoleEditor})
		n++
		c.Next()
	})
	r.Use(RateLimitMiddleware("test", 0.1, 1))
	r.GET("/u", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, serve(r, "GET", "/u"))
	// same account again => rejected
	require.Equal(t, http.StatusTooManyRequests, serve(r, "GET", "/u"))
	// another account from the same IP has its own bucket
	require.Equal(t, http.StatusOK, serve(r, "GET", "/u"))
}
