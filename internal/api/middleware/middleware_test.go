package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"sublet/rentals/internal/api/middleware"
	"sublet/rentals/internal/auth"
	"sublet/rentals/internal/config"
)

const testSecret = "test-secret"

func setupTestEngine(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.CorsAllowedOrigin))
	r.Use(middleware.NewRateLimiterMiddleware(cfg, nil).Limit())
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	authed := r.Group("/me", middleware.AuthMiddleware(testSecret))
	authed.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.UserID(c))
	})
	return r
}

func TestRateLimiterMiddleware_Limit(t *testing.T) {
	cfg := &config.Config{RateLimitRefillRate: 1, RateLimitBucketSize: 1}
	router := setupTestEngine(cfg)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "1.2.3.4:12345"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest("GET", "/test", nil)
	req2.RemoteAddr = "1.2.3.4:12345"
	router.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)

	// Another client has its own bucket.
	w3 := httptest.NewRecorder()
	req3, _ := http.NewRequest("GET", "/test", nil)
	req3.RemoteAddr = "5.6.7.8:12345"
	router.ServeHTTP(w3, req3)
	assert.Equal(t, http.StatusOK, w3.Code)
}

func TestRateLimiterMiddleware_Cleanup(t *testing.T) {
	cfg := &config.Config{RateLimitRefillRate: 10, RateLimitBucketSize: 10}
	rm := middleware.NewRateLimiterMiddleware(cfg, nil)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(rm.Limit())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req, _ := http.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "1.2.3.4:12345"
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 0, rm.Cleanup())

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		rm.RunCleanup(stop)
		close(done)
	}()
	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunCleanup did not stop")
	}
}

func TestAuthMiddleware(t *testing.T) {
	router := setupTestEngine(&config.Config{RateLimitRefillRate: 100, RateLimitBucketSize: 100})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/me", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := auth.GenerateJWT("R1", testSecret, time.Hour)
	assert.NoError(t, err)
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "R1", w.Body.String())
}

func TestCORSMiddleware(t *testing.T) {
	router := setupTestEngine(&config.Config{CorsAllowedOrigin: "https://sublet.example", RateLimitRefillRate: 100, RateLimitBucketSize: 100})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/test", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://sublet.example", w.Header().Get("Access-Control-Allow-Origin"))
}
