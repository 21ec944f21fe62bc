package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsUpToMax(t *testing.T) {
	limiter := NewRateLimiter(time.Hour)
	config := RateLimitConfig{MaxRequests: 3, TimeWindow: time.Minute, BlockDuration: time.Minute}

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.isAllowed("login:1.2.3.4", config), "attempt %d", i+1)
	}
	assert.False(t, limiter.isAllowed("login:1.2.3.4", config), "fourth attempt is blocked")
	assert.False(t, limiter.isAllowed("login:1.2.3.4", config), "stays blocked")
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(time.Hour)
	config := RateLimitConfig{MaxRequests: 1, TimeWindow: time.Minute, BlockDuration: time.Minute}

	assert.True(t, limiter.isAllowed("login:1.2.3.4", config))
	assert.False(t, limiter.isAllowed("login:1.2.3.4", config))
	assert.True(t, limiter.isAllowed("login:5.6.7.8", config), "other clients are unaffected")
}

func TestRateLimiterUnblocksAfterBlockDuration(t *testing.T) {
	limiter := NewRateLimiter(time.Hour)
	config := RateLimitConfig{MaxRequests: 1, TimeWindow: time.Millisecond, BlockDuration: 10 * time.Millisecond}

	assert.True(t, limiter.isAllowed("login:1.2.3.4", config))
	assert.False(t, limiter.isAllowed("login:1.2.3.4", config))

	time.Sleep(15 * time.Millisecond)
	assert.True(t, limiter.isAllowed("login:1.2.3.4", config), "block expires")
}

func TestLoginRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(time.Hour)
	config := RateLimitConfig{MaxRequests: 2, TimeWindow: time.Minute, BlockDuration: time.Minute}

	router := gin.New()
	router.POST("/login", limiter.LoginRateLimitMiddleware(config), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	attempt := func() int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, attempt())
	assert.Equal(t, http.StatusOK, attempt())
	assert.Equal(t, http.StatusTooManyRequests, attempt())
}
