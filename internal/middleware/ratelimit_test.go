package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newStoppedLimiter(t *testing.T) *RateLimiter {
	t.Helper()
	limiter := NewRateLimiter()
	t.Cleanup(limiter.Stop)
	return limiter
}

func TestRateLimiterAllowSequence(t *testing.T) {
	limiter := newStoppedLimiter(t)

	for i := 0; i < 3; i++ {
		result := limiter.Allow("client", 3, time.Minute)
		require.True(t, result.Allowed, "request %d should be allowed", i+1)
		require.Equal(t, 3-(i+1), result.Remaining)
	}

	result := limiter.Allow("client", 3, time.Minute)
	require.False(t, result.Allowed)
	require.Zero(t, result.Remaining)
}

func TestRateLimiterWindowReset(t *testing.T) {
	now := time.Now()
	limiter := newStoppedLimiter(t)
	limiter.clock = func() time.Time { return now }

	require.True(t, limiter.Allow("client", 1, time.Second).Allowed)
	require.False(t, limiter.Allow("client", 1, time.Second).Allowed)

	// A request after the window expires opens a fresh one.
	now = now.Add(1500 * time.Millisecond)
	result := limiter.Allow("client", 1, time.Second)
	require.True(t, result.Allowed)
	require.Equal(t, now.Add(time.Second), result.ResetAt)
}

func TestRateLimiterIsolatesIdentifiers(t *testing.T) {
	limiter := newStoppedLimiter(t)

	require.True(t, limiter.Allow("a", 1, time.Minute).Allowed)
	require.False(t, limiter.Allow("a", 1, time.Minute).Allowed)
	require.True(t, limiter.Allow("b", 1, time.Minute).Allowed)
}

func TestRateLimiterStats(t *testing.T) {
	limiter := newStoppedLimiter(t)

	limiter.Allow("client", 10, time.Minute)
	limiter.Allow("client", 10, time.Minute)

	stats := limiter.Stats()
	require.Len(t, stats, 1)
	require.Equal(t, "client", stats[0].Identifier)
	require.Equal(t, 2, stats[0].Count)
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := newStoppedLimiter(t)

	router := gin.New()
	router.GET("/questions", RateLimit(limiter, 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/questions", nil)
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/questions", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	require.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.JSONEq(t, `{"error":"Too many requests. Please try again later."}`, rec.Body.String())
}

func TestRateLimitMiddlewareRetryAfterUsesLimiterClock(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Pin the limiter's clock far from the wall clock; Retry-After must be
	// derived from the same clock that opened the window.
	now := time.Now().Add(-48 * time.Hour)
	limiter := newStoppedLimiter(t)
	limiter.clock = func() time.Time { return now }

	router := gin.New()
	router.GET("/questions", RateLimit(limiter, 1, 90*time.Second), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/questions", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/questions", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "90", rec.Header().Get("Retry-After"))
}

func TestRateLimitMiddlewareKeysByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := newStoppedLimiter(t)

	router := gin.New()
	handler := func(c *gin.Context) { c.Status(http.StatusOK) }
	router.GET("/questions", RateLimit(limiter, 1, time.Minute), handler)
	router.GET("/ai-costs", RateLimit(limiter, 2, time.Minute), handler)

	for _, path := range []string{"/questions", "/ai-costs"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}

	// Exhausting one route leaves the other untouched for the same client.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/questions", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ai-costs", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
