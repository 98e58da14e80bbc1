package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (s *stubLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allowed, s.err
}

func newRateLimitedEngine(limiter RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/sessions/:id/cart/items", RateLimit(limiter, 1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func TestRateLimit(t *testing.T) {
	t.Run("allowed passes through", func(t *testing.T) {
		limiter := &stubLimiter{allowed: true}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/sessions/abc/cart/items", nil)

		newRateLimitedEngine(limiter).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if len(limiter.keys) != 1 || limiter.keys[0] != "POST:/sessions/:id/cart/items:192.0.2.1" {
			t.Fatalf("unexpected keys %v", limiter.keys)
		}
	})

	t.Run("blocked returns 429 with retry-after", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/sessions/abc/cart/items", nil)

		newRateLimitedEngine(&stubLimiter{allowed: false}).ServeHTTP(w, req)

		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", w.Code)
		}
		if w.Header().Get("Retry-After") != "60" {
			t.Fatalf("expected Retry-After 60, got %q", w.Header().Get("Retry-After"))
		}
	})

	t.Run("limiter error fails open", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/sessions/abc/cart/items", nil)

		newRateLimitedEngine(&stubLimiter{err: errors.New("redis down")}).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})
}
