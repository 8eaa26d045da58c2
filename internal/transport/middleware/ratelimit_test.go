package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(time.Hour, clock.Now)
	t.Cleanup(rl.Stop)
	return rl, clock
}

func hit(h http.Handler, remote string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/lookup", nil)
	req.RemoteAddr = remote
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	rl, _ := newTestLimiter(t)
	handler := rl.Limit(10)(okHandler())

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, hit(handler, "1.2.3.4:1234").Code, "request %d should be allowed", i)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl, _ := newTestLimiter(t)
	handler := rl.Limit(5)(okHandler())

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, hit(handler, "1.2.3.4:1234").Code)
	}

	rec := hit(handler, "1.2.3.4:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "13", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_PortsShareBucket(t *testing.T) {
	rl, _ := newTestLimiter(t)
	handler := rl.Limit(2)(okHandler())

	hit(handler, "1.1.1.1:1000")
	hit(handler, "1.1.1.1:2000")

	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "1.1.1.1:3000").Code)
}

func TestRateLimiter_DifferentHostsIndependent(t *testing.T) {
	rl, _ := newTestLimiter(t)
	handler := rl.Limit(2)(okHandler())

	hit(handler, "1.1.1.1:1234")
	hit(handler, "1.1.1.1:1234")

	assert.Equal(t, http.StatusOK, hit(handler, "2.2.2.2:5678").Code)
}

func TestRateLimiter_TokenRefill(t *testing.T) {
	rl, clock := newTestLimiter(t)
	// 60 per minute = 1 per second
	handler := rl.Limit(60)(okHandler())

	for i := 0; i < 60; i++ {
		hit(handler, "3.3.3.3:1234")
	}
	require.Equal(t, http.StatusTooManyRequests, hit(handler, "3.3.3.3:1234").Code)

	clock.Advance(1100 * time.Millisecond)

	assert.Equal(t, http.StatusOK, hit(handler, "3.3.3.3:1234").Code)
}

func TestRateLimiter_ZeroDisables(t *testing.T) {
	rl, _ := newTestLimiter(t)
	handler := rl.Limit(0)(okHandler())

	for i := 0; i < 100; i++ {
		require.Equal(t, http.StatusOK, hit(handler, "4.4.4.4:1").Code)
	}
}

func TestRateLimiter_SweepDropsIdleBuckets(t *testing.T) {
	rl, clock := newTestLimiter(t)
	handler := rl.Limit(1)(okHandler())

	hit(handler, "5.5.5.5:1")
	require.Equal(t, http.StatusTooManyRequests, hit(handler, "5.5.5.5:1").Code)

	clock.Advance(idleBucketTTL + time.Second)
	rl.sweep(clock.Now())

	_, ok := rl.buckets.Load("5.5.5.5")
	assert.False(t, ok, "idle bucket should be removed")
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}
