package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kevin07696/bnpl-service/pkg/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func request(remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/orders/1/capture", nil)
	req.RemoteAddr = remoteAddr
	return req
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, zap.NewNop())
	defer rl.Shutdown()
	handler := rl.Middleware(okHandler)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, request("10.0.0.1:1234"))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	// A different source port is still the same client
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, request("10.0.0.1:5678"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, request("10.0.0.2:1234"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_CleanupAndEviction(t *testing.T) {
	rl := NewRateLimiter(1, 1, zap.NewNop())
	defer rl.Shutdown()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.maxSize = 2

	rl.getLimiter("a")
	now = now.Add(time.Second)
	rl.getLimiter("b")
	now = now.Add(time.Second)
	rl.getLimiter("c")

	rl.mu.Lock()
	_, hasA := rl.limiters["a"]
	count := len(rl.limiters)
	rl.mu.Unlock()
	assert.False(t, hasA, "oldest client evicted at capacity")
	assert.Equal(t, 2, count)

	now = now.Add(10 * time.Minute)
	assert.Equal(t, 2, rl.cleanup())
}

func TestRateLimiter_ShutdownIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, 1, zap.NewNop())
	rl.Shutdown()
	rl.Shutdown()
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "10.0.0.1", clientIP(request("10.0.0.1:443")))
	assert.Equal(t, "::1", clientIP(request("[::1]:443")))
	assert.Equal(t, "unix", clientIP(request("unix")))
}

func TestTimeout_AddsDeadline(t *testing.T) {
	var deadline time.Time
	var ok bool
	handler := Timeout(resilience.TestTimeoutConfig(), zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))

	handler.ServeHTTP(httptest.NewRecorder(), request("10.0.0.1:1"))

	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
}

func TestTimeout_RespectsParentDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()
	want, _ := parent.Deadline()

	var got time.Time
	handler := Timeout(resilience.TestTimeoutConfig(), zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = r.Context().Deadline()
	}))

	handler.ServeHTTP(httptest.NewRecorder(), request("10.0.0.1:1").WithContext(parent))
	assert.Equal(t, want, got)
}
