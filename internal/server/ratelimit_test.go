package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Allow(t *testing.T) {
	t.Parallel()

	// 每秒 5 次，每分钟 10 次
	rl := NewRateLimiter(5, 10, time.Second)
	t.Cleanup(rl.Close)
	ip := "127.0.0.1"

	for i := range 5 {
		assert.True(t, rl.Allow(ip), "request %d should be allowed", i)
	}

	assert.False(t, rl.Allow(ip), "6th request should be blocked")
	assert.True(t, rl.IsBanned(ip))
	assert.False(t, rl.IsBanned("10.0.0.2"), "other IPs are unaffected")
}

func TestRateLimiter_Sweep(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(5, 10, time.Second)
	t.Cleanup(rl.Close)
	require.True(t, rl.Allow("1.1.1.1"))

	rl.sweep(time.Now())
	assert.Len(t, rl.requests, 1, "fresh entries survive")

	rl.sweep(time.Now().Add(11 * time.Minute))
	assert.Empty(t, rl.requests)
}

func TestRateLimiter_Middleware(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 10, time.Minute)
	t.Cleanup(rl.Close)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
		req.RemoteAddr = "9.9.9.9:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusNoContent, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}

func TestMessageRateLimiter(t *testing.T) {
	t.Parallel()

	ml := NewMessageRateLimiter(5)
	connID := "conn-1"

	for i := range 5 {
		allowed, warning := ml.AllowMessage(connID)
		assert.True(t, allowed)
		// 阈值是 5/2 = 2，第 3 条起开始警告
		assert.Equal(t, i >= 2, warning, "message %d", i)
	}

	allowed, warning := ml.AllowMessage(connID)
	assert.False(t, allowed)
	assert.True(t, warning)
	assert.Equal(t, 1, ml.GetWarningCount(connID))

	ml.RemoveClient(connID)
	assert.Zero(t, ml.GetWarningCount(connID))
}
