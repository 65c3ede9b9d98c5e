package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIPFilter(t *testing.T) {
	t.Parallel()

	ip := "192.168.1.1"
	filter := NewIPFilter(nil, []string{"172.16.0.9"})
	assert.True(t, filter.IsAllowed(ip))
	assert.False(t, filter.IsAllowed("172.16.0.9"))

	filter.AddToBlacklist(ip)
	assert.False(t, filter.IsAllowed(ip))

	// 有白名单时只放行白名单
	filter = NewIPFilter([]string{"10.0.0.1"}, nil)
	assert.False(t, filter.IsAllowed(ip))
	assert.True(t, filter.IsAllowed("10.0.0.1"))
}

func TestIPFilter_Middleware(t *testing.T) {
	t.Parallel()

	filter := NewIPFilter(nil, []string{"10.0.0.66"})
	h := filter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for ip, want := range map[string]int{"10.0.0.66": http.StatusForbidden, "10.0.0.7": http.StatusNoContent} {
		req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
		req.Header.Set("X-Real-IP", ip)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, ip)
	}
}

func TestOriginChecker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"empty list allows all", nil, "https://evil.example", true},
		{"wildcard", []string{"*"}, "https://evil.example", true},
		{"listed", []string{"https://uno.example"}, "https://uno.example", true},
		{"case insensitive", []string{"https://UNO.example"}, "https://uno.EXAMPLE", true},
		{"not listed", []string{"https://uno.example"}, "https://evil.example", false},
		{"no origin header", []string{"https://uno.example"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, NewOriginChecker(tt.allowed).Check(req))
		})
	}
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}, "127.0.0.1:80", "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": "5.6.7.8"}, "127.0.0.1:80", "5.6.7.8"},
		{"remote addr", nil, "8.8.8.8:5555", "8.8.8.8"},
		{"remote addr without port", nil, "8.8.4.4", "8.8.4.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetClientIP(req))
		})
	}
}
