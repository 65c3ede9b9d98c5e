package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
)

// OriginChecker WebSocket 握手的 Origin 校验
type OriginChecker struct {
	allowed  map[string]struct{}
	allowAll bool
}

// NewOriginChecker 空列表或包含 "*" 时不做限制
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		if o == "*" {
			oc.allowAll = true
		}
		oc.allowed[strings.ToLower(o)] = struct{}{}
	}
	oc.allowAll = oc.allowAll || len(origins) == 0
	return oc
}

// Check 没有 Origin 头的请求（终端客户端）直接放行
func (oc *OriginChecker) Check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if oc.allowAll || origin == "" {
		return true
	}
	_, ok := oc.allowed[strings.ToLower(origin)]
	return ok
}

// IPFilter 黑白名单。白名单非空时只放行名单内的 IP
type IPFilter struct {
	mu    sync.RWMutex
	allow map[string]struct{}
	deny  map[string]struct{}
}

func NewIPFilter(whitelist, blacklist []string) *IPFilter {
	f := &IPFilter{
		allow: make(map[string]struct{}),
		deny:  make(map[string]struct{}),
	}
	for _, ip := range whitelist {
		f.AddToWhitelist(ip)
	}
	for _, ip := range blacklist {
		f.AddToBlacklist(ip)
	}
	return f
}

func (f *IPFilter) AddToWhitelist(ip string) {
	f.mu.Lock()
	f.allow[ip] = struct{}{}
	f.mu.Unlock()
}

func (f *IPFilter) AddToBlacklist(ip string) {
	f.mu.Lock()
	f.deny[ip] = struct{}{}
	f.mu.Unlock()
}

func (f *IPFilter) IsAllowed(ip string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if _, ok := f.allow[ip]; len(f.allow) > 0 && !ok {
		return false
	}
	_, denied := f.deny[ip]
	return !denied
}

// Middleware REST 接口的 IP 过滤
func (f *IPFilter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !f.IsAllowed(GetClientIP(r)) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetClientIP 优先取代理头里最原始的客户端地址
func GetClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
