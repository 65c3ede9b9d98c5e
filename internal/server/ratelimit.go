package server

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/palemoky/uno-arena/internal/logger"
)

const (
	visitorIdleTTL       = 10 * time.Minute
	visitorSweepInterval = 5 * time.Minute
)

// RateLimiter 按 IP 限制建连和 REST 请求：秒级、分钟级两个令牌桶，超限封禁一段时间
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string]*visitor

	perSecond   int
	perMinute   int
	banDuration time.Duration

	stop chan struct{}
	once sync.Once
}

type visitor struct {
	second      *rate.Limiter
	minute      *rate.Limiter
	lastSeen    time.Time
	bannedUntil time.Time
}

// NewRateLimiter 创建限流器并启动过期记录清理
func NewRateLimiter(maxPerSecond, maxPerMinute int, banDuration time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests:    make(map[string]*visitor),
		perSecond:   maxPerSecond,
		perMinute:   maxPerMinute,
		banDuration: banDuration,
		stop:        make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

// Allow 消耗一次额度，被封禁或超限返回 false
func (rl *RateLimiter) Allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.requests[ip]
	if !ok {
		v = &visitor{
			second: rate.NewLimiter(rate.Limit(rl.perSecond), rl.perSecond),
			minute: rate.NewLimiter(rate.Every(time.Minute/time.Duration(max(rl.perMinute, 1))), rl.perMinute),
		}
		rl.requests[ip] = v
	}
	v.lastSeen = now

	if now.Before(v.bannedUntil) {
		return false
	}
	if v.second.AllowN(now, 1) && v.minute.AllowN(now, 1) {
		return true
	}

	v.bannedUntil = now.Add(rl.banDuration)
	logger.L().WithField("ip", ip).Warnf("⚠️ 请求过于频繁，暂时封禁 %v", rl.banDuration)
	return false
}

func (rl *RateLimiter) IsBanned(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	v, ok := rl.requests[ip]
	return ok && time.Now().Before(v.bannedUntil)
}

// Middleware REST 接口的速率限制
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(GetClientIP(r)) {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(visitorSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			rl.sweep(now)
		case <-rl.stop:
			return
		}
	}
}

// sweep 删除长时间没有请求且未在封禁期的记录
func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.requests {
		if now.Sub(v.lastSeen) > visitorIdleTTL && now.After(v.bannedUntil) {
			delete(rl.requests, ip)
		}
	}
}

// MessageRateLimiter 单个连接的消息限流。用掉一半以上的额度时开始警告
type MessageRateLimiter struct {
	mu     sync.Mutex
	limits map[string]*connLimit
	burst  int
}

type connLimit struct {
	limiter  *rate.Limiter
	warnings int
}

func NewMessageRateLimiter(maxPerSecond int) *MessageRateLimiter {
	return &MessageRateLimiter{
		limits: make(map[string]*connLimit),
		burst:  max(maxPerSecond, 1),
	}
}

// AllowMessage 返回是否放行，以及是否应该提醒客户端放慢
func (ml *MessageRateLimiter) AllowMessage(connID string) (allowed, warning bool) {
	now := time.Now()

	ml.mu.Lock()
	defer ml.mu.Unlock()

	cl, ok := ml.limits[connID]
	if !ok {
		cl = &connLimit{limiter: rate.NewLimiter(rate.Limit(ml.burst), ml.burst)}
		ml.limits[connID] = cl
	}

	if !cl.limiter.AllowN(now, 1) {
		cl.warnings++
		return false, true
	}
	used := float64(ml.burst) - cl.limiter.TokensAt(now)
	return true, used > float64(ml.burst/2)
}

// GetWarningCount 被拒绝的次数
func (ml *MessageRateLimiter) GetWarningCount(connID string) int {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if cl, ok := ml.limits[connID]; ok {
		return cl.warnings
	}
	return 0
}

func (ml *MessageRateLimiter) RemoveClient(connID string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	delete(ml.limits, connID)
}
