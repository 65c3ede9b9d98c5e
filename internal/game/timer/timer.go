package timer

import (
	"sync"
	"time"
)

// ExpireFunc 超时回调，参数是 Reset 时捕获的回合开始时间。
// 回调方需要把它和对局当前的 turnStartedAt 比较，不相等说明是过期的触发。
type ExpireFunc func(armedFor time.Time)

// TurnTimer 每局一个的回合计时器，底层只有一个 time.Timer，只 Reset 不重建
type TurnTimer struct {
	timeout  time.Duration
	onExpire ExpireFunc

	mu       sync.Mutex
	t        *time.Timer
	armedFor time.Time
	stopped  bool
}

// New 创建计时器，创建后处于未启动状态
func New(timeout time.Duration, onExpire ExpireFunc) *TurnTimer {
	tt := &TurnTimer{timeout: timeout, onExpire: onExpire}
	tt.t = time.AfterFunc(time.Hour, tt.fire)
	tt.t.Stop()
	return tt
}

// Reset 以 turnStartedAt 为起点重新计时。截止时间已过时立即触发
func (tt *TurnTimer) Reset(turnStartedAt time.Time) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	if tt.stopped {
		return
	}
	tt.armedFor = turnStartedAt
	d := time.Until(turnStartedAt.Add(tt.timeout))
	if d < 0 {
		d = 0
	}
	tt.t.Reset(d)
}

// Stop 停止计时器，之后的 Reset 不再生效
func (tt *TurnTimer) Stop() {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	tt.stopped = true
	tt.t.Stop()
}

// ArmedFor 当前计时对应的回合开始时间
func (tt *TurnTimer) ArmedFor() time.Time {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	return tt.armedFor
}

// Timeout 回合时长
func (tt *TurnTimer) Timeout() time.Duration { return tt.timeout }

func (tt *TurnTimer) fire() {
	tt.mu.Lock()
	if tt.stopped {
		tt.mu.Unlock()
		return
	}
	armedFor := tt.armedFor
	tt.mu.Unlock()

	tt.onExpire(armedFor)
}
