//go:build !production

package session

import "time"

// SetClockForTest 注入时钟（令牌和会话共用）
func (sm *SessionManager) SetClockForTest(now func() time.Time) {
	sm.now = now
	sm.issuer.now = now
}

// RunCleanupForTest 立即执行一次清理
func (sm *SessionManager) RunCleanupForTest() {
	sm.cleanup()
}
