//go:build !production

package room

import (
	"time"
)

// AddRoomForTest 直接放入一个房间，测试用
func (rm *RoomManager) AddRoomForTest(r *Room) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.rooms[r.ID] = r
}

// SetClockForTest 注入时钟
func (rm *RoomManager) SetClockForTest(now func() time.Time) {
	rm.now = now
}

// RunCleanupForTest 立即执行一次清理
func (rm *RoomManager) RunCleanupForTest() {
	rm.cleanup()
}
