package server

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/palemoky/uno-arena/internal/logger"
	"github.com/palemoky/uno-arena/internal/protocol"
)

const (
	monitorInterval = 30 * time.Second
	shutdownNotice  = 10 * time.Second // 通知玩家到真正断开的间隔
)

// MonitorStats 定期打印服务器状态，直到 ctx 结束
func (s *Server) MonitorStats(ctx context.Context) {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			logger.L().Infof("📊 [监控] 在线: %d | 会话: %d | 房间: %d | 对局: %d | Goroutines: %d | 活跃连接: %d/%d | 内存: %.2f MB",
				s.GetOnlineCount(),
				s.sessionManager.OnlineCount(),
				s.roomManager.RoomCount(),
				s.roomManager.ActiveMatchCount(),
				runtime.NumGoroutine(),
				len(s.semaphore),
				s.maxConnections,
				float64(m.Alloc)/1024/1024)
		}
	}
}

// EnterMaintenanceMode 进入维护模式：停止新连接和房间创建，进行中的对局照常进行
func (s *Server) EnterMaintenanceMode() {
	s.roomManager.SetMaintenanceMode(true)

	s.hub.BroadcastAll(protocol.MustNewMessage(protocol.MsgMaintenancePush, protocol.MaintenancePayload{
		Maintenance: true,
	}))

	logger.L().Info("🔧 进入维护模式：停止新连接和房间创建")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	return s.roomManager.IsMaintenanceMode()
}

// GracefulShutdown 优雅关闭：进入维护模式，等进行中的对局结束（最多 timeout），然后关闭
func (s *Server) GracefulShutdown(ctx context.Context, timeout time.Duration) {
	// 1. 进入维护模式
	s.EnterMaintenanceMode()

	// 2. 等待对局结束
	s.waitForMatches(ctx, timeout)

	// 3. 关闭服务器
	s.Shutdown()
}

// waitForMatches 轮询进行中的对局数
func (s *Server) waitForMatches(ctx context.Context, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(s.config.Game.ShutdownCheckIntervalDuration())
	defer ticker.Stop()

	for {
		active := s.roomManager.ActiveMatchCount()
		if active == 0 {
			logger.L().Infof("✅ 所有对局已结束，将在 %v 后关闭服务器！", shutdownNotice)
			s.hub.BroadcastAll(protocol.NewErrorMessageWithText(protocol.ErrCodeServerMaintenance,
				fmt.Sprintf("🚧 服务器将在 %d 秒后停机维护！", int(shutdownNotice.Seconds()))))
			return
		}

		select {
		case <-ctx.Done():
			logger.L().Warnf("⚠️ 超时，仍有 %d 个对局进行中，强制关闭", active)
			return
		case <-ticker.C:
			logger.L().Infof("⏳ 等待 %d 个对局结束...", active)
		}
	}
}

// Shutdown 关闭 HTTP 服务和所有连接
func (s *Server) Shutdown() {
	time.Sleep(shutdownNotice)

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			logger.L().WithError(err).Warn("HTTP 服务关闭失败")
		}
	}

	// 关闭所有客户端连接
	s.clientsMu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.RUnlock()
	for _, c := range clients {
		c.Close()
	}

	s.rateLimiter.Close()
	s.sessionManager.Close()
	logger.L().Info("服务器已关闭")
}
