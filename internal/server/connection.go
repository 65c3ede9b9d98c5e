package server

import (
	"context"
	"net/http"
	"time"

	"github.com/palemoky/uno-arena/internal/logger"
	"github.com/palemoky/uno-arena/internal/types"
)

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// 获取真实客户端IP
	clientIP := GetClientIP(r)
	log := logger.L().WithField("ip", clientIP)

	// 维护模式检查（最优先）
	if s.IsMaintenanceMode() {
		log.Info("🔧 维护模式，拒绝新连接")
		http.Error(w, "Server is under maintenance, please try again later", http.StatusServiceUnavailable)
		return
	}

	// IP 过滤检查
	if !s.ipFilter.IsAllowed(clientIP) {
		log.Warn("🚫 IP 被过滤器拒绝")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	// 速率限制检查
	if !s.rateLimiter.Allow(clientIP) {
		log.Warn("🚫 请求过于频繁")
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	// 连接数限制检查，断开时释放
	select {
	case s.semaphore <- struct{}{}:
	default:
		log.Warnf("🚫 达到最大连接数限制 (%d)", s.maxConnections)
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	// 来源在 upgrader.CheckOrigin 里验证，失败时 Upgrade 会回 403
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		<-s.semaphore
		log.WithError(err).Warn("WebSocket 升级失败")
		return
	}

	client := NewClient(s, conn, clientIP)
	s.registerClient(client)
	s.metrics.ConnOpened()

	// 创建会话并发送连接成功消息（包含重连令牌）
	if err := s.handler.HandleConnect(client); err != nil {
		log.WithError(err).Error("创建会话失败")
		client.Close()
	}

	logger.WithPlayer(client.GetID()).Infof("✅ 玩家 %s 已连接", client.GetName())

	// 启动客户端读写协程
	go client.WritePump()
	go client.ReadPump()
}

// handleDisconnect 连接断开：注销连接，但保留会话和座位。
// 被新连接顶掉的旧连接只退订，不把玩家标记为离线
func (s *Server) handleDisconnect(c *Client) {
	if s.unregisterClient(c) {
		s.handler.HandleDisconnect(c)
	} else {
		s.hub.UnsubscribeConn(c)
	}
	s.messageLimiter.RemoveClient(c.ConnID)
	s.metrics.ConnClosed()
	c.Close()
	<-s.semaphore
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.GetID()] = client
}

// unregisterClient 注销客户端。同一玩家已经换了新连接时不动新连接，返回 false
func (s *Server) unregisterClient(client *Client) bool {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	id := client.GetID()
	current, ok := s.clients[id]
	if !ok || current != client {
		return false
	}
	delete(s.clients, id)
	logger.WithPlayer(id).Infof("❌ 玩家 %s 已断开", client.GetName())
	return true
}

// Rebind 重连后把连接登记到恢复出来的玩家 ID 下，踢掉同一玩家的旧连接
func (s *Server) Rebind(client types.ClientInterface, oldID string) {
	c, ok := client.(*Client)
	if !ok {
		return
	}

	s.clientsMu.Lock()
	if current, ok := s.clients[oldID]; ok && current == c {
		delete(s.clients, oldID)
	}
	previous := s.clients[c.GetID()]
	s.clients[c.GetID()] = c
	s.clientsMu.Unlock()

	if previous != nil && previous != c {
		previous.Close()
	}
}

// GetOnlineCount 获取在线人数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// GetClientByID 按玩家 ID 查找连接
func (s *Server) GetClientByID(id string) *Client {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return s.clients[id]
}
