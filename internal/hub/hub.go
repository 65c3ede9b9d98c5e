// Package hub 维护 (房间, 玩家) -> 连接 的订阅关系，负责把房间里的变化推给在线玩家。
// 推送最多一次：玩家不在线时直接丢弃，重连后通过拉取视图恢复。
package hub

import (
	"sync"

	"github.com/palemoky/uno-arena/internal/logger"
	"github.com/palemoky/uno-arena/internal/metrics"
	"github.com/palemoky/uno-arena/internal/protocol"
)

// Conn 推送目标。SendMessage 不能阻塞
type Conn interface {
	SendMessage(msg *protocol.Message)
}

// Hub 订阅表
type Hub struct {
	subs  map[string]map[string]Conn // roomID -> playerID -> conn
	lobby map[Conn]struct{}
	mu    sync.RWMutex

	feeBps  int64
	metrics *metrics.Metrics
}

// Option 可选配置
type Option func(*Hub)

// WithFeeBps 结算推送里计算奖金明细用的费率
func WithFeeBps(bps int64) Option {
	return func(h *Hub) { h.feeBps = bps }
}

// WithMetrics 记录推送消息数
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// New 创建 Hub
func New(opts ...Option) *Hub {
	h := &Hub{
		subs:   make(map[string]map[string]Conn),
		lobby:  make(map[Conn]struct{}),
		feeBps: -1,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe 登记玩家在房间里的连接，重连时替换旧连接。订阅后不再接收大厅广播
func (h *Hub) Subscribe(roomID, playerID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.subs[roomID]
	if !ok {
		room = make(map[string]Conn)
		h.subs[roomID] = room
	}
	room[playerID] = c
	delete(h.lobby, c)
}

// Unsubscribe 只有登记的仍是 c 时才移除，避免旧连接断开时把新连接踢掉
func (h *Hub) Unsubscribe(roomID, playerID string, c Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.subs[roomID]
	if room == nil || room[playerID] != c {
		return false
	}
	h.removeLocked(roomID, playerID)
	h.lobby[c] = struct{}{}
	return true
}

// UnsubscribeConn 连接断开，移除它的所有订阅
func (h *Hub) UnsubscribeConn(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.lobby, c)
	for roomID, room := range h.subs {
		for playerID, conn := range room {
			if conn == c {
				h.removeLocked(roomID, playerID)
			}
		}
	}
}

func (h *Hub) removeLocked(roomID, playerID string) {
	room := h.subs[roomID]
	delete(room, playerID)
	if len(room) == 0 {
		delete(h.subs, roomID)
	}
}

// EnterLobby 连接进入大厅，接收房间列表变化
func (h *Hub) EnterLobby(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lobby[c] = struct{}{}
}

// Lookup 玩家在房间里登记的连接
func (h *Hub) Lookup(roomID, playerID string) (Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.subs[roomID][playerID]
	return c, ok
}

// Subscribers 房间里在线的玩家数
func (h *Hub) Subscribers(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[roomID])
}

// Push 发给房间里的某个玩家，不在线返回 false
func (h *Hub) Push(roomID, playerID string, msg *protocol.Message) bool {
	h.mu.RLock()
	c, ok := h.subs[roomID][playerID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	c.SendMessage(msg)
	h.metrics.Message(metrics.Outbound, string(msg.Type))
	return true
}

// Broadcast 发给 members 中所有在线的玩家，返回送达人数
func (h *Hub) Broadcast(roomID string, members []string, msg *protocol.Message) int {
	sent := 0
	for _, id := range members {
		if h.Push(roomID, id, msg) {
			sent++
		}
	}
	return sent
}

// BroadcastLobby 发给大厅里的所有连接
func (h *Hub) BroadcastLobby(msg *protocol.Message) {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.lobby))
	for c := range h.lobby {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.SendMessage(msg)
	}
	logger.L().Debugf("📢 大厅广播 %s -> %d 个连接", msg.Type, len(conns))
}

// BroadcastAll 发给所有连接（大厅和房间），用于维护通知
func (h *Hub) BroadcastAll(msg *protocol.Message) {
	h.mu.RLock()
	seen := make(map[Conn]struct{}, len(h.lobby))
	for c := range h.lobby {
		seen[c] = struct{}{}
	}
	for _, room := range h.subs {
		for _, c := range room {
			seen[c] = struct{}{}
		}
	}
	h.mu.RUnlock()

	for c := range seen {
		c.SendMessage(msg)
	}
}
