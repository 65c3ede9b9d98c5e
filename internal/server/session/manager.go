package session

import (
	"sync"
	"time"
)

const (
	// 会话过期时间
	sessionExpireTime = 10 * time.Minute
	cleanupInterval   = 1 * time.Minute
)

// PlayerSession 玩家会话
type PlayerSession struct {
	PlayerID       string
	PlayerName     string
	ReconnectToken string
	RoomID         string

	DisconnectedAt time.Time // 断线时间
	IsOnline       bool      // 是否在线

	mu sync.RWMutex
}

// Snapshot 会话的只读副本
func (s *PlayerSession) Snapshot() PlayerSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return PlayerSession{
		PlayerID:       s.PlayerID,
		PlayerName:     s.PlayerName,
		ReconnectToken: s.ReconnectToken,
		RoomID:         s.RoomID,
		DisconnectedAt: s.DisconnectedAt,
		IsOnline:       s.IsOnline,
	}
}

// SessionManager 会话管理器。身份由令牌承载，这里只保存在线状态
type SessionManager struct {
	issuer   *TokenIssuer
	sessions map[string]*PlayerSession // playerID -> session
	mu       sync.RWMutex

	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

// NewSessionManager 创建会话管理器并启动清理协程
func NewSessionManager(issuer *TokenIssuer) *SessionManager {
	sm := &SessionManager{
		issuer:   issuer,
		sessions: make(map[string]*PlayerSession),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go sm.cleanupLoop()
	return sm
}

// Close 停止清理协程
func (sm *SessionManager) Close() {
	sm.once.Do(func() { close(sm.stop) })
}

// CreateSession 新玩家：签发令牌并登记会话
func (sm *SessionManager) CreateSession(playerID, playerName string) (*PlayerSession, error) {
	token, err := sm.issuer.Issue(playerID, playerName)
	if err != nil {
		return nil, err
	}

	session := &PlayerSession{
		PlayerID:       playerID,
		PlayerName:     playerName,
		ReconnectToken: token,
		IsOnline:       true,
	}

	sm.mu.Lock()
	sm.sessions[playerID] = session
	sm.mu.Unlock()
	return session, nil
}

// Resume 用令牌恢复会话。内存里没有（例如服务重启）时按令牌里的身份重建
func (sm *SessionManager) Resume(token string) (*PlayerSession, error) {
	claims, err := sm.issuer.Parse(token)
	if err != nil {
		return nil, err
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, ok := sm.sessions[claims.Subject]
	if !ok {
		session = &PlayerSession{
			PlayerID:       claims.Subject,
			PlayerName:     claims.Name,
			ReconnectToken: token,
		}
		sm.sessions[claims.Subject] = session
	}

	session.mu.Lock()
	session.IsOnline = true
	session.DisconnectedAt = time.Time{}
	session.mu.Unlock()
	return session, nil
}

// GetSession 获取会话
func (sm *SessionManager) GetSession(playerID string) *PlayerSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[playerID]
}

// Remove 删除会话（连接改用重连身份后，临时身份作废）
func (sm *SessionManager) Remove(playerID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, playerID)
}

// SetOffline 设置玩家离线
func (sm *SessionManager) SetOffline(playerID string) {
	if session := sm.GetSession(playerID); session != nil {
		session.mu.Lock()
		session.IsOnline = false
		session.DisconnectedAt = sm.now()
		session.mu.Unlock()
	}
}

// SetRoom 记录玩家所在房间
func (sm *SessionManager) SetRoom(playerID, roomID string) {
	if session := sm.GetSession(playerID); session != nil {
		session.mu.Lock()
		session.RoomID = roomID
		session.mu.Unlock()
	}
}

// IsOnline 检查玩家是否在线
func (sm *SessionManager) IsOnline(playerID string) bool {
	session := sm.GetSession(playerID)
	if session == nil {
		return false
	}
	session.mu.RLock()
	defer session.mu.RUnlock()
	return session.IsOnline
}

// OnlineCount 在线人数
func (sm *SessionManager) OnlineCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	n := 0
	for _, s := range sm.sessions {
		s.mu.RLock()
		if s.IsOnline {
			n++
		}
		s.mu.RUnlock()
	}
	return n
}

// cleanupLoop 定期清理过期会话
func (sm *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sm.cleanup()
		case <-sm.stop:
			return
		}
	}
}

// cleanup 清理离线超过过期时间的会话。令牌仍然有效，之后重连会重建会话
func (sm *SessionManager) cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := sm.now()
	for playerID, session := range sm.sessions {
		session.mu.RLock()
		expired := !session.IsOnline && now.Sub(session.DisconnectedAt) > sessionExpireTime
		session.mu.RUnlock()
		if expired {
			delete(sm.sessions, playerID)
		}
	}
}
