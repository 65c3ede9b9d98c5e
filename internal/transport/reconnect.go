package transport

import (
	"time"

	"github.com/palemoky/uno-arena/internal/logger"
	"github.com/palemoky/uno-arena/internal/protocol"
)

// Reconnect 手动发送重连请求
func (c *Client) Reconnect() error {
	token := c.ReconnectToken()
	if token == "" {
		return ErrNoToken
	}
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgReconnect, protocol.ReconnectPayload{
		Token: token,
	}))
}

// StartHeartbeat 启动心跳检测，Close 后退出
func (c *Client) StartHeartbeat() {
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if c.IsConnected() {
					_ = c.Ping()
				}
			case <-c.stop:
				return
			}
		}
	}()
}

// tryReconnect 指数退避重连，调用方已经把 reconnecting 置为 true
func (c *Client) tryReconnect() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			c.reconnecting.Store(false)
		}
	}()

	backoff := reconnectInterval
	for c.reconnectCount.Load() < maxReconnectAttempts {
		attempt := c.reconnectCount.Add(1)
		// 通过回调通知 UI 正在重连
		if c.OnReconnecting != nil {
			c.OnReconnecting(int(attempt), maxReconnectAttempts)
		}

		select {
		case <-time.After(backoff):
		case <-c.stop:
			return
		}
		backoff = min(backoff*2, maxBackoff)

		conn, _, err := c.dialer.Dial(c.ServerURL, nil)
		if err != nil {
			logger.L().WithError(err).Debugf("重连失败 (%d/%d)", attempt, maxReconnectAttempts)
			continue
		}
		// 清掉上一轮残留的通知
		select {
		case <-c.resumed:
		default:
		}
		readDone := c.attach(conn)

		// 服务器收到令牌后回 reconnected，由 readPump 清掉重连状态
		if err := c.Reconnect(); err != nil {
			_ = conn.Close()
			continue
		}
		select {
		case <-c.resumed:
			return
		case <-readDone:
			// 恢复前连接又断了
		case <-time.After(resumeTimeout):
			_ = conn.Close()
		case <-c.stop:
			return
		}
	}

	// 重连失败
	logger.L().Warn("❌ 重连失败，已达最大尝试次数")
	c.reconnecting.Store(false)
	c.Close()
	if c.OnClose != nil {
		c.OnClose()
	}
}
