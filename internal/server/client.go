package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/palemoky/uno-arena/internal/logger"
	"github.com/palemoky/uno-arena/internal/metrics"
	"github.com/palemoky/uno-arena/internal/protocol"
	"github.com/palemoky/uno-arena/internal/protocol/codec"
	"github.com/palemoky/uno-arena/internal/types"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = pongWait * 9 / 10 // 必须小于 pongWait
	maxMessageSize  = 4096
	sendBufferSize  = 256
	maxRateWarnings = 5 // 被限流超过这个次数就断开
)

var _ types.ClientInterface = (*Client)(nil)

// Client 一条 WebSocket 连接。连上时是临时身份，重连成功后换成令牌里的身份
type Client struct {
	ConnID string
	IP     string

	server *Server
	conn   *websocket.Conn
	send   chan []byte

	mu     sync.RWMutex
	id     string
	name   string
	closed bool
}

func NewClient(s *Server, conn *websocket.Conn, ip string) *Client {
	return &Client{
		ConnID: uuid.NewString(),
		IP:     ip,
		server: s,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		id:     uuid.NewString(),
		name:   GenerateNickname(),
	}
}

func (c *Client) GetID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

func (c *Client) GetName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// SetIdentity 换成重连令牌里的玩家身份
func (c *Client) SetIdentity(id, name string) {
	c.mu.Lock()
	c.id, c.name = id, name
	c.mu.Unlock()
}

// ReadPump 读循环，退出时走断线流程
func (c *Client) ReadPump() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		c.server.handleDisconnect(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.WithPlayer(c.GetID()).WithError(err).Warn("读取错误")
			}
			return
		}

		admitted, keep := c.admit()
		if !keep {
			return
		}
		if !admitted {
			continue
		}

		msg, err := codec.Decode(data)
		if err != nil {
			logger.WithPlayer(c.GetID()).WithError(err).Debug("消息解析错误")
			c.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}
		c.server.metrics.Message(metrics.Inbound, string(msg.Type))
		c.server.handler.Handle(c, msg)
		codec.PutMessage(msg)
	}
}

// admit 消息限流。admitted 为 false 时丢弃这条消息，keep 为 false 时断开连接
func (c *Client) admit() (admitted, keep bool) {
	limiter := c.server.messageLimiter
	allowed, warning := limiter.AllowMessage(c.ConnID)
	switch {
	case !allowed:
		log := logger.WithPlayer(c.GetID()).WithField("ip", c.IP)
		if limiter.GetWarningCount(c.ConnID) > maxRateWarnings {
			log.Warn("🚫 多次超速，断开连接")
			return false, false
		}
		log.Warn("⚠️ 消息过于频繁")
		c.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "消息发送过于频繁"))
		return false, true
	case warning:
		c.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "请求过于频繁，请放慢速度"))
	}
	return true, true
}

// WritePump 写循环，定时发 ping；send 关闭后发 close 帧退出
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, nil)
				return
			}
			if err := c.write(websocket.BinaryMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(frameType int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(frameType, data)
}

// SendMessage 不阻塞。缓冲区满说明对端读得太慢，直接断开
func (c *Client) SendMessage(msg *protocol.Message) {
	data, err := codec.Encode(msg)
	if err != nil {
		logger.WithPlayer(c.GetID()).WithError(err).Error("消息编码错误")
		return
	}

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return
	}
	var full bool
	select {
	case c.send <- data:
	default:
		full = true
	}
	c.mu.RUnlock()

	if full {
		logger.WithPlayer(c.GetID()).Warn("发送缓冲区已满，断开连接")
		c.Close()
	}
}

// Close 关闭发送通道，WritePump 随后关闭连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
