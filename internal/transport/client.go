// Package transport 终端客户端的 WebSocket 连接：读写协程、心跳和断线重连
package transport

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/uno-arena/internal/protocol"
	"github.com/palemoky/uno-arena/internal/protocol/codec"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// 心跳检测间隔
	heartbeatInterval = 5 * time.Second
	// 最大重连次数
	maxReconnectAttempts = 5
	// 重连间隔，之后指数退避
	reconnectInterval = 2 * time.Second
	maxBackoff        = 30 * time.Second
	// 发出令牌后等待 reconnected 的时间
	resumeTimeout = 10 * time.Second

	bufferSize = 256
)

var (
	ErrClosed     = errors.New("connection closed")
	ErrBufferFull = errors.New("send buffer full")
	ErrTimeout    = errors.New("receive timeout")
	ErrNoToken    = errors.New("no reconnect token")
)

// Client WebSocket 客户端
type Client struct {
	ServerURL string

	// 当前连接，重连时整体替换
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	receive chan *protocol.Message
	stop    chan struct{}
	resumed chan struct{} // 收到 reconnected 时通知重连协程

	playerID       string
	playerName     string
	reconnectToken string
	// 恢复途中服务器发来的临时身份，令牌被拒时改用它
	pending *protocol.Message

	// 回调
	OnMessage       func(*protocol.Message) // 消息回调
	OnError         func(error)             // 错误回调
	OnClose         func()                  // 关闭回调
	OnReconnect     func()                  // 重连成功回调
	OnReconnecting  func(attempt, max int)  // 正在重连回调
	OnLatencyUpdate func(int64)             // 延迟更新回调

	mu             sync.RWMutex
	closed         bool
	stopOnce       sync.Once
	latency        atomic.Int64
	reconnecting   atomic.Bool // 重连协程在运行
	resuming       atomic.Bool // 首次连接带令牌，等待 reconnected
	reconnectCount atomic.Int32
	dialer         websocket.Dialer
}

// NewClient 创建客户端
func NewClient(serverURL string) *Client {
	return &Client{
		ServerURL: serverURL,
		receive:   make(chan *protocol.Message, bufferSize),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		resumed:   make(chan struct{}, 1),
		dialer: websocket.Dialer{
			HandshakeTimeout:  10 * time.Second,
			EnableCompression: false,
		},
	}
}

// Connect 连接服务器，已有令牌时自动发起恢复
func (c *Client) Connect() error {
	conn, _, err := c.dialer.Dial(c.ServerURL, nil)
	if err != nil {
		return err
	}
	resume := c.ReconnectToken() != ""
	if resume {
		c.resuming.Store(true)
	}
	c.attach(conn)
	if resume {
		return c.Reconnect()
	}
	return nil
}

// attach 换上新连接并启动读写协程，旧连接的写协程随之退出。
// 返回的 channel 在读协程退出时关闭
func (c *Client) attach(conn *websocket.Conn) <-chan struct{} {
	c.mu.Lock()
	if c.isStopped() {
		c.mu.Unlock()
		_ = conn.Close()
		readDone := make(chan struct{})
		close(readDone)
		return readDone
	}
	c.detachLocked()
	c.conn = conn
	c.send = make(chan []byte, bufferSize)
	c.done = make(chan struct{})
	c.closed = false
	send, done := c.send, c.done
	c.mu.Unlock()

	readDone := make(chan struct{})
	go c.readPump(conn, readDone)
	go c.writePump(conn, send, done)
	return readDone
}

func (c *Client) detachLocked() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

// SendMessage 发送消息
func (c *Client) SendMessage(msg *protocol.Message) error {
	data, err := codec.Encode(msg)
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed || c.send == nil {
		return ErrClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// Receive 接收消息（阻塞）
func (c *Client) Receive() (*protocol.Message, error) {
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-c.stop:
		return nil, ErrClosed
	}
}

// ReceiveWithTimeout 带超时接收消息
func (c *Client) ReceiveWithTimeout(timeout time.Duration) (*protocol.Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-timer.C:
		return nil, ErrTimeout
	case <-c.stop:
		return nil, ErrClosed
	}
}

// Close 主动关闭，不再重连
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.detachLocked()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.stopOnce.Do(func() { close(c.stop) })
}

// IsConnected 是否已连接
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed && c.conn != nil
}

func (c *Client) isStopped() bool {
	select {
	case <-c.stop:
		return true
	default:
		return false
	}
}

// Identity 当前玩家身份，连接成功前为空
func (c *Client) Identity() (playerID, playerName string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID, c.playerName
}

// ReconnectToken 重连令牌
func (c *Client) ReconnectToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reconnectToken
}

// SetReconnectToken 使用保存的令牌，下次连接后会自动恢复身份
func (c *Client) SetReconnectToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnectToken = token
}

func (c *Client) setIdentity(playerID, playerName, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
	c.playerName = playerName
	if token != "" {
		c.reconnectToken = token
	}
}

// GetLatency 获取当前延迟（毫秒）
func (c *Client) GetLatency() int64 {
	return c.latency.Load()
}

// IsReconnecting 是否正在重连
func (c *Client) IsReconnecting() bool {
	return c.reconnecting.Load()
}
