package transport

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/uno-arena/internal/logger"
	"github.com/palemoky/uno-arena/internal/protocol"
	"github.com/palemoky/uno-arena/internal/protocol/codec"
)

// readPump 从服务器读取消息
func (c *Client) readPump(conn *websocket.Conn, readDone chan struct{}) {
	defer c.handleReadExit()
	defer close(readDone)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		msg, err := codec.Decode(data)
		if err != nil {
			logger.L().WithError(err).Warn("消息解析错误")
			continue
		}

		c.processMessage(msg)
	}
}

func (c *Client) handleReadExit() {
	if r := recover(); r != nil {
		logger.LogPanic(r)
	}
	// 主动关闭，或者重连协程还在等这条连接的结果
	if c.isStopped() || c.reconnecting.Load() {
		return
	}
	// 有令牌就尝试重连
	if c.ReconnectToken() != "" && c.reconnecting.CompareAndSwap(false, true) {
		go c.tryReconnect()
		return
	}
	c.Close()
	if c.OnClose != nil {
		c.OnClose()
	}
}

func (c *Client) handleReadError(err error) {
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
		if c.OnError != nil {
			c.OnError(err)
		}
	}
}

func (c *Client) processMessage(msg *protocol.Message) {
	forward, isReconnected := c.handleInternalMessage(msg)
	if !forward {
		return
	}
	c.deliver(msg, isReconnected)
}

func (c *Client) deliver(msg *protocol.Message, isReconnected bool) {
	// 回调处理
	if c.OnMessage != nil {
		c.OnMessage(msg)
	}

	// 同时发送到 channel
	select {
	case c.receive <- msg:
	default:
	}

	// 重连成功回调放在最后，确保消息已经发送到 channel
	if isReconnected && c.OnReconnect != nil {
		c.OnReconnect()
	}
}

// handleInternalMessage 处理身份和心跳相关的消息，返回是否交给上层
func (c *Client) handleInternalMessage(msg *protocol.Message) (forward, reconnected bool) {
	switch msg.Type {
	case protocol.MsgConnected:
		// 重连途中服务器先发的临时身份不能覆盖原身份
		if c.awaitingResume() {
			c.mu.Lock()
			c.pending = msg
			c.mu.Unlock()
			return false, false
		}
		c.applyConnected(msg)
	case protocol.MsgReconnected:
		if p, err := protocol.ParsePayload[protocol.ReconnectedPayload](msg); err == nil {
			c.setIdentity(p.PlayerID, p.PlayerName, "")
		}
		c.finishResume()
		return true, true
	case protocol.MsgError:
		// 令牌失效（过期或服务器换了密钥），只能用新身份继续
		if !c.awaitingResume() {
			break
		}
		if p, err := protocol.ParsePayload[protocol.ErrorPayload](msg); err != nil || p.Code != protocol.ErrCodeUnauthorized {
			break
		}
		c.mu.Lock()
		pending := c.pending
		c.reconnectToken = ""
		c.mu.Unlock()
		c.finishResume()
		if pending != nil {
			c.applyConnected(pending)
			c.deliver(pending, false)
		}
	case protocol.MsgPong:
		if p, err := protocol.ParsePayload[protocol.PongPayload](msg); err == nil {
			latency := time.Now().UnixMilli() - p.ClientTimestamp
			c.latency.Store(latency)
			if c.OnLatencyUpdate != nil {
				c.OnLatencyUpdate(latency)
			}
		}
	}
	return true, false
}

// writePump 向服务器写入消息，done 关闭时退出
func (c *Client) writePump(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case message := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) awaitingResume() bool {
	return c.resuming.Load() || c.reconnecting.Load()
}

func (c *Client) applyConnected(msg *protocol.Message) {
	if p, err := protocol.ParsePayload[protocol.ConnectedPayload](msg); err == nil {
		c.setIdentity(p.PlayerID, p.PlayerName, p.ReconnectToken)
	}
}

// finishResume 结束恢复流程并唤醒重连协程
func (c *Client) finishResume() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
	c.resuming.Store(false)
	c.reconnecting.Store(false)
	c.reconnectCount.Store(0)
	select {
	case c.resumed <- struct{}{}:
	default:
	}
}
