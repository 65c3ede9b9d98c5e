package handler

import (
	"time"

	"github.com/palemoky/uno-arena/internal/logger"
	"github.com/palemoky/uno-arena/internal/protocol"
	"github.com/palemoky/uno-arena/internal/protocol/convert"
	"github.com/palemoky/uno-arena/internal/types"
)

// HandleConnect 新连接：签发令牌，进入大厅
func (h *Handler) HandleConnect(client types.ClientInterface) error {
	sess, err := h.sessions.CreateSession(client.GetID(), client.GetName())
	if err != nil {
		return err
	}
	h.hub.EnterLobby(client)

	client.SendMessage(protocol.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		PlayerID:       sess.PlayerID,
		PlayerName:     sess.PlayerName,
		ReconnectToken: sess.ReconnectToken,
	}))
	return nil
}

// HandleDisconnect 连接断开。玩家仍然占座，回合计时器会替他摸牌
func (h *Handler) HandleDisconnect(client types.ClientInterface) {
	h.hub.UnsubscribeConn(client)
	h.sessions.SetOffline(client.GetID())
}

// handlePing 处理心跳消息
func (h *Handler) handlePing(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return
	}

	// 立即回复 pong
	client.SendMessage(protocol.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}

// handleReconnect 处理断线重连：连接换成令牌里的身份，在房间里就重新订阅并带回当前视图
func (h *Handler) handleReconnect(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.ReconnectPayload](msg)
	if err != nil || payload.Token == "" {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	sess, err := h.sessions.Resume(payload.Token)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeUnauthorized))
		return
	}

	oldID := client.GetID()
	if oldID != sess.PlayerID {
		h.hub.UnsubscribeConn(client)
		h.sessions.Remove(oldID)
		client.SetIdentity(sess.PlayerID, sess.PlayerName)
		h.server.Rebind(client, oldID)
	}

	resp := protocol.ReconnectedPayload{
		PlayerID:   sess.PlayerID,
		PlayerName: sess.PlayerName,
	}

	if roomID, ok := h.rooms.RoomOf(sess.PlayerID); ok && h.rooms.IsPresent(roomID, sess.PlayerID) {
		h.hub.Subscribe(roomID, sess.PlayerID, client)
		h.sessions.SetRoom(sess.PlayerID, roomID)
		resp.RoomID = roomID
		if view, err := h.rooms.View(roomID, sess.PlayerID); err == nil {
			state := convert.ViewToPayload(view)
			resp.State = &state
		}
	} else {
		h.sessions.SetRoom(sess.PlayerID, "")
		h.hub.EnterLobby(client)
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgReconnected, resp))
	logger.WithPlayer(sess.PlayerID).Infof("🔄 玩家 %s 重连成功", sess.PlayerName)
}
