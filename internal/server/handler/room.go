package handler

import (
	"github.com/palemoky/uno-arena/internal/apperrors"
	"github.com/palemoky/uno-arena/internal/protocol"
	"github.com/palemoky/uno-arena/internal/protocol/convert"
	"github.com/palemoky/uno-arena/internal/types"
)

// handleCreateRoom 创建房间，创建者自动入座并订阅推送
func (h *Handler) handleCreateRoom(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.CreateRoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	playerID := client.GetID()
	info, err := h.rooms.CreateRoom(playerID, payload.Capacity, payload.EntryFee)
	if err != nil {
		h.sendError(client, err)
		return
	}

	h.hub.Subscribe(info.ID, playerID, client)
	h.sessions.SetRoom(playerID, info.ID)
	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomCreated, protocol.RoomEventPayload{
		Room:     convert.RoomToInfo(info),
		PlayerID: playerID,
	}))
}

// handleJoinRoom 加入房间
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.RoomPayload](msg)
	if err != nil || payload.RoomID == "" {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	playerID := client.GetID()
	info, err := h.rooms.JoinRoom(payload.RoomID, playerID)
	if err != nil {
		h.sendError(client, err)
		return
	}

	h.hub.Subscribe(info.ID, playerID, client)
	h.sessions.SetRoom(playerID, info.ID)
	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomJoined, protocol.RoomEventPayload{
		Room:     convert.RoomToInfo(info),
		PlayerID: playerID,
	}))
}

// handleLeaveRoom 离开房间，连接回到大厅
func (h *Handler) handleLeaveRoom(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.RoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	playerID := client.GetID()
	roomID := h.roomFor(client, payload.RoomID)
	if roomID == "" {
		h.sendError(client, apperrors.ErrNotInRoom)
		return
	}
	if err := h.rooms.LeaveRoom(roomID, playerID); err != nil {
		h.sendError(client, err)
		return
	}

	h.hub.Unsubscribe(roomID, playerID, client)
	h.hub.EnterLobby(client)
	h.sessions.SetRoom(playerID, "")

	resp := protocol.RoomEventPayload{Room: protocol.RoomInfo{RoomID: roomID}, PlayerID: playerID}
	if info, err := h.rooms.GetRoom(roomID); err == nil {
		resp.Room = convert.RoomToInfo(info)
	}
	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomLeft, resp))
}

// handleStartMatch 开局，结果通过 match_started / state_changed 推送
func (h *Handler) handleStartMatch(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.RoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	roomID := h.roomFor(client, payload.RoomID)
	if err := h.rooms.StartMatch(roomID, client.GetID()); err != nil {
		h.sendError(client, err)
	}
}

// handleSubscribe 重新订阅房间推送（换了连接或刷新页面），并补发当前状态
func (h *Handler) handleSubscribe(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.RoomPayload](msg)
	if err != nil || payload.RoomID == "" {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	playerID := client.GetID()
	if !h.rooms.IsPresent(payload.RoomID, playerID) {
		h.sendError(client, apperrors.ErrNotInRoom)
		return
	}
	info, err := h.rooms.GetRoom(payload.RoomID)
	if err != nil {
		h.sendError(client, err)
		return
	}

	h.hub.Subscribe(payload.RoomID, playerID, client)
	h.sessions.SetRoom(playerID, payload.RoomID)
	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomJoined, protocol.RoomEventPayload{
		Room:     convert.RoomToInfo(info),
		PlayerID: playerID,
	}))
	if view, err := h.rooms.View(payload.RoomID, playerID); err == nil {
		client.SendMessage(protocol.MustNewMessage(protocol.MsgStateChanged, convert.ViewToPayload(view)))
	}
}

// handleGetRoomList 获取可加入的房间列表
func (h *Handler) handleGetRoomList(client types.ClientInterface) {
	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomListResult, protocol.RoomListPayload{
		Rooms: convert.RoomsToInfos(h.rooms.ListRooms()),
	}))
}
