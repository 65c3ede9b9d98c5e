package handler

import (
	"github.com/palemoky/uno-arena/internal/apperrors"
	"github.com/palemoky/uno-arena/internal/game/card"
	"github.com/palemoky/uno-arena/internal/protocol"
	"github.com/palemoky/uno-arena/internal/protocol/convert"
	"github.com/palemoky/uno-arena/internal/types"
)

// handlePlayCard 处理出牌。成功后每个玩家都会收到自己的 state_changed，这里不再单独回复
func (h *Handler) handlePlayCard(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.PlayCardPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	var chosen *card.Color
	if payload.ChosenColor != "" {
		c, err := card.ParseColor(payload.ChosenColor)
		if err != nil || !c.Playable() {
			h.sendError(client, apperrors.ErrMissingColorChoice)
			return
		}
		chosen = &c
	}

	roomID := h.roomFor(client, payload.RoomID)
	if _, err := h.rooms.PlayCard(roomID, client.GetID(), payload.CardIndex, chosen); err != nil {
		h.sendError(client, err)
	}
}

// handleDrawCard 处理摸牌，摸到的牌通过 card_drawn 单独推给自己
func (h *Handler) handleDrawCard(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.RoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	roomID := h.roomFor(client, payload.RoomID)
	if _, err := h.rooms.DrawCard(roomID, client.GetID()); err != nil {
		h.sendError(client, err)
	}
}

// handleRequestState 主动拉取自己的视图
func (h *Handler) handleRequestState(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.RoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	roomID := h.roomFor(client, payload.RoomID)
	view, err := h.rooms.View(roomID, client.GetID())
	if err != nil {
		h.sendError(client, err)
		return
	}
	client.SendMessage(protocol.MustNewMessage(protocol.MsgStateChanged, convert.ViewToPayload(view)))
}
