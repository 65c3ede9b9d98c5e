package handler

import (
	"github.com/palemoky/uno-arena/internal/apperrors"
	"github.com/palemoky/uno-arena/internal/game/settlement"
	"github.com/palemoky/uno-arena/internal/logger"
	"github.com/palemoky/uno-arena/internal/protocol"
	"github.com/palemoky/uno-arena/internal/protocol/convert"
	"github.com/palemoky/uno-arena/internal/types"
)

// handleClaimPrize 领奖。结果广播给所有参与者，领奖人另外收到一份结算明细
func (h *Handler) handleClaimPrize(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.RoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	roomID := h.roomFor(client, payload.RoomID)
	ctx, cancel := requestContext()
	defer cancel()

	payout, err := h.settlements.ClaimPrize(ctx, roomID, client.GetID())
	if err != nil {
		h.sendError(client, err)
		return
	}
	logger.WithRoom(roomID).WithField("player", client.GetID()).Infof("💰 领奖成功，到手 %d", payout.WinnerShare)

	s, err := h.settlements.Get(roomID)
	if err != nil {
		h.sendError(client, err)
		return
	}
	h.sendSettlement(client, s, &payout)
}

// handleRetryFinalize 账本确认超时后手动重试，任何参与者都可以发起
func (h *Handler) handleRetryFinalize(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.RoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	roomID := h.roomFor(client, payload.RoomID)
	ctx, cancel := requestContext()
	defer cancel()

	s, err := h.settlements.RetryFinalize(ctx, roomID, client.GetID())
	if err != nil {
		h.sendError(client, err)
		return
	}
	h.sendSettlement(client, s, nil)
}

// handleGetSettlement 查询结算状态，只对参与者开放
func (h *Handler) handleGetSettlement(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.RoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	roomID := h.roomFor(client, payload.RoomID)
	s, err := h.settlements.Get(roomID)
	if err != nil {
		h.sendError(client, err)
		return
	}
	if !s.HasPlayer(client.GetID()) {
		h.sendError(client, apperrors.ErrNotAParticipant)
		return
	}
	h.sendSettlement(client, s, nil)
}

// sendSettlement 已确认的结算附带奖金明细
func (h *Handler) sendSettlement(client types.ClientInterface, s settlement.Settlement, payout *settlement.Payout) {
	if payout == nil && s.LedgerFinalized {
		p := h.settlements.Payout(s)
		payout = &p
	}
	client.SendMessage(protocol.MustNewMessage(protocol.MsgSettlementResult, convert.SettlementToPayload(s, payout)))
}
