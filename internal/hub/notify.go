package hub

import (
	"github.com/palemoky/uno-arena/internal/game/card"
	"github.com/palemoky/uno-arena/internal/game/match"
	"github.com/palemoky/uno-arena/internal/game/room"
	"github.com/palemoky/uno-arena/internal/game/settlement"
	"github.com/palemoky/uno-arena/internal/protocol"
	"github.com/palemoky/uno-arena/internal/protocol/convert"
)

var (
	_ room.Notifier       = (*Hub)(nil)
	_ settlement.Listener = (*Hub)(nil)
)

var eventTypes = map[room.EventKind]protocol.MessageType{
	room.EventPlayerJoined:  protocol.MsgPlayerJoined,
	room.EventPlayerLeft:    protocol.MsgPlayerLeft,
	room.EventRoomCancelled: protocol.MsgRoomCancelled,
}

// RoomEvent 房间成员变化
func (h *Hub) RoomEvent(kind room.EventKind, info room.Info, playerID string) {
	msgType, ok := eventTypes[kind]
	if !ok {
		return
	}
	msg := protocol.MustNewMessage(msgType, protocol.RoomEventPayload{
		Room:     convert.RoomToInfo(info),
		PlayerID: playerID,
	})
	h.Broadcast(info.ID, info.Members, msg)
}

// LobbyChanged 可加入的房间列表变化
func (h *Hub) LobbyChanged(rooms []room.Info) {
	h.BroadcastLobby(protocol.MustNewMessage(protocol.MsgRoomsUpdate, protocol.RoomListPayload{
		Rooms: convert.RoomsToInfos(rooms),
	}))
}

// MatchStarted 对局开始
func (h *Hub) MatchStarted(info room.Info) {
	h.Broadcast(info.ID, info.Members, protocol.MustNewMessage(protocol.MsgMatchStarted, protocol.RoomEventPayload{
		Room: convert.RoomToInfo(info),
	}))
}

// StateChanged 每次变更后给每个玩家推送自己的视图
func (h *Hub) StateChanged(roomID string, views map[string]match.PlayerView) {
	h.PushViews(roomID, views)
}

// PushViews 每个玩家只收到自己的视图
func (h *Hub) PushViews(roomID string, views map[string]match.PlayerView) {
	for playerID, v := range views {
		h.Push(roomID, playerID, protocol.MustNewMessage(protocol.MsgStateChanged, convert.ViewToPayload(v)))
	}
}

// CardDrawn 摸到的牌只发给摸牌者
func (h *Hub) CardDrawn(roomID, playerID string, c card.Card) {
	h.Push(roomID, playerID, protocol.MustNewMessage(protocol.MsgCardDrawn, protocol.CardDrawnPayload{
		RoomID: roomID,
		Card:   convert.CardToInfo(c),
	}))
}

// MatchConcluded 对局结束
func (h *Hub) MatchConcluded(roomID string, members []string, winner, reason string) {
	h.Broadcast(roomID, members, protocol.MustNewMessage(protocol.MsgMatchConcluded, protocol.MatchConcludedPayload{
		RoomID: roomID,
		Winner: winner,
		Reason: reason,
	}))
}

// Detach 玩家离开房间，连接回到大厅
func (h *Hub) Detach(roomID, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.subs[roomID][playerID]
	if !ok {
		return
	}
	h.removeLocked(roomID, playerID)
	h.lobby[c] = struct{}{}
}

func (h *Hub) payout(s settlement.Settlement) *settlement.Payout {
	bps := h.feeBps
	if bps < 0 {
		bps = settlement.DefaultFeeBps
	}
	p := settlement.ComputePayout(s.Pool, bps)
	return &p
}

// SettlementFinalized 账本已确认，所有参与者都会收到，赢家可以领奖
func (h *Hub) SettlementFinalized(s settlement.Settlement) {
	h.Broadcast(s.RoomID, s.Players, protocol.MustNewMessage(protocol.MsgSettlementFinalized,
		convert.SettlementToPayload(s, h.payout(s))))
}

// SettlementTimedOut 账本确认超时，提示可以手动重试
func (h *Hub) SettlementTimedOut(s settlement.Settlement) {
	p := convert.SettlementToPayload(s, nil)
	p.Message = "账本确认超时，奖金不会丢失，请手动重试结算"
	h.Broadcast(s.RoomID, s.Players, protocol.MustNewMessage(protocol.MsgSettlementTimedOut, p))
}

// SettlementClaimed 奖金已领取
func (h *Hub) SettlementClaimed(s settlement.Settlement, payout settlement.Payout) {
	h.Broadcast(s.RoomID, s.Players, protocol.MustNewMessage(protocol.MsgSettlementClaimed,
		convert.SettlementToPayload(s, &payout)))
}
