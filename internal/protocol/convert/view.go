package convert

import (
	"time"

	"github.com/palemoky/uno-arena/internal/game/match"
	"github.com/palemoky/uno-arena/internal/game/room"
	"github.com/palemoky/uno-arena/internal/game/settlement"
	"github.com/palemoky/uno-arena/internal/protocol"
)

// UnixMs 零值时间转为 0，避免发出负数时间戳
func UnixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// ViewToPayload 将玩家视图转换为 state_changed 负载
func ViewToPayload(v match.PlayerView) protocol.StateChangedPayload {
	p := protocol.StateChangedPayload{
		RoomID:            v.RoomID,
		Status:            v.Status.String(),
		Players:           v.Players,
		DiscardTop:        CardToInfo(v.DiscardTop),
		Hand:              CardsToInfos(v.Hand),
		Playable:          v.Playable,
		ActivePlayerIndex: v.ActivePlayerIndex,
		ActivePlayerID:    v.ActivePlayerID,
		Direction:         v.Direction,
		DrawPileSize:      v.DrawPileSize,
		TurnStartedAtMs:   UnixMs(v.TurnStartedAt),
		TurnDeadlineMs:    UnixMs(v.TurnDeadline),
		Opponents:         make([]protocol.OpponentInfo, len(v.Opponents)),
		Winner:            v.Winner,
		Reason:            v.Reason,
	}
	for i, o := range v.Opponents {
		p.Opponents[i] = protocol.OpponentInfo{PlayerID: o.PlayerID, HandSize: o.HandSize, Left: o.Left}
	}
	if v.LastAction.Kind != "" {
		la := &protocol.LastActionInfo{
			Kind:     string(v.LastAction.Kind),
			PlayerID: v.LastAction.PlayerID,
			AtMs:     UnixMs(v.LastAction.At),
		}
		if v.LastAction.Card != nil {
			ci := CardToInfo(*v.LastAction.Card)
			la.Card = &ci
		}
		p.LastAction = la
	}
	return p
}

// RoomToInfo 房间摘要的传输格式
func RoomToInfo(info room.Info) protocol.RoomInfo {
	return protocol.RoomInfo{
		RoomID:      info.ID,
		Capacity:    info.Capacity,
		EntryFee:    info.Stake,
		Members:     info.Members,
		Lifecycle:   info.Lifecycle.String(),
		Creator:     info.Creator,
		CreatedAtMs: UnixMs(info.CreatedAt),
	}
}

// RoomsToInfos 批量转换房间摘要
func RoomsToInfos(rooms []room.Info) []protocol.RoomInfo {
	infos := make([]protocol.RoomInfo, len(rooms))
	for i, r := range rooms {
		infos[i] = RoomToInfo(r)
	}
	return infos
}

// PayoutToInfo 奖金明细
func PayoutToInfo(p settlement.Payout) *protocol.PayoutInfo {
	return &protocol.PayoutInfo{
		Pool:        p.Pool,
		PlatformFee: p.PlatformFee,
		WinnerShare: p.WinnerShare,
		FeeBasisPts: p.FeeBps,
	}
}

// SettlementToPayload 结算状态的传输格式，payout 可以为空
func SettlementToPayload(s settlement.Settlement, payout *settlement.Payout) protocol.SettlementPayload {
	p := protocol.SettlementPayload{
		RoomID:      s.RoomID,
		Winner:      s.Winner,
		State:       s.State.String(),
		Pool:        s.Pool,
		TxRef:       s.FinalizationTxRef,
		DeadlineMs:  UnixMs(s.Deadline),
		Attempts:    s.Attempts,
		ClaimedBy:   s.ClaimedBy,
		ClaimedAtMs: UnixMs(s.ClaimedAt),
		Message:     s.LastError,
	}
	if payout != nil {
		p.Payout = PayoutToInfo(*payout)
	}
	return p
}
