package transport

import (
	"time"

	"github.com/palemoky/uno-arena/internal/protocol"
)

// --- 便捷方法 ---

func (c *Client) sendRoom(msgType protocol.MessageType, roomID string) error {
	return c.SendMessage(protocol.MustNewMessage(msgType, protocol.RoomPayload{RoomID: roomID}))
}

// CreateRoom 创建房间
func (c *Client) CreateRoom(capacity int, entryFee int64) error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgCreateRoom, protocol.CreateRoomPayload{
		Capacity: capacity,
		EntryFee: entryFee,
	}))
}

// JoinRoom 加入房间
func (c *Client) JoinRoom(roomID string) error { return c.sendRoom(protocol.MsgJoinRoom, roomID) }

// LeaveRoom 离开房间，对局中离开视为认输
func (c *Client) LeaveRoom(roomID string) error { return c.sendRoom(protocol.MsgLeaveRoom, roomID) }

// StartMatch 开始对局
func (c *Client) StartMatch(roomID string) error { return c.sendRoom(protocol.MsgStartMatch, roomID) }

// GetRoomList 获取房间列表
func (c *Client) GetRoomList() error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgGetRoomList, nil))
}

// PlayCard 出牌，万能牌需要 chosenColor
func (c *Client) PlayCard(roomID string, cardIndex int, chosenColor string) error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgPlayCard, protocol.PlayCardPayload{
		RoomID:      roomID,
		CardIndex:   cardIndex,
		ChosenColor: chosenColor,
	}))
}

// DrawCard 摸牌
func (c *Client) DrawCard(roomID string) error { return c.sendRoom(protocol.MsgDrawCard, roomID) }

// RequestState 拉取当前视图
func (c *Client) RequestState(roomID string) error {
	return c.sendRoom(protocol.MsgRequestState, roomID)
}

// ClaimPrize 领奖
func (c *Client) ClaimPrize(roomID string) error { return c.sendRoom(protocol.MsgClaimPrize, roomID) }

// RetryFinalize 账本确认超时后重试
func (c *Client) RetryFinalize(roomID string) error {
	return c.sendRoom(protocol.MsgRetrySettle, roomID)
}

// GetSettlement 查询结算
func (c *Client) GetSettlement(roomID string) error {
	return c.sendRoom(protocol.MsgGetSettlement, roomID)
}

// GetStats 获取个人统计，playerID 为空时查自己
func (c *Client) GetStats(playerID string) error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgGetStats, protocol.GetStatsPayload{PlayerID: playerID}))
}

// GetLeaderboard 获取排行榜
func (c *Client) GetLeaderboard(offset, limit int) error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgGetLeaderboard, protocol.GetLeaderboardPayload{
		Offset: offset,
		Limit:  limit,
	}))
}

// Ping 发送心跳
func (c *Client) Ping() error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgPing, protocol.PingPayload{
		Timestamp: time.Now().UnixMilli(),
	}))
}
