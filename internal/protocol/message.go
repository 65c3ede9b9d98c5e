package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgReconnect MessageType = "reconnect" // 断线重连
	MsgPing      MessageType = "ping"      // 心跳 ping

	// 房间操作
	MsgCreateRoom  MessageType = "create_room"   // 创建房间
	MsgJoinRoom    MessageType = "join_room"     // 加入房间
	MsgLeaveRoom   MessageType = "leave_room"    // 离开房间
	MsgStartMatch  MessageType = "start_match"   // 开始对局
	MsgSubscribe   MessageType = "subscribe"     // 订阅房间推送
	MsgGetRoomList MessageType = "get_room_list" // 获取房间列表

	// 游戏操作
	MsgPlayCard     MessageType = "play_card"     // 出牌
	MsgDrawCard     MessageType = "draw_card"     // 摸牌
	MsgRequestState MessageType = "request_state" // 主动拉取视图

	// 结算
	MsgClaimPrize    MessageType = "claim_prize"    // 领奖
	MsgRetrySettle   MessageType = "retry_finalize" // 手动重试账本确认
	MsgGetSettlement MessageType = "get_settlement" // 查询结算状态

	// 排行榜
	MsgGetStats       MessageType = "get_stats"       // 获取个人统计
	MsgGetLeaderboard MessageType = "get_leaderboard" // 获取排行榜
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected   MessageType = "connected"   // 连接成功
	MsgReconnected MessageType = "reconnected" // 重连成功
	MsgPong        MessageType = "pong"        // 心跳 pong

	// 房间相关
	MsgRoomCreated    MessageType = "room_created"    // 房间创建成功
	MsgRoomJoined     MessageType = "room_joined"     // 加入房间成功
	MsgRoomLeft       MessageType = "room_left"       // 离开房间成功
	MsgPlayerJoined   MessageType = "player_joined"   // 其他玩家加入
	MsgPlayerLeft     MessageType = "player_left"     // 玩家离开
	MsgRoomsUpdate    MessageType = "rooms_update"    // 大厅房间列表变化
	MsgRoomListResult MessageType = "room_list_result"
	MsgRoomCancelled  MessageType = "room_cancelled" // 房间解散

	// 对局
	MsgMatchStarted   MessageType = "match_started"   // 对局开始
	MsgStateChanged   MessageType = "state_changed"   // 玩家视图
	MsgCardDrawn      MessageType = "card_drawn"      // 摸到的牌（只发给自己）
	MsgMatchConcluded MessageType = "match_concluded" // 对局结束

	// 结算
	MsgSettlementFinalized MessageType = "settlement_finalized" // 账本已确认
	MsgSettlementTimedOut  MessageType = "settlement_timed_out" // 账本确认超时，可手动重试
	MsgSettlementClaimed   MessageType = "settlement_claimed"   // 奖金已领取
	MsgSettlementResult    MessageType = "settlement_result"    // 查询结果

	// 排行榜
	MsgStatsResult       MessageType = "stats_result"       // 个人统计结果
	MsgLeaderboardResult MessageType = "leaderboard_result" // 排行榜结果

	// 系统通知
	MsgMaintenancePush MessageType = "maintenance_push" // 主动推送

	// 错误
	MsgError MessageType = "error" // 错误消息
)
