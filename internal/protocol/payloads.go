package protocol

// CardInfo 牌的传输格式，color/rank 使用名称便于调试
type CardInfo struct {
	Color string `json:"color"`
	Rank  string `json:"rank"`
	Short string `json:"short,omitempty"`
}

// --- 客户端请求 Payloads ---

// ReconnectPayload 断线重连请求
type ReconnectPayload struct {
	Token string `json:"token"` // 重连令牌
}

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// CreateRoomPayload 创建房间请求
type CreateRoomPayload struct {
	Capacity int   `json:"capacity"`
	EntryFee int64 `json:"entry_fee"` // 最小货币单位
}

// RoomPayload 只携带房间 ID 的请求（加入/离开/开始/订阅/拉取/领奖/重试）
type RoomPayload struct {
	RoomID string `json:"room_id"`
}

// PlayCardPayload 出牌请求
type PlayCardPayload struct {
	RoomID      string `json:"room_id"`
	CardIndex   int    `json:"card_index"`
	ChosenColor string `json:"chosen_color,omitempty"` // 万能牌必填
}

// GetStatsPayload 获取个人统计请求
type GetStatsPayload struct {
	PlayerID string `json:"player_id,omitempty"` // 为空时查自己
}

// GetLeaderboardPayload 获取排行榜请求
type GetLeaderboardPayload struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	PlayerID       string `json:"player_id"`
	PlayerName     string `json:"player_name"`
	ReconnectToken string `json:"reconnect_token"` // 重连令牌
}

// ReconnectedPayload 重连成功响应
type ReconnectedPayload struct {
	PlayerID   string               `json:"player_id"`
	PlayerName string               `json:"player_name"`
	RoomID     string               `json:"room_id,omitempty"` // 如果在房间中
	State      *StateChangedPayload `json:"state,omitempty"`   // 如果在对局中
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"` // 客户端发送的时间戳
	ServerTimestamp int64 `json:"server_timestamp"` // 服务器时间戳（毫秒）
}

// RoomInfo 房间信息
type RoomInfo struct {
	RoomID      string   `json:"room_id"`
	Capacity    int      `json:"capacity"`
	EntryFee    int64    `json:"entry_fee"`
	Members     []string `json:"members"`
	Lifecycle   string   `json:"lifecycle"`
	Creator     string   `json:"creator"`
	CreatedAtMs int64    `json:"created_at_ms"`
}

// RoomEventPayload 房间事件（创建/加入/离开/有人加入/有人离开/解散）
type RoomEventPayload struct {
	Room     RoomInfo `json:"room"`
	PlayerID string   `json:"player_id,omitempty"`
}

// RoomListPayload 房间列表
type RoomListPayload struct {
	Rooms []RoomInfo `json:"rooms"`
}

// LastActionInfo 最近一次动作
type LastActionInfo struct {
	Kind     string    `json:"kind"` // start/play/draw/timeout_draw/forfeit
	PlayerID string    `json:"player_id,omitempty"`
	Card     *CardInfo `json:"card,omitempty"`
	AtMs     int64     `json:"at_ms"`
}

// OpponentInfo 对手信息，只暴露手牌数量
type OpponentInfo struct {
	PlayerID string `json:"player_id"`
	HandSize int    `json:"hand_size"`
	Left     bool   `json:"left,omitempty"` // 中途离开，仍占座
}

// StateChangedPayload 玩家视角的对局状态
type StateChangedPayload struct {
	RoomID            string          `json:"room_id"`
	Status            string          `json:"status"` // active/concluded
	Players           []string        `json:"players"`
	DiscardTop        CardInfo        `json:"discard_top"`
	Hand              []CardInfo      `json:"hand"`
	Playable          []int           `json:"playable,omitempty"` // 可出的手牌下标
	ActivePlayerIndex int             `json:"active_player_index"`
	ActivePlayerID    string          `json:"active_player_id"`
	Direction         int             `json:"direction"`
	DrawPileSize      int             `json:"draw_pile_size"`
	TurnStartedAtMs   int64           `json:"turn_started_at_ms"`
	TurnDeadlineMs    int64           `json:"turn_deadline_ms"`
	Opponents         []OpponentInfo  `json:"opponents"`
	LastAction        *LastActionInfo `json:"last_action,omitempty"`
	Winner            string          `json:"winner,omitempty"`
	Reason            string          `json:"reason,omitempty"`
}

// CardDrawnPayload 摸牌结果
type CardDrawnPayload struct {
	RoomID string   `json:"room_id"`
	Card   CardInfo `json:"card"`
}

// MatchConcludedPayload 对局结束
type MatchConcludedPayload struct {
	RoomID string `json:"room_id"`
	Winner string `json:"winner"`
	Reason string `json:"reason"` // empty_hand/opponent_left
}

// PayoutInfo 奖金明细（最小货币单位）
type PayoutInfo struct {
	Pool        int64 `json:"pool"`
	PlatformFee int64 `json:"platform_fee"`
	WinnerShare int64 `json:"winner_share"`
	FeeBasisPts int64 `json:"fee_bps"`
}

// SettlementPayload 结算状态
type SettlementPayload struct {
	RoomID      string      `json:"room_id"`
	Winner      string      `json:"winner"`
	State       string      `json:"state"`
	Pool        int64       `json:"pool"`
	TxRef       string      `json:"tx_ref,omitempty"`
	DeadlineMs  int64       `json:"deadline_ms"`
	Attempts    int         `json:"attempts"`
	ClaimedBy   string      `json:"claimed_by,omitempty"`
	ClaimedAtMs int64       `json:"claimed_at_ms,omitempty"`
	Payout      *PayoutInfo `json:"payout,omitempty"`
	Message     string      `json:"message,omitempty"`
}

// StatsResultPayload 个人统计结果
type StatsResultPayload struct {
	PlayerID      string  `json:"player_id"`
	TotalGames    int     `json:"total_games"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"win_rate"`
	TotalWinnings int64   `json:"total_winnings"`
	Rank          int     `json:"rank"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	PlayerID      string  `json:"player_id"`
	TotalWinnings int64   `json:"total_winnings"`
	Wins          int     `json:"wins"`
	TotalGames    int     `json:"total_games"`
	WinRate       float64 `json:"win_rate"`
}

// LeaderboardResultPayload 排行榜结果
type LeaderboardResultPayload struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// MaintenancePayload 维护通知
type MaintenancePayload struct {
	Maintenance bool `json:"maintenance"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
