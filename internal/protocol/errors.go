package protocol

// 错误码
const (
	ErrCodeUnknown            = 1000
	ErrCodeInvalidMsg         = 1001
	ErrCodeRateLimit          = 1002 // 速率限制
	ErrCodeUnauthorized       = 1003 // 令牌无效
	ErrCodeRoomNotFound       = 2001
	ErrCodeRoomFull           = 2002
	ErrCodeNotInRoom          = 2003
	ErrCodeMatchStarted       = 2004
	ErrCodeMatchNotStarted    = 2005
	ErrCodeNotEnoughPlayers   = 2006
	ErrCodeInvalidCapacity    = 2007
	ErrCodeInvalidStake       = 2008
	ErrCodeNotYourTurn        = 3001
	ErrCodeInvalidCardIndex   = 3002
	ErrCodeIllegalMove        = 3003
	ErrCodeMissingColorChoice = 3004
	ErrCodeNotAParticipant    = 3005
	ErrCodeMatchConcluded     = 3006
	ErrCodeDeckExhausted      = 3101
	ErrCodeNotFinalized       = 4001
	ErrCodeNotWinner          = 4002
	ErrCodeAlreadyClaimed     = 4003
	ErrCodeSettlementNotFound = 4004
	ErrCodeRetryNotAllowed    = 4005
	ErrCodeLedgerUnavailable  = 4101
	ErrCodeServerMaintenance  = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:            "未知错误",
	ErrCodeInvalidMsg:         "无效的消息格式",
	ErrCodeRateLimit:          "请求过于频繁",
	ErrCodeUnauthorized:       "令牌无效或已过期",
	ErrCodeRoomNotFound:       "房间不存在",
	ErrCodeRoomFull:           "房间已满",
	ErrCodeNotInRoom:          "您不在房间中",
	ErrCodeMatchStarted:       "对局已开始",
	ErrCodeMatchNotStarted:    "对局尚未开始",
	ErrCodeNotEnoughPlayers:   "至少需要 2 名玩家",
	ErrCodeInvalidCapacity:    "房间人数必须在 2-4 之间",
	ErrCodeInvalidStake:       "入场费必须大于 0",
	ErrCodeNotYourTurn:        "还没轮到您",
	ErrCodeInvalidCardIndex:   "无效的手牌序号",
	ErrCodeIllegalMove:        "这张牌不能压在当前牌上",
	ErrCodeMissingColorChoice: "万能牌必须选择颜色",
	ErrCodeNotAParticipant:    "您不是本局玩家",
	ErrCodeMatchConcluded:     "对局已结束",
	ErrCodeDeckExhausted:      "牌堆已空",
	ErrCodeNotFinalized:       "结果尚未在账本确认",
	ErrCodeNotWinner:          "只有赢家可以领奖",
	ErrCodeAlreadyClaimed:     "奖金已被领取",
	ErrCodeSettlementNotFound: "结算记录不存在",
	ErrCodeRetryNotAllowed:    "当前状态不能重试确认",
	ErrCodeLedgerUnavailable:  "账本服务暂不可用",
	ErrCodeServerMaintenance:  "服务器维护中",
}
