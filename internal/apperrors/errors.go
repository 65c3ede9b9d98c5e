package apperrors

import (
	"errors"

	"github.com/palemoky/uno-arena/internal/protocol"
)

// Kind 错误类别，决定错误如何上报以及能否恢复
type Kind int

const (
	KindValidation Kind = iota // 非法操作，只回给发起者，状态不变
	KindResource               // 牌堆耗尽
	KindSettlement             // 领奖相关
	KindRoom                   // 房间生命周期
	KindLedger                 // 账本调用失败/超时
)

// GameError 游戏错误（房间、对局、结算共享）
type GameError struct {
	Code    int
	Kind    Kind
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	// 对局校验
	ErrNotYourTurn        = &GameError{Code: protocol.ErrCodeNotYourTurn, Kind: KindValidation, Message: "还没轮到您"}
	ErrInvalidCardIndex   = &GameError{Code: protocol.ErrCodeInvalidCardIndex, Kind: KindValidation, Message: "无效的手牌序号"}
	ErrIllegalMove        = &GameError{Code: protocol.ErrCodeIllegalMove, Kind: KindValidation, Message: "这张牌不能压在当前牌上"}
	ErrMissingColorChoice = &GameError{Code: protocol.ErrCodeMissingColorChoice, Kind: KindValidation, Message: "万能牌必须选择颜色"}
	ErrNotAParticipant    = &GameError{Code: protocol.ErrCodeNotAParticipant, Kind: KindValidation, Message: "您不是本局玩家"}
	ErrMatchConcluded     = &GameError{Code: protocol.ErrCodeMatchConcluded, Kind: KindValidation, Message: "对局已结束"}

	// 资源
	ErrDeckExhausted = &GameError{Code: protocol.ErrCodeDeckExhausted, Kind: KindResource, Message: "牌堆已空"}

	// 结算
	ErrNotFinalized       = &GameError{Code: protocol.ErrCodeNotFinalized, Kind: KindSettlement, Message: "结果尚未在账本确认"}
	ErrNotWinner          = &GameError{Code: protocol.ErrCodeNotWinner, Kind: KindSettlement, Message: "只有赢家可以领奖"}
	ErrAlreadyClaimed     = &GameError{Code: protocol.ErrCodeAlreadyClaimed, Kind: KindSettlement, Message: "奖金已被领取"}
	ErrSettlementNotFound = &GameError{Code: protocol.ErrCodeSettlementNotFound, Kind: KindSettlement, Message: "结算记录不存在"}
	ErrRetryNotAllowed    = &GameError{Code: protocol.ErrCodeRetryNotAllowed, Kind: KindSettlement, Message: "当前状态不能重试确认"}

	// 房间
	ErrRoomNotFound     = &GameError{Code: protocol.ErrCodeRoomNotFound, Kind: KindRoom, Message: "房间不存在"}
	ErrRoomFull         = &GameError{Code: protocol.ErrCodeRoomFull, Kind: KindRoom, Message: "房间已满"}
	ErrNotInRoom        = &GameError{Code: protocol.ErrCodeNotInRoom, Kind: KindRoom, Message: "您不在房间中"}
	ErrMatchStarted     = &GameError{Code: protocol.ErrCodeMatchStarted, Kind: KindRoom, Message: "对局已开始"}
	ErrMatchNotStarted  = &GameError{Code: protocol.ErrCodeMatchNotStarted, Kind: KindRoom, Message: "对局尚未开始"}
	ErrNotEnoughPlayers = &GameError{Code: protocol.ErrCodeNotEnoughPlayers, Kind: KindRoom, Message: "至少需要 2 名玩家"}
	ErrInvalidCapacity  = &GameError{Code: protocol.ErrCodeInvalidCapacity, Kind: KindRoom, Message: "房间人数必须在 2-4 之间"}
	ErrInvalidStake     = &GameError{Code: protocol.ErrCodeInvalidStake, Kind: KindRoom, Message: "入场费必须大于 0"}
	ErrMaintenance      = &GameError{Code: protocol.ErrCodeServerMaintenance, Kind: KindRoom, Message: "服务器维护中，暂停创建房间"}

	// 账本
	ErrLedgerUnavailable = &GameError{Code: protocol.ErrCodeLedgerUnavailable, Kind: KindLedger, Message: "账本服务暂不可用"}
)

// Code 取错误码，非 GameError 返回 ErrCodeUnknown
func Code(err error) int {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return protocol.ErrCodeUnknown
}

// IsKind 判断错误是否属于某个类别
func IsKind(err error, kind Kind) bool {
	var ge *GameError
	return errors.As(err, &ge) && ge.Kind == kind
}
