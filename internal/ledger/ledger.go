// Package ledger 外部账本（链上结算）的调用约定。
// 所有实现对同一个房间都必须是幂等的：重复 Finalize 返回同一个交易号。
package ledger

import (
	"context"
	"errors"
)

// Outcome 账本调用结果
type Outcome int

const (
	OutcomePending   Outcome = iota // 已受理，尚未确认
	OutcomeConfirmed                // 已确认，TxRef 有效
	OutcomeFailed                   // 明确失败，可以重试
	OutcomeNotFound                 // 查询时账本上没有该房间的记录
)

var outcomeNames = map[Outcome]string{
	OutcomePending:   "pending",
	OutcomeConfirmed: "confirmed",
	OutcomeFailed:    "failed",
	OutcomeNotFound:  "not_found",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return "unknown"
}

// ParseOutcome 解析网关返回的状态字符串
func ParseOutcome(s string) (Outcome, error) {
	for o, name := range outcomeNames {
		if name == s {
			return o, nil
		}
	}
	return OutcomeFailed, errors.New("ledger: unknown status " + s)
}

// Result 一次调用的结果
type Result struct {
	Outcome Outcome
	TxRef   string
	Reason  string
}

// Confirmed 构造确认结果
func Confirmed(txRef string) Result { return Result{Outcome: OutcomeConfirmed, TxRef: txRef} }

// Service 账本服务
type Service interface {
	// Finalize 在账本上记录房间的赢家
	Finalize(ctx context.Context, roomID, winnerID string) (Result, error)
	// QueryFinalization 查询房间是否已经在账本上确认，没有记录返回 OutcomeNotFound
	QueryFinalization(ctx context.Context, roomID string) (Result, error)
}
