package settlement

import (
	"slices"
	"time"

	"github.com/palemoky/uno-arena/internal/apperrors"
	"github.com/palemoky/uno-arena/internal/ledger"
)

// State 结算状态
//
//	PendingFinalization -> Finalized -> Claimed
//	PendingFinalization -> TimedOut -> (RetryFinalize) -> Finalized -> Claimed
type State int

const (
	StatePendingFinalization State = iota
	StateFinalized
	StateTimedOut
	StateClaimed
)

var stateNames = map[State]string{
	StatePendingFinalization: "pending_finalization",
	StateFinalized:           "finalized",
	StateTimedOut:            "timed_out",
	StateClaimed:             "claimed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Settlement 一个房间的结算记录，只在房间锁内修改
type Settlement struct {
	RoomID            string    `json:"room_id"`
	Winner            string    `json:"winner"`
	Players           []string  `json:"players"`
	EntryFee          int64     `json:"entry_fee"`
	Pool              int64     `json:"pool"`
	State             State     `json:"state"`
	LedgerFinalized   bool      `json:"ledger_finalized"`
	FinalizationTxRef string    `json:"finalization_tx_ref,omitempty"`
	ClaimedBy         string    `json:"claimed_by,omitempty"`
	ClaimedAt         time.Time `json:"claimed_at,omitzero"`
	Deadline          time.Time `json:"deadline"`
	Attempts          int       `json:"attempts"`
	CreatedAt         time.Time `json:"created_at"`
	LastError         string    `json:"last_error,omitempty"`
	InFlight          bool      `json:"in_flight"`
}

// New 创建待确认的结算记录。奖池 = 入场费 × 参与人数
func New(roomID, winner string, players []string, entryFee int64, now time.Time, window time.Duration) *Settlement {
	return &Settlement{
		RoomID:    roomID,
		Winner:    winner,
		Players:   slices.Clone(players),
		EntryFee:  entryFee,
		Pool:      entryFee * int64(len(players)),
		State:     StatePendingFinalization,
		Deadline:  now.Add(window),
		CreatedAt: now,
	}
}

// Clone 深拷贝，用于把状态带出房间锁
func (s *Settlement) Clone() Settlement {
	c := *s
	c.Players = slices.Clone(s.Players)
	return c
}

// HasPlayer 是否是本局参与者
func (s *Settlement) HasPlayer(playerID string) bool {
	return slices.Contains(s.Players, playerID)
}

// IsFinal 账本已确认（Finalized 或 Claimed）
func (s *Settlement) IsFinal() bool {
	return s.State == StateFinalized || s.State == StateClaimed
}

// Apply 应用一次账本调用的结果，返回是否因此进入 Finalized。
// 超时之后到达的确认同样有效。
func (s *Settlement) Apply(res ledger.Result, callErr error) bool {
	s.InFlight = false
	if s.IsFinal() {
		return false
	}
	if callErr != nil {
		s.LastError = callErr.Error()
		return false
	}
	switch res.Outcome {
	case ledger.OutcomeConfirmed:
		s.State = StateFinalized
		s.LedgerFinalized = true
		s.FinalizationTxRef = res.TxRef
		s.LastError = ""
		return true
	case ledger.OutcomeFailed:
		s.LastError = res.Reason
		if s.LastError == "" {
			s.LastError = "ledger rejected finalization"
		}
	}
	return false
}

// Expire 截止时间到了仍未确认则转入 TimedOut，返回是否发生了转换
func (s *Settlement) Expire(now time.Time) bool {
	if s.State != StatePendingFinalization || now.Before(s.Deadline) {
		return false
	}
	s.State = StateTimedOut
	return true
}

// CanRetry 是否允许手动重试：TimedOut，或者账本明确返回失败后的 Pending
func (s *Settlement) CanRetry() error {
	switch {
	case s.State == StateTimedOut:
		return nil
	case s.State == StatePendingFinalization && s.LastError != "" && !s.InFlight:
		return nil
	}
	return apperrors.ErrRetryNotAllowed
}

// CheckClaim 校验领奖条件，不修改状态
func (s *Settlement) CheckClaim(claimant string) error {
	if !s.IsFinal() {
		return apperrors.ErrNotFinalized
	}
	if claimant != s.Winner {
		return apperrors.ErrNotWinner
	}
	if s.State == StateClaimed {
		return apperrors.ErrAlreadyClaimed
	}
	return nil
}

// MarkClaimed 记录领奖
func (s *Settlement) MarkClaimed(claimant string, at time.Time) {
	s.State = StateClaimed
	s.ClaimedBy = claimant
	s.ClaimedAt = at
}
