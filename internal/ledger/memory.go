package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// OutcomeFunc 决定第 attempt 次 Finalize 的结果，测试用
type OutcomeFunc func(roomID string, attempt int) Outcome

// Memory 进程内账本，开发模式和测试使用
type Memory struct {
	mu       sync.Mutex
	records  map[string]*memRecord
	delay    time.Duration
	outcome  OutcomeFunc
	finalize int
}

type memRecord struct {
	winner    string
	txRef     string
	confirmed bool
	attempts  int
}

// MemoryOption Memory 的可选配置
type MemoryOption func(*Memory)

// WithDelay 每次 Finalize 前等待 d，模拟链上确认耗时
func WithDelay(d time.Duration) MemoryOption {
	return func(m *Memory) { m.delay = d }
}

// WithOutcome 注入结果，默认总是确认
func WithOutcome(f OutcomeFunc) MemoryOption {
	return func(m *Memory) { m.outcome = f }
}

// NewMemory 创建进程内账本
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{records: make(map[string]*memRecord)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Finalize(ctx context.Context, roomID, winnerID string) (Result, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.finalize++

	rec, ok := m.records[roomID]
	if !ok {
		rec = &memRecord{winner: winnerID}
		m.records[roomID] = rec
	}
	if rec.winner != winnerID {
		return Result{Outcome: OutcomeFailed, Reason: "winner mismatch"}, nil
	}
	if rec.confirmed {
		return Confirmed(rec.txRef), nil
	}

	rec.attempts++
	outcome := OutcomeConfirmed
	if m.outcome != nil {
		outcome = m.outcome(roomID, rec.attempts)
	}
	switch outcome {
	case OutcomeConfirmed:
		rec.confirmed = true
		rec.txRef = newTxRef()
		return Confirmed(rec.txRef), nil
	case OutcomeFailed:
		return Result{Outcome: OutcomeFailed, Reason: fmt.Sprintf("attempt %d rejected", rec.attempts)}, nil
	default:
		return Result{Outcome: OutcomePending}, nil
	}
}

func (m *Memory) QueryFinalization(_ context.Context, roomID string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[roomID]
	if !ok || !rec.confirmed {
		return Result{Outcome: OutcomeNotFound}, nil
	}
	return Confirmed(rec.txRef), nil
}

// ConfirmLate 模拟确认在 Finalize 返回之后才落到账本上（之后 QueryFinalization 能查到）
func (m *Memory) ConfirmLate(roomID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[roomID]
	if !ok {
		return ""
	}
	if !rec.confirmed {
		rec.confirmed = true
		rec.txRef = newTxRef()
	}
	return rec.txRef
}

// FinalizeCalls Finalize 被调用的总次数
func (m *Memory) FinalizeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finalize
}

func newTxRef() string {
	return "tx-" + uuid.NewString()
}
