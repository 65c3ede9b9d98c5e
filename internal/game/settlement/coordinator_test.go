package settlement

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/uno-arena/internal/apperrors"
	"github.com/palemoky/uno-arena/internal/ledger"
)

type fakeRooms struct {
	mu sync.Mutex
	s  map[string]*Settlement
}

func newFakeRooms() *fakeRooms {
	return &fakeRooms{s: make(map[string]*Settlement)}
}

func (f *fakeRooms) WithSettlement(roomID string, fn func(s *Settlement) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.s[roomID]
	if !ok {
		return apperrors.ErrSettlementNotFound
	}
	return fn(s)
}

// open 模拟房间在锁内创建结算，随后在锁外 Begin
func (f *fakeRooms) open(c *Coordinator, roomID, winner string, players []string, fee int64) {
	f.mu.Lock()
	f.s[roomID] = c.Open(roomID, winner, players, fee)
	f.mu.Unlock()
	c.Begin(roomID)
}

type memStore struct {
	mu     sync.Mutex
	claims map[string]string
	saved  map[string]Settlement
	deny   bool
}

func newMemStore() *memStore {
	return &memStore{claims: make(map[string]string), saved: make(map[string]Settlement)}
}

func (m *memStore) SaveSettlement(_ context.Context, s Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[s.RoomID] = s
	return nil
}

func (m *memStore) LoadSettlement(_ context.Context, roomID string) (*Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.saved[roomID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memStore) ClaimOnce(_ context.Context, roomID, claimant string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deny {
		return false, nil
	}
	if _, ok := m.claims[roomID]; ok {
		return false, nil
	}
	m.claims[roomID] = claimant
	return true, nil
}

type recorder struct {
	finalized chan Settlement
	timedOut  chan Settlement
	claimed   chan Payout
}

func newRecorder() *recorder {
	return &recorder{
		finalized: make(chan Settlement, 16),
		timedOut:  make(chan Settlement, 16),
		claimed:   make(chan Payout, 16),
	}
}

func (r *recorder) SettlementFinalized(s Settlement)         { r.finalized <- s }
func (r *recorder) SettlementTimedOut(s Settlement)          { r.timedOut <- s }
func (r *recorder) SettlementClaimed(_ Settlement, p Payout) { r.claimed <- p }

func wait[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		var zero T
		return zero
	}
}

func setup(t *testing.T, cfg Config, l ledger.Service) (*Coordinator, *fakeRooms, *memStore, *recorder) {
	t.Helper()
	store := newMemStore()
	c := NewCoordinator(cfg, l, store)
	rooms := newFakeRooms()
	c.AttachRooms(rooms)
	rec := newRecorder()
	c.AddListener(rec)
	t.Cleanup(func() {
		c.Wait()
		c.Close()
	})
	return c, rooms, store, rec
}

func TestCoordinator_FinalizeAndClaim(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, rooms, store, rec := setup(t, Config{Deadline: time.Second, FeeBps: 500}, ledger.NewMemory())
	rooms.open(c, "r1", "alice", []string{"alice", "bob"}, 1000)

	s := wait(t, rec.finalized)
	assert.Equal(t, StateFinalized, s.State)
	assert.NotEmpty(t, s.FinalizationTxRef)
	assert.Equal(t, 1, s.Attempts)

	_, err := c.ClaimPrize(ctx, "r1", "bob")
	assert.ErrorIs(t, err, apperrors.ErrNotWinner)

	p, err := c.ClaimPrize(ctx, "r1", "alice")
	require.NoError(t, err)
	assert.Equal(t, Payout{Pool: 2000, PlatformFee: 100, WinnerShare: 1900, FeeBps: 500}, p)
	assert.Equal(t, p, wait(t, rec.claimed))

	_, err = c.ClaimPrize(ctx, "r1", "alice")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyClaimed)

	got, err := c.Get("r1")
	require.NoError(t, err)
	assert.Equal(t, StateClaimed, got.State)
	assert.Equal(t, "alice", got.ClaimedBy)

	store.mu.Lock()
	assert.Equal(t, StateClaimed, store.saved["r1"].State)
	assert.Equal(t, "alice", store.claims["r1"])
	store.mu.Unlock()
}

func TestCoordinator_ClaimBeforeFinalized(t *testing.T) {
	t.Parallel()

	l := ledger.NewMemory(ledger.WithOutcome(func(string, int) ledger.Outcome { return ledger.OutcomePending }))
	c, rooms, _, _ := setup(t, Config{Deadline: time.Second}, l)
	rooms.open(c, "r1", "alice", []string{"alice", "bob"}, 1000)
	c.Wait()

	_, err := c.ClaimPrize(context.Background(), "r1", "alice")
	assert.ErrorIs(t, err, apperrors.ErrNotFinalized)

	_, err = c.ClaimPrize(context.Background(), "missing", "alice")
	assert.ErrorIs(t, err, apperrors.ErrSettlementNotFound)
}

// Scenario D：30s 窗口内没有确认 -> TimedOut；重试确认 -> Finalized；领奖只成功一次
func TestCoordinator_TimeoutRetryClaim(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := ledger.NewMemory(ledger.WithOutcome(func(_ string, attempt int) ledger.Outcome {
		if attempt == 1 {
			return ledger.OutcomePending
		}
		return ledger.OutcomeConfirmed
	}))
	c, rooms, _, rec := setup(t, Config{Deadline: 30 * time.Millisecond, FeeBps: 500}, l)
	rooms.open(c, "r1", "alice", []string{"alice", "bob", "carol"}, 100)

	timedOut := wait(t, rec.timedOut)
	assert.Equal(t, StateTimedOut, timedOut.State)

	_, err := c.RetryFinalize(ctx, "r1", "mallory")
	assert.ErrorIs(t, err, apperrors.ErrNotInRoom)

	s, err := c.RetryFinalize(ctx, "r1", "bob")
	require.NoError(t, err)
	assert.Equal(t, StateFinalized, s.State)
	assert.Equal(t, 2, s.Attempts)
	wait(t, rec.finalized)

	_, err = c.RetryFinalize(ctx, "r1", "bob")
	assert.ErrorIs(t, err, apperrors.ErrRetryNotAllowed)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			if _, err := c.ClaimPrize(ctx, "r1", "alice"); err == nil {
				wins.Add(1)
			} else {
				assert.ErrorIs(t, err, apperrors.ErrAlreadyClaimed)
			}
		})
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

// 截止时间不取消进行中的调用，迟到的确认照样生效
func TestCoordinator_LateConfirmation(t *testing.T) {
	t.Parallel()

	l := ledger.NewMemory(ledger.WithDelay(150 * time.Millisecond))
	c, rooms, _, rec := setup(t, Config{Deadline: 20 * time.Millisecond, CallTimeout: time.Second}, l)
	rooms.open(c, "r1", "alice", []string{"alice", "bob"}, 100)

	assert.Equal(t, StateTimedOut, wait(t, rec.timedOut).State)
	s := wait(t, rec.finalized)
	assert.Equal(t, StateFinalized, s.State)
	assert.Equal(t, 1, l.FinalizeCalls())
}

func TestCoordinator_RetryReconcilesFirst(t *testing.T) {
	t.Parallel()

	l := ledger.NewMemory(ledger.WithOutcome(func(string, int) ledger.Outcome { return ledger.OutcomePending }))
	c, rooms, _, rec := setup(t, Config{Deadline: 20 * time.Millisecond}, l)
	rooms.open(c, "r1", "alice", []string{"alice", "bob"}, 100)
	wait(t, rec.timedOut)
	c.Wait()

	tx := l.ConfirmLate("r1")
	s, err := c.RetryFinalize(context.Background(), "r1", "alice")
	require.NoError(t, err)
	assert.Equal(t, StateFinalized, s.State)
	assert.Equal(t, tx, s.FinalizationTxRef)
	assert.Equal(t, 1, l.FinalizeCalls(), "reconcile must not re-send finalize")
}

func TestCoordinator_ConcurrentRetriesCollapse(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	l := ledger.NewMemory(
		ledger.WithDelay(40*time.Millisecond),
		ledger.WithOutcome(func(_ string, attempt int) ledger.Outcome {
			calls.Add(1)
			if attempt == 1 {
				return ledger.OutcomePending
			}
			return ledger.OutcomeConfirmed
		}),
	)
	c, rooms, _, rec := setup(t, Config{Deadline: 10 * time.Millisecond, CallTimeout: time.Second}, l)
	rooms.open(c, "r1", "alice", []string{"alice", "bob"}, 100)
	wait(t, rec.timedOut)
	c.Wait()

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			s, err := c.RetryFinalize(context.Background(), "r1", "bob")
			if err != nil {
				assert.ErrorIs(t, err, apperrors.ErrRetryNotAllowed)
				return
			}
			assert.Equal(t, StateFinalized, s.State)
		})
	}
	wg.Wait()
	assert.Equal(t, int32(2), calls.Load())
}

func TestCoordinator_RetryReportsLedgerFailure(t *testing.T) {
	t.Parallel()

	l := ledger.NewMemory(ledger.WithDelay(200 * time.Millisecond))
	c, rooms, _, rec := setup(t, Config{Deadline: 10 * time.Millisecond, CallTimeout: 20 * time.Millisecond}, l)
	rooms.open(c, "r1", "alice", []string{"alice", "bob"}, 100)
	wait(t, rec.timedOut)
	c.Wait()

	_, err := c.RetryFinalize(context.Background(), "r1", "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrLedgerUnavailable)

	s, err := c.Get("r1")
	require.NoError(t, err)
	assert.Equal(t, StateTimedOut, s.State)
	assert.Equal(t, 2, s.Attempts)
	assert.NotEmpty(t, s.LastError)
	assert.False(t, s.InFlight)
	assert.NoError(t, s.CanRetry(), "a failed retry can be retried again")
}

func TestNewCoordinator_CallTimeoutIndependentOfDeadline(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(Config{Deadline: 10 * time.Millisecond}, ledger.NewMemory(), nil)
	t.Cleanup(c.Close)
	assert.Equal(t, DefaultCallTimeout, c.cfg.CallTimeout)
}

func TestCoordinator_FailedResponseAllowsRetry(t *testing.T) {
	t.Parallel()

	l := ledger.NewMemory(ledger.WithOutcome(func(_ string, attempt int) ledger.Outcome {
		if attempt == 1 {
			return ledger.OutcomeFailed
		}
		return ledger.OutcomeConfirmed
	}))
	c, rooms, _, _ := setup(t, Config{Deadline: time.Minute}, l)
	rooms.open(c, "r1", "alice", []string{"alice", "bob"}, 100)
	c.Wait()

	s, err := c.Get("r1")
	require.NoError(t, err)
	require.Equal(t, StatePendingFinalization, s.State)
	require.NotEmpty(t, s.LastError)

	s, err = c.RetryFinalize(context.Background(), "r1", "alice")
	require.NoError(t, err)
	assert.Equal(t, StateFinalized, s.State)
}

func TestCoordinator_ClaimGuardRejects(t *testing.T) {
	t.Parallel()

	c, rooms, store, rec := setup(t, Config{Deadline: time.Second}, ledger.NewMemory())
	rooms.open(c, "r1", "alice", []string{"alice", "bob"}, 100)
	wait(t, rec.finalized)

	store.mu.Lock()
	store.deny = true
	store.mu.Unlock()

	_, err := c.ClaimPrize(context.Background(), "r1", "alice")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyClaimed)
	s, _ := c.Get("r1")
	assert.Equal(t, StateFinalized, s.State)
}

func TestCoordinator_GetFallsBackToStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, rooms, _, rec := setup(t, Config{Deadline: time.Second}, ledger.NewMemory())
	rooms.open(c, "r1", "alice", []string{"alice", "bob"}, 100)
	wait(t, rec.finalized)
	_, err := c.ClaimPrize(ctx, "r1", "alice")
	require.NoError(t, err)

	// 领奖后房间被清理，记录仍能从存储查到
	rooms.mu.Lock()
	delete(rooms.s, "r1")
	rooms.mu.Unlock()

	s, err := c.Get("r1")
	require.NoError(t, err)
	assert.Equal(t, StateClaimed, s.State)
	assert.Equal(t, "alice", s.ClaimedBy)

	_, err = c.Get("never")
	assert.ErrorIs(t, err, apperrors.ErrSettlementNotFound)
}
