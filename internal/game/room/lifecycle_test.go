package room

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/uno-arena/internal/apperrors"
	"github.com/palemoky/uno-arena/internal/game/card"
	"github.com/palemoky/uno-arena/internal/game/match"
	"github.com/palemoky/uno-arena/internal/game/settlement"
	"github.com/palemoky/uno-arena/internal/ledger"
)

// memStore 内存版房间存储
type memStore struct {
	mu    sync.Mutex
	rooms map[string]Snapshot
}

func newMemStore() *memStore {
	return &memStore{rooms: make(map[string]Snapshot)}
}

func (s *memStore) SaveRoom(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[snap.ID] = snap
	return nil
}

func (s *memStore) DeleteRoom(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	return nil
}

func (s *memStore) LoadRooms(context.Context) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Snapshot, 0, len(s.rooms))
	for _, snap := range s.rooms {
		out = append(out, snap)
	}
	return out, nil
}

func (s *memStore) get(roomID string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.rooms[roomID]
	return snap, ok
}

func TestRecover(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	first := NewRoomManager(Config{TurnTimeout: time.Hour}, Deps{Store: store})
	t.Cleanup(first.Close)

	forming, err := first.CreateRoom("zed", 2, 100)
	require.NoError(t, err)

	info, err := first.CreateRoom("alice", 2, 100)
	require.NoError(t, err)
	_, err = first.JoinRoom(info.ID, "bob")
	require.NoError(t, err)
	require.NoError(t, first.StartMatch(info.ID, "alice"))
	_, err = first.DrawCard(info.ID, "alice")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snap, ok := store.get(info.ID)
		return ok && snap.Match != nil && snap.Match.LastAction.PlayerID == "alice"
	}, time.Second, 5*time.Millisecond)

	// 模拟重启
	second := NewRoomManager(Config{TurnTimeout: time.Hour}, Deps{Store: store})
	t.Cleanup(second.Close)

	n, err := second.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = second.GetRoom(forming.ID)
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
	_, ok := store.get(forming.ID)
	assert.False(t, ok, "forming rooms are dropped on recovery")

	got, err := second.Snapshot(info.ID)
	require.NoError(t, err)
	assert.Equal(t, LifecycleInProgress, got.Lifecycle)
	require.NotNil(t, got.Match)
	assert.Equal(t, card.DeckSize, match.Restore(*got.Match, nil).CardCount())
	assert.Equal(t, 1, second.ActiveMatchCount())

	// 恢复后对局可以继续
	_, err = second.DrawCard(info.ID, got.Match.Players[got.Match.Active])
	assert.NoError(t, err)
}

// slowStore 保存等待中的房间时变慢，制造写入乱序
type slowStore struct {
	*memStore
	delay time.Duration
}

func (s *slowStore) SaveRoom(ctx context.Context, snap Snapshot) error {
	if snap.Lifecycle == LifecycleForming {
		time.Sleep(s.delay)
	}
	return s.memStore.SaveRoom(ctx, snap)
}

func TestPersist_StaleSnapshotNeverOverwrites(t *testing.T) {
	t.Parallel()

	store := &slowStore{memStore: newMemStore(), delay: 50 * time.Millisecond}
	first := NewRoomManager(Config{TurnTimeout: time.Hour}, Deps{Store: store})
	t.Cleanup(first.Close)

	info, err := first.CreateRoom("alice", 2, 100)
	require.NoError(t, err)
	_, err = first.JoinRoom(info.ID, "bob")
	require.NoError(t, err)
	require.NoError(t, first.StartMatch(info.ID, "alice"))
	first.Flush()

	snap, ok := store.get(info.ID)
	require.True(t, ok)
	assert.Equal(t, LifecycleInProgress, snap.Lifecycle)
	assert.NotNil(t, snap.Match)

	second := NewRoomManager(Config{TurnTimeout: time.Hour}, Deps{Store: store})
	t.Cleanup(second.Close)
	n, err := second.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err := second.GetRoom(info.ID)
	require.NoError(t, err)
	assert.Equal(t, LifecycleInProgress, got.Lifecycle)
}

func TestPersist_DeletedRoomStaysDeleted(t *testing.T) {
	t.Parallel()

	store := &slowStore{memStore: newMemStore(), delay: 50 * time.Millisecond}
	rm := NewRoomManager(Config{}, Deps{Store: store})
	t.Cleanup(rm.Close)

	info, err := rm.CreateRoom("alice", 2, 100)
	require.NoError(t, err)
	require.NoError(t, rm.LeaveRoom(info.ID, "alice"))
	rm.Flush()

	_, ok := store.get(info.ID)
	assert.False(t, ok, "a save queued before the delete must not bring the room back")
}

func TestRecover_ConcludedSettlementResumes(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	pending := settlement.New("r1", "alice", []string{"alice", "bob"}, 100, time.Now(), time.Minute)
	pending.InFlight = true
	require.NoError(t, store.SaveRoom(context.Background(), Snapshot{
		ID:         "r1",
		Capacity:   2,
		Stake:      100,
		Members:    []string{"alice", "bob"},
		Lifecycle:  LifecycleConcluded,
		Settlement: pending,
	}))

	claimed := settlement.New("r2", "bob", []string{"alice", "bob"}, 100, time.Now(), time.Minute)
	claimed.State = settlement.StateClaimed
	require.NoError(t, store.SaveRoom(context.Background(), Snapshot{
		ID:         "r2",
		Lifecycle:  LifecycleConcluded,
		Settlement: claimed,
	}))

	coord := settlement.NewCoordinator(settlement.Config{Deadline: time.Second}, ledger.NewMemory(), nil)
	rm := NewRoomManager(Config{}, Deps{Store: store, Settler: coord})
	coord.AttachRooms(rm)
	t.Cleanup(func() {
		rm.Close()
		coord.Wait()
		coord.Close()
	})

	n, err := rm.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Eventually(t, func() bool {
		s, err := coord.Get("r1")
		return err == nil && s.State == settlement.StateFinalized
	}, 2*time.Second, 5*time.Millisecond)

	_, err = rm.GetRoom("r2")
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
}

func TestCleanup_ClaimedRoomsRemoved(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{CleanupDelay: time.Minute})
	now := time.Now()
	f.rm.SetClockForTest(func() time.Time { return now })

	id := f.startedRoom(t, "alice", "bob")
	require.NoError(t, f.rm.LeaveRoom(id, "bob"))

	f.coord.Wait()
	_, err := f.coord.ClaimPrize(context.Background(), id, "alice")
	require.NoError(t, err)

	f.rm.RunCleanupForTest()
	_, err = f.rm.GetRoom(id)
	require.NoError(t, err, "kept until the retention delay passes")

	err = f.rm.WithSettlement(id, func(s *settlement.Settlement) error {
		s.ClaimedAt = now.Add(-2 * time.Minute)
		return nil
	})
	require.NoError(t, err)

	f.rm.RunCleanupForTest()
	_, err = f.rm.GetRoom(id)
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
}

func TestMaintenanceMode(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	id := f.startedRoom(t, "alice", "bob")

	f.rm.SetMaintenanceMode(true)
	assert.True(t, f.rm.IsMaintenanceMode())

	_, err := f.rm.CreateRoom("carol", 2, 100)
	assert.ErrorIs(t, err, apperrors.ErrMaintenance)

	// 进行中的对局不受影响
	_, err = f.rm.DrawCard(id, "alice")
	assert.NoError(t, err)

	f.rm.SetMaintenanceMode(false)
	_, err = f.rm.CreateRoom("carol", 2, 100)
	assert.NoError(t, err)
}

func TestLifecycle_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		l        Lifecycle
		want     string
		joinable bool
	}{
		{LifecycleForming, "forming", true},
		{LifecycleReadyToStart, "ready_to_start", false},
		{LifecycleInProgress, "in_progress", false},
		{LifecycleConcluded, "concluded", false},
		{LifecycleCancelled, "cancelled", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.l.String())
		assert.Equal(t, tt.joinable, tt.l.Joinable())
	}
}
