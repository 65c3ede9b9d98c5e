package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/uno-arena/internal/game/match"
	"github.com/palemoky/uno-arena/internal/game/room"
	"github.com/palemoky/uno-arena/internal/game/settlement"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisStore_SaveLoadDeleteRoom(t *testing.T) {
	t.Parallel()

	client, mr := newTestClient(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	m, err := match.Start("r1", []string{"alice", "bob"}, match.Options{})
	require.NoError(t, err)
	ms := m.Snapshot()
	snap := room.Snapshot{
		ID:        "r1",
		Capacity:  2,
		Stake:     100,
		Members:   []string{"alice", "bob"},
		Lifecycle: room.LifecycleInProgress,
		Creator:   "alice",
		CreatedAt: time.Now().Truncate(time.Millisecond),
		Match:     &ms,
	}

	require.NoError(t, store.SaveRoom(ctx, snap))
	assert.True(t, mr.Exists(roomKeyPrefix+"r1"))
	assert.Positive(t, mr.TTL(roomKeyPrefix+"r1"))

	loaded, err := store.LoadRoom(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, snap.Members, loaded.Members)
	require.NotNil(t, loaded.Match)
	assert.Equal(t, ms.Hands, loaded.Match.Hands)
	assert.Equal(t, ms.DrawPile, loaded.Match.DrawPile)

	all, err := store.LoadRooms(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, store.DeleteRoom(ctx, "r1"))
	loaded, err = store.LoadRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	all, err = store.LoadRooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRedisStore_LoadRoomsSkipsExpiredAndCorrupt(t *testing.T) {
	t.Parallel()

	client, mr := newTestClient(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, store.SaveRoom(ctx, room.Snapshot{ID: "ok", Lifecycle: room.LifecycleForming}))
	require.NoError(t, store.SaveRoom(ctx, room.Snapshot{ID: "gone"}))
	require.NoError(t, store.SaveRoom(ctx, room.Snapshot{ID: "bad"}))

	mr.Del(roomKeyPrefix + "gone")
	require.NoError(t, mr.Set(roomKeyPrefix+"bad", "{not json"))

	snaps, err := store.LoadRooms(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "ok", snaps[0].ID)

	members, err := mr.Members(roomIndexKey)
	require.NoError(t, err)
	assert.NotContains(t, members, "gone")
}

func TestRedisStore_SaveSettlementNeverRegressesClaim(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	s := settlement.New("r1", "alice", []string{"alice", "bob"}, 100, time.Now(), time.Minute)
	require.NoError(t, store.SaveSettlement(ctx, *s))

	claimed := s.Clone()
	claimed.State = settlement.StateClaimed
	claimed.ClaimedBy = "alice"
	require.NoError(t, store.SaveSettlement(ctx, claimed))

	// 迟到的旧状态不能覆盖已领奖
	stale := s.Clone()
	stale.State = settlement.StateFinalized
	require.NoError(t, store.SaveSettlement(ctx, stale))

	got, err := store.LoadSettlement(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, settlement.StateClaimed, got.State)
	assert.Equal(t, "alice", got.ClaimedBy)

	missing, err := store.LoadSettlement(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRedisStore_ClaimOnceExactlyOne(t *testing.T) {
	t.Parallel()

	client, mr := newTestClient(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for range 20 {
		wg.Go(func() {
			ok, err := store.ClaimOnce(ctx, "r1", "alice")
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		})
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())

	who, err := mr.Get(claimKeyPrefix + "r1")
	require.NoError(t, err)
	assert.Equal(t, "alice", who)
	assert.False(t, mr.Exists(claimKeyPrefix+"r2"))
	assert.NoError(t, store.Ping(ctx))
}

// RedisStore 接到真实的房间管理器和结算协调器上
func TestRedisStore_WithRoomManager(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)
	store := NewRedisStore(client)

	rm := room.NewRoomManager(room.Config{}, room.Deps{Store: store})
	t.Cleanup(rm.Close)

	info, err := rm.CreateRoom("alice", 2, 100)
	require.NoError(t, err)
	_, err = rm.JoinRoom(info.ID, "bob")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snap, err := store.LoadRoom(context.Background(), info.ID)
		return err == nil && snap != nil && len(snap.Members) == 2
	}, time.Second, 5*time.Millisecond)
}
