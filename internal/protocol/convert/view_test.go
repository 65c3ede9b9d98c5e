package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/uno-arena/internal/game/match"
	"github.com/palemoky/uno-arena/internal/game/room"
	"github.com/palemoky/uno-arena/internal/game/settlement"
)

func TestUnixMs(t *testing.T) {
	t.Parallel()

	assert.Zero(t, UnixMs(time.Time{}))
	ts := time.UnixMilli(1_700_000_000_123)
	assert.Equal(t, int64(1_700_000_000_123), UnixMs(ts))
}

func TestViewToPayload(t *testing.T) {
	t.Parallel()

	m, err := match.Start("r1", []string{"alice", "bob", "carol"}, match.Options{TurnTimeout: 30 * time.Second})
	require.NoError(t, err)
	require.NoError(t, func() error { _, err := m.Forfeit("carol"); return err }())

	v := m.View("alice")
	p := ViewToPayload(v)

	assert.Equal(t, "r1", p.RoomID)
	assert.Equal(t, "active", p.Status)
	assert.Len(t, p.Hand, match.InitialHandSize)
	assert.Equal(t, v.Hand[0].Short(), p.Hand[0].Short)
	assert.Equal(t, "alice", p.ActivePlayerID)
	assert.Equal(t, p.TurnStartedAtMs+30_000, p.TurnDeadlineMs)

	require.Len(t, p.Opponents, 2)
	assert.Equal(t, "bob", p.Opponents[0].PlayerID)
	assert.False(t, p.Opponents[0].Left)
	assert.True(t, p.Opponents[1].Left)

	require.NotNil(t, p.LastAction)
	assert.Equal(t, "start", p.LastAction.Kind)
	require.NotNil(t, p.LastAction.Card)
	assert.Equal(t, CardToInfo(v.DiscardTop), *p.LastAction.Card)
}

func TestRoomToInfo(t *testing.T) {
	t.Parallel()

	created := time.UnixMilli(1_700_000_000_000)
	info := RoomToInfo(room.Info{
		ID:        "r1",
		Capacity:  3,
		Stake:     500,
		Members:   []string{"alice"},
		Lifecycle: room.LifecycleForming,
		Creator:   "alice",
		CreatedAt: created,
	})

	assert.Equal(t, "r1", info.RoomID)
	assert.Equal(t, int64(500), info.EntryFee)
	assert.Equal(t, "forming", info.Lifecycle)
	assert.Equal(t, created.UnixMilli(), info.CreatedAtMs)
	assert.Len(t, RoomsToInfos([]room.Info{{}, {}}), 2)
}

func TestSettlementToPayload(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1_700_000_000_000)
	s := settlement.New("r1", "alice", []string{"alice", "bob"}, 100, now, 30*time.Second)

	p := SettlementToPayload(*s, nil)
	assert.Equal(t, "pending_finalization", p.State)
	assert.Equal(t, int64(200), p.Pool)
	assert.Equal(t, now.Add(30*time.Second).UnixMilli(), p.DeadlineMs)
	assert.Zero(t, p.ClaimedAtMs)
	assert.Nil(t, p.Payout)

	payout := settlement.ComputePayout(s.Pool, settlement.DefaultFeeBps)
	p = SettlementToPayload(*s, &payout)
	require.NotNil(t, p.Payout)
	assert.Equal(t, int64(10), p.Payout.PlatformFee)
	assert.Equal(t, int64(190), p.Payout.WinnerShare)
	assert.Equal(t, int64(500), p.Payout.FeeBasisPts)
}
