package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/uno-arena/internal/game/settlement"
)

// 需要真实的 Postgres：UNO_TEST_POSTGRES_DSN=postgres://...
func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	dsn := os.Getenv("UNO_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("UNO_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	a, err := OpenArchive(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	require.NoError(t, a.Ping(ctx))
	require.NoError(t, a.Migrate(ctx))
	return a
}

func TestArchive_SaveAndList(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	roomID := uuid.NewString()
	player := "p-" + uuid.NewString()
	s := settlement.New(roomID, player, []string{player, "bob"}, 100, time.Now(), time.Minute)
	require.NoError(t, a.Save(ctx, *s, nil))

	s.State = settlement.StateClaimed
	s.ClaimedBy = player
	s.ClaimedAt = time.Now()
	payout := settlement.ComputePayout(s.Pool, settlement.DefaultFeeBps)
	require.NoError(t, a.Save(ctx, *s, &payout))

	// 已领奖后旧状态不会覆盖
	s.State = settlement.StateFinalized
	require.NoError(t, a.Save(ctx, *s, nil))

	list, err := a.ListByPlayer(ctx, player, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "claimed", list[0].State)
	assert.Equal(t, int64(190), list[0].WinnerShare)
	assert.Equal(t, int64(10), list[0].PlatformFee)
	require.NotNil(t, list[0].ClaimedAt)
}
