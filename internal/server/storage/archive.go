package storage

import (
	"context"
	"embed"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/palemoky/uno-arena/internal/game/settlement"
	"github.com/palemoky/uno-arena/internal/logger"
)

//go:embed schema.sql
var schema embed.FS

const archiveTimeout = 5 * time.Second

var _ settlement.Listener = (*Archive)(nil)

// ArchivedSettlement 归档的结算
type ArchivedSettlement struct {
	RoomID      string
	Winner      string
	Players     []string
	EntryFee    int64
	Pool        int64
	State       string
	TxRef       string
	Attempts    int
	ClaimedBy   string
	ClaimedAt   *time.Time
	PlatformFee int64
	WinnerShare int64
	CreatedAt   time.Time
}

// Archive 结算归档（Postgres）
type Archive struct{ *pgxpool.Pool }

// OpenArchive 连接 Postgres
func OpenArchive(ctx context.Context, dsn string) (*Archive, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Archive{p}, nil
}

func (a *Archive) Close()                         { a.Pool.Close() }
func (a *Archive) Ping(ctx context.Context) error { return a.Pool.Ping(ctx) }

// Migrate 建表
func (a *Archive) Migrate(ctx context.Context) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = a.Exec(ctx, string(sqlBytes))
	return err
}

// Save 写入或更新一条结算。payout 为空时只更新状态
func (a *Archive) Save(ctx context.Context, s settlement.Settlement, payout *settlement.Payout) error {
	var claimedAt *time.Time
	if !s.ClaimedAt.IsZero() {
		t := s.ClaimedAt
		claimedAt = &t
	}
	var fee, share any
	if payout != nil {
		fee, share = payout.PlatformFee, payout.WinnerShare
	}

	_, err := a.Exec(ctx, `
		INSERT INTO settlements (room_id, winner, players, entry_fee, pool, state, tx_ref, attempts,
		                         claimed_by, claimed_at, platform_fee, winner_share, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, NULLIF($9, ''), $10, $11, $12, $13)
		ON CONFLICT (room_id) DO UPDATE
		   SET state        = EXCLUDED.state,
		       tx_ref       = COALESCE(EXCLUDED.tx_ref, settlements.tx_ref),
		       attempts     = EXCLUDED.attempts,
		       claimed_by   = COALESCE(EXCLUDED.claimed_by, settlements.claimed_by),
		       claimed_at   = COALESCE(EXCLUDED.claimed_at, settlements.claimed_at),
		       platform_fee = COALESCE(EXCLUDED.platform_fee, settlements.platform_fee),
		       winner_share = COALESCE(EXCLUDED.winner_share, settlements.winner_share),
		       updated_at   = now()
		 WHERE settlements.state <> 'claimed'
	`, s.RoomID, s.Winner, s.Players, s.EntryFee, s.Pool, s.State.String(), s.FinalizationTxRef, s.Attempts,
		s.ClaimedBy, claimedAt, fee, share, s.CreatedAt)
	return err
}

// ListByPlayer 玩家参与过的结算，按时间倒序
func (a *Archive) ListByPlayer(ctx context.Context, playerID string, limit int) ([]ArchivedSettlement, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.Query(ctx, `
		SELECT room_id, winner, players, entry_fee, pool, state, COALESCE(tx_ref, ''), attempts,
		       COALESCE(claimed_by, ''), claimed_at, COALESCE(platform_fee, 0), COALESCE(winner_share, 0), created_at
		  FROM settlements
		 WHERE $1 = ANY(players)
		 ORDER BY created_at DESC
		 LIMIT $2
	`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ArchivedSettlement
	for rows.Next() {
		var s ArchivedSettlement
		if err := rows.Scan(&s.RoomID, &s.Winner, &s.Players, &s.EntryFee, &s.Pool, &s.State, &s.TxRef,
			&s.Attempts, &s.ClaimedBy, &s.ClaimedAt, &s.PlatformFee, &s.WinnerShare, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (a *Archive) saveAsync(s settlement.Settlement, payout *settlement.Payout) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := a.Save(ctx, s, payout); err != nil {
			logger.WithRoom(s.RoomID).WithError(err).Warn("归档结算失败")
		}
	}()
}

// SettlementFinalized 归档
func (a *Archive) SettlementFinalized(s settlement.Settlement) { a.saveAsync(s, nil) }

// SettlementTimedOut 归档
func (a *Archive) SettlementTimedOut(s settlement.Settlement) { a.saveAsync(s, nil) }

// SettlementClaimed 归档，带奖金明细
func (a *Archive) SettlementClaimed(s settlement.Settlement, payout settlement.Payout) {
	a.saveAsync(s, &payout)
}
