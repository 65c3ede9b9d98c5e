package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/uno-arena/internal/game/settlement"
	"github.com/palemoky/uno-arena/internal/logger"
)

const (
	// Redis key
	playerStatsKey    = "uno:player:stats:"
	leaderboardKey    = "uno:leaderboard:winnings"
	weeklyLeaderboard = "uno:leaderboard:weekly:"
	recordedKeyPrefix = "uno:leaderboard:recorded:"

	recordTimeout = 5 * time.Second
)

var _ settlement.Listener = (*Leaderboard)(nil)

// PlayerStats 玩家统计数据
type PlayerStats struct {
	PlayerID      string `json:"player_id"`
	TotalGames    int    `json:"total_games"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	TotalWinnings int64  `json:"total_winnings"` // 累计领到的奖金
	TotalStaked   int64  `json:"total_staked"`   // 累计入场费
	LastPlayedAt  int64  `json:"last_played_at"`
}

// WinRate 胜率（百分比）
func (s *PlayerStats) WinRate() float64 {
	if s.TotalGames == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.TotalGames) * 100
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank          int
	PlayerID      string
	TotalWinnings int64
	Wins          int
	TotalGames    int
	WinRate       float64
}

// Leaderboard 按累计奖金排名，领奖时记录每个参与者的战绩
type Leaderboard struct {
	redis *redis.Client
	now   func() time.Time
}

// NewLeaderboard 创建排行榜
func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{redis: client, now: time.Now}
}

// RecordMatch 记录一局的结果，同一房间只记录一次
func (lb *Leaderboard) RecordMatch(ctx context.Context, s settlement.Settlement, payout settlement.Payout) error {
	first, err := lb.redis.SetNX(ctx, recordedKeyPrefix+s.RoomID, 1, 7*24*time.Hour).Result()
	if err != nil {
		return err
	}
	if !first {
		return nil
	}

	now := lb.now()
	year, week := now.ISOWeek()
	weeklyKey := fmt.Sprintf("%s%d-W%02d", weeklyLeaderboard, year, week)

	_, err = lb.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range s.Players {
			key := playerStatsKey + id
			pipe.HIncrBy(ctx, key, "total_games", 1)
			pipe.HIncrBy(ctx, key, "total_staked", s.EntryFee)
			pipe.HSet(ctx, key, "last_played_at", now.Unix())
			if id == s.Winner {
				pipe.HIncrBy(ctx, key, "wins", 1)
				pipe.HIncrBy(ctx, key, "total_winnings", payout.WinnerShare)
				pipe.ZIncrBy(ctx, leaderboardKey, float64(payout.WinnerShare), id)
				pipe.ZIncrBy(ctx, weeklyKey, float64(payout.WinnerShare), id)
			} else {
				pipe.HIncrBy(ctx, key, "losses", 1)
				// 保证输家也上榜
				pipe.ZIncrBy(ctx, leaderboardKey, 0, id)
				pipe.ZIncrBy(ctx, weeklyKey, 0, id)
			}
		}
		pipe.Expire(ctx, weeklyKey, 8*24*time.Hour)
		return nil
	})
	return err
}

// GetPlayerStats 获取玩家统计，没有记录时返回 nil
func (lb *Leaderboard) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	data, err := lb.redis.HGetAll(ctx, playerStatsKey+playerID).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	atoi := func(k string) int64 {
		n, _ := strconv.ParseInt(data[k], 10, 64)
		return n
	}
	return &PlayerStats{
		PlayerID:      playerID,
		TotalGames:    int(atoi("total_games")),
		Wins:          int(atoi("wins")),
		Losses:        int(atoi("losses")),
		TotalWinnings: atoi("total_winnings"),
		TotalStaked:   atoi("total_staked"),
		LastPlayedAt:  atoi("last_played_at"),
	}, nil
}

// GetLeaderboard 获取排行榜（从高到低）
func (lb *Leaderboard) GetLeaderboard(ctx context.Context, offset, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	offset = max(offset, 0)

	results, err := lb.redis.ZRevRangeWithScores(ctx, leaderboardKey, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for i, result := range results {
		playerID, ok := result.Member.(string)
		if !ok {
			continue
		}
		stats, err := lb.GetPlayerStats(ctx, playerID)
		if err != nil || stats == nil {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Rank:          offset + i + 1,
			PlayerID:      playerID,
			TotalWinnings: int64(result.Score),
			Wins:          stats.Wins,
			TotalGames:    stats.TotalGames,
			WinRate:       stats.WinRate(),
		})
	}
	return entries, nil
}

// GetPlayerRank 获取玩家排名，未上榜返回 -1
func (lb *Leaderboard) GetPlayerRank(ctx context.Context, playerID string) (int64, error) {
	rank, err := lb.redis.ZRevRank(ctx, leaderboardKey, playerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil // Redis 排名从 0 开始
}

// SettlementFinalized 排行榜只关心领奖
func (lb *Leaderboard) SettlementFinalized(settlement.Settlement) {}

// SettlementTimedOut 排行榜只关心领奖
func (lb *Leaderboard) SettlementTimedOut(settlement.Settlement) {}

// SettlementClaimed 领奖后异步记录战绩
func (lb *Leaderboard) SettlementClaimed(s settlement.Settlement, payout settlement.Payout) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := lb.RecordMatch(ctx, s, payout); err != nil {
			logger.WithRoom(s.RoomID).WithError(err).Warn("记录战绩失败")
		}
	}()
}
