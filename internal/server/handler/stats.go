package handler

import (
	"context"

	"github.com/palemoky/uno-arena/internal/logger"
	"github.com/palemoky/uno-arena/internal/protocol"
	"github.com/palemoky/uno-arena/internal/types"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 50
)

// --- 排行榜处理 ---

// handleGetStats 获取个人统计，不带 player_id 时查自己
func (h *Handler) handleGetStats(client types.ClientInterface, msg *protocol.Message) {
	if h.stats == nil {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, "排行榜未启用"))
		return
	}
	payload, err := protocol.ParsePayload[protocol.GetStatsPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	playerID := payload.PlayerID
	if playerID == "" {
		playerID = client.GetID()
	}

	ctx := context.Background()
	playerStats, err := h.stats.GetPlayerStats(ctx, playerID)
	if err != nil {
		logger.WithPlayer(playerID).WithError(err).Error("获取统计失败")
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, "获取统计失败"))
		return
	}

	// 没有统计数据，返回空数据
	if playerStats == nil {
		client.SendMessage(protocol.MustNewMessage(protocol.MsgStatsResult, protocol.StatsResultPayload{
			PlayerID: playerID,
			Rank:     -1,
		}))
		return
	}

	rank, _ := h.stats.GetPlayerRank(ctx, playerID)
	client.SendMessage(protocol.MustNewMessage(protocol.MsgStatsResult, protocol.StatsResultPayload{
		PlayerID:      playerStats.PlayerID,
		TotalGames:    playerStats.TotalGames,
		Wins:          playerStats.Wins,
		Losses:        playerStats.Losses,
		WinRate:       playerStats.WinRate(),
		TotalWinnings: playerStats.TotalWinnings,
		Rank:          int(rank),
	}))
}

// handleGetLeaderboard 获取排行榜
func (h *Handler) handleGetLeaderboard(client types.ClientInterface, msg *protocol.Message) {
	if h.stats == nil {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, "排行榜未启用"))
		return
	}
	payload, err := protocol.ParsePayload[protocol.GetLeaderboardPayload](msg)
	if err != nil {
		// 默认获取前 10
		payload = &protocol.GetLeaderboardPayload{Limit: defaultLeaderboardLimit}
	}

	// 限制请求数量
	if payload.Limit <= 0 || payload.Limit > maxLeaderboardLimit {
		payload.Limit = defaultLeaderboardLimit
	}
	payload.Offset = max(payload.Offset, 0)

	entries, err := h.stats.GetLeaderboard(context.Background(), payload.Offset, payload.Limit)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, "获取排行榜失败"))
		return
	}

	// 转换为协议格式
	protocolEntries := make([]protocol.LeaderboardEntry, 0, len(entries))
	for _, entry := range entries {
		protocolEntries = append(protocolEntries, protocol.LeaderboardEntry{
			Rank:          entry.Rank,
			PlayerID:      entry.PlayerID,
			TotalWinnings: entry.TotalWinnings,
			Wins:          entry.Wins,
			TotalGames:    entry.TotalGames,
			WinRate:       entry.WinRate,
		})
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgLeaderboardResult, protocol.LeaderboardResultPayload{
		Entries: protocolEntries,
	}))
}
