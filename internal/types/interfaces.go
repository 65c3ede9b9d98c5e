package types

import (
	"context"

	"github.com/palemoky/uno-arena/internal/game/card"
	"github.com/palemoky/uno-arena/internal/game/match"
	"github.com/palemoky/uno-arena/internal/game/room"
	"github.com/palemoky/uno-arena/internal/game/settlement"
	"github.com/palemoky/uno-arena/internal/protocol"
	"github.com/palemoky/uno-arena/internal/server/storage"
)

// ServerInterface 定义服务器接口（用于打破循环依赖）
type ServerInterface interface {
	IsMaintenanceMode() bool
	GetOnlineCount() int
	// Rebind 重连后把连接登记到恢复出来的玩家 ID 下
	Rebind(client ClientInterface, oldID string)
}

// ClientInterface 定义客户端接口，同时满足 hub.Conn
type ClientInterface interface {
	GetID() string
	GetName() string
	SetIdentity(id, name string)
	SendMessage(msg *protocol.Message)
	Close()
}

// RoomService 房间和对局操作，由 room.RoomManager 实现
type RoomService interface {
	CreateRoom(creator string, capacity int, stake int64) (room.Info, error)
	JoinRoom(roomID, playerID string) (room.Info, error)
	LeaveRoom(roomID, playerID string) error
	StartMatch(roomID, initiator string) error
	PlayCard(roomID, playerID string, cardIndex int, chosen *card.Color) (match.PlayResult, error)
	DrawCard(roomID, playerID string) (card.Card, error)
	View(roomID, playerID string) (match.PlayerView, error)
	GetRoom(roomID string) (room.Info, error)
	ListRooms() []room.Info
	RoomOf(playerID string) (string, bool)
	IsPresent(roomID, playerID string) bool
}

// SettlementService 结算查询、重试和领奖，由 settlement.Coordinator 实现
type SettlementService interface {
	Get(roomID string) (settlement.Settlement, error)
	Payout(s settlement.Settlement) settlement.Payout
	RetryFinalize(ctx context.Context, roomID, requester string) (settlement.Settlement, error)
	ClaimPrize(ctx context.Context, roomID, claimant string) (settlement.Payout, error)
}

// StatsService 战绩和排行榜，由 storage.Leaderboard 实现
type StatsService interface {
	GetPlayerStats(ctx context.Context, playerID string) (*storage.PlayerStats, error)
	GetPlayerRank(ctx context.Context, playerID string) (int64, error)
	GetLeaderboard(ctx context.Context, offset, limit int) ([]storage.LeaderboardEntry, error)
}

// ArchiveService 历史结算，由 storage.Archive 实现
type ArchiveService interface {
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]storage.ArchivedSettlement, error)
}

var (
	_ RoomService       = (*room.RoomManager)(nil)
	_ SettlementService = (*settlement.Coordinator)(nil)
	_ StatsService      = (*storage.Leaderboard)(nil)
	_ ArchiveService    = (*storage.Archive)(nil)
)
