//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/uno-arena/internal/game/card"
	"github.com/palemoky/uno-arena/internal/game/match"
	"github.com/palemoky/uno-arena/internal/game/room"
	"github.com/palemoky/uno-arena/internal/game/settlement"
)

// MockRoomService 实现 types.RoomService 的 mock
type MockRoomService struct {
	mock.Mock
}

func (m *MockRoomService) CreateRoom(creator string, capacity int, stake int64) (room.Info, error) {
	args := m.Called(creator, capacity, stake)
	return args.Get(0).(room.Info), args.Error(1)
}

func (m *MockRoomService) JoinRoom(roomID, playerID string) (room.Info, error) {
	args := m.Called(roomID, playerID)
	return args.Get(0).(room.Info), args.Error(1)
}

func (m *MockRoomService) LeaveRoom(roomID, playerID string) error {
	args := m.Called(roomID, playerID)
	return args.Error(0)
}

func (m *MockRoomService) StartMatch(roomID, initiator string) error {
	args := m.Called(roomID, initiator)
	return args.Error(0)
}

func (m *MockRoomService) PlayCard(roomID, playerID string, cardIndex int, chosen *card.Color) (match.PlayResult, error) {
	args := m.Called(roomID, playerID, cardIndex, chosen)
	return args.Get(0).(match.PlayResult), args.Error(1)
}

func (m *MockRoomService) DrawCard(roomID, playerID string) (card.Card, error) {
	args := m.Called(roomID, playerID)
	return args.Get(0).(card.Card), args.Error(1)
}

func (m *MockRoomService) View(roomID, playerID string) (match.PlayerView, error) {
	args := m.Called(roomID, playerID)
	return args.Get(0).(match.PlayerView), args.Error(1)
}

func (m *MockRoomService) GetRoom(roomID string) (room.Info, error) {
	args := m.Called(roomID)
	return args.Get(0).(room.Info), args.Error(1)
}

func (m *MockRoomService) ListRooms() []room.Info {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]room.Info)
}

func (m *MockRoomService) RoomOf(playerID string) (string, bool) {
	args := m.Called(playerID)
	return args.String(0), args.Bool(1)
}

func (m *MockRoomService) IsPresent(roomID, playerID string) bool {
	args := m.Called(roomID, playerID)
	return args.Bool(0)
}

// MockSettlementService 实现 types.SettlementService 的 mock
type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) Get(roomID string) (settlement.Settlement, error) {
	args := m.Called(roomID)
	return args.Get(0).(settlement.Settlement), args.Error(1)
}

func (m *MockSettlementService) Payout(s settlement.Settlement) settlement.Payout {
	args := m.Called(s)
	return args.Get(0).(settlement.Payout)
}

func (m *MockSettlementService) RetryFinalize(ctx context.Context, roomID, requester string) (settlement.Settlement, error) {
	args := m.Called(ctx, roomID, requester)
	return args.Get(0).(settlement.Settlement), args.Error(1)
}

func (m *MockSettlementService) ClaimPrize(ctx context.Context, roomID, claimant string) (settlement.Payout, error) {
	args := m.Called(ctx, roomID, claimant)
	return args.Get(0).(settlement.Payout), args.Error(1)
}
