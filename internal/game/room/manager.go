package room

import (
	"github.com/google/uuid"

	"github.com/palemoky/uno-arena/internal/apperrors"
	"github.com/palemoky/uno-arena/internal/game/card"
	"github.com/palemoky/uno-arena/internal/game/match"
	"github.com/palemoky/uno-arena/internal/game/settlement"
	"github.com/palemoky/uno-arena/internal/logger"
)

// CreateRoom 创建房间，创建者自动入座
func (rm *RoomManager) CreateRoom(creator string, capacity int, stake int64) (Info, error) {
	if rm.IsMaintenanceMode() {
		return Info{}, apperrors.ErrMaintenance
	}
	if capacity < MinCapacity || capacity > MaxCapacity {
		return Info{}, apperrors.ErrInvalidCapacity
	}
	if stake <= 0 {
		return Info{}, apperrors.ErrInvalidStake
	}

	r := &Room{
		ID:        uuid.NewString(),
		Capacity:  capacity,
		Stake:     stake,
		Members:   []string{creator},
		Lifecycle: LifecycleForming,
		CreatedAt: rm.now(),
		Creator:   creator,
	}

	rm.mu.Lock()
	rm.rooms[r.ID] = r
	rm.mu.Unlock()

	rm.metrics.RoomCreated()
	logger.WithRoom(r.ID).WithField("creator", creator).Infof("🏠 房间已创建 (%d 人, 入场费 %d)", capacity, stake)

	var info Info
	_ = rm.withRoom(r.ID, func(r *Room) error {
		info = r.info()
		r.dirty = true
		r.lobbyDirty = true
		return nil
	})
	return info, nil
}

// JoinRoom 加入房间。已经在房间里时直接返回
func (rm *RoomManager) JoinRoom(roomID, playerID string) (Info, error) {
	var info Info
	err := rm.withRoom(roomID, func(r *Room) error {
		if r.isMember(playerID) {
			info = r.info()
			return nil
		}
		switch r.Lifecycle {
		case LifecycleForming:
		case LifecycleReadyToStart:
			return apperrors.ErrRoomFull
		case LifecycleInProgress, LifecycleConcluded:
			return apperrors.ErrMatchStarted
		default:
			return apperrors.ErrRoomNotFound
		}

		r.Members = append(r.Members, playerID)
		if len(r.Members) >= r.Capacity {
			r.Lifecycle = LifecycleReadyToStart
		}
		info = r.info()
		r.dirty = true
		r.lobbyDirty = true

		logger.WithRoom(roomID).WithField("player", playerID).Infof("👤 玩家加入 (%d/%d)", len(r.Members), r.Capacity)
		rm.notifier.RoomEvent(EventPlayerJoined, info, playerID)
		return nil
	})
	return info, err
}

// LeaveRoom 离开房间。
// 对局中离开：只剩一名对手时对手获胜；否则离开者仍然占座，计时器继续替他摸牌。
func (rm *RoomManager) LeaveRoom(roomID, playerID string) error {
	return rm.withRoom(roomID, func(r *Room) error {
		if !r.isMember(playerID) {
			return apperrors.ErrNotInRoom
		}
		log := logger.WithRoom(roomID).WithField("player", playerID)

		switch r.Lifecycle {
		case LifecycleForming, LifecycleReadyToStart:
			r.Members = removeString(r.Members, playerID)
			r.Lifecycle = LifecycleForming
			r.dirty = true
			r.lobbyDirty = true
			rm.notifier.Detach(roomID, playerID)
			log.Info("👋 玩家离开房间")

			if len(r.Members) == 0 {
				rm.cancelLocked(r, "房间已空")
				return nil
			}
			rm.notifier.RoomEvent(EventPlayerLeft, r.info(), playerID)

		case LifecycleInProgress:
			if r.Match.HasDeparted(playerID) {
				return nil
			}
			concluded, err := r.Match.Forfeit(playerID)
			if err != nil {
				return err
			}
			rm.notifier.Detach(roomID, playerID)
			rm.notifier.RoomEvent(EventPlayerLeft, r.info(), playerID)
			r.dirty = true
			log.Info("🏃 玩家在对局中离开")

			if concluded {
				rm.concludeLocked(r)
			}
			rm.pushViewsLocked(r)

		case LifecycleConcluded:
			rm.notifier.Detach(roomID, playerID)
		}
		return nil
	})
}

// StartMatch 开局。任何成员都可以发起，至少 2 人
func (rm *RoomManager) StartMatch(roomID, initiator string) error {
	return rm.withRoom(roomID, func(r *Room) error {
		if !r.isMember(initiator) {
			return apperrors.ErrNotInRoom
		}
		switch r.Lifecycle {
		case LifecycleForming, LifecycleReadyToStart:
		default:
			return apperrors.ErrMatchStarted
		}
		if len(r.Members) < MinCapacity {
			return apperrors.ErrNotEnoughPlayers
		}

		m, err := match.Start(roomID, r.Members, match.Options{TurnTimeout: rm.cfg.TurnTimeout})
		if err != nil {
			return err
		}
		r.Match = m
		r.Lifecycle = LifecycleInProgress
		rm.armTimerLocked(r)
		r.dirty = true
		r.lobbyDirty = true

		rm.metrics.MatchStarted()
		logger.WithRoom(roomID).WithField("by", initiator).Infof("🎮 对局开始，%d 名玩家", len(r.Members))
		rm.notifier.MatchStarted(r.info())
		rm.pushViewsLocked(r)
		return nil
	})
}

// PlayCard 出牌，chosen 只对万能牌生效
func (rm *RoomManager) PlayCard(roomID, playerID string, cardIndex int, chosen *card.Color) (match.PlayResult, error) {
	var res match.PlayResult
	err := rm.withRoom(roomID, func(r *Room) error {
		if err := r.requireMatch(playerID); err != nil {
			return err
		}
		var err error
		res, err = r.Match.PlayCard(playerID, cardIndex, chosen)
		if err != nil {
			return err
		}
		r.dirty = true

		if res.Concluded {
			rm.concludeLocked(r)
		} else {
			r.timer.Reset(r.Match.TurnStartedAt())
		}
		rm.pushViewsLocked(r)
		return nil
	})
	return res, err
}

// DrawCard 摸牌，摸到的牌单独发给摸牌者
func (rm *RoomManager) DrawCard(roomID, playerID string) (card.Card, error) {
	var drawn card.Card
	err := rm.withRoom(roomID, func(r *Room) error {
		if err := r.requireMatch(playerID); err != nil {
			return err
		}
		res, err := r.Match.DrawCard(playerID)
		if err != nil {
			return err
		}
		drawn = res.Card
		r.dirty = true
		r.timer.Reset(r.Match.TurnStartedAt())

		rm.notifier.CardDrawn(roomID, playerID, drawn)
		rm.pushViewsLocked(r)
		return nil
	})
	return drawn, err
}

// View 拉取玩家视图，断线重连后用它恢复
func (rm *RoomManager) View(roomID, playerID string) (match.PlayerView, error) {
	var v match.PlayerView
	err := rm.withRoom(roomID, func(r *Room) error {
		if !r.isPresent(playerID) {
			return apperrors.ErrNotInRoom
		}
		if r.Match == nil {
			return apperrors.ErrMatchNotStarted
		}
		v = r.Match.View(playerID)
		return nil
	})
	return v, err
}

// GetRoom 房间摘要
func (rm *RoomManager) GetRoom(roomID string) (Info, error) {
	var info Info
	err := rm.withRoom(roomID, func(r *Room) error {
		info = r.info()
		return nil
	})
	return info, err
}

// ListRooms 可加入的房间列表，按创建时间排序
func (rm *RoomManager) ListRooms() []Info {
	var rooms []Info
	for _, r := range rm.all() {
		r.mu.Lock()
		if !r.removed && r.Lifecycle.Joinable() {
			rooms = append(rooms, r.info())
		}
		r.mu.Unlock()
	}
	sortInfos(rooms)
	return rooms
}

// Snapshot 房间完整状态（含对局和结算）
func (rm *RoomManager) Snapshot(roomID string) (Snapshot, error) {
	var snap Snapshot
	err := rm.withRoom(roomID, func(r *Room) error {
		snap = r.snapshot()
		return nil
	})
	return snap, err
}

// ActiveMatchCount 进行中的对局数
func (rm *RoomManager) ActiveMatchCount() int {
	count := 0
	for _, r := range rm.all() {
		r.mu.Lock()
		if !r.removed && r.Lifecycle == LifecycleInProgress {
			count++
		}
		r.mu.Unlock()
	}
	return count
}

// RoomCount 注册表中的房间数
func (rm *RoomManager) RoomCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// IsPresent 玩家是否在房间中并且仍接收推送
func (rm *RoomManager) IsPresent(roomID, playerID string) bool {
	present := false
	_ = rm.withRoom(roomID, func(r *Room) error {
		present = r.isPresent(playerID)
		return nil
	})
	return present
}

// RoomOf 玩家当前所在的房间（重连时使用），已取消的房间不算
func (rm *RoomManager) RoomOf(playerID string) (string, bool) {
	for _, r := range rm.all() {
		r.mu.Lock()
		ok := !r.removed && r.Lifecycle != LifecycleCancelled && r.isPresent(playerID)
		r.mu.Unlock()
		if ok {
			return r.ID, true
		}
	}
	return "", false
}

// WithSettlement 在房间锁内访问结算记录，供结算协调器使用
func (rm *RoomManager) WithSettlement(roomID string, fn func(s *settlement.Settlement) error) error {
	return rm.withRoom(roomID, func(r *Room) error {
		if r.Settlement == nil {
			return apperrors.ErrSettlementNotFound
		}
		err := fn(r.Settlement)
		r.dirty = true
		return err
	})
}

// requireMatch 出牌/摸牌前的房间级校验
func (r *Room) requireMatch(playerID string) error {
	if !r.isPresent(playerID) {
		return apperrors.ErrNotInRoom
	}
	switch r.Lifecycle {
	case LifecycleInProgress:
		return nil
	case LifecycleConcluded:
		return apperrors.ErrMatchConcluded
	default:
		return apperrors.ErrMatchNotStarted
	}
}
