package room

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/palemoky/uno-arena/internal/apperrors"
	"github.com/palemoky/uno-arena/internal/game/match"
	"github.com/palemoky/uno-arena/internal/game/settlement"
	"github.com/palemoky/uno-arena/internal/game/timer"
	"github.com/palemoky/uno-arena/internal/logger"
)

const (
	cleanupInterval = 1 * time.Minute
	persistTimeout  = 5 * time.Second
)

// withRoom 在房间锁内执行 fn，解锁后处理持久化、大厅广播和结算发起
func (rm *RoomManager) withRoom(roomID string, fn func(r *Room) error) error {
	rm.mu.RLock()
	r, ok := rm.rooms[roomID]
	rm.mu.RUnlock()
	if !ok {
		return apperrors.ErrRoomNotFound
	}

	r.mu.Lock()
	if r.removed {
		r.mu.Unlock()
		return apperrors.ErrRoomNotFound
	}
	err := fn(r)

	var (
		snap        Snapshot
		dirty       = r.dirty
		lobbyDirty  = r.lobbyDirty
		beginSettle = r.beginSettle
		removed     = r.removed
	)
	if dirty && !removed {
		r.seq++
		snap = r.snapshot()
	}
	r.dirty, r.lobbyDirty, r.beginSettle = false, false, false
	r.mu.Unlock()

	if removed {
		rm.forget(r)
	} else if dirty {
		rm.persist(r, snap)
	}
	if beginSettle && rm.settler != nil {
		rm.settler.Begin(roomID)
	}
	if lobbyDirty {
		rm.notifier.LobbyChanged(rm.ListRooms())
	}
	return err
}

// all 注册表中所有房间的快照
func (rm *RoomManager) all() []*Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, r := range rm.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// forget 从注册表和存储中移除。删除之后到达的旧快照一律丢弃
func (rm *RoomManager) forget(r *Room) {
	rm.mu.Lock()
	delete(rm.rooms, r.ID)
	rm.mu.Unlock()

	if rm.settler != nil {
		rm.settler.Forget(r.ID)
	}
	if rm.store == nil {
		return
	}
	rm.saves.Add(1)
	go func() {
		defer rm.saves.Done()
		r.saveMu.Lock()
		defer r.saveMu.Unlock()
		r.savedSeq = math.MaxUint64

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := rm.store.DeleteRoom(ctx, r.ID); err != nil {
			logger.WithRoom(r.ID).WithError(err).Warn("删除房间记录失败")
		}
	}()
}

// persist 异步保存房间。同一房间的写入按序号串行，
// 落后于已保存序号的快照直接丢弃，存储里的状态不会回退
func (rm *RoomManager) persist(r *Room, snap Snapshot) {
	if rm.store == nil {
		return
	}
	rm.saves.Add(1)
	go func() {
		defer rm.saves.Done()
		r.saveMu.Lock()
		defer r.saveMu.Unlock()
		if snap.Seq <= r.savedSeq {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := rm.store.SaveRoom(ctx, snap); err != nil {
			logger.WithRoom(snap.ID).WithError(err).Warn("保存房间失败")
			return
		}
		r.savedSeq = snap.Seq
	}()
}

// Flush 等待已发起的房间写入完成，关闭前调用
func (rm *RoomManager) Flush() {
	rm.saves.Wait()
}

// cancelLocked 解散房间（锁内）
func (rm *RoomManager) cancelLocked(r *Room, reason string) {
	r.Lifecycle = LifecycleCancelled
	r.removed = true
	r.lobbyDirty = true
	if r.timer != nil {
		r.timer.Stop()
	}
	rm.notifier.RoomEvent(EventRoomCancelled, r.info(), "")
	for _, id := range r.Members {
		rm.notifier.Detach(r.ID, id)
	}
	logger.WithRoom(r.ID).Infof("🏠 房间已解散: %s", reason)
}

// concludeLocked 对局出现赢家：停表、创建结算记录，解锁后发起账本确认
func (rm *RoomManager) concludeLocked(r *Room) {
	if r.timer != nil {
		r.timer.Stop()
	}
	r.Lifecycle = LifecycleConcluded
	r.ConcludedAt = rm.now()
	r.dirty = true

	winner := r.Match.Winner()
	reason := r.Match.Reason()
	if rm.settler != nil {
		r.Settlement = rm.settler.Open(r.ID, winner, r.Match.Players(), r.Stake)
		r.beginSettle = true
	}

	rm.metrics.MatchConcluded(reason)
	logger.WithRoom(r.ID).WithField("winner", winner).Infof("🏆 对局结束 (%s)", reason)
	rm.notifier.MatchConcluded(r.ID, r.present(), winner, reason)
}

// pushViewsLocked 给每个仍在房间里的玩家推送自己的视图
func (rm *RoomManager) pushViewsLocked(r *Room) {
	if r.Match == nil {
		return
	}
	views := make(map[string]match.PlayerView, len(r.Members))
	for _, id := range r.present() {
		views[id] = r.Match.View(id)
	}
	rm.notifier.StateChanged(r.ID, views)
}

// armTimerLocked 为对局创建（或复用）回合计时器并按当前回合开始计时
func (rm *RoomManager) armTimerLocked(r *Room) {
	if r.timer == nil {
		roomID := r.ID
		r.timer = timer.New(rm.cfg.TurnTimeout, func(armedFor time.Time) {
			rm.onTurnExpired(roomID, armedFor)
		})
	}
	r.timer.Reset(r.Match.TurnStartedAt())
}

// onTurnExpired 回合超时。作为房间事件串行执行：
// 对局已结束，或者 turnStartedAt 已经变了（玩家刚好在超时前出牌），都是过期的触发，直接忽略
func (rm *RoomManager) onTurnExpired(roomID string, armedFor time.Time) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
	}()

	_ = rm.withRoom(roomID, func(r *Room) error {
		if r.Lifecycle != LifecycleInProgress || r.Match == nil || !r.Match.IsActive() {
			return nil
		}
		if !r.Match.TurnStartedAt().Equal(armedFor) {
			return nil
		}

		res, err := r.Match.ForceTimeoutDraw()
		log := logger.WithRoom(roomID).WithField("player", res.PlayerID)
		switch {
		case errors.Is(err, apperrors.ErrDeckExhausted):
			log.Warn("⏰ 回合超时，牌堆已空，直接跳过")
		case err != nil:
			log.WithError(err).Error("⏰ 超时摸牌失败")
			return err
		default:
			log.Info("⏰ 回合超时，自动摸牌")
			rm.notifier.CardDrawn(roomID, res.PlayerID, res.Card)
		}

		rm.metrics.TimeoutDraw()
		r.dirty = true
		r.timer.Reset(r.Match.TurnStartedAt())
		rm.pushViewsLocked(r)
		return nil
	})
}

// cleanupLoop 定期清理超时房间
func (rm *RoomManager) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rm.cleanup()
		case <-rm.stopCleanup:
			return
		}
	}
}

// cleanup 解散超时未开局的房间，移除已领奖并过了保留期的房间
func (rm *RoomManager) cleanup() {
	now := rm.now()
	for _, r := range rm.all() {
		_ = rm.withRoom(r.ID, func(r *Room) error {
			switch r.Lifecycle {
			case LifecycleForming, LifecycleReadyToStart:
				if now.Sub(r.CreatedAt) > rm.cfg.RoomTimeout {
					rm.cancelLocked(r, "超时未开局")
				}
			case LifecycleConcluded:
				s := r.Settlement
				if s != nil && s.State == settlement.StateClaimed && now.Sub(s.ClaimedAt) > rm.cfg.CleanupDelay {
					r.removed = true
					logger.WithRoom(r.ID).Info("🧹 已领奖房间已清理")
				}
			}
			return nil
		})
	}
}

// SetMaintenanceMode 维护模式下不再创建新房间
func (rm *RoomManager) SetMaintenanceMode(on bool) {
	rm.maintMu.Lock()
	defer rm.maintMu.Unlock()
	rm.maintenance = on
}

// IsMaintenanceMode 是否处于维护模式
func (rm *RoomManager) IsMaintenanceMode() bool {
	rm.maintMu.RLock()
	defer rm.maintMu.RUnlock()
	return rm.maintenance
}

// Recover 服务重启后从存储恢复：进行中的对局重新计时，未领奖的结算继续推进。
// 未开局的房间没有保留价值（连接都断了），直接删除。
func (rm *RoomManager) Recover(ctx context.Context) (int, error) {
	if rm.store == nil {
		return 0, nil
	}
	snaps, err := rm.store.LoadRooms(ctx)
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, snap := range snaps {
		r, keep := restoreRoom(snap)
		if !keep {
			if err := rm.store.DeleteRoom(ctx, snap.ID); err != nil {
				logger.WithRoom(snap.ID).WithError(err).Warn("删除过期房间失败")
			}
			continue
		}

		rm.mu.Lock()
		rm.rooms[r.ID] = r
		rm.mu.Unlock()
		restored++

		r.mu.Lock()
		if r.Lifecycle == LifecycleInProgress {
			rm.armTimerLocked(r)
		}
		var s *settlement.Settlement
		if r.Settlement != nil {
			cp := r.Settlement.Clone()
			s = &cp
		}
		r.mu.Unlock()

		if s != nil && rm.settler != nil {
			rm.settler.Resume(*s)
		}
	}
	return restored, nil
}

func removeString(ids []string, id string) []string {
	return slices.DeleteFunc(slices.Clone(ids), func(x string) bool { return x == id })
}

func sortInfos(rooms []Info) {
	slices.SortFunc(rooms, func(a, b Info) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
