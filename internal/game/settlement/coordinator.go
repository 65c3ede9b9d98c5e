package settlement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/palemoky/uno-arena/internal/apperrors"
	"github.com/palemoky/uno-arena/internal/ledger"
	"github.com/palemoky/uno-arena/internal/logger"
	"github.com/palemoky/uno-arena/internal/metrics"
)

// storeTimeout 单次存储读写超时
const storeTimeout = 5 * time.Second

// Rooms 提供按房间加锁访问结算记录的能力，由房间管理器实现。
// fn 在房间锁内执行；房间不存在返回 ErrRoomNotFound，没有结算记录返回 ErrSettlementNotFound。
type Rooms interface {
	WithSettlement(roomID string, fn func(s *Settlement) error) error
}

// Store 结算的持久化和领奖的一次性写入
type Store interface {
	SaveSettlement(ctx context.Context, s Settlement) error
	// LoadSettlement 不存在时返回 nil
	LoadSettlement(ctx context.Context, roomID string) (*Settlement, error)
	// ClaimOnce 写入一次性领奖标记，已存在时返回 false
	ClaimOnce(ctx context.Context, roomID, claimant string) (bool, error)
}

// Listener 结算事件，推送、排行榜、归档和房间清理都挂在这里
type Listener interface {
	SettlementFinalized(s Settlement)
	SettlementTimedOut(s Settlement)
	SettlementClaimed(s Settlement, p Payout)
}

// Config 结算参数
type Config struct {
	Deadline    time.Duration // 等待账本确认的时间窗口
	FeeBps      int64         // 平台抽成（基点）
	CallTimeout time.Duration // 单次账本调用超时，与 Deadline 无关
}

// DefaultCallTimeout 单次账本调用的默认超时
const DefaultCallTimeout = time.Minute

// Coordinator 结算协调器
type Coordinator struct {
	cfg     Config
	rooms   Rooms
	ledger  ledger.Service
	store   Store
	metrics *metrics.Metrics
	now     func() time.Time

	listenersMu sync.RWMutex
	listeners   []Listener

	retries singleflight.Group

	timersMu sync.Mutex
	timers   map[string]*time.Timer

	wg sync.WaitGroup
}

// NewCoordinator 创建协调器，store 可以为 nil（只在内存中保证一次领奖）
func NewCoordinator(cfg Config, l ledger.Service, store Store) *Coordinator {
	if cfg.Deadline <= 0 {
		cfg.Deadline = 30 * time.Second
	}
	if cfg.FeeBps < 0 {
		cfg.FeeBps = DefaultFeeBps
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	return &Coordinator{
		cfg:    cfg,
		ledger: l,
		store:  store,
		now:    time.Now,
		timers: make(map[string]*time.Timer),
	}
}

// AttachRooms 绑定房间管理器（两者互相引用，创建后再绑定）
func (c *Coordinator) AttachRooms(r Rooms) {
	c.rooms = r
}

// SetMetrics 启用指标
func (c *Coordinator) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

// AddListener 注册事件监听
func (c *Coordinator) AddListener(l Listener) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, l)
}

// FeeBps 平台抽成
func (c *Coordinator) FeeBps() int64 { return c.cfg.FeeBps }

// Open 出现赢家的瞬间创建结算记录并启动截止计时。调用方必须持有房间锁，
// 释放锁之后再调用 Begin。
func (c *Coordinator) Open(roomID, winner string, players []string, entryFee int64) *Settlement {
	s := New(roomID, winner, players, entryFee, c.now(), c.cfg.Deadline)
	c.armDeadline(roomID, s.Deadline)
	return s
}

// Begin 在锁外发起一次 Finalize，结果回到房间锁内应用。异步执行
func (c *Coordinator) Begin(roomID string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.LogPanic(r)
			}
		}()
		_, _ = c.finalize(context.Background(), roomID)
	}()
}

// Resume 恢复一条已存在的结算（服务重启后），仍在等待确认的重新计时并发起 Finalize
func (c *Coordinator) Resume(s Settlement) {
	switch s.State {
	case StatePendingFinalization:
		c.armDeadline(s.RoomID, s.Deadline)
		c.Begin(s.RoomID)
	case StateTimedOut:
		// 等待玩家手动重试
	}
}

// finalize 调用一次账本并应用结果，返回最新状态。
// 调用本身失败时状态照常返回，错误包装为 ErrLedgerUnavailable
func (c *Coordinator) finalize(ctx context.Context, roomID string) (Settlement, error) {
	var winner string
	err := c.rooms.WithSettlement(roomID, func(s *Settlement) error {
		if s.IsFinal() {
			return errAlreadyFinal
		}
		s.Attempts++
		s.InFlight = true
		winner = s.Winner
		return nil
	})
	if errors.Is(err, errAlreadyFinal) {
		return c.Get(roomID)
	}
	if err != nil {
		return Settlement{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	res, callErr := c.ledger.Finalize(callCtx, roomID, winner)
	cancel()

	log := logger.WithRoom(roomID)
	if callErr != nil {
		c.metrics.LedgerCall("finalize", "error")
		log.WithError(callErr).Warn("⛓️ 账本调用失败")
	} else {
		c.metrics.LedgerCall("finalize", res.Outcome.String())
		log.WithField("outcome", res.Outcome.String()).Info("⛓️ 账本返回")
	}
	snap, err := c.apply(roomID, res, callErr)
	if err == nil && callErr != nil {
		err = fmt.Errorf("%w: %v", apperrors.ErrLedgerUnavailable, callErr)
	}
	return snap, err
}

var errAlreadyFinal = errors.New("settlement already finalized")

// apply 在房间锁内应用账本结果，进入 Finalized 时通知所有人
func (c *Coordinator) apply(roomID string, res ledger.Result, callErr error) (Settlement, error) {
	var (
		snap      Settlement
		finalized bool
	)
	err := c.rooms.WithSettlement(roomID, func(s *Settlement) error {
		finalized = s.Apply(res, callErr)
		snap = s.Clone()
		return nil
	})
	if err != nil {
		return Settlement{}, err
	}

	c.persist(snap)
	if finalized {
		c.stopDeadline(roomID)
		c.metrics.SettlementState(StateFinalized.String())
		logger.WithRoom(roomID).WithField("tx", snap.FinalizationTxRef).Info("✅ 结算已在账本确认")
		c.emit(func(l Listener) { l.SettlementFinalized(snap) })
	}
	return snap, nil
}

// RetryFinalize 手动重试。房间内任何参与者都可以触发，同一房间的并发重试合并为一次。
// 先查询账本是否已经确认过，没有才重新发起 Finalize。
func (c *Coordinator) RetryFinalize(ctx context.Context, roomID, requester string) (Settlement, error) {
	err := c.rooms.WithSettlement(roomID, func(s *Settlement) error {
		if !s.HasPlayer(requester) {
			return apperrors.ErrNotInRoom
		}
		return s.CanRetry()
	})
	if err != nil {
		return Settlement{}, err
	}

	v, err, shared := c.retries.Do(roomID, func() (any, error) {
		snap, err := c.Reconcile(ctx, roomID)
		if err == nil && snap.IsFinal() {
			return snap, nil
		}
		return c.finalize(ctx, roomID)
	})
	if err != nil {
		return Settlement{}, err
	}
	logger.WithRoom(roomID).WithFields(map[string]any{"by": requester, "shared": shared}).Info("🔁 手动重试账本确认")
	return v.(Settlement), nil
}

// Reconcile 查询账本，捡回在 Finalize 返回之后才落账的确认
func (c *Coordinator) Reconcile(ctx context.Context, roomID string) (Settlement, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	res, err := c.ledger.QueryFinalization(callCtx, roomID)
	cancel()
	if err != nil {
		c.metrics.LedgerCall("query", "error")
		return Settlement{}, fmt.Errorf("query finalization: %w", err)
	}
	c.metrics.LedgerCall("query", res.Outcome.String())
	if res.Outcome != ledger.OutcomeConfirmed {
		return c.Get(roomID)
	}
	return c.apply(roomID, res, nil)
}

// ClaimPrize 赢家领奖。房间锁内校验并写入一次性标记，保证并发领奖只有一个成功
func (c *Coordinator) ClaimPrize(ctx context.Context, roomID, claimant string) (Payout, error) {
	var (
		snap   Settlement
		payout Payout
	)
	err := c.rooms.WithSettlement(roomID, func(s *Settlement) error {
		if err := s.CheckClaim(claimant); err != nil {
			return err
		}
		if c.store != nil {
			ok, err := c.store.ClaimOnce(ctx, roomID, claimant)
			if err != nil {
				return fmt.Errorf("claim guard: %w", err)
			}
			if !ok {
				return apperrors.ErrAlreadyClaimed
			}
		}
		s.MarkClaimed(claimant, c.now())
		snap = s.Clone()
		payout = ComputePayout(s.Pool, c.cfg.FeeBps)
		return nil
	})
	if err != nil {
		return Payout{}, err
	}

	c.persist(snap)
	c.metrics.SettlementState(StateClaimed.String())
	logger.WithRoom(roomID).WithFields(map[string]any{
		"winner": claimant,
		"share":  payout.WinnerShare,
		"fee":    payout.PlatformFee,
	}).Info("💰 奖金已领取")
	c.emit(func(l Listener) { l.SettlementClaimed(snap, payout) })
	return payout, nil
}

// Get 当前结算状态。房间已清理时从存储读取（只读）
func (c *Coordinator) Get(roomID string) (Settlement, error) {
	var snap Settlement
	err := c.rooms.WithSettlement(roomID, func(s *Settlement) error {
		snap = s.Clone()
		return nil
	})
	if err == nil || c.store == nil || !isMissing(err) {
		return snap, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	stored, loadErr := c.store.LoadSettlement(ctx, roomID)
	if loadErr != nil {
		logger.WithRoom(roomID).WithError(loadErr).Warn("读取结算记录失败")
		return Settlement{}, err
	}
	if stored == nil {
		return Settlement{}, err
	}
	return *stored, nil
}

// Payout 按当前费率计算某个结算的奖金明细
func (c *Coordinator) Payout(s Settlement) Payout {
	return ComputePayout(s.Pool, c.cfg.FeeBps)
}

// Wait 等待所有进行中的账本调用结束
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close 停止所有截止计时器
func (c *Coordinator) Close() {
	c.timersMu.Lock()
	defer c.timersMu.Unlock()
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}

// Forget 房间被清理时释放计时器
func (c *Coordinator) Forget(roomID string) {
	c.stopDeadline(roomID)
}

func (c *Coordinator) armDeadline(roomID string, deadline time.Time) {
	c.timersMu.Lock()
	defer c.timersMu.Unlock()

	if t, ok := c.timers[roomID]; ok {
		t.Stop()
	}
	d := max(time.Until(deadline), 0)
	c.timers[roomID] = time.AfterFunc(d, func() { c.onDeadline(roomID) })
}

func (c *Coordinator) stopDeadline(roomID string) {
	c.timersMu.Lock()
	defer c.timersMu.Unlock()
	if t, ok := c.timers[roomID]; ok {
		t.Stop()
		delete(c.timers, roomID)
	}
}

// onDeadline 截止时间到：仍未确认则转入 TimedOut 并通知。进行中的调用不取消
func (c *Coordinator) onDeadline(roomID string) {
	c.timersMu.Lock()
	delete(c.timers, roomID)
	c.timersMu.Unlock()

	var (
		snap     Settlement
		timedOut bool
	)
	err := c.rooms.WithSettlement(roomID, func(s *Settlement) error {
		timedOut = s.Expire(c.now())
		snap = s.Clone()
		return nil
	})
	if err != nil || !timedOut {
		return
	}

	c.persist(snap)
	c.metrics.SettlementState(StateTimedOut.String())
	logger.WithRoom(roomID).Warn("⏰ 账本确认超时，等待手动重试")
	c.emit(func(l Listener) { l.SettlementTimedOut(snap) })
}

func (c *Coordinator) persist(s Settlement) {
	if c.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := c.store.SaveSettlement(ctx, s); err != nil {
		logger.WithRoom(s.RoomID).WithError(err).Warn("保存结算失败")
	}
}

func (c *Coordinator) emit(fn func(Listener)) {
	c.listenersMu.RLock()
	ls := append([]Listener(nil), c.listeners...)
	c.listenersMu.RUnlock()
	for _, l := range ls {
		fn(l)
	}
}

func isMissing(err error) bool {
	return errors.Is(err, apperrors.ErrRoomNotFound) || errors.Is(err, apperrors.ErrSettlementNotFound)
}
