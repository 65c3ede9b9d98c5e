package room

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/palemoky/uno-arena/internal/game/card"
	"github.com/palemoky/uno-arena/internal/game/match"
	"github.com/palemoky/uno-arena/internal/game/settlement"
	"github.com/palemoky/uno-arena/internal/game/timer"
	"github.com/palemoky/uno-arena/internal/metrics"
)

const (
	MinCapacity = match.MinPlayers
	MaxCapacity = match.MaxPlayers
)

// Room 游戏房间。除 ID 外的字段都受 mu 保护
type Room struct {
	ID          string
	Capacity    int
	Stake       int64 // 入场费，最小货币单位
	Members     []string
	Lifecycle   Lifecycle
	Match       *match.Match
	Settlement  *settlement.Settlement
	CreatedAt   time.Time
	ConcludedAt time.Time
	Creator     string

	timer *timer.TurnTimer

	// 锁内记录，解锁后由 withRoom 处理
	dirty       bool
	lobbyDirty  bool
	beginSettle bool
	removed     bool
	seq         uint64 // 快照序号，每次落盘前递增

	mu sync.Mutex

	// 同一房间的写入串行，序号不回退
	saveMu   sync.Mutex
	savedSeq uint64
}

// Info 房间摘要，可以安全地带出锁
type Info struct {
	ID        string
	Capacity  int
	Stake     int64
	Members   []string
	Lifecycle Lifecycle
	Creator   string
	CreatedAt time.Time
}

func (r *Room) info() Info {
	return Info{
		ID:        r.ID,
		Capacity:  r.Capacity,
		Stake:     r.Stake,
		Members:   slices.Clone(r.Members),
		Lifecycle: r.Lifecycle,
		Creator:   r.Creator,
		CreatedAt: r.CreatedAt,
	}
}

func (r *Room) isMember(playerID string) bool {
	return slices.Contains(r.Members, playerID)
}

// isPresent 是成员且没有中途离开
func (r *Room) isPresent(playerID string) bool {
	if !r.isMember(playerID) {
		return false
	}
	return r.Match == nil || !r.Match.HasDeparted(playerID)
}

// present 仍在接收推送的成员
func (r *Room) present() []string {
	out := make([]string, 0, len(r.Members))
	for _, id := range r.Members {
		if r.isPresent(id) {
			out = append(out, id)
		}
	}
	return out
}

// EventKind 房间事件
type EventKind string

const (
	EventPlayerJoined  EventKind = "player_joined"
	EventPlayerLeft    EventKind = "player_left"
	EventRoomCancelled EventKind = "room_cancelled"
)

// Notifier 房间状态变化的出口，由同步层实现。调用时可能持有房间锁，实现不能阻塞，也不能回调 RoomManager
type Notifier interface {
	RoomEvent(kind EventKind, info Info, playerID string)
	LobbyChanged(rooms []Info)
	MatchStarted(info Info)
	StateChanged(roomID string, views map[string]match.PlayerView)
	CardDrawn(roomID, playerID string, c card.Card)
	MatchConcluded(roomID string, members []string, winner, reason string)
	Detach(roomID, playerID string)
}

// Settler 结算协调器
type Settler interface {
	Open(roomID, winner string, players []string, entryFee int64) *settlement.Settlement
	Begin(roomID string)
	Resume(s settlement.Settlement)
	Forget(roomID string)
}

// Store 房间持久化
type Store interface {
	SaveRoom(ctx context.Context, snap Snapshot) error
	DeleteRoom(ctx context.Context, roomID string) error
	LoadRooms(ctx context.Context) ([]Snapshot, error)
}

// Config 房间参数
type Config struct {
	TurnTimeout  time.Duration
	RoomTimeout  time.Duration // Forming 房间无人开局的最长时间
	CleanupDelay time.Duration // 领奖后多久移除房间
}

// Deps 依赖项，Store 和 Metrics 可以为空
type Deps struct {
	Store    Store
	Notifier Notifier
	Settler  Settler
	Metrics  *metrics.Metrics
}

// RoomManager 房间管理器。
// 注册表由 mu 保护；每个房间有自己的锁，加锁顺序只能是 房间锁 -> mu
type RoomManager struct {
	cfg      Config
	store    Store
	notifier Notifier
	settler  Settler
	metrics  *metrics.Metrics

	rooms map[string]*Room
	mu    sync.RWMutex

	maintenance bool
	maintMu     sync.RWMutex

	now func() time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once

	saves sync.WaitGroup // 未完成的异步写入
}

// NewRoomManager 创建房间管理器并启动清理协程
func NewRoomManager(cfg Config, deps Deps) *RoomManager {
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = match.DefaultTurnTimeout
	}
	if cfg.RoomTimeout <= 0 {
		cfg.RoomTimeout = 10 * time.Minute
	}
	if cfg.CleanupDelay <= 0 {
		cfg.CleanupDelay = 5 * time.Minute
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	rm := &RoomManager{
		cfg:         cfg,
		store:       deps.Store,
		notifier:    notifier,
		settler:     deps.Settler,
		metrics:     deps.Metrics,
		rooms:       make(map[string]*Room),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	rm.metrics.RegisterActiveMatches(rm.ActiveMatchCount)

	go rm.cleanupLoop()

	return rm
}

// Close 停止清理协程和所有回合计时器，等待未完成的写入
func (rm *RoomManager) Close() {
	defer rm.Flush()

	rm.stopOnce.Do(func() { close(rm.stopCleanup) })

	for _, r := range rm.all() {
		r.mu.Lock()
		if r.timer != nil {
			r.timer.Stop()
		}
		r.mu.Unlock()
	}
}

// NopNotifier 什么都不做的 Notifier
type NopNotifier struct{}

func (NopNotifier) RoomEvent(EventKind, Info, string) {}
func (NopNotifier) LobbyChanged([]Info) {}
func (NopNotifier) MatchStarted(Info) {}
func (NopNotifier) StateChanged(string, map[string]match.PlayerView) {}
func (NopNotifier) CardDrawn(string, string, card.Card) {}
func (NopNotifier) MatchConcluded(string, []string, string, string) {}
func (NopNotifier) Detach(string, string) {}
