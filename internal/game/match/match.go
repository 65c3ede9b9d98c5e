package match

import (
	"slices"
	"time"

	"github.com/palemoky/uno-arena/internal/apperrors"
	"github.com/palemoky/uno-arena/internal/game/card"
)

const (
	InitialHandSize = 7
	MinPlayers      = 2
	MaxPlayers      = 4

	DefaultTurnTimeout = 30 * time.Second
)

// Status 对局状态
type Status int

const (
	StatusActive Status = iota
	StatusConcluded
)

func (s Status) String() string {
	if s == StatusConcluded {
		return "concluded"
	}
	return "active"
}

// ActionKind 最近一次动作的种类
type ActionKind string

const (
	ActionStart       ActionKind = "start"
	ActionPlay        ActionKind = "play"
	ActionDraw        ActionKind = "draw"
	ActionTimeoutDraw ActionKind = "timeout_draw"
	ActionForfeit     ActionKind = "forfeit"
)

// 结束原因
const (
	ReasonEmptyHand    = "empty_hand"
	ReasonOpponentLeft = "opponent_left"
)

// LastAction 最近一次动作，用于客户端展示
type LastAction struct {
	Kind     ActionKind `json:"kind"`
	PlayerID string     `json:"player_id,omitempty"`
	Card     *card.Card `json:"card,omitempty"`
	At       time.Time  `json:"at"`
}

// Options 开局参数
type Options struct {
	TurnTimeout time.Duration    // 只用于计算视图中的截止时间
	Now         func() time.Time // 可注入时钟，测试用
	Deck        card.Deck        // 非空时直接使用（不洗牌），测试用
}

// Match 一局 UNO 的权威状态。
// Match 本身不加锁，所有调用都必须在所属房间的锁内进行。
type Match struct {
	roomID    string
	players   []string
	hands     []card.Hand
	departed  []bool
	pile      *card.Pile
	active    int
	direction int
	status    Status
	winner    string
	reason    string

	turnStartedAt time.Time
	turnTimeout   time.Duration
	lastAction    LastAction
	now           func() time.Time
}

// Start 开局：新牌、每人按座位顺序轮流发 7 张、翻出第一张非万能牌作为堆顶
func Start(roomID string, players []string, opts Options) (*Match, error) {
	if len(players) < MinPlayers {
		return nil, apperrors.ErrNotEnoughPlayers
	}
	if len(players) > MaxPlayers || hasDuplicate(players) {
		return nil, apperrors.ErrInvalidCapacity
	}

	m := newMatch(roomID, players, opts)

	deck := opts.Deck
	if len(deck) == 0 {
		deck = card.FreshShuffledDeck()
	} else {
		deck = slices.Clone(deck)
	}
	m.pile = card.NewPile(deck)

	for range InitialHandSize {
		for i := range m.players {
			c, err := m.pile.Draw()
			if err != nil {
				return nil, err
			}
			m.hands[i] = append(m.hands[i], c)
		}
	}

	first, err := m.flipFirst()
	if err != nil {
		return nil, err
	}
	m.pile.Discard(first)

	m.touchTurn()
	m.lastAction = LastAction{Kind: ActionStart, Card: &first, At: m.turnStartedAt}
	return m, nil
}

func newMatch(roomID string, players []string, opts Options) *Match {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	timeout := opts.TurnTimeout
	if timeout <= 0 {
		timeout = DefaultTurnTimeout
	}
	return &Match{
		roomID:      roomID,
		players:     slices.Clone(players),
		hands:       make([]card.Hand, len(players)),
		departed:    make([]bool, len(players)),
		direction:   1,
		status:      StatusActive,
		turnTimeout: timeout,
		now:         now,
	}
}

// flipFirst 翻第一张牌，万能牌放回牌堆重新洗牌后再翻
func (m *Match) flipFirst() (card.Card, error) {
	for {
		c, err := m.pile.Draw()
		if err != nil {
			return card.Card{}, err
		}
		if !c.IsWild() {
			return c, nil
		}
		m.pile.ReturnToDraw(c)
	}
}

// touchTurn 重置回合开始时间。保证严格递增，计时器靠它识别过期的触发
func (m *Match) touchTurn() {
	now := m.now()
	if !now.After(m.turnStartedAt) {
		now = m.turnStartedAt.Add(time.Nanosecond)
	}
	m.turnStartedAt = now
}

func (m *Match) seatOf(playerID string) int {
	return slices.Index(m.players, playerID)
}

func hasDuplicate(ids []string) bool {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}

// --- 只读访问 ---

func (m *Match) RoomID() string             { return m.roomID }
func (m *Match) Players() []string          { return slices.Clone(m.players) }
func (m *Match) Status() Status             { return m.status }
func (m *Match) Winner() string             { return m.winner }
func (m *Match) Reason() string             { return m.reason }
func (m *Match) Direction() int             { return m.direction }
func (m *Match) TurnStartedAt() time.Time   { return m.turnStartedAt }
func (m *Match) TurnTimeout() time.Duration { return m.turnTimeout }
func (m *Match) LastAction() LastAction     { return m.lastAction }

// IsActive 对局是否进行中
func (m *Match) IsActive() bool { return m.status == StatusActive }

// ActivePlayer 当前回合的玩家
func (m *Match) ActivePlayer() string { return m.players[m.active] }

// ActiveIndex 当前回合的座位
func (m *Match) ActiveIndex() int { return m.active }

// HandSize 玩家手牌张数，不在本局返回 -1
func (m *Match) HandSize(playerID string) int {
	seat := m.seatOf(playerID)
	if seat < 0 {
		return -1
	}
	return len(m.hands[seat])
}

// Hand 玩家手牌副本
func (m *Match) Hand(playerID string) card.Hand {
	seat := m.seatOf(playerID)
	if seat < 0 {
		return nil
	}
	return m.hands[seat].Clone()
}

// Top 弃牌堆顶
func (m *Match) Top() card.Card {
	top, _ := m.pile.Top()
	return top
}

// DrawPileSize 摸牌堆剩余张数
func (m *Match) DrawPileSize() int { return m.pile.DrawSize() }

// CardCount 所有手牌 + 摸牌堆 + 弃牌堆的总张数，对局中应恒为 108
func (m *Match) CardCount() int {
	n := m.pile.DrawSize() + m.pile.DiscardSize()
	for _, h := range m.hands {
		n += len(h)
	}
	return n
}

// HasDeparted 玩家是否已离开（仍在座，但不再接收推送）
func (m *Match) HasDeparted(playerID string) bool {
	seat := m.seatOf(playerID)
	return seat >= 0 && m.departed[seat]
}
