package match

import (
	"slices"
	"time"

	"github.com/palemoky/uno-arena/internal/game/card"
)

// Snapshot 对局的完整可序列化状态，用于持久化和恢复
type Snapshot struct {
	RoomID        string        `json:"room_id"`
	Players       []string      `json:"players"`
	Hands         []card.Hand   `json:"hands"`
	Departed      []bool        `json:"departed"`
	DrawPile      card.Deck     `json:"draw_pile"`
	DiscardPile   card.Deck     `json:"discard_pile"`
	Active        int           `json:"active"`
	Direction     int           `json:"direction"`
	Status        Status        `json:"status"`
	Winner        string        `json:"winner,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	TurnStartedAt time.Time     `json:"turn_started_at"`
	TurnTimeout   time.Duration `json:"turn_timeout"`
	LastAction    LastAction    `json:"last_action"`
}

// Snapshot 导出当前状态（深拷贝）
func (m *Match) Snapshot() Snapshot {
	hands := make([]card.Hand, len(m.hands))
	for i, h := range m.hands {
		hands[i] = h.Clone()
	}
	return Snapshot{
		RoomID:        m.roomID,
		Players:       slices.Clone(m.players),
		Hands:         hands,
		Departed:      slices.Clone(m.departed),
		DrawPile:      m.pile.DrawCards(),
		DiscardPile:   m.pile.DiscardCards(),
		Active:        m.active,
		Direction:     m.direction,
		Status:        m.status,
		Winner:        m.winner,
		Reason:        m.reason,
		TurnStartedAt: m.turnStartedAt,
		TurnTimeout:   m.turnTimeout,
		LastAction:    m.lastAction,
	}
}

// Restore 从快照恢复对局，now 为空时使用 time.Now
func Restore(s Snapshot, now func() time.Time) *Match {
	m := newMatch(s.RoomID, s.Players, Options{TurnTimeout: s.TurnTimeout, Now: now})
	for i := range m.hands {
		if i < len(s.Hands) {
			m.hands[i] = s.Hands[i].Clone()
		}
		if i < len(s.Departed) {
			m.departed[i] = s.Departed[i]
		}
	}
	m.pile = card.RestorePile(slices.Clone(s.DrawPile), slices.Clone(s.DiscardPile))
	m.active = s.Active
	if s.Direction != 0 {
		m.direction = s.Direction
	}
	m.status = s.Status
	m.winner = s.Winner
	m.reason = s.Reason
	m.turnStartedAt = s.TurnStartedAt
	m.lastAction = s.LastAction
	return m
}
