package match

import (
	"time"

	"github.com/palemoky/uno-arena/internal/game/card"
	"github.com/palemoky/uno-arena/internal/game/rule"
)

// OpponentView 对手信息，只有手牌数量
type OpponentView struct {
	PlayerID string
	HandSize int
	Left     bool
}

// PlayerView 某个玩家能看到的对局状态，不包含其他人的手牌
type PlayerView struct {
	RoomID            string
	Status            Status
	Players           []string
	DiscardTop        card.Card
	Hand              card.Hand
	Playable          []int // 轮到自己时可出的手牌下标
	ActivePlayerIndex int
	ActivePlayerID    string
	Direction         int
	DrawPileSize      int
	TurnStartedAt     time.Time
	TurnDeadline      time.Time
	Opponents         []OpponentView
	LastAction        LastAction
	Winner            string
	Reason            string
}

// View 生成 forPlayer 视角的视图。非本局玩家拿到的视图没有手牌
func (m *Match) View(forPlayer string) PlayerView {
	v := PlayerView{
		RoomID:            m.roomID,
		Status:            m.status,
		Players:           m.Players(),
		DiscardTop:        m.Top(),
		ActivePlayerIndex: m.active,
		ActivePlayerID:    m.players[m.active],
		Direction:         m.direction,
		DrawPileSize:      m.pile.DrawSize(),
		TurnStartedAt:     m.turnStartedAt,
		TurnDeadline:      m.turnStartedAt.Add(m.turnTimeout),
		LastAction:        m.lastAction,
		Winner:            m.winner,
		Reason:            m.reason,
	}
	if v.Status == StatusConcluded {
		v.TurnDeadline = time.Time{}
	}

	for i, id := range m.players {
		if id == forPlayer {
			v.Hand = m.hands[i].Clone()
			if v.Status == StatusActive && i == m.active {
				v.Playable = rule.PlayableIndices(v.Hand, v.DiscardTop)
			}
			continue
		}
		v.Opponents = append(v.Opponents, OpponentView{
			PlayerID: id,
			HandSize: len(m.hands[i]),
			Left:     m.departed[i],
		})
	}
	return v
}

// Views 为每个玩家生成视图，按座位顺序
func (m *Match) Views() map[string]PlayerView {
	views := make(map[string]PlayerView, len(m.players))
	for _, id := range m.players {
		views[id] = m.View(id)
	}
	return views
}
