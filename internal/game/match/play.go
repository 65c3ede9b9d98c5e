package match

import (
	"errors"

	"github.com/palemoky/uno-arena/internal/apperrors"
	"github.com/palemoky/uno-arena/internal/game/card"
	"github.com/palemoky/uno-arena/internal/game/rule"
)

// PlayResult 出牌结果
type PlayResult struct {
	Card      card.Card   // 落在堆顶的牌（万能牌已染色）
	Concluded bool        // 出完最后一张，本局结束
	Winner    string
	Victim    string      // 被 +2/+4 罚摸的玩家
	Penalty   []card.Card // 罚摸到的牌
}

// DrawResult 摸牌结果
type DrawResult struct {
	PlayerID string
	Card     card.Card
}

// PlayCard 出牌。chosen 只对万能牌有意义，其他牌忽略。
// 出完最后一张先判胜，功能牌效果仍然生效（+4 照样罚摸）。
func (m *Match) PlayCard(playerID string, cardIndex int, chosen *card.Color) (PlayResult, error) {
	seat, err := m.checkTurn(playerID)
	if err != nil {
		return PlayResult{}, err
	}

	hand := m.hands[seat]
	c, ok := hand.At(cardIndex)
	if !ok {
		return PlayResult{}, apperrors.ErrInvalidCardIndex
	}
	if !rule.IsLegal(c, m.Top()) {
		return PlayResult{}, apperrors.ErrIllegalMove
	}

	effect := rule.EffectOf(c.Rank, len(m.players))
	placed := c
	if effect.NeedsColor {
		if chosen == nil || !chosen.Playable() {
			return PlayResult{}, apperrors.ErrMissingColorChoice
		}
		placed = c.WithColor(*chosen)
	}

	// 校验通过，开始修改状态
	m.hands[seat], _ = hand.RemoveAt(cardIndex)
	m.pile.Discard(placed)

	res := PlayResult{Card: placed}
	if len(m.hands[seat]) == 0 {
		m.conclude(playerID, ReasonEmptyHand)
		res.Concluded = true
		res.Winner = playerID
	}

	if effect.FlipDir {
		m.direction = -m.direction
	}
	if effect.NextDraws > 0 {
		victimSeat := rule.NextIndex(seat, m.direction, 1, len(m.players))
		res.Victim = m.players[victimSeat]
		res.Penalty = m.drawInto(victimSeat, effect.NextDraws)
	}
	m.active = rule.NextIndex(seat, m.direction, effect.Steps, len(m.players))

	m.touchTurn()
	m.lastAction = LastAction{Kind: ActionPlay, PlayerID: playerID, Card: &placed, At: m.turnStartedAt}
	return res, nil
}

// DrawCard 当前玩家摸一张牌，回合交给下家
func (m *Match) DrawCard(playerID string) (DrawResult, error) {
	seat, err := m.checkTurn(playerID)
	if err != nil {
		return DrawResult{}, err
	}
	c, err := m.pile.Draw()
	if err != nil {
		return DrawResult{}, err
	}
	m.hands[seat] = append(m.hands[seat], c)
	m.active = rule.NextIndex(seat, m.direction, 1, len(m.players))

	m.touchTurn()
	m.lastAction = LastAction{Kind: ActionDraw, PlayerID: playerID, At: m.turnStartedAt}
	return DrawResult{PlayerID: playerID, Card: c}, nil
}

// ForceTimeoutDraw 回合超时，替当前玩家摸一张牌并交出回合。
// 牌堆彻底耗尽时不摸牌，回合照样交出，返回 ErrDeckExhausted 供调用方记录。
func (m *Match) ForceTimeoutDraw() (DrawResult, error) {
	if m.status != StatusActive {
		return DrawResult{}, apperrors.ErrMatchConcluded
	}
	seat := m.active
	playerID := m.players[seat]

	c, drawErr := m.pile.Draw()
	if drawErr != nil && !errors.Is(drawErr, apperrors.ErrDeckExhausted) {
		return DrawResult{}, drawErr
	}
	if drawErr == nil {
		m.hands[seat] = append(m.hands[seat], c)
	}
	m.active = rule.NextIndex(seat, m.direction, 1, len(m.players))

	m.touchTurn()
	m.lastAction = LastAction{Kind: ActionTimeoutDraw, PlayerID: playerID, At: m.turnStartedAt}
	return DrawResult{PlayerID: playerID, Card: c}, drawErr
}

// Forfeit 玩家离开对局。离开者仍然占座（不重新发牌），
// 只剩一名未离开的玩家时对局结束，该玩家获胜。返回本次是否结束了对局。
func (m *Match) Forfeit(leaverID string) (bool, error) {
	if m.status != StatusActive {
		return false, apperrors.ErrMatchConcluded
	}
	seat := m.seatOf(leaverID)
	if seat < 0 {
		return false, apperrors.ErrNotAParticipant
	}
	m.departed[seat] = true

	remaining := m.remainingPlayers()
	if len(remaining) != 1 {
		return false, nil
	}

	m.conclude(remaining[0], ReasonOpponentLeft)
	m.touchTurn()
	m.lastAction = LastAction{Kind: ActionForfeit, PlayerID: leaverID, At: m.turnStartedAt}
	return true, nil
}

// checkTurn 校验对局状态和回合归属，返回玩家座位
func (m *Match) checkTurn(playerID string) (int, error) {
	if m.status != StatusActive {
		return -1, apperrors.ErrMatchConcluded
	}
	seat := m.seatOf(playerID)
	if seat < 0 {
		return -1, apperrors.ErrNotAParticipant
	}
	if seat != m.active {
		return -1, apperrors.ErrNotYourTurn
	}
	return seat, nil
}

// drawInto 罚摸 n 张，牌堆耗尽时能摸几张算几张
func (m *Match) drawInto(seat, n int) []card.Card {
	drawn := make([]card.Card, 0, n)
	for range n {
		c, err := m.pile.Draw()
		if err != nil {
			break
		}
		drawn = append(drawn, c)
	}
	m.hands[seat] = append(m.hands[seat], drawn...)
	return drawn
}

func (m *Match) conclude(winner, reason string) {
	m.status = StatusConcluded
	m.winner = winner
	m.reason = reason
}

func (m *Match) remainingPlayers() []string {
	var ids []string
	for i, id := range m.players {
		if !m.departed[i] {
			ids = append(ids, id)
		}
	}
	return ids
}
