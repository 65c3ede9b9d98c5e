package rule

import (
	"github.com/palemoky/uno-arena/internal/game/card"
)

// IsLegal 判断 c 能否压在弃牌堆顶 top 上：同色、同牌面，或者万能牌
func IsLegal(c, top card.Card) bool {
	return c.Color == top.Color || c.Rank == top.Rank || c.Color == card.Wild
}

// Effect 一张牌打出后的效果
type Effect struct {
	Steps      int  // 前进几个座位（按新的方向）
	FlipDir    bool // 是否反转方向
	NextDraws  int  // 下家被罚摸几张
	NeedsColor bool // 是否需要出牌者指定颜色
}

// effects 功能牌效果表，数字牌使用 defaultEffect
var effects = map[card.Rank]Effect{
	card.Skip:         {Steps: 2},
	card.Reverse:      {Steps: 1, FlipDir: true},
	card.DrawTwo:      {Steps: 2, NextDraws: 2},
	card.RankWild:     {Steps: 1, NeedsColor: true},
	card.WildDrawFour: {Steps: 2, NextDraws: 4, NeedsColor: true},
}

var defaultEffect = Effect{Steps: 1}

// EffectOf 查询牌面效果。playerCount 用于两人局的 Reverse：反转等同于跳过，出牌者继续
func EffectOf(rank card.Rank, playerCount int) Effect {
	e, ok := effects[rank]
	if !ok {
		return defaultEffect
	}
	if rank == card.Reverse && playerCount == 2 {
		e.Steps = 2
	}
	return e
}

// NextIndex 从 from 出发按方向 dir 前进 steps 个座位
func NextIndex(from, dir, steps, playerCount int) int {
	if playerCount <= 0 {
		return 0
	}
	i := (from + dir*steps) % playerCount
	if i < 0 {
		i += playerCount
	}
	return i
}
