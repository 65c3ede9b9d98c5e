package rule

import (
	"github.com/palemoky/uno-arena/internal/game/card"
)

// PlayableIndices 返回手牌中能压过 top 的所有下标，给客户端做出牌提示
func PlayableIndices(hand card.Hand, top card.Card) []int {
	var idx []int
	for i, c := range hand {
		if IsLegal(c, top) {
			idx = append(idx, i)
		}
	}
	return idx
}
