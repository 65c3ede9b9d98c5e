package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/palemoky/uno-arena/internal/game/card"
)

func TestPlayableIndices(t *testing.T) {
	t.Parallel()

	hand := card.Hand{
		{Color: card.Blue, Rank: card.Rank1},
		{Color: card.Red, Rank: card.Rank2},
		{Color: card.Wild, Rank: card.RankWild},
		{Color: card.Green, Rank: card.Rank5},
	}
	top := card.Card{Color: card.Red, Rank: card.Rank5}

	assert.Equal(t, []int{1, 2, 3}, PlayableIndices(hand, top))
	assert.Nil(t, PlayableIndices(nil, top))
}
