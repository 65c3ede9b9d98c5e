package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/palemoky/uno-arena/internal/game/card"
)

func TestIsLegal(t *testing.T) {
	t.Parallel()

	top := card.Card{Color: card.Red, Rank: card.Rank5}
	tests := []struct {
		name string
		card card.Card
		want bool
	}{
		{"same color", card.Card{Color: card.Red, Rank: card.Rank9}, true},
		{"same rank", card.Card{Color: card.Blue, Rank: card.Rank5}, true},
		{"wild", card.Card{Color: card.Wild, Rank: card.RankWild}, true},
		{"wild draw four", card.Card{Color: card.Wild, Rank: card.WildDrawFour}, true},
		{"mismatch", card.Card{Color: card.Blue, Rank: card.Rank7}, false},
		{"action mismatch", card.Card{Color: card.Green, Rank: card.Skip}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsLegal(tt.card, top))
		})
	}
}

// 万能牌打出后堆顶带着被选的颜色，后续按颜色或牌面匹配
func TestIsLegal_RecoloredWildTop(t *testing.T) {
	t.Parallel()

	top := card.Card{Color: card.Green, Rank: card.RankWild}
	assert.True(t, IsLegal(card.Card{Color: card.Green, Rank: card.Rank2}, top))
	assert.False(t, IsLegal(card.Card{Color: card.Red, Rank: card.Rank2}, top))
}

func TestEffectOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rank    card.Rank
		players int
		want    Effect
	}{
		{"number", card.Rank3, 4, Effect{Steps: 1}},
		{"skip", card.Skip, 3, Effect{Steps: 2}},
		{"reverse 3p", card.Reverse, 3, Effect{Steps: 1, FlipDir: true}},
		{"reverse 2p", card.Reverse, 2, Effect{Steps: 2, FlipDir: true}},
		{"draw two", card.DrawTwo, 4, Effect{Steps: 2, NextDraws: 2}},
		{"wild", card.RankWild, 4, Effect{Steps: 1, NeedsColor: true}},
		{"wild four", card.WildDrawFour, 2, Effect{Steps: 2, NextDraws: 4, NeedsColor: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, EffectOf(tt.rank, tt.players))
		})
	}
}

func TestNextIndex(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, NextIndex(0, 1, 1, 4))
	assert.Equal(t, 2, NextIndex(0, 1, 2, 4))
	assert.Equal(t, 3, NextIndex(0, -1, 1, 4))
	assert.Equal(t, 2, NextIndex(0, -1, 2, 4))
	assert.Equal(t, 0, NextIndex(0, 1, 2, 2))
	assert.Equal(t, 0, NextIndex(1, -1, 1, 2))
}
