package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHand_RemoveAt(t *testing.T) {
	t.Parallel()

	h := Hand{{Color: Red, Rank: Rank1}, {Color: Blue, Rank: Rank2}, {Color: Green, Rank: Rank3}}
	rest, c := h.RemoveAt(1)

	assert.Equal(t, Card{Color: Blue, Rank: Rank2}, c)
	assert.Equal(t, Hand{{Color: Red, Rank: Rank1}, {Color: Green, Rank: Rank3}}, rest)
	assert.Equal(t, 3, h.Len(), "original hand untouched")
}

func TestHand_At(t *testing.T) {
	t.Parallel()

	h := Hand{{Color: Red, Rank: Rank1}}
	tests := []struct {
		idx int
		ok  bool
	}{
		{0, true},
		{-1, false},
		{1, false},
	}
	for _, tt := range tests {
		_, ok := h.At(tt.idx)
		assert.Equal(t, tt.ok, ok, "index %d", tt.idx)
	}
}

func TestHand_CloneAndIndexOf(t *testing.T) {
	t.Parallel()

	h := Hand{{Color: Red, Rank: Rank1}, {Color: Wild, Rank: RankWild}}
	c := h.Clone()
	c[0] = Card{Color: Blue, Rank: Rank9}

	assert.Equal(t, Card{Color: Red, Rank: Rank1}, h[0])
	assert.Equal(t, 1, h.IndexOf(Card{Color: Wild, Rank: RankWild}))
	assert.Equal(t, -1, h.IndexOf(Card{Color: Yellow, Rank: Skip}))
	assert.Equal(t, "R1 W", h.String())
}
