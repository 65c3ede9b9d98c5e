package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeck_Composition(t *testing.T) {
	t.Parallel()

	deck := NewDeck()
	require.Len(t, deck, DeckSize)

	counts := Counts(deck)
	for c := Red; c <= Yellow; c++ {
		assert.Equal(t, 1, counts[Card{Color: c, Rank: Rank0}], "%s 0", c)
		for r := Rank1; r <= DrawTwo; r++ {
			assert.Equal(t, 2, counts[Card{Color: c, Rank: r}], "%s %s", c, r)
		}
	}
	assert.Equal(t, 4, counts[Card{Color: Wild, Rank: RankWild}])
	assert.Equal(t, 4, counts[Card{Color: Wild, Rank: WildDrawFour}])
}

func TestFreshShuffledDeck_SameMultiset(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Counts(NewDeck()), Counts(FreshShuffledDeck()))
}

func TestCard_Short(t *testing.T) {
	t.Parallel()

	tests := []struct {
		card Card
		want string
	}{
		{Card{Color: Red, Rank: Rank5}, "R5"},
		{Card{Color: Blue, Rank: DrawTwo}, "B+2"},
		{Card{Color: Green, Rank: Skip}, "GS"},
		{Card{Color: Yellow, Rank: Reverse}, "YR"},
		{Card{Color: Wild, Rank: RankWild}, "W"},
		{Card{Color: Wild, Rank: WildDrawFour}, "W+4"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.card.Short())
		})
	}
}

func TestCard_IsWild(t *testing.T) {
	t.Parallel()

	assert.True(t, Card{Color: Wild, Rank: RankWild}.IsWild())
	assert.True(t, Card{Color: Red, Rank: WildDrawFour}.IsWild(), "recolored wild keeps its rank")
	assert.False(t, Card{Color: Red, Rank: Rank7}.IsWild())
}

func TestCard_WithColor(t *testing.T) {
	t.Parallel()

	w := Card{Color: Wild, Rank: RankWild}
	g := w.WithColor(Green)
	assert.Equal(t, Green, g.Color)
	assert.Equal(t, Wild, w.Color, "original must not change")
}

func TestParseColor(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"red", "R", " Red "} {
		c, err := ParseColor(s)
		require.NoError(t, err)
		assert.Equal(t, Red, c)
	}
	_, err := ParseColor("purple")
	assert.Error(t, err)
	assert.True(t, Yellow.Playable())
	assert.False(t, Wild.Playable())
}

func TestParseRank(t *testing.T) {
	t.Parallel()

	for r := Rank0; r <= WildDrawFour; r++ {
		got, err := ParseRank(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	_, err := ParseRank("10")
	assert.Error(t, err)
}
