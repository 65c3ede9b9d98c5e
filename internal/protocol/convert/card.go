package convert

import (
	"github.com/palemoky/uno-arena/internal/game/card"
	"github.com/palemoky/uno-arena/internal/protocol"
)

// CardToInfo 将 card.Card 转换为 protocol.CardInfo
func CardToInfo(c card.Card) protocol.CardInfo {
	return protocol.CardInfo{
		Color: c.Color.String(),
		Rank:  c.Rank.String(),
		Short: c.Short(),
	}
}

// CardsToInfos 将 []card.Card 转换为 []protocol.CardInfo
func CardsToInfos(cards []card.Card) []protocol.CardInfo {
	infos := make([]protocol.CardInfo, len(cards))
	for i, c := range cards {
		infos[i] = CardToInfo(c)
	}
	return infos
}

// InfoToCard 将 protocol.CardInfo 转换为 card.Card
func InfoToCard(info protocol.CardInfo) (card.Card, error) {
	color, err := card.ParseColor(info.Color)
	if err != nil {
		return card.Card{}, err
	}
	rank, err := card.ParseRank(info.Rank)
	if err != nil {
		return card.Card{}, err
	}
	return card.Card{Color: color, Rank: rank}, nil
}
