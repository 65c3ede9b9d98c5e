package card

import (
	"github.com/palemoky/uno-arena/internal/apperrors"
)

// Pile 摸牌堆 + 弃牌堆。弃牌堆最后一张是当前堆顶。
type Pile struct {
	draw    Deck
	discard Deck
}

// NewPile 用一副牌创建摸牌堆，弃牌堆为空
func NewPile(deck Deck) *Pile {
	return &Pile{draw: deck, discard: make(Deck, 0, DeckSize)}
}

// RestorePile 从持久化数据恢复
func RestorePile(draw, discard Deck) *Pile {
	return &Pile{draw: draw, discard: discard}
}

// Draw 摸一张牌。摸牌堆为空时先把弃牌堆（除堆顶外）洗回摸牌堆，
// 两边都没有可摸的牌才返回 ErrDeckExhausted。
func (p *Pile) Draw() (Card, error) {
	if len(p.draw) == 0 && !p.Reshuffle() {
		return Card{}, apperrors.ErrDeckExhausted
	}
	c := p.draw[len(p.draw)-1]
	p.draw = p.draw[:len(p.draw)-1]
	return c, nil
}

// Reshuffle 把弃牌堆中除堆顶外的牌洗入摸牌堆，没有牌可洗时返回 false
func (p *Pile) Reshuffle() bool {
	if len(p.discard) <= 1 {
		return false
	}
	top := p.discard[len(p.discard)-1]
	rest := p.discard[:len(p.discard)-1]

	refill := make(Deck, 0, len(p.draw)+len(rest))
	refill = append(refill, p.draw...)
	for _, c := range rest {
		// 万能牌打出时被染了色，洗回去前恢复成 Wild
		if c.Rank == RankWild || c.Rank == WildDrawFour {
			c.Color = Wild
		}
		refill = append(refill, c)
	}
	refill.Shuffle()

	p.draw = refill
	p.discard = append(make(Deck, 0, DeckSize), top)
	return true
}

// Discard 放到弃牌堆顶
func (p *Pile) Discard(c Card) {
	p.discard = append(p.discard, c)
}

// ReturnToDraw 把牌放回摸牌堆并重新洗牌（开局翻到万能牌时使用）
func (p *Pile) ReturnToDraw(c Card) {
	p.draw = append(p.draw, c)
	p.draw.Shuffle()
}

// Top 弃牌堆顶
func (p *Pile) Top() (Card, bool) {
	if len(p.discard) == 0 {
		return Card{}, false
	}
	return p.discard[len(p.discard)-1], true
}

// DrawSize 摸牌堆剩余张数
func (p *Pile) DrawSize() int { return len(p.draw) }

// DiscardSize 弃牌堆张数（含堆顶）
func (p *Pile) DiscardSize() int { return len(p.discard) }

// DrawCards 摸牌堆副本
func (p *Pile) DrawCards() Deck { return append(Deck(nil), p.draw...) }

// DiscardCards 弃牌堆副本
func (p *Pile) DiscardCards() Deck { return append(Deck(nil), p.discard...) }
