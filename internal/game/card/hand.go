package card

import (
	"strings"
)

// Hand 玩家手牌，只由持有对局的 Match 修改
type Hand []Card

// Len 手牌张数
func (h Hand) Len() int { return len(h) }

// At 取第 i 张牌
func (h Hand) At(i int) (Card, bool) {
	if i < 0 || i >= len(h) {
		return Card{}, false
	}
	return h[i], true
}

// RemoveAt 移除第 i 张牌，返回新手牌和被移除的牌
func (h Hand) RemoveAt(i int) (Hand, Card) {
	c := h[i]
	out := make(Hand, 0, len(h)-1)
	out = append(out, h[:i]...)
	out = append(out, h[i+1:]...)
	return out, c
}

// Clone 手牌副本，视图中使用，避免外部修改
func (h Hand) Clone() Hand {
	return append(Hand(nil), h...)
}

// IndexOf 第一张与 c 相同的牌的下标，没有返回 -1
func (h Hand) IndexOf(c Card) int {
	for i, x := range h {
		if x == c {
			return i
		}
	}
	return -1
}

// Counts 统计每种牌的张数
func Counts(cards []Card) map[Card]int {
	counts := make(map[Card]int, len(cards))
	for _, c := range cards {
		counts[c]++
	}
	return counts
}

func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.Short()
	}
	return strings.Join(parts, " ")
}
