package card

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Color 牌的颜色
type Color int

// Rank 牌面
type Rank int

// Card 定义一张牌，值类型，不可变
type Card struct {
	Color Color `json:"color"`
	Rank  Rank  `json:"rank"`
}

const (
	Red Color = iota
	Blue
	Green
	Yellow
	Wild // 万能牌的颜色，只在手牌中出现；打出后被选择的颜色覆盖
)

// colorNames 颜色名称映射表
var colorNames = map[Color]string{
	Red:    "red",
	Blue:   "blue",
	Green:  "green",
	Yellow: "yellow",
	Wild:   "wild",
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("color(%d)", int(c))
}

// Playable 是否是可以被选择的颜色（红/蓝/绿/黄）
func (c Color) Playable() bool {
	return c >= Red && c <= Yellow
}

// ParseColor 解析颜色名称，支持全称和首字母
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red", "r":
		return Red, nil
	case "blue", "b":
		return Blue, nil
	case "green", "g":
		return Green, nil
	case "yellow", "y":
		return Yellow, nil
	case "wild", "w":
		return Wild, nil
	}
	return 0, fmt.Errorf("无法识别的颜色: %q", s)
}

const (
	Rank0 Rank = iota
	Rank1
	Rank2
	Rank3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
	Rank9
	Skip
	Reverse
	DrawTwo
	RankWild
	WildDrawFour
)

// rankNames 牌面字符串映射表
var rankNames = map[Rank]string{
	Skip:         "skip",
	Reverse:      "reverse",
	DrawTwo:      "draw_two",
	RankWild:     "wild",
	WildDrawFour: "wild_draw_four",
}

// rankShort 短格式，用于终端和日志
var rankShort = map[Rank]string{
	Skip:         "S",
	Reverse:      "R",
	DrawTwo:      "+2",
	RankWild:     "",
	WildDrawFour: "+4",
}

func (r Rank) String() string {
	if r >= Rank0 && r <= Rank9 {
		return string(rune('0' + r))
	}
	if name, ok := rankNames[r]; ok {
		return name
	}
	return fmt.Sprintf("rank(%d)", int(r))
}

// ParseRank 解析牌面名称
func ParseRank(s string) (Rank, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
		return Rank(s[0] - '0'), nil
	}
	for r, name := range rankNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("无法识别的牌面: %q", s)
}

// IsWild 是否是万能牌（Wild 或 WildDrawFour）
func (c Card) IsWild() bool {
	return c.Color == Wild || c.Rank == RankWild || c.Rank == WildDrawFour
}

// WithColor 返回颜色被覆盖后的副本，用于万能牌打出后设置弃牌堆顶
func (c Card) WithColor(color Color) Card {
	c.Color = color
	return c
}

// Short 短格式: R5, B+2, GS, W, W+4
func (c Card) Short() string {
	var prefix string
	switch c.Color {
	case Red:
		prefix = "R"
	case Blue:
		prefix = "B"
	case Green:
		prefix = "G"
	case Yellow:
		prefix = "Y"
	default:
		prefix = "W"
	}
	if c.Rank >= Rank0 && c.Rank <= Rank9 {
		return prefix + c.Rank.String()
	}
	return prefix + rankShort[c.Rank]
}

func (c Card) String() string {
	return c.Color.String() + " " + c.Rank.String()
}

// Deck 定义一副牌
type Deck []Card

// DeckSize 一副标准 UNO 牌的张数
const DeckSize = 108

// NewDeck 生成未洗的 108 张牌：
// 每种颜色 1 张 0，1-9/Skip/Reverse/DrawTwo 各 2 张；另加 4 张 Wild 和 4 张 WildDrawFour
func NewDeck() Deck {
	deck := make(Deck, 0, DeckSize)
	for c := Red; c <= Yellow; c++ {
		deck = append(deck, Card{Color: c, Rank: Rank0})
		for r := Rank1; r <= DrawTwo; r++ {
			deck = append(deck, Card{Color: c, Rank: r}, Card{Color: c, Rank: r})
		}
	}
	for range 4 {
		deck = append(deck,
			Card{Color: Wild, Rank: RankWild},
			Card{Color: Wild, Rank: WildDrawFour},
		)
	}
	return deck
}

// FreshShuffledDeck 新的一副洗好的牌
func FreshShuffledDeck() Deck {
	deck := NewDeck()
	deck.Shuffle()
	return deck
}

func (d Deck) Shuffle() {
	rand.Shuffle(len(d), func(i, j int) {
		d[i], d[j] = d[j], d[i]
	})
}
