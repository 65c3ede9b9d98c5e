package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/uno-arena/internal/protocol"
)

var (
	DocStyle     = lipgloss.NewStyle().Margin(1, 2)
	TitleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true).Render
	BoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	ActiveBox    = BoxStyle.BorderForeground(lipgloss.Color("214"))
	PromptStyle  = lipgloss.NewStyle().MarginTop(1)
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	NoticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	HighlightFg  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	cardBase     = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cardPalettes = map[string]lipgloss.Style{
		"red":    cardBase.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#D72600")),
		"blue":   cardBase.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#0956BF")),
		"green":  cardBase.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#379711")),
		"yellow": cardBase.Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#ECD407")),
		"wild":   cardBase.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#000000")),
	}
)

// RenderCard 按颜色渲染一张牌
func RenderCard(c protocol.CardInfo) string {
	label := c.Short
	if label == "" {
		label = c.Color + " " + c.Rank
	}
	style, ok := cardPalettes[c.Color]
	if !ok {
		style = cardBase
	}
	return style.Render(label)
}
