package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/uno-arena/internal/protocol"
)

func (m *OnlineModel) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")

	switch m.phase {
	case PhaseConnecting:
		b.WriteString("正在连接服务器...")
	case PhaseDisconnect:
		b.WriteString(ErrorStyle.Render("连接已断开，按 Ctrl+C 退出"))
	case PhaseLobby:
		b.WriteString(m.lobbyView())
	case PhaseRoom:
		b.WriteString(m.roomView())
	case PhasePlaying:
		b.WriteString(m.gameView())
	case PhaseConcluded:
		b.WriteString(m.concludedView())
	}

	if m.notice != "" {
		b.WriteString("\n" + NoticeStyle.Render(m.notice))
	}
	if m.err != "" {
		b.WriteString("\n" + ErrorStyle.Render("✗ "+m.err))
	}
	if m.phase != PhaseConnecting && m.phase != PhaseDisconnect {
		b.WriteString("\n" + PromptStyle.Render(m.input.View()))
	}
	return DocStyle.Render(b.String())
}

func (m *OnlineModel) header() string {
	parts := []string{TitleStyle("🃏 UNO Arena")}
	if m.playerName != "" {
		parts = append(parts, "玩家: "+m.playerName)
	}
	if m.latency > 0 {
		parts = append(parts, fmt.Sprintf("延迟: %dms", m.latency))
	}
	if m.reconnecting {
		parts = append(parts, ErrorStyle.Render(fmt.Sprintf("重连中 %d/%d", m.reconnectAttempt, m.reconnectMax)))
	}
	if m.maintenance {
		parts = append(parts, ErrorStyle.Render("维护中"))
	}
	return strings.Join(parts, DimStyle.Render("  │  "))
}

func (m *OnlineModel) lobbyView() string {
	var b strings.Builder
	b.WriteString(HighlightFg.Render("房间列表") + "\n")
	if len(m.rooms) == 0 {
		b.WriteString(DimStyle.Render("  暂无房间，输入 c 2 100 创建一个") + "\n")
	}
	for _, r := range m.rooms {
		fmt.Fprintf(&b, "  %s  %d/%d 人  入场费 %d  %s\n",
			r.RoomID, len(r.Members), r.Capacity, r.EntryFee, DimStyle.Render(r.Lifecycle))
	}

	var side []string
	if m.stats != nil {
		s := m.stats
		rank := "未上榜"
		if s.Rank > 0 {
			rank = fmt.Sprintf("#%d", s.Rank)
		}
		side = append(side, BoxStyle.Render(fmt.Sprintf("📊 %s\n对局 %d  胜 %d  负 %d\n胜率 %.1f%%\n累计奖金 %d\n排名 %s",
			shortID(s.PlayerID), s.TotalGames, s.Wins, s.Losses, s.WinRate, s.TotalWinnings, rank)))
	}
	if len(m.leaderboard) > 0 {
		var lb strings.Builder
		lb.WriteString("🏆 排行榜")
		for _, e := range m.leaderboard {
			fmt.Fprintf(&lb, "\n%2d. %-8s %6d", e.Rank, shortID(e.PlayerID), e.TotalWinnings)
		}
		side = append(side, BoxStyle.Render(lb.String()))
	}
	if len(side) > 0 {
		b.WriteString("\n" + lipgloss.JoinHorizontal(lipgloss.Top, side...))
	}
	return b.String()
}

func (m *OnlineModel) roomView() string {
	if m.room == nil {
		return ""
	}
	r := m.room
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s   入场费 %d   奖池 %d\n\n",
		HighlightFg.Render("房间"), r.RoomID, r.EntryFee, r.EntryFee*int64(len(r.Members)))
	for i, id := range r.Members {
		label := shortID(id)
		if id == m.playerID {
			label += " (你)"
		}
		if id == r.Creator {
			label += " 👑"
		}
		fmt.Fprintf(&b, "  %d. %s\n", i+1, label)
	}
	for i := len(r.Members); i < r.Capacity; i++ {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, DimStyle.Render("等待加入..."))
	}
	return b.String()
}

func (m *OnlineModel) gameView() string {
	s := m.state
	if s == nil {
		return "等待对局状态..."
	}
	var b strings.Builder

	// 对手
	var opponents []string
	for _, o := range s.Opponents {
		label := fmt.Sprintf("%s\n🂠 × %d", shortID(o.PlayerID), o.HandSize)
		if o.Left {
			label += "\n" + DimStyle.Render("已离开")
		}
		style := BoxStyle
		if o.PlayerID == s.ActivePlayerID {
			style = ActiveBox
		}
		opponents = append(opponents, style.Render(label))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, opponents...))
	b.WriteString("\n\n")

	direction := "↻ 顺时针"
	if s.Direction < 0 {
		direction = "↺ 逆时针"
	}
	fmt.Fprintf(&b, "弃牌堆: %s   牌堆: %d 张   %s\n", RenderCard(s.DiscardTop), s.DrawPileSize, direction)
	if s.LastAction != nil {
		b.WriteString(DimStyle.Render(describeAction(s.LastAction)) + "\n")
	}
	b.WriteString("\n")

	if m.isMyTurn() {
		fmt.Fprintf(&b, "%s  剩余 %s\n", HighlightFg.Render("轮到你出牌"), m.timer.View())
	} else {
		fmt.Fprintf(&b, "等待 %s 出牌  剩余 %s\n", shortID(s.ActivePlayerID), m.timer.View())
	}

	b.WriteString(renderHand(s.Hand, s.Playable))
	if m.lastDrawn != nil {
		b.WriteString("\n" + DimStyle.Render("刚摸到: ") + RenderCard(*m.lastDrawn))
	}
	return b.String()
}

func (m *OnlineModel) concludedView() string {
	var b strings.Builder
	if m.concluded != nil {
		winner := shortID(m.concluded.Winner)
		if m.concluded.Winner == m.playerID {
			winner = "你"
		}
		reason := "出完手牌"
		if m.concluded.Reason == "opponent_left" {
			reason = "对手全部离开"
		}
		fmt.Fprintf(&b, "%s  赢家: %s（%s）\n\n", HighlightFg.Render("对局结束"), winner, reason)
	}

	s := m.settlement
	if s == nil {
		b.WriteString(DimStyle.Render("等待账本确认..."))
		return b.String()
	}
	lines := []string{
		fmt.Sprintf("状态: %s", settlementLabel(s.State)),
		fmt.Sprintf("奖池: %d", s.Pool),
	}
	if s.TxRef != "" {
		lines = append(lines, "交易: "+s.TxRef)
	}
	if s.Payout != nil {
		lines = append(lines,
			fmt.Sprintf("平台抽成: %d", s.Payout.PlatformFee),
			fmt.Sprintf("赢家所得: %d", s.Payout.WinnerShare))
	}
	if s.ClaimedBy != "" {
		lines = append(lines, "领取人: "+shortID(s.ClaimedBy))
	}
	if s.Message != "" {
		lines = append(lines, s.Message)
	}
	b.WriteString(BoxStyle.Render(strings.Join(lines, "\n")))
	return b.String()
}

// renderHand 手牌下面标序号，可出的牌序号高亮
func renderHand(hand []protocol.CardInfo, playable []int) string {
	cards := make([]string, 0, len(hand))
	for i, c := range hand {
		label := DimStyle.Render(fmt.Sprint(i + 1))
		if slices.Contains(playable, i) {
			label = HighlightFg.Render(fmt.Sprint(i + 1))
		}
		cards = append(cards, lipgloss.JoinVertical(lipgloss.Center, RenderCard(c), label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func describeAction(a *protocol.LastActionInfo) string {
	who := shortID(a.PlayerID)
	switch a.Kind {
	case "play":
		if a.Card != nil {
			return fmt.Sprintf("%s 打出 %s", who, a.Card.Short)
		}
		return who + " 出牌"
	case "draw":
		return who + " 摸了一张牌"
	case "timeout_draw":
		return who + " 超时，自动摸牌"
	case "forfeit":
		return who + " 离开了对局"
	case "start":
		return "对局开始"
	}
	return a.Kind
}

func settlementLabel(state string) string {
	switch state {
	case "pending_finalization":
		return "⏳ 等待账本确认"
	case "finalized":
		return "✅ 已确认，赢家可领奖"
	case "timed_out":
		return "⏰ 确认超时（可重试）"
	case "claimed":
		return "💰 已领取"
	}
	return state
}
