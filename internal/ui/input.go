package ui

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const leaderboardSize = 10

// handleCommand 解析输入框里的命令
func (m *OnlineModel) handleCommand(line string) tea.Cmd {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return nil
	}
	m.err = ""
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch m.phase {
	case PhaseLobby:
		return m.lobbyCommand(cmd, args)
	case PhaseRoom:
		return m.roomCommand(cmd)
	case PhasePlaying:
		return m.gameCommand(cmd, args)
	case PhaseConcluded:
		return m.afterCommand(cmd)
	}
	return nil
}

func (m *OnlineModel) lobbyCommand(cmd string, args []string) tea.Cmd {
	switch cmd {
	case "c", "create":
		if m.maintenance {
			m.err = "服务器维护中，暂停创建房间"
			return nil
		}
		capacity, fee, ok := parseCreateArgs(args)
		if !ok {
			m.err = "用法: c <人数 2-4> <入场费>"
			return nil
		}
		return m.request(func() error { return m.send.CreateRoom(capacity, fee) })
	case "j", "join":
		if len(args) != 1 {
			m.err = "用法: j <房间号>"
			return nil
		}
		return m.request(func() error { return m.send.JoinRoom(args[0]) })
	case "r", "refresh":
		return m.request(m.send.GetRoomList)
	case "stats":
		target := ""
		if len(args) > 0 {
			target = args[0]
		}
		return m.request(func() error { return m.send.GetStats(target) })
	case "top":
		return m.request(func() error { return m.send.GetLeaderboard(0, leaderboardSize) })
	}
	m.err = "未知命令: " + cmd
	return nil
}

func (m *OnlineModel) roomCommand(cmd string) tea.Cmd {
	roomID := m.roomID()
	switch cmd {
	case "s", "start":
		return m.request(func() error { return m.send.StartMatch(roomID) })
	case "q", "quit", "leave":
		return m.request(func() error { return m.send.LeaveRoom(roomID) })
	}
	m.err = "未知命令: " + cmd
	return nil
}

func (m *OnlineModel) gameCommand(cmd string, args []string) tea.Cmd {
	roomID := m.roomID()
	switch cmd {
	case "d", "draw":
		return m.request(func() error { return m.send.DrawCard(roomID) })
	case "q", "quit", "leave":
		return m.request(func() error { return m.send.LeaveRoom(roomID) })
	case "state":
		return m.request(func() error { return m.send.RequestState(roomID) })
	}

	// "<序号> [颜色]"，序号从 1 开始
	index, err := strconv.Atoi(cmd)
	if err != nil {
		m.err = "未知命令: " + cmd
		return nil
	}
	if m.state == nil || index < 1 || index > len(m.state.Hand) {
		m.err = "无效的手牌序号"
		return nil
	}
	color := ""
	if len(args) > 0 {
		color = args[0]
	}
	if m.state.Hand[index-1].Color == "wild" && color == "" {
		m.err = "万能牌需要选择颜色: r/b/g/y"
		return nil
	}
	return m.request(func() error { return m.send.PlayCard(roomID, index-1, color) })
}

func (m *OnlineModel) afterCommand(cmd string) tea.Cmd {
	roomID := m.roomID()
	switch cmd {
	case "claim":
		return m.request(func() error { return m.send.ClaimPrize(roomID) })
	case "retry":
		return m.request(func() error { return m.send.RetryFinalize(roomID) })
	case "status":
		return m.request(func() error { return m.send.GetSettlement(roomID) })
	case "q", "quit", "lobby":
		return m.enterLobby()
	}
	m.err = "未知命令: " + cmd
	return nil
}

func parseCreateArgs(args []string) (int, int64, bool) {
	if len(args) != 2 {
		return 0, 0, false
	}
	capacity, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, false
	}
	fee, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return capacity, fee, true
}
