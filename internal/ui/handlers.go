package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/timer"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/uno-arena/internal/protocol"
	"github.com/palemoky/uno-arena/internal/sound"
)

// handleServerMessage 处理服务器消息
func (m *OnlineModel) handleServerMessage(msg *protocol.Message) tea.Cmd {
	switch msg.Type {
	case protocol.MsgConnected:
		if p, err := protocol.ParsePayload[protocol.ConnectedPayload](msg); err == nil {
			m.playerID, m.playerName = p.PlayerID, p.PlayerName
		}
		return nil

	case protocol.MsgReconnected:
		return m.handleReconnected(msg)

	case protocol.MsgPong:
		if p, err := protocol.ParsePayload[protocol.PongPayload](msg); err == nil {
			m.latency = time.Now().UnixMilli() - p.ClientTimestamp
		}
		return nil

	case protocol.MsgError:
		if p, err := protocol.ParsePayload[protocol.ErrorPayload](msg); err == nil {
			m.err = p.Message
		}
		return nil

	case protocol.MsgMaintenancePush:
		if p, err := protocol.ParsePayload[protocol.MaintenancePayload](msg); err == nil {
			m.maintenance = p.Maintenance
		}
		return m.flash("🔧 服务器进入维护模式，暂停创建房间")

	// 大厅
	case protocol.MsgRoomListResult, protocol.MsgRoomsUpdate:
		if p, err := protocol.ParsePayload[protocol.RoomListPayload](msg); err == nil {
			m.rooms = p.Rooms
		}
		return nil

	case protocol.MsgStatsResult:
		if p, err := protocol.ParsePayload[protocol.StatsResultPayload](msg); err == nil {
			m.stats = p
		}
		return nil

	case protocol.MsgLeaderboardResult:
		if p, err := protocol.ParsePayload[protocol.LeaderboardResultPayload](msg); err == nil {
			m.leaderboard = p.Entries
		}
		return nil

	// 房间
	case protocol.MsgRoomCreated, protocol.MsgRoomJoined:
		if p, err := protocol.ParsePayload[protocol.RoomEventPayload](msg); err == nil {
			room := p.Room
			m.room = &room
			m.err = ""
			if room.Lifecycle == "forming" || room.Lifecycle == "ready_to_start" {
				m.setPhase(PhaseRoom)
			}
		}
		return nil

	case protocol.MsgPlayerJoined, protocol.MsgPlayerLeft:
		p, err := protocol.ParsePayload[protocol.RoomEventPayload](msg)
		if err != nil {
			return nil
		}
		room := p.Room
		m.room = &room
		verb := "加入"
		if msg.Type == protocol.MsgPlayerLeft {
			verb = "离开"
		}
		return m.flash(fmt.Sprintf("👤 %s %s了房间", shortID(p.PlayerID), verb))

	case protocol.MsgRoomLeft:
		return m.enterLobby()

	case protocol.MsgRoomCancelled:
		cmd := m.enterLobby()
		return tea.Batch(cmd, m.flash("🚪 房间已解散"))

	// 对局
	case protocol.MsgMatchStarted:
		m.setPhase(PhasePlaying)
		m.play(sound.EventMatchStart)
		return m.flash("🎮 对局开始")

	case protocol.MsgStateChanged:
		p, err := protocol.ParsePayload[protocol.StateChangedPayload](msg)
		if err != nil {
			return nil
		}
		return m.applyState(p)

	case protocol.MsgCardDrawn:
		if p, err := protocol.ParsePayload[protocol.CardDrawnPayload](msg); err == nil {
			c := p.Card
			m.lastDrawn = &c
			m.play(sound.EventDrawCard)
		}
		return nil

	case protocol.MsgMatchConcluded:
		p, err := protocol.ParsePayload[protocol.MatchConcludedPayload](msg)
		if err != nil {
			return nil
		}
		m.concluded = p
		m.setPhase(PhaseConcluded)
		if p.Winner == m.playerID {
			m.play(sound.EventWin)
			return m.flash("🏆 你赢了！等待账本确认后即可领奖")
		}
		m.play(sound.EventLose)
		return m.flash("对局结束，赢家: " + shortID(p.Winner))

	// 结算
	case protocol.MsgSettlementFinalized, protocol.MsgSettlementTimedOut,
		protocol.MsgSettlementClaimed, protocol.MsgSettlementResult:
		p, err := protocol.ParsePayload[protocol.SettlementPayload](msg)
		if err != nil {
			return nil
		}
		m.settlement = p
		if m.phase != PhaseConcluded {
			m.setPhase(PhaseConcluded)
		}
		switch msg.Type {
		case protocol.MsgSettlementFinalized:
			return m.flash("✅ 账本已确认结果")
		case protocol.MsgSettlementTimedOut:
			return m.flash("⏰ 账本确认超时，可以输入 retry 重试")
		case protocol.MsgSettlementClaimed:
			if p.ClaimedBy == m.playerID {
				m.play(sound.EventPayout)
			}
			return m.flash("💰 奖金已领取")
		}
		return nil
	}
	return nil
}

func (m *OnlineModel) handleReconnected(msg *protocol.Message) tea.Cmd {
	p, err := protocol.ParsePayload[protocol.ReconnectedPayload](msg)
	if err != nil {
		return nil
	}
	m.playerID, m.playerName = p.PlayerID, p.PlayerName
	m.reconnecting = false
	if p.RoomID == "" {
		return m.enterLobby()
	}

	m.room = &protocol.RoomInfo{RoomID: p.RoomID}
	if p.State != nil {
		return m.applyState(p.State)
	}
	m.setPhase(PhaseRoom)
	return nil
}

// applyState 更新视图并重置出牌倒计时
func (m *OnlineModel) applyState(p *protocol.StateChangedPayload) tea.Cmd {
	wasMyTurn := m.isMyTurn()
	m.state = p
	if a := p.LastAction; a != nil && a.Kind == "play" && a.PlayerID != m.playerID {
		m.play(sound.EventPlayCard)
	}
	if p.Status == "concluded" {
		m.setPhase(PhaseConcluded)
		return nil
	}
	if m.phase != PhasePlaying {
		m.setPhase(PhasePlaying)
	}
	if !wasMyTurn && m.isMyTurn() {
		m.play(sound.EventMyTurn)
	}
	if p.TurnDeadlineMs == 0 {
		return nil
	}
	remaining := time.Until(time.UnixMilli(p.TurnDeadlineMs))
	if remaining <= 0 {
		return nil
	}
	m.timer = timer.NewWithInterval(remaining, time.Second)
	return m.timer.Init()
}

// isMyTurn 是否轮到自己
func (m *OnlineModel) isMyTurn() bool {
	return m.state != nil && m.state.ActivePlayerID == m.playerID
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
