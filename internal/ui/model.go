// Package ui 终端客户端界面（bubbletea）
package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/timer"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/uno-arena/internal/protocol"
	"github.com/palemoky/uno-arena/internal/sound"
	"github.com/palemoky/uno-arena/internal/transport"
)

const (
	lobbyPlaceholder = "c <人数> <入场费> 建房 | j <房间号> 加入 | r 刷新 | stats | top"
	roomPlaceholder  = "s 开局 | q 离开"
	gamePlaceholder  = "<序号> [颜色] 出牌 | d 摸牌 | q 认输离开"
	afterPlaceholder = "claim 领奖 | retry 重试确认 | q 返回大厅"
	noticeDuration   = 4 * time.Second
)

// Sender 界面用到的客户端操作，测试里可以替换
type Sender interface {
	CreateRoom(capacity int, entryFee int64) error
	JoinRoom(roomID string) error
	LeaveRoom(roomID string) error
	StartMatch(roomID string) error
	GetRoomList() error
	PlayCard(roomID string, cardIndex int, chosenColor string) error
	DrawCard(roomID string) error
	RequestState(roomID string) error
	ClaimPrize(roomID string) error
	RetryFinalize(roomID string) error
	GetSettlement(roomID string) error
	GetStats(playerID string) error
	GetLeaderboard(offset, limit int) error
}

// Sounder 音效播放
type Sounder interface {
	Play(event sound.Event)
}

// OnlineModel 联网模式的根模型
type OnlineModel struct {
	client *transport.Client
	send   Sender
	sound  Sounder
	phase  GamePhase
	err    string
	notice string
	seq    int

	playerID   string
	playerName string
	latency    int64

	reconnecting     bool
	reconnectAttempt int
	reconnectMax     int
	events           chan tea.Msg

	maintenance bool

	// 大厅
	rooms       []protocol.RoomInfo
	stats       *protocol.StatsResultPayload
	leaderboard []protocol.LeaderboardEntry

	// 房间与对局
	room       *protocol.RoomInfo
	state      *protocol.StateChangedPayload
	lastDrawn  *protocol.CardInfo
	concluded  *protocol.MatchConcludedPayload
	settlement *protocol.SettlementPayload

	input  textinput.Model
	timer  timer.Model
	width  int
	height int
}

// NewOnlineModel 创建模型；token 非空时连上后自动恢复身份
func NewOnlineModel(serverURL, token string) *OnlineModel {
	ti := textinput.New()
	ti.Placeholder = lobbyPlaceholder
	ti.CharLimit = 64
	ti.Width = 60
	ti.Focus()

	c := transport.NewClient(serverURL)
	if token != "" {
		c.SetReconnectToken(token)
	}
	m := newModel(c, ti)
	m.client = c

	c.OnReconnecting = func(attempt, maxTries int) {
		m.emit(ReconnectingMsg{Attempt: attempt, MaxTries: maxTries})
	}
	c.OnReconnect = func() {
		m.emit(ReconnectSuccessMsg{})
	}
	return m
}

func newModel(send Sender, ti textinput.Model) *OnlineModel {
	return &OnlineModel{
		send:   send,
		phase:  PhaseConnecting,
		input:  ti,
		events: make(chan tea.Msg, 10),
	}
}

func (m *OnlineModel) emit(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
	}
}

// SetSound 设置音效播放器
func (m *OnlineModel) SetSound(s Sounder) {
	m.sound = s
}

func (m *OnlineModel) play(event sound.Event) {
	if m.sound != nil {
		m.sound.Play(event)
	}
}

// Token 当前重连令牌，退出时保存
func (m *OnlineModel) Token() string {
	if m.client == nil {
		return ""
	}
	return m.client.ReconnectToken()
}

func (m *OnlineModel) Init() tea.Cmd {
	return tea.Batch(
		m.connectToServer(),
		textinput.Blink,
		m.listenForEvents(),
	)
}

func (m *OnlineModel) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

func (m *OnlineModel) connectToServer() tea.Cmd {
	return func() tea.Msg {
		if err := m.client.Connect(); err != nil {
			return ConnectionErrorMsg{Err: err}
		}
		m.client.StartHeartbeat()
		return ConnectedMsg{}
	}
}

func (m *OnlineModel) listenForMessages() tea.Cmd {
	return func() tea.Msg {
		msg, err := m.client.Receive()
		if err != nil {
			return ConnectionErrorMsg{Err: err}
		}
		return ServerMessage{Msg: msg}
	}
}

func (m *OnlineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.client != nil {
				m.client.Close()
			}
			return m, tea.Quit
		case tea.KeyEsc:
			m.err = ""
			return m, nil
		case tea.KeyEnter:
			line := m.input.Value()
			m.input.Reset()
			return m, m.handleCommand(line)
		}

	case ConnectedMsg:
		m.phase = PhaseLobby
		return m, tea.Batch(m.listenForMessages(), m.request(m.send.GetRoomList))

	case ConnectionErrorMsg:
		if m.reconnecting {
			return m, m.listenForMessages()
		}
		m.phase = PhaseDisconnect
		m.err = "连接失败: " + msg.Err.Error()
		return m, nil

	case ReconnectingMsg:
		m.reconnecting = true
		m.reconnectAttempt, m.reconnectMax = msg.Attempt, msg.MaxTries
		return m, m.listenForEvents()

	case ReconnectSuccessMsg:
		m.reconnecting = false
		return m, tea.Batch(m.listenForEvents(), m.flash("🔄 重连成功"))

	case ServerMessage:
		cmd := m.handleServerMessage(msg.Msg)
		return m, tea.Batch(cmd, m.listenForMessages())

	case clearNoticeMsg:
		if msg.seq == m.seq {
			m.notice = ""
		}
		return m, nil

	case timer.TickMsg, timer.StartStopMsg, timer.TimeoutMsg:
		var cmd tea.Cmd
		m.timer, cmd = m.timer.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// flash 显示一条几秒后消失的提示
func (m *OnlineModel) flash(text string) tea.Cmd {
	m.seq++
	m.notice = text
	seq := m.seq
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg { return clearNoticeMsg{seq: seq} })
}

// request 发送失败时把错误显示出来
func (m *OnlineModel) request(fn func() error) tea.Cmd {
	if err := fn(); err != nil {
		m.err = err.Error()
	}
	return nil
}

func (m *OnlineModel) setPhase(p GamePhase) {
	m.phase = p
	switch p {
	case PhaseLobby:
		m.input.Placeholder = lobbyPlaceholder
	case PhaseRoom:
		m.input.Placeholder = roomPlaceholder
	case PhasePlaying:
		m.input.Placeholder = gamePlaceholder
	case PhaseConcluded:
		m.input.Placeholder = afterPlaceholder
	}
}

// enterLobby 回到大厅并清掉房间状态
func (m *OnlineModel) enterLobby() tea.Cmd {
	m.room = nil
	m.state = nil
	m.lastDrawn = nil
	m.concluded = nil
	m.settlement = nil
	m.setPhase(PhaseLobby)
	return m.request(m.send.GetRoomList)
}

func (m *OnlineModel) roomID() string {
	if m.room != nil {
		return m.room.RoomID
	}
	if m.state != nil {
		return m.state.RoomID
	}
	return ""
}
