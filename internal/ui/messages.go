package ui

import "github.com/palemoky/uno-arena/internal/protocol"

// GamePhase 界面阶段
type GamePhase int

const (
	PhaseConnecting GamePhase = iota
	PhaseLobby
	PhaseRoom       // 房间里等人
	PhasePlaying    // 对局中
	PhaseConcluded  // 对局结束，等结算/领奖
	PhaseDisconnect // 连接已断开
)

// --- tea.Msg ---

type ConnectedMsg struct{}

type ConnectionErrorMsg struct{ Err error }

type ServerMessage struct{ Msg *protocol.Message }

type ReconnectingMsg struct {
	Attempt  int
	MaxTries int
}

type ReconnectSuccessMsg struct{}

type clearNoticeMsg struct{ seq int }
