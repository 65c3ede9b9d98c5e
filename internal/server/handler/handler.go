package handler

import (
	"context"
	"errors"
	"time"

	"github.com/palemoky/uno-arena/internal/apperrors"
	"github.com/palemoky/uno-arena/internal/hub"
	"github.com/palemoky/uno-arena/internal/logger"
	"github.com/palemoky/uno-arena/internal/protocol"
	"github.com/palemoky/uno-arena/internal/server/session"
	"github.com/palemoky/uno-arena/internal/types"
)

// 账本相关请求的超时
const requestTimeout = 10 * time.Second

// HandlerDeps 处理器依赖，Stats 可以为空
type HandlerDeps struct {
	Server      types.ServerInterface
	Rooms       types.RoomService
	Settlements types.SettlementService
	Stats       types.StatsService
	Hub         *hub.Hub
	Sessions    *session.SessionManager
}

// Handler 消息处理器
type Handler struct {
	server      types.ServerInterface
	rooms       types.RoomService
	settlements types.SettlementService
	stats       types.StatsService
	hub         *hub.Hub
	sessions    *session.SessionManager
	handlers    map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server:      deps.Server,
		rooms:       deps.Rooms,
		settlements: deps.Settlements,
		stats:       deps.Stats,
		hub:         deps.Hub,
		sessions:    deps.Sessions,
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing:      h.handlePing,
		protocol.MsgReconnect: h.handleReconnect,

		// 房间操作
		protocol.MsgCreateRoom:  h.handleCreateRoom,
		protocol.MsgJoinRoom:    h.handleJoinRoom,
		protocol.MsgLeaveRoom:   h.handleLeaveRoom,
		protocol.MsgStartMatch:  h.handleStartMatch,
		protocol.MsgSubscribe:   h.handleSubscribe,
		protocol.MsgGetRoomList: func(c types.ClientInterface, _ *protocol.Message) { h.handleGetRoomList(c) },

		// 游戏操作
		protocol.MsgPlayCard:     h.handlePlayCard,
		protocol.MsgDrawCard:     h.handleDrawCard,
		protocol.MsgRequestState: h.handleRequestState,

		// 结算
		protocol.MsgClaimPrize:    h.handleClaimPrize,
		protocol.MsgRetrySettle:   h.handleRetryFinalize,
		protocol.MsgGetSettlement: h.handleGetSettlement,

		// 信息查询
		protocol.MsgGetStats:       h.handleGetStats,
		protocol.MsgGetLeaderboard: h.handleGetLeaderboard,
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	logger.WithPlayer(client.GetID()).Warnf("⚠️ 未知消息类型: '%s' (Payload长度=%d bytes)", msg.Type, len(msg.Payload))
	client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}

// sendError 业务错误带着错误码原样返回，其他错误只记日志
func (h *Handler) sendError(client types.ClientInterface, err error) {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		client.SendMessage(protocol.NewErrorMessageWithText(gameErr.Code, gameErr.Message))
		return
	}
	logger.WithPlayer(client.GetID()).WithError(err).Error("处理请求失败")
	client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeUnknown))
}

// roomFor 请求里没带房间号时，用会话记录的房间
func (h *Handler) roomFor(client types.ClientInterface, roomID string) string {
	if roomID != "" {
		return roomID
	}
	if s := h.sessions.GetSession(client.GetID()); s != nil {
		return s.Snapshot().RoomID
	}
	return ""
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}
