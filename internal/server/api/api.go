// Package api REST 接口，和 WebSocket 共用房间和结算服务。
// 写操作需要 Authorization: Bearer <token>，令牌和 WebSocket 的重连令牌是同一种。
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/palemoky/uno-arena/internal/apperrors"
	"github.com/palemoky/uno-arena/internal/logger"
	"github.com/palemoky/uno-arena/internal/protocol"
	"github.com/palemoky/uno-arena/internal/server/session"
	"github.com/palemoky/uno-arena/internal/types"
)

// Deps 依赖项，Stats 和 Archive 可以为空
type Deps struct {
	Rooms       types.RoomService
	Settlements types.SettlementService
	Tokens      *session.TokenIssuer
	Stats       types.StatsService
	Archive     types.ArchiveService
}

// API REST 处理器
type API struct {
	rooms       types.RoomService
	settlements types.SettlementService
	tokens      *session.TokenIssuer
	stats       types.StatsService
	archive     types.ArchiveService
}

// New 创建 API
func New(deps Deps) *API {
	return &API{
		rooms:       deps.Rooms,
		settlements: deps.Settlements,
		tokens:      deps.Tokens,
		stats:       deps.Stats,
		archive:     deps.Archive,
	}
}

// Routes 注册到 /api 下
func (a *API) Routes(r chi.Router) {
	r.Post("/session", a.createSession)

	r.Get("/rooms", a.listRooms)
	r.Get("/rooms/{id}", a.getRoom)
	r.Get("/leaderboard", a.leaderboard)
	r.Get("/players/{id}/stats", a.playerStats)

	r.Group(func(r chi.Router) {
		r.Use(a.authenticate)

		r.Post("/rooms", a.createRoom)
		r.Post("/rooms/{id}/join", a.joinRoom)
		r.Post("/rooms/{id}/start", a.startMatch)
		r.Post("/rooms/{id}/leave", a.leaveRoom)
		r.Post("/rooms/{id}/claim", a.claimPrize)
		r.Post("/rooms/{id}/retry", a.retryFinalize)
		r.Get("/rooms/{id}/state", a.state)
		r.Get("/rooms/{id}/settlement", a.getSettlement)

		r.Get("/game/{id}/state", a.state)
		r.Post("/game/{id}/play", a.playCard)
		r.Post("/game/{id}/draw", a.drawCard)

		r.Get("/players/{id}/settlements", a.playerSettlements)
	})
}

// 错误码 -> HTTP 状态，没列出的按错误类别处理
var codeStatus = map[int]int{
	protocol.ErrCodeRoomNotFound:       http.StatusNotFound,
	protocol.ErrCodeSettlementNotFound: http.StatusNotFound,
	protocol.ErrCodeNotInRoom:          http.StatusForbidden,
	protocol.ErrCodeNotAParticipant:    http.StatusForbidden,
	protocol.ErrCodeNotWinner:          http.StatusForbidden,
	protocol.ErrCodeRoomFull:           http.StatusConflict,
	protocol.ErrCodeMatchStarted:       http.StatusConflict,
	protocol.ErrCodeMatchNotStarted:    http.StatusConflict,
	protocol.ErrCodeMatchConcluded:     http.StatusConflict,
	protocol.ErrCodeNotFinalized:       http.StatusConflict,
	protocol.ErrCodeAlreadyClaimed:     http.StatusConflict,
	protocol.ErrCodeRetryNotAllowed:    http.StatusConflict,
	protocol.ErrCodeServerMaintenance:  http.StatusServiceUnavailable,
}

var kindStatus = map[apperrors.Kind]int{
	apperrors.KindValidation: http.StatusUnprocessableEntity,
	apperrors.KindResource:   http.StatusConflict,
	apperrors.KindSettlement: http.StatusConflict,
	apperrors.KindRoom:       http.StatusBadRequest,
	apperrors.KindLedger:     http.StatusServiceUnavailable,
}

// StatusOf 业务错误对应的 HTTP 状态
func StatusOf(err error) int {
	var gameErr *apperrors.GameError
	if !errors.As(err, &gameErr) {
		return http.StatusInternalServerError
	}
	if status, ok := codeStatus[gameErr.Code]; ok {
		return status
	}
	if status, ok := kindStatus[gameErr.Kind]; ok {
		return status
	}
	return http.StatusBadRequest
}

// errorBody 错误响应
type errorBody struct {
	Error protocol.ErrorPayload `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().WithError(err).Warn("写入响应失败")
	}
}

func writeError(w http.ResponseWriter, err error) {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		writeJSON(w, StatusOf(err), errorBody{Error: protocol.ErrorPayload{Code: gameErr.Code, Message: gameErr.Message}})
		return
	}
	logger.L().WithError(err).Error("REST 请求失败")
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: protocol.ErrorPayload{
		Code:    protocol.ErrCodeUnknown,
		Message: protocol.ErrorMessages[protocol.ErrCodeUnknown],
	}})
}

func writeCode(w http.ResponseWriter, status, code int) {
	writeJSON(w, status, errorBody{Error: protocol.ErrorPayload{Code: code, Message: protocol.ErrorMessages[code]}})
}

// decode 读取请求体，空请求体视为零值
func decode[T any](r *http.Request) (*T, error) {
	var v T
	if r.Body == nil || r.ContentLength == 0 {
		return &v, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// queryInt 读取整数查询参数
func queryInt(r *http.Request, key string, def int) int {
	if s := r.URL.Query().Get(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}
