package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/palemoky/uno-arena/internal/logger"
	"github.com/palemoky/uno-arena/internal/protocol"
)

type ctxKey struct{}

// identity 令牌里的玩家身份
type identity struct {
	PlayerID string
	Name     string
}

// authenticate 校验 Bearer 令牌并把身份放进 context
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeCode(w, http.StatusUnauthorized, protocol.ErrCodeUnauthorized)
			return
		}
		claims, err := a.tokens.Parse(token)
		if err != nil {
			writeCode(w, http.StatusUnauthorized, protocol.ErrCodeUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, identity{PlayerID: claims.Subject, Name: claims.Name})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func playerFrom(ctx context.Context) identity {
	id, _ := ctx.Value(ctxKey{}).(identity)
	return id
}

type sessionRequest struct {
	Name string `json:"name"`
}

// createSession 签发新玩家身份，REST 客户端不走 WebSocket 时用它拿令牌
func (a *API) createSession(w http.ResponseWriter, r *http.Request) {
	req, err := decode[sessionRequest](r)
	if err != nil {
		writeCode(w, http.StatusBadRequest, protocol.ErrCodeInvalidMsg)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "player"
	}

	playerID := uuid.NewString()
	token, err := a.tokens.Issue(playerID, name)
	if err != nil {
		writeError(w, err)
		return
	}
	logger.WithPlayer(playerID).Infof("🎫 REST 会话已签发: %s", name)
	writeJSON(w, http.StatusCreated, protocol.ConnectedPayload{
		PlayerID:       playerID,
		PlayerName:     name,
		ReconnectToken: token,
	})
}
