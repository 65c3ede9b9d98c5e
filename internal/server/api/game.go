package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/palemoky/uno-arena/internal/apperrors"
	"github.com/palemoky/uno-arena/internal/game/card"
	"github.com/palemoky/uno-arena/internal/protocol"
	"github.com/palemoky/uno-arena/internal/protocol/convert"
)

type playRequest struct {
	CardIndex   int    `json:"card_index"`
	ChosenColor string `json:"chosen_color,omitempty"`
}

// state 调用者视角的对局状态
func (a *API) state(w http.ResponseWriter, r *http.Request) {
	view, err := a.rooms.View(chi.URLParam(r, "id"), playerFrom(r.Context()).PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ViewToPayload(view))
}

// playCard 出牌，返回出牌后的视图
func (a *API) playCard(w http.ResponseWriter, r *http.Request) {
	req, err := decode[playRequest](r)
	if err != nil {
		writeCode(w, http.StatusBadRequest, protocol.ErrCodeInvalidMsg)
		return
	}

	var chosen *card.Color
	if req.ChosenColor != "" {
		c, err := card.ParseColor(req.ChosenColor)
		if err != nil || !c.Playable() {
			writeError(w, apperrors.ErrMissingColorChoice)
			return
		}
		chosen = &c
	}

	roomID := chi.URLParam(r, "id")
	playerID := playerFrom(r.Context()).PlayerID
	if _, err := a.rooms.PlayCard(roomID, playerID, req.CardIndex, chosen); err != nil {
		writeError(w, err)
		return
	}
	a.writeView(w, roomID, playerID)
}

type drawResponse struct {
	Card  protocol.CardInfo            `json:"card"`
	State protocol.StateChangedPayload `json:"state"`
}

// drawCard 摸牌，返回摸到的牌和最新视图
func (a *API) drawCard(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	playerID := playerFrom(r.Context()).PlayerID

	c, err := a.rooms.DrawCard(roomID, playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := a.rooms.View(roomID, playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, drawResponse{Card: convert.CardToInfo(c), State: convert.ViewToPayload(view)})
}

func (a *API) writeView(w http.ResponseWriter, roomID, playerID string) {
	view, err := a.rooms.View(roomID, playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ViewToPayload(view))
}
