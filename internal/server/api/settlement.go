package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/palemoky/uno-arena/internal/apperrors"
	"github.com/palemoky/uno-arena/internal/game/settlement"
	"github.com/palemoky/uno-arena/internal/protocol/convert"
)

// claimPrize 领奖，返回结算明细
func (a *API) claimPrize(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	payout, err := a.settlements.ClaimPrize(r.Context(), roomID, playerFrom(r.Context()).PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}
	s, err := a.settlements.Get(roomID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.SettlementToPayload(s, &payout))
}

// retryFinalize 账本确认超时后手动重试
func (a *API) retryFinalize(w http.ResponseWriter, r *http.Request) {
	s, err := a.settlements.RetryFinalize(r.Context(), chi.URLParam(r, "id"), playerFrom(r.Context()).PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}
	a.writeSettlement(w, s)
}

// getSettlement 结算状态，只对参与者开放
func (a *API) getSettlement(w http.ResponseWriter, r *http.Request) {
	s, err := a.settlements.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !s.HasPlayer(playerFrom(r.Context()).PlayerID) {
		writeError(w, apperrors.ErrNotAParticipant)
		return
	}
	a.writeSettlement(w, s)
}

func (a *API) writeSettlement(w http.ResponseWriter, s settlement.Settlement) {
	var payout *settlement.Payout
	if s.LedgerFinalized {
		p := a.settlements.Payout(s)
		payout = &p
	}
	writeJSON(w, http.StatusOK, convert.SettlementToPayload(s, payout))
}
