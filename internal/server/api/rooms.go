package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/palemoky/uno-arena/internal/protocol"
	"github.com/palemoky/uno-arena/internal/protocol/convert"
)

func (a *API) listRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, protocol.RoomListPayload{Rooms: convert.RoomsToInfos(a.rooms.ListRooms())})
}

func (a *API) getRoom(w http.ResponseWriter, r *http.Request) {
	info, err := a.rooms.GetRoom(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.RoomToInfo(info))
}

func (a *API) createRoom(w http.ResponseWriter, r *http.Request) {
	req, err := decode[protocol.CreateRoomPayload](r)
	if err != nil {
		writeCode(w, http.StatusBadRequest, protocol.ErrCodeInvalidMsg)
		return
	}
	info, err := a.rooms.CreateRoom(playerFrom(r.Context()).PlayerID, req.Capacity, req.EntryFee)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, convert.RoomToInfo(info))
}

func (a *API) joinRoom(w http.ResponseWriter, r *http.Request) {
	info, err := a.rooms.JoinRoom(chi.URLParam(r, "id"), playerFrom(r.Context()).PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.RoomToInfo(info))
}

func (a *API) startMatch(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if err := a.rooms.StartMatch(roomID, playerFrom(r.Context()).PlayerID); err != nil {
		writeError(w, err)
		return
	}
	a.writeRoom(w, roomID)
}

func (a *API) leaveRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if err := a.rooms.LeaveRoom(roomID, playerFrom(r.Context()).PlayerID); err != nil {
		writeError(w, err)
		return
	}
	// 最后一个人离开后房间已经解散
	info, err := a.rooms.GetRoom(roomID)
	if err != nil {
		writeJSON(w, http.StatusOK, protocol.RoomInfo{RoomID: roomID, Lifecycle: "cancelled"})
		return
	}
	writeJSON(w, http.StatusOK, convert.RoomToInfo(info))
}

func (a *API) writeRoom(w http.ResponseWriter, roomID string) {
	info, err := a.rooms.GetRoom(roomID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.RoomToInfo(info))
}
