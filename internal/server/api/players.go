package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/palemoky/uno-arena/internal/protocol"
	"github.com/palemoky/uno-arena/internal/protocol/convert"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 50
	maxSettlementHistory    = 100
)

func (a *API) playerStats(w http.ResponseWriter, r *http.Request) {
	if a.stats == nil {
		http.Error(w, "leaderboard disabled", http.StatusNotFound)
		return
	}
	playerID := chi.URLParam(r, "id")
	stats, err := a.stats.GetPlayerStats(r.Context(), playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	if stats == nil {
		writeJSON(w, http.StatusOK, protocol.StatsResultPayload{PlayerID: playerID, Rank: -1})
		return
	}
	rank, _ := a.stats.GetPlayerRank(r.Context(), playerID)
	writeJSON(w, http.StatusOK, protocol.StatsResultPayload{
		PlayerID:      stats.PlayerID,
		TotalGames:    stats.TotalGames,
		Wins:          stats.Wins,
		Losses:        stats.Losses,
		WinRate:       stats.WinRate(),
		TotalWinnings: stats.TotalWinnings,
		Rank:          int(rank),
	})
}

func (a *API) leaderboard(w http.ResponseWriter, r *http.Request) {
	if a.stats == nil {
		http.Error(w, "leaderboard disabled", http.StatusNotFound)
		return
	}
	limit := queryInt(r, "limit", defaultLeaderboardLimit)
	if limit <= 0 || limit > maxLeaderboardLimit {
		limit = defaultLeaderboardLimit
	}
	offset := max(queryInt(r, "offset", 0), 0)

	entries, err := a.stats.GetLeaderboard(r.Context(), offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]protocol.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, protocol.LeaderboardEntry{
			Rank:          e.Rank,
			PlayerID:      e.PlayerID,
			TotalWinnings: e.TotalWinnings,
			Wins:          e.Wins,
			TotalGames:    e.TotalGames,
			WinRate:       e.WinRate,
		})
	}
	writeJSON(w, http.StatusOK, protocol.LeaderboardResultPayload{Entries: out})
}

// archivedSettlement 历史结算的传输格式
type archivedSettlement struct {
	RoomID      string   `json:"room_id"`
	Winner      string   `json:"winner"`
	Players     []string `json:"players"`
	EntryFee    int64    `json:"entry_fee"`
	Pool        int64    `json:"pool"`
	State       string   `json:"state"`
	TxRef       string   `json:"tx_ref,omitempty"`
	ClaimedBy   string   `json:"claimed_by,omitempty"`
	ClaimedAtMs int64    `json:"claimed_at_ms,omitempty"`
	PlatformFee int64    `json:"platform_fee"`
	WinnerShare int64    `json:"winner_share"`
	CreatedAtMs int64    `json:"created_at_ms"`
}

// playerSettlements 自己的历史结算（Postgres 归档）
func (a *API) playerSettlements(w http.ResponseWriter, r *http.Request) {
	if a.archive == nil {
		http.Error(w, "archive disabled", http.StatusNotFound)
		return
	}
	playerID := chi.URLParam(r, "id")
	if playerID != playerFrom(r.Context()).PlayerID {
		writeCode(w, http.StatusForbidden, protocol.ErrCodeNotAParticipant)
		return
	}

	limit := min(max(queryInt(r, "limit", 20), 1), maxSettlementHistory)
	rows, err := a.archive.ListByPlayer(r.Context(), playerID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]archivedSettlement, 0, len(rows))
	for _, row := range rows {
		var claimedAt time.Time
		if row.ClaimedAt != nil {
			claimedAt = *row.ClaimedAt
		}
		out = append(out, archivedSettlement{
			RoomID:      row.RoomID,
			Winner:      row.Winner,
			Players:     row.Players,
			EntryFee:    row.EntryFee,
			Pool:        row.Pool,
			State:       row.State,
			TxRef:       row.TxRef,
			ClaimedBy:   row.ClaimedBy,
			ClaimedAtMs: convert.UnixMs(claimedAt),
			PlatformFee: row.PlatformFee,
			WinnerShare: row.WinnerShare,
			CreatedAtMs: convert.UnixMs(row.CreatedAt),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlements": out})
}
