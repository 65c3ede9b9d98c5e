package room

import (
	"slices"
	"time"

	"github.com/palemoky/uno-arena/internal/game/match"
	"github.com/palemoky/uno-arena/internal/game/settlement"
)

// Snapshot 房间的可序列化状态
type Snapshot struct {
	ID          string                 `json:"id"`
	Capacity    int                    `json:"capacity"`
	Stake       int64                  `json:"stake"`
	Members     []string               `json:"members"`
	Lifecycle   Lifecycle              `json:"lifecycle"`
	Creator     string                 `json:"creator"`
	CreatedAt   time.Time              `json:"created_at"`
	ConcludedAt time.Time              `json:"concluded_at,omitzero"`
	Match       *match.Snapshot        `json:"match,omitempty"`
	Settlement  *settlement.Settlement `json:"settlement,omitempty"`
	Seq         uint64                 `json:"seq"`
}

// snapshot 导出房间状态，调用方持有锁
func (r *Room) snapshot() Snapshot {
	snap := Snapshot{
		ID:          r.ID,
		Capacity:    r.Capacity,
		Stake:       r.Stake,
		Members:     slices.Clone(r.Members),
		Lifecycle:   r.Lifecycle,
		Creator:     r.Creator,
		CreatedAt:   r.CreatedAt,
		ConcludedAt: r.ConcludedAt,
		Seq:         r.seq,
	}
	if r.Match != nil {
		ms := r.Match.Snapshot()
		snap.Match = &ms
	}
	if r.Settlement != nil {
		s := r.Settlement.Clone()
		snap.Settlement = &s
	}
	return snap
}

// restoreRoom 从快照重建房间，返回 false 表示这个房间不值得恢复
func restoreRoom(snap Snapshot) (*Room, bool) {
	switch snap.Lifecycle {
	case LifecycleInProgress:
		if snap.Match == nil {
			return nil, false
		}
	case LifecycleConcluded:
		if snap.Settlement == nil || snap.Settlement.State == settlement.StateClaimed {
			return nil, false
		}
	default:
		return nil, false
	}

	r := &Room{
		ID:          snap.ID,
		Capacity:    snap.Capacity,
		Stake:       snap.Stake,
		Members:     slices.Clone(snap.Members),
		Lifecycle:   snap.Lifecycle,
		Creator:     snap.Creator,
		CreatedAt:   snap.CreatedAt,
		ConcludedAt: snap.ConcludedAt,
		seq:         snap.Seq,
		savedSeq:    snap.Seq,
	}
	if snap.Match != nil {
		r.Match = match.Restore(*snap.Match, nil)
	}
	if snap.Settlement != nil {
		s := snap.Settlement.Clone()
		// 重启前进行中的调用已经丢失
		s.InFlight = false
		r.Settlement = &s
	}
	return r, true
}
