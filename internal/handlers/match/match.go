// Package match implements the Match Handler: an in-memory per-server
// MatchStats map mutated only by this handler, following the same
// locked-map-with-single-owner shape used elsewhere in this collector.
// One handler-wide mutex guards the whole map, so updates for different
// servers are serialized with each other; there is no per-server lock.
package match

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"telemetry-collector/internal/eventmodel"
	"telemetry-collector/internal/store"
)

// Stats is the transient per-server match aggregate.
type Stats struct {
	CurrentMap   string
	TotalRounds  int
	Duration     int
	TeamScores   map[string]int
	participants map[string]map[int64]struct{} // team -> player ids seen this round
}

// Handler owns the serverId -> Stats map.
type Handler struct {
	store store.Store

	mu    sync.Mutex
	stats map[int64]*Stats
}

// New builds a Handler.
func New(s store.Store) *Handler {
	return &Handler{store: s, stats: make(map[int64]*Stats)}
}

// HandleRoundStart creates a fresh Stats entry if absent; otherwise a
// no-op.
func (h *Handler) HandleRoundStart(ctx context.Context, serverID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.stats[serverID]; ok {
		return nil
	}
	h.stats[serverID] = &Stats{
		TeamScores:   make(map[string]int),
		participants: make(map[string]map[int64]struct{}),
	}
	return nil
}

// RecordParticipant notes that playerID was seen on team during the
// current round for serverID, so HandleRoundEnd can report the
// winning team's participants to the Ranking Handler's clean-round
// bonus. A missing Stats entry (no ROUND_START seen yet) is a no-op.
func (h *Handler) RecordParticipant(serverID int64, team string, playerID int64) {
	if team == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	stats, ok := h.stats[serverID]
	if !ok {
		return
	}
	if stats.participants[team] == nil {
		stats.participants[team] = make(map[int64]struct{})
	}
	stats.participants[team][playerID] = struct{}{}
}

// HandleRoundEnd accumulates round totals and returns the winning
// team's participants for this round, then clears the per-round
// participant set. A missing Stats entry is treated as a no-op
// success.
func (h *Handler) HandleRoundEnd(ctx context.Context, serverID int64, winningTeam string, duration int) ([]int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats, ok := h.stats[serverID]
	if !ok {
		return nil, nil
	}

	stats.TotalRounds++
	stats.Duration += duration

	var participants []int64
	if winningTeam != "" {
		stats.TeamScores[winningTeam]++
		for playerID := range stats.participants[winningTeam] {
			participants = append(participants, playerID)
		}
	}
	stats.participants = make(map[string]map[int64]struct{})

	return participants, nil
}

// HandleMapChange finalizes and discards the Stats entry for serverID
// if one exists and previousMap is known.
func (h *Handler) HandleMapChange(ctx context.Context, serverID int64, previousMap, newMap string) error {
	h.mu.Lock()
	stats, ok := h.stats[serverID]
	if ok && previousMap != "" {
		delete(h.stats, serverID)
	}
	h.mu.Unlock()

	if !ok || previousMap == "" {
		return nil
	}

	return h.persistSummary(ctx, serverID, previousMap, stats)
}

// HandleServerShutdown finalizes and discards any in-flight Stats for
// serverID: a MatchStats is persisted at shutdown rather than silently
// dropped.
func (h *Handler) HandleServerShutdown(ctx context.Context, serverID int64) error {
	h.mu.Lock()
	stats, ok := h.stats[serverID]
	if ok {
		delete(h.stats, serverID)
	}
	h.mu.Unlock()

	if !ok {
		return nil
	}
	return h.persistSummary(ctx, serverID, stats.CurrentMap, stats)
}

// persistSummary writes a MAP_CHANGE-shaped GameEvent for the finalized
// match, since there is no dedicated match-summary table. The record
// holds only mapName (as PreviousMap); the Stats totals (rounds,
// duration, team scores) are not written. Nothing assigns
// Stats.CurrentMap, so a summary written at server shutdown carries an
// empty map name.
func (h *Handler) persistSummary(ctx context.Context, serverID int64, mapName string, stats *Stats) error {
	event := &eventmodel.GameEvent{
		ID:        uuid.NewString(),
		Type:      eventmodel.MapChange,
		Timestamp: time.Now(),
		ServerID:  serverID,
		Data: eventmodel.MapChangeData{
			PreviousMap: mapName,
			NewMap:      "",
			PlayerCount: 0,
		},
	}
	return h.store.CreateGameEvent(ctx, event)
}
