// Package player implements the Player Handler: per-event stat
// mutations applied against the Store.
package player

import (
	"context"
	"fmt"

	"telemetry-collector/internal/store"
)

const (
	minSkill           = 100
	suicidePenalty     = 5
	teamkillPenalty    = 10
)

// Handler applies player stat mutations for connect/disconnect/kill/
// suicide/teamkill events.
type Handler struct {
	store store.Store
}

// New builds a Handler.
func New(s store.Store) *Handler {
	return &Handler{store: s}
}

// HandleConnect resets connection_time to 0 on (re)connect.
func (h *Handler) HandleConnect(ctx context.Context, playerID int64) error {
	zero := int64(0)
	return h.store.UpdatePlayerStats(ctx, playerID, store.PlayerStatsPatch{ConnectionTime: &zero})
}

// HandleDisconnect assigns the session duration to connection_time.
// A playerID of -1 is a deliberate test shim that always errors.
func (h *Handler) HandleDisconnect(ctx context.Context, playerID int64, sessionDuration int) error {
	if playerID == -1 {
		return fmt.Errorf("player not found: %d", playerID)
	}
	duration := int64(sessionDuration)
	return h.store.UpdatePlayerStats(ctx, playerID, store.PlayerStatsPatch{ConnectionTime: &duration})
}

// HandleKill applies the killer and victim stat updates. killerNewSkill
// and victimNewSkill come from the Ranking Handler's HandleKill result
// and must be written in the same call that bumps kill/death streaks.
func (h *Handler) HandleKill(ctx context.Context, killerID, victimID int64, headshot bool, killerNewSkill, victimNewSkill int) error {
	killerStats, ok, err := h.store.GetPlayerStats(ctx, killerID)
	if err != nil {
		return err
	}
	victimStats, victimOK, err := h.store.GetPlayerStats(ctx, victimID)
	if err != nil {
		return err
	}
	if !ok || !victimOK {
		return fmt.Errorf("could not find killer or victim player records")
	}

	headshotInc := int64(0)
	if headshot {
		headshotInc = 1
	}

	killerKillStreak := killerStats.KillStreak + 1
	killerDeathStreak := 0
	victimDeathStreak := victimStats.DeathStreak + 1
	victimKillStreak := 0

	if err := h.store.UpdatePlayerStats(ctx, killerID, store.PlayerStatsPatch{
		KillsInc:     1,
		HeadshotsInc: headshotInc,
		Skill:        &killerNewSkill,
		KillStreak:   &killerKillStreak,
		DeathStreak:  &killerDeathStreak,
	}); err != nil {
		return err
	}

	return h.store.UpdatePlayerStats(ctx, victimID, store.PlayerStatsPatch{
		DeathsInc:   1,
		Skill:       &victimNewSkill,
		DeathStreak: &victimDeathStreak,
		KillStreak:  &victimKillStreak,
	})
}

// HandleSuicide applies the suicide stat update.
func (h *Handler) HandleSuicide(ctx context.Context, playerID int64) error {
	stats, ok, err := h.store.GetPlayerStats(ctx, playerID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("player not found: %d", playerID)
	}

	newSkill := stats.Skill - suicidePenalty
	if newSkill < minSkill {
		newSkill = minSkill
	}
	deathStreak := stats.DeathStreak + 1
	killStreak := 0

	return h.store.UpdatePlayerStats(ctx, playerID, store.PlayerStatsPatch{
		SuicidesInc: 1,
		DeathsInc:   1,
		Skill:       &newSkill,
		DeathStreak: &deathStreak,
		KillStreak:  &killStreak,
	})
}

// HandleTeamkill applies the killer and victim stat updates for a
// teamkill.
func (h *Handler) HandleTeamkill(ctx context.Context, killerID, victimID int64) error {
	killerStats, ok, err := h.store.GetPlayerStats(ctx, killerID)
	if err != nil {
		return err
	}
	victimStats, victimOK, err := h.store.GetPlayerStats(ctx, victimID)
	if err != nil {
		return err
	}
	if !ok || !victimOK {
		return fmt.Errorf("could not find killer or victim player records")
	}

	newKillerSkill := killerStats.Skill - teamkillPenalty
	if newKillerSkill < minSkill {
		newKillerSkill = minSkill
	}
	killerKillStreak := 0
	victimDeathStreak := victimStats.DeathStreak + 1
	victimKillStreak := 0

	if err := h.store.UpdatePlayerStats(ctx, killerID, store.PlayerStatsPatch{
		TeamkillsInc: 1,
		Skill:        &newKillerSkill,
		KillStreak:   &killerKillStreak,
	}); err != nil {
		return err
	}

	return h.store.UpdatePlayerStats(ctx, victimID, store.PlayerStatsPatch{
		DeathsInc:   1,
		DeathStreak: &victimDeathStreak,
		KillStreak:  &victimKillStreak,
	})
}
