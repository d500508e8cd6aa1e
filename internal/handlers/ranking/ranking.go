// Package ranking implements the ELO-style rating update. It is
// stateless beyond the Store and Weapon Catalog it reads through.
package ranking

import (
	"context"
	"fmt"
	"math"

	"telemetry-collector/internal/store"
)

const (
	baseK           = 32.0
	minRating       = 100
	maxRating       = 3000
	headshotBonus   = 1.2
	killDeltaCap    = 50
	victimDeltaFloor = -40
	cleanRoundBonus = 15
)

// WeaponCatalog is the narrow subset of weaponcatalog.Catalog the
// handler consults.
type WeaponCatalog interface {
	SkillMultiplier(ctx context.Context, game, weapon string) (float64, error)
}

// RatingChange describes one player's rating movement from a single
// update.
type RatingChange struct {
	PlayerID  int64
	OldRating int
	NewRating int
	Change    int
	Reason    string
}

// Handler computes rating changes from Player + Weapon Catalog state.
type Handler struct {
	store   store.Store
	catalog WeaponCatalog
}

// New builds a Handler.
func New(s store.Store, catalog WeaponCatalog) *Handler {
	return &Handler{store: s, catalog: catalog}
}

// CalculateExpectedScore is the standard ELO expected-score formula,
// exposed for tests.
func CalculateExpectedScore(ra, rb int) float64 {
	return 1 / (1 + math.Pow(10, float64(rb-ra)/400))
}

// UpdatePlayerRating applies one generic rating update, exposed for
// tests.
func UpdatePlayerRating(prev int, actual, expected float64, kAdj float64) int {
	return clampRating(prev + int(math.Round(kAdj*(actual-expected))))
}

func clampRating(r int) int {
	if r < minRating {
		return minRating
	}
	if r > maxRating {
		return maxRating
	}
	return r
}

// kFactor adjusts the base K for a player's experience band.
func kFactor(gamesPlayed, rating int) float64 {
	switch {
	case gamesPlayed < 10:
		return baseK * 1.5
	case gamesPlayed < 50:
		return baseK * 1.2
	case rating > 2000:
		return baseK * 0.8
	default:
		return baseK
	}
}

// HandleKill computes the killer and victim rating changes for a
// PLAYER_KILL event. The Processor serializes this
// call with the Player Handler's write of the resulting skills.
func (h *Handler) HandleKill(ctx context.Context, killerID, victimID int64, game, weapon string, headshot bool) (RatingChange, RatingChange, error) {
	killerStats, _, err := h.store.GetPlayerStats(ctx, killerID)
	if err != nil {
		return RatingChange{}, RatingChange{}, err
	}
	victimStats, _, err := h.store.GetPlayerStats(ctx, victimID)
	if err != nil {
		return RatingChange{}, RatingChange{}, err
	}

	killerRating := defaultIfZero(killerStats.Skill)
	victimRating := defaultIfZero(victimStats.Skill)

	expected := CalculateExpectedScore(killerRating, victimRating)

	kKiller := kFactor(killerStats.GamesPlayed, killerRating)
	kVictim := kFactor(victimStats.GamesPlayed, victimRating)

	weaponMult, err := h.catalog.SkillMultiplier(ctx, game, weapon)
	if err != nil {
		return RatingChange{}, RatingChange{}, err
	}

	bonus := 1.0
	if headshot {
		bonus = headshotBonus
	}

	killerDelta := int(math.Round(kKiller * (1 - expected) * weaponMult * bonus))
	if killerDelta > killDeltaCap {
		killerDelta = killDeltaCap
	}

	victimDelta := int(math.Round(kVictim * (0 - (1 - expected)) * 0.8))
	if victimDelta < victimDeltaFloor {
		victimDelta = victimDeltaFloor
	}

	reason := fmt.Sprintf("kill with %s", weapon)
	if headshot {
		reason += " (headshot)"
	}

	killerChange := RatingChange{
		PlayerID:  killerID,
		OldRating: killerRating,
		NewRating: clampRating(killerRating + killerDelta),
		Reason:    reason,
	}
	killerChange.Change = killerChange.NewRating - killerChange.OldRating

	victimChange := RatingChange{
		PlayerID:  victimID,
		OldRating: victimRating,
		NewRating: clampRating(victimRating + victimDelta),
		Reason:    reason,
	}
	victimChange.Change = victimChange.NewRating - victimChange.OldRating

	return killerChange, victimChange, nil
}

// HandleRoundEnd applies a small participation bonus to the winning
// team's participants. winningTeamParticipants is the set of player
// ids the Processor/Match Handler identified as active in the round;
// an empty set is not an error.
func (h *Handler) HandleRoundEnd(ctx context.Context, winningTeamParticipants []int64) ([]RatingChange, error) {
	changes := make([]RatingChange, 0, len(winningTeamParticipants))
	for _, playerID := range winningTeamParticipants {
		stats, ok, err := h.store.GetPlayerStats(ctx, playerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		oldRating := defaultIfZero(stats.Skill)
		newRating := clampRating(oldRating + cleanRoundBonus)

		if err := h.store.UpdatePlayerStats(ctx, playerID, store.PlayerStatsPatch{Skill: &newRating}); err != nil {
			return nil, err
		}

		changes = append(changes, RatingChange{
			PlayerID:  playerID,
			OldRating: oldRating,
			NewRating: newRating,
			Change:    newRating - oldRating,
			Reason:    "clean round",
		})
	}
	return changes, nil
}

func defaultIfZero(rating int) int {
	if rating == 0 {
		return 1000
	}
	return rating
}
