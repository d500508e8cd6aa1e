// Package weapon implements the Weapon Handler: per-kill weapon usage
// aggregation backed by the Weapon Catalog for damage/accuracy context.
package weapon

import (
	"context"

	"telemetry-collector/internal/store"
)

// Catalog is the narrow subset of weaponcatalog.Catalog the handler
// consults for damage context.
type Catalog interface {
	DamageMultiplier(weapon string, headshot bool) float64
}

// Result reports which weapons were affected by a handled event.
type Result struct {
	Success        bool
	WeaponsAffected []string
}

// Handler records weapon usage against the Store.
type Handler struct {
	store   store.Store
	catalog Catalog
}

// New builds a Handler.
func New(s store.Store, catalog Catalog) *Handler {
	return &Handler{store: s, catalog: catalog}
}

// HandleKill rolls a kill into the (game, weapon) usage aggregate —
// kills, headshots, and the catalog's damage multiplier for this kill
// — and credits the killer's shot/hit counters. The catalog's damage
// multiplier is computed here and carried into that aggregate rather
// than discarded.
func (h *Handler) HandleKill(ctx context.Context, game, weaponName string, killerID int64, headshot bool) (Result, error) {
	damageMultiplier := h.catalog.DamageMultiplier(weaponName, headshot)

	if err := h.store.RecordWeaponUsage(ctx, game, weaponName, headshot, damageMultiplier); err != nil {
		return Result{}, err
	}

	if err := h.store.UpdatePlayerStats(ctx, killerID, store.PlayerStatsPatch{ShotsInc: 1, HitsInc: 1}); err != nil {
		return Result{}, err
	}

	return Result{Success: true, WeaponsAffected: []string{weaponName}}, nil
}
