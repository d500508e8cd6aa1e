// Package weaponcatalog implements the per-game weapon attribute
// lookup: an in-memory, read-mostly cache in front of a Store override
// and a built-in fallback table. The locked-map-with-clear-ownership
// shape is the same one used for the other per-server state in this
// collector: a map guarded by its own mutex, owned by exactly one
// component.
package weaponcatalog

import (
	"context"
	"strings"
	"sync"

	"telemetry-collector/internal/collectorerr"
)

// Store is the narrow subset of store.Store the catalog consults on a
// cache miss. Any store.Store satisfies it structurally.
type Store interface {
	WeaponModifier(ctx context.Context, game, weapon string) (multiplier float64, ok bool, err error)
}

type weaponAttrs struct {
	baseDamage       float64
	skillMultiplier  float64
}

// gameAliases maps known aliases to the game code the built-in table
// is keyed by. Game aliases are resolved before any lookup.
var gameAliases = map[string]string{
	"cstrike": "cs",
	"cs":      "cs",
	"csgo":    "cs",
	"cs2":     "cs",
	"cs16":    "cs",
	"czero":   "cs",
}

// builtinCS is the one CS weapon-skill table the implementation picks
// as its default, configurable via a Store override rather than
// hard-coded per deployment.
var builtinCS = map[string]weaponAttrs{
	"ak47":           {36, 1.1},
	"m4a4":           {33, 1.0},
	"m4a1":           {33, 1.0},
	"m4a1_silencer":  {33, 1.0},
	"awp":            {115, 1.3},
	"ssg08":          {88, 1.2},
	"aug":            {33, 1.0},
	"famas":          {33, 1.0},
	"galil":          {33, 1.0},
	"deagle":         {53, 1.2},
	"glock":          {28, 0.9},
	"usp":            {35, 0.9},
	"ump45":          {35, 0.8},
	"mp5":            {26, 0.8},
	"p90":            {26, 0.8},
	"knife":          {42, 2.0},
	"grenade":        {140, 1.1},
	"unknown":        {30, 1.0},
}

const defaultBaseDamage = 20.0
const defaultMultiplier = 1.0
const headshotDamageFactor = 4.0

// Catalog resolves weapon attributes with Store override, built-in
// fallback, and in-memory memoization.
type Catalog struct {
	store Store

	mu    sync.RWMutex
	cache map[string]float64 // "canonicalGame:weapon" -> skill multiplier

	builtin map[string]map[string]weaponAttrs // canonical game -> weapon -> attrs
}

// New creates a Catalog backed by store for override lookups. store
// may be nil, in which case every lookup falls through to the
// built-in table.
func New(store Store) *Catalog {
	return &Catalog{
		store: store,
		cache: make(map[string]float64),
		builtin: map[string]map[string]weaponAttrs{
			"cs": builtinCS,
		},
	}
}

func canonicalGame(game string) string {
	g := strings.ToLower(strings.TrimSpace(game))
	if canon, ok := gameAliases[g]; ok {
		return canon
	}
	return g
}

func cacheKey(canonGame, weapon string) string {
	return canonGame + ":" + strings.ToLower(strings.TrimSpace(weapon))
}

// SkillMultiplier returns the skill multiplier for weapon in game,
// lower-cased for matching. Lookup order: in-memory cache, Store
// override, built-in table for the canonical game, finally 1.0.
func (c *Catalog) SkillMultiplier(ctx context.Context, game, weapon string) (float64, error) {
	canon := canonicalGame(game)
	key := cacheKey(canon, weapon)

	c.mu.RLock()
	if mult, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return mult, nil
	}
	c.mu.RUnlock()

	mult := defaultMultiplier
	lowerWeapon := strings.ToLower(strings.TrimSpace(weapon))

	if c.store != nil {
		stored, ok, err := c.store.WeaponModifier(ctx, canon, lowerWeapon)
		if err != nil {
			return 0, collectorerr.Store("weapon modifier lookup", err)
		}
		if ok {
			mult = stored
		} else if attrs, ok := c.builtinLookup(canon, lowerWeapon); ok {
			mult = attrs.skillMultiplier
		}
	} else if attrs, ok := c.builtinLookup(canon, lowerWeapon); ok {
		mult = attrs.skillMultiplier
	}

	c.mu.Lock()
	c.cache[key] = mult
	c.mu.Unlock()

	return mult, nil
}

func (c *Catalog) builtinLookup(canonGame, lowerWeapon string) (weaponAttrs, bool) {
	table, ok := c.builtin[canonGame]
	if !ok {
		return weaponAttrs{}, false
	}
	attrs, ok := table[lowerWeapon]
	return attrs, ok
}

// DamageMultiplier returns baseDamage(weapon) * (4.0 if headshot else
// 1.0). It does not consult the Store: base damages come from the
// built-in table only, falling back to 20 (or the dedicated 30 for
// the literal weapon name "unknown").
func (c *Catalog) DamageMultiplier(weapon string, headshot bool) float64 {
	lowerWeapon := strings.ToLower(strings.TrimSpace(weapon))

	base := defaultBaseDamage
	for _, table := range c.builtin {
		if attrs, ok := table[lowerWeapon]; ok {
			base = attrs.baseDamage
			break
		}
	}

	if headshot {
		return base * headshotDamageFactor
	}
	return base
}

// Clear empties the memoization cache (test/ops control).
func (c *Catalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]float64)
}

// Size returns the number of memoized (game, weapon) entries.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
