// Package store defines the narrow persistence contract the core
// consumes. The relational schema and its driver are an external
// collaborator; this package only states the interface and the value
// types that cross it. See internal/store/pbstore for a concrete
// PocketBase-backed adapter.
package store

import (
	"context"

	"telemetry-collector/internal/eventmodel"
)

// PlayerStats is the persisted view of a Player row.
type PlayerStats struct {
	PlayerID        int64
	DisplayName     string
	Game            string
	Skill           int
	Kills           int64
	Deaths          int64
	Suicides        int64
	Teamkills       int64
	Headshots       int64
	Shots           int64
	Hits            int64
	ConnectionTime  int64
	KillStreak      int
	DeathStreak     int
	GamesPlayed     int
	LastEvent       int64 // unix epoch seconds
	LastSkillChange int64 // unix epoch seconds
}

// PlayerStatsPatch describes a partial update to a player's stats.
// The *Inc fields are increments; the pointer fields are assignments:
// skill, kill_streak, death_streak, connection_time, last_event, and
// last_skill_change are always set rather than accumulated.
type PlayerStatsPatch struct {
	KillsInc     int64
	DeathsInc    int64
	SuicidesInc  int64
	TeamkillsInc int64
	HeadshotsInc int64
	ShotsInc     int64
	HitsInc      int64

	Skill           *int
	KillStreak      *int
	DeathStreak     *int
	ConnectionTime  *int64
	LastEvent       *int64
	LastSkillChange *int64

	GamesPlayedInc int64
}

// IsZero reports whether the patch has no effect at all.
func (p PlayerStatsPatch) IsZero() bool {
	return p == PlayerStatsPatch{}
}

// Store is the set of operations the core components (Processor,
// Player/Weapon/Match/Ranking handlers, Weapon Catalog) are allowed to
// perform against the relational backing store. All operations may
// fail with a transient I/O error, which propagates as a
// collectorerr.Store-wrapped error.
type Store interface {
	// GetServerByAddress resolves a UDP source to a registered server.
	// ok is false if no server is registered at (ip, port).
	GetServerByAddress(ctx context.Context, ip string, port int) (serverID int64, game string, ok bool, err error)

	// AutoRegisterDevServer creates a Server row for (ip, port) in
	// skip-auth/dev mode. Implementations must tolerate a concurrent
	// unique-constraint race by re-reading the row that won.
	AutoRegisterDevServer(ctx context.Context, ip string, port int, game string) (serverID int64, err error)

	// GetOrCreatePlayer upserts the (uniqueID, game) -> player binding
	// and returns the player id. uniqueID must already be the
	// synthetic BOT_ form for bot identities.
	GetOrCreatePlayer(ctx context.Context, uniqueID, playerName, game string) (playerID int64, err error)

	// GetPlayerStats returns the persisted stats for playerID. ok is
	// false if the player does not exist.
	GetPlayerStats(ctx context.Context, playerID int64) (stats PlayerStats, ok bool, err error)

	// UpdatePlayerStats applies patch to playerID's row.
	UpdatePlayerStats(ctx context.Context, playerID int64, patch PlayerStatsPatch) error

	// CreateGameEvent persists the raw/structured event into the
	// per-type table named by event.Type.
	CreateGameEvent(ctx context.Context, event *eventmodel.GameEvent) error

	// WeaponModifier looks up a stored override for (game, weapon). ok
	// is false if no override exists.
	WeaponModifier(ctx context.Context, game, weapon string) (multiplier float64, ok bool, err error)

	// SetWeaponModifier upserts a (game, weapon) override, used to seed
	// the weapon_modifiers table from the optional overrides file at
	// startup.
	SetWeaponModifier(ctx context.Context, game, weapon string, multiplier float64) error

	// RecordWeaponUsage upserts the per-(game, weapon) usage aggregate:
	// kills and headshots counters plus the damage multiplier the
	// Weapon Catalog returned for the triggering kill.
	RecordWeaponUsage(ctx context.Context, game, weapon string, headshot bool, damageMultiplier float64) error

	// Transaction runs fn against a Store bound to a single atomic
	// unit of work. Nested transactions are not supported: fn must not
	// call Transaction again on the Store it is given.
	Transaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
