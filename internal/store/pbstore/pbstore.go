// Package pbstore is the PocketBase-backed implementation of
// store.Store: server lookup and dev auto-registration
// (GetServerByAddress, AutoRegisterDevServer), the GetOrCreatePlayer
// upsert, and per-table event writers over the collections the
// relational schema needs: servers, players, player_unique_ids,
// events_connect, events_disconnect, events_frag, events_chat,
// game_events (residual, for event types with no typed table),
// weapon_modifiers, weapon_usage.
package pbstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pocketbase/pocketbase/core"

	"telemetry-collector/internal/collectorerr"
	"telemetry-collector/internal/eventmodel"
	"telemetry-collector/internal/store"
)

// Store adapts a PocketBase core.App to the store.Store contract.
type Store struct {
	app core.App
}

// New wraps app as a store.Store.
func New(app core.App) *Store {
	return &Store{app: app}
}

func (s *Store) GetServerByAddress(ctx context.Context, ip string, port int) (int64, string, bool, error) {
	record, err := s.app.FindFirstRecordByFilter(
		"servers",
		"address = {:address} && port = {:port}",
		map[string]any{"address": ip, "port": port},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", false, nil
		}
		return 0, "", false, collectorerr.Store("server lookup failed", err)
	}
	return recordSeq(record), record.GetString("game"), true, nil
}

func (s *Store) AutoRegisterDevServer(ctx context.Context, ip string, port int, game string) (int64, error) {
	record, err := s.app.FindFirstRecordByFilter(
		"servers",
		"address = {:address} && port = {:port}",
		map[string]any{"address": ip, "port": port},
	)
	if err == nil {
		return recordSeq(record), nil
	}

	collection, err := s.app.FindCollectionByNameOrId("servers")
	if err != nil {
		return 0, collectorerr.Store("servers collection missing", err)
	}

	seq, err := nextSeq(s.app, "servers")
	if err != nil {
		return 0, collectorerr.Store("failed to allocate server id", err)
	}

	record = core.NewRecord(collection)
	record.Set("seq", seq)
	record.Set("address", ip)
	record.Set("port", port)
	record.Set("game", game)
	record.Set("enabled", true)
	record.Set("dev_registered", true)

	if err := s.app.Save(record); err != nil {
		// Lost the create race to a concurrent source; re-read the winner.
		existing, findErr := s.app.FindFirstRecordByFilter(
			"servers",
			"address = {:address} && port = {:port}",
			map[string]any{"address": ip, "port": port},
		)
		if findErr != nil {
			return 0, collectorerr.Store("failed to register dev server", err)
		}
		return recordSeq(existing), nil
	}

	return recordSeq(record), nil
}

// GetOrCreatePlayer resolves (uniqueID, game) through the
// player_unique_ids binding collection rather than through the
// players row itself, so a player can be addressed by more than one
// unique id without a schema change: a second binding row pointing at
// an existing player seq is all a future merge operation needs.
func (s *Store) GetOrCreatePlayer(ctx context.Context, uniqueID, playerName, game string) (int64, error) {
	binding, err := s.app.FindFirstRecordByFilter(
		"player_unique_ids",
		"unique_id = {:uniqueID} && game = {:game}",
		map[string]any{"uniqueID": uniqueID, "game": game},
	)
	if err == nil {
		playerSeq := int64(binding.GetInt("player"))
		if playerName != "" {
			if err := s.renamePlayer(playerSeq, playerName); err != nil {
				return 0, err
			}
		}
		return playerSeq, nil
	}

	playersCollection, err := s.app.FindCollectionByNameOrId("players")
	if err != nil {
		return 0, collectorerr.Store("players collection missing", err)
	}
	bindingsCollection, err := s.app.FindCollectionByNameOrId("player_unique_ids")
	if err != nil {
		return 0, collectorerr.Store("player_unique_ids collection missing", err)
	}

	seq, err := nextSeq(s.app, "players")
	if err != nil {
		return 0, collectorerr.Store("failed to allocate player id", err)
	}

	playerRecord := core.NewRecord(playersCollection)
	playerRecord.Set("seq", seq)
	playerRecord.Set("name", playerName)
	playerRecord.Set("game", game)
	playerRecord.Set("skill", 1000)

	if err := s.app.Save(playerRecord); err != nil {
		return 0, collectorerr.Store("failed to create player", err)
	}

	bindingRecord := core.NewRecord(bindingsCollection)
	bindingRecord.Set("unique_id", uniqueID)
	bindingRecord.Set("game", game)
	bindingRecord.Set("player", seq)

	if err := s.app.Save(bindingRecord); err != nil {
		// Lost the create race to a concurrent binding; re-read the winner.
		existing, findErr := s.app.FindFirstRecordByFilter(
			"player_unique_ids",
			"unique_id = {:uniqueID} && game = {:game}",
			map[string]any{"uniqueID": uniqueID, "game": game},
		)
		if findErr != nil {
			return 0, collectorerr.Store("failed to bind player unique id", err)
		}
		return int64(existing.GetInt("player")), nil
	}

	return seq, nil
}

func (s *Store) renamePlayer(playerSeq int64, playerName string) error {
	record, err := s.app.FindFirstRecordByFilter(
		"players",
		"seq = {:seq}",
		map[string]any{"seq": playerSeq},
	)
	if err != nil {
		return collectorerr.Store(fmt.Sprintf("player %d not found", playerSeq), err)
	}
	if record.GetString("name") == playerName {
		return nil
	}
	record.Set("name", playerName)
	if err := s.app.Save(record); err != nil {
		return collectorerr.Store("failed to update player name", err)
	}
	return nil
}

func (s *Store) GetPlayerStats(ctx context.Context, playerID int64) (store.PlayerStats, bool, error) {
	record, err := s.app.FindFirstRecordByFilter(
		"players",
		"seq = {:seq}",
		map[string]any{"seq": playerID},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.PlayerStats{}, false, nil
		}
		return store.PlayerStats{}, false, collectorerr.Store(fmt.Sprintf("player %d lookup failed", playerID), err)
	}
	return playerStatsFromRecord(record), true, nil
}

func (s *Store) UpdatePlayerStats(ctx context.Context, playerID int64, patch store.PlayerStatsPatch) error {
	record, err := s.app.FindFirstRecordByFilter(
		"players",
		"seq = {:seq}",
		map[string]any{"seq": playerID},
	)
	if err != nil {
		return collectorerr.Store(fmt.Sprintf("player %d not found", playerID), err)
	}

	record.Set("kills", record.GetInt("kills")+int(patch.KillsInc))
	record.Set("deaths", record.GetInt("deaths")+int(patch.DeathsInc))
	record.Set("suicides", record.GetInt("suicides")+int(patch.SuicidesInc))
	record.Set("teamkills", record.GetInt("teamkills")+int(patch.TeamkillsInc))
	record.Set("headshots", record.GetInt("headshots")+int(patch.HeadshotsInc))
	record.Set("shots", record.GetInt("shots")+int(patch.ShotsInc))
	record.Set("hits", record.GetInt("hits")+int(patch.HitsInc))
	record.Set("games_played", record.GetInt("games_played")+int(patch.GamesPlayedInc))

	if patch.Skill != nil {
		record.Set("skill", *patch.Skill)
	}
	if patch.KillStreak != nil {
		record.Set("kill_streak", *patch.KillStreak)
	}
	if patch.DeathStreak != nil {
		record.Set("death_streak", *patch.DeathStreak)
	}
	if patch.ConnectionTime != nil {
		record.Set("connection_time", *patch.ConnectionTime)
	}
	if patch.LastEvent != nil {
		record.Set("last_event", *patch.LastEvent)
	}
	if patch.LastSkillChange != nil {
		record.Set("last_skill_change", *patch.LastSkillChange)
	}

	if err := s.app.Save(record); err != nil {
		return collectorerr.Store("failed to update player stats", err)
	}
	return nil
}

// CreateGameEvent persists event into the typed table matching its
// payload: connects, disconnects, frags (kills/teamkills/suicides) and
// chat each get their own columns. Event types with no typed table
// (round/map/server-lifecycle/admin events) fall back to the generic
// game_events table as a JSON blob.
func (s *Store) CreateGameEvent(ctx context.Context, event *eventmodel.GameEvent) error {
	switch data := event.Data.(type) {
	case eventmodel.ConnectData:
		return s.createTypedEvent(event, "events_connect", func(record *core.Record) {
			record.Set("player", data.PlayerID)
			record.Set("ip", data.IP)
		})
	case eventmodel.DisconnectData:
		return s.createTypedEvent(event, "events_disconnect", func(record *core.Record) {
			record.Set("player", data.PlayerID)
			record.Set("session_duration", data.SessionDuration)
			record.Set("reason", data.Reason)
		})
	case eventmodel.KillData:
		return s.createTypedEvent(event, "events_frag", func(record *core.Record) {
			record.Set("killer", data.KillerID)
			record.Set("victim", data.VictimID)
			record.Set("weapon", data.Weapon)
			record.Set("headshot", data.Headshot)
			record.Set("teamkill", event.Type == eventmodel.PlayerTeamkill)
		})
	case eventmodel.SuicideData:
		return s.createTypedEvent(event, "events_frag", func(record *core.Record) {
			record.Set("killer", data.PlayerID)
			record.Set("victim", data.PlayerID)
			record.Set("weapon", data.Weapon)
			record.Set("suicide", true)
		})
	case eventmodel.ChatData:
		return s.createTypedEvent(event, "events_chat", func(record *core.Record) {
			record.Set("player", data.PlayerID)
			record.Set("message", data.Message)
			record.Set("dead", data.Dead)
			record.Set("message_mode", data.MessageMode)
		})
	default:
		return s.createGenericEvent(event)
	}
}

func (s *Store) createTypedEvent(event *eventmodel.GameEvent, collectionName string, setFields func(*core.Record)) error {
	collection, err := s.app.FindCollectionByNameOrId(collectionName)
	if err != nil {
		return collectorerr.Store(fmt.Sprintf("%s collection missing", collectionName), err)
	}

	record := core.NewRecord(collection)
	record.Set("event_id", event.ID)
	record.Set("server", event.ServerID)
	record.Set("timestamp", event.Timestamp)
	record.Set("raw", event.Raw)
	setFields(record)

	if err := s.app.Save(record); err != nil {
		return collectorerr.Store(fmt.Sprintf("failed to persist %s event", collectionName), err)
	}
	return nil
}

// createGenericEvent is the residual path for event types the
// persisted-state layout doesn't name a dedicated table for: round
// starts/ends, map changes, server shutdowns, and admin actions.
func (s *Store) createGenericEvent(event *eventmodel.GameEvent) error {
	collection, err := s.app.FindCollectionByNameOrId("game_events")
	if err != nil {
		return collectorerr.Store("game_events collection missing", err)
	}

	payload, err := json.Marshal(event.Data)
	if err != nil {
		return collectorerr.Store("failed to marshal event payload", err)
	}

	record := core.NewRecord(collection)
	record.Set("event_id", event.ID)
	record.Set("type", string(event.Type))
	record.Set("server", event.ServerID)
	record.Set("timestamp", event.Timestamp)
	record.Set("raw", event.Raw)
	record.Set("data", string(payload))

	if err := s.app.Save(record); err != nil {
		return collectorerr.Store("failed to persist game event", err)
	}
	return nil
}

func (s *Store) WeaponModifier(ctx context.Context, game, weapon string) (float64, bool, error) {
	record, err := s.app.FindFirstRecordByFilter(
		"weapon_modifiers",
		"game = {:game} && weapon = {:weapon}",
		map[string]any{"game": game, "weapon": weapon},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, collectorerr.Store("weapon modifier lookup failed", err)
	}
	return record.GetFloat("multiplier"), true, nil
}

func (s *Store) SetWeaponModifier(ctx context.Context, game, weapon string, multiplier float64) error {
	record, err := s.app.FindFirstRecordByFilter(
		"weapon_modifiers",
		"game = {:game} && weapon = {:weapon}",
		map[string]any{"game": game, "weapon": weapon},
	)
	if err == nil {
		record.Set("multiplier", multiplier)
		if err := s.app.Save(record); err != nil {
			return collectorerr.Store("failed to update weapon modifier", err)
		}
		return nil
	}

	collection, err := s.app.FindCollectionByNameOrId("weapon_modifiers")
	if err != nil {
		return collectorerr.Store("weapon_modifiers collection missing", err)
	}

	record = core.NewRecord(collection)
	record.Set("game", game)
	record.Set("weapon", weapon)
	record.Set("multiplier", multiplier)

	if err := s.app.Save(record); err != nil {
		return collectorerr.Store("failed to create weapon modifier", err)
	}
	return nil
}

func (s *Store) RecordWeaponUsage(ctx context.Context, game, weaponName string, headshot bool, damageMultiplier float64) error {
	record, err := s.app.FindFirstRecordByFilter(
		"weapon_usage",
		"game = {:game} && weapon = {:weapon}",
		map[string]any{"game": game, "weapon": weaponName},
	)
	if err == nil {
		record.Set("kills", record.GetInt("kills")+1)
		if headshot {
			record.Set("headshots", record.GetInt("headshots")+1)
		}
		record.Set("last_damage_multiplier", damageMultiplier)
		if err := s.app.Save(record); err != nil {
			return collectorerr.Store("failed to update weapon usage", err)
		}
		return nil
	}

	collection, err := s.app.FindCollectionByNameOrId("weapon_usage")
	if err != nil {
		return collectorerr.Store("weapon_usage collection missing", err)
	}

	headshots := 0
	if headshot {
		headshots = 1
	}

	record = core.NewRecord(collection)
	record.Set("game", game)
	record.Set("weapon", weaponName)
	record.Set("kills", 1)
	record.Set("headshots", headshots)
	record.Set("last_damage_multiplier", damageMultiplier)

	if err := s.app.Save(record); err != nil {
		return collectorerr.Store("failed to create weapon usage", err)
	}
	return nil
}

func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		return fn(ctx, &Store{app: txApp})
	})
}

// recordSeq returns the collection-local numeric identity assigned at
// insert time, stored alongside PocketBase's own string record id so
// that handlers and the Store interface can traffic in plain int64s.
func recordSeq(record *core.Record) int64 {
	return int64(record.GetInt("seq"))
}

// nextSeq allocates the next collection-local integer id. PocketBase
// record ids are opaque strings, so the store keeps its own
// monotonically increasing "seq" column per collection. The value is
// read just before the insert that uses it, on whichever app the
// caller holds; outside a Transaction the read and the insert are not
// atomic, and an insert that loses a seq race fails on the unique seq
// index.
func nextSeq(app core.App, collection string) (int, error) {
	var row struct {
		Max int `db:"max"`
	}
	query := fmt.Sprintf("SELECT COALESCE(MAX(seq), 0) as max FROM `%s`", collection)
	if err := app.DB().NewQuery(query).One(&row); err != nil {
		return 0, err
	}
	return row.Max + 1, nil
}

func playerStatsFromRecord(record *core.Record) store.PlayerStats {
	return store.PlayerStats{
		PlayerID:        recordSeq(record),
		DisplayName:     record.GetString("name"),
		Game:            record.GetString("game"),
		Skill:           record.GetInt("skill"),
		Kills:           int64(record.GetInt("kills")),
		Deaths:          int64(record.GetInt("deaths")),
		Suicides:        int64(record.GetInt("suicides")),
		Teamkills:       int64(record.GetInt("teamkills")),
		Headshots:       int64(record.GetInt("headshots")),
		Shots:           int64(record.GetInt("shots")),
		Hits:            int64(record.GetInt("hits")),
		ConnectionTime:  int64(record.GetInt("connection_time")),
		KillStreak:      record.GetInt("kill_streak"),
		DeathStreak:     record.GetInt("death_streak"),
		GamesPlayed:     record.GetInt("games_played"),
		LastEvent:       int64(record.GetInt("last_event")),
		LastSkillChange: int64(record.GetInt("last_skill_change")),
	}
}
