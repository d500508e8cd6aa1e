package pbstore

import (
	"context"
	"testing"

	"github.com/pocketbase/pocketbase/tests"

	"telemetry-collector/internal/eventmodel"
	"telemetry-collector/internal/store"

	_ "telemetry-collector/migrations"
)

const testDataDir = "./test_pb_data"

func newTestStore(t *testing.T) *Store {
	t.Helper()

	testApp, err := tests.NewTestApp(testDataDir)
	if err != nil {
		t.Fatalf("failed to create test app: %v", err)
	}
	t.Cleanup(testApp.Cleanup)

	if err := testApp.RunAllMigrations(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return New(testApp)
}

func TestAutoRegisterDevServer_CreatesThenReuses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.AutoRegisterDevServer(ctx, "10.0.0.1", 27015, "cs")
	if err != nil {
		t.Fatalf("AutoRegisterDevServer() error = %v", err)
	}
	if id1 == 0 {
		t.Fatal("expected non-zero server id")
	}

	id2, err := s.AutoRegisterDevServer(ctx, "10.0.0.1", 27015, "cs")
	if err != nil {
		t.Fatalf("AutoRegisterDevServer() second call error = %v", err)
	}
	if id2 != id1 {
		t.Errorf("second call id = %d, want reused %d", id2, id1)
	}

	gotID, game, ok, err := s.GetServerByAddress(ctx, "10.0.0.1", 27015)
	if err != nil {
		t.Fatalf("GetServerByAddress() error = %v", err)
	}
	if !ok || gotID != id1 || game != "cs" {
		t.Errorf("GetServerByAddress() = (%d, %q, %v), want (%d, cs, true)", gotID, game, ok, id1)
	}
}

func TestGetServerByAddress_UnknownSourceNotFound(t *testing.T) {
	s := newTestStore(t)

	_, _, ok, err := s.GetServerByAddress(context.Background(), "10.0.0.9", 27015)
	if err != nil {
		t.Fatalf("GetServerByAddress() error = %v", err)
	}
	if ok {
		t.Error("expected ok=false for unregistered source")
	}
}

func TestGetOrCreatePlayer_UpsertsByUniqueIDAndGame(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.GetOrCreatePlayer(ctx, "STEAM_1:0:1", "alice", "cs")
	if err != nil {
		t.Fatalf("GetOrCreatePlayer() error = %v", err)
	}

	id2, err := s.GetOrCreatePlayer(ctx, "STEAM_1:0:1", "alice-renamed", "cs")
	if err != nil {
		t.Fatalf("GetOrCreatePlayer() second call error = %v", err)
	}
	if id2 != id1 {
		t.Errorf("second call id = %d, want reused %d", id2, id1)
	}

	stats, ok, err := s.GetPlayerStats(ctx, id1)
	if err != nil {
		t.Fatalf("GetPlayerStats() error = %v", err)
	}
	if !ok {
		t.Fatal("expected player to exist")
	}
	if stats.DisplayName != "alice-renamed" {
		t.Errorf("DisplayName = %q, want updated name", stats.DisplayName)
	}
	if stats.Skill != 1000 {
		t.Errorf("Skill = %d, want default 1000", stats.Skill)
	}
}

func TestGetOrCreatePlayer_SecondUniqueIDCreatesDistinctPlayer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.GetOrCreatePlayer(ctx, "STEAM_1:0:4", "dave", "cs")
	if err != nil {
		t.Fatalf("GetOrCreatePlayer() error = %v", err)
	}

	// A distinct unique id for the same game must resolve to a
	// different player row: player_unique_ids rows aren't shared
	// automatically just because a human later merges identities.
	otherID, err := s.GetOrCreatePlayer(ctx, "STEAM_1:0:5", "dave", "cs")
	if err != nil {
		t.Fatalf("GetOrCreatePlayer() second identity error = %v", err)
	}
	if otherID == id {
		t.Fatalf("expected a distinct unmapped unique id to create a new player, got reused id %d", id)
	}

	// Re-querying the original binding still resolves to the original player.
	again, err := s.GetOrCreatePlayer(ctx, "STEAM_1:0:4", "dave", "cs")
	if err != nil {
		t.Fatalf("GetOrCreatePlayer() re-resolve error = %v", err)
	}
	if again != id {
		t.Errorf("re-resolved id = %d, want original %d", again, id)
	}
}

func TestUpdatePlayerStats_IncrementsAndAssigns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.GetOrCreatePlayer(ctx, "STEAM_1:0:2", "bob", "cs")
	if err != nil {
		t.Fatalf("GetOrCreatePlayer() error = %v", err)
	}

	skill := 1050
	streak := 3
	patch := store.PlayerStatsPatch{KillsInc: 1, Skill: &skill, KillStreak: &streak}
	if err := s.UpdatePlayerStats(ctx, id, patch); err != nil {
		t.Fatalf("UpdatePlayerStats() error = %v", err)
	}

	stats, _, err := s.GetPlayerStats(ctx, id)
	if err != nil {
		t.Fatalf("GetPlayerStats() error = %v", err)
	}
	if stats.Kills != 1 {
		t.Errorf("Kills = %d, want 1", stats.Kills)
	}
	if stats.Skill != skill {
		t.Errorf("Skill = %d, want %d", stats.Skill, skill)
	}
	if stats.KillStreak != streak {
		t.Errorf("KillStreak = %d, want %d", stats.KillStreak, streak)
	}
}

func TestCreateGameEvent_Persists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	serverID, err := s.AutoRegisterDevServer(ctx, "10.0.0.2", 27015, "cs")
	if err != nil {
		t.Fatalf("AutoRegisterDevServer() error = %v", err)
	}

	event := &eventmodel.GameEvent{
		ID:       "evt-1",
		Type:     eventmodel.PlayerConnect,
		ServerID: serverID,
		Data:     eventmodel.ConnectData{PlayerID: 1, IP: "1.2.3.4"},
	}
	if err := s.CreateGameEvent(ctx, event); err != nil {
		t.Fatalf("CreateGameEvent() error = %v", err)
	}
}

func TestSetWeaponModifier_CreatesThenUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetWeaponModifier(ctx, "cs", "awp", 1.5); err != nil {
		t.Fatalf("SetWeaponModifier() error = %v", err)
	}

	mult, ok, err := s.WeaponModifier(ctx, "cs", "awp")
	if err != nil {
		t.Fatalf("WeaponModifier() error = %v", err)
	}
	if !ok || mult != 1.5 {
		t.Errorf("WeaponModifier() = (%v, %v), want (1.5, true)", mult, ok)
	}

	if err := s.SetWeaponModifier(ctx, "cs", "awp", 2.0); err != nil {
		t.Fatalf("SetWeaponModifier() update error = %v", err)
	}
	mult, _, err = s.WeaponModifier(ctx, "cs", "awp")
	if err != nil {
		t.Fatalf("WeaponModifier() error = %v", err)
	}
	if mult != 2.0 {
		t.Errorf("WeaponModifier() after update = %v, want 2.0", mult)
	}
}

func TestTransaction_PersistsOnSuccess(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var playerID int64
	err := s.Transaction(ctx, func(ctx context.Context, tx store.Store) error {
		id, err := tx.GetOrCreatePlayer(ctx, "STEAM_1:0:3", "carol", "cs")
		playerID = id
		return err
	})
	if err != nil {
		t.Fatalf("Transaction() error = %v", err)
	}

	_, ok, err := s.GetPlayerStats(ctx, playerID)
	if err != nil {
		t.Fatalf("GetPlayerStats() error = %v", err)
	}
	if !ok {
		t.Error("expected player created inside transaction to be visible afterward")
	}
}
