package processor

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"telemetry-collector/internal/eventmodel"
	"telemetry-collector/internal/handlers/match"
	"telemetry-collector/internal/handlers/player"
	"telemetry-collector/internal/handlers/ranking"
	"telemetry-collector/internal/handlers/weapon"
	"telemetry-collector/internal/store"
)

type mockStore struct {
	store.Store
	players map[string]int64
	stats   map[int64]store.PlayerStats
	events  []*eventmodel.GameEvent
	nextID  int64
}

func newMockStore() *mockStore {
	return &mockStore{
		players: make(map[string]int64),
		stats:   make(map[int64]store.PlayerStats),
	}
}

func (m *mockStore) GetOrCreatePlayer(ctx context.Context, uniqueID, playerName, game string) (int64, error) {
	if id, ok := m.players[uniqueID]; ok {
		return id, nil
	}
	m.nextID++
	id := m.nextID
	m.players[uniqueID] = id
	m.stats[id] = store.PlayerStats{PlayerID: id, Skill: 1000}
	return id, nil
}

func (m *mockStore) CreateGameEvent(ctx context.Context, event *eventmodel.GameEvent) error {
	m.events = append(m.events, event)
	return nil
}

func (m *mockStore) GetPlayerStats(ctx context.Context, playerID int64) (store.PlayerStats, bool, error) {
	s, ok := m.stats[playerID]
	return s, ok, nil
}

func (m *mockStore) UpdatePlayerStats(ctx context.Context, playerID int64, patch store.PlayerStatsPatch) error {
	s := m.stats[playerID]
	if patch.Skill != nil {
		s.Skill = *patch.Skill
	}
	s.Kills += patch.KillsInc
	s.Deaths += patch.DeathsInc
	s.Teamkills += patch.TeamkillsInc
	s.Shots += patch.ShotsInc
	s.Hits += patch.HitsInc
	m.stats[playerID] = s
	return nil
}

func (m *mockStore) RecordWeaponUsage(ctx context.Context, game, weapon string, headshot bool, damageMultiplier float64) error {
	return nil
}

type mockCatalog struct{}

func (mockCatalog) DamageMultiplier(weapon string, headshot bool) float64 { return 1.0 }
func (mockCatalog) SkillMultiplier(ctx context.Context, game, weapon string) (float64, error) {
	return 1.0, nil
}

func newTestProcessor(db *mockStore) *Processor {
	handlers := Handlers{
		Player:  player.New(db),
		Weapon:  weapon.New(db, mockCatalog{}),
		Match:   match.New(db),
		Ranking: ranking.New(db, mockCatalog{}),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(db, handlers, logger, "cs", false)
}

func TestProcessEvent_ConnectResolvesIdentityAndPersists(t *testing.T) {
	db := newMockStore()
	p := newTestProcessor(db)

	event := &eventmodel.GameEvent{
		Type: eventmodel.PlayerConnect,
		Data: eventmodel.ConnectData{},
		Meta: &eventmodel.Meta{Player: &eventmodel.Identity{SteamID: "76561198000000001", Name: "alice"}},
	}

	if err := p.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("ProcessEvent() error = %v", err)
	}
	if len(db.events) != 1 {
		t.Fatalf("persisted events = %d, want 1", len(db.events))
	}
	got := db.events[0].Data.(eventmodel.ConnectData)
	if got.PlayerID == 0 {
		t.Error("PlayerID not resolved before persistence")
	}
}

func TestProcessEvent_BotGatedByDefault(t *testing.T) {
	db := newMockStore()
	p := newTestProcessor(db)

	event := &eventmodel.GameEvent{
		Type: eventmodel.PlayerConnect,
		Data: eventmodel.ConnectData{},
		Meta: &eventmodel.Meta{Player: &eventmodel.Identity{SteamID: "BOT", Name: "bot1", IsBot: true}},
	}

	if err := p.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("ProcessEvent() error = %v", err)
	}
	if len(db.events) != 0 {
		t.Errorf("persisted events = %d, want 0 for bot-gated event", len(db.events))
	}
}

func TestProcessEvent_BotLoggedUsesSyntheticUniqueID(t *testing.T) {
	db := newMockStore()
	handlers := Handlers{
		Player:  player.New(db),
		Weapon:  weapon.New(db, mockCatalog{}),
		Match:   match.New(db),
		Ranking: ranking.New(db, mockCatalog{}),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := New(db, handlers, logger, "cstrike", true)

	event := &eventmodel.GameEvent{
		Type: eventmodel.PlayerConnect,
		Data: eventmodel.ConnectData{},
		Meta: &eventmodel.Meta{Player: &eventmodel.Identity{SteamID: "BOT_BOTPLAYER", Name: "BotPlayer", IsBot: true}},
	}

	if err := p.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("ProcessEvent() error = %v", err)
	}
	if _, ok := db.players["BOT_BOTPLAYER"]; !ok {
		t.Errorf("expected GetOrCreatePlayer to be called with uniqueID %q, got players = %v", "BOT_BOTPLAYER", db.players)
	}
}

func TestProcessEvent_MissingIdentityErrors(t *testing.T) {
	db := newMockStore()
	p := newTestProcessor(db)

	event := &eventmodel.GameEvent{
		Type: eventmodel.PlayerConnect,
		Data: eventmodel.ConnectData{},
	}

	if err := p.ProcessEvent(context.Background(), event); err == nil {
		t.Fatal("expected error for missing Meta.Player")
	}
}

func TestProcessEvent_KillDispatchesWeaponAndRanking(t *testing.T) {
	db := newMockStore()
	p := newTestProcessor(db)

	killerID, _ := db.GetOrCreatePlayer(context.Background(), "killer", "killer", "cs")
	victimID, _ := db.GetOrCreatePlayer(context.Background(), "victim", "victim", "cs")

	event := &eventmodel.GameEvent{
		ServerID: 1,
		Type:     eventmodel.PlayerKill,
		Data: eventmodel.KillData{
			KillerID:   killerID,
			VictimID:   victimID,
			KillerTeam: "CT",
			VictimTeam: "T",
			Weapon:     "ak47",
		},
		Meta: &eventmodel.Meta{
			Killer: &eventmodel.Identity{SteamID: "killer", Name: "killer"},
			Victim: &eventmodel.Identity{SteamID: "victim", Name: "victim"},
		},
	}

	if err := p.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("ProcessEvent() error = %v", err)
	}

	killerStats := db.stats[killerID]
	victimStats := db.stats[victimID]
	if killerStats.Kills != 1 {
		t.Errorf("killer Kills = %d, want 1", killerStats.Kills)
	}
	if victimStats.Deaths != 1 {
		t.Errorf("victim Deaths = %d, want 1", victimStats.Deaths)
	}
	if killerStats.Skill <= 1000 {
		t.Errorf("killer Skill = %d, want increase from 1000", killerStats.Skill)
	}
}

func TestProcessEvent_TeamkillSkipsWeaponAndRanking(t *testing.T) {
	db := newMockStore()
	p := newTestProcessor(db)
	ctx := context.Background()

	killerID, _ := db.GetOrCreatePlayer(ctx, "killer", "killer", "cs")
	victimID, _ := db.GetOrCreatePlayer(ctx, "victim", "victim", "cs")

	event := &eventmodel.GameEvent{
		ServerID: 1,
		Type:     eventmodel.PlayerTeamkill,
		Data: eventmodel.KillData{
			KillerID:   killerID,
			VictimID:   victimID,
			KillerTeam: "CT",
			VictimTeam: "CT",
			Weapon:     "ak47",
		},
		Meta: &eventmodel.Meta{
			Killer: &eventmodel.Identity{SteamID: "killer", Name: "killer"},
			Victim: &eventmodel.Identity{SteamID: "victim", Name: "victim"},
		},
	}

	if err := p.ProcessEvent(ctx, event); err != nil {
		t.Fatalf("ProcessEvent() error = %v", err)
	}

	killerStats := db.stats[killerID]
	victimStats := db.stats[victimID]

	if killerStats.Teamkills != 1 {
		t.Errorf("killer Teamkills = %d, want 1", killerStats.Teamkills)
	}
	if killerStats.Skill != 990 {
		t.Errorf("killer Skill = %d, want 990 (teamkill penalty only, no Ranking call)", killerStats.Skill)
	}
	if killerStats.Shots != 0 || killerStats.Hits != 0 {
		t.Errorf("killer Shots/Hits = %d/%d, want 0/0: Weapon Handler must not run for a teamkill", killerStats.Shots, killerStats.Hits)
	}
	if victimStats.Deaths != 1 {
		t.Errorf("victim Deaths = %d, want 1", victimStats.Deaths)
	}
	if victimStats.Skill != 1000 {
		t.Errorf("victim Skill = %d, want unchanged 1000: Ranking Handler must not run for a teamkill", victimStats.Skill)
	}
}

func TestProcessEvent_RoundEndAppliesParticipationBonus(t *testing.T) {
	db := newMockStore()
	p := newTestProcessor(db)
	ctx := context.Background()

	playerID, _ := db.GetOrCreatePlayer(ctx, "winner", "winner", "cs")

	if err := p.ProcessEvent(ctx, &eventmodel.GameEvent{ServerID: 1, Type: eventmodel.RoundStart, Data: eventmodel.RoundStartData{}}); err != nil {
		t.Fatalf("round start error = %v", err)
	}

	p.handlers.Match.RecordParticipant(1, "CT", playerID)

	event := &eventmodel.GameEvent{
		ServerID: 1,
		Type:     eventmodel.RoundEnd,
		Data:     eventmodel.RoundEndData{WinningTeam: "CT", Duration: 90},
	}
	if err := p.ProcessEvent(ctx, event); err != nil {
		t.Fatalf("ProcessEvent() error = %v", err)
	}

	if db.stats[playerID].Skill <= 1000 {
		t.Errorf("winner Skill = %d, want clean-round bonus applied", db.stats[playerID].Skill)
	}
}
