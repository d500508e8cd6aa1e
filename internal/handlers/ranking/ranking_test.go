package ranking

import (
	"context"
	"math"
	"testing"

	"telemetry-collector/internal/store"
)

type mockStore struct {
	store.Store
	stats   map[int64]store.PlayerStats
	patches map[int64]store.PlayerStatsPatch
}

func newMockStore() *mockStore {
	return &mockStore{stats: make(map[int64]store.PlayerStats), patches: make(map[int64]store.PlayerStatsPatch)}
}

func (m *mockStore) GetPlayerStats(ctx context.Context, playerID int64) (store.PlayerStats, bool, error) {
	s, ok := m.stats[playerID]
	return s, ok, nil
}

func (m *mockStore) UpdatePlayerStats(ctx context.Context, playerID int64, patch store.PlayerStatsPatch) error {
	m.patches[playerID] = patch
	return nil
}

type mockCatalog struct {
	multiplier float64
}

func (m mockCatalog) SkillMultiplier(ctx context.Context, game, weapon string) (float64, error) {
	return m.multiplier, nil
}

func TestCalculateExpectedScore_EqualRatingsIsHalf(t *testing.T) {
	got := CalculateExpectedScore(1000, 1000)
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("CalculateExpectedScore(1000,1000) = %v, want 0.5", got)
	}
}

func TestCalculateExpectedScore_HigherRatingFavored(t *testing.T) {
	got := CalculateExpectedScore(1200, 1000)
	if got <= 0.5 {
		t.Errorf("CalculateExpectedScore(1200,1000) = %v, want > 0.5", got)
	}
}

func TestUpdatePlayerRating_ClampsToBounds(t *testing.T) {
	got := UpdatePlayerRating(minRating, 0, 1, 100)
	if got != minRating {
		t.Errorf("UpdatePlayerRating floor = %d, want %d", got, minRating)
	}
	got = UpdatePlayerRating(maxRating, 1, 0, 100)
	if got != maxRating {
		t.Errorf("UpdatePlayerRating ceiling = %d, want %d", got, maxRating)
	}
}

func TestHandleKill_AppliesHeadshotBonusAndCaps(t *testing.T) {
	db := newMockStore()
	db.stats[1] = store.PlayerStats{PlayerID: 1, Skill: 1000, GamesPlayed: 100}
	db.stats[2] = store.PlayerStats{PlayerID: 2, Skill: 1000, GamesPlayed: 100}
	h := New(db, mockCatalog{multiplier: 1.5})

	killer, victim, err := h.HandleKill(context.Background(), 1, 2, "cs", "awp", true)
	if err != nil {
		t.Fatalf("HandleKill() error = %v", err)
	}

	if killer.Change <= 0 {
		t.Errorf("killer Change = %d, want positive", killer.Change)
	}
	if killer.Change > killDeltaCap {
		t.Errorf("killer Change = %d, exceeds cap %d", killer.Change, killDeltaCap)
	}
	if victim.Change >= 0 {
		t.Errorf("victim Change = %d, want negative", victim.Change)
	}
	if victim.Change < victimDeltaFloor {
		t.Errorf("victim Change = %d, below floor %d", victim.Change, victimDeltaFloor)
	}
}

func TestHandleRoundEnd_AppliesCleanRoundBonusAndPersists(t *testing.T) {
	db := newMockStore()
	db.stats[10] = store.PlayerStats{PlayerID: 10, Skill: 1000}
	h := New(db, mockCatalog{multiplier: 1.0})

	changes, err := h.HandleRoundEnd(context.Background(), []int64{10})
	if err != nil {
		t.Fatalf("HandleRoundEnd() error = %v", err)
	}
	if len(changes) != 1 || changes[0].Change != cleanRoundBonus {
		t.Errorf("changes = %+v, want one change of +%d", changes, cleanRoundBonus)
	}

	patch := db.patches[10]
	if patch.Skill == nil || *patch.Skill != 1000+cleanRoundBonus {
		t.Errorf("persisted Skill = %v, want %d", patch.Skill, 1000+cleanRoundBonus)
	}
}

func TestHandleRoundEnd_SkipsUnknownPlayers(t *testing.T) {
	db := newMockStore()
	h := New(db, mockCatalog{multiplier: 1.0})

	changes, err := h.HandleRoundEnd(context.Background(), []int64{999})
	if err != nil {
		t.Fatalf("HandleRoundEnd() error = %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("changes = %+v, want none for unknown player", changes)
	}
}
