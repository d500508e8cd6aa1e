package weaponcatalog

import (
	"context"
	"testing"
)

type mockStore struct {
	calls    int
	override map[string]float64 // "game:weapon" -> mult
}

func (m *mockStore) WeaponModifier(ctx context.Context, game, weapon string) (float64, bool, error) {
	m.calls++
	mult, ok := m.override[game+":"+weapon]
	return mult, ok, nil
}

func TestSkillMultiplier_BuiltinFallback(t *testing.T) {
	cat := New(nil)

	mult, err := cat.SkillMultiplier(context.Background(), "cstrike", "AK47")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mult != 1.1 {
		t.Errorf("SkillMultiplier(ak47) = %v, want 1.1", mult)
	}
}

func TestSkillMultiplier_UnknownWeaponDefaultsToOne(t *testing.T) {
	cat := New(nil)

	mult, err := cat.SkillMultiplier(context.Background(), "cstrike", "totally-made-up-gun")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mult != 1.0 {
		t.Errorf("SkillMultiplier(unknown weapon) = %v, want 1.0", mult)
	}
}

func TestSkillMultiplier_StoreOverrideWins(t *testing.T) {
	store := &mockStore{override: map[string]float64{"cs:ak47": 5.0}}
	cat := New(store)

	mult, err := cat.SkillMultiplier(context.Background(), "cstrike", "ak47")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mult != 5.0 {
		t.Errorf("SkillMultiplier with override = %v, want 5.0", mult)
	}
}

func TestSkillMultiplier_Memoization(t *testing.T) {
	store := &mockStore{override: map[string]float64{"cs:awp": 1.4}}
	cat := New(store)

	if _, err := cat.SkillMultiplier(context.Background(), "cstrike", "awp"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cat.SkillMultiplier(context.Background(), "cstrike", "awp"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.calls != 1 {
		t.Errorf("store called %d times, want 1 (second lookup should hit cache)", store.calls)
	}
	if cat.Size() != 1 {
		t.Errorf("cache size = %d, want 1", cat.Size())
	}
}

func TestClear(t *testing.T) {
	cat := New(nil)
	cat.SkillMultiplier(context.Background(), "cstrike", "awp")
	if cat.Size() == 0 {
		t.Fatal("expected non-empty cache before Clear")
	}
	cat.Clear()
	if cat.Size() != 0 {
		t.Errorf("Size() after Clear = %d, want 0", cat.Size())
	}
}

func TestDamageMultiplier(t *testing.T) {
	cat := New(nil)

	tests := []struct {
		weapon   string
		headshot bool
		want     float64
	}{
		{"ak47", false, 36},
		{"ak47", true, 144},
		{"awp", true, 460},
		{"unknown", false, 30},
		{"made-up-gun", false, 20},
		{"made-up-gun", true, 80},
	}

	for _, tt := range tests {
		got := cat.DamageMultiplier(tt.weapon, tt.headshot)
		if got != tt.want {
			t.Errorf("DamageMultiplier(%q, %v) = %v, want %v", tt.weapon, tt.headshot, got, tt.want)
		}
	}
}

func TestCanonicalGameAliases(t *testing.T) {
	cat := New(nil)
	ctx := context.Background()

	a, _ := cat.SkillMultiplier(ctx, "cstrike", "knife")
	b, _ := cat.SkillMultiplier(ctx, "csgo", "knife")
	c, _ := cat.SkillMultiplier(ctx, "cs2", "knife")

	if a != b || b != c {
		t.Errorf("expected aliases to resolve to the same table: %v %v %v", a, b, c)
	}
}
