package main

import (
	"testing"
	"time"
)

func TestNewPlayerDefaults(t *testing.T) {
	p := NewPlayer(3, "alice")
	if p.TeamID != -1 {
		t.Error("new players must start unassigned")
	}
	if p.Weapon != DefaultWeapon || p.Coins != StartingCoins {
		t.Errorf("loadout: %q, %d coins", p.Weapon, p.Coins)
	}
	if !p.Alive || p.HP != PlayerMaxHP {
		t.Error("new players should be alive at full HP")
	}
}

func TestShieldWindow(t *testing.T) {
	p := NewPlayer(0, "a")
	now := time.Now()
	if p.Shielded(now) {
		t.Error("no shield by default")
	}
	p.ShieldUntil = now.Add(time.Second)
	if !p.Shielded(now) {
		t.Error("shield window not honored")
	}
	if p.Shielded(now.Add(2 * time.Second)) {
		t.Error("shield did not expire")
	}
}

func TestReloadLeftFloorsAtZero(t *testing.T) {
	p := NewPlayer(0, "a")
	now := time.Now()
	p.ReloadUntil = now.Add(500 * time.Millisecond)
	if got := p.ReloadLeft(now); got < 0.49 || got > 0.51 {
		t.Errorf("reload left = %v", got)
	}
	if got := p.ReloadLeft(now.Add(time.Second)); got != 0 {
		t.Errorf("reload left = %v after expiry, want 0", got)
	}
}

func TestWeaponOrDefault(t *testing.T) {
	if w := WeaponOrDefault("sniper"); w.Name != "Sniper" {
		t.Errorf("got %q", w.Name)
	}
	if w := WeaponOrDefault("banana"); w.Name != "Pistol" {
		t.Error("unknown weapon should fall back to the pistol")
	}
}

func TestNextPowerUpTypeCycles(t *testing.T) {
	seen := map[string]bool{}
	cur := PowerUpTypes[0]
	for range PowerUpTypes {
		seen[cur] = true
		cur = NextPowerUpType(cur)
	}
	if len(seen) != len(PowerUpTypes) {
		t.Errorf("rotation covered %d of %d types", len(seen), len(PowerUpTypes))
	}
	if cur != PowerUpTypes[0] {
		t.Error("rotation should wrap around")
	}
	if NextPowerUpType("bogus") != PowerUpTypes[0] {
		t.Error("unknown type should restart the rotation")
	}
}
