package main

// Projectile velocities are expressed in pixels per 1/60 s frame; a tick
// advances a projectile by v * dt * 60 pixels.
const (
	ProjectileLifetime = 3.0 // wall-clock safety bound, seconds
	ProjectileW        = 4.0
	ProjectileH        = 4.0
	MaxSubStep         = 2.0 // max pixels advanced per collision sub-step
)

// Projectile is a live bullet. Dist accumulates traveled pixels so the
// bullet expires exactly at its weapon's advertised range regardless of
// tick rate.
type Projectile struct {
	ID       int
	OwnerID  int
	TeamID   int
	X, Y     float64
	VX, VY   float64
	Lifetime float64
	Damage   int
	WeaponID string
	RangePx  float64
	Dist     float64
}

// ToSnapshot converts to the per-tick wire representation.
func (pr *Projectile) ToSnapshot() ProjectileSnapshot {
	return ProjectileSnapshot{
		X:        pr.X,
		Y:        pr.Y,
		VX:       pr.VX,
		VY:       pr.VY,
		TeamID:   pr.TeamID,
		WeaponID: pr.WeaponID,
	}
}
