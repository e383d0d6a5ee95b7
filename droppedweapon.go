package main

const (
	DropW = 10.0
	DropH = 10.0
)

// DroppedWeapon is a weapon lying on the ground after its owner died.
// The pickup delay keeps the killer's exiting bullet and same-tick
// re-pickup races from instantly collecting it.
type DroppedWeapon struct {
	ID          int
	WeaponID    string
	X, Y        float64
	Lifetime    float64
	PickupDelay float64
}

// Collectible reports whether the pickup delay has elapsed.
func (d *DroppedWeapon) Collectible() bool {
	return d.PickupDelay <= 0
}

// ToSnapshot converts to the per-tick wire representation.
func (d *DroppedWeapon) ToSnapshot() DroppedWeaponSnapshot {
	return DroppedWeaponSnapshot{
		WeaponID: d.WeaponID,
		X:        d.X,
		Y:        d.Y,
		Lifetime: d.Lifetime,
	}
}
