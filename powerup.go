package main

import "math/rand"

const (
	NumPowerUps         = 7
	PowerUpRespawnTime  = 15.0 // seconds
	PowerUpRespawnJit   = 5.0  // extra random delay, avoids synchronized waves
	PowerUpLifetime     = 12.0 // seconds active before expiring
	PowerUpW            = 10.0
	PowerUpH            = 10.0
	PowerUpSpawnHeight  = 10
	RapidFireReloadMul  = 0.5
)

// PowerUpTypes is the fixed rotation order. A respawning power-up cycles
// to the next type, which keeps type variety without per-type counters.
var PowerUpTypes = []string{"speed", "jump", "shield", "rapid_fire", "double_jump"}

var PowerUpDurations = map[string]float64{
	"speed":       10.0,
	"jump":        10.0,
	"shield":      5.0,
	"rapid_fire":  8.0,
	"double_jump": 10.0,
}

// PowerUp is either active (LifetimeTimer running) or inactive
// (RespawnTimer running), never both.
type PowerUp struct {
	ID            int
	PuType        string
	X, Y          float64
	Active        bool
	RespawnTimer  float64
	LifetimeTimer float64
}

// deactivate takes the power-up off the map and schedules its respawn
// with a random jitter.
func (pu *PowerUp) deactivate() {
	pu.Active = false
	pu.LifetimeTimer = 0
	pu.RespawnTimer = PowerUpRespawnTime + rand.Float64()*PowerUpRespawnJit
}

// NextPowerUpType returns the type following t in the fixed rotation.
func NextPowerUpType(t string) string {
	for i, pt := range PowerUpTypes {
		if pt == t {
			return PowerUpTypes[(i+1)%len(PowerUpTypes)]
		}
	}
	return PowerUpTypes[0]
}

// ToSnapshot converts to the per-tick wire representation.
func (pu *PowerUp) ToSnapshot() PowerUpSnapshot {
	return PowerUpSnapshot{
		X:        pu.X,
		Y:        pu.Y,
		PuType:   pu.PuType,
		Active:   pu.Active,
		Lifetime: pu.LifetimeTimer,
	}
}
