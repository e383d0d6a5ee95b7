package main

import "time"

const (
	PlayerMaxHP  = 100
	RespawnDelay = 3.0 // seconds
	PlayerW      = 5.0
	PlayerH      = 13.0

	// brief invulnerability windows so nobody dies before they can move
	StartShieldTime   = 2.0
	RespawnShieldTime = 2.0

	FacingLeft  = "left"
	FacingRight = "right"
)

// Player is the server-side state of one connected player.
type Player struct {
	ID       int
	Name     string
	TeamID   int // -1 = unassigned
	X, Y     float64
	VX, VY   float64
	OnGround bool
	Facing   string
	Alive    bool
	HP       int
	Ready    bool
	Weapon   string
	Coins    int
	Kills    int

	RespawnTimer float64 // seconds until revival while dead

	// Absolute expiry timestamps: effect durations survive message loss.
	ShieldUntil    time.Time
	RapidFireUntil time.Time
	ReloadUntil    time.Time
}

// NewPlayer creates a lobby-phase player with no team.
func NewPlayer(id int, name string) *Player {
	return &Player{
		ID:     id,
		Name:   name,
		TeamID: -1,
		X:      fallbackSpawnX,
		Y:      fallbackSpawnY,
		Facing: FacingRight,
		Alive:  true,
		HP:     PlayerMaxHP,
		Weapon: DefaultWeapon,
		Coins:  StartingCoins,
	}
}

// Shielded reports whether the player is damage-immune at the given time.
func (p *Player) Shielded(now time.Time) bool {
	return now.Before(p.ShieldUntil)
}

// ReloadLeft returns the seconds until the next allowed shot, floored at 0.
func (p *Player) ReloadLeft(now time.Time) float64 {
	left := p.ReloadUntil.Sub(now).Seconds()
	if left < 0 {
		return 0
	}
	return left
}

// ToSnapshot converts to the per-tick wire representation.
func (p *Player) ToSnapshot(now time.Time) PlayerSnapshot {
	return PlayerSnapshot{
		X:            p.X,
		Y:            p.Y,
		VX:           p.VX,
		VY:           p.VY,
		Facing:       p.Facing,
		TeamID:       p.TeamID,
		TeamColor:    TeamColor(p.TeamID),
		Alive:        p.Alive,
		Name:         p.Name,
		HP:           p.HP,
		ShieldActive: p.Shielded(now),
		Weapon:       p.Weapon,
		Coins:        p.Coins,
		Kills:        p.Kills,
		ReloadLeft:   p.ReloadLeft(now),
	}
}
