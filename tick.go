package main

import (
	"encoding/json"
	"log"
	"math"
	"math/rand"
	"strconv"
	"time"
)

// Projectiles may travel a little past the map edge before despawning so
// clients can draw them leaving the screen.
const worldMargin = 50.0

// Run drives the fixed-rate simulation loop until Stop is called. The
// match-deciding game_over is broadcast from inside the tick that causes
// it; the loop itself keeps running so late world frames still flush.
func (g *Game) Run() {
	interval := time.Second / time.Duration(g.cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	dt := 1.0 / float64(g.cfg.TickRate)
	for {
		select {
		case <-ticker.C:
			g.update(dt)
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the tick loop.
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.stop:
	default:
		close(g.stop)
	}
}

// update runs one tick. Phase order is significant: deaths resolved by
// falling must not be revived by the respawn pass of the same tick, and
// the snapshot at the end reflects every effect of this tick at once.
func (g *Game) update(dt float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started || g.over || len(g.players) == 0 {
		return
	}
	g.tick++
	now := time.Now()

	g.tickFallDeaths(now)
	g.tickRespawns(dt, now)
	g.tickProjectiles(dt, now)
	g.tickPowerUps(dt, now)
	g.tickDrops(dt)
	g.broadcastWorldLocked(now)
}

// tickFallDeaths kills any live player below the map's lower bound.
// Environment kill: nobody gets credit. This runs server-side on top of
// the client's fell_off intent so out-of-bounds drift cannot be abused
// for invulnerability.
func (g *Game) tickFallDeaths(now time.Time) {
	bottom := g.gmap.PixelHeight()
	for _, p := range g.players {
		if p.Alive && p.Y > bottom {
			g.killPlayerLocked(p, -1, "", now)
		}
	}
}

// tickRespawns counts dead players down and revives them at a fresh
// random floor position with full health and a short shield.
func (g *Game) tickRespawns(dt float64, now time.Time) {
	for _, p := range g.players {
		if p.Alive || p.RespawnTimer <= 0 {
			continue
		}
		p.RespawnTimer -= dt
		if p.RespawnTimer > 0 {
			continue
		}
		p.X, p.Y = g.gmap.RandFloorPos(int(PlayerH))
		p.VX, p.VY = 0, 0
		p.Alive = true
		p.HP = PlayerMaxHP
		p.ShieldUntil = now.Add(time.Duration(RespawnShieldTime * float64(time.Second)))
		g.broadcastLocked(RespawnMsg{
			Type:     MsgRespawn,
			PlayerID: p.ID,
			X:        p.X,
			Y:        p.Y,
			HP:       p.HP,
			Weapon:   p.Weapon,
			Coins:    p.Coins,
		})
	}
}

// tickProjectiles advances every projectile with sub-stepped collision.
// The per-tick displacement is cut into sub-steps of at most MaxSubStep
// pixels so fast bullets cannot tunnel through a 5-pixel player. At each
// sub-step the checks run in order: remaining range, world bounds,
// player hit, breakable hit.
func (g *Game) tickProjectiles(dt float64, now time.Time) {
	width := g.gmap.PixelWidth()
	bottom := g.gmap.PixelHeight()

	for id, proj := range g.projectiles {
		proj.Lifetime -= dt
		if proj.Lifetime <= 0 {
			delete(g.projectiles, id)
			continue
		}

		dx := proj.VX * dt * 60
		dy := proj.VY * dt * 60
		disp := math.Hypot(dx, dy)
		steps := int(math.Ceil(disp / MaxSubStep))
		if steps < 1 {
			steps = 1
		}
		sx := dx / float64(steps)
		sy := dy / float64(steps)
		stepLen := disp / float64(steps)

		removed := false
		for s := 0; s < steps; s++ {
			proj.X += sx
			proj.Y += sy
			proj.Dist += stepLen

			if proj.Dist >= proj.RangePx {
				removed = true // expired harmlessly at its advertised range
				break
			}
			if proj.X < -worldMargin || proj.X > width+worldMargin || proj.Y > bottom+worldMargin {
				removed = true
				break
			}
			if g.projectileHitsPlayerLocked(id, proj, now) {
				removed = true
				break
			}
			if g.projectileHitsObjectLocked(id, proj) {
				removed = true
				break
			}
		}
		if removed {
			delete(g.projectiles, id)
		}
	}
}

// projectileHitsPlayerLocked applies the first player hit at the
// projectile's current position. A hit consumes the projectile; there is
// no piercing.
func (g *Game) projectileHitsPlayerLocked(projID int, proj *Projectile, now time.Time) bool {
	for _, plr := range g.players {
		if plr.ID == proj.OwnerID || plr.TeamID == proj.TeamID {
			continue
		}
		if !plr.Alive || plr.Shielded(now) {
			continue
		}
		if !RectOverlap(proj.X, proj.Y, ProjectileW, ProjectileH, plr.X, plr.Y, PlayerW, PlayerH) {
			continue
		}
		plr.HP -= proj.Damage
		g.broadcastLocked(ProjectileHitMsg{
			Type:     MsgProjectileHit,
			ProjID:   projID,
			VictimID: plr.ID,
			Damage:   proj.Damage,
			HP:       plr.HP,
		})
		if plr.HP <= 0 {
			g.killPlayerLocked(plr, proj.OwnerID, proj.WeaponID, now)
		}
		return true
	}
	return false
}

// projectileHitsObjectLocked applies damage to the first breakable at the
// projectile's current position. Destroying one awards a randomized coin
// bonus to the shooter.
func (g *Game) projectileHitsObjectLocked(projID int, proj *Projectile) bool {
	for _, obj := range g.objects {
		if !obj.Alive {
			continue
		}
		w, h := obj.Size()
		if !RectOverlap(proj.X, proj.Y, ProjectileW, ProjectileH, obj.X, obj.Y, w, h) {
			continue
		}
		obj.HP -= proj.Damage
		if obj.HP > 0 {
			g.broadcastLocked(ObjectHitMsg{
				Type:   MsgObjectHit,
				ObjID:  obj.ID,
				Damage: proj.Damage,
				HP:     obj.HP,
			})
			return true
		}
		obj.HP = 0
		obj.Alive = false
		def := BreakableTypes[obj.ObjType]
		coins := def.CoinMin
		if def.CoinMax > def.CoinMin {
			coins += rand.Intn(def.CoinMax - def.CoinMin + 1)
		}
		if shooter, ok := g.players[proj.OwnerID]; ok {
			shooter.Coins += coins
			g.sendToLocked(shooter.ID, CoinsUpdateMsg{Type: MsgCoinsUpdate, Coins: shooter.Coins})
		}
		g.broadcastLocked(ObjectDestroyedMsg{
			Type:  MsgObjectDestroyed,
			ObjID: obj.ID,
			ByID:  proj.OwnerID,
			Coins: coins,
		})
		return true
	}
	return false
}

// tickPowerUps runs the active/inactive cycle. Active power-ups expire
// after their lifetime, inactive ones respawn at a new floor tile with
// the next type in the rotation. Respawn delays carry a random jitter so
// expiries never re-synchronize into waves.
func (g *Game) tickPowerUps(dt float64, now time.Time) {
	for _, pu := range g.powerUps {
		if !pu.Active {
			pu.RespawnTimer -= dt
			if pu.RespawnTimer <= 0 {
				pu.X, pu.Y = g.gmap.RandFloorPos(PowerUpSpawnHeight)
				pu.Active = true
				pu.LifetimeTimer = PowerUpLifetime
				pu.PuType = NextPowerUpType(pu.PuType)
			}
			continue
		}

		pu.LifetimeTimer -= dt
		if pu.LifetimeTimer <= 0 {
			pu.deactivate()
			g.broadcastLocked(PowerUpExpiredMsg{Type: MsgPowerUpExpired, PuID: pu.ID})
			continue
		}

		for _, plr := range g.players {
			if !plr.Alive {
				continue
			}
			if !RectOverlap(plr.X, plr.Y, PlayerW, PlayerH, pu.X, pu.Y, PowerUpW, PowerUpH) {
				continue
			}
			pu.deactivate()
			duration := PowerUpDurations[pu.PuType]
			// Server-enforced effects update before the pickup event goes
			// out; speed/jump variants are client-side movement tuning.
			switch pu.PuType {
			case "shield":
				plr.ShieldUntil = now.Add(time.Duration(duration * float64(time.Second)))
			case "rapid_fire":
				plr.RapidFireUntil = now.Add(time.Duration(duration * float64(time.Second)))
			}
			g.broadcastLocked(PowerUpPickupMsg{
				Type:     MsgPowerUpPickup,
				PuID:     pu.ID,
				PuType:   pu.PuType,
				PlayerID: plr.ID,
				Duration: duration,
			})
			log.Printf("player %d picked up %s", plr.ID, pu.PuType)
			break
		}
	}
}

// tickDrops ages dropped weapons. Expired drops vanish; pickup stays an
// explicit client intent, so no collection happens here.
func (g *Game) tickDrops(dt float64) {
	for id, drop := range g.drops {
		if drop.PickupDelay > 0 {
			drop.PickupDelay -= dt
		}
		drop.Lifetime -= dt
		if drop.Lifetime <= 0 {
			delete(g.drops, id)
			g.broadcastLocked(WeaponGoneMsg{Type: MsgWeaponGone, DropID: id})
		}
	}
}

// buildWorldLocked assembles the full per-tick snapshot.
func (g *Game) buildWorldLocked(now time.Time) WorldMsg {
	world := WorldMsg{
		Type:           MsgWorld,
		Tick:           g.tick,
		Players:        make(map[string]PlayerSnapshot, len(g.players)),
		Projectiles:    make(map[string]ProjectileSnapshot, len(g.projectiles)),
		PowerUps:       make(map[string]PowerUpSnapshot, len(g.powerUps)),
		DroppedWeapons: make(map[string]DroppedWeaponSnapshot, len(g.drops)),
		Objects:        make(map[string]BreakableSnapshot, len(g.objects)),
		TeamKills:      make(map[string]int, len(g.teamKills)),
	}
	for id, p := range g.players {
		world.Players[strconv.Itoa(id)] = p.ToSnapshot(now)
	}
	for id, proj := range g.projectiles {
		world.Projectiles[strconv.Itoa(id)] = proj.ToSnapshot()
	}
	for id, pu := range g.powerUps {
		world.PowerUps[strconv.Itoa(id)] = pu.ToSnapshot()
	}
	for id, drop := range g.drops {
		world.DroppedWeapons[strconv.Itoa(id)] = drop.ToSnapshot()
	}
	for id, obj := range g.objects {
		world.Objects[strconv.Itoa(id)] = obj.ToSnapshot()
	}
	for team, kills := range g.teamKills {
		world.TeamKills[strconv.Itoa(team)] = kills
	}
	return world
}

// broadcastWorldLocked sends the snapshot to every player connection and,
// msgpack-encoded, to any attached spectators.
func (g *Game) broadcastWorldLocked(now time.Time) {
	world := g.buildWorldLocked(now)

	data, err := json.Marshal(world)
	if err != nil {
		log.Printf("world marshal error: %v", err)
		return
	}
	data = append(data, '\n')
	for _, client := range g.clients {
		if c, ok := client.(*Client); ok {
			c.SendRaw(data)
		} else {
			client.SendJSON(world)
		}
	}

	if len(g.spectators) > 0 {
		g.sendSpectatorFrameLocked(world)
	}
}
