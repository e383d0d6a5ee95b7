package main

import (
	"testing"
	"time"
)

const testDt = 1.0 / 20.0

// spawnTestProjectile inserts a bullet directly into the store.
func spawnTestProjectile(g *Game, owner, team int, x, y, vx float64, weaponID string) *Projectile {
	w := WeaponOrDefault(weaponID)
	id := g.nextProjID
	g.nextProjID++
	proj := &Projectile{
		ID: id, OwnerID: owner, TeamID: team,
		X: x, Y: y, VX: vx,
		Lifetime: ProjectileLifetime,
		Damage:   w.Damage,
		WeaponID: weaponID,
		RangePx:  w.RangePx,
	}
	g.projectiles[id] = proj
	return proj
}

func TestSubStepCatchesFastProjectile(t *testing.T) {
	g := newTestGame()
	id0, id1, _, _ := startTwoPlayerGame(t, g)
	victim := g.players[id1]
	victim.ShieldUntil = time.Time{}

	// A sniper round moves 42 px per tick, far wider than the 5 px player
	// hitbox. Put the victim in the middle of this tick's travel window.
	victim.X, victim.Y = 120, 200
	spawnTestProjectile(g, id0, 0, 100, victim.Y, Weapons["sniper"].BulletSpeed, "sniper")

	g.tickProjectiles(testDt, time.Now())

	if victim.HP != PlayerMaxHP-Weapons["sniper"].Damage {
		t.Errorf("victim HP = %d, fast projectile tunneled through", victim.HP)
	}
	if len(g.projectiles) != 0 {
		t.Error("projectile should be consumed by the hit")
	}
}

func TestProjectileExpiresAtRange(t *testing.T) {
	g := newTestGame()
	id0, id1, _, _ := startTwoPlayerGame(t, g)
	victim := g.players[id1]
	victim.ShieldUntil = time.Time{}

	// Victim sits just past the pistol's 240 px range.
	victim.X, victim.Y = 100+245, 200
	proj := spawnTestProjectile(g, id0, 0, 100, victim.Y, Weapons["pistol"].BulletSpeed, "pistol")

	for i := 0; i < 40 && len(g.projectiles) > 0; i++ {
		g.tickProjectiles(testDt, time.Now())
		if proj.Dist > proj.RangePx+MaxSubStep {
			t.Fatalf("traveled %v px past range %v", proj.Dist, proj.RangePx)
		}
	}
	if len(g.projectiles) != 0 {
		t.Fatal("projectile outlived its range")
	}
	if victim.HP != PlayerMaxHP {
		t.Error("projectile hit a target beyond its range")
	}
}

func TestProjectileIgnoresOwnerAndTeammates(t *testing.T) {
	g := newTestGame()
	id0, _, _, _ := startTwoPlayerGame(t, g)
	shooter := g.players[id0]
	shooter.ShieldUntil = time.Time{}
	shooter.X, shooter.Y = 120, 200

	proj := spawnTestProjectile(g, id0, shooter.TeamID, 100, shooter.Y, 7, "pistol")
	g.tickProjectiles(testDt, time.Now())

	if shooter.HP != PlayerMaxHP {
		t.Error("projectile hit its own team")
	}
	if _, ok := g.projectiles[proj.ID]; !ok {
		t.Error("projectile should fly on through teammates")
	}
}

func TestShieldBlocksDamage(t *testing.T) {
	g := newTestGame()
	id0, id1, _, _ := startTwoPlayerGame(t, g)
	victim := g.players[id1]
	victim.ShieldUntil = time.Now().Add(5 * time.Second)
	victim.X, victim.Y = 120, 200

	spawnTestProjectile(g, id0, 0, 100, victim.Y, 7, "pistol")
	g.tickProjectiles(testDt, time.Now())

	if victim.HP != PlayerMaxHP {
		t.Errorf("shielded victim took damage, HP = %d", victim.HP)
	}
}

func TestLethalHitKillsAndScores(t *testing.T) {
	g := newTestGame()
	id0, id1, _, _ := startTwoPlayerGame(t, g)
	victim := g.players[id1]
	victim.ShieldUntil = time.Time{}
	victim.HP = 10
	victim.X, victim.Y = 120, 200

	spawnTestProjectile(g, id0, 0, 100, victim.Y, 7, "pistol")
	g.tickProjectiles(testDt, time.Now())

	if victim.Alive {
		t.Error("victim should be dead")
	}
	if g.players[id0].Kills != 1 || g.teamKills[0] != 1 {
		t.Error("lethal hit not scored")
	}
}

func TestProjectileStopsAtBreakable(t *testing.T) {
	g := newTestGame()
	id0, _, m0, _ := startTwoPlayerGame(t, g)

	obj := NewBreakable(0, "barrel", 120, 200)
	g.objects = map[int]*Breakable{0: obj}

	spawnTestProjectile(g, id0, 0, 100, 205, 7, "pistol")
	g.tickProjectiles(testDt, time.Now())

	if obj.HP != 40-Weapons["pistol"].Damage {
		t.Errorf("barrel HP = %d after pistol hit", obj.HP)
	}
	if len(g.projectiles) != 0 {
		t.Error("projectile should be consumed by the object")
	}
	if _, ok := m0.lastOfType(MsgObjectHit).(ObjectHitMsg); !ok {
		t.Error("no object_hit broadcast")
	}
}

func TestObjectDestructionAwardsCoins(t *testing.T) {
	g := newTestGame()
	id0, _, m0, _ := startTwoPlayerGame(t, g)
	shooter := g.players[id0]

	obj := NewBreakable(0, "crate", 120, 200)
	g.objects = map[int]*Breakable{0: obj}

	spawnTestProjectile(g, id0, 0, 100, 205, 14, "sniper")
	g.tickProjectiles(testDt, time.Now())

	if obj.Alive {
		t.Fatal("crate should be destroyed by 70 damage")
	}
	def := BreakableTypes["crate"]
	earned := shooter.Coins - StartingCoins
	if earned < def.CoinMin || earned > def.CoinMax {
		t.Errorf("coin reward %d outside [%d,%d]", earned, def.CoinMin, def.CoinMax)
	}
	destroyed, ok := m0.lastOfType(MsgObjectDestroyed).(ObjectDestroyedMsg)
	if !ok || destroyed.ByID != id0 {
		t.Errorf("unexpected object_destroyed: %+v", destroyed)
	}

	// Destroyed objects stop blocking shots.
	spawnTestProjectile(g, id0, 0, 100, 205, 7, "pistol")
	g.tickProjectiles(testDt, time.Now())
	if len(g.projectiles) != 1 {
		t.Error("projectile should pass through a destroyed object")
	}
}

func TestRespawnRestoresPlayer(t *testing.T) {
	g := newTestGame()
	_, id1, _, m1 := startTwoPlayerGame(t, g)
	victim := g.players[id1]
	g.killPlayerLocked(victim, -1, "", time.Now())

	// Not yet: timer still running.
	g.tickRespawns(testDt, time.Now())
	if victim.Alive {
		t.Fatal("respawned too early")
	}

	victim.RespawnTimer = 0.01
	g.tickRespawns(testDt, time.Now())
	if !victim.Alive {
		t.Fatal("respawn timer elapsed but player still dead")
	}
	if victim.HP != PlayerMaxHP {
		t.Errorf("respawned with %d HP", victim.HP)
	}
	if !victim.Shielded(time.Now()) {
		t.Error("respawn should grant a shield window")
	}
	re, ok := m1.lastOfType(MsgRespawn).(RespawnMsg)
	if !ok || re.PlayerID != id1 {
		t.Errorf("unexpected respawn broadcast: %+v", re)
	}
	if re.X != victim.X || re.Y != victim.Y {
		t.Error("respawn broadcast position differs from player position")
	}
}

func TestFallDeathServerSide(t *testing.T) {
	g := newTestGame()
	_, id1, _, _ := startTwoPlayerGame(t, g)
	victim := g.players[id1]
	victim.Y = g.gmap.PixelHeight() + 1

	g.tickFallDeaths(time.Now())
	if victim.Alive {
		t.Error("player below the map should die")
	}
	if g.teamKills[0] != 0 && g.teamKills[1] != 0 {
		t.Error("fall death credited a team")
	}
}

func TestPowerUpExpiryAndRotation(t *testing.T) {
	g := newTestGame()
	startTwoPlayerGame(t, g)
	pu := &PowerUp{ID: 0, PuType: "speed", X: -500, Y: -500, Active: true, LifetimeTimer: 0.01}
	g.powerUps = map[int]*PowerUp{0: pu}

	g.tickPowerUps(testDt, time.Now())
	if pu.Active {
		t.Fatal("power-up should expire")
	}
	if pu.RespawnTimer < PowerUpRespawnTime || pu.RespawnTimer > PowerUpRespawnTime+PowerUpRespawnJit {
		t.Errorf("respawn delay %v outside jitter window", pu.RespawnTimer)
	}

	pu.RespawnTimer = 0.01
	g.tickPowerUps(testDt, time.Now())
	if !pu.Active {
		t.Fatal("power-up should respawn")
	}
	if pu.PuType != "jump" {
		t.Errorf("respawned as %q, want next type jump", pu.PuType)
	}
	if pu.LifetimeTimer != PowerUpLifetime {
		t.Errorf("respawned with lifetime %v", pu.LifetimeTimer)
	}
}

func TestPowerUpPickupAppliesEffect(t *testing.T) {
	g := newTestGame()
	id0, _, m0, _ := startTwoPlayerGame(t, g)
	p := g.players[id0]
	p.ShieldUntil = time.Time{}

	g.powerUps = map[int]*PowerUp{
		0: {ID: 0, PuType: "rapid_fire", X: p.X, Y: p.Y, Active: true, LifetimeTimer: 10},
	}
	now := time.Now()
	g.tickPowerUps(testDt, now)

	if g.powerUps[0].Active {
		t.Error("collected power-up should deactivate")
	}
	if !p.RapidFireUntil.After(now) {
		t.Error("rapid fire window not applied")
	}
	pick, ok := m0.lastOfType(MsgPowerUpPickup).(PowerUpPickupMsg)
	if !ok || pick.PlayerID != id0 || pick.PuType != "rapid_fire" {
		t.Errorf("unexpected powerup_pickup: %+v", pick)
	}
	if pick.Duration != PowerUpDurations["rapid_fire"] {
		t.Errorf("duration %v, want %v", pick.Duration, PowerUpDurations["rapid_fire"])
	}
}

func TestRapidFireHalvesReload(t *testing.T) {
	g := newTestGame()
	id0, _, _, _ := startTwoPlayerGame(t, g)
	p := g.players[id0]
	now := time.Now()
	p.RapidFireUntil = now.Add(5 * time.Second)

	g.spawnProjectileLocked(p, FacingRight, now)

	want := Weapons["pistol"].ReloadTime * RapidFireReloadMul
	got := p.ReloadUntil.Sub(now).Seconds()
	if got < want-0.001 || got > want+0.001 {
		t.Errorf("reload %v s under rapid fire, want %v", got, want)
	}
}

func TestDroppedWeaponLifecycle(t *testing.T) {
	g := newTestGame()
	_, _, m0, _ := startTwoPlayerGame(t, g)

	g.drops[0] = &DroppedWeapon{ID: 0, WeaponID: "auto", X: 0, Y: 0, Lifetime: 0.01, PickupDelay: DropPickupDelay}
	g.tickDrops(testDt)

	if len(g.drops) != 0 {
		t.Error("expired drop still present")
	}
	gone, ok := m0.lastOfType(MsgWeaponGone).(WeaponGoneMsg)
	if !ok || gone.DropID != 0 {
		t.Errorf("unexpected weapon_gone: %+v", gone)
	}
}

func TestDropPickupDelayCountsDown(t *testing.T) {
	g := newTestGame()
	startTwoPlayerGame(t, g)

	drop := &DroppedWeapon{ID: 0, WeaponID: "auto", Lifetime: 10, PickupDelay: DropPickupDelay}
	g.drops[0] = drop

	for i := 0; i < 13; i++ { // 0.65 s of ticks
		g.tickDrops(testDt)
	}
	if !drop.Collectible() {
		t.Errorf("drop not collectible after delay, PickupDelay=%v", drop.PickupDelay)
	}
}

func TestWorldSnapshotShape(t *testing.T) {
	g := newTestGame()
	id0, _, _, _ := startTwoPlayerGame(t, g)
	g.tick = 42

	world := g.buildWorldLocked(time.Now())
	if world.Type != MsgWorld || world.Tick != 42 {
		t.Errorf("snapshot header: %q tick %d", world.Type, world.Tick)
	}
	if len(world.Players) != 2 {
		t.Errorf("%d players in snapshot", len(world.Players))
	}
	if len(world.PowerUps) != NumPowerUps || len(world.Objects) != len(BreakableLayout) {
		t.Error("seeded entities missing from snapshot")
	}
	if len(world.TeamKills) != g.cfg.NumTeams {
		t.Errorf("%d team kill entries, want %d", len(world.TeamKills), g.cfg.NumTeams)
	}
	ps, ok := world.Players["0"]
	if !ok {
		t.Fatalf("player %d missing from snapshot map", id0)
	}
	if ps.Name != "alice" || !ps.Alive {
		t.Errorf("unexpected player snapshot: %+v", ps)
	}
}

func TestUpdateIdleBeforeStart(t *testing.T) {
	g := newTestGame()
	joinPlayer(t, g, "alice")
	g.update(testDt)
	if g.tick != 0 {
		t.Error("tick counter must not advance before the match starts")
	}
}
