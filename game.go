package main

import (
	"encoding/json"
	"log"
	"math/rand"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	KillLimit  = 15
	maxNameLen = 16
)

// Config is read once at startup and immutable afterwards.
type Config struct {
	NumTeams   int
	MaxPlayers int
	TickRate   int
	KillLimit  int
	PassHash   []byte // bcrypt hash of the join password; nil = open server
}

// DefaultConfig returns the standard 3-team LAN arena settings.
func DefaultConfig() Config {
	return Config{
		NumTeams:   3,
		MaxPlayers: 6,
		TickRate:   20,
		KillLimit:  KillLimit,
	}
}

// Broadcaster is the outbound side of a connection, mockable in tests.
type Broadcaster interface {
	SendJSON(msg any)
}

// Game owns every simulation entity. All mutation runs under one mutex,
// taken by connection readers (Dispatch) and the tick loop alike.
type Game struct {
	mu   sync.Mutex
	cfg  Config
	gmap *GameMap

	players     map[int]*Player
	clients     map[int]Broadcaster
	projectiles map[int]*Projectile
	powerUps    map[int]*PowerUp
	drops       map[int]*DroppedWeapon
	objects     map[int]*Breakable
	teamKills   map[int]int

	spectators map[*Spectator]bool

	nextID     int
	nextProjID int
	nextDropID int

	tick      uint64
	started   bool
	over      bool
	startedAt time.Time

	stats *Stats

	done chan struct{} // closed when the match ends
	stop chan struct{} // closed by Stop
}

// NewGame creates a game over the given map. stats may be nil.
func NewGame(cfg Config, gmap *GameMap, stats *Stats) *Game {
	return &Game{
		cfg:         cfg,
		gmap:        gmap,
		players:     make(map[int]*Player),
		clients:     make(map[int]Broadcaster),
		projectiles: make(map[int]*Projectile),
		powerUps:    make(map[int]*PowerUp),
		drops:       make(map[int]*DroppedWeapon),
		objects:     make(map[int]*Breakable),
		teamKills:   make(map[int]int),
		spectators:  make(map[*Spectator]bool),
		stats:       stats,
		done:        make(chan struct{}),
		stop:        make(chan struct{}),
	}
}

// Done is closed when the match has been decided.
func (g *Game) Done() <-chan struct{} { return g.done }

// Admit registers a new connection and assigns it a player id. Returns
// false when the server is full or a match is already running; the caller
// must then close the connection. Player ids are monotonic and never
// reused.
func (g *Game) Admit(b Broadcaster) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started || g.over || len(g.clients) >= g.cfg.MaxPlayers {
		return 0, false
	}
	id := g.nextID
	g.nextID++
	g.clients[id] = b
	return id, true
}

// errCloseConn tells the read loop to drop the connection.
type closeConnError struct{ reason string }

func (e *closeConnError) Error() string { return "closing connection: " + e.reason }

// Dispatch validates and applies one inbound message for playerID.
// A non-nil return means the connection should be closed; per-message
// validation failures never produce one.
func (g *Game) Dispatch(playerID int, raw []byte) error {
	mtype := MessageType(raw)
	if mtype == "" {
		return nil // malformed line, drop silently
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	switch mtype {
	case MsgJoin:
		return g.handleJoin(playerID, raw)
	case MsgSelectTeam:
		g.handleSelectTeam(playerID, raw)
	case MsgReady:
		g.handleReady(playerID, raw)
	case MsgState:
		g.handleState(playerID, raw)
	case MsgThrow:
		g.handleThrow(playerID, raw)
	case MsgBuyWeapon:
		g.handleBuyWeapon(playerID, raw)
	case MsgPickWeapon:
		g.handlePickWeapon(playerID, raw)
	case MsgFellOff:
		g.handleFellOff(playerID)
	default:
		// unknown type, drop silently
	}
	return nil
}

func (g *Game) handleJoin(playerID int, raw []byte) error {
	if _, ok := g.players[playerID]; ok {
		return nil
	}
	var msg JoinMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil
	}
	if g.cfg.PassHash != nil {
		if bcrypt.CompareHashAndPassword(g.cfg.PassHash, []byte(msg.Password)) != nil {
			g.sendToLocked(playerID, JoinFailedMsg{Type: MsgJoinFailed, Reason: "bad_password"})
			return &closeConnError{reason: "bad password"}
		}
	}
	name := msg.Name
	if name == "" {
		name = "Player" + strconv.Itoa(playerID)
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	p := NewPlayer(playerID, name)
	g.players[playerID] = p
	log.Printf("player %d (%s) joined lobby", playerID, name)
	g.sendToLocked(playerID, WelcomeMsg{
		Type:     MsgWelcome,
		PlayerID: playerID,
		NumTeams: g.cfg.NumTeams,
		MaxHP:    PlayerMaxHP,
	})
	g.broadcastLocked(g.lobbyInfoLocked())
	return nil
}

func (g *Game) handleSelectTeam(playerID int, raw []byte) {
	p := g.players[playerID]
	if p == nil || g.started {
		return
	}
	var msg SelectTeamMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if msg.TeamID >= 0 && msg.TeamID < g.cfg.NumTeams {
		count := 0
		for _, pp := range g.players {
			if pp.TeamID == msg.TeamID {
				count++
			}
		}
		maxPerTeam := g.cfg.MaxPlayers / g.cfg.NumTeams
		if maxPerTeam < 1 {
			maxPerTeam = 1
		}
		if count < maxPerTeam || p.TeamID == msg.TeamID {
			p.TeamID = msg.TeamID
			p.Ready = false
		}
	}
	g.broadcastLocked(g.lobbyInfoLocked())
}

func (g *Game) handleReady(playerID int, raw []byte) {
	p := g.players[playerID]
	if p == nil || g.started || p.TeamID < 0 {
		return
	}
	var msg ReadyMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	p.Ready = msg.Ready == nil || *msg.Ready
	g.broadcastLocked(g.lobbyInfoLocked())
	if g.allReadyLocked() {
		g.startGameLocked()
	}
}

// handleState overwrites the player's kinematic state from the client's
// report. The client is trusted here (see DESIGN.md); the only server-side
// guard is rejecting non-finite values and clamping to the world envelope.
func (g *Game) handleState(playerID int, raw []byte) {
	if !g.started {
		return
	}
	p := g.players[playerID]
	if p == nil || !p.Alive {
		return
	}
	var msg StateMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if !Finite(msg.X) || !Finite(msg.Y) || !Finite(msg.VX) || !Finite(msg.VY) {
		return
	}
	margin := 4.0 * TileSize
	p.X = Clamp(msg.X, -margin, g.gmap.PixelWidth()+margin)
	p.Y = Clamp(msg.Y, -margin, g.gmap.PixelHeight()+margin)
	p.VX = msg.VX
	p.VY = msg.VY
	p.OnGround = msg.OnGround
	if msg.Facing == FacingLeft || msg.Facing == FacingRight {
		p.Facing = msg.Facing
	}
}

func (g *Game) handleThrow(playerID int, raw []byte) {
	if !g.started {
		return
	}
	p := g.players[playerID]
	if p == nil || !p.Alive {
		return
	}
	var msg ThrowMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	facing := msg.Facing
	if facing != FacingLeft && facing != FacingRight {
		facing = p.Facing
	}
	g.spawnProjectileLocked(p, facing, time.Now())
}

// spawnProjectileLocked fires the player's weapon, gated by the reload
// cooldown. Rapid fire halves the cooldown while its window is open.
func (g *Game) spawnProjectileLocked(p *Player, facing string, now time.Time) {
	if now.Before(p.ReloadUntil) {
		return // still reloading, no feedback by design
	}
	weapon := WeaponOrDefault(p.Weapon)
	reload := weapon.ReloadTime
	if now.Before(p.RapidFireUntil) {
		reload *= RapidFireReloadMul
	}
	p.ReloadUntil = now.Add(time.Duration(reload * float64(time.Second)))

	speed := weapon.BulletSpeed
	for i := 0; i < weapon.Pellets; i++ {
		id := g.nextProjID
		g.nextProjID++
		vx := speed
		x := p.X + PlayerW
		if facing == FacingLeft {
			vx = -speed
			x = p.X - ProjectileW
		}
		vy := 0.0
		if weapon.Pellets > 1 {
			vy = -float64(weapon.Pellets-1)/2.0*weapon.Spread + float64(i)*weapon.Spread
		}
		proj := &Projectile{
			ID:       id,
			OwnerID:  p.ID,
			TeamID:   p.TeamID,
			X:        x,
			Y:        p.Y + 5,
			VX:       vx,
			VY:       vy,
			Lifetime: ProjectileLifetime,
			Damage:   weapon.Damage,
			WeaponID: p.Weapon,
			RangePx:  weapon.RangePx,
		}
		g.projectiles[id] = proj
		g.broadcastLocked(ProjectileSpawnMsg{
			Type:     MsgProjectileSpawn,
			ProjID:   id,
			OwnerID:  p.ID,
			TeamID:   p.TeamID,
			X:        proj.X,
			Y:        proj.Y,
			VX:       proj.VX,
			VY:       proj.VY,
			WeaponID: p.Weapon,
		})
	}
}

func (g *Game) handleBuyWeapon(playerID int, raw []byte) {
	if !g.started {
		return
	}
	p := g.players[playerID]
	if p == nil || !p.Alive {
		return
	}
	var msg BuyWeaponMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	weapon, ok := Weapons[msg.WeaponID]
	if !ok {
		return
	}
	// ShopY is the platform top; a player standing on it has y = ShopY - PlayerH.
	if Dist2(p.X, p.Y, ShopX, ShopY-PlayerH) > ShopRadius*ShopRadius {
		g.sendToLocked(playerID, BuyFailedMsg{Type: MsgBuyFailed, Reason: "too_far"})
		return
	}
	if p.Coins < weapon.Price {
		g.sendToLocked(playerID, BuyFailedMsg{Type: MsgBuyFailed, Reason: "insufficient_coins"})
		return
	}
	p.Coins -= weapon.Price
	p.Weapon = msg.WeaponID
	g.sendToLocked(playerID, WeaponBoughtMsg{Type: MsgWeaponBought, WeaponID: msg.WeaponID, Coins: p.Coins})
	log.Printf("player %d bought %s (%d coins left)", playerID, msg.WeaponID, p.Coins)
}

// handlePickWeapon collects a dropped weapon. Pickup is deliberately an
// explicit intent rather than touch-triggered: walking past a drop must
// not swap weapons.
func (g *Game) handlePickWeapon(playerID int, raw []byte) {
	if !g.started {
		return
	}
	p := g.players[playerID]
	if p == nil || !p.Alive {
		return
	}
	var msg PickWeaponMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	drop := g.drops[msg.DropID]
	if drop == nil || !drop.Collectible() {
		return
	}
	if !RectOverlap(p.X, p.Y, PlayerW, PlayerH, drop.X, drop.Y, DropW, DropH) {
		return
	}
	p.Weapon = drop.WeaponID
	delete(g.drops, msg.DropID)
	g.broadcastLocked(WeaponPickupMsg{
		Type:     MsgWeaponPickup,
		DropID:   msg.DropID,
		PlayerID: playerID,
		WeaponID: p.Weapon,
	})
}

func (g *Game) handleFellOff(playerID int) {
	if !g.started {
		return
	}
	p := g.players[playerID]
	if p == nil || !p.Alive {
		return
	}
	g.killPlayerLocked(p, -1, "", time.Now())
}

// Lobby

func (g *Game) lobbyInfoLocked() LobbyUpdateMsg {
	players := make(map[string]LobbyPlayerInfo, len(g.players))
	counts := make(map[string]int)
	for id, p := range g.players {
		players[strconv.Itoa(id)] = LobbyPlayerInfo{Name: p.Name, TeamID: p.TeamID, Ready: p.Ready}
		if p.TeamID >= 0 {
			counts[strconv.Itoa(p.TeamID)]++
		}
	}
	return LobbyUpdateMsg{
		Type:        MsgLobbyUpdate,
		Players:     players,
		TeamCounts:  counts,
		TeamNames:   TeamNames[:g.cfg.NumTeams],
		GameStarted: g.started,
	}
}

func (g *Game) allReadyLocked() bool {
	if len(g.players) < 2 {
		return false
	}
	for _, p := range g.players {
		if p.TeamID < 0 || !p.Ready {
			return false
		}
	}
	return true
}

// startGameLocked moves every player to a team spawn slot, seeds power-ups
// and breakables, and tells each player where they start.
func (g *Game) startGameLocked() {
	g.started = true
	now := time.Now()
	g.startedAt = now

	for t := 0; t < g.cfg.NumTeams; t++ {
		g.teamKills[t] = 0
	}

	slotByTeam := make(map[int]int)
	for _, id := range sortedPlayerIDs(g.players) {
		p := g.players[id]
		spawns, ok := TeamSpawnAreas[p.TeamID]
		if !ok || len(spawns) == 0 {
			spawns = TeamSpawnAreas[0]
		}
		slot := spawns[slotByTeam[p.TeamID]%len(spawns)]
		slotByTeam[p.TeamID]++
		p.X, p.Y = slot[0], slot[1]
		p.VX, p.VY = 0, 0
		p.HP = PlayerMaxHP
		p.Alive = true
		p.Weapon = DefaultWeapon
		p.Coins = StartingCoins
		p.Kills = 0
		p.ReloadUntil = now
		p.ShieldUntil = now.Add(time.Duration(StartShieldTime * float64(time.Second)))
		p.RapidFireUntil = now
	}

	// Staggered initial lifetimes keep the power-ups from all expiring at
	// once and leaving the map empty.
	types := append([]string(nil), PowerUpTypes...)
	rand.Shuffle(len(types), func(i, j int) { types[i], types[j] = types[j], types[i] })
	for i := 0; i < NumPowerUps; i++ {
		x, y := g.gmap.RandFloorPos(PowerUpSpawnHeight)
		g.powerUps[i] = &PowerUp{
			ID:            i,
			PuType:        types[i%len(types)],
			X:             x,
			Y:             y,
			Active:        true,
			LifetimeTimer: PowerUpLifetime * (0.4 + 0.6*float64(i+1)/float64(NumPowerUps)),
		}
	}

	for i, obj := range BreakableLayout {
		g.objects[i] = NewBreakable(i, obj.ObjType, obj.X, obj.Y)
	}

	for _, p := range g.players {
		g.sendToLocked(p.ID, GameStartMsg{
			Type:      MsgGameStart,
			SpawnX:    p.X,
			SpawnY:    p.Y,
			ShopX:     ShopX,
			ShopY:     ShopY,
			Weapons:   Weapons,
			KillLimit: g.cfg.KillLimit,
		})
	}
	g.stats.StartMatch(g.cfg.KillLimit)
	log.Printf("game started with %d players", len(g.players))
}

// Death and win processing

// killPlayerLocked runs the full death sequence: weapon drop, killer
// reward, scoreboard update, broadcast, win check. killerID -1 means an
// environment kill with no credit.
func (g *Game) killPlayerLocked(victim *Player, killerID int, weaponID string, now time.Time) {
	if !victim.Alive {
		return
	}
	victim.Alive = false
	victim.HP = 0
	victim.RespawnTimer = RespawnDelay
	g.dropWeaponLocked(victim)

	killerName := ""
	if killer, ok := g.players[killerID]; ok && killer.ID != victim.ID {
		killer.Coins += KillCoinReward
		killer.Kills++
		if killer.TeamID >= 0 {
			g.teamKills[killer.TeamID]++
		}
		killerName = killer.Name
		g.sendToLocked(killerID, CoinsUpdateMsg{Type: MsgCoinsUpdate, Coins: killer.Coins})
	}
	g.broadcastLocked(PlayerKilledMsg{Type: MsgPlayerKilled, VictimID: victim.ID, KillerID: killerID})
	g.stats.TrackKill(killerID, killerName, victim.ID, victim.Name, weaponID)
	g.checkWinLocked()
}

// dropWeaponLocked leaves the victim's weapon on the ground, pistols
// excepted.
func (g *Game) dropWeaponLocked(p *Player) {
	if p.Weapon == DefaultWeapon {
		return
	}
	id := g.nextDropID
	g.nextDropID++
	drop := &DroppedWeapon{
		ID:          id,
		WeaponID:    p.Weapon,
		X:           p.X,
		Y:           p.Y,
		Lifetime:    DroppedWeaponLife,
		PickupDelay: DropPickupDelay,
	}
	g.drops[id] = drop
	p.Weapon = DefaultWeapon
	g.broadcastLocked(WeaponDroppedMsg{
		Type:     MsgWeaponDropped,
		DropID:   id,
		WeaponID: drop.WeaponID,
		X:        drop.X,
		Y:        drop.Y,
	})
}

// checkWinLocked ends the match when a team reaches the kill limit.
// No-op once the match is already decided, so repeated calls after a
// winning kill never broadcast game_over twice.
func (g *Game) checkWinLocked() {
	if g.over || !g.started {
		return
	}
	for team, kills := range g.teamKills {
		if kills >= g.cfg.KillLimit {
			g.over = true
			g.broadcastLocked(GameOverMsg{
				Type:       MsgGameOver,
				WinnerTeam: team,
				TeamColor:  TeamColor(team),
			})
			g.stats.EndMatch(team, time.Since(g.startedAt))
			log.Printf("game over, team %d wins with %d kills", team, kills)
			close(g.done)
			return
		}
	}
}

// Connection lifecycle

// RemovePlayer drops a player and its connection from the store. Safe to
// call for ids that never joined or were already removed.
func (g *Game) RemovePlayer(playerID int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, hadPlayer := g.players[playerID]
	delete(g.players, playerID)
	delete(g.clients, playerID)
	if !hadPlayer {
		return
	}
	log.Printf("player %d disconnected", playerID)
	g.broadcastLocked(PlayerLeftMsg{Type: MsgPlayerLeft, PlayerID: playerID})
	if !g.started {
		g.broadcastLocked(g.lobbyInfoLocked())
	}
}

// PlayerCount returns the number of joined players.
func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

// Fan-out

// broadcastLocked marshals once and fans the line out to every connection.
func (g *Game) broadcastLocked(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	data = append(data, '\n')
	for _, client := range g.clients {
		if c, ok := client.(*Client); ok {
			c.SendRaw(data)
		} else {
			client.SendJSON(msg)
		}
	}
}

func (g *Game) sendToLocked(playerID int, msg any) {
	client := g.clients[playerID]
	if client == nil {
		return
	}
	client.SendJSON(msg)
}

func sortedPlayerIDs(players map[int]*Player) []int {
	ids := make([]int, 0, len(players))
	for id := range players {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
