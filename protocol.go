package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin       = "join"
	MsgSelectTeam = "select_team"
	MsgReady      = "ready"
	MsgState      = "state"
	MsgThrow      = "throw"
	MsgBuyWeapon  = "buy_weapon"
	MsgPickWeapon = "pick_weapon"
	MsgFellOff    = "fell_off"
)

// Server -> Client message types
const (
	MsgWelcome         = "welcome"
	MsgJoinFailed      = "join_failed"
	MsgLobbyUpdate     = "lobby_update"
	MsgGameStart       = "game_start"
	MsgWorld           = "world"
	MsgProjectileSpawn = "projectile_spawn"
	MsgProjectileHit   = "projectile_hit"
	MsgPlayerKilled    = "player_killed"
	MsgObjectHit       = "object_hit"
	MsgObjectDestroyed = "object_destroyed"
	MsgRespawn         = "respawn"
	MsgPowerUpPickup   = "powerup_pickup"
	MsgPowerUpExpired  = "powerup_expired"
	MsgWeaponDropped   = "weapon_dropped"
	MsgWeaponPickup    = "weapon_pickup"
	MsgWeaponGone      = "weapon_gone"
	MsgWeaponBought    = "weapon_bought"
	MsgCoinsUpdate     = "coins_update"
	MsgBuyFailed       = "buy_failed"
	MsgGameOver        = "game_over"
	MsgPlayerLeft      = "player_left"
)

// typeHeader peeks the tag of an inbound message before the full decode
type typeHeader struct {
	Type string `json:"type"`
}

// MessageType returns the type tag of a raw inbound line, or "" if the
// line is not a JSON object with a type field.
func MessageType(raw []byte) string {
	var h typeHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return ""
	}
	return h.Type
}

// Inbound payloads, one struct per wire type

type JoinMsg struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

type SelectTeamMsg struct {
	TeamID int `json:"team_id"`
}

type ReadyMsg struct {
	Ready *bool `json:"ready"` // nil means true, matching the reference client
}

type StateMsg struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	OnGround bool    `json:"on_ground"`
	Facing   string  `json:"facing"`
}

type ThrowMsg struct {
	Facing string `json:"facing"`
}

type BuyWeaponMsg struct {
	WeaponID string `json:"weapon_id"`
}

type PickWeaponMsg struct {
	DropID int `json:"drop_id"`
}

// Outbound messages. Every struct carries its own type tag so a single
// json.Marshal produces a complete wire line.

type WelcomeMsg struct {
	Type     string `json:"type"`
	PlayerID int    `json:"player_id"`
	NumTeams int    `json:"num_teams"`
	MaxHP    int    `json:"max_hp"`
}

type JoinFailedMsg struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type LobbyPlayerInfo struct {
	Name   string `json:"name"`
	TeamID int    `json:"team_id"`
	Ready  bool   `json:"ready"`
}

type LobbyUpdateMsg struct {
	Type        string                     `json:"type"`
	Players     map[string]LobbyPlayerInfo `json:"players"`
	TeamCounts  map[string]int             `json:"team_counts"`
	TeamNames   []string                   `json:"team_names"`
	GameStarted bool                       `json:"game_started"`
}

type GameStartMsg struct {
	Type      string               `json:"type"`
	SpawnX    float64              `json:"spawn_x"`
	SpawnY    float64              `json:"spawn_y"`
	ShopX     float64              `json:"shop_x"`
	ShopY     float64              `json:"shop_y"`
	Weapons   map[string]WeaponDef `json:"weapons"`
	KillLimit int                  `json:"kill_limit"`
}

type ProjectileSpawnMsg struct {
	Type     string  `json:"type"`
	ProjID   int     `json:"proj_id"`
	OwnerID  int     `json:"owner_id"`
	TeamID   int     `json:"team_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	WeaponID string  `json:"weapon_id"`
}

type ProjectileHitMsg struct {
	Type     string `json:"type"`
	ProjID   int    `json:"proj_id"`
	VictimID int    `json:"victim_id"`
	Damage   int    `json:"damage"`
	HP       int    `json:"hp"`
}

type PlayerKilledMsg struct {
	Type     string `json:"type"`
	VictimID int    `json:"victim_id"`
	KillerID int    `json:"killer_id"` // -1 for environment kills
}

type ObjectHitMsg struct {
	Type   string `json:"type"`
	ObjID  int    `json:"obj_id"`
	Damage int    `json:"damage"`
	HP     int    `json:"hp"`
}

type ObjectDestroyedMsg struct {
	Type  string `json:"type"`
	ObjID int    `json:"obj_id"`
	ByID  int    `json:"by_id"`
	Coins int    `json:"coins"`
}

type RespawnMsg struct {
	Type     string  `json:"type"`
	PlayerID int     `json:"player_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	HP       int     `json:"hp"`
	Weapon   string  `json:"weapon"`
	Coins    int     `json:"coins"`
}

type PowerUpPickupMsg struct {
	Type     string  `json:"type"`
	PuID     int     `json:"pu_id"`
	PuType   string  `json:"pu_type"`
	PlayerID int     `json:"player_id"`
	Duration float64 `json:"duration"`
}

type PowerUpExpiredMsg struct {
	Type string `json:"type"`
	PuID int    `json:"pu_id"`
}

type WeaponDroppedMsg struct {
	Type     string  `json:"type"`
	DropID   int     `json:"drop_id"`
	WeaponID string  `json:"weapon_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type WeaponPickupMsg struct {
	Type     string `json:"type"`
	DropID   int    `json:"drop_id"`
	PlayerID int    `json:"player_id"`
	WeaponID string `json:"weapon_id"`
}

type WeaponGoneMsg struct {
	Type   string `json:"type"`
	DropID int    `json:"drop_id"`
}

type WeaponBoughtMsg struct {
	Type     string `json:"type"`
	WeaponID string `json:"weapon_id"`
	Coins    int    `json:"coins"`
}

type CoinsUpdateMsg struct {
	Type  string `json:"type"`
	Coins int    `json:"coins"`
}

type BuyFailedMsg struct {
	Type   string `json:"type"`
	Reason string `json:"reason"` // "too_far" or "insufficient_coins"
}

type GameOverMsg struct {
	Type       string `json:"type"`
	WinnerTeam int    `json:"winner_team"`
	TeamColor  [3]int `json:"team_color"`
}

type PlayerLeftMsg struct {
	Type     string `json:"type"`
	PlayerID int    `json:"player_id"`
}

// World snapshot, broadcast every tick. Maps are keyed by decimal entity
// id so clients can diff against their local caches.

type PlayerSnapshot struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	VX           float64 `json:"vx"`
	VY           float64 `json:"vy"`
	Facing       string  `json:"facing"`
	TeamID       int     `json:"team_id"`
	TeamColor    [3]int  `json:"team_color"`
	Alive        bool    `json:"alive"`
	Name         string  `json:"name"`
	HP           int     `json:"hp"`
	ShieldActive bool    `json:"shield_active"`
	Weapon       string  `json:"weapon"`
	Coins        int     `json:"coins"`
	Kills        int     `json:"kills"`
	ReloadLeft   float64 `json:"reload_left"`
}

type ProjectileSnapshot struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	TeamID   int     `json:"team_id"`
	WeaponID string  `json:"weapon_id"`
}

type PowerUpSnapshot struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	PuType   string  `json:"type"`
	Active   bool    `json:"active"`
	Lifetime float64 `json:"lifetime"`
}

type DroppedWeaponSnapshot struct {
	WeaponID string  `json:"weapon_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Lifetime float64 `json:"lifetime"`
}

type BreakableSnapshot struct {
	ObjType string  `json:"obj_type"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	HP      int     `json:"hp"`
	MaxHP   int     `json:"max_hp"`
	Alive   bool    `json:"alive"`
}

type WorldMsg struct {
	Type           string                           `json:"type"`
	Tick           uint64                           `json:"tick"`
	Players        map[string]PlayerSnapshot        `json:"players"`
	Projectiles    map[string]ProjectileSnapshot    `json:"projectiles"`
	PowerUps       map[string]PowerUpSnapshot       `json:"power_ups"`
	DroppedWeapons map[string]DroppedWeaponSnapshot `json:"dropped_weapons"`
	Objects        map[string]BreakableSnapshot     `json:"objects"`
	TeamKills      map[string]int                   `json:"team_kills"`
}
