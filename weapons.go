package main

// Shop sits on top of the center platform.
const (
	ShopX      = 464.0
	ShopY      = 256.0
	ShopRadius = 60.0
)

const (
	KillCoinReward    = 15
	StartingCoins     = 30
	DroppedWeaponLife = 20.0 // seconds before an uncollected drop despawns
	DropPickupDelay   = 0.6  // seconds before a fresh drop becomes collectible
)

const DefaultWeapon = "pistol"

// WeaponDef holds the stats for one weapon. The whole table is sent to
// clients in game_start so the server stays the single source of truth.
type WeaponDef struct {
	Name        string  `json:"name"`
	FireMode    string  `json:"fire_mode"` // "semi" or "auto"
	Damage      int     `json:"damage"`
	RangePx     float64 `json:"range_px"`
	ReloadTime  float64 `json:"reload_time"`
	BulletSpeed float64 `json:"bullet_speed"`
	Pellets     int     `json:"pellets"`
	Spread      float64 `json:"spread"`
	Price       int     `json:"price"`
	Color       [3]int  `json:"color"`
}

var Weapons = map[string]WeaponDef{
	"pistol": {
		Name: "Pistol", FireMode: "semi",
		Damage: 20, RangePx: 240, ReloadTime: 0.40,
		BulletSpeed: 7.0, Pellets: 1, Spread: 0,
		Price: 0, Color: [3]int{210, 210, 210},
	},
	"auto": {
		Name: "Auto", FireMode: "auto",
		Damage: 12, RangePx: 280, ReloadTime: 0.10,
		BulletSpeed: 8.0, Pellets: 1, Spread: 0,
		Price: 50, Color: [3]int{255, 200, 50},
	},
	"semi_auto": {
		Name: "Semi-Auto", FireMode: "semi",
		Damage: 28, RangePx: 320, ReloadTime: 0.30,
		BulletSpeed: 9.0, Pellets: 1, Spread: 0,
		Price: 60, Color: [3]int{80, 200, 255},
	},
	"sniper": {
		Name: "Sniper", FireMode: "semi",
		Damage: 70, RangePx: 800, ReloadTime: 1.80,
		BulletSpeed: 14.0, Pellets: 1, Spread: 0,
		Price: 80, Color: [3]int{255, 50, 50},
	},
	"shotgun": {
		Name: "Shotgun", FireMode: "semi",
		Damage: 18, RangePx: 130, ReloadTime: 0.90,
		BulletSpeed: 6.0, Pellets: 5, Spread: 3,
		Price: 70, Color: [3]int{255, 140, 40},
	},
}

// WeaponOrDefault returns the definition for id, falling back to the
// pistol for unknown ids.
func WeaponOrDefault(id string) WeaponDef {
	if w, ok := Weapons[id]; ok {
		return w
	}
	return Weapons[DefaultWeapon]
}

// Teams

var TeamColors = [][3]int{
	{220, 60, 60},
	{60, 100, 220},
	{60, 200, 60},
	{220, 180, 50},
	{180, 60, 220},
	{60, 200, 200},
}

var TeamNames = []string{"Red", "Blue", "Green", "Yellow", "Purple", "Cyan"}

// TeamColor returns the display color for a team id.
func TeamColor(teamID int) [3]int {
	if teamID < 0 {
		return [3]int{200, 200, 200}
	}
	return TeamColors[teamID%len(TeamColors)]
}

// Fixed spawn slots per team on the default map: team 0 on the left base
// platform, team 1 on the right, team 2 on the center platform.
var TeamSpawnAreas = map[int][][2]float64{
	0: {{48, 339}, {64, 339}, {80, 339}},
	1: {{896, 339}, {880, 339}, {864, 339}},
	2: {{400, 243}, {416, 243}, {432, 243}},
}
