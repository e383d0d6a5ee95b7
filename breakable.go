package main

// BreakableTypeDef holds the stats for one breakable object type.
type BreakableTypeDef struct {
	HP      int
	W, H    float64
	CoinMin int // coin reward range for destroying it
	CoinMax int
}

var BreakableTypes = map[string]BreakableTypeDef{
	"tree":   {HP: 60, W: 12, H: 24, CoinMin: 5, CoinMax: 10},
	"barrel": {HP: 40, W: 10, H: 12, CoinMin: 8, CoinMax: 15},
	"crate":  {HP: 30, W: 12, H: 12, CoinMin: 10, CoinMax: 20},
}

// BreakableLayout places objects on the default map at match start.
// Positions are top-left corners resting on platform or ground tops.
var BreakableLayout = []struct {
	ObjType string
	X, Y    float64
}{
	{"tree", 192, 424},
	{"tree", 832, 424},
	{"barrel", 352, 436},
	{"barrel", 656, 436},
	{"crate", 256, 436},
	{"crate", 752, 436},
	{"crate", 240, 292},
}

// Breakable is a destructible map object. Destroyed permanently once HP
// reaches zero; the last hitter collects the coin reward.
type Breakable struct {
	ID      int
	ObjType string
	X, Y    float64
	HP      int
	MaxHP   int
	Alive   bool
}

// NewBreakable creates a breakable of the given type at (x, y).
func NewBreakable(id int, objType string, x, y float64) *Breakable {
	def := BreakableTypes[objType]
	return &Breakable{
		ID:      id,
		ObjType: objType,
		X:       x,
		Y:       y,
		HP:      def.HP,
		MaxHP:   def.HP,
		Alive:   true,
	}
}

// Size returns the hitbox dimensions for the object's type.
func (b *Breakable) Size() (w, h float64) {
	def := BreakableTypes[b.ObjType]
	return def.W, def.H
}

// ToSnapshot converts to the per-tick wire representation.
func (b *Breakable) ToSnapshot() BreakableSnapshot {
	return BreakableSnapshot{
		ObjType: b.ObjType,
		X:       b.X,
		Y:       b.Y,
		HP:      b.HP,
		MaxHP:   b.MaxHP,
		Alive:   b.Alive,
	}
}
