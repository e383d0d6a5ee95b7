package main

import "testing"

const testLayout = `00000
00000
00100
00000
11011`

func TestParseMapSolidity(t *testing.T) {
	m := ParseMap(testLayout)

	if m.TileSolid(2, 1) {
		t.Error("empty tile reported solid")
	}
	if !m.TileSolid(2, 2) {
		t.Error("solid tile reported empty")
	}
	// Out of bounds counts as solid in every direction.
	for _, c := range [][2]int{{-1, 0}, {0, -1}, {5, 0}, {0, 5}} {
		if !m.TileSolid(c[0], c[1]) {
			t.Errorf("out-of-bounds tile (%d,%d) reported empty", c[0], c[1])
		}
	}
}

func TestParseMapFloorDerivation(t *testing.T) {
	m := ParseMap(testLayout)

	// (2,2) has two empty tiles above: valid floor. The bottom row tiles
	// under it are shadowed by it, and (2,4) is empty.
	want := map[[2]int]bool{
		{0, 4}: true,
		{1, 4}: true,
		{3, 4}: true,
		{4, 4}: true,
		{2, 2}: true,
	}
	if m.FloorTileCount() != len(want) {
		t.Fatalf("%d floor tiles, want %d", m.FloorTileCount(), len(want))
	}
	for _, tile := range m.floor {
		if !want[tile] {
			t.Errorf("unexpected floor tile %v", tile)
		}
	}
}

func TestRandFloorPosRestsOnFloor(t *testing.T) {
	m := ParseMap(DefaultMapLayout)
	for i := 0; i < 50; i++ {
		x, y := m.RandFloorPos(13)
		col := int(x) / TileSize
		row := (int(y) + 13) / TileSize
		if !m.TileSolid(col, row) {
			t.Fatalf("spawn (%v,%v) does not rest on a solid tile", x, y)
		}
		if m.TileSolid(col, row-1) || m.TileSolid(col, row-2) {
			t.Fatalf("spawn (%v,%v) lacks headroom", x, y)
		}
	}
}

func TestRandFloorPosFallback(t *testing.T) {
	m := ParseMap("111\n111")
	x, y := m.RandFloorPos(13)
	if x != fallbackSpawnX || y != fallbackSpawnY {
		t.Errorf("fallback spawn = (%v,%v)", x, y)
	}
}

func TestDefaultMapGeometry(t *testing.T) {
	m := ParseMap(DefaultMapLayout)
	if m.PixelWidth() != 1024 || m.PixelHeight() != 512 {
		t.Errorf("map is %vx%v px, want 1024x512", m.PixelWidth(), m.PixelHeight())
	}
	if m.FloorTileCount() == 0 {
		t.Fatal("default map has no valid floor")
	}

	// The shop sits on the center platform with standing headroom.
	shopCol, shopRow := int(ShopX)/TileSize, int(ShopY)/TileSize
	if !m.TileSolid(shopCol, shopRow) {
		t.Error("shop tile is not solid")
	}
	if m.TileSolid(shopCol, shopRow-1) || m.TileSolid(shopCol, shopRow-2) {
		t.Error("no headroom above the shop")
	}

	// Team spawn slots rest on platforms.
	for team, slots := range TeamSpawnAreas {
		for _, slot := range slots {
			col := int(slot[0]) / TileSize
			row := (int(slot[1]) + int(PlayerH)) / TileSize
			if !m.TileSolid(col, row) {
				t.Errorf("team %d spawn %v floats in the air", team, slot)
			}
		}
	}
}
