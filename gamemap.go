package main

import (
	"math/rand"
	"os"
	"strings"
)

const TileSize = 16

// fallback spawn used when a map has no valid floor at all; a bad map must
// never block game start
const (
	fallbackSpawnX = 100.0
	fallbackSpawnY = 100.0
)

// GameMap answers tile-solidity queries and derives the valid floor tiles
// used for random player and power-up placement.
type GameMap struct {
	rows []string
	cols int
	// floor tiles: solid with at least two empty tiles above, as
	// (col, row) pairs
	floor [][2]int
}

// ParseMap builds a GameMap from a text layout: one row per line, one
// character per tile, '0' meaning empty and anything else solid.
func ParseMap(layout string) *GameMap {
	m := &GameMap{}
	for _, ln := range strings.Split(layout, "\n") {
		ln = strings.TrimRight(ln, "\r")
		if ln == "" {
			continue
		}
		m.rows = append(m.rows, ln)
		if len(ln) > m.cols {
			m.cols = len(ln)
		}
	}
	for r := 2; r < len(m.rows); r++ {
		for c := 0; c < m.cols; c++ {
			if m.TileSolid(c, r) && !m.TileSolid(c, r-1) && !m.TileSolid(c, r-2) {
				m.floor = append(m.floor, [2]int{c, r})
			}
		}
	}
	return m
}

// LoadMap reads a map layout from a file.
func LoadMap(path string) (*GameMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseMap(string(data)), nil
}

// TileSolid reports whether the tile at (col, row) blocks movement.
// Out-of-bounds and ragged-row gaps count as solid so nothing ever spawns
// into the void.
func (m *GameMap) TileSolid(col, row int) bool {
	if row < 0 || row >= len(m.rows) || col < 0 || col >= m.cols {
		return true
	}
	rowStr := m.rows[row]
	if col >= len(rowStr) {
		return true
	}
	return rowStr[col] != '0'
}

// RandFloorPos returns a world-pixel position whose bottom edge rests on a
// random valid floor tile, for an entity of the given pixel height.
func (m *GameMap) RandFloorPos(entityHeight int) (float64, float64) {
	if len(m.floor) == 0 {
		return fallbackSpawnX, fallbackSpawnY
	}
	t := m.floor[rand.Intn(len(m.floor))]
	return float64(t[0] * TileSize), float64(t[1]*TileSize - entityHeight)
}

// PixelWidth returns the map width in world pixels.
func (m *GameMap) PixelWidth() float64 { return float64(m.cols * TileSize) }

// PixelHeight returns the map height in world pixels. Anything below it is
// the void.
func (m *GameMap) PixelHeight() float64 { return float64(len(m.rows) * TileSize) }

// FloorTileCount returns the number of valid floor tiles.
func (m *GameMap) FloorTileCount() int { return len(m.floor) }

// DefaultMapLayout is the built-in arena: two base platforms, a shop
// platform in the center, a few mid platforms and a ground level with
// bottomless pits. 64x32 tiles, 1024x512 world pixels.
const DefaultMapLayout = `0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000111111111111111000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000111111000000000000000000000000001111110000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0111111111100000000000000000000000000000000000000000011111111110
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000011111000000000000001111100000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
0000000000000000000000000000000000000000000000000000000000000000
1111111111111111111111111111110000111111111111111111111111111111
1111111111111111111111111111110000111111111111111111111111111111
1111111111111111111111111111110000111111111111111111111111111111
1111111111111111111111111111110000111111111111111111111111111111`
