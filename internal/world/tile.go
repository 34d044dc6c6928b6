// Package world provides the cell grid, tile classification and the
// cell/world coordinate conversions shared by every stage of level generation.
package world

// Tile represents a single grid cell's classification.
type Tile rune

const (
	// TileWall represents an impassable wall cell.
	TileWall Tile = '#'
	// TileFloor represents an open (carved) cell.
	TileFloor Tile = '.'
)

// IsPassable returns true if the tile can be walked on.
func (t Tile) IsPassable() bool {
	return t == TileFloor
}

// Rune returns the tile's display character.
func (t Tile) Rune() rune {
	return rune(t)
}
