package world

// Grid is the level's cell rectangle: the carvable interior
// [0,Width)×[0,Height) surrounded by Buffer cells of permanent wall.
type Grid struct {
	Width  int
	Height int
	Buffer int

	minX, minY int
	stride     int
	tiles      []Tile
	open       int
}

// NewGrid creates a grid with every cell, interior and buffer, set to wall.
func NewGrid(width, height, buffer int) *Grid {
	if buffer < 0 {
		buffer = 0
	}
	stride := width + 2*buffer
	rows := height + 2*buffer
	tiles := make([]Tile, stride*rows)
	for i := range tiles {
		tiles[i] = TileWall
	}

	return &Grid{
		Width:  width,
		Height: height,
		Buffer: buffer,
		minX:   -buffer,
		minY:   -buffer,
		stride: stride,
		tiles:  tiles,
	}
}

// Contains returns true if the cell is inside the grid, buffer included.
func (g *Grid) Contains(c Cell) bool {
	return c.X >= g.minX && c.X < g.minX+g.stride &&
		c.Y >= g.minY && c.Y < g.minY+g.Height+2*g.Buffer
}

// Moldable returns true if the cell lies in the carvable interior.
func (g *Grid) Moldable(c Cell) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

// GetTile returns the tile at the given cell. Cells outside the grid are walls.
func (g *Grid) GetTile(c Cell) Tile {
	if !g.Contains(c) {
		return TileWall
	}
	return g.tiles[g.index(c)]
}

// IsPassable returns true if the given cell can be walked on.
func (g *Grid) IsPassable(c Cell) bool {
	return g.GetTile(c).IsPassable()
}

// SetTile classifies a cell. Cells outside the grid are ignored.
func (g *Grid) SetTile(c Cell, t Tile) {
	if !g.Contains(c) {
		return
	}
	i := g.index(c)
	if g.tiles[i] == t {
		return
	}
	if t.IsPassable() {
		g.open++
	} else if g.tiles[i].IsPassable() {
		g.open--
	}
	g.tiles[i] = t
}

// OpenCount returns the number of open cells.
func (g *Grid) OpenCount() int {
	return g.open
}

// MoldableCells returns every interior cell in row-major order.
func (g *Grid) MoldableCells() []Cell {
	cells := make([]Cell, 0, g.Width*g.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			cells = append(cells, Cell{X: x, Y: y})
		}
	}
	return cells
}

// OpenCells returns every open cell in row-major order.
func (g *Grid) OpenCells() []Cell {
	cells := make([]Cell, 0, g.open)
	g.each(func(c Cell, t Tile) {
		if t.IsPassable() {
			cells = append(cells, c)
		}
	})
	return cells
}

// WallCells returns every wall cell in row-major order.
func (g *Grid) WallCells() []Cell {
	cells := make([]Cell, 0, len(g.tiles)-g.open)
	g.each(func(c Cell, t Tile) {
		if !t.IsPassable() {
			cells = append(cells, c)
		}
	})
	return cells
}

// Bounds returns the smallest rectangle containing every open cell.
// ok is false when nothing has been carved.
func (g *Grid) Bounds() (r Rect, ok bool) {
	first := true
	g.each(func(c Cell, t Tile) {
		if !t.IsPassable() {
			return
		}
		if first {
			r = Rect{X: c.X, Y: c.Y, Width: 1, Height: 1}
			first = false
			return
		}
		r = r.Extend(c)
	})
	return r, !first
}

// Extent returns the full grid rectangle, buffer included.
func (g *Grid) Extent() Rect {
	return Rect{X: g.minX, Y: g.minY, Width: g.stride, Height: g.Height + 2*g.Buffer}
}

// Paint hands every cell's classification to a tile writer.
func (g *Grid) Paint(w TileWriter) {
	g.each(w.WriteTile)
}

func (g *Grid) each(fn func(Cell, Tile)) {
	for i, t := range g.tiles {
		fn(Cell{X: g.minX + i%g.stride, Y: g.minY + i/g.stride}, t)
	}
}

func (g *Grid) index(c Cell) int {
	return (c.Y-g.minY)*g.stride + (c.X - g.minX)
}
