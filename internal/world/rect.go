package world

// Rect is an axis-aligned rectangle of cells.
type Rect struct {
	X, Y          int // Top-left corner position
	Width, Height int // Dimensions of the rectangle
}

// Center returns the center cell of the rectangle.
func (r Rect) Center() Cell {
	return Cell{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains returns true if the given cell is inside the rectangle.
func (r Rect) Contains(c Cell) bool {
	return c.X >= r.X && c.X < r.X+r.Width && c.Y >= r.Y && c.Y < r.Y+r.Height
}

// Intersects returns true if this rectangle overlaps with another.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.X+other.Width &&
		r.X+r.Width > other.X &&
		r.Y < other.Y+other.Height &&
		r.Y+r.Height > other.Y
}

// Extend returns the smallest rectangle containing r and c.
func (r Rect) Extend(c Cell) Rect {
	minX, minY := min(r.X, c.X), min(r.Y, c.Y)
	maxX, maxY := max(r.X+r.Width, c.X+1), max(r.Y+r.Height, c.Y+1)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
