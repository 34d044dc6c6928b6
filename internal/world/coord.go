package world

import (
	"fmt"
	"math"
)

// Scale is the number of cells per world unit. A cell's world position is
// its coordinate divided by Scale.
const Scale = 2.0

// Cell is an integer grid coordinate.
type Cell struct {
	X, Y int
}

// World returns the cell's world position.
func (c Cell) World() Vec {
	return Vec{X: float64(c.X) / Scale, Y: float64(c.Y) / Scale}
}

// Add returns the cell offset by dx, dy.
func (c Cell) Add(dx, dy int) Cell {
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

// Dist returns the Euclidean distance between two cells in cell units.
func (c Cell) Dist(o Cell) float64 {
	return math.Hypot(float64(c.X-o.X), float64(c.Y-o.Y))
}

// Less orders cells row-major (y first, then x).
func (c Cell) Less(o Cell) bool {
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.X < o.X
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// CompareCells is a row-major comparison usable with slices.SortFunc.
func CompareCells(a, b Cell) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}

// Snap converts a world position to the nearest cell.
func Snap(v Vec) Cell {
	return Cell{
		X: int(math.Round(v.X * Scale)),
		Y: int(math.Round(v.Y * Scale)),
	}
}

// Vec is a 2D world-space position or direction.
type Vec struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec) Add(o Vec) Vec { return Vec{X: v.X + o.X, Y: v.Y + o.Y} }

// Sub returns v - o.
func (v Vec) Sub(o Vec) Vec { return Vec{X: v.X - o.X, Y: v.Y - o.Y} }

// Mul returns v scaled by s.
func (v Vec) Mul(s float64) Vec { return Vec{X: v.X * s, Y: v.Y * s} }

// Dot returns the dot product of v and o.
func (v Vec) Dot(o Vec) float64 { return v.X*o.X + v.Y*o.Y }

// Len returns the length of v.
func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the distance between v and o.
func (v Vec) Dist(o Vec) float64 { return v.Sub(o).Len() }

// Normalize returns v scaled to unit length, or the zero vector if v is zero.
func (v Vec) Normalize() Vec {
	l := v.Len()
	if l == 0 {
		return Vec{}
	}
	return Vec{X: v.X / l, Y: v.Y / l}
}

// MoveTowards moves v toward target by at most maxDelta without overshooting.
func (v Vec) MoveTowards(target Vec, maxDelta float64) Vec {
	d := target.Sub(v)
	l := d.Len()
	if l <= maxDelta || l == 0 {
		return target
	}
	return v.Add(d.Mul(maxDelta / l))
}

func (v Vec) String() string {
	return fmt.Sprintf("(%.3f,%.3f)", v.X, v.Y)
}

// Direction returns the unit vector at angle radians from the +X axis.
func Direction(angle float64) Vec {
	return Vec{X: math.Cos(angle), Y: math.Sin(angle)}
}

// SegmentDistance returns the distance from p to the segment a-b, clamping
// the projection onto the segment's end points. A zero-length segment
// degenerates to the distance from p to a.
func SegmentDistance(p, a, b Vec) float64 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return p.Dist(a)
	}
	t := p.Sub(a).Dot(ab) / lenSq
	switch {
	case t <= 0:
		return p.Dist(a)
	case t >= 1:
		return p.Dist(b)
	}
	return p.Dist(a.Add(ab.Mul(t)))
}

// Hit is the result of an obstacle cast: how far along the ray the first
// obstacle was met and the surface normal there.
type Hit struct {
	Distance float64
	Normal   Vec
}
