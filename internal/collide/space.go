// Package collide answers obstacle casts against a level's walls using a
// static chipmunk physics space.
package collide

import (
	"sync"

	"github.com/jakecoffman/cp"

	"github.com/samdwyer/cavern/internal/world"
)

// cellHalf is half a cell's edge length in world units.
const cellHalf = 0.5 / world.Scale

// Space holds one static box per merged run of wall cells. It is safe for
// concurrent use, but queries on one Space run one at a time; concurrent
// callers should each take a Clone.
type Space struct {
	mu    sync.Mutex
	space *cp.Space
	boxes []cp.BB
}

// NewSpace builds the obstacle space for every wall cell of grid.
func NewSpace(grid *world.Grid) *Space {
	s := &Space{space: cp.NewSpace()}
	ext := grid.Extent()

	processed := make([]bool, ext.Width*ext.Height)
	solid := func(x, y int) bool {
		i := (y-ext.Y)*ext.Width + (x - ext.X)
		return !processed[i] && !grid.IsPassable(world.Cell{X: x, Y: y})
	}

	for y := ext.Y; y < ext.Y+ext.Height; y++ {
		for x := ext.X; x < ext.X+ext.Width; x++ {
			if !solid(x, y) {
				continue
			}

			// Greedily grow a rectangle of wall cells, width first.
			w := 1
			for x+w < ext.X+ext.Width && solid(x+w, y) {
				w++
			}
			h := 1
		heightLoop:
			for y+h < ext.Y+ext.Height {
				for xi := x; xi < x+w; xi++ {
					if !solid(xi, y+h) {
						break heightLoop
					}
				}
				h++
			}

			s.addBox(world.Cell{X: x, Y: y}, world.Cell{X: x + w - 1, Y: y + h - 1})

			for yy := y; yy < y+h; yy++ {
				for xx := x; xx < x+w; xx++ {
					processed[(yy-ext.Y)*ext.Width+(xx-ext.X)] = true
				}
			}
		}
	}

	return s
}

// addBox adds a static box covering the cells from lo to hi inclusive.
func (s *Space) addBox(lo, hi world.Cell) {
	a, b := lo.World(), hi.World()
	s.addBB(cp.BB{L: a.X - cellHalf, B: a.Y - cellHalf, R: b.X + cellHalf, T: b.Y + cellHalf})
}

// addBB adds one static box. Static shapes are queryable as soon as they
// are added.
func (s *Space) addBB(bb cp.BB) {
	s.space.AddShape(cp.NewBox2(s.space.StaticBody, bb, 0))
	s.boxes = append(s.boxes, bb)
}

// Boxes returns the number of static boxes in the space.
func (s *Space) Boxes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.boxes)
}

// Clone returns an independent space holding the same boxes. Later fills
// of either space do not affect the other.
func (s *Space) Clone() *Space {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &Space{space: cp.NewSpace()}
	for _, bb := range s.boxes {
		c.addBB(bb)
	}
	return c
}

// Blocks casts a ray from origin along dir and reports the first wall met
// within maxDist.
func (s *Space) Blocks(origin, dir world.Vec, maxDist float64) (world.Hit, bool) {
	if maxDist <= 0 {
		return world.Hit{}, false
	}
	end := origin.Add(dir.Mul(maxDist))

	s.mu.Lock()
	info := s.space.SegmentQueryFirst(
		cp.Vector{X: origin.X, Y: origin.Y},
		cp.Vector{X: end.X, Y: end.Y},
		0, cp.SHAPE_FILTER_ALL,
	)
	s.mu.Unlock()

	if info.Shape == nil {
		return world.Hit{}, false
	}
	return world.Hit{
		Distance: info.Alpha * maxDist,
		Normal:   world.Vec{X: info.Normal.X, Y: info.Normal.Y},
	}, true
}

// Fill adds a wall box for each cell.
func (s *Space) Fill(cells []world.Cell) {
	if len(cells) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cells {
		s.addBox(c, c)
	}
}
