package pathfind

import (
	"slices"

	"github.com/samdwyer/cavern/internal/world"
)

// DefaultTolerance is the close-enough radius for consuming a waypoint.
const DefaultTolerance = 0.05

// Path is an ordered list of waypoints with a cursor to the next one. A
// path is owned by one caller and is not safe for concurrent use.
type Path struct {
	// Tolerance is how close a mover must get to a waypoint before it
	// counts as reached.
	Tolerance float64

	start     world.Vec
	waypoints []world.Vec
	next      int
	length    float64
}

// NewPath creates a path from start through the given waypoints.
func NewPath(start world.Vec, waypoints []world.Vec) *Path {
	p := &Path{
		Tolerance: DefaultTolerance,
		start:     start,
		waypoints: slices.Clone(waypoints),
	}
	prev := start
	for _, w := range p.waypoints {
		p.length += prev.Dist(w)
		prev = w
	}
	return p
}

// Start returns the literal position the path was planned from.
func (p *Path) Start() world.Vec {
	return p.start
}

// Waypoints returns every waypoint, consumed or not.
func (p *Path) Waypoints() []world.Vec {
	return slices.Clone(p.waypoints)
}

// Remaining returns the waypoints not yet consumed.
func (p *Path) Remaining() []world.Vec {
	return slices.Clone(p.waypoints[p.next:])
}

// Next returns the next unconsumed waypoint.
func (p *Path) Next() (world.Vec, bool) {
	if p.Complete() {
		return world.Vec{}, false
	}
	return p.waypoints[p.next], true
}

// Destination returns the final waypoint.
func (p *Path) Destination() world.Vec {
	if len(p.waypoints) == 0 {
		return p.start
	}
	return p.waypoints[len(p.waypoints)-1]
}

// Length returns the path's total length from its start.
func (p *Path) Length() float64 {
	return p.length
}

// Complete returns true once every waypoint has been consumed.
func (p *Path) Complete() bool {
	return p.next >= len(p.waypoints)
}

// Advance moves from current toward the next waypoint by at most maxDist.
// A waypoint within reach, or within Tolerance, is landed on and consumed,
// and the rest of the budget carries on toward the following one. Once the
// path is complete Advance returns current unchanged.
func (p *Path) Advance(current world.Vec, maxDist float64) (world.Vec, bool) {
	pos := current
	budget := maxDist
	for budget > 0 && !p.Complete() {
		wp := p.waypoints[p.next]
		d := pos.Dist(wp)
		if d > budget && d > p.Tolerance {
			return pos.MoveTowards(wp, budget), false
		}
		pos = wp
		budget = max(0, budget-d)
		p.next++
	}
	return pos, p.Complete()
}
