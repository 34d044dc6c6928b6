package carve

import (
	"fmt"

	"github.com/samdwyer/cavern/internal/world"
)

// Circle carves a single round room of the given radius, centered in a
// 2r×2r interior. It needs no random source.
func Circle(radius, buffer int) (*Result, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("%w: circle radius must be positive", ErrInvalidConfig)
	}
	if buffer < 0 {
		return nil, fmt.Errorf("%w: negative wall buffer", ErrInvalidConfig)
	}

	grid := world.NewGrid(2*radius, 2*radius, buffer)
	center := world.Cell{X: radius, Y: radius}
	for _, c := range grid.MoldableCells() {
		if c.Dist(center) < float64(radius) {
			grid.SetTile(c, world.TileFloor)
		}
	}

	open := grid.OpenCells()
	res := &Result{Grid: grid, Open: open}
	if len(open) > 0 {
		res.ConnectionPoints = []world.Cell{center}
		res.Stamps = 1
	}
	return res, nil
}
