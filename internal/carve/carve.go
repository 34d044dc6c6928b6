// Package carve removes wall cells from an all-wall grid with randomly
// placed circle stamps joined by straight corridors.
package carve

import (
	"context"
	"math/rand"
	"time"

	"github.com/go-logr/logr"
	"github.com/zyedidia/generic/mapset"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/cavern/internal/telemetry"
	"github.com/samdwyer/cavern/internal/world"
)

// Result is the outcome of one carving run.
type Result struct {
	Grid *world.Grid
	// Open holds every carved cell in row-major order.
	Open []world.Cell
	// ConnectionPoints holds one removed cell per carved stamp, in stamp order.
	ConnectionPoints []world.Cell
	Stamps           int
	Corridors        int
}

// Planner carves a single level from a config and a random source.
type Planner struct {
	cfg Config
	rng *rand.Rand

	// Log receives per-stamp detail at V(1).
	Log logr.Logger

	grid     *world.Grid
	moldable []world.Cell
}

// NewPlanner creates a planner. The random source fully determines the result.
func NewPlanner(cfg Config, rng *rand.Rand) *Planner {
	return &Planner{cfg: cfg, rng: rng, Log: logr.Discard()}
}

// Generate is shorthand for NewPlanner(cfg, rng).Generate(ctx).
func Generate(ctx context.Context, cfg Config, rng *rand.Rand) (*Result, error) {
	return NewPlanner(cfg, rng).Generate(ctx)
}

// Generate carves the level.
func (p *Planner) Generate(ctx context.Context) (*Result, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}

	tracer := telemetry.Tracer("carve")
	_, span := tracer.Start(ctx, "carve.generate")
	defer span.End()

	startTime := time.Now()

	width := p.cfg.Width.Pick(p.rng)
	height := p.cfg.Height.Pick(p.rng)
	p.grid = world.NewGrid(width, height, p.cfg.Buffer)
	p.moldable = p.grid.MoldableCells()

	res := &Result{Grid: p.grid}

	var previous *world.Cell
	for i := 0; i < p.cfg.StampCount; i++ {
		point, ok := p.stamp(previous)
		if !ok {
			p.Log.V(1).Info("stamp skipped", "stamp", i)
			continue
		}
		res.ConnectionPoints = append(res.ConnectionPoints, point)
		res.Stamps++
		previous = &point
	}

	for i := 1; i < len(res.ConnectionPoints); i++ {
		if p.corridor(res.ConnectionPoints[i-1], res.ConnectionPoints[i]) {
			res.Corridors++
		}
	}

	res.Open = p.grid.OpenCells()

	span.SetAttributes(
		attribute.Int("carve.width", width),
		attribute.Int("carve.height", height),
		attribute.Int("carve.stamps", res.Stamps),
		attribute.Int("carve.corridors", res.Corridors),
		attribute.Int("carve.open_cells", len(res.Open)),
		attribute.Int64("carve.generation_ms", time.Since(startTime).Milliseconds()),
	)
	p.Log.Info("carved level", "width", width, "height", height, "stamps", res.Stamps, "open", len(res.Open))

	return res, nil
}

// stamp carves one circle stamp and returns its connection point.
func (p *Planner) stamp(previous *world.Cell) (world.Cell, bool) {
	if len(p.moldable) == 0 {
		return world.Cell{}, false
	}

	center := p.pickCenter(previous)
	removal := circle(p.moldable, center, p.cfg.Radius.Pick(p.rng))
	if len(removal) == 0 {
		return world.Cell{}, false
	}

	// Inner stamps put wall texture back inside the removal area.
	inner := p.cfg.InnerStampCount.Pick(p.rng)
	for i := 0; i < inner && len(removal) > 0; i++ {
		retain := circle(removal, removal[p.rng.Intn(len(removal))], p.cfg.InnerRadius.Pick(p.rng))
		if len(retain) == len(removal) {
			p.Log.V(1).Info("inner stamp covers the whole stamp, discarding", "cells", len(removal))
			removal = nil
			break
		}
		removal = subtract(removal, retain)
	}
	if len(removal) == 0 {
		return world.Cell{}, false
	}

	p.open(removal)
	p.Log.V(1).Info("stamp carved", "center", center, "cells", len(removal), "moldable", len(p.moldable))

	return removal[p.rng.Intn(len(removal))], true
}

// pickCenter chooses a stamp center, near the previous connection point when there is one.
func (p *Planner) pickCenter(previous *world.Cell) world.Cell {
	if previous != nil {
		for i := 0; i < p.cfg.SpacingAttempts; i++ {
			c := p.moldable[p.rng.Intn(len(p.moldable))]
			if p.cfg.StampSpacing.Contains(c.Dist(*previous)) {
				return c
			}
		}
	}
	return p.moldable[p.rng.Intn(len(p.moldable))]
}

// corridor opens every moldable cell within a random thickness of the segment a-b.
func (p *Planner) corridor(a, b world.Cell) bool {
	thickness := p.cfg.LineThickness.Pick(p.rng)
	va, vb := cellVec(a), cellVec(b)

	var removal []world.Cell
	for _, c := range p.moldable {
		if world.SegmentDistance(cellVec(c), va, vb) < thickness {
			removal = append(removal, c)
		}
	}
	if len(removal) == 0 {
		return false
	}

	p.open(removal)
	return true
}

func (p *Planner) open(cells []world.Cell) {
	for _, c := range cells {
		p.grid.SetTile(c, world.TileFloor)
	}
	p.moldable = subtract(p.moldable, cells)
}

// circle returns the candidates within radius cells of center, preserving order.
func circle(candidates []world.Cell, center world.Cell, radius float64) []world.Cell {
	var out []world.Cell
	for _, c := range candidates {
		if c.Dist(center) <= radius {
			out = append(out, c)
		}
	}
	return out
}

// subtract returns from without the cells in remove, preserving order.
func subtract(from, remove []world.Cell) []world.Cell {
	drop := mapset.New[world.Cell]()
	for _, c := range remove {
		drop.Put(c)
	}
	out := from[:0:0]
	for _, c := range from {
		if !drop.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// cellVec places a cell in cell-unit space; carving distances are in cells.
func cellVec(c world.Cell) world.Vec {
	return world.Vec{X: float64(c.X), Y: float64(c.Y)}
}
