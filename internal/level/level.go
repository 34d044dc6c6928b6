// Package level runs the generation pipeline (carve, bake, resolve) and
// hands out finished levels through a future.
package level

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/cavern/internal/carve"
	"github.com/samdwyer/cavern/internal/collide"
	"github.com/samdwyer/cavern/internal/navgraph"
	"github.com/samdwyer/cavern/internal/pathfind"
	"github.com/samdwyer/cavern/internal/plan"
	"github.com/samdwyer/cavern/internal/telemetry"
	"github.com/samdwyer/cavern/internal/world"
)

var (
	// ErrTooSmall is returned when a seed carves too little open space.
	ErrTooSmall = errors.New("level too small")
	// ErrNoRoom is returned when no node clears the room threshold.
	ErrNoRoom = errors.New("level has no room nodes")
)

// Config controls level generation.
type Config struct {
	Plan plan.Plan
	// Seed fixes the first attempt's random source. Zero picks one from the clock.
	Seed int64
	// Attempts bounds how many seeds are tried before giving up.
	Attempts int
	// MinOpen is the fewest open cells a level may keep after resolving.
	MinOpen int
	// AllowRoomless accepts levels without any room node.
	AllowRoomless bool

	Log logr.Logger
}

// DefaultConfig returns a config for p with stock retry limits.
func DefaultConfig(p plan.Plan) Config {
	return Config{
		Plan:     p,
		Attempts: 5,
		MinOpen:  32,
		Log:      logr.Discard(),
	}
}

// Level is one finished, immutable level.
type Level struct {
	ID      uuid.UUID
	Seed    int64
	Attempt int
	Plan    plan.Plan

	Grid      *world.Grid
	Graph     *navgraph.Graph
	Obstacles *collide.Space
	Paths     *pathfind.Engine

	Carve       *carve.Result
	Resolution  navgraph.Resolution
	Fingerprint uint64
}

// Generate runs one attempt of the pipeline with the given seed.
func Generate(ctx context.Context, cfg Config, seed int64) (*Level, error) {
	tracer := telemetry.Tracer("level")
	ctx, span := tracer.Start(ctx, "level.generate")
	defer span.End()

	startTime := time.Now()
	p := cfg.Plan

	var (
		res *carve.Result
		err error
	)
	switch p.Kind {
	case plan.KindCircle:
		res, err = carve.Circle(p.CircleRadius, p.Buffer)
	default:
		planner := carve.NewPlanner(p.Carve(), rand.New(rand.NewSource(seed)))
		planner.Log = cfg.Log.WithName("carve")
		res, err = planner.Generate(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("carving %s: %w", p.ID, err)
	}
	if len(res.Open) < cfg.MinOpen {
		return nil, fmt.Errorf("%w: %d open cells", ErrTooSmall, len(res.Open))
	}

	space := collide.NewSpace(res.Grid)

	bakeCfg := p.BakeConfig()
	bakeCfg.Log = cfg.Log.WithName("navgraph")
	bakeCfg.Fork = func() navgraph.Obstacles { return space.Clone() }
	g, err := navgraph.Bake(ctx, res.Open, space, bakeCfg)
	if err != nil {
		return nil, fmt.Errorf("baking %s: %w", p.ID, err)
	}

	resolution, err := navgraph.Resolve(ctx, g, res.Grid, space)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", p.ID, err)
	}
	if g.Len() < cfg.MinOpen {
		return nil, fmt.Errorf("%w: %d cells in largest island", ErrTooSmall, g.Len())
	}
	if !cfg.AllowRoomless && len(g.RoomNodes()) == 0 {
		return nil, ErrNoRoom
	}

	l := &Level{
		ID:          uuid.New(),
		Seed:        seed,
		Plan:        p,
		Grid:        res.Grid,
		Graph:       g,
		Obstacles:   space,
		Paths:       pathfind.New(g, cfg.Log.WithName("pathfind")),
		Carve:       res,
		Resolution:  resolution,
		Fingerprint: g.Fingerprint(),
	}

	span.SetAttributes(
		attribute.String("level.id", l.ID.String()),
		attribute.String("level.plan", p.ID),
		attribute.Int64("level.seed", seed),
		attribute.Int("level.nodes", g.Len()),
		attribute.Int("level.islands", resolution.Islands),
		attribute.Int("level.boxes", space.Boxes()),
		attribute.Int64("level.generation_ms", time.Since(startTime).Milliseconds()),
	)
	return l, nil
}

// DeriveSeed returns the seed for a retry attempt. Attempt zero uses base.
func DeriveSeed(base int64, attempt int) int64 {
	if attempt == 0 {
		return base
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(base))
	binary.LittleEndian.PutUint64(buf[8:], uint64(attempt))
	return int64(xxhash.Sum64(buf[:]) >> 1)
}
