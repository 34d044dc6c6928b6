package navgraph

import (
	"context"
	"errors"
	"math"
	"runtime"
	"slices"
	"time"

	"github.com/go-logr/logr"
	"github.com/zyedidia/generic/mapset"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/samdwyer/cavern/internal/chunk"
	"github.com/samdwyer/cavern/internal/telemetry"
	"github.com/samdwyer/cavern/internal/world"
)

// ErrNoObstacles is returned when baking without an obstacle environment.
var ErrNoObstacles = errors.New("navgraph: no obstacle environment")

// Obstacles is the environment's collision test. Blocks casts a ray from
// origin along the unit vector dir and reports the first obstacle met
// within maxDist.
type Obstacles interface {
	Blocks(origin, dir world.Vec, maxDist float64) (world.Hit, bool)
}

// Filler is implemented by obstacle environments that can turn cells back
// into walls after the graph has been baked.
type Filler interface {
	Fill(cells []world.Cell)
}

// BakeConfig tunes graph baking. Distances are in world units.
type BakeConfig struct {
	// Directions is the number of evenly spaced sweep directions per node.
	Directions int
	// MaxNeighborDistance bounds both sweeps and edge length.
	MaxNeighborDistance float64
	// LineTolerance is how far a node may sit from a sweep line and still
	// be linked to the sweep's origin.
	LineTolerance float64
	// RoomThreshold is the closest-wall distance a node must exceed to
	// count as a room node.
	RoomThreshold float64
	ChunkSize     int
	// VerifyEdges confirms every candidate edge with a direct cast.
	VerifyEdges bool
	// Workers caps concurrent sweeps; zero means GOMAXPROCS.
	Workers int
	// Fork, when set, gives each sweep worker its own copy of the obstacle
	// environment. Without it every worker casts against the one passed to
	// Bake.
	Fork func() Obstacles

	Log logr.Logger
}

// DefaultBakeConfig returns the stock baking parameters.
func DefaultBakeConfig() BakeConfig {
	return BakeConfig{
		Directions:          16,
		MaxNeighborDistance: 5,
		LineTolerance:       0.25,
		RoomThreshold:       1,
		ChunkSize:           chunk.DefaultSize,
		VerifyEdges:         true,
		Log:                 logr.Discard(),
	}
}

func (c BakeConfig) withDefaults() BakeConfig {
	def := DefaultBakeConfig()
	if c.Directions <= 0 {
		c.Directions = def.Directions
	}
	if c.MaxNeighborDistance <= 0 {
		c.MaxNeighborDistance = def.MaxNeighborDistance
	}
	if c.LineTolerance <= 0 {
		c.LineTolerance = def.LineTolerance
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = def.ChunkSize
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// sweepBatch is the number of nodes one worker task sweeps.
const sweepBatch = 64

type pair struct {
	a, b NodeID
}

func comparePairs(x, y pair) int {
	if x.a != y.a {
		return int(x.a) - int(y.a)
	}
	return int(x.b) - int(y.b)
}

// Bake builds the navigation graph over the given open cells. Sweeps run in
// parallel; each worker accumulates its edges locally and all edges are
// committed in one single-threaded pass, so no node is written by two
// goroutines.
func Bake(ctx context.Context, cells []world.Cell, obstacles Obstacles, cfg BakeConfig) (*Graph, error) {
	if obstacles == nil {
		return nil, ErrNoObstacles
	}
	cfg = cfg.withDefaults()

	tracer := telemetry.Tracer("navgraph")
	ctx, span := tracer.Start(ctx, "navgraph.bake")
	defer span.End()

	startTime := time.Now()

	sorted := slices.Clone(cells)
	slices.SortFunc(sorted, world.CompareCells)
	sorted = slices.Compact(sorted)

	g := New(sorted, cfg.ChunkSize)
	g.cfg = cfg

	dirs := directions(cfg.Directions)
	batches := (len(g.nodes) + sweepBatch - 1) / sweepBatch
	found := make([][]pair, batches)

	// No more tasks run at once than the pool holds, so taking from it
	// never blocks.
	workers := max(1, min(cfg.Workers, batches))
	pool := make(chan Obstacles, workers)
	for i := 0; i < workers; i++ {
		if cfg.Fork != nil {
			pool <- cfg.Fork()
		} else {
			pool <- obstacles
		}
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for b := 0; b < batches; b++ {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			obstacles := <-pool
			defer func() { pool <- obstacles }()

			lo := b * sweepBatch
			hi := min(lo+sweepBatch, len(g.nodes))
			var local []pair
			for id := lo; id < hi; id++ {
				local = g.sweep(NodeID(id), obstacles, dirs, local)
			}
			found[b] = local
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	edges := g.commit(found)
	for _, ch := range g.chunks.Chunks() {
		g.classify(ch)
	}

	rooms := len(g.RoomNodes())
	span.SetAttributes(
		attribute.Int("navgraph.nodes", g.Len()),
		attribute.Int("navgraph.edges", edges),
		attribute.Int("navgraph.room_nodes", rooms),
		attribute.Int("navgraph.chunks", g.chunks.Len()),
		attribute.Int64("navgraph.bake_ms", time.Since(startTime).Milliseconds()),
	)
	cfg.Log.Info("baked navigation graph", "nodes", g.Len(), "edges", edges, "rooms", rooms, "chunks", g.chunks.Len())

	return g, nil
}

// sweep casts every direction from one node, records its closest wall and
// appends the edges it finds to out.
func (g *Graph) sweep(id NodeID, obstacles Obstacles, dirs []world.Vec, out []pair) []pair {
	origin := g.nodes[id].Pos
	maxDist := g.cfg.MaxNeighborDistance
	tol := g.cfg.LineTolerance

	closest := maxDist
	seen := mapset.New[NodeID]()

	for _, dir := range dirs {
		reach := maxDist
		if hit, ok := obstacles.Blocks(origin, dir, maxDist); ok {
			reach = hit.Distance
			closest = min(closest, hit.Distance)
		}
		end := origin.Add(dir.Mul(reach))
		mid := origin.Add(end).Mul(0.5)

		for _, ch := range g.chunks.Near(mid, reach/2+tol) {
			for _, member := range ch.Nodes {
				other := NodeID(member)
				if other == id || seen.Has(other) {
					continue
				}
				pos := g.nodes[other].Pos
				if world.SegmentDistance(pos, origin, end) > tol {
					continue
				}
				seen.Put(other)
				p := pair{a: min(id, other), b: max(id, other)}
				if g.cfg.VerifyEdges && !g.clear(obstacles, p.a, p.b) {
					continue
				}
				out = append(out, p)
			}
		}
	}

	g.nodes[id].ClosestWall = closest
	return out
}

// commit links every found pair once and returns the edge count.
func (g *Graph) commit(found [][]pair) int {
	var all []pair
	for _, local := range found {
		all = append(all, local...)
	}
	slices.SortFunc(all, comparePairs)
	all = slices.Compact(all)

	for _, p := range all {
		g.Link(p.a, p.b)
	}
	return len(all)
}

// closestWall recomputes a node's wall distance without looking for edges.
func (g *Graph) closestWall(id NodeID, obstacles Obstacles, dirs []world.Vec) float64 {
	origin := g.nodes[id].Pos
	closest := g.cfg.MaxNeighborDistance
	for _, dir := range dirs {
		if hit, ok := obstacles.Blocks(origin, dir, g.cfg.MaxNeighborDistance); ok {
			closest = min(closest, hit.Distance)
		}
	}
	return closest
}

// clear checks the line between two nodes, always cast from the lower id so
// both endpoints agree on the answer.
func (g *Graph) clear(obstacles Obstacles, a, b NodeID) bool {
	if a > b {
		a, b = b, a
	}
	return lineClear(obstacles, g.nodes[a].Pos, g.nodes[b].Pos)
}

// lineClear reports whether the straight line from a to b meets no obstacle.
func lineClear(obstacles Obstacles, a, b world.Vec) bool {
	d := b.Sub(a)
	dist := d.Len()
	if dist == 0 {
		return true
	}
	hit, ok := obstacles.Blocks(a, d.Mul(1/dist), dist)
	return !ok || hit.Distance >= dist-1e-9
}

// directions returns n unit vectors evenly spaced around the circle.
func directions(n int) []world.Vec {
	dirs := make([]world.Vec, n)
	for i := range dirs {
		dirs[i] = world.Direction(2 * math.Pi * float64(i) / float64(n))
	}
	return dirs
}
