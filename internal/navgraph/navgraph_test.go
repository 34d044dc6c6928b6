package navgraph

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/samdwyer/cavern/internal/world"
)

// boxes is an exact obstacle test over one axis-aligned box per wall cell.
type boxes struct {
	walls []world.Cell
}

func (b *boxes) Blocks(origin, dir world.Vec, maxDist float64) (world.Hit, bool) {
	const half = 0.25
	best := math.Inf(1)
	for _, c := range b.walls {
		p := c.World()
		if t, ok := slab(origin, dir, world.Vec{X: p.X - half, Y: p.Y - half}, world.Vec{X: p.X + half, Y: p.Y + half}); ok && t < best {
			best = t
		}
	}
	if best > maxDist {
		return world.Hit{}, false
	}
	return world.Hit{Distance: best}, true
}

func (b *boxes) Fill(cells []world.Cell) {
	b.walls = append(b.walls, cells...)
}

// slab intersects a ray with a box and returns the entry distance.
func slab(o, d, lo, hi world.Vec) (float64, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	axes := [2][4]float64{{o.X, d.X, lo.X, hi.X}, {o.Y, d.Y, lo.Y, hi.Y}}
	for _, a := range axes {
		o, d, lo, hi := a[0], a[1], a[2], a[3]
		if math.Abs(d) < 1e-12 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}
		t1, t2 := (lo-o)/d, (hi-o)/d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}
	if tmax < max(tmin, 0) {
		return 0, false
	}
	return max(tmin, 0), true
}

// layout builds a grid from rows of '.' (open) and '#' (wall) with a
// one-cell wall buffer, plus a matching obstacle test.
func layout(rows ...string) (*world.Grid, *boxes) {
	g := world.NewGrid(len(rows[0]), len(rows), 1)
	for y, row := range rows {
		for x, r := range row {
			if r == '.' {
				g.SetTile(world.Cell{X: x, Y: y}, world.TileFloor)
			}
		}
	}
	return g, &boxes{walls: g.WallCells()}
}

func square(n int) []string {
	row := make([]byte, n)
	for i := range row {
		row[i] = '.'
	}
	rows := make([]string, n)
	for i := range rows {
		rows[i] = string(row)
	}
	return rows
}

func bake(t *testing.T, grid *world.Grid, obs Obstacles, cfg BakeConfig) *Graph {
	t.Helper()
	g, err := Bake(context.Background(), grid.OpenCells(), obs, cfg)
	if err != nil {
		t.Fatalf("Bake failed: %v", err)
	}
	return g
}

func mustLookup(t *testing.T, g *Graph, c world.Cell) NodeID {
	t.Helper()
	id, ok := g.Lookup(c)
	if !ok {
		t.Fatalf("cell %v is not on the graph", c)
	}
	return id
}

func TestBakeEdgesAreSymmetricAndClear(t *testing.T) {
	grid, obs := layout(
		"........",
		"..##....",
		"..##..#.",
		"......#.",
		"........",
	)
	g := bake(t, grid, obs, DefaultBakeConfig())

	if g.Len() != grid.OpenCount() {
		t.Fatalf("Len = %d, want %d", g.Len(), grid.OpenCount())
	}

	edges := 0
	for _, id := range g.Nodes() {
		n := g.Node(id)
		for _, e := range n.Edges {
			edges++
			if e.To == id {
				t.Errorf("node %d links to itself", id)
			}
			back, ok := g.Weight(e.To, id)
			if !ok {
				t.Errorf("edge %d->%d has no reverse", id, e.To)
				continue
			}
			if back != e.Distance {
				t.Errorf("edge %d<->%d weights differ: %v vs %v", id, e.To, e.Distance, back)
			}
			if !g.clear(obs, id, e.To) {
				t.Errorf("edge %d->%d crosses a wall", id, e.To)
			}
			if e.Distance > g.Config().MaxNeighborDistance {
				t.Errorf("edge %d->%d longer than max distance", id, e.To)
			}
		}
	}
	if edges == 0 {
		t.Fatal("expected edges")
	}
}

func TestBakeStraightCorridor(t *testing.T) {
	grid, obs := layout(".....")
	g := bake(t, grid, obs, DefaultBakeConfig())

	// every cell sees every other along the corridor
	for _, id := range g.Nodes() {
		if got := len(g.Node(id).Edges); got != 4 {
			t.Errorf("node %d has %d edges, want 4", id, got)
		}
		if cw := g.Node(id).ClosestWall; math.Abs(cw-0.25) > 1e-9 {
			t.Errorf("node %d closest wall = %v, want 0.25", id, cw)
		}
	}
	if len(g.RoomNodes()) != 0 {
		t.Errorf("corridor has %d room nodes, want 0", len(g.RoomNodes()))
	}
}

func TestBakeDoesNotLinkThroughWalls(t *testing.T) {
	grid, obs := layout(
		".....",
		"####.",
		".....",
	)
	g := bake(t, grid, obs, DefaultBakeConfig())

	a := mustLookup(t, g, world.Cell{X: 0, Y: 0})
	b := mustLookup(t, g, world.Cell{X: 0, Y: 2})
	if _, ok := g.Weight(a, b); ok {
		t.Error("nodes on either side of the wall should not be linked")
	}
	if n := len(g.Islands()); n != 1 {
		t.Errorf("Islands = %d, want 1", n)
	}
}

func TestBakeClassifiesRooms(t *testing.T) {
	grid, obs := layout(square(12)...)
	g := bake(t, grid, obs, DefaultBakeConfig())

	rooms := make(map[NodeID]bool)
	for _, id := range g.RoomNodes() {
		rooms[id] = true
		if g.Node(id).ClosestWall <= g.Config().RoomThreshold {
			t.Errorf("room node %d has closest wall %v", id, g.Node(id).ClosestWall)
		}
	}

	center := mustLookup(t, g, world.Cell{X: 6, Y: 6})
	if !rooms[center] {
		t.Errorf("center node should be a room node (closest wall %v)", g.Node(center).ClosestWall)
	}
	corner := mustLookup(t, g, world.Cell{X: 0, Y: 0})
	if rooms[corner] {
		t.Error("corner node should not be a room node")
	}
}

func TestBakeIsDeterministic(t *testing.T) {
	grid, obs := layout(
		"..........",
		"...##.....",
		"...##...#.",
		"........#.",
		"..#.......",
	)

	serial := DefaultBakeConfig()
	serial.Workers = 1
	parallel := DefaultBakeConfig()
	parallel.Workers = 4

	a := bake(t, grid, obs, serial)
	b := bake(t, grid, obs, parallel)
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("serial and parallel bakes differ")
	}
}

// counting wraps an obstacle test and counts its casts.
type counting struct {
	Obstacles
	casts atomic.Int64
}

func (c *counting) Blocks(origin, dir world.Vec, maxDist float64) (world.Hit, bool) {
	c.casts.Add(1)
	return c.Obstacles.Blocks(origin, dir, maxDist)
}

func TestBakeForksObstaclesPerWorker(t *testing.T) {
	grid, obs := layout(square(12)...)
	shared := &counting{Obstacles: obs}

	forks := 0
	cfg := DefaultBakeConfig()
	cfg.Workers = 4
	cfg.Fork = func() Obstacles {
		forks++
		return &boxes{walls: slices.Clone(obs.walls)}
	}

	g := bake(t, grid, shared, cfg)

	// 144 nodes make three sweep batches, so only three workers are needed.
	if forks != 3 {
		t.Errorf("Fork called %d times, want 3", forks)
	}
	if n := shared.casts.Load(); n != 0 {
		t.Errorf("shared obstacles cast %d times, want 0", n)
	}

	plain := DefaultBakeConfig()
	plain.Workers = 4
	if g.Fingerprint() != bake(t, grid, obs, plain).Fingerprint() {
		t.Error("forked bake differs from a shared bake")
	}
}

func TestBakeRequiresObstacles(t *testing.T) {
	_, err := Bake(context.Background(), []world.Cell{{X: 0, Y: 0}}, nil, DefaultBakeConfig())
	if !errors.Is(err, ErrNoObstacles) {
		t.Errorf("err = %v, want ErrNoObstacles", err)
	}
}

func TestResolveKeepsLargestIsland(t *testing.T) {
	grid, obs := layout("..........##########...")
	g := bake(t, grid, obs, DefaultBakeConfig())

	if n := len(g.Islands()); n != 2 {
		t.Fatalf("Islands before resolve = %d, want 2", n)
	}

	res, err := Resolve(context.Background(), g, grid, obs)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(res.Kept) != 10 {
		t.Errorf("kept %d nodes, want 10", len(res.Kept))
	}
	if len(res.Refill) != 3 {
		t.Errorf("refilled %d cells, want 3", len(res.Refill))
	}
	if res.Islands != 2 {
		t.Errorf("Resolution.Islands = %d, want 2", res.Islands)
	}
	for _, c := range res.Refill {
		if grid.IsPassable(c) {
			t.Errorf("refilled cell %v is still open", c)
		}
		if _, ok := g.Lookup(c); ok {
			t.Errorf("refilled cell %v is still on the graph", c)
		}
	}
	if g.Len() != 10 || grid.OpenCount() != 10 {
		t.Errorf("Len = %d, OpenCount = %d, want 10 and 10", g.Len(), grid.OpenCount())
	}
	if n := len(g.Islands()); n != 1 {
		t.Errorf("Islands after resolve = %d, want 1", n)
	}
	for _, id := range g.Nodes() {
		for _, e := range g.Node(id).Edges {
			if g.Node(e.To) == nil {
				t.Errorf("node %d still links to removed node %d", id, e.To)
			}
		}
	}
}

func TestResolveSingleIslandIsNoop(t *testing.T) {
	grid, obs := layout(square(6)...)
	g := bake(t, grid, obs, DefaultBakeConfig())
	before := g.Fingerprint()

	res, err := Resolve(context.Background(), g, grid, obs)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Discarded) != 0 || len(res.Rebaked) != 0 {
		t.Errorf("unexpected discard %v / rebake %v", res.Discarded, res.Rebaked)
	}
	if g.Fingerprint() != before {
		t.Error("resolve changed a connected graph")
	}
}

func TestLargestIslandTieGoesToFirst(t *testing.T) {
	cells := []world.Cell{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 10, Y: 0}, {X: 11, Y: 0}}
	g := New(cells, 10)
	g.Link(0, 1)
	g.Link(2, 3)

	kept, discarded := g.LargestIsland()
	if len(kept) != 2 || kept[0] != 0 || kept[1] != 1 {
		t.Errorf("kept = %v, want [0 1]", kept)
	}
	if len(discarded) != 2 || discarded[0] != 2 {
		t.Errorf("discarded = %v, want [2 3]", discarded)
	}
}

func TestAnchorQueriesTolerateEmptySets(t *testing.T) {
	g := New(nil, 10)
	rng := rand.New(rand.NewSource(1))

	if _, ok := g.AnyRoom(rng); ok {
		t.Error("AnyRoom on empty graph should fail")
	}
	if _, ok := g.RoomWithin(rng, world.Vec{}, 0, 10, 0); ok {
		t.Error("RoomWithin on empty graph should fail")
	}
	if _, ok := g.RoomAwayFrom(rng, nil, 0, 0); ok {
		t.Error("RoomAwayFrom on empty graph should fail")
	}
}

func TestAnchorQueriesHonourConstraints(t *testing.T) {
	grid, obs := layout(square(12)...)
	g := bake(t, grid, obs, DefaultBakeConfig())

	ref := world.Vec{X: 3, Y: 3}
	refs := []world.Vec{{X: 0, Y: 0}, {X: 5.5, Y: 0}}

	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))

		id, ok := g.AnyRoom(rng)
		if !ok || g.Node(id).ClosestWall <= g.Config().RoomThreshold {
			t.Fatalf("seed %d: AnyRoom = %d, %v", seed, id, ok)
		}

		id, ok = g.RoomWithin(rng, ref, 0.5, 1.5, 1.5)
		if !ok {
			t.Fatalf("seed %d: RoomWithin found nothing", seed)
		}
		n := g.Node(id)
		if d := n.Pos.Dist(ref); d < 0.5 || d > 1.5 || n.ClosestWall < 1.5 {
			t.Errorf("seed %d: RoomWithin picked %v (dist %v, wall %v)", seed, n.Cell, d, n.ClosestWall)
		}

		id, ok = g.RoomAwayFrom(rng, refs, 3, 0)
		if !ok {
			t.Fatalf("seed %d: RoomAwayFrom found nothing", seed)
		}
		for _, r := range refs {
			if d := g.Node(id).Pos.Dist(r); d < 3 {
				t.Errorf("seed %d: RoomAwayFrom picked %v only %v from %v", seed, g.Node(id).Cell, d, r)
			}
		}
	}

	if _, ok := g.RoomWithin(rand.New(rand.NewSource(1)), ref, 0, 10, 100); ok {
		t.Error("RoomWithin should fail when no node has enough clearance")
	}
}
