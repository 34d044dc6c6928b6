package navgraph

import (
	"context"
	"slices"

	"github.com/zyedidia/generic/mapset"
	"github.com/zyedidia/generic/queue"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/cavern/internal/chunk"
	"github.com/samdwyer/cavern/internal/telemetry"
	"github.com/samdwyer/cavern/internal/world"
)

// Resolution reports what Resolve kept and refilled.
type Resolution struct {
	Kept      []NodeID
	Discarded []NodeID
	// Refill holds the discarded nodes' cells, now walls in the grid.
	Refill []world.Cell
	// Rebaked lists the chunks whose wall distances were recomputed.
	Rebaked []chunk.Key
	Islands int
}

// Islands returns the graph's connected components. Each island is sorted
// and islands are ordered by their lowest node id.
func (g *Graph) Islands() [][]NodeID {
	visited := make([]bool, len(g.nodes))
	var islands [][]NodeID

	for _, start := range g.Nodes() {
		if visited[start] {
			continue
		}
		visited[start] = true

		island := []NodeID{start}
		frontier := queue.New[NodeID]()
		frontier.Enqueue(start)
		for !frontier.Empty() {
			id := frontier.Dequeue()
			for _, e := range g.nodes[id].Edges {
				if visited[e.To] {
					continue
				}
				visited[e.To] = true
				island = append(island, e.To)
				frontier.Enqueue(e.To)
			}
		}

		slices.Sort(island)
		islands = append(islands, island)
	}
	return islands
}

// LargestIsland splits the live nodes into the largest island and the rest.
// When two islands tie, the one containing the lower node id wins.
func (g *Graph) LargestIsland() (kept, discarded []NodeID) {
	islands := g.Islands()
	if len(islands) == 0 {
		return nil, nil
	}

	largest := 0
	for i, island := range islands {
		if len(island) > len(islands[largest]) {
			largest = i
		}
	}
	for i, island := range islands {
		if i != largest {
			discarded = append(discarded, island...)
		}
	}
	slices.Sort(discarded)
	return islands[largest], discarded
}

// Resolve keeps only the largest island. Discarded nodes are unlinked,
// dropped from their chunks and turned back into walls in grid (and in the
// obstacle environment when it is a Filler). Surviving nodes near the
// refill then get their wall distances, edges and room classification
// rebaked against the updated obstacles.
func Resolve(ctx context.Context, g *Graph, grid *world.Grid, obstacles Obstacles) (Resolution, error) {
	tracer := telemetry.Tracer("navgraph")
	ctx, span := tracer.Start(ctx, "navgraph.resolve")
	defer span.End()

	kept, discarded := g.LargestIsland()
	res := Resolution{
		Kept:      kept,
		Discarded: discarded,
		Islands:   len(g.Islands()),
	}

	for _, id := range discarded {
		c := g.nodes[id].Cell
		res.Refill = append(res.Refill, c)
		g.remove(id)
		if grid != nil {
			grid.SetTile(c, world.TileWall)
		}
	}

	if len(res.Refill) > 0 && obstacles != nil {
		if filler, ok := obstacles.(Filler); ok {
			filler.Fill(res.Refill)
		}
		res.Rebaked = g.affected(res.Refill)
		if err := g.rebake(ctx, obstacles, res.Rebaked); err != nil {
			return res, err
		}
	}

	span.SetAttributes(
		attribute.Int("navgraph.islands", res.Islands),
		attribute.Int("navgraph.kept", len(res.Kept)),
		attribute.Int("navgraph.refilled", len(res.Refill)),
		attribute.Int("navgraph.rebaked_chunks", len(res.Rebaked)),
	)
	g.cfg.Log.Info("resolved islands", "islands", res.Islands, "kept", len(res.Kept), "refilled", len(res.Refill))

	return res, nil
}

// affected returns the keys of chunks that could hold a node within sweep
// range of any refilled cell.
func (g *Graph) affected(refill []world.Cell) []chunk.Key {
	keys := mapset.New[chunk.Key]()
	for _, c := range refill {
		for _, ch := range g.chunks.Near(c.World(), g.cfg.MaxNeighborDistance) {
			keys.Put(ch.Key)
		}
	}

	var out []chunk.Key
	for _, ch := range g.chunks.Chunks() {
		if keys.Has(ch.Key) {
			out = append(out, ch.Key)
		}
	}
	return out
}

// rebake refreshes wall distances, drops newly obstructed edges and
// reclassifies rooms for the given chunks.
func (g *Graph) rebake(ctx context.Context, obstacles Obstacles, keys []chunk.Key) error {
	dirs := directions(g.cfg.Directions)
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		ch := g.chunks.Get(k)
		if ch == nil {
			continue
		}
		for _, member := range ch.Nodes {
			id := NodeID(member)
			n := &g.nodes[id]
			n.ClosestWall = g.closestWall(id, obstacles, dirs)

			var blocked []NodeID
			for _, e := range n.Edges {
				if !g.clear(obstacles, id, e.To) {
					blocked = append(blocked, e.To)
				}
			}
			for _, other := range blocked {
				g.Unlink(id, other)
			}
		}
		g.classify(ch)
	}
	return nil
}
