package navgraph

import (
	"math/rand"

	"github.com/samdwyer/cavern/internal/chunk"
	"github.com/samdwyer/cavern/internal/world"
)

// AnyRoom picks a uniformly random room node.
func (g *Graph) AnyRoom(rng *rand.Rand) (NodeID, bool) {
	return pick(rng, g.RoomNodes())
}

// RoomWithin picks a random room node whose distance to ref lies in
// [minDist, maxDist] and whose closest wall is at least minWall.
func (g *Graph) RoomWithin(rng *rand.Rand, ref world.Vec, minDist, maxDist, minWall float64) (NodeID, bool) {
	return pick(rng, g.rooms(func(ch *chunk.Chunk) bool {
		lo, hi := ch.Bounds(ref)
		return hi >= minDist && lo <= maxDist
	}, func(n *Node) bool {
		d := n.Pos.Dist(ref)
		return d >= minDist && d <= maxDist && n.ClosestWall >= minWall
	}))
}

// RoomAwayFrom picks a random room node at least minDist from every point
// in refs and whose closest wall is at least minWall. With no refs any
// room node with enough clearance qualifies.
func (g *Graph) RoomAwayFrom(rng *rand.Rand, refs []world.Vec, minDist, minWall float64) (NodeID, bool) {
	return pick(rng, g.rooms(func(ch *chunk.Chunk) bool {
		for _, ref := range refs {
			if _, hi := ch.Bounds(ref); hi < minDist {
				return false
			}
		}
		return true
	}, func(n *Node) bool {
		if n.ClosestWall < minWall {
			return false
		}
		for _, ref := range refs {
			if n.Pos.Dist(ref) < minDist {
				return false
			}
		}
		return true
	}))
}

// rooms collects the room nodes of every chunk passing keepChunk whose
// node passes keep, in chunk order.
func (g *Graph) rooms(keepChunk func(*chunk.Chunk) bool, keep func(*Node) bool) []NodeID {
	var out []NodeID
	for _, ch := range g.chunks.Chunks() {
		if len(ch.Roomy) == 0 || !keepChunk(ch) {
			continue
		}
		for _, id := range ch.Roomy {
			if n := &g.nodes[id]; keep(n) {
				out = append(out, NodeID(id))
			}
		}
	}
	return out
}

func pick(rng *rand.Rand, ids []NodeID) (NodeID, bool) {
	if len(ids) == 0 {
		return 0, false
	}
	return ids[rng.Intn(len(ids))], true
}
