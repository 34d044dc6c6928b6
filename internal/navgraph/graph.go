// Package navgraph bakes and owns the line-of-sight navigation graph over a
// level's open cells.
//
// Nodes live in an arena addressed by NodeID; a node's identity is its cell,
// and the graph keeps a cell→id index so lookups never depend on pointers.
// Adjacency is stored per node as an id-sorted edge list, which keeps every
// iteration over neighbors deterministic.
package navgraph

import (
	"slices"

	"github.com/samdwyer/cavern/internal/chunk"
	"github.com/samdwyer/cavern/internal/world"
)

// NodeID addresses a node in its graph's arena.
type NodeID int

// Edge is one direction of a bidirectional, unobstructed straight-line link.
type Edge struct {
	To       NodeID
	Distance float64
}

// Node is one open cell of the level.
type Node struct {
	ID   NodeID
	Cell world.Cell
	Pos  world.Vec
	// ClosestWall is the distance to the nearest obstacle found while baking.
	ClosestWall float64
	// Edges is sorted by To.
	Edges []Edge

	removed bool
}

// Graph is the navigation graph of one level.
type Graph struct {
	nodes  []Node
	index  map[world.Cell]NodeID
	chunks *chunk.Partition
	cfg    BakeConfig
	live   int
}

// New creates an unlinked graph with one node per distinct cell, in the
// order given. Baking fills in edges and wall distances; tests and tools
// can link nodes by hand with Link.
func New(cells []world.Cell, chunkSize int) *Graph {
	g := &Graph{
		index: make(map[world.Cell]NodeID, len(cells)),
		cfg:   DefaultBakeConfig(),
	}

	unique := make([]world.Cell, 0, len(cells))
	for _, c := range cells {
		if _, dup := g.index[c]; dup {
			continue
		}
		id := NodeID(len(g.nodes))
		g.index[c] = id
		g.nodes = append(g.nodes, Node{ID: id, Cell: c, Pos: c.World()})
		unique = append(unique, c)
	}
	g.live = len(g.nodes)
	g.chunks = chunk.Bucket(unique, chunkSize)
	g.cfg.ChunkSize = g.chunks.Size()
	return g
}

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	return g.live
}

// Node returns the node with the given id, or nil if it does not exist or
// was removed.
func (g *Graph) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(g.nodes) || g.nodes[id].removed {
		return nil
	}
	return &g.nodes[id]
}

// Lookup returns the node id for a cell.
func (g *Graph) Lookup(c world.Cell) (NodeID, bool) {
	id, ok := g.index[c]
	return id, ok
}

// Snap returns the node nearest to a world position, if that cell is on the graph.
func (g *Graph) Snap(v world.Vec) (NodeID, bool) {
	return g.Lookup(world.Snap(v))
}

// Nodes returns every live node id in ascending order.
func (g *Graph) Nodes() []NodeID {
	ids := make([]NodeID, 0, g.live)
	for i := range g.nodes {
		if !g.nodes[i].removed {
			ids = append(ids, NodeID(i))
		}
	}
	return ids
}

// RoomNodes returns every node with enough legroom, in ascending order.
func (g *Graph) RoomNodes() []NodeID {
	var ids []NodeID
	for _, ch := range g.chunks.Chunks() {
		for _, id := range ch.Roomy {
			ids = append(ids, NodeID(id))
		}
	}
	slices.Sort(ids)
	return ids
}

// Chunks returns the graph's spatial partition.
func (g *Graph) Chunks() *chunk.Partition {
	return g.chunks
}

// Config returns the settings the graph was baked with.
func (g *Graph) Config() BakeConfig {
	return g.cfg
}

// SetClosestWall overrides a node's wall distance and refreshes its
// chunk's room list.
func (g *Graph) SetClosestWall(id NodeID, d float64) {
	n := g.Node(id)
	if n == nil {
		return
	}
	n.ClosestWall = d
	g.classify(g.chunks.Of(n.Cell))
}

// Link adds a bidirectional edge weighted by the nodes' world distance.
// Linking a node to itself or to a missing node is a no-op.
func (g *Graph) Link(a, b NodeID) {
	na, nb := g.Node(a), g.Node(b)
	if na == nil || nb == nil || a == b {
		return
	}
	d := na.Pos.Dist(nb.Pos)
	na.Edges = insertEdge(na.Edges, Edge{To: b, Distance: d})
	nb.Edges = insertEdge(nb.Edges, Edge{To: a, Distance: d})
}

// Unlink removes the edge between a and b in both directions.
func (g *Graph) Unlink(a, b NodeID) {
	if na := g.Node(a); na != nil {
		na.Edges = deleteEdge(na.Edges, b)
	}
	if nb := g.Node(b); nb != nil {
		nb.Edges = deleteEdge(nb.Edges, a)
	}
}

// Weight returns the edge weight between a and b.
func (g *Graph) Weight(a, b NodeID) (float64, bool) {
	n := g.Node(a)
	if n == nil {
		return 0, false
	}
	i, found := slices.BinarySearchFunc(n.Edges, b, compareEdge)
	if !found {
		return 0, false
	}
	return n.Edges[i].Distance, true
}

// remove detaches a node from every neighbor, its chunk and the index.
func (g *Graph) remove(id NodeID) {
	n := g.Node(id)
	if n == nil {
		return
	}
	for _, e := range n.Edges {
		if other := g.Node(e.To); other != nil {
			other.Edges = deleteEdge(other.Edges, id)
		}
	}
	n.Edges = nil
	n.removed = true
	g.chunks.Remove(int(id), n.Cell)
	delete(g.index, n.Cell)
	g.live--
}

// classify rebuilds a chunk's room list from its members' wall distances.
func (g *Graph) classify(ch *chunk.Chunk) {
	if ch == nil {
		return
	}
	var roomy []int
	for _, id := range ch.Nodes {
		if g.nodes[id].ClosestWall > g.cfg.RoomThreshold {
			roomy = append(roomy, id)
		}
	}
	ch.SetRoomy(roomy)
}

func compareEdge(e Edge, id NodeID) int {
	return int(e.To) - int(id)
}

func insertEdge(edges []Edge, e Edge) []Edge {
	i, found := slices.BinarySearchFunc(edges, e.To, compareEdge)
	if found {
		return edges
	}
	return slices.Insert(edges, i, e)
}

func deleteEdge(edges []Edge, id NodeID) []Edge {
	i, found := slices.BinarySearchFunc(edges, id, compareEdge)
	if !found {
		return edges
	}
	return slices.Delete(edges, i, i+1)
}
