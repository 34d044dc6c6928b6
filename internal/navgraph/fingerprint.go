package navgraph

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes every live node's cell, wall distance and edges. Two
// graphs baked from the same level and config have equal fingerprints.
func (g *Graph) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}

	for _, id := range g.Nodes() {
		n := &g.nodes[id]
		put(uint64(int64(n.Cell.X)))
		put(uint64(int64(n.Cell.Y)))
		put(math.Float64bits(n.ClosestWall))
		put(uint64(len(n.Edges)))
		for _, e := range n.Edges {
			put(uint64(e.To))
		}
	}
	return h.Sum64()
}
