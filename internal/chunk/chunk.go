// Package chunk buckets open cells into fixed-size square chunks so that
// proximity and line-distance queries only look at nearby cells.
package chunk

import (
	"math"
	"slices"

	"github.com/samdwyer/cavern/internal/world"
)

// DefaultSize is the chunk edge length in cells.
const DefaultSize = 10

// Key is a chunk's grid coordinate.
type Key struct {
	X, Y int
}

// KeyOf returns the chunk key owning a cell. Negative coordinates floor
// toward negative infinity, so cell -1 belongs to chunk -1.
func KeyOf(c world.Cell, size int) Key {
	return Key{X: floorDiv(c.X, size), Y: floorDiv(c.Y, size)}
}

func compareKeys(a, b Key) int {
	if a.Y != b.Y {
		return a.Y - b.Y
	}
	return a.X - b.X
}

// Chunk owns the nodes inside one size×size square of cells.
type Chunk struct {
	Key Key
	// Center is the world-space center of the chunk's square.
	Center world.Vec
	// HalfWidth is half the chunk's edge length in world units.
	HalfWidth float64

	// Nodes lists member node ids in ascending order.
	Nodes []int
	// Roomy lists the members whose closest wall clears the room threshold.
	Roomy []int
}

// Reach returns the farthest any member can be from Center.
func (c *Chunk) Reach() float64 {
	return c.HalfWidth * math.Sqrt2
}

// Empty returns true once every member has been removed.
func (c *Chunk) Empty() bool {
	return len(c.Nodes) == 0
}

// Partition is the set of non-empty chunks over a level's open cells.
type Partition struct {
	size   int
	chunks map[Key]*Chunk
	keys   []Key
}

// Bucket partitions cells into chunks. Node ids are indices into cells.
func Bucket(cells []world.Cell, size int) *Partition {
	if size <= 0 {
		size = DefaultSize
	}

	p := &Partition{
		size:   size,
		chunks: make(map[Key]*Chunk),
	}

	for id, c := range cells {
		k := KeyOf(c, size)
		ch, ok := p.chunks[k]
		if !ok {
			ch = p.newChunk(k)
			p.chunks[k] = ch
			p.keys = append(p.keys, k)
		}
		ch.Nodes = append(ch.Nodes, id)
	}

	slices.SortFunc(p.keys, compareKeys)
	return p
}

func (p *Partition) newChunk(k Key) *Chunk {
	// Members span cells k*size .. k*size+size-1.
	mid := float64(p.size-1) / 2
	return &Chunk{
		Key: k,
		Center: world.Vec{
			X: (float64(k.X*p.size) + mid) / world.Scale,
			Y: (float64(k.Y*p.size) + mid) / world.Scale,
		},
		HalfWidth: float64(p.size) / world.Scale / 2,
	}
}

// Size returns the chunk edge length in cells.
func (p *Partition) Size() int {
	return p.size
}

// Len returns the number of chunks.
func (p *Partition) Len() int {
	return len(p.keys)
}

// Get returns the chunk with the given key, or nil.
func (p *Partition) Get(k Key) *Chunk {
	return p.chunks[k]
}

// Of returns the chunk owning the cell, or nil if it has no members.
func (p *Partition) Of(c world.Cell) *Chunk {
	return p.chunks[KeyOf(c, p.size)]
}

// Chunks returns every chunk in row-major key order.
func (p *Partition) Chunks() []*Chunk {
	out := make([]*Chunk, 0, len(p.keys))
	for _, k := range p.keys {
		out = append(out, p.chunks[k])
	}
	return out
}

// Near returns, in key order, every chunk that could hold a member within
// radius of point.
func (p *Partition) Near(point world.Vec, radius float64) []*Chunk {
	var out []*Chunk
	for _, k := range p.keys {
		ch := p.chunks[k]
		if ch.Center.Dist(point) <= radius+ch.Reach() {
			out = append(out, ch)
		}
	}
	return out
}

// Bounds returns the conservative min and max distance from point to any
// member of the chunk.
func (c *Chunk) Bounds(point world.Vec) (lo, hi float64) {
	d := c.Center.Dist(point)
	return max(0, d-c.Reach()), d + c.Reach()
}

// Remove drops a node from its chunk's lists. Chunks left empty are discarded.
func (p *Partition) Remove(id int, c world.Cell) {
	k := KeyOf(c, p.size)
	ch := p.chunks[k]
	if ch == nil {
		return
	}
	ch.Nodes = removeID(ch.Nodes, id)
	ch.Roomy = removeID(ch.Roomy, id)
	if ch.Empty() {
		delete(p.chunks, k)
		if i, found := slices.BinarySearchFunc(p.keys, k, compareKeys); found {
			p.keys = slices.Delete(p.keys, i, i+1)
		}
	}
}

// SetRoomy replaces a chunk's room list, keeping ids in ascending order.
func (c *Chunk) SetRoomy(ids []int) {
	c.Roomy = slices.Clone(ids)
	slices.Sort(c.Roomy)
}

func removeID(ids []int, id int) []int {
	if i, found := slices.BinarySearch(ids, id); found {
		return slices.Delete(ids, i, i+1)
	}
	return ids
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
