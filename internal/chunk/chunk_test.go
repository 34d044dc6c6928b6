package chunk

import (
	"math"
	"testing"

	"github.com/samdwyer/cavern/internal/world"
)

func TestKeyOfFloorsNegatives(t *testing.T) {
	tests := []struct {
		cell world.Cell
		want Key
	}{
		{world.Cell{X: 0, Y: 0}, Key{0, 0}},
		{world.Cell{X: 9, Y: 9}, Key{0, 0}},
		{world.Cell{X: 10, Y: 19}, Key{1, 1}},
		{world.Cell{X: -1, Y: -10}, Key{-1, -1}},
		{world.Cell{X: -11, Y: 3}, Key{-2, 0}},
	}

	for _, tt := range tests {
		if got := KeyOf(tt.cell, 10); got != tt.want {
			t.Errorf("KeyOf(%v) = %v, want %v", tt.cell, got, tt.want)
		}
	}
}

func TestBucketAssignsEveryCellOnce(t *testing.T) {
	var cells []world.Cell
	for y := -5; y < 25; y += 2 {
		for x := -5; x < 25; x += 3 {
			cells = append(cells, world.Cell{X: x, Y: y})
		}
	}

	p := Bucket(cells, 10)

	seen := make(map[int]bool)
	for _, ch := range p.Chunks() {
		if ch.Empty() {
			t.Errorf("chunk %v is empty", ch.Key)
		}
		for _, id := range ch.Nodes {
			if seen[id] {
				t.Errorf("node %d appears in more than one chunk", id)
			}
			seen[id] = true
			if KeyOf(cells[id], 10) != ch.Key {
				t.Errorf("node %d (%v) filed under %v", id, cells[id], ch.Key)
			}
		}
	}
	if len(seen) != len(cells) {
		t.Errorf("bucketed %d nodes, want %d", len(seen), len(cells))
	}
}

func TestChunkCenter(t *testing.T) {
	p := Bucket([]world.Cell{{X: 0, Y: 0}, {X: 15, Y: 3}}, 10)

	ch := p.Get(Key{1, 0})
	if ch == nil {
		t.Fatal("expected chunk (1,0)")
	}
	// cells 10..19 → world 5.0..9.5, center 7.25
	if math.Abs(ch.Center.X-7.25) > 1e-9 || math.Abs(ch.Center.Y-2.25) > 1e-9 {
		t.Errorf("Center = %v, want (7.25,2.25)", ch.Center)
	}
	if math.Abs(ch.HalfWidth-2.5) > 1e-9 {
		t.Errorf("HalfWidth = %v, want 2.5", ch.HalfWidth)
	}
}

func TestNearIsConservative(t *testing.T) {
	var cells []world.Cell
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			cells = append(cells, world.Cell{X: x, Y: y})
		}
	}
	p := Bucket(cells, 10)

	point := world.Vec{X: 12.3, Y: 7.9}
	radius := 4.0

	included := make(map[Key]bool)
	for _, ch := range p.Near(point, radius) {
		included[ch.Key] = true
	}

	for id, c := range cells {
		if c.World().Dist(point) <= radius && !included[KeyOf(c, 10)] {
			t.Fatalf("node %d at %v is within radius but its chunk was pruned", id, c)
		}
	}
	if len(included) == p.Len() {
		t.Error("Near should prune distant chunks")
	}
}

func TestRemoveDropsEmptyChunks(t *testing.T) {
	cells := []world.Cell{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 30, Y: 30}}
	p := Bucket(cells, 10)
	p.Get(Key{0, 0}).SetRoomy([]int{1, 0})

	p.Remove(0, cells[0])
	ch := p.Get(Key{0, 0})
	if len(ch.Nodes) != 1 || ch.Nodes[0] != 1 {
		t.Errorf("Nodes after remove = %v, want [1]", ch.Nodes)
	}
	if len(ch.Roomy) != 1 || ch.Roomy[0] != 1 {
		t.Errorf("Roomy after remove = %v, want [1]", ch.Roomy)
	}

	p.Remove(2, cells[2])
	if p.Get(Key{3, 3}) != nil {
		t.Error("empty chunk should be discarded")
	}
	if p.Len() != 1 {
		t.Errorf("Len = %d, want 1", p.Len())
	}
}
