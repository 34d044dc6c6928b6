package entity

import (
	"testing"

	"github.com/samdwyer/cavern/internal/pathfind"
	"github.com/samdwyer/cavern/internal/world"
)

func TestAgentWalksPathToEnd(t *testing.T) {
	a := NewAgent(world.Vec{}, 2, 0)
	a.Follow(pathfind.NewPath(a.Pos, []world.Vec{{X: 1}, {X: 1, Y: 1}}))

	if a.Step(0.5) {
		t.Fatal("route should not be finished after 1 unit")
	}
	if a.Pos.Dist(world.Vec{X: 1}) > 1e-9 {
		t.Errorf("Pos = %v, want (1,0)", a.Pos)
	}
	if !a.Walking() {
		t.Error("agent should still be walking")
	}

	if !a.Step(1) {
		t.Fatal("route should be finished")
	}
	if a.Pos != (world.Vec{X: 1, Y: 1}) {
		t.Errorf("Pos = %v, want (1,1)", a.Pos)
	}
	if a.Walking() || a.Path() != nil {
		t.Error("finished route should be dropped")
	}
	if a.Cell() != (world.Cell{X: 2, Y: 2}) {
		t.Errorf("Cell = %v, want (2,2)", a.Cell())
	}
}

func TestAgentIdleStepDoesNothing(t *testing.T) {
	a := NewAgent(world.Vec{X: 3, Y: 4}, 5, 1)
	if a.Step(1) {
		t.Error("idle agent cannot finish a route")
	}
	if a.Pos != (world.Vec{X: 3, Y: 4}) {
		t.Errorf("idle agent moved to %v", a.Pos)
	}
}
