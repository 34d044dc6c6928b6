// Package entity provides things that move through a level.
package entity

import (
	"github.com/samdwyer/cavern/internal/pathfind"
	"github.com/samdwyer/cavern/internal/world"
)

// Agent walks planned paths at a fixed speed.
type Agent struct {
	Pos    world.Vec // Current world position
	Symbol rune      // Display symbol
	// Speed is in world units per second.
	Speed float64
	// Clearance is the closest-wall distance the agent needs along its route.
	Clearance float64

	path *pathfind.Path
}

// NewAgent creates an agent standing at pos.
func NewAgent(pos world.Vec, speed, clearance float64) *Agent {
	return &Agent{
		Pos:       pos,
		Symbol:    '@',
		Speed:     speed,
		Clearance: clearance,
	}
}

// Follow replaces the agent's route.
func (a *Agent) Follow(p *pathfind.Path) {
	a.path = p
}

// Path returns the route being walked, or nil.
func (a *Agent) Path() *pathfind.Path {
	return a.path
}

// Walking returns true while the agent has an unfinished route.
func (a *Agent) Walking() bool {
	return a.path != nil && !a.path.Complete()
}

// Step walks dt seconds along the route and returns true when the route
// was finished by this step.
func (a *Agent) Step(dt float64) bool {
	if !a.Walking() {
		return false
	}
	pos, done := a.path.Advance(a.Pos, a.Speed*dt)
	a.Pos = pos
	if done {
		a.path = nil
	}
	return done
}

// Cell returns the cell the agent is standing on.
func (a *Agent) Cell() world.Cell {
	return world.Snap(a.Pos)
}
