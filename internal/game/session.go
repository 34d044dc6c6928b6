package game

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/samdwyer/cavern/internal/entity"
	"github.com/samdwyer/cavern/internal/level"
	"github.com/samdwyer/cavern/internal/ui"
	"github.com/samdwyer/cavern/internal/world"
)

// wanderDistance is how far, in world units, a wander target must be from
// the agent.
const wanderDistance = 3

// Session is the viewer's state apart from the terminal: the level, the
// agent walking it and the cursor choosing where to go.
type Session struct {
	cfg    Config
	rng    *rand.Rand
	level  *level.Level
	agent  *entity.Agent
	cursor world.Cell
	state  State
	status string
}

// NewSession creates a session waiting for its first level.
func NewSession(cfg Config, rng *rand.Rand) *Session {
	return &Session{cfg: cfg, rng: rng, state: StateLoading, status: "generating level..."}
}

// State returns the session state.
func (s *Session) State() State {
	return s.state
}

// Agent returns the agent, or nil before the first level.
func (s *Session) Agent() *entity.Agent {
	return s.agent
}

// Cursor returns the cursor cell.
func (s *Session) Cursor() world.Cell {
	return s.cursor
}

// Status returns the current status line.
func (s *Session) Status() string {
	return s.status
}

// Loading marks the session as waiting for a new level.
func (s *Session) Loading() {
	s.state = StateLoading
	s.status = "generating level..."
}

// Failed reports a generation failure. A previous level stays usable.
func (s *Session) Failed(err error) {
	if s.level != nil {
		s.state = StateIdle
	}
	s.status = fmt.Sprintf("generation failed: %v", err)
}

// SetLevel places a fresh agent on a random room node of l.
func (s *Session) SetLevel(l *level.Level) {
	s.level = l

	id, ok := l.Graph.AnyRoom(s.rng)
	if !ok {
		nodes := l.Graph.Nodes()
		if len(nodes) == 0 {
			s.level = nil
			s.status = "level has no open cells"
			return
		}
		id = nodes[0]
	}
	pos := l.Graph.Node(id).Pos
	s.agent = entity.NewAgent(pos, s.cfg.Speed, s.cfg.Clearance)
	s.cursor = world.Snap(pos)
	s.state = StateIdle
	s.status = fmt.Sprintf("%s seed %d: %d nodes, %d rooms", l.Plan.Name, l.Seed, l.Graph.Len(), len(l.Graph.RoomNodes()))
}

// MoveCursor shifts the cursor, keeping it inside the level.
func (s *Session) MoveCursor(dx, dy int) {
	s.SetCursor(s.cursor.Add(dx, dy))
}

// SetCursor moves the cursor to c if it lies inside the level.
func (s *Session) SetCursor(c world.Cell) {
	if s.level == nil || !s.level.Grid.Extent().Contains(c) {
		return
	}
	s.cursor = c
}

// Walk plans a route from the agent to the cursor and starts following it.
func (s *Session) Walk(ctx context.Context) error {
	if s.level == nil {
		return nil
	}
	p, err := s.level.Paths.FindPath(ctx, s.agent.Pos, s.cursor.World(), s.agent.Clearance)
	if err != nil {
		s.status = err.Error()
		return err
	}
	s.agent.Follow(p)
	s.state = StateWalking
	s.status = fmt.Sprintf("walking %.1f units via %d waypoints", p.Length(), len(p.Waypoints()))
	return nil
}

// Wander sends the agent to a random room node away from where it stands.
func (s *Session) Wander(ctx context.Context) error {
	if s.level == nil {
		return nil
	}
	id, ok := s.level.Graph.RoomAwayFrom(s.rng, []world.Vec{s.agent.Pos}, wanderDistance, s.agent.Clearance)
	if !ok {
		s.status = "nowhere to wander"
		return nil
	}
	s.cursor = s.level.Graph.Node(id).Cell
	return s.Walk(ctx)
}

// ToggleClearance switches the agent between hugging walls and keeping
// to rooms.
func (s *Session) ToggleClearance() {
	if s.agent == nil {
		return
	}
	if s.agent.Clearance > 0 {
		s.agent.Clearance = 0
	} else {
		s.agent.Clearance = s.level.Graph.Config().RoomThreshold
	}
	s.status = fmt.Sprintf("clearance %.2f", s.agent.Clearance)
}

// Tick advances the agent by dt seconds.
func (s *Session) Tick(dt float64) {
	if s.state != StateWalking {
		return
	}
	if s.agent.Step(dt) {
		s.state = StateIdle
		s.status = "arrived"
	}
}

// Frame returns what the renderer should draw.
func (s *Session) Frame() ui.Frame {
	return ui.Frame{
		Level:  s.level,
		Agent:  s.agent,
		Cursor: s.cursor,
		Status: s.status,
	}
}
