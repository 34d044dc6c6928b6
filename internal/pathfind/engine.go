// Package pathfind answers point-to-point queries over a baked navigation
// graph with a best-first search.
package pathfind

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/zyedidia/generic/heap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/samdwyer/cavern/internal/navgraph"
	"github.com/samdwyer/cavern/internal/telemetry"
	"github.com/samdwyer/cavern/internal/world"
)

// ErrNotFound matches every failed path query.
var ErrNotFound = errors.New("path not found")

// Reason says why a query found no path.
type Reason int

const (
	StartOffGraph Reason = iota
	GoalOffGraph
	Exhausted
)

func (r Reason) String() string {
	switch r {
	case StartOffGraph:
		return "start off graph"
	case GoalOffGraph:
		return "goal off graph"
	case Exhausted:
		return "search exhausted"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// NotFoundError reports a failed query.
type NotFoundError struct {
	Reason      Reason
	Start, Goal world.Vec
	MinWall     float64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no path from %v to %v (min wall %.2f): %v", e.Start, e.Goal, e.MinWall, e.Reason)
}

// Is makes every NotFoundError match ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Engine searches one graph. The graph must not change while the engine
// is in use; any number of goroutines may query concurrently.
type Engine struct {
	graph *navgraph.Graph
	log   logr.Logger

	queries  metric.Int64Counter
	notFound metric.Int64Counter
}

// New creates an engine over g.
func New(g *navgraph.Graph, log logr.Logger) *Engine {
	e := &Engine{graph: g, log: log}

	meter := telemetry.Meter("pathfind")
	var err error
	if e.queries, err = meter.Int64Counter("pathfind.queries",
		metric.WithDescription("Path queries answered")); err != nil {
		log.Error(err, "creating counter", "name", "pathfind.queries")
		e.queries = noop.Int64Counter{}
	}
	if e.notFound, err = meter.Int64Counter("pathfind.not_found",
		metric.WithDescription("Path queries with no result")); err != nil {
		log.Error(err, "creating counter", "name", "pathfind.not_found")
		e.notFound = noop.Int64Counter{}
	}
	return e
}

// Graph returns the graph the engine searches.
func (e *Engine) Graph() *navgraph.Graph {
	return e.graph
}

// entry is one frontier record. Entries are never updated in place; a
// better route to a node pushes a new entry and the old one goes stale.
type entry struct {
	node  navgraph.NodeID
	score float64
	cost  float64
	prev  *entry
	seq   int
}

// FindPath plans a route from start to goal through nodes whose closest
// wall is at least minWall. The returned path's waypoints skip the start
// node and end at the literal goal position.
func (e *Engine) FindPath(ctx context.Context, start, goal world.Vec, minWall float64) (*Path, error) {
	tracer := telemetry.Tracer("pathfind")
	ctx, span := tracer.Start(ctx, "pathfind.find_path")
	defer span.End()

	e.queries.Add(ctx, 1)

	p, expanded, err := e.search(start, goal, minWall)
	span.SetAttributes(
		attribute.Int("pathfind.expanded", expanded),
		attribute.Float64("pathfind.min_wall", minWall),
	)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			e.notFound.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", nf.Reason.String())))
			span.SetAttributes(attribute.String("pathfind.reason", nf.Reason.String()))
			if nf.Reason == Exhausted && minWall == 0 {
				e.log.Error(err, "search exhausted without a clearance limit, graph may be disconnected")
			}
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("pathfind.waypoints", len(p.waypoints)),
		attribute.Float64("pathfind.length", p.Length()),
	)
	return p, nil
}

func (e *Engine) search(start, goal world.Vec, minWall float64) (*Path, int, error) {
	notFound := func(r Reason) error {
		return &NotFoundError{Reason: r, Start: start, Goal: goal, MinWall: minWall}
	}

	from, ok := e.graph.Snap(start)
	if !ok {
		return nil, 0, notFound(StartOffGraph)
	}
	to, ok := e.graph.Snap(goal)
	if !ok {
		return nil, 0, notFound(GoalOffGraph)
	}
	if from == to {
		return NewPath(start, []world.Vec{goal}), 0, nil
	}

	seq := 0
	frontier := heap.New[*entry](func(a, b *entry) bool {
		if a.score != b.score {
			return a.score > b.score
		}
		return a.seq < b.seq
	})
	best := make(map[navgraph.NodeID]float64)

	first := &entry{node: from, score: -e.graph.Node(from).Pos.Dist(goal)}
	best[from] = first.score
	frontier.Push(first)

	expanded := 0
	for {
		cur, ok := frontier.Pop()
		if !ok {
			return nil, expanded, notFound(Exhausted)
		}
		if cur.score < best[cur.node] {
			continue
		}
		expanded++

		for _, edge := range e.graph.Node(cur.node).Edges {
			nb := e.graph.Node(edge.To)
			if nb == nil || nb.ClosestWall < minWall {
				continue
			}
			if nb.ID == to {
				return NewPath(start, chain(e.graph, cur, goal)), expanded, nil
			}

			hop := edge.Distance
			if cur.prev == nil {
				hop = start.Dist(nb.Pos)
			}
			cost := cur.cost + hop
			score := -nb.Pos.Dist(goal) - cost
			if prev, seen := best[nb.ID]; seen && prev >= score {
				continue
			}
			best[nb.ID] = score
			seq++
			frontier.Push(&entry{node: nb.ID, score: score, cost: cost, prev: cur, seq: seq})
		}
	}
}

// chain walks predecessors back to, but not including, the start entry and
// appends the literal goal.
func chain(g *navgraph.Graph, last *entry, goal world.Vec) []world.Vec {
	var rev []world.Vec
	for n := last; n.prev != nil; n = n.prev {
		rev = append(rev, g.Node(n.node).Pos)
	}
	out := make([]world.Vec, 0, len(rev)+1)
	for i := len(rev) - 1; i >= 0; i-- {
		out = append(out, rev[i])
	}
	return append(out, goal)
}
