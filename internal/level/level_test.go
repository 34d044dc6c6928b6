package level

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samdwyer/cavern/internal/carve"
	"github.com/samdwyer/cavern/internal/collide"
	"github.com/samdwyer/cavern/internal/navgraph"
	"github.com/samdwyer/cavern/internal/plan"
	"github.com/samdwyer/cavern/internal/world"
)

func circlePlan(radius int) plan.Plan {
	return plan.Plan{ID: "circle", Kind: plan.KindCircle, CircleRadius: radius, Buffer: 2, Weight: 1}
}

func stampPlan() plan.Plan {
	return plan.Plan{
		ID:              "small",
		Kind:            plan.KindStamps,
		Weight:          1,
		Width:           plan.IntRange{Min: 30, Max: 30},
		Height:          plan.IntRange{Min: 30, Max: 30},
		Buffer:          3,
		Stamps:          2,
		Radius:          plan.FloatRange{Min: 6, Max: 8},
		InnerRadius:     plan.FloatRange{Min: 2, Max: 3},
		LineThickness:   plan.FloatRange{Min: 2, Max: 3},
		StampSpacing:    plan.FloatRange{Min: 4, Max: 8},
		SpacingAttempts: 200,
	}
}

func await(t *testing.T, p *Pending) (*Level, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return p.Await(ctx)
}

func TestStartProducesConnectedLevel(t *testing.T) {
	cfg := DefaultConfig(circlePlan(10))
	cfg.Seed = 7

	l, err := await(t, Start(context.Background(), cfg))
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}

	if n := len(l.Graph.Islands()); n != 1 {
		t.Errorf("Islands = %d, want 1", n)
	}
	if l.Grid.OpenCount() != l.Graph.Len() {
		t.Errorf("OpenCount = %d, graph has %d nodes", l.Grid.OpenCount(), l.Graph.Len())
	}
	if len(l.Graph.RoomNodes()) == 0 {
		t.Error("expected room nodes")
	}
	if l.Fingerprint != l.Graph.Fingerprint() {
		t.Error("stored fingerprint is stale")
	}
	if l.Seed != 7 || l.Attempt != 0 {
		t.Errorf("Seed, Attempt = %d, %d, want 7, 0", l.Seed, l.Attempt)
	}
}

func TestGenerateIsReproducible(t *testing.T) {
	cfg := DefaultConfig(stampPlan())
	cfg.MinOpen = 1
	cfg.AllowRoomless = true

	a, err := Generate(context.Background(), cfg, 42)
	if err != nil {
		t.Fatalf("first generation failed: %v", err)
	}
	b, err := Generate(context.Background(), cfg, 42)
	if err != nil {
		t.Fatalf("second generation failed: %v", err)
	}

	if a.Fingerprint != b.Fingerprint {
		t.Error("same seed produced different graphs")
	}
	if a.ID == b.ID {
		t.Error("levels should get distinct IDs")
	}
	if len(a.Graph.Islands()) != 1 {
		t.Errorf("Islands = %d, want 1", len(a.Graph.Islands()))
	}
}

func TestStartRetriesThenGivesUp(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{
			name: "too small",
			cfg:  Config{Plan: circlePlan(4), Seed: 1, Attempts: 3, MinOpen: 1000},
			want: ErrTooSmall,
		},
		{
			name: "no room",
			cfg:  Config{Plan: circlePlan(2), Seed: 1, Attempts: 2, MinOpen: 1},
			want: ErrNoRoom,
		},
	}

	for _, tt := range tests {
		_, err := await(t, Start(context.Background(), tt.cfg))
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestStartStopsOnInvalidPlan(t *testing.T) {
	cfg := Config{Plan: circlePlan(0), Seed: 1, Attempts: 5}
	_, err := await(t, Start(context.Background(), cfg))
	if !errors.Is(err, carve.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestAwaitHonoursContext(t *testing.T) {
	p := &Pending{done: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Await(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	select {
	case <-p.Ready():
		t.Error("Ready should stay open")
	default:
	}
}

func TestHostPublishesWholeLevels(t *testing.T) {
	var h Host
	if h.Current() != nil {
		t.Fatal("new host should have no level")
	}

	cfg := DefaultConfig(circlePlan(8))
	cfg.Seed = 3
	l, err := await(t, h.Regenerate(context.Background(), cfg))
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	if h.Current() != l {
		t.Error("host should publish the finished level")
	}

	bad := Config{Plan: circlePlan(0), Seed: 1, Attempts: 1}
	if _, err := await(t, h.Regenerate(context.Background(), bad)); err == nil {
		t.Fatal("expected failure")
	}
	if h.Current() != l {
		t.Error("failed generation should keep the current level")
	}
}

func TestDeriveSeed(t *testing.T) {
	if DeriveSeed(99, 0) != 99 {
		t.Error("attempt zero should keep the base seed")
	}
	seen := map[int64]bool{99: true}
	for i := 1; i <= 5; i++ {
		s := DeriveSeed(99, i)
		if s < 0 {
			t.Errorf("DeriveSeed(99, %d) = %d, want non-negative", i, s)
		}
		if seen[s] {
			t.Errorf("DeriveSeed(99, %d) repeated %d", i, s)
		}
		seen[s] = true
		if DeriveSeed(99, i) != s {
			t.Error("DeriveSeed is not stable")
		}
	}
}

func TestRefillThroughPhysicsSpace(t *testing.T) {
	// Ten open cells, ten cells of wall, then a three-cell pocket.
	grid := world.NewGrid(23, 1, 1)
	for x := 0; x < 23; x++ {
		if x < 10 || x >= 20 {
			grid.SetTile(world.Cell{X: x, Y: 0}, world.TileFloor)
		}
	}
	space := collide.NewSpace(grid)
	boxes := space.Boxes()

	cfg := navgraph.DefaultBakeConfig()
	cfg.Workers = 2
	cfg.Fork = func() navgraph.Obstacles { return space.Clone() }
	g, err := navgraph.Bake(context.Background(), grid.OpenCells(), space, cfg)
	if err != nil {
		t.Fatalf("Bake failed: %v", err)
	}
	if n := len(g.Islands()); n != 2 {
		t.Fatalf("Islands = %d, want 2", n)
	}

	res, err := navgraph.Resolve(context.Background(), g, grid, space)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Refill) != 3 || g.Len() != 10 {
		t.Errorf("refilled %d and kept %d, want 3 and 10", len(res.Refill), g.Len())
	}
	if space.Boxes() != boxes+3 {
		t.Errorf("Boxes = %d, want %d", space.Boxes(), boxes+3)
	}
	if grid.IsPassable(world.Cell{X: 21, Y: 0}) {
		t.Error("pocket cell should be a wall again")
	}
	if n := len(g.Islands()); n != 1 {
		t.Errorf("Islands after resolve = %d, want 1", n)
	}

	// A cast from the far end of the kept run stops at the first wall.
	hit, ok := space.Blocks(world.Cell{X: 9, Y: 0}.World(), world.Vec{X: 1}, 5)
	if !ok || hit.Distance > 0.25+1e-6 {
		t.Errorf("cast = %v, %v, want a wall at 0.25", hit.Distance, ok)
	}
}

func TestGenerateStampPlanThroughPipeline(t *testing.T) {
	cfg := DefaultConfig(stampPlan())
	cfg.MinOpen = 1
	cfg.AllowRoomless = true

	l, err := Generate(context.Background(), cfg, 3)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if l.Obstacles == nil || l.Obstacles.Boxes() == 0 {
		t.Fatal("level should carry its obstacle space")
	}
	if n := len(l.Graph.Islands()); n != 1 {
		t.Errorf("Islands = %d, want 1", n)
	}
	if l.Grid.OpenCount() != l.Graph.Len() {
		t.Errorf("OpenCount = %d, graph has %d nodes", l.Grid.OpenCount(), l.Graph.Len())
	}
}
