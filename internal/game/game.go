package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/cavern/internal/level"
	"github.com/samdwyer/cavern/internal/plan"
	"github.com/samdwyer/cavern/internal/telemetry"
	"github.com/samdwyer/cavern/internal/ui"
)

// frameInterval paces agent movement and redraws.
const frameInterval = 50 * time.Millisecond

// Game holds the viewer: terminal, session and the level host.
type Game struct {
	screen   *ui.Screen
	renderer *ui.Renderer
	session  *Session
	host     level.Host
	pending  *level.Pending
	reload   chan plan.Plan
	cfg      Config
	rng      *rand.Rand
	running  bool
}

// New creates a new viewer instance.
func New(cfg Config) (*Game, error) {
	screen, err := ui.NewScreen()
	if err != nil {
		return nil, err
	}
	palette, err := ui.NewPalette(cfg.Plan.Palette)
	if err != nil {
		screen.Close()
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cfg.Seed = seed
	rng := rand.New(rand.NewSource(seed))

	return &Game{
		screen:   screen,
		renderer: ui.NewRenderer(screen, palette),
		session:  NewSession(cfg, rng),
		reload:   make(chan plan.Plan, 1),
		cfg:      cfg,
		rng:      rng,
		running:  true,
	}, nil
}

// Reload regenerates the level from p. It is safe to call from any goroutine.
func (g *Game) Reload(p plan.Plan) {
	select {
	case g.reload <- p:
	default:
		// a reload is already queued; replace it
		select {
		case <-g.reload:
		default:
		}
		g.reload <- p
	}
}

// Run executes the main viewer loop.
func (g *Game) Run(ctx context.Context) error {
	tracer := telemetry.Tracer("game")

	ctx, initSpan := tracer.Start(ctx, "game.init")
	initSpan.SetAttributes(
		attribute.String("plan.id", g.cfg.Plan.ID),
		attribute.Int64("game.seed", g.cfg.Seed),
	)
	g.regenerate(ctx, g.cfg.Seed)
	initSpan.End()

	done := make(chan struct{})
	defer close(done)
	events := make(chan tcell.Event)
	go func() {
		for {
			ev := g.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	last := time.Now()

	for g.running {
		g.renderer.Render(g.session.Frame())

		var ready <-chan struct{}
		if g.pending != nil {
			ready = g.pending.Ready()
		}

		select {
		case <-ctx.Done():
			g.running = false
		case <-ready:
			g.finishLevel(ctx)
		case p := <-g.reload:
			g.cfg.Plan = p
			if palette, err := ui.NewPalette(p.Palette); err == nil {
				g.renderer.SetPalette(palette)
			}
			g.regenerate(ctx, g.cfg.Seed)
		case ev := <-events:
			g.handleEvent(ctx, ev)
		case now := <-ticker.C:
			g.session.Tick(now.Sub(last).Seconds())
			last = now
		}
	}

	g.screen.Close()
	return nil
}

// regenerate starts building a level with the given seed.
func (g *Game) regenerate(ctx context.Context, seed int64) {
	cfg := level.DefaultConfig(g.cfg.Plan)
	cfg.Seed = seed
	cfg.Log = g.cfg.Log
	g.pending = g.host.Regenerate(ctx, cfg)
	g.session.Loading()
}

// finishLevel takes the generated level, or the failure, from pending.
func (g *Game) finishLevel(ctx context.Context) {
	l, err := g.pending.Await(ctx)
	g.pending = nil
	if err != nil {
		g.cfg.Log.Error(err, "level generation failed")
		g.session.Failed(err)
		return
	}
	g.session.SetLevel(l)
}

// handleEvent processes a single input event.
func (g *Game) handleEvent(ctx context.Context, ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		g.handleKeyEvent(ctx, ev)
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			x, y := ev.Position()
			g.session.SetCursor(g.renderer.CellAt(x, y))
			_ = g.session.Walk(ctx)
		}
	case *tcell.EventResize:
		g.screen.Sync()
	}
}

// handleKeyEvent processes keyboard input.
func (g *Game) handleKeyEvent(ctx context.Context, ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		g.running = false

	case tcell.KeyUp:
		g.session.MoveCursor(0, -1)
	case tcell.KeyDown:
		g.session.MoveCursor(0, 1)
	case tcell.KeyLeft:
		g.session.MoveCursor(-1, 0)
	case tcell.KeyRight:
		g.session.MoveCursor(1, 0)

	case tcell.KeyEnter:
		_ = g.session.Walk(ctx)

	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			g.running = false
		case 'w':
			_ = g.session.Wander(ctx)
		case 'c':
			g.session.ToggleClearance()
		case 'r':
			// fresh seed from the viewer's own sequence
			g.cfg.Seed = g.rng.Int63()
			g.regenerate(ctx, g.cfg.Seed)
		}
	}
}

// Close cleans up viewer resources.
func (g *Game) Close() {
	if g.screen != nil {
		g.screen.Close()
	}
}
