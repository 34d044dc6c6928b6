package ui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/cavern/internal/entity"
	"github.com/samdwyer/cavern/internal/level"
	"github.com/samdwyer/cavern/internal/navgraph"
	"github.com/samdwyer/cavern/internal/world"
)

// Frame is everything drawn in one screen update.
type Frame struct {
	Level  *level.Level
	Agent  *entity.Agent
	Cursor world.Cell
	Status string
}

// Renderer handles drawing levels to the screen. It is a world.TileWriter:
// the grid paints itself through WriteTile.
type Renderer struct {
	screen  *Screen
	palette Palette

	origin world.Cell
	graph  *navgraph.Graph
}

// NewRenderer creates a new renderer for the given screen.
func NewRenderer(screen *Screen, palette Palette) *Renderer {
	return &Renderer{screen: screen, palette: palette}
}

// SetPalette replaces the colors used for later frames.
func (r *Renderer) SetPalette(p Palette) {
	r.palette = p
}

// Render draws a frame. The view scrolls to keep the cursor on screen.
func (r *Renderer) Render(f Frame) {
	r.screen.Draw(func() {
		if f.Level != nil {
			r.drawLevel(f)
		}
		r.screen.Status(f.Status, tcell.StyleDefault.Foreground(tcell.ColorWhite))
	})
}

func (r *Renderer) drawLevel(f Frame) {
	w, h := r.screen.MapSize()
	r.origin = Viewport(f.Level.Grid.Extent(), f.Cursor, w, h)
	r.graph = f.Level.Graph
	f.Level.Grid.Paint(r)

	if f.Agent != nil {
		if p := f.Agent.Path(); p != nil {
			pathStyle := tcell.StyleDefault.Foreground(r.palette.Path)
			for _, wp := range p.Remaining() {
				r.put(world.Snap(wp), '*', pathStyle)
			}
		}
	}

	r.put(f.Cursor, '+', tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true))

	if f.Agent != nil {
		r.put(f.Agent.Cell(), f.Agent.Symbol, tcell.StyleDefault.Foreground(r.palette.Agent).Bold(true))
	}
}

// WriteTile draws one grid cell.
func (r *Renderer) WriteTile(c world.Cell, t world.Tile) {
	r.put(c, t.Rune(), r.tileStyle(c, t))
}

// tileStyle colors walls flat and floors by how much clearance they have.
func (r *Renderer) tileStyle(c world.Cell, t world.Tile) tcell.Style {
	if !t.IsPassable() {
		return tcell.StyleDefault.Foreground(r.palette.Wall)
	}
	if r.graph != nil {
		if id, ok := r.graph.Lookup(c); ok {
			n := r.graph.Node(id)
			heat := n.ClosestWall / r.graph.Config().MaxNeighborDistance
			return tcell.StyleDefault.Foreground(r.palette.Heat(heat))
		}
	}
	return tcell.StyleDefault.Foreground(r.palette.Floor)
}

func (r *Renderer) put(c world.Cell, ch rune, style tcell.Style) {
	r.screen.PutCell(c.X-r.origin.X, c.Y-r.origin.Y, ch, style)
}

// CellAt returns the cell drawn at a screen position in the last frame.
func (r *Renderer) CellAt(x, y int) world.Cell {
	return world.Cell{X: r.origin.X + x, Y: r.origin.Y + y}
}

// Viewport returns the top-left cell of a w×h view of ext that keeps focus
// visible, centering on it where the level is larger than the view.
func Viewport(ext world.Rect, focus world.Cell, w, h int) world.Cell {
	axis := func(lo, size, f, view int) int {
		if size <= view {
			return lo
		}
		o := f - view/2
		return min(max(o, lo), lo+size-view)
	}
	return world.Cell{
		X: axis(ext.X, ext.Width, focus.X, w),
		Y: axis(ext.Y, ext.Height, focus.Y, h),
	}
}
