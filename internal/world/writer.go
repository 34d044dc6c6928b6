package world

import (
	"io"
	"strings"
)

// TileWriter receives the carved classification of cells. Renderers
// implement it; this package never produces pixels.
type TileWriter interface {
	WriteTile(c Cell, t Tile)
}

// TileWriterFunc adapts a function to the TileWriter interface.
type TileWriterFunc func(c Cell, t Tile)

// WriteTile calls f(c, t).
func (f TileWriterFunc) WriteTile(c Cell, t Tile) { f(c, t) }

// TextWriter collects tiles into rows of runes for plain-text dumps.
type TextWriter struct {
	extent Rect
	rows   [][]rune
}

// NewTextWriter creates a text writer covering the given rectangle.
func NewTextWriter(extent Rect) *TextWriter {
	rows := make([][]rune, extent.Height)
	for y := range rows {
		rows[y] = []rune(strings.Repeat(" ", extent.Width))
	}
	return &TextWriter{extent: extent, rows: rows}
}

// WriteTile records a tile. Cells outside the writer's extent are dropped.
func (w *TextWriter) WriteTile(c Cell, t Tile) {
	if !w.extent.Contains(c) {
		return
	}
	w.rows[c.Y-w.extent.Y][c.X-w.extent.X] = t.Rune()
}

// Mark overwrites a cell with an arbitrary rune, e.g. a path marker.
func (w *TextWriter) Mark(c Cell, r rune) {
	if !w.extent.Contains(c) {
		return
	}
	w.rows[c.Y-w.extent.Y][c.X-w.extent.X] = r
}

// String returns the collected rows joined by newlines.
func (w *TextWriter) String() string {
	var b strings.Builder
	for _, row := range w.rows {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteTo writes the collected rows to out.
func (w *TextWriter) WriteTo(out io.Writer) (int64, error) {
	n, err := io.WriteString(out, w.String())
	return int64(n), err
}
