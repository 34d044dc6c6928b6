package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/samdwyer/cavern/internal/plan"
)

// Palette holds the colors used to draw a level.
type Palette struct {
	Wall  tcell.Color
	Floor tcell.Color
	Path  tcell.Color
	Agent tcell.Color

	cool, warm colorful.Color
}

var defaultPalette = plan.Palette{
	Wall:  "#3b3b4f",
	Floor: "#1a1a24",
	Cool:  "#2b4c7e",
	Warm:  "#e0b050",
	Path:  "#7fdbca",
	Agent: "#ff6f61",
}

// NewPalette parses a plan palette. Empty entries fall back to the
// built-in colors.
func NewPalette(p plan.Palette) (Palette, error) {
	var (
		pal Palette
		err error
	)
	parse := func(name, hex, fallback string) colorful.Color {
		if err != nil {
			return colorful.Color{}
		}
		if hex == "" {
			hex = fallback
		}
		c, perr := colorful.Hex(hex)
		if perr != nil {
			err = fmt.Errorf("invalid %s color %q: %w", name, hex, perr)
		}
		return c
	}

	pal.Wall = toTcell(parse("wall", p.Wall, defaultPalette.Wall))
	pal.Floor = toTcell(parse("floor", p.Floor, defaultPalette.Floor))
	pal.Path = toTcell(parse("path", p.Path, defaultPalette.Path))
	pal.Agent = toTcell(parse("agent", p.Agent, defaultPalette.Agent))
	pal.cool = parse("cool", p.Cool, defaultPalette.Cool)
	pal.warm = parse("warm", p.Warm, defaultPalette.Warm)
	if err != nil {
		return Palette{}, err
	}
	return pal, nil
}

// MustPalette parses a plan palette, panicking on error.
func MustPalette(p plan.Palette) Palette {
	pal, err := NewPalette(p)
	if err != nil {
		panic(err)
	}
	return pal
}

// Heat blends from the cool to the warm color; t is clamped to [0, 1].
func (p Palette) Heat(t float64) tcell.Color {
	t = min(max(t, 0), 1)
	return toTcell(p.cool.BlendLab(p.warm, t).Clamped())
}

func toTcell(c colorful.Color) tcell.Color {
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
