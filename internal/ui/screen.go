// Package ui draws levels to a terminal using tcell.
package ui

import (
	"sync"

	"github.com/gdamore/tcell/v2"
)

// statusRows is the number of rows kept below the map for messages.
const statusRows = 1

// Screen is a terminal split into a map area and a status line beneath it.
type Screen struct {
	screen tcell.Screen
	once   sync.Once
}

// NewScreen opens the controlling terminal.
func NewScreen() (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return Wrap(s)
}

// Wrap initializes an existing tcell screen, such as a simulation screen.
func Wrap(s tcell.Screen) (*Screen, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	s.EnableMouse()
	s.Clear()
	return &Screen{screen: s}, nil
}

// Close restores the terminal. Later calls do nothing.
func (s *Screen) Close() {
	s.once.Do(s.screen.Fini)
}

// PollEvent waits for the next terminal event. It returns nil once the
// screen has been closed.
func (s *Screen) PollEvent() tcell.Event {
	return s.screen.PollEvent()
}

// Sync forces a complete redraw, e.g. after a resize.
func (s *Screen) Sync() {
	s.screen.Sync()
}

// MapSize returns the dimensions of the map area.
func (s *Screen) MapSize() (width, height int) {
	w, h := s.screen.Size()
	return w, max(0, h-statusRows)
}

// Draw clears the screen, runs fn to fill it and shows the result.
func (s *Screen) Draw(fn func()) {
	s.screen.Clear()
	fn()
	s.screen.Show()
}

// PutCell sets one map cell. Positions outside the map area are ignored.
func (s *Screen) PutCell(x, y int, r rune, style tcell.Style) {
	w, h := s.MapSize()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	s.screen.SetContent(x, y, r, nil, style)
}

// Status writes msg on the status line, cut to the screen width.
func (s *Screen) Status(msg string, style tcell.Style) {
	w, h := s.screen.Size()
	if h == 0 {
		return
	}
	x := 0
	for _, ch := range msg {
		if x >= w {
			break
		}
		s.screen.SetContent(x, h-statusRows, ch, nil, style)
		x++
	}
}
