package screen

import (
	"github.com/lixenwraith/kinetype/terminal"
)

// Cursor is a styled write-head bound to a screen. Multiple cursors may
// exist concurrently; the screen serializes their writes. Position may
// be out of bounds — individual writes bounds-check per character.
type Cursor struct {
	scr *Screen

	Row int
	Col int

	style Style

	isMain      bool
	canOverride bool
}

// NewCursor creates a cursor at the origin with default style
func NewCursor(scr *Screen, isMain, canOverride bool) *Cursor {
	return &Cursor{scr: scr, isMain: isMain, canOverride: canOverride}
}

// PrintText writes each code point of s at the cursor, advancing the
// column by the width the screen reports. Newlines call NewLine.
func (c *Cursor) PrintText(s string) {
	for _, r := range s {
		if r == '\n' {
			c.NewLine()
			continue
		}
		adv := c.scr.Write(c.Row, c.Col, r, c.style, c.isMain, c.canOverride)
		c.Col += adv
	}
}

// NewLine moves to the start of the next row. The last row clamps; the
// screen never scrolls.
func (c *Cursor) NewLine() {
	c.Row++
	if c.Row > c.scr.Height()-1 {
		c.Row = c.scr.Height() - 1
	}
	c.Col = 0
}

// MoveTo sets an absolute position (0-indexed, unclamped)
func (c *Cursor) MoveTo(row, col int) {
	c.Row = row
	c.Col = col
}

// MoveBy offsets the current position (unclamped)
func (c *Cursor) MoveBy(dRow, dCol int) {
	c.Row += dRow
	c.Col += dCol
}

// SetColor sets the foreground color
func (c *Cursor) SetColor(rgb terminal.RGB) {
	c.style.Fg = rgb
	c.style.HasFg = true
}

// ClearColor restores the default foreground
func (c *Cursor) ClearColor() {
	c.style.Fg = terminal.RGB{}
	c.style.HasFg = false
}

// SetBackground sets the background color. Alpha is stored with the
// cell but ignored at render.
func (c *Cursor) SetBackground(rgba terminal.RGBA) {
	c.style.Bg = rgba
	c.style.HasBg = true
}

// ClearBackground restores the default background
func (c *Cursor) ClearBackground() {
	c.style.Bg = terminal.RGBA{}
	c.style.HasBg = false
}

// SetStyle replaces the four text attributes
func (c *Cursor) SetStyle(bold, italic, underline, strikethrough bool) {
	c.style.Bold = bold
	c.style.Italic = italic
	c.style.Under = underline
	c.style.Strike = strikethrough
}

// ClearStyle switches the four text attributes off
func (c *Cursor) ClearStyle() {
	c.SetStyle(false, false, false, false)
}

// ResetStyle clears attributes and both colors
func (c *Cursor) ResetStyle() {
	c.ClearStyle()
	c.ClearColor()
	c.ClearBackground()
}

// Clone copies position and style into a new cursor with its own
// permission bits. Used when a branch is spawned.
func (c *Cursor) Clone(isMain, canOverride bool) *Cursor {
	clone := *c
	clone.isMain = isMain
	clone.canOverride = canOverride
	return &clone
}
