package screen

import (
	"github.com/lixenwraith/kinetype/terminal"
)

// Style carries the paint state a cursor applies to every cell it writes
type Style struct {
	Fg     terminal.RGB
	HasFg  bool
	Bg     terminal.RGBA
	HasBg  bool
	Bold   bool
	Italic bool
	Under  bool
	Strike bool
}

// Cell is one grid element of the virtual screen
type Cell struct {
	Rune rune
	Style

	// WideHead marks the first column of a two-column character;
	// WidePlaceholder marks the second. Mutually exclusive.
	WideHead        bool
	WidePlaceholder bool

	// LockedByMain marks cells written by the main cursor. Non-overriding
	// branch cursors are refused on locked cells but still advance.
	LockedByMain bool
}

// blankCell is the default state of an untouched grid position
var blankCell = Cell{Rune: ' '}

// visualEqual reports whether two cells render identically. Lock and
// wide-pair bookkeeping do not participate.
func (c Cell) visualEqual(o Cell) bool {
	return c.Rune == o.Rune &&
		c.HasFg == o.HasFg && (!c.HasFg || c.Fg == o.Fg) &&
		c.HasBg == o.HasBg && (!c.HasBg || c.Bg.RGB() == o.Bg.RGB()) &&
		c.Bold == o.Bold && c.Italic == o.Italic &&
		c.Under == o.Under && c.Strike == o.Strike
}
