package screen

import (
	"sync"

	"github.com/lixenwraith/kinetype/terminal"
)

// Screen is a double-buffered cell grid. Script writes mutate the front
// buffer; GenerateDiffAndSwap emits the minimal ANSI delta against the
// shadow buffer (the last emitted state) and folds front into shadow.
// One mutex guards both grids; writes from distinct cursors serialize.
type Screen struct {
	mu     sync.Mutex
	width  int
	height int
	front  []Cell
	shadow []Cell

	colorMode terminal.ColorMode

	// Emitted-cursor tracking across diff calls. The terminal write
	// mutex guarantees nothing moves the cursor between diffs.
	cursorRow   int
	cursorCol   int
	cursorKnown bool
}

// New creates a screen with the given dimensions. Dimensions below the
// 80x24 floor are clamped up; they stay constant for the run.
func New(width, height int, mode terminal.ColorMode) *Screen {
	if width < 80 {
		width = 80
	}
	if height < 24 {
		height = 24
	}
	size := width * height
	s := &Screen{
		width:     width,
		height:    height,
		front:     make([]Cell, size),
		shadow:    make([]Cell, size),
		colorMode: mode,
	}
	for i := range s.front {
		s.front[i] = blankCell
		s.shadow[i] = blankCell
	}
	return s
}

// Width returns the grid width
func (s *Screen) Width() int { return s.width }

// Height returns the grid height
func (s *Screen) Height() int { return s.height }

// CellAt returns a copy of the front cell at (row, col)
func (s *Screen) CellAt(row, col int) Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row < 0 || row >= s.height || col < 0 || col >= s.width {
		return blankCell
	}
	return s.front[row*s.width+col]
}

// Write places one code point at (row, col) with the given style.
// The return value is the number of columns consumed: 0 when the write
// is refused for bounds or zero width, the character's width otherwise.
// A refused protected write still reports its width so a shadowing
// cursor keeps marching in lockstep with the main cursor.
func (s *Screen) Write(row, col int, r rune, st Style, isMain, canOverride bool) int {
	w := Width(r)
	if w == 0 {
		return 0
	}
	if row < 0 || row >= s.height || col < 0 || col+w > s.width {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := row*s.width + col

	if !isMain && !canOverride {
		if s.front[idx].LockedByMain || (w == 2 && s.front[idx+1].LockedByMain) {
			return w
		}
	}

	// Repair dangling wide pairs around the target before writing
	if s.front[idx].WidePlaceholder && col > 0 {
		s.front[idx-1] = blankCell
	}
	if s.front[idx].WideHead && col+1 < s.width {
		s.front[idx+1] = blankCell
	}
	if w == 2 && s.front[idx+1].WideHead && col+2 < s.width {
		s.front[idx+2] = blankCell
	}

	head := Cell{Rune: r, Style: st, WideHead: w == 2, LockedByMain: isMain}
	s.front[idx] = head
	if w == 2 {
		s.front[idx+1] = Cell{Rune: ' ', Style: st, WidePlaceholder: true, LockedByMain: isMain}
	}
	return w
}

// Clear resets every front cell to blank/default
func (s *Screen) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.front {
		s.front[i] = blankCell
	}
}

// GenerateDiffAndSwap scans the grids row-major and returns the ANSI
// byte sequence that transforms the last emitted state into the current
// front state, then copies changed cells into the shadow buffer. The
// sequence always ends with an SGR reset, so with no changes it is
// exactly that reset.
func (s *Screen) GenerateDiffAndSwap() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, 0, 256)

	// The previous diff ended with an SGR reset, so the emitter style
	// always starts from terminal defaults.
	var cur Style

	for row := 0; row < s.height; row++ {
		for col := 0; col < s.width; col++ {
			idx := row*s.width + col
			f := s.front[idx]
			if f.visualEqual(s.shadow[idx]) {
				continue
			}
			s.shadow[idx] = f

			// Placeholders render implicitly through their head
			if f.WidePlaceholder {
				continue
			}

			if !s.cursorKnown || s.cursorRow != row || s.cursorCol != col {
				buf = terminal.AppendCursorPos(buf, row, col)
			}
			buf = s.appendStyleDelta(buf, &cur, f.Style)
			buf = appendRune(buf, f.Rune)

			advance := 1
			if f.WideHead {
				advance = 2
			}
			s.cursorRow = row
			s.cursorCol = col + advance
			s.cursorKnown = true
		}
	}

	return terminal.AppendSGRReset(buf)
}

// appendStyleDelta emits the minimal per-attribute SGR transitions from
// cur to want and updates cur in place
func (s *Screen) appendStyleDelta(buf []byte, cur *Style, want Style) []byte {
	if want.HasFg != cur.HasFg || (want.HasFg && want.Fg != cur.Fg) {
		if want.HasFg {
			buf = terminal.AppendFg(buf, want.Fg, s.colorMode)
		} else {
			buf = terminal.AppendFgReset(buf)
		}
	}
	if want.HasBg != cur.HasBg || (want.HasBg && want.Bg.RGB() != cur.Bg.RGB()) {
		if want.HasBg {
			buf = terminal.AppendBg(buf, want.Bg.RGB(), s.colorMode)
		} else {
			buf = terminal.AppendBgReset(buf)
		}
	}
	if want.Bold != cur.Bold {
		buf = append(buf, sgrToggle(want.Bold, "\x1b[1m", "\x1b[22m")...)
	}
	if want.Italic != cur.Italic {
		buf = append(buf, sgrToggle(want.Italic, "\x1b[3m", "\x1b[23m")...)
	}
	if want.Under != cur.Under {
		buf = append(buf, sgrToggle(want.Under, "\x1b[4m", "\x1b[24m")...)
	}
	if want.Strike != cur.Strike {
		buf = append(buf, sgrToggle(want.Strike, "\x1b[9m", "\x1b[29m")...)
	}
	*cur = want
	return buf
}

func sgrToggle(on bool, set, reset string) string {
	if on {
		return set
	}
	return reset
}

// appendRune appends the UTF-8 encoding of r
func appendRune(buf []byte, r rune) []byte {
	if r < 0x80 {
		return append(buf, byte(r))
	}
	return append(buf, string(r)...)
}
