package screen

import (
	"strings"
	"testing"

	"github.com/lixenwraith/kinetype/terminal"
)

func newTestScreen() *Screen {
	return New(80, 24, terminal.ColorModeTrueColor)
}

func redStyle() Style {
	return Style{Fg: terminal.RGB{R: 255}, HasFg: true}
}

func TestWriteNarrow(t *testing.T) {
	s := newTestScreen()
	if adv := s.Write(0, 0, 'A', Style{}, true, true); adv != 1 {
		t.Fatalf("expected advance 1, got %d", adv)
	}
	if s.front[0].Rune != 'A' || !s.front[0].LockedByMain {
		t.Errorf("unexpected cell: %+v", s.front[0])
	}
}

func TestWriteWidePair(t *testing.T) {
	s := newTestScreen()
	st := redStyle()
	if adv := s.Write(0, 0, '一', st, true, true); adv != 2 {
		t.Fatalf("expected advance 2, got %d", adv)
	}
	head, ph := s.front[0], s.front[1]
	if !head.WideHead || head.WidePlaceholder {
		t.Errorf("bad head: %+v", head)
	}
	if !ph.WidePlaceholder || ph.WideHead || ph.Rune != ' ' {
		t.Errorf("bad placeholder: %+v", ph)
	}
	if ph.Style != head.Style {
		t.Error("placeholder must carry the head style")
	}
}

func TestWriteRejections(t *testing.T) {
	s := newTestScreen()
	tests := []struct {
		name string
		row  int
		col  int
		r    rune
	}{
		{name: "Negative row", row: -1, col: 0, r: 'x'},
		{name: "Row past bottom", row: 24, col: 0, r: 'x'},
		{name: "Column past right", row: 0, col: 80, r: 'x'},
		{name: "Wide at last column", row: 0, col: 79, r: '一'},
		{name: "Zero width", row: 0, col: 0, r: '́'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if adv := s.Write(tt.row, tt.col, tt.r, Style{}, true, true); adv != 0 {
				t.Errorf("expected rejection, got advance %d", adv)
			}
		})
	}
}

func TestWideRepairOverPlaceholder(t *testing.T) {
	s := newTestScreen()
	s.Write(0, 0, '一', Style{}, true, true)
	// Overwriting the placeholder clears the dangling head
	s.Write(0, 1, 'x', Style{}, true, true)
	if s.front[0].Rune != ' ' || s.front[0].WideHead {
		t.Errorf("head not repaired: %+v", s.front[0])
	}
	if s.front[1].Rune != 'x' {
		t.Errorf("write lost: %+v", s.front[1])
	}
}

func TestWideRepairOverHead(t *testing.T) {
	s := newTestScreen()
	s.Write(0, 0, '一', Style{}, true, true)
	// Overwriting the head clears the dangling placeholder
	s.Write(0, 0, 'x', Style{}, true, true)
	if s.front[1].Rune != ' ' || s.front[1].WidePlaceholder {
		t.Errorf("placeholder not repaired: %+v", s.front[1])
	}
}

func TestWideRepairChained(t *testing.T) {
	s := newTestScreen()
	s.Write(0, 2, '一', Style{}, true, true)
	// A wide write at col 1 lands on the head at col 2: its placeholder
	// at col 3 must not dangle
	s.Write(0, 1, '二', Style{}, true, true)
	if s.front[3].WidePlaceholder {
		t.Errorf("chained placeholder not repaired: %+v", s.front[3])
	}
	if !s.front[1].WideHead || !s.front[2].WidePlaceholder {
		t.Errorf("new pair wrong: %+v %+v", s.front[1], s.front[2])
	}
}

// Grid-wide pair invariant after a pile of writes
func TestWidePairInvariant(t *testing.T) {
	s := newTestScreen()
	writes := []struct {
		row, col int
		r        rune
	}{
		{0, 0, '一'}, {0, 1, '二'}, {0, 2, 'a'}, {0, 3, '三'},
		{1, 78, '四'}, {1, 79, 'b'}, {2, 0, 'c'}, {2, 0, '五'},
	}
	for _, w := range writes {
		s.Write(w.row, w.col, w.r, Style{}, true, true)
	}
	for row := 0; row < s.height; row++ {
		for col := 0; col < s.width; col++ {
			c := s.front[row*s.width+col]
			if c.WideHead && c.WidePlaceholder {
				t.Fatalf("cell (%d,%d) is both head and placeholder", row, col)
			}
			if c.WideHead {
				if col+1 >= s.width || !s.front[row*s.width+col+1].WidePlaceholder {
					t.Errorf("head (%d,%d) has no placeholder", row, col)
				}
			}
			if c.WidePlaceholder {
				if col == 0 || !s.front[row*s.width+col-1].WideHead {
					t.Errorf("placeholder (%d,%d) has no head", row, col)
				}
			}
		}
	}
}

func TestWriteProtection(t *testing.T) {
	s := newTestScreen()
	s.Write(0, 0, 'A', Style{}, true, true)
	s.Write(0, 1, 'B', Style{}, true, true)

	// A non-overriding branch is refused but still advances
	if adv := s.Write(0, 0, 'x', Style{}, false, false); adv != 1 {
		t.Fatalf("expected lockstep advance 1, got %d", adv)
	}
	if s.front[0].Rune != 'A' {
		t.Error("locked cell must not change")
	}

	// An overriding branch wins and unlocks the cell
	if adv := s.Write(0, 1, 'y', Style{}, false, true); adv != 1 {
		t.Fatalf("expected advance 1, got %d", adv)
	}
	if s.front[1].Rune != 'y' || s.front[1].LockedByMain {
		t.Errorf("override write wrong: %+v", s.front[1])
	}

	// Unlocked cells accept non-overriding writes
	if adv := s.Write(0, 1, 'z', Style{}, false, false); adv != 1 || s.front[1].Rune != 'z' {
		t.Errorf("write to unlocked cell refused: %+v", s.front[1])
	}
}

func TestWideWriteProtection(t *testing.T) {
	s := newTestScreen()
	s.Write(0, 1, 'A', Style{}, true, true)
	// The wide write covers an unlocked cell and a locked one
	if adv := s.Write(0, 0, '一', Style{}, false, false); adv != 2 {
		t.Fatalf("expected advance 2, got %d", adv)
	}
	if s.front[0].Rune != ' ' || s.front[1].Rune != 'A' {
		t.Error("refused wide write must not touch cells")
	}
}

func TestDiffStyleSequence(t *testing.T) {
	s := newTestScreen()
	s.Write(0, 0, 'X', redStyle(), true, true)
	s.Write(0, 1, 'Y', Style{}, true, true)

	diff := string(s.GenerateDiffAndSwap())
	expected := "\x1b[1;1H\x1b[38;2;255;0;0mX\x1b[39mY\x1b[0m"
	if diff != expected {
		t.Errorf("expected %q, got %q", expected, diff)
	}
}

func TestDiffIdempotence(t *testing.T) {
	s := newTestScreen()
	s.Write(0, 0, 'X', redStyle(), true, true)
	s.Write(5, 10, '一', Style{Bold: true}, true, true)

	s.GenerateDiffAndSwap()
	second := string(s.GenerateDiffAndSwap())
	if second != "\x1b[0m" {
		t.Errorf("expected bare reset, got %q", second)
	}
}

func TestDiffSkipsPlaceholders(t *testing.T) {
	s := newTestScreen()
	s.Write(0, 0, '一', Style{}, true, true)
	s.Write(0, 2, 'b', Style{}, true, true)

	diff := string(s.GenerateDiffAndSwap())
	// The head advances the cursor by two, so 'b' needs no reposition
	expected := "\x1b[1;1H一b\x1b[0m"
	if diff != expected {
		t.Errorf("expected %q, got %q", expected, diff)
	}
	if strings.Count(diff, "一") != 1 {
		t.Error("placeholder must not emit")
	}
}

func TestDiffRepositionsAcrossGaps(t *testing.T) {
	s := newTestScreen()
	s.Write(0, 0, 'a', Style{}, true, true)
	s.Write(2, 5, 'b', Style{}, true, true)

	diff := string(s.GenerateDiffAndSwap())
	expected := "\x1b[1;1Ha\x1b[3;6Hb\x1b[0m"
	if diff != expected {
		t.Errorf("expected %q, got %q", expected, diff)
	}
}

func TestDiffStyleToggles(t *testing.T) {
	s := newTestScreen()
	s.Write(0, 0, 'a', Style{Bold: true, Under: true}, true, true)
	s.Write(0, 1, 'b', Style{Bold: true}, true, true)

	diff := string(s.GenerateDiffAndSwap())
	expected := "\x1b[1;1H\x1b[1m\x1b[4ma\x1b[24mb\x1b[0m"
	if diff != expected {
		t.Errorf("expected %q, got %q", expected, diff)
	}
}

func TestDiffBackgroundDropsAlpha(t *testing.T) {
	s := newTestScreen()
	st := Style{Bg: terminal.RGBA{R: 1, G: 2, B: 3, A: 0x80}, HasBg: true}
	s.Write(0, 0, 'a', st, true, true)

	diff := string(s.GenerateDiffAndSwap())
	expected := "\x1b[1;1H\x1b[48;2;1;2;3ma\x1b[0m"
	if diff != expected {
		t.Errorf("expected %q, got %q", expected, diff)
	}
}

func TestDiff256ColorMode(t *testing.T) {
	s := New(80, 24, terminal.ColorMode256)
	s.Write(0, 0, 'X', redStyle(), true, true)

	diff := string(s.GenerateDiffAndSwap())
	expected := "\x1b[1;1H\x1b[38;5;196mX\x1b[0m"
	if diff != expected {
		t.Errorf("expected %q, got %q", expected, diff)
	}
}

func TestClearProducesBlankDiff(t *testing.T) {
	s := newTestScreen()
	s.Write(0, 0, 'X', redStyle(), true, true)
	s.GenerateDiffAndSwap()

	s.Clear()
	diff := string(s.GenerateDiffAndSwap())
	// The previous diff ended on default SGR, so the blank needs no
	// color reset of its own
	expected := "\x1b[1;1H \x1b[0m"
	if diff != expected {
		t.Errorf("expected %q, got %q", expected, diff)
	}
}

func TestClampedDimensions(t *testing.T) {
	s := New(10, 5, terminal.ColorModeTrueColor)
	if s.Width() != 80 || s.Height() != 24 {
		t.Errorf("expected 80x24 floor, got %dx%d", s.Width(), s.Height())
	}
}
