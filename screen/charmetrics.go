package screen

import (
	"unicode"

	"github.com/mattn/go-runewidth"
)

// widthCond pins East Asian ambiguous characters to narrow so cell
// advancement does not depend on the host locale
var widthCond = &runewidth.Condition{StrictEmojiNeutral: true}

// Width returns the number of terminal columns a code point occupies:
// 0 for NUL, combining and format marks; 2 for CJK ideographs, kana,
// hangul, full/halfwidth forms and related blocks; 1 otherwise.
func Width(r rune) int {
	if r == 0 {
		return 0
	}
	if unicode.In(r, unicode.Mn, unicode.Me, unicode.Cf) {
		return 0
	}
	// The whole Halfwidth and Fullwidth Forms block is two columns
	if r >= 0xFF01 && r <= 0xFFEE {
		return 2
	}
	return widthCond.RuneWidth(r)
}
