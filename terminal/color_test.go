package terminal

import "testing"

func TestRGBTo256(t *testing.T) {
	tests := []struct {
		name     string
		in       RGB
		expected uint8
	}{
		{name: "Black", in: RGB{0, 0, 0}, expected: 16},
		{name: "White", in: RGB{255, 255, 255}, expected: 231},
		{name: "Pure red", in: RGB{255, 0, 0}, expected: 196},
		{name: "Pure green", in: RGB{0, 255, 0}, expected: 46},
		{name: "Pure blue", in: RGB{0, 0, 255}, expected: 21},
		{name: "Mid gray", in: RGB{128, 128, 128}, expected: 244},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RGBTo256(tt.in); got != tt.expected {
				t.Errorf("RGBTo256(%+v) = %d, expected %d", tt.in, got, tt.expected)
			}
		})
	}
}

func TestAppendCursorPos(t *testing.T) {
	got := string(AppendCursorPos(nil, 0, 0))
	if got != "\x1b[1;1H" {
		t.Errorf("expected ESC[1;1H, got %q", got)
	}
	got = string(AppendCursorPos(nil, 9, 41))
	if got != "\x1b[10;42H" {
		t.Errorf("expected ESC[10;42H, got %q", got)
	}
}

func TestAppendColorSequences(t *testing.T) {
	if got := string(AppendFg(nil, RGB{255, 0, 0}, ColorModeTrueColor)); got != "\x1b[38;2;255;0;0m" {
		t.Errorf("truecolor fg wrong: %q", got)
	}
	if got := string(AppendFg(nil, RGB{255, 0, 0}, ColorMode256)); got != "\x1b[38;5;196m" {
		t.Errorf("256 fg wrong: %q", got)
	}
	if got := string(AppendBg(nil, RGB{1, 2, 3}, ColorModeTrueColor)); got != "\x1b[48;2;1;2;3m" {
		t.Errorf("truecolor bg wrong: %q", got)
	}
	if got := string(AppendFgReset(nil)); got != "\x1b[39m" {
		t.Errorf("fg reset wrong: %q", got)
	}
	if got := string(AppendBgReset(nil)); got != "\x1b[49m" {
		t.Errorf("bg reset wrong: %q", got)
	}
}
