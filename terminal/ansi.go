package terminal

// Pre-allocated ANSI sequence fragments (avoid allocations during render)
var (
	csiSGR0  = []byte("\x1b[0m")
	csiClear = []byte("\x1b[2J")

	csiCursorHide = []byte("\x1b[?25l")
	csiCursorShow = []byte("\x1b[?25h")
	csiCursorPos  = []byte("\x1b[") // followed by row;colH
)

// appendInt appends a non-negative integer without allocation
// Optimized for terminal values (0-255 common, 0-999 typical max)
func appendInt(b []byte, n int) []byte {
	if n < 0 {
		n = 0
	}
	if n < 10 {
		return append(b, byte(n)+'0')
	}
	if n < 100 {
		return append(b, byte(n/10)+'0', byte(n%10)+'0')
	}
	if n < 1000 {
		return append(b, byte(n/100)+'0', byte(n/10%10)+'0', byte(n%10)+'0')
	}
	// Fallback for >999 (rare)
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte(n%10) + '0'
		n /= 10
	}
	return append(b, buf[i:]...)
}

// AppendCursorPos appends a cursor positioning sequence (0-indexed input)
func AppendCursorPos(b []byte, row, col int) []byte {
	b = append(b, csiCursorPos...)
	b = appendInt(b, row+1)
	b = append(b, ';')
	b = appendInt(b, col+1)
	return append(b, 'H')
}

// AppendSGRReset appends the SGR reset sequence
func AppendSGRReset(b []byte) []byte {
	return append(b, csiSGR0...)
}

// AppendFg appends a foreground color set sequence for the given mode
func AppendFg(b []byte, c RGB, mode ColorMode) []byte {
	if mode == ColorModeTrueColor {
		b = append(b, "\x1b[38;2;"...)
		b = appendInt(b, int(c.R))
		b = append(b, ';')
		b = appendInt(b, int(c.G))
		b = append(b, ';')
		b = appendInt(b, int(c.B))
		return append(b, 'm')
	}
	b = append(b, "\x1b[38;5;"...)
	b = appendInt(b, int(RGBTo256(c)))
	return append(b, 'm')
}

// AppendFgReset appends the default-foreground sequence
func AppendFgReset(b []byte) []byte {
	return append(b, "\x1b[39m"...)
}

// AppendBg appends a background color set sequence for the given mode
func AppendBg(b []byte, c RGB, mode ColorMode) []byte {
	if mode == ColorModeTrueColor {
		b = append(b, "\x1b[48;2;"...)
		b = appendInt(b, int(c.R))
		b = append(b, ';')
		b = appendInt(b, int(c.G))
		b = append(b, ';')
		b = appendInt(b, int(c.B))
		return append(b, 'm')
	}
	b = append(b, "\x1b[48;5;"...)
	b = appendInt(b, int(RGBTo256(c)))
	return append(b, 'm')
}

// AppendBgReset appends the default-background sequence
func AppendBgReset(b []byte) []byte {
	return append(b, "\x1b[49m"...)
}
