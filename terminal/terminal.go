package terminal

import (
	"io"
	"os"
	"sync"
)

// Terminal provides raw access to the controlling terminal. All writes
// after Init go through a single mutex so rendered frames and any direct
// prints during teardown cannot interleave.
type Terminal struct {
	in    *os.File
	out   *os.File
	inFd  int
	outFd int

	writeMu sync.Mutex

	mu          sync.Mutex
	initialized bool
	finalized   bool
	restore     func()
}

// New creates a Terminal bound to stdin/stdout
func New() *Terminal {
	return &Terminal{
		in:    os.Stdin,
		out:   os.Stdout,
		inFd:  int(os.Stdin.Fd()),
		outFd: int(os.Stdout.Fd()),
	}
}

// Init enters raw mode
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized {
		return nil
	}

	restore, err := makeRaw(t.inFd)
	if err != nil {
		return err
	}
	t.restore = restore
	t.initialized = true
	t.finalized = false
	return nil
}

// Fini restores terminal state. Safe to call multiple times
func (t *Terminal) Fini() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized || t.finalized {
		return
	}

	t.writeMu.Lock()
	t.out.Write(csiSGR0)
	t.out.Write(csiCursorShow)
	t.writeMu.Unlock()

	if t.restore != nil {
		t.restore()
		t.restore = nil
	}
	t.finalized = true
}

// Size returns current terminal dimensions
func (t *Terminal) Size() (width, height int) {
	return getTerminalSize(t.outFd)
}

// Write emits raw bytes under the terminal write mutex
func (t *Terminal) Write(p []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_, err := t.out.Write(p)
	return err
}

// WriteString is Write for string payloads
func (t *Terminal) WriteString(s string) error {
	return t.Write([]byte(s))
}

// ReadByte blocks until one byte of input is available
func (t *Terminal) ReadByte() (byte, error) {
	var buf [1]byte
	for {
		n, err := t.in.Read(buf[:])
		if err != nil {
			return 0, err
		}
		if n == 1 {
			return buf[0], nil
		}
	}
}

// SetCursorVisible shows/hides the hardware cursor
func (t *Terminal) SetCursorVisible(visible bool) error {
	if visible {
		return t.Write(csiCursorShow)
	}
	return t.Write(csiCursorHide)
}

// MoveCursor positions the hardware cursor (0-indexed)
func (t *Terminal) MoveCursor(row, col int) error {
	return t.Write(AppendCursorPos(nil, row, col))
}

// Clear wipes the terminal display
func (t *Terminal) Clear() error {
	return t.Write(csiClear)
}

// EmergencyReset attempts to restore the terminal to a sane state.
// Used from crash paths where the normal Fini sequence may be unreachable
func EmergencyReset(w io.Writer) {
	w.Write(csiCursorShow)
	w.Write(csiSGR0)

	if f, ok := w.(*os.File); ok {
		f.Sync()
	}

	// Escape sequences alone don't restore termios
	resetTerminalMode()
}
