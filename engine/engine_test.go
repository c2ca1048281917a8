package engine

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lixenwraith/kinetype/screen"
	"github.com/lixenwraith/kinetype/script"
	"github.com/lixenwraith/kinetype/terminal"
)

// fakeOutput is an in-memory Output capturing everything the engine
// emits
type fakeOutput struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	cursor  []bool
	cleared int
	reads   int
}

func newFakeOutput() *fakeOutput {
	return &fakeOutput{}
}

func (f *fakeOutput) Write(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buf.Write(p)
	return nil
}

func (f *fakeOutput) SetCursorVisible(visible bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursor = append(f.cursor, visible)
	return nil
}

func (f *fakeOutput) MoveCursor(row, col int) error { return nil }

func (f *fakeOutput) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return nil
}

func (f *fakeOutput) Size() (int, int) { return 80, 24 }

func (f *fakeOutput) ReadByte() (byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return '\r', nil
}

func (f *fakeOutput) contents() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.String()
}

// mockSink records sink calls
type mockSink struct {
	mu    sync.Mutex
	plays int
	stops int
}

func (m *mockSink) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plays++
}

func (m *mockSink) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
}

func parseLines(t *testing.T, lines ...string) []script.Element {
	t.Helper()
	els, err := script.Parse(lines)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return els
}

func TestPreScanIndexesDefinitions(t *testing.T) {
	els := parseLines(t,
		"[#f p]",
		"[<][0b]x",
		"[@red [color ff0000]]",
		"[0b]go",
	)
	e := New(newFakeOutput(), els, DefaultConfig())

	if _, ok := e.funcs["f"]; !ok {
		t.Error("function not indexed")
	}
	if e.aliases["red"] != "[color ff0000]" {
		t.Errorf("alias not indexed: %q", e.aliases["red"])
	}
}

func TestRunPlaysScript(t *testing.T) {
	out := newFakeOutput()
	els := parseLines(t, "[0b]hi")
	cfg := DefaultConfig()
	cfg.FrameInterval = 5 * time.Millisecond
	e := New(out, els, cfg)
	e.SetClock(NewMockClock(time.Unix(1000, 0)))

	sink := &mockSink{}
	e.SetAudioSink(sink)

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if e.scr.CellAt(0, 0).Rune != 'h' || e.scr.CellAt(0, 1).Rune != 'i' {
		t.Error("script text missing from screen")
	}
	if out.reads != 1 {
		t.Errorf("expected one start keypress read, got %d", out.reads)
	}
	if out.cleared != 1 {
		t.Errorf("expected one screen clear, got %d", out.cleared)
	}
	if sink.plays != 1 || sink.stops != 1 {
		t.Errorf("sink lifecycle wrong: %d plays, %d stops", sink.plays, sink.stops)
	}

	// First and last cursor visibility transitions: hide, then show
	if len(out.cursor) < 2 || out.cursor[0] != false || out.cursor[len(out.cursor)-1] != true {
		t.Errorf("cursor visibility sequence wrong: %v", out.cursor)
	}
}

func TestRunWritesPrompt(t *testing.T) {
	out := newFakeOutput()
	cfg := DefaultConfig()
	cfg.StartPrompt = "ready?"
	e := New(out, parseLines(t, "[0b]x"), cfg)
	e.SetClock(NewMockClock(time.Unix(1000, 0)))

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.contents(), "ready?") {
		t.Error("start prompt not written")
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	out := newFakeOutput()
	e := New(out, parseLines(t, "[0b]a[+5000]b"), DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- e.Run(ctx)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop on cancellation")
	}
}

func TestRenderLoopEmitsResetEveryFrame(t *testing.T) {
	out := newFakeOutput()
	e := New(out, nil, DefaultConfig())
	e.scr = screen.New(80, 24, terminal.ColorModeTrueColor)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.renderLoop(ctx)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if !strings.Contains(out.contents(), "\x1b[0m") {
		t.Error("frames must end with an SGR reset")
	}
}
