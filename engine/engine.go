package engine

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/kinetype/screen"
	"github.com/lixenwraith/kinetype/script"
	"github.com/lixenwraith/kinetype/terminal"
)

// Output is the terminal surface the engine drives. terminal.Terminal
// satisfies it; tests substitute an in-memory fake.
type Output interface {
	Write(p []byte) error
	SetCursorVisible(visible bool) error
	MoveCursor(row, col int) error
	Clear() error
	Size() (width, height int)
	ReadByte() (byte, error)
}

// AudioSink is an opaque background track. Play returns immediately;
// Stop is idempotent and safe after natural end.
type AudioSink interface {
	Play()
	Stop()
}

// Config carries the tunable playback parameters
type Config struct {
	FrameInterval time.Duration
	DefaultBPM    float64
	ColorMode     terminal.ColorMode
	StartPrompt   string
}

// DefaultConfig returns the standard playback parameters
func DefaultConfig() Config {
	return Config{
		FrameInterval: 33 * time.Millisecond,
		DefaultBPM:    120.0,
		ColorMode:     terminal.ColorModeTrueColor,
		StartPrompt:   "Press ENTER to start",
	}
}

// Engine walks a parsed element stream against the wall clock, drives
// cursors into the virtual screen, spawns branch executors, and runs
// the render loop that flushes diffs to the terminal.
type Engine struct {
	out   Output
	sink  AudioSink
	clock Clock
	cfg   Config

	elements []script.Element
	funcs    map[string]script.DefineFunction
	aliases  map[string]string

	scr *screen.Screen
}

// New pre-indexes definitions and prepares an engine for one run
func New(out Output, elements []script.Element, cfg Config) *Engine {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = 33 * time.Millisecond
	}
	if cfg.DefaultBPM <= 0 {
		cfg.DefaultBPM = 120.0
	}

	e := &Engine{
		out:      out,
		clock:    NewMonotonicClock(),
		cfg:      cfg,
		elements: elements,
		funcs:    make(map[string]script.DefineFunction),
		aliases:  make(map[string]string),
	}
	for _, el := range elements {
		switch v := el.(type) {
		case script.DefineFunction:
			e.funcs[v.Name] = v
		case script.DefineAlias:
			e.aliases[v.Name] = v.Content
		}
	}
	return e
}

// SetAudioSink attaches a background track started at time zero
func (e *Engine) SetAudioSink(sink AudioSink) {
	e.sink = sink
}

// SetClock replaces the time source. Tests drive simulated time.
func (e *Engine) SetClock(c Clock) {
	e.clock = c
}

// Screen exposes the virtual screen once Run has built it
func (e *Engine) Screen() *screen.Screen {
	return e.scr
}

// Run executes the script: it starts the render loop, waits for one
// byte of input, anchors the timeline, and plays the stream to the end.
// The render task is cancelled and the terminal cursor restored before
// returning.
func (e *Engine) Run(ctx context.Context) error {
	w, h := e.out.Size()
	e.scr = screen.New(w, h, e.cfg.ColorMode)
	cursor := screen.NewCursor(e.scr, true, true)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.renderLoop(gctx)
	})

	if e.cfg.StartPrompt != "" {
		e.out.Write([]byte(e.cfg.StartPrompt))
	}
	if _, err := e.out.ReadByte(); err != nil {
		cancel()
		g.Wait()
		e.out.SetCursorVisible(true)
		return err
	}

	e.out.Clear()
	start := e.clock.Now()
	if e.sink != nil {
		e.sink.Play()
	}

	execErr := e.executeScope(gctx, e.elements, cursor, start, e.cfg.DefaultBPM)

	if execErr == nil {
		// Let the final frame land before teardown
		e.clock.Sleep(ctx, time.Second)
	}
	if e.sink != nil {
		e.sink.Stop()
	}
	cancel()
	renderErr := g.Wait()

	e.out.MoveCursor(e.scr.Height()-1, 0)
	e.out.SetCursorVisible(true)

	if execErr != nil && !errors.Is(execErr, context.Canceled) {
		return execErr
	}
	if renderErr != nil && !errors.Is(renderErr, context.Canceled) {
		return renderErr
	}
	return nil
}

// renderLoop flushes a diff each frame. Missed frames need no catch-up:
// the next diff subsumes all intervening writes.
func (e *Engine) renderLoop(ctx context.Context) error {
	if err := e.out.SetCursorVisible(false); err != nil {
		return err
	}
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		frameStart := e.clock.Now()
		diff := e.scr.GenerateDiffAndSwap()
		if err := e.out.Write(diff); err != nil {
			return err
		}
		sleep := e.cfg.FrameInterval - e.clock.Now().Sub(frameStart)
		if sleep < time.Millisecond {
			sleep = time.Millisecond
		}
		if err := e.clock.Sleep(ctx, sleep); err != nil {
			return err
		}
	}
}
