package engine

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/lixenwraith/kinetype/screen"
	"github.com/lixenwraith/kinetype/script"
	"github.com/lixenwraith/kinetype/terminal"
)

// executeScope plays one element stream against its own time anchor and
// BPM. Function and alias calls recurse with the anchor rebased to the
// caller's last event, so callee offsets are local. Spawned branches are
// awaited before the scope returns.
func (e *Engine) executeScope(ctx context.Context, els []script.Element, cur *screen.Cursor, scopeStart time.Time, bpm float64) error {
	var children sync.WaitGroup
	defer children.Wait()

	currentBpm := bpm
	var lastOffset int64

	for _, el := range els {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		switch v := el.(type) {
		case script.Timestamp:
			off := offsetMs(v, currentBpm, lastOffset)
			if v.Kind != script.Continuation {
				lastOffset = off
			}
			target := scopeStart.Add(time.Duration(off) * time.Millisecond)
			// A late event runs immediately; offsets are absolute from
			// scope start so one slow frame cannot accumulate drift
			if d := target.Sub(e.clock.Now()); d > 0 {
				if err := e.clock.Sleep(ctx, d); err != nil {
					return err
				}
			}

		case script.SetBpm:
			currentBpm = v.BPM

		case script.PrintText:
			cur.PrintText(v.Text)

		case script.PrintSpace:
			cur.PrintText(strings.Repeat(" ", v.Count))

		case script.NewLine:
			cur.NewLine()

		case script.ClearScreen:
			e.scr.Clear()
			cur.MoveTo(0, 0)
			cur.ResetStyle()

		case script.ClearScreenNoReset:
			e.scr.Clear()

		case script.MoveAbsolute:
			cur.MoveTo(v.Row-1, v.Col-1)

		case script.MoveRelative:
			cur.MoveBy(v.DRow, v.DCol)

		case script.SetColor:
			cur.SetColor(terminal.RGB{R: v.R, G: v.G, B: v.B})

		case script.ClearColor:
			cur.ClearColor()

		case script.SetBackground:
			cur.SetBackground(terminal.RGBA{R: v.R, G: v.G, B: v.B, A: v.A})

		case script.ClearBackground:
			cur.ClearBackground()

		case script.SetStyle:
			cur.SetStyle(v.Bold, v.Italic, v.Underline, v.Strikethrough)

		case script.ClearStyle:
			cur.ClearStyle()

		case script.CallFunction:
			if err := e.callSync(ctx, v, cur, scopeStart, lastOffset, currentBpm); err != nil {
				return err
			}

		case script.CallCoroutine:
			e.spawnBranch(ctx, &children, v, cur, scopeStart, lastOffset, currentBpm)

		case script.DefineFunction, script.DefineAlias:
			// Indexed during pre-scan; inert in the stream
		}
	}
	return nil
}

// callSync resolves a name against aliases first, then functions, and
// recurses with a rebased anchor. An unknown name prints itself back.
func (e *Engine) callSync(ctx context.Context, call script.CallFunction, cur *screen.Cursor, scopeStart time.Time, lastOffset int64, bpm float64) error {
	anchor := scopeStart.Add(time.Duration(lastOffset) * time.Millisecond)

	if content, ok := e.aliases[call.Name]; ok {
		resolved, err := script.ParseLineContent(content)
		if err != nil {
			return err
		}
		return e.executeScope(ctx, resolved, cur, anchor, bpm)
	}

	if fd, ok := e.funcs[call.Name]; ok {
		resolved, err := expandFunction(fd, call.Args)
		if err != nil {
			return err
		}
		return e.executeScope(ctx, resolved, cur, anchor, bpm)
	}

	cur.PrintText("[" + call.Name + "]")
	return nil
}

// spawnBranch starts a concurrent executor on a cloned cursor. Only
// functions are eligible; a missing or unparsable target is ignored.
func (e *Engine) spawnBranch(ctx context.Context, children *sync.WaitGroup, call script.CallCoroutine, cur *screen.Cursor, scopeStart time.Time, lastOffset int64, bpm float64) {
	fd, ok := e.funcs[call.Name]
	if !ok {
		return
	}
	resolved, err := expandFunction(fd, call.Args)
	if err != nil {
		return
	}

	sub := cur.Clone(false, fd.AllowOverride)
	anchor := scopeStart.Add(time.Duration(lastOffset) * time.Millisecond)

	children.Add(1)
	go func() {
		defer children.Done()
		e.executeScope(ctx, resolved, sub, anchor, bpm)
	}()
}

// expandFunction substitutes [param] placeholders textually and
// re-parses the body. Missing arguments substitute as empty strings.
// Substitution-before-parse is what lets parameters appear inside
// bracket commands.
func expandFunction(fd script.DefineFunction, args []string) ([]script.Element, error) {
	lines := make([]string, len(fd.Body))
	for i, line := range fd.Body {
		for pi, param := range fd.Params {
			arg := ""
			if pi < len(args) {
				arg = args[pi]
			}
			line = strings.ReplaceAll(line, "["+param+"]", arg)
		}
		lines[i] = line
	}
	return script.Parse(lines)
}

// offsetMs computes an event's offset from scope start in integer
// milliseconds
func offsetMs(ts script.Timestamp, bpm float64, last int64) int64 {
	msPerBeat := 60000.0 / bpm
	switch ts.Kind {
	case script.AbsoluteMs:
		return ts.Ms
	case script.AbsoluteBeat:
		return int64(math.Round(ts.Beat * msPerBeat))
	case script.AbsoluteBeatPlusMs:
		return int64(math.Round(ts.Beat*msPerBeat)) + ts.Ms
	case script.AbsoluteBeatPlusFraction:
		return int64(math.Round(ts.Beat*msPerBeat + float64(ts.Num)/float64(ts.Den)*msPerBeat))
	case script.RelativeMs:
		return last + ts.Ms
	case script.RelativeBeat:
		return last + int64(math.Round(ts.Beat*msPerBeat))
	case script.RelativeFractionBeat:
		return last + int64(math.Round(float64(ts.Num)/float64(ts.Den)*msPerBeat))
	default:
		// Continuation
		return last
	}
}
