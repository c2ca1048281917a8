package script

// Element is one parsed script item: a timestamp, a command, or a
// definition. The engine dispatches on the concrete type.
type Element interface {
	element()
}

// TimestampKind discriminates the timestamp forms
type TimestampKind uint8

const (
	// AbsoluteMs is a wall offset from scope start: [mm:ss.xxx]
	AbsoluteMs TimestampKind = iota
	// AbsoluteBeat is a beat count from scope start: [Nb]
	AbsoluteBeat
	// AbsoluteBeatPlusMs adds milliseconds to a beat: [Nb+K]
	AbsoluteBeatPlusMs
	// AbsoluteBeatPlusFraction adds a beat fraction to a beat: [Nb+MbK]
	AbsoluteBeatPlusFraction
	// RelativeMs offsets from the previous event: [+N]
	RelativeMs
	// RelativeBeat offsets by beats from the previous event: [+Nb]
	RelativeBeat
	// RelativeFractionBeat offsets by a beat fraction: [+NbK]
	RelativeFractionBeat
	// Continuation re-uses the previous event's offset
	Continuation
)

// Timestamp schedules the elements that follow it on a line
type Timestamp struct {
	Kind TimestampKind
	Ms   int64   // AbsoluteMs, AbsoluteBeatPlusMs, RelativeMs
	Beat float64 // beat-based kinds; fractional beats allowed
	Num  int64   // fraction numerator
	Den  int64   // fraction denominator
}

// SetBpm changes the beat-to-millisecond conversion for the rest of the
// enclosing scope
type SetBpm struct {
	BPM float64
}

// NewLine moves the cursor to the start of the next row
type NewLine struct{}

// ClearScreen wipes the grid, homes the cursor and resets its style
type ClearScreen struct{}

// ClearScreenNoReset wipes the grid and leaves the cursor untouched
type ClearScreenNoReset struct{}

// MoveAbsolute positions the cursor (1-based row/column)
type MoveAbsolute struct {
	Row, Col int
}

// MoveRelative offsets the cursor
type MoveRelative struct {
	DRow, DCol int
}

// SetColor sets the cursor foreground
type SetColor struct {
	R, G, B uint8
}

// ClearColor restores the default foreground
type ClearColor struct{}

// SetBackground sets the cursor background; alpha is retained but not
// rendered
type SetBackground struct {
	R, G, B, A uint8
}

// ClearBackground restores the default background
type ClearBackground struct{}

// SetStyle replaces the cursor text attributes
type SetStyle struct {
	Bold, Italic, Underline, Strikethrough bool
}

// ClearStyle switches all cursor text attributes off
type ClearStyle struct{}

// PrintSpace writes Count spaces. Raw whitespace outside brackets is
// dropped by the parser, so this is the only way to emit spaces.
type PrintSpace struct {
	Count int
}

// PrintText writes literal text at the cursor
type PrintText struct {
	Text string
}

// DefineAlias names a raw line fragment that is re-parsed at call time
type DefineAlias struct {
	Name    string
	Content string
}

// DefineFunction declares a callable body. Body lines are kept raw so
// parameter placeholders substitute textually before re-parse.
type DefineFunction struct {
	Name          string
	Params        []string
	Body          []string
	AllowOverride bool
}

// CallFunction invokes an alias or function synchronously; an unknown
// name prints as literal bracketed text
type CallFunction struct {
	Name string
	Args []string
}

// CallCoroutine invokes a function on a concurrent branch with its own
// cloned cursor; unknown names are ignored
type CallCoroutine struct {
	Name string
	Args []string
}

func (Timestamp) element()          {}
func (SetBpm) element()             {}
func (NewLine) element()            {}
func (ClearScreen) element()        {}
func (ClearScreenNoReset) element() {}
func (MoveAbsolute) element()       {}
func (MoveRelative) element()       {}
func (SetColor) element()           {}
func (ClearColor) element()         {}
func (SetBackground) element()      {}
func (ClearBackground) element()    {}
func (SetStyle) element()           {}
func (ClearStyle) element()         {}
func (PrintSpace) element()         {}
func (PrintText) element()          {}
func (DefineAlias) element()        {}
func (DefineFunction) element()     {}
func (CallFunction) element()       {}
func (CallCoroutine) element()      {}
