package script

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// reservedNames cannot be used as alias or function names; bracket
// contents starting with one of these are always command territory
var reservedNames = map[string]bool{
	"bpm":             true,
	"newline":         true,
	"mv":              true,
	"color":           true,
	"clearcolor":      true,
	"background":      true,
	"clearbackground": true,
	"style":           true,
	"clearstyle":      true,
	"clear":           true,
	"clearn":          true,
	"space":           true,
	"override":        true,
}

// Parse turns raw script lines into the flat element stream the engine
// executes. Blank lines and // comments are skipped. Every line must
// open with a timestamp unless it is a definition, a bpm change, or the
// consumer of a continuation marker.
//
// Whitespace outside brackets never reaches the output; spaces in the
// rendered text come only from [space] and [space N].
func Parse(lines []string) ([]Element, error) {
	var out []Element
	pendingCont := false

	i := 0
	for i < len(lines) {
		lineNo := i + 1
		trimmed := strings.TrimSpace(lines[i])
		i++

		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}

		content, producer := stripContinuationMarker(trimmed)

		els, err := parseLineContent(content, lineNo)
		if err != nil {
			return nil, err
		}

		if len(els) == 0 {
			pendingCont = producer
			continue
		}

		if fd, ok := els[0].(DefineFunction); ok {
			if pendingCont {
				return nil, fmt.Errorf("line %d: continuation cannot open a function definition", lineNo)
			}
			for _, el := range els[1:] {
				if pt, ok := el.(PrintText); ok && pt.Text == "[override]" {
					fd.AllowOverride = true
				}
			}
			body, consumed := captureBody(lines, i)
			fd.Body = body
			i += consumed
			out = append(out, fd)
			pendingCont = producer
			continue
		}

		if pendingCont {
			out = append(out, Timestamp{Kind: Continuation})
		} else if !opensTimeline(els[0]) {
			return nil, fmt.Errorf("line %d: expected a leading timestamp", lineNo)
		}
		out = append(out, els...)
		pendingCont = producer
	}

	return out, nil
}

// ParseLineContent tokenizes a single line fragment. The engine uses it
// to re-parse alias content at call time; no leading-timestamp rule
// applies here.
func ParseLineContent(s string) ([]Element, error) {
	return parseLineContent(s, 0)
}

// opensTimeline reports whether el may legally open a line without a
// preceding continuation
func opensTimeline(el Element) bool {
	switch el.(type) {
	case Timestamp, SetBpm, DefineAlias, DefineFunction:
		return true
	}
	return false
}

// stripContinuationMarker removes a trailing unescaped [>] and reports
// whether the line produced a continuation
func stripContinuationMarker(line string) (string, bool) {
	if !strings.HasSuffix(line, "[>]") {
		return line, false
	}
	head := line[:len(line)-3]
	backslashes := 0
	for k := len(head) - 1; k >= 0 && head[k] == '\\'; k-- {
		backslashes++
	}
	if backslashes%2 == 1 {
		// The bracket is escaped; not a marker
		return line, false
	}
	return strings.TrimSpace(head), true
}

// captureBody collects the [<] lines following a function header.
// Blank and comment lines inside the body region are skipped; the first
// other line ends the body.
func captureBody(lines []string, start int) ([]string, int) {
	j := start
	var body []string
	for j < len(lines) {
		trimmed := strings.TrimSpace(lines[j])
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			j++
			continue
		}
		if !strings.HasPrefix(trimmed, "[<]") {
			break
		}
		body = append(body, trimmed[3:])
		j++
	}
	return body, j - start
}

// parseLineContent scans a line left to right: escapes append
// literally, unescaped brackets dispatch to parseBracketContent, and
// whitespace outside brackets is dropped.
func parseLineContent(s string, lineNo int) ([]Element, error) {
	var out []Element
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			out = append(out, PrintText{Text: text.String()})
			text.Reset()
		}
	}

	runes := []rune(s)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes):
			switch runes[i+1] {
			case '[':
				text.WriteRune('[')
			case ']':
				text.WriteRune(']')
			case '\\':
				text.WriteRune('\\')
			case 'n':
				text.WriteRune('\n')
			case 't':
				text.WriteRune('\t')
			case '>':
				text.WriteRune('>')
			default:
				// Unknown escape keeps the backslash
				text.WriteRune('\\')
				i++
				continue
			}
			i += 2
		case r == '[':
			end := matchBracket(runes, i)
			if end < 0 {
				// Unterminated bracket is a literal character
				text.WriteRune('[')
				i++
				continue
			}
			flush()
			el, err := parseBracketContent(string(runes[i+1:end]), lineNo)
			if err != nil {
				return nil, err
			}
			out = append(out, el)
			i = end + 1
		case unicode.IsSpace(r):
			i++
		default:
			text.WriteRune(r)
			i++
		}
	}
	flush()
	return out, nil
}

// matchBracket finds the index of the ] matching the unescaped [ at
// open, honoring nesting. Returns -1 when unterminated.
func matchBracket(runes []rune, open int) int {
	depth := 0
	for i := open; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			i++
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseBracketContent interprets the inside of one bracket pair. The
// first matching form wins; content that matches nothing prints itself
// back with the brackets restored.
func parseBracketContent(content string, lineNo int) (Element, error) {
	trimmed := strings.TrimSpace(content)

	if isTimestampStart(trimmed) {
		ts, err := parseTimestamp(trimmed)
		if err != nil {
			return nil, errf(lineNo, "malformed timestamp %q", trimmed)
		}
		return ts, nil
	}

	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return PrintText{Text: "[" + content + "]"}, nil
	}

	switch fields[0] {
	case "bpm":
		if len(fields) != 2 {
			return nil, errf(lineNo, "bpm takes exactly one value")
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || v <= 0 {
			return nil, errf(lineNo, "invalid bpm %q", fields[1])
		}
		return SetBpm{BPM: v}, nil

	case "space":
		n := 1
		switch len(fields) {
		case 1:
		case 2:
			v, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, errf(lineNo, "invalid space count %q", fields[1])
			}
			if v > 1 {
				n = v
			}
		default:
			return nil, errf(lineNo, "invalid space command %q", trimmed)
		}
		return PrintSpace{Count: n}, nil

	case "newline", "clear", "clearn", "clearcolor", "clearbackground", "clearstyle":
		if len(fields) != 1 {
			return nil, errf(lineNo, "%s takes no arguments", fields[0])
		}
		switch fields[0] {
		case "newline":
			return NewLine{}, nil
		case "clear":
			return ClearScreen{}, nil
		case "clearn":
			return ClearScreenNoReset{}, nil
		case "clearcolor":
			return ClearColor{}, nil
		case "clearbackground":
			return ClearBackground{}, nil
		default:
			return ClearStyle{}, nil
		}

	case "mv":
		return parseMove(strings.TrimSpace(trimmed[2:]), lineNo)

	case "color":
		if len(fields) != 2 {
			return nil, errf(lineNo, "color takes exactly one value")
		}
		return parseColor(fields[1], lineNo)

	case "background":
		if len(fields) != 2 {
			return nil, errf(lineNo, "background takes exactly one value")
		}
		return parseBackground(fields[1], lineNo)

	case "style":
		return parseStyleFlags(fields[1:], lineNo)
	}

	if strings.HasPrefix(trimmed, "#") {
		return parseFunctionHeader(trimmed[1:], lineNo)
	}
	if strings.HasPrefix(trimmed, "@") {
		return parseAliasDefinition(trimmed[1:], lineNo)
	}
	if strings.HasPrefix(trimmed, "++") {
		name, args, ok := parseCall(trimmed[2:])
		if !ok {
			return PrintText{Text: "[" + content + "]"}, nil
		}
		return CallCoroutine{Name: name, Args: args}, nil
	}
	if name, args, ok := parseCall(trimmed); ok && !reservedNames[name] {
		return CallFunction{Name: name, Args: args}, nil
	}

	return PrintText{Text: "[" + content + "]"}, nil
}

func parseMove(arg string, lineNo int) (Element, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != 2 {
		return nil, errf(lineNo, "mv takes two comma-separated values")
	}
	a := strings.TrimSpace(parts[0])
	b := strings.TrimSpace(parts[1])
	signed := func(s string) bool {
		return strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-")
	}
	rel := signed(a) || signed(b)
	row, errA := strconv.Atoi(a)
	col, errB := strconv.Atoi(b)
	if errA != nil || errB != nil {
		return nil, errf(lineNo, "invalid mv coordinates %q", arg)
	}
	if rel {
		return MoveRelative{DRow: row, DCol: col}, nil
	}
	if row < 1 || col < 1 {
		return nil, errf(lineNo, "mv coordinates are 1-based, got %q", arg)
	}
	return MoveAbsolute{Row: row, Col: col}, nil
}

func parseColor(arg string, lineNo int) (Element, error) {
	hexPart := strings.TrimPrefix(arg, "#")
	if len(hexPart) != 6 || !isHexDigits(hexPart) {
		return nil, errf(lineNo, "invalid color %q", arg)
	}
	c, err := colorful.Hex("#" + hexPart)
	if err != nil {
		return nil, errf(lineNo, "invalid color %q", arg)
	}
	r, g, b := c.RGB255()
	return SetColor{R: r, G: g, B: b}, nil
}

func parseBackground(arg string, lineNo int) (Element, error) {
	hexPart := strings.TrimPrefix(arg, "#")
	if len(hexPart) != 8 || !isHexDigits(hexPart) {
		return nil, errf(lineNo, "invalid background %q", arg)
	}
	c, err := colorful.Hex("#" + hexPart[:6])
	if err != nil {
		return nil, errf(lineNo, "invalid background %q", arg)
	}
	alpha, err := strconv.ParseUint(hexPart[6:8], 16, 8)
	if err != nil {
		return nil, errf(lineNo, "invalid background %q", arg)
	}
	r, g, b := c.RGB255()
	return SetBackground{R: r, G: g, B: b, A: uint8(alpha)}, nil
}

func parseStyleFlags(words []string, lineNo int) (Element, error) {
	var st SetStyle
	for _, w := range words {
		switch w {
		case "bold":
			st.Bold = true
		case "italic":
			st.Italic = true
		case "underline":
			st.Underline = true
		case "strikethrough", "strike":
			st.Strikethrough = true
		default:
			return nil, errf(lineNo, "unknown style keyword %q", w)
		}
	}
	return st, nil
}

// parseFunctionHeader handles the content after '#': NAME or NAME p1,p2,…
func parseFunctionHeader(rest string, lineNo int) (Element, error) {
	name := rest
	var paramPart string
	if idx := strings.IndexFunc(rest, unicode.IsSpace); idx >= 0 {
		name = rest[:idx]
		paramPart = strings.TrimSpace(rest[idx+1:])
	}
	if !isIdent(name) {
		return nil, errf(lineNo, "invalid function name %q", name)
	}
	if reservedNames[name] {
		return nil, errf(lineNo, "reserved name %q", name)
	}
	var params []string
	if paramPart != "" {
		for _, p := range strings.Split(paramPart, ",") {
			p = strings.TrimSpace(p)
			if !isIdent(p) {
				return nil, errf(lineNo, "invalid parameter name %q", p)
			}
			params = append(params, p)
		}
	}
	return DefineFunction{Name: name, Params: params}, nil
}

// parseAliasDefinition handles the content after '@': NAME rest-verbatim
func parseAliasDefinition(rest string, lineNo int) (Element, error) {
	name := rest
	var body string
	if idx := strings.IndexFunc(rest, unicode.IsSpace); idx >= 0 {
		name = rest[:idx]
		body = rest[idx+1:]
	}
	if !isIdent(name) {
		return nil, errf(lineNo, "invalid alias name %q", name)
	}
	if reservedNames[name] {
		return nil, errf(lineNo, "reserved name %q", name)
	}
	return DefineAlias{Name: name, Content: body}, nil
}

// parseCall splits IDENT or "IDENT a1,a2,…" into name and arguments
func parseCall(s string) (string, []string, bool) {
	name := s
	var argPart string
	if idx := strings.IndexFunc(s, unicode.IsSpace); idx >= 0 {
		name = s[:idx]
		argPart = strings.TrimSpace(s[idx+1:])
	}
	if !isIdent(name) {
		return "", nil, false
	}
	var args []string
	if argPart != "" {
		for _, a := range strings.Split(argPart, ",") {
			args = append(args, strings.TrimSpace(a))
		}
	}
	return name, args, true
}

// isTimestampStart reports whether bracket content is timestamp
// territory; such content either parses as a timestamp or fails the
// whole parse
func isTimestampStart(s string) bool {
	if s == "" {
		return false
	}
	if isDigit(rune(s[0])) {
		return true
	}
	return s[0] == '+' && len(s) > 1 && isDigit(rune(s[1]))
}

// parseTimestamp recognizes mm:ss.xxx, Nb, Nb+K, Nb+MbK, +N, +Nb, +NbK
func parseTimestamp(s string) (Timestamp, error) {
	malformed := fmt.Errorf("malformed timestamp")

	if strings.Contains(s, ":") {
		parts := strings.SplitN(s, ":", 2)
		mins, errM := strconv.ParseInt(parts[0], 10, 64)
		secs, errS := strconv.ParseFloat(parts[1], 64)
		if errM != nil || errS != nil || mins < 0 || secs < 0 || !isClockSeconds(parts[1]) {
			return Timestamp{}, malformed
		}
		ms := mins*60000 + int64(math.Round(secs*1000))
		return Timestamp{Kind: AbsoluteMs, Ms: ms}, nil
	}

	if strings.HasPrefix(s, "+") {
		rest := s[1:]
		if num, den, ok := parseFraction(rest); ok {
			return Timestamp{Kind: RelativeFractionBeat, Num: num, Den: den}, nil
		}
		if strings.HasSuffix(rest, "b") {
			beat, ok := parseBeatValue(rest[:len(rest)-1])
			if !ok {
				return Timestamp{}, malformed
			}
			return Timestamp{Kind: RelativeBeat, Beat: beat}, nil
		}
		ms, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return Timestamp{}, malformed
		}
		return Timestamp{Kind: RelativeMs, Ms: ms}, nil
	}

	if idx := strings.Index(s, "+"); idx >= 0 {
		left, right := s[:idx], s[idx+1:]
		if !strings.HasSuffix(left, "b") {
			return Timestamp{}, malformed
		}
		beat, ok := parseBeatValue(left[:len(left)-1])
		if !ok {
			return Timestamp{}, malformed
		}
		if num, den, fok := parseFraction(right); fok {
			return Timestamp{Kind: AbsoluteBeatPlusFraction, Beat: beat, Num: num, Den: den}, nil
		}
		ms, err := strconv.ParseInt(right, 10, 64)
		if err != nil {
			return Timestamp{}, malformed
		}
		return Timestamp{Kind: AbsoluteBeatPlusMs, Beat: beat, Ms: ms}, nil
	}

	if strings.HasSuffix(s, "b") {
		beat, ok := parseBeatValue(s[:len(s)-1])
		if !ok {
			return Timestamp{}, malformed
		}
		return Timestamp{Kind: AbsoluteBeat, Beat: beat}, nil
	}

	return Timestamp{}, malformed
}

// parseFraction recognizes NbM as the fraction N/M of one beat
func parseFraction(s string) (int64, int64, bool) {
	idx := strings.Index(s, "b")
	if idx <= 0 || idx == len(s)-1 {
		return 0, 0, false
	}
	numPart, denPart := s[:idx], s[idx+1:]
	if !isDigits(numPart) || !isDigits(denPart) {
		return 0, 0, false
	}
	num, errN := strconv.ParseInt(numPart, 10, 64)
	den, errD := strconv.ParseInt(denPart, 10, 64)
	if errN != nil || errD != nil || den == 0 {
		return 0, 0, false
	}
	return num, den, true
}

// parseBeatValue accepts a decimal with at most one fractional part
func parseBeatValue(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	intPart, fracPart, dotted := strings.Cut(s, ".")
	if !isDigits(intPart) || (dotted && !isDigits(fracPart)) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// isClockSeconds validates the ss.xxx part of a clock timestamp
func isClockSeconds(s string) bool {
	intPart, fracPart, dotted := strings.Cut(s, ".")
	return isDigits(intPart) && (!dotted || isDigits(fracPart))
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isDigit(r) {
			return false
		}
	}
	return true
}

func isHexDigits(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return len(s) > 0
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if unicode.IsLetter(r) || r == '_' {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

func errf(lineNo int, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if lineNo > 0 {
		return fmt.Errorf("line %d: %s", lineNo, msg)
	}
	return fmt.Errorf("%s", msg)
}
