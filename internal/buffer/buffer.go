// Package buffer implements the line-at-a-time Command Buffer that each
// input source accumulates bytes into. It mirrors the parsing shape of the
// teacher's GCodeCommand/GCodeDispatch.Process_commands (project/gcode.go
// upstream): bytes arrive one at a time, comments and checksums are handled
// as they're seen, and once a full line is armed its fields are picked out
// by linear scan rather than building a parse tree up front.
package buffer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/Samuellynch1215/RepRapFirmware-1/common/errors"
	"github.com/Samuellynch1215/RepRapFirmware-1/common/value"
)

// Capacity bounds a single line the way the teacher's fixed line buffer
// does; a line that exceeds it is discarded rather than grown.
const Capacity = 256

// Source identifies which fixed input source a Buffer belongs to.
type Source int

const (
	SourceWeb Source = iota
	SourceSerial
	SourceFile
	SourceMacro
)

func (s Source) String() string {
	switch s {
	case SourceWeb:
		return "web"
	case SourceSerial:
		return "serial"
	case SourceFile:
		return "file"
	case SourceMacro:
		return "macro"
	default:
		return "unknown"
	}
}

// State tracks where a Buffer sits in the accumulate/arm/consume cycle.
type State int

const (
	StateIdle State = iota
	StateArmed
)

// Buffer accumulates bytes for one source until a full line is ready, then
// exposes its fields by letter. It is not safe for concurrent use; each
// source owns exactly one Buffer and feeds it from a single goroutine.
type Buffer struct {
	src       Source
	data      [Capacity]byte
	cursor    int
	inComment bool
	capturing bool

	state   State
	line    string // armed line, command word plus fields, comments stripped
	rawLine string // armed line exactly as accumulated, comments included
	lineNum int
	resend  bool // true if the armed line is a synthesized resend (M998)
}

// New returns an empty Buffer bound to src.
func New(src Source) *Buffer {
	return &Buffer{src: src}
}

func (b *Buffer) Source() Source { return b.src }
func (b *Buffer) State() State   { return b.state }

// SetCapturing toggles raw-capture mode (M28/M29): while capturing,
// comment bytes are preserved verbatim instead of being suppressed, because
// the line is being written out to a macro/SD file rather than executed.
func (b *Buffer) SetCapturing(on bool) { b.capturing = on }
func (b *Buffer) IsCapturing() bool    { return b.capturing }

// Reset discards any partially accumulated line and returns the Buffer to
// StateIdle. It does not touch the capturing flag.
func (b *Buffer) Reset() {
	b.cursor = 0
	b.inComment = false
	b.state = StateIdle
	b.line = ""
	b.rawLine = ""
	b.lineNum = 0
	b.resend = false
}

// Put feeds one byte into the buffer. It returns armed=true once c
// completes a line; the completed line's fields are then available via
// Seen/GetFloat/etc. until the next Reset.
func (b *Buffer) Put(c byte) (armed bool, err error) {
	if c == '\r' {
		return false, nil
	}
	if c == '\n' || c == 0 {
		return b.finish()
	}
	if c == ';' && !b.capturing {
		b.inComment = true
	}
	if b.inComment && !b.capturing {
		return false, nil
	}
	if b.cursor >= Capacity {
		value.StaticValue.Error.Printf("buffer overflow on %s source, line discarded", b.src)
		b.Reset()
		return false, errors.New(errors.BufferOverflowCode, "")
	}
	b.data[b.cursor] = c
	b.cursor++
	return false, nil
}

// RawLine returns the most recently armed line exactly as accumulated,
// including any comment text, for the file-capture path (M28) to write
// out untouched.
func (b *Buffer) RawLine() string {
	return b.rawLine
}

func (b *Buffer) finish() (bool, error) {
	raw := string(b.data[:b.cursor])
	b.cursor = 0
	b.inComment = false
	b.rawLine = raw

	line := strings.TrimSpace(raw)
	if line == "" {
		b.state = StateIdle
		return false, nil
	}

	if idx := strings.IndexByte(line, '*'); idx >= 0 {
		body := strings.TrimSpace(line[:idx])
		csStr := strings.TrimSpace(line[idx+1:])
		want, convErr := strconv.Atoi(csStr)
		var sum byte
		for i := 0; i < len(body); i++ {
			sum ^= body[i]
		}
		if convErr != nil || int(sum) != want {
			num := lineNumberOf(body)
			b.lineNum = num
			b.resend = true
			b.line = fmt.Sprintf("M998 P%d", num)
			b.state = StateArmed
			return true, errors.New(errors.ChecksumMismatchCode, "")
		}
		line = body
	}

	b.lineNum = lineNumberOf(line)
	line = stripLineNumberPrefix(line)
	b.line = strings.TrimSpace(line)
	b.resend = false
	b.state = StateArmed
	return true, nil
}

// IsResend reports whether the armed line was synthesized by a checksum
// failure rather than received from the source.
func (b *Buffer) IsResend() bool { return b.resend }

// LineNumber returns the N<n> value seen on the armed line, or 0 if none
// was present.
func (b *Buffer) LineNumber() int { return b.lineNum }

func lineNumberOf(line string) int {
	toks := strings.Fields(line)
	for _, t := range toks {
		if len(t) > 1 && (t[0] == 'N' || t[0] == 'n') {
			if n, err := strconv.Atoi(t[1:]); err == nil {
				return n
			}
		}
	}
	return 0
}

func stripLineNumberPrefix(line string) string {
	toks := strings.Fields(line)
	if len(toks) == 0 {
		return line
	}
	if len(toks[0]) > 1 && (toks[0][0] == 'N' || toks[0][0] == 'n') {
		if _, err := strconv.Atoi(toks[0][1:]); err == nil {
			return strings.Join(toks[1:], " ")
		}
	}
	return line
}

// Line returns the armed command line, with any N-prefix and checksum
// already stripped.
func (b *Buffer) Line() string {
	return b.line
}

// Command returns the first whitespace-delimited token of the armed line,
// e.g. "G1", "M104", "T3".
func (b *Buffer) Command() string {
	toks := strings.Fields(b.line)
	if len(toks) == 0 {
		return ""
	}
	return toks[0]
}

// Seen reports whether letter appears as a field tag on the armed line.
func (b *Buffer) Seen(letter byte) bool {
	_, ok := b.fieldToken(letter)
	return ok
}

func (b *Buffer) fieldToken(letter byte) (string, bool) {
	toks := strings.Fields(b.line)
	for i, t := range toks {
		if i == 0 {
			continue // command word, not a field
		}
		if len(t) >= 1 && (t[0] == letter || t[0] == letter+32) {
			return t[1:], true
		}
	}
	return "", false
}

// GetFloat returns the numeric value of field letter.
func (b *Buffer) GetFloat(letter byte) (float64, bool) {
	tok, ok := b.fieldToken(letter)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// GetFloatDefault is GetFloat with a fallback when the field is absent.
func (b *Buffer) GetFloatDefault(letter byte, def float64) float64 {
	if v, ok := b.GetFloat(letter); ok {
		return v
	}
	return def
}

// GetLong returns the integer value of field letter.
func (b *Buffer) GetLong(letter byte) (int64, bool) {
	tok, ok := b.fieldToken(letter)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		fv, ferr := strconv.ParseFloat(tok, 64)
		if ferr != nil {
			return 0, false
		}
		return int64(fv), true
	}
	return v, true
}

// GetString returns the raw value of field letter as a string.
func (b *Buffer) GetString(letter byte) (string, bool) {
	return b.fieldToken(letter)
}

// GetFloatList parses a colon-separated list on field letter into n slots,
// broadcasting a single value across all n slots the way extrusion-factor
// and per-axis parameter fields do (M221, M906, ...).
func (b *Buffer) GetFloatList(letter byte, n int) ([]float64, bool) {
	tok, ok := b.fieldToken(letter)
	if !ok {
		return nil, false
	}
	parts := strings.Split(tok, ":")
	out := make([]float64, n)
	if len(parts) == 1 {
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, false
		}
		for i := range out {
			out[i] = v
		}
		return out, true
	}
	for i := 0; i < n && i < len(parts); i++ {
		v, err := strconv.ParseFloat(parts[i], 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// GetFilenameField returns the value of field letter, treating it as a
// filename that may be double-quoted to contain spaces ('P"my file.g"'),
// unlike GetFloat/GetString which split on whitespace and would otherwise
// break a quoted filename containing one into two fields.
func (b *Buffer) GetFilenameField(letter byte) (string, bool) {
	line := b.line
	for i := 0; i < len(line); i++ {
		if line[i] != letter && line[i] != letter+32 {
			continue
		}
		if i > 0 && line[i-1] != ' ' {
			continue
		}
		rest := line[i+1:]
		if rest == "" {
			return "", false
		}
		if rest[0] == '"' {
			if end := strings.IndexByte(rest[1:], '"'); end >= 0 {
				return rest[1 : 1+end], true
			}
			return rest[1:], true
		}
		if end := strings.IndexByte(rest, ' '); end >= 0 {
			return rest[:end], true
		}
		return rest, true
	}
	return "", false
}

// GetUnprecededString returns everything after the command word, with
// shlex-aware quote handling so a filename containing spaces can be passed
// quoted ("M28 \"my file.gcode\"") the same way a macro CALL's arguments
// can be.
func (b *Buffer) GetUnprecededString() (string, bool) {
	toks := strings.Fields(b.line)
	if len(toks) < 2 {
		return "", false
	}
	idx := strings.Index(b.line, toks[0])
	rest := strings.TrimSpace(b.line[idx+len(toks[0]):])
	if rest == "" {
		return "", false
	}
	if strings.ContainsAny(rest, "\"'") {
		parts, err := shlex.Split(rest)
		if err == nil && len(parts) > 0 {
			return strings.Join(parts, " "), true
		}
	}
	return rest, true
}
