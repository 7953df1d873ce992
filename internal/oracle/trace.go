package oracle

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/kolkov/ctrace/internal/runtime"
	"github.com/kolkov/ctrace/internal/types"
)

// LineKind classifies a trace line.
type LineKind uint8

const (
	Data   LineKind = iota // interpolated values
	Header                 // constant section marker
	Blank                  // empty line
)

func (k LineKind) String() string {
	switch k {
	case Data:
		return "data"
	case Header:
		return "header"
	case Blank:
		return "blank"
	default:
		return fmt.Sprintf("LineKind(%d)", k)
	}
}

// Line is one line of a trace, without its newline.
type Line struct {
	Kind LineKind
	Text string
}

// headerPattern matches section headers: "===== ... =====" banners and
// titles ending in a full-width colon.
var headerPattern = runtime.MustCompile(`^(?:=====.*=====|.*：)$`)

// Classify returns the kind of a line of output.
func Classify(text string) LineKind {
	switch {
	case text == "":
		return Blank
	case headerPattern.MatchString(text):
		return Header
	default:
		return Data
	}
}

// Trace is the append-only output of a Program, with the accumulator
// values each step observed.
type Trace struct {
	maxIterations int

	buf       []byte
	lineStart int
	lines     []Line

	observations map[string][]int64
	finals       map[string]int64
}

func newTrace(maxIterations int) *Trace {
	return &Trace{
		maxIterations: maxIterations,
		observations:  make(map[string][]int64),
		finals:        make(map[string]int64),
	}
}

// String returns the complete output.
func (t *Trace) String() string {
	return string(t.buf)
}

// Bytes returns the complete output. The caller must not modify it.
func (t *Trace) Bytes() []byte {
	return t.buf
}

// Lines returns the output split into classified lines. Text after the
// last newline, if any, is returned as a final line.
func (t *Trace) Lines() []Line {
	lines := t.lines
	if t.lineStart < len(t.buf) {
		text := string(t.buf[t.lineStart:])
		lines = append(lines[:len(lines):len(lines)], Line{Kind: Classify(text), Text: text})
	}
	return lines
}

// Observations returns the values a step recorded, in order. For loop
// steps these are the accumulator values printed before each addition.
func (t *Trace) Observations(label string) []int64 {
	return t.observations[label]
}

// Final returns the final accumulator value of a loop step.
func (t *Trace) Final(label string) (int64, bool) {
	v, ok := t.finals[label]
	return v, ok
}

func (t *Trace) observe(label string, v int64) {
	t.observations[label] = append(t.observations[label], v)
}

// write appends literal text.
func (t *Trace) write(s string) {
	t.buf = append(t.buf, s...)
	t.splitLines()
}

// printf appends f applied to integer args. A value outside the int
// range fails with types.ErrFormatOverflow.
func (t *Trace) printf(label string, f *runtime.Format, args ...int64) error {
	vals := make([]types.Value, len(args))
	for i, a := range args {
		vals[i] = types.Int(a)
	}
	n := len(t.buf)
	buf, err := f.Append(t.buf, vals)
	if err != nil {
		t.buf = t.buf[:n]
		kind := types.ErrMalformedFixture
		if errors.Is(err, types.ErrFormatOverflow) {
			kind = types.ErrFormatOverflow
		}
		return &Error{Kind: kind, Step: label, Message: err.Error()}
	}
	t.buf = buf
	t.splitLines()
	return nil
}

// splitLines records every line completed since the last call.
func (t *Trace) splitLines() {
	for {
		i := bytes.IndexByte(t.buf[t.lineStart:], '\n')
		if i < 0 {
			return
		}
		text := string(t.buf[t.lineStart : t.lineStart+i])
		t.lines = append(t.lines, Line{Kind: Classify(text), Text: text})
		t.lineStart += i + 1
	}
}
