package runtime

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kolkov/ctrace/internal/types"
)

// directivePattern matches one printf conversion: flags, width,
// precision, length modifier and the conversion character. The final
// '.' captures the conversion so unsupported ones can be reported.
var directivePattern = MustCompile(`%[-+ 0#]*[0-9]*(?:\.[0-9]*)?(?:hh|h|ll|l)?.`)

// ErrBadFormat is returned for format strings that cannot be parsed.
var ErrBadFormat = errors.New("bad format")

// Directive is a single conversion in a printf format string.
type Directive struct {
	Text      string // source text, e.g. "%-5d"
	Verb      byte   // d i u x X o c s %
	Minus     bool   // left-justify
	Plus      bool   // always print a sign
	Space     bool   // space in place of a plus sign
	Zero      bool   // pad with zeros
	Sharp     bool   // alternate form (0x, leading 0)
	Width     int    // -1 if absent
	Precision int    // -1 if absent
}

// ConsumesArg reports whether the directive takes an argument.
func (d Directive) ConsumesArg() bool {
	return d.Verb != '%'
}

// WantsString reports whether the directive takes a string argument.
func (d Directive) WantsString() bool {
	return d.Verb == 's'
}

// segment is either a literal run (dir == nil) or a directive.
type segment struct {
	lit string
	dir *Directive
}

// Format is a parsed printf format string. A Format is immutable and
// safe for concurrent use.
type Format struct {
	text     string
	segments []segment
	nargs    int
}

// ParseFormat parses a C printf format string.
func ParseFormat(format string) (*Format, error) {
	f := &Format{text: format}

	last := 0
	for _, loc := range directivePattern.FindAllStringIndex(format, -1) {
		if err := f.addLiteral(format[last:loc[0]]); err != nil {
			return nil, err
		}
		d, err := parseDirective(format[loc[0]:loc[1]])
		if err != nil {
			return nil, err
		}
		f.segments = append(f.segments, segment{dir: &d})
		if d.ConsumesArg() {
			f.nargs++
		}
		last = loc[1]
	}
	if err := f.addLiteral(format[last:]); err != nil {
		return nil, err
	}
	return f, nil
}

// MustParseFormat is like ParseFormat but panics on error.
func MustParseFormat(format string) *Format {
	f, err := ParseFormat(format)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Format) addLiteral(lit string) error {
	if lit == "" {
		return nil
	}
	// A '%' outside any match is an incomplete directive, e.g. a
	// trailing "%" or "%" followed by a newline.
	if strings.IndexByte(lit, '%') >= 0 {
		return fmt.Errorf("%w: incomplete directive in %q", ErrBadFormat, f.text)
	}
	f.segments = append(f.segments, segment{lit: lit})
	return nil
}

func parseDirective(text string) (Directive, error) {
	d := Directive{Text: text, Width: -1, Precision: -1}
	i := 1 // skip '%'

flags:
	for ; i < len(text); i++ {
		switch text[i] {
		case '-':
			d.Minus = true
		case '+':
			d.Plus = true
		case ' ':
			d.Space = true
		case '0':
			d.Zero = true
		case '#':
			d.Sharp = true
		default:
			break flags
		}
	}

	start := i
	for i < len(text) && isDigit(text[i]) {
		i++
	}
	if i > start {
		w, err := parseCount(text[start:i], "width", text)
		if err != nil {
			return d, err
		}
		d.Width = w
	}

	if i < len(text) && text[i] == '.' {
		i++
		start = i
		for i < len(text) && isDigit(text[i]) {
			i++
		}
		d.Precision = 0
		if i > start {
			p, err := parseCount(text[start:i], "precision", text)
			if err != nil {
				return d, err
			}
			d.Precision = p
		}
	}

	// Length modifiers carry no meaning for int-only programs.
	for i < len(text)-1 && (text[i] == 'h' || text[i] == 'l') {
		i++
	}

	d.Verb = text[len(text)-1]
	switch d.Verb {
	case 'd', 'i', 'u', 'x', 'X', 'o', 'c', 's', '%':
		return d, nil
	}
	return d, fmt.Errorf("%w: unsupported conversion %q", ErrBadFormat, text)
}

// parseCount parses a width or precision, which must fit in int.
func parseCount(digits, what, text string) (int, error) {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s too large in %q", ErrBadFormat, what, text)
	}
	return int(n), nil
}

// Text returns the original format string.
func (f *Format) Text() string {
	return f.text
}

// NumArgs returns the number of arguments the format consumes.
func (f *Format) NumArgs() int {
	return f.nargs
}

// Directives returns the conversions in order, including %%.
func (f *Format) Directives() []Directive {
	var dirs []Directive
	for _, seg := range f.segments {
		if seg.dir != nil {
			dirs = append(dirs, *seg.dir)
		}
	}
	return dirs
}

// Sprintf formats args according to f.
func (f *Format) Sprintf(args []types.Value) (string, error) {
	buf, err := f.Append(nil, args)
	return string(buf), err
}

// Append formats args according to f and appends the result to dst.
// Integer arguments outside the int range fail with
// types.ErrFormatOverflow. Extra arguments are ignored, as in C.
func (f *Format) Append(dst []byte, args []types.Value) ([]byte, error) {
	argi := 0
	for _, seg := range f.segments {
		d := seg.dir
		if d == nil {
			dst = append(dst, seg.lit...)
			continue
		}
		if d.Verb == '%' {
			dst = append(dst, '%')
			continue
		}
		if argi >= len(args) {
			return dst, fmt.Errorf("printf: missing argument for %s", d.Text)
		}
		arg := args[argi]
		argi++

		var err error
		dst, err = appendDirective(dst, d, arg)
		if err != nil {
			return dst, err
		}
	}
	return dst, nil
}

func appendDirective(dst []byte, d *Directive, arg types.Value) ([]byte, error) {
	if d.WantsString() {
		if !arg.IsStr() {
			return dst, fmt.Errorf("printf: %s expects a string argument, got %s", d.Text, arg.Kind())
		}
		s := arg.AsStr()
		if d.Precision >= 0 && d.Precision < len(s) {
			s = s[:d.Precision]
		}
		return pad(dst, s, d.Width, d.Minus), nil
	}

	if arg.IsStr() {
		return dst, fmt.Errorf("printf: %s expects an integer argument, got string", d.Text)
	}
	n := arg.AsInt()
	if !types.InIntRange(n) {
		return dst, fmt.Errorf("%w: %d in %s", types.ErrFormatOverflow, n, d.Text)
	}

	switch d.Verb {
	case 'c':
		return pad(dst, string([]byte{byte(n)}), d.Width, d.Minus), nil
	case 'd', 'i':
		return appendSigned(dst, d, n), nil
	default:
		return appendUnsigned(dst, d, uint64(uint32(int32(n)))), nil
	}
}

func appendSigned(dst []byte, d *Directive, n int64) []byte {
	sign := ""
	switch {
	case n < 0:
		sign = "-"
		n = -n
	case d.Plus:
		sign = "+"
	case d.Space:
		sign = " "
	}
	digits := precise(strconv.FormatInt(n, 10), d.Precision)
	return padNumber(dst, sign, digits, d)
}

func appendUnsigned(dst []byte, d *Directive, n uint64) []byte {
	var digits, prefix string
	switch d.Verb {
	case 'x':
		digits = strconv.FormatUint(n, 16)
		if d.Sharp && n != 0 {
			prefix = "0x"
		}
	case 'X':
		digits = strings.ToUpper(strconv.FormatUint(n, 16))
		if d.Sharp && n != 0 {
			prefix = "0X"
		}
	case 'o':
		digits = strconv.FormatUint(n, 8)
	default:
		digits = strconv.FormatUint(n, 10)
	}
	digits = precise(digits, d.Precision)
	if d.Verb == 'o' && d.Sharp && !strings.HasPrefix(digits, "0") {
		digits = "0" + digits
	}
	return padNumber(dst, prefix, digits, d)
}

// precise applies an integer precision: the minimum number of digits.
// A zero value with zero precision prints no digits.
func precise(digits string, prec int) string {
	if prec < 0 {
		return digits
	}
	if prec == 0 && digits == "0" {
		return ""
	}
	if len(digits) < prec {
		return strings.Repeat("0", prec-len(digits)) + digits
	}
	return digits
}

func padNumber(dst []byte, prefix, digits string, d *Directive) []byte {
	// The 0 flag is ignored with '-' or an explicit precision.
	if d.Zero && !d.Minus && d.Precision < 0 && d.Width > len(prefix)+len(digits) {
		digits = strings.Repeat("0", d.Width-len(prefix)-len(digits)) + digits
	}
	return pad(dst, prefix+digits, d.Width, d.Minus)
}

func pad(dst []byte, s string, width int, left bool) []byte {
	n := width - len(s)
	if n <= 0 {
		return append(dst, s...)
	}
	if left {
		dst = append(dst, s...)
		return appendSpaces(dst, n)
	}
	dst = appendSpaces(dst, n)
	return append(dst, s...)
}

func appendSpaces(dst []byte, n int) []byte {
	for ; n > 0; n-- {
		dst = append(dst, ' ')
	}
	return dst
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
