// Package lexer provides C source tokenization for the fixture subset.
package lexer

import (
	"unicode/utf8"

	"github.com/kolkov/ctrace/internal/token"
)

// Lexer tokenizes C source code.
//
// Source is handled byte-wise; multi-byte UTF-8 sequences are copied
// verbatim into string literals and comments are skipped without decoding,
// so fixtures with non-ASCII headers round-trip exactly.
type Lexer struct {
	src     []byte         // Source code
	ch      byte           // Current character (0 at EOF)
	offset  int            // Offset of the byte after ch
	pos     token.Position // Position of ch
	nextPos token.Position // Position of the byte after ch
	eof     bool
}

// New creates a new Lexer for the given source code.
func New(src []byte) *Lexer {
	l := &Lexer{
		src: src,
		nextPos: token.Position{
			Line:   1,
			Column: 1,
		},
	}
	l.next()
	return l
}

// NewFromString creates a new Lexer from a string.
func NewFromString(src string) *Lexer {
	return New([]byte(src))
}

// Token represents a scanned token with its position and value.
type Token struct {
	Type  token.Token
	Pos   token.Position
	Value string
}

// Scan scans and returns the next token.
func (l *Lexer) Scan() Token {
	if tok, ok := l.skipSpaceAndComments(); !ok {
		return tok
	}

	pos := l.pos
	if l.eof {
		return Token{Type: token.EOF, Pos: pos}
	}

	switch l.ch {
	case '#':
		return l.scanDirective(pos)

	case '+':
		l.next()
		switch l.ch {
		case '+':
			l.next()
			return Token{Type: token.INCR, Pos: pos, Value: "++"}
		case '=':
			l.next()
			return Token{Type: token.ADD_ASSIGN, Pos: pos, Value: "+="}
		}
		return Token{Type: token.ADD, Pos: pos, Value: "+"}

	case '-':
		l.next()
		switch l.ch {
		case '-':
			l.next()
			return Token{Type: token.DECR, Pos: pos, Value: "--"}
		case '=':
			l.next()
			return Token{Type: token.SUB_ASSIGN, Pos: pos, Value: "-="}
		}
		return Token{Type: token.SUB, Pos: pos, Value: "-"}

	case '*':
		return l.withAssign(pos, token.MUL, token.MUL_ASSIGN, "*")
	case '/':
		return l.withAssign(pos, token.DIV, token.DIV_ASSIGN, "/")
	case '%':
		return l.withAssign(pos, token.MOD, token.MOD_ASSIGN, "%")
	case '=':
		return l.withAssign(pos, token.ASSIGN, token.EQUALS, "=")
	case '!':
		return l.withAssign(pos, token.NOT, token.NOT_EQUALS, "!")
	case '<':
		return l.withAssign(pos, token.LESS, token.LTE, "<")
	case '>':
		return l.withAssign(pos, token.GREATER, token.GTE, ">")

	case '&':
		l.next()
		if l.ch == '&' {
			l.next()
			return Token{Type: token.AND, Pos: pos, Value: "&&"}
		}
		return Token{Type: token.ILLEGAL, Pos: pos, Value: "unexpected '&'"}

	case '|':
		l.next()
		if l.ch == '|' {
			l.next()
			return Token{Type: token.OR, Pos: pos, Value: "||"}
		}
		return Token{Type: token.ILLEGAL, Pos: pos, Value: "unexpected '|'"}

	case '(':
		l.next()
		return Token{Type: token.LPAREN, Pos: pos, Value: "("}
	case ')':
		l.next()
		return Token{Type: token.RPAREN, Pos: pos, Value: ")"}
	case '{':
		l.next()
		return Token{Type: token.LBRACE, Pos: pos, Value: "{"}
	case '}':
		l.next()
		return Token{Type: token.RBRACE, Pos: pos, Value: "}"}
	case ',':
		l.next()
		return Token{Type: token.COMMA, Pos: pos, Value: ","}
	case ';':
		l.next()
		return Token{Type: token.SEMICOLON, Pos: pos, Value: ";"}

	case '"':
		return l.scanString(pos)
	case '\'':
		return l.scanChar(pos)

	default:
		if isDigit(l.ch) {
			return l.scanNumber(pos)
		}
		if isIdentStart(l.ch) {
			return l.scanIdent(pos)
		}
		r, size := utf8.DecodeRune(l.src[pos.Offset:])
		for i := 0; i < size; i++ {
			l.next()
		}
		return Token{Type: token.ILLEGAL, Pos: pos, Value: "unexpected character " + quoteRune(r)}
	}
}

// withAssign scans a one-character operator that has a two-character
// "=" suffixed form (e.g. < and <=, = and ==).
func (l *Lexer) withAssign(pos token.Position, single, double token.Token, s string) Token {
	l.next()
	if l.ch == '=' {
		l.next()
		return Token{Type: double, Pos: pos, Value: s + "="}
	}
	return Token{Type: single, Pos: pos, Value: s}
}

// skipSpaceAndComments skips whitespace, // comments and /* */ comments.
// It returns ok=false with an ILLEGAL token for an unterminated block comment.
func (l *Lexer) skipSpaceAndComments() (Token, bool) {
	for !l.eof {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' || l.ch == '\f' || l.ch == '\v':
			l.next()
		case l.ch == '/' && l.peek() == '/':
			for !l.eof && l.ch != '\n' {
				l.next()
			}
		case l.ch == '/' && l.peek() == '*':
			pos := l.pos
			l.next()
			l.next()
			for {
				if l.eof {
					return Token{Type: token.ILLEGAL, Pos: pos, Value: "unterminated comment"}, false
				}
				if l.ch == '*' && l.peek() == '/' {
					l.next()
					l.next()
					break
				}
				l.next()
			}
		default:
			return Token{}, true
		}
	}
	return Token{}, true
}

// scanDirective consumes a preprocessor line. Its value is the line text
// without the leading '#'.
func (l *Lexer) scanDirective(pos token.Position) Token {
	l.next() // consume '#'
	start := l.pos.Offset
	for !l.eof && l.ch != '\n' {
		l.next()
	}
	return Token{Type: token.DIRECTIVE, Pos: pos, Value: trimSpace(string(l.src[start:l.endOffset()]))}
}

func (l *Lexer) scanString(pos token.Position) Token {
	l.next() // consume opening quote

	var sb []byte
	for !l.eof && l.ch != '"' && l.ch != '\n' {
		if l.ch == '\\' {
			l.next()
			b, ok := l.scanEscape()
			if !ok {
				return Token{Type: token.ILLEGAL, Pos: pos, Value: "unterminated string"}
			}
			sb = append(sb, b)
			continue
		}
		sb = append(sb, l.ch)
		l.next()
	}

	if l.eof || l.ch != '"' {
		return Token{Type: token.ILLEGAL, Pos: pos, Value: "unterminated string"}
	}
	l.next() // consume closing quote

	return Token{Type: token.STRING, Pos: pos, Value: string(sb)}
}

func (l *Lexer) scanChar(pos token.Position) Token {
	l.next() // consume opening quote

	var b byte
	switch {
	case l.eof || l.ch == '\n' || l.ch == '\'':
		return Token{Type: token.ILLEGAL, Pos: pos, Value: "empty character constant"}
	case l.ch == '\\':
		l.next()
		var ok bool
		if b, ok = l.scanEscape(); !ok {
			return Token{Type: token.ILLEGAL, Pos: pos, Value: "unterminated character constant"}
		}
	default:
		b = l.ch
		l.next()
	}

	if l.eof || l.ch != '\'' {
		return Token{Type: token.ILLEGAL, Pos: pos, Value: "unterminated character constant"}
	}
	l.next()
	return Token{Type: token.CHAR, Pos: pos, Value: string([]byte{b})}
}

// scanEscape decodes the escape sequence after a backslash.
func (l *Lexer) scanEscape() (byte, bool) {
	if l.eof || l.ch == '\n' {
		return 0, false
	}
	var b byte
	switch l.ch {
	case 'n':
		b = '\n'
	case 't':
		b = '\t'
	case 'r':
		b = '\r'
	case 'b':
		b = '\b'
	case 'f':
		b = '\f'
	case 'a':
		b = '\a'
	case 'v':
		b = '\v'
	case '0', '1', '2', '3', '4', '5', '6', '7':
		n := int(l.ch - '0')
		l.next()
		for i := 0; i < 2 && l.ch >= '0' && l.ch <= '7' && !l.eof; i++ {
			n = n*8 + int(l.ch-'0')
			l.next()
		}
		return byte(n), true
	case 'x':
		l.next()
		n := 0
		for isHexDigit(l.ch) && !l.eof {
			n = n*16 + hexValue(l.ch)
			l.next()
		}
		return byte(n), true
	default:
		// \\ \" \' \? and unknown escapes yield the character itself
		b = l.ch
	}
	l.next()
	return b, true
}

func (l *Lexer) scanNumber(pos token.Position) Token {
	start := pos.Offset

	if l.ch == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.next() // 0
		l.next() // x
		for isHexDigit(l.ch) && !l.eof {
			l.next()
		}
	} else {
		for isDigit(l.ch) && !l.eof {
			l.next()
		}
	}
	end := l.endOffset()

	// Integer suffixes are accepted and dropped.
	for !l.eof && (l.ch == 'u' || l.ch == 'U' || l.ch == 'l' || l.ch == 'L') {
		l.next()
	}
	if !l.eof && isIdentContinue(l.ch) {
		for !l.eof && isIdentContinue(l.ch) {
			l.next()
		}
		return Token{Type: token.ILLEGAL, Pos: pos, Value: "invalid number " + string(l.src[start:l.endOffset()])}
	}

	return Token{Type: token.NUMBER, Pos: pos, Value: string(l.src[start:end])}
}

func (l *Lexer) scanIdent(pos token.Position) Token {
	start := pos.Offset
	for !l.eof && isIdentContinue(l.ch) {
		l.next()
	}
	name := string(l.src[start:l.endOffset()])
	return Token{Type: token.LookupIdent(name), Pos: pos, Value: name}
}

// endOffset returns the offset of the current character, or len(src) at EOF.
func (l *Lexer) endOffset() int {
	if l.eof {
		return len(l.src)
	}
	return l.pos.Offset
}

// peek returns the byte after the current one without consuming it.
func (l *Lexer) peek() byte {
	if l.offset < len(l.src) {
		return l.src[l.offset]
	}
	return 0
}

func (l *Lexer) next() {
	if l.offset >= len(l.src) {
		if !l.eof {
			l.pos = l.nextPos
		}
		l.ch = 0
		l.eof = true
		return
	}

	l.pos = l.nextPos
	l.ch = l.src[l.offset]
	l.offset++
	l.nextPos.Offset = l.offset

	if l.ch == '\n' {
		l.nextPos.Line++
		l.nextPos.Column = 1
	} else {
		l.nextPos.Column++
	}
}

// Helper functions

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func hexValue(ch byte) int {
	if ch >= '0' && ch <= '9' {
		return int(ch - '0')
	}
	if ch >= 'a' && ch <= 'f' {
		return int(ch - 'a' + 10)
	}
	return int(ch - 'A' + 10)
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func trimSpace(s string) string {
	i, j := 0, len(s)
	for i < j && (s[i] == ' ' || s[i] == '\t' || s[i] == '\r') {
		i++
	}
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t' || s[j-1] == '\r') {
		j--
	}
	return s[i:j]
}

func quoteRune(r rune) string {
	if r == utf8.RuneError {
		return "(invalid UTF-8)"
	}
	return "'" + string(r) + "'"
}
