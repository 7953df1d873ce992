package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kolkov/ctrace/internal/token"
)

func scanAll(src string) []Token {
	l := NewFromString(src)
	var toks []Token
	for {
		tok := l.Scan()
		toks = append(toks, tok)
		if tok.Type == token.EOF || len(toks) > 1000 {
			return toks
		}
	}
}

func types(toks []Token) []token.Token {
	out := make([]token.Token, len(toks))
	for i, tok := range toks {
		out[i] = tok.Type
	}
	return out
}

func TestScanBasicTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected []token.Token
	}{
		{"+", []token.Token{token.ADD, token.EOF}},
		{"-", []token.Token{token.SUB, token.EOF}},
		{"*", []token.Token{token.MUL, token.EOF}},
		{"%", []token.Token{token.MOD, token.EOF}},
		{"++", []token.Token{token.INCR, token.EOF}},
		{"--", []token.Token{token.DECR, token.EOF}},
		{"+=", []token.Token{token.ADD_ASSIGN, token.EOF}},
		{"-=", []token.Token{token.SUB_ASSIGN, token.EOF}},
		{"*=", []token.Token{token.MUL_ASSIGN, token.EOF}},
		{"x /= 1", []token.Token{token.NAME, token.DIV_ASSIGN, token.NUMBER, token.EOF}},
		{"%=", []token.Token{token.MOD_ASSIGN, token.EOF}},
		{"=", []token.Token{token.ASSIGN, token.EOF}},
		{"==", []token.Token{token.EQUALS, token.EOF}},
		{"!=", []token.Token{token.NOT_EQUALS, token.EOF}},
		{"<", []token.Token{token.LESS, token.EOF}},
		{"<=", []token.Token{token.LTE, token.EOF}},
		{">", []token.Token{token.GREATER, token.EOF}},
		{">=", []token.Token{token.GTE, token.EOF}},
		{"!", []token.Token{token.NOT, token.EOF}},
		{"&&", []token.Token{token.AND, token.EOF}},
		{"||", []token.Token{token.OR, token.EOF}},
		{"(", []token.Token{token.LPAREN, token.EOF}},
		{")", []token.Token{token.RPAREN, token.EOF}},
		{"{", []token.Token{token.LBRACE, token.EOF}},
		{"}", []token.Token{token.RBRACE, token.EOF}},
		{",", []token.Token{token.COMMA, token.EOF}},
		{";", []token.Token{token.SEMICOLON, token.EOF}},
		{"i++)", []token.Token{token.NAME, token.INCR, token.RPAREN, token.EOF}},
		{"a-->0", []token.Token{token.NAME, token.DECR, token.GREATER, token.NUMBER, token.EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.expected, types(scanAll(tt.input)))
		})
	}
}

func TestScanKeywords(t *testing.T) {
	tests := []struct {
		input    string
		expected token.Token
	}{
		{"int", token.INT},
		{"void", token.VOID},
		{"if", token.IF},
		{"else", token.ELSE},
		{"while", token.WHILE},
		{"do", token.DO},
		{"for", token.FOR},
		{"break", token.BREAK},
		{"continue", token.CONTINUE},
		{"return", token.RETURN},
		{"printf", token.F_PRINTF},
		{"puts", token.F_PUTS},
		{"putchar", token.F_PUTCHAR},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := NewFromString(tt.input).Scan()
			if tok.Type != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, tok.Type)
			}
			if tok.Value != tt.input {
				t.Errorf("expected value %q, got %q", tt.input, tok.Value)
			}
		})
	}
}

func TestScanIdentifiers(t *testing.T) {
	for _, name := range []string{"x", "sum1", "_bar", "number", "CamelCase", "interval"} {
		t.Run(name, func(t *testing.T) {
			tok := NewFromString(name).Scan()
			if tok.Type != token.NAME {
				t.Errorf("expected NAME, got %v", tok.Type)
			}
			if tok.Value != name {
				t.Errorf("expected %q, got %q", name, tok.Value)
			}
		})
	}
}

func TestScanNumbers(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0", "0"},
		{"123", "123"},
		{"0x1a", "0x1a"},
		{"0X1A", "0X1A"},
		{"017", "017"},
		{"10u", "10"},
		{"10L", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := NewFromString(tt.input).Scan()
			if tok.Type != token.NUMBER {
				t.Fatalf("expected NUMBER, got %v (%q)", tok.Type, tok.Value)
			}
			if tok.Value != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tok.Value)
			}
		})
	}
}

func TestScanInvalidNumber(t *testing.T) {
	tok := NewFromString("12abc").Scan()
	require.Equal(t, token.ILLEGAL, tok.Type)
	require.Contains(t, tok.Value, "12abc")
}

func TestScanStrings(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"hello"`, "hello"},
		{`"i = %d\n"`, "i = %d\n"},
		{`"tab\there"`, "tab\there"},
		{`"quote\"inside"`, `quote"inside`},
		{`"back\\slash"`, `back\slash`},
		{`"\x41\101"`, "AA"},
		{`"nul\0x"`, "nul\x00x"},
		{`"===== 基本for循环测试 =====\n"`, "===== 基本for循环测试 =====\n"},
		{`"* "`, "* "},
		{`""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := NewFromString(tt.input).Scan()
			if tok.Type != token.STRING {
				t.Fatalf("expected STRING, got %v (%q)", tok.Type, tok.Value)
			}
			if tok.Value != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tok.Value)
			}
		})
	}
}

func TestScanChars(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`'a'`, "a"},
		{`'\n'`, "\n"},
		{`'\''`, "'"},
		{`'*'`, "*"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := NewFromString(tt.input).Scan()
			require.Equal(t, token.CHAR, tok.Type)
			require.Equal(t, tt.expected, tok.Value)
		})
	}
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		input   string
		message string
	}{
		{`"unterminated`, "unterminated string"},
		{"\"line\nbreak\"", "unterminated string"},
		{`''`, "empty character constant"},
		{`'ab'`, "unterminated character constant"},
		{"/* never closed", "unterminated comment"},
		{"&", "unexpected '&'"},
		{"|", "unexpected '|'"},
		{"@", "unexpected character '@'"},
		{"（", "unexpected character '（'"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := NewFromString(tt.input).Scan()
			require.Equal(t, token.ILLEGAL, tok.Type)
			require.Equal(t, tt.message, tok.Value)
		})
	}
}

func TestScanComments(t *testing.T) {
	src := "// 循环和选择语句测试\nint /* block\ncomment */ x; // trailing"
	require.Equal(t,
		[]token.Token{token.INT, token.NAME, token.SEMICOLON, token.EOF},
		types(scanAll(src)))
}

func TestScanDirective(t *testing.T) {
	toks := scanAll("#include <stdio.h>\nint main() {}")
	require.Equal(t, token.DIRECTIVE, toks[0].Type)
	require.Equal(t, "include <stdio.h>", toks[0].Value)
	require.Equal(t, token.INT, toks[1].Type)
	require.Equal(t, 2, toks[1].Pos.Line)
}

func TestScanPositions(t *testing.T) {
	toks := scanAll("int main() {\n    int i;\n}")
	want := []struct {
		typ  token.Token
		line int
		col  int
	}{
		{token.INT, 1, 1},
		{token.NAME, 1, 5},
		{token.LPAREN, 1, 9},
		{token.RPAREN, 1, 10},
		{token.LBRACE, 1, 12},
		{token.INT, 2, 5},
		{token.NAME, 2, 9},
		{token.SEMICOLON, 2, 10},
		{token.RBRACE, 3, 1},
		{token.EOF, 3, 2},
	}
	require.Len(t, toks, len(want))
	for i, w := range want {
		if toks[i].Type != w.typ || toks[i].Pos.Line != w.line || toks[i].Pos.Column != w.col {
			t.Errorf("token[%d]: expected %v at %d:%d, got %v at %d:%d",
				i, w.typ, w.line, w.col, toks[i].Type, toks[i].Pos.Line, toks[i].Pos.Column)
		}
	}
}

func TestScanPrintfStatement(t *testing.T) {
	toks := scanAll(`printf("i = %d, sum = %d\n", i, sum1);`)
	require.Equal(t, []token.Token{
		token.F_PRINTF, token.LPAREN, token.STRING, token.COMMA, token.NAME,
		token.COMMA, token.NAME, token.RPAREN, token.SEMICOLON, token.EOF,
	}, types(toks))
	require.Equal(t, "i = %d, sum = %d\n", toks[2].Value)
}

func TestScanEmpty(t *testing.T) {
	for _, src := range []string{"", "   ", "\n\n", "// only a comment"} {
		tok := NewFromString(src).Scan()
		require.Equal(t, token.EOF, tok.Type, "input %q", src)
	}
}
