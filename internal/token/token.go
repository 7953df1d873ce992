// Package token defines lexical tokens for the C fixture subset.
package token

// Token represents a lexical token type.
type Token uint8

const (
	// Special tokens
	ILLEGAL   Token = iota // <illegal>
	EOF                    // EOF
	DIRECTIVE              // #directive

	// Operators and delimiters
	operatorStart
	ADD        // +
	ADD_ASSIGN // +=
	SUB        // -
	SUB_ASSIGN // -=
	MUL        // *
	MUL_ASSIGN // *=
	DIV        // /
	DIV_ASSIGN // /=
	MOD        // %
	MOD_ASSIGN // %=

	ASSIGN     // =
	EQUALS     // ==
	NOT_EQUALS // !=
	LESS       // <
	LTE        // <=
	GREATER    // >
	GTE        // >=

	AND // &&
	OR  // ||
	NOT // !

	INCR // ++
	DECR // --

	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	COMMA     // ,
	SEMICOLON // ;
	operatorEnd

	// Keywords
	keywordStart
	INT      // int
	VOID     // void
	IF       // if
	ELSE     // else
	WHILE    // while
	DO       // do
	FOR      // for
	BREAK    // break
	CONTINUE // continue
	RETURN   // return
	keywordEnd

	// Library functions the fixtures call
	builtinStart
	F_PRINTF  // printf
	F_PUTS    // puts
	F_PUTCHAR // putchar
	builtinEnd

	// Literals
	NAME   // name
	NUMBER // number
	STRING // string
	CHAR   // char
)

var names = [...]string{
	ILLEGAL:    "illegal",
	EOF:        "end of file",
	DIRECTIVE:  "directive",
	ADD:        "+",
	ADD_ASSIGN: "+=",
	SUB:        "-",
	SUB_ASSIGN: "-=",
	MUL:        "*",
	MUL_ASSIGN: "*=",
	DIV:        "/",
	DIV_ASSIGN: "/=",
	MOD:        "%",
	MOD_ASSIGN: "%=",
	ASSIGN:     "=",
	EQUALS:     "==",
	NOT_EQUALS: "!=",
	LESS:       "<",
	LTE:        "<=",
	GREATER:    ">",
	GTE:        ">=",
	AND:        "&&",
	OR:         "||",
	NOT:        "!",
	INCR:       "++",
	DECR:       "--",
	LPAREN:     "(",
	RPAREN:     ")",
	LBRACE:     "{",
	RBRACE:     "}",
	COMMA:      ",",
	SEMICOLON:  ";",
	INT:        "int",
	VOID:       "void",
	IF:         "if",
	ELSE:       "else",
	WHILE:      "while",
	DO:         "do",
	FOR:        "for",
	BREAK:      "break",
	CONTINUE:   "continue",
	RETURN:     "return",
	F_PRINTF:   "printf",
	F_PUTS:     "puts",
	F_PUTCHAR:  "putchar",
	NAME:       "name",
	NUMBER:     "number",
	STRING:     "string",
	CHAR:       "char",
}

// String returns the source spelling of operators and keywords,
// or a descriptive name for other tokens.
func (t Token) String() string {
	if int(t) < len(names) && names[t] != "" {
		return names[t]
	}
	return "token(" + itoa(int(t)) + ")"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// IsOperator returns true if the token is an operator.
func (t Token) IsOperator() bool {
	return t > operatorStart && t < operatorEnd
}

// IsKeyword returns true if the token is a keyword.
func (t Token) IsKeyword() bool {
	return t > keywordStart && t < keywordEnd
}

// IsBuiltin returns true if the token names a library function.
func (t Token) IsBuiltin() bool {
	return t > builtinStart && t < builtinEnd
}

// IsLiteral returns true if the token is a literal (name, number, string, char).
func (t Token) IsLiteral() bool {
	return t == NAME || t == NUMBER || t == STRING || t == CHAR
}

// IsAssign returns true for = and the compound assignment operators.
func (t Token) IsAssign() bool {
	switch t {
	case ASSIGN, ADD_ASSIGN, SUB_ASSIGN, MUL_ASSIGN, DIV_ASSIGN, MOD_ASSIGN:
		return true
	}
	return false
}

// BinaryOf returns the arithmetic operator behind a compound assignment,
// or ILLEGAL for plain = and non-assignment tokens.
func (t Token) BinaryOf() Token {
	switch t {
	case ADD_ASSIGN:
		return ADD
	case SUB_ASSIGN:
		return SUB
	case MUL_ASSIGN:
		return MUL
	case DIV_ASSIGN:
		return DIV
	case MOD_ASSIGN:
		return MOD
	}
	return ILLEGAL
}

var keywords = map[string]Token{
	"int":      INT,
	"void":     VOID,
	"if":       IF,
	"else":     ELSE,
	"while":    WHILE,
	"do":       DO,
	"for":      FOR,
	"break":    BREAK,
	"continue": CONTINUE,
	"return":   RETURN,
}

var builtins = map[string]Token{
	"printf":  F_PRINTF,
	"puts":    F_PUTS,
	"putchar": F_PUTCHAR,
}

// LookupIdent returns the token type for a given identifier.
// Returns a keyword or builtin token if found, otherwise NAME.
func LookupIdent(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	if tok, ok := builtins[ident]; ok {
		return tok
	}
	return NAME
}

// LookupBuiltin returns the token type for a library function, or ILLEGAL if not found.
func LookupBuiltin(name string) Token {
	if tok, ok := builtins[name]; ok {
		return tok
	}
	return ILLEGAL
}
