package ast

import "github.com/kolkov/ctrace/internal/token"

// IntLit represents an integer constant.
// Examples: 0, 10, 0x1f, 017
type IntLit struct {
	BaseExpr
	Value int64  // Parsed value
	Raw   string // Original source text
}

// StrLit represents a string literal.
// Example: "i = %d\n"
type StrLit struct {
	BaseExpr
	Value string // Unescaped string value
}

// CharLit represents a character constant. It evaluates to the
// character code as an int, as in C.
// Example: '\n'
type CharLit struct {
	BaseExpr
	Value byte
}

// Ident represents a variable reference.
type Ident struct {
	BaseExpr
	Name string
}

// BinaryExpr represents a binary operation.
// Examples: a + b, i <= 5, x && y
type BinaryExpr struct {
	BaseExpr
	Left  Expr
	Op    token.Token // ADD, SUB, MUL, DIV, MOD, comparisons, AND, OR
	Right Expr
}

// UnaryExpr represents a unary operation.
// Examples: -x, !done, i++, --j
type UnaryExpr struct {
	BaseExpr
	Op   token.Token // SUB, ADD, NOT, INCR, DECR
	Expr Expr        // Operand
	Post bool        // true for postfix (i++), false for prefix (++i)
}

// AssignExpr represents an assignment or compound assignment.
// Examples: i = 1, sum += i
type AssignExpr struct {
	BaseExpr
	Left  *Ident
	Op    token.Token // ASSIGN, ADD_ASSIGN, SUB_ASSIGN, ...
	Right Expr
}

// CallExpr represents a call to one of the supported library functions.
// Examples: printf("%d\n", x), puts("done"), putchar('\n')
type CallExpr struct {
	BaseExpr
	Func token.Token // F_PRINTF, F_PUTS or F_PUTCHAR
	Args []Expr
}
