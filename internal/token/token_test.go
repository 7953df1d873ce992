package token

import "testing"

func TestLookupIdent(t *testing.T) {
	tests := []struct {
		in   string
		want Token
	}{
		{"int", INT},
		{"for", FOR},
		{"do", DO},
		{"printf", F_PRINTF},
		{"putchar", F_PUTCHAR},
		{"sum1", NAME},
		{"main", NAME},
	}
	for _, tt := range tests {
		if got := LookupIdent(tt.in); got != tt.want {
			t.Errorf("LookupIdent(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTokenClasses(t *testing.T) {
	if !ADD_ASSIGN.IsOperator() || ADD_ASSIGN.IsKeyword() {
		t.Error("ADD_ASSIGN should be an operator only")
	}
	if !WHILE.IsKeyword() {
		t.Error("WHILE should be a keyword")
	}
	if !F_PUTS.IsBuiltin() {
		t.Error("F_PUTS should be a builtin")
	}
	if !CHAR.IsLiteral() || INT.IsLiteral() {
		t.Error("literal classification is wrong")
	}
}

func TestAssignOps(t *testing.T) {
	if !ASSIGN.IsAssign() || ASSIGN.BinaryOf() != ILLEGAL {
		t.Error("plain assignment misclassified")
	}
	pairs := map[Token]Token{ADD_ASSIGN: ADD, SUB_ASSIGN: SUB, MUL_ASSIGN: MUL, DIV_ASSIGN: DIV, MOD_ASSIGN: MOD}
	for assign, op := range pairs {
		if !assign.IsAssign() || assign.BinaryOf() != op {
			t.Errorf("%v: BinaryOf() = %v, want %v", assign, assign.BinaryOf(), op)
		}
	}
	if EQUALS.IsAssign() {
		t.Error("== is not an assignment")
	}
}

func TestString(t *testing.T) {
	if LTE.String() != "<=" || RETURN.String() != "return" || EOF.String() != "end of file" {
		t.Errorf("unexpected spellings: %s %s %s", LTE, RETURN, EOF)
	}
	if got := Token(250).String(); got != "token(250)" {
		t.Errorf("Token(250).String() = %q", got)
	}
}

func TestPosition(t *testing.T) {
	p := Position{Line: 3, Column: 7}
	if p.String() != "3:7" {
		t.Errorf("String() = %q", p.String())
	}
	p.Filename = "loop.c"
	if p.String() != "loop.c:3:7" {
		t.Errorf("String() = %q", p.String())
	}
	if NoPos.IsValid() {
		t.Error("NoPos should be invalid")
	}
	if !(Position{Line: 1, Column: 2}).Before(Position{Line: 2, Column: 1}) {
		t.Error("Before is wrong across lines")
	}
}
