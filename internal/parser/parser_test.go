package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kolkov/ctrace/internal/ast"
	"github.com/kolkov/ctrace/internal/parser"
	"github.com/kolkov/ctrace/internal/token"
)

const loopTest = `// loops and branches
#include <stdio.h>

int main() {
    int i, sum = 0;

    printf("for:\n");
    for (i = 1; i <= 5; i++) {
        printf("i = %d\n", i);
        sum += i;
    }
    printf("sum = %d\n\n", sum);

    i = 1;
    sum = 0;
    while (i <= 5) {
        printf("i = %d\n", i);
        sum += i;
        i++;
    }

    int number = 10;
    if (number > 5) {
        printf("%d > 5\n", number);
    } else {
        printf("%d <= 5\n", number);
    }
    return 0;
}
`

func parseMain(t *testing.T, src string) *ast.BlockStmt {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	main := prog.Main()
	require.NotNil(t, main)
	return main.Body
}

func TestParseEmpty(t *testing.T) {
	prog, err := parser.Parse("")
	require.NoError(t, err)
	require.NotNil(t, prog)
	require.Empty(t, prog.Funcs)
	require.Nil(t, prog.Main())
}

func TestParseProgram(t *testing.T) {
	prog, err := parser.Parse(loopTest)
	require.NoError(t, err)

	require.Len(t, prog.Directives, 1)
	require.Equal(t, "include <stdio.h>", prog.Directives[0].Text)
	require.Len(t, prog.Funcs, 1)

	main := prog.Main()
	require.NotNil(t, main)
	require.False(t, main.VoidArgs)
	require.Equal(t, 4, main.NamePos.Line)
	require.Len(t, main.Body.Stmts, 10)

	decl, ok := main.Body.Stmts[0].(*ast.DeclStmt)
	require.True(t, ok)
	require.Len(t, decl.Vars, 2)
	require.Equal(t, "i", decl.Vars[0].Name.Name)
	require.Nil(t, decl.Vars[0].Init)
	require.Equal(t, "sum", decl.Vars[1].Name.Name)

	_, ok = main.Body.Stmts[2].(*ast.ForStmt)
	require.True(t, ok)
	_, ok = main.Body.Stmts[6].(*ast.WhileStmt)
	require.True(t, ok)
	ifStmt, ok := main.Body.Stmts[8].(*ast.IfStmt)
	require.True(t, ok)
	require.NotNil(t, ifStmt.Else)
	_, ok = main.Body.Stmts[9].(*ast.ReturnStmt)
	require.True(t, ok)
}

func TestParseFuncVoid(t *testing.T) {
	prog, err := parser.Parse("int main(void) { return 0; }")
	require.NoError(t, err)
	require.True(t, prog.Main().VoidArgs)
}

func TestParseFilename(t *testing.T) {
	prog, err := parser.ParseFile("demo.c", []byte("int main() { return 0; }"))
	require.NoError(t, err)
	require.Equal(t, "demo.c", prog.Filename)

	_, err = parser.ParseFile("demo.c", []byte("int main() { return 0 }"))
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "demo.c:1:"), err.Error())
}

func TestParseForDecl(t *testing.T) {
	body := parseMain(t, "int main() { for (int j = 5; j >= 1; j--) { } }")
	loop := body.Stmts[0].(*ast.ForStmt)

	init, ok := loop.Init.(*ast.DeclStmt)
	require.True(t, ok)
	require.Equal(t, "j", init.Vars[0].Name.Name)
	require.Equal(t, "j >= 1", ast.String(loop.Cond))
	require.Equal(t, "j--", ast.String(loop.Post))
}

func TestParseForEmptyClauses(t *testing.T) {
	body := parseMain(t, "int main() { for (;;) break; }")
	loop := body.Stmts[0].(*ast.ForStmt)
	require.Nil(t, loop.Init)
	require.Nil(t, loop.Cond)
	require.Nil(t, loop.Post)
	_, ok := loop.Body.(*ast.BreakStmt)
	require.True(t, ok)
}

func TestParseDoWhile(t *testing.T) {
	body := parseMain(t, "int main() { int m = 1; do { m++; } while (m <= 5); }")
	loop, ok := body.Stmts[1].(*ast.DoWhileStmt)
	require.True(t, ok)
	require.Equal(t, "m <= 5", ast.String(loop.Cond))
}

func TestParseElseIf(t *testing.T) {
	body := parseMain(t, `int main() { int x = 3; if (x > 5) x = 1; else if (x > 2) x = 2; else x = 3; }`)
	outer := body.Stmts[1].(*ast.IfStmt)
	inner, ok := outer.Else.(*ast.IfStmt)
	require.True(t, ok)
	require.NotNil(t, inner.Else)
}

func TestParseExprPrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "1 + (2 * 3)"},
		{"(1 + 2) * 3", "(1 + 2) * 3"},
		{"a - b - c", "(a - b) - c"},
		{"i <= 5 && sum != 20", "(i <= 5) && (sum != 20)"},
		{"a || b && c", "a || (b && c)"},
		{"x = y = 3", "x = y = 3"},
		{"sum += i * 2", "sum += i * 2"},
		{"-x + 1", "-x + 1"},
		{"!done", "!done"},
		{"i++", "i++"},
		{"--j", "--j"},
		{"a < b == c > d", "(a < b) == (c > d)"},
		{"10 % 3 / 2", "(10 % 3) / 2"},
		{"0x1f", "0x1f"},
		{`'*'`, `'*'`},
		{`"a" "b"`, `"ab"`},
		{`printf("%d\n", x + 1)`, `printf("%d\n", x + 1)`},
		{`putchar('\n')`, `putchar('\n')`},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			expr, err := parser.ParseExpr(tt.src)
			require.NoError(t, err)
			require.Equal(t, tt.want, ast.String(expr))
		})
	}
}

func TestParseIntLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want int64
	}{
		{"0", 0},
		{"42", 42},
		{"0x1A", 26},
		{"017", 15},
		{"2147483648", 2147483648},
	}
	for _, tt := range tests {
		expr, err := parser.ParseExpr(tt.src)
		require.NoError(t, err, tt.src)
		lit, ok := expr.(*ast.IntLit)
		require.True(t, ok, tt.src)
		require.Equal(t, tt.want, lit.Value, tt.src)
	}
}

func TestParseCallArgs(t *testing.T) {
	expr, err := parser.ParseExpr(`printf("i = %d, sum = %d\n", i, sum1)`)
	require.NoError(t, err)
	call := expr.(*ast.CallExpr)
	require.Equal(t, token.F_PRINTF, call.Func)
	require.Len(t, call.Args, 3)
	require.Equal(t, "i = %d, sum = %d\n", call.Args[0].(*ast.StrLit).Value)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		line    int
		message string
	}{
		{
			name:    "missing semicolon",
			src:     "int main() {\n    int x = 1\n    x++;\n}",
			line:    2,
			message: "missing ; before x",
		},
		{
			name:    "missing semicolon after call",
			src:     "int main() {\n    printf(\"a\")\n    return 0;\n}",
			line:    2,
			message: "missing ; before return",
		},
		{
			name:    "unclosed brace",
			src:     "int main() {\n    if (1) {\n        return 0;\n}",
			line:    1,
			message: "unbalanced braces",
		},
		{
			name:    "extra brace",
			src:     "int main() {\n    return 0;\n}\n}",
			line:    4,
			message: "unbalanced braces: unexpected }",
		},
		{
			name:    "missing expression",
			src:     "int main() {\n    int x = ;\n}",
			line:    2,
			message: "expected expression, got ;",
		},
		{
			name:    "unsupported call",
			src:     "int main() {\n    scanf(\"%d\", x);\n}",
			line:    2,
			message: "call to unsupported function scanf",
		},
		{
			name:    "assign to constant",
			src:     "int main() {\n    1 = 2;\n}",
			line:    2,
			message: "left side of = must be a variable",
		},
		{
			name:    "increment constant",
			src:     "int main() {\n    5++;\n}",
			line:    2,
			message: "operand of ++ must be a variable",
		},
		{
			name:    "else without if",
			src:     "int main() {\n    else x = 1;\n}",
			line:    2,
			message: "else without a previous if",
		},
		{
			name:    "invalid octal",
			src:     "int main() {\n    int x = 08;\n}",
			line:    2,
			message: "invalid integer constant 08",
		},
		{
			name:    "top level statement",
			src:     "x = 1;",
			line:    1,
			message: "expected function definition, got x",
		},
		{
			name:    "unterminated string",
			src:     "int main() {\n    printf(\"oops);\n}",
			line:    2,
			message: "unterminated string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.src)
			require.Error(t, err)

			var list parser.ErrorList
			require.True(t, errors.As(err, &list))
			require.NotEmpty(t, list)
			require.Equal(t, tt.line, list[0].Pos.Line, list[0].Error())
			require.Contains(t, list[0].Message, tt.message)
		})
	}
}

func TestParseErrorLimit(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("int main() {\n")
	for i := 0; i < 50; i++ {
		sb.WriteString("    x = ;\n")
	}
	sb.WriteString("}\n")

	_, err := parser.Parse(sb.String())
	var list parser.ErrorList
	require.True(t, errors.As(err, &list))
	require.LessOrEqual(t, len(list), 10)
	require.Contains(t, err.Error(), "more errors")
}

func TestParseExprTrailing(t *testing.T) {
	_, err := parser.ParseExpr("1 2")
	require.Error(t, err)
}
