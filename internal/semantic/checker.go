package semantic

import (
	"strconv"

	"github.com/kolkov/ctrace/internal/ast"
	"github.com/kolkov/ctrace/internal/runtime"
	"github.com/kolkov/ctrace/internal/token"
	"github.com/kolkov/ctrace/internal/types"
)

// Checker performs validation that needs resolved names: loop context
// for break/continue, printf format agreement, and constant ranges.
type Checker struct {
	result *ResolveResult
	errors ErrorList

	inLoop int
}

// Check performs semantic validation on a resolved program.
// Parsed printf formats are stored in result.Formats for the compiler.
func Check(prog *ast.Program, result *ResolveResult) []error {
	c := &Checker{result: result}

	for _, fn := range prog.Funcs {
		c.inLoop = 0
		c.checkStmt(fn.Body)
	}

	if len(c.errors) == 0 {
		return nil
	}
	errs := make([]error, len(c.errors))
	for i, e := range c.errors {
		errs[i] = e
	}
	return errs
}

func (c *Checker) addError(pos token.Position, kind error, format string, args ...any) {
	c.errors.Add(pos, format, args...)
	c.errors[len(c.errors)-1].Kind = kind
}

func (c *Checker) checkStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case nil:

	case *ast.BlockStmt:
		if s == nil {
			return
		}
		for _, st := range s.Stmts {
			c.checkStmt(st)
		}

	case *ast.DeclStmt:
		for _, v := range s.Vars {
			c.checkExpr(v.Init)
		}

	case *ast.ExprStmt:
		c.checkExpr(s.Expr)

	case *ast.IfStmt:
		c.checkExpr(s.Cond)
		c.checkStmt(s.Then)
		c.checkStmt(s.Else)

	case *ast.WhileStmt:
		c.checkExpr(s.Cond)
		c.checkLoopBody(s.Body)

	case *ast.DoWhileStmt:
		c.checkLoopBody(s.Body)
		c.checkExpr(s.Cond)

	case *ast.ForStmt:
		c.checkStmt(s.Init)
		c.checkExpr(s.Cond)
		c.checkExpr(s.Post)
		c.checkLoopBody(s.Body)

	case *ast.BreakStmt:
		if c.inLoop == 0 {
			c.addError(s.Pos(), nil, errBreakOutsideLoop)
		}

	case *ast.ContinueStmt:
		if c.inLoop == 0 {
			c.addError(s.Pos(), nil, errContinueOutsideLoop)
		}

	case *ast.ReturnStmt:
		c.checkExpr(s.Value)

	case *ast.EmptyStmt:
	}
}

func (c *Checker) checkLoopBody(body ast.Stmt) {
	c.inLoop++
	c.checkStmt(body)
	c.inLoop--
}

// checkExpr checks an expression used for its int value.
func (c *Checker) checkExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case nil:

	case *ast.IntLit:
		if !types.InIntRange(e.Value) {
			text := e.Raw
			if text == "" {
				text = strconv.FormatInt(e.Value, 10)
			}
			c.addError(e.Pos(), types.ErrMalformedFixture, errConstOverflow, text)
		}

	case *ast.StrLit:
		c.addError(e.Pos(), nil, errStringOperand)

	case *ast.CharLit, *ast.Ident:

	case *ast.BinaryExpr:
		c.checkExpr(e.Left)
		c.checkExpr(e.Right)
		if e.Op == token.DIV || e.Op == token.MOD {
			if lit, ok := e.Right.(*ast.IntLit); ok && lit.Value == 0 {
				c.result.Warnings.Add(e.Right.Pos(), warnDivByZero)
			}
		}

	case *ast.UnaryExpr:
		// -2147483648 is spelled as negation of an out-of-range constant
		if lit, ok := e.Expr.(*ast.IntLit); ok && e.Op == token.SUB && types.InIntRange(-lit.Value) {
			return
		}
		c.checkExpr(e.Expr)

	case *ast.AssignExpr:
		c.checkExpr(e.Right)

	case *ast.CallExpr:
		c.checkCall(e)
	}
}

func (c *Checker) checkCall(call *ast.CallExpr) {
	info, ok := GetBuiltinInfo(call.Func)
	if !ok {
		return
	}
	n := len(call.Args)
	if n < info.MinArgs || (info.MaxArgs >= 0 && n > info.MaxArgs) {
		c.addError(call.Pos(), nil, errArgCount, info.Name, info.MinArgs, n)
		return
	}

	switch call.Func {
	case token.F_PRINTF:
		c.checkPrintf(call)

	case token.F_PUTS:
		if _, ok := call.Args[0].(*ast.StrLit); !ok {
			c.addError(call.Args[0].Pos(), nil, errPutsArg)
		}

	case token.F_PUTCHAR:
		c.checkExpr(call.Args[0])
	}
}

func (c *Checker) checkPrintf(call *ast.CallExpr) {
	lit, ok := call.Args[0].(*ast.StrLit)
	if !ok {
		c.addError(call.Args[0].Pos(), nil, errFormatNotLiteral)
		return
	}
	f, err := runtime.ParseFormat(lit.Value)
	if err != nil {
		c.addError(lit.Pos(), nil, errBadFormat, err)
		return
	}
	c.result.Formats[call] = f

	args := call.Args[1:]
	if len(args) < f.NumArgs() {
		c.addError(call.Pos(), nil, errTooFewArgs, lit.Value, f.NumArgs(), len(args))
		return
	}
	if len(args) > f.NumArgs() {
		c.result.Warnings.Add(call.Pos(), warnTooManyArgs, lit.Value, f.NumArgs(), len(args))
	}

	i := 0
	for _, d := range f.Directives() {
		if !d.ConsumesArg() {
			continue
		}
		arg := args[i]
		i++
		_, isStr := arg.(*ast.StrLit)
		switch {
		case d.WantsString() && !isStr:
			c.addError(arg.Pos(), nil, errArgKind, d.Text, "a string")
		case !d.WantsString() && isStr:
			c.addError(arg.Pos(), nil, errArgKind, d.Text, "an integer")
		case !isStr:
			c.checkExpr(arg)
		}
	}
	// Unconsumed arguments are still evaluated.
	for _, arg := range args[i:] {
		if _, isStr := arg.(*ast.StrLit); !isStr {
			c.checkExpr(arg)
		}
	}
}
