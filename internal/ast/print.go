package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer renders AST nodes back to C source. The output is canonical
// (one statement per line, four-space indent, fully braced operands)
// and is meant for debugging, not for round-trip formatting.
type Printer struct {
	w      io.Writer
	indent int
	err    error
}

// NewPrinter creates a new Printer that writes to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes the source form of node to the writer.
func (p *Printer) Print(node Node) error {
	p.printNode(node)
	return p.err
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) writeIndent() {
	if p.err != nil {
		return
	}
	for i := 0; i < p.indent; i++ {
		_, p.err = io.WriteString(p.w, "    ")
	}
}

func (p *Printer) printNode(node Node) {
	if isNil(node) {
		p.printf("<nil>")
		return
	}

	switch n := node.(type) {
	case *Program:
		p.printProgram(n)
	case *Directive:
		p.printf("#%s", n.Text)
	case *FuncDecl:
		p.printFuncDecl(n)
	case Expr:
		p.printExpr(n)
	case Stmt:
		p.printStmt(n)
	default:
		p.printf("<%T>", node)
	}
}

func (p *Printer) printProgram(prog *Program) {
	for _, d := range prog.Directives {
		p.printf("#%s\n", d.Text)
	}
	if len(prog.Directives) > 0 && len(prog.Funcs) > 0 {
		p.printf("\n")
	}
	for i, f := range prog.Funcs {
		if i > 0 {
			p.printf("\n")
		}
		p.printFuncDecl(f)
		p.printf("\n")
	}
}

func (p *Printer) printFuncDecl(f *FuncDecl) {
	if f.VoidArgs {
		p.printf("int %s(void) ", f.Name)
	} else {
		p.printf("int %s() ", f.Name)
	}
	p.printStmt(f.Body)
}

func (p *Printer) printExpr(e Expr) {
	if e == nil {
		p.printf("<nil>")
		return
	}

	switch n := e.(type) {
	case *IntLit:
		if n.Raw != "" {
			p.printf("%s", n.Raw)
		} else {
			p.printf("%d", n.Value)
		}

	case *StrLit:
		p.printf("%s", QuoteString(n.Value))

	case *CharLit:
		p.printf("%s", QuoteChar(n.Value))

	case *Ident:
		p.printf("%s", n.Name)

	case *BinaryExpr:
		p.printOperand(n.Left)
		p.printf(" %s ", n.Op)
		p.printOperand(n.Right)

	case *UnaryExpr:
		if n.Post {
			p.printOperand(n.Expr)
			p.printf("%s", n.Op)
		} else {
			p.printf("%s", n.Op)
			p.printOperand(n.Expr)
		}

	case *AssignExpr:
		p.printExpr(n.Left)
		p.printf(" %s ", n.Op)
		p.printExpr(n.Right)

	case *CallExpr:
		p.printf("%s(", n.Func)
		for i, arg := range n.Args {
			if i > 0 {
				p.printf(", ")
			}
			p.printExpr(arg)
		}
		p.printf(")")

	default:
		p.printf("<%T>", e)
	}
}

func (p *Printer) printOperand(e Expr) {
	if needsParens(e) {
		p.printf("(")
		p.printExpr(e)
		p.printf(")")
		return
	}
	p.printExpr(e)
}

func (p *Printer) printStmt(s Stmt) {
	if s == nil {
		p.printf("<nil>")
		return
	}

	switch n := s.(type) {
	case *DeclStmt:
		p.printDecl(n)
		p.printf(";")

	case *ExprStmt:
		p.printExpr(n.Expr)
		p.printf(";")

	case *EmptyStmt:
		p.printf(";")

	case *BlockStmt:
		if n == nil {
			p.printf("<nil>")
			return
		}
		p.printf("{\n")
		p.indent++
		for _, stmt := range n.Stmts {
			p.writeIndent()
			p.printStmt(stmt)
			p.printf("\n")
		}
		p.indent--
		p.writeIndent()
		p.printf("}")

	case *IfStmt:
		p.printf("if (")
		p.printExpr(n.Cond)
		p.printf(") ")
		p.printStmt(n.Then)
		if n.Else != nil {
			p.printf(" else ")
			p.printStmt(n.Else)
		}

	case *WhileStmt:
		p.printf("while (")
		p.printExpr(n.Cond)
		p.printf(") ")
		p.printStmt(n.Body)

	case *DoWhileStmt:
		p.printf("do ")
		p.printStmt(n.Body)
		p.printf(" while (")
		p.printExpr(n.Cond)
		p.printf(");")

	case *ForStmt:
		p.printf("for (")
		switch init := n.Init.(type) {
		case *DeclStmt:
			p.printDecl(init)
		case *ExprStmt:
			p.printExpr(init.Expr)
		}
		p.printf("; ")
		if n.Cond != nil {
			p.printExpr(n.Cond)
		}
		p.printf("; ")
		if n.Post != nil {
			p.printExpr(n.Post)
		}
		p.printf(") ")
		p.printStmt(n.Body)

	case *BreakStmt:
		p.printf("break;")

	case *ContinueStmt:
		p.printf("continue;")

	case *ReturnStmt:
		p.printf("return")
		if n.Value != nil {
			p.printf(" ")
			p.printExpr(n.Value)
		}
		p.printf(";")

	default:
		p.printf("<%T>", s)
	}
}

func (p *Printer) printDecl(d *DeclStmt) {
	p.printf("int ")
	for i, v := range d.Vars {
		if i > 0 {
			p.printf(", ")
		}
		p.printf("%s", v.Name.Name)
		if v.Init != nil {
			p.printf(" = ")
			p.printExpr(v.Init)
		}
	}
}

// String returns the source form of the node.
func String(node Node) string {
	var sb strings.Builder
	p := NewPrinter(&sb)
	_ = p.Print(node)
	return sb.String()
}

// QuoteString returns s as a C string literal. Bytes >= 0x80 are
// written unchanged so UTF-8 text stays readable.
func QuoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		writeEscaped(&sb, s[i], '"')
	}
	sb.WriteByte('"')
	return sb.String()
}

// QuoteChar returns c as a C character constant.
func QuoteChar(c byte) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	writeEscaped(&sb, c, '\'')
	sb.WriteByte('\'')
	return sb.String()
}

func writeEscaped(sb *strings.Builder, c, quote byte) {
	switch c {
	case '\n':
		sb.WriteString(`\n`)
	case '\t':
		sb.WriteString(`\t`)
	case '\r':
		sb.WriteString(`\r`)
	case '\\':
		sb.WriteString(`\\`)
	case quote:
		sb.WriteByte('\\')
		sb.WriteByte(c)
	default:
		if c < 0x20 || c == 0x7f {
			fmt.Fprintf(sb, `\x%02x`, c)
			return
		}
		sb.WriteByte(c)
	}
}

func needsParens(e Expr) bool {
	switch e.(type) {
	case *BinaryExpr, *AssignExpr:
		return true
	default:
		return false
	}
}
