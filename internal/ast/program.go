package ast

import "github.com/kolkov/ctrace/internal/token"

// Program represents a parsed C translation unit.
type Program struct {
	// Source file name (for error messages)
	Filename string

	// Preprocessor lines, kept for display only.
	Directives []*Directive

	// Function definitions in source order.
	Funcs []*FuncDecl

	StartPos token.Position
	EndPos   token.Position
}

// Pos returns the position of the first token in the program.
func (p *Program) Pos() token.Position { return p.StartPos }

// End returns the position after the last token in the program.
func (p *Program) End() token.Position { return p.EndPos }

// Main returns the definition of main, or nil if there is none.
func (p *Program) Main() *FuncDecl {
	for _, f := range p.Funcs {
		if f.Name == "main" {
			return f
		}
	}
	return nil
}

// Directive is a preprocessor line such as "#include <stdio.h>".
type Directive struct {
	Text     string // line text without the leading '#'
	StartPos token.Position
	EndPos   token.Position
}

func (d *Directive) Pos() token.Position { return d.StartPos }
func (d *Directive) End() token.Position { return d.EndPos }

// FuncDecl represents a function definition. Only parameterless
// int functions are part of the fixture subset.
// Example: int main(void) { ... }
type FuncDecl struct {
	Name     string
	NamePos  token.Position
	VoidArgs bool // declared as f(void)
	Body     *BlockStmt

	StartPos token.Position
	EndPos   token.Position
}

func (f *FuncDecl) Pos() token.Position { return f.StartPos }
func (f *FuncDecl) End() token.Position { return f.EndPos }
