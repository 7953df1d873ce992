// Package ast defines the abstract syntax tree for the C fixture subset.
//
// Node hierarchy:
//
//	Node (interface)
//	├── Expr (interface) - expressions that produce values
//	│   ├── IntLit, StrLit, CharLit - literals
//	│   ├── Ident - variable references
//	│   ├── BinaryExpr, UnaryExpr, AssignExpr - operations
//	│   └── CallExpr - printf, puts, putchar
//	├── Stmt (interface) - statements that perform actions
//	│   ├── DeclStmt, ExprStmt, EmptyStmt, BlockStmt - basic
//	│   ├── IfStmt - conditional
//	│   ├── WhileStmt, DoWhileStmt, ForStmt - loops
//	│   └── BreakStmt, ContinueStmt, ReturnStmt - control
//	└── Program, Directive, FuncDecl - top-level structures
package ast

import "github.com/kolkov/ctrace/internal/token"

// Node is the interface implemented by all AST nodes.
type Node interface {
	// Pos returns the position of the first character belonging to this node.
	Pos() token.Position

	// End returns the position of the first character immediately after this node.
	End() token.Position
}

// Expr is the interface for all expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for all statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// BaseExpr provides common fields for all expression nodes.
type BaseExpr struct {
	StartPos token.Position // Position of first token
	EndPos   token.Position // Position after last token
}

func (b *BaseExpr) Pos() token.Position { return b.StartPos }
func (b *BaseExpr) End() token.Position { return b.EndPos }
func (b *BaseExpr) exprNode()           {}

// BaseStmt provides common fields for all statement nodes.
type BaseStmt struct {
	StartPos token.Position // Position of first token
	EndPos   token.Position // Position after last token
}

func (b *BaseStmt) Pos() token.Position { return b.StartPos }
func (b *BaseStmt) End() token.Position { return b.EndPos }
func (b *BaseStmt) stmtNode()           {}

// IsLValue returns true if the expression can be assigned to
// or used as the operand of ++/--.
func IsLValue(e Expr) bool {
	_, ok := e.(*Ident)
	return ok
}

// MakeBaseExpr creates a BaseExpr with the given positions.
func MakeBaseExpr(start, end token.Position) BaseExpr {
	return BaseExpr{StartPos: start, EndPos: end}
}

// MakeBaseStmt creates a BaseStmt with the given positions.
func MakeBaseStmt(start, end token.Position) BaseStmt {
	return BaseStmt{StartPos: start, EndPos: end}
}
