package ast

// -----------------------------------------------------------------------------
// Basic statements
// -----------------------------------------------------------------------------

// DeclStmt represents an int declaration.
// Examples: int i; int sum1 = 0; int i, sum = 0;
type DeclStmt struct {
	BaseStmt
	Vars []*VarSpec
}

// VarSpec is one declarator in a DeclStmt.
type VarSpec struct {
	Name *Ident
	Init Expr // nil if uninitialized
}

// ExprStmt represents an expression used as a statement.
// Examples: i++; printf("\n");
type ExprStmt struct {
	BaseStmt
	Expr Expr
}

// EmptyStmt represents a lone semicolon.
type EmptyStmt struct {
	BaseStmt
}

// BlockStmt represents a braced block. Each block opens a new scope.
type BlockStmt struct {
	BaseStmt
	Stmts []Stmt
}

// -----------------------------------------------------------------------------
// Conditional statements
// -----------------------------------------------------------------------------

// IfStmt represents an if or if-else statement.
type IfStmt struct {
	BaseStmt
	Cond Expr
	Then Stmt
	Else Stmt // nil if no else, or another *IfStmt for else-if
}

// -----------------------------------------------------------------------------
// Loop statements
// -----------------------------------------------------------------------------

// WhileStmt represents a while loop.
type WhileStmt struct {
	BaseStmt
	Cond Expr
	Body Stmt
}

// DoWhileStmt represents a do-while loop.
type DoWhileStmt struct {
	BaseStmt
	Body Stmt
	Cond Expr // evaluated after each iteration
}

// ForStmt represents a for loop. Variables declared in Init are
// scoped to the loop.
type ForStmt struct {
	BaseStmt
	Init Stmt // *DeclStmt, *ExprStmt or nil
	Cond Expr // nil means true
	Post Expr // may be nil
	Body Stmt
}

// -----------------------------------------------------------------------------
// Control flow statements
// -----------------------------------------------------------------------------

// BreakStmt represents a break statement.
type BreakStmt struct {
	BaseStmt
}

// ContinueStmt represents a continue statement.
type ContinueStmt struct {
	BaseStmt
}

// ReturnStmt represents a return statement.
type ReturnStmt struct {
	BaseStmt
	Value Expr // nil for bare return
}
