package semantic

import (
	"sort"

	"github.com/kolkov/ctrace/internal/ast"
	"github.com/kolkov/ctrace/internal/runtime"
)

// ResolveResult contains the results of semantic analysis.
type ResolveResult struct {
	// Function definitions by name
	Funcs map[string]*FuncInfo

	// Main is the entry point (nil if missing, which is an error)
	Main *FuncInfo

	// Refs binds every identifier, declaration or use, to its symbol
	Refs map[*ast.Ident]*Symbol

	// Formats holds the parsed format of every printf call; filled by Check
	Formats map[*ast.CallExpr]*runtime.Format

	Errors   ErrorList
	Warnings WarningList
}

// Resolver binds identifiers to block-scoped declarations and
// allocates a frame slot for each declaration.
type Resolver struct {
	result *ResolveResult

	scope *SymbolTable
	fn    *FuncInfo
	depth int
}

// Resolve performs name resolution on the given program.
func Resolve(prog *ast.Program) (*ResolveResult, error) {
	r := &Resolver{
		result: &ResolveResult{
			Funcs:   make(map[string]*FuncInfo),
			Refs:    make(map[*ast.Ident]*Symbol),
			Formats: make(map[*ast.CallExpr]*runtime.Format),
		},
	}

	r.collectFunctions(prog)
	for _, fn := range prog.Funcs {
		r.resolveFunction(fn)
	}
	r.finalize()

	if err := r.result.Errors.Err(); err != nil {
		return r.result, err
	}
	return r.result, nil
}

func (r *Resolver) collectFunctions(prog *ast.Program) {
	for _, fn := range prog.Funcs {
		if _, exists := r.result.Funcs[fn.Name]; exists {
			r.result.Errors.Add(fn.NamePos, errDuplicateFunc, fn.Name)
			continue
		}
		r.result.Funcs[fn.Name] = &FuncInfo{Name: fn.Name, Pos: fn.NamePos}
	}

	main, ok := r.result.Funcs["main"]
	if !ok {
		r.result.Errors.Add(prog.EndPos, errNoMain)
		return
	}
	r.result.Main = main
}

func (r *Resolver) resolveFunction(fn *ast.FuncDecl) {
	info := r.result.Funcs[fn.Name]
	if info == nil || info.Pos != fn.NamePos {
		return // duplicate, already reported
	}
	r.fn = info
	r.scope = nil
	r.depth = 0
	r.resolveBlock(fn.Body)
	r.fn = nil
}

func (r *Resolver) pushScope() {
	r.scope = NewSymbolTable(r.scope)
	r.depth++
}

func (r *Resolver) popScope() {
	r.scope = r.scope.Parent()
	r.depth--
}

func (r *Resolver) declare(id *ast.Ident) {
	if prev, exists := r.scope.LookupLocal(id.Name); exists {
		r.result.Errors.Add(id.Pos(), errRedeclared, id.Name)
		r.result.Refs[id] = prev
		return
	}
	sym := &Symbol{
		Name:  id.Name,
		Slot:  r.fn.NumSlots,
		Pos:   id.Pos(),
		Depth: r.depth,
	}
	r.fn.NumSlots++
	r.fn.Symbols = append(r.fn.Symbols, sym)
	r.scope.Define(sym)
	r.result.Refs[id] = sym
}

func (r *Resolver) use(id *ast.Ident) {
	sym, ok := r.scope.Lookup(id.Name)
	if !ok {
		r.result.Errors.Add(id.Pos(), errUndeclared, id.Name)
		return
	}
	sym.Used = true
	r.result.Refs[id] = sym
}

func (r *Resolver) resolveBlock(b *ast.BlockStmt) {
	if b == nil {
		return
	}
	r.pushScope()
	for _, s := range b.Stmts {
		r.resolveStmt(s)
	}
	r.popScope()
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case nil:

	case *ast.DeclStmt:
		for _, v := range s.Vars {
			// The declared name is in scope within its own initializer, as in C.
			r.declare(v.Name)
			r.resolveExpr(v.Init)
		}

	case *ast.ExprStmt:
		r.resolveExpr(s.Expr)

	case *ast.BlockStmt:
		r.resolveBlock(s)

	case *ast.IfStmt:
		r.resolveExpr(s.Cond)
		r.resolveBody(s.Then)
		r.resolveBody(s.Else)

	case *ast.WhileStmt:
		r.resolveExpr(s.Cond)
		r.resolveBody(s.Body)

	case *ast.DoWhileStmt:
		r.resolveBody(s.Body)
		r.resolveExpr(s.Cond)

	case *ast.ForStmt:
		// for-init declarations live in a scope wrapping the loop
		r.pushScope()
		r.resolveStmt(s.Init)
		r.resolveExpr(s.Cond)
		r.resolveExpr(s.Post)
		r.resolveBody(s.Body)
		r.popScope()

	case *ast.ReturnStmt:
		r.resolveExpr(s.Value)

	case *ast.EmptyStmt, *ast.BreakStmt, *ast.ContinueStmt:
	}
}

// resolveBody resolves a branch or loop body. A non-block body still
// gets its own scope, as in C99.
func (r *Resolver) resolveBody(stmt ast.Stmt) {
	if stmt == nil {
		return
	}
	if b, ok := stmt.(*ast.BlockStmt); ok {
		r.resolveBlock(b)
		return
	}
	r.pushScope()
	r.resolveStmt(stmt)
	r.popScope()
}

func (r *Resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case nil:

	case *ast.Ident:
		r.use(e)

	case *ast.BinaryExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.UnaryExpr:
		r.resolveExpr(e.Expr)

	case *ast.AssignExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.CallExpr:
		for _, arg := range e.Args {
			r.resolveExpr(arg)
		}

	case *ast.IntLit, *ast.StrLit, *ast.CharLit:
	}
}

// finalize reports unused declarations and functions other than main,
// in source order.
func (r *Resolver) finalize() {
	var names []string
	for name := range r.result.Funcs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fn := r.result.Funcs[name]
		if name != "main" {
			r.result.Warnings.Add(fn.Pos, warnUnusedFunc, name)
		}
		for _, sym := range fn.Symbols {
			if !sym.Used {
				r.result.Warnings.Add(sym.Pos, warnUnusedVar, sym.Name)
			}
		}
	}
}
