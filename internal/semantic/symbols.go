package semantic

import "github.com/kolkov/ctrace/internal/token"

// Symbol is a declared int variable.
type Symbol struct {
	Name  string
	Slot  int // local slot in the enclosing function's frame
	Pos   token.Position
	Depth int // block nesting depth of the declaration
	Used  bool
}

// SymbolTable is one block scope. Lookups walk outward through parents.
type SymbolTable struct {
	parent  *SymbolTable
	symbols map[string]*Symbol
}

// NewSymbolTable creates a scope nested in parent (nil for a function body's outer scope).
func NewSymbolTable(parent *SymbolTable) *SymbolTable {
	return &SymbolTable{
		parent:  parent,
		symbols: make(map[string]*Symbol),
	}
}

// Parent returns the enclosing scope, or nil.
func (st *SymbolTable) Parent() *SymbolTable {
	return st.parent
}

// Define adds sym to this scope. It returns false if the name is
// already declared in the same scope.
func (st *SymbolTable) Define(sym *Symbol) bool {
	if _, exists := st.symbols[sym.Name]; exists {
		return false
	}
	st.symbols[sym.Name] = sym
	return true
}

// Lookup searches this scope and all enclosing scopes.
func (st *SymbolTable) Lookup(name string) (*Symbol, bool) {
	for scope := st; scope != nil; scope = scope.parent {
		if sym, ok := scope.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupLocal searches only this scope.
func (st *SymbolTable) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := st.symbols[name]
	return sym, ok
}

// FuncInfo holds resolved information about a function definition.
type FuncInfo struct {
	Name     string
	Pos      token.Position
	NumSlots int       // frame size
	Symbols  []*Symbol // every declaration, in slot order
}

// BuiltinInfo describes a library function.
type BuiltinInfo struct {
	Name    string
	MinArgs int
	MaxArgs int // -1 for variadic
	Token   token.Token
}

var builtinFuncs = map[token.Token]BuiltinInfo{
	token.F_PRINTF:  {Name: "printf", MinArgs: 1, MaxArgs: -1, Token: token.F_PRINTF},
	token.F_PUTS:    {Name: "puts", MinArgs: 1, MaxArgs: 1, Token: token.F_PUTS},
	token.F_PUTCHAR: {Name: "putchar", MinArgs: 1, MaxArgs: 1, Token: token.F_PUTCHAR},
}

// GetBuiltinInfo returns information about a library function token.
func GetBuiltinInfo(tok token.Token) (BuiltinInfo, bool) {
	info, ok := builtinFuncs[tok]
	return info, ok
}
