package compiler

import (
	"fmt"
	"math"

	"github.com/kolkov/ctrace/internal/ast"
	"github.com/kolkov/ctrace/internal/semantic"
	"github.com/kolkov/ctrace/internal/token"
)

// CompileError represents a compilation error.
type CompileError struct {
	Message string
}

func (e *CompileError) Error() string {
	return e.Message
}

// Options controls code generation.
type Options struct {
	// SimplifiedDoWhile lowers do S while (c); as while (c) S.
	SimplifiedDoWhile bool

	// NoOptimize disables the peephole pass.
	NoOptimize bool
}

// Compile transforms a resolved AST into bytecode for main.
// Other function definitions are never called and are not compiled.
func Compile(prog *ast.Program, resolved *semantic.ResolveResult, opts Options) (compiledProg *Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*CompileError); ok {
				err = ce
			} else {
				panic(r) // Re-panic for non-compile errors
			}
		}
	}()

	mainDecl := prog.Main()
	if mainDecl == nil || resolved.Main == nil {
		return nil, &CompileError{Message: "program has no main function"}
	}

	p := &Program{
		Filename: prog.Filename,
		Locals:   make([]string, resolved.Main.NumSlots),
	}
	for _, sym := range resolved.Main.Symbols {
		p.Locals[sym.Slot] = sym.Name
	}

	c := &compiler{
		resolved: resolved,
		program:  p,
		opts:     opts,
		indexes: &constantIndexes{
			nums:    make(map[int64]int),
			strs:    make(map[string]int),
			formats: make(map[string]int),
		},
	}
	c.compileBlock(mainDecl.Body)

	// Falling off the end of main returns 0.
	c.add(Num, opcodeInt(c.numIndex(0)), Return)
	p.Code = c.code

	if !opts.NoOptimize {
		p.Code = optimizeCode(p.Code)
	}
	return p, nil
}

// constantIndexes tracks constant pool indices for deduplication.
type constantIndexes struct {
	nums    map[int64]int
	strs    map[string]int
	formats map[string]int
}

// compiler holds the state for compiling main.
type compiler struct {
	resolved *semantic.ResolveResult
	program  *Program
	indexes  *constantIndexes
	opts     Options

	code      []Opcode
	breaks    [][]int // Stack of break target lists
	continues [][]int // Stack of continue target lists
}

// add appends opcodes to the current code block.
func (c *compiler) add(ops ...Opcode) {
	c.code = append(c.code, ops...)
}

// opcodeInt converts an int to Opcode, checking for overflow.
func opcodeInt(n int) Opcode {
	if n > math.MaxInt32 || n < math.MinInt32 {
		panic(&CompileError{Message: fmt.Sprintf("value %d overflows int32", n)})
	}
	return Opcode(n)
}

// numIndex adds or reuses an int constant.
func (c *compiler) numIndex(n int64) int {
	if idx, ok := c.indexes.nums[n]; ok {
		return idx
	}
	idx := len(c.program.Nums)
	c.program.Nums = append(c.program.Nums, n)
	c.indexes.nums[n] = idx
	return idx
}

// strIndex adds or reuses a string constant.
func (c *compiler) strIndex(s string) int {
	if idx, ok := c.indexes.strs[s]; ok {
		return idx
	}
	idx := len(c.program.Strs)
	c.program.Strs = append(c.program.Strs, s)
	c.indexes.strs[s] = idx
	return idx
}

// formatIndex adds or reuses the parsed format of a printf call.
func (c *compiler) formatIndex(call *ast.CallExpr) int {
	f, ok := c.resolved.Formats[call]
	if !ok {
		panic(&CompileError{Message: fmt.Sprintf("%s: printf format was not checked", call.Pos())})
	}
	if idx, ok := c.indexes.formats[f.Text()]; ok {
		return idx
	}
	idx := len(c.program.Formats)
	c.program.Formats = append(c.program.Formats, f)
	c.indexes.formats[f.Text()] = idx
	return idx
}

// slot returns the frame slot an identifier is bound to.
func (c *compiler) slot(id *ast.Ident) Opcode {
	sym, ok := c.resolved.Refs[id]
	if !ok {
		panic(&CompileError{Message: fmt.Sprintf("%s: unresolved variable %s", id.Pos(), id.Name)})
	}
	return opcodeInt(sym.Slot)
}

// jumpForward emits a forward jump and returns its patch location.
func (c *compiler) jumpForward(op Opcode, args ...Opcode) int {
	c.add(op)
	c.add(args...)
	c.add(0) // Placeholder for offset
	return len(c.code)
}

// patchForward patches a forward jump to the current position.
func (c *compiler) patchForward(mark int) {
	offset := len(c.code) - mark
	c.code[mark-1] = opcodeInt(offset)
}

// labelBackward returns the current position for a backward jump.
func (c *compiler) labelBackward() int {
	return len(c.code)
}

// jumpBackward emits a backward jump to a label.
func (c *compiler) jumpBackward(label int, op Opcode, args ...Opcode) {
	offset := label - (len(c.code) + len(args) + 2)
	c.add(op)
	c.add(args...)
	c.add(opcodeInt(offset))
}

// patchBreaks patches all break jumps in the current loop.
func (c *compiler) patchBreaks() {
	breaks := c.breaks[len(c.breaks)-1]
	for _, mark := range breaks {
		c.patchForward(mark)
	}
	c.breaks = c.breaks[:len(c.breaks)-1]
}

// patchContinues patches all continue jumps in the current loop.
func (c *compiler) patchContinues() {
	continues := c.continues[len(c.continues)-1]
	for _, mark := range continues {
		c.patchForward(mark)
	}
	c.continues = c.continues[:len(c.continues)-1]
}

// beginLoop registers a loop and opens its break and continue lists.
func (c *compiler) beginLoop(kind LoopKind, pos token.Position, lowered bool) Opcode {
	idx := len(c.program.Loops)
	c.program.Loops = append(c.program.Loops, Loop{Kind: kind, Line: pos.Line, Lowered: lowered})
	c.breaks = append(c.breaks, []int{})
	c.continues = append(c.continues, []int{})
	id := opcodeInt(idx)
	c.add(LoopEnter, id)
	return id
}

// compileBlock compiles a block statement.
func (c *compiler) compileBlock(block *ast.BlockStmt) {
	if block == nil {
		return
	}
	for _, stmt := range block.Stmts {
		c.compileStmt(stmt)
	}
}

// compileStmt compiles a statement. Every statement except a block
// counts one step when it starts.
func (c *compiler) compileStmt(stmt ast.Stmt) {
	if stmt == nil {
		return
	}
	if _, ok := stmt.(*ast.BlockStmt); !ok {
		c.add(Step, opcodeInt(stmt.Pos().Line))
	}

	switch s := stmt.(type) {
	case *ast.DeclStmt:
		for _, v := range s.Vars {
			if v.Init != nil {
				c.compileExpr(v.Init)
			} else {
				c.add(Num, opcodeInt(c.numIndex(0)))
			}
			c.add(StoreLocal, c.slot(v.Name))
		}

	case *ast.ExprStmt:
		c.compileExprStmt(s)

	case *ast.EmptyStmt:
		// Step only

	case *ast.BlockStmt:
		c.compileBlock(s)

	case *ast.IfStmt:
		c.compileIfStmt(s)

	case *ast.WhileStmt:
		c.compileWhileStmt(s.Cond, s.Body, LoopWhile, s.Pos(), false)

	case *ast.DoWhileStmt:
		if c.opts.SimplifiedDoWhile {
			c.compileWhileStmt(s.Cond, s.Body, LoopDoWhile, s.Pos(), true)
		} else {
			c.compileDoWhileStmt(s)
		}

	case *ast.ForStmt:
		c.compileForStmt(s)

	case *ast.BreakStmt:
		if len(c.breaks) == 0 {
			panic(&CompileError{Message: fmt.Sprintf("%s: break statement not within a loop", s.Pos())})
		}
		i := len(c.breaks) - 1
		mark := c.jumpForward(Jump)
		c.breaks[i] = append(c.breaks[i], mark)

	case *ast.ContinueStmt:
		if len(c.continues) == 0 {
			panic(&CompileError{Message: fmt.Sprintf("%s: continue statement not within a loop", s.Pos())})
		}
		i := len(c.continues) - 1
		mark := c.jumpForward(Jump)
		c.continues[i] = append(c.continues[i], mark)

	case *ast.ReturnStmt:
		if s.Value != nil {
			c.compileExpr(s.Value)
		} else {
			c.add(Num, opcodeInt(c.numIndex(0)))
		}
		c.add(Return)

	default:
		panic(&CompileError{Message: fmt.Sprintf("unexpected statement type: %T", stmt)})
	}
}

// compileExprStmt compiles an expression statement, with optimizations.
func (c *compiler) compileExprStmt(s *ast.ExprStmt) {
	switch expr := s.Expr.(type) {
	case *ast.AssignExpr:
		// Optimize: avoid Dupe/Drop for assignments
		c.compileExpr(expr.Right)
		if expr.Op == token.ASSIGN {
			c.add(StoreLocal, c.slot(expr.Left))
		} else {
			c.add(AugLocal, Opcode(augOpOf(expr.Op)), c.slot(expr.Left))
		}
		return

	case *ast.UnaryExpr:
		if expr.Op == token.INCR || expr.Op == token.DECR {
			// Optimize: use IncrLocal for standalone ++/--
			amount := Opcode(1)
			if expr.Op == token.DECR {
				amount = Opcode(-1)
			}
			c.add(IncrLocal, amount, c.slot(lvalue(expr.Expr)))
			return
		}
	}

	// Default: compile expression and drop result
	c.compileExpr(s.Expr)
	c.add(Drop)
}

// compileIfStmt compiles an if statement.
func (c *compiler) compileIfStmt(s *ast.IfStmt) {
	if s.Else == nil {
		// if without else
		jumpOp := c.compileCondition(s.Cond, true)
		ifMark := c.jumpForward(jumpOp)
		c.compileStmt(s.Then)
		c.patchForward(ifMark)
	} else {
		// if with else
		jumpOp := c.compileCondition(s.Cond, true)
		ifMark := c.jumpForward(jumpOp)
		c.compileStmt(s.Then)
		elseMark := c.jumpForward(Jump)
		c.patchForward(ifMark)
		c.compileStmt(s.Else)
		c.patchForward(elseMark)
	}
}

// compileWhileStmt compiles a while loop, or a do-while lowered to one.
//
//	LoopEnter id
//	cond (inverted) -> end
//	start: LoopIter id; body
//	continue: cond -> start
//	end:
func (c *compiler) compileWhileStmt(cond ast.Expr, body ast.Stmt, kind LoopKind, pos token.Position, lowered bool) {
	id := c.beginLoop(kind, pos, lowered)

	// Condition at start and end to avoid extra jump
	jumpOp := c.compileCondition(cond, true)
	mark := c.jumpForward(jumpOp)

	loopStart := c.labelBackward()
	c.add(LoopIter, id)
	c.compileStmt(body)
	c.patchContinues()

	jumpOp = c.compileCondition(cond, false)
	c.jumpBackward(loopStart, jumpOp)
	c.patchForward(mark)

	c.patchBreaks()
}

// compileDoWhileStmt compiles a do-while loop with its body run before
// the first check.
func (c *compiler) compileDoWhileStmt(s *ast.DoWhileStmt) {
	id := c.beginLoop(LoopDoWhile, s.Pos(), false)

	loopStart := c.labelBackward()
	c.add(LoopIter, id)
	c.compileStmt(s.Body)
	c.patchContinues()

	jumpOp := c.compileCondition(s.Cond, false)
	c.jumpBackward(loopStart, jumpOp)

	c.patchBreaks()
}

// compileForStmt compiles a for loop.
func (c *compiler) compileForStmt(s *ast.ForStmt) {
	// Init runs once, outside the loop's iteration budget
	if s.Init != nil {
		c.compileStmt(s.Init)
	}

	id := c.beginLoop(LoopFor, s.Pos(), false)

	// Condition at start (for early exit)
	var mark int
	if s.Cond != nil {
		jumpOp := c.compileCondition(s.Cond, true)
		mark = c.jumpForward(jumpOp)
	}

	loopStart := c.labelBackward()
	c.add(LoopIter, id)
	c.compileStmt(s.Body)
	c.patchContinues()

	// Post
	if s.Post != nil {
		c.compileExprStmt(&ast.ExprStmt{Expr: s.Post})
	}

	// Condition at end
	if s.Cond != nil {
		jumpOp := c.compileCondition(s.Cond, false)
		c.jumpBackward(loopStart, jumpOp)
		c.patchForward(mark)
	} else {
		c.jumpBackward(loopStart, Jump)
	}

	c.patchBreaks()
}

// compileCondition compiles a boolean condition with jump optimization.
func (c *compiler) compileCondition(expr ast.Expr, invert bool) Opcode {
	jumpOp := func(normal, inverted Opcode) Opcode {
		if invert {
			return inverted
		}
		return normal
	}

	switch e := expr.(type) {
	case *ast.BinaryExpr:
		// Optimize comparison expressions into conditional jumps
		switch e.Op {
		case token.EQUALS:
			c.compileExpr(e.Left)
			c.compileExpr(e.Right)
			return jumpOp(JumpEqual, JumpNotEq)
		case token.NOT_EQUALS:
			c.compileExpr(e.Left)
			c.compileExpr(e.Right)
			return jumpOp(JumpNotEq, JumpEqual)
		case token.LESS:
			c.compileExpr(e.Left)
			c.compileExpr(e.Right)
			return jumpOp(JumpLess, JumpGrEq)
		case token.LTE:
			c.compileExpr(e.Left)
			c.compileExpr(e.Right)
			return jumpOp(JumpLessEq, JumpGreater)
		case token.GREATER:
			c.compileExpr(e.Left)
			c.compileExpr(e.Right)
			return jumpOp(JumpGreater, JumpLessEq)
		case token.GTE:
			c.compileExpr(e.Left)
			c.compileExpr(e.Right)
			return jumpOp(JumpGrEq, JumpLess)
		}

	case *ast.UnaryExpr:
		if e.Op == token.NOT {
			return c.compileCondition(e.Expr, !invert)
		}
	}

	// Default: evaluate expression and use JumpTrue/JumpFalse
	c.compileExpr(expr)
	return jumpOp(JumpTrue, JumpFalse)
}

// compileExpr compiles an expression, leaving its value on the stack.
func (c *compiler) compileExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.IntLit:
		c.add(Num, opcodeInt(c.numIndex(e.Value)))

	case *ast.CharLit:
		c.add(Num, opcodeInt(c.numIndex(int64(e.Value))))

	case *ast.StrLit:
		c.add(Str, opcodeInt(c.strIndex(e.Value)))

	case *ast.Ident:
		c.add(LoadLocal, c.slot(e))

	case *ast.BinaryExpr:
		c.compileBinaryExpr(e)

	case *ast.UnaryExpr:
		c.compileUnaryExpr(e)

	case *ast.AssignExpr:
		// Assignment in expression context: compute value, dupe, store
		slot := c.slot(e.Left)
		if e.Op == token.ASSIGN {
			c.compileExpr(e.Right)
		} else {
			// The value of x += 3 is the new x
			c.add(LoadLocal, slot)
			c.compileExpr(e.Right)
			c.add(augOpOf(e.Op).Binary())
		}
		c.add(Dupe, StoreLocal, slot)

	case *ast.CallExpr:
		c.compileCallExpr(e)

	default:
		panic(&CompileError{Message: fmt.Sprintf("unexpected expression type: %T", expr)})
	}
}

// compileBinaryExpr compiles a binary expression.
func (c *compiler) compileBinaryExpr(e *ast.BinaryExpr) {
	// Short-circuit operators
	switch e.Op {
	case token.AND:
		c.compileExpr(e.Left)
		c.add(Dupe)
		mark := c.jumpForward(JumpFalse)
		c.add(Drop)
		c.compileExpr(e.Right)
		c.patchForward(mark)
		c.add(Boolean)
		return

	case token.OR:
		c.compileExpr(e.Left)
		c.add(Dupe)
		mark := c.jumpForward(JumpTrue)
		c.add(Drop)
		c.compileExpr(e.Right)
		c.patchForward(mark)
		c.add(Boolean)
		return
	}

	c.compileExpr(e.Left)
	c.compileExpr(e.Right)

	switch e.Op {
	case token.ADD:
		c.add(Add)
	case token.SUB:
		c.add(Subtract)
	case token.MUL:
		c.add(Multiply)
	case token.DIV:
		c.add(Divide)
	case token.MOD:
		c.add(Modulo)
	case token.EQUALS:
		c.add(Equal)
	case token.NOT_EQUALS:
		c.add(NotEqual)
	case token.LESS:
		c.add(Less)
	case token.LTE:
		c.add(LessEqual)
	case token.GREATER:
		c.add(Greater)
	case token.GTE:
		c.add(GreaterEqual)
	default:
		panic(&CompileError{Message: fmt.Sprintf("unknown binary operator: %v", e.Op)})
	}
}

// compileUnaryExpr compiles a unary expression.
func (c *compiler) compileUnaryExpr(e *ast.UnaryExpr) {
	switch e.Op {
	case token.INCR, token.DECR:
		// Pre/post increment in expression context
		op := Add
		if e.Op == token.DECR {
			op = Subtract
		}
		slot := c.slot(lvalue(e.Expr))
		one := opcodeInt(c.numIndex(1))

		if e.Post {
			// Post: return original value, then increment
			c.add(LoadLocal, slot, Dupe, Num, one, op, StoreLocal, slot)
		} else {
			// Pre: increment first, then return new value
			c.add(LoadLocal, slot, Num, one, op, Dupe, StoreLocal, slot)
		}
		return

	case token.SUB:
		// Fold negative constants so -2147483648 never exists as a positive int
		if lit, ok := e.Expr.(*ast.IntLit); ok {
			c.add(Num, opcodeInt(c.numIndex(-lit.Value)))
			return
		}
		c.compileExpr(e.Expr)
		c.add(UnaryMinus)

	case token.ADD:
		c.compileExpr(e.Expr)

	case token.NOT:
		c.compileExpr(e.Expr)
		c.add(Not)

	default:
		panic(&CompileError{Message: fmt.Sprintf("unknown unary operator: %v", e.Op)})
	}
}

// compileCallExpr compiles a library call.
func (c *compiler) compileCallExpr(e *ast.CallExpr) {
	switch e.Func {
	case token.F_PRINTF:
		// The format is a constant of the Printf instruction
		for _, arg := range e.Args[1:] {
			c.compileExpr(arg)
		}
		c.add(Printf, opcodeInt(c.formatIndex(e)), opcodeInt(len(e.Args)-1))

	case token.F_PUTS:
		c.compileExpr(e.Args[0])
		c.add(Puts)

	case token.F_PUTCHAR:
		c.compileExpr(e.Args[0])
		c.add(Putchar)

	default:
		panic(&CompileError{Message: fmt.Sprintf("unsupported function: %v", e.Func)})
	}
}

// augOpOf maps a compound assignment token to its AugOp.
func augOpOf(tok token.Token) AugOp {
	switch tok {
	case token.ADD_ASSIGN:
		return AugAdd
	case token.SUB_ASSIGN:
		return AugSub
	case token.MUL_ASSIGN:
		return AugMul
	case token.DIV_ASSIGN:
		return AugDiv
	case token.MOD_ASSIGN:
		return AugMod
	default:
		panic(&CompileError{Message: fmt.Sprintf("unknown assignment operator: %v", tok)})
	}
}

// lvalue returns the variable an increment applies to.
func lvalue(e ast.Expr) *ast.Ident {
	id, ok := e.(*ast.Ident)
	if !ok {
		panic(&CompileError{Message: fmt.Sprintf("%s: operand must be a variable", e.Pos())})
	}
	return id
}
