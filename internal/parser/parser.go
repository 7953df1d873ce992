package parser

import (
	"strconv"

	"github.com/kolkov/ctrace/internal/ast"
	"github.com/kolkov/ctrace/internal/lexer"
	"github.com/kolkov/ctrace/internal/token"
)

// maxErrors bounds how many errors are collected before parsing stops.
const maxErrors = 10

// Parser is a recursive descent parser for C fixture programs.
type Parser struct {
	lexer   *lexer.Lexer
	tok     lexer.Token // Current token
	prevTok lexer.Token // Previous token
	errors  ErrorList

	filename string
}

// bailout is panicked when maxErrors is reached and recovered in parse.
type bailout struct{}

// Parse parses a C program from source code.
// Returns the AST and any parse errors encountered.
func Parse(src string) (*ast.Program, error) {
	return ParseBytes([]byte(src))
}

// ParseBytes parses a C program from a byte slice.
func ParseBytes(src []byte) (*ast.Program, error) {
	return ParseFile("", src)
}

// ParseFile parses a C program and records filename in positions and
// in the resulting Program.
func ParseFile(filename string, src []byte) (*ast.Program, error) {
	p := &Parser{
		lexer:    lexer.New(src),
		filename: filename,
	}
	p.next()

	var prog *ast.Program
	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(bailout); !ok {
					panic(r)
				}
			}
		}()
		prog = p.parseProgram()
	}()

	if err := p.errors.Err(); err != nil {
		return nil, err
	}
	prog.Filename = filename
	return prog, nil
}

// ParseExpr parses a single expression (useful for testing).
func ParseExpr(src string) (ast.Expr, error) {
	p := &Parser{
		lexer: lexer.New([]byte(src)),
	}
	p.next()

	expr := p.parseExpr()
	if p.tok.Type != token.EOF && len(p.errors) == 0 {
		p.error(expectedError(p.tok.Pos, "end of expression", p.tokenDesc()))
	}

	if err := p.errors.Err(); err != nil {
		return nil, err
	}
	return expr, nil
}

// -----------------------------------------------------------------------------
// Token handling
// -----------------------------------------------------------------------------

func (p *Parser) next() {
	p.prevTok = p.tok
	p.tok = p.lexer.Scan()
	p.tok.Pos.Filename = p.filename
}

// expect checks that the current token is tok and advances.
// If not, it records an error.
func (p *Parser) expect(tok token.Token) bool {
	if p.tok.Type != tok {
		p.error(expectedError(p.tok.Pos, tok.String(), p.tokenDesc()))
		return false
	}
	p.next()
	return true
}

// expectSemi requires the ';' that ends a simple statement.
func (p *Parser) expectSemi() bool {
	if p.tok.Type == token.SEMICOLON {
		p.next()
		return true
	}
	// Report at the last token of the unterminated statement so the
	// line number points at the offending line.
	p.error(&ParseError{
		Pos:     p.prevTok.Pos,
		Message: "missing ; before " + p.tokenDesc(),
		Want:    ";",
		Got:     p.tokenDesc(),
	})
	return false
}

func (p *Parser) match(types ...token.Token) bool {
	for _, t := range types {
		if p.tok.Type == t {
			return true
		}
	}
	return false
}

// tokenDesc returns a description of the current token for error messages.
func (p *Parser) tokenDesc() string {
	switch p.tok.Type {
	case token.NAME, token.NUMBER:
		return p.tok.Value
	case token.STRING:
		return ast.QuoteString(p.tok.Value)
	case token.ILLEGAL:
		// ILLEGAL carries the lexer's message
		return p.tok.Value
	default:
		return p.tok.Type.String()
	}
}

func (p *Parser) error(err *ParseError) {
	// Report only the first error on a given line; later ones are
	// usually follow-on noise from the same mistake.
	if n := len(p.errors); n > 0 && p.errors[n-1].Pos.Line == err.Pos.Line {
		return
	}
	p.errors = append(p.errors, err)
	if len(p.errors) >= maxErrors {
		panic(bailout{})
	}
}

func (p *Parser) errorf(format string, args ...any) {
	p.error(errorf(p.tok.Pos, format, args...))
}

// sync skips tokens until just after a ';' or before a '}' so parsing
// can resume after an error.
func (p *Parser) sync() {
	for !p.match(token.EOF, token.RBRACE) {
		if p.tok.Type == token.SEMICOLON {
			p.next()
			return
		}
		p.next()
	}
}

// -----------------------------------------------------------------------------
// Program parsing
// -----------------------------------------------------------------------------

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{StartPos: p.tok.Pos}

	for p.tok.Type != token.EOF {
		switch p.tok.Type {
		case token.DIRECTIVE:
			prog.Directives = append(prog.Directives, &ast.Directive{
				Text:     p.tok.Value,
				StartPos: p.tok.Pos,
				EndPos:   p.tok.Pos,
			})
			p.next()

		case token.INT:
			if fn := p.parseFunction(); fn != nil {
				prog.Funcs = append(prog.Funcs, fn)
			}

		case token.RBRACE:
			p.errorf("unbalanced braces: unexpected }")
			p.next()

		default:
			p.error(expectedError(p.tok.Pos, "function definition", p.tokenDesc()))
			p.next()
			p.sync()
		}
	}

	prog.EndPos = p.tok.Pos
	return prog
}

// parseFunction parses: int NAME ( [void] ) block
func (p *Parser) parseFunction() *ast.FuncDecl {
	startPos := p.tok.Pos
	p.next() // consume 'int'

	if p.tok.Type != token.NAME {
		p.error(expectedError(p.tok.Pos, "function name", p.tokenDesc()))
		p.sync()
		return nil
	}
	fn := &ast.FuncDecl{
		Name:     p.tok.Value,
		NamePos:  p.tok.Pos,
		StartPos: startPos,
	}
	p.next()

	if !p.expect(token.LPAREN) {
		p.sync()
		return nil
	}
	if p.tok.Type == token.VOID {
		fn.VoidArgs = true
		p.next()
	}
	if !p.expect(token.RPAREN) {
		p.sync()
		return nil
	}

	fn.Body = p.parseBlock()
	fn.EndPos = p.prevTok.Pos
	if fn.Body == nil {
		return nil
	}
	return fn
}

func (p *Parser) parseBlock() *ast.BlockStmt {
	startPos := p.tok.Pos
	if !p.expect(token.LBRACE) {
		return nil
	}

	var stmts []ast.Stmt
	for p.tok.Type != token.RBRACE && p.tok.Type != token.EOF {
		before := p.tok.Pos.Offset
		if stmt := p.parseStmt(); stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.tok.Pos.Offset == before && p.tok.Type != token.EOF && p.tok.Type != token.RBRACE {
			p.next() // guarantee progress after an error
		}
	}

	endPos := p.tok.Pos
	if p.tok.Type == token.EOF {
		p.error(&ParseError{
			Pos:     startPos,
			Message: "unbalanced braces: { is never closed",
			Want:    "}",
			Got:     "end of file",
		})
		return &ast.BlockStmt{BaseStmt: ast.MakeBaseStmt(startPos, endPos), Stmts: stmts}
	}
	p.next() // consume '}'

	return &ast.BlockStmt{
		BaseStmt: ast.MakeBaseStmt(startPos, endPos),
		Stmts:    stmts,
	}
}

// -----------------------------------------------------------------------------
// Statement parsing
// -----------------------------------------------------------------------------

func (p *Parser) parseStmt() ast.Stmt {
	startPos := p.tok.Pos

	switch p.tok.Type {
	case token.INT:
		decl := p.parseDecl()
		if !p.expectSemi() {
			p.sync()
		}
		decl.EndPos = p.prevTok.Pos
		return decl

	case token.IF:
		return p.parseIfStmt()

	case token.WHILE:
		return p.parseWhileStmt()

	case token.DO:
		return p.parseDoWhileStmt()

	case token.FOR:
		return p.parseForStmt()

	case token.BREAK:
		p.next()
		if !p.expectSemi() {
			p.sync()
		}
		return &ast.BreakStmt{BaseStmt: ast.MakeBaseStmt(startPos, p.prevTok.Pos)}

	case token.CONTINUE:
		p.next()
		if !p.expectSemi() {
			p.sync()
		}
		return &ast.ContinueStmt{BaseStmt: ast.MakeBaseStmt(startPos, p.prevTok.Pos)}

	case token.RETURN:
		p.next()
		var value ast.Expr
		if p.tok.Type != token.SEMICOLON {
			value = p.parseExpr()
		}
		if !p.expectSemi() {
			p.sync()
		}
		return &ast.ReturnStmt{
			BaseStmt: ast.MakeBaseStmt(startPos, p.prevTok.Pos),
			Value:    value,
		}

	case token.LBRACE:
		if block := p.parseBlock(); block != nil {
			return block
		}
		return nil

	case token.SEMICOLON:
		p.next()
		return &ast.EmptyStmt{BaseStmt: ast.MakeBaseStmt(startPos, startPos)}

	case token.ELSE:
		p.errorf("else without a previous if")
		p.next()
		return nil

	default:
		expr := p.parseExpr()
		if expr == nil {
			p.sync()
			return nil
		}
		if !p.expectSemi() {
			p.sync()
		}
		return &ast.ExprStmt{
			BaseStmt: ast.MakeBaseStmt(startPos, p.prevTok.Pos),
			Expr:     expr,
		}
	}
}

// parseDecl parses "int a, b = expr" without the trailing ';'.
func (p *Parser) parseDecl() *ast.DeclStmt {
	decl := &ast.DeclStmt{BaseStmt: ast.MakeBaseStmt(p.tok.Pos, p.tok.Pos)}
	p.next() // consume 'int'

	for {
		if p.tok.Type != token.NAME {
			p.error(expectedError(p.tok.Pos, "variable name", p.tokenDesc()))
			return decl
		}
		spec := &ast.VarSpec{Name: p.ident()}
		if p.tok.Type == token.ASSIGN {
			p.next()
			spec.Init = p.parseAssign()
		}
		decl.Vars = append(decl.Vars, spec)

		if p.tok.Type != token.COMMA {
			break
		}
		p.next()
	}
	decl.EndPos = p.prevTok.Pos
	return decl
}

func (p *Parser) parseIfStmt() *ast.IfStmt {
	startPos := p.tok.Pos
	p.next() // consume 'if'

	cond := p.parseParenExpr()
	then := p.parseBody()

	var elseStmt ast.Stmt
	if p.tok.Type == token.ELSE {
		p.next()
		elseStmt = p.parseBody()
	}

	return &ast.IfStmt{
		BaseStmt: ast.MakeBaseStmt(startPos, p.prevTok.Pos),
		Cond:     cond,
		Then:     then,
		Else:     elseStmt,
	}
}

func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	startPos := p.tok.Pos
	p.next() // consume 'while'

	cond := p.parseParenExpr()
	body := p.parseBody()

	return &ast.WhileStmt{
		BaseStmt: ast.MakeBaseStmt(startPos, p.prevTok.Pos),
		Cond:     cond,
		Body:     body,
	}
}

func (p *Parser) parseDoWhileStmt() *ast.DoWhileStmt {
	startPos := p.tok.Pos
	p.next() // consume 'do'

	body := p.parseBody()

	if !p.expect(token.WHILE) {
		p.sync()
		return &ast.DoWhileStmt{BaseStmt: ast.MakeBaseStmt(startPos, p.prevTok.Pos), Body: body}
	}
	cond := p.parseParenExpr()
	if !p.expectSemi() {
		p.sync()
	}

	return &ast.DoWhileStmt{
		BaseStmt: ast.MakeBaseStmt(startPos, p.prevTok.Pos),
		Body:     body,
		Cond:     cond,
	}
}

// parseForStmt parses for (init; cond; post) body. Init may be an int
// declaration.
func (p *Parser) parseForStmt() *ast.ForStmt {
	startPos := p.tok.Pos
	p.next() // consume 'for'
	p.expect(token.LPAREN)

	var init ast.Stmt
	switch p.tok.Type {
	case token.SEMICOLON:
	case token.INT:
		init = p.parseDecl()
	default:
		pos := p.tok.Pos
		if expr := p.parseExpr(); expr != nil {
			init = &ast.ExprStmt{BaseStmt: ast.MakeBaseStmt(pos, expr.End()), Expr: expr}
		}
	}
	p.expectSemi()

	var cond ast.Expr
	if p.tok.Type != token.SEMICOLON {
		cond = p.parseExpr()
	}
	p.expectSemi()

	var post ast.Expr
	if p.tok.Type != token.RPAREN {
		post = p.parseExpr()
	}
	p.expect(token.RPAREN)

	body := p.parseBody()

	return &ast.ForStmt{
		BaseStmt: ast.MakeBaseStmt(startPos, p.prevTok.Pos),
		Init:     init,
		Cond:     cond,
		Post:     post,
		Body:     body,
	}
}

// parseBody parses the statement controlled by if/else/while/for/do.
func (p *Parser) parseBody() ast.Stmt {
	if p.tok.Type == token.INT {
		p.errorf("declaration is not allowed as a loop or branch body")
	}
	stmt := p.parseStmt()
	if stmt == nil {
		return &ast.EmptyStmt{BaseStmt: ast.MakeBaseStmt(p.tok.Pos, p.tok.Pos)}
	}
	return stmt
}

func (p *Parser) parseParenExpr() ast.Expr {
	p.expect(token.LPAREN)
	expr := p.parseExpr()
	p.expect(token.RPAREN)
	return expr
}

// -----------------------------------------------------------------------------
// Expression parsing
// -----------------------------------------------------------------------------

// Precedence, lowest first:
//
//	=  +=  -=  *=  /=  %=   (right)
//	||
//	&&
//	==  !=
//	<  <=  >  >=
//	+  -
//	*  /  %
//	!  -  +  ++  -- (prefix)
//	++  --  (postfix)
func (p *Parser) parseExpr() ast.Expr {
	return p.parseAssign()
}

func (p *Parser) parseAssign() ast.Expr {
	expr := p.parseOr()
	if expr == nil {
		return nil
	}

	if p.tok.Type.IsAssign() {
		opPos := p.tok.Pos
		op := p.tok.Type
		p.next()
		right := p.parseAssign()
		if right == nil {
			return expr
		}

		left, ok := expr.(*ast.Ident)
		if !ok {
			p.error(errorf(opPos, "left side of %s must be a variable", op))
			return expr
		}
		return &ast.AssignExpr{
			BaseExpr: ast.MakeBaseExpr(left.Pos(), right.End()),
			Left:     left,
			Op:       op,
			Right:    right,
		}
	}
	return expr
}

func (p *Parser) parseOr() ast.Expr {
	return p.parseBinaryLeft(p.parseAnd, token.OR)
}

func (p *Parser) parseAnd() ast.Expr {
	return p.parseBinaryLeft(p.parseEquality, token.AND)
}

func (p *Parser) parseEquality() ast.Expr {
	return p.parseBinaryLeft(p.parseRelational, token.EQUALS, token.NOT_EQUALS)
}

func (p *Parser) parseRelational() ast.Expr {
	return p.parseBinaryLeft(p.parseAdd, token.LESS, token.LTE, token.GREATER, token.GTE)
}

func (p *Parser) parseAdd() ast.Expr {
	return p.parseBinaryLeft(p.parseMul, token.ADD, token.SUB)
}

func (p *Parser) parseMul() ast.Expr {
	return p.parseBinaryLeft(p.parseUnary, token.MUL, token.DIV, token.MOD)
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.tok.Type {
	case token.NOT, token.SUB, token.ADD:
		startPos := p.tok.Pos
		op := p.tok.Type
		p.next()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &ast.UnaryExpr{
			BaseExpr: ast.MakeBaseExpr(startPos, operand.End()),
			Op:       op,
			Expr:     operand,
		}

	case token.INCR, token.DECR:
		startPos := p.tok.Pos
		op := p.tok.Type
		p.next()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		if !ast.IsLValue(operand) {
			p.error(errorf(startPos, "operand of %s must be a variable", op))
		}
		return &ast.UnaryExpr{
			BaseExpr: ast.MakeBaseExpr(startPos, operand.End()),
			Op:       op,
			Expr:     operand,
		}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}
	for p.match(token.INCR, token.DECR) {
		if !ast.IsLValue(expr) {
			p.errorf("operand of %s must be a variable", p.tok.Type)
		}
		expr = &ast.UnaryExpr{
			BaseExpr: ast.MakeBaseExpr(expr.Pos(), p.tok.Pos),
			Op:       p.tok.Type,
			Expr:     expr,
			Post:     true,
		}
		p.next()
	}
	return expr
}

func (p *Parser) parsePrimary() ast.Expr {
	startPos := p.tok.Pos

	switch p.tok.Type {
	case token.NUMBER:
		raw := p.tok.Value
		p.next()
		n, err := strconv.ParseInt(raw, 0, 64)
		if err != nil {
			p.error(errorf(startPos, "invalid integer constant %s", raw))
		}
		return &ast.IntLit{
			BaseExpr: ast.MakeBaseExpr(startPos, p.prevTok.Pos),
			Value:    n,
			Raw:      raw,
		}

	case token.STRING:
		// Adjacent literals concatenate, as in C.
		s := p.tok.Value
		p.next()
		for p.tok.Type == token.STRING {
			s += p.tok.Value
			p.next()
		}
		return &ast.StrLit{
			BaseExpr: ast.MakeBaseExpr(startPos, p.prevTok.Pos),
			Value:    s,
		}

	case token.CHAR:
		c := p.tok.Value[0]
		p.next()
		return &ast.CharLit{
			BaseExpr: ast.MakeBaseExpr(startPos, p.prevTok.Pos),
			Value:    c,
		}

	case token.NAME:
		if p.peekIsCall() {
			p.errorf("call to unsupported function %s", p.tok.Value)
		}
		return p.ident()

	case token.F_PRINTF, token.F_PUTS, token.F_PUTCHAR:
		return p.parseCall()

	case token.LPAREN:
		p.next()
		expr := p.parseExpr()
		p.expect(token.RPAREN)
		return expr

	case token.ILLEGAL:
		p.error(errorf(startPos, "%s", p.tok.Value))
		p.next()
		return nil

	default:
		p.error(expectedError(startPos, "expression", p.tokenDesc()))
		return nil
	}
}

// peekIsCall reports whether the current NAME is followed by '('.
// The lexer is cloned so the lookahead does not consume input.
func (p *Parser) peekIsCall() bool {
	clone := *p.lexer
	return clone.Scan().Type == token.LPAREN
}

func (p *Parser) parseCall() ast.Expr {
	startPos := p.tok.Pos
	fn := p.tok.Type
	p.next()

	if !p.expect(token.LPAREN) {
		return nil
	}
	var args []ast.Expr
	for p.tok.Type != token.RPAREN && p.tok.Type != token.EOF {
		if len(args) > 0 && !p.expect(token.COMMA) {
			break
		}
		arg := p.parseAssign()
		if arg == nil {
			break
		}
		args = append(args, arg)
	}
	endPos := p.tok.Pos
	p.expect(token.RPAREN)

	return &ast.CallExpr{
		BaseExpr: ast.MakeBaseExpr(startPos, endPos),
		Func:     fn,
		Args:     args,
	}
}

func (p *Parser) ident() *ast.Ident {
	id := &ast.Ident{
		BaseExpr: ast.MakeBaseExpr(p.tok.Pos, p.tok.Pos),
		Name:     p.tok.Value,
	}
	id.EndPos.Column += len(id.Name)
	id.EndPos.Offset += len(id.Name)
	p.next()
	return id
}

// -----------------------------------------------------------------------------
// Helper functions
// -----------------------------------------------------------------------------

// parseBinaryLeft parses left-associative binary operators.
func (p *Parser) parseBinaryLeft(higher func() ast.Expr, ops ...token.Token) ast.Expr {
	expr := higher()
	if expr == nil {
		return nil
	}

	for p.match(ops...) {
		op := p.tok.Type
		p.next()
		right := higher()
		if right == nil {
			break
		}
		expr = &ast.BinaryExpr{
			BaseExpr: ast.MakeBaseExpr(expr.Pos(), right.End()),
			Left:     expr,
			Op:       op,
			Right:    right,
		}
	}
	return expr
}
