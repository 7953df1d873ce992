package ast

// Walk traverses an AST in depth-first order.
// For each node, it calls fn(node). If fn returns false,
// the children of that node are not visited.
//
// Example: count all identifiers
//
//	count := 0
//	ast.Walk(prog, func(n ast.Node) bool {
//	    if _, ok := n.(*ast.Ident); ok {
//	        count++
//	    }
//	    return true
//	})
func Walk(node Node, fn func(Node) bool) {
	if isNil(node) || !fn(node) {
		return
	}

	switch n := node.(type) {
	case *Program:
		for _, d := range n.Directives {
			Walk(d, fn)
		}
		for _, f := range n.Funcs {
			Walk(f, fn)
		}

	case *FuncDecl:
		Walk(n.Body, fn)

	case *Directive, *IntLit, *StrLit, *CharLit, *Ident:
		// no children

	case *BinaryExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)

	case *UnaryExpr:
		Walk(n.Expr, fn)

	case *AssignExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)

	case *CallExpr:
		for _, arg := range n.Args {
			Walk(arg, fn)
		}

	case *DeclStmt:
		for _, v := range n.Vars {
			Walk(v.Name, fn)
			Walk(v.Init, fn)
		}

	case *ExprStmt:
		Walk(n.Expr, fn)

	case *EmptyStmt, *BreakStmt, *ContinueStmt:
		// no children

	case *BlockStmt:
		for _, s := range n.Stmts {
			Walk(s, fn)
		}

	case *IfStmt:
		Walk(n.Cond, fn)
		Walk(n.Then, fn)
		Walk(n.Else, fn)

	case *WhileStmt:
		Walk(n.Cond, fn)
		Walk(n.Body, fn)

	case *DoWhileStmt:
		Walk(n.Body, fn)
		Walk(n.Cond, fn)

	case *ForStmt:
		Walk(n.Init, fn)
		Walk(n.Cond, fn)
		Walk(n.Post, fn)
		Walk(n.Body, fn)

	case *ReturnStmt:
		Walk(n.Value, fn)
	}
}

// isNil reports whether a Node interface holds nothing or a typed nil
// pointer, which happens for optional fields such as IfStmt.Else.
func isNil(node Node) bool {
	switch n := node.(type) {
	case nil:
		return true
	case *Ident:
		return n == nil
	case *BlockStmt:
		return n == nil
	case *FuncDecl:
		return n == nil
	}
	return false
}
