package ir

// Walk traverses the statement tree rooted at s in depth-first pre-order,
// calling f for each statement. If f returns false, Walk does not descend
// into that statement's children.
func Walk(s Statement, f func(Statement) bool) {
	if s == nil || !f(s) {
		return
	}
	for _, child := range Children(s) {
		Walk(child, f)
	}
}

// WalkExpr traverses the expression tree rooted at e in depth-first
// pre-order, calling f for each expression. Nil optional operands such as
// absent request headers are skipped.
func WalkExpr(e Expression, f func(Expression) bool) {
	if e == nil || !f(e) {
		return
	}
	for _, child := range Operands(e) {
		WalkExpr(child, f)
	}
}

// Operands returns the direct sub-expressions of e in evaluation order,
// omitting nil optional operands.
func Operands(e Expression) []Expression {
	var out []Expression
	add := func(es ...Expression) {
		for _, e := range es {
			if e != nil {
				out = append(out, e)
			}
		}
	}

	switch e := e.(type) {
	case *StringLiteral:
		add(e.Expressions...)
	case *ArrayLiteral:
		add(e.Elements...)
	case *ObjectLiteral:
		for _, field := range e.Fields {
			add(field.Value)
		}
	case *URLEncodedBody:
		for _, field := range e.Fields {
			add(field.Value)
		}
	case *MemberExpression:
		add(e.Object, e.Property)
	case *RegexMatch:
		add(e.Target)
	case *SafeHTTPRequest:
		add(e.URL, e.Headers)
	case *UnsafeHTTPRequest:
		add(e.URL, e.Body, e.Headers)
	case *JSONEncodedBody:
		add(e.Content)
	}
	return out
}

// StatementExpression returns the expression carried by a leaf statement,
// or nil for statements that carry none.
func StatementExpression(s Statement) Expression {
	switch s := s.(type) {
	case *VariableDeclaration:
		return s.Expression
	case *AssignStatement:
		return s.Expression
	case *LogStatement:
		return s.Expression
	case *ExpressionStatement:
		return s.Expression
	}
	return nil
}
