package ir

// Builders used by the front end and by the rewrite passes. Every call
// allocates a fresh node.

func Block(statements ...Statement) *BlockStatement {
	return &BlockStatement{Statements: statements}
}

func Group(name string, statements ...Statement) *GroupStatement {
	return &GroupStatement{Name: name, Body: Block(statements...)}
}

func Declare(kind DeclarationKind, name string, expression Expression) *VariableDeclaration {
	return &VariableDeclaration{Kind: kind, Name: name, Expression: expression}
}

func Assign(name string, expression Expression) *AssignStatement {
	return &AssignStatement{Name: name, Expression: expression}
}

func Log(expression Expression) *LogStatement {
	return &LogStatement{Level: LevelLog, Expression: expression}
}

func Sleep(seconds float64) *SleepStatement {
	return &SleepStatement{Seconds: seconds}
}

func Expr(expression Expression) *ExpressionStatement {
	return &ExpressionStatement{Expression: expression}
}

func NewFragment(statements ...Statement) *Fragment {
	return &Fragment{Statements: statements}
}

func Ident(name string) *Identifier {
	return &Identifier{Name: name}
}

// String returns a template string without interpolations.
func String(value string) *StringLiteral {
	return &StringLiteral{Strings: []string{value}}
}

// Template returns a template string interleaving strings and expressions.
// It panics if len(strings) != len(expressions)+1.
func Template(strings []string, expressions ...Expression) *StringLiteral {
	if len(strings) != len(expressions)+1 {
		panic("ir.Template: len(strings) must be len(expressions)+1")
	}
	return &StringLiteral{Strings: strings, Expressions: expressions}
}

func Number(value float64) *NumberLiteral {
	return &NumberLiteral{Value: value}
}

func Bool(value bool) *BooleanLiteral {
	return &BooleanLiteral{Value: value}
}

func Null() *NullLiteral {
	return &NullLiteral{}
}

func Array(elements ...Expression) *ArrayLiteral {
	return &ArrayLiteral{Elements: elements}
}

func Object(fields ...Field) *ObjectLiteral {
	return &ObjectLiteral{Fields: fields}
}

// Member returns object.property.
func Member(object, property Expression) *MemberExpression {
	return &MemberExpression{Object: object, Property: property}
}

// Index returns object[property].
func Index(object, property Expression) *MemberExpression {
	return &MemberExpression{Object: object, Property: property, Computed: true}
}

func Regex(pattern string, target Expression) *RegexMatch {
	return &RegexMatch{Pattern: pattern, Target: target}
}

func SafeHTTP(method HTTPMethod, url, headers Expression) *SafeHTTPRequest {
	return &SafeHTTPRequest{Method: method, URL: url, Headers: headers}
}

func UnsafeHTTP(method HTTPMethod, url, body, headers Expression) *UnsafeHTTPRequest {
	return &UnsafeHTTPRequest{Method: method, URL: url, Body: body, Headers: headers}
}

func JSONBody(content Expression) *JSONEncodedBody {
	return &JSONEncodedBody{Content: content}
}

func URLEncoded(fields ...Field) *URLEncodedBody {
	return &URLEncodedBody{Fields: fields}
}
