// Package ir defines the intermediate representation produced by the front end
// from a load-test description and consumed by the analysis and rewrite passes.
//
// Every node is a pointer to a struct. Statement pointers double as node
// identities: a rewrite targets the exact statement value it was built from,
// never an equal-looking copy.
package ir

// A Node is any statement or expression of the IR tree.
type Node interface {
	node()
}

// A Statement is an IR statement.
type Statement interface {
	Node
	stmt()
}

func (*BlockStatement) stmt()      {}
func (*GroupStatement) stmt()      {}
func (*VariableDeclaration) stmt() {}
func (*AssignStatement) stmt()     {}
func (*LogStatement) stmt()        {}
func (*SleepStatement) stmt()      {}
func (*ExpressionStatement) stmt() {}
func (*Fragment) stmt()            {}

// An Expression is an IR expression.
type Expression interface {
	Node
	expr()
}

func (*Identifier) expr()        {}
func (*StringLiteral) expr()     {}
func (*NumberLiteral) expr()     {}
func (*BooleanLiteral) expr()    {}
func (*NullLiteral) expr()       {}
func (*ArrayLiteral) expr()      {}
func (*ObjectLiteral) expr()     {}
func (*MemberExpression) expr()  {}
func (*RegexMatch) expr()        {}
func (*SafeHTTPRequest) expr()   {}
func (*UnsafeHTTPRequest) expr() {}
func (*JSONEncodedBody) expr()   {}
func (*URLEncodedBody) expr()    {}

func (*BlockStatement) node()      {}
func (*GroupStatement) node()      {}
func (*VariableDeclaration) node() {}
func (*AssignStatement) node()     {}
func (*LogStatement) node()        {}
func (*SleepStatement) node()      {}
func (*ExpressionStatement) node() {}
func (*Fragment) node()            {}
func (*Identifier) node()          {}
func (*StringLiteral) node()       {}
func (*NumberLiteral) node()       {}
func (*BooleanLiteral) node()      {}
func (*NullLiteral) node()         {}
func (*ArrayLiteral) node()        {}
func (*ObjectLiteral) node()       {}
func (*MemberExpression) node()    {}
func (*RegexMatch) node()          {}
func (*SafeHTTPRequest) node()     {}
func (*UnsafeHTTPRequest) node()   {}
func (*JSONEncodedBody) node()     {}
func (*URLEncodedBody) node()      {}

// DeclarationKind is the binding kind of a variable declaration.
type DeclarationKind string

const (
	Const DeclarationKind = "const"
	Let   DeclarationKind = "let"
)

// A BlockStatement is a sequence of statements. The root of every scenario
// body is a block.
type BlockStatement struct {
	Statements []Statement
}

// A GroupStatement is a named group of steps. Its body introduces a new
// lexical scope in the emitted script.
type GroupStatement struct {
	Name string
	Body *BlockStatement
}

// A VariableDeclaration binds Name to the value of Expression.
type VariableDeclaration struct {
	Kind       DeclarationKind
	Name       string
	Expression Expression
}

// An AssignStatement assigns the value of Expression to an existing binding.
type AssignStatement struct {
	Name       string
	Expression Expression
}

type LogLevel string

const LevelLog LogLevel = "log"

type LogStatement struct {
	Level      LogLevel
	Expression Expression
}

type SleepStatement struct {
	Seconds float64
}

// An ExpressionStatement evaluates Expression for its side effects, e.g. an
// HTTP request whose response is discarded.
type ExpressionStatement struct {
	Expression Expression
}

// A Fragment splices several statements into its parent's statement list.
// It has no scoping semantics and exists only as a rewrite artifact.
type Fragment struct {
	Statements []Statement
}

// An Identifier references a variable by name.
type Identifier struct {
	Name string
}

// A StringLiteral is a template string. Strings always has one more element
// than Expressions; the value is Strings[0] + Expressions[0] + Strings[1] ...
type StringLiteral struct {
	Strings     []string
	Expressions []Expression
}

type NumberLiteral struct {
	Value float64
}

type BooleanLiteral struct {
	Value bool
}

type NullLiteral struct{}

type ArrayLiteral struct {
	Elements []Expression
}

// A Field is a named member of an object literal or form body. Order is
// preserved so that emitted code is deterministic.
type Field struct {
	Name  string
	Value Expression
}

type ObjectLiteral struct {
	Fields []Field
}

// A MemberExpression reads Property from Object: object.property when
// Computed is false, object[property] otherwise.
type MemberExpression struct {
	Object   Expression
	Property Expression
	Computed bool
	Optional bool
}

// A RegexMatch extracts the first capture of Pattern from Target.
type RegexMatch struct {
	Pattern string
	Target  Expression
}

// HTTPMethod is an HTTP request method.
type HTTPMethod string

const (
	MethodGet     HTTPMethod = "GET"
	MethodHead    HTTPMethod = "HEAD"
	MethodOptions HTTPMethod = "OPTIONS"
	MethodPost    HTTPMethod = "POST"
	MethodPut     HTTPMethod = "PUT"
	MethodPatch   HTTPMethod = "PATCH"
	MethodDelete  HTTPMethod = "DELETE"
)

// Safe reports whether requests with method m carry no body.
func (m HTTPMethod) Safe() bool {
	switch m {
	case MethodGet, MethodHead, MethodOptions:
		return true
	}
	return false
}

// A SafeHTTPRequest is a GET, HEAD or OPTIONS request. Headers may be nil.
type SafeHTTPRequest struct {
	Method  HTTPMethod
	URL     Expression
	Headers Expression
}

// An UnsafeHTTPRequest is a POST, PUT, PATCH or DELETE request with a body.
// Headers may be nil.
type UnsafeHTTPRequest struct {
	Method  HTTPMethod
	URL     Expression
	Body    Expression
	Headers Expression
}

type JSONEncodedBody struct {
	Content Expression
}

type URLEncodedBody struct {
	Fields []Field
}

// Children returns the direct child statements of s, or nil when s is a
// leaf. A group's children are the statements of its body.
func Children(s Statement) []Statement {
	switch s := s.(type) {
	case *BlockStatement:
		return s.Statements
	case *GroupStatement:
		if s.Body == nil {
			return nil
		}
		return s.Body.Statements
	case *Fragment:
		return s.Statements
	}
	return nil
}
