package ir

import (
	"encoding/json"
	"fmt"
	"strconv"

	"loadscript/internal/core/errors"
)

// Wire format: every node is a JSON object with a "kind" discriminator.
// Group bodies are flattened into the group's "statements".

type wireTest struct {
	Version         string          `json:"version"`
	DefaultScenario *wireScenario   `json:"defaultScenario,omitempty"`
	Scenarios       []*wireScenario `json:"scenarios"`
}

type wireScenario struct {
	Name       string           `json:"name,omitempty"`
	Statements []*wireStatement `json:"statements"`
}

type wireStatement struct {
	Kind       string           `json:"kind"`
	Name       string           `json:"name,omitempty"`
	Binding    string           `json:"binding,omitempty"`
	Level      string           `json:"level,omitempty"`
	Seconds    *float64         `json:"seconds,omitempty"`
	Statements []*wireStatement `json:"statements,omitempty"`
	Expression *wireExpression  `json:"expression,omitempty"`
}

type wireField struct {
	Name  string          `json:"name"`
	Value *wireExpression `json:"value"`
}

type wireExpression struct {
	Kind        string            `json:"kind"`
	Name        string            `json:"name,omitempty"`
	Value       json.RawMessage   `json:"value,omitempty"`
	Strings     []string          `json:"strings,omitempty"`
	Expressions []*wireExpression `json:"expressions,omitempty"`
	Elements    []*wireExpression `json:"elements,omitempty"`
	Fields      []wireField       `json:"fields,omitempty"`
	Object      *wireExpression   `json:"object,omitempty"`
	Property    *wireExpression   `json:"property,omitempty"`
	Computed    bool              `json:"computed,omitempty"`
	Optional    bool              `json:"optional,omitempty"`
	Pattern     string            `json:"pattern,omitempty"`
	Target      *wireExpression   `json:"target,omitempty"`
	Method      string            `json:"method,omitempty"`
	URL         *wireExpression   `json:"url,omitempty"`
	Body        *wireExpression   `json:"body,omitempty"`
	Headers     *wireExpression   `json:"headers,omitempty"`
	Content     *wireExpression   `json:"content,omitempty"`
}

// DecodeTest parses a JSON test document.
func DecodeTest(data []byte) (*Test, error) {
	var w wireTest
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "malformed test document")
	}
	if err := CheckVersion(w.Version); err != nil {
		return nil, err
	}

	version := w.Version
	if version == "" {
		version = CurrentVersion
	}
	test := &Test{Version: version}

	if w.DefaultScenario != nil {
		s, err := decodeScenario(w.DefaultScenario, "defaultScenario")
		if err != nil {
			return nil, err
		}
		test.DefaultScenario = s
	}
	for i, ws := range w.Scenarios {
		where := fmt.Sprintf("scenarios[%d]", i)
		if ws == nil {
			return nil, invalid(where, "scenario must not be null")
		}
		if ws.Name == "" {
			return nil, invalid(where, "named scenario must have a name")
		}
		s, err := decodeScenario(ws, where)
		if err != nil {
			return nil, err
		}
		test.Scenarios = append(test.Scenarios, s)
	}
	return test, nil
}

// EncodeTest renders t as an indented JSON test document.
func EncodeTest(t *Test) ([]byte, error) {
	version := t.Version
	if version == "" {
		version = CurrentVersion
	}
	w := wireTest{Version: version, Scenarios: []*wireScenario{}}
	if t.DefaultScenario != nil {
		w.DefaultScenario = encodeScenario(t.DefaultScenario)
	}
	for _, s := range t.Scenarios {
		w.Scenarios = append(w.Scenarios, encodeScenario(s))
	}
	return json.MarshalIndent(w, "", "  ")
}

// MarshalStatement renders a single statement subtree using the wire format.
func MarshalStatement(s Statement) ([]byte, error) {
	return json.Marshal(encodeStatement(s))
}

// UnmarshalStatement parses a single statement subtree.
func UnmarshalStatement(data []byte) (Statement, error) {
	var w wireStatement
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "malformed statement")
	}
	return decodeStatement(&w, "$")
}

func invalid(where, msg string) error {
	return errors.AddContext(errors.New(errors.CodeValidationError, msg), errors.CtxPath, where)
}

func decodeScenario(w *wireScenario, where string) (*Scenario, error) {
	statements, err := decodeStatements(w.Statements, where)
	if err != nil {
		return nil, err
	}
	return &Scenario{Name: w.Name, Body: Block(statements...)}, nil
}

func decodeStatements(ws []*wireStatement, where string) ([]Statement, error) {
	if len(ws) == 0 {
		return nil, nil
	}
	out := make([]Statement, 0, len(ws))
	for i, w := range ws {
		s, err := decodeStatement(w, fmt.Sprintf("%s.statements[%d]", where, i))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func decodeStatement(w *wireStatement, where string) (Statement, error) {
	if w == nil {
		return nil, invalid(where, "statement must not be null")
	}

	switch w.Kind {
	case "block", "fragment", "group":
		children, err := decodeStatements(w.Statements, where)
		if err != nil {
			return nil, err
		}
		switch w.Kind {
		case "block":
			return Block(children...), nil
		case "fragment":
			return NewFragment(children...), nil
		}
		if w.Name == "" {
			return nil, invalid(where, "group must have a name")
		}
		return Group(w.Name, children...), nil

	case "declare":
		kind := DeclarationKind(w.Binding)
		if kind != Const && kind != Let {
			return nil, invalid(where, fmt.Sprintf("unknown binding %q, want const or let", w.Binding))
		}
		if w.Name == "" {
			return nil, invalid(where, "declaration must have a name")
		}
		e, err := decodeExpression(w.Expression, where+".expression")
		if err != nil {
			return nil, err
		}
		return Declare(kind, w.Name, e), nil

	case "assign":
		if w.Name == "" {
			return nil, invalid(where, "assignment must have a name")
		}
		e, err := decodeExpression(w.Expression, where+".expression")
		if err != nil {
			return nil, err
		}
		return Assign(w.Name, e), nil

	case "log":
		e, err := decodeExpression(w.Expression, where+".expression")
		if err != nil {
			return nil, err
		}
		l := Log(e)
		if w.Level != "" {
			l.Level = LogLevel(w.Level)
		}
		return l, nil

	case "sleep":
		if w.Seconds == nil || *w.Seconds < 0 {
			return nil, invalid(where, "sleep must have non-negative seconds")
		}
		return Sleep(*w.Seconds), nil

	case "expression":
		e, err := decodeExpression(w.Expression, where+".expression")
		if err != nil {
			return nil, err
		}
		return Expr(e), nil
	}
	return nil, invalid(where, fmt.Sprintf("unknown statement kind %q", w.Kind))
}

func decodeExpressions(ws []*wireExpression, where string) ([]Expression, error) {
	if len(ws) == 0 {
		return nil, nil
	}
	out := make([]Expression, 0, len(ws))
	for i, w := range ws {
		e, err := decodeExpression(w, fmt.Sprintf("%s[%d]", where, i))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeFields(ws []wireField, where string) ([]Field, error) {
	if len(ws) == 0 {
		return nil, nil
	}
	out := make([]Field, 0, len(ws))
	for i, w := range ws {
		e, err := decodeExpression(w.Value, fmt.Sprintf("%s.fields[%d]", where, i))
		if err != nil {
			return nil, err
		}
		out = append(out, Field{Name: w.Name, Value: e})
	}
	return out, nil
}

// decodeOptional decodes an optional operand, mapping an absent one to nil.
func decodeOptional(w *wireExpression, where string) (Expression, error) {
	if w == nil {
		return nil, nil
	}
	return decodeExpression(w, where)
}

func decodeExpression(w *wireExpression, where string) (Expression, error) {
	if w == nil {
		return nil, invalid(where, "expression must not be null")
	}

	switch w.Kind {
	case "identifier":
		if w.Name == "" {
			return nil, invalid(where, "identifier must have a name")
		}
		return Ident(w.Name), nil

	case "string":
		strs := w.Strings
		if strs == nil {
			var value string
			if len(w.Value) > 0 {
				if err := json.Unmarshal(w.Value, &value); err != nil {
					return nil, invalid(where, "string value must be a JSON string")
				}
			}
			strs = []string{value}
		}
		exprs, err := decodeExpressions(w.Expressions, where+".expressions")
		if err != nil {
			return nil, err
		}
		if len(strs) != len(exprs)+1 {
			return nil, invalid(where, fmt.Sprintf("template has %d strings and %d expressions", len(strs), len(exprs)))
		}
		return &StringLiteral{Strings: strs, Expressions: exprs}, nil

	case "number":
		f, err := strconv.ParseFloat(string(w.Value), 64)
		if err != nil {
			return nil, invalid(where, "number value must be numeric")
		}
		return Number(f), nil

	case "boolean":
		var b bool
		if err := json.Unmarshal(w.Value, &b); err != nil {
			return nil, invalid(where, "boolean value must be true or false")
		}
		return Bool(b), nil

	case "null":
		return Null(), nil

	case "array":
		elements, err := decodeExpressions(w.Elements, where+".elements")
		if err != nil {
			return nil, err
		}
		return Array(elements...), nil

	case "object", "urlencoded-body":
		fields, err := decodeFields(w.Fields, where)
		if err != nil {
			return nil, err
		}
		if w.Kind == "object" {
			return Object(fields...), nil
		}
		return URLEncoded(fields...), nil

	case "member":
		object, err := decodeExpression(w.Object, where+".object")
		if err != nil {
			return nil, err
		}
		property, err := decodeExpression(w.Property, where+".property")
		if err != nil {
			return nil, err
		}
		return &MemberExpression{Object: object, Property: property, Computed: w.Computed, Optional: w.Optional}, nil

	case "regex":
		target, err := decodeExpression(w.Target, where+".target")
		if err != nil {
			return nil, err
		}
		return Regex(w.Pattern, target), nil

	case "safe-http", "unsafe-http":
		method := HTTPMethod(w.Method)
		if method.Safe() != (w.Kind == "safe-http") {
			return nil, invalid(where, fmt.Sprintf("method %q not allowed for %s", w.Method, w.Kind))
		}
		url, err := decodeExpression(w.URL, where+".url")
		if err != nil {
			return nil, err
		}
		headers, err := decodeOptional(w.Headers, where+".headers")
		if err != nil {
			return nil, err
		}
		if w.Kind == "safe-http" {
			return SafeHTTP(method, url, headers), nil
		}
		body, err := decodeExpression(w.Body, where+".body")
		if err != nil {
			return nil, err
		}
		return UnsafeHTTP(method, url, body, headers), nil

	case "json-body":
		content, err := decodeExpression(w.Content, where+".content")
		if err != nil {
			return nil, err
		}
		return JSONBody(content), nil
	}
	return nil, invalid(where, fmt.Sprintf("unknown expression kind %q", w.Kind))
}

func encodeScenario(s *Scenario) *wireScenario {
	w := &wireScenario{Name: s.Name, Statements: []*wireStatement{}}
	if s.Body != nil {
		w.Statements = encodeStatements(s.Body.Statements)
	}
	return w
}

func encodeStatements(ss []Statement) []*wireStatement {
	out := make([]*wireStatement, 0, len(ss))
	for _, s := range ss {
		out = append(out, encodeStatement(s))
	}
	return out
}

func encodeStatement(s Statement) *wireStatement {
	switch s := s.(type) {
	case *BlockStatement:
		return &wireStatement{Kind: "block", Statements: encodeStatements(s.Statements)}
	case *Fragment:
		return &wireStatement{Kind: "fragment", Statements: encodeStatements(s.Statements)}
	case *GroupStatement:
		return &wireStatement{Kind: "group", Name: s.Name, Statements: encodeStatements(Children(s))}
	case *VariableDeclaration:
		return &wireStatement{Kind: "declare", Binding: string(s.Kind), Name: s.Name, Expression: encodeExpression(s.Expression)}
	case *AssignStatement:
		return &wireStatement{Kind: "assign", Name: s.Name, Expression: encodeExpression(s.Expression)}
	case *LogStatement:
		return &wireStatement{Kind: "log", Level: string(s.Level), Expression: encodeExpression(s.Expression)}
	case *SleepStatement:
		seconds := s.Seconds
		return &wireStatement{Kind: "sleep", Seconds: &seconds}
	case *ExpressionStatement:
		return &wireStatement{Kind: "expression", Expression: encodeExpression(s.Expression)}
	}
	panic(fmt.Sprintf("ir: unexpected statement %T", s))
}

func encodeExpressions(es []Expression) []*wireExpression {
	if len(es) == 0 {
		return nil
	}
	out := make([]*wireExpression, 0, len(es))
	for _, e := range es {
		out = append(out, encodeExpression(e))
	}
	return out
}

func encodeFields(fs []Field) []wireField {
	out := make([]wireField, 0, len(fs))
	for _, f := range fs {
		out = append(out, wireField{Name: f.Name, Value: encodeExpression(f.Value)})
	}
	return out
}

func encodeExpression(e Expression) *wireExpression {
	switch e := e.(type) {
	case nil:
		return nil
	case *Identifier:
		return &wireExpression{Kind: "identifier", Name: e.Name}
	case *StringLiteral:
		return &wireExpression{Kind: "string", Strings: e.Strings, Expressions: encodeExpressions(e.Expressions)}
	case *NumberLiteral:
		return &wireExpression{Kind: "number", Value: json.RawMessage(strconv.FormatFloat(e.Value, 'g', -1, 64))}
	case *BooleanLiteral:
		return &wireExpression{Kind: "boolean", Value: json.RawMessage(strconv.FormatBool(e.Value))}
	case *NullLiteral:
		return &wireExpression{Kind: "null"}
	case *ArrayLiteral:
		return &wireExpression{Kind: "array", Elements: encodeExpressions(e.Elements)}
	case *ObjectLiteral:
		return &wireExpression{Kind: "object", Fields: encodeFields(e.Fields)}
	case *URLEncodedBody:
		return &wireExpression{Kind: "urlencoded-body", Fields: encodeFields(e.Fields)}
	case *MemberExpression:
		return &wireExpression{
			Kind:     "member",
			Object:   encodeExpression(e.Object),
			Property: encodeExpression(e.Property),
			Computed: e.Computed,
			Optional: e.Optional,
		}
	case *RegexMatch:
		return &wireExpression{Kind: "regex", Pattern: e.Pattern, Target: encodeExpression(e.Target)}
	case *SafeHTTPRequest:
		return &wireExpression{Kind: "safe-http", Method: string(e.Method), URL: encodeExpression(e.URL), Headers: encodeExpression(e.Headers)}
	case *UnsafeHTTPRequest:
		return &wireExpression{
			Kind:    "unsafe-http",
			Method:  string(e.Method),
			URL:     encodeExpression(e.URL),
			Body:    encodeExpression(e.Body),
			Headers: encodeExpression(e.Headers),
		}
	case *JSONEncodedBody:
		return &wireExpression{Kind: "json-body", Content: encodeExpression(e.Content)}
	}
	panic(fmt.Sprintf("ir: unexpected expression %T", e))
}
