package ir

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"loadscript/internal/core/errors"
)

func TestNodePath_ID(t *testing.T) {
	tests := []struct {
		path NodePath
		want NodeID
	}{
		{NodePath{}, "/"},
		{nil, "/"},
		{NodePath{0}, "/0"},
		{NodePath{0, 1}, "/0/1"},
		{NodePath{12, 0, 3}, "/12/0/3"},
	}
	for _, tt := range tests {
		if got := tt.path.ID(); got != tt.want {
			t.Errorf("%v.ID() = %q, want %q", []int(tt.path), got, tt.want)
		}
		back, err := tt.want.Path()
		if err != nil {
			t.Fatalf("Path(%q): %v", tt.want, err)
		}
		if back.ID() != tt.want {
			t.Errorf("Path(%q) round trip = %q", tt.want, back.ID())
		}
	}

	for _, bad := range []NodeID{"", "0/1", "/a", "/-1", "/1//2"} {
		if _, err := bad.Path(); err == nil {
			t.Errorf("Path(%q): expected error", bad)
		}
	}
}

func TestNodePath_ChildDoesNotAlias(t *testing.T) {
	parent := make(NodePath, 1, 4)
	parent[0] = 7
	a := parent.Child(0)
	b := parent.Child(1)
	if a.ID() != "/7/0" || b.ID() != "/7/1" {
		t.Fatalf("got %s and %s", a, b)
	}
	if !a.HasPrefix(parent) || a.HasPrefix(b) {
		t.Error("unexpected prefix relation")
	}
	if got := b.Prefix(1).ID(); got != "/7" {
		t.Errorf("Prefix(1) = %s", got)
	}
}

func TestWalk_PreOrder(t *testing.T) {
	tree := Block(
		Declare(Const, "a", String("")),
		Group("outer",
			Sleep(1),
			NewFragment(Log(Ident("a"))),
		),
		Log(Null()),
	)

	var kinds []string
	Walk(tree, func(s Statement) bool {
		kinds = append(kinds, typeName(s))
		return true
	})
	want := []string{"block", "declare", "group", "sleep", "fragment", "log", "log"}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("walk order mismatch (-want +got):\n%s", diff)
	}

	var visited int
	Walk(tree, func(s Statement) bool {
		visited++
		_, isGroup := s.(*GroupStatement)
		return !isGroup
	})
	if visited != 4 {
		t.Errorf("expected pruned walk to visit 4 statements, got %d", visited)
	}
}

func TestWalkExpr_FindsNestedIdentifiers(t *testing.T) {
	e := UnsafeHTTP(MethodPost,
		Template([]string{"https://", "/api"}, Ident("host")),
		JSONBody(Object(
			Field{Name: "token", Value: Member(Ident("login"), Ident("token"))},
			Field{Name: "ids", Value: Array(Number(1), Index(Ident("ids"), Number(0)))},
		)),
		Object(Field{Name: "X-Trace", Value: Regex("id=(\\d+)", Ident("page"))}),
	)

	var names []string
	WalkExpr(e, func(e Expression) bool {
		if id, ok := e.(*Identifier); ok {
			names = append(names, id.Name)
		}
		return true
	})
	want := []string{"host", "login", "token", "ids", "page"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("identifier order mismatch (-want +got):\n%s", diff)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	test := NewTest(
		NewScenario("",
			Declare(Const, "token", String("abc")),
			Group("login",
				Expr(SafeHTTP(MethodGet, String("https://example.com"), nil)),
				Declare(Let, "body", Member(Ident("token"), Ident("body"))),
				Assign("body", Null()),
				Sleep(1.5),
			),
			NewFragment(Log(Template([]string{"got ", ""}, Ident("body")))),
		),
		NewScenario("checkout",
			Expr(UnsafeHTTP(MethodPost, String("https://example.com/cart"),
				URLEncoded(Field{Name: "qty", Value: Number(2)}, Field{Name: "gift", Value: Bool(false)}),
				Object(Field{Name: "Accept", Value: String("application/json")}))),
			Log(Regex("id=(\\w+)", Index(Array(Ident("x")), Number(0)))),
		),
	)

	data, err := EncodeTest(test)
	if err != nil {
		t.Fatalf("EncodeTest: %v", err)
	}
	decoded, err := DecodeTest(data)
	if err != nil {
		t.Fatalf("DecodeTest: %v\n%s", err, data)
	}
	if diff := cmp.Diff(test, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCodec_StringValueShortcut(t *testing.T) {
	s, err := UnmarshalStatement([]byte(`{"kind":"log","expression":{"kind":"string","value":"hello"}}`))
	if err != nil {
		t.Fatal(err)
	}
	want := Log(String("hello"))
	if diff := cmp.Diff(Statement(want), s); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCodec_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.ErrorCode
		path string
	}{
		{"malformed", `{`, errors.CodeValidationError, ""},
		{"future version", `{"version":"2.1.0","scenarios":[]}`, errors.CodeNotSupported, ""},
		{"bad version", `{"version":"one","scenarios":[]}`, errors.CodeValidationError, ""},
		{"unknown statement", `{"scenarios":[{"name":"s","statements":[{"kind":"loop"}]}]}`, errors.CodeValidationError, "scenarios[0].statements[0]"},
		{"unnamed scenario", `{"scenarios":[{"statements":[]}]}`, errors.CodeValidationError, "scenarios[0]"},
		{"bad binding", `{"defaultScenario":{"statements":[{"kind":"declare","binding":"var","name":"a","expression":{"kind":"null"}}]}}`, errors.CodeValidationError, "defaultScenario.statements[0]"},
		{"body on GET", `{"defaultScenario":{"statements":[{"kind":"expression","expression":{"kind":"unsafe-http","method":"GET","url":{"kind":"string","value":"u"},"body":{"kind":"null"}}}]}}`, errors.CodeValidationError, "defaultScenario.statements[0].expression"},
		{"template arity", `{"defaultScenario":{"statements":[{"kind":"log","expression":{"kind":"string","strings":["a","b"]}}]}}`, errors.CodeValidationError, "defaultScenario.statements[0].expression"},
		{"missing expression", `{"defaultScenario":{"statements":[{"kind":"assign","name":"a"}]}}`, errors.CodeValidationError, "defaultScenario.statements[0].expression"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTest([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsCode(err, tt.code) {
				t.Errorf("expected code %s, got %v", tt.code, err)
			}
			if tt.path != "" && !strings.Contains(err.Error(), "path="+tt.path+")") {
				t.Errorf("expected path %s in %q", tt.path, err.Error())
			}
		})
	}
}

func TestCodec_MissingVersionDefaults(t *testing.T) {
	test, err := DecodeTest([]byte(`{"defaultScenario":{"statements":[{"kind":"sleep","seconds":2}]}}`))
	if err != nil {
		t.Fatal(err)
	}
	if test.Version != CurrentVersion {
		t.Errorf("expected version %s, got %s", CurrentVersion, test.Version)
	}
	if len(test.AllScenarios()) != 1 {
		t.Errorf("expected 1 scenario, got %d", len(test.AllScenarios()))
	}
}

func typeName(s Statement) string {
	switch s.(type) {
	case *BlockStatement:
		return "block"
	case *GroupStatement:
		return "group"
	case *VariableDeclaration:
		return "declare"
	case *AssignStatement:
		return "assign"
	case *LogStatement:
		return "log"
	case *SleepStatement:
		return "sleep"
	case *ExpressionStatement:
		return "expression"
	case *Fragment:
		return "fragment"
	}
	return "?"
}
