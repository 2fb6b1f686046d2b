package passes

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadscript/internal/core/errors"
	"loadscript/internal/engine/analysis"
	"loadscript/internal/engine/ir"
)

func diffTree(t *testing.T, want, got *ir.BlockStatement) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func str() ir.Expression { return ir.String("") }

func TestMergeDeclarations(t *testing.T) {
	tests := []struct {
		name     string
		input    *ir.BlockStatement
		expected *ir.BlockStatement
		rewrites int
	}{
		{
			name: "re-declared in child scope",
			input: ir.Block(
				ir.Declare(ir.Const, "a", str()),
				ir.Group("child", ir.Declare(ir.Const, "a", str())),
			),
			expected: ir.Block(
				ir.Declare(ir.Const, "a", str()),
				ir.Group("child", ir.Declare(ir.Const, "a", str())),
			),
		},
		{
			name: "declared in parent scope after child",
			input: ir.Block(
				ir.Group("child", ir.Declare(ir.Const, "a", str())),
				ir.Declare(ir.Const, "a", str()),
			),
			expected: ir.Block(
				ir.Group("child", ir.Declare(ir.Const, "a", str())),
				ir.Declare(ir.Const, "a", str()),
			),
		},
		{
			name: "same scope",
			input: ir.Block(
				ir.Declare(ir.Const, "a", str()),
				ir.Declare(ir.Const, "a", str()),
			),
			expected: ir.Block(
				ir.Declare(ir.Let, "a", str()),
				ir.Assign("a", str()),
			),
			rewrites: 2,
		},
		{
			name: "same child scope",
			input: ir.Block(
				ir.Group("child",
					ir.Declare(ir.Const, "a", str()),
					ir.Declare(ir.Const, "a", str()),
				),
			),
			expected: ir.Block(
				ir.Group("child",
					ir.Declare(ir.Let, "a", str()),
					ir.Assign("a", str()),
				),
			),
			rewrites: 2,
		},
		{
			name: "several names keep their initializers",
			input: ir.Block(
				ir.Declare(ir.Const, "a", ir.Number(1)),
				ir.Declare(ir.Const, "b", ir.Number(2)),
				ir.Declare(ir.Let, "a", ir.Number(3)),
				ir.NewFragment(ir.Declare(ir.Const, "b", ir.Number(4))),
				ir.Declare(ir.Const, "a", ir.Ident("b")),
			),
			expected: ir.Block(
				ir.Declare(ir.Let, "a", ir.Number(1)),
				ir.Declare(ir.Let, "b", ir.Number(2)),
				ir.Assign("a", ir.Number(3)),
				ir.NewFragment(ir.Assign("b", ir.Number(4))),
				ir.Assign("a", ir.Ident("b")),
			),
			rewrites: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := MergeDeclarations(tt.input)
			require.NoError(t, err)
			diffTree(t, tt.expected, res.Tree)
			assert.Equal(t, tt.rewrites, res.Rewrites)

			again, err := MergeDeclarations(res.Tree)
			require.NoError(t, err)
			diffTree(t, res.Tree, again.Tree)
			assert.Zero(t, again.Rewrites)
		})
	}
}

func TestMergeDeclarations_ReportsIssues(t *testing.T) {
	first := ir.Declare(ir.Const, "a", str())
	res, err := MergeDeclarations(ir.Block(first, ir.Group("child", ir.Declare(ir.Const, "a", str()))))
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, analysis.DuplicateVariableDeclaration, res.Issues[0].Kind)
	require.Len(t, res.Issues[0].Others, 1)
	assert.Same(t, first, res.Issues[0].Others[0].Declaration)
}

func TestHoistVariables(t *testing.T) {
	tests := []struct {
		name     string
		input    *ir.BlockStatement
		expected *ir.BlockStatement
	}{
		{
			name: "referenced in same scope",
			input: ir.Block(
				ir.Declare(ir.Const, "a", str()),
				ir.Log(ir.Ident("a")),
			),
			expected: ir.Block(
				ir.Declare(ir.Const, "a", str()),
				ir.Log(ir.Ident("a")),
			),
		},
		{
			name: "referenced in child scope",
			input: ir.Block(
				ir.Declare(ir.Const, "a", str()),
				ir.Group("child", ir.Log(ir.Ident("a"))),
			),
			expected: ir.Block(
				ir.Declare(ir.Const, "a", str()),
				ir.Group("child", ir.Log(ir.Ident("a"))),
			),
		},
		{
			name: "re-declared in child scope and used only there",
			input: ir.Block(
				ir.Declare(ir.Const, "a", str()),
				ir.Group("child",
					ir.Declare(ir.Const, "a", str()),
					ir.Log(ir.Ident("a")),
				),
			),
			expected: ir.Block(
				ir.Declare(ir.Const, "a", str()),
				ir.Group("child",
					ir.Declare(ir.Const, "a", str()),
					ir.Log(ir.Ident("a")),
				),
			),
		},
		{
			name: "referenced in parent scope",
			input: ir.Block(
				ir.Group("child", ir.Declare(ir.Const, "a", str())),
				ir.Log(ir.Ident("a")),
			),
			expected: ir.Block(
				ir.Declare(ir.Let, "a", ir.Null()),
				ir.Group("child", ir.Assign("a", str())),
				ir.Log(ir.Ident("a")),
			),
		},
		{
			name: "referenced in sibling scope",
			input: ir.Block(
				ir.Group("child", ir.Declare(ir.Const, "a", str())),
				ir.Group("child2", ir.Log(ir.Ident("a"))),
			),
			expected: ir.Block(
				ir.Declare(ir.Let, "a", ir.Null()),
				ir.Group("child", ir.Assign("a", str())),
				ir.Group("child2", ir.Log(ir.Ident("a"))),
			),
		},
		{
			name: "inserted before the group it escapes from",
			input: ir.Block(
				ir.Declare(ir.Const, "a", str()),
				ir.Group("child", ir.Declare(ir.Const, "b", str())),
				ir.Group("child", ir.Declare(ir.Const, "c", str())),
				ir.Log(ir.Ident("c")),
			),
			expected: ir.Block(
				ir.Declare(ir.Const, "a", str()),
				ir.Group("child", ir.Declare(ir.Const, "b", str())),
				ir.Declare(ir.Let, "c", ir.Null()),
				ir.Group("child", ir.Assign("c", str())),
				ir.Log(ir.Ident("c")),
			),
		},
		{
			name: "nested scopes",
			input: ir.Block(
				ir.Group("child", ir.Group("child2", ir.Declare(ir.Const, "a", str()))),
				ir.Log(ir.Ident("a")),
			),
			expected: ir.Block(
				ir.Declare(ir.Let, "a", ir.Null()),
				ir.Group("child", ir.Group("child2", ir.Assign("a", str()))),
				ir.Log(ir.Ident("a")),
			),
		},
		{
			name: "re-declared variables hoist to where their references see them",
			input: ir.Block(
				ir.Group("child", ir.Declare(ir.Const, "a", str())),
				ir.Group("child2", ir.Log(ir.Ident("a"))),
				ir.Group("child3",
					ir.Group("child4", ir.Declare(ir.Const, "a", str())),
					ir.Group("child5", ir.Log(ir.Ident("a"))),
				),
				ir.Group("child6", ir.Declare(ir.Const, "b", str())),
				ir.Log(ir.Ident("b")),
			),
			expected: ir.Block(
				ir.Declare(ir.Let, "a", ir.Null()),
				ir.Group("child", ir.Assign("a", str())),
				ir.Group("child2", ir.Log(ir.Ident("a"))),
				ir.Group("child3",
					ir.Declare(ir.Let, "a", ir.Null()),
					ir.Group("child4", ir.Assign("a", str())),
					ir.Group("child5", ir.Log(ir.Ident("a"))),
				),
				ir.Declare(ir.Let, "b", ir.Null()),
				ir.Group("child6", ir.Assign("b", str())),
				ir.Log(ir.Ident("b")),
			),
		},
		{
			name: "assignment from another group",
			input: ir.Block(
				ir.Group("login", ir.Declare(ir.Let, "token", str())),
				ir.Group("refresh", ir.Assign("token", ir.String("new"))),
			),
			expected: ir.Block(
				ir.Declare(ir.Let, "token", ir.Null()),
				ir.Group("login", ir.Assign("token", str())),
				ir.Group("refresh", ir.Assign("token", ir.String("new"))),
			),
		},
		{
			name: "unreferenced declaration",
			input: ir.Block(
				ir.Group("child", ir.Declare(ir.Const, "unused", str())),
			),
			expected: ir.Block(
				ir.Group("child", ir.Declare(ir.Const, "unused", str())),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := HoistVariables(tt.input)
			require.NoError(t, err)
			diffTree(t, tt.expected, res.Tree)

			again, err := HoistVariables(res.Tree)
			require.NoError(t, err)
			diffTree(t, res.Tree, again.Tree)
			assert.Zero(t, again.Rewrites)
		})
	}
}

func TestHoistVariables_HTTPResponseUsedAfterGroup(t *testing.T) {
	get := func() ir.Expression {
		return ir.SafeHTTP(ir.MethodGet, ir.String("https://example.com"), nil)
	}
	input := ir.Block(
		ir.Group("inner-group", ir.Declare(ir.Const, "innerVar", get())),
		ir.Log(ir.Ident("innerVar")),
	)

	res, err := HoistVariables(input)
	require.NoError(t, err)
	diffTree(t, ir.Block(
		ir.Declare(ir.Let, "innerVar", ir.Null()),
		ir.Group("inner-group", ir.Assign("innerVar", get())),
		ir.Log(ir.Ident("innerVar")),
	), res.Tree)
	assert.Equal(t, 2, res.Rewrites)
	assert.Empty(t, res.Issues)
}

func TestHoistVariables_SeveralIntoOneGroup(t *testing.T) {
	input := ir.Block(
		ir.Group("outer",
			ir.Declare(ir.Const, "first", ir.Number(1)),
			ir.Declare(ir.Const, "second", ir.Number(2)),
		),
		ir.Log(ir.Template([]string{"", " ", ""}, ir.Ident("second"), ir.Ident("first"))),
	)

	res, err := HoistVariables(input)
	require.NoError(t, err)
	diffTree(t, ir.Block(
		ir.NewFragment(
			ir.Declare(ir.Let, "first", ir.Null()),
			ir.Declare(ir.Let, "second", ir.Null()),
		),
		ir.Group("outer",
			ir.Assign("first", ir.Number(1)),
			ir.Assign("second", ir.Number(2)),
		),
		ir.Log(ir.Template([]string{"", " ", ""}, ir.Ident("second"), ir.Ident("first"))),
	), res.Tree)
	assert.Equal(t, 4, res.Rewrites)
}

func TestHoistVariables_ThroughFragment(t *testing.T) {
	input := ir.Block(
		ir.NewFragment(ir.Group("g", ir.Declare(ir.Const, "a", str()))),
		ir.Log(ir.Ident("a")),
	)

	res, err := HoistVariables(input)
	require.NoError(t, err)
	diffTree(t, ir.Block(
		ir.Declare(ir.Let, "a", ir.Null()),
		ir.NewFragment(ir.Group("g", ir.Assign("a", str()))),
		ir.Log(ir.Ident("a")),
	), res.Tree)
}

func TestHoistVariables_ComplexReferences(t *testing.T) {
	input := ir.Block(
		ir.Group("group 1",
			ir.Group("group 1.1",
				ir.Declare(ir.Const, "level12", str()),
				ir.Group("group 1.1.1", ir.Declare(ir.Const, "level13", str())),
				ir.Group("group 1.1.2", ir.Log(ir.Ident("level12"))),
			),
			ir.Group("group 1.2", ir.Log(ir.Ident("level12"))),
		),
		ir.Log(ir.Ident("level13")),
	)

	res, err := HoistVariables(input)
	require.NoError(t, err)
	diffTree(t, ir.Block(
		ir.Declare(ir.Let, "level13", ir.Null()),
		ir.Group("group 1",
			ir.Declare(ir.Let, "level12", ir.Null()),
			ir.Group("group 1.1",
				ir.Assign("level12", str()),
				ir.Group("group 1.1.1", ir.Assign("level13", str())),
				ir.Group("group 1.1.2", ir.Log(ir.Ident("level12"))),
			),
			ir.Group("group 1.2", ir.Log(ir.Ident("level12"))),
		),
		ir.Log(ir.Ident("level13")),
	), res.Tree)
	assert.Equal(t, 4, res.Rewrites)
}

func TestHoistVariables_MissingScopeIsInternal(t *testing.T) {
	decl := ir.Declare(ir.Const, "a", str())
	a := analysis.Analyze(ir.Block(ir.Group("g", decl), ir.Log(ir.Ident("a"))))
	delete(a.Scopes, "/0")

	err := planHoist(a, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInternal))
	assert.Contains(t, err.Error(), "scope=/0")
	assert.Contains(t, err.Error(), "variable=a")
}
