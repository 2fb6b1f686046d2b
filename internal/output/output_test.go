package output

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadscript/internal/engine/ir"
	"loadscript/internal/engine/passes"
)

// fixture converts a two-scenario test: the default scenario reads an
// undeclared name and the checkout scenario needs a hoist.
func fixture(t *testing.T) Document {
	t.Helper()
	test := ir.NewTest(
		ir.NewScenario("",
			ir.Declare(ir.Const, "a", ir.String("")),
			ir.Log(ir.Ident("b")),
		),
		ir.NewScenario("checkout",
			ir.Group("cart",
				ir.Declare(ir.Const, "cart", ir.SafeHTTP(ir.MethodGet, ir.String("https://shop.test/cart"), nil)),
			),
			ir.Log(ir.Ident("cart")),
		),
	)
	p, err := passes.NewPipeline(nil)
	require.NoError(t, err)
	res, err := passes.ApplyToTest(p, test)
	require.NoError(t, err)
	return Document{Path: "/project/tests/shop.json", Result: res, Duration: 12 * time.Millisecond}
}

func TestReportName(t *testing.T) {
	tests := []struct {
		root, path, want string
	}{
		{"/project", "/project/tests/api/login.json", "tests__api__login"},
		{"", "login.json", "login"},
		{"/project", "/elsewhere/x.json", "elsewhere__x"},
		{"", "./tests/x.json", "tests__x"},
	}
	for _, tt := range tests {
		if got := reportName(tt.root, tt.path); got != tt.want {
			t.Errorf("reportName(%q, %q) = %q, want %q", tt.root, tt.path, got, tt.want)
		}
	}
}

func TestGenerateJSON(t *testing.T) {
	doc := fixture(t)
	data, err := GenerateJSON("/project", doc)
	require.NoError(t, err)

	var report jsonReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "tests/shop.json", report.Path)
	assert.Equal(t, 2, report.Rewrites)

	require.Len(t, report.Issues, 1)
	assert.Equal(t, "default", report.Issues[0].Scenario)
	assert.Equal(t, "UndeclaredVariable", report.Issues[0].Kind)
	assert.Equal(t, "b", report.Issues[0].Name)
	assert.Equal(t, "/1", report.Issues[0].NodeID)

	require.Len(t, report.Declarations, 2)
	cart := report.Declarations[1]
	assert.Equal(t, "checkout", cart.Scenario)
	assert.Equal(t, "cart", cart.Name)
	assert.Equal(t, "const", cart.Kind)
	assert.Equal(t, "/0/0", cart.NodeID)
	assert.Equal(t, "/0", cart.Scope)
	assert.Equal(t, []string{"/1"}, cart.References)

	// The embedded test is the rewritten document and decodes again.
	test, err := ir.DecodeTest(report.Test)
	require.NoError(t, err)
	require.Len(t, test.Scenarios, 1)
	first := test.Scenarios[0].Body.Statements[0]
	decl, ok := first.(*ir.VariableDeclaration)
	require.True(t, ok, "expected hoisted declaration first, got %T", first)
	assert.Equal(t, ir.Let, decl.Kind)
	assert.Equal(t, "cart", decl.Name)
}

func TestGenerateJSON_NoResult(t *testing.T) {
	_, err := GenerateJSON("", Document{Path: "x.json", Err: errors.New("boom")})
	assert.Error(t, err)
}

func TestGenerateSARIF_EmptyResults(t *testing.T) {
	data, err := GenerateSARIF("", nil)
	require.NoError(t, err)

	var report sarifReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, sarifSchema, report.Schema)
	assert.Equal(t, sarifVersion, report.Version)
	require.Len(t, report.Runs, 1)
	assert.Empty(t, report.Runs[0].Results)
	assert.Empty(t, report.Runs[0].Tool.Driver.Rules)
}

func TestGenerateSARIF_Issues(t *testing.T) {
	doc := fixture(t)
	failed := Document{Path: "/project/tests/broken.json", Err: errors.New("unknown statement kind \"loop\"")}

	data, err := GenerateSARIF("/project", []Document{doc, failed})
	require.NoError(t, err)

	var report sarifReport
	require.NoError(t, json.Unmarshal(data, &report))
	run := report.Runs[0]
	assert.Equal(t, "loadscript", run.Tool.Driver.Name)

	ruleIDs := make([]string, 0)
	for _, r := range run.Tool.Driver.Rules {
		ruleIDs = append(ruleIDs, r.ID)
	}
	assert.Equal(t, []string{ruleIDUndeclared, ruleIDConversion}, ruleIDs)

	require.Len(t, run.Results, 2)
	undeclared := run.Results[0]
	assert.Equal(t, ruleIDUndeclared, undeclared.RuleID)
	assert.Equal(t, "error", undeclared.Level)
	assert.Contains(t, undeclared.Message.Text, "scenario default")
	require.Len(t, undeclared.Locations, 1)
	assert.Equal(t, "tests/shop.json", undeclared.Locations[0].PhysicalLocation.ArtifactLocation.URI)
	require.Len(t, undeclared.Locations[0].LogicalLocations, 1)
	assert.Equal(t, "default/1", undeclared.Locations[0].LogicalLocations[0].FullyQualifiedName)

	conversion := run.Results[1]
	assert.Equal(t, ruleIDConversion, conversion.RuleID)
	assert.Equal(t, "tests/broken.json", conversion.Locations[0].PhysicalLocation.ArtifactLocation.URI)
}

func TestGenerateSARIF_Duplicate(t *testing.T) {
	test := ir.NewTest(ir.NewScenario("", ir.Declare(ir.Const, "a", ir.Null()), ir.Declare(ir.Const, "a", ir.Null())))
	p, err := passes.NewPipeline(nil)
	require.NoError(t, err)
	res, err := passes.ApplyToTest(p, test)
	require.NoError(t, err)

	data, err := GenerateSARIF("", []Document{{Path: "dup.json", Result: res}})
	require.NoError(t, err)
	var report sarifReport
	require.NoError(t, json.Unmarshal(data, &report))
	require.Len(t, report.Runs[0].Results, 1)
	assert.Equal(t, ruleIDDuplicate, report.Runs[0].Results[0].RuleID)
	assert.Equal(t, "warning", report.Runs[0].Results[0].Level)
}

func TestGenerateText(t *testing.T) {
	docs := []Document{
		fixture(t),
		{Path: "/project/tests/broken.json", Err: errors.New("bad version")},
	}
	text := GenerateText("/project", docs)

	for _, want := range []string{
		"tests/shop.json",
		"2 scenario(s), 2 declaration(s), 2 rewrite(s)",
		"[default] UndeclaredVariable",
		"tests/broken.json: bad version",
		"2 document(s), 1 failed, 1 issue(s), 2 rewrite(s)",
	} {
		assert.Contains(t, text, want)
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize([]Document{fixture(t), {Path: "x.json", Err: errors.New("x")}})
	assert.Equal(t, Totals{Documents: 2, Failed: 1, Issues: 1, Rewrites: 2, Declarations: 2}, got)
}

func TestWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	doc := fixture(t)
	w := &Writer{Dir: dir, Root: "/project", Formats: []string{"json", "SARIF", "text"}}

	written, err := w.WriteDocument(doc)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "tests__shop.report.json")}, written)

	batch, err := w.WriteBatch([]Document{doc})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, sarifFile), filepath.Join(dir, summaryFile)}, batch)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file left behind: %s", e.Name())
	}

	none, err := w.WriteDocument(Document{Path: "x.json", Err: errors.New("x")})
	require.NoError(t, err)
	assert.Empty(t, none)

	textOnly := &Writer{Dir: dir, Formats: []string{"text"}}
	written, err = textOnly.WriteDocument(doc)
	require.NoError(t, err)
	assert.Empty(t, written)
}
