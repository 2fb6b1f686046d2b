package output

import (
	"encoding/json"
	"fmt"

	"loadscript/internal/engine/analysis"
	"loadscript/internal/engine/ir"
	"loadscript/internal/engine/passes"
)

type jsonReport struct {
	Path         string            `json:"path"`
	Test         json.RawMessage   `json:"test"`
	Issues       []jsonIssue       `json:"issues"`
	Declarations []jsonDeclaration `json:"declarations"`
	Rewrites     int               `json:"rewrites"`
}

type jsonIssue struct {
	Scenario string   `json:"scenario"`
	Kind     string   `json:"kind"`
	Name     string   `json:"name"`
	NodeID   string   `json:"node_id"`
	Message  string   `json:"message"`
	Others   []string `json:"others,omitempty"`
}

type jsonDeclaration struct {
	Scenario   string   `json:"scenario"`
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	NodeID     string   `json:"node_id"`
	Scope      string   `json:"scope"`
	References []string `json:"references"`
}

// GenerateJSON renders the rewritten test of doc together with its issues
// and the declaration table of every scenario.
func GenerateJSON(root string, doc Document) ([]byte, error) {
	if doc.Result == nil {
		return nil, fmt.Errorf("no result for %s", doc.Path)
	}
	test, err := ir.EncodeTest(doc.Result.Test)
	if err != nil {
		return nil, fmt.Errorf("encode rewritten test: %w", err)
	}

	report := jsonReport{
		Path:         relativeURI(root, doc.Path),
		Test:         test,
		Issues:       make([]jsonIssue, 0),
		Declarations: make([]jsonDeclaration, 0),
		Rewrites:     doc.Result.Rewrites(),
	}
	for _, issue := range doc.Result.Issues() {
		report.Issues = append(report.Issues, toJSONIssue(issue))
	}
	for _, s := range doc.Result.Scenarios {
		for _, d := range s.Analysis.Declarations {
			report.Declarations = append(report.Declarations, toJSONDeclaration(s, d))
		}
	}
	return json.MarshalIndent(report, "", "  ")
}

func toJSONIssue(issue passes.ScenarioIssue) jsonIssue {
	out := jsonIssue{
		Scenario: scenarioName(issue.Scenario),
		Kind:     string(issue.Kind),
		Name:     issue.Name,
		NodeID:   string(issue.ID),
		Message:  issue.Message(),
	}
	for _, other := range issue.Others {
		out.Others = append(out.Others, string(other.ID))
	}
	return out
}

func toJSONDeclaration(s passes.ScenarioResult, d *analysis.DeclarationInfo) jsonDeclaration {
	refs := make([]string, 0, len(d.References))
	for _, ref := range d.References {
		refs = append(refs, string(ref.ID))
	}
	return jsonDeclaration{
		Scenario:   scenarioName(s.Scenario),
		Name:       d.Name(),
		Kind:       string(d.Declaration.Kind),
		NodeID:     string(d.ID),
		Scope:      string(d.Scope.ID),
		References: refs,
	}
}

func scenarioName(name string) string {
	if name == "" {
		return "default"
	}
	return name
}
