package output

import (
	"encoding/json"
	"fmt"

	"loadscript/internal/engine/analysis"
	"loadscript/internal/shared/version"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"

	ruleIDUndeclared = "LS001"
	ruleIDDuplicate  = "LS002"
	ruleIDConversion = "LS003"
)

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation  `json:"physicalLocation"`
	LogicalLocations []sarifLogicalLocation `json:"logicalLocations,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

// Documents carry no line information, so the statement is located by
// scenario and NodeID.
type sarifLogicalLocation struct {
	Name               string `json:"name"`
	FullyQualifiedName string `json:"fullyQualifiedName"`
	Kind               string `json:"kind"`
}

var sarifRules = map[string]sarifRule{
	ruleIDUndeclared: {
		ID:               ruleIDUndeclared,
		Name:             string(analysis.UndeclaredVariable),
		ShortDescription: sarifMessage{Text: "A variable is referenced but never declared."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
	},
	ruleIDDuplicate: {
		ID:               ruleIDDuplicate,
		Name:             string(analysis.DuplicateVariableDeclaration),
		ShortDescription: sarifMessage{Text: "A variable is declared more than once."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
	},
	ruleIDConversion: {
		ID:               ruleIDConversion,
		Name:             "ConversionFailed",
		ShortDescription: sarifMessage{Text: "The test document could not be converted."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
	},
}

// GenerateSARIF builds a SARIF v2.1.0 document from every issue of docs.
// File URIs are made relative to root so that reports are safe to share.
func GenerateSARIF(root string, docs []Document) ([]byte, error) {
	results := make([]sarifResult, 0)
	used := make(map[string]bool)

	for _, doc := range docs {
		uri := relativeURI(root, doc.Path)
		if doc.Err != nil {
			used[ruleIDConversion] = true
			results = append(results, sarifResult{
				RuleID:    ruleIDConversion,
				Level:     "error",
				Message:   sarifMessage{Text: doc.Err.Error()},
				Locations: []sarifLocation{fileLocation(uri)},
			})
		}
		if doc.Result == nil {
			continue
		}
		for _, issue := range doc.Result.Issues() {
			ruleID, err := ruleFor(issue.Kind)
			if err != nil {
				return nil, err
			}
			used[ruleID] = true
			loc := fileLocation(uri)
			scenario := scenarioName(issue.Scenario)
			loc.LogicalLocations = []sarifLogicalLocation{{
				Name:               issue.Name,
				FullyQualifiedName: fmt.Sprintf("%s%s", scenario, issue.ID),
				Kind:               "variable",
			}}
			results = append(results, sarifResult{
				RuleID:    ruleID,
				Level:     sarifRules[ruleID].DefaultConfig.Level,
				Message:   sarifMessage{Text: fmt.Sprintf("scenario %s: %s", scenario, issue.Message())},
				Locations: []sarifLocation{loc},
			})
		}
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "loadscript",
						Version: version.Version,
						Rules:   buildSARIFRules(used),
					},
				},
				Results: results,
			},
		},
	}

	return json.MarshalIndent(report, "", "  ")
}

// buildSARIFRules returns only the rules that are relevant for the given
// findings, in rule id order.
func buildSARIFRules(used map[string]bool) []sarifRule {
	rules := make([]sarifRule, 0, len(used))
	for _, id := range []string{ruleIDUndeclared, ruleIDDuplicate, ruleIDConversion} {
		if used[id] {
			rules = append(rules, sarifRules[id])
		}
	}
	return rules
}

func ruleFor(kind analysis.IssueKind) (string, error) {
	switch kind {
	case analysis.UndeclaredVariable:
		return ruleIDUndeclared, nil
	case analysis.DuplicateVariableDeclaration:
		return ruleIDDuplicate, nil
	}
	return "", fmt.Errorf("no SARIF rule for issue kind %q", kind)
}

func fileLocation(uri string) sarifLocation {
	return sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{
				URI:       uri,
				URIBaseID: "%SRCROOT%",
			},
		},
	}
}
