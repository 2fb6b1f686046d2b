package passes

import (
	"fmt"

	"loadscript/internal/core/errors"
	"loadscript/internal/engine/analysis"
	"loadscript/internal/engine/ir"
)

// A Runner rewrites one scenario body. Pass and *Pipeline both satisfy it.
type Runner interface {
	Run(tree *ir.BlockStatement) (*Result, error)
}

// ScenarioResult is the result of rewriting one scenario.
type ScenarioResult struct {
	Scenario string
	*Result
}

// ScenarioIssue is an issue tagged with the scenario it was found in.
type ScenarioIssue struct {
	Scenario string
	analysis.Issue
}

// TestResult is the result of rewriting every scenario of a test.
type TestResult struct {
	Test      *ir.Test
	Scenarios []ScenarioResult // default scenario first
}

// Issues returns the issues of all scenarios, default scenario first.
func (r *TestResult) Issues() []ScenarioIssue {
	var out []ScenarioIssue
	for _, s := range r.Scenarios {
		for _, issue := range s.Issues {
			out = append(out, ScenarioIssue{Scenario: s.Scenario, Issue: issue})
		}
	}
	return out
}

func (r *TestResult) Rewrites() int {
	n := 0
	for _, s := range r.Scenarios {
		n += s.Rewrites
	}
	return n
}

func (r *TestResult) Declarations() int {
	n := 0
	for _, s := range r.Scenarios {
		n += len(s.Analysis.Declarations)
	}
	return n
}

// ApplyToTest runs runner over each scenario body independently and
// returns a new test. The input test is not modified.
func ApplyToTest(runner Runner, test *ir.Test) (*TestResult, error) {
	out := &TestResult{
		Test: &ir.Test{Version: test.Version},
	}

	rewrite := func(s *ir.Scenario) (*ir.Scenario, error) {
		res, err := runner.Run(s.Body)
		if err != nil {
			name := s.Name
			if name == "" {
				name = "default"
			}
			return nil, errors.AddContext(fmt.Errorf("scenario %s: %w", name, err), errors.CtxScenario, name)
		}
		out.Scenarios = append(out.Scenarios, ScenarioResult{Scenario: s.Name, Result: res})
		return &ir.Scenario{Name: s.Name, Body: res.Tree}, nil
	}

	if test.DefaultScenario != nil {
		s, err := rewrite(test.DefaultScenario)
		if err != nil {
			return nil, err
		}
		out.Test.DefaultScenario = s
	}
	for _, scenario := range test.Scenarios {
		s, err := rewrite(scenario)
		if err != nil {
			return nil, err
		}
		out.Test.Scenarios = append(out.Test.Scenarios, s)
	}
	return out, nil
}
