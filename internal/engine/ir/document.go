package ir

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"loadscript/internal/core/errors"
)

// CurrentVersion is the document version written by Encode.
const CurrentVersion = "1.0.0"

// SupportedVersions is the semver constraint a document version must
// satisfy to be decoded.
const SupportedVersions = ">= 1.0.0, < 2.0.0"

var supportedVersions = mustConstraint(SupportedVersions)

func mustConstraint(c string) *semver.Constraints {
	constraints, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraints
}

// A Test is a complete load-test definition: an optional default scenario
// and any number of named scenarios.
type Test struct {
	Version         string
	DefaultScenario *Scenario
	Scenarios       []*Scenario
}

// A Scenario is a named sequence of steps. The default scenario may be
// unnamed.
type Scenario struct {
	Name string
	Body *BlockStatement
}

// NewTest returns a test at the current document version.
func NewTest(defaultScenario *Scenario, scenarios ...*Scenario) *Test {
	return &Test{
		Version:         CurrentVersion,
		DefaultScenario: defaultScenario,
		Scenarios:       scenarios,
	}
}

func NewScenario(name string, statements ...Statement) *Scenario {
	return &Scenario{Name: name, Body: Block(statements...)}
}

// AllScenarios returns the default scenario, if any, followed by the named
// scenarios in declaration order.
func (t *Test) AllScenarios() []*Scenario {
	out := make([]*Scenario, 0, len(t.Scenarios)+1)
	if t.DefaultScenario != nil {
		out = append(out, t.DefaultScenario)
	}
	return append(out, t.Scenarios...)
}

// CheckVersion validates version against SupportedVersions. An empty
// version is treated as CurrentVersion.
func CheckVersion(version string) error {
	if version == "" {
		return nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid document version %q", version))
	}
	if !supportedVersions.Check(v) {
		return errors.New(errors.CodeNotSupported,
			fmt.Sprintf("document version %s does not satisfy %q", v, SupportedVersions))
	}
	return nil
}
