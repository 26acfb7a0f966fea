// Package harness runs declarative YAML conformance scenarios against a
// resolution engine and compares the resulting query traces to golden
// files.
package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/thermotab/thermotab/internal/props"
)

// defaultTolerance is the relative tolerance for float comparisons when
// a scenario does not set one.
const defaultTolerance = 1e-9

// Scenario defines a conformance scenario: a sequence of state queries
// with optional per-query expectations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Tolerance is the relative tolerance for float expectations.
	// Defaults to 1e-9 when zero.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Queries is the ordered list of state queries to resolve.
	Queries []QueryStep `yaml:"queries"`
}

// QueryStep is one query with an optional expectation.
type QueryStep struct {
	// Query maps exactly two property names to their given values.
	Query map[string]float64 `yaml:"query"`

	// Expect validates the outcome. If nil, the outcome is recorded in
	// the trace but not checked.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of one query.
type ExpectClause struct {
	// Region is the expected region name, if any.
	Region string `yaml:"region,omitempty"`

	// Quality is the expected vapor fraction. Only meaningful for
	// saturated outcomes.
	Quality *float64 `yaml:"quality,omitempty"`

	// State holds expected resolved property values. Subset match: only
	// the listed properties are compared.
	State map[string]float64 `yaml:"state,omitempty"`

	// Error is the expected error class:
	// out_of_bounds, compressed_not_saturated, superheated_not_saturated,
	// degenerate. Empty means the query must succeed.
	Error string `yaml:"error,omitempty"`
}

// knownErrorClasses are the error classes an expectation may name.
var knownErrorClasses = map[string]bool{
	ErrClassOutOfBounds: true,
	ErrClassCompressed:  true,
	ErrClassSuperheated: true,
	ErrClassDegenerate:  true,
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected to catch typos in hand-written scenarios.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and property names so failures
// surface at load time rather than mid-run.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	for i, step := range s.Queries {
		if len(step.Query) != 2 {
			return fmt.Errorf("query %d: expected exactly 2 properties, got %d", i+1, len(step.Query))
		}
		for name := range step.Query {
			if _, err := props.Parse(name); err != nil {
				return fmt.Errorf("query %d: %w", i+1, err)
			}
		}
		if step.Expect == nil {
			continue
		}
		for name := range step.Expect.State {
			if _, err := props.Parse(name); err != nil {
				return fmt.Errorf("query %d expectation: %w", i+1, err)
			}
		}
		if step.Expect.Error != "" && !knownErrorClasses[step.Expect.Error] {
			return fmt.Errorf("query %d expectation: unknown error class %q", i+1, step.Expect.Error)
		}
	}
	return nil
}
