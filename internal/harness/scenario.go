package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/querybuilder/internal/querytree"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is an optional catalog file. Relative paths are resolved
	// against the scenario file's directory. Empty selects the built-in
	// catalog.
	Catalog string `yaml:"catalog,omitempty"`

	// IDPrefix prefixes generated ids. Defaults to "id-".
	IDPrefix string `yaml:"id_prefix,omitempty"`

	// Start is an optional exported query to begin from. Its nodes are
	// hydrated with ids before any step runs. When nil the scenario starts
	// from the default query.
	Start *querytree.CleanQuery `yaml:"start,omitempty"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final tree.
	Assertions []Assertion `yaml:"assertions"`

	// Path is the file the scenario was loaded from, if any.
	Path string `yaml:"-"`
}

// Step is one edit plus its expected outcome.
type Step struct {
	querytree.Edit `yaml:",inline"`

	// ExpectError is the error code the edit must fail with, e.g.
	// "invalid_value". Empty means the edit must not fail.
	ExpectError string `yaml:"expect_error,omitempty"`

	// ExpectIgnored requires the edit's target to be unresolved, leaving
	// the tree unchanged.
	ExpectIgnored bool `yaml:"expect_ignored,omitempty"`
}

// Assertion validates the final tree.
type Assertion struct {
	// Type specifies the assertion type:
	// - "export_equals": Sanitized tree equals Expect
	// - "condition_count": Total conditions equal Count
	// - "group_count": Total nested groups equal Count
	// - "root_non_empty": Root holds at least one child
	// - "valid": Validation reports no errors
	Type string `yaml:"type"`

	// Expect is the expected export (used by export_equals).
	Expect *querytree.CleanQuery `yaml:"expect,omitempty"`

	// Count is the expected count (used by condition_count and group_count).
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertExportEquals   = "export_equals"
	AssertConditionCount = "condition_count"
	AssertGroupCount     = "group_count"
	AssertRootNonEmpty   = "root_non_empty"
	AssertValid          = "valid"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.Path = path

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}
	if scenario.Catalog != "" {
		if _, err := os.Stat(scenario.Catalog); err != nil {
			return nil, fmt.Errorf("invalid scenario: catalog file not found: %s", scenario.Catalog)
		}
	}

	return scenario, nil
}

// ParseScenario decodes a scenario. Catalog paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
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

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	// A step expected to fail may be malformed on purpose.
	for i, step := range s.Steps {
		if step.ExpectError != "" && step.ExpectIgnored {
			return fmt.Errorf("steps[%d]: expect_error and expect_ignored are exclusive", i)
		}
		if step.ExpectError == "" {
			if err := step.Validate(); err != nil {
				return fmt.Errorf("steps[%d]: %w", i, err)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertExportEquals:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for export_equals", index)
		}
	case AssertConditionCount, AssertGroupCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertRootNonEmpty, AssertValid:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
