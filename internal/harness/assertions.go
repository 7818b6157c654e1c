package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/querybuilder/internal/catalog"
	"github.com/roach88/querybuilder/internal/querytree"
	"github.com/roach88/querybuilder/internal/render"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Steps    []StepResult // Steps that produced the tree
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Steps) > 0 {
		fmt.Fprintf(&buf, "\nSteps:\n")
		for _, step := range e.Steps {
			fmt.Fprintf(&buf, "  [%d] %s %s", step.Index+1, step.Op, step.Ref)
			if step.ID != "" {
				fmt.Fprintf(&buf, " id=%s", step.ID)
			}
			if step.Error != "" {
				fmt.Fprintf(&buf, " error=%s", step.Error)
			} else if !step.Applied {
				fmt.Fprintf(&buf, " (not found)")
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// assertExportEquals compares compact renderings so that nil and empty
// lists compare equal.
func assertExportEquals(result *Result, assertion Assertion) error {
	want, err := render.Compact(*assertion.Expect)
	if err != nil {
		return fmt.Errorf("export_equals: %w", err)
	}
	got, err := render.Compact(result.Export)
	if err != nil {
		return fmt.Errorf("export_equals: %w", err)
	}
	if string(want) == string(got) {
		return nil
	}
	return &AssertionError{
		Type:     AssertExportEquals,
		Expected: string(want),
		Actual:   string(got),
		Steps:    result.Steps,
	}
}

func assertCount(result *Result, assertion Assertion) error {
	actual := result.Stats.Conditions
	if assertion.Type == AssertGroupCount {
		actual = result.Stats.Groups
	}
	if actual == *assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     assertion.Type,
		Expected: fmt.Sprintf("%d", *assertion.Count),
		Actual:   fmt.Sprintf("%d", actual),
		Steps:    result.Steps,
	}
}

func assertRootNonEmpty(result *Result) error {
	if !result.Query.IsEmpty() {
		return nil
	}
	return &AssertionError{
		Type:     AssertRootNonEmpty,
		Expected: "root with at least one condition or group",
		Actual:   "empty root",
		Steps:    result.Steps,
	}
}

func assertValid(result *Result, cat *catalog.Catalog) error {
	v := querytree.Validate(result.Query, cat)
	if v.Valid {
		return nil
	}
	issues := make([]string, 0, len(v.Issues))
	for _, issue := range v.Errors() {
		issues = append(issues, fmt.Sprintf("%s at %s", issue.Code, issue.Path))
	}
	return &AssertionError{
		Type:     AssertValid,
		Expected: "no validation errors",
		Actual:   strings.Join(issues, "; "),
		Steps:    result.Steps,
	}
}

// EvaluateAssertions runs all assertions and returns failure messages.
// Returns an empty slice if all assertions pass.
func EvaluateAssertions(result *Result, assertions []Assertion, cat *catalog.Catalog) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertExportEquals:
			err = assertExportEquals(result, assertion)
		case AssertConditionCount, AssertGroupCount:
			err = assertCount(result, assertion)
		case AssertRootNonEmpty:
			err = assertRootNonEmpty(result)
		case AssertValid:
			err = assertValid(result, cat)
		default:
			err = fmt.Errorf("unknown assertion type: %s", assertion.Type)
		}

		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}

	return errs
}
