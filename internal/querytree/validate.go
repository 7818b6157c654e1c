package querytree

import (
	"fmt"

	"github.com/roach88/querybuilder/internal/catalog"
)

// Severity grades a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue codes reported by Validate.
const (
	IssueEmptyRoot       = "empty_root"
	IssueEmptyGroup      = "empty_group"
	IssueInvalidLogic    = "invalid_logic"
	IssueUnknownField    = "unknown_field"
	IssueInvalidOperator = "invalid_operator"
	IssueInvalidValue    = "invalid_value"
	IssueMissingID       = "missing_id"
	IssueDuplicateID     = "duplicate_id"
)

// Issue is one finding, located by an index path such as
// "root.groups[0].conditions[1]".
type Issue struct {
	Path     string   `json:"path" yaml:"path"`
	Code     string   `json:"code" yaml:"code"`
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
}

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	// Valid is true when no issue has error severity. Warnings do not
	// affect it.
	Valid  bool    `json:"valid" yaml:"valid"`
	Issues []Issue `json:"issues" yaml:"issues"`
}

// Errors returns the issues with error severity.
func (r ValidationResult) Errors() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			out = append(out, issue)
		}
	}
	return out
}

// Validate checks q against the structural invariants and cat. Trees built
// only through Model never produce errors; empty nested groups are reported
// as warnings because they are allowed while editing.
//
// Validate is a pure function with no side effects.
func Validate(q Query, cat *catalog.Catalog) ValidationResult {
	v := &validator{
		catalog: cat,
		seen:    make(map[string]string),
		issues:  []Issue{},
	}
	if q.IsEmpty() {
		v.add("root", IssueEmptyRoot, SeverityError, "root must hold at least one condition or group")
	}
	v.validateContainer("root", q.asGroup())

	return ValidationResult{
		Valid:  len(v.Errors()) == 0,
		Issues: v.issues,
	}
}

// ValidateClean checks an exported query. Id checks do not apply.
func ValidateClean(q CleanQuery, cat *catalog.Catalog) ValidationResult {
	return Validate(Hydrate(q, NewSequenceGenerator("")), cat)
}

// validator accumulates issues during traversal.
type validator struct {
	catalog *catalog.Catalog
	seen    map[string]string // id -> path of first use
	issues  []Issue
}

func (v *validator) add(path, code string, severity Severity, format string, args ...any) {
	v.issues = append(v.issues, Issue{
		Path:     path,
		Code:     code,
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (v *validator) Errors() []Issue {
	return ValidationResult{Issues: v.issues}.Errors()
}

func (v *validator) validateContainer(path string, g Group) {
	if !g.Logic.Valid() {
		v.add(path, IssueInvalidLogic, SeverityError, "logic %q must be AND or OR", g.Logic)
	}

	for i, c := range g.Conditions {
		v.validateCondition(fmt.Sprintf("%s.conditions[%d]", path, i), c)
	}

	for i, child := range g.Groups {
		childPath := fmt.Sprintf("%s.groups[%d]", path, i)
		v.checkID(childPath, child.ID)
		if child.IsEmpty() {
			v.add(childPath, IssueEmptyGroup, SeverityWarning, "group has no conditions or groups")
		}
		v.validateContainer(childPath, child)
	}
}

func (v *validator) validateCondition(path string, c Condition) {
	v.checkID(path, c.ID)

	if !v.catalog.HasField(c.Field) {
		v.add(path, IssueUnknownField, SeverityError, "field %q is not in the catalog", c.Field)
		return
	}
	if !v.catalog.AllowsOperator(c.Field, c.Operator) {
		v.add(path, IssueInvalidOperator, SeverityError, "operator %q is not allowed for %q", c.Operator, c.Field)
	}
	if !v.catalog.AllowsValue(c.Field, c.Value) {
		v.add(path, IssueInvalidValue, SeverityError, "value %q is not allowed for %q", c.Value, c.Field)
	}
}

func (v *validator) checkID(path, id string) {
	if id == "" {
		v.add(path, IssueMissingID, SeverityError, "node has no id")
		return
	}
	if first, dup := v.seen[id]; dup {
		v.add(path, IssueDuplicateID, SeverityError, "id %q already used at %s", id, first)
		return
	}
	v.seen[id] = path
}
