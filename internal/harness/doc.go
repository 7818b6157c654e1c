// Package harness provides conformance testing for the query tree model.
//
// A scenario starts from the default query (or a supplied exported query),
// applies a list of edits through querytree.Model, and asserts on the
// resulting tree. Ids come from a sequence generator, so every id a scenario
// refers to is known in advance and every run is identical.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: nested_group_export
//	description: "What this scenario validates"
//	catalog: catalogs/tickets.yaml   # optional, relative to the scenario file
//	id_prefix: id-                   # optional
//	start:                           # optional exported query
//	  logic: AND
//	  conditions:
//	    - {field: Priority, operator: equals, value: High}
//	steps:
//	  - op: add_group
//	  - op: add_condition
//	    ref: root/id-2
//	  - op: update_condition
//	    id: id-1
//	    value: Reopened
//	    expect_error: invalid_value
//	assertions:
//	  - type: export_equals
//	    expect: {logic: AND, conditions: [...], groups: [...]}
//	  - type: condition_count
//	    count: 2
//
// # Assertion Types
//
//   - export_equals: the sanitized tree equals expect
//   - condition_count: total conditions at any depth
//   - group_count: total nested groups
//   - root_non_empty: the root holds at least one child
//   - valid: querytree.Validate reports no errors
//
// # Golden Files
//
// The rendered export of every scenario can be compared against
// golden/<scenario file name>.golden next to the scenario file. Golden files
// are regenerated with "qb test --update" or "go test -update".
package harness
