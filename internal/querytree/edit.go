package querytree

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EditOp names an edit request.
type EditOp string

const (
	OpAddCondition    EditOp = "add_condition"
	OpAddGroup        EditOp = "add_group"
	OpUpdateCondition EditOp = "update_condition"
	OpRemoveCondition EditOp = "remove_condition"
	OpUpdateGroup     EditOp = "update_group"
	OpRemoveGroup     EditOp = "remove_group"
	OpSetLogic        EditOp = "set_logic"
)

// Edit is one request from the presentation layer.
//
// Ref names the container. ID names the direct child targeted by update and
// remove edits. For update_condition the non-empty Field, Operator and Value
// are laid over the stored condition; for update_group and set_logic, Logic
// is the new logic.
type Edit struct {
	Op       EditOp `json:"op" yaml:"op"`
	Ref      Ref    `json:"ref,omitempty" yaml:"ref,omitempty"`
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Field    string `json:"field,omitempty" yaml:"field,omitempty"`
	Operator string `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value    string `json:"value,omitempty" yaml:"value,omitempty"`
	Logic    Logic  `json:"logic,omitempty" yaml:"logic,omitempty"`
}

// Validate checks that the edit carries what its op needs.
func (e Edit) Validate() error {
	switch e.Op {
	case OpAddCondition, OpAddGroup:
		return nil
	case OpUpdateCondition, OpRemoveCondition, OpRemoveGroup:
		if e.ID == "" {
			return fmt.Errorf("%w: %s requires id", ErrInvalidEdit, e.Op)
		}
		return nil
	case OpUpdateGroup:
		if e.ID == "" {
			return fmt.Errorf("%w: %s requires id", ErrInvalidEdit, e.Op)
		}
		if e.Logic != "" && !e.Logic.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidLogic, e.Logic)
		}
		return nil
	case OpSetLogic:
		if !e.Logic.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidLogic, e.Logic)
		}
		return nil
	case "":
		return fmt.Errorf("%w: op is required", ErrInvalidEdit)
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidEdit, e.Op)
	}
}

// Apply performs e on q. The bool reports whether the target resolved; an
// unresolved target leaves q unchanged and is not an error.
func (m *Model) Apply(q Query, e Edit) (Query, bool, error) {
	if err := e.Validate(); err != nil {
		return q, false, &EditError{Op: e.Op, Ref: e.Ref, ID: e.ID, Err: err}
	}

	switch e.Op {
	case OpAddCondition:
		next, ok := m.addCondition(q, e.Ref)
		return next, ok, nil
	case OpAddGroup:
		next, ok := m.addGroup(q, e.Ref)
		return next, ok, nil
	case OpUpdateCondition:
		current, ok := q.Condition(e.Ref, e.ID)
		if !ok {
			m.ignored(e.Op, e.Ref, e.ID)
			return q, false, nil
		}
		if e.Field != "" {
			current.Field = e.Field
		}
		if e.Operator != "" {
			current.Operator = e.Operator
		}
		if e.Value != "" {
			current.Value = e.Value
		}
		return m.updateCondition(q, e.Ref, current)
	case OpRemoveCondition:
		next, ok := m.removeCondition(q, e.Ref, e.ID)
		return next, ok, nil
	case OpUpdateGroup:
		current, ok := q.Group(e.Ref, e.ID)
		if !ok {
			m.ignored(e.Op, e.Ref, e.ID)
			return q, false, nil
		}
		if e.Logic != "" {
			current.Logic = e.Logic
		}
		return m.updateGroup(q, e.Ref, current)
	case OpRemoveGroup:
		next, ok := m.removeGroup(q, e.Ref, e.ID)
		return next, ok, nil
	default:
		return m.setLogic(q, e.Ref, e.Logic)
	}
}

// ApplyAll performs edits in order and stops at the first error.
// It returns the tree as of the last successful edit.
func (m *Model) ApplyAll(q Query, edits []Edit) (Query, error) {
	for i, e := range edits {
		next, _, err := m.Apply(q, e)
		if err != nil {
			return q, fmt.Errorf("edit %d: %w", i, err)
		}
		q = next
	}
	return q, nil
}

// Script is an ordered list of edits read from YAML.
type Script struct {
	Edits []Edit `yaml:"edits"`
}

// LoadScript reads an edit script:
//
//	edits:
//	  - op: add_group
//	  - op: add_condition
//	    ref: root/id-2
//	  - op: update_condition
//	    ref: root/id-2
//	    id: id-3
//	    field: Priority
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read edit script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes an edit script. Unknown keys are rejected.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse edit script: %w", err)
	}
	for i, e := range s.Edits {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("edits[%d]: %w", i, err)
		}
	}
	return &s, nil
}
