package querytree

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Logic combines the children of a container.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Valid reports whether l is AND or OR.
func (l Logic) Valid() bool {
	return l == LogicAnd || l == LogicOr
}

// ParseLogic accepts "AND" or "OR" in any letter case.
func ParseLogic(s string) (Logic, error) {
	l := Logic(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLogic, s)
	}
	return l, nil
}

// Condition is a single field/operator/value predicate.
type Condition struct {
	ID       string `json:"id" yaml:"id"`
	Field    string `json:"field" yaml:"field"`
	Operator string `json:"operator" yaml:"operator"`
	Value    string `json:"value" yaml:"value"`
}

// Group is a nested container of conditions and groups.
type Group struct {
	ID         string      `json:"id" yaml:"id"`
	Logic      Logic       `json:"logic" yaml:"logic"`
	Conditions []Condition `json:"conditions" yaml:"conditions"`
	Groups     []Group     `json:"groups" yaml:"groups"`
}

// Query is the root of the tree. It has no id and is never removed.
type Query struct {
	Logic      Logic       `json:"logic" yaml:"logic"`
	Conditions []Condition `json:"conditions" yaml:"conditions"`
	Groups     []Group     `json:"groups" yaml:"groups"`
}

// IsEmpty reports whether the root has no conditions and no groups.
func (q Query) IsEmpty() bool {
	return len(q.Conditions) == 0 && len(q.Groups) == 0
}

// IsEmpty reports whether the group has no conditions and no groups.
func (g Group) IsEmpty() bool {
	return len(g.Conditions) == 0 && len(g.Groups) == 0
}

// asGroup views the root as an anonymous group so container edits can be
// shared between the root and nested groups.
func (q Query) asGroup() Group {
	return Group{Logic: q.Logic, Conditions: q.Conditions, Groups: q.Groups}
}

func queryFromGroup(g Group) Query {
	return Query{Logic: g.Logic, Conditions: g.Conditions, Groups: g.Groups}
}

// Ref addresses a container by the ids of the groups leading to it.
// The empty Ref is the root.
type Ref []string

// Root addresses the root query.
var Root Ref

// IsRoot reports whether r addresses the root.
func (r Ref) IsRoot() bool {
	return len(r) == 0
}

// Child returns a new Ref addressing group id inside r.
func (r Ref) Child(id string) Ref {
	out := make(Ref, len(r), len(r)+1)
	copy(out, r)
	return append(out, id)
}

// String renders r as "root" or "root/<id>/<id>".
func (r Ref) String() string {
	if r.IsRoot() {
		return "root"
	}
	return "root/" + strings.Join(r, "/")
}

// ParseRef parses the String form. A leading "root" segment is optional,
// so "", "root", "/g1" and "root/g1" are all accepted.
func ParseRef(s string) Ref {
	var out Ref
	for i, part := range strings.Split(strings.TrimSpace(s), "/") {
		part = strings.TrimSpace(part)
		if part == "" || (i == 0 && part == "root") {
			continue
		}
		out = append(out, part)
	}
	return out
}

// MarshalText implements encoding.TextMarshaler.
func (r Ref) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Ref) UnmarshalText(text []byte) error {
	*r = ParseRef(string(text))
	return nil
}

// UnmarshalYAML accepts either the string form or a sequence of group ids.
func (r *Ref) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*r = ParseRef(node.Value)
		return nil
	case yaml.SequenceNode:
		var ids []string
		if err := node.Decode(&ids); err != nil {
			return err
		}
		*r = ParseRef(strings.Join(ids, "/"))
		return nil
	default:
		return fmt.Errorf("line %d: ref must be a string or a list of group ids", node.Line)
	}
}
