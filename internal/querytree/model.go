package querytree

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/querybuilder/internal/catalog"
)

// Model applies edits to query trees using a field catalog for defaults and
// an IDGenerator for new nodes. Model holds no tree state; every method takes
// the current Query and returns the next one.
type Model struct {
	catalog *catalog.Catalog
	ids     IDGenerator
	log     zerolog.Logger
}

// Option configures a Model.
type Option func(*Model)

// WithIDGenerator sets the id source. Defaults to UUIDGenerator.
func WithIDGenerator(ids IDGenerator) Option {
	return func(m *Model) {
		m.ids = ids
	}
}

// WithLogger sets the logger used for ignored edits. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Model) {
		m.log = log
	}
}

// NewModel creates a Model over cat. A nil cat selects catalog.Default().
func NewModel(cat *catalog.Catalog, opts ...Option) *Model {
	if cat == nil {
		cat = catalog.Default()
	}
	m := &Model{
		catalog: cat,
		ids:     UUIDGenerator{},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Catalog returns the catalog the model draws defaults from.
func (m *Model) Catalog() *catalog.Catalog {
	return m.catalog
}

// DefaultCondition returns a condition with a fresh id and the catalog's
// first field, first operator and first value.
func (m *Model) DefaultCondition() Condition {
	field, op, value := m.catalog.Defaults()
	return Condition{ID: m.ids.NewID(), Field: field, Operator: op, Value: value}
}

// NewGroup returns an empty AND group with a fresh id.
func (m *Model) NewGroup() Group {
	return Group{ID: m.ids.NewID(), Logic: LogicAnd, Conditions: []Condition{}, Groups: []Group{}}
}

// NewQuery returns the initial tree: an AND root holding one default condition.
func (m *Model) NewQuery() Query {
	return Query{Logic: LogicAnd, Conditions: []Condition{m.DefaultCondition()}, Groups: []Group{}}
}

// AddCondition appends a default condition to the container at ref.
func (m *Model) AddCondition(q Query, ref Ref) Query {
	q, _ = m.addCondition(q, ref)
	return q
}

// AddGroup appends an empty AND group to the container at ref.
func (m *Model) AddGroup(q Query, ref Ref) Query {
	q, _ = m.addGroup(q, ref)
	return q
}

// UpdateCondition replaces the condition with c.ID among the direct children
// of ref.
//
// When c.Field differs from the stored field, c.Value is reset to the first
// value allowed for the new field, and c.Operator is kept only if the new
// field allows it. Otherwise operator and value must both be allowed for the
// field. Unknown fields fail with catalog.ErrUnknownField.
func (m *Model) UpdateCondition(q Query, ref Ref, c Condition) (Query, error) {
	q, _, err := m.updateCondition(q, ref, c)
	return q, err
}

// RemoveCondition removes the condition id from the direct children of ref.
// Removing the last child of the root installs a fresh default condition.
func (m *Model) RemoveCondition(q Query, ref Ref, id string) Query {
	q, _ = m.removeCondition(q, ref, id)
	return q
}

// UpdateGroup replaces the group with g.ID among the direct children of ref.
// A replacement whose logic is neither AND nor OR is rejected.
func (m *Model) UpdateGroup(q Query, ref Ref, g Group) (Query, error) {
	q, _, err := m.updateGroup(q, ref, g)
	return q, err
}

// RemoveGroup removes the group id from the direct children of ref.
// The container may become empty, the root included.
func (m *Model) RemoveGroup(q Query, ref Ref, id string) Query {
	q, _ = m.removeGroup(q, ref, id)
	return q
}

// SetLogic sets the logic of the container at ref.
func (m *Model) SetLogic(q Query, ref Ref, logic Logic) (Query, error) {
	q, _, err := m.setLogic(q, ref, logic)
	return q, err
}

// Hydrate turns an exported query back into an editable tree with fresh ids.
func (m *Model) Hydrate(clean CleanQuery) Query {
	return Hydrate(clean, m.ids)
}

func (m *Model) addCondition(q Query, ref Ref) (Query, bool) {
	return m.edit(q, ref, OpAddCondition, "", func(g Group) (Group, bool) {
		return g.WithCondition(m.DefaultCondition()), true
	})
}

func (m *Model) addGroup(q Query, ref Ref) (Query, bool) {
	return m.edit(q, ref, OpAddGroup, "", func(g Group) (Group, bool) {
		return g.WithGroup(m.NewGroup()), true
	})
}

func (m *Model) updateCondition(q Query, ref Ref, c Condition) (Query, bool, error) {
	current, ok := q.Condition(ref, c.ID)
	if !ok {
		m.ignored(OpUpdateCondition, ref, c.ID)
		return q, false, nil
	}

	c, err := m.conform(current, c)
	if err != nil {
		return q, false, &EditError{Op: OpUpdateCondition, Ref: ref, ID: c.ID, Err: err}
	}

	q, ok = m.edit(q, ref, OpUpdateCondition, c.ID, func(g Group) (Group, bool) {
		return g.ReplaceCondition(c)
	})
	return q, ok, nil
}

// conform checks next against the catalog, applying the field-change reset.
func (m *Model) conform(current, next Condition) (Condition, error) {
	if next.Field != current.Field {
		value, err := m.catalog.FirstValue(next.Field)
		if err != nil {
			return next, err
		}
		next.Value = value
		if !m.catalog.AllowsOperator(next.Field, next.Operator) {
			next.Operator, _ = m.catalog.FirstOperator(next.Field)
		}
		return next, nil
	}

	if !m.catalog.HasField(next.Field) {
		return next, fmt.Errorf("%w: %q", catalog.ErrUnknownField, next.Field)
	}
	if !m.catalog.AllowsOperator(next.Field, next.Operator) {
		return next, fmt.Errorf("%w: %q is not an operator of %q", ErrInvalidOperator, next.Operator, next.Field)
	}
	if !m.catalog.AllowsValue(next.Field, next.Value) {
		return next, fmt.Errorf("%w: %q is not a value of %q", ErrInvalidValue, next.Value, next.Field)
	}
	return next, nil
}

func (m *Model) removeCondition(q Query, ref Ref, id string) (Query, bool) {
	next, ok := m.edit(q, ref, OpRemoveCondition, id, func(g Group) (Group, bool) {
		return g.WithoutCondition(id)
	})
	if !ok || !ref.IsRoot() || !next.IsEmpty() {
		return next, ok
	}

	// The root never goes empty: replace the removed condition with a fresh
	// default one. Groups are untouched (and empty, given the guard).
	next.Conditions = []Condition{m.DefaultCondition()}
	m.log.Debug().
		Str("id", id).
		Str("replacement", next.Conditions[0].ID).
		Msg("last root condition removed; installed default condition")
	return next, true
}

func (m *Model) updateGroup(q Query, ref Ref, child Group) (Query, bool, error) {
	if !child.Logic.Valid() {
		return q, false, &EditError{Op: OpUpdateGroup, Ref: ref, ID: child.ID, Err: fmt.Errorf("%w: %q", ErrInvalidLogic, child.Logic)}
	}
	q, ok := m.edit(q, ref, OpUpdateGroup, child.ID, func(g Group) (Group, bool) {
		return g.ReplaceGroup(child)
	})
	return q, ok, nil
}

func (m *Model) removeGroup(q Query, ref Ref, id string) (Query, bool) {
	return m.edit(q, ref, OpRemoveGroup, id, func(g Group) (Group, bool) {
		return g.WithoutGroup(id)
	})
}

func (m *Model) setLogic(q Query, ref Ref, logic Logic) (Query, bool, error) {
	if !logic.Valid() {
		return q, false, &EditError{Op: OpSetLogic, Ref: ref, Err: fmt.Errorf("%w: %q", ErrInvalidLogic, logic)}
	}
	q, ok := m.edit(q, ref, OpSetLogic, "", func(g Group) (Group, bool) {
		return g.WithLogic(logic), true
	})
	return q, ok, nil
}

// edit runs fn on the container at ref and logs edits that did not resolve.
func (m *Model) edit(q Query, ref Ref, op EditOp, id string, fn func(Group) (Group, bool)) (Query, bool) {
	g, ok := editAt(q.asGroup(), ref, fn)
	if !ok {
		m.ignored(op, ref, id)
		return q, false
	}
	return queryFromGroup(g), true
}

func (m *Model) ignored(op EditOp, ref Ref, id string) {
	m.log.Debug().
		Str("op", string(op)).
		Str("ref", ref.String()).
		Str("id", id).
		Msg("edit target not found; tree unchanged")
}
