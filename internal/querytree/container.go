package querytree

import "slices"

// Container edits. Each operates on the receiver's direct children only and
// returns a new value; the receiver and its slices are never written to.

// WithCondition appends c.
func (g Group) WithCondition(c Condition) Group {
	g.Conditions = appendCopy(g.Conditions, c)
	return g
}

// WithGroup appends child.
func (g Group) WithGroup(child Group) Group {
	g.Groups = appendCopy(g.Groups, child)
	return g
}

// ReplaceCondition swaps in c for the direct child condition with c.ID.
// It reports false, and returns g unchanged, when there is no such child.
func (g Group) ReplaceCondition(c Condition) (Group, bool) {
	i := indexCondition(g.Conditions, c.ID)
	if i < 0 {
		return g, false
	}
	conditions := slices.Clone(g.Conditions)
	conditions[i] = c
	g.Conditions = conditions
	return g, true
}

// ReplaceGroup swaps in child for the direct child group with child.ID.
func (g Group) ReplaceGroup(child Group) (Group, bool) {
	i := indexGroup(g.Groups, child.ID)
	if i < 0 {
		return g, false
	}
	groups := slices.Clone(g.Groups)
	groups[i] = child
	g.Groups = groups
	return g, true
}

// WithoutCondition removes the direct child condition with id.
func (g Group) WithoutCondition(id string) (Group, bool) {
	if indexCondition(g.Conditions, id) < 0 {
		return g, false
	}
	g.Conditions = slices.DeleteFunc(slices.Clone(g.Conditions), func(c Condition) bool {
		return c.ID == id
	})
	return g, true
}

// WithoutGroup removes the direct child group with id.
func (g Group) WithoutGroup(id string) (Group, bool) {
	if indexGroup(g.Groups, id) < 0 {
		return g, false
	}
	g.Groups = slices.DeleteFunc(slices.Clone(g.Groups), func(child Group) bool {
		return child.ID == id
	})
	return g, true
}

// WithLogic sets the group's logic. Children are not affected.
func (g Group) WithLogic(l Logic) Group {
	g.Logic = l
	return g
}

// Condition returns the direct child condition with id.
func (g Group) Condition(id string) (Condition, bool) {
	i := indexCondition(g.Conditions, id)
	if i < 0 {
		return Condition{}, false
	}
	return g.Conditions[i], true
}

// Child returns the direct child group with id.
func (g Group) Child(id string) (Group, bool) {
	i := indexGroup(g.Groups, id)
	if i < 0 {
		return Group{}, false
	}
	return g.Groups[i], true
}

// Root-level equivalents. The root guard is not applied here; it lives in
// Model.RemoveCondition, which also knows how to build a default condition.

// WithCondition appends c to the root.
func (q Query) WithCondition(c Condition) Query {
	return queryFromGroup(q.asGroup().WithCondition(c))
}

// WithGroup appends child to the root.
func (q Query) WithGroup(child Group) Query {
	return queryFromGroup(q.asGroup().WithGroup(child))
}

// ReplaceCondition swaps in c for the root condition with c.ID.
func (q Query) ReplaceCondition(c Condition) (Query, bool) {
	g, ok := q.asGroup().ReplaceCondition(c)
	return queryFromGroup(g), ok
}

// ReplaceGroup swaps in child for the root group with child.ID.
func (q Query) ReplaceGroup(child Group) (Query, bool) {
	g, ok := q.asGroup().ReplaceGroup(child)
	return queryFromGroup(g), ok
}

// WithoutCondition removes the root condition with id.
func (q Query) WithoutCondition(id string) (Query, bool) {
	g, ok := q.asGroup().WithoutCondition(id)
	return queryFromGroup(g), ok
}

// WithoutGroup removes the root group with id.
func (q Query) WithoutGroup(id string) (Query, bool) {
	g, ok := q.asGroup().WithoutGroup(id)
	return queryFromGroup(g), ok
}

// WithLogic sets the root logic.
func (q Query) WithLogic(l Logic) Query {
	q.Logic = l
	return q
}

// Container resolves ref to a read-only view of the container it names.
// The root is returned as a Group with an empty ID.
func (q Query) Container(ref Ref) (Group, bool) {
	g := q.asGroup()
	for _, id := range ref {
		child, ok := g.Child(id)
		if !ok {
			return Group{}, false
		}
		g = child
	}
	return g, true
}

// Condition resolves the condition id among the direct children of ref.
func (q Query) Condition(ref Ref, id string) (Condition, bool) {
	g, ok := q.Container(ref)
	if !ok {
		return Condition{}, false
	}
	return g.Condition(id)
}

// Group resolves the group id among the direct children of ref.
func (q Query) Group(ref Ref, id string) (Group, bool) {
	g, ok := q.Container(ref)
	if !ok {
		return Group{}, false
	}
	return g.Child(id)
}

// editAt rebuilds the path to ref and applies fn to the container it names.
// Each level only locates its direct child and delegates the rest of the
// path to it. When the path or fn fails, g is returned as is.
func editAt(g Group, ref Ref, fn func(Group) (Group, bool)) (Group, bool) {
	if ref.IsRoot() {
		return fn(g)
	}
	i := indexGroup(g.Groups, ref[0])
	if i < 0 {
		return g, false
	}
	child, ok := editAt(g.Groups[i], ref[1:], fn)
	if !ok {
		return g, false
	}
	groups := slices.Clone(g.Groups)
	groups[i] = child
	g.Groups = groups
	return g, true
}

func appendCopy[T any](s []T, v T) []T {
	out := make([]T, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}

func indexCondition(conditions []Condition, id string) int {
	return slices.IndexFunc(conditions, func(c Condition) bool { return c.ID == id })
}

func indexGroup(groups []Group, id string) int {
	return slices.IndexFunc(groups, func(g Group) bool { return g.ID == id })
}
