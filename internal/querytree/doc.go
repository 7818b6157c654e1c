// Package querytree implements the editable AND/OR query tree.
//
// A Query is the root of the tree. It holds an ordered list of conditions
// (field/operator/value leaves) and an ordered list of groups; every Group
// holds the same two lists plus its own logic operator and id. Nesting depth
// is unbounded.
//
// # Immutable Updates
//
// Nodes are values. Every edit takes the current Query and returns a new one;
// only the containers on the path from the root to the edited container are
// copied, untouched subtrees are shared between the old and new trees. A
// caller that keeps the old Query therefore always sees the pre-edit tree,
// and one that keeps the new Query sees the whole edit.
//
// # Addressing
//
// Containers are addressed with a Ref, the path of group ids from the root.
// The empty Ref is the root. Condition and group ids are resolved among the
// container's direct children only:
//
//	q = m.AddGroup(q, querytree.Root)             // appends group "g"
//	q = m.AddCondition(q, querytree.Ref{"g"})     // appends inside "g"
//	q = m.RemoveCondition(q, querytree.Ref{"g"}, id)
//
// A target id or Ref that does not resolve is ignored. It can only come from
// a stale reference held by the presentation layer, so the edit is logged at
// debug level and the tree is returned unchanged.
//
// # Root Guard
//
// The root always holds at least one condition or group. Removing the last
// child of an otherwise empty root replaces it with a fresh default
// condition. Nested groups have no such guard and may stay empty.
//
// # Export
//
// Sanitize projects a Query onto CleanQuery, the same tree without ids. It is
// recomputed on demand and never stored on the tree.
package querytree
