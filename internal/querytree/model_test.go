package querytree

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querybuilder/internal/catalog"
)

func newTestModel(t *testing.T, opts ...Option) *Model {
	t.Helper()
	opts = append([]Option{WithIDGenerator(NewSequenceGenerator(""))}, opts...)
	return NewModel(nil, opts...)
}

func statusOpen(id string) Condition {
	return Condition{ID: id, Field: catalog.FieldStatus, Operator: catalog.OpEquals, Value: "Open"}
}

func TestNewQuery(t *testing.T) {
	m := newTestModel(t)

	q := m.NewQuery()

	assert.Equal(t, LogicAnd, q.Logic)
	require.Len(t, q.Conditions, 1)
	assert.Equal(t, statusOpen("id-1"), q.Conditions[0])
	assert.NotNil(t, q.Groups)
	assert.Empty(t, q.Groups)
}

func TestNewModel_NilCatalogUsesDefault(t *testing.T) {
	m := NewModel(nil)
	assert.Same(t, catalog.Default(), m.Catalog())
}

func TestNewModel_DefaultGeneratorIsUUID(t *testing.T) {
	m := NewModel(nil)
	c := m.DefaultCondition()
	assert.Len(t, c.ID, 36)
}

func TestNewGroup(t *testing.T) {
	m := newTestModel(t)

	g := m.NewGroup()

	assert.Equal(t, "id-1", g.ID)
	assert.Equal(t, LogicAnd, g.Logic)
	assert.NotNil(t, g.Conditions)
	assert.NotNil(t, g.Groups)
	assert.True(t, g.IsEmpty())
}

// Root AND, add a group, add a condition inside it.
func TestScenario_NestedGroupExport(t *testing.T) {
	m := newTestModel(t)

	q := m.NewQuery()
	q = m.AddGroup(q, Root)
	require.Len(t, q.Groups, 1)
	groupID := q.Groups[0].ID
	assert.Equal(t, "id-2", groupID)

	q = m.AddCondition(q, Root.Child(groupID))
	require.Len(t, q.Groups[0].Conditions, 1)
	assert.Equal(t, "id-3", q.Groups[0].Conditions[0].ID)

	clean := Sanitize(q)
	want := CleanQuery{
		Logic: LogicAnd,
		Conditions: []CleanCondition{
			{Field: "Status", Operator: "equals", Value: "Open"},
		},
		Groups: []CleanGroup{{
			Logic: LogicAnd,
			Conditions: []CleanCondition{
				{Field: "Status", Operator: "equals", Value: "Open"},
			},
			Groups: []CleanGroup{},
		}},
	}
	assert.Equal(t, want, clean)
}

// Removing the only root condition installs a fresh default condition.
func TestScenario_RootNeverEmpty(t *testing.T) {
	m := newTestModel(t)
	q := m.NewQuery()

	q = m.RemoveCondition(q, Root, "id-1")

	require.Len(t, q.Conditions, 1)
	assert.Equal(t, statusOpen("id-2"), q.Conditions[0])
	assert.Empty(t, q.Groups)
}

// Changing the field resets the value to the new field's first value.
func TestScenario_FieldChangeResetsValue(t *testing.T) {
	m := newTestModel(t)
	q := Query{
		Logic:      LogicAnd,
		Conditions: []Condition{{ID: "c1", Field: "Priority", Operator: "equals", Value: "High"}},
		Groups:     []Group{},
	}

	q, err := m.UpdateCondition(q, Root, Condition{ID: "c1", Field: "Category", Operator: "equals", Value: "High"})
	require.NoError(t, err)

	assert.Equal(t, Condition{ID: "c1", Field: "Category", Operator: "equals", Value: "Bug"}, q.Conditions[0])
}

func TestUpdateCondition_FieldChangeResetsUnsupportedOperator(t *testing.T) {
	cat := catalog.MustNew(
		catalog.Field{Name: "Severity", Operators: []string{"equals", "not equals"}, Values: []string{"S1", "S2"}},
		catalog.Field{Name: "Owner", Operators: []string{"is"}, Values: []string{"Team Red"}},
	)
	m := NewModel(cat, WithIDGenerator(NewSequenceGenerator("")))
	q := m.NewQuery()
	c := q.Conditions[0]
	c.Operator = "not equals"
	q, err := m.UpdateCondition(q, Root, c)
	require.NoError(t, err)

	c.Field = "Owner"
	q, err = m.UpdateCondition(q, Root, c)
	require.NoError(t, err)

	assert.Equal(t, Condition{ID: "id-1", Field: "Owner", Operator: "is", Value: "Team Red"}, q.Conditions[0])
}

func TestUpdateCondition_SameFieldKeepsOperatorAndValue(t *testing.T) {
	m := newTestModel(t)
	q := m.NewQuery()

	q, err := m.UpdateCondition(q, Root, Condition{ID: "id-1", Field: "Status", Operator: "contains", Value: "Closed"})
	require.NoError(t, err)

	assert.Equal(t, Condition{ID: "id-1", Field: "Status", Operator: "contains", Value: "Closed"}, q.Conditions[0])
}

func TestUpdateCondition_Rejections(t *testing.T) {
	tests := []struct {
		name string
		c    Condition
		want error
	}{
		{"unknown field", Condition{ID: "id-1", Field: "Colour", Operator: "equals", Value: "Red"}, catalog.ErrUnknownField},
		{"invalid operator", Condition{ID: "id-1", Field: "Status", Operator: "matches", Value: "Open"}, ErrInvalidOperator},
		{"invalid value", Condition{ID: "id-1", Field: "Status", Operator: "equals", Value: "Reopened"}, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t)
			q := m.NewQuery()

			next, err := m.UpdateCondition(q, Root, tt.c)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			var editErr *EditError
			require.ErrorAs(t, err, &editErr)
			assert.Equal(t, OpUpdateCondition, editErr.Op)
			assert.Equal(t, q, next, "rejected edit leaves the tree unchanged")
		})
	}
}

func TestUpdateCondition_UnknownIDIsNoOp(t *testing.T) {
	m := newTestModel(t)
	q := m.NewQuery()

	next, err := m.UpdateCondition(q, Root, Condition{ID: "missing", Field: "Priority", Operator: "equals", Value: "Low"})

	require.NoError(t, err)
	assert.Equal(t, q, next)
}

func TestUpdateCondition_OnlyDirectChildren(t *testing.T) {
	m := newTestModel(t)
	q := m.NewQuery()
	q = m.AddGroup(q, Root)
	q = m.AddCondition(q, Root.Child("id-2"))

	// id-3 lives in id-2, not in the root.
	next, err := m.UpdateCondition(q, Root, Condition{ID: "id-3", Field: "Status", Operator: "equals", Value: "Closed"})
	require.NoError(t, err)
	assert.Equal(t, q, next)

	next, err = m.UpdateCondition(q, Root.Child("id-2"), Condition{ID: "id-3", Field: "Status", Operator: "equals", Value: "Closed"})
	require.NoError(t, err)
	assert.Equal(t, "Closed", next.Groups[0].Conditions[0].Value)
	assert.Equal(t, "Open", next.Conditions[0].Value)
}

func TestRemoveCondition_KeepsOtherConditions(t *testing.T) {
	m := newTestModel(t)
	q := m.NewQuery()
	q = m.AddCondition(q, Root)
	q = m.AddCondition(q, Root)

	q = m.RemoveCondition(q, Root, "id-2")

	require.Len(t, q.Conditions, 2)
	assert.Equal(t, "id-1", q.Conditions[0].ID)
	assert.Equal(t, "id-3", q.Conditions[1].ID)
}

func TestRemoveCondition_RootStaysNonEmptyOneByOne(t *testing.T) {
	m := newTestModel(t)
	q := m.NewQuery()
	for range 4 {
		q = m.AddCondition(q, Root)
	}

	ids := make([]string, len(q.Conditions))
	for i, c := range q.Conditions {
		ids[i] = c.ID
	}
	for _, id := range ids {
		q = m.RemoveCondition(q, Root, id)
		require.False(t, q.IsEmpty(), "root empty after removing %s", id)
		_, still := q.Condition(Root, id)
		assert.False(t, still, "%s not removed", id)
	}

	require.Len(t, q.Conditions, 1)
	assert.Equal(t, statusOpen("id-6"), q.Conditions[0])
}

// Removing the node an add just created restores the previous size.
func TestAddThenRemove_RestoresSize(t *testing.T) {
	nested := Root.Child("id-2")

	tests := []struct {
		name  string
		ref   Ref
		group bool
	}{
		{"root condition", Root, false},
		{"root group", Root, true},
		{"nested condition", nested, false},
		{"nested group", nested, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t)
			before := m.AddGroup(m.NewQuery(), Root)
			container, ok := before.Container(tt.ref)
			require.True(t, ok)
			conditions, groups := len(container.Conditions), len(container.Groups)

			var after Query
			if tt.group {
				added := m.AddGroup(before, tt.ref)
				g, ok := added.Container(tt.ref)
				require.True(t, ok)
				require.Len(t, g.Groups, groups+1)
				after = m.RemoveGroup(added, tt.ref, g.Groups[groups].ID)
			} else {
				added := m.AddCondition(before, tt.ref)
				g, ok := added.Container(tt.ref)
				require.True(t, ok)
				require.Len(t, g.Conditions, conditions+1)
				after = m.RemoveCondition(added, tt.ref, g.Conditions[conditions].ID)
			}

			assert.Equal(t, Measure(before), Measure(after))
			g, ok := after.Container(tt.ref)
			require.True(t, ok)
			assert.Len(t, g.Conditions, conditions)
			assert.Len(t, g.Groups, groups)
		})
	}
}

func TestRemoveCondition_RootWithGroupMayLoseAllConditions(t *testing.T) {
	m := newTestModel(t)
	q := m.NewQuery()
	q = m.AddGroup(q, Root)

	q = m.RemoveCondition(q, Root, "id-1")

	assert.Empty(t, q.Conditions)
	require.Len(t, q.Groups, 1)
}

func TestRemoveCondition_NestedGroupMayBecomeEmpty(t *testing.T) {
	m := newTestModel(t)
	q := m.NewQuery()
	q = m.AddGroup(q, Root)
	q = m.AddCondition(q, Root.Child("id-2"))

	q = m.RemoveCondition(q, Root.Child("id-2"), "id-3")

	require.Len(t, q.Groups, 1)
	assert.True(t, q.Groups[0].IsEmpty())
	assert.NotNil(t, q.Groups[0].Conditions)
}

func TestRemoveGroup_RootMayBecomeEmpty(t *testing.T) {
	m := newTestModel(t)
	q := m.NewQuery()
	q = m.AddGroup(q, Root)
	q = m.RemoveCondition(q, Root, "id-1")

	q = m.RemoveGroup(q, Root, "id-2")

	assert.True(t, q.IsEmpty())
}

func TestRemoveGroup_Nested(t *testing.T) {
	m := newTestModel(t)
	q := m.NewQuery()
	q = m.AddGroup(q, Root)
	q = m.AddGroup(q, Root.Child("id-2"))
	q = m.AddGroup(q, Root.Child("id-2"))

	q = m.RemoveGroup(q, Root.Child("id-2"), "id-3")

	require.Len(t, q.Groups[0].Groups, 1)
	assert.Equal(t, "id-4", q.Groups[0].Groups[0].ID)
}

func TestUpdateGroup(t *testing.T) {
	m := newTestModel(t)
	q := m.NewQuery()
	q = m.AddGroup(q, Root)
	g, ok := q.Group(Root, "id-2")
	require.True(t, ok)

	q, err := m.UpdateGroup(q, Root, g.WithLogic(LogicOr))
	require.NoError(t, err)

	assert.Equal(t, LogicOr, q.Groups[0].Logic)
	assert.Equal(t, LogicAnd, q.Logic)
}

func TestUpdateGroup_RejectsInvalidLogic(t *testing.T) {
	m := newTestModel(t)
	q := m.AddGroup(m.NewQuery(), Root)
	g, ok := q.Group(Root, "id-2")
	require.True(t, ok)

	for _, logic := range []Logic{"", "XOR", "and"} {
		t.Run(string(logic), func(t *testing.T) {
			next, err := m.UpdateGroup(q, Root, g.WithLogic(logic))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidLogic)

			var editErr *EditError
			require.ErrorAs(t, err, &editErr)
			assert.Equal(t, OpUpdateGroup, editErr.Op)
			assert.Equal(t, "id-2", editErr.ID)
			assert.Equal(t, q, next)
		})
	}
}

func TestSetLogic(t *testing.T) {
	m := newTestModel(t)
	q := m.NewQuery()
	q = m.AddGroup(q, Root)

	q, err := m.SetLogic(q, Root, LogicOr)
	require.NoError(t, err)
	assert.Equal(t, LogicOr, q.Logic)
	assert.Equal(t, LogicAnd, q.Groups[0].Logic, "children keep their own logic")

	q, err = m.SetLogic(q, Root.Child("id-2"), LogicOr)
	require.NoError(t, err)
	assert.Equal(t, LogicOr, q.Groups[0].Logic)
}

func TestSetLogic_Invalid(t *testing.T) {
	m := newTestModel(t)
	q := m.NewQuery()

	next, err := m.SetLogic(q, Root, Logic("XOR"))

	assert.ErrorIs(t, err, ErrInvalidLogic)
	assert.Equal(t, q, next)
}

func TestEdits_StaleRefIsNoOp(t *testing.T) {
	m := newTestModel(t)
	q := m.NewQuery()
	q = m.AddGroup(q, Root)
	stale := Root.Child("id-2")
	q = m.RemoveGroup(q, Root, "id-2")

	assert.Equal(t, q, m.AddCondition(q, stale))
	assert.Equal(t, q, m.AddGroup(q, stale))
	assert.Equal(t, q, m.RemoveCondition(q, stale, "id-1"))
	assert.Equal(t, q, m.RemoveGroup(q, stale, "id-2"))
	next, err := m.SetLogic(q, stale, LogicOr)
	require.NoError(t, err)
	assert.Equal(t, q, next)
}

func TestEdits_NotFoundIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	m := newTestModel(t, WithLogger(log))
	q := m.NewQuery()

	m.RemoveCondition(q, Root.Child("ghost"), "id-1")

	assert.Contains(t, buf.String(), `"op":"remove_condition"`)
	assert.Contains(t, buf.String(), `"ref":"root/ghost"`)
	assert.Contains(t, buf.String(), "edit target not found")
}

func TestEdits_DoNotMutateInput(t *testing.T) {
	m := newTestModel(t)
	q := m.NewQuery()
	q = m.AddGroup(q, Root)
	q = m.AddCondition(q, Root.Child("id-2"))
	before := Sanitize(q)
	beforeIDs := q.Groups[0].Conditions[0].ID

	_ = m.AddCondition(q, Root.Child("id-2"))
	_ = m.RemoveCondition(q, Root.Child("id-2"), "id-3")
	_, _ = m.SetLogic(q, Root.Child("id-2"), LogicOr)
	_, _ = m.UpdateCondition(q, Root.Child("id-2"), Condition{ID: "id-3", Field: "Priority", Operator: "equals", Value: "Low"})

	assert.Equal(t, before, Sanitize(q))
	assert.Equal(t, beforeIDs, q.Groups[0].Conditions[0].ID)
}

func TestEdits_StructuralSharing(t *testing.T) {
	m := newTestModel(t)
	q := m.NewQuery()
	q = m.AddGroup(q, Root) // id-2
	q = m.AddGroup(q, Root) // id-3
	q = m.AddCondition(q, Root.Child("id-2"))
	q = m.AddCondition(q, Root.Child("id-3"))

	next := m.AddCondition(q, Root.Child("id-2"))

	// The untouched sibling still shares its backing array.
	assert.Same(t, &q.Groups[1].Conditions[0], &next.Groups[1].Conditions[0])
	// The edited path was copied.
	assert.NotSame(t, &q.Groups[0].Conditions[0], &next.Groups[0].Conditions[0])
	assert.Same(t, &q.Conditions[0], &next.Conditions[0])
}

func TestEdits_IDsAreUnique(t *testing.T) {
	m := NewModel(nil)
	q := m.NewQuery()
	for i := 0; i < 5; i++ {
		q = m.AddCondition(q, Root)
		q = m.AddGroup(q, Root)
	}
	for _, g := range q.Groups {
		q = m.AddCondition(q, Root.Child(g.ID))
	}

	result := Validate(q, m.Catalog())
	assert.True(t, result.Valid, "issues: %v", result.Issues)
}

func TestModelHydrate(t *testing.T) {
	m := newTestModel(t)
	clean := CleanQuery{
		Logic:      LogicOr,
		Conditions: []CleanCondition{{Field: "Priority", Operator: "equals", Value: "High"}},
		Groups:     []CleanGroup{{Logic: LogicAnd, Conditions: []CleanCondition{}, Groups: []CleanGroup{}}},
	}

	q := m.Hydrate(clean)

	assert.Equal(t, "id-1", q.Conditions[0].ID)
	assert.Equal(t, "id-2", q.Groups[0].ID)
	assert.Equal(t, clean, Sanitize(q))
}
