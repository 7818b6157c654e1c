package querytree

// CleanCondition is a Condition without its id.
type CleanCondition struct {
	Field    string `json:"field" yaml:"field"`
	Operator string `json:"operator" yaml:"operator"`
	Value    string `json:"value" yaml:"value"`
}

// CleanGroup is a Group without ids anywhere in its subtree.
type CleanGroup struct {
	Logic      Logic            `json:"logic" yaml:"logic"`
	Conditions []CleanCondition `json:"conditions" yaml:"conditions"`
	Groups     []CleanGroup     `json:"groups" yaml:"groups"`
}

// CleanQuery is the exported form of a Query.
// Field order fixes the rendered key order: logic, conditions, groups.
type CleanQuery struct {
	Logic      Logic            `json:"logic" yaml:"logic"`
	Conditions []CleanCondition `json:"conditions" yaml:"conditions"`
	Groups     []CleanGroup     `json:"groups" yaml:"groups"`
}

// Sanitize projects q onto its exported form. Order is preserved and empty
// lists come out as empty, non-nil slices.
func Sanitize(q Query) CleanQuery {
	return CleanQuery{
		Logic:      q.Logic,
		Conditions: sanitizeConditions(q.Conditions),
		Groups:     sanitizeGroups(q.Groups),
	}
}

// SanitizeGroup projects g onto its exported form.
func SanitizeGroup(g Group) CleanGroup {
	return CleanGroup{
		Logic:      g.Logic,
		Conditions: sanitizeConditions(g.Conditions),
		Groups:     sanitizeGroups(g.Groups),
	}
}

// SanitizeCondition drops the id of c.
func SanitizeCondition(c Condition) CleanCondition {
	return CleanCondition{Field: c.Field, Operator: c.Operator, Value: c.Value}
}

func sanitizeConditions(conditions []Condition) []CleanCondition {
	out := make([]CleanCondition, len(conditions))
	for i, c := range conditions {
		out[i] = SanitizeCondition(c)
	}
	return out
}

func sanitizeGroups(groups []Group) []CleanGroup {
	out := make([]CleanGroup, len(groups))
	for i, g := range groups {
		out[i] = SanitizeGroup(g)
	}
	return out
}

// Hydrate rebuilds an editable tree from an exported one, drawing a fresh id
// for every node. Ids are assigned container by container: the conditions
// first, then each group followed by its own subtree.
func Hydrate(clean CleanQuery, ids IDGenerator) Query {
	g := hydrateGroup(CleanGroup(clean), "", ids)
	return queryFromGroup(g)
}

func hydrateGroup(clean CleanGroup, id string, ids IDGenerator) Group {
	g := Group{
		ID:         id,
		Logic:      clean.Logic,
		Conditions: make([]Condition, len(clean.Conditions)),
		Groups:     make([]Group, len(clean.Groups)),
	}
	for i, c := range clean.Conditions {
		g.Conditions[i] = Condition{ID: ids.NewID(), Field: c.Field, Operator: c.Operator, Value: c.Value}
	}
	for i, child := range clean.Groups {
		g.Groups[i] = hydrateGroup(child, ids.NewID(), ids)
	}
	return g
}
