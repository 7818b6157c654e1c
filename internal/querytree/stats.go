package querytree

// Stats summarizes the size of a tree.
type Stats struct {
	Conditions int `json:"conditions" yaml:"conditions"` // all conditions, at any depth
	Groups     int `json:"groups" yaml:"groups"`         // all nested groups
	Depth      int `json:"depth" yaml:"depth"`           // 0 for a root without groups
}

// Measure walks q and counts its nodes.
func Measure(q Query) Stats {
	var s Stats
	measure(q.asGroup(), 0, &s)
	return s
}

func measure(g Group, depth int, s *Stats) {
	s.Conditions += len(g.Conditions)
	if depth > s.Depth {
		s.Depth = depth
	}
	for _, child := range g.Groups {
		s.Groups++
		measure(child, depth+1, s)
	}
}
