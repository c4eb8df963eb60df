package skilltree

import (
	"math"
	"slices"
)

// Summary holds coverage statistics over every node of a goal.
type Summary struct {
	NodeCount      int `json:"node_count"`
	CoveredCount   int `json:"covered_count"`
	UncoveredCount int `json:"uncovered_count"`
	CoverageRate   int `json:"coverage_rate"`
}

// Summarize computes coverage statistics. CoverageRate is the rounded
// percentage of nodes with a positive coverage score.
func Summarize(nodes []Node) Summary {
	s := Summary{NodeCount: len(nodes)}
	for _, n := range nodes {
		if n.Covered() {
			s.CoveredCount++
		}
	}
	s.UncoveredCount = s.NodeCount - s.CoveredCount
	if s.NodeCount > 0 {
		s.CoverageRate = int(math.Round(float64(s.CoveredCount) / float64(s.NodeCount) * 100))
	}
	return s
}

// Gaps lists nodes no video has touched yet.
type Gaps struct {
	// Uncovered holds every zero-coverage node in tree pre-order.
	Uncovered []Node `json:"uncovered"`
	// Ready is the subset of Uncovered the learner can start now.
	Ready []Node `json:"ready"`
}

// FindGaps returns the uncovered nodes of a goal's tree.
func FindGaps(nodes []Node) Gaps {
	g := Gaps{Uncovered: []Node{}, Ready: []Node{}}
	for _, tn := range Flatten(Build(nodes)) {
		if tn.Covered() {
			continue
		}
		g.Uncovered = append(g.Uncovered, tn.Node)
		if tn.Status == StatusAvailable {
			g.Ready = append(g.Ready, tn.Node)
		}
	}
	return g
}

// Ancestors returns the chain from the root down to the parent of id.
// The chain stops early at a missing parent or a cycle.
func Ancestors(nodes []Node, id string) []Node {
	byID := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	n, ok := byID[id]
	if !ok {
		return nil
	}

	var chain []Node
	seen := map[string]bool{id: true}
	for n.ParentID != nil {
		parent, ok := byID[*n.ParentID]
		if !ok || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		chain = append(chain, parent)
		n = parent
	}
	slices.Reverse(chain)
	return chain
}

// Siblings returns the other nodes sharing id's parent, in sort order.
func Siblings(nodes []Node, id string) []Node {
	var self *Node
	for i := range nodes {
		if nodes[i].ID == id {
			self = &nodes[i]
			break
		}
	}
	if self == nil {
		return nil
	}

	var out []Node
	for _, n := range nodes {
		if n.ID == id || !sameParent(n.ParentID, self.ParentID) {
			continue
		}
		out = append(out, n)
	}
	slices.SortStableFunc(out, func(a, b Node) int { return a.SortOrder - b.SortOrder })
	return out
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// GroupByDepth buckets nodes by depth, shallowest first.
func GroupByDepth(nodes []Node) [][]Node {
	byDepth := map[int][]Node{}
	var depths []int
	for _, n := range nodes {
		if _, ok := byDepth[n.Depth]; !ok {
			depths = append(depths, n.Depth)
		}
		byDepth[n.Depth] = append(byDepth[n.Depth], n)
	}
	slices.Sort(depths)

	out := make([][]Node, 0, len(depths))
	for _, d := range depths {
		out = append(out, byDepth[d])
	}
	return out
}
