package skilltree

import "slices"

// Build assembles a forest from a flat node list. Nodes whose parent is
// absent from the list are treated as roots, and so is the node at which a
// parent cycle closes. Siblings are ordered by SortOrder; ties keep input
// order.
func Build(nodes []Node) []*TreeNode {
	byID := make(map[string]*TreeNode, len(nodes))
	ordered := make([]*TreeNode, 0, len(nodes))
	for _, n := range nodes {
		tn := &TreeNode{Node: n, Children: []*TreeNode{}}
		byID[n.ID] = tn
		ordered = append(ordered, tn)
	}

	parents := parentLinks(ordered, byID)
	roots := []*TreeNode{}
	for _, tn := range ordered {
		if parent, ok := parents[tn.ID]; ok {
			parent.Children = append(parent.Children, tn)
			continue
		}
		roots = append(roots, tn)
	}

	sortSiblings(roots)
	return roots
}

// parentLinks resolves each node's parent within the list, dropping
// self-links and one link of every cycle so that each node is reachable
// from exactly one root.
func parentLinks(ordered []*TreeNode, byID map[string]*TreeNode) map[string]*TreeNode {
	parents := make(map[string]*TreeNode, len(ordered))
	for _, tn := range ordered {
		if tn.ParentID == nil || *tn.ParentID == tn.ID {
			continue
		}
		if parent, ok := byID[*tn.ParentID]; ok {
			parents[tn.ID] = parent
		}
	}

	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int, len(ordered))
	for _, tn := range ordered {
		var path []string
		cur := tn.ID
		for state[cur] == unvisited {
			state[cur] = onPath
			path = append(path, cur)
			parent, ok := parents[cur]
			if !ok {
				break
			}
			cur = parent.ID
		}
		if state[cur] == onPath {
			delete(parents, cur)
		}
		for _, id := range path {
			state[id] = done
		}
	}
	return parents
}

func sortSiblings(level []*TreeNode) {
	slices.SortStableFunc(level, func(a, b *TreeNode) int {
		return a.SortOrder - b.SortOrder
	})
	for _, tn := range level {
		sortSiblings(tn.Children)
	}
}

// Flatten returns every node of the forest in pre-order.
func Flatten(roots []*TreeNode) []*TreeNode {
	var out []*TreeNode
	var walk func([]*TreeNode)
	walk = func(level []*TreeNode) {
		for _, tn := range level {
			out = append(out, tn)
			walk(tn.Children)
		}
	}
	walk(roots)
	return out
}

// StatusCounts tallies leaf nodes per status.
type StatusCounts struct {
	Counts map[NodeStatus]int `json:"counts"`
	Total  int                `json:"total"`
}

// CountByStatus counts leaves only. Interior nodes are aggregates of their
// subtrees and are not tallied.
func CountByStatus(roots []*TreeNode) StatusCounts {
	sc := StatusCounts{Counts: make(map[NodeStatus]int, len(AllStatuses))}
	for _, s := range AllStatuses {
		sc.Counts[s] = 0
	}
	for _, tn := range Flatten(roots) {
		if !tn.IsLeaf() {
			continue
		}
		if _, ok := sc.Counts[tn.Status]; ok {
			sc.Counts[tn.Status]++
		}
		sc.Total++
	}
	return sc
}
