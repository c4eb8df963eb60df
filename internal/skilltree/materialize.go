package skilltree

import (
	"context"
	"slices"
)

// ProposedNode is a node as proposed by the tree generator, identified by a
// temporary id that is only meaningful within one batch.
type ProposedNode struct {
	TempID        string  `json:"temp_id"`
	ParentTempID  *string `json:"parent_temp_id"`
	Label         string  `json:"label"`
	KnowledgeText string  `json:"knowledge_text"`
	Depth         int     `json:"depth"`
	SortOrder     int     `json:"sort_order"`
}

// NodeCreator persists a node and returns it with its assigned id.
type NodeCreator interface {
	CreateNode(ctx context.Context, n Node) (Node, error)
}

// Failure records a proposed node that could not be persisted.
type Failure struct {
	TempID string
	Label  string
	Err    error
}

// MaterializeResult reports the outcome of a batch.
type MaterializeResult struct {
	Created  []Node
	Failures []Failure
	// IDs maps temp ids to assigned ids for every created node.
	IDs map[string]string
}

// Materialize persists a batch of proposed nodes for goalID.
//
// Nodes are inserted shallowest first so a parent is always persisted
// before its children, regardless of input order. A parent reference that
// does not resolve within the batch (unknown temp id, or a parent whose
// insert failed) yields a root. Individual insert failures are collected
// and never abort the batch.
func Materialize(ctx context.Context, goalID string, proposed []ProposedNode, c NodeCreator) MaterializeResult {
	ordered := slices.Clone(proposed)
	slices.SortStableFunc(ordered, func(a, b ProposedNode) int { return a.Depth - b.Depth })

	res := MaterializeResult{IDs: make(map[string]string, len(ordered))}
	depths := make(map[string]int, len(ordered))

	for _, p := range ordered {
		if err := ctx.Err(); err != nil {
			res.Failures = append(res.Failures, Failure{TempID: p.TempID, Label: p.Label, Err: err})
			continue
		}

		n := Node{
			GoalID:        goalID,
			Label:         p.Label,
			KnowledgeText: p.KnowledgeText,
			Status:        StatusAvailable,
			SortOrder:     p.SortOrder,
		}
		if p.Depth == 0 {
			n.Status = StatusInProgress
		}
		if p.ParentTempID != nil {
			if parentID, ok := res.IDs[*p.ParentTempID]; ok {
				n.ParentID = &parentID
				n.Depth = depths[parentID] + 1
			}
		}

		created, err := c.CreateNode(ctx, n)
		if err != nil {
			res.Failures = append(res.Failures, Failure{TempID: p.TempID, Label: p.Label, Err: err})
			continue
		}
		if _, dup := res.IDs[p.TempID]; !dup {
			res.IDs[p.TempID] = created.ID
		}
		depths[created.ID] = created.Depth
		res.Created = append(res.Created, created)
	}

	return res
}
