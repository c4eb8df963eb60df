package skilltree

import "time"

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalActive   GoalStatus = "active"
	GoalArchived GoalStatus = "archived"
)

// Valid reports whether s is a known goal status.
func (s GoalStatus) Valid() bool {
	return s == GoalActive || s == GoalArchived
}

// NodeStatus is the learner-controlled progress state of a node.
type NodeStatus string

const (
	StatusLocked     NodeStatus = "locked"
	StatusAvailable  NodeStatus = "available"
	StatusInProgress NodeStatus = "in_progress"
	StatusLearned    NodeStatus = "learned"
	StatusMastered   NodeStatus = "mastered"
)

// AllStatuses lists node statuses in display order.
var AllStatuses = []NodeStatus{
	StatusLocked,
	StatusAvailable,
	StatusInProgress,
	StatusLearned,
	StatusMastered,
}

// Valid reports whether s is a known node status.
func (s NodeStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Goal is a learning objective owning one skill tree.
type Goal struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      GoalStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Node is a single skill in a goal's tree.
type Node struct {
	ID                    string     `json:"id"`
	GoalID                string     `json:"goal_id"`
	ParentID              *string    `json:"parent_id"`
	Label                 string     `json:"label"`
	Description           string     `json:"description,omitempty"`
	KnowledgeText         string     `json:"knowledge_text,omitempty"`
	DetailedKnowledgeText string     `json:"detailed_knowledge_text,omitempty"`
	Status                NodeStatus `json:"status"`
	CoverageScore         int        `json:"coverage_score"`
	Depth                 int        `json:"depth"`
	SortOrder             int        `json:"sort_order"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// IsRoot reports whether the node has no parent.
func (n Node) IsRoot() bool {
	return n.ParentID == nil
}

// Covered reports whether any video maps onto the node.
func (n Node) Covered() bool {
	return n.CoverageScore > 0
}

// TreeNode is a node with its resolved children.
type TreeNode struct {
	Node
	Children []*TreeNode `json:"children"`
}

// IsLeaf reports whether the tree node has no children.
func (t *TreeNode) IsLeaf() bool {
	return len(t.Children) == 0
}
