package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/abhisek/skilltrail/internal/skilltree"
	"github.com/google/uuid"
)

var nodeColumns = []string{
	"id", "goal_id", "parent_id", "label", "description", "knowledge_text",
	"detailed_knowledge_text", "status", "coverage_score", "depth", "sort_order",
	"created_at", "updated_at",
}

// NodeRepo reads and writes skill tree nodes.
type NodeRepo struct {
	q querier
}

// CreateNode inserts a node, assigning its id and timestamps.
func (r *NodeRepo) CreateNode(ctx context.Context, n skilltree.Node) (skilltree.Node, error) {
	now := time.Now().UTC()
	n.ID = uuid.NewString()
	n.CreatedAt, n.UpdatedAt = now, now

	_, err := exec(ctx, r.q, sqlb.Insert("skill_nodes").
		Columns(nodeColumns...).
		Values(n.ID, n.GoalID, nullString(n.ParentID), n.Label, n.Description, n.KnowledgeText,
			n.DetailedKnowledgeText, string(n.Status), n.CoverageScore, n.Depth, n.SortOrder,
			n.CreatedAt, n.UpdatedAt))
	if err != nil {
		return skilltree.Node{}, fmt.Errorf("insert node %q: %w", n.Label, err)
	}
	return n, nil
}

// Get returns the node with id, or ErrNotFound.
func (r *NodeRepo) Get(ctx context.Context, id string) (skilltree.Node, error) {
	row := queryRow(ctx, r.q, sqlb.Select(nodeColumns...).
		From(sqlb.Table("skill_nodes")).
		Where(entsql.EQ("id", id)))
	n, err := scanNode(row)
	if err != nil {
		return skilltree.Node{}, notFound(err)
	}
	return n, nil
}

// ListByGoal returns a goal's nodes ordered by depth, then sort order,
// then insertion.
func (r *NodeRepo) ListByGoal(ctx context.Context, goalID string) ([]skilltree.Node, error) {
	rows, err := query(ctx, r.q, sqlb.Select(nodeColumns...).
		From(sqlb.Table("skill_nodes")).
		Where(entsql.EQ("goal_id", goalID)).
		OrderBy("depth", "sort_order", "seq"))
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	return scanAll(rows, func(rows *sql.Rows) (skilltree.Node, error) { return scanNode(rows) })
}

// IDsByGoal returns the ids of a goal's nodes.
func (r *NodeRepo) IDsByGoal(ctx context.Context, goalID string) ([]string, error) {
	rows, err := query(ctx, r.q, sqlb.Select("id").
		From(sqlb.Table("skill_nodes")).
		Where(entsql.EQ("goal_id", goalID)))
	if err != nil {
		return nil, fmt.Errorf("query node ids: %w", err)
	}
	return scanAll(rows, func(rows *sql.Rows) (string, error) {
		var id string
		err := rows.Scan(&id)
		return id, err
	})
}

// SetStatus updates a node's progress status.
func (r *NodeRepo) SetStatus(ctx context.Context, id string, status skilltree.NodeStatus) error {
	return r.update(ctx, id, "status", string(status))
}

// SetCoverage writes a node's coverage score.
func (r *NodeRepo) SetCoverage(ctx context.Context, id string, score int) error {
	return r.update(ctx, id, "coverage_score", score)
}

// SetKnowledgeText writes a node's short knowledge text.
func (r *NodeRepo) SetKnowledgeText(ctx context.Context, id, text string) error {
	return r.update(ctx, id, "knowledge_text", text)
}

// SetDetailedKnowledgeText writes a node's long-form knowledge text.
func (r *NodeRepo) SetDetailedKnowledgeText(ctx context.Context, id, text string) error {
	return r.update(ctx, id, "detailed_knowledge_text", text)
}

func (r *NodeRepo) update(ctx context.Context, id, column string, value any) error {
	res, err := exec(ctx, r.q, sqlb.Update("skill_nodes").
		Set(column, value).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("update node %s: %w", column, err)
	}
	return expectRow(res)
}

// DeleteByGoal removes every node of a goal.
func (r *NodeRepo) DeleteByGoal(ctx context.Context, goalID string) (int64, error) {
	res, err := exec(ctx, r.q, sqlb.Delete("skill_nodes").Where(entsql.EQ("goal_id", goalID)))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountByGoal returns the number of nodes in a goal.
func (r *NodeRepo) CountByGoal(ctx context.Context, goalID string) (int, error) {
	var n int
	err := queryRow(ctx, r.q, sqlb.Select(entsql.Count("*")).
		From(sqlb.Table("skill_nodes")).
		Where(entsql.EQ("goal_id", goalID))).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return n, nil
}

func scanNode(s rowScanner) (skilltree.Node, error) {
	var (
		n      skilltree.Node
		parent sql.NullString
		status string
	)
	err := s.Scan(&n.ID, &n.GoalID, &parent, &n.Label, &n.Description, &n.KnowledgeText,
		&n.DetailedKnowledgeText, &status, &n.CoverageScore, &n.Depth, &n.SortOrder,
		&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return skilltree.Node{}, err
	}
	n.ParentID = stringPtr(parent)
	n.Status = skilltree.NodeStatus(status)
	return n, nil
}
