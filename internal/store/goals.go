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

var goalColumns = []string{"id", "title", "description", "status", "created_at", "updated_at"}

// GoalRepo reads and writes goals.
type GoalRepo struct {
	q querier
}

// Create inserts a goal, assigning its id and timestamps.
func (r *GoalRepo) Create(ctx context.Context, g skilltree.Goal) (skilltree.Goal, error) {
	now := time.Now().UTC()
	g.ID = uuid.NewString()
	g.CreatedAt, g.UpdatedAt = now, now

	_, err := exec(ctx, r.q, sqlb.Insert("goals").
		Columns(goalColumns...).
		Values(g.ID, g.Title, g.Description, string(g.Status), g.CreatedAt, g.UpdatedAt))
	if err != nil {
		return skilltree.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	return g, nil
}

// Get returns the goal with id, or ErrNotFound.
func (r *GoalRepo) Get(ctx context.Context, id string) (skilltree.Goal, error) {
	row := queryRow(ctx, r.q, sqlb.Select(goalColumns...).
		From(sqlb.Table("goals")).
		Where(entsql.EQ("id", id)))
	g, err := scanGoal(row)
	if err != nil {
		return skilltree.Goal{}, notFound(err)
	}
	return g, nil
}

// List returns goals, most recently created first. An empty status lists
// every goal.
func (r *GoalRepo) List(ctx context.Context, status skilltree.GoalStatus) ([]skilltree.Goal, error) {
	sel := sqlb.Select(goalColumns...).
		From(sqlb.Table("goals")).
		OrderBy(entsql.Desc("seq"))
	if status != "" {
		sel.Where(entsql.EQ("status", string(status)))
	}
	rows, err := query(ctx, r.q, sel)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	return scanAll(rows, func(rows *sql.Rows) (skilltree.Goal, error) { return scanGoal(rows) })
}

// Active returns the most recently created active goal, or ErrNotFound.
func (r *GoalRepo) Active(ctx context.Context) (skilltree.Goal, error) {
	row := queryRow(ctx, r.q, sqlb.Select(goalColumns...).
		From(sqlb.Table("goals")).
		Where(entsql.EQ("status", string(skilltree.GoalActive))).
		OrderBy(entsql.Desc("seq")).
		Limit(1))
	g, err := scanGoal(row)
	if err != nil {
		return skilltree.Goal{}, notFound(err)
	}
	return g, nil
}

// SetStatus updates one goal's status.
func (r *GoalRepo) SetStatus(ctx context.Context, id string, status skilltree.GoalStatus) error {
	res, err := exec(ctx, r.q, sqlb.Update("goals").
		Set("status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("update goal status: %w", err)
	}
	return expectRow(res)
}

// ArchiveOthers archives every active goal except keepID.
func (r *GoalRepo) ArchiveOthers(ctx context.Context, keepID string) (int64, error) {
	res, err := exec(ctx, r.q, sqlb.Update("goals").
		Set("status", string(skilltree.GoalArchived)).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.And(
			entsql.EQ("status", string(skilltree.GoalActive)),
			entsql.NEQ("id", keepID),
		)))
	if err != nil {
		return 0, fmt.Errorf("archive goals: %w", err)
	}
	return res.RowsAffected()
}

// Delete removes the goal row only.
func (r *GoalRepo) Delete(ctx context.Context, id string) error {
	res, err := exec(ctx, r.q, sqlb.Delete("goals").Where(entsql.EQ("id", id)))
	if err != nil {
		return err
	}
	return expectRow(res)
}

// Count returns the number of goals with status, or all goals when empty.
func (r *GoalRepo) Count(ctx context.Context, status skilltree.GoalStatus) (int, error) {
	sel := sqlb.Select(entsql.Count("*")).From(sqlb.Table("goals"))
	if status != "" {
		sel.Where(entsql.EQ("status", string(status)))
	}
	var n int
	if err := queryRow(ctx, r.q, sel).Scan(&n); err != nil {
		return 0, fmt.Errorf("count goals: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(s rowScanner) (skilltree.Goal, error) {
	var (
		g      skilltree.Goal
		status string
	)
	if err := s.Scan(&g.ID, &g.Title, &g.Description, &status, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return skilltree.Goal{}, err
	}
	g.Status = skilltree.GoalStatus(status)
	return g, nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
