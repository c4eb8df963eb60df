package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// Role is a conversation turn's author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation is one turn of the goal-setting dialogue.
type Conversation struct {
	ID                  string    `json:"id"`
	GoalID              string    `json:"goal_id"`
	Role                Role      `json:"role"`
	Content             string    `json:"content"`
	TriggeredTreeUpdate bool      `json:"triggered_tree_update"`
	CreatedAt           time.Time `json:"created_at"`
}

var conversationColumns = []string{"id", "goal_id", "role", "content", "triggered_tree_update", "created_at"}

// ConversationRepo stores the goal-setting dialogue.
type ConversationRepo struct {
	q querier
}

// Append records a turn.
func (r *ConversationRepo) Append(ctx context.Context, c Conversation) (Conversation, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	_, err := exec(ctx, r.q, sqlb.Insert("goal_conversations").
		Columns(conversationColumns...).
		Values(c.ID, c.GoalID, string(c.Role), c.Content, c.TriggeredTreeUpdate, c.CreatedAt))
	if err != nil {
		return Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}
	return c, nil
}

// ListByGoal returns a goal's turns in chronological order.
func (r *ConversationRepo) ListByGoal(ctx context.Context, goalID string) ([]Conversation, error) {
	rows, err := query(ctx, r.q, sqlb.Select(conversationColumns...).
		From(sqlb.Table("goal_conversations")).
		Where(entsql.EQ("goal_id", goalID)).
		OrderBy("seq"))
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	return scanAll(rows, scanConversation)
}

// Recent returns the last n turns of a goal in chronological order.
func (r *ConversationRepo) Recent(ctx context.Context, goalID string, n int) ([]Conversation, error) {
	rows, err := query(ctx, r.q, sqlb.Select(conversationColumns...).
		From(sqlb.Table("goal_conversations")).
		Where(entsql.EQ("goal_id", goalID)).
		OrderBy(entsql.Desc("seq")).
		Limit(n))
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	out, err := scanAll(rows, scanConversation)
	if err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

// DeleteByGoal removes every turn of a goal.
func (r *ConversationRepo) DeleteByGoal(ctx context.Context, goalID string) (int64, error) {
	res, err := exec(ctx, r.q, sqlb.Delete("goal_conversations").Where(entsql.EQ("goal_id", goalID)))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanConversation(rows *sql.Rows) (Conversation, error) {
	var (
		c    Conversation
		role string
	)
	if err := rows.Scan(&c.ID, &c.GoalID, &role, &c.Content, &c.TriggeredTreeUpdate, &c.CreatedAt); err != nil {
		return Conversation{}, err
	}
	c.Role = Role(role)
	return c, nil
}
