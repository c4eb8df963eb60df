package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// NodeMapping links a video to a node it teaches.
type NodeMapping struct {
	ID             string    `json:"id"`
	VideoID        string    `json:"video_id"`
	NodeID         string    `json:"node_id"`
	RelevanceScore int       `json:"relevance_score"`
	TimestampStart *string   `json:"timestamp_start,omitempty"`
	TimestampEnd   *string   `json:"timestamp_end,omitempty"`
	CoverageDetail string    `json:"coverage_detail"`
	CreatedAt      time.Time `json:"created_at"`
}

var mappingColumns = []string{
	"id", "video_id", "node_id", "relevance_score", "timestamp_start", "timestamp_end",
	"coverage_detail", "created_at",
}

// MappingRepo reads and writes video-to-node mappings.
type MappingRepo struct {
	q querier
}

// Create inserts a mapping.
func (r *MappingRepo) Create(ctx context.Context, m NodeMapping) (NodeMapping, error) {
	m.ID = uuid.NewString()
	m.CreatedAt = time.Now().UTC()
	_, err := exec(ctx, r.q, sqlb.Insert("video_node_mappings").
		Columns(mappingColumns...).
		Values(m.ID, m.VideoID, m.NodeID, m.RelevanceScore, nullString(m.TimestampStart),
			nullString(m.TimestampEnd), m.CoverageDetail, m.CreatedAt))
	if err != nil {
		return NodeMapping{}, fmt.Errorf("insert mapping: %w", err)
	}
	return m, nil
}

// ListByVideo returns a video's mappings in insertion order.
func (r *MappingRepo) ListByVideo(ctx context.Context, videoID string) ([]NodeMapping, error) {
	return r.list(ctx, entsql.EQ("video_id", videoID))
}

// ListByNode returns a node's mappings in insertion order.
func (r *MappingRepo) ListByNode(ctx context.Context, nodeID string) ([]NodeMapping, error) {
	return r.list(ctx, entsql.EQ("node_id", nodeID))
}

func (r *MappingRepo) list(ctx context.Context, pred *entsql.Predicate) ([]NodeMapping, error) {
	rows, err := query(ctx, r.q, sqlb.Select(mappingColumns...).
		From(sqlb.Table("video_node_mappings")).
		Where(pred).
		OrderBy("seq"))
	if err != nil {
		return nil, fmt.Errorf("query mappings: %w", err)
	}
	return scanAll(rows, scanMapping)
}

// NodeIDsByVideo returns the distinct nodes a video maps onto.
func (r *MappingRepo) NodeIDsByVideo(ctx context.Context, videoID string) ([]string, error) {
	rows, err := query(ctx, r.q, sqlb.Select("node_id").
		Distinct().
		From(sqlb.Table("video_node_mappings")).
		Where(entsql.EQ("video_id", videoID)))
	if err != nil {
		return nil, fmt.Errorf("query mapped nodes: %w", err)
	}
	return scanAll(rows, func(rows *sql.Rows) (string, error) {
		var id string
		err := rows.Scan(&id)
		return id, err
	})
}

// MaxRelevance returns the highest relevance score mapped onto a node, or
// 0 when none remain.
func (r *MappingRepo) MaxRelevance(ctx context.Context, nodeID string) (int, error) {
	var max sql.NullInt64
	err := queryRow(ctx, r.q, sqlb.Select(entsql.Max("relevance_score")).
		From(sqlb.Table("video_node_mappings")).
		Where(entsql.EQ("node_id", nodeID))).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max relevance: %w", err)
	}
	return int(max.Int64), nil
}

// DeleteByVideo removes a video's mappings.
func (r *MappingRepo) DeleteByVideo(ctx context.Context, videoID string) (int64, error) {
	res, err := exec(ctx, r.q, sqlb.Delete("video_node_mappings").Where(entsql.EQ("video_id", videoID)))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByGoal removes every mapping that targets one of a goal's nodes.
func (r *MappingRepo) DeleteByGoal(ctx context.Context, goalID string) (int64, error) {
	nodes := sqlb.Select("id").
		From(sqlb.Table("skill_nodes")).
		Where(entsql.EQ("goal_id", goalID))
	res, err := exec(ctx, r.q, sqlb.Delete("video_node_mappings").Where(entsql.In("node_id", nodes)))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanMapping(rows *sql.Rows) (NodeMapping, error) {
	var (
		m          NodeMapping
		start, end sql.NullString
	)
	err := rows.Scan(&m.ID, &m.VideoID, &m.NodeID, &m.RelevanceScore, &start, &end, &m.CoverageDetail, &m.CreatedAt)
	if err != nil {
		return NodeMapping{}, err
	}
	m.TimestampStart = stringPtr(start)
	m.TimestampEnd = stringPtr(end)
	return m, nil
}
