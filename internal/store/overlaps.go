package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// OverlapTopic is one topic two videos share.
type OverlapTopic struct {
	Topic         string  `json:"topic"`
	VideoASection *string `json:"video_a_section,omitempty"`
	VideoBSection *string `json:"video_b_section,omitempty"`
}

// Overlap records topic overlap between two videos. VideoAID is always
// lexically smaller than VideoBID.
type Overlap struct {
	ID                string         `json:"id"`
	VideoAID          string         `json:"video_a_id"`
	VideoBID          string         `json:"video_b_id"`
	OverlapScore      int            `json:"overlap_score"`
	OverlappingTopics []OverlapTopic `json:"overlapping_topics"`
	Recommendation    string         `json:"recommendation,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// CanonicalPair orders two video ids the way overlaps are stored.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

var overlapColumns = []string{"id", "video_a_id", "video_b_id", "overlap_score", "overlapping_topics", "recommendation", "created_at"}

// OverlapRepo reads and writes video overlaps.
type OverlapRepo struct {
	q querier
}

// Create inserts an overlap for the canonical pair unless one already
// exists. The returned bool reports whether a row was inserted.
func (r *OverlapRepo) Create(ctx context.Context, o Overlap) (Overlap, bool, error) {
	if a, b := CanonicalPair(o.VideoAID, o.VideoBID); a != o.VideoAID {
		o.VideoAID, o.VideoBID = a, b
		// Sections follow their video.
		o.OverlappingTopics = slices.Clone(o.OverlappingTopics)
		for i := range o.OverlappingTopics {
			t := &o.OverlappingTopics[i]
			t.VideoASection, t.VideoBSection = t.VideoBSection, t.VideoASection
		}
	}
	o.ID = uuid.NewString()
	o.CreatedAt = time.Now().UTC()
	if o.OverlappingTopics == nil {
		o.OverlappingTopics = []OverlapTopic{}
	}
	topics, err := json.Marshal(o.OverlappingTopics)
	if err != nil {
		return Overlap{}, false, fmt.Errorf("encode topics: %w", err)
	}

	res, err := exec(ctx, r.q, sqlb.Insert("video_overlaps").
		Columns(overlapColumns...).
		Values(o.ID, o.VideoAID, o.VideoBID, o.OverlapScore, string(topics), o.Recommendation, o.CreatedAt).
		OnConflict(
			entsql.ConflictColumns("video_a_id", "video_b_id"),
			entsql.DoNothing(),
		))
	if err != nil {
		return Overlap{}, false, fmt.Errorf("insert overlap: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Overlap{}, false, err
	}
	return o, n > 0, nil
}

// Exists reports whether an overlap is recorded for the pair, in either
// order.
func (r *OverlapRepo) Exists(ctx context.Context, videoA, videoB string) (bool, error) {
	a, b := CanonicalPair(videoA, videoB)
	var n int
	err := queryRow(ctx, r.q, sqlb.Select(entsql.Count("*")).
		From(sqlb.Table("video_overlaps")).
		Where(entsql.And(entsql.EQ("video_a_id", a), entsql.EQ("video_b_id", b)))).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check overlap: %w", err)
	}
	return n > 0, nil
}

// List returns every overlap, highest score first.
func (r *OverlapRepo) List(ctx context.Context) ([]Overlap, error) {
	rows, err := query(ctx, r.q, sqlb.Select(overlapColumns...).
		From(sqlb.Table("video_overlaps")).
		OrderBy(entsql.Desc("overlap_score"), "seq"))
	if err != nil {
		return nil, fmt.Errorf("query overlaps: %w", err)
	}
	return scanAll(rows, scanOverlap)
}

// DeleteByVideo removes overlaps on either side of a video.
func (r *OverlapRepo) DeleteByVideo(ctx context.Context, videoID string) (int64, error) {
	res, err := exec(ctx, r.q, sqlb.Delete("video_overlaps").Where(entsql.Or(
		entsql.EQ("video_a_id", videoID),
		entsql.EQ("video_b_id", videoID),
	)))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanOverlap(rows *sql.Rows) (Overlap, error) {
	var (
		o      Overlap
		topics string
	)
	if err := rows.Scan(&o.ID, &o.VideoAID, &o.VideoBID, &o.OverlapScore, &topics, &o.Recommendation, &o.CreatedAt); err != nil {
		return Overlap{}, err
	}
	if err := json.Unmarshal([]byte(topics), &o.OverlappingTopics); err != nil {
		return Overlap{}, fmt.Errorf("decode topics of %s: %w", o.ID, err)
	}
	return o, nil
}
