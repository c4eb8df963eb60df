package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// AnalysisStatus is the state of a video's analysis.
type AnalysisStatus string

const (
	AnalysisPending   AnalysisStatus = "pending"
	AnalysisAnalyzing AnalysisStatus = "analyzing"
	AnalysisCompleted AnalysisStatus = "completed"
	AnalysisFailed    AnalysisStatus = "failed"
)

// KeyPoint is a topic extracted from a transcript.
type KeyPoint struct {
	Topic       string  `json:"topic"`
	Description string  `json:"description"`
	Timestamp   *string `json:"timestamp,omitempty"`
}

// Video is a registered transcript and its analysis.
type Video struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	URL            string         `json:"url,omitempty"`
	ChannelName    string         `json:"channel_name,omitempty"`
	Duration       string         `json:"duration,omitempty"`
	Transcript     string         `json:"transcript"`
	Summary        string         `json:"summary,omitempty"`
	KeyPoints      []KeyPoint     `json:"key_points"`
	AnalysisStatus AnalysisStatus `json:"analysis_status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

var videoColumns = []string{
	"id", "title", "url", "channel_name", "duration", "transcript", "summary",
	"key_points", "analysis_status", "created_at", "updated_at",
}

// VideoRepo reads and writes videos.
type VideoRepo struct {
	q querier
}

// Create inserts a video, assigning its id and timestamps.
func (r *VideoRepo) Create(ctx context.Context, v Video) (Video, error) {
	now := time.Now().UTC()
	v.ID = uuid.NewString()
	v.CreatedAt, v.UpdatedAt = now, now

	kp, err := encodeKeyPoints(v.KeyPoints)
	if err != nil {
		return Video{}, err
	}
	_, err = exec(ctx, r.q, sqlb.Insert("videos").
		Columns(videoColumns...).
		Values(v.ID, v.Title, v.URL, v.ChannelName, v.Duration, v.Transcript, v.Summary,
			kp, string(v.AnalysisStatus), v.CreatedAt, v.UpdatedAt))
	if err != nil {
		return Video{}, fmt.Errorf("insert video: %w", err)
	}
	return v, nil
}

// Get returns the video with id, or ErrNotFound.
func (r *VideoRepo) Get(ctx context.Context, id string) (Video, error) {
	row := queryRow(ctx, r.q, sqlb.Select(videoColumns...).
		From(sqlb.Table("videos")).
		Where(entsql.EQ("id", id)))
	v, err := scanVideo(row)
	if err != nil {
		return Video{}, notFound(err)
	}
	return v, nil
}

// List returns videos, newest first. A positive limit caps the result.
func (r *VideoRepo) List(ctx context.Context, limit int) ([]Video, error) {
	sel := sqlb.Select(videoColumns...).
		From(sqlb.Table("videos")).
		OrderBy(entsql.Desc("seq"))
	if limit > 0 {
		sel.Limit(limit)
	}
	rows, err := query(ctx, r.q, sel)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	return scanAll(rows, func(rows *sql.Rows) (Video, error) { return scanVideo(rows) })
}

// ListAnalyzedExcept returns completed videos other than id that carry
// key points, oldest first.
func (r *VideoRepo) ListAnalyzedExcept(ctx context.Context, id string) ([]Video, error) {
	rows, err := query(ctx, r.q, sqlb.Select(videoColumns...).
		From(sqlb.Table("videos")).
		Where(entsql.And(
			entsql.EQ("analysis_status", string(AnalysisCompleted)),
			entsql.NEQ("id", id),
			entsql.NotNull("key_points"),
		)).
		OrderBy("seq"))
	if err != nil {
		return nil, fmt.Errorf("query analyzed videos: %w", err)
	}
	videos, err := scanAll(rows, func(rows *sql.Rows) (Video, error) { return scanVideo(rows) })
	if err != nil {
		return nil, err
	}
	out := videos[:0]
	for _, v := range videos {
		if len(v.KeyPoints) > 0 {
			out = append(out, v)
		}
	}
	return out, nil
}

// Count returns the number of registered videos.
func (r *VideoRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := queryRow(ctx, r.q, sqlb.Select(entsql.Count("*")).From(sqlb.Table("videos"))).Scan(&n); err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	return n, nil
}

// SetStatus moves a video to status. When from is non-empty the update
// only applies if the video is currently in that state; the returned bool
// reports whether a row changed.
func (r *VideoRepo) SetStatus(ctx context.Context, id string, status, from AnalysisStatus) (bool, error) {
	pred := entsql.EQ("id", id)
	if from != "" {
		pred = entsql.And(pred, entsql.EQ("analysis_status", string(from)))
	}
	res, err := exec(ctx, r.q, sqlb.Update("videos").
		Set("analysis_status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(pred))
	if err != nil {
		return false, fmt.Errorf("update video status: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CompleteAnalysis stores the analysis result and marks the video
// completed, provided it is still analyzing.
func (r *VideoRepo) CompleteAnalysis(ctx context.Context, id, summary string, keyPoints []KeyPoint) (bool, error) {
	kp, err := encodeKeyPoints(keyPoints)
	if err != nil {
		return false, err
	}
	res, err := exec(ctx, r.q, sqlb.Update("videos").
		Set("summary", summary).
		Set("key_points", kp).
		Set("analysis_status", string(AnalysisCompleted)).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("analysis_status", string(AnalysisAnalyzing)),
		)))
	if err != nil {
		return false, fmt.Errorf("complete analysis: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Delete removes the video row only.
func (r *VideoRepo) Delete(ctx context.Context, id string) error {
	res, err := exec(ctx, r.q, sqlb.Delete("videos").Where(entsql.EQ("id", id)))
	if err != nil {
		return err
	}
	return expectRow(res)
}

func encodeKeyPoints(kps []KeyPoint) (sql.NullString, error) {
	if kps == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(kps)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode key points: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func scanVideo(s rowScanner) (Video, error) {
	var (
		v      Video
		kp     sql.NullString
		status string
	)
	err := s.Scan(&v.ID, &v.Title, &v.URL, &v.ChannelName, &v.Duration, &v.Transcript, &v.Summary,
		&kp, &status, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return Video{}, err
	}
	v.AnalysisStatus = AnalysisStatus(status)
	if kp.Valid && kp.String != "" {
		if err := json.Unmarshal([]byte(kp.String), &v.KeyPoints); err != nil {
			return Video{}, fmt.Errorf("decode key points of %s: %w", v.ID, err)
		}
	}
	return v, nil
}
