package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var eventColumns = []string{
	"id", "timestamp", "provider", "model", "purpose", "attempt", "input_tokens",
	"output_tokens", "latency_ms", "success", "error_message", "request_body", "response_body",
}

// EventRepo records and queries LLM request events.
type EventRepo struct {
	q querier
}

// AppendLLMRequest records an LLM API call event.
func (r *EventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	if data.Attempt == 0 {
		data.Attempt = 1
	}
	_, err := exec(ctx, r.q, sqlb.Insert("llm_events").
		Columns(eventColumns[1:]...).
		Values(time.Now().UTC(), data.Provider, data.Model, data.Purpose, data.Attempt,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
			data.ErrorMessage, data.RequestBody, data.ResponseBody))
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

// QueryLLMEvents returns events, newest first.
func (r *EventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error) {
	var preds []*entsql.Predicate
	if opts.Purpose != "" {
		preds = append(preds, entsql.EQ("purpose", opts.Purpose))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", opts.To.UTC()))
	}

	sel := sqlb.Select(eventColumns...).
		From(sqlb.Table("llm_events")).
		OrderBy(entsql.Desc("id"))
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	rows, err := query(ctx, r.q, sel)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	return scanAll(rows, func(rows *sql.Rows) (LLMRequestEventRecord, error) { return scanEvent(rows) })
}

// GetLLMEvent returns one event, or nil when absent.
func (r *EventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error) {
	row := queryRow(ctx, r.q, sqlb.Select(eventColumns...).
		From(sqlb.Table("llm_events")).
		Where(entsql.EQ("id", id)))
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM event: %w", err)
	}
	return &e, nil
}

// LLMUsageByPurpose aggregates usage per purpose.
func (r *EventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error) {
	rows, err := query(ctx, r.q, sqlb.Select(
		"purpose",
		entsql.Count("*"),
		"COALESCE(SUM(CASE WHEN success THEN 0 ELSE 1 END), 0)",
		"COALESCE(SUM(input_tokens), 0)",
		"COALESCE(SUM(output_tokens), 0)",
		"CAST(COALESCE(AVG(latency_ms), 0) AS INTEGER)",
	).
		From(sqlb.Table("llm_events")).
		GroupBy("purpose").
		OrderBy("purpose"))
	if err != nil {
		return nil, fmt.Errorf("query usage by purpose: %w", err)
	}
	return scanAll(rows, func(rows *sql.Rows) (LLMUsageStats, error) {
		var s LLMUsageStats
		err := rows.Scan(&s.Purpose, &s.Calls, &s.Failures, &s.InputTokens, &s.OutputTokens, &s.AvgLatencyMs)
		return s, err
	})
}

// LLMUsageByModel aggregates usage per model.
func (r *EventRepo) LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error) {
	rows, err := query(ctx, r.q, sqlb.Select(
		"model",
		entsql.Count("*"),
		"COALESCE(SUM(input_tokens), 0)",
		"COALESCE(SUM(output_tokens), 0)",
	).
		From(sqlb.Table("llm_events")).
		GroupBy("model").
		OrderBy("model"))
	if err != nil {
		return nil, fmt.Errorf("query usage by model: %w", err)
	}
	return scanAll(rows, func(rows *sql.Rows) (LLMModelUsage, error) {
		var u LLMModelUsage
		err := rows.Scan(&u.Model, &u.Calls, &u.InputTokens, &u.OutputTokens)
		return u, err
	})
}

// Truncate removes every recorded event.
func (r *EventRepo) Truncate(ctx context.Context) (int64, error) {
	res, err := exec(ctx, r.q, sqlb.Delete("llm_events"))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanEvent(s rowScanner) (LLMRequestEventRecord, error) {
	var e LLMRequestEventRecord
	err := s.Scan(&e.ID, &e.Timestamp, &e.Provider, &e.Model, &e.Purpose, &e.Attempt,
		&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success, &e.ErrorMessage,
		&e.RequestBody, &e.ResponseBody)
	return e, err
}
