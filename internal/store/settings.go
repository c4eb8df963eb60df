package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// SettingsRepo is a key/value store for application settings.
type SettingsRepo struct {
	q querier
}

// Get returns the value for key and whether it was set.
func (r *SettingsRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := queryRow(ctx, r.q, sqlb.Select("value").
		From(sqlb.Table("app_settings")).
		Where(entsql.EQ("key", key))).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return v, true, nil
}

// All returns every stored setting.
func (r *SettingsRepo) All(ctx context.Context) (map[string]string, error) {
	rows, err := query(ctx, r.q, sqlb.Select("key", "value").From(sqlb.Table("app_settings")))
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	type kv struct{ k, v string }
	pairs, err := scanAll(rows, func(rows *sql.Rows) (kv, error) {
		var p kv
		err := rows.Scan(&p.k, &p.v)
		return p, err
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		out[p.k] = p.v
	}
	return out, nil
}

// Set upserts a setting.
func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	_, err := exec(ctx, r.q, sqlb.Insert("app_settings").
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UTC()).
		OnConflict(
			entsql.ConflictColumns("key"),
			entsql.ResolveWithNewValues(),
		))
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
