package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Every table carries an autoincrement seq so rows created within the same
// clock tick still order by insertion.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS goals (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL CHECK (status IN ('active', 'archived')),
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS skill_nodes (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		goal_id TEXT NOT NULL REFERENCES goals(id),
		parent_id TEXT REFERENCES skill_nodes(id),
		label TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		knowledge_text TEXT NOT NULL DEFAULT '',
		detailed_knowledge_text TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		coverage_score INTEGER NOT NULL DEFAULT 0 CHECK (coverage_score BETWEEN 0 AND 100),
		depth INTEGER NOT NULL DEFAULT 0,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_skill_nodes_goal ON skill_nodes(goal_id)`,
	`CREATE TABLE IF NOT EXISTS goal_conversations (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		goal_id TEXT NOT NULL REFERENCES goals(id),
		role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
		content TEXT NOT NULL,
		triggered_tree_update INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_goal_conversations_goal ON goal_conversations(goal_id)`,
	`CREATE TABLE IF NOT EXISTS videos (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		url TEXT NOT NULL DEFAULT '',
		channel_name TEXT NOT NULL DEFAULT '',
		duration TEXT NOT NULL DEFAULT '',
		transcript TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		key_points TEXT,
		analysis_status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS video_node_mappings (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		video_id TEXT NOT NULL REFERENCES videos(id),
		node_id TEXT NOT NULL REFERENCES skill_nodes(id),
		relevance_score INTEGER NOT NULL CHECK (relevance_score BETWEEN 0 AND 100),
		timestamp_start TEXT,
		timestamp_end TEXT,
		coverage_detail TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_video_node_mappings_node ON video_node_mappings(node_id)`,
	`CREATE INDEX IF NOT EXISTS idx_video_node_mappings_video ON video_node_mappings(video_id)`,
	`CREATE TABLE IF NOT EXISTS video_overlaps (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		video_a_id TEXT NOT NULL REFERENCES videos(id),
		video_b_id TEXT NOT NULL REFERENCES videos(id),
		overlap_score INTEGER NOT NULL CHECK (overlap_score BETWEEN 0 AND 100),
		overlapping_topics TEXT NOT NULL DEFAULT '[]',
		recommendation TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		UNIQUE (video_a_id, video_b_id),
		CHECK (video_a_id < video_b_id)
	)`,
	`CREATE TABLE IF NOT EXISTS app_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS llm_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		purpose TEXT NOT NULL,
		attempt INTEGER NOT NULL DEFAULT 1,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		success INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
