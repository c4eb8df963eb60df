package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// sqlb builds every statement issued by the store.
var sqlb = entsql.Dialect(dialect.SQLite)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repos groups the repositories bound to one querier.
type Repos struct {
	q querier
}

func (r Repos) Goals() *GoalRepo                 { return &GoalRepo{q: r.q} }
func (r Repos) Nodes() *NodeRepo                 { return &NodeRepo{q: r.q} }
func (r Repos) Conversations() *ConversationRepo { return &ConversationRepo{q: r.q} }
func (r Repos) Videos() *VideoRepo               { return &VideoRepo{q: r.q} }
func (r Repos) Mappings() *MappingRepo           { return &MappingRepo{q: r.q} }
func (r Repos) Overlaps() *OverlapRepo           { return &OverlapRepo{q: r.q} }
func (r Repos) Settings() *SettingsRepo          { return &SettingsRepo{q: r.q} }
func (r Repos) Events() *EventRepo               { return &EventRepo{q: r.q} }

// Store owns the database handle.
type Store struct {
	Repos
	db *sql.DB
}

// Tx exposes the repositories inside a transaction.
type Tx struct {
	Repos
}

// Open creates a new Store backed by the SQLite file at path.
// It applies recommended pragmas and runs the schema migration.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", withPragmas(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows one writer; a single connection serializes every
	// transaction in the process.
	db.SetMaxOpenConns(1)

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{Repos: Repos{q: db}, db: db}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Tx{Repos: Repos{q: sqlTx}}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// withPragmas appends connection pragmas to the DSN so every pooled
// connection gets them.
func withPragmas(path string) string {
	pragmas := []string{
		"_pragma=journal_mode(WAL)",
		"_pragma=busy_timeout(5000)",
		"_pragma=foreign_keys(1)",
		"_pragma=synchronous(NORMAL)",
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(pragmas, "&")
}

// DefaultDBPath resolves the database file path in priority order:
// 1. SKILLTRAIL_DB environment variable
// 2. $XDG_DATA_HOME/skilltrail/skilltrail.db
// 3. ~/.local/share/skilltrail/skilltrail.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("SKILLTRAIL_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "skilltrail", "skilltrail.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func exec(ctx context.Context, q querier, b entsql.Querier) (sql.Result, error) {
	stmt, args := b.Query()
	return q.ExecContext(ctx, stmt, args...)
}

func query(ctx context.Context, q querier, b entsql.Querier) (*sql.Rows, error) {
	stmt, args := b.Query()
	return q.QueryContext(ctx, stmt, args...)
}

func queryRow(ctx context.Context, q querier, b entsql.Querier) *sql.Row {
	stmt, args := b.Query()
	return q.QueryRowContext(ctx, stmt, args...)
}

// scanAll reads every row with scan and closes rows.
func scanAll[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func anySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// learnerTables are cleared by Reset, children first.
var learnerTables = []string{
	"video_overlaps", "video_node_mappings", "videos",
	"goal_conversations", "skill_nodes", "goals",
}

// Reset deletes all goals, trees, conversations and videos. Settings and
// the LLM event log are kept unless events is set.
func (s *Store) Reset(ctx context.Context, events bool) error {
	return s.WithTx(ctx, func(tx *Tx) error {
		for _, t := range learnerTables {
			if _, err := exec(ctx, tx.q, sqlb.Delete(t)); err != nil {
				return fmt.Errorf("clear %s: %w", t, err)
			}
		}
		if events {
			if _, err := tx.Events().Truncate(ctx); err != nil {
				return fmt.Errorf("clear llm_events: %w", err)
			}
		}
		return nil
	})
}
