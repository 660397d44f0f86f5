package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun inserts a run. Recording the same ID twice is an error.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("run id is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, source_path, log_path, succeeded, failed, started_at, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		string(run.Kind),
		run.SourcePath,
		nullableString(run.LogPath),
		run.Succeeded,
		run.Failed,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Runs returns the most recent runs first. A non-positive limit returns all.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, kind, source_path, log_path, succeeded, failed, started_at, finished_at
              FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			kind              string
			logPath           sql.NullString
			started, finished string
		)
		if err := rows.Scan(&run.ID, &kind, &run.SourcePath, &logPath, &run.Succeeded, &run.Failed, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Kind = RunKind(kind)
		run.LogPath = logPath.String
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// RecordCall inserts one LLM call.
func (s *Store) RecordCall(ctx context.Context, call Call) error {
	created := call.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	estimated := 0
	if call.Estimated {
		estimated = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO llm_calls (run_id, pass, model, input_tokens, output_tokens, cost, estimated, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		call.RunID,
		call.Pass,
		call.Model,
		call.InputTokens,
		call.OutputTokens,
		call.Cost,
		estimated,
		formatTime(created),
	)
	if err != nil {
		return fmt.Errorf("insert llm call: %w", err)
	}
	return nil
}

// SpendByModel aggregates calls made at or after since, most expensive
// model first. A zero since covers all recorded calls.
func (s *Store) SpendByModel(ctx context.Context, since time.Time) ([]ModelSpend, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT model, COUNT(1), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0), COALESCE(SUM(cost), 0)
         FROM llm_calls
         WHERE created_at >= ?
         GROUP BY model
         ORDER BY SUM(cost) DESC, model`,
		formatTime(since),
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate spend: %w", err)
	}
	defer rows.Close()

	var spend []ModelSpend
	for rows.Next() {
		var entry ModelSpend
		if err := rows.Scan(&entry.Model, &entry.Calls, &entry.InputTokens, &entry.OutputTokens, &entry.Cost); err != nil {
			return nil, fmt.Errorf("scan spend: %w", err)
		}
		spend = append(spend, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spend: %w", err)
	}
	return spend, nil
}

// RunSpend returns the total cost recorded for a single run.
func (s *Store) RunSpend(ctx context.Context, runID string) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(cost), 0) FROM llm_calls WHERE run_id = ?", runID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum run spend: %w", err)
	}
	return total, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

// timeLayout is fixed width and always UTC so lexical order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return time.Unix(0, 0).UTC().Format(timeLayout)
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
