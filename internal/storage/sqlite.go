package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/hansardclean/internal/models"
)

// SQLiteLedger implements Ledger using SQLite.
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteLedger{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		input_dir TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		cleaned INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	CREATE TABLE IF NOT EXISTS files (
		source_path TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		output_path TEXT,
		source_hash TEXT,
		rules_hash TEXT,
		status TEXT NOT NULL,
		error TEXT,
		lines_in INTEGER NOT NULL DEFAULT 0,
		lines_out INTEGER NOT NULL DEFAULT 0,
		isolated_numbers INTEGER NOT NULL DEFAULT 0,
		excessive_whitespace INTEGER NOT NULL DEFAULT 0,
		empty_lines INTEGER NOT NULL DEFAULT 0,
		run_id TEXT,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_files_name ON files(name);
	CREATE INDEX IF NOT EXISTS idx_files_status ON files(status);
	CREATE INDEX IF NOT EXISTS idx_files_output_path ON files(output_path);
	`
	_, err := db.Exec(schema)
	return err
}

// BeginRun inserts a run row. StartedAt is set when zero.
func (s *SQLiteLedger) BeginRun(ctx context.Context, run *models.RunSummary) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input_dir, output_dir, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.InputDir, run.OutputDir, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("begin run %s: %w", run.ID, err)
	}
	return nil
}

// FinishRun stores the run's totals and finish time. FinishedAt is set when zero.
func (s *SQLiteLedger) FinishRun(ctx context.Context, run *models.RunSummary) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, cleaned = ?, skipped = ?, failed = ? WHERE id = ?`,
		run.FinishedAt, run.Cleaned, run.Skipped, run.Failed, run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", run.ID, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// LatestRun returns the most recently started run without its file list.
func (s *SQLiteLedger) LatestRun(ctx context.Context) (*models.RunSummary, error) {
	var run models.RunSummary
	var finished sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, input_dir, output_dir, started_at, finished_at, cleaned, skipped, failed
		 FROM runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&run.ID, &run.InputDir, &run.OutputDir, &run.StartedAt, &finished,
		&run.Cleaned, &run.Skipped, &run.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest run: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return &run, nil
}

// RecordFile inserts or replaces the row for res.SourcePath. UpdatedAt is set when zero.
func (s *SQLiteLedger) RecordFile(ctx context.Context, res *models.FileResult) error {
	if res.UpdatedAt.IsZero() {
		res.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (source_path, id, name, output_path, source_hash, rules_hash, status, error,
			lines_in, lines_out, isolated_numbers, excessive_whitespace, empty_lines, run_id, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source_path) DO UPDATE SET
			id = excluded.id,
			name = excluded.name,
			output_path = excluded.output_path,
			source_hash = excluded.source_hash,
			rules_hash = excluded.rules_hash,
			status = excluded.status,
			error = excluded.error,
			lines_in = excluded.lines_in,
			lines_out = excluded.lines_out,
			isolated_numbers = excluded.isolated_numbers,
			excessive_whitespace = excluded.excessive_whitespace,
			empty_lines = excluded.empty_lines,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at`,
		res.SourcePath, res.ID, res.Name, res.OutputPath, res.SourceHash, res.RulesHash,
		string(res.Status), res.Error, res.LinesIn, res.LinesOut,
		res.Issues.IsolatedNumbers, res.Issues.ExcessiveWhitespace, res.Issues.EmptyLines,
		res.RunID, res.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("record file %s: %w", res.Name, err)
	}
	return nil
}

const fileColumns = `source_path, id, name, output_path, source_hash, rules_hash, status, error,
	lines_in, lines_out, isolated_numbers, excessive_whitespace, empty_lines, run_id, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*models.FileResult, error) {
	var res models.FileResult
	var status string
	var outputPath, sourceHash, rulesHash, errMsg, runID sql.NullString
	if err := row.Scan(&res.SourcePath, &res.ID, &res.Name, &outputPath, &sourceHash, &rulesHash,
		&status, &errMsg, &res.LinesIn, &res.LinesOut,
		&res.Issues.IsolatedNumbers, &res.Issues.ExcessiveWhitespace, &res.Issues.EmptyLines,
		&runID, &res.UpdatedAt); err != nil {
		return nil, err
	}
	res.Status = models.FileStatus(status)
	res.OutputPath = outputPath.String
	res.SourceHash = sourceHash.String
	res.RulesHash = rulesHash.String
	res.Error = errMsg.String
	res.RunID = runID.String
	return &res, nil
}

// GetFile returns the row for a source path.
func (s *SQLiteLedger) GetFile(ctx context.Context, sourcePath string) (*models.FileResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE source_path = ?`, sourcePath)
	res, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("file %s: %w", sourcePath, ErrNotFound)
	}
	return res, err
}

// GetFileByName returns the most recently updated row with the given base name.
func (s *SQLiteLedger) GetFileByName(ctx context.Context, name string) (*models.FileResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE name = ? ORDER BY updated_at DESC LIMIT 1`, name)
	res, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("file %s: %w", name, ErrNotFound)
	}
	return res, err
}

// GetFileByOutput returns the non-failed row that last wrote outputPath.
func (s *SQLiteLedger) GetFileByOutput(ctx context.Context, outputPath string) (*models.FileResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE output_path = ? AND status != ? ORDER BY updated_at DESC LIMIT 1`,
		outputPath, string(models.StatusFailed))
	res, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("output %s: %w", outputPath, ErrNotFound)
	}
	return res, err
}

// ListFiles returns rows ordered by name with offset and limit.
func (s *SQLiteLedger) ListFiles(ctx context.Context, offset, limit int) ([]*models.FileResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files ORDER BY name, source_path LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.FileResult
	for rows.Next() {
		res, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// DeleteFile removes the row for a source path. Deleting a missing row is not an error.
func (s *SQLiteLedger) DeleteFile(ctx context.Context, sourcePath string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE source_path = ?`, sourcePath)
	return err
}

// CountByStatus returns the number of file rows per status.
func (s *SQLiteLedger) CountByStatus(ctx context.Context) (map[models.FileStatus]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM files GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.FileStatus]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[models.FileStatus(status)] = n
	}
	return counts, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}
