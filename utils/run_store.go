package utils

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// PipelineRun records one end-to-end pipeline execution
type PipelineRun struct {
	ID           string     `json:"id"`
	Trigger      string     `json:"trigger"` // manual, scheduled
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	DurationMS   int64      `json:"duration_ms"`
	Status       string     `json:"status"` // running, completed, failed
	Error        string     `json:"error,omitempty"`
	TrainRows    int        `json:"train_rows"`
	TestRows     int        `json:"test_rows"`
	TestAccuracy float64    `json:"test_accuracy"`
	TestF1       float64    `json:"test_f1"`
}

// RunStore persists pipeline run history in SQLite
type RunStore struct {
	db   *sql.DB
	path string
}

// NewRunStore opens (or creates) the run-history database
func NewRunStore(dbPath string) (*RunStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	rs := &RunStore{db: db, path: dbPath}
	if err := rs.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return rs, nil
}

func (rs *RunStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pipeline_runs (
		id TEXT PRIMARY KEY,
		trigger_type TEXT NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT,
		train_rows INTEGER NOT NULL DEFAULT 0,
		test_rows INTEGER NOT NULL DEFAULT 0,
		test_accuracy REAL NOT NULL DEFAULT 0,
		test_f1 REAL NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_start_time ON pipeline_runs(start_time);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON pipeline_runs(status);
	`
	_, err := rs.db.Exec(schema)
	return err
}

// BeginRun records the start of an execution and returns its ID
func (rs *RunStore) BeginRun(ctx context.Context, trigger string) (string, error) {
	id := uuid.New().String()
	_, err := rs.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs (id, trigger_type, start_time, status)
		VALUES (?, ?, ?, 'running')`,
		id, trigger, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to record run start: %w", err)
	}
	return id, nil
}

// CompleteRun marks a run as finished with its evaluation summary
func (rs *RunStore) CompleteRun(ctx context.Context, id string, trainRows, testRows int, accuracy, f1 float64) error {
	now := time.Now().UTC()
	_, err := rs.db.ExecContext(ctx, `
		UPDATE pipeline_runs
		SET end_time = ?,
		    duration_ms = CAST((julianday(?) - julianday(start_time)) * 86400000 AS INTEGER),
		    status = 'completed',
		    train_rows = ?, test_rows = ?, test_accuracy = ?, test_f1 = ?
		WHERE id = ?`,
		now, now, trainRows, testRows, accuracy, f1, id)
	if err != nil {
		return fmt.Errorf("failed to record run completion: %w", err)
	}
	return nil
}

// FailRun marks a run as failed with its error message
func (rs *RunStore) FailRun(ctx context.Context, id string, runErr error) error {
	now := time.Now().UTC()
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	_, err := rs.db.ExecContext(ctx, `
		UPDATE pipeline_runs
		SET end_time = ?,
		    duration_ms = CAST((julianday(?) - julianday(start_time)) * 86400000 AS INTEGER),
		    status = 'failed',
		    error = ?
		WHERE id = ?`,
		now, now, msg, id)
	if err != nil {
		return fmt.Errorf("failed to record run failure: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first
func (rs *RunStore) ListRuns(ctx context.Context, limit int) ([]*PipelineRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := rs.db.QueryContext(ctx, `
		SELECT id, trigger_type, start_time, end_time, duration_ms, status,
		       COALESCE(error, ''), train_rows, test_rows, test_accuracy, test_f1
		FROM pipeline_runs
		ORDER BY start_time DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*PipelineRun
	for rows.Next() {
		run := &PipelineRun{}
		var endTime sql.NullTime
		if err := rows.Scan(&run.ID, &run.Trigger, &run.StartTime, &endTime,
			&run.DurationMS, &run.Status, &run.Error,
			&run.TrainRows, &run.TestRows, &run.TestAccuracy, &run.TestF1); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if endTime.Valid {
			run.EndTime = &endTime.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a single run by ID
func (rs *RunStore) GetRun(ctx context.Context, id string) (*PipelineRun, error) {
	run := &PipelineRun{}
	var endTime sql.NullTime
	err := rs.db.QueryRowContext(ctx, `
		SELECT id, trigger_type, start_time, end_time, duration_ms, status,
		       COALESCE(error, ''), train_rows, test_rows, test_accuracy, test_f1
		FROM pipeline_runs WHERE id = ?`, id).
		Scan(&run.ID, &run.Trigger, &run.StartTime, &endTime,
			&run.DurationMS, &run.Status, &run.Error,
			&run.TrainRows, &run.TestRows, &run.TestAccuracy, &run.TestF1)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	if endTime.Valid {
		run.EndTime = &endTime.Time
	}
	return run, nil
}

// Close releases the database handle
func (rs *RunStore) Close() error {
	return rs.db.Close()
}
