// Package db records training runs in a local SQLite ledger and optionally
// mirrors them to a DynamoDB table.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeLayout has fixed width so started_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNoRun is returned when no run matches a lookup.
var ErrNoRun = errors.New("no matching run")

// Run is one completed training invocation.
type Run struct {
	ID              string
	Checkpoint      string
	Optimizer       string
	Epochs          int
	BatchSize       int
	LearningRate    float64
	Momentum        float64
	Gamma           float64
	Clean           bool
	Downbeat        bool
	BestEpoch       int
	BestDevAccuracy float64
	EpochsRun       int
	StoppedEarly    bool
	StopReason      string
	// TestAccuracy is nil until the checkpoint is evaluated.
	TestAccuracy *float64
	StartedAt    time.Time
	Duration     time.Duration
}

type Ledger struct {
	db   *sql.DB
	path string
}

// Open creates or opens the ledger at path and applies pending migrations.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	l := &Ledger{db: conn, path: path}
	if err := l.migrate(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Ledger) Path() string { return l.path }

// Record inserts run, assigning an ID and start time when they are unset.
func (l *Ledger) Record(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.StartedAt = run.StartedAt.UTC()

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (
            id, checkpoint, optimizer, epochs, batch_size, learning_rate, momentum, gamma,
            clean, downbeat, best_epoch, best_dev_accuracy, epochs_run, stopped_early,
            stop_reason, test_accuracy, started_at, duration_ms
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Checkpoint,
		run.Optimizer,
		run.Epochs,
		run.BatchSize,
		run.LearningRate,
		run.Momentum,
		run.Gamma,
		run.Clean,
		run.Downbeat,
		run.BestEpoch,
		run.BestDevAccuracy,
		run.EpochsRun,
		run.StoppedEarly,
		run.StopReason,
		nullableFloat(run.TestAccuracy),
		run.StartedAt.Format(timeLayout),
		run.Duration.Milliseconds(),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// SetTestAccuracy stores acc on the most recent run that produced checkpoint
// and returns the updated run.
func (l *Ledger) SetTestAccuracy(ctx context.Context, checkpoint string, acc float64) (Run, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE checkpoint = ? ORDER BY started_at DESC LIMIT 1`,
		checkpoint,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: checkpoint %s", ErrNoRun, checkpoint)
	}
	if err != nil {
		return Run{}, fmt.Errorf("find run: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, `UPDATE runs SET test_accuracy = ? WHERE id = ?`, acc, run.ID); err != nil {
		return Run{}, fmt.Errorf("update test accuracy: %w", err)
	}
	run.TestAccuracy = &acc
	return run, nil
}

// Get fetches a run by ID.
func (l *Ledger) Get(ctx context.Context, id string) (Run, error) {
	run, err := scanRun(l.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: id %s", ErrNoRun, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns every run, newest first.
func (l *Ledger) List(ctx context.Context) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

const runColumns = `id, checkpoint, optimizer, epochs, batch_size, learning_rate, momentum, gamma,
    clean, downbeat, best_epoch, best_dev_accuracy, epochs_run, stopped_early,
    stop_reason, test_accuracy, started_at, duration_ms`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run        Run
		testAcc    sql.NullFloat64
		startedAt  string
		durationMs int64
	)
	err := s.Scan(
		&run.ID,
		&run.Checkpoint,
		&run.Optimizer,
		&run.Epochs,
		&run.BatchSize,
		&run.LearningRate,
		&run.Momentum,
		&run.Gamma,
		&run.Clean,
		&run.Downbeat,
		&run.BestEpoch,
		&run.BestDevAccuracy,
		&run.EpochsRun,
		&run.StoppedEarly,
		&run.StopReason,
		&testAcc,
		&startedAt,
		&durationMs,
	)
	if err != nil {
		return Run{}, err
	}
	if testAcc.Valid {
		v := testAcc.Float64
		run.TestAccuracy = &v
	}
	run.StartedAt, err = time.Parse(timeLayout, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return run, nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
