// Package store - SQLite-backed history of evaluation runs.
package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/nvr-ai/go-eval/report"
)

// Store records evaluation runs and their per-class metrics.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the run database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open run database")
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			created TIMESTAMP,
			config TEXT,
			frame_count INTEGER,
			duration_seconds DOUBLE
		);
		CREATE TABLE IF NOT EXISTS class_metrics (
			run_id TEXT,
			class TEXT,
			gt_count INTEGER,
			dt_count INTEGER,
			precision DOUBLE,
			recall DOUBLE,
			f1 DOUBLE,
			ap DOUBLE,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create schema")
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Run is one recorded evaluation run.
type Run struct {
	ID              string
	Created         time.Time
	FrameCount      int
	DurationSeconds float64
}

// SaveRun records a run and its per-class metrics, returning the assigned
// run ID.
func (s *Store) SaveRun(res *report.Results) (string, error) {
	id := uuid.NewString()

	cfg, err := json.Marshal(res.Config)
	if err != nil {
		return "", errors.Wrap(err, "marshal config")
	}

	frames := 0
	seconds := 0.0
	if res.Run != nil {
		frames = res.Run.FrameCount
		seconds = res.Run.TotalDuration.Seconds()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT INTO runs (run_id, created, config, frame_count, duration_seconds) VALUES (?, ?, ?, ?, ?)",
		id, res.Timestamp, string(cfg), frames, seconds,
	)
	if err != nil {
		return "", errors.Wrap(err, "insert run")
	}

	for _, c := range res.Classes {
		_, err = tx.Exec(
			"INSERT INTO class_metrics (run_id, class, gt_count, dt_count, precision, recall, f1, ap) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			id, c.Class, c.GTCount, c.DTCount, c.Precision, c.Recall, c.F1, c.AP,
		)
		if err != nil {
			return "", errors.Wrapf(err, "insert metrics for %s", c.Class)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(err, "commit run")
	}
	return id, nil
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		"SELECT run_id, created, frame_count, duration_seconds FROM runs ORDER BY created DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Created, &r.FrameCount, &r.DurationSeconds); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ClassMetrics returns the per-class metrics recorded for a run.
func (s *Store) ClassMetrics(runID string) ([]report.ClassResult, error) {
	rows, err := s.db.Query(
		"SELECT class, gt_count, dt_count, precision, recall, f1, ap FROM class_metrics WHERE run_id = ? ORDER BY class",
		runID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query class metrics")
	}
	defer rows.Close()

	var out []report.ClassResult
	for rows.Next() {
		var c report.ClassResult
		if err := rows.Scan(&c.Class, &c.GTCount, &c.DTCount, &c.Precision, &c.Recall, &c.F1, &c.AP); err != nil {
			return nil, errors.Wrap(err, "scan class metrics")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
