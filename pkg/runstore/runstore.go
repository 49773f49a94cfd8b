// Package runstore records funnel run history in a local SQLite database:
// one row per run, one row per executed stage. The history answers "what
// did run N drop at each stage" without re-reading log files.
package runstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS funnel_runs (
	id          TEXT PRIMARY KEY,
	niche       TEXT NOT NULL,
	status      TEXT NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS funnel_stages (
	run_id      TEXT NOT NULL REFERENCES funnel_runs(id),
	stage       TEXT NOT NULL,
	position    INTEGER NOT NULL,
	input       INTEGER NOT NULL,
	survivors   INTEGER NOT NULL,
	dropped     INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
);
`

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Store wraps the SQLite handle. All methods are safe for the funnel's
// single-threaded call pattern; no additional locking is done.
type Store struct {
	db *sql.DB
}

// StageRow is one recorded stage of a run.
type StageRow struct {
	Stage     string
	Position  int
	Input     int
	Survivors int
	Dropped   int
	Duration  time.Duration
}

// Open opens (creating if necessary) the run history database at path.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize run store schema: %w", err)
	}
	return &Store{db: db}, nil
}

// BeginRun registers a new run and returns its id.
func (s *Store) BeginRun(niche string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(
		`INSERT INTO funnel_runs (id, niche, status, started_at) VALUES (?, ?, ?, ?)`,
		id, niche, StatusRunning, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to register run: %w", err)
	}
	return id, nil
}

// RecordStage appends one stage outcome to a run. Position is the stage's
// 1-based order within the run.
func (s *Store) RecordStage(runID, stage string, position, input, survivors, dropped int, duration time.Duration) error {
	_, err := s.db.Exec(
		`INSERT INTO funnel_stages (run_id, stage, position, input, survivors, dropped, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, stage, position, input, survivors, dropped, duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record stage %s: %w", stage, err)
	}
	return nil
}

// FinishRun marks a run terminal with the given status.
func (s *Store) FinishRun(runID, status string) error {
	_, err := s.db.Exec(
		`UPDATE funnel_runs SET status = ?, finished_at = ? WHERE id = ?`,
		status, time.Now().UTC(), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// RunStages returns a run's recorded stages in execution order.
func (s *Store) RunStages(runID string) ([]StageRow, error) {
	rows, err := s.db.Query(
		`SELECT stage, position, input, survivors, dropped, duration_ms
		 FROM funnel_stages WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stages: %w", err)
	}
	defer rows.Close()

	var stages []StageRow
	for rows.Next() {
		var st StageRow
		var ms int64
		if err := rows.Scan(&st.Stage, &st.Position, &st.Input, &st.Survivors, &st.Dropped, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan stage row: %w", err)
		}
		st.Duration = time.Duration(ms) * time.Millisecond
		stages = append(stages, st)
	}
	return stages, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
