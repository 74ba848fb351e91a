package trace

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

// schema is the DDL for the trace tables. Each statement is idempotent so
// several runs can share one database file.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		level  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		run_id     TEXT    NOT NULL,
		seq        INTEGER NOT NULL,
		time       REAL    NOT NULL,
		process_id INTEGER NOT NULL,
		process    TEXT    NOT NULL,
		reason     INTEGER NOT NULL,
		next       REAL    NOT NULL,
		done       INTEGER NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_process ON events(run_id, process)`,
}

// DB is a trace database backed by SQLite.
type DB struct {
	db *sql.DB
}

// OpenDB opens (or creates) a trace database at path and migrates it.
// Use ":memory:" for an in-memory database.
func OpenDB(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// a single connection keeps ":memory:" databases alive across calls
	db.SetMaxOpenConns(1)
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate %s: %w", path, err)
		}
	}
	return &DB{db: db}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Write stores t, replacing any earlier trace with the same run id.
func (d *DB) Write(ctx context.Context, t *Trace) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM events WHERE run_id = ?`, t.RunID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (run_id, level) VALUES (?, ?)`, t.RunID, string(t.Level)); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (run_id, seq, time, process_id, process, reason, next, done)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, ev := range t.Events {
		if _, err = stmt.ExecContext(ctx,
			t.RunID, ev.Seq, ev.Time, int64(ev.ProcessID), ev.Process, ev.Reason, ev.Next, ev.Done); err != nil {
			return fmt.Errorf("insert event %d: %w", ev.Seq, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	logrus.Debugf("wrote %d trace events for run %s", len(t.Events), t.RunID)
	return nil
}

// Runs lists the run ids stored in the database.
func (d *DB) Runs(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT run_id FROM runs ORDER BY run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Read loads the trace stored for runID. It returns nil if there is none.
func (d *DB) Read(ctx context.Context, runID string) (*Trace, error) {
	var level string
	err := d.db.QueryRowContext(ctx, `SELECT level FROM runs WHERE run_id = ?`, runID).Scan(&level)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT seq, time, process_id, process, reason, next, done
		 FROM events WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	t := NewTrace(runID, Level(level))
	for rows.Next() {
		var ev EventRecord
		var pid int64
		if err := rows.Scan(&ev.Seq, &ev.Time, &pid, &ev.Process, &ev.Reason, &ev.Next, &ev.Done); err != nil {
			return nil, err
		}
		ev.ProcessID = uint64(pid)
		t.Events = append(t.Events, ev)
	}
	return t, rows.Err()
}

// WriteSQLite stores t in the database file at path.
func WriteSQLite(ctx context.Context, path string, t *Trace) error {
	db, err := OpenDB(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Write(ctx, t)
}
