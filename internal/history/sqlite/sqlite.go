// Package sqlite implements history.Driver against SQLite using
// modernc.org/sqlite, a pure-Go driver, in place of the teacher
// repo's cgo-based mattn/go-sqlite3 (see DESIGN.md for why: the
// scheduler's history store has no need for sqlite-vec, so the cgo
// dependency that feature demanded in the teacher repo buys nothing
// here).
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	_ "modernc.org/sqlite"

	"github.com/hrygo/taskscheduler/internal/history"
)

const completedAtLayout = "2006-01-02T15:04:05.000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS completed_tasks (
	id           INTEGER NOT NULL,
	description  TEXT NOT NULL,
	priority     INTEGER NOT NULL,
	completed_at TEXT NOT NULL
)`

// DB is a SQLite-backed history.Driver.
type DB struct {
	db *sql.DB
}

// Open opens (and creates, if absent) the SQLite file at path.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("sqlite: path required")
	}
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, errors.Wrapf(err, "sqlite: exec %q", pragma)
		}
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "sqlite: create schema")
	}
	return &DB{db: sqlDB}, nil
}

func (d *DB) RecordCompletion(ctx context.Context, t history.CompletedTask) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO completed_tasks (id, description, priority, completed_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Description, t.Priority, t.CompletedAt.Format(completedAtLayout),
	)
	if err != nil {
		return errors.Wrap(err, "sqlite: insert completed task")
	}
	return nil
}

func (d *DB) ListCompleted(ctx context.Context, limit int) ([]history.CompletedTask, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, description, priority, completed_at FROM completed_tasks ORDER BY completed_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: list completed tasks")
	}
	defer rows.Close()

	var out []history.CompletedTask
	for rows.Next() {
		var t history.CompletedTask
		var completedAt string
		if err := rows.Scan(&t.ID, &t.Description, &t.Priority, &completedAt); err != nil {
			return nil, errors.Wrap(err, "sqlite: scan completed task")
		}
		parsed, err := time.Parse(completedAtLayout, completedAt)
		if err != nil {
			return nil, errors.Wrap(err, "sqlite: parse completed_at")
		}
		t.CompletedAt = parsed
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "sqlite: iterate completed tasks")
	}
	return out, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}
