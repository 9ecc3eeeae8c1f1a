// Package postgres implements history.Driver against PostgreSQL,
// following the connection and query style of the teacher repo's
// store/db/postgres package (database/sql plus github.com/lib/pq,
// errors wrapped with github.com/pkg/errors).
package postgres

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/hrygo/taskscheduler/internal/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS completed_tasks (
	id           INTEGER NOT NULL,
	description  TEXT NOT NULL,
	priority     INTEGER NOT NULL,
	completed_at TIMESTAMPTZ NOT NULL
)`

// DB is a PostgreSQL-backed history.Driver.
type DB struct {
	db *sql.DB
}

// Open connects to dsn and ensures the completed_tasks table exists.
func Open(dsn string) (*DB, error) {
	if dsn == "" {
		return nil, errors.New("postgres: dsn required")
	}
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "postgres: open")
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "postgres: ping")
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "postgres: create schema")
	}
	return &DB{db: sqlDB}, nil
}

func (d *DB) RecordCompletion(ctx context.Context, t history.CompletedTask) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO completed_tasks (id, description, priority, completed_at) VALUES ($1, $2, $3, $4)`,
		t.ID, t.Description, t.Priority, t.CompletedAt,
	)
	if err != nil {
		return errors.Wrap(err, "postgres: insert completed task")
	}
	return nil
}

func (d *DB) ListCompleted(ctx context.Context, limit int) ([]history.CompletedTask, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, description, priority, completed_at FROM completed_tasks ORDER BY completed_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "postgres: list completed tasks")
	}
	defer rows.Close()

	var out []history.CompletedTask
	for rows.Next() {
		var t history.CompletedTask
		if err := rows.Scan(&t.ID, &t.Description, &t.Priority, &t.CompletedAt); err != nil {
			return nil, errors.Wrap(err, "postgres: scan completed task")
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "postgres: iterate completed tasks")
	}
	return out, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}
