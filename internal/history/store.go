// Package history persists completed tasks for audit, mirroring the
// dual-driver shape of the teacher repo's store package (store/store.go
// defines a Driver interface; store/db/postgres and store/db/sqlite
// each implement it). The interface covers both the write path the
// scheduler needs (recording a task once it finishes) and the read
// path taskscheduler-ctl's "history" command needs.
package history

import (
	"context"
	"time"
)

// CompletedTask is the audit record written when a task finishes,
// successfully or otherwise.
type CompletedTask struct {
	ID          int32
	Description string
	Priority    int
	CompletedAt time.Time
}

// Driver is implemented by each backing store (postgres, sqlite).
type Driver interface {
	RecordCompletion(ctx context.Context, t CompletedTask) error
	ListCompleted(ctx context.Context, limit int) ([]CompletedTask, error)
	Close() error
}

// Store is the scheduler-facing handle; it just forwards to whichever
// Driver was configured, so callers never import postgres/sqlite
// directly.
type Store struct {
	driver Driver
}

// New wraps a Driver in a Store.
func New(d Driver) *Store {
	return &Store{driver: d}
}

// Record persists a completed task.
func (s *Store) Record(ctx context.Context, t CompletedTask) error {
	return s.driver.RecordCompletion(ctx, t)
}

// ListCompleted returns the most recent completed tasks, newest first,
// capped at limit.
func (s *Store) ListCompleted(ctx context.Context, limit int) ([]CompletedTask, error) {
	return s.driver.ListCompleted(ctx, limit)
}

// Close releases the underlying driver's resources.
func (s *Store) Close() error {
	return s.driver.Close()
}
