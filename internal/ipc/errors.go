// Package ipc implements the shared-memory bounded task queue: a named
// memory segment guarded by three counting semaphores, shared by the
// command server and the scheduler process.
package ipc

import "errors"

// Sentinel error kinds, matched with errors.Is at call sites.
var (
	ErrInvalidArgument     = errors.New("ipc: invalid argument")
	ErrNotAttached         = errors.New("ipc: queue not attached")
	ErrSemaphoreFailure    = errors.New("ipc: semaphore operation failed")
	ErrQueueEmpty          = errors.New("ipc: dequeue observed an empty ring under a held token")
	ErrSegmentCreateFailed = errors.New("ipc: failed to create shared segment")
	ErrMapFailed           = errors.New("ipc: failed to map shared segment")
	ErrTruncateFailed      = errors.New("ipc: failed to size shared segment")
)
