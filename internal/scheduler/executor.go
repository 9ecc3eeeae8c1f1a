package scheduler

import (
	"context"
	"errors"

	"github.com/hrygo/taskscheduler/internal/ipc"
	"github.com/hrygo/taskscheduler/internal/task"
)

// runExecutor implements spec.md §4.4's executor thread: while
// running, pop the head task and run it for up to one quantum (or to
// completion, if its total work fits inside a single quantum), then
// either re-enqueue it at the tail or record its completion.
func (s *Scheduler) runExecutor(ctx context.Context) {
	defer s.wg.Done()

	for s.running.Load() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		empty, err := s.queue.Empty()
		if err != nil {
			s.log.Errorf("executor: empty check: %v", err)
			sleep(ctx, executorIdleSleep)
			continue
		}
		if empty {
			sleep(ctx, executorIdleSleep)
			continue
		}

		rec, err := s.queue.Dequeue()
		if err != nil {
			if errors.Is(err, ipc.ErrQueueEmpty) {
				continue
			}
			s.log.Errorf("executor: dequeue: %v", err)
			continue
		}

		t, err := task.ConvertFromShared(rec)
		if err != nil {
			s.log.Errorf("executor: convert task %d: %v", rec.ID, err)
			continue
		}

		s.runOneSafely(t)
	}
}

// runOneSafely wraps runOne in a recover so a panic inside a task's
// Execute (a future Task variant, a slicing or nil-deref bug) is
// logged and the executor loop keeps running, the same contract
// reorderPass gives the reorderer thread (spec.md §4.4, §7: both
// worker threads log-and-continue rather than crash).
func (s *Scheduler) runOneSafely(t task.Task) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("executor: recovered from panic running task %d: %v", t.ID(), r)
		}
	}()
	s.runOne(t)
}

// runOne executes a single task for one slice and dispatches the
// result: completion is recorded, otherwise the task is re-enqueued
// at the tail with its updated remaining work.
func (s *Scheduler) runOne(t task.Task) {
	quantum := s.Quantum()

	slice := quantum
	if total := t.TotalTime(); total > 0 && total < quantum {
		slice = total
	}

	completed, err := t.Execute(slice)
	if err != nil {
		s.log.Errorf("executor: task %d execute: %v", t.ID(), err)
		// A task that cannot execute at all (e.g. Generic, whose
		// Execute always returns task.ErrNotImplemented) is treated as
		// finished so it doesn't spin forever in the queue.
		completed = true
	}

	if completed {
		s.recordCompletion(t)
		return
	}

	if !s.running.Load() {
		return
	}

	rec, err := task.ConvertToShared(t)
	if err != nil {
		s.log.Errorf("executor: re-serialize task %d: %v", t.ID(), err)
		return
	}
	if err := s.queue.Enqueue(rec); err != nil {
		s.log.Errorf("executor: re-enqueue task %d: %v", t.ID(), err)
	}
}
