package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/hrygo/taskscheduler/internal/ipc"
	"github.com/hrygo/taskscheduler/internal/task"
)

// runReorderer implements spec.md §4.4's reorderer thread: on a fixed
// interval, drain the whole queue, let the active policy recompute
// priorities and pick the new head, then re-enqueue starting with that
// head. The queue's multiset of tasks is preserved exactly; only
// order changes (spec.md §8's reorder-pass invariant).
func (s *Scheduler) runReorderer(ctx context.Context) {
	defer s.wg.Done()

	for s.running.Load() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.reorderPass()
		sleep(ctx, reordererInterval)
	}
}

func (s *Scheduler) reorderPass() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("reorderer: recovered from panic: %v", r)
		}
	}()

	traceID := newTraceID()

	drained, err := s.drainAll()
	if err != nil {
		s.log.Errorf("reorderer[%s]: drain: %v", traceID, err)
		return
	}
	if len(drained) == 0 {
		return
	}

	p := s.Policy()
	for _, t := range drained {
		p.UpdatePriority(t)
	}

	head, err := p.Select(drained)
	if err != nil {
		s.log.Errorf("reorderer[%s]: select: %v", traceID, err)
		head = 0
	}

	ordered := make([]task.Task, 0, len(drained))
	ordered = append(ordered, drained[head])
	for i, t := range drained {
		if i != head {
			ordered = append(ordered, t)
		}
	}

	for _, t := range ordered {
		rec, err := task.ConvertToShared(t)
		if err != nil {
			s.log.Errorf("reorderer[%s]: re-serialize task %d: %v", traceID, t.ID(), err)
			continue
		}
		if err := s.queue.Enqueue(rec); err != nil {
			s.log.Errorf("reorderer[%s]: re-enqueue task %d: %v", traceID, t.ID(), err)
		}
	}

	s.log.Log(traceID + ": reordered " + p.Name() + " pass complete")
}

// drainAll empties the queue into a slice, in FIFO order. It stops as
// soon as the queue reports empty; a concurrent Add racing this drain
// may land its task either side of the cut, which is fine since the
// next pass picks it up.
func (s *Scheduler) drainAll() ([]task.Task, error) {
	var drained []task.Task
	for {
		empty, err := s.queue.Empty()
		if err != nil {
			return drained, err
		}
		if empty {
			return drained, nil
		}
		rec, err := s.queue.Dequeue()
		if err != nil {
			if errors.Is(err, ipc.ErrQueueEmpty) {
				return drained, nil
			}
			return drained, err
		}
		t, err := task.ConvertFromShared(rec)
		if err != nil {
			s.log.Errorf("reorderer: convert task %d: %v", rec.ID, err)
			continue
		}
		drained = append(drained, t)
	}
}

// sleep waits for d or ctx cancellation, whichever comes first.
func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
