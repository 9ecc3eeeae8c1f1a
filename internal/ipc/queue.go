package ipc

import (
	"path/filepath"
	"sync/atomic"

	"github.com/pkg/errors"
)

// SharedTaskQueue is a fixed-capacity circular buffer of
// SharedTaskRecord slots living in a named memory segment, guarded by
// the classic (capacity, 0, 1) semaphore triple described in
// spec.md §4.1. One process calls Create and, eventually, Destroy; any
// number of other processes Attach and Detach.
type SharedTaskQueue struct {
	dir  string
	name string

	seg *segment
	sem semTriple

	attached atomic.Bool
}

// NewSharedTaskQueue constructs a queue handle for the given name under
// dir (DefaultSegmentDir() if dir is empty). The handle is not attached
// until Create or Attach is called.
func NewSharedTaskQueue(dir, name string) *SharedTaskQueue {
	if dir == "" {
		dir = DefaultSegmentDir()
	}
	return &SharedTaskQueue{dir: dir, name: name}
}

func (q *SharedTaskQueue) semPath(suffix string) string {
	return filepath.Join(q.dir, sanitizeName(q.name)+suffix)
}

// Create unlinks any stale segment and semaphores sharing this queue's
// name, then creates fresh ones. Any failure rolls back whatever was
// already allocated before surfacing the error.
func (q *SharedTaskQueue) Create(capacity uint32) (err error) {
	_ = destroySegmentFile(q.dir, q.name)
	for _, suffix := range [...]string{"_enq", "_deq", "_mut"} {
		if sem, attachErr := attachSemaphore(q.semPath(suffix)); attachErr == nil {
			sem.close()
			sem.unlink()
		}
	}

	seg, err := createSegment(q.dir, q.name, capacity)
	if err != nil {
		return err
	}

	var triple semTriple
	rollback := func(openErr error) error {
		seg.detach()
		_ = destroySegmentFile(q.dir, q.name)
		triple.closeAll()
		triple.unlinkAll()
		return errors.Wrap(ErrSegmentCreateFailed, openErr.Error())
	}

	triple.enq, err = createSemaphore(q.semPath("_enq"), int(capacity))
	if err != nil {
		return rollback(err)
	}
	triple.deq, err = createSemaphore(q.semPath("_deq"), 0)
	if err != nil {
		return rollback(err)
	}
	triple.mut, err = createSemaphore(q.semPath("_mut"), 1)
	if err != nil {
		return rollback(err)
	}

	q.seg = seg
	q.sem = triple
	q.attached.Store(true)
	return nil
}

// Attach opens the existing segment and semaphore triple.
func (q *SharedTaskQueue) Attach() error {
	seg, err := attachSegment(q.dir, q.name)
	if err != nil {
		return err
	}
	var triple semTriple
	if triple.enq, err = attachSemaphore(q.semPath("_enq")); err != nil {
		seg.detach()
		return errors.Wrap(ErrNotAttached, err.Error())
	}
	if triple.deq, err = attachSemaphore(q.semPath("_deq")); err != nil {
		seg.detach()
		triple.closeAll()
		return errors.Wrap(ErrNotAttached, err.Error())
	}
	if triple.mut, err = attachSemaphore(q.semPath("_mut")); err != nil {
		seg.detach()
		triple.closeAll()
		return errors.Wrap(ErrNotAttached, err.Error())
	}

	q.seg = seg
	q.sem = triple
	q.attached.Store(true)
	return nil
}

func (q *SharedTaskQueue) requireAttached() error {
	if !q.attached.Load() || q.seg == nil {
		return ErrNotAttached
	}
	return nil
}

// Detach unmaps the segment and closes the semaphore handles, but
// leaves the backing names in place for other attachers.
func (q *SharedTaskQueue) Detach() error {
	if !q.attached.Load() {
		return nil
	}
	var firstErr error
	if q.seg != nil {
		if err := q.seg.detach(); err != nil {
			firstErr = err
		}
	}
	if err := q.sem.closeAll(); err != nil && firstErr == nil {
		firstErr = err
	}
	q.attached.Store(false)
	return firstErr
}

// Destroy detaches, then unlinks the segment file and all three
// semaphores. Idempotent, and never propagates errors: it is meant to
// be safe to call unconditionally during teardown, per spec.md §4.1.
func (q *SharedTaskQueue) Destroy(log func(string)) {
	if err := q.Detach(); err != nil && log != nil {
		log("detach during destroy: " + err.Error())
	}
	if err := destroySegmentFile(q.dir, q.name); err != nil && log != nil {
		log("unlink segment during destroy: " + err.Error())
	}
	if err := q.sem.unlinkAll(); err != nil && log != nil {
		log("unlink semaphores during destroy: " + err.Error())
	}
}

// Capacity returns the ring's fixed slot count.
func (q *SharedTaskQueue) Capacity() uint32 {
	if q.seg == nil {
		return 0
	}
	return q.seg.capacity
}

// Enqueue blocks until a slot is free, writes the record, and wakes one
// blocked dequeuer. See spec.md §4.1 for the exact wait/post sequence
// and the mut-rollback-on-failure requirement.
func (q *SharedTaskQueue) Enqueue(rec SharedTaskRecord) error {
	if err := q.requireAttached(); err != nil {
		return err
	}
	if err := q.sem.enq.wait(); err != nil {
		return errors.Wrap(ErrSemaphoreFailure, err.Error())
	}
	if err := q.sem.mut.wait(); err != nil {
		if postErr := q.sem.enq.post(); postErr != nil {
			return errors.Wrap(ErrSemaphoreFailure, postErr.Error())
		}
		return errors.Wrap(ErrSemaphoreFailure, err.Error())
	}

	h := q.seg.header
	rear := h.rear()
	if err := q.seg.writeSlot(rear, rec); err != nil {
		q.sem.mut.post()
		q.sem.enq.post()
		return err
	}
	h.setRear((rear + 1) % h.capacity())
	h.setCount(h.count() + 1)
	h.setTotalEnqueued(h.totalEnqueued() + 1)

	if err := q.sem.mut.post(); err != nil {
		return errors.Wrap(ErrSemaphoreFailure, err.Error())
	}
	if err := q.sem.deq.post(); err != nil {
		return errors.Wrap(ErrSemaphoreFailure, err.Error())
	}
	return nil
}

// Dequeue blocks until a record is available, removes it from the
// ring, and wakes one blocked enqueuer.
func (q *SharedTaskQueue) Dequeue() (SharedTaskRecord, error) {
	var rec SharedTaskRecord
	if err := q.requireAttached(); err != nil {
		return rec, err
	}
	if err := q.sem.deq.wait(); err != nil {
		return rec, errors.Wrap(ErrSemaphoreFailure, err.Error())
	}
	if err := q.sem.mut.wait(); err != nil {
		if postErr := q.sem.deq.post(); postErr != nil {
			return rec, errors.Wrap(ErrSemaphoreFailure, postErr.Error())
		}
		return rec, errors.Wrap(ErrSemaphoreFailure, err.Error())
	}

	h := q.seg.header
	if h.count() == 0 {
		// Defensive: a well-formed semaphore pair never lands here.
		q.sem.mut.post()
		q.sem.deq.post()
		return rec, ErrQueueEmpty
	}

	front := h.front()
	if err := q.seg.readSlot(front, &rec); err != nil {
		q.sem.mut.post()
		q.sem.deq.post()
		return rec, err
	}
	h.setFront((front + 1) % h.capacity())
	h.setCount(h.count() - 1)
	h.setTotalDequeued(h.totalDequeued() + 1)

	if err := q.sem.mut.post(); err != nil {
		return rec, errors.Wrap(ErrSemaphoreFailure, err.Error())
	}
	if err := q.sem.enq.post(); err != nil {
		return rec, errors.Wrap(ErrSemaphoreFailure, err.Error())
	}
	return rec, nil
}

// Size returns the current record count, read without mut: it is a
// point-in-time hint, consistent with scheduler_running's visibility
// rules in spec.md §5.
func (q *SharedTaskQueue) Size() (int, error) {
	if err := q.requireAttached(); err != nil {
		return 0, err
	}
	return int(q.seg.header.count()), nil
}

// Empty reports whether Size() == 0.
func (q *SharedTaskQueue) Empty() (bool, error) {
	n, err := q.Size()
	return n == 0, err
}

// Stats returns the ring cursors and lifetime counters, grounded on
// original_source/TaskQueueManager's getStatistics().
func (q *SharedTaskQueue) Stats() (QueueStats, error) {
	if err := q.requireAttached(); err != nil {
		return QueueStats{}, err
	}
	h := q.seg.header
	return QueueStats{
		Count:         h.count(),
		Capacity:      h.capacity(),
		TotalEnqueued: h.totalEnqueued(),
		TotalDequeued: h.totalDequeued(),
	}, nil
}

// SetSchedulerRunning sets the process-wide running flag visible to
// every attached process, without taking mut (spec.md §5).
func (q *SharedTaskQueue) SetSchedulerRunning(running bool) error {
	if err := q.requireAttached(); err != nil {
		return err
	}
	q.seg.header.setSchedulerRunning(running)
	return nil
}

// IsSchedulerRunning reads the flag set by SetSchedulerRunning.
func (q *SharedTaskQueue) IsSchedulerRunning() (bool, error) {
	if err := q.requireAttached(); err != nil {
		return false, err
	}
	return q.seg.header.schedulerRunning(), nil
}
