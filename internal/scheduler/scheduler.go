// Package scheduler wires the ring-buffer queue (internal/ipc), the
// task variants (internal/task), and the scheduling policies
// (internal/policy) into the two-thread cooperative loop described in
// spec.md §4.4: an executor thread that runs tasks off the head of the
// queue and a reorderer thread that periodically re-sorts the queue in
// place.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/taskscheduler/internal/history"
	"github.com/hrygo/taskscheduler/internal/ipc"
	"github.com/hrygo/taskscheduler/internal/logx"
	"github.com/hrygo/taskscheduler/internal/metrics"
	"github.com/hrygo/taskscheduler/internal/policy"
	"github.com/hrygo/taskscheduler/internal/task"
)

const (
	// DefaultQuantum is the time slice handed to a task when the
	// caller hasn't configured one (spec.md §4.4).
	DefaultQuantum = 100 * time.Millisecond

	executorIdleSleep = 100 * time.Millisecond
	reordererInterval = 500 * time.Millisecond
)

// Scheduler owns one SharedTaskQueue and runs the executor/reorderer
// goroutine pair against it.
type Scheduler struct {
	queue *ipc.SharedTaskQueue

	policyMu sync.RWMutex
	policy   policy.SchedulingPolicy

	quantum atomic.Int64
	running atomic.Bool
	wg      sync.WaitGroup

	log     logx.Logger
	history *history.Store
	metrics *metrics.Exporter
}

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithPolicy sets the initial scheduling policy. Defaults to
// RoundRobin, matching spec.md §4.3's stated default.
func WithPolicy(p policy.SchedulingPolicy) Option {
	return func(s *Scheduler) { s.policy = p }
}

// WithQuantum sets the initial time quantum.
func WithQuantum(d time.Duration) Option {
	return func(s *Scheduler) { s.quantum.Store(int64(d)) }
}

// WithLogger attaches a log sink. Defaults to logx.Noop.
func WithLogger(l logx.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithHistory attaches a completed-task audit store.
func WithHistory(h *history.Store) Option {
	return func(s *Scheduler) { s.history = h }
}

// WithMetrics attaches a Prometheus exporter.
func WithMetrics(m *metrics.Exporter) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// New builds a Scheduler bound to an already-attached queue.
func New(queue *ipc.SharedTaskQueue, opts ...Option) *Scheduler {
	s := &Scheduler{
		queue:  queue,
		policy: policy.NewRoundRobin(),
		log:    logx.Noop{},
	}
	s.quantum.Store(int64(DefaultQuantum))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the executor and reorderer goroutines. It is
// idempotent: calling Start on a running Scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.queue.SetSchedulerRunning(true); err != nil {
		s.running.Store(false)
		return fmt.Errorf("scheduler: start: %w", err)
	}
	s.log.Log("scheduler started, policy=" + s.Policy().Name())
	s.wg.Add(2)
	go s.runExecutor(ctx)
	go s.runReorderer(ctx)
	return nil
}

// Stop signals both loops to exit at their next yield point and
// blocks until they return. In steady state (no producer racing the
// shutdown) both loops observe an empty queue within one idle sleep
// and return promptly; see spec.md §4.4's note that stop is
// cooperative, not preemptive.
func (s *Scheduler) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	_ = s.queue.SetSchedulerRunning(false)
	s.wg.Wait()
	s.log.Log("scheduler stopped")
}

// Add converts t to its wire form and enqueues it.
func (s *Scheduler) Add(t task.Task) error {
	rec, err := task.ConvertToShared(t)
	if err != nil {
		return fmt.Errorf("scheduler: add: %w", err)
	}
	if err := s.queue.Enqueue(rec); err != nil {
		return fmt.Errorf("scheduler: add: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ObserveEnqueue()
	}
	return nil
}

// SetPolicy swaps the active scheduling policy. Safe to call while
// running; the reorderer picks it up on its next pass.
func (s *Scheduler) SetPolicy(p policy.SchedulingPolicy) {
	s.policyMu.Lock()
	s.policy = p
	s.policyMu.Unlock()
	s.log.Log("policy changed to " + p.Name())
}

// Policy returns the active scheduling policy.
func (s *Scheduler) Policy() policy.SchedulingPolicy {
	s.policyMu.RLock()
	defer s.policyMu.RUnlock()
	return s.policy
}

// SetQuantum updates the per-task time slice.
func (s *Scheduler) SetQuantum(d time.Duration) {
	s.quantum.Store(int64(d))
	s.log.Log(fmt.Sprintf("quantum changed to %s", d))
}

// Quantum returns the current per-task time slice.
func (s *Scheduler) Quantum() time.Duration {
	return time.Duration(s.quantum.Load())
}

// TaskCount reports how many tasks currently sit in the queue.
func (s *Scheduler) TaskCount() (int, error) {
	n, err := s.queue.Size()
	if err != nil {
		return 0, fmt.Errorf("scheduler: task_count: %w", err)
	}
	return int(n), nil
}

// Running reports whether the scheduler's loops are active.
func (s *Scheduler) Running() bool { return s.running.Load() }

func (s *Scheduler) recordCompletion(t task.Task) {
	s.log.Log(fmt.Sprintf("task %d (%s) completed", t.ID(), t.Description()))
	if s.metrics != nil {
		s.metrics.ObserveCompletion(t.TotalTime())
	}
	if s.history != nil {
		entry := history.CompletedTask{
			ID:          t.ID(),
			Description: t.Description(),
			Priority:    t.Priority(),
			CompletedAt: time.Now(),
		}
		if err := s.history.Record(context.Background(), entry); err != nil {
			s.log.Errorf("scheduler: history record for task %d failed: %v", t.ID(), err)
		}
	}
}

func newTraceID() string { return uuid.NewString() }
