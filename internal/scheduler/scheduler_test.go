package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/taskscheduler/internal/ipc"
	"github.com/hrygo/taskscheduler/internal/policy"
	"github.com/hrygo/taskscheduler/internal/task"
)

func newTestQueue(t *testing.T, capacity uint32) *ipc.SharedTaskQueue {
	t.Helper()
	q := ipc.NewSharedTaskQueue(t.TempDir(), "sched-test")
	require.NoError(t, q.Create(capacity))
	t.Cleanup(func() { q.Destroy(func(string) {}) })
	return q
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Fail(t, "condition not met before timeout")
}

// Scenario 5 from spec.md §8: a short CPU-bound task completes within
// a single quantum and is never seen in the queue again.
func TestSchedulerCompletesShortCPUTask(t *testing.T) {
	q := newTestQueue(t, 8)
	s := New(q, WithPolicy(policy.NewRoundRobin()), WithQuantum(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	ct, err := task.NewCpuIntensive(1, "short", 0, 5)
	require.NoError(t, err)
	require.NoError(t, s.Add(ct))

	waitUntil(t, 2*time.Second, func() bool {
		n, err := s.TaskCount()
		return err == nil && n == 0
	})
}

// Scenario 3 from spec.md §8: under round-robin every submitted task
// runs to completion and the queue drains; the visiting order is not
// checked here.
func TestSchedulerRoundRobinRunsAllTasks(t *testing.T) {
	q := newTestQueue(t, 8)
	s := New(q, WithPolicy(policy.NewRoundRobin()), WithQuantum(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	for i := int32(1); i <= 3; i++ {
		ct, err := task.NewCpuIntensive(i, "rr", 0, 2)
		require.NoError(t, err)
		require.NoError(t, s.Add(ct))
	}

	waitUntil(t, 3*time.Second, func() bool {
		n, err := s.TaskCount()
		return err == nil && n == 0
	})
}

func TestSchedulerSetPolicyAndQuantum(t *testing.T) {
	q := newTestQueue(t, 8)
	s := New(q)

	require.Equal(t, "round-robin", s.Policy().Name())
	s.SetPolicy(policy.NewStaticPriority())
	require.Equal(t, "static-priority", s.Policy().Name())

	require.Equal(t, DefaultQuantum, s.Quantum())
	s.SetQuantum(250 * time.Millisecond)
	require.Equal(t, 250*time.Millisecond, s.Quantum())
}

func TestSchedulerStartStopIdempotent(t *testing.T) {
	q := newTestQueue(t, 4)
	s := New(q)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Start(ctx)) // second Start is a no-op
	require.True(t, s.Running())

	s.Stop()
	s.Stop() // second Stop is a no-op
	require.False(t, s.Running())
}

func TestSchedulerTaskCountReflectsQueueDepth(t *testing.T) {
	q := newTestQueue(t, 4)
	s := New(q)

	ct, err := task.NewCpuIntensive(1, "idle", 0, 1000)
	require.NoError(t, err)
	require.NoError(t, s.Add(ct))

	n, err := s.TaskCount()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
