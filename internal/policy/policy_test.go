package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/taskscheduler/internal/task"
)

func mustCPU(t *testing.T, id int32, priority int) task.Task {
	t.Helper()
	c, err := task.NewCpuIntensive(id, "t", priority, 1000)
	require.NoError(t, err)
	return c
}

func TestRoundRobinRotates(t *testing.T) {
	p := NewRoundRobin()
	tasks := []task.Task{mustCPU(t, 1, 0), mustCPU(t, 2, 0)}

	i1, err := p.Select(tasks)
	require.NoError(t, err)
	i2, err := p.Select(tasks)
	require.NoError(t, err)
	i3, err := p.Select(tasks)
	require.NoError(t, err)

	require.NotEqual(t, i1, i2)
	require.Equal(t, i1, i3)
}

func TestRoundRobinEmpty(t *testing.T) {
	p := NewRoundRobin()
	_, err := p.Select(nil)
	require.ErrorIs(t, err, ErrEmptyTaskSet)
}

// Scenario 2 from spec.md §8: priority ordering.
func TestStaticPriorityPicksHighest(t *testing.T) {
	p := NewStaticPriority()
	tasks := []task.Task{mustCPU(t, 1, 10), mustCPU(t, 2, 5)}
	i, err := p.Select(tasks)
	require.NoError(t, err)
	require.Equal(t, 0, i)
	require.EqualValues(t, 1, tasks[i].ID())
}

func TestStaticPriorityTieBreaksByInsertionOrder(t *testing.T) {
	p := NewStaticPriority()
	tasks := []task.Task{mustCPU(t, 1, 5), mustCPU(t, 2, 5)}
	i, err := p.Select(tasks)
	require.NoError(t, err)
	require.Equal(t, 0, i)
}

func TestDynamicPriorityRecomputesBeforeSelect(t *testing.T) {
	p := NewDynamicPriority()
	starved, err := task.NewCpuIntensive(1, "starved", 0, 1000)
	require.NoError(t, err)
	fresh, err := task.NewCpuIntensive(2, "fresh", 0, 1000)
	require.NoError(t, err)

	_, err = fresh.Execute(1 * time.Millisecond) // pushes cpu_usage up
	require.NoError(t, err)

	tasks := []task.Task{starved, fresh}
	for _, tk := range tasks {
		p.UpdatePriority(tk)
	}
	i, err := p.Select(tasks)
	require.NoError(t, err)
	require.Equal(t, 0, i)
}
