package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/taskscheduler/internal/ipc"
)

// Scenario 4 from spec.md §8: priority bounds.
func TestPriorityBounds(t *testing.T) {
	_, err := NewCpuIntensive(1, "desc", 22, 100)
	require.ErrorIs(t, err, ErrInvalidPriority)

	_, err = NewCpuIntensive(1, "desc", -21, 100)
	require.ErrorIs(t, err, ErrInvalidPriority)

	valid, err := NewCpuIntensive(1, "desc", 19, 100)
	require.NoError(t, err)
	require.Equal(t, 19, valid.Priority())
}

func TestSetStaticPriorityOutOfRange(t *testing.T) {
	c, err := NewCpuIntensive(1, "desc", 0, 100)
	require.NoError(t, err)
	require.ErrorIs(t, c.SetStaticPriority(20), ErrInvalidPriority)
	require.ErrorIs(t, c.SetStaticPriority(-21), ErrInvalidPriority)
	require.NoError(t, c.SetStaticPriority(10))
}

// Scenario 5 from spec.md §8: CPU-task completion.
func TestCpuIntensiveCompletes(t *testing.T) {
	c, err := NewCpuIntensive(1, "short job", 0, 5)
	require.NoError(t, err)

	deadline := time.Now().Add(500 * time.Millisecond)
	var done bool
	for time.Now().Before(deadline) && !done {
		done, err = c.Execute(500 * time.Millisecond)
		require.NoError(t, err)
	}
	require.True(t, done)
	require.Equal(t, StateCompleted, c.State())
	require.True(t, c.IsCompleted())
}

func TestCpuIntensiveReadyAfterPartialQuantum(t *testing.T) {
	c, err := NewCpuIntensive(1, "long job", 0, 1000)
	require.NoError(t, err)
	done, err := c.Execute(5 * time.Millisecond)
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, StateReady, c.State())
}

func TestIoBoundCompletesOnOperationCount(t *testing.T) {
	path := t.TempDir() + "/io.log"
	io, err := NewIoBound(1, "io job", 0, path, 1)
	require.NoError(t, err)

	done, err := io.Execute(20 * time.Millisecond)
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, StateCompleted, io.State())
}

func TestIoBoundUnopenableFileCompletesImmediately(t *testing.T) {
	io, err := NewIoBound(1, "io job", 0, "/nonexistent-dir/does/not/exist.log", 5)
	require.NoError(t, err)
	done, err := io.Execute(10 * time.Millisecond)
	require.NoError(t, err)
	require.True(t, done)
}

func TestGenericExecuteNotImplemented(t *testing.T) {
	g, err := NewGeneric(1, "ls", 0, "ls -la")
	require.NoError(t, err)
	_, err = g.Execute(time.Millisecond)
	require.ErrorIs(t, err, ErrNotImplemented)
}

func TestDynamicPriorityStaysInBounds(t *testing.T) {
	c, err := NewCpuIntensive(1, "desc", MaxPriority, 100_000)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		c.AdjustDynamicPriority()
		p := c.Priority()
		require.GreaterOrEqual(t, p, MinPriority)
		require.LessOrEqual(t, p, MaxPriority)
	}
}

func TestConvertRoundTrip(t *testing.T) {
	c, err := NewCpuIntensive(5, "round trip", 3, 250)
	require.NoError(t, err)

	rec, err := ConvertToShared(c)
	require.NoError(t, err)
	require.EqualValues(t, 5, rec.ID)
	require.Equal(t, ipc.KindCPUIntensive, rec.Kind)
	require.False(t, rec.Completed)
	require.GreaterOrEqual(t, rec.RemainingMs, int32(0))

	restored, err := ConvertFromShared(rec)
	require.NoError(t, err)
	require.Equal(t, rec.ID, restored.ID())
	require.Equal(t, rec.Description, restored.Description())
	require.False(t, restored.IsCompleted())
}

func TestConvertFromSharedClampsPriority(t *testing.T) {
	rec := ipc.SharedTaskRecord{ID: 1, Priority: 50, Description: "d", Kind: ipc.KindGeneric}
	restored, err := ConvertFromShared(rec)
	require.NoError(t, err)
	require.Equal(t, MaxPriority, restored.Priority())
}

func TestConvertFromSharedHonorsCompleted(t *testing.T) {
	rec := ipc.SharedTaskRecord{ID: 2, Priority: 0, Description: "d", Kind: ipc.KindCPUIntensive, Completed: true}
	restored, err := ConvertFromShared(rec)
	require.NoError(t, err)
	require.True(t, restored.IsCompleted())
	require.Equal(t, StateCompleted, restored.State())
}
