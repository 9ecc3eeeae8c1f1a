package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/taskscheduler/internal/history"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)
}

func TestRecordAndListCompleted(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, desc := range []string{"first", "second", "third"} {
		err := db.RecordCompletion(ctx, history.CompletedTask{
			ID:          int32(i + 1),
			Description: desc,
			Priority:    i,
			CompletedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	got, err := db.ListCompleted(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Newest first.
	require.Equal(t, "third", got[0].Description)
	require.Equal(t, "second", got[1].Description)
	require.Equal(t, "first", got[2].Description)
}

func TestListCompletedRespectsLimit(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, db.RecordCompletion(ctx, history.CompletedTask{
			ID:          int32(i),
			Description: "task",
			CompletedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	got, err := db.ListCompleted(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestListCompletedEmpty(t *testing.T) {
	db := openMemory(t)
	got, err := db.ListCompleted(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, got)
}
