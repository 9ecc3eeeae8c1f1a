package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeDriver struct {
	recorded []CompletedTask
	listed   []CompletedTask
	closed   bool
	recErr   error
	listErr  error
}

func (f *fakeDriver) RecordCompletion(_ context.Context, t CompletedTask) error {
	if f.recErr != nil {
		return f.recErr
	}
	f.recorded = append(f.recorded, t)
	return nil
}

func (f *fakeDriver) ListCompleted(_ context.Context, limit int) ([]CompletedTask, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit < len(f.listed) {
		return f.listed[:limit], nil
	}
	return f.listed, nil
}

func (f *fakeDriver) Close() error {
	f.closed = true
	return nil
}

func TestStoreRecordForwardsToDriver(t *testing.T) {
	d := &fakeDriver{}
	s := New(d)

	entry := CompletedTask{ID: 1, Description: "job", Priority: 3, CompletedAt: time.Now()}
	require.NoError(t, s.Record(context.Background(), entry))
	require.Equal(t, []CompletedTask{entry}, d.recorded)
}

func TestStoreListCompletedForwardsToDriver(t *testing.T) {
	d := &fakeDriver{listed: []CompletedTask{
		{ID: 1, Description: "a"},
		{ID: 2, Description: "b"},
		{ID: 3, Description: "c"},
	}}
	s := New(d)

	got, err := s.ListCompleted(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestStoreCloseForwardsToDriver(t *testing.T) {
	d := &fakeDriver{}
	s := New(d)
	require.NoError(t, s.Close())
	require.True(t, d.closed)
}
