package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExporterObserveEnqueueAndCompletion(t *testing.T) {
	e := New(func() float64 { return 3 })

	e.ObserveEnqueue()
	e.ObserveEnqueue()
	e.ObserveCompletion(50 * time.Millisecond)
	// A sentinel "unbounded" duration (e.g. IoBound's TotalTime) must
	// not land in the duration histogram.
	e.ObserveCompletion(2 * time.Hour)

	body := scrape(t, e)
	require.Contains(t, body, "taskscheduler_queue_depth 3")
	require.Contains(t, body, "taskscheduler_tasks_enqueued_total 2")
	require.Contains(t, body, "taskscheduler_tasks_completed_total 2")
	require.Contains(t, body, `taskscheduler_task_duration_seconds_bucket`)
}

func TestExporterQueueDepthReflectsDepthFunc(t *testing.T) {
	depth := 0.0
	e := New(func() float64 { return depth })

	depth = 7
	body := scrape(t, e)
	require.Contains(t, body, "taskscheduler_queue_depth 7")
}

func scrape(t *testing.T, e *Exporter) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
