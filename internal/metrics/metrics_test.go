package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveSweep(10 * time.Millisecond)
	m.ObserveSweep(20 * time.Millisecond)
	m.TaskAssigned("beginner")
	m.SweepSkip(SkipNotDue)
	m.SweepSkip(SkipNotDue)
	m.DeliveryFailed()
	m.AnswerGraded("grade-task", "correct", time.Second)
	m.SessionsActive(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sweeps))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasksAssigned.WithLabelValues("beginner")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sweepSkips.WithLabelValues(SkipNotDue)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveryFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.answersGraded.WithLabelValues("grade-task", "correct")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.activeSessions))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSweep(time.Second)
		m.TaskAssigned("advanced")
		m.SweepSkip(SkipPending)
		m.DeliveryFailed()
		m.AnswerGraded("grade-assessment", "ungraded", 0)
		m.SessionsActive(1)
	})
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.TaskAssigned("intermediate")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `tutorbot_tasks_assigned_total{level="intermediate"} 1`))
}
