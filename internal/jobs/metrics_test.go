package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("dashboard_warmup").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("dashboard_warmup").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("dashboard_warmup", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("dashboard_warmup", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("dashboard_warmup")))
}

func TestDashboardWarmed(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.DashboardWarmed("year")
	m.DashboardWarmed("year")
	m.DashboardWarmed("month")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.warmed.WithLabelValues("year")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.warmed.WithLabelValues("month")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.DashboardWarmed("year")
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("x").End(boom), boom)
}
