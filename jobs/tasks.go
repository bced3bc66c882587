package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sitecost/sitecost/internal/projects"
)

const (
	// QueueDefault is the only queue the worker consumes.
	QueueDefault = "default"

	// TaskDashboardRefresh drops cached dashboards and rebuilds one period.
	TaskDashboardRefresh = "dashboard:refresh"
	// TaskDashboardWarmup fills the cache for the current year and month.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskDashboardExport writes a dashboard workbook into the upload store.
	TaskDashboardExport = "dashboard:export"
)

// PeriodPayload carries a dashboard period. Zero fields mean "current year"
// and "whole year".
type PeriodPayload struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`
}

func (p PeriodPayload) period() projects.Period {
	return projects.Period{Year: p.Year, Month: p.Month}
}

func newPeriodTask(typ string, period projects.Period, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(PeriodPayload{Year: period.Year, Month: period.Month})
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return asynq.NewTask(typ, data, opts...), nil
}

// NewDashboardRefreshTask is deduplicated per period for a minute so that a
// burst of refresh clicks rebuilds once.
func NewDashboardRefreshTask(period projects.Period) (*asynq.Task, error) {
	return newPeriodTask(TaskDashboardRefresh, period,
		asynq.Queue(QueueDefault), asynq.Unique(time.Minute), asynq.MaxRetry(3))
}

func NewDashboardExportTask(period projects.Period) (*asynq.Task, error) {
	return newPeriodTask(TaskDashboardExport, period, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
}

func NewDashboardWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskDashboardWarmup, nil, asynq.Queue(QueueDefault), asynq.MaxRetry(1))
}

func decodePeriod(t *asynq.Task) (projects.Period, error) {
	var payload PeriodPayload
	if len(t.Payload()) == 0 {
		return payload.period(), nil
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return projects.Period{}, fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return payload.period(), nil
}
