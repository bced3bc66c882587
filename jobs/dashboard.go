package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/sitecost/sitecost/internal/jobs"
	"github.com/sitecost/sitecost/internal/projects"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DashboardSource is the part of the projects service the worker drives.
type DashboardSource interface {
	Dashboard(ctx context.Context, period projects.Period) (*projects.Dashboard, error)
	Refresh(ctx context.Context, period projects.Period) (*projects.Dashboard, error)
}

// FileSaver stores generated exports.
type FileSaver interface {
	Save(subdir, filename string, r io.Reader, allowed ...string) (string, error)
}

// DashboardJob handles the dashboard tasks.
type DashboardJob struct {
	Source  DashboardSource
	Files   FileSaver
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

func NewDashboardJob(source DashboardSource, files FileSaver, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardJob {
	return &DashboardJob{
		Source:  source,
		Files:   files,
		Logger:  logger,
		Metrics: metrics,
		clock:   time.Now,
	}
}

// Handlers lists the task handlers for WorkerConfig.
func (j *DashboardJob) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskDashboardRefresh, Handler: j.HandleRefresh},
		{Type: TaskDashboardWarmup, Handler: j.HandleWarmup},
		{Type: TaskDashboardExport, Handler: j.HandleExport},
	}
}

// HandleRefresh bumps the cache version and rebuilds the requested period.
func (j *DashboardJob) HandleRefresh(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Source == nil {
		return errors.New("dashboard refresh: handler not configured")
	}
	tracker := j.metrics().Track(TaskDashboardRefresh)
	defer func() { err = tracker.End(err) }()

	period, err := decodePeriod(t)
	if err != nil {
		return err
	}
	d, err := j.Source.Refresh(ctx, period)
	if err != nil {
		j.logger().Error("dashboard refresh", slog.Any("period", period), slog.Any("error", err))
		return err
	}
	j.logger().Info("dashboard refreshed", slog.Int("year", d.Period.Year), slog.Int("month", d.Period.Month),
		slog.Int("projects", len(d.Projects)))
	return nil
}

// HandleWarmup builds the current year and current month so the first
// dashboard request of the day hits the cache.
func (j *DashboardJob) HandleWarmup(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Source == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	tracker := j.metrics().Track(TaskDashboardWarmup)
	defer func() { err = tracker.End(err) }()

	now := j.now()
	periods := []struct {
		scope  string
		period projects.Period
	}{
		{"year", projects.Period{Year: now.Year()}},
		{"month", projects.Period{Year: now.Year(), Month: int(now.Month())}},
	}
	for _, p := range periods {
		if _, err := j.Source.Dashboard(ctx, p.period); err != nil {
			j.logger().Error("dashboard warmup", slog.String("scope", p.scope), slog.Any("error", err))
			return err
		}
		j.metrics().DashboardWarmed(p.scope)
	}
	return nil
}

// HandleExport renders the dashboard workbook into exports/.
func (j *DashboardJob) HandleExport(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Source == nil || j.Files == nil {
		return errors.New("dashboard export: handler not configured")
	}
	tracker := j.metrics().Track(TaskDashboardExport)
	defer func() { err = tracker.End(err) }()

	period, err := decodePeriod(t)
	if err != nil {
		return err
	}
	d, err := j.Source.Dashboard(ctx, period)
	if err != nil {
		return err
	}
	f, err := projects.DashboardWorkbook(d)
	if err != nil {
		return fmt.Errorf("build dashboard workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return fmt.Errorf("write dashboard workbook: %w", err)
	}
	rel, err := j.Files.Save("exports", projects.DashboardFilename(d.Period), &buf, "xlsx")
	if err != nil {
		return fmt.Errorf("store dashboard workbook: %w", err)
	}
	j.logger().Info("dashboard exported", slog.String("path", rel))
	return nil
}

func (j *DashboardJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DashboardJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *DashboardJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
