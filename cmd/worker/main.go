package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sitecost/sitecost/internal/app"
	jobmetrics "github.com/sitecost/sitecost/internal/jobs"
	"github.com/sitecost/sitecost/internal/platform/cache"
	"github.com/sitecost/sitecost/internal/platform/db"
	"github.com/sitecost/sitecost/internal/platform/storage"
	"github.com/sitecost/sitecost/internal/projects"
	"github.com/sitecost/sitecost/jobs"
)

func main() {
	_ = godotenv.Load()

	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	projectService := projects.NewService(
		projects.NewRepository(pool),
		projects.NewCache(redisClient, cfg.DashboardCacheTTL),
		logger,
	)
	dashboardJob := jobs.NewDashboardJob(projectService, storage.NewLocal(cfg.UploadDir), logger,
		jobmetrics.NewMetrics(prometheus.DefaultRegisterer))

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers:    dashboardJob.Handlers(),
		Cron: []jobs.CronRegistration{
			{Spec: jobs.WarmupSchedule, Task: jobs.NewDashboardWarmupTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
