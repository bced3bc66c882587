package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/sitecost/sitecost/internal/app"
	"github.com/sitecost/sitecost/internal/company"
	"github.com/sitecost/sitecost/internal/customers"
	"github.com/sitecost/sitecost/internal/observability"
	"github.com/sitecost/sitecost/internal/platform/cache"
	"github.com/sitecost/sitecost/internal/platform/db"
	"github.com/sitecost/sitecost/internal/platform/storage"
	"github.com/sitecost/sitecost/internal/projects"
	"github.com/sitecost/sitecost/internal/sales"
	"github.com/sitecost/sitecost/internal/shared"
	"github.com/sitecost/sitecost/internal/withholding"
	"github.com/sitecost/sitecost/jobs"
)

func main() {
	_ = godotenv.Load()

	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
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
		// Dashboards fall back to building from PostgreSQL on every request.
		logger.Warn("redis unavailable", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	files := storage.NewLocal(cfg.UploadDir)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts, logger)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	customerService := customers.NewService(customers.NewRepository(pool))
	companyService := company.NewService(company.NewRepository(pool), files)
	projectService := projects.NewService(
		projects.NewRepository(pool),
		projects.NewCache(redisClient, cfg.DashboardCacheTTL),
		logger,
	)
	salesService := sales.NewService(sales.NewRepository(pool), sales.Deps{
		Customers:       customerService,
		Company:         companyService,
		Projects:        projectService,
		Dashboard:       projectService,
		Audit:           shared.NewAuditLogger(pool),
		Metrics:         sales.NewMetrics(metrics.Registerer()),
		Logger:          logger,
		DefaultApprover: cfg.DefaultApprover,
	})
	withholdingService := withholding.NewService(withholding.NewRepository(pool), companyService, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Metrics:            metrics,
		Database:           pool,
		Idempotency:        shared.NewIdempotencyStore(redisClient, cfg.IdempotencyTTL),
		CustomersHandler:   customers.NewHandler(logger, customerService),
		CompanyHandler:     company.NewHandler(logger, companyService),
		SalesHandler:       sales.NewHandler(logger, salesService, files),
		ProjectsHandler:    projects.NewHandler(logger, projectService, jobClient),
		WithholdingHandler: withholding.NewHandler(logger, withholdingService, withholding.NewRenderer(cfg.WHTFontPath, cfg.WHTTemplatePath)),
		JobHandler:         jobs.NewHandler(inspector, jobClient, logger),
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           http.MaxBytesHandler(router, cfg.MaxUploadBytes),
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
