package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/odyssey-erp/porekap/internal/app"
	jobmetrics "github.com/odyssey-erp/porekap/internal/jobs"
	"github.com/odyssey-erp/porekap/internal/porecap/export"
	"github.com/odyssey-erp/porekap/internal/shared"
	"github.com/odyssey-erp/porekap/jobs"
	"github.com/odyssey-erp/porekap/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	envFile := flag.String("env", "", "optional env file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig(*envFile)
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	deps, err := app.Connect(ctx, cfg)
	if err != nil {
		logger.Error("connect dependencies", slog.Any("error", err))
		os.Exit(1)
	}
	defer deps.Close(logger)

	metrics := jobmetrics.NewMetrics(nil)
	recapService := app.NewRecapService(cfg, deps, nil, logger)

	pdfClient := report.NewClient(cfg.GotenbergURL, report.WithPageOptions(report.LandscapeA4()))
	renderer, err := export.NewPDFExporter(pdfClient)
	if err != nil {
		logger.Error("init pdf exporter", slog.Any("error", err))
		os.Exit(1)
	}
	exportJob := export.NewJob(export.JobConfig{
		Recaps:     recapService,
		Renderer:   renderer,
		StorageDir: app.ExportDir(cfg),
		Logger:     logger,
		Metrics:    metrics,
	})
	warmupJob := jobs.NewRecapWarmupJob(recapService, logger, metrics)
	cleanupJob := &jobs.IdempotencyCleanupJob{
		Store:     shared.NewIdempotencyStore(deps.Pool),
		Retention: cfg.IdempotencyTTL,
		Logger:    logger,
		Metrics:   metrics,
	}

	var cron []jobs.CronRegistration
	if cfg.WarmupCron != "" {
		warmupTask, err := jobs.NewRecapWarmupTask(jobs.RecapWarmupPayload{})
		if err != nil {
			logger.Error("build warmup task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(1)}})
	}
	if cfg.CleanupCron != "" {
		cleanupTask, err := jobs.NewIdempotencyCleanupTask(0)
		if err != nil {
			logger.Error("build cleanup task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.CleanupCron, Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}

	redisOpt, err := app.AsynqRedisOpt(cfg)
	if err != nil {
		logger.Error("asynq redis options", slog.Any("error", err))
		os.Exit(1)
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpt,
		Logger:      logger,
		Concurrency: cfg.WorkerThreads,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPORecapExport, Handler: exportJob.Handle},
			{Type: jobs.TaskPORecapWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		go serveMetrics(ctx, cfg.WorkerMetricsAddr, logger)
	}

	logger.Info("starting worker", slog.Int("concurrency", cfg.WorkerThreads), slog.Int("cron_entries", len(cron)))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	logger.Info("serving worker metrics", slog.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("worker metrics server", slog.Any("error", err))
	}
}
