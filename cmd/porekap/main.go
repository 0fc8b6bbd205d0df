package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/porekap/internal/app"
	"github.com/odyssey-erp/porekap/internal/observability"
	porecaphttp "github.com/odyssey-erp/porekap/internal/porecap/http"
	"github.com/odyssey-erp/porekap/internal/porecap/export"
	"github.com/odyssey-erp/porekap/jobs"
	"github.com/odyssey-erp/porekap/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	metrics := observability.NewMetrics()
	recapService := app.NewRecapService(cfg, deps, metrics, logger)

	reportClient := report.NewClient(cfg.GotenbergURL, report.WithPageOptions(report.LandscapeA4()))
	pdfExporter, err := export.NewPDFExporter(reportClient)
	if err != nil {
		logger.Error("init pdf exporter", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpt, err := app.AsynqRedisOpt(cfg)
	if err != nil {
		logger.Error("asynq redis options", slog.Any("error", err))
		os.Exit(1)
	}
	jobClient, err := jobs.NewClient(redisOpt)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(redisOpt)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	recapHandler := porecaphttp.NewHandler(porecaphttp.Config{
		Service:     recapService,
		PDF:         pdfExporter,
		Queue:       jobClient,
		StorageDir:  app.ExportDir(cfg),
		ExportLimit: cfg.ExportLimitPerMin,
		Logger:      logger,
		Metrics:     metrics.Jobs(),
	})

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		RecapHandler:  recapHandler,
		ReportHandler: report.NewHandler(reportClient, logger),
		JobHandler:    jobs.NewHandler(inspector, logger),
		Metrics:       metrics,
		Checks: map[string]app.HealthChecker{
			"postgres": deps.Pool,
			"redis":    app.RedisChecker{Client: deps.Redis},
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
