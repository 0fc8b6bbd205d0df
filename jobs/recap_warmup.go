package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/porekap/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// RecapWarmer builds and caches the recap of a year.
type RecapWarmer interface {
	Warmup(ctx context.Context, year int) error
}

// RecapWarmupJob pre-populates the recap cache.
type RecapWarmupJob struct {
	Recaps  RecapWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// NewRecapWarmupJob wires dependencies for the warmup handler.
func NewRecapWarmupJob(recaps RecapWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *RecapWarmupJob {
	return &RecapWarmupJob{Recaps: recaps, Logger: logger, Metrics: metrics, Timeout: 30 * time.Second}
}

// Handle processes recap warmup tasks.
func (j *RecapWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Recaps == nil {
		return errors.New("recap warmup: handler not configured")
	}
	var payload RecapWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.metrics().Track(TaskPORecapWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("year", payload.Year))
	started := time.Now()

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	if err := j.Recaps.Warmup(ctx, payload.Year); err != nil {
		logger.Error("recap warmup", slog.Any("error", err))
		return err
	}
	logger.Info("completed recap warmup", slog.Duration("duration", time.Since(started)))
	return nil
}

func (j *RecapWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskPORecapWarmup))
	}
	return slog.Default().With(slog.String("job", TaskPORecapWarmup))
}

func (j *RecapWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
