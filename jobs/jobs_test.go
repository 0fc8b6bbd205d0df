package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/porekap/internal/jobs"
	"github.com/odyssey-erp/porekap/internal/porecap"
	_ "github.com/odyssey-erp/porekap/internal/testing/guard"
)

type stubEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (s *stubEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{Type: task.Type(), Queue: QueueDefault}, nil
}

func (s *stubEnqueuer) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnqueueRecapExportAssignsID(t *testing.T) {
	stub := &stubEnqueuer{}
	client := NewClientWith(stub)

	payload, err := client.EnqueueRecapExport(context.Background(), RecapExportPayload{Filter: porecap.Filter{Year: 2024}})
	require.NoError(t, err)
	require.NotEmpty(t, payload.ID)
	require.NoError(t, payload.Validate())
	require.Len(t, stub.tasks, 1)
	assert.Equal(t, TaskPORecapExport, stub.tasks[0].Type())

	var decoded RecapExportPayload
	require.NoError(t, json.Unmarshal(stub.tasks[0].Payload(), &decoded))
	assert.Equal(t, payload.ID, decoded.ID)
	assert.Equal(t, 2024, decoded.Filter.Year)
}

func TestRecapExportPayloadRejectsUnsafeID(t *testing.T) {
	_, _, err := NewRecapExportTask(RecapExportPayload{ID: "../../etc/passwd"})
	assert.ErrorIs(t, err, ErrInvalidExportID)
}

func TestEnqueueRecapWarmup(t *testing.T) {
	stub := &stubEnqueuer{}
	info, err := NewClientWith(stub).EnqueueRecapWarmup(context.Background(), 2023)
	require.NoError(t, err)
	assert.Equal(t, TaskPORecapWarmup, info.Type)

	var payload RecapWarmupPayload
	require.NoError(t, json.Unmarshal(stub.tasks[0].Payload(), &payload))
	assert.Equal(t, 2023, payload.Year)

	_, err = (&Client{}).EnqueueRecapWarmup(context.Background(), 2023)
	assert.Error(t, err)
}

type stubWarmer struct {
	years []int
	err   error
}

func (s *stubWarmer) Warmup(_ context.Context, year int) error {
	s.years = append(s.years, year)
	return s.err
}

func TestRecapWarmupJobHandle(t *testing.T) {
	warmer := &stubWarmer{}
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	job := NewRecapWarmupJob(warmer, discardLogger(), metrics)

	task, err := NewRecapWarmupTask(RecapWarmupPayload{Year: 2024})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskPORecapWarmup, nil)))
	assert.Equal(t, []int{2024, 0}, warmer.years)

	assert.ErrorIs(t, job.Handle(context.Background(), asynq.NewTask(TaskPORecapWarmup, []byte("{"))), asynq.SkipRetry)

	warmer.err = errors.New("redis down")
	assert.EqualError(t, job.Handle(context.Background(), task), "redis down")
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

func TestJobsHealthHandler(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 4, Retry: 1}}, discardLogger()).MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":4,"active":0,"retry":1,"archived":0}`, rec.Body.String())

	r = chi.NewRouter()
	NewHandler(stubInspector{err: errors.New("down")}, discardLogger()).MountRoutes(r)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type stubCleaner struct {
	ages []time.Duration
}

func (s *stubCleaner) Cleanup(_ context.Context, olderThan time.Duration) error {
	s.ages = append(s.ages, olderThan)
	return nil
}

func TestIdempotencyCleanupJobRetention(t *testing.T) {
	cleaner := &stubCleaner{}
	job := &IdempotencyCleanupJob{
		Store:     cleaner,
		Retention: 48 * time.Hour,
		Logger:    discardLogger(),
		Metrics:   jobmetrics.NewMetrics(prometheus.NewRegistry()),
	}

	task, err := NewIdempotencyCleanupTask(0)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	task, err = NewIdempotencyCleanupTask(time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	job.Retention = 0
	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil)))

	assert.Equal(t, []time.Duration{48 * time.Hour, time.Hour, defaultIdempotencyTTL}, cleaner.ages)
	assert.Error(t, (&IdempotencyCleanupJob{}).Handle(context.Background(), task))
}

func TestEnqueueIdempotencyCleanup(t *testing.T) {
	stub := &stubEnqueuer{}
	info, err := NewClientWith(stub).EnqueueIdempotencyCleanup(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, TaskIdempotencyCleanup, info.Type)

	var payload IdempotencyCleanupPayload
	require.NoError(t, json.Unmarshal(stub.tasks[0].Payload(), &payload))
	assert.Equal(t, time.Hour, payload.OlderThan)
}
