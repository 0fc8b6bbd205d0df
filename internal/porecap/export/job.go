package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/porekap/internal/jobs"
	"github.com/odyssey-erp/porekap/internal/porecap"
	"github.com/odyssey-erp/porekap/jobs"
)

// RecapBuilder produces a fresh recap document for a filter.
type RecapBuilder interface {
	Build(ctx context.Context, filter porecap.Filter) (porecap.Document, error)
}

// RecapRenderer turns a document into PDF bytes.
type RecapRenderer interface {
	RenderRecap(ctx context.Context, doc porecap.Document) ([]byte, error)
}

// JobConfig wires dependencies required by the worker job.
type JobConfig struct {
	Recaps     RecapBuilder
	Renderer   RecapRenderer
	StorageDir string
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// Job processes asynchronous recap PDF exports coming from the queue.
type Job struct {
	recaps     RecapBuilder
	renderer   RecapRenderer
	storageDir string
	logger     *slog.Logger
	metrics    *jobmetrics.Metrics
}

// NewJob constructs a Job handler.
func NewJob(cfg JobConfig) *Job {
	return &Job{recaps: cfg.Recaps, renderer: cfg.Renderer, storageDir: cfg.StorageDir, logger: cfg.Logger, metrics: cfg.Metrics}
}

// Handle fulfils the asynq.HandlerFunc contract.
func (j *Job) Handle(ctx context.Context, task *asynq.Task) (resultErr error) {
	if j == nil || j.recaps == nil || j.renderer == nil {
		return fmt.Errorf("porecap export job not configured")
	}
	var payload jobs.RecapExportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	tracker := j.metrics.Track(jobs.TaskPORecapExport)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	doc, err := j.recaps.Build(ctx, payload.Filter)
	if err != nil {
		return err
	}
	if title := strings.TrimSpace(payload.Title); title != "" {
		doc.Title = title
	}
	pdf, err := j.renderer.RenderRecap(ctx, doc)
	if err != nil {
		return err
	}
	path, err := SaveFile(j.storageDir, payload.ID, pdf)
	if err != nil {
		return err
	}
	j.metrics.AddExport("pdf")
	if j.logger != nil {
		j.logger.Info("po recap export ready", slog.String("export_id", payload.ID), slog.String("file", path))
	}
	return nil
}

// ErrExportPending indicates the export file has not been written yet.
var ErrExportPending = errors.New("porecap export: pending")

// FileName returns the stored file name for an export ID.
func FileName(id string) string {
	return fmt.Sprintf("po-recap-%s.pdf", id)
}

// StorageDir resolves the export directory, defaulting to a temp folder.
func StorageDir(dir string) string {
	if strings.TrimSpace(dir) == "" {
		return filepath.Join(os.TempDir(), "porekap-exports")
	}
	return dir
}

// SaveFile writes pdf atomically into dir and returns its path.
func SaveFile(dir, id string, pdf []byte) (string, error) {
	dir = StorageDir(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(id))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, pdf, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return path, nil
}

// OpenFile returns the stored export, or ErrExportPending when it is not
// ready. Callers must validate id before use.
func OpenFile(dir, id string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(StorageDir(dir), FileName(id)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrExportPending
	}
	return data, err
}
