package jobs

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/porekap/internal/porecap"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPORecapExport renders a recap PDF into the export storage.
	TaskPORecapExport = "porecap:export"
	// TaskPORecapWarmup pre-builds yearly recaps into the cache.
	TaskPORecapWarmup = "porecap:warmup"
)

// ErrInvalidExportID indicates a payload without a usable export ID.
var ErrInvalidExportID = errors.New("jobs: invalid export id")

// RecapExportPayload describes an asynchronous recap PDF export.
type RecapExportPayload struct {
	ID     string         `json:"id"`
	Filter porecap.Filter `json:"filter"`
	Title  string         `json:"title,omitempty"`
}

// Validate checks the export ID is a UUID, which also keeps it safe to use
// in file names.
func (p RecapExportPayload) Validate() error {
	if _, err := uuid.Parse(strings.TrimSpace(p.ID)); err != nil {
		return ErrInvalidExportID
	}
	return nil
}

// RecapWarmupPayload selects the year to warm. Zero means the current year.
type RecapWarmupPayload struct {
	Year int `json:"year"`
}

// NewRecapExportTask constructs an export task. A missing ID is generated.
func NewRecapExportTask(payload RecapExportPayload) (*asynq.Task, RecapExportPayload, error) {
	if strings.TrimSpace(payload.ID) == "" {
		payload.ID = uuid.NewString()
	}
	if err := payload.Validate(); err != nil {
		return nil, payload, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, payload, err
	}
	return asynq.NewTask(TaskPORecapExport, data, asynq.TaskID(TaskPORecapExport+":"+payload.ID)), payload, nil
}

// NewRecapWarmupTask constructs a warmup task.
func NewRecapWarmupTask(payload RecapWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPORecapWarmup, data), nil
}
