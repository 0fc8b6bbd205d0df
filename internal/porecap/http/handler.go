package porecaphttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/odyssey-erp/porekap/internal/jobs"
	"github.com/odyssey-erp/porekap/internal/platform/httpx"
	"github.com/odyssey-erp/porekap/internal/porecap"
	"github.com/odyssey-erp/porekap/internal/porecap/export"
	"github.com/odyssey-erp/porekap/internal/shared"
	"github.com/odyssey-erp/porekap/jobs"
)

const renderTimeout = 60 * time.Second

// RecapService defines the record and report operations used by the handler.
type RecapService interface {
	Create(ctx context.Context, in porecap.Input) (porecap.Record, error)
	Update(ctx context.Context, id int64, in porecap.Input) (porecap.Record, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (porecap.Record, error)
	List(ctx context.Context, filter porecap.Filter, opts porecap.ListOptions) ([]porecap.Record, int, error)
	Companies(ctx context.Context) ([]string, error)
	Recap(ctx context.Context, filter porecap.Filter) (porecap.Document, error)
}

// PDFRenderer renders recap documents to PDF.
type PDFRenderer interface {
	RenderRecap(ctx context.Context, doc porecap.Document) ([]byte, error)
}

// ExportQueue enqueues asynchronous PDF exports.
type ExportQueue interface {
	EnqueueRecapExport(ctx context.Context, payload jobs.RecapExportPayload) (jobs.RecapExportPayload, error)
}

// Config wires handler dependencies.
type Config struct {
	Service     RecapService
	PDF         PDFRenderer
	Queue       ExportQueue
	StorageDir  string
	ExportLimit int
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
}

// Handler serves the purchase order recap API.
type Handler struct {
	service     RecapService
	pdf         PDFRenderer
	queue       ExportQueue
	storageDir  string
	exportLimit int
	logger      *slog.Logger
	metrics     *jobmetrics.Metrics
}

// NewHandler builds a Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := cfg.ExportLimit
	if limit <= 0 {
		limit = 10
	}
	return &Handler{
		service:     cfg.Service,
		pdf:         cfg.PDF,
		queue:       cfg.Queue,
		storageDir:  cfg.StorageDir,
		exportLimit: limit,
		logger:      logger,
		metrics:     cfg.Metrics,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := parseFilter(q)
	opts, page, perPage := parseListOptions(q)
	items, total, err := h.service.List(r.Context(), filter, opts)
	if err != nil {
		h.fail(w, r, "list po recaps", err)
		return
	}
	if items == nil {
		items = []porecap.Record{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: items, Pagination: shared.NewPagination(page, perPage, total)})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in porecap.Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	in.IdempotencyKey = idempotencyKey(r)
	rec, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, "create po recap", err)
		return
	}
	w.Header().Set("Location", "/po-recaps/"+strconv.FormatInt(rec.ID, 10))
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "invalid id")
		return
	}
	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get po recap", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "invalid id")
		return
	}
	var in porecap.Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	rec, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, "update po recap", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "invalid id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "delete po recap", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) companies(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.Companies(r.Context())
	if err != nil {
		h.fail(w, r, "list companies", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	httpx.JSON(w, http.StatusOK, map[string][]string{"companies": names})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r.URL.Query())
	var resp reportResponse
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		doc, err := h.service.Recap(ctx, filter)
		resp.Report = doc
		return err
	})
	g.Go(func() error {
		names, err := h.service.Companies(ctx)
		resp.Companies = names
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(w, r, "build po recap", err)
		return
	}
	if resp.Companies == nil {
		resp.Companies = []string{}
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) reportPDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		httpx.RespondError(w, fmt.Errorf("%w: pdf renderer not configured", httpx.ErrUnavailable))
		return
	}
	filter := parseFilter(r.URL.Query())
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	val, err, _ := singleflightBuild(ctx, "pdf:"+filter.CacheKey(), renderTimeout, func(ctx context.Context) (interface{}, error) {
		doc, err := h.service.Recap(ctx, filter)
		if err != nil {
			return nil, err
		}
		return h.pdf.RenderRecap(ctx, doc)
	})
	if err != nil {
		h.logger.Error("render po recap pdf", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "gagal membuat PDF")
		return
	}
	pdf, _ := val.([]byte)
	h.metrics.AddExport("pdf")
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(filter, "pdf")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) reportCSV(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r.URL.Query())
	doc, err := h.service.Recap(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "build po recap csv", err)
		return
	}
	buf := &bytes.Buffer{}
	if err := export.WriteRecapCSV(buf, doc); err != nil {
		h.fail(w, r, "write po recap csv", err)
		return
	}
	h.metrics.AddExport("csv")
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(filter, "csv")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) enqueueExport(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		httpx.RespondError(w, fmt.Errorf("%w: export queue not configured", httpx.ErrUnavailable))
		return
	}
	var req exportRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
			return
		}
	}
	payload, err := h.queue.EnqueueRecapExport(r.Context(), jobs.RecapExportPayload{
		Filter: porecap.Filter{Companies: req.Companies, Search: req.Search, Year: req.Year, Month: req.Month},
		Title:  req.Title,
	})
	if err != nil {
		h.fail(w, r, "enqueue po recap export", err)
		return
	}
	statusURL := "/po-recaps/report/exports/" + payload.ID
	w.Header().Set("Location", statusURL)
	httpx.JSON(w, http.StatusAccepted, exportAccepted{ID: payload.ID, StatusURL: statusURL})
}

func (h *Handler) exportStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown export")
		return
	}
	data, err := export.OpenFile(h.storageDir, id)
	if errors.Is(err, export.ErrExportPending) {
		httpx.JSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "pending"})
		return
	}
	if err != nil {
		h.fail(w, r, "read po recap export", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(id)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// fail maps service errors onto problem responses.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *porecap.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.ValidationProblem(w, verr.Fields)
	case errors.Is(err, porecap.ErrNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
	case errors.Is(err, porecap.ErrDuplicate):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrDuplicate, err))
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrConflict, err))
	case errors.Is(err, porecap.ErrValidation):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
	default:
		h.logger.Error(op, slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func exportName(filter porecap.Filter, ext string) string {
	name := "rekap-po"
	if filter.Year > 0 {
		name += "-" + strconv.Itoa(filter.Year)
		if filter.Month >= 1 && filter.Month <= 12 {
			name += fmt.Sprintf("-%02d", filter.Month)
		}
	}
	return name + "." + ext
}
