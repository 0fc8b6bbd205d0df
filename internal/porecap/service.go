package porecap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	idempotencyModule = "porecap"
	dateLayout        = "2006-01-02"
)

// IdempotencyPort guards create requests carrying an Idempotency-Key.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// RecapMetrics observes recap builds that missed the cache.
type RecapMetrics interface {
	ObserveRecapBuild(records int, took time.Duration)
}

// Auditor records record mutations. Action is one of "create", "update",
// "delete" or "import".
type Auditor interface {
	RecordChange(ctx context.Context, action string, rec Record) error
}

// ServiceConfig carries optional collaborators.
type ServiceConfig struct {
	Title       string
	Idempotency IdempotencyPort
	Metrics     RecapMetrics
	Audit       Auditor
	Logger      *slog.Logger
	Now         func() time.Time
}

// Service coordinates record management and recap building.
type Service struct {
	repo     Repository
	cache    *Cache
	validate *validator.Validate
	title    string
	idem     IdempotencyPort
	metrics  RecapMetrics
	audit    Auditor
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires a Repository with an optional Cache.
func NewService(repo Repository, cache *Cache, cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	title := strings.TrimSpace(cfg.Title)
	if title == "" {
		title = defaultTitle
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		validate: newValidator(),
		title:    title,
		idem:     cfg.Idempotency,
		metrics:  cfg.Metrics,
		audit:    cfg.Audit,
		logger:   logger,
		now:      now,
	}
}

// Input is the create and edit payload. Monetary fields are signed and
// accept formatted strings such as "Rp 1.500.000".
type Input struct {
	CompanyName    string `json:"company_name" validate:"required,max=200"`
	PONumber       string `json:"po_number" validate:"required,max=64"`
	Title          string `json:"title" validate:"required,max=255"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	Notes          string `json:"notes" validate:"max=2000"`
	OfferValue     Amount `json:"offer_value"`
	POValue        Amount `json:"po_value"`
	ExecutionCost  Amount `json:"execution_cost"`
	MaterialCost   Amount `json:"material_cost"`
	ServiceCost    Amount `json:"service_cost"`
	OverheadCost   Amount `json:"overhead_cost"`
	IdempotencyKey string `json:"-"`
	// Line is the source file line for imported rows, 0 otherwise.
	Line int `json:"-"`
}

func (s *Service) toRecord(in Input) (Record, error) {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.PONumber = strings.TrimSpace(in.PONumber)
	in.Title = strings.TrimSpace(in.Title)
	in.Date = strings.TrimSpace(in.Date)
	in.Notes = strings.TrimSpace(in.Notes)
	if err := s.validate.Struct(in); err != nil {
		return Record{}, toValidationError(err)
	}
	date, err := time.Parse(dateLayout, in.Date)
	if err != nil {
		return Record{}, &ValidationError{Fields: map[string]string{"date": "format tanggal harus YYYY-MM-DD"}}
	}
	return Derive(Record{
		CompanyName:   in.CompanyName,
		PONumber:      in.PONumber,
		Title:         in.Title,
		Date:          date,
		Notes:         in.Notes,
		OfferValue:    in.OfferValue,
		POValue:       in.POValue,
		ExecutionCost: in.ExecutionCost,
		MaterialCost:  in.MaterialCost,
		ServiceCost:   in.ServiceCost,
		OverheadCost:  in.OverheadCost,
	}), nil
}

// Create validates, derives and stores a new record.
func (s *Service) Create(ctx context.Context, in Input) (Record, error) {
	rec, err := s.toRecord(in)
	if err != nil {
		return Record{}, err
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, key, idempotencyModule); err != nil {
			return Record{}, err
		}
	}
	created, err := s.repo.Create(ctx, rec)
	if err != nil {
		if key != "" && s.idem != nil {
			_ = s.idem.Delete(ctx, key)
		}
		return Record{}, err
	}
	s.invalidate(ctx)
	s.record(ctx, "create", created)
	return created, nil
}

// Import validates every input and stores them atomically. Validation
// failures are reported per row before anything is written, keyed by source
// line ("line 7.title") when known and by position ("row 2.title") otherwise.
func (s *Service) Import(ctx context.Context, inputs []Input) (int, error) {
	records := make([]Record, 0, len(inputs))
	rowErrors := map[string]string{}
	for i, in := range inputs {
		rec, err := s.toRecord(in)
		if err != nil {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				return 0, err
			}
			prefix := fmt.Sprintf("row %d", i+1)
			if in.Line > 0 {
				prefix = fmt.Sprintf("line %d", in.Line)
			}
			for field, msg := range verr.Fields {
				rowErrors[prefix+"."+field] = msg
			}
			continue
		}
		records = append(records, rec)
	}
	if len(rowErrors) > 0 {
		return 0, &ValidationError{Fields: rowErrors}
	}
	n, err := s.repo.CreateBatch(ctx, records)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.invalidate(ctx)
		for _, rec := range records {
			s.record(ctx, "import", rec)
		}
	}
	return n, nil
}

// Update replaces the editable fields of a record and recomputes profit
// and status.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Record, error) {
	if id <= 0 {
		return Record{}, ErrNotFound
	}
	rec, err := s.toRecord(in)
	if err != nil {
		return Record{}, err
	}
	rec.ID = id
	updated, err := s.repo.Update(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	s.invalidate(ctx)
	s.record(ctx, "update", updated)
	return updated, nil
}

// Delete removes a record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.record(ctx, "delete", Record{ID: id})
	return nil
}

// Get fetches a single record.
func (s *Service) Get(ctx context.Context, id int64) (Record, error) {
	if id <= 0 {
		return Record{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// List returns a page of records.
func (s *Service) List(ctx context.Context, filter Filter, opts ListOptions) ([]Record, int, error) {
	return s.repo.List(ctx, filter.clean(), opts)
}

// Companies lists known company names in report order.
func (s *Service) Companies(ctx context.Context) ([]string, error) {
	names, err := s.repo.Companies(ctx)
	if err != nil {
		return nil, err
	}
	sortCompanies(names)
	return names, nil
}

// Recap builds the grouped report for filter, served from cache when a
// current version is available.
func (s *Service) Recap(ctx context.Context, filter Filter) (Document, error) {
	return s.cache.Recap(ctx, filter.clean(), s.build)
}

// Build produces the report directly from the repository, bypassing cache.
func (s *Service) Build(ctx context.Context, filter Filter) (Document, error) {
	return s.build(ctx, filter.clean())
}

func (s *Service) build(ctx context.Context, filter Filter) (Document, error) {
	started := time.Now()
	records, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return Document{}, fmt.Errorf("porecap: fetch records: %w", err)
	}
	doc := Build(records, AssembleOptions{
		Title:       s.title,
		Subtitle:    filter.Describe(),
		GeneratedAt: s.now(),
	})
	if s.metrics != nil {
		s.metrics.ObserveRecapBuild(len(records), time.Since(started))
	}
	return doc, nil
}

// Warmup pre-builds the yearly recap into cache. A non-positive year means
// the current year.
func (s *Service) Warmup(ctx context.Context, year int) error {
	if year <= 0 {
		year = s.now().Year()
	}
	_, err := s.Recap(ctx, Filter{Year: year})
	return err
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("porecap cache invalidate", slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, action string, rec Record) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordChange(ctx, action, rec); err != nil {
		s.logger.Warn("porecap audit", slog.String("action", action), slog.Int64("id", rec.ID), slog.Any("error", err))
	}
}

func (flt Filter) clean() Filter {
	out := Filter{Search: strings.TrimSpace(flt.Search), Year: flt.Year, Month: flt.Month}
	for _, c := range flt.Companies {
		if c = strings.TrimSpace(c); c != "" {
			out.Companies = append(out.Companies, c)
		}
	}
	if out.Year < 0 {
		out.Year = 0
	}
	if out.Month < 1 || out.Month > 12 || out.Year == 0 {
		out.Month = 0
	}
	return out
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
