package porecap

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/porekap/internal/platform/db"
)

// Repository is the record store used by Service.
type Repository interface {
	Create(ctx context.Context, rec Record) (Record, error)
	CreateBatch(ctx context.Context, recs []Record) (int, error)
	Update(ctx context.Context, rec Record) (Record, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (Record, error)
	List(ctx context.Context, filter Filter, opts ListOptions) ([]Record, int, error)
	ListAll(ctx context.Context, filter Filter) ([]Record, error)
	Companies(ctx context.Context) ([]string, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PGRepository persists records in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
	db   dbtx
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool, db: pool}
}

const recordColumns = `id, company_name, po_number, title, po_date, notes,
	offer_value, po_value, execution_cost, material_cost, service_cost, overhead_cost,
	profit, status_percent, created_at, updated_at`

const uniqueViolation = "23505"

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var offer, po, exec, material, service, overhead, profit int64
	var status float64
	err := row.Scan(&rec.ID, &rec.CompanyName, &rec.PONumber, &rec.Title, &rec.Date, &rec.Notes,
		&offer, &po, &exec, &material, &service, &overhead,
		&profit, &status, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return Record{}, err
	}
	rec.OfferValue = Amount(offer)
	rec.POValue = Amount(po)
	rec.ExecutionCost = Amount(exec)
	rec.MaterialCost = Amount(material)
	rec.ServiceCost = Amount(service)
	rec.OverheadCost = Amount(overhead)
	rec.Profit = Amount(profit)
	rec.StatusPercent = Percent(status)
	return rec, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Create inserts a record and returns it with generated fields.
func (r *PGRepository) Create(ctx context.Context, rec Record) (Record, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO po_recaps (company_name, po_number, title, po_date, notes,
		offer_value, po_value, execution_cost, material_cost, service_cost, overhead_cost,
		profit, status_percent)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	RETURNING `+recordColumns,
		rec.CompanyName, rec.PONumber, rec.Title, rec.Date, rec.Notes,
		int64(rec.OfferValue), int64(rec.POValue), int64(rec.ExecutionCost),
		int64(rec.MaterialCost), int64(rec.ServiceCost), int64(rec.OverheadCost),
		int64(rec.Profit), float64(rec.StatusPercent))
	created, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("porecap: insert: %w", mapWriteError(err))
	}
	return created, nil
}

// CreateBatch inserts all records in one transaction. Either every record
// is stored or none is.
func (r *PGRepository) CreateBatch(ctx context.Context, recs []Record) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	if r.pool == nil {
		return 0, fmt.Errorf("porecap: batch insert requires a pool")
	}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		txRepo := &PGRepository{db: tx}
		for i, rec := range recs {
			if _, err := txRepo.Create(ctx, rec); err != nil {
				return fmt.Errorf("row %d (%s): %w", i+1, rec.PONumber, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

// Update overwrites a record identified by rec.ID.
func (r *PGRepository) Update(ctx context.Context, rec Record) (Record, error) {
	row := r.db.QueryRow(ctx, `UPDATE po_recaps SET company_name=$2, po_number=$3, title=$4, po_date=$5, notes=$6,
		offer_value=$7, po_value=$8, execution_cost=$9, material_cost=$10, service_cost=$11, overhead_cost=$12,
		profit=$13, status_percent=$14, updated_at=NOW()
	WHERE id=$1
	RETURNING `+recordColumns,
		rec.ID, rec.CompanyName, rec.PONumber, rec.Title, rec.Date, rec.Notes,
		int64(rec.OfferValue), int64(rec.POValue), int64(rec.ExecutionCost),
		int64(rec.MaterialCost), int64(rec.ServiceCost), int64(rec.OverheadCost),
		int64(rec.Profit), float64(rec.StatusPercent))
	updated, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("porecap: update %d: %w", rec.ID, mapWriteError(err))
	}
	return updated, nil
}

// Delete removes a record.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM po_recaps WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("porecap: delete %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get fetches a record by ID.
func (r *PGRepository) Get(ctx context.Context, id int64) (Record, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx, `SELECT `+recordColumns+` FROM po_recaps WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// List returns one page of records and the total matching count.
func (r *PGRepository) List(ctx context.Context, filter Filter, opts ListOptions) ([]Record, int, error) {
	where, args := buildWhere(filter)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM po_recaps`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	n := len(args)
	query := `SELECT ` + recordColumns + ` FROM po_recaps` + where +
		` ORDER BY ` + sortOrder(opts.SortBy, opts.SortDir) +
		` LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, limit, offset)

	records, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListAll returns every record matching filter, unordered.
func (r *PGRepository) ListAll(ctx context.Context, filter Filter) ([]Record, error) {
	where, args := buildWhere(filter)
	return r.query(ctx, `SELECT `+recordColumns+` FROM po_recaps`+where+` ORDER BY id`, args...)
}

// Companies lists distinct company names.
func (r *PGRepository) Companies(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT company_name FROM po_recaps ORDER BY company_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *PGRepository) query(ctx context.Context, sql string, args ...any) ([]Record, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// buildWhere renders the filter as a parameterised WHERE clause.
func buildWhere(filter Filter) (string, []any) {
	var clauses []string
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	companies := make([]string, 0, len(filter.Companies))
	for _, c := range filter.Companies {
		if c = strings.TrimSpace(c); c != "" {
			companies = append(companies, c)
		}
	}
	if len(companies) > 0 {
		clauses = append(clauses, "company_name = ANY("+next(companies)+")")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := next("%" + s + "%")
		clauses = append(clauses, "(po_number ILIKE "+p+" OR title ILIKE "+p+" OR company_name ILIKE "+p+")")
	}
	if from, to, ok := dateRange(filter.Year, filter.Month); ok {
		clauses = append(clauses, "po_date >= "+next(from)+" AND po_date < "+next(to))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// dateRange converts year/month bounds into a half-open date interval.
// A month without a year is ignored.
func dateRange(year, month int) (time.Time, time.Time, bool) {
	if year <= 0 {
		return time.Time{}, time.Time{}, false
	}
	if month >= 1 && month <= 12 {
		from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0), true
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0), true
}

// sortOrder returns a safe ORDER BY clause.
func sortOrder(sortBy, sortDir string) string {
	dir := "DESC"
	if sortDir == "asc" {
		dir = "ASC"
	}
	switch sortBy {
	case "date":
		return "po_date " + dir + ", id " + dir
	case "company":
		return "company_name " + dir + ", po_date ASC"
	case "po_number":
		return "po_number " + dir
	case "po_value":
		return "po_value " + dir
	case "profit":
		return "profit " + dir
	case "status":
		return "status_percent " + dir
	default:
		return "po_date DESC, id DESC"
	}
}
