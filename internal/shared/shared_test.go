package shared

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecer struct {
	seen map[string]bool
	sql  []string
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = append(f.sql, sql)
	if len(args) == 3 {
		key := args[0].(string)
		if f.seen[key] {
			return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505"}
		}
		f.seen[key] = true
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestIdempotencyStoreDetectsDuplicates(t *testing.T) {
	db := &fakeExecer{seen: map[string]bool{}}
	store := NewIdempotencyStore(db)
	ctx := context.Background()

	require.NoError(t, store.CheckAndInsert(ctx, "k1", "porecap"))
	assert.ErrorIs(t, store.CheckAndInsert(ctx, "k1", "porecap"), ErrIdempotencyConflict)
	assert.Error(t, store.CheckAndInsert(ctx, "", "porecap"))
	assert.Error(t, store.CheckAndInsert(ctx, "k2", ""))
	require.NoError(t, store.Delete(ctx, "k1"))
	assert.Contains(t, db.sql[len(db.sql)-1], "DELETE FROM idempotency_keys")
}

func TestNilIdempotencyStore(t *testing.T) {
	var store *IdempotencyStore
	assert.Error(t, store.CheckAndInsert(context.Background(), "k", "m"))
	assert.NoError(t, store.Delete(context.Background(), "k"))
	assert.NoError(t, store.Cleanup(context.Background(), 0))
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(0, 0, 45)
	assert.Equal(t, Pagination{Page: 1, PerPage: 20, Total: 45, TotalPages: 3}, p)
	assert.Equal(t, 0, NewPagination(1, 10, 0).TotalPages)
}

type recordingExecer struct {
	sql  string
	args []any
}

func (r *recordingExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.sql = sql
	r.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestAuditLoggerRecord(t *testing.T) {
	db := &recordingExecer{}
	logger := NewAuditLogger(db)

	err := logger.Record(context.Background(), AuditLog{
		Action:   "porecap.create",
		Entity:   "po_recap",
		EntityID: "7",
		Meta:     map[string]any{"po_number": "PO-7"},
	})
	require.NoError(t, err)
	assert.Contains(t, db.sql, "INSERT INTO audit_logs")
	require.Len(t, db.args, 6)
	assert.JSONEq(t, `{"po_number":"PO-7"}`, string(db.args[4].([]byte)))
	assert.Nil(t, db.args[5].(*time.Time))

	assert.Error(t, logger.Record(context.Background(), AuditLog{Action: "x"}))
	var nilLogger *AuditLogger
	assert.Error(t, nilLogger.Record(context.Background(), AuditLog{Action: "a", Entity: "b", EntityID: "c"}))
}
