package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/porekap/internal/platform/cache"
	"github.com/odyssey-erp/porekap/internal/platform/db"
	"github.com/odyssey-erp/porekap/internal/porecap"
	"github.com/odyssey-erp/porekap/internal/porecap/export"
	"github.com/odyssey-erp/porekap/internal/shared"
)

// Deps holds the long-lived clients shared by the binaries.
type Deps struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// Connect opens PostgreSQL and Redis using the configuration.
func Connect(ctx context.Context, cfg *Config) (*Deps, error) {
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return nil, err
	}
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &Deps{Pool: pool, Redis: redisClient}, nil
}

// Close releases every client, logging failures.
func (d *Deps) Close(logger *slog.Logger) {
	if d == nil {
		return
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil && logger != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
}

// AsynqRedisOpt converts the configured Redis address for asynq clients.
func AsynqRedisOpt(cfg *Config) (asynq.RedisClientOpt, error) {
	opts, err := cache.Options(cfg.RedisAddr)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      opts.Addr,
		Username:  opts.Username,
		Password:  opts.Password,
		DB:        opts.DB,
		TLSConfig: opts.TLSConfig,
	}, nil
}

// NewRecapService assembles the recap service with its cache, idempotency
// store and audit trail.
func NewRecapService(cfg *Config, deps *Deps, metrics porecap.RecapMetrics, logger *slog.Logger) *porecap.Service {
	var recapCache *porecap.Cache
	if deps.Redis != nil {
		recapCache = porecap.NewCache(deps.Redis, cfg.RecapCacheTTL)
	}
	return porecap.NewService(porecap.NewRepository(deps.Pool), recapCache, porecap.ServiceConfig{
		Title:       cfg.RecapTitle,
		Idempotency: shared.NewIdempotencyStore(deps.Pool),
		Metrics:     metrics,
		Audit:       RecapAuditor{Logger: shared.NewAuditLogger(deps.Pool)},
		Logger:      logger,
	})
}

// RecapAuditor writes porecap mutations into the shared audit log.
type RecapAuditor struct {
	Logger *shared.AuditLogger
}

// RecordChange maps a record mutation to an audit entry. Imported rows have
// no ID yet and are keyed by PO number.
func (a RecapAuditor) RecordChange(ctx context.Context, action string, rec porecap.Record) error {
	entityID := strconv.FormatInt(rec.ID, 10)
	if rec.ID == 0 {
		entityID = rec.PONumber
	}
	meta := map[string]any{}
	if rec.PONumber != "" {
		meta["po_number"] = rec.PONumber
		meta["company_name"] = rec.CompanyName
		meta["po_value"] = int64(rec.POValue)
		meta["profit"] = int64(rec.Profit)
	}
	return a.Logger.Record(ctx, shared.AuditLog{
		Action:   "porecap." + action,
		Entity:   "po_recap",
		EntityID: entityID,
		Meta:     meta,
	})
}

// ExportDir resolves the export storage directory.
func ExportDir(cfg *Config) string {
	return export.StorageDir(cfg.StorageDir)
}

// RedisChecker adapts a Redis client to HealthChecker.
type RedisChecker struct {
	Client *redis.Client
}

// Ping reports whether Redis answers.
func (c RedisChecker) Ping(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("redis not configured")
	}
	return c.Client.Ping(ctx).Err()
}
