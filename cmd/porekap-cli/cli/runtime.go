package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/odyssey-erp/porekap/internal/app"
	"github.com/odyssey-erp/porekap/internal/platform/migrate"
)

// liveRuntime connects to PostgreSQL, Redis and the job queue on first use.
type liveRuntime struct {
	cfg    *app.Config
	logger *slog.Logger

	deps     *app.Deps
	migrator *migrate.Migrator
	jobs     *JobsCLI
}

func newLiveRuntime(cfg *app.Config, logger *slog.Logger) *liveRuntime {
	return &liveRuntime{cfg: cfg, logger: logger}
}

func (r *liveRuntime) connect(ctx context.Context) (*app.Deps, error) {
	if r.deps != nil {
		return r.deps, nil
	}
	deps, err := app.Connect(ctx, r.cfg)
	if err != nil {
		return nil, err
	}
	r.deps = deps
	return deps, nil
}

func (r *liveRuntime) Recaps(ctx context.Context) (RecapService, error) {
	deps, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}
	return app.NewRecapService(r.cfg, deps, nil, r.logger), nil
}

func (r *liveRuntime) Migrator(ctx context.Context) (Migrator, error) {
	if r.migrator != nil {
		return r.migrator, nil
	}
	deps, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}
	m, err := migrate.New(deps.Pool, r.logger)
	if err != nil {
		return nil, err
	}
	r.migrator = m
	return m, nil
}

func (r *liveRuntime) Jobs(context.Context) (JobQueue, error) {
	if r.jobs != nil {
		return r.jobs, nil
	}
	opt, err := app.AsynqRedisOpt(r.cfg)
	if err != nil {
		return nil, err
	}
	j, err := NewJobsCLI(opt)
	if err != nil {
		return nil, err
	}
	r.jobs = j
	return j, nil
}

func (r *liveRuntime) Close() error {
	var errs []error
	if r.jobs != nil {
		errs = append(errs, r.jobs.Close())
	}
	if r.migrator != nil {
		errs = append(errs, r.migrator.Close())
	}
	r.deps.Close(r.logger)
	return errors.Join(errs...)
}
