// Package cli implements the porekap operator command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/porekap/internal/app"
	"github.com/odyssey-erp/porekap/internal/platform/migrate"
	"github.com/odyssey-erp/porekap/internal/porecap"
	"github.com/odyssey-erp/porekap/jobs"
)

var version = "dev"

// RecapService is the part of porecap.Service the CLI drives.
type RecapService interface {
	Recap(ctx context.Context, filter porecap.Filter) (porecap.Document, error)
	Import(ctx context.Context, inputs []porecap.Input) (int, error)
}

// Migrator applies and reports schema migrations.
type Migrator interface {
	Up(ctx context.Context) error
	Status(ctx context.Context) ([]migrate.Status, error)
}

// JobQueue enqueues background work and reports queue depth.
type JobQueue interface {
	EnqueueRecapExport(ctx context.Context, payload jobs.RecapExportPayload) (jobs.RecapExportPayload, error)
	Trigger(ctx context.Context, name string) (string, error)
	InspectQueue(ctx context.Context) (QueueStats, error)
}

// Runtime lazily provides the collaborators of each command.
type Runtime interface {
	Recaps(ctx context.Context) (RecapService, error)
	Migrator(ctx context.Context) (Migrator, error)
	Jobs(ctx context.Context) (JobQueue, error)
	Close() error
}

// NewRootCommand builds the command tree around rt.
func NewRootCommand(rt Runtime) *cobra.Command {
	root := &cobra.Command{
		Use:   "porekap-cli",
		Short: "Operator tools for the purchase order recap service",
		Long: `porekap-cli manages the purchase order recap database, prints recaps
as CSV, imports records and enqueues background exports.

Configuration is read from the environment (see PG_DSN, REDIS_ADDR) and an
optional .env file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCommand(rt),
		newRecapCommand(rt),
		newImportCommand(rt),
		newExportCommand(rt),
		newJobsCommand(rt),
	)
	return root
}

// Execute runs the CLI against the live runtime and exits on failure.
func Execute() {
	envFile := os.Getenv("POREKAP_ENV_FILE")
	cfg, err := app.LoadConfig(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	rt := newLiveRuntime(cfg, logger)

	root := NewRootCommand(rt)
	err = root.ExecuteContext(context.Background())
	if closeErr := rt.Close(); closeErr != nil {
		logger.Warn("close runtime", slog.Any("error", closeErr))
	}
	if err != nil {
		logger.Error("command execution failed", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
