package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/stackup-cli/stackup/internal/pipeline"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Run the full provisioning pipeline and exit",
	Long: `Up runs every provisioning stage in order: start services, wait for
the database, materialize the env file, install dependencies, migrate, seed,
link storage and clear caches.

The command runs once, prints a JSON result to stdout, and exits 0 unless a
critical stage failed. Best-effort stages and the database-readiness timeout
only produce warnings.`,
	RunE: runUp,
}

func runUp(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if app.otelProvider != nil {
		defer func() {
			shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutCancel()
			if err := app.otelProvider.Shutdown(shutCtx); err != nil {
				slog.Warn("OTEL shutdown error", "err", err)
			}
		}()
	}

	ctx, span := otel.Tracer("stackup").Start(ctx, "stackup.up")
	defer span.End()

	slog.InfoContext(ctx, "provisioning started", "root", app.root, "app_url", app.appURL)

	runner := pipeline.New(app.provisioner.Stages(app.root, app.appURL))
	result, err := runner.Run(ctx)

	span.SetAttributes(attribute.String("provision.status", result.Status))
	printRunResult(result)

	if err != nil {
		span.SetStatus(codes.Error, "a critical stage failed")
		return fmt.Errorf("provisioning failed: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	slog.InfoContext(ctx, "provisioning completed", "status", result.Status)
	return nil
}

func printRunResult(result *pipeline.RunResult) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		// Fallback to plain text if JSON encoding somehow fails.
		fmt.Fprintf(os.Stdout, `{"status":%q}`+"\n", result.Status)
	}
}
