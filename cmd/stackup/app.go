package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/stackup-cli/stackup/internal/clients"
	"github.com/stackup-cli/stackup/internal/compose"
	"github.com/stackup-cli/stackup/internal/config"
	"github.com/stackup-cli/stackup/internal/project"
	"github.com/stackup-cli/stackup/internal/provision"
	"github.com/stackup-cli/stackup/internal/telemetry"
)

// AppContext holds all constructed application dependencies shared across
// subcommands. It is built once in PersistentPreRunE and referenced by
// up.go and doctor.go.
type AppContext struct {
	cfg          *config.Config
	otelProvider *telemetry.Provider
	provisioner  *provision.Provisioner

	// root is the discovered project root; appURL the resolved base URL.
	// Both are fixed here and threaded explicitly into the pipeline.
	root   string
	appURL string
}

// buildAppContext constructs all application dependencies from cfg:
//  1. Initialises the OTEL provider (best-effort, non-fatal)
//  2. Discovers the project root and resolves the app URL
//  3. Creates one circuit breaker per dependency client
//  4. Creates the compose client and the provisioner
func buildAppContext(cfg *config.Config) (*AppContext, error) {
	app := &AppContext{cfg: cfg, appURL: cfg.App.URL}

	// OTEL is best-effort: a missing collector must never block a run. When
	// OTLPEndpoint is empty, telemetry is disabled entirely.
	if cfg.Telemetry.OTLPEndpoint == "" {
		slog.Debug("OTEL telemetry disabled (no endpoint configured)")
	} else {
		tp, err := telemetry.InitProvider(
			context.Background(),
			cfg.Telemetry.OTLPEndpoint,
			cfg.Telemetry.ServiceName,
			cfg.Telemetry.OTLPInsecure,
		)
		if err != nil {
			slog.Warn("OTEL provider init failed — telemetry disabled", "err", err)
		} else {
			app.otelProvider = tp
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	app.root = project.FindRoot(cwd, cfg.App.RootMarker)

	// One circuit breaker per client so each dependency trips independently.
	pg := clients.NewPostgresClient(cfg.Database, clients.NewCircuitBreaker("postgres"))
	cache := clients.NewRedisClient(cfg.Cache, clients.NewCircuitBreaker("redis"))
	web := clients.NewAppClient(app.appURL, cfg.App, clients.NewCircuitBreaker("app"))

	composer := compose.NewClient(cfg.Compose, app.root)
	app.provisioner = provision.New(cfg, composer, pg, cache, web)

	return app, nil
}
