// Package provision assembles the first-run provisioning pipeline for a
// containerized web application stack and exposes deep-health probing of its
// backing services.
package provision

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/stackup-cli/stackup/internal/config"
	"github.com/stackup-cli/stackup/internal/envfile"
	"github.com/stackup-cli/stackup/internal/pipeline"
	"github.com/stackup-cli/stackup/internal/readiness"
)

// ErrDatabaseWaitTimeout is returned by the database-wait stage when the
// liveness probe never succeeded. The stage is best-effort, so the pipeline
// logs the timeout and continues; a truly unreachable database surfaces
// later through the migration stage.
var ErrDatabaseWaitTimeout = errors.New("database wait timed out")

// Composer is satisfied by *compose.Client.
type Composer interface {
	Up(ctx context.Context, services ...string) error
	Exec(ctx context.Context, service, user string, command ...string) error
}

// DBPinger is satisfied by *clients.PostgresClient.
type DBPinger interface {
	Ping(ctx context.Context) error
	Probe(ctx context.Context) ProbeResult
}

// CacheProber is satisfied by *clients.RedisClient.
type CacheProber interface {
	Probe(ctx context.Context) ProbeResult
}

// AppProber is satisfied by *clients.AppClient.
type AppProber interface {
	Probe(ctx context.Context) ProbeResult
}

// Provisioner builds the provisioning stage list and runs health probes.
type Provisioner struct {
	cfg     *config.Config
	compose Composer
	db      DBPinger
	cache   CacheProber
	app     AppProber
	waiter  *readiness.Waiter
}

// New constructs a Provisioner. The concrete client types satisfy the
// interfaces defined in this package.
func New(cfg *config.Config, compose Composer, db DBPinger, cache CacheProber, app AppProber) *Provisioner {
	return &Provisioner{
		cfg:     cfg,
		compose: compose,
		db:      db,
		cache:   cache,
		app:     app,
		waiter:  readiness.NewWaiter(cfg.Database.WaitInterval, cfg.Database.WaitTimeout),
	}
}

// Stages returns the ordered provisioning pipeline. root is the discovered
// project root and appURL the resolved base URL; both are threaded in
// explicitly rather than read from ambient state.
func (p *Provisioner) Stages(root, appURL string) []pipeline.Stage {
	appSvc := p.cfg.Compose.AppService
	user := p.cfg.Compose.ExecUser

	return []pipeline.Stage{
		{
			Name:     "services",
			Label:    "Starting application services",
			Critical: true,
			Run: func(ctx context.Context) error {
				return p.compose.Up(ctx, appSvc, p.cfg.Compose.CacheService)
			},
		},
		{
			Name:     "database-wait",
			Label:    "Waiting for the database",
			Critical: false,
			Run:      p.waitForDatabase,
		},
		{
			Name:     "env",
			Label:    "Materializing environment file",
			Critical: true,
			Run: func(ctx context.Context) error {
				return envfile.Materialize(
					filepath.Join(root, p.cfg.App.EnvFile),
					filepath.Join(root, p.cfg.App.EnvTemplate),
					p.cfg.App.EnvKey,
					appURL,
				)
			},
		},
		{
			Name:     "dependencies",
			Label:    "Installing application dependencies",
			Critical: true,
			Run: func(ctx context.Context) error {
				return p.compose.Exec(ctx, appSvc, user,
					"composer", "install", "--no-interaction", "--prefer-dist")
			},
		},
		{
			Name:     "app-key",
			Label:    "Generating application key",
			Critical: false,
			Run: func(ctx context.Context) error {
				return p.compose.Exec(ctx, appSvc, user, "php", "artisan", "key:generate", "--force")
			},
		},
		{
			Name:     "migrate",
			Label:    "Running database migrations",
			Critical: true,
			Run: func(ctx context.Context) error {
				return p.compose.Exec(ctx, appSvc, user, "php", "artisan", "migrate", "--force")
			},
		},
		{
			Name:     "seed",
			Label:    "Seeding database",
			Critical: false,
			Run: func(ctx context.Context) error {
				return p.compose.Exec(ctx, appSvc, user, "php", "artisan", "db:seed", "--force")
			},
		},
		{
			Name:     "storage-link",
			Label:    "Linking public storage",
			Critical: false,
			Run: func(ctx context.Context) error {
				return p.compose.Exec(ctx, appSvc, user, "php", "artisan", "storage:link")
			},
		},
		{
			Name:     "cache-clear",
			Label:    "Clearing application caches",
			Critical: false,
			Run: func(ctx context.Context) error {
				return p.compose.Exec(ctx, appSvc, user, "php", "artisan", "cache:clear")
			},
		},
	}
}

// waitForDatabase blocks until the database answers a ping or the configured
// timeout elapses. A timeout is reported as ErrDatabaseWaitTimeout, which the
// runner downgrades to a warning because the stage is best-effort.
func (p *Provisioner) waitForDatabase(ctx context.Context) error {
	if p.waiter.Wait(ctx, p.db.Ping) == readiness.TimedOut {
		slog.WarnContext(ctx, "database did not become ready, continuing anyway",
			"timeout", p.cfg.Database.WaitTimeout)
		return ErrDatabaseWaitTimeout
	}
	return nil
}

// DeepHealth probes the three backing services concurrently and returns a
// map of dependency name to ProbeResult.
func (p *Provisioner) DeepHealth(ctx context.Context) map[string]ProbeResult {
	results := make(map[string]ProbeResult, 3)
	var mu sync.Mutex
	var g errgroup.Group

	g.Go(func() error {
		probe := p.db.Probe(ctx)
		mu.Lock()
		results["postgres"] = probe
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		probe := p.cache.Probe(ctx)
		mu.Lock()
		results["redis"] = probe
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		probe := p.app.Probe(ctx)
		mu.Lock()
		results["app"] = probe
		mu.Unlock()
		return nil
	})

	_ = g.Wait()
	return results
}
