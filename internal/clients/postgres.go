package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker"

	"github.com/stackup-cli/stackup/internal/config"
	"github.com/stackup-cli/stackup/internal/provision"
)

const pgProbeName = "postgres"

// dbPinger abstracts the pgxpool.Pool methods used here so that tests can
// inject a fake without standing up a real database.
type dbPinger interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresClient opens a short-lived pgx pool per call to check whether the
// database can serve requests. Ping is the raw liveness check used by the
// readiness waiter; Probe is the breaker-guarded deep-health check.
type PostgresClient struct {
	cfg     config.DatabaseConfig
	cb      *gobreaker.CircuitBreaker
	connect func(ctx context.Context, cfg config.DatabaseConfig) (dbPinger, error)
}

// NewPostgresClient creates a PostgresClient. No connection is made at
// construction time; pools are opened lazily per Ping/Probe call.
func NewPostgresClient(cfg config.DatabaseConfig, cb *gobreaker.CircuitBreaker) *PostgresClient {
	return &PostgresClient{
		cfg:     cfg,
		cb:      cb,
		connect: realConnect,
	}
}

// Ping reports whether the database currently answers a connection-level
// ping. It deliberately bypasses the circuit breaker: the readiness waiter
// calls Ping in a polling loop where long runs of failures are the expected
// path to eventual success.
func (c *PostgresClient) Ping(ctx context.Context) error {
	pool, err := c.connect(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Probe pings the server and runs a trivial query to confirm the configured
// database accepts work. The check is wrapped in the circuit breaker so that
// persistent failures trip the breaker after three consecutive errors.
func (c *PostgresClient) Probe(ctx context.Context) provision.ProbeResult {
	start := time.Now()

	_, err := c.cb.Execute(func() (any, error) {
		pool, err := c.connect(ctx, c.cfg)
		if err != nil {
			return nil, err
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping: %w", err)
		}

		var one int
		if err := pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}

		return nil, nil
	})

	latency := time.Since(start).Milliseconds()

	if err != nil {
		errMsg := err.Error()
		if errors.Is(err, gobreaker.ErrOpenState) {
			errMsg = "circuit open"
		}
		return provision.ProbeResult{
			Name:      pgProbeName,
			OK:        false,
			LatencyMs: latency,
			Error:     errMsg,
		}
	}

	return provision.ProbeResult{
		Name:      pgProbeName,
		OK:        true,
		LatencyMs: latency,
	}
}

// realConnect opens a pgxpool.Pool using the provided DatabaseConfig.
func realConnect(ctx context.Context, cfg config.DatabaseConfig) (dbPinger, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DB, cfg.SSLMode,
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}

	return pool, nil
}
