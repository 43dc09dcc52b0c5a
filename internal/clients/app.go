package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/stackup-cli/stackup/internal/config"
	"github.com/stackup-cli/stackup/internal/provision"
)

const appProbeName = "app"

// AppClient probes the web application's HTTP health endpoint, with a
// circuit breaker around the outbound call.
type AppClient struct {
	baseURL    string
	healthPath string
	cb         *gobreaker.CircuitBreaker
	httpDo     func(req *http.Request) (*http.Response, error)
}

// NewAppClient constructs an AppClient for the resolved base URL. No HTTP
// calls are made at construction time.
func NewAppClient(appURL string, cfg config.AppConfig, cb *gobreaker.CircuitBreaker) *AppClient {
	return &AppClient{
		baseURL:    strings.TrimRight(appURL, "/"),
		healthPath: cfg.HealthPath,
		cb:         cb,
		httpDo:     http.DefaultClient.Do,
	}
}

// Probe checks that the application answers its health endpoint with 200.
func (c *AppClient) Probe(ctx context.Context) provision.ProbeResult {
	start := time.Now()

	_, err := c.cb.Execute(func() (any, error) {
		url := c.baseURL + c.healthPath
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("building probe request: %w", err)
		}

		resp, err := c.httpDo(req)
		if err != nil {
			return nil, fmt.Errorf("probe request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("probe returned HTTP %d", resp.StatusCode)
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
			Name:      appProbeName,
			OK:        false,
			LatencyMs: latency,
			Error:     errMsg,
		}
	}

	return provision.ProbeResult{
		Name:      appProbeName,
		OK:        true,
		LatencyMs: latency,
	}
}
