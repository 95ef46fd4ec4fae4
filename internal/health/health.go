// Package health probes service readiness endpoints. An unhealthy outcome is
// an expected, reportable result, not a fault: only the supervisor decides
// whether it aborts anything.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/relayctl/relayctl/internal/service"
)

type Checker struct {
	client *http.Client
	log    *slog.Logger
}

// New returns a Checker whose individual probes time out after timeout.
func New(timeout time.Duration, log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{client: &http.Client{Timeout: timeout}, log: log}
}

// Probe performs a single GET against the descriptor's health URL. Any
// success-class status counts as healthy. Descriptors without a probe target
// report healthy unconditionally.
func (c *Checker) Probe(ctx context.Context, d service.Descriptor) bool {
	if !d.HasProbe() {
		return true
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.HealthURL, nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// WaitHealthy retries Probe up to attempts times with a fixed interval sleep
// between attempts. All attempts failing yields service.ErrHealthTimeout;
// the caller decides whether that aborts anything.
func (c *Checker) WaitHealthy(ctx context.Context, d service.Descriptor, attempts int, interval time.Duration) error {
	if !d.HasProbe() {
		return nil
	}
	for i := 1; i <= attempts; i++ {
		if c.Probe(ctx, d) {
			c.log.Debug("healthy", "service", d.Name, "attempt", i)
			return nil
		}
		if i < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
	}
	return fmt.Errorf("%s: %d attempts: %w", d.Name, attempts, service.ErrHealthTimeout)
}
