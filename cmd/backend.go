package main

import (
	"net/http"
	"time"

	"github.com/sells-group/booking-insights/internal/config"
	"github.com/sells-group/booking-insights/internal/resilience"
	"github.com/sells-group/booking-insights/pkg/salonapi"
)

// newFetcher builds a snapshot fetcher for the configured backend.
func newFetcher(c *config.Config) (*salonapi.Fetcher, error) {
	if err := c.Validate("backend"); err != nil {
		return nil, err
	}

	timeout := time.Duration(c.Backend.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := salonapi.NewClient(c.Backend.BaseURL, c.Backend.Token,
		salonapi.WithTenant(c.Backend.Tenant),
		salonapi.WithHTTPClient(&http.Client{Timeout: timeout}),
		salonapi.WithRateLimit(c.Backend.RatePerSec, c.Backend.Burst),
		salonapi.WithRetry(resilience.DefaultPolicy().WithMaxRetries(c.Backend.MaxRetries)),
		salonapi.WithPageSize(c.Backend.PageSize),
	)
	return salonapi.NewFetcher(client), nil
}
