// Package salonapi is a client for the booking platform's REST API.
package salonapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/booking-insights/internal/model"
	"github.com/sells-group/booking-insights/internal/resilience"
)

const (
	defaultPageSize = 200
	// maxPages bounds a single list call in case the backend loops its
	// next links.
	maxPages = 1000

	// maxPreallocate caps the slice capacity taken from a page's count.
	maxPreallocate = 10000
)

// Client defines the booking platform API operations.
type Client interface {
	ListBookings(ctx context.Context, from, to time.Time) ([]Booking, error)
	// ListHistory returns every resolved booking that started before before.
	ListHistory(ctx context.Context, before time.Time) ([]Booking, error)
	ListLeads(ctx context.Context) ([]Lead, error)
	ListServices(ctx context.Context) ([]Service, error)
	ListIntakeProfiles(ctx context.Context) ([]IntakeProfile, error)
	CurrentDisclaimer(ctx context.Context) (*Disclaimer, error)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithTenant sets the X-Tenant header sent on every request.
func WithTenant(tenant string) Option {
	return func(c *httpClient) {
		c.tenant = tenant
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests at perSec with the given burst.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSec), max(burst, 1))
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

// WithPageSize sets the page_size query parameter for list calls.
func WithPageSize(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	baseURL  string
	token    string
	tenant   string
	pageSize int
	http     *http.Client
	limiter  *rate.Limiter
	retry    resilience.Policy
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL, token string, opts ...Option) Client {
	c := &httpClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		pageSize: defaultPageSize,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(10, 10),
		retry:   resilience.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ListBookings(ctx context.Context, from, to time.Time) ([]Booking, error) {
	q := url.Values{}
	q.Set("start_after", from.UTC().Format(time.RFC3339))
	q.Set("start_before", to.UTC().Format(time.RFC3339))

	out, err := list[Booking](ctx, c, "/api/bookings/", q)
	if err != nil {
		return nil, eris.Wrap(err, "salonapi: list bookings")
	}
	return out, nil
}

// resolvedStatuses are the booking outcomes client reliability is built from.
var resolvedStatuses = []string{
	string(model.BookingCompleted),
	string(model.BookingNoShow),
	string(model.BookingCancelled),
}

func (c *httpClient) ListHistory(ctx context.Context, before time.Time) ([]Booking, error) {
	q := url.Values{}
	q.Set("start_before", before.UTC().Format(time.RFC3339))
	q.Set("status", strings.Join(resolvedStatuses, ","))

	out, err := list[Booking](ctx, c, "/api/bookings/", q)
	if err != nil {
		return nil, eris.Wrap(err, "salonapi: list history")
	}
	return out, nil
}

func (c *httpClient) ListLeads(ctx context.Context) ([]Lead, error) {
	out, err := list[Lead](ctx, c, "/api/leads/", nil)
	if err != nil {
		return nil, eris.Wrap(err, "salonapi: list leads")
	}
	return out, nil
}

func (c *httpClient) ListServices(ctx context.Context) ([]Service, error) {
	out, err := list[Service](ctx, c, "/api/services/", nil)
	if err != nil {
		return nil, eris.Wrap(err, "salonapi: list services")
	}
	return out, nil
}

func (c *httpClient) ListIntakeProfiles(ctx context.Context) ([]IntakeProfile, error) {
	out, err := list[IntakeProfile](ctx, c, "/api/intake-profiles/", nil)
	if err != nil {
		return nil, eris.Wrap(err, "salonapi: list intake profiles")
	}
	return out, nil
}

// CurrentDisclaimer returns the active disclaimer. A tenant without one
// gets an empty version rather than an error.
func (c *httpClient) CurrentDisclaimer(ctx context.Context) (*Disclaimer, error) {
	var d Disclaimer
	err := c.get(ctx, c.baseURL+"/api/disclaimers/current/", &d)
	var se *resilience.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return &Disclaimer{}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "salonapi: current disclaimer")
	}
	return &d, nil
}

// list follows next links until the last page.
func list[T any](ctx context.Context, c *httpClient, path string, q url.Values) ([]T, error) {
	if q == nil {
		q = url.Values{}
	}
	q.Set("page_size", strconv.Itoa(c.pageSize))
	next := c.baseURL + path + "?" + q.Encode()

	var out []T
	for n := 0; next != ""; n++ {
		if n >= maxPages {
			return nil, eris.Errorf("pagination exceeded %d pages", maxPages)
		}
		var p page[T]
		if err := c.get(ctx, next, &p); err != nil {
			return nil, err
		}
		if out == nil {
			out = make([]T, 0, max(min(p.Count, maxPreallocate), 0))
		}
		out = append(out, p.Results...)
		next = p.Next
	}

	zap.L().Debug("salonapi: listed",
		zap.String("path", path),
		zap.Int("count", len(out)),
	)
	return out, nil
}

func (c *httpClient) get(ctx context.Context, rawURL string, out any) error {
	_, err := resilience.Do(ctx, c.retry, "GET "+rawURL, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.once(ctx, rawURL, out)
	})
	return err
}

func (c *httpClient) once(ctx context.Context, rawURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if c.tenant != "" {
		req.Header.Set("X-Tenant", c.tenant)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resilience.NewStatusError(resp, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}
