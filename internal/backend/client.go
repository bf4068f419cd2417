// Package backend provides a client for fetching trips, expenses and budget
// statuses from the tripspend REST API.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/theirongolddev/tripspend/internal/logging"
	"github.com/theirongolddev/tripspend/internal/model"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodySize    = 8 << 20 // 8 MB
	userAgent      = "tripspend/1.0"
)

var (
	// ErrUnauthorized indicates the API token is missing, expired or invalid.
	ErrUnauthorized = errors.New("backend: unauthorized (token expired or invalid)")
	// ErrRateLimited indicates the API rate limit was hit and retries ran out.
	ErrRateLimited = errors.New("backend: rate limited")
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("backend: not found")
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration // per request, including retries
	RetryMax  int
	BudgetTTL time.Duration // 0 disables budget status caching

	// RetryWaitMin and RetryWaitMax bound the backoff between retries.
	// Zero keeps the retryablehttp defaults.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// Client fetches trip data from the backend API.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *retryablehttp.Client
	budgets *cache.Cache
}

// NewClient creates a client for the given options.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("backend: base URL is not configured")
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("backend: invalid base URL %q", opts.BaseURL)
	}

	rc := retryablehttp.NewClient()
	rc.Logger = leveledLogger{}
	rc.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		rc.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		rc.RetryWaitMax = opts.RetryWaitMax
	}
	// Hand the last response back so status codes map to sentinel errors.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL: base,
		token:   strings.TrimSpace(opts.Token),
		timeout: timeout,
		http:    rc,
	}
	if opts.BudgetTTL > 0 {
		c.budgets = cache.New(opts.BudgetTTL, 2*opts.BudgetTTL)
	}
	return c, nil
}

// FetchTrips returns every trip visible to the token.
func (c *Client) FetchTrips(ctx context.Context) ([]model.Trip, error) {
	body, err := c.get(ctx, "/trips")
	if err != nil {
		return nil, err
	}
	return parseTrips(body)
}

// FetchExpenses returns every expense visible to the token.
func (c *Client) FetchExpenses(ctx context.Context) ([]model.Expense, error) {
	body, err := c.get(ctx, "/expenses")
	if err != nil {
		return nil, err
	}
	return parseExpenses(body)
}

// FetchBudgetStatus returns the server-side budget record for a trip.
// Results are reused for the configured TTL.
func (c *Client) FetchBudgetStatus(ctx context.Context, tripID string) (model.BudgetRecord, error) {
	if c.budgets != nil {
		if v, ok := c.budgets.Get(tripID); ok {
			return v.(model.BudgetRecord), nil
		}
	}

	body, err := c.get(ctx, "/trips/"+url.PathEscape(tripID)+"/budget-status")
	if err != nil {
		return model.BudgetRecord{}, err
	}
	rec, err := parseBudgetStatus(tripID, body)
	if err != nil {
		return model.BudgetRecord{}, err
	}

	if c.budgets != nil {
		c.budgets.SetDefault(tripID, rec)
	}
	return rec, nil
}

// InvalidateBudgets drops every cached budget status.
func (c *Client) InvalidateBudgets() {
	if c.budgets != nil {
		c.budgets.Flush()
	}
}

// FallbackFunc supplies a previously good trip set when a trip fetch fails.
type FallbackFunc func() ([]model.Trip, bool)

// FetchSnapshot fetches trips, expenses and budget statuses into one snapshot.
//
// A failed trip fetch degrades to FetchStaleCache when fallback has a trip
// set, else FetchFailure. A failed expense fetch fails the whole call, since
// a snapshot without expenses is useless. Budget statuses are best effort;
// a trip without one falls back to its declared budget later.
func (c *Client) FetchSnapshot(ctx context.Context, fallback FallbackFunc) (model.Snapshot, error) {
	snap := model.Snapshot{
		Budgets: make(map[string]model.BudgetRecord),
		TakenAt: time.Now(),
	}

	expenses, err := c.FetchExpenses(ctx)
	if err != nil {
		return snap, fmt.Errorf("fetching expenses: %w", err)
	}
	snap.Expenses = expenses

	trips, err := c.FetchTrips(ctx)
	if err != nil {
		snap.Trips = model.TripFetch{Status: model.FetchFailure, Err: err}
		if fallback != nil {
			if stale, ok := fallback(); ok {
				snap.Trips = model.TripFetch{Status: model.FetchStaleCache, Trips: stale, Err: err}
			}
		}
		logging.Log.WithError(err).WithField("status", snap.Trips.Status).Warn("trip fetch failed")
		return snap, nil
	}
	snap.Trips = model.TripFetch{Status: model.FetchSuccess, Trips: trips}

	for _, t := range trips {
		rec, err := c.FetchBudgetStatus(ctx, t.ID)
		if err != nil {
			if errors.Is(err, ErrUnauthorized) {
				return snap, fmt.Errorf("fetching budget for %s: %w", t.ID, err)
			}
			logging.Log.WithError(err).WithField("trip", t.ID).Debug("no budget status")
			continue
		}
		snap.Budgets[t.ID] = rec
	}
	return snap, nil
}

// get performs an authenticated GET request and returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("backend: creating request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusNotFound:
		return nil, ErrNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("backend: unexpected status %d from %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("backend: reading response: %w", err)
	}
	return body, nil
}

// leveledLogger routes retryablehttp's logging into the shared logger.
type leveledLogger struct{}

func (leveledLogger) Error(msg string, kv ...any) { entry(kv).Error(msg) }
func (leveledLogger) Info(msg string, kv ...any)  { entry(kv).Debug(msg) }
func (leveledLogger) Debug(msg string, kv ...any) { entry(kv).Debug(msg) }
func (leveledLogger) Warn(msg string, kv ...any)  { entry(kv).Warn(msg) }

func entry(kv []any) *logrus.Entry {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return logging.Log.WithFields(fields)
}
