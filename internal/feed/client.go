// Package feed implements the paginated order-feed client. The feed serves
// orders newest-first over paged HTTP GET with Basic auth; the client fetches
// only the pages that can still contain orders for the requested date.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/aromat/cashflow/internal/domain"
)

// Config holds the feed connection settings.
type Config struct {
	// BaseURL is the feed origin, e.g. "https://shop.example.com".
	BaseURL string
	// APIKey and Password are the HTTP Basic auth credentials.
	APIKey   string
	Password string
	// PerPage is the fixed page size requested from the feed.
	PerPage int
	// MaxPages caps pagination as a guard against clock skew or a
	// misordered feed.
	MaxPages int
	// RequestTimeout bounds each individual page request.
	RequestTimeout time.Duration
	// MaxRetries bounds backoff retries for transient failures.
	MaxRetries uint64
}

// Client fetches orders for a calendar date from the external feed.
type Client struct {
	cfg  Config
	http *http.Client
	loc  *time.Location
	log  *zap.Logger
}

// NewClient creates a feed client. The location fixes the civil timezone in
// which the requested date's window is interpreted.
func NewClient(cfg Config, loc *time.Location, log *zap.Logger) *Client {
	if cfg.PerPage <= 0 {
		cfg.PerPage = 50
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 30
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.RequestTimeout},
		loc:  loc,
		log:  log,
	}
}

// FetchOrders returns all orders created within [date 00:00:00, date
// 24:00:00) in the client's timezone. The feed is assumed sorted descending
// by creation time; fetching stops on the first empty page, when the oldest
// order on a page predates the window start, or at the page cap. Out-of-window
// orders on an otherwise included page are dropped individually and never
// extend the stopping heuristic.
func (c *Client) FetchOrders(ctx context.Context, date time.Time) ([]domain.Order, error) {
	windowStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, c.loc)
	windowEnd := windowStart.AddDate(0, 0, 1)

	var out []domain.Order
	for page := 1; ; page++ {
		if page > c.cfg.MaxPages {
			c.log.Warn("page cap reached, stopping pagination",
				zap.String("stage", "feed"),
				zap.String("date", windowStart.Format("2006-01-02")),
				zap.Int("max_pages", c.cfg.MaxPages))
			break
		}

		orders, rawCount, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		// An empty page signals feed exhaustion. A page whose records all
		// failed to decode is not exhaustion; keep going under the cap.
		if rawCount == 0 {
			break
		}
		if len(orders) == 0 {
			continue
		}

		oldest := orders[0].CreatedAt
		for i := range orders {
			o := &orders[i]
			if o.CreatedAt.Before(oldest) {
				oldest = o.CreatedAt
			}
			created := o.CreatedAt.In(c.loc)
			if !created.Before(windowStart) && created.Before(windowEnd) {
				out = append(out, *o)
			}
		}

		// Pages are newest-first: once a page reaches past the window
		// start, no later page can contain in-window orders.
		if oldest.In(c.loc).Before(windowStart) {
			break
		}
	}
	return out, nil
}

// fetchPage retrieves and decodes one feed page, retrying transient failures
// with exponential backoff. Authentication failures are permanent and fail
// fast. Individual records that fail to decode are skipped with a warning.
func (c *Client) fetchPage(ctx context.Context, page int) ([]domain.Order, int, error) {
	var body []byte

	operation := func() error {
		reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()

		url := fmt.Sprintf("%s/admin/orders.json?page=%d&per_page=%d&sort=created_at+desc",
			c.cfg.BaseURL, page, c.cfg.PerPage)
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.SetBasicAuth(c.cfg.APIKey, c.cfg.Password)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("get page %d: %w", page, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(domain.NewIntegrationError(
				domain.FeedAuthFailed, "fetch orders page "+strconv.Itoa(page),
				fmt.Errorf("feed returned %d", resp.StatusCode)))
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("feed returned %d for page %d", resp.StatusCode, page)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("feed returned %d for page %d",
				resp.StatusCode, page))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read page %d: %w", page, err)
		}
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.cfg.MaxRetries)
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		if kind := domain.IntegrationKindOf(err); kind != "" {
			return nil, 0, err
		}
		return nil, 0, domain.NewIntegrationError(
			domain.FeedUnavailable, "fetch orders page "+strconv.Itoa(page), err)
	}

	return c.decodePage(body, page)
}

// decodePage unmarshals a feed page record by record so a single malformed
// order cannot abort the whole recompute. It returns the raw record count
// alongside the decoded orders; feed exhaustion is judged on the former.
func (c *Client) decodePage(body []byte, page int) ([]domain.Order, int, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, 0, domain.NewIntegrationError(
			domain.FeedUnavailable, "decode orders page "+strconv.Itoa(page), err)
	}

	orders := make([]domain.Order, 0, len(raw))
	for i, rec := range raw {
		var o domain.Order
		if err := json.Unmarshal(rec, &o); err != nil {
			c.log.Warn("skipping malformed order record",
				zap.String("stage", "feed"),
				zap.Int("page", page),
				zap.Int("record", i),
				zap.Error(err))
			continue
		}
		if o.CreatedAt.IsZero() {
			c.log.Warn("skipping order without creation time",
				zap.String("stage", "feed"),
				zap.Int("page", page),
				zap.Int64("order_id", o.ID))
			continue
		}
		orders = append(orders, o)
	}
	return orders, len(raw), nil
}
