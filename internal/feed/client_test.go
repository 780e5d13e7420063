package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aromat/cashflow/internal/domain"
)

type rawOrder map[string]any

func mkOrder(id int64, createdAt string, price string) rawOrder {
	return rawOrder{
		"id":               id,
		"created_at":       createdAt,
		"total_price":      price,
		"financial_status": "paid",
		"payment_title":    "Оплата картой",
	}
}

// pageServer serves fixed pages and records which pages were requested.
func pageServer(t *testing.T, pages map[int][]rawOrder) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		page := r.URL.Query().Get("page")
		var n int
		fmt.Sscanf(page, "%d", &n)
		orders := pages[n]
		if orders == nil {
			orders = []rawOrder{}
		}
		json.NewEncoder(w).Encode(orders)
	}))
	return srv, &hits
}

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:        baseURL,
		APIKey:         "key",
		Password:       "secret",
		PerPage:        50,
		MaxPages:       10,
		RequestTimeout: 2 * time.Second,
		MaxRetries:     3,
	}, time.UTC, zap.NewNop())
}

func TestFetchOrdersStopsWhenPageReachesPastWindow(t *testing.T) {
	// Page 1: 50 orders inside the window, newest first. Page 2: one order
	// inside the window, then one before the window start. Page 3 must never
	// be requested.
	page1 := make([]rawOrder, 0, 50)
	for i := 0; i < 50; i++ {
		ts := fmt.Sprintf("2025-03-10T%02d:30:00Z", 23-(i%24))
		page1 = append(page1, mkOrder(int64(1000+i), ts, "10.00"))
	}
	page2 := []rawOrder{
		mkOrder(2000, "2025-03-10T00:15:00Z", "5.00"),
		mkOrder(2001, "2025-03-09T23:59:00Z", "7.00"),
	}

	pages := map[int][]rawOrder{1: page1, 2: page2}
	srv, hits := pageServer(t, pages)
	defer srv.Close()

	c := newTestClient(srv.URL)
	orders, err := c.FetchOrders(context.Background(), mustDate("2025-03-10"))
	require.NoError(t, err)

	assert.Len(t, orders, 51, "50 from page 1 plus the in-window order on page 2")
	assert.EqualValues(t, 2, hits.Load(), "fetch must stop after page 2")
}

func TestFetchOrdersDropsOutOfWindowOrders(t *testing.T) {
	pages := map[int][]rawOrder{
		1: {
			mkOrder(1, "2025-03-11T01:00:00Z", "1.00"), // next day, dropped
			mkOrder(2, "2025-03-10T12:00:00Z", "2.00"),
			mkOrder(3, "2025-03-09T23:00:00Z", "3.00"), // before window, stops
		},
	}
	srv, hits := pageServer(t, pages)
	defer srv.Close()

	c := newTestClient(srv.URL)
	orders, err := c.FetchOrders(context.Background(), mustDate("2025-03-10"))
	require.NoError(t, err)

	require.Len(t, orders, 1)
	assert.EqualValues(t, 2, orders[0].ID)
	assert.EqualValues(t, 1, hits.Load())
}

func TestFetchOrdersEmptyPageStops(t *testing.T) {
	pages := map[int][]rawOrder{
		1: {mkOrder(1, "2025-03-10T12:00:00Z", "2.00")},
		// page 2 is empty
	}
	srv, hits := pageServer(t, pages)
	defer srv.Close()

	c := newTestClient(srv.URL)
	orders, err := c.FetchOrders(context.Background(), mustDate("2025-03-10"))
	require.NoError(t, err)

	assert.Len(t, orders, 1)
	assert.EqualValues(t, 2, hits.Load())
}

func TestFetchOrdersPageCap(t *testing.T) {
	// Every page keeps returning in-window orders; the cap must stop it.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]rawOrder{mkOrder(1, "2025-03-10T12:00:00Z", "2.00")})
	}))
	defer srv.Close()

	c := NewClient(Config{
		BaseURL:  srv.URL,
		PerPage:  50,
		MaxPages: 3,
	}, time.UTC, zap.NewNop())

	orders, err := c.FetchOrders(context.Background(), mustDate("2025-03-10"))
	require.NoError(t, err)
	assert.Len(t, orders, 3)
}

func TestFetchOrdersSkipsMalformedRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			json.NewEncoder(w).Encode([]rawOrder{})
			return
		}
		fmt.Fprint(w, `[
			{"id": 1, "created_at": "2025-03-10T12:00:00Z", "total_price": "5.00", "paid": true},
			{"id": 2, "created_at": "not-a-timestamp", "total_price": "9.00"},
			{"id": 3, "created_at": "2025-03-10T11:00:00Z", "total_price": "oops", "paid": true},
			{"id": 4, "created_at": "2025-03-10T10:00:00Z", "total_price": "7.00", "paid": true}
		]`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	orders, err := c.FetchOrders(context.Background(), mustDate("2025-03-10"))
	require.NoError(t, err)

	require.Len(t, orders, 2)
	assert.EqualValues(t, 1, orders[0].ID)
	assert.EqualValues(t, 4, orders[1].ID)
}

func TestFetchOrdersRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode([]rawOrder{})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	orders, err := c.FetchOrders(context.Background(), mustDate("2025-03-10"))
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.EqualValues(t, 3, calls.Load(), "two failures then success")
}

func TestFetchOrdersAuthFailureIsFatal(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.FetchOrders(context.Background(), mustDate("2025-03-10"))
	require.Error(t, err)
	assert.Equal(t, domain.FeedAuthFailed, domain.IntegrationKindOf(err))
	assert.EqualValues(t, 1, calls.Load(), "auth failures must not be retried")
}

func TestFetchOrdersFeedDownSurfacesIntegrationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(Config{
		BaseURL:    srv.URL,
		MaxRetries: 1,
	}, time.UTC, zap.NewNop())

	_, err := c.FetchOrders(context.Background(), mustDate("2025-03-10"))
	require.Error(t, err)
	assert.Equal(t, domain.FeedUnavailable, domain.IntegrationKindOf(err))
}

func TestFetchOrdersSendsBasicAuthAndSort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "50", r.URL.Query().Get("per_page"))
		assert.Equal(t, "created_at desc", r.URL.Query().Get("sort"))
		json.NewEncoder(w).Encode([]rawOrder{})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.FetchOrders(context.Background(), mustDate("2025-03-10"))
	require.NoError(t, err)
}

func mustDate(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}
