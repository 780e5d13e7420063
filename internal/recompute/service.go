// Package recompute orchestrates the daily pipeline: fetch orders, filter to
// paid, classify, aggregate, persist the summary, and schedule payouts.
package recompute

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aromat/cashflow/internal/aggregate"
	"github.com/aromat/cashflow/internal/calendar"
	"github.com/aromat/cashflow/internal/classify"
	"github.com/aromat/cashflow/internal/domain"
	"github.com/aromat/cashflow/internal/payout"
	"github.com/aromat/cashflow/internal/repository"
)

const dateFormat = "2006-01-02"

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// OrderSource fetches the orders for one calendar date.
type OrderSource interface {
	FetchOrders(ctx context.Context, date time.Time) ([]domain.Order, error)
}

// HolidaySource provides the holiday calendar snapshot.
type HolidaySource interface {
	All() ([]string, error)
}

// Result summarises one recompute run.
type Result struct {
	RunID         string               `json:"run_id"`
	Date          string               `json:"date"`
	OrdersFetched int                  `json:"orders_fetched"`
	PaidOrders    int                  `json:"paid_orders"`
	Summary       *domain.DailySummary `json:"summary"`
	PayoutRows    int                  `json:"payout_rows"`
}

// Service runs recomputes. Concurrent recomputes of the same date are
// serialized by a per-date mutex; different dates proceed independently.
type Service struct {
	feed      OrderSource
	holidays  HolidaySource
	summaries *repository.SummaryRepo
	payouts   *repository.PayoutRepo
	loc       *time.Location
	currency  string
	log       *zap.Logger

	mu    sync.Mutex
	dates map[string]*sync.Mutex
}

// NewService creates the recompute service.
func NewService(
	feed OrderSource,
	holidays HolidaySource,
	summaries *repository.SummaryRepo,
	payouts *repository.PayoutRepo,
	loc *time.Location,
	currency string,
	log *zap.Logger,
) *Service {
	return &Service{
		feed:      feed,
		holidays:  holidays,
		summaries: summaries,
		payouts:   payouts,
		loc:       loc,
		currency:  currency,
		log:       log,
		dates:     make(map[string]*sync.Mutex),
	}
}

// ParseDate validates and parses a YYYY-MM-DD date string in the service's
// civil timezone.
func (s *Service) ParseDate(v string) (time.Time, error) {
	if !dateRe.MatchString(v) {
		return time.Time{}, domain.NewValidationError("date", "must be YYYY-MM-DD")
	}
	t, err := time.ParseInLocation(dateFormat, v, s.loc)
	if err != nil {
		return time.Time{}, domain.NewValidationError("date", "not a real calendar date")
	}
	return t, nil
}

// dateLock returns the mutex guarding recomputes of a given date. Locks are
// kept for the process lifetime; the set of distinct dates stays small.
func (s *Service) dateLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.dates[key]
	if !ok {
		m = &sync.Mutex{}
		s.dates[key] = m
	}
	return m
}

// Recompute rebuilds the daily summary and payout plan for one date. The two
// writes are not transactional with each other, but both are idempotent, so
// re-running after a partial failure converges to a consistent state.
func (s *Service) Recompute(ctx context.Context, date time.Time) (*Result, error) {
	dateKey := date.Format(dateFormat)
	lock := s.dateLock(dateKey)
	lock.Lock()
	defer lock.Unlock()

	runID := uuid.NewString()
	log := s.log.With(zap.String("run_id", runID), zap.String("date", dateKey))

	// The holiday set is read once and treated as an immutable snapshot for
	// this run's calendar arithmetic.
	holidayDates, err := s.holidays.All()
	if err != nil {
		log.Error("load holidays failed", zap.String("stage", "holidays"), zap.Error(err))
		return nil, fmt.Errorf("load holidays: %w", err)
	}
	cal := calendar.New(holidayDates)

	orders, err := s.feed.FetchOrders(ctx, date)
	if err != nil {
		log.Error("order fetch failed", zap.String("stage", "feed"), zap.Error(err))
		return nil, fmt.Errorf("fetch orders: %w", err)
	}

	paid := make([]domain.Order, 0, len(orders))
	for i := range orders {
		if classify.IsPaid(&orders[i]) {
			paid = append(paid, orders[i])
		}
	}

	summary := aggregate.Aggregate(paid)
	summary.Date = date
	summary.CurrencyCode = s.currency

	if err := s.summaries.Upsert(&summary); err != nil {
		log.Error("summary upsert failed", zap.String("stage", "store"), zap.Error(err))
		return nil, fmt.Errorf("upsert summary: %w", err)
	}

	entries, err := payout.NewScheduler(cal).Schedule(date, &summary)
	if err != nil {
		log.Error("payout scheduling failed", zap.String("stage", "schedule"), zap.Error(err))
		return nil, fmt.Errorf("schedule payouts: %w", err)
	}

	written, err := s.payouts.ReplaceForSourceDate(date, entries)
	if err != nil {
		log.Error("payout write failed", zap.String("stage", "store"), zap.Error(err))
		return nil, fmt.Errorf("write payouts: %w", err)
	}

	log.Info("recompute complete",
		zap.String("stage", "done"),
		zap.Int("orders_fetched", len(orders)),
		zap.Int("paid_orders", len(paid)),
		zap.String("total_sum", summary.TotalSum.StringFixed(2)),
		zap.Int("payout_rows", written))

	return &Result{
		RunID:         runID,
		Date:          dateKey,
		OrdersFetched: len(orders),
		PaidOrders:    len(paid),
		Summary:       &summary,
		PayoutRows:    written,
	}, nil
}

// RecomputeRange recomputes every date in [from, to], sequentially, stopping
// at the first failure.
func (s *Service) RecomputeRange(ctx context.Context, from, to time.Time) ([]Result, error) {
	if to.Before(from) {
		return nil, domain.NewValidationError("range", "to is before from")
	}

	var results []Result
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		res, err := s.Recompute(ctx, d)
		if err != nil {
			return results, fmt.Errorf("recompute %s: %w", d.Format(dateFormat), err)
		}
		results = append(results, *res)
	}
	return results, nil
}
