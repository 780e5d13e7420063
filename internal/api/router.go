package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/aromat/cashflow/internal/recompute"
	"github.com/aromat/cashflow/internal/repository"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	reconSvc *recompute.Service,
	summaryRepo *repository.SummaryRepo,
	payoutRepo *repository.PayoutRepo,
	holidayRepo *repository.HolidayRepo,
	log *zap.Logger,
) http.Handler {
	h := &Handlers{
		reconSvc:    reconSvc,
		summaryRepo: summaryRepo,
		payoutRepo:  payoutRepo,
		holidayRepo: holidayRepo,
		log:         log,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))
	r.Use(middleware.Heartbeat("/healthz"))

	r.Route("/api/v1", func(r chi.Router) {
		// Recompute.
		r.Post("/recompute", h.Recompute)
		r.Post("/recompute/range", h.RecomputeRange)

		// Summaries.
		r.Get("/summaries", h.ListSummaries)
		r.Get("/summaries/{date}", h.GetSummary)

		// Payout plan.
		r.Get("/payouts", h.ListPayouts)

		// Holiday calendar.
		r.Get("/holidays", h.ListHolidays)
		r.Post("/holidays", h.AddHoliday)
		r.Delete("/holidays/{date}", h.RemoveHoliday)
	})

	return r
}
