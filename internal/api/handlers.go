package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aromat/cashflow/internal/domain"
	"github.com/aromat/cashflow/internal/recompute"
	"github.com/aromat/cashflow/internal/repository"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	reconSvc    *recompute.Service
	summaryRepo *repository.SummaryRepo
	payoutRepo  *repository.PayoutRepo
	holidayRepo *repository.HolidayRepo
	log         *zap.Logger
}

// --- helpers ---

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("encode response failed", zap.Error(err))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the error taxonomy onto HTTP statuses: validation
// errors are the caller's fault, integration errors are upstream failures.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	if domain.IsValidation(err) {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch domain.IntegrationKindOf(err) {
	case domain.FeedAuthFailed, domain.FeedUnavailable:
		h.writeError(w, http.StatusBadGateway, err.Error())
	case domain.StoreUnavailable, domain.StoreWriteConflict:
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// --- Recompute ---

type recomputeRequest struct {
	Date string `json:"date"`
}

func (h *Handlers) Recompute(w http.ResponseWriter, r *http.Request) {
	var req recomputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	date, err := h.reconSvc.ParseDate(req.Date)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.reconSvc.Recompute(r.Context(), date)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

type recomputeRangeRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (h *Handlers) RecomputeRange(w http.ResponseWriter, r *http.Request) {
	var req recomputeRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	from, err := h.reconSvc.ParseDate(req.From)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := h.reconSvc.ParseDate(req.To)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.reconSvc.RecomputeRange(r.Context(), from, to)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"days":    len(results),
	})
}

// --- Summaries ---

func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	date, err := h.reconSvc.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.summaryRepo.GetByDate(date)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if summary == nil {
		h.writeError(w, http.StatusNotFound, "no summary for date")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"summary": summary,
		"report":  summary.ReportFields(),
	})
}

func (h *Handlers) ListSummaries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.SummaryFilter{
		From:  parseTime(q.Get("from")),
		To:    parseTime(q.Get("to")),
		Page:  parseIntDefault(q.Get("page"), 1),
		Limit: parseIntDefault(q.Get("limit"), 50),
	}

	summaries, total, err := h.summaryRepo.List(filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"summaries": summaries,
		"total":     total,
		"page":      filter.Page,
		"limit":     filter.Limit,
	})
}

// --- Payouts ---

func (h *Handlers) ListPayouts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.PayoutFilter{
		Channel:    q.Get("channel"),
		SourceDate: parseTime(q.Get("source_date")),
		From:       parseTime(q.Get("from")),
		To:         parseTime(q.Get("to")),
		Page:       parseIntDefault(q.Get("page"), 1),
		Limit:      parseIntDefault(q.Get("limit"), 50),
	}

	entries, total, err := h.payoutRepo.List(filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"payouts": entries,
		"total":   total,
		"page":    filter.Page,
		"limit":   filter.Limit,
	})
}

// --- Holidays ---

func (h *Handlers) ListHolidays(w http.ResponseWriter, r *http.Request) {
	dates, err := h.holidayRepo.All()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"holidays": dates})
}

type holidayRequest struct {
	Date string `json:"date"`
}

func (h *Handlers) AddHoliday(w http.ResponseWriter, r *http.Request) {
	var req holidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	date, err := h.reconSvc.ParseDate(req.Date)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.holidayRepo.Add(date); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"date": req.Date})
}

func (h *Handlers) RemoveHoliday(w http.ResponseWriter, r *http.Request) {
	date, err := h.reconSvc.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.holidayRepo.Remove(date); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
