package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aromat/cashflow/internal/domain"
)

const dateFormat = "2006-01-02"

// SummaryRepo persists daily revenue summaries, one row per date.
type SummaryRepo struct {
	db *sql.DB
}

func NewSummaryRepo(db *sql.DB) *SummaryRepo {
	return &SummaryRepo{db: db}
}

// Upsert writes the summary for its date, overwriting any existing row. The
// post-condition holds regardless of call count: exactly one row per date.
func (r *SummaryRepo) Upsert(s *domain.DailySummary) error {
	_, err := r.db.Exec(
		`INSERT INTO daily_summaries
		(date, sum_region1, sum_region2, sum_card, sum_paypal, sum_transfer,
		 sum_unknown, total_sum, order_count, currency_code)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(date) DO UPDATE SET
			sum_region1 = excluded.sum_region1,
			sum_region2 = excluded.sum_region2,
			sum_card = excluded.sum_card,
			sum_paypal = excluded.sum_paypal,
			sum_transfer = excluded.sum_transfer,
			sum_unknown = excluded.sum_unknown,
			total_sum = excluded.total_sum,
			order_count = excluded.order_count,
			currency_code = excluded.currency_code`,
		s.Date.Format(dateFormat),
		s.SumFor(domain.ChannelRegion1Bank).StringFixed(2),
		s.SumFor(domain.ChannelRegion2Bank).StringFixed(2),
		s.SumFor(domain.ChannelCard).StringFixed(2),
		s.SumFor(domain.ChannelPayPal).StringFixed(2),
		s.SumFor(domain.ChannelWireTransfer).StringFixed(2),
		s.SumFor(domain.ChannelUnknown).StringFixed(2),
		s.TotalSum.StringFixed(2),
		s.TotalCount,
		s.CurrencyCode,
	)
	if err != nil {
		return storeErr("upsert daily summary", err)
	}
	return nil
}

// GetByDate returns the stored summary for a date, or nil when none exists.
func (r *SummaryRepo) GetByDate(date time.Time) (*domain.DailySummary, error) {
	row := r.db.QueryRow(
		`SELECT date, sum_region1, sum_region2, sum_card, sum_paypal,
		        sum_transfer, sum_unknown, total_sum, order_count, currency_code
		 FROM daily_summaries WHERE date = ?`,
		date.Format(dateFormat),
	)
	s, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get daily summary", err)
	}
	return s, nil
}

// SummaryFilter narrows summary listings.
type SummaryFilter struct {
	From  *time.Time
	To    *time.Time
	Page  int
	Limit int
}

// List returns stored summaries matching the filter, newest first, plus the
// total match count.
func (r *SummaryRepo) List(f SummaryFilter) ([]domain.DailySummary, int, error) {
	var clauses []string
	var args []any
	if f.From != nil {
		clauses = append(clauses, "date >= ?")
		args = append(args, f.From.Format(dateFormat))
	}
	if f.To != nil {
		clauses = append(clauses, "date <= ?")
		args = append(args, f.To.Format(dateFormat))
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM daily_summaries"+where, args...).Scan(&total); err != nil {
		return nil, 0, storeErr("count daily summaries", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	q := `SELECT date, sum_region1, sum_region2, sum_card, sum_paypal,
	             sum_transfer, sum_unknown, total_sum, order_count, currency_code
	      FROM daily_summaries` + where + " ORDER BY date DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, 0, storeErr("list daily summaries", err)
	}
	defer rows.Close()

	var out []domain.DailySummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, 0, storeErr("scan daily summary", err)
		}
		out = append(out, *s)
	}
	return out, total, rows.Err()
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(sc scanner) (*domain.DailySummary, error) {
	var dateStr string
	var sumStrs [6]string
	var totalStr string
	var s domain.DailySummary

	err := sc.Scan(&dateStr, &sumStrs[0], &sumStrs[1], &sumStrs[2], &sumStrs[3],
		&sumStrs[4], &sumStrs[5], &totalStr, &s.TotalCount, &s.CurrencyCode)
	if err != nil {
		return nil, err
	}

	s.Date, err = time.Parse(dateFormat, dateStr)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", dateStr, err)
	}

	s.Sums = make(map[domain.Channel]decimal.Decimal, len(domain.Channels))
	s.Counts = make(map[domain.Channel]int)
	for i, ch := range domain.Channels {
		v, err := decimal.NewFromString(sumStrs[i])
		if err != nil {
			return nil, fmt.Errorf("parse sum %s %q: %w", ch, sumStrs[i], err)
		}
		if !v.IsZero() {
			s.Sums[ch] = v
		}
	}
	s.TotalSum, err = decimal.NewFromString(totalStr)
	if err != nil {
		return nil, fmt.Errorf("parse total %q: %w", totalStr, err)
	}
	return &s, nil
}
