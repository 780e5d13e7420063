package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DailySummary is the per-channel revenue breakdown for one calendar date.
// Exactly one summary row exists per date; recomputing a date overwrites it.
type DailySummary struct {
	Date         time.Time                   `json:"date"`
	Sums         map[Channel]decimal.Decimal `json:"sums"`
	Counts       map[Channel]int             `json:"counts"`
	TotalSum     decimal.Decimal             `json:"total_sum"`
	TotalCount   int                         `json:"total_count"`
	CurrencyCode string                      `json:"currency_code"`
}

// SumFor returns the sum for a channel, zero if absent.
func (s *DailySummary) SumFor(c Channel) decimal.Decimal {
	if v, ok := s.Sums[c]; ok {
		return v
	}
	return decimal.Zero
}

// CountFor returns the order count for a channel, zero if absent.
func (s *DailySummary) CountFor(c Channel) int {
	return s.Counts[c]
}

// ReportField is one named value of the outbound daily report.
type ReportField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ReportFields exposes the summary in a stable field order for messaging
// front-ends. The engine never formats human-readable text itself.
func (s *DailySummary) ReportFields() []ReportField {
	fields := []ReportField{
		{Name: "date", Value: s.Date.Format("2006-01-02")},
	}
	for _, c := range Channels {
		fields = append(fields, ReportField{
			Name:  "sum_" + string(c),
			Value: s.SumFor(c).StringFixed(2),
		})
	}
	fields = append(fields,
		ReportField{Name: "total_sum", Value: s.TotalSum.StringFixed(2)},
		ReportField{Name: "order_count", Value: strconv.Itoa(s.TotalCount)},
		ReportField{Name: "currency_code", Value: s.CurrencyCode},
	)
	return fields
}

// PayoutEntry is one scheduled settlement: revenue of a single channel on a
// source date that becomes available on the settlement date.
type PayoutEntry struct {
	SettlementDate time.Time       `json:"settlement_date"`
	Channel        Channel         `json:"channel"`
	Amount         decimal.Decimal `json:"amount"`
	SourceDate     time.Time       `json:"source_date"`
	OrderCount     int             `json:"order_count"`
}
