// Package payout turns a daily revenue summary into settlement-dated payout
// entries using a business-day calendar.
package payout

import (
	"fmt"
	"time"

	"github.com/aromat/cashflow/internal/calendar"
	"github.com/aromat/cashflow/internal/domain"
)

// cardExtraLagDays is the settlement-network lag for card revenue: funds
// arrive three business days after the next business day.
const cardExtraLagDays = 3

// scheduledChannels lists the channels that participate in the payout plan,
// in output order. Unknown-channel revenue has no defined settlement lag and
// stays out of the plan (it still appears in the daily summary).
var scheduledChannels = []domain.Channel{
	domain.ChannelRegion1Bank,
	domain.ChannelRegion2Bank,
	domain.ChannelCard,
	domain.ChannelPayPal,
	domain.ChannelWireTransfer,
}

// Scheduler computes payout entries from daily summaries.
type Scheduler struct {
	cal *calendar.BusinessCalendar
}

// NewScheduler creates a scheduler over the given calendar snapshot.
func NewScheduler(cal *calendar.BusinessCalendar) *Scheduler {
	return &Scheduler{cal: cal}
}

// Schedule produces one payout entry per channel with a nonzero sum.
// Region bank, PayPal and wire transfer revenue settles on the next business
// day after the source date; card revenue settles three further business
// days later.
func (s *Scheduler) Schedule(sourceDate time.Time, summary *domain.DailySummary) ([]domain.PayoutEntry, error) {
	next, err := s.cal.NextBusinessDay(sourceDate)
	if err != nil {
		return nil, fmt.Errorf("next business day after %s: %w",
			sourceDate.Format("2006-01-02"), err)
	}

	var entries []domain.PayoutEntry
	for _, ch := range scheduledChannels {
		sum := summary.SumFor(ch)
		if sum.IsZero() {
			continue
		}

		settle := next
		if ch == domain.ChannelCard {
			settle, err = s.cal.AddBusinessDays(next, cardExtraLagDays)
			if err != nil {
				return nil, fmt.Errorf("card settlement date: %w", err)
			}
		}

		entries = append(entries, domain.PayoutEntry{
			SettlementDate: settle,
			Channel:        ch,
			Amount:         sum,
			SourceDate:     sourceDate,
			OrderCount:     summary.CountFor(ch),
		})
	}
	return entries, nil
}
