// Package aggregate reduces classified paid orders into a per-channel daily
// revenue summary.
package aggregate

import (
	"github.com/shopspring/decimal"

	"github.com/aromat/cashflow/internal/classify"
	"github.com/aromat/cashflow/internal/domain"
)

// Aggregate sums the given paid orders per channel. Amounts accumulate at
// full decimal precision; rounding to 2 decimals happens only here, at the
// output boundary. The reduction is commutative: any processing order of the
// same input set yields the same summary.
//
// Date and currency code are left for the caller to fill in.
func Aggregate(orders []domain.Order) domain.DailySummary {
	sums := make(map[domain.Channel]decimal.Decimal, len(domain.Channels))
	counts := make(map[domain.Channel]int, len(domain.Channels))

	for i := range orders {
		o := &orders[i]
		ch := classify.Classify(o)
		sums[ch] = sums[ch].Add(o.TotalPrice)
		counts[ch]++
	}

	// The grand total is the sum of the rounded channel sums, so the
	// totals-equal-sum-of-channels invariant holds exactly even when
	// rounding is in play.
	total := decimal.Zero
	for ch, sum := range sums {
		sums[ch] = sum.Round(2)
		total = total.Add(sums[ch])
	}

	return domain.DailySummary{
		Sums:       sums,
		Counts:     counts,
		TotalSum:   total.Round(2),
		TotalCount: len(orders),
	}
}
