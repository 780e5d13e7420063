package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aromat/cashflow/internal/domain"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleSummary(d string) *domain.DailySummary {
	return &domain.DailySummary{
		Date: date(d),
		Sums: map[domain.Channel]decimal.Decimal{
			domain.ChannelCard:   decimal.RequireFromString("120.50"),
			domain.ChannelPayPal: decimal.RequireFromString("30.00"),
		},
		Counts: map[domain.Channel]int{
			domain.ChannelCard:   3,
			domain.ChannelPayPal: 1,
		},
		TotalSum:     decimal.RequireFromString("150.50"),
		TotalCount:   4,
		CurrencyCode: "EUR",
	}
}

func TestSummaryUpsertRoundTrip(t *testing.T) {
	db := testDB(t)
	repo := NewSummaryRepo(db)

	require.NoError(t, repo.Upsert(sampleSummary("2025-01-03")))

	got, err := repo.GetByDate(date("2025-01-03"))
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "2025-01-03", got.Date.Format("2006-01-02"))
	assert.True(t, got.SumFor(domain.ChannelCard).Equal(decimal.RequireFromString("120.50")))
	assert.True(t, got.SumFor(domain.ChannelPayPal).Equal(decimal.RequireFromString("30.00")))
	assert.True(t, got.SumFor(domain.ChannelRegion1Bank).IsZero())
	assert.True(t, got.TotalSum.Equal(decimal.RequireFromString("150.50")))
	assert.Equal(t, 4, got.TotalCount)
	assert.Equal(t, "EUR", got.CurrencyCode)
}

func TestSummaryUpsertIsIdempotent(t *testing.T) {
	db := testDB(t)
	repo := NewSummaryRepo(db)

	s := sampleSummary("2025-01-03")
	require.NoError(t, repo.Upsert(s))
	require.NoError(t, repo.Upsert(s))

	var count int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM daily_summaries WHERE date = '2025-01-03'",
	).Scan(&count))
	assert.Equal(t, 1, count, "exactly one row per date regardless of call count")

	got, err := repo.GetByDate(date("2025-01-03"))
	require.NoError(t, err)
	assert.True(t, got.TotalSum.Equal(s.TotalSum))
}

func TestSummaryUpsertOverwrites(t *testing.T) {
	db := testDB(t)
	repo := NewSummaryRepo(db)

	require.NoError(t, repo.Upsert(sampleSummary("2025-01-03")))

	updated := sampleSummary("2025-01-03")
	updated.Sums[domain.ChannelCard] = decimal.RequireFromString("999.00")
	updated.TotalSum = decimal.RequireFromString("1029.00")
	require.NoError(t, repo.Upsert(updated))

	got, err := repo.GetByDate(date("2025-01-03"))
	require.NoError(t, err)
	assert.True(t, got.SumFor(domain.ChannelCard).Equal(decimal.RequireFromString("999.00")))
	assert.True(t, got.TotalSum.Equal(decimal.RequireFromString("1029.00")))
}

func TestSummaryGetByDateMissing(t *testing.T) {
	db := testDB(t)
	repo := NewSummaryRepo(db)

	got, err := repo.GetByDate(date("2030-01-01"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSummaryList(t *testing.T) {
	db := testDB(t)
	repo := NewSummaryRepo(db)

	for _, d := range []string{"2025-01-01", "2025-01-02", "2025-01-03"} {
		require.NoError(t, repo.Upsert(sampleSummary(d)))
	}

	from := date("2025-01-02")
	got, total, err := repo.List(SummaryFilter{From: &from})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-01-03", got[0].Date.Format("2006-01-02"), "newest first")
}

func samplePayouts(src string) []domain.PayoutEntry {
	return []domain.PayoutEntry{
		{
			SettlementDate: date("2025-01-06"),
			Channel:        domain.ChannelWireTransfer,
			Amount:         decimal.RequireFromString("100.00"),
			SourceDate:     date(src),
			OrderCount:     2,
		},
		{
			SettlementDate: date("2025-01-09"),
			Channel:        domain.ChannelCard,
			Amount:         decimal.RequireFromString("50.00"),
			SourceDate:     date(src),
			OrderCount:     1,
		},
	}
}

func TestPayoutReplaceIsIdempotent(t *testing.T) {
	db := testDB(t)
	repo := NewPayoutRepo(db)

	for i := 0; i < 3; i++ {
		n, err := repo.ReplaceForSourceDate(date("2025-01-03"), samplePayouts("2025-01-03"))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}

	src := date("2025-01-03")
	got, total, err := repo.List(PayoutFilter{SourceDate: &src})
	require.NoError(t, err)
	assert.Equal(t, 2, total, "repeated recompute must not duplicate payout rows")
	require.Len(t, got, 2)
}

func TestPayoutReplaceKeepsOtherSourceDates(t *testing.T) {
	db := testDB(t)
	repo := NewPayoutRepo(db)

	_, err := repo.ReplaceForSourceDate(date("2025-01-03"), samplePayouts("2025-01-03"))
	require.NoError(t, err)
	_, err = repo.ReplaceForSourceDate(date("2025-01-04"), samplePayouts("2025-01-04"))
	require.NoError(t, err)

	// Re-replace one date; the other's rows must survive.
	_, err = repo.ReplaceForSourceDate(date("2025-01-03"), samplePayouts("2025-01-03")[:1])
	require.NoError(t, err)

	other := date("2025-01-04")
	_, total, err := repo.List(PayoutFilter{SourceDate: &other})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	replaced := date("2025-01-03")
	_, total, err = repo.List(PayoutFilter{SourceDate: &replaced})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestPayoutReplaceWithEmptyEntriesClears(t *testing.T) {
	db := testDB(t)
	repo := NewPayoutRepo(db)

	_, err := repo.ReplaceForSourceDate(date("2025-01-03"), samplePayouts("2025-01-03"))
	require.NoError(t, err)

	n, err := repo.ReplaceForSourceDate(date("2025-01-03"), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	src := date("2025-01-03")
	_, total, err := repo.List(PayoutFilter{SourceDate: &src})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestPayoutListFilters(t *testing.T) {
	db := testDB(t)
	repo := NewPayoutRepo(db)

	_, err := repo.ReplaceForSourceDate(date("2025-01-03"), samplePayouts("2025-01-03"))
	require.NoError(t, err)

	got, total, err := repo.List(PayoutFilter{Channel: string(domain.ChannelCard)})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, domain.ChannelCard, got[0].Channel)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("50.00")))
	assert.Equal(t, 1, got[0].OrderCount)

	from := date("2025-01-07")
	_, total, err = repo.List(PayoutFilter{From: &from})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestHolidayRepo(t *testing.T) {
	db := testDB(t)
	repo := NewHolidayRepo(db)

	dates, err := repo.All()
	require.NoError(t, err)
	assert.Empty(t, dates)

	require.NoError(t, repo.Add(date("2025-01-01")))
	require.NoError(t, repo.Add(date("2025-12-24")))
	require.NoError(t, repo.Add(date("2025-01-01")), "duplicate add is a no-op")

	dates, err = repo.All()
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01", "2025-12-24"}, dates)

	require.NoError(t, repo.Remove(date("2025-01-01")))
	dates, err = repo.All()
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-12-24"}, dates)
}
