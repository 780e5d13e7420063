package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aromat/cashflow/internal/domain"
)

// PayoutRepo persists the payout plan.
type PayoutRepo struct {
	db *sql.DB
}

func NewPayoutRepo(db *sql.DB) *PayoutRepo {
	return &PayoutRepo{db: db}
}

// ReplaceForSourceDate atomically replaces all payout rows for the given
// source date with the provided entries. Deleting before inserting makes a
// repeated recompute of the same date idempotent instead of duplicating rows.
func (r *PayoutRepo) ReplaceForSourceDate(sourceDate time.Time, entries []domain.PayoutEntry) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, storeErr("begin payout replace", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"DELETE FROM payout_plan WHERE source_date = ?",
		sourceDate.Format(dateFormat),
	); err != nil {
		return 0, storeErr("delete payout rows", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO payout_plan
		(settlement_date, channel_label, amount, source_date, order_count)
		VALUES (?,?,?,?,?)`,
	)
	if err != nil {
		return 0, storeErr("prepare payout insert", err)
	}
	defer stmt.Close()

	for i := range entries {
		e := &entries[i]
		if _, err := stmt.Exec(
			e.SettlementDate.Format(dateFormat), string(e.Channel),
			e.Amount.StringFixed(2), e.SourceDate.Format(dateFormat), e.OrderCount,
		); err != nil {
			return 0, storeErr(fmt.Sprintf("insert payout row %d", i), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, storeErr("commit payout replace", err)
	}
	return len(entries), nil
}

// PayoutFilter narrows payout listings.
type PayoutFilter struct {
	Channel    string
	SourceDate *time.Time
	From       *time.Time // settlement date lower bound
	To         *time.Time // settlement date upper bound
	Page       int
	Limit      int
}

// List returns payout entries matching the filter ordered by settlement date,
// plus the total match count.
func (r *PayoutRepo) List(f PayoutFilter) ([]domain.PayoutEntry, int, error) {
	var clauses []string
	var args []any

	if f.Channel != "" {
		clauses = append(clauses, "channel_label = ?")
		args = append(args, f.Channel)
	}
	if f.SourceDate != nil {
		clauses = append(clauses, "source_date = ?")
		args = append(args, f.SourceDate.Format(dateFormat))
	}
	if f.From != nil {
		clauses = append(clauses, "settlement_date >= ?")
		args = append(args, f.From.Format(dateFormat))
	}
	if f.To != nil {
		clauses = append(clauses, "settlement_date <= ?")
		args = append(args, f.To.Format(dateFormat))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM payout_plan"+where, args...).Scan(&total); err != nil {
		return nil, 0, storeErr("count payout rows", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	q := `SELECT settlement_date, channel_label, amount, source_date, order_count
	      FROM payout_plan` + where + ` ORDER BY settlement_date, channel_label LIMIT ? OFFSET ?`
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, 0, storeErr("list payout rows", err)
	}
	defer rows.Close()

	var out []domain.PayoutEntry
	for rows.Next() {
		e, err := scanPayoutEntry(rows)
		if err != nil {
			return nil, 0, storeErr("scan payout row", err)
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

func scanPayoutEntry(rows *sql.Rows) (*domain.PayoutEntry, error) {
	var e domain.PayoutEntry
	var settleStr, channel, amountStr, sourceStr string

	if err := rows.Scan(&settleStr, &channel, &amountStr, &sourceStr, &e.OrderCount); err != nil {
		return nil, err
	}

	var err error
	if e.SettlementDate, err = time.Parse(dateFormat, settleStr); err != nil {
		return nil, fmt.Errorf("parse settlement date %q: %w", settleStr, err)
	}
	if e.SourceDate, err = time.Parse(dateFormat, sourceStr); err != nil {
		return nil, fmt.Errorf("parse source date %q: %w", sourceStr, err)
	}
	if e.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amountStr, err)
	}
	e.Channel = domain.Channel(channel)
	return &e, nil
}
